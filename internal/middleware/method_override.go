package middleware

import "net/http"

// methodOverrideField はフォームでHTTPメソッドを上書きする際のフィールド名。
const methodOverrideField = "_method"

// NewMethodOverrideMiddleware はPOSTフォームの_methodフィールドによる
// HTTPメソッドの上書きを処理するミドルウェアを返す。
// HTMLフォームはGET/POSTしか送信できないため、更新はPUT、削除はDELETEとして
// 扱えるようにリクエストのメソッドを書き換える。PUTとDELETE以外は無視する。
func NewMethodOverrideMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				switch r.PostFormValue(methodOverrideField) {
				case http.MethodPut:
					r.Method = http.MethodPut
				case http.MethodDelete:
					r.Method = http.MethodDelete
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
