package middleware

import "net/http"

// contentSecurityPolicy はサーバーレンダリングページ用のCSP。
// インラインスタイルはテンプレートが使用するため許可する。
const contentSecurityPolicy = "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'"

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
			next.ServeHTTP(w, r)
		})
	}
}
