package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// NewRecoveryMiddleware はハンドラーのpanicを捕捉し、プロセスを落とさずに
// 500レスポンスへ変換するミドルウェアを返す。
// http.ErrAbortHandlerはサーバーの中断シグナルのため再panicさせる。
func NewRecoveryMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
