package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
)

const (
	// csrfCookieName はCSRFトークンを保持するCookieの名前。
	csrfCookieName = "csrf_token"

	// csrfFormField はフォームからCSRFトークンを読み取る際のフィールド名。
	// サーバーレンダリングのため、ヘッダーではなく隠しフィールドで送信される。
	csrfFormField = "csrf_token"
)

// csrfTokenContextKey はリクエストコンテキストに有効なCSRFトークンを格納するキー。
// Cookieを新規発行した直後のリクエストでもテンプレートが同じトークンを
// 埋め込めるよう、ミドルウェアが常にコンテキストへ注入する。
var csrfTokenContextKey = contextKey("csrf_token")

// CSRFConfig はCSRFミドルウェアの設定。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string
}

// NewCSRFMiddleware はCSRFトークンの生成・検証ミドルウェアを返す。
// 安全なメソッド（GET, HEAD, OPTIONS）はトークン検証をスキップし、
// CSRFトークンCookieを設定する。
// 状態変更メソッド（POST, PUT, PATCH, DELETE）はCookieのトークンと
// フォームのcsrf_tokenフィールドの一致を必須とする（double submit方式）。
// メソッド上書きミドルウェアの後に配置すること。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 安全なメソッド: Cookieを保証し、トークンをコンテキストに注入
			if isSafeMethod(r.Method) {
				token := ensureCSRFCookie(w, r, config)
				ctx := context.WithValue(r.Context(), csrfTokenContextKey, token)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// 状態変更メソッド: CSRFトークンを検証
			cookieToken, err := r.Cookie(csrfCookieName)
			if err != nil || cookieToken.Value == "" {
				slog.Warn("CSRF validation failed: missing cookie token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			formToken := r.PostFormValue(csrfFormField)
			if formToken == "" {
				slog.Warn("CSRF validation failed: missing form token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			if subtle.ConstantTimeCompare([]byte(cookieToken.Value), []byte(formToken)) != 1 {
				slog.Warn("CSRF validation failed: token mismatch",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), csrfTokenContextKey, cookieToken.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CSRFTokenFromContext はリクエストコンテキストから有効なCSRFトークンを取得する。
// CSRFミドルウェアを通過したリクエストでのみ有効。
func CSRFTokenFromContext(ctx context.Context) string {
	token, ok := ctx.Value(csrfTokenContextKey).(string)
	if !ok {
		return ""
	}
	return token
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// ensureCSRFCookie はCSRFトークンCookieを保証し、有効なトークンを返す。
// 既存のCookieがある場合はそのトークンを、なければ新規生成して設定する。
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, config CSRFConfig) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token, err := generateCSRFToken()
	if err != nil {
		slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   86400, // 24時間
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return token
}

// generateCSRFToken は暗号的に安全なCSRFトークンを生成する。
func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
