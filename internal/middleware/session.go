// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storypad/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// UserResolver はセッションIDから現在のユーザーを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type UserResolver interface {
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// NewResolveUserMiddleware はHTTP Only Cookieからセッションを読み取り、
// 解決できたユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// リクエストを拒否することはない。セッションがない・無効・解決に失敗した場合は
// 未認証のままハンドラーに進む（ガード判定はRequireAuthenticated側で行う）。
func NewResolveUserMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.GetCurrentUser(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve user from session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthenticated は認証済みユーザーのみを通過させるガード。
// 未認証リクエストはログイン／ランディングページへリダイレクトする。
// データストアには一切アクセスしない。
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireGuest は未認証ユーザーのみを通過させるガード。
// 認証済みリクエストはダッシュボードへリダイレクトする。
// RequireAuthenticatedの逆で、ログインページから認証済みユーザーを遠ざける。
func RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) != nil {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 未認証の場合はnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok {
		return nil
	}
	return user
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// SessionIDFromRequest はリクエストのCookieからセッションIDを取得する。
// Cookieがない場合は空文字列を返す。
func SessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
