// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/storypad/internal/middleware"
	"github.com/hitoshi/storypad/internal/view"
)

// baseData は全ページ共通のテンプレートデータを構築する。
// コンテキストから認証済みユーザーとCSRFトークンを取り出し、
// extraのキーをマージして返す。
func baseData(r *http.Request, extra map[string]any) map[string]any {
	data := map[string]any{
		"User":      middleware.UserFromContext(r.Context()),
		"CSRFToken": middleware.CSRFTokenFromContext(r.Context()),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// renderNotFound は404ページをレンダリングする。
func renderNotFound(renderer *view.Renderer, w http.ResponseWriter, r *http.Request) {
	if err := renderer.Render(w, http.StatusNotFound, "errors/404", baseData(r, nil)); err != nil {
		slog.Error("failed to render 404 page", slog.String("error", err.Error()))
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// renderServerError は500ページをレンダリングする。
func renderServerError(renderer *view.Renderer, w http.ResponseWriter, r *http.Request) {
	if err := renderer.Render(w, http.StatusInternalServerError, "errors/500", baseData(r, nil)); err != nil {
		slog.Error("failed to render 500 page", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
