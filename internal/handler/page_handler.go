package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/storypad/internal/middleware"
	"github.com/hitoshi/storypad/internal/view"
)

// PageHandler はランディングページとダッシュボードのHTTPハンドラー。
type PageHandler struct {
	renderer *view.Renderer
	service  StoryServiceInterface
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(renderer *view.Renderer, service StoryServiceInterface) *PageHandler {
	return &PageHandler{
		renderer: renderer,
		service:  service,
	}
}

// Login はログイン（ランディング）ページを表示する。未認証のみ。
// GET /
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, http.StatusOK, "login", baseData(r, nil)); err != nil {
		slog.Error("failed to render login page", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Dashboard は認証済みユーザー自身のストーリー一覧を表示する。
// 公開状態を問わず、所有するすべてのストーリーが対象。
// GET /dashboard
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	stories, err := h.service.ListByOwner(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to list stories for dashboard",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		renderServerError(h.renderer, w, r)
		return
	}

	data := baseData(r, map[string]any{
		"Stories": stories,
	})
	if err := h.renderer.Render(w, http.StatusOK, "dashboard", data); err != nil {
		slog.Error("failed to render dashboard", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
