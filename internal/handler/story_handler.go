package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storypad/internal/metrics"
	"github.com/hitoshi/storypad/internal/middleware"
	"github.com/hitoshi/storypad/internal/model"
	"github.com/hitoshi/storypad/internal/story"
	"github.com/hitoshi/storypad/internal/view"
)

// StoryServiceInterface はストーリーハンドラーが必要とするサービスインターフェース。
type StoryServiceInterface interface {
	Create(ctx context.Context, ownerID string, input story.CreateInput) (*model.Story, error)
	GetForViewer(ctx context.Context, viewerID, id string) (*model.StoryWithAuthor, error)
	GetForEdit(ctx context.Context, requesterID, id string) (*model.Story, error)
	Update(ctx context.Context, requesterID, id string, input story.UpdateInput) (*model.Story, error)
	Delete(ctx context.Context, requesterID, id string) error
	ListPublic(ctx context.Context) ([]model.StoryWithAuthor, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Story, error)
	ListPublicByOwner(ctx context.Context, ownerID string) ([]model.StoryWithAuthor, error)
}

// StoryHandler はストーリーCRUDのHTTPハンドラー。
//
// エラーの変換規則:
//   - story.ErrNotFound → 404ページ
//   - story.ErrNotOwner → /storiesへのリダイレクト（ソフトデナイ）
//   - model.ValidationError → フォームの再表示（422）
//   - その他 → 500ページ
type StoryHandler struct {
	renderer *view.Renderer
	service  StoryServiceInterface
	metrics  *metrics.Collector
}

// NewStoryHandler はStoryHandlerを生成する。
func NewStoryHandler(renderer *view.Renderer, service StoryServiceInterface, collector *metrics.Collector) *StoryHandler {
	return &StoryHandler{
		renderer: renderer,
		service:  service,
		metrics:  collector,
	}
}

// Index は公開ストーリーの一覧を表示する。
// GET /stories
func (h *StoryHandler) Index(w http.ResponseWriter, r *http.Request) {
	stories, err := h.service.ListPublic(r.Context())
	if err != nil {
		slog.Error("failed to list public stories", slog.String("error", err.Error()))
		renderServerError(h.renderer, w, r)
		return
	}

	h.render(w, r, http.StatusOK, "stories/index", map[string]any{
		"Stories": stories,
	})
}

// ByUser は指定ユーザーの公開ストーリー一覧を表示する。
// GET /stories/user/{userID}
func (h *StoryHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "userID")

	stories, err := h.service.ListPublicByOwner(r.Context(), ownerID)
	if err != nil {
		slog.Error("failed to list stories by owner", slog.String("error", err.Error()))
		renderServerError(h.renderer, w, r)
		return
	}

	h.render(w, r, http.StatusOK, "stories/index", map[string]any{
		"Stories": stories,
	})
}

// Show は単一ストーリーを表示する。
// GET /stories/{id}
func (h *StoryHandler) Show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	viewer := middleware.UserFromContext(r.Context())

	s, err := h.service.GetForViewer(r.Context(), viewer.ID, id)
	if err != nil {
		h.handleStoryError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "stories/show", map[string]any{
		"Story": s,
	})
}

// AddForm は新規ストーリーの作成フォームを表示する。
// GET /stories/add
func (h *StoryHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "stories/add", map[string]any{
		"FormAction": "/stories",
		"FormStatus": "public",
	})
}

// Create は新規ストーリーを作成し、ダッシュボードへリダイレクトする。
// POST /stories
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.UserFromContext(r.Context())

	input := story.CreateInput{
		Title:  r.PostFormValue("title"),
		Body:   r.PostFormValue("body"),
		Status: r.PostFormValue("status"),
	}

	_, err := h.service.Create(r.Context(), owner.ID, input)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			// 入力値を保持したままフォームを再表示
			h.render(w, r, http.StatusUnprocessableEntity, "stories/add", map[string]any{
				"FormAction": "/stories",
				"FormTitle":  input.Title,
				"FormBody":   input.Body,
				"FormStatus": input.Status,
				"Errors":     verr.Fields,
			})
			return
		}
		slog.Error("failed to create story", slog.String("error", err.Error()))
		renderServerError(h.renderer, w, r)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordStoryCreated()
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// EditForm は既存ストーリーの編集フォームを表示する。所有者のみ。
// GET /stories/edit/{id}
func (h *StoryHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requester := middleware.UserFromContext(r.Context())

	s, err := h.service.GetForEdit(r.Context(), requester.ID, id)
	if err != nil {
		h.handleStoryError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "stories/edit", map[string]any{
		"FormAction": "/stories/" + s.ID,
		"FormMethod": http.MethodPut,
		"FormTitle":  s.Title,
		"FormBody":   s.Body,
		"FormStatus": string(s.Status),
	})
}

// Update は既存ストーリーを更新し、ダッシュボードへリダイレクトする。所有者のみ。
// PUT /stories/{id}
func (h *StoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requester := middleware.UserFromContext(r.Context())

	input := story.UpdateInput{
		Title:  r.PostFormValue("title"),
		Body:   r.PostFormValue("body"),
		Status: r.PostFormValue("status"),
	}

	_, err := h.service.Update(r.Context(), requester.ID, id, input)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			h.render(w, r, http.StatusUnprocessableEntity, "stories/edit", map[string]any{
				"FormAction": "/stories/" + id,
				"FormMethod": http.MethodPut,
				"FormTitle":  input.Title,
				"FormBody":   input.Body,
				"FormStatus": input.Status,
				"Errors":     verr.Fields,
			})
			return
		}
		h.handleStoryError(w, r, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Delete はストーリーを削除し、ダッシュボードへリダイレクトする。
// DELETE /stories/{id}
func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requester := middleware.UserFromContext(r.Context())

	if err := h.service.Delete(r.Context(), requester.ID, id); err != nil {
		h.handleStoryError(w, r, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// render はbaseDataにページ固有のデータをマージしてレンダリングする。
func (h *StoryHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, extra map[string]any) {
	if err := h.renderer.Render(w, status, name, baseData(r, extra)); err != nil {
		slog.Error("failed to render page",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// handleStoryError はサービス層のエラーをHTTPレスポンスに変換する。
func (h *StoryHandler) handleStoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, story.ErrNotFound):
		renderNotFound(h.renderer, w, r)
	case errors.Is(err, story.ErrNotOwner):
		// ソフトデナイ: 権限エラーは明示せず一覧へ戻す
		http.Redirect(w, r, "/stories", http.StatusFound)
	default:
		slog.Error("story operation failed", slog.String("error", err.Error()))
		renderServerError(h.renderer, w, r)
	}
}
