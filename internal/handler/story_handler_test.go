package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storypad/internal/middleware"
	"github.com/hitoshi/storypad/internal/model"
	"github.com/hitoshi/storypad/internal/story"
	"github.com/hitoshi/storypad/internal/view"
)

// --- モック定義 ---

type mockStoryService struct {
	createFn            func(ctx context.Context, ownerID string, input story.CreateInput) (*model.Story, error)
	getForViewerFn      func(ctx context.Context, viewerID, id string) (*model.StoryWithAuthor, error)
	getForEditFn        func(ctx context.Context, requesterID, id string) (*model.Story, error)
	updateFn            func(ctx context.Context, requesterID, id string, input story.UpdateInput) (*model.Story, error)
	deleteFn            func(ctx context.Context, requesterID, id string) error
	listPublicFn        func(ctx context.Context) ([]model.StoryWithAuthor, error)
	listByOwnerFn       func(ctx context.Context, ownerID string) ([]model.Story, error)
	listPublicByOwnerFn func(ctx context.Context, ownerID string) ([]model.StoryWithAuthor, error)
}

func (m *mockStoryService) Create(ctx context.Context, ownerID string, input story.CreateInput) (*model.Story, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, input)
	}
	return &model.Story{ID: "story-1", UserID: ownerID}, nil
}

func (m *mockStoryService) GetForViewer(ctx context.Context, viewerID, id string) (*model.StoryWithAuthor, error) {
	if m.getForViewerFn != nil {
		return m.getForViewerFn(ctx, viewerID, id)
	}
	return nil, story.ErrNotFound
}

func (m *mockStoryService) GetForEdit(ctx context.Context, requesterID, id string) (*model.Story, error) {
	if m.getForEditFn != nil {
		return m.getForEditFn(ctx, requesterID, id)
	}
	return nil, story.ErrNotFound
}

func (m *mockStoryService) Update(ctx context.Context, requesterID, id string, input story.UpdateInput) (*model.Story, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, requesterID, id, input)
	}
	return nil, story.ErrNotFound
}

func (m *mockStoryService) Delete(ctx context.Context, requesterID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, requesterID, id)
	}
	return nil
}

func (m *mockStoryService) ListPublic(ctx context.Context) ([]model.StoryWithAuthor, error) {
	if m.listPublicFn != nil {
		return m.listPublicFn(ctx)
	}
	return nil, nil
}

func (m *mockStoryService) ListByOwner(ctx context.Context, ownerID string) ([]model.Story, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockStoryService) ListPublicByOwner(ctx context.Context, ownerID string) ([]model.StoryWithAuthor, error) {
	if m.listPublicByOwnerFn != nil {
		return m.listPublicByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

var _ StoryServiceInterface = (*mockStoryService)(nil)

// --- テストヘルパー ---

func newTestRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return renderer
}

// newStoryRouter はchiのURLパラメータ解決を含めてハンドラーを実行するための
// テスト用ルーターを構築する。
func newStoryRouter(h *StoryHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/stories", h.Index)
	r.Get("/stories/add", h.AddForm)
	r.Get("/stories/{id}", h.Show)
	r.Get("/stories/edit/{id}", h.EditForm)
	r.Get("/stories/user/{userID}", h.ByUser)
	r.Post("/stories", h.Create)
	r.Put("/stories/{id}", h.Update)
	r.Delete("/stories/{id}", h.Delete)
	return r
}

func authedRequest(method, target string, body *strings.Reader, user *model.User) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(middleware.ContextWithUser(req.Context(), user))
}

var testViewer = &model.User{ID: "user-1", Name: "Sato Hanako", FirstName: "Hanako"}

// --- テスト ---

func TestStoryHandler_Show_RendersStory(t *testing.T) {
	svc := &mockStoryService{
		getForViewerFn: func(ctx context.Context, viewerID, id string) (*model.StoryWithAuthor, error) {
			if viewerID != "user-1" {
				t.Errorf("viewerID = %q, want %q", viewerID, "user-1")
			}
			if id != "story-1" {
				t.Errorf("id = %q, want %q", id, "story-1")
			}
			return &model.StoryWithAuthor{
				Story: model.Story{
					ID:        "story-1",
					UserID:    "user-2",
					Title:     "はじめての旅行記",
					Body:      "<p>楽しかった</p>",
					Status:    model.StoryStatusPublic,
					CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				},
				AuthorName: "Yamada Taro",
			}, nil
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/stories/story-1", nil, testViewer))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "はじめての旅行記") {
		t.Error("body should contain story title")
	}
	if !strings.Contains(body, "Yamada Taro") {
		t.Error("body should contain author name")
	}
}

func TestStoryHandler_Show_NotFound(t *testing.T) {
	svc := &mockStoryService{
		getForViewerFn: func(ctx context.Context, viewerID, id string) (*model.StoryWithAuthor, error) {
			return nil, story.ErrNotFound
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/stories/missing", nil, testViewer))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestStoryHandler_Show_NotOwner_RedirectsToStories(t *testing.T) {
	svc := &mockStoryService{
		getForViewerFn: func(ctx context.Context, viewerID, id string) (*model.StoryWithAuthor, error) {
			return nil, story.ErrNotOwner
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/stories/story-9", nil, testViewer))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/stories" {
		t.Errorf("Location = %q, want %q", loc, "/stories")
	}
}

func TestStoryHandler_Index_RendersPublicStories(t *testing.T) {
	svc := &mockStoryService{
		listPublicFn: func(ctx context.Context) ([]model.StoryWithAuthor, error) {
			return []model.StoryWithAuthor{
				{Story: model.Story{ID: "s1", UserID: "user-2", Title: "公開ストーリーA", Body: "本文A"}, AuthorName: "Yamada Taro"},
				{Story: model.Story{ID: "s2", UserID: "user-3", Title: "公開ストーリーB", Body: "本文B"}, AuthorName: "Suzuki Jiro"},
			}, nil
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/stories", nil, testViewer))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "公開ストーリーA") || !strings.Contains(body, "公開ストーリーB") {
		t.Error("body should contain both story titles")
	}
}

func TestStoryHandler_Index_ServiceError_Renders500(t *testing.T) {
	svc := &mockStoryService{
		listPublicFn: func(ctx context.Context) ([]model.StoryWithAuthor, error) {
			return nil, errors.New("db down")
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/stories", nil, testViewer))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestStoryHandler_ByUser_PassesOwnerID(t *testing.T) {
	var gotOwnerID string
	svc := &mockStoryService{
		listPublicByOwnerFn: func(ctx context.Context, ownerID string) ([]model.StoryWithAuthor, error) {
			gotOwnerID = ownerID
			return nil, nil
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/stories/user/user-42", nil, testViewer))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotOwnerID != "user-42" {
		t.Errorf("ownerID = %q, want %q", gotOwnerID, "user-42")
	}
}

func TestStoryHandler_Create_Success_RedirectsToDashboard(t *testing.T) {
	var gotInput story.CreateInput
	svc := &mockStoryService{
		createFn: func(ctx context.Context, ownerID string, input story.CreateInput) (*model.Story, error) {
			if ownerID != "user-1" {
				t.Errorf("ownerID = %q, want %q", ownerID, "user-1")
			}
			gotInput = input
			return &model.Story{ID: "new-story", UserID: ownerID}, nil
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	form := url.Values{
		"title":  {"新しいストーリー"},
		"body":   {"本文です"},
		"status": {"private"},
	}
	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodPost, "/stories", strings.NewReader(form.Encode()), testViewer))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want %q", loc, "/dashboard")
	}
	if gotInput.Title != "新しいストーリー" || gotInput.Body != "本文です" || gotInput.Status != "private" {
		t.Errorf("unexpected input: %+v", gotInput)
	}
}

func TestStoryHandler_Create_ValidationError_RerendersForm(t *testing.T) {
	svc := &mockStoryService{
		createFn: func(ctx context.Context, ownerID string, input story.CreateInput) (*model.Story, error) {
			verr := model.NewValidationError()
			verr.Add("title", "タイトルを入力してください")
			return nil, verr
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	form := url.Values{
		"title": {""},
		"body":  {"本文だけ入力した"},
	}
	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodPost, "/stories", strings.NewReader(form.Encode()), testViewer))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "タイトルを入力してください") {
		t.Error("body should contain the validation message")
	}
	// 入力値が保持されていること
	if !strings.Contains(body, "本文だけ入力した") {
		t.Error("body should preserve the submitted body text")
	}
}

func TestStoryHandler_EditForm_RendersWithPutOverride(t *testing.T) {
	svc := &mockStoryService{
		getForEditFn: func(ctx context.Context, requesterID, id string) (*model.Story, error) {
			return &model.Story{
				ID:     "story-1",
				UserID: requesterID,
				Title:  "編集対象",
				Body:   "編集前の本文",
				Status: model.StoryStatusPrivate,
			}, nil
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/stories/edit/story-1", nil, testViewer))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `action="/stories/story-1"`) {
		t.Error("form should post to /stories/story-1")
	}
	if !strings.Contains(body, `name="_method" value="PUT"`) {
		t.Error("form should carry the PUT method override")
	}
	if !strings.Contains(body, "編集前の本文") {
		t.Error("form should be pre-filled with the current body")
	}
}

func TestStoryHandler_Update_NotOwner_RedirectsToStories(t *testing.T) {
	svc := &mockStoryService{
		updateFn: func(ctx context.Context, requesterID, id string, input story.UpdateInput) (*model.Story, error) {
			return nil, story.ErrNotOwner
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	form := url.Values{"title": {"t"}, "body": {"b"}}
	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodPut, "/stories/story-9", strings.NewReader(form.Encode()), testViewer))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/stories" {
		t.Errorf("Location = %q, want %q", loc, "/stories")
	}
}

func TestStoryHandler_Update_ValidationError_RerendersEditForm(t *testing.T) {
	svc := &mockStoryService{
		updateFn: func(ctx context.Context, requesterID, id string, input story.UpdateInput) (*model.Story, error) {
			verr := model.NewValidationError()
			verr.Add("body", "本文を入力してください")
			return nil, verr
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	form := url.Values{"title": {"タイトルあり"}, "body": {""}}
	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodPut, "/stories/story-1", strings.NewReader(form.Encode()), testViewer))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "本文を入力してください") {
		t.Error("body should contain the validation message")
	}
	if !strings.Contains(body, `value="タイトルあり"`) {
		t.Error("form should preserve the submitted title")
	}
}

func TestStoryHandler_Delete_Success_RedirectsToDashboard(t *testing.T) {
	var gotID string
	svc := &mockStoryService{
		deleteFn: func(ctx context.Context, requesterID, id string) error {
			gotID = id
			return nil
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodDelete, "/stories/story-1", nil, testViewer))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want %q", loc, "/dashboard")
	}
	if gotID != "story-1" {
		t.Errorf("deleted id = %q, want %q", gotID, "story-1")
	}
}

func TestStoryHandler_Delete_NotFound(t *testing.T) {
	svc := &mockStoryService{
		deleteFn: func(ctx context.Context, requesterID, id string) error {
			return story.ErrNotFound
		},
	}
	h := NewStoryHandler(newTestRenderer(t), svc, nil)

	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodDelete, "/stories/missing", nil, testViewer))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestStoryHandler_AddForm_DefaultsToPublic(t *testing.T) {
	h := NewStoryHandler(newTestRenderer(t), &mockStoryService{}, nil)

	rec := httptest.NewRecorder()
	newStoryRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/stories/add", nil, testViewer))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `value="public" selected`) {
		t.Error("status select should default to public")
	}
}
