package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storypad/internal/model"
)

// --- モック定義 ---

type mockAvatarUserStore struct {
	findByIDFn          func(ctx context.Context, id string) (*model.User, error)
	findAvatarCacheFn   func(ctx context.Context, id string) ([]byte, string, error)
	updateAvatarCacheFn func(ctx context.Context, id string, data []byte, mimeType string, fetchedAt time.Time) error
}

func (m *mockAvatarUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAvatarUserStore) FindAvatarCache(ctx context.Context, id string) ([]byte, string, error) {
	if m.findAvatarCacheFn != nil {
		return m.findAvatarCacheFn(ctx, id)
	}
	return nil, "", nil
}

func (m *mockAvatarUserStore) UpdateAvatarCache(ctx context.Context, id string, data []byte, mimeType string, fetchedAt time.Time) error {
	if m.updateAvatarCacheFn != nil {
		return m.updateAvatarCacheFn(ctx, id, data, mimeType, fetchedAt)
	}
	return nil
}

type mockAvatarFetcher struct {
	fetchFn func(ctx context.Context, avatarURL string) ([]byte, string)
}

func (m *mockAvatarFetcher) Fetch(ctx context.Context, avatarURL string) ([]byte, string) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, avatarURL)
	}
	return nil, ""
}

var (
	_ AvatarUserStore = (*mockAvatarUserStore)(nil)
	_ AvatarFetcher   = (*mockAvatarFetcher)(nil)
)

func serveAvatar(h *AvatarHandler, userID string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/users/{id}/avatar", h.Serve)

	req := httptest.NewRequest(http.MethodGet, "/users/"+userID+"/avatar", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// --- テスト ---

func TestAvatarHandler_Serve_CacheHit(t *testing.T) {
	fetchCalled := false
	store := &mockAvatarUserStore{
		findAvatarCacheFn: func(ctx context.Context, id string) ([]byte, string, error) {
			return []byte("cached-png"), "image/png", nil
		},
	}
	fetcher := &mockAvatarFetcher{
		fetchFn: func(ctx context.Context, avatarURL string) ([]byte, string) {
			fetchCalled = true
			return nil, ""
		},
	}
	h := NewAvatarHandler(store, fetcher)

	rec := serveAvatar(h, "user-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "cached-png" {
		t.Errorf("body = %q, want cached data", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want %q", ct, "image/png")
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if fetchCalled {
		t.Error("fetcher should not be called on cache hit")
	}
}

func TestAvatarHandler_Serve_CacheMiss_FetchesAndStores(t *testing.T) {
	var cachedData []byte
	var cachedMime string
	store := &mockAvatarUserStore{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, AvatarURL: "https://lh3.googleusercontent.com/photo.jpg"}, nil
		},
		updateAvatarCacheFn: func(ctx context.Context, id string, data []byte, mimeType string, fetchedAt time.Time) error {
			cachedData = data
			cachedMime = mimeType
			return nil
		},
	}
	fetcher := &mockAvatarFetcher{
		fetchFn: func(ctx context.Context, avatarURL string) ([]byte, string) {
			if avatarURL != "https://lh3.googleusercontent.com/photo.jpg" {
				t.Errorf("avatarURL = %q", avatarURL)
			}
			return []byte("fetched-jpeg"), "image/jpeg"
		},
	}
	h := NewAvatarHandler(store, fetcher)

	rec := serveAvatar(h, "user-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "fetched-jpeg" {
		t.Errorf("body = %q, want fetched data", rec.Body.String())
	}
	if string(cachedData) != "fetched-jpeg" || cachedMime != "image/jpeg" {
		t.Errorf("cache update = (%q, %q), want fetched data", cachedData, cachedMime)
	}
}

func TestAvatarHandler_Serve_UnknownUser(t *testing.T) {
	store := &mockAvatarUserStore{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	h := NewAvatarHandler(store, &mockAvatarFetcher{})

	rec := serveAvatar(h, "missing-user")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAvatarHandler_Serve_UserWithoutAvatarURL(t *testing.T) {
	store := &mockAvatarUserStore{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, AvatarURL: ""}, nil
		},
	}
	h := NewAvatarHandler(store, &mockAvatarFetcher{})

	rec := serveAvatar(h, "user-1")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAvatarHandler_Serve_FetchFailure_DegradesTo404(t *testing.T) {
	store := &mockAvatarUserStore{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, AvatarURL: "https://example.com/avatar.png"}, nil
		},
	}
	fetcher := &mockAvatarFetcher{
		fetchFn: func(ctx context.Context, avatarURL string) ([]byte, string) {
			return nil, ""
		},
	}
	h := NewAvatarHandler(store, fetcher)

	rec := serveAvatar(h, "user-1")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAvatarHandler_Serve_CacheWriteFailureStillServes(t *testing.T) {
	store := &mockAvatarUserStore{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, AvatarURL: "https://example.com/avatar.png"}, nil
		},
		updateAvatarCacheFn: func(ctx context.Context, id string, data []byte, mimeType string, fetchedAt time.Time) error {
			return errors.New("db down")
		},
	}
	fetcher := &mockAvatarFetcher{
		fetchFn: func(ctx context.Context, avatarURL string) ([]byte, string) {
			return []byte("png-bytes"), "image/png"
		},
	}
	h := NewAvatarHandler(store, fetcher)

	rec := serveAvatar(h, "user-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("body = %q, want fetched data", rec.Body.String())
	}
}

func TestAvatarHandler_Serve_CacheReadError(t *testing.T) {
	store := &mockAvatarUserStore{
		findAvatarCacheFn: func(ctx context.Context, id string) ([]byte, string, error) {
			return nil, "", errors.New("db down")
		},
	}
	h := NewAvatarHandler(store, &mockAvatarFetcher{})

	rec := serveAvatar(h, "user-1")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
