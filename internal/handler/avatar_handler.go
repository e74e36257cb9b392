package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storypad/internal/model"
)

// AvatarUserStore はアバターハンドラーが必要とするユーザーストアの部分集合。
type AvatarUserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindAvatarCache(ctx context.Context, id string) (data []byte, mimeType string, err error)
	UpdateAvatarCache(ctx context.Context, id string, data []byte, mimeType string, fetchedAt time.Time) error
}

// AvatarFetcher はプロフィール画像の取得インターフェース。
type AvatarFetcher interface {
	Fetch(ctx context.Context, avatarURL string) (data []byte, mimeType string)
}

// AvatarHandler はユーザーのプロフィール画像を配信するHTTPハンドラー。
// 初回アクセス時に外部から取得してusersテーブルにキャッシュし、
// 以降はキャッシュから配信する。
type AvatarHandler struct {
	store   AvatarUserStore
	fetcher AvatarFetcher
}

// NewAvatarHandler はAvatarHandlerを生成する。
func NewAvatarHandler(store AvatarUserStore, fetcher AvatarFetcher) *AvatarHandler {
	return &AvatarHandler{
		store:   store,
		fetcher: fetcher,
	}
}

// Serve はプロフィール画像を配信する。
// GET /users/{id}/avatar
func (h *AvatarHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	// 1. キャッシュを確認
	data, mimeType, err := h.store.FindAvatarCache(r.Context(), userID)
	if err != nil {
		slog.Error("failed to read avatar cache",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if len(data) > 0 {
		writeAvatar(w, data, mimeType)
		return
	}

	// 2. キャッシュミス: ユーザーのプロフィール画像URLから取得
	user, err := h.store.FindByID(r.Context(), userID)
	if err != nil {
		slog.Error("failed to find user for avatar",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil || user.AvatarURL == "" {
		http.NotFound(w, r)
		return
	}

	data, mimeType = h.fetcher.Fetch(r.Context(), user.AvatarURL)
	if len(data) == 0 {
		// 取得失敗は404で縮退（ページ表示は継続できる）
		http.NotFound(w, r)
		return
	}

	// 3. キャッシュに保存。失敗しても配信は継続する
	if err := h.store.UpdateAvatarCache(r.Context(), userID, data, mimeType, time.Now()); err != nil {
		slog.Error("failed to update avatar cache",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	writeAvatar(w, data, mimeType)
}

// writeAvatar は画像データをキャッシュヘッダー付きで書き込む。
func writeAvatar(w http.ResponseWriter, data []byte, mimeType string) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
