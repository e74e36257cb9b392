// Package avatar はユーザーのプロフィール画像の取得とキャッシュを提供する。
//
// Googleから提供されるプロフィール画像URLを初回アクセス時に取得し、
// usersテーブルにキャッシュする。取得はSSRF防止付きHTTPクライアントで行い、
// 失敗しても認証フローやページ表示には影響しない（空データで縮退する）。
package avatar

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// FetcherConfig はアバター取得の設定。
type FetcherConfig struct {
	Timeout time.Duration
	MaxSize int64
}

// Fetcher はプロフィール画像取得機能の実装。
type Fetcher struct {
	ssrfGuard SSRFValidator
	config    FetcherConfig
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(ssrfGuard SSRFValidator, config FetcherConfig) *Fetcher {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.MaxSize == 0 {
		config.MaxSize = 2 * 1024 * 1024
	}
	return &Fetcher{
		ssrfGuard: ssrfGuard,
		config:    config,
	}
}

// Fetch は指定URLからプロフィール画像を取得する。
// 取得失敗時はnilデータと空MIMEを返す（エラーは返さない）。
func (f *Fetcher) Fetch(ctx context.Context, avatarURL string) ([]byte, string) {
	if avatarURL == "" {
		return nil, ""
	}

	// SSRF検証
	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(avatarURL); err != nil {
			slog.Warn("avatar fetch blocked by SSRF guard",
				slog.String("url", avatarURL),
				slog.String("error", err.Error()),
			)
			return nil, ""
		}
	}

	client := f.getHTTPClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, avatarURL, nil)
	if err != nil {
		slog.Warn("avatar fetch: failed to create request",
			slog.String("url", avatarURL),
			slog.String("error", err.Error()),
		)
		return nil, ""
	}
	req.Header.Set("User-Agent", "Storypad/1.0")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("avatar fetch: request failed",
			slog.String("url", avatarURL),
			slog.String("error", err.Error()),
		)
		return nil, ""
	}
	defer resp.Body.Close()

	// 2xx以外は取得失敗として扱う
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("avatar fetch: unexpected status",
			slog.String("url", avatarURL),
			slog.Int("status", resp.StatusCode),
		)
		return nil, ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxSize+1))
	if err != nil {
		slog.Warn("avatar fetch: failed to read response",
			slog.String("url", avatarURL),
			slog.String("error", err.Error()),
		)
		return nil, ""
	}

	// サイズ超過チェック
	if int64(len(body)) > f.config.MaxSize {
		slog.Warn("avatar fetch: response too large",
			slog.String("url", avatarURL),
			slog.Int("size", len(body)),
		)
		return nil, ""
	}

	mimeType := extractMimeType(resp.Header.Get("Content-Type"))
	if !isImageMime(mimeType) {
		slog.Warn("avatar fetch: non-image content type",
			slog.String("url", avatarURL),
			slog.String("mime", mimeType),
		)
		return nil, ""
	}

	return body, mimeType
}

// getHTTPClient はHTTPクライアントを取得する。
func (f *Fetcher) getHTTPClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(f.config.Timeout, f.config.MaxSize)
	}
	return &http.Client{Timeout: f.config.Timeout}
}

// extractMimeType はContent-Typeヘッダーからメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	// セミコロンの前の部分（charset等を除去）
	parts := strings.SplitN(contentType, ";", 2)
	return strings.TrimSpace(strings.ToLower(parts[0]))
}

// isImageMime はMIMEタイプが画像かどうかを判定する。
func isImageMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}
