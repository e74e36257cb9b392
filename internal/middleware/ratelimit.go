package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate      rate.Limit    // ページ全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst     int           // ページ全般のバーストサイズ
	StoryCreateRate  rate.Limit    // ストーリー投稿のレート（req/sec）。10/60
	StoryCreateBurst int           // ストーリー投稿のバーストサイズ
	CleanupInterval  time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// ページ全般 120 req/min/user、ストーリー投稿 10 req/min/user
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:      rate.Limit(120.0 / 60.0), // 2 req/sec
		GeneralBurst:     120,
		StoryCreateRate:  rate.Limit(10.0 / 60.0), // ~0.167 req/sec
		StoryCreateBurst: 10,
		CleanupInterval:  5 * time.Minute,
	}
}

// userLimiter はユーザーごとのレートリミッターとアクセス時刻を保持する。
type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はユーザーごとのレート制限を管理する。
// ページ全般のレート制限とストーリー投稿のレート制限の2種類を提供する。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*userLimiter

	createMu       sync.RWMutex
	createLimiters map[string]*userLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*userLimiter),
		createLimiters:  make(map[string]*userLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware はページ全般のレート制限ミドルウェアを返す。
// リクエストコンテキストにユーザーが含まれている必要がある
// （RequireAuthenticatedの後に配置）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}

			limiter := rl.getOrCreateLimiter(&rl.generalMu, rl.generalLimiters, user.ID, rl.config.GeneralRate, rl.config.GeneralBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("user_id", user.ID),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// StoryCreationMiddleware はストーリー投稿専用のレート制限ミドルウェアを返す。
// ページ全般のレート制限とは独立に動作する。
func (rl *RateLimiter) StoryCreationMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}

			limiter := rl.getOrCreateLimiter(&rl.createMu, rl.createLimiters, user.ID, rl.config.StoryCreateRate, rl.config.StoryCreateBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.StoryCreateRate)
				slog.Warn("rate limit exceeded",
					slog.String("user_id", user.ID),
					slog.String("limit_type", "story_creation"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getOrCreateLimiter は指定ユーザーのリミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateLimiter(mu *sync.RWMutex, limiters map[string]*userLimiter, userID string, limit rate.Limit, burst int) *rate.Limiter {
	mu.RLock()
	ul, exists := limiters[userID]
	mu.RUnlock()

	if exists {
		mu.Lock()
		ul.lastAccess = time.Now()
		mu.Unlock()
		return ul.limiter
	}

	mu.Lock()
	defer mu.Unlock()

	// ダブルチェック
	if ul, exists := limiters[userID]; exists {
		ul.lastAccess = time.Now()
		return ul.limiter
	}

	limiter := rate.NewLimiter(limit, burst)
	limiters[userID] = &userLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// GeneralLimiterCount は現在管理されているページ全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// StoryCreateLimiterCount は現在管理されているストーリー投稿リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) StoryCreateLimiterCount() int {
	rl.createMu.RLock()
	defer rl.createMu.RUnlock()
	return len(rl.createLimiters)
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2

	now := time.Now()

	rl.generalMu.Lock()
	for userID, ul := range rl.generalLimiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.generalLimiters, userID)
		}
	}
	rl.generalMu.Unlock()

	rl.createMu.Lock()
	for userID, ul := range rl.createLimiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.createLimiters, userID)
		}
	}
	rl.createMu.Unlock()
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	// Retry-Afterの算出: 1トークンが補充されるまでの秒数
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	http.Error(w, "too many requests", http.StatusTooManyRequests)
}
