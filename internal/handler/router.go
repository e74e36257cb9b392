package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/storypad/internal/metrics"
	"github.com/hitoshi/storypad/internal/middleware"
	"github.com/hitoshi/storypad/internal/view"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Renderer *view.Renderer
	Logger   *slog.Logger

	// ミドルウェア依存
	UserResolver middleware.UserResolver
	RateLimiter  *middleware.RateLimiter
	CSRFConfig   middleware.CSRFConfig

	// メトリクス
	Metrics         *metrics.Collector
	MetricsGatherer prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ストーリー
	StoryService StoryServiceInterface

	// アバター
	UserStore     AvatarUserStore
	AvatarFetcher AvatarFetcher

	// フィード
	FeedConfig FeedHandlerConfig
}

// NewRouter は全ルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → MethodOverride → CSRF → ResolveUser → Logging → Metrics
//
// MethodOverrideはCSRFより前に実行される必要がある（_methodの書き換え後に
// 状態変更メソッドとして検証するため）。ResolveUserはリクエストを拒否せず、
// 認証の強制は各ルートグループのガード（RequireAuthenticated / RequireGuest）が行う。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewMethodOverrideMiddleware())
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
	r.Use(middleware.NewResolveUserMiddleware(deps.UserResolver))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(metrics.NewMiddleware(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Metrics)
	pageHandler := NewPageHandler(deps.Renderer, deps.StoryService)
	storyHandler := NewStoryHandler(deps.Renderer, deps.StoryService, deps.Metrics)
	avatarHandler := NewAvatarHandler(deps.UserStore, deps.AvatarFetcher)
	feedHandler := NewFeedHandler(deps.StoryService, deps.FeedConfig)

	// --- 認証不要のルート ---

	// ランディングページ（認証済みユーザーはダッシュボードへ）
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireGuest)
		r.Get("/", pageHandler.Login)
	})

	// OAuthフローとログアウト
	r.Get("/auth/google/login", authHandler.Login)
	r.Get("/auth/google/callback", authHandler.Callback)
	r.Post("/auth/logout", authHandler.Logout)

	// プロフィール画像とRSSフィード
	r.Get("/users/{id}/avatar", avatarHandler.Serve)
	r.Get("/stories/feed", feedHandler.Serve)

	// 運用エンドポイント
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 認証必須のルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated)
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Get("/dashboard", pageHandler.Dashboard)

		r.Get("/stories", storyHandler.Index)
		r.Get("/stories/add", storyHandler.AddForm)
		r.Get("/stories/{id}", storyHandler.Show)
		r.Get("/stories/edit/{id}", storyHandler.EditForm)
		r.Get("/stories/user/{userID}", storyHandler.ByUser)
		r.Put("/stories/{id}", storyHandler.Update)
		r.Delete("/stories/{id}", storyHandler.Delete)

		// ストーリー投稿のみ追加のレート制限
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.StoryCreationMiddleware()).Post("/stories", storyHandler.Create)
		} else {
			r.Post("/stories", storyHandler.Create)
		}
	})

	return r
}
