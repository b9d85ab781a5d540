package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bivochat/stories/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DB が満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	MetricsHandler    http.Handler
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ストーリー
	StoryService StoryServiceInterface

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SessionMiddleware → CSRFMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/auth/*）とCSRFトークン取得はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	storyHandler := NewStoryHandler(deps.StoryService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	// ヘルスチェック（Docker/ロードバランサー用）
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Prometheusメトリクス
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 認証ルート（電話番号+認証コードフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Post("/request-code", authHandler.RequestCode)
		r.Post("/verify", authHandler.Verify)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// CSRFトークン取得
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ストーリー管理
		r.Route("/api/stories", func(r chi.Router) {
			// POST /api/stories - ストーリー作成（作成専用レート制限を追加）
			r.With(deps.RateLimiter.StoryCreationMiddleware()).Post("/", storyHandler.Create)

			r.Get("/", storyHandler.ListFeed)
			r.Get("/mine", storyHandler.ListMine)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", storyHandler.Get)
				r.Post("/view", storyHandler.View)
				r.Post("/like", storyHandler.Like)
				r.Delete("/like", storyHandler.Unlike)
				r.Get("/likes", storyHandler.GetLikes)
				r.Post("/comments", storyHandler.AddComment)
				r.Get("/comments", storyHandler.GetComments)
			})
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Put("/me/location", userHandler.UpdateLocation)
			r.Delete("/me", userHandler.Withdraw)
			r.Get("/{id}", userHandler.GetUser)
		})
	})

	return r
}
