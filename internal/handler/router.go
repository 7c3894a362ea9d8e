package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/gitquiz/internal/middleware"
	"github.com/hitoshi/gitquiz/internal/repository"
	"github.com/hitoshi/gitquiz/internal/session"
)

// MetricsRecorder はルーターとハンドラーが必要とするメトリクス記録の
// インターフェース。metrics.Collectorが実装する。
type MetricsRecorder interface {
	middleware.StatusRecorder
	LoginRecorder
	CompletionRecorder
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionManager    *session.Manager
	SessionResolver   middleware.SessionResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ユーザー / クイズ / 補完
	Users     repository.UserRepository
	Repos     RepoLister
	Quiz      QuizServiceInterface
	Completer Completer

	// ヘルスチェック
	DB Pinger

	// メトリクス（nil可）
	Metrics MetricsRecorder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成した
// chi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//	→ (認証ルートのみ) Session → RateLimit(General)
//
// /auth/*、/logout、/health、/completion はセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	var loginRecorder LoginRecorder
	var completionRecorder CompletionRecorder
	if deps.Metrics != nil {
		loginRecorder = deps.Metrics
		completionRecorder = deps.Metrics
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.SessionManager, loginRecorder, deps.AuthConfig)
	userHandler := NewUserHandler(deps.Users, deps.Repos)
	quizHandler := NewQuizHandler(deps.Quiz)
	completionHandler := NewCompletionHandler(deps.Completer, completionRecorder)
	healthHandler := NewHealthHandler(deps.DB)

	// --- 認証不要のルート ---

	r.Route("/auth/github", func(r chi.Router) {
		r.Get("/login", authHandler.Login)
		r.Get("/callback", authHandler.Callback)
	})
	r.Get("/logout", authHandler.Logout)
	r.Get("/health", healthHandler.Check)

	// POST /completion - LLM補完。セッション不要で呼び出せる。
	// クライアントIPキーの補完専用レート制限のみを適用する。
	r.With(deps.RateLimiter.CompletionMiddleware()).Post("/completion", completionHandler.Complete)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionManager, deps.SessionResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.Get("/profile/{id}", userHandler.Profile)
		})

		r.Get("/quiz-questions/{repoId}", quizHandler.GetQuestions)
	})

	return r
}
