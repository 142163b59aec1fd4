package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/worklink/internal/metrics"
	"github.com/hitoshi/worklink/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// HealthChecker はヘルスチェックでDB疎通を確認するためのインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 監視
	HealthChecker    HealthChecker
	MetricsCollector metrics.MetricsCollector
	MetricsGatherer  prometheus.Gatherer

	// サービス層
	AuthService        AuthServiceInterface
	JobService         JobServiceInterface
	ApplicationService ApplicationServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → (Auth → RateLimit(General))
//
// 認証エンドポイント（登録・ログイン・リフレッシュ・ログアウト）のみ認証不要で、
// クライアントIP単位のレート制限を適用する。それ以外の/api配下は全て
// Bearerトークン必須。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.MetricsCollector != nil {
		r.Use(metrics.Middleware(deps.MetricsCollector))
	}
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))

	authHandler := NewAuthHandler(deps.AuthService)
	jobHandler := NewJobHandler(deps.JobService)
	appHandler := NewApplicationHandler(deps.ApplicationService)

	// --- 認証不要のルート ---

	// ヘルスチェック（/healthはDockerヘルスチェック用のエイリアス）
	healthHandler := func(w http.ResponseWriter, _ *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.Ping(); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
	r.Get("/health", healthHandler)
	r.Get("/api/health", healthHandler)

	// サービス情報
	r.Get("/api", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"worklink API","status":"ok"}`))
	})

	// Prometheusスクレイプ用エンドポイント
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// 認証エンドポイント（クライアントIP単位のレート制限を適用）
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.AuthMiddleware())
		}

		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
		r.Post("/api/auth/refresh", authHandler.Refresh)
		r.Post("/api/auth/logout", authHandler.Logout)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// アカウント管理
		r.Get("/api/auth/me", authHandler.Me)
		r.Get("/api/auth/verify-role/{role}", authHandler.VerifyRole)
		r.Post("/api/auth/change-password", authHandler.ChangePassword)

		// 求人（閲覧は両ロール、作成・更新・削除はemployerのみ。
		// 権限と所有者のチェックはサービス層で行う）
		r.Route("/api/jobs", func(r chi.Router) {
			r.Get("/", jobHandler.List)
			r.Post("/", jobHandler.Create)
			r.Get("/my-jobs", jobHandler.ListMine)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", jobHandler.Get)
				r.Put("/", jobHandler.Update)
				r.Patch("/", jobHandler.Update)
				r.Delete("/", jobHandler.Delete)

				// 求人ごとの応募一覧（求人所有者のみ）・応募・応募済み確認
				r.Get("/applications", appHandler.ListForJob)
				r.Post("/apply", appHandler.ApplyToJob)
				r.Get("/check-applied", appHandler.CheckApplied)
			})
		})

		// 応募管理
		r.Route("/api/applications", func(r chi.Router) {
			r.Get("/", appHandler.ListMine)
			r.Post("/", appHandler.Apply)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", appHandler.Get)
				r.Delete("/", appHandler.Delete)
				r.Post("/withdraw", appHandler.Withdraw)
				r.Put("/status", appHandler.UpdateStatus)
				r.Patch("/status", appHandler.UpdateStatus)
			})
		})
	})

	return r
}
