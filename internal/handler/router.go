package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/workman/internal/middleware"
)

// HealthChecker はヘルスチェックで使用するDB疎通確認のインターフェース。
type HealthChecker interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ヘルスチェック
	HealthChecker HealthChecker

	// レポート・稼働率
	WorkloadService WorkloadServiceInterface
	AvailabilitySvc AvailabilityServiceInterface

	// メトリクス（/metrics、nilの場合はルートを公開しない）
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Logging → RateLimit
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	reportHandler := NewReportHandler(deps.WorkloadService)
	availabilityHandler := NewAvailabilityHandler(deps.AvailabilitySvc)

	// ヘルスチェック（レート制限の外）
	r.Get("/health", healthHandler(deps.HealthChecker))

	// Prometheusメトリクス（レート制限の外）
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// APIルート: レート制限を適用
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.Middleware())

		// レポート
		r.Route("/api/reports", func(r chi.Router) {
			r.Get("/", reportHandler.ListReports)
			r.Get("/{key}", reportHandler.GetReport)
		})

		// 期間一覧
		r.Get("/api/periods", reportHandler.ListPeriods)

		// 稼働率
		r.Get("/api/availability", availabilityHandler.GetAvailability)

		// 日次記録状態
		r.Get("/api/employees/{id}/days", availabilityHandler.GetDayStates)
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.Ping(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  "database unreachable",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
