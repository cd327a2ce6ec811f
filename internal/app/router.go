package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vantage-erp/vantage-erp/internal/platform/httpx"
	profithttp "github.com/vantage-erp/vantage-erp/internal/profit/http"
	"github.com/vantage-erp/vantage-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Pool          *pgxpool.Pool
	Redis         *redis.Client
	ProfitHandler *profithttp.Handler
	JobHandler    *jobs.Handler
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		if params.Pool != nil {
			status["postgres"] = "ok"
			if err := params.Pool.Ping(ctx); err != nil {
				status["postgres"] = "down"
			}
		}
		if params.Redis != nil {
			status["redis"] = "ok"
			if err := params.Redis.Ping(ctx).Err(); err != nil {
				status["redis"] = "down"
			}
		}
		httpx.JSON(w, http.StatusOK, status)
	})

	if params.ProfitHandler != nil {
		r.Route("/profitability", params.ProfitHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
