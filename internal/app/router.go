package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinia-ve/kinia/internal/factoring"
	"github.com/kinia-ve/kinia/internal/observability"
	"github.com/kinia-ve/kinia/internal/relationship"
	"github.com/kinia-ve/kinia/internal/scoring"
	"github.com/kinia-ve/kinia/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	Verifier            *shared.APIKeyVerifier
	ScoringHandler      *scoring.Handler
	RelationshipHandler *relationship.Handler
	FactoringHandler    *factoring.Handler
	Pool                *pgxpool.Pool
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with Kinia defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := params.Pool.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(APIKeyMiddleware(params.Logger, params.Verifier))
		api.Use(ActorMiddleware())

		api.Route("/scoring", func(sr chi.Router) {
			params.ScoringHandler.MountRoutes(sr)
		})
		api.Route("/relaciones", func(rr chi.Router) {
			params.RelationshipHandler.MountRoutes(rr)
		})
		api.Route("/factoring", func(fr chi.Router) {
			params.FactoringHandler.MountRoutes(fr)
		})
	})

	return r
}
