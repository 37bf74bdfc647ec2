// Package server is the thin HTTP shell (§6 "EXTERNAL INTERFACES"): chi
// routing, request decoding, and response encoding around the orchestrator
// and warehouse repositories. It contains no decision logic itself.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/mbicorp/adbid-engine/internal/config"
	"github.com/mbicorp/adbid-engine/internal/notify"
	"github.com/mbicorp/adbid-engine/internal/orchestrator"
	"github.com/mbicorp/adbid-engine/internal/warehouse"
)

// Config holds everything Server needs to build its routes.
type Config struct {
	Port    int
	Log     zerolog.Logger
	Config  *config.Config
	DevMode bool

	Orchestrator *orchestrator.Orchestrator
	Recs         *warehouse.RecommendationRepository
	Inputs       *warehouse.InputRepository
	Backtests    *warehouse.BacktestRepository

	// Dashboard is the websocket notifier's HTTP handler; nil disables the
	// live-stream endpoint entirely.
	Dashboard *notify.WebsocketNotifier

	StartedAt time.Time
}

// Server wraps the chi router and the HTTP server lifecycle.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger

	orc       *orchestrator.Orchestrator
	recs      *warehouse.RecommendationRepository
	inputs    *warehouse.InputRepository
	backtests *warehouse.BacktestRepository
	dashboard *notify.WebsocketNotifier

	cfg       *config.Config
	startedAt time.Time
	port      int
}

// New builds a Server with its routes already mounted.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		orc:       cfg.Orchestrator,
		recs:      cfg.Recs,
		inputs:    cfg.Inputs,
		backtests: cfg.Backtests,
		dashboard: cfg.Dashboard,
		cfg:       cfg.Config,
		startedAt: cfg.StartedAt,
		port:      cfg.Port,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/admin/health", s.handleHealth)

	s.router.Route("/cron", func(r chi.Router) {
		r.Post("/run", s.handleCronBid("bid-engine-normal"))
		r.Post("/run-normal", s.handleCronBid("bid-engine-normal"))
		r.Post("/run-smode", s.handleCronBid("bid-engine-smode"))
		r.Post("/run-budget-optimization", s.handleCronBudget)
		r.Post("/run-placement-optimization", s.handleCronBudget)
		r.Post("/run-auto-exact-promotion", s.handleCronNegative)
		r.Post("/run-auto-exact-shadow", s.handleCronNegative)
		r.Post("/run-keyword-discovery", s.handleCronNegative)
	})

	s.router.Route("/lifecycle", func(r chi.Router) {
		r.Post("/update", s.handleLifecycleUpdate)
		r.Get("/suggestions", s.handleLifecycleSuggestions)
		r.Post("/products/{id}/stage", s.handleLifecycleStageOverride)
	})

	s.router.Route("/backtest", func(r chi.Router) {
		r.Post("/run", s.handleBacktestRun)
		r.Post("/weekly", s.handleBacktestWeekly)
		r.Get("/executions", s.handleBacktestList)
		r.Get("/executions/{id}", s.handleBacktestGet)
		r.Get("/executions/{id}/export", s.handleBacktestExport)
	})

	s.router.Route("/admin", func(r chi.Router) {
		r.Get("/negative-suggestions", s.handleListNegativeSuggestions)
		r.Post("/negative-suggestions/{id}/approve", s.handleApproveRecommendation("negative"))
		r.Post("/negative-suggestions/{id}/reject", s.handleRejectRecommendation("negative"))
		r.Post("/negative-suggestions/apply-queued", s.handleApplyQueued("negative"))

		r.Get("/auto-exact-suggestions", s.handleListAutoExactSuggestions)
		r.Post("/auto-exact-suggestions/{id}/approve", s.handleApproveRecommendation("auto-exact"))
		r.Post("/auto-exact-suggestions/{id}/reject", s.handleRejectRecommendation("auto-exact"))
		r.Post("/auto-exact-suggestions/apply-queued", s.handleApplyQueued("auto-exact"))

		r.Get("/bid-recommendations", s.handleListBidRecommendations)
		r.Post("/bid-recommendations/{id}/approve", s.handleApproveRecommendation("bid"))
		r.Post("/bid-recommendations/{id}/reject", s.handleRejectRecommendation("bid"))
		r.Post("/bid-recommendations/apply-queued", s.handleApplyQueued("bid"))

		r.Post("/budget-recommendations/{id}/approve", s.handleApproveRecommendation("budget"))
		r.Post("/budget-recommendations/{id}/reject", s.handleRejectRecommendation("budget"))
		r.Post("/budget-recommendations/apply-queued", s.handleApplyQueued("budget"))
	})

	if s.dashboard != nil {
		s.router.Get("/admin/dashboard/stream", s.dashboard.ServeHTTP)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
