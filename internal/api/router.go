package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hindsightlabs/hindsight/internal/api/handlers"
	mw "github.com/hindsightlabs/hindsight/internal/api/middleware"
	"github.com/hindsightlabs/hindsight/internal/config"
	"github.com/hindsightlabs/hindsight/internal/domain"
	"github.com/hindsightlabs/hindsight/internal/service"
	"github.com/hindsightlabs/hindsight/internal/store"
)

// Compile-time checks that the pgx stores satisfy the domain interfaces.
var (
	_ domain.EventStore       = (*store.EventStore)(nil)
	_ domain.ClaimStore       = (*store.ClaimStore)(nil)
	_ domain.EntityStateStore = (*store.EntityStateStore)(nil)
	_ domain.HypothesisStore  = (*store.HypothesisStore)(nil)
	_ domain.PredictionStore  = (*store.PredictionStore)(nil)
	_ domain.SnapshotStore    = (*store.SnapshotStore)(nil)
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Sweeper      *service.SweeperService
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	eventStore := store.NewEventStore(db)
	claimStore := store.NewClaimStore(db)
	entityStore := store.NewEntityStateStore(db)
	hypothesisStore := store.NewHypothesisStore(db)
	predictionStore := store.NewPredictionStore(db)
	snapshotStore := store.NewSnapshotStore(db)

	// Services
	eventSvc := service.NewEventService(eventStore, logger)
	claimSvc := service.NewClaimService(claimStore, logger)
	entitySvc := service.NewEntityService(entityStore, logger)
	hypothesisSvc := service.NewHypothesisService(hypothesisStore,
		service.OverduePolicy(config.SweepOverduePolicy()), logger)
	predictionSvc := service.NewPredictionService(predictionStore, logger)
	statsSvc := service.NewStatsService(predictionStore, logger)
	snapshotSvc := service.NewSnapshotService(snapshotStore, logger)

	sweeper := service.NewSweeperService(hypothesisSvc, predictionSvc, logger)
	sweeper.SetInterval(config.SweepInterval())

	// Handlers
	eventHandler := handlers.NewEventHandler(eventSvc)
	claimHandler := handlers.NewClaimHandler(claimSvc)
	entityHandler := handlers.NewEntityHandler(entitySvc)
	hypothesisHandler := handlers.NewHypothesisHandler(hypothesisSvc)
	predictionHandler := handlers.NewPredictionHandler(predictionSvc)
	statsHandler := handlers.NewStatsHandler(statsSvc)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotSvc)
	sweepHandler := handlers.NewSweepHandler(sweeper)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Sweeper:   sweeper,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		// Claims (raw attributed statements)
		r.Route("/claims", func(r chi.Router) {
			r.Post("/", claimHandler.Create)
			r.Get("/", claimHandler.List)
			r.Get("/pending", claimHandler.Pending)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", claimHandler.GetByID)
				r.Post("/status", claimHandler.AdvanceStatus)
			})
		})

		// Events (verified real-world actions)
		r.Route("/events", func(r chi.Router) {
			r.Post("/", eventHandler.Create)
			r.Get("/", eventHandler.List)
			r.Get("/actions", eventHandler.Actions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", eventHandler.GetByID)
				r.Post("/retract", eventHandler.Retract)
			})
		})

		// Entity states (versioned actor ledger)
		r.Route("/entities", func(r chi.Router) {
			r.Get("/", entityHandler.List)
			r.Post("/states", entityHandler.RecordState)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/state", entityHandler.Current)
				r.Get("/history", entityHandler.History)
			})
		})

		// Hypotheses (falsifiable inferences)
		r.Route("/hypotheses", func(r chi.Router) {
			r.Post("/", hypothesisHandler.Propose)
			r.Get("/pending", hypothesisHandler.Pending)
			r.Get("/overdue", hypothesisHandler.Overdue)
			r.Get("/resolved", hypothesisHandler.RecentResolved)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", hypothesisHandler.GetByID)
				r.Post("/support", hypothesisHandler.Support)
				r.Post("/refute", hypothesisHandler.Refute)
				r.Post("/resolve", hypothesisHandler.Resolve)
			})
		})

		// Predictions (scored against ground truth)
		r.Route("/predictions", func(r chi.Router) {
			r.Post("/", predictionHandler.Create)
			r.Get("/due", predictionHandler.Due)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", predictionHandler.GetByID)
				r.Post("/resolve", predictionHandler.Resolve)
			})
		})

		// Accuracy scorecard
		r.Get("/stats", statsHandler.Get)

		// Daily continuity snapshots
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/latest", snapshotHandler.Latest)
			r.Get("/recent", snapshotHandler.Recent)
			r.Get("/search", snapshotHandler.Search)
			r.Put("/{date}", snapshotHandler.Upsert)
			r.Get("/{date}", snapshotHandler.GetByDate)
		})

		// Manual sweep trigger
		r.Post("/sweep", sweepHandler.Trigger)
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
