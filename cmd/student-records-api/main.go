// main is the entry point of the student records API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (env vars may override)
//  2. Initialise the logger
//  3. Connect to PostgreSQL and run the embedded migrations
//  4. Connect the Redis cache client
//  5. Build the metrics registry and the record service
//  6. Register all HTTP routes
//  7. Start the HTTP server in a separate goroutine
//  8. Block until an OS signal arrives, then shut down gracefully
//
// RUNNING THE SERVER:
//
//	go run ./cmd/student-records-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/student-records-api
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/http/handlers/health"
	"github.com/aanand-mishra/student-records-api/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records-api/internal/http/middleware"
	"github.com/aanand-mishra/student-records-api/internal/metrics"
	studentservice "github.com/aanand-mishra/student-records-api/internal/service/student"
	"github.com/aanand-mishra/student-records-api/internal/storage/postgres"

	rediscache "github.com/aanand-mishra/student-records-api/internal/cache/redis"
)

// readyProbeTimeout bounds each dependency ping performed by GET /ready.
const readyProbeTimeout = 2 * time.Second

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting student-records-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	// Storage: opens the pgx connection pool, pings it, and brings the
	// schema up to date. The pool is process-wide and reused by every
	// request.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := postgres.New(ctx, cfg.DatabaseDSN)
	cancel()
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	log.Info("storage initialised")

	// Cache: the client owns a connection pool too. Unreachability is
	// not fatal — the service degrades to direct store access — so no
	// ping here; /ready reports the live state instead.
	cache := rediscache.New(cfg.Cache.RedisAddr)
	defer cache.Close()

	m := metrics.New()

	svc := studentservice.New(store, cache, m, log, studentservice.Options{
		TTL:          cfg.Cache.TTL,
		StoreTimeout: cfg.Store.OpTimeout,
		CacheTimeout: cfg.Cache.OpTimeout,
	})

	// Route table:
	//   POST   /students       → create a new student
	//   GET    /students       → list all students
	//   GET    /students/{id}  → get one student by ID
	//   PUT    /students/{id}  → partially update a student
	//   DELETE /students/{id}  → delete a student
	//   GET    /healthcheck    → liveness probe
	//   GET    /ready          → readiness probe (store + cache pings)
	//   GET    /cache/stats    → cache hit/miss counters as JSON
	//   GET    /metrics        → Prometheus exposition format
	router := http.NewServeMux()

	router.HandleFunc("POST /students", middleware.Instrument(m, "/students", student.New(svc)))
	router.HandleFunc("GET /students", middleware.Instrument(m, "/students", student.GetList(svc)))
	router.HandleFunc("GET /students/{id}", middleware.Instrument(m, "/students/{id}", student.GetByID(svc)))
	router.HandleFunc("PUT /students/{id}", middleware.Instrument(m, "/students/{id}", student.Update(svc)))
	router.HandleFunc("DELETE /students/{id}", middleware.Instrument(m, "/students/{id}", student.Delete(svc)))

	router.HandleFunc("GET /healthcheck", health.Healthcheck())
	router.HandleFunc("GET /ready", health.Ready(store, cache, readyProbeTimeout))
	router.HandleFunc("GET /cache/stats", m.StatsHandler())
	router.Handle("GET /metrics", m.Handler())

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router,

		// Timeouts guard against slow-client attacks.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given
// environment: human-readable text at DEBUG for dev, JSON for
// staging/prod so log aggregators can ingest it.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
