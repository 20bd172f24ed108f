// Package main runs the review layer HTTP server.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	app "github.com/ProvenDev-Labs/review_layer/internal/app"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/identity"
	"github.com/ProvenDev-Labs/review_layer/internal/app/httpapi"
	"github.com/ProvenDev-Labs/review_layer/internal/app/metrics"
	"github.com/ProvenDev-Labs/review_layer/internal/app/services/ledger"
	"github.com/ProvenDev-Labs/review_layer/internal/app/storage/postgres"
	"github.com/ProvenDev-Labs/review_layer/internal/config"
	"github.com/ProvenDev-Labs/review_layer/internal/middleware"
	"github.com/ProvenDev-Labs/review_layer/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	policy := identity.NewEmailPolicy(cfg.Auth.AdminEmail)

	stores, db, err := buildStores(cfg, log)
	if err != nil {
		return fmt.Errorf("configure stores: %w", err)
	}
	if db != nil {
		defer db.Close()
	}

	var recorder ledger.Recorder
	if cfg.Ledger.Endpoint != "" {
		recorder, err = ledger.NewRPC(ledger.RPCConfig{
			Endpoint: cfg.Ledger.Endpoint,
			APIKey:   cfg.Ledger.APIKey,
			Timeout:  cfg.Ledger.Timeout,
		}, log.Named("ledger"))
		if err != nil {
			return fmt.Errorf("configure ledger recorder: %w", err)
		}
	} else {
		log.Warn("LEDGER_RPC_URL not set; using simulated ledger recorder")
		recorder = ledger.NewSimulated(cfg.Ledger.SimulatedDelay, log.Named("ledger"))
	}

	application, err := app.New(stores, app.Options{Policy: policy, Recorder: recorder}, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(shutdownCtx)
	}()

	gate := middleware.NewIdentityGate(
		[]byte(cfg.Auth.JWTSecret),
		policy,
		registrar{application},
		log.Named("identity-gate"),
		[]string{"/healthz", "/metrics"},
	)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, log.Named("ratelimit"))
	cors := middleware.NewCORS(cfg.AllowedOrigins)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", httpapi.NewHandler(application))

	handler := cors.Handler(metrics.Middleware(gate.Handler(limiter.Handler(mux))))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func buildStores(cfg *config.Config, log *logger.Logger) (app.Stores, *sql.DB, error) {
	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set; using in-memory store")
		return app.Stores{}, nil, nil
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return app.Stores{}, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return app.Stores{}, nil, fmt.Errorf("ping database: %w", err)
	}

	store := postgres.New(db, cfg.Database.URL, log.Named("postgres"))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return app.Stores{}, nil, err
	}

	return app.Stores{Items: store, Notifications: store, Profiles: store}, db, nil
}

// registrar adapts the registry service to the identity gate's upsert hook.
type registrar struct {
	app *app.Application
}

func (r registrar) Ensure(ctx context.Context, actor identity.Actor) error {
	_, err := r.app.Registry.Ensure(ctx, actor)
	return err
}
