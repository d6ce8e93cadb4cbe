package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"todorbac/internal/auth"
	"todorbac/internal/authz"
	"todorbac/internal/config"
	"todorbac/internal/database"
	"todorbac/internal/httpserver"
	"todorbac/internal/httpserver/handlers"
	"todorbac/internal/logger"
	"todorbac/internal/rbac"
	"todorbac/internal/seed"
	"todorbac/internal/todos"
	"todorbac/internal/users"
)

func main() {
	cfg, cfgErr := config.Load()
	level := os.Getenv("LOG_LEVEL")
	if cfg != nil {
		level = cfg.LogLevel
	}
	lg := logger.New(level)
	defer lg.Sync()
	if cfgErr != nil {
		lg.Fatalw("invalid configuration", "error", cfgErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, lg)
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			lg.Warnw("db close failed", "error", err)
		}
	}()
	if err := database.Migrate(db); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	accounts := users.NewService(db, lg)
	graph := rbac.NewService(db, lg)
	if err := seed.Run(ctx, graph, accounts, seed.Options{
		AdminRole: cfg.AdminRole,
		UserRole:  cfg.DefaultRole,
		DemoUsers: cfg.SeedDemoUsers,
	}, lg); err != nil {
		lg.Fatalw("seed failed", "error", err)
	}

	var deny auth.Denylist
	if cfg.Revocation == config.RevocationRedis {
		rd, err := auth.NewRedisDenylist(ctx, cfg.RedisURL)
		if err != nil {
			lg.Fatalw("redis denylist unavailable", "error", err)
		}
		defer rd.Close()
		deny = rd
		lg.Infow("token revocation enabled", "store", "redis")
	} else {
		lg.Infow("token revocation disabled; tokens are valid until expiry")
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, auth.IssuerOptions{
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Denylist:   deny,
	})
	if err != nil {
		lg.Fatalw("token issuer", "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := handlers.Deps{
		Users:       accounts,
		Graph:       graph,
		Todos:       todos.NewService(db, lg),
		Issuer:      issuer,
		Authz:       authz.NewEvaluator(issuer, graph, authz.Mode(cfg.AuthzMode)),
		Log:         lg,
		DefaultRole: cfg.DefaultRole,
	}
	router := httpserver.NewRouter(deps, httpserver.Options{
		Metrics:           httpserver.NewMetrics(reg),
		AdminRole:         cfg.AdminRole,
		LoginRatePerSec:   cfg.LoginRatePerSec,
		LoginBurst:        cfg.LoginBurst,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		lg.Infow("listening", "port", cfg.HTTPPort, "authz_mode", cfg.AuthzMode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Errorw("http server failed", "error", err)
		}
	case <-ctx.Done():
		lg.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Warnw("graceful shutdown failed", "error", err)
		}
	}
}
