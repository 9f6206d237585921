package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/bankly/internal/auth"
	"github.com/geocoder89/bankly/internal/cache"
	"github.com/geocoder89/bankly/internal/config"
	"github.com/geocoder89/bankly/internal/db"
	httpx "github.com/geocoder89/bankly/internal/http"
	"github.com/geocoder89/bankly/internal/http/handlers"
	"github.com/geocoder89/bankly/internal/observability"
	"github.com/geocoder89/bankly/internal/ratelimit"
	"github.com/geocoder89/bankly/internal/redisclient"
	"github.com/geocoder89/bankly/internal/repo/memory"
	"github.com/geocoder89/bankly/internal/repo/postgres"
	"github.com/geocoder89/bankly/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"
)

type userStore interface {
	handlers.UserStore
	handlers.Pinger
}

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.Env, cfg.OTelEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	store, closeStore, err := openStore(ctx, cfg, prom, log)
	if err != nil {
		log.Error("store init failed", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	hasher := security.NewPasswordHasher(bcrypt.DefaultCost)

	seeded, err := db.EnsureAdminUser(ctx, store, hasher, cfg)
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	if seeded {
		log.Info("admin user created", "username", cfg.AdminUsername)
	}

	readyChecks := map[string]handlers.Pinger{"store": store}

	var limiter ratelimit.Limiter = ratelimit.NewMemory(cfg.AuthRateLimit, cfg.AuthRateWindow)
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pctx); err != nil {
			// the limiter fails open, so a cold redis is not fatal
			log.Warn("redis ping failed", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		limiter = ratelimit.NewRedis(rdb.Raw(), cfg.AuthRateLimit, cfg.AuthRateWindow, log)
		readyChecks["redis"] = rdb
	}

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Users:       store,
		Tokens:      auth.NewManager(cfg.JWTSecret, cfg.JWTTTL),
		Hasher:      hasher,
		Limiter:     limiter,
		Cache:       cache.New(5 * time.Second),
		Prom:        prom,
		Gatherer:    reg,
		ReadyChecks: readyChecks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("server shutting down")
	case err := <-errCh:
		log.Error("server failed", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}
	log.Info("shutdown complete")
}

func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (userStore, func(), error) {
	if cfg.Store == "memory" {
		log.Warn("using in-memory user store; data is lost on restart")
		return memory.NewUsersRepo(), func() {}, nil
	}

	if cfg.AutoMigrate {
		if err := db.MigrateUp(ctx, cfg.DBURL); err != nil {
			return nil, nil, err
		}
	}

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return nil, nil, err
	}

	return postgres.NewUsersRepo(pool, prom), pool.Close, nil
}
