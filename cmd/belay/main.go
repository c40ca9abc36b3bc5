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

	"github.com/google/uuid"
	"github.com/jiashuyu/belay/internal/api"
	"github.com/jiashuyu/belay/internal/auth"
	"github.com/jiashuyu/belay/internal/config"
	"github.com/jiashuyu/belay/internal/database"
	"github.com/jiashuyu/belay/internal/metrics"
	"github.com/jiashuyu/belay/internal/ratelimit"
	redisclient "github.com/jiashuyu/belay/internal/redis"
	"github.com/jiashuyu/belay/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(cfg.NewLogger())

	if err := run(cfg); err != nil {
		slog.Error("belay exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	// --- Infrastructure ---

	if cfg.MigrateOnStart {
		changed, err := database.Migrate(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		slog.Info("migrations checked", "applied", changed)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	store := database.NewStore(pool)

	var (
		limiter ratelimit.Limiter
		rdb     *redisclient.Client
	)
	if cfg.RedisURL != "" {
		rdb, err = redisclient.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		limiter = ratelimit.NewRedis(rdb)
	} else {
		slog.Info("REDIS_URL not set, using in-process rate limiter")
		mem := ratelimit.NewMemory(ratelimit.CleanupOpts{})
		defer mem.Close()
		limiter = mem
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Services ---

	authSvc := service.NewAuthService(store, m)
	userSvc := service.NewUserService(store, m)
	channelSvc := service.NewChannelService(store, m)
	messageSvc := service.NewMessageService(store, m)
	readSvc := service.NewReadStateService(store, m)
	unreadSvc := service.NewUnreadService(store, m)

	deps := &api.Dependencies{
		Auth:       api.NewAuthHandler(authSvc),
		Users:      api.NewUserHandler(userSvc),
		Channels:   api.NewChannelHandler(channelSvc),
		Messages:   api.NewMessageHandler(messageSvc),
		ReadStates: api.NewReadStateHandler(readSvc, unreadSvc),

		AuthMiddleware: auth.Middleware(authSvc),
		Limiter:        limiter,
		RateLimitAuth:  cfg.RateLimitAuth,
		RateLimitAPI:   cfg.RateLimitAPI,
		Metrics:        m,
		Health: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			if rdb != nil {
				if err := rdb.Ping(ctx); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
		StaticDir: cfg.StaticDir,
	}

	// --- Echo ---

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				slog.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(m.Middleware())

	api.SetupRouter(e, deps)

	// --- Start ---

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("belay starting", "addr", cfg.ServerAddr)
		if err := e.Start(cfg.ServerAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-sigCtx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
