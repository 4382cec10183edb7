package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maintenance-service/internal/auth"
	"maintenance-service/internal/handler"
	"maintenance-service/internal/middleware"
	"maintenance-service/internal/repository"
	"maintenance-service/internal/scheduler"
	"maintenance-service/internal/service"
	"maintenance-service/pkg/config"
	"maintenance-service/pkg/database"
	"maintenance-service/pkg/jwtutil"
	"maintenance-service/pkg/logger"
	"maintenance-service/pkg/metrics"
	"maintenance-service/pkg/mongodb"
	"maintenance-service/pkg/oauth"
	"maintenance-service/pkg/ratelimit"
	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
		Version:     cfg.App.Version,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()
	log := logger.GetLogger()
	log.Info("Starting maintenance service...", cfg.LogConfig()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer closeStore()

	prometheus.SetInfo(cfg.App.Version, cfg.Auth.Strategy, cfg.StoreDriver)

	// Token validation strategy is fixed for the process lifetime
	var (
		validator auth.TokenValidator
		remote    *auth.RemoteValidator
		issuer    service.TokenIssuer
	)
	switch cfg.Auth.Strategy {
	case config.AuthStrategyLocal:
		tokens := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
			Secret:     cfg.JWT.Secret,
			AccessTTL:  cfg.JWT.ExpiresIn,
			RefreshTTL: cfg.JWT.RefreshExpires,
		})
		validator = auth.NewLocalValidator(tokens, log)
		issuer = tokens
	default:
		client := oauth.NewClient(cfg.Auth.OAuthServerURL, cfg.Auth.OAuthTimeout, log)
		if cfg.Auth.BreakerEnabled {
			client = client.WithCircuitBreaker(cfg.ServiceName + "-oauth")
		}
		remote = auth.NewRemoteValidator(client, log)
		validator = remote
	}
	log.Info("Token validator initialized", zap.String("strategy", cfg.Auth.Strategy))

	sessions := service.NewSessionService(store, log)
	quota := service.NewQuotaService(store)
	users := service.NewUserService(store.Users, quota, log)
	companies := service.NewCompanyService(store.Companies, log)
	accounts := service.NewAccountService(store.Accounts, store.Subscriptions, log)
	subscriptions := service.NewSubscriptionService(store.Subscriptions, log)
	authService := service.NewAuthService(users, store.Companies, sessions, issuer, validator, log)

	limiter, closeLimiter := newLoginLimiter(ctx, cfg, log)
	defer closeLimiter()

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(metrics.NewHTTPMetrics(cfg.Metrics.Prefix).Middleware())

	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	handler.RegisterRoutes(e, auth.NewPipeline(validator), handler.Handlers{
		Health:        handler.NewHealthHandler(cfg.ServiceName, cfg.App.Version),
		Auth:          handler.NewAuthHandler(authService, quota, remote),
		Users:         handler.NewUserHandler(users),
		Companies:     handler.NewCompanyHandler(companies),
		Accounts:      handler.NewAccountHandler(accounts),
		Subscriptions: handler.NewSubscriptionHandler(subscriptions),
	}, handler.RouteOptions{
		LocalAuth:    cfg.Auth.Strategy == config.AuthStrategyLocal,
		LoginLimiter: middleware.LoginRateLimit(limiter, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow),
	})

	maintenance, err := scheduler.New(cfg.Cron.Expression, cfg.Cron.PurgeAfter, store.Purgers(), log)
	if err != nil {
		log.Fatal("Failed to create scheduler", zap.Error(err))
	}
	if err := maintenance.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	if err := maintenance.Stop(); err != nil {
		log.Error("Scheduler shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}

// openStore connects the configured backend, prepares its schema and returns a close func
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*repository.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMongo {
		db, err := mongodb.Connect(ctx, &cfg.Mongo, log)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			_ = mongodb.Disconnect(db)
			return nil, nil, err
		}
		return repository.NewMongoStore(db), func() {
			if err := mongodb.Disconnect(db); err != nil {
				log.Error("Failed to disconnect MongoDB", zap.Error(err))
			}
		}, nil
	}

	db, err := database.InitDB(&cfg.DB, log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, nil, err
	}
	log.Info("Database migrations applied")
	return repository.NewGormStore(db), func() {
		if err := database.Close(db); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}, nil
}

// newLoginLimiter prefers Redis so limits hold across replicas, falling back to memory
func newLoginLimiter(ctx context.Context, cfg *config.Config, log *zap.Logger) (ratelimit.Limiter, func()) {
	noop := func() {}
	if cfg.Redis.Addr == "" {
		log.Info("Login rate limiter using in-memory store")
		return ratelimit.NewMemoryLimiter(0, nil), noop
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	client, err := ratelimit.NewRedisClient(pingCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("Redis unavailable, login rate limiter using in-memory store", zap.Error(err))
		return ratelimit.NewMemoryLimiter(0, nil), noop
	}
	log.Info("Login rate limiter using Redis", zap.String("addr", cfg.Redis.Addr))
	return ratelimit.NewRedisLimiter(client, cfg.ServiceName+":ratelimit:", nil), func() {
		if err := client.Close(); err != nil {
			log.Error("Failed to close Redis client", zap.Error(err))
		}
	}
}
