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

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/satonic/auction-api/internal/config"
	"github.com/satonic/auction-api/internal/events"
	"github.com/satonic/auction-api/internal/handlers"
	"github.com/satonic/auction-api/internal/ratelimit"
	"github.com/satonic/auction-api/internal/services"
	"github.com/satonic/auction-api/internal/store"
)

// buildTime is set with -ldflags "-X main.buildTime=..."
var buildTime = "unknown"

type application struct {
	config *config.Config
	logger *slog.Logger
	db     *store.Database
	redis  *redis.Client
	nats   *nats.Conn
	server *http.Server
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	err = app.serve()
	app.close()
	if err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}

	db, err := store.NewDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	app.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		app.close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	var limiter handlers.RateLimiter
	if cfg.Redis.Addr != "" {
		client, err := ratelimit.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.redis = client
		limiter = ratelimit.New(client, cfg.RateLimit.Requests, cfg.RateLimit.Window())
	} else {
		logger.Warn("REDIS_ADDR not set, rate limiting disabled")
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name(cfg.Server.Name),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("NATS disconnected", "error", err)
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
			}),
		)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		app.nats = nc
		publisher = events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)
	} else {
		logger.Warn("NATS_URL not set, auction events are not published")
	}

	itemRepo := store.NewItemRepository(db)
	bidRepo := store.NewBidRepository(db)
	orderRepo := store.NewOrderRepository(db)
	userRepo := store.NewUserRepository(db)
	categoryRepo := store.NewCategoryRepository(db)
	watchRepo := store.NewWatchRepository(db)
	statsRepo := struct {
		*store.BidRepository
		*store.OrderRepository
	}{bidRepo, orderRepo}

	router := handlers.NewRouter(handlers.RouterConfig{
		Items:      services.NewItemService(itemRepo, categoryRepo, publisher, cfg.Auction.AuctionDuration(), logger),
		Bids:       services.NewBidService(itemRepo, bidRepo, publisher, logger),
		Orders:     services.NewOrderService(itemRepo, bidRepo, orderRepo, publisher, logger),
		Auth:       services.NewAuthService(userRepo, cfg.Auth, logger),
		Users:      services.NewUserService(userRepo, logger),
		Categories: services.NewCategoryService(categoryRepo, logger),
		Watches:    services.NewWatchService(itemRepo, watchRepo, logger),
		Stats:      services.NewStatsService(statsRepo),
		Limiter:    limiter,
		DB:         db,
		Info: handlers.HealthResponse{
			Name:      cfg.Server.Name,
			Version:   cfg.Server.Version,
			BuildTime: buildTime,
		},
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})

	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	return app, nil
}

func (app *application) serve() error {
	app.logger.Info("starting server", "addr", app.server.Addr, "version", app.config.Server.Version, "driver", app.db.Driver())

	errChan := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		app.logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	app.logger.Info("server gracefully stopped")
	return nil
}

func (app *application) close() {
	if app.nats != nil {
		if err := app.nats.Drain(); err != nil {
			app.logger.Warn("error draining NATS connection", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn("error closing Redis client", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn("error closing database", "error", err)
		}
	}
}
