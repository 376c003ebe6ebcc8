package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"money-layer/internal/access"
	"money-layer/internal/auth"
	"money-layer/internal/cache"
	"money-layer/internal/config"
	"money-layer/internal/database"
	"money-layer/internal/events"
	"money-layer/internal/ledger"
	"money-layer/internal/logging"
	"money-layer/internal/router"
	"money-layer/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "money-layer: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// load configuration
	cfg, err := config.Load(os.Getenv("ML_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level)
	logging.SetDefault(logger)
	appLog := logger.WithComponent(logging.ComponentApp)

	if cfg.JWT.Secret == config.DefaultJWTSecret {
		appLog.Warn("using the default jwt secret, set SECRET_KEY in production")
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			appLog.Warn("close database", logging.FieldError, err)
		}
	}()

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users := store.NewUserStore(db)

	opts := auth.Options{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		TokenTTL:   cfg.TokenTTL(),
		BcryptCost: cfg.Security.BcryptCost,
		Logger:     logger,
	}
	if cfg.Google.ClientID != "" {
		v, err := auth.NewGoogleVerifier(ctx, cfg.Google.ClientID, cfg.Google.Timeout)
		if err != nil {
			return fmt.Errorf("google verifier: %w", err)
		}
		opts.Verifier = v
	} else {
		appLog.Info("GOOGLE_CLIENT_ID not set, google sign-in disabled")
	}

	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			// the cache is optional, keep serving from the database
			appLog.Error("redis unavailable, user cache disabled", logging.FieldError, err)
		} else {
			defer rdb.Close()
			opts.Cache = cache.NewRedisUserCache(rdb, cfg.Redis.TTL, logger)
			appLog.Info("user cache enabled", "addr", cfg.Redis.Addr)
		}
	}

	// after the cache is wired so a promoted or re-keyed admin is not served stale
	if err := auth.Bootstrap(ctx, users, opts.Cache, cfg.Bootstrap, cfg.Security.BcryptCost, logger); err != nil {
		return err
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQP.URL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			appLog.Error("amqp unavailable, ledger events disabled", logging.FieldError, err)
		} else {
			publisher = p
			appLog.Info("ledger events enabled", "exchange", cfg.AMQP.Exchange)
		}
	}
	defer publisher.Close()

	policy, err := access.NewDeletePolicy(cfg.Security.DeletePolicy)
	if err != nil {
		return err
	}
	ac := access.NewController(policy)

	resolver := auth.NewResolver(users, opts)
	svc := ledger.NewService(store.NewTransactionStore(db), ac, publisher, logger)

	r := router.SetupRouter(cfg, router.Deps{
		DB:       db,
		Users:    users,
		Audit:    store.NewAuditStore(db),
		Resolver: resolver,
		Access:   ac,
		Ledger:   svc,
		Logger:   logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("server listening", "addr", addr, "delete_policy", cfg.Security.DeletePolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLog.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	appLog.Info("shutdown complete")
	return nil
}
