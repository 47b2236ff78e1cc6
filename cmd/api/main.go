package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusswap/config"
	"campusswap/db"
	"campusswap/exchange"
	"campusswap/httpapi"
	"campusswap/identity"
	"campusswap/logger"
	"campusswap/message"
	"campusswap/notification"
	"campusswap/product"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("api: exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		return fmt.Errorf("bootstrap database pool: %w", err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.ApplyMigrations(ctx, pool); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		log.Info("api: migrations applied")
	}

	verifier, err := identity.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return err
	}

	publishers, err := buildPublishers(ctx, cfg, log)
	if err != nil {
		return err
	}
	notifications := notification.NewService(notification.NewRepository(pool), log.With("service", "notification"), publishers...)
	defer func() {
		if err := notifications.Close(); err != nil {
			log.Warn("api: close publishers", "error", err)
		}
	}()

	store := exchange.NewPGStore(pool)
	exchanges := exchange.NewService(store, notifications, log.With("service", "exchange")).
		WithNotifyTimeout(cfg.NotifyTimeout)
	messages := message.NewService(message.NewRepository(pool), store, notifications, log.With("service", "message")).
		WithNotifyTimeout(cfg.NotifyTimeout)
	products := product.NewService(product.NewRepository(pool), notifications, log.With("service", "product")).
		WithNotifyTimeout(cfg.NotifyTimeout)

	server := httpapi.NewServer(cfg.HTTPAddr, httpapi.Config{
		Exchanges:      exchanges,
		Notifications:  notifications,
		Messages:       messages,
		Products:       products,
		Verifier:       verifier,
		Log:            log.With("component", "http"),
		RequestTimeout: cfg.RequestTimeout,
		Health:         pool.Ping,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("api: listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("api: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return <-errCh
}

// buildPublishers returns the realtime publishers enabled by configuration.
func buildPublishers(ctx context.Context, cfg config.Config, log *logger.Logger) ([]notification.Publisher, error) {
	var publishers []notification.Publisher
	if cfg.Redis.Addr != "" {
		p, err := notification.NewRedisPublisher(ctx, cfg.Redis.Addr, cfg.Redis.ChannelPrefix)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, p)
		log.Info("api: redis publisher enabled", "addr", cfg.Redis.Addr)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := notification.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			for _, prev := range publishers {
				_ = prev.Close()
			}
			return nil, err
		}
		publishers = append(publishers, p)
		log.Info("api: kafka publisher enabled", "topic", cfg.Kafka.Topic)
	}
	return publishers, nil
}
