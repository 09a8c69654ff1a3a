package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"lifeline/internal/app"
	"lifeline/internal/audit"
	"lifeline/internal/payments/provider"
	"lifeline/internal/platform/config"
	"lifeline/internal/platform/httpserver"
	"lifeline/internal/platform/logger"
	"lifeline/internal/platform/postgres"
	"lifeline/internal/platform/redis"
	userModels "lifeline/internal/users/models"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/circuit"
)

const shutdownGrace = 10 * time.Second

// main wires backing services, builds the application and runs the HTTP
// server next to the audit worker until a signal arrives.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var backends app.Backends
	if cfg.PostgresEnabled() {
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		backends.Pool = pool
		log.Info("using postgres stores")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory stores")
	}

	if cfg.RedisEnabled() {
		client, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		backends.Redis = client.Client
		log.Info("using redis revocation list")
	}

	if cfg.KafkaEnabled() {
		sink, err := audit.NewKafkaStore(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		if err := sink.EnsureTopic(ctx, 3, 1); err != nil {
			return err
		}
		backends.AuditStore = sink
		log.Info("streaming audit events to kafka", "topic", cfg.AuditTopic)
	}

	if cfg.PaymentsEnabled() {
		backends.Payments = provider.NewGuarded(
			provider.NewStripe(cfg.StripeSecretKey),
			circuit.New("stripe", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
			log,
		)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set; payment intents are disabled")
	}

	application, err := app.New(cfg, log, backends)
	if err != nil {
		return err
	}
	if cfg.BootstrapAdmin != "" {
		if _, err := application.Operator.Promote(ctx, domain.NormalizeEmail(cfg.BootstrapAdmin), userModels.RoleAdmin); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info("bootstrap admin ensured", "email", cfg.BootstrapAdmin)
	}

	srv := httpserver.New(cfg.Addr, application.Handler)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting lifeline", "addr", cfg.Addr)
		return httpserver.Run(gctx, srv, shutdownGrace)
	})
	g.Go(func() error {
		err := application.AuditWorker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("lifeline stopped")
	return nil
}
