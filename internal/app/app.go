// Package app composes the services, stores and HTTP surface into one
// runnable unit. Backing services are optional; each falls back to an
// in-process implementation when absent.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"lifeline/internal/audit"
	authHandler "lifeline/internal/auth/handler"
	authService "lifeline/internal/auth/service"
	blogHandler "lifeline/internal/blogs/handler"
	blogService "lifeline/internal/blogs/service"
	blogStore "lifeline/internal/blogs/store"
	donationHandler "lifeline/internal/donations/handler"
	donationService "lifeline/internal/donations/service"
	donationStore "lifeline/internal/donations/store"
	paymentHandler "lifeline/internal/payments/handler"
	paymentService "lifeline/internal/payments/service"
	paymentStore "lifeline/internal/payments/store"
	"lifeline/internal/platform/config"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/policy"
	"lifeline/internal/stats"
	"lifeline/internal/token"
	"lifeline/internal/token/revocation"
	httptransport "lifeline/internal/transport/http"
	userHandler "lifeline/internal/users/handler"
	userService "lifeline/internal/users/service"
	userStore "lifeline/internal/users/store"
)

const auditBuffer = 1024

// Backends are the external connections opened by the caller. Nil fields
// select in-memory implementations.
type Backends struct {
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	AuditStore audit.Store
	Payments   paymentService.IntentProvider
}

// App is the wired process: the HTTP handler plus the audit worker that
// must run alongside it.
type App struct {
	Handler     http.Handler
	AuditWorker *audit.Worker
	Registry    *prometheus.Registry
	Tokens      *token.Service
	Operator    *userService.Operator
}

type stores struct {
	users     userService.Store
	donations donationService.Store
	blogs     blogService.Store
	payments  interface {
		paymentService.Store
		stats.Ledger
	}
}

func selectStores(pool *pgxpool.Pool) stores {
	if pool != nil {
		return stores{
			users:     userStore.NewPostgres(pool),
			donations: donationStore.NewPostgres(pool),
			blogs:     blogStore.NewPostgres(pool),
			payments:  paymentStore.NewPostgres(pool),
		}
	}
	return stores{
		users:     userStore.NewInMemory(),
		donations: donationStore.NewInMemory(),
		blogs:     blogStore.NewInMemory(),
		payments:  paymentStore.NewInMemory(),
	}
}

// New builds the application from configuration and opened backends.
func New(cfg *config.Server, logger *slog.Logger, b Backends) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	publisher := audit.NewPublisher(auditBuffer)
	auditStore := b.AuditStore
	if auditStore == nil {
		auditStore = audit.NewInMemoryStore()
	}
	worker := audit.NewWorker(auditStore, publisher.Inbox(), logger)

	tokens := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, token.WithTTL(cfg.TokenTTL))
	var revocations interface {
		authService.RevocationList
		IsRevoked(ctx context.Context, jti string) (bool, error)
	} = revocation.NewInMemoryTRL()
	if b.Redis != nil {
		revocations = revocation.NewRedisTRL(b.Redis)
	}

	st := selectStores(b.Pool)
	gate := policy.NewGate(st.users,
		policy.WithLogger(logger),
		policy.WithMetrics(m),
		policy.WithAuditPublisher(publisher),
	)

	users, err := userService.New(st.users, gate,
		userService.WithLogger(logger),
		userService.WithMetrics(m),
		userService.WithAuditPublisher(publisher),
	)
	if err != nil {
		return nil, err
	}
	sessions, err := authService.New(st.users, tokens, revocations, gate,
		authService.WithLogger(logger),
		authService.WithAuditPublisher(publisher),
	)
	if err != nil {
		return nil, err
	}
	donations, err := donationService.New(st.donations, gate,
		donationService.WithLogger(logger),
		donationService.WithMetrics(m),
		donationService.WithAuditPublisher(publisher),
	)
	if err != nil {
		return nil, err
	}
	blogs, err := blogService.New(st.blogs, gate,
		blogService.WithLogger(logger),
		blogService.WithAuditPublisher(publisher),
	)
	if err != nil {
		return nil, err
	}
	paymentOpts := []paymentService.Option{
		paymentService.WithCurrency(cfg.PaymentCurrency),
		paymentService.WithLogger(logger),
		paymentService.WithMetrics(m),
		paymentService.WithAuditPublisher(publisher),
	}
	if b.Payments != nil {
		paymentOpts = append(paymentOpts, paymentService.WithProvider(b.Payments))
	}
	payments, err := paymentService.New(st.payments, gate, paymentOpts...)
	if err != nil {
		return nil, err
	}
	dashboard := stats.NewService(gate, st.users, st.donations, st.payments)

	var checks []httptransport.HealthCheck
	if b.Pool != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "postgres", Check: b.Pool.Ping})
	}
	if b.Redis != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return b.Redis.Ping(ctx).Err()
		}})
	}

	handler := httptransport.NewRouter(httptransport.Config{
		Logger:         logger,
		Gatherer:       registry,
		Latency:        m,
		Verifier:       tokens,
		Revocations:    revocations,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		HealthChecks:   checks,
	},
		authHandler.New(sessions, logger, authHandler.WithSecureCookie(cfg.SecureCookies)),
		userHandler.New(users, logger),
		donationHandler.New(donations, logger),
		blogHandler.New(blogs, logger),
		paymentHandler.New(payments, logger),
		stats.NewHandler(dashboard, logger),
	)

	return &App{
		Handler:     handler,
		AuditWorker: worker,
		Registry:    registry,
		Tokens:      tokens,
		Operator:    userService.NewOperator(st.users),
	}, nil
}
