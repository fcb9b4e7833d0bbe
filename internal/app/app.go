// Package app wires together all dependencies and runs the service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/FernandoCarrilho/Ve-Joias/pkg/database"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/health"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/httpclient"
	pkgkafka "github.com/FernandoCarrilho/Ve-Joias/pkg/kafka"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/tracing"

	"github.com/FernandoCarrilho/Ve-Joias/internal/config"
	"github.com/FernandoCarrilho/Ve-Joias/internal/event"
	"github.com/FernandoCarrilho/Ve-Joias/internal/gateway"
	"github.com/FernandoCarrilho/Ve-Joias/internal/gateway/mercadopago"
	mockgateway "github.com/FernandoCarrilho/Ve-Joias/internal/gateway/mock"
	handler "github.com/FernandoCarrilho/Ve-Joias/internal/handler/http"
	"github.com/FernandoCarrilho/Ve-Joias/internal/notifier"
	"github.com/FernandoCarrilho/Ve-Joias/internal/notifier/email"
	mocknotifier "github.com/FernandoCarrilho/Ve-Joias/internal/notifier/mock"
	"github.com/FernandoCarrilho/Ve-Joias/internal/notifier/whatsapp"
	"github.com/FernandoCarrilho/Ve-Joias/internal/repository/postgres"
	redisrepo "github.com/FernandoCarrilho/Ve-Joias/internal/repository/redis"
	"github.com/FernandoCarrilho/Ve-Joias/internal/service"
	"github.com/FernandoCarrilho/Ve-Joias/migrations"
)

// App holds the long-lived components of the running service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// New creates the application, initializing all dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "vejoias-orders",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "vejoias-orders")

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)

	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	orderRepo := postgres.NewOrderRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	cartRepo := redisrepo.NewCartRepository(redisClient, cfg.CartTTL())
	eventProducer := event.NewProducer(producer, logger)

	paymentGateway := buildGateway(cfg, logger)
	channels := buildChannels(cfg, logger)

	checkoutService := service.NewCheckoutService(
		cartRepo,
		productRepo,
		orderRepo,
		paymentGateway,
		eventProducer,
		channels,
		logger,
		cfg.ChargeTimeout(),
	)
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	orderService := service.NewOrderService(orderRepo, eventProducer, logger)
	reconcilerService := service.NewReconcilerService(
		orderRepo,
		paymentGateway,
		eventProducer,
		channels,
		logger,
	)

	healthHandler := health.NewHandler(logger)
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(
		checkoutService,
		cartService,
		orderService,
		reconcilerService,
		healthHandler,
		logger,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// buildGateway selects the payment gateway implementation. Charge
// requests must not be auto-retried: the idempotency key makes a retry
// safe at the provider, but the circuit breaker still counts each
// attempt, so retries stay at zero and recovery is left to the
// reconciler.
func buildGateway(cfg *config.Config, logger *slog.Logger) gateway.PaymentGateway {
	if cfg.PaymentProvider == "mock" {
		logger.Warn("using mock payment gateway, no real charges will be made")
		return mockgateway.New()
	}

	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.ChargeTimeout(),
		MaxRetries:      0,
		MaxConnsPerHost: 100,
	})
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, httpclient.CircuitBreakerConfig{
		Name:         "mercadopago",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}, logger)

	return mercadopago.New(cbClient, cfg.MercadoPagoBaseURL, cfg.MercadoPagoToken, logger)
}

// buildChannels assembles the notification channels. With nothing
// enabled a mock channel keeps the notification path exercised in
// development.
func buildChannels(cfg *config.Config, logger *slog.Logger) []notifier.Channel {
	var channels []notifier.Channel

	if cfg.EmailEnabled {
		channels = append(channels, email.New(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}))
	}

	if cfg.WhatsAppEnabled {
		client := httpclient.New(httpclient.Config{
			Timeout:         10 * time.Second,
			MaxRetries:      2,
			RetryWaitMin:    500 * time.Millisecond,
			RetryWaitMax:    3 * time.Second,
			MaxConnsPerHost: 10,
		})
		channels = append(channels, whatsapp.New(client, whatsapp.Config{
			BaseURL:  cfg.WhatsAppBaseURL,
			APIKey:   cfg.WhatsAppAPIKey,
			Instance: cfg.WhatsAppInstance,
		}))
	}

	if len(channels) == 0 {
		logger.Warn("no notification channels configured, using mock channel")
		channels = append(channels, mocknotifier.New("email", logger))
	}

	return channels
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown stops all components in order: HTTP server first so
// in-flight checkouts finish, then the tracer so their spans flush,
// then the producer and stores.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
