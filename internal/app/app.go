package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/foodieexpress/storefront/internal/catalog"
	"github.com/foodieexpress/storefront/internal/checkout"
	"github.com/foodieexpress/storefront/internal/config"
	"github.com/foodieexpress/storefront/internal/event"
	handler "github.com/foodieexpress/storefront/internal/handler/http"
	redisrepo "github.com/foodieexpress/storefront/internal/repository/redis"
	"github.com/foodieexpress/storefront/internal/service"
	"github.com/foodieexpress/storefront/pkg/database"
	"github.com/foodieexpress/storefront/pkg/health"
	"github.com/foodieexpress/storefront/pkg/httpclient"
	pkgkafka "github.com/foodieexpress/storefront/pkg/kafka"
	"github.com/foodieexpress/storefront/pkg/middleware"
	"github.com/foodieexpress/storefront/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer // nil when Kafka is disabled
	unsubscribe    func()
	carts          *service.CartService
	httpServer     *http.Server
	tracerShutdown func(context.Context) error

	janitorDone  chan struct{}
	stopJanitor  context.CancelFunc
	shutdownOnce sync.Once
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize Redis client. Carts survive a Redis outage in memory, so a
	// failed ping is logged rather than fatal.
	redisCfg := database.DefaultRedisConfig()
	redisCfg.Addr = cfg.RedisAddr
	redisCfg.Password = cfg.RedisPass
	redisCfg.DB = cfg.RedisDB
	rdb := database.NewRedisClient(redisCfg)

	if err := database.Ping(ctx, rdb); err != nil {
		logger.Warn("redis unavailable at startup, carts will not survive restarts until it recovers",
			slog.String("addr", cfg.RedisAddr),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
	}

	// Build the cart engine.
	repo := redisrepo.NewCartRepository(rdb, cfg.CartTTLDuration())
	cartService := service.NewCartService(repo, logger, cfg.CartPersistTimeout())

	// Initialize Kafka producer and attach it as a cart subscriber.
	var (
		producer    *pkgkafka.Producer
		orderEvents checkout.OrderEvents
		unsubscribe = func() {}
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer := event.NewProducer(producer, logger)
		unsubscribe = cartService.Subscribe(eventProducer.HandleCartChange)
		orderEvents = eventProducer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Create HTTP client with circuit breaker for backend calls.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         time.Duration(cfg.BackendTimeoutSeconds) * time.Second,
		MaxRetries:      cfg.BackendMaxRetries,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 100,
	})

	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "storefront-backend",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(checkout.CircuitOpenFallback)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)

	checkoutService := checkout.NewService(
		cartService,
		checkout.NewOrderClient(cbClient, cfg.BackendBaseURL, logger),
		orderEvents,
		logger,
	)

	var menuCache *catalog.MenuCache
	if cfg.CatalogCacheTTLSeconds > 0 {
		menuCache = catalog.NewMenuCache(rdb, cfg.CatalogCacheTTL())
	}
	catalogService := catalog.NewService(
		catalog.NewClient(cbClient, cfg.BackendBaseURL, logger),
		menuCache,
		logger,
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("backend", func(context.Context) error {
		if cbClient.State() == gobreaker.StateOpen {
			return errors.New("circuit breaker open")
		}
		return nil
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return database.Ping(ctx, rdb)
	})
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	var pprofCIDRs []string
	if cfg.PprofEnabled {
		pprofCIDRs = cfg.PprofAllowedCIDRs
	}

	router := handler.NewRouter(cartService, checkoutService, catalogService, healthHandler, logger, handler.RouterOptions{
		CORS:           corsCfg,
		PprofCIDRs:     pprofCIDRs,
		CatalogMaxAge:  cfg.CatalogMaxAgeSeconds,
		JWTSecret:      cfg.JWTSecret,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		producer:       producer,
		unsubscribe:    unsubscribe,
		carts:          cartService,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the session janitor, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	janitorCtx, stop := context.WithCancel(context.Background())
	a.stopJanitor = stop
	a.janitorDone = make(chan struct{})
	go a.runJanitor(janitorCtx)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// runJanitor periodically evicts idle carts from memory and retries carts
// whose last write to Redis failed.
func (a *App) runJanitor(ctx context.Context) {
	defer close(a.janitorDone)

	idle := a.cfg.SessionIdle()
	interval := idle / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if unsaved := a.carts.Flush(ctx); unsaved > 0 {
				a.logger.Warn("carts still unsaved after retry", slog.Int("count", unsaved))
			}
			if evicted := a.carts.Evict(idle); evicted > 0 {
				a.logger.Debug("evicted idle carts",
					slog.Int("evicted", evicted),
					slog.Int("remaining", a.carts.SessionCount()),
				)
			}
		}
	}
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Session janitor, then a final flush of unsaved carts
// 3. Tracer (flush pending spans from drained requests)
// 4. Kafka producer
// 5. Redis client
func (a *App) Shutdown() error {
	a.shutdownOnce.Do(a.shutdown)
	return nil
}

func (a *App) shutdown() {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.stopJanitor != nil {
		a.stopJanitor()
		<-a.janitorDone
	}
	if unsaved := a.carts.Flush(shutdownCtx); unsaved > 0 {
		a.logger.Error("carts lost on shutdown", slog.Int("count", unsaved))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.unsubscribe()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
}
