package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/herbal-kart/internal/docstore"
	"github.com/xenking/herbal-kart/internal/domain/cart"
	"github.com/xenking/herbal-kart/internal/domain/catalog"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
	"github.com/xenking/herbal-kart/internal/domain/notification"
	"github.com/xenking/herbal-kart/internal/domain/order"
	"github.com/xenking/herbal-kart/internal/domain/user"
	"github.com/xenking/herbal-kart/internal/events"
	"github.com/xenking/herbal-kart/internal/handler"
	"github.com/xenking/herbal-kart/internal/repository"
	"github.com/xenking/herbal-kart/internal/storage/redis"
	"github.com/xenking/herbal-kart/pkg/health"
	"github.com/xenking/herbal-kart/pkg/httpmiddleware"
)

const serviceName = "herbal-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store.Driver),
	)

	store, closeStore, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			lg.Warn("Close store", zap.Error(err))
		}
	}()
	if err := repository.EnsureIndexes(ctx, store); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("store", 5*time.Second, health.PingCheck(store))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))

	var cache cart.Cache = cart.NopCache{}
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = client.Close() }()

		cartCache := redis.NewCartCache(client, cfg.Redis.TTL)
		healthSvc.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(cartCache))
		cache = cartCache
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.Kafka.Brokers, lg.Named("kafka"))
		defer func() {
			if err := kafka.Close(); err != nil {
				lg.Warn("Close kafka publisher", zap.Error(err))
			}
		}()
		publisher = kafka
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	services, err := newServices(store, cache, publisher, cfg.Kafka.Topic, m)
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       cfg.Timeouts.Read,
		WriteTimeout:      cfg.Timeouts.Write,
		IdleTimeout:       cfg.Timeouts.Idle,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           routes(ctx, cfg, m, healthSvc, handler.New(services)),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// Telemetry provides the OpenTelemetry providers.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// newServices builds the domain services on top of store.
func newServices(
	store docstore.Store,
	cache cart.Cache,
	publisher events.Publisher,
	topic string,
	m Telemetry,
) (handler.Services, error) {
	// Repositories.
	cartRepo := repository.NewCartRepository(store)
	catalogRepo := repository.NewCatalogRepository(store)
	couponRepo := repository.NewCouponRepository(store)
	orderRepo := repository.NewOrderRepository(store)

	// Domain services.
	carts := cart.NewManager(cartRepo, catalogRepo, couponRepo, cache)
	notifier := notification.NewNotifier(repository.NewNotificationRepository(store), publisher, topic)
	checkout, err := order.NewCheckout(carts, couponRepo, orderRepo, notifier,
		m.TracerProvider(), m.MeterProvider(),
	)
	if err != nil {
		return handler.Services{}, errors.Wrap(err, "create checkout")
	}

	return handler.Services{
		Carts:         carts,
		Checkout:      checkout,
		Orders:        order.NewTracker(orderRepo),
		Catalog:       catalog.NewService(catalogRepo),
		Coupons:       coupon.NewService(couponRepo),
		Users:         user.NewService(repository.NewUserRepository(store)),
		Notifications: notifier,
	}, nil
}

// routes mounts the API and health endpoints and wraps them in the
// middleware chain. Route-aware middleware runs inside chi, where the
// pattern is known.
func routes(ctx context.Context, cfg *Config, m Telemetry, healthSvc *health.Health, h *handler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(httpmiddleware.LogRequests(), httpmiddleware.Labeler())
	if cfg.Timeouts.Handler > 0 {
		r.Use(middleware.Timeout(cfg.Timeouts.Handler))
	}
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	h.Register(r)

	return httpmiddleware.Wrap(r,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.HeaderRequestID},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			Skip:   isHealthCheck,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Instrument(serviceName, m.TracerProvider(), m.MeterProvider()),
	)
}

func isHealthCheck(r *http.Request) bool {
	return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
}
