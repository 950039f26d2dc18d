package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/graphql"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/storefront"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// NewStorefront builds the instrumented upstream client and the storefront
// configuration that uses it. The returned client is exposed for health
// probing.
func NewStorefront(cfg UpstreamConfig, m *app.Telemetry) (*graphql.Client, *storefront.Config, error) {
	client, err := graphql.NewClient(graphql.Config{
		Endpoint:   cfg.Endpoint,
		Token:      cfg.Token,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	}, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create graphql client")
	}
	fetcher, err := graphql.Instrument(client, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return nil, nil, errors.Wrap(err, "instrument graphql client")
	}
	return client, &storefront.Config{
		Fetcher:     fetcher,
		Locale:      cfg.Locale,
		ApplyLocale: cfg.ApplyLocale,
	}, nil
}

// newServer mounts the probes and the product API behind the middleware
// stack.
func newServer(
	ctx context.Context,
	lg *zap.Logger,
	cfg *Config,
	sf *storefront.Config,
	healthSvc *health.Health,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) *http.Server {
	h := handler.NewHandler(handler.HandlerConfig{Locales: cfg.Locales}, sf)

	mux := http.NewServeMux()
	healthSvc.Register(mux)
	h.Register(mux)

	return &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.Upstream.Timeout*time.Duration(max(cfg.Upstream.MaxRetries, 0)+1) + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				RPS:   cfg.RateLimit.RPS,
				Burst: cfg.RateLimit.Burst,
			}),
			httpmiddleware.Instrument("storefront-api", tp, mp),
			httpmiddleware.LogRequests(),
		),
	}
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("upstream", cfg.Upstream.Endpoint),
	)

	client, sf, err := NewStorefront(cfg.Upstream, m)
	if err != nil {
		return err
	}
	storefront.SetDefault(sf)

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("storefront", 5*time.Second, health.PingCheck(client))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(zctx.Base(ctx, lg.Named("health")), 10*time.Second)
	healthSvc.SetReady(true)

	server := newServer(ctx, lg, cfg, sf, healthSvc, m.TracerProvider(), m.MeterProvider())

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
