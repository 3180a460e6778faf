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

	"github.com/okian/matchwinner/internal/adapters/http/api"
	"github.com/okian/matchwinner/internal/adapters/http/swagger"
	"github.com/okian/matchwinner/internal/adapters/http/web"
	"github.com/okian/matchwinner/internal/adapters/predictor"
	"github.com/okian/matchwinner/internal/adapters/repository"
	service "github.com/okian/matchwinner/internal/app"
	"github.com/okian/matchwinner/internal/config"
	"github.com/okian/matchwinner/internal/controller"
	"github.com/okian/matchwinner/internal/domain/roster"
	"github.com/okian/matchwinner/internal/domain/scoring"
	"github.com/okian/matchwinner/pkg/logger"
	"github.com/okian/matchwinner/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> dotenv -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	handler, err := newHandler(ctx, cfg, svc, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService builds the prediction service from configuration. The history
// store is opened here; the service closes it on Stop.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, error) {
	r := roster.Default()
	if cfg.RosterFile != "" {
		loaded, err := roster.LoadFile(cfg.RosterFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load roster: %w", err)
		}
		r = loaded
	}

	p, err := newPredictor(cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := repository.Open(ctx, cfg.History())
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	return service.New(
		service.WithLogger(log),
		service.WithRoster(r),
		service.WithPredictor(p),
		service.WithHistoryStore(store),
		service.WithDwell(cfg.Dwell()),
		service.WithRequestTimeout(cfg.RequestTimeout()),
		service.WithSessionTTL(cfg.SessionTTL()),
		service.WithQueueSize(cfg.QueueSize),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithMaxHistory(cfg.MaxHistoryLimit),
	), nil
}

// newPredictor returns the remote client when a URL is configured and the
// built-in rank predictor otherwise.
func newPredictor(cfg *config.Config, log logger.Logger) (controller.Predictor, error) {
	if cfg.PredictorURL == "" {
		return scoring.NewRankPredictor(
			scoring.WithLatencyRange(
				time.Duration(cfg.PredictorLatencyMinMS)*time.Millisecond,
				time.Duration(cfg.PredictorLatencyMaxMS)*time.Millisecond,
			),
		), nil
	}
	c, err := predictor.New(cfg.PredictorURL,
		predictor.WithTimeout(cfg.RequestTimeout()),
		predictor.WithLogger(log.Named("predictor")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create predictor client: %w", err)
	}
	return c, nil
}

// newHandler mounts the JSON API, the API docs and the browser UI on one mux.
func newHandler(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) (http.Handler, error) {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)

	opts := []web.Option{
		web.WithLogger(log.Named("web")),
		web.WithSecureCookie(cfg.SecureCookie),
	}
	if cfg.AssetsDir != "" {
		opts = append(opts, web.WithAssets(os.DirFS(cfg.AssetsDir)))
	}
	ui, err := web.New(svc, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create web UI: %w", err)
	}
	mux.Handle("/", ui.Handler())
	return mux, nil
}

// startServiceMetricsUpdater periodically publishes service gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	st := svc.Stats(ctx)
	metrics.UpdateQueueSize(st.QueueLength)
	metrics.UpdateQueueCapacity(st.QueueCapacity)
	metrics.UpdateWorkerCount(st.Workers)
}
