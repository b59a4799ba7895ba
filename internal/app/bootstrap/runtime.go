package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/microloans/loan-service/internal/adapters/cache"
	eventadapter "github.com/microloans/loan-service/internal/adapters/events"
	httpadapter "github.com/microloans/loan-service/internal/adapters/http"
	metricsadapter "github.com/microloans/loan-service/internal/adapters/metrics"
	"github.com/microloans/loan-service/internal/adapters/postgres"
	"github.com/microloans/loan-service/internal/application"
	"github.com/microloans/loan-service/internal/ports"
)

// Runtime is one serving process: the HTTP stack, its outbox publisher loop,
// and the connections they own. The dev server runs exactly one Runtime; the
// production model runs one per pre-forked worker.
type Runtime struct {
	cfg       Config
	logger    *slog.Logger
	handler   http.Handler
	outbox    *eventadapter.OutboxWorker
	cleanupFn func()
}

// NewRuntime wires the serving process. With migrate set, embedded migrations
// run before serving; the production path leaves schema management to the
// separately invoked migrate role.
func NewRuntime(ctx context.Context, cfg Config, logger *slog.Logger, migrate bool) (*Runtime, error) {
	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if migrate {
		if err := postgres.RunMigrations(ctx, db); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	repos := postgres.NewRepositories(db)

	var statsCache ports.StatsCache
	cleanup := func() { _ = sqlDB.Close() }
	if cfg.RedisURL != "" {
		redisClient, redisErr := cacheadapter.Connect(ctx, cfg.RedisURL)
		if redisErr != nil {
			// The stats cache is best-effort; a bad Redis URL degrades to
			// uncached reads instead of failing startup.
			logger.Warn("stats cache disabled", "error", redisErr)
		} else {
			statsCache = cacheadapter.NewRedisStatsCache(redisClient)
			prev := cleanup
			cleanup = func() {
				_ = redisClient.Close()
				prev()
			}
		}
	}

	var publisher ports.EventPublisher = eventadapter.NewLoggingPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = kafkaPub
		prev := cleanup
		cleanup = func() {
			_ = kafkaPub.Close()
			prev()
		}
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{StatsCacheTTL: cfg.StatsCacheTTL},
		Loans:  repos.Loans,
		Stats:  statsCache,
	})

	var m *metricsadapter.Metrics
	if !cfg.DisableMetrics {
		m = metricsadapter.Default()
	}

	handler := httpadapter.NewHandler(svc, m, sqlDB.PingContext)
	router := httpadapter.NewRouter(handler)
	outbox := eventadapter.NewOutboxWorker(
		logger,
		repos.Outbox,
		publisher,
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
		cfg.OutboxClaimTTL,
	)

	return &Runtime{
		cfg:       cfg,
		logger:    logger,
		handler:   router,
		outbox:    outbox,
		cleanupFn: cleanup,
	}, nil
}

// Serve runs the HTTP server on ln until a termination signal arrives or the
// server fails. A server failure is returned so the process exits non-zero.
func (r *Runtime) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Handler:           r.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("outbox worker stopped", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		r.logger.Error("server failure", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	r.cleanupFn()
	return serveErr
}
