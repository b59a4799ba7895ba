package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/microloans/loan-service/internal/adapters/postgres"
)

// Run executes one bootstrap role. With an empty role it acts as the
// selector: it decides the server model from the environment, logs the
// startup banner, and replaces itself with the chosen role. The banner
// precedes any failure so operators can tell "never started" from
// "started then crashed".
func Run(ctx context.Context, role, configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	plan := Select(cfg)
	slog.SetDefault(newLogger(cfg, plan.Mode))
	logger := slog.Default()

	switch role {
	case "":
		logger.Info("bootstrapping loan service",
			"mode", string(plan.Mode),
			"port", plan.Port,
			"workers", plan.Workers,
			"log_level", plan.LogLevel,
		)
		return Exec(plan)

	case RoleDev:
		rt, err := NewRuntime(ctx, cfg, logger, true)
		if err != nil {
			return err
		}
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
		if err != nil {
			return fmt.Errorf("bind port %d: %w", cfg.HTTPPort, err)
		}
		logger.Info("dev server listening", "port", cfg.HTTPPort)
		return rt.Serve(ctx, ln)

	case RoleMaster:
		return NewMaster(cfg, logger).Run(ctx)

	case RoleWorker:
		ln, err := inheritedListener()
		if err != nil {
			return err
		}
		rt, err := NewRuntime(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		return rt.Serve(ctx, ln)

	case RoleMigrate:
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		return postgres.RunMigrations(ctx, db)

	default:
		return fmt.Errorf("unknown role %q", role)
	}
}

// newLogger builds the process logger for the selected mode: human-readable
// debug output for the dev server, leveled JSON on stdout for production
// roles (error logging merges into the same stream).
func newLogger(cfg Config, mode Mode) *slog.Logger {
	if mode == ModeDev {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}
