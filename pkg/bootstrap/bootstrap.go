// Package bootstrap holds the startup steps shared by the long-running
// binaries: env loading, config, logging, connections and signal handling.
package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/instance"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/migrate"
	"github.com/angelmondragon/souq-backend/pkg/redis"
)

var (
	defaultExit = os.Exit
	exit        = defaultExit
)

// Process is a started binary. Closers registered through it run in reverse
// order on Shutdown.
type Process struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger

	closers []func()
}

// Start reads .env when present, loads config and builds the service logger.
// Any failure ends the process.
func Start(kind string) *Process {
	logg := logger.New(logger.Options{ServiceName: kind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		exit(1)
	}
	cfg.Service.Kind = kind

	return &Process{
		Kind:   kind,
		Config: cfg,
		Logger: logger.New(logger.Options{
			ServiceName: kind,
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
		}),
	}
}

// Must ends the process when err is non-nil.
func (p *Process) Must(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}
	p.Logger.Error(ctx, msg, err)
	p.Shutdown()
	exit(1)
}

// Database connects to Postgres and applies migrations when dev
// auto-migrate is on.
func (p *Process) Database(ctx context.Context) *db.Client {
	client, err := db.New(ctx, p.Config.DB, p.Logger)
	p.Must(ctx, "failed to bootstrap database", err)
	p.onShutdown("database", client.Close)
	p.Must(ctx, "failed to run dev migrations", migrate.MaybeRunDev(ctx, p.Config, p.Logger, client))
	return client
}

// Redis connects to Redis. With optional set, a missing address yields nil
// instead of a failure.
func (p *Process) Redis(ctx context.Context, optional bool) *redis.Client {
	if optional && p.Config.Redis.URL == "" && p.Config.Redis.Address == "" {
		p.Logger.Warn(ctx, "redis not configured; rate limits, idempotency and callback dedupe disabled")
		return nil
	}
	client, err := redis.New(ctx, p.Config.Redis, p.Logger)
	p.Must(ctx, "failed to bootstrap redis", err)
	p.onShutdown("redis", client.Close)
	return client
}

// Closer registers an extra resource to release on Shutdown.
func (p *Process) Closer(name string, fn func() error) {
	p.onShutdown(name, fn)
}

func (p *Process) onShutdown(name string, fn func() error) {
	p.closers = append(p.closers, func() {
		if err := fn(); err != nil {
			p.Logger.Error(context.Background(), "error closing "+name, err)
		}
	})
}

// Shutdown releases registered resources, last opened first.
func (p *Process) Shutdown() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}

// SignalContext is cancelled on SIGINT or SIGTERM and carries the
// process-wide log fields.
func (p *Process) SignalContext(extra map[string]any) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	fields := map[string]any{
		"env":         p.Config.App.Env,
		"instance":    instance.ID(),
		"serviceKind": p.Kind,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return p.Logger.WithFields(ctx, fields), stop
}
