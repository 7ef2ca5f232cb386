package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-milestomemories/internal/config"
	"backend-milestomemories/internal/db"
	"backend-milestomemories/internal/seed"
	"backend-milestomemories/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig   func() config.Config
	openDB       func(context.Context, config.Config) (db.Engine, error)
	connectRedis func(config.Config) *redis.Client
	seed         func(context.Context, db.Store, int) (bool, error)
	notify       func(chan<- os.Signal, ...os.Signal)
	run          func(context.Context, config.Config, db.Engine, *redis.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:   config.Load,
		openDB:       db.Open,
		connectRedis: db.ConnectRedis,
		seed:         seed.Demo,
		notify:       signal.Notify,
		run:          Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()
	setupLogging(cfg.LogLevel)
	ctx := context.Background()

	engine, err := deps.openDB(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Driver()).Msg("database unavailable")
		return
	}

	if cfg.SeedDemo {
		if _, err := deps.seed(ctx, engine, cfg.BcryptCost); err != nil {
			log.Error().Err(err).Msg("demo seed failed")
		}
	}

	rdb := deps.connectRedis(cfg)

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(ctx, cfg, engine, rdb, signals, nil); err != nil {
		log.Error().Err(err).Msg("server exited with error")
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals. engine and
// rdb are closed on the way out.
func Run(ctx context.Context, cfg config.Config, engine db.Engine, rdb *redis.Client, signals <-chan os.Signal, listen ListenFunc) error {
	srv := server.NewServer(ctx, cfg, engine, rdb)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ServerPort).Msg("api listening")
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
		log.Info().Msg("shutting down")
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if err := srv.Close(); err != nil {
		log.Warn().Err(err).Msg("activity stream close failed")
	}
	if engine != nil {
		engine.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}
