// Command diary serves the single-process travel diary: entries, comments,
// favorites and the newsletter live in memory, photos on local disk.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-milestomemories/internal/config"
	"backend-milestomemories/internal/diary"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

var listenFn = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

func main() {
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	app, err := newApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("upload directory unavailable")
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	if err := run(app, cfg.DiaryPort, signals); err != nil {
		log.Error().Err(err).Msg("diary exited with error")
	}
}

// newApp builds the diary with the demo entries loaded.
func newApp(cfg config.Config) (*fiber.App, error) {
	disk, err := storage.NewDisk(cfg.UploadDir, cfg.MaxUploadMB)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:      "milestomemories-diary",
		ErrorHandler: apperr.Handler,
		BodyLimit:    int(disk.MaxBytes())*diary.MaxPhotos + 1<<20,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	disk.Mount(app)

	store := diary.NewStore()
	store.SeedDemo()
	diary.RegisterRoutes(app.Group("/api"), store, disk)
	return app, nil
}

func run(app *fiber.App, addr string, signals <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("diary listening")
		errCh <- listenFn(app, addr)
	}()

	select {
	case <-signals:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(ctx)
}
