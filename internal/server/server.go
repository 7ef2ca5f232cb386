package server

import (
	"context"
	"time"

	"backend-milestomemories/internal/admin"
	"backend-milestomemories/internal/auth"
	"backend-milestomemories/internal/cache"
	"backend-milestomemories/internal/comment"
	"backend-milestomemories/internal/config"
	"backend-milestomemories/internal/db"
	"backend-milestomemories/internal/middleware"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/social"
	"backend-milestomemories/internal/stream"
	"backend-milestomemories/internal/trip"
	"backend-milestomemories/internal/user"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	authRateLimit  = 20
	authRateWindow = time.Minute
	healthTimeout  = 2 * time.Second
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     db.Engine
	Redis  *redis.Client
	Stream *stream.Hub
}

// NewServer wires every route group onto a fresh fiber app. redisClient may
// be nil: caching and rate limiting are then skipped and activity is
// delivered in process.
func NewServer(ctx context.Context, cfg config.Config, engine db.Engine, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "milestomemories",
		ErrorHandler: apperr.Handler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	origins := cfg.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + admin.TokenHeader,
	}))

	prom := fiberprometheus.NewWithRegistry(prometheus.NewRegistry(), "milestomemories-api", "", "", nil)
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     engine,
		Redis:  redisClient,
		Stream: stream.NewHub(ctx, redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", s.health)

	tokens := auth.NewTokens(s.Cfg.JWTSecret, s.Cfg.TokenTTL)
	requireAuth, optionalAuth := auth.Required(tokens), auth.Optional(tokens)
	featured := cache.New(s.Redis)

	trips := trip.NewService(s.DB, featured)
	socials := social.NewService(s.DB, featured, s.Stream)

	api := s.App.Group("/api")

	auth.RegisterRoutes(api.Group("/auth"), auth.NewService(s.DB, tokens, s.Cfg.BcryptCost), requireAuth,
		middleware.RateLimit(s.Redis, "auth", authRateLimit, authRateWindow))

	tripGroup := api.Group("/trips")
	trip.RegisterRoutes(tripGroup, trips, requireAuth, optionalAuth)
	social.RegisterTripRoutes(tripGroup, socials, requireAuth)

	comment.RegisterRoutes(api.Group("/comments"), comment.NewService(s.DB, s.Stream), requireAuth)

	userGroup := api.Group("/users")
	user.RegisterRoutes(userGroup, user.NewService(s.DB, trips), requireAuth)
	social.RegisterUserRoutes(userGroup, socials, requireAuth)

	admin.RegisterRoutes(api.Group("/admin"), admin.NewService(s.DB, featured), admin.RequireToken(s.Cfg.AdminToken))
	stream.RegisterRoutes(api.Group("/stream"), s.Stream)
}

func (s *Server) health(c *fiber.Ctx) error {
	if s.DB == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()
	if err := s.DB.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "database": s.DB.Driver()})
	}
	return c.JSON(fiber.Map{"status": "ok", "database": s.DB.Driver()})
}

// Close stops the activity hub. The database and redis belong to the caller.
func (s *Server) Close() error {
	return s.Stream.Close()
}
