package api

import (
	"errors"
	"time"

	"fra-atlas/docs"
	"fra-atlas/internal/api/handlers"
	"fra-atlas/pkg/auth"
	"fra-atlas/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Claims *handlers.ClaimHandler
	Upload *handlers.UploadHandler
	Auth   *handlers.AuthHandler
}

type Options struct {
	StoreBackend string
	UploadDir    string
	// MaxUploadBytes is the per-file cap. The request body limit is set a
	// little above it so oversized files reach the upload handler and get a
	// proper 400.
	MaxUploadBytes int64
	// AccessLog enables fiber's request logger.
	AccessLog bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func SetupRouter(h Handlers, jwtManager *auth.JWTManager, opts Options, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "fra-atlas",
		BodyLimit:    int(opts.MaxUploadBytes) + 1<<20,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code == fiber.StatusRequestEntityTooLarge {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": handlers.FileTooLargeMessage(opts.MaxUploadBytes),
				})
			}
			if code >= fiber.StatusInternalServerError {
				appLogger.Error("Unhandled error", zap.Error(err), zap.String("path", c.Path()))
				return c.Status(code).JSON(fiber.Map{
					"error": "Internal server error",
				})
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	if opts.AccessLog {
		app.Use(logger.New())
	}

	_ = docs.SwaggerInfo // registered with swag in init()
	app.Get("/swagger/*", swagger.HandlerDefault)

	if opts.UploadDir != "" {
		app.Static("/uploads", opts.UploadDir)
	}

	api := app.Group("/api", middleware.OptionalAuth(jwtManager, appLogger))
	api.Get("/health", handlers.Health(opts.StoreBackend))

	authGroup := api.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.RefreshToken)

	api.Get("/dashboard/stats", h.Claims.DashboardStats)

	api.Post("/upload", h.Upload.Upload)
	api.Post("/ocr/save", h.Upload.SaveExtraction)
	api.Post("/ocr/reprocess", h.Upload.Reprocess)

	claims := api.Group("/claims")
	claims.Get("", h.Claims.ListClaims)
	claims.Post("", h.Claims.CreateClaim)
	claims.Get("/:id", h.Claims.GetClaim)
	claims.Patch("/:id", h.Claims.UpdateClaim)
	claims.Delete("/:id", h.Claims.DeleteClaim)
	claims.Post("/:id/boundary", h.Claims.AttachBoundary)

	api.Get("/map/claims", h.Claims.MapClaims)

	return app
}
