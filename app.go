package main

import (
	"errors"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"net/http"
	"strings"
)

const bodyLimit = 20 * 1024 * 1024

// ErrorHandler turns fiber errors into their status and everything else into
// a logged 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error

	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	Log.WithError(err).
		WithField("method", c.Method()).
		WithField("path", c.Path()).
		Error("request failed")

	return c.Status(http.StatusInternalServerError).JSON(ErrInternalServerError)
}

func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:      ServiceConfig.Prefork,
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Output: Log.Writer(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: ServiceConfig.Cors.AllowOrigins,
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	if _, ok := ImageStorage.(*LocalImageStore); ok {
		app.Static(strings.TrimSuffix(ServiceConfig.Storage.MediaUrl, "/"), ServiceConfig.Storage.MediaRoot)
	}

	appGroup := app.Group("/api")
	authRoutes(appGroup)
	userRoutes(appGroup)
	subscriptionRoutes(appGroup)
	tagRoutes(appGroup)
	ingredientRoutes(appGroup)
	favoriteRoutes(appGroup)
	recipeRoutes(appGroup)
	adminRoutes(appGroup)

	return app
}
