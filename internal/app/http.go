package app

import (
	"context"
	"fmt"
	"time"

	"video-hosting/internal/delivery/http/handlers"
	"video-hosting/internal/delivery/http/routers"
	"video-hosting/internal/pkg/config"
	"video-hosting/internal/pkg/metrics"
	"video-hosting/internal/usecases"
	consts "video-hosting/pkg/constants"
	apperrors "video-hosting/pkg/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// multipart overhead on top of the largest accepted upload
const bodySlack = 1 << 20

// NewFiberApp builds the HTTP surface: middleware, swagger, health, metrics
// and the pipeline routes.
func NewFiberApp(
	cfg *config.Config,
	uploadService usecases.UploadService,
	cleanup usecases.CleanupService,
	m *metrics.Pipeline,
) *fiber.App {
	bodyLimit := cfg.Upload.MaxFileSize + bodySlack
	if cfg.Upload.ChunkSize+bodySlack > bodyLimit {
		bodyLimit = cfg.Upload.ChunkSize + bodySlack
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    int(bodyLimit),
		ErrorHandler: apperrors.HandleError,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": consts.StatusOK})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	routers.SetupUploadRoutes(app, handlers.NewUploadHandler(uploadService), handlers.NewCleanupHandler(cleanup))
	routers.SetupMediaRoutes(app, handlers.NewMediaHandler(uploadService))
	return app
}

func RunHTTPServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger) {
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("Server starting", zap.String("addr", addr))
			go func() {
				if err := app.Listen(addr); err != nil {
					log.Fatal("Server could not start", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctxShut, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(ctxShut); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			log.Info("Server stopped")
			return nil
		},
	})
}
