package server

import (
	"time"

	"github.com/reviewpilot/reviewpilot/internal/controllers"
	"github.com/reviewpilot/reviewpilot/internal/middlewares"
	"github.com/reviewpilot/reviewpilot/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/rs/zerolog/log"
)

type HTTPServerDependencies struct {
	GoogleOAuthController *controllers.GoogleOAuthController
	ReviewController      *controllers.ReviewController
	AccountResolver       middlewares.AccountResolver
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "reviewpilot",
	})

	// Add basic middleware
	router.Use(cors.New())
	router.Use(logger.New())

	// Health check endpoint (no authentication required)
	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "reviewpilot",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	if deps.AccountResolver == nil {
		log.Fatal().Msg("Account resolver is nil, the identity layer must be configured")
	}

	google := router.Group("/v1/google")
	google.Use(middlewares.SessionMiddleware(deps.AccountResolver))

	google.Post("/connect", deps.GoogleOAuthController.Connect)
	google.Post("/callback", deps.GoogleOAuthController.Callback)
	google.Post("/token/refresh", deps.GoogleOAuthController.RefreshToken)
	google.Delete("/connection", deps.GoogleOAuthController.Disconnect)

	google.Get("/businesses", deps.ReviewController.ListBusinesses)
	google.Post("/businesses/select", deps.ReviewController.SelectBusiness)
	google.Get("/reviews", deps.ReviewController.ListReviews)
	google.Post("/reviews/sync", deps.ReviewController.SyncReviews)
	google.Post("/reviews/:reviewID/reply", deps.ReviewController.ReplyToReview)

	return router
}
