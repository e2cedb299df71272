package router

import (
	"github.com/ManuelReschke/ProposalCraft/app/controllers"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// API routes live in ApiRouter (internal/pkg/router/api_router.go)
	app.Get("/help", controllers.HandleHelp)
	app.Get("/history", controllers.HandleHistory)

	// Short share URLs
	app.Get("/p/:slug", controllers.HandleShared)

	// Flash helpers
	app.Get("/flash/upload-too-large", controllers.HandleFlashUploadTooLarge)
	app.Get("/flash/session-expired", controllers.HandleFlashSessionExpired)
}
