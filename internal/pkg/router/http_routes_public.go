package router

import (
	"github.com/nordkorb/nordkorb/app/controllers"
	"github.com/nordkorb/nordkorb/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Public catalog
	app.Get("/products", loggedInMiddleware, controllers.HandleListProducts)
	app.Get("/products/:id", loggedInMiddleware, controllers.HandleGetProduct)

	// Signed proposal links from the notification mails. The token in the
	// query string is the only credential; no session is required.
	app.Get("/pending-proposals/:uuid", controllers.HandleShowProposal)
	app.Post("/pending-proposals/:uuid/confirm", controllers.HandleConfirmProposal)
	app.Post("/pending-proposals/:uuid/edit", controllers.HandleEditProposal)

	// Payment provider webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/psp", controllers.HandlePaymentWebhook)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)
}
