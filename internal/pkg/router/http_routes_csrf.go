package router

import (
	"strings"
	"time"

	"github.com/nordkorb/nordkorb/app/controllers"
	"github.com/nordkorb/nordkorb/internal/pkg/env"
	"github.com/nordkorb/nordkorb/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Get("/activate", loggedInMiddleware, controllers.HandleAuthActivate)

	// Account
	group.Get("/user/account", middleware.RequireAuth, controllers.HandleGetAccount)

	// Recurring plans
	group.Get("/user/plans", middleware.RequireAuth, controllers.HandleListPlans)
	group.Post("/user/plans", middleware.RequireAuth, controllers.HandleCreatePlan)
	group.Get("/user/plans/:id", middleware.RequireAuth, controllers.HandleGetPlan)
	group.Post("/user/plans/:id/pause", middleware.RequireAuth, controllers.HandlePausePlan)
	group.Post("/user/plans/:id/resume", middleware.RequireAuth, controllers.HandleResumePlan)
	group.Post("/user/plans/:id/cancel", middleware.RequireAuth, controllers.HandleCancelPlan)
	group.Post("/user/plans/:id/skip-next", middleware.RequireAuth, controllers.HandleSkipNextCycle)
	group.Post("/user/plans/:id/items", middleware.RequireAuth, controllers.HandleUpdatePlanItems)

	// Order history
	group.Get("/user/orders", middleware.RequireAuth, controllers.HandleListOrders)
	group.Get("/user/orders/:uuid", middleware.RequireAuth, controllers.HandleGetOrder)

	// Admin
	group.Get("/admin/stats", middleware.RequireAdmin, controllers.HandleAdminStats)
}
