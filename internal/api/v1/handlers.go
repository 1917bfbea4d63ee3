package apiv1

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nordkorb/nordkorb/internal/pkg/env"
	"github.com/nordkorb/nordkorb/internal/pkg/middleware"
	"github.com/nordkorb/nordkorb/internal/pkg/recurring"
)

// Pong is the ping response body.
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer implements the public v1 API surface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// PostRunDueCycle lets the external cron trigger one recurring-order cycle:
// every active plan whose due date has arrived gets a pending proposal and
// advances to its next cycle. Safe to call repeatedly.
func (s *APIServer) PostRunDueCycle(c *fiber.Ctx) error {
	created, err := recurring.GetGlobalService().RunDueCycle(c.Context(), time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Cycle run failed"})
	}

	return c.JSON(fiber.Map{"proposals_created": created})
}

// PostExpireStale marks proposals expired whose cycle date has aged past the
// configured retention window.
func (s *APIServer) PostExpireStale(c *fiber.Ctx) error {
	maxAgeDays := 14
	if v, err := strconv.Atoi(env.GetEnv("RECURRING_PROPOSAL_MAX_AGE_DAYS", "")); err == nil && v > 0 {
		maxAgeDays = v
	}

	expired, err := recurring.GetGlobalService().ExpireStaleProposals(time.Now(), time.Duration(maxAgeDays)*24*time.Hour)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Expiry sweep failed"})
	}

	return c.JSON(fiber.Map{"proposals_expired": expired})
}

// RegisterHandlers wires the v1 routes onto the given router group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)

	scheduler := router.Group("/scheduler", middleware.SchedulerKeyMiddleware())
	scheduler.Post("/run-due-cycle", s.PostRunDueCycle)
	scheduler.Post("/expire-stale", s.PostExpireStale)
}
