package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/nordkorb/nordkorb/app/models"
	"github.com/nordkorb/nordkorb/app/repository"
	"github.com/nordkorb/nordkorb/internal/pkg/recurring"
	"github.com/nordkorb/nordkorb/internal/pkg/schedule"
	"github.com/nordkorb/nordkorb/internal/pkg/usercontext"
)

type planItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
	Remove    bool `json:"remove"`
}

type createPlanRequest struct {
	Frequency        string            `json:"frequency"`
	PaymentMethodRef string            `json:"payment_method_ref"`
	StartDate        string            `json:"start_date"`
	Items            []planItemRequest `json:"items"`
}

// loadOwnPlan fetches a plan scoped to the logged-in user. Foreign and
// missing plans are both "not found"; ownership is never leaked. A nil plan
// means the response has already been written.
func loadOwnPlan(c *fiber.Ctx) (*models.RecurringPlan, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
	}

	plan, err := repository.GetGlobalFactory().GetPlanRepository().GetByIDForUser(uint(id), userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plan"})
	}
	return plan, nil
}

func planErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrPlanCancelled):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "gone", "message": "Plan is cancelled"})
	case errors.Is(err, models.ErrPlanNotPaused):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid_state", "message": "Plan is not paused"})
	case errors.Is(err, models.ErrPlanNotActive):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid_state", "message": "Plan is not active"})
	case errors.Is(err, models.ErrPlanNeedsItems):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "An active plan needs at least one item"})
	case errors.Is(err, recurring.ErrInvalidQuantity):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Item quantity must be positive"})
	case errors.Is(err, recurring.ErrUnknownProduct):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Unknown or unavailable product"})
	case errors.Is(err, recurring.ErrUnknownFrequency):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Unknown delivery frequency"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update plan"})
}

// HandleListPlans returns every plan of the logged-in customer.
func HandleListPlans(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	plans, err := repository.GetGlobalFactory().GetPlanRepository().ListByUser(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plans"})
	}

	return c.JSON(fiber.Map{"plans": plans})
}

// HandleGetPlan returns one plan of the logged-in customer.
func HandleGetPlan(c *fiber.Ctx) error {
	plan, err := loadOwnPlan(c)
	if plan == nil {
		return err
	}
	return c.JSON(plan)
}

// HandleCreatePlan sets up a new recurring plan.
func HandleCreatePlan(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req createPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.PaymentMethodRef == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "payment_method_ref is required"})
	}

	var startDate time.Time
	if req.StartDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "start_date must be YYYY-MM-DD"})
		}
		startDate = parsed
	}

	items := make([]recurring.ItemUpdate, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, recurring.ItemUpdate{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	plan, err := recurring.GetGlobalService().CreatePlan(c.Context(), userCtx.UserID, schedule.Frequency(req.Frequency), req.PaymentMethodRef, startDate, items)
	if err != nil {
		return planErrorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(plan)
}

// HandlePausePlan pauses deliveries until the customer resumes.
func HandlePausePlan(c *fiber.Ctx) error {
	plan, err := loadOwnPlan(c)
	if plan == nil {
		return err
	}

	if err := recurring.GetGlobalService().PausePlan(plan, time.Now()); err != nil {
		return planErrorResponse(c, err)
	}
	return c.JSON(plan)
}

// HandleResumePlan reactivates a paused plan. The resume_mode parameter picks
// between the next possible delivery and the original rhythm.
func HandleResumePlan(c *fiber.Ctx) error {
	plan, err := loadOwnPlan(c)
	if plan == nil {
		return err
	}

	var req struct {
		ResumeMode string `json:"resume_mode"`
	}
	_ = c.BodyParser(&req)

	mode := schedule.ParseResumeMode(req.ResumeMode)
	if err := recurring.GetGlobalService().ResumePlan(plan, mode, time.Now()); err != nil {
		return planErrorResponse(c, err)
	}
	return c.JSON(plan)
}

// HandleCancelPlan cancels a plan for good.
func HandleCancelPlan(c *fiber.Ctx) error {
	plan, err := loadOwnPlan(c)
	if plan == nil {
		return err
	}

	if err := recurring.GetGlobalService().CancelPlan(plan, time.Now()); err != nil {
		return planErrorResponse(c, err)
	}
	return c.JSON(plan)
}

// HandleSkipNextCycle jumps the plan over its next delivery.
func HandleSkipNextCycle(c *fiber.Ctx) error {
	plan, err := loadOwnPlan(c)
	if plan == nil {
		return err
	}

	if err := recurring.GetGlobalService().SkipNextCycle(plan, time.Now()); err != nil {
		return planErrorResponse(c, err)
	}
	return c.JSON(plan)
}

// HandleUpdatePlanItems applies quantity changes, additions and removals to
// the plan's item templates.
func HandleUpdatePlanItems(c *fiber.Ctx) error {
	plan, err := loadOwnPlan(c)
	if plan == nil {
		return err
	}

	var req struct {
		Items []planItemRequest `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	updates := make([]recurring.ItemUpdate, 0, len(req.Items))
	for _, item := range req.Items {
		updates = append(updates, recurring.ItemUpdate{ProductID: item.ProductID, Quantity: item.Quantity, Remove: item.Remove})
	}

	if err := recurring.GetGlobalService().UpdatePlanItems(c.Context(), plan, updates); err != nil {
		return planErrorResponse(c, err)
	}
	return c.JSON(plan)
}
