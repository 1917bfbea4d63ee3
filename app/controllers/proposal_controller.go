package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/nordkorb/nordkorb/app/models"
	"github.com/nordkorb/nordkorb/app/repository"
	"github.com/nordkorb/nordkorb/internal/pkg/env"
	"github.com/nordkorb/nordkorb/internal/pkg/metrics/counter"
	"github.com/nordkorb/nordkorb/internal/pkg/payment"
	"github.com/nordkorb/nordkorb/internal/pkg/recurring"
	"github.com/nordkorb/nordkorb/internal/pkg/security"
	"github.com/nordkorb/nordkorb/internal/pkg/statistics"
)

// proposalNotFound is the single response for missing proposals and every
// kind of token failure. Invalid, expired, wrong-purpose and wrong-target
// tokens must all look identical from outside.
func proposalNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Proposal not found"})
}

// loadProposalWithToken resolves the proposal from the path and checks the
// signed token against it for the given purpose. A nil proposal means the
// response has already been written.
func loadProposalWithToken(c *fiber.Ctx, purpose security.TokenPurpose) (*models.PendingProposal, error) {
	token := c.Query("token")
	if token == "" {
		token = c.FormValue("token")
	}
	if token == "" {
		return nil, proposalNotFound(c)
	}

	proposal, err := repository.GetGlobalFactory().GetProposalRepository().GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, proposalNotFound(c)
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load proposal"})
	}

	secret := env.GetEnv("APP_SECRET", "")
	if err := security.VerifyProposalToken(token, purpose, proposal.ID, secret); err != nil {
		return nil, proposalNotFound(c)
	}

	return proposal, nil
}

// HandleShowProposal renders the proposal snapshot for the customer. Both
// link purposes may view it.
func HandleShowProposal(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return proposalNotFound(c)
	}

	proposal, err := repository.GetGlobalFactory().GetProposalRepository().GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return proposalNotFound(c)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load proposal"})
	}

	secret := env.GetEnv("APP_SECRET", "")
	if security.VerifyProposalToken(token, security.PurposeEdit, proposal.ID, secret) != nil &&
		security.VerifyProposalToken(token, security.PurposeConfirm, proposal.ID, secret) != nil {
		return proposalNotFound(c)
	}

	return c.JSON(fiber.Map{
		"uuid":          proposal.UUID,
		"status":        proposal.Status,
		"scheduled_for": proposal.ScheduledFor.Format("2006-01-02"),
		"snapshot":      proposal.ItemsSnapshot,
	})
}

// confirmErrorResponse maps materialization failures to HTTP statuses.
// Terminal proposals are Gone; everything else leaves the proposal pending,
// so declines and internal failures answer 422 and the same link can be
// retried.
func confirmErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrProposalProcessed):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "gone", "message": "Proposal was already processed"})
	case errors.Is(err, payment.ErrDeclined):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "payment_declined", "message": "Payment was declined, the proposal stays open"})
	case errors.Is(err, recurring.ErrNoOrderableItems):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "No orderable items left in this proposal"})
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "confirmation_failed", "message": "Confirmation failed, the proposal stays open for retry"})
}

// HandleConfirmProposal charges the customer and materializes the proposal
// into an order.
func HandleConfirmProposal(c *fiber.Ctx) error {
	proposal, err := loadProposalWithToken(c, security.PurposeConfirm)
	if proposal == nil {
		return err
	}

	order, err := recurring.GetGlobalService().ConfirmProposal(c.Context(), proposal.ID)
	if err != nil {
		return confirmErrorResponse(c, err)
	}

	for _, item := range proposal.ItemsSnapshot.Items {
		go counter.AddProductOrdered(item.ProductID, item.Quantity)
	}
	go statistics.UpdateStatisticsCache()

	return c.JSON(fiber.Map{
		"order_uuid": order.UUID,
		"status":     order.Status,
		"total":      order.Total,
	})
}

// HandleEditProposal replaces the proposal's items with the submitted lines,
// re-priced from the live catalog.
func HandleEditProposal(c *fiber.Ctx) error {
	proposal, err := loadProposalWithToken(c, security.PurposeEdit)
	if proposal == nil {
		return err
	}

	var req struct {
		Items []planItemRequest `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	edits := make([]recurring.EditLine, 0, len(req.Items))
	for _, item := range req.Items {
		edits = append(edits, recurring.EditLine{ProductID: item.ProductID, Quantity: item.Quantity, Remove: item.Remove})
	}

	snapshot, err := recurring.GetGlobalService().EditProposal(c.Context(), proposal, edits)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrProposalProcessed):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "gone", "message": "Proposal was already processed"})
		case errors.Is(err, recurring.ErrInvalidQuantity):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Item quantity must be positive"})
		case errors.Is(err, recurring.ErrEmptyEdit):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "The proposal needs at least one item"})
		case errors.Is(err, recurring.ErrUnknownProduct):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Unknown product reference"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update proposal"})
	}

	return c.JSON(fiber.Map{
		"uuid":     proposal.UUID,
		"snapshot": snapshot,
	})
}
