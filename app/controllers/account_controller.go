package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nordkorb/nordkorb/app/repository"
	"github.com/nordkorb/nordkorb/internal/pkg/usercontext"
	"github.com/nordkorb/nordkorb/internal/pkg/utils"
)

// HandleGetAccount returns the logged-in user's profile.
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load account"})
	}

	return c.JSON(fiber.Map{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"status":        user.Status,
		"avatar_url":    utils.GetGravatarURL(user.Email, 200),
		"last_login_at": formatTimePtr(user.LastLoginAt),
		"created_at":    user.CreatedAt,
	})
}
