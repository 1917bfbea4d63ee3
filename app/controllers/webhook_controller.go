package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/nordkorb/nordkorb/app/models"
	"github.com/nordkorb/nordkorb/app/repository"
	"github.com/nordkorb/nordkorb/internal/pkg/env"
	"github.com/nordkorb/nordkorb/internal/pkg/payment"
	"github.com/nordkorb/nordkorb/internal/pkg/statistics"
)

// HandlePaymentWebhook processes notifications from the payment provider.
// The route sits outside the CSRF group, the HMAC signature is the only
// credential.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	secret := env.GetEnv("PSP_WEBHOOK_SECRET", "")
	if secret == "" {
		log.Printf("[Webhook] PSP_WEBHOOK_SECRET ist nicht gesetzt, Webhook wird abgelehnt")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "webhook_not_configured", "message": "Webhook is not configured"})
	}

	body := c.Body()
	signature := c.Get("X-Webhook-Signature")
	if !payment.VerifyWebhookSignature(body, signature, secret) {
		log.Printf("[Webhook] Ungültige Signatur von %s", c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature", "message": "Invalid webhook signature"})
	}

	event, err := payment.ParseWebhookEvent(body)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Invalid webhook payload"})
	}

	switch event.Type {
	case payment.WebhookChargeRefunded, payment.WebhookChargeDisputed:
		if event.Data.ChargeID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Missing charge_id"})
		}

		orderRepo := repository.GetGlobalFactory().GetOrderRepository()
		order, err := orderRepo.GetByPaymentRef(event.Data.ChargeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Unknown charge, most likely a replayed or foreign event.
				// Acknowledge so the provider stops retrying.
				log.Printf("[Webhook] Keine Bestellung zu Charge %s gefunden", event.Data.ChargeID)
				return c.JSON(fiber.Map{"received": true})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
		}

		if order.Status != models.OrderStatusRefunded {
			if err := orderRepo.UpdateStatus(order.ID, models.OrderStatusRefunded); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update order"})
			}
			log.Printf("[Webhook] Bestellung %s wurde erstattet (%s)", order.UUID, event.Type)
			go statistics.UpdateStatisticsCache()
		}
	default:
		// Unhandled event types are acknowledged without action.
	}

	return c.JSON(fiber.Map{"received": true})
}
