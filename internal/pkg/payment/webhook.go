package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Webhook event types the provider sends us. Everything else is acknowledged
// and ignored.
const (
	WebhookChargeRefunded = "charge.refunded"
	WebhookChargeDisputed = "charge.disputed"
)

// WebhookEvent is the provider's notification envelope.
type WebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ChargeID string `json:"charge_id"`
		Reason   string `json:"reason"`
	} `json:"data"`
}

// VerifyWebhookSignature checks the provider's HMAC-SHA256 hex signature
// over the raw payload.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}

// ParseWebhookEvent decodes the provider payload.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
