package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"type":"charge.refunded","data":{"charge_id":"ch_123"}}`)
	secret := "whsec_test"

	if !VerifyWebhookSignature(payload, signPayload(payload, secret), secret) {
		t.Error("Valid signature was rejected")
	}

	if VerifyWebhookSignature(payload, signPayload(payload, "whsec_other"), secret) {
		t.Error("Signature made with a different secret was accepted")
	}

	if VerifyWebhookSignature([]byte(`{"type":"tampered"}`), signPayload(payload, secret), secret) {
		t.Error("Signature over a different payload was accepted")
	}

	if VerifyWebhookSignature(payload, "", secret) {
		t.Error("Empty signature was accepted")
	}

	if VerifyWebhookSignature(payload, signPayload(payload, secret), "") {
		t.Error("Empty secret was accepted")
	}

	if VerifyWebhookSignature(payload, "zzzz-not-hex", secret) {
		t.Error("Non-hex signature was accepted")
	}
}

func TestVerifyWebhookSignatureTrimsWhitespace(t *testing.T) {
	payload := []byte(`{"type":"charge.disputed"}`)
	secret := "whsec_test"
	sig := "  " + signPayload(payload, secret) + "\n"

	if !VerifyWebhookSignature(payload, sig, secret) {
		t.Error("Signature with surrounding whitespace was rejected")
	}
}

func TestParseWebhookEvent(t *testing.T) {
	event, err := ParseWebhookEvent([]byte(`{"type":"charge.refunded","data":{"charge_id":"ch_42","reason":"requested_by_customer"}}`))
	if err != nil {
		t.Fatalf("ParseWebhookEvent failed: %v", err)
	}
	if event.Type != WebhookChargeRefunded {
		t.Errorf("Expected type %q, got %q", WebhookChargeRefunded, event.Type)
	}
	if event.Data.ChargeID != "ch_42" {
		t.Errorf("Expected charge_id ch_42, got %q", event.Data.ChargeID)
	}

	if _, err := ParseWebhookEvent([]byte("not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
