package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nordkorb/nordkorb/internal/pkg/env"
)

// Client is the HTTP implementation of Processor against the configured PSP.
type Client struct {
	BaseURL string
	APIKey  string

	HTTPClient *http.Client
}

// NewClientFromEnv builds the PSP client from PSP_BASE_URL / PSP_API_KEY.
func NewClientFromEnv() *Client {
	return &Client{
		BaseURL: strings.TrimRight(env.GetEnv("PSP_BASE_URL", ""), "/"),
		APIKey:  strings.TrimSpace(env.GetEnv("PSP_API_KEY", "")),
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type chargeRequestBody struct {
	PaymentMethod  string `json:"payment_method"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	IdempotencyKey string `json:"idempotency_key"`
	Description    string `json:"description,omitempty"`
}

type chargeResponseBody struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Charge posts a charge for a stored payment method. A "declined" status from
// the provider maps to ErrDeclined; everything else non-2xx is a hard error.
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, errors.New("PSP_BASE_URL is not configured")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("PSP_API_KEY is not configured")
	}
	if strings.TrimSpace(req.PaymentMethodRef) == "" {
		return nil, errors.New("payment method reference is required")
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("charge amount must be positive, got %s", req.Amount)
	}

	body, err := json.Marshal(chargeRequestBody{
		PaymentMethod:  req.PaymentMethodRef,
		Amount:         req.Amount.StringFixed(2),
		Currency:       req.Currency,
		IdempotencyKey: req.IdempotencyKey,
		Description:    req.Description,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var out chargeResponseBody
	if len(respBody) > 0 {
		// Tolerate non-JSON bodies on errors; status code decides below.
		_ = json.Unmarshal(respBody, &out)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if strings.EqualFold(out.Status, "declined") {
			return nil, fmt.Errorf("%w: %s", ErrDeclined, out.Message)
		}
		if strings.TrimSpace(out.ID) == "" {
			return nil, errors.New("psp charge returned empty transaction id")
		}
		return &ChargeResult{TransactionID: out.ID}, nil
	case resp.StatusCode == http.StatusPaymentRequired, resp.StatusCode == http.StatusUnprocessableEntity:
		msg := out.Message
		if msg == "" {
			msg = string(respBody)
		}
		return nil, fmt.Errorf("%w: %s", ErrDeclined, msg)
	default:
		return nil, fmt.Errorf("psp charge failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}
}
