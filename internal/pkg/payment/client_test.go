package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := &Client{
		BaseURL:    srv.URL,
		APIKey:     "sk_test",
		HTTPClient: srv.Client(),
	}
	return c, srv
}

func chargeReq() ChargeRequest {
	return ChargeRequest{
		PaymentMethodRef: "pm_123",
		Amount:           decimal.RequireFromString("28.78"),
		Currency:         "EUR",
		IdempotencyKey:   "proposal-42-confirm",
	}
}

func TestClientChargeSuccess(t *testing.T) {
	t.Parallel()

	var gotBody chargeRequestBody
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/charges", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "proposal-42-confirm", r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "ch_1", "status": "succeeded"})
	})
	defer srv.Close()

	res, err := client.Charge(context.Background(), chargeReq())
	require.NoError(t, err)
	assert.Equal(t, "ch_1", res.TransactionID)
	assert.Equal(t, "28.78", gotBody.Amount)
	assert.Equal(t, "pm_123", gotBody.PaymentMethod)
}

func TestClientChargeDeclined(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "declined", "message": "insufficient funds"})
	})
	defer srv.Close()

	_, err := client.Charge(context.Background(), chargeReq())
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestClientChargeDeclinedWithOKStatus(t *testing.T) {
	t.Parallel()

	// Some providers answer 200 with a declined status in the body
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "declined", "message": "card expired"})
	})
	defer srv.Close()

	_, err := client.Charge(context.Background(), chargeReq())
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestClientChargeServerError(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	_, err := client.Charge(context.Background(), chargeReq())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeclined)
}

func TestClientChargeValidation(t *testing.T) {
	t.Parallel()

	client := &Client{BaseURL: "http://localhost:1", APIKey: "sk_test", HTTPClient: http.DefaultClient}

	req := chargeReq()
	req.PaymentMethodRef = ""
	_, err := client.Charge(context.Background(), req)
	assert.Error(t, err)

	req = chargeReq()
	req.Amount = decimal.Zero
	_, err = client.Charge(context.Background(), req)
	assert.Error(t, err)

	unconfigured := &Client{HTTPClient: http.DefaultClient}
	_, err = unconfigured.Charge(context.Background(), chargeReq())
	assert.Error(t, err)
}
