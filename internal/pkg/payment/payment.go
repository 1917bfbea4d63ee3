package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrDeclined marks a charge the processor refused (insufficient funds,
// expired card). The caller may let the customer retry; no order exists.
// Transport or provider failures surface as ordinary errors instead.
var ErrDeclined = errors.New("payment declined")

// ChargeRequest describes one charge against a stored payment method.
type ChargeRequest struct {
	PaymentMethodRef string
	Amount           decimal.Decimal
	Currency         string
	// IdempotencyKey dedupes retries on the provider side. The materializer
	// derives it from the proposal identity.
	IdempotencyKey string
	Description    string
}

// ChargeResult is the provider's answer to a successful charge.
type ChargeResult struct {
	TransactionID string
}

// Processor charges stored payment methods. The real implementation talks to
// the PSP over HTTP; tests use a recording fake.
type Processor interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
