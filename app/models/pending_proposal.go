package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ProposalStatusPending   = "pending"
	ProposalStatusConfirmed = "confirmed"
	ProposalStatusExpired   = "expired"
)

// ErrProposalProcessed rejects confirm/edit/expiry on a proposal that already
// reached a terminal state. Controllers map it to 410 Gone.
var ErrProposalProcessed = errors.New("pending proposal already processed")

// SnapshotItem is one frozen line of a proposal.
type SnapshotItem struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
}

// LineTotal is quantity times frozen unit price.
func (i SnapshotItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsSnapshot is the self-contained record of what a proposal contains.
// After creation it is the sole source of truth; plan items and catalog rows
// are never re-read for display, so the customer sees stable prices.
// Products that fell out of the catalog stay visible in UnavailableItems but
// are excluded from the totals.
type ItemsSnapshot struct {
	Items            []SnapshotItem  `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	VAT              decimal.Decimal `json:"vat"`
	Shipping         decimal.Decimal `json:"shipping"`
	Total            decimal.Decimal `json:"total"`
	UnavailableItems []SnapshotItem  `json:"unavailable_items"`
}

// Value serializes the snapshot into the JSON column.
func (s ItemsSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan deserializes the snapshot from the JSON column.
func (s *ItemsSnapshot) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		*s = ItemsSnapshot{}
		return nil
	}
	return fmt.Errorf("unsupported items_snapshot type %T", value)
}

// PendingProposal is one cycle's draft order, awaiting confirmation or edit
// via signed links.
type PendingProposal struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UUID            string        `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	RecurringPlanID uint          `gorm:"not null;index:ux_proposals_plan_cycle,unique,priority:1" json:"recurring_plan_id"`
	RecurringPlan   RecurringPlan `gorm:"foreignKey:RecurringPlanID" json:"recurring_plan,omitempty"`
	OrderID         *uint         `gorm:"default:null" json:"order_id,omitempty"`
	Order           *Order        `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	ScheduledFor    time.Time     `gorm:"type:date;not null;index:ux_proposals_plan_cycle,unique,priority:2" json:"scheduled_for"`
	Status          string        `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	ConfirmedAt     *time.Time    `gorm:"type:timestamp;default:null" json:"confirmed_at,omitempty"`
	ExpiredAt       *time.Time    `gorm:"type:timestamp;default:null" json:"expired_at,omitempty"`
	ItemsSnapshot   ItemsSnapshot `gorm:"type:json" json:"items_snapshot"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewPendingProposal builds a pending proposal for one plan cycle. The
// snapshot is computed by the recurring engine and frozen here.
func NewPendingProposal(planID uint, scheduledFor time.Time, snapshot ItemsSnapshot) *PendingProposal {
	return &PendingProposal{
		UUID:            uuid.New().String(),
		RecurringPlanID: planID,
		ScheduledFor:    scheduledFor,
		Status:          ProposalStatusPending,
		ItemsSnapshot:   snapshot,
	}
}

// IsPending reports whether the proposal can still be confirmed or edited.
func (p *PendingProposal) IsPending() bool {
	return p.Status == ProposalStatusPending
}

// IsTerminal reports whether the proposal reached confirmed or expired.
func (p *PendingProposal) IsTerminal() bool {
	return p.Status == ProposalStatusConfirmed || p.Status == ProposalStatusExpired
}

// MarkConfirmed transitions pending → confirmed and links the materialized
// order. Only the materializer calls this, under a row lock.
func (p *PendingProposal) MarkConfirmed(orderID uint, now time.Time) error {
	if !p.IsPending() {
		return ErrProposalProcessed
	}
	p.Status = ProposalStatusConfirmed
	p.ConfirmedAt = &now
	p.OrderID = &orderID
	return nil
}

// MarkExpired transitions pending → expired (sweep, skip or cancel cascade).
func (p *PendingProposal) MarkExpired(now time.Time) error {
	if !p.IsPending() {
		return ErrProposalProcessed
	}
	p.Status = ProposalStatusExpired
	p.ExpiredAt = &now
	return nil
}
