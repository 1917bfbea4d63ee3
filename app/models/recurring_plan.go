package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nordkorb/nordkorb/internal/pkg/schedule"
)

const (
	PlanStatusActive    = "active"
	PlanStatusPaused    = "paused"
	PlanStatusCancelled = "cancelled"
)

var (
	// ErrPlanCancelled rejects any transition out of the terminal state.
	ErrPlanCancelled = errors.New("recurring plan is cancelled")
	// ErrPlanNotPaused rejects resume on a plan that is not paused.
	ErrPlanNotPaused = errors.New("recurring plan is not paused")
	// ErrPlanNotActive rejects skip on a plan that is not active.
	ErrPlanNotActive = errors.New("recurring plan is not active")
	// ErrPlanNeedsItems rejects item updates that would leave an active plan empty.
	ErrPlanNeedsItems = errors.New("active recurring plan needs at least one item")
)

// RecurringPlan is a customer's standing reorder definition: what to deliver,
// how often, and which stored payment method pays for it.
type RecurringPlan struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	UserID           uint                `gorm:"not null;index" json:"user_id"`
	User             User                `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Frequency        schedule.Frequency  `gorm:"type:varchar(32);not null" json:"frequency" validate:"required"`
	Status           string              `gorm:"type:varchar(32);not null;default:'active';index" json:"status" validate:"oneof=active paused cancelled"`
	NextDueDate      time.Time           `gorm:"type:date;not null;index" json:"next_due_date"`
	PausedAt         *time.Time          `gorm:"type:timestamp;default:null" json:"paused_at,omitempty"`
	CancelledAt      *time.Time          `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	PaymentMethodRef string              `gorm:"type:varchar(191);not null" json:"payment_method_ref" validate:"required"`
	Items            []RecurringPlanItem `gorm:"foreignKey:RecurringPlanID" json:"items,omitempty"`
	CreatedAt        time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt      `gorm:"index" json:"-"`
}

// RecurringPlanItem is one line template of a plan. UnitPrice is the price
// remembered at setup time; proposals re-read the live catalog price.
type RecurringPlanItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	RecurringPlanID uint            `gorm:"not null;index:ux_plan_items_plan_product,unique,priority:1" json:"recurring_plan_id"`
	ProductID       uint            `gorm:"not null;index:ux_plan_items_plan_product,unique,priority:2" json:"product_id"`
	Product         Product         `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity        int             `gorm:"not null" json:"quantity" validate:"gt=0"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *RecurringPlan) Validate() error {
	v := validator.New()

	if err := v.Struct(p); err != nil {
		return err
	}
	if !p.Frequency.Valid() {
		return errors.New("unknown frequency")
	}
	return nil
}

func (i *RecurringPlanItem) Validate() error {
	v := validator.New()

	return v.Struct(i)
}

// IsActive reports whether the plan currently produces proposals.
func (p *RecurringPlan) IsActive() bool {
	return p.Status == PlanStatusActive
}

// IsCancelled reports whether the plan reached its terminal state.
func (p *RecurringPlan) IsCancelled() bool {
	return p.Status == PlanStatusCancelled
}

// Pause moves an active plan to paused. Pausing an already paused plan is a
// no-op so double submits stay harmless.
func (p *RecurringPlan) Pause(now time.Time) error {
	switch p.Status {
	case PlanStatusCancelled:
		return ErrPlanCancelled
	case PlanStatusPaused:
		return nil
	}
	p.Status = PlanStatusPaused
	p.PausedAt = &now
	return nil
}

// Resume reactivates a paused plan and recomputes the due date under the
// given mode (asap or original_schedule).
func (p *RecurringPlan) Resume(mode schedule.ResumeMode, today time.Time) error {
	if p.Status == PlanStatusCancelled {
		return ErrPlanCancelled
	}
	if p.Status != PlanStatusPaused {
		return ErrPlanNotPaused
	}
	p.Status = PlanStatusActive
	p.PausedAt = nil
	p.NextDueDate = schedule.ResumeDate(p.NextDueDate, p.Frequency, mode, today)
	return nil
}

// Cancel moves the plan to its terminal state. Nothing transitions out of it.
func (p *RecurringPlan) Cancel(now time.Time) error {
	if p.Status == PlanStatusCancelled {
		return ErrPlanCancelled
	}
	p.Status = PlanStatusCancelled
	p.CancelledAt = &now
	return nil
}

// SkipNext advances the due date by one interval and returns the date of the
// cycle that was skipped, so the caller can expire its proposal.
func (p *RecurringPlan) SkipNext() (time.Time, error) {
	if p.Status != PlanStatusActive {
		return time.Time{}, ErrPlanNotActive
	}
	skipped := p.NextDueDate
	p.NextDueDate = schedule.Next(p.NextDueDate, p.Frequency)
	return skipped, nil
}

// ValidateItemCount enforces the active-plan invariant on item updates: an
// active plan must keep at least one line. Paused plans may run empty.
func (p *RecurringPlan) ValidateItemCount(remaining int) error {
	if p.Status == PlanStatusActive && remaining < 1 {
		return ErrPlanNeedsItems
	}
	return nil
}
