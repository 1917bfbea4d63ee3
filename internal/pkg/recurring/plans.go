package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/nordkorb/nordkorb/app/models"
	"github.com/nordkorb/nordkorb/internal/pkg/schedule"
)

// CreatePlan sets up a new recurring plan for a customer. Item prices are
// remembered from the live catalog at setup time. The first delivery falls on
// startDate; a zero startDate means one interval from today.
func (s *Service) CreatePlan(ctx context.Context, userID uint, frequency schedule.Frequency, paymentMethodRef string, startDate time.Time, items []ItemUpdate) (*models.RecurringPlan, error) {
	if !frequency.Valid() {
		return nil, ErrUnknownFrequency
	}
	if len(items) == 0 {
		return nil, models.ErrPlanNeedsItems
	}

	seen := make(map[uint]bool, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	quotes, err := s.prices.Quotes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("quoting catalog: %w", err)
	}

	plan := &models.RecurringPlan{
		UserID:           userID,
		Frequency:        frequency,
		Status:           models.PlanStatusActive,
		PaymentMethodRef: paymentMethodRef,
	}
	if startDate.IsZero() {
		plan.NextDueDate = schedule.Next(dateOnly(time.Now()), frequency)
	} else {
		plan.NextDueDate = dateOnly(startDate)
	}

	for _, item := range items {
		quote, ok := quotes[item.ProductID]
		if !ok || !quote.Orderable {
			return nil, ErrUnknownProduct
		}
		plan.Items = append(plan.Items, models.RecurringPlanItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: quote.Price,
		})
	}

	if err := s.repos.Plan.Create(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// PausePlan pauses an active plan. Already-paused plans stay untouched.
func (s *Service) PausePlan(plan *models.RecurringPlan, now time.Time) error {
	if err := plan.Pause(now); err != nil {
		return err
	}
	return s.repos.Plan.Save(plan)
}

// ResumePlan reactivates a paused plan under the given resume mode.
func (s *Service) ResumePlan(plan *models.RecurringPlan, mode schedule.ResumeMode, now time.Time) error {
	if err := plan.Resume(mode, dateOnly(now)); err != nil {
		return err
	}
	return s.repos.Plan.Save(plan)
}

// CancelPlan moves the plan to its terminal state and expires every still
// pending proposal it owns; those cycles will never be delivered.
func (s *Service) CancelPlan(plan *models.RecurringPlan, now time.Time) error {
	if err := plan.Cancel(now); err != nil {
		return err
	}
	if err := s.repos.Plan.Save(plan); err != nil {
		return err
	}
	_, err := s.repos.Proposal.ExpirePendingForPlan(plan.ID, now)
	return err
}

// SkipNextCycle advances an active plan past its next delivery and expires
// the pending proposal of the skipped cycle, if one was already generated.
func (s *Service) SkipNextCycle(plan *models.RecurringPlan, now time.Time) error {
	skipped, err := plan.SkipNext()
	if err != nil {
		return err
	}
	if err := s.repos.Plan.Save(plan); err != nil {
		return err
	}
	_, err = s.repos.Proposal.ExpirePendingForCycle(plan.ID, skipped, now)
	return err
}

// ItemUpdate is one entry of a plan item update: change a quantity, add a
// product, or remove a line via the explicit flag.
type ItemUpdate struct {
	ProductID uint
	Quantity  int
	Remove    bool
}

// UpdatePlanItems applies item updates to a plan. New lines remember the
// catalog price current at attach time. An update that would leave an active
// plan empty is rejected; paused plans may run empty.
func (s *Service) UpdatePlanItems(ctx context.Context, plan *models.RecurringPlan, updates []ItemUpdate) error {
	if plan.IsCancelled() {
		return models.ErrPlanCancelled
	}

	byProduct := make(map[uint]models.RecurringPlanItem, len(plan.Items))
	for _, item := range plan.Items {
		byProduct[item.ProductID] = item
	}

	var newProducts []uint
	for _, update := range updates {
		if update.Remove {
			delete(byProduct, update.ProductID)
			continue
		}
		if update.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if existing, ok := byProduct[update.ProductID]; ok {
			existing.Quantity = update.Quantity
			byProduct[update.ProductID] = existing
			continue
		}
		byProduct[update.ProductID] = models.RecurringPlanItem{
			RecurringPlanID: plan.ID,
			ProductID:       update.ProductID,
			Quantity:        update.Quantity,
		}
		newProducts = append(newProducts, update.ProductID)
	}

	if err := plan.ValidateItemCount(len(byProduct)); err != nil {
		return err
	}

	// Fill the remembered price for newly attached products from the live
	// catalog, explicitly, at attach time.
	if len(newProducts) > 0 {
		quotes, err := s.prices.Quotes(ctx, newProducts)
		if err != nil {
			return fmt.Errorf("quoting catalog for plan %d: %w", plan.ID, err)
		}
		for _, id := range newProducts {
			quote, ok := quotes[id]
			if !ok || !quote.Orderable {
				return ErrUnknownProduct
			}
			item := byProduct[id]
			item.UnitPrice = quote.Price
			byProduct[id] = item
		}
	}

	items := make([]models.RecurringPlanItem, 0, len(byProduct))
	for _, item := range byProduct {
		items = append(items, item)
	}
	if err := s.repos.Plan.ReplaceItems(plan.ID, items); err != nil {
		return err
	}
	plan.Items = items
	return nil
}
