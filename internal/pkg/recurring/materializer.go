package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nordkorb/nordkorb/app/models"
	"github.com/nordkorb/nordkorb/internal/pkg/payment"
)

// txStore is the slice of persistence the materializer touches inside the
// confirm transaction.
type txStore interface {
	CreateOrder(order *models.Order) error
	SaveProposal(proposal *models.PendingProposal) error
}

type gormTxStore struct {
	tx *gorm.DB
}

func (s gormTxStore) CreateOrder(order *models.Order) error {
	return s.tx.Create(order).Error
}

func (s gormTxStore) SaveProposal(proposal *models.PendingProposal) error {
	return s.tx.Omit("RecurringPlan", "Order").Save(proposal).Error
}

// ConfirmProposal materializes a pending proposal into a paid order, at most
// once. The proposal row is locked for the duration of the transaction, so a
// concurrent confirm blocks, re-reads a terminal status and never reaches the
// payment processor. A failed or declined charge rolls everything back and
// leaves the proposal pending for a retry with the same token.
func (s *Service) ConfirmProposal(ctx context.Context, proposalID uint) (*models.Order, error) {
	var order *models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var proposal models.PendingProposal
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&proposal, proposalID).Error; err != nil {
			return err
		}
		var plan models.RecurringPlan
		if err := tx.First(&plan, proposal.RecurringPlanID).Error; err != nil {
			return err
		}

		o, err := s.materialize(ctx, gormTxStore{tx: tx}, &proposal, &plan)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyOrderConfirmed(order)
	return order, nil
}

// materialize runs the ordered confirm steps: terminal-state check, charge,
// order creation from the snapshot, proposal transition. The terminal check
// happens before the charge, never after.
func (s *Service) materialize(ctx context.Context, store txStore, proposal *models.PendingProposal, plan *models.RecurringPlan) (*models.Order, error) {
	if proposal.IsTerminal() {
		return nil, models.ErrProposalProcessed
	}

	snap := proposal.ItemsSnapshot
	if len(snap.Items) == 0 {
		return nil, ErrNoOrderableItems
	}

	result, err := s.processor.Charge(ctx, payment.ChargeRequest{
		PaymentMethodRef: plan.PaymentMethodRef,
		Amount:           snap.Total,
		Currency:         s.currency,
		IdempotencyKey:   fmt.Sprintf("proposal-%s-confirm", proposal.UUID),
		Description:      fmt.Sprintf("NordKorb Vorratsbestellung %s", proposal.ScheduledFor.Format("2006-01-02")),
	})
	if err != nil {
		return nil, err
	}

	// The order is built from the snapshot the customer agreed to, not from
	// the plan's current items.
	order := models.NewOrderFromSnapshot(plan.UserID, result.TransactionID, snap)
	if err := store.CreateOrder(order); err != nil {
		// The charge went through but no order exists. The rollback cannot
		// undo the charge; flag the transaction id for manual reconciliation.
		log.Errorf("RECONCILE: charge %s for proposal %d succeeded but order persistence failed: %v",
			result.TransactionID, proposal.ID, err)
		return nil, fmt.Errorf("order persistence failed after charge %s: %w", result.TransactionID, err)
	}

	if err := proposal.MarkConfirmed(order.ID, time.Now()); err != nil {
		return nil, err
	}
	if err := store.SaveProposal(proposal); err != nil {
		log.Errorf("RECONCILE: charge %s for proposal %d succeeded but status update failed: %v",
			result.TransactionID, proposal.ID, err)
		return nil, fmt.Errorf("proposal update failed after charge %s: %w", result.TransactionID, err)
	}

	return order, nil
}
