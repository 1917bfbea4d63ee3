package repository

import (
	"time"

	"github.com/nordkorb/nordkorb/app/models"
	"gorm.io/gorm"
)

// proposalRepository implements the ProposalRepository interface
type proposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository creates a new pending proposal repository instance
func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

// Create creates a new pending proposal. The unique index on
// (recurring_plan_id, scheduled_for) rejects a duplicate cycle.
func (r *proposalRepository) Create(proposal *models.PendingProposal) error {
	return r.db.Create(proposal).Error
}

// GetByID retrieves a proposal with its plan
func (r *proposalRepository) GetByID(id uint) (*models.PendingProposal, error) {
	var proposal models.PendingProposal
	err := r.db.Preload("RecurringPlan").First(&proposal, id).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// GetByUUID retrieves a proposal by its public identifier
func (r *proposalRepository) GetByUUID(uuid string) (*models.PendingProposal, error) {
	var proposal models.PendingProposal
	err := r.db.Preload("RecurringPlan").Where("uuid = ?", uuid).First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// HasPendingForCycle reports whether a pending proposal already exists for
// the given plan cycle
func (r *proposalRepository) HasPendingForCycle(planID uint, scheduledFor time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.PendingProposal{}).
		Where("recurring_plan_id = ? AND scheduled_for = ? AND status = ?",
			planID, scheduledFor, models.ProposalStatusPending).
		Count(&count).Error
	return count > 0, err
}

// ExpirePendingForCycle expires the pending proposal tied to a skipped cycle
func (r *proposalRepository) ExpirePendingForCycle(planID uint, scheduledFor time.Time, now time.Time) (int64, error) {
	res := r.db.Model(&models.PendingProposal{}).
		Where("recurring_plan_id = ? AND scheduled_for = ? AND status = ?",
			planID, scheduledFor, models.ProposalStatusPending).
		Updates(map[string]any{
			"status":     models.ProposalStatusExpired,
			"expired_at": now,
		})
	return res.RowsAffected, res.Error
}

// ExpirePendingForPlan expires every pending proposal of a cancelled plan
func (r *proposalRepository) ExpirePendingForPlan(planID uint, now time.Time) (int64, error) {
	res := r.db.Model(&models.PendingProposal{}).
		Where("recurring_plan_id = ? AND status = ?", planID, models.ProposalStatusPending).
		Updates(map[string]any{
			"status":     models.ProposalStatusExpired,
			"expired_at": now,
		})
	return res.RowsAffected, res.Error
}

// ExpireScheduledBefore is the age-based sweep over stale pending proposals
func (r *proposalRepository) ExpireScheduledBefore(cutoff time.Time, now time.Time) (int64, error) {
	res := r.db.Model(&models.PendingProposal{}).
		Where("status = ? AND scheduled_for < ?", models.ProposalStatusPending, cutoff).
		Updates(map[string]any{
			"status":     models.ProposalStatusExpired,
			"expired_at": now,
		})
	return res.RowsAffected, res.Error
}

// UpdateSnapshot atomically replaces the items snapshot of a proposal.
// The status guard in the WHERE clause keeps an edit racing a concurrent
// confirm or expiry from rewriting a terminal proposal.
func (r *proposalRepository) UpdateSnapshot(proposalID uint, snapshot models.ItemsSnapshot) error {
	res := r.db.Model(&models.PendingProposal{}).
		Where("id = ? AND status = ?", proposalID, models.ProposalStatusPending).
		Update("items_snapshot", snapshot)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrProposalProcessed
	}
	return nil
}
