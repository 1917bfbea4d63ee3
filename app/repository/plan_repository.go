package repository

import (
	"time"

	"github.com/nordkorb/nordkorb/app/models"
	"gorm.io/gorm"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new recurring plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create creates a new plan (and its items) in the database
func (r *planRepository) Create(plan *models.RecurringPlan) error {
	return r.db.Create(plan).Error
}

// GetByID retrieves a plan with its items regardless of owner
func (r *planRepository) GetByID(id uint) (*models.RecurringPlan, error) {
	var plan models.RecurringPlan
	err := r.db.Preload("Items.Product").First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByIDForUser retrieves a plan scoped to its owner. A foreign plan yields
// gorm.ErrRecordNotFound, never a forbidden error.
func (r *planRepository) GetByIDForUser(id, userID uint) (*models.RecurringPlan, error) {
	var plan models.RecurringPlan
	err := r.db.Preload("Items.Product").
		Where("id = ? AND user_id = ?", id, userID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListByUser retrieves all plans belonging to a specific user
func (r *planRepository) ListByUser(userID uint) ([]models.RecurringPlan, error) {
	var plans []models.RecurringPlan
	err := r.db.Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").Find(&plans).Error
	return plans, err
}

// ListDueActive retrieves active plans whose next_due_date has arrived
func (r *planRepository) ListDueActive(dueOn time.Time) ([]models.RecurringPlan, error) {
	var plans []models.RecurringPlan
	err := r.db.Preload("Items.Product").Preload("User").
		Where("status = ? AND next_due_date <= ?", models.PlanStatusActive, dueOn).
		Find(&plans).Error
	return plans, err
}

// Save persists state machine transitions on the plan row
func (r *planRepository) Save(plan *models.RecurringPlan) error {
	return r.db.Omit("Items", "User").Save(plan).Error
}

// ReplaceItems swaps the plan's item set atomically
func (r *planRepository) ReplaceItems(planID uint, items []models.RecurringPlanItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recurring_plan_id = ?", planID).
			Delete(&models.RecurringPlanItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].RecurringPlanID = planID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}
