package repository

import (
	"time"

	"github.com/nordkorb/nordkorb/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
}

// ProductRepository defines the interface for catalog lookups
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	GetByIDs(ids []uint) ([]models.Product, error)
	ListAvailable(offset, limit int) ([]models.Product, error)
	Update(product *models.Product) error
}

// PlanRepository defines the interface for recurring plan operations.
// Owner-scoped lookups return gorm.ErrRecordNotFound for foreign plans so
// unauthorized access is indistinguishable from a missing record.
type PlanRepository interface {
	Create(plan *models.RecurringPlan) error
	GetByID(id uint) (*models.RecurringPlan, error)
	GetByIDForUser(id, userID uint) (*models.RecurringPlan, error)
	ListByUser(userID uint) ([]models.RecurringPlan, error)
	ListDueActive(dueOn time.Time) ([]models.RecurringPlan, error)
	Save(plan *models.RecurringPlan) error
	ReplaceItems(planID uint, items []models.RecurringPlanItem) error
}

// ProposalRepository defines the interface for pending proposal operations
type ProposalRepository interface {
	Create(proposal *models.PendingProposal) error
	GetByID(id uint) (*models.PendingProposal, error)
	GetByUUID(uuid string) (*models.PendingProposal, error)
	HasPendingForCycle(planID uint, scheduledFor time.Time) (bool, error)
	ExpirePendingForCycle(planID uint, scheduledFor time.Time, now time.Time) (int64, error)
	ExpirePendingForPlan(planID uint, now time.Time) (int64, error)
	ExpireScheduledBefore(cutoff time.Time, now time.Time) (int64, error)
	UpdateSnapshot(proposalID uint, snapshot models.ItemsSnapshot) error
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByUUIDForUser(uuid string, userID uint) (*models.Order, error)
	GetByPaymentRef(paymentRef string) (*models.Order, error)
	ListByUser(userID uint, offset, limit int) ([]models.Order, error)
	UpdateStatus(id uint, status string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User     UserRepository
	Product  ProductRepository
	Plan     PlanRepository
	Proposal ProposalRepository
	Order    OrderRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Product:  NewProductRepository(db),
		Plan:     NewPlanRepository(db),
		Proposal: NewProposalRepository(db),
		Order:    NewOrderRepository(db),
	}
}
