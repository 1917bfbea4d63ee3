package recurring

import (
	"sync"

	"gorm.io/gorm"

	"github.com/nordkorb/nordkorb/app/repository"
	"github.com/nordkorb/nordkorb/internal/pkg/catalog"
	"github.com/nordkorb/nordkorb/internal/pkg/payment"
)

var (
	globalService *Service
	serviceOnce   sync.Once
)

// InitializeService initializes the global recurring-order service
func InitializeService(db *gorm.DB, repos *repository.Repositories, prices catalog.PriceSource, processor payment.Processor) {
	serviceOnce.Do(func() {
		globalService = NewService(db, repos, prices, processor)
	})
}

// GetGlobalService returns the global recurring-order service instance
func GetGlobalService() *Service {
	if globalService == nil {
		panic("Recurring service not initialized. Call InitializeService first.")
	}
	return globalService
}
