package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nordkorb/nordkorb/app/models"
)

// Quote is the current catalog answer for one product: live price and
// whether it can go into an order right now.
type Quote struct {
	ProductID   uint
	Name        string
	VariantName string
	Price       decimal.Decimal
	Orderable   bool
}

// PriceSource answers price/availability questions for the recurring engine.
type PriceSource interface {
	Quotes(ctx context.Context, productIDs []uint) (map[uint]Quote, error)
}

type gormSource struct {
	db *gorm.DB
}

// NewGormSource creates a PriceSource over the storefront's products table.
func NewGormSource(db *gorm.DB) PriceSource {
	return &gormSource{db: db}
}

// Quotes returns current quotes keyed by product id. Soft-deleted products
// are included so their names stay displayable, but they never quote as
// orderable. IDs with no row at all are simply absent from the result.
func (s *gormSource) Quotes(ctx context.Context, productIDs []uint) (map[uint]Quote, error) {
	quotes := make(map[uint]Quote, len(productIDs))
	if len(productIDs) == 0 {
		return quotes, nil
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Unscoped().
		Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, err
	}

	for _, p := range products {
		quotes[p.ID] = Quote{
			ProductID:   p.ID,
			Name:        p.Name,
			VariantName: p.VariantName,
			Price:       p.Price,
			Orderable:   !p.DeletedAt.Valid && p.Orderable(),
		}
	}
	return quotes, nil
}
