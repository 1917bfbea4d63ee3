package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. The recurring engine only reads the current
// price and the orderable flag; catalog management itself lives elsewhere.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SKU         string          `gorm:"type:varchar(64);uniqueIndex" json:"sku" validate:"required,max=64"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=2,max=255"`
	VariantName string          `gorm:"type:varchar(255)" json:"variant_name" validate:"max=255"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	IsAvailable bool            `gorm:"default:true;index" json:"is_available"`
	ViewCount   int64           `gorm:"default:0" json:"view_count"`
	OrderCount  int64           `gorm:"default:0" json:"order_count"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (p *Product) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// Orderable reports whether the product can go into a new order right now.
func (p *Product) Orderable() bool {
	return p.IsAvailable && !p.Price.IsNegative()
}
