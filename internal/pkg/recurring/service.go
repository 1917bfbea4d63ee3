package recurring

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nordkorb/nordkorb/app/repository"
	"github.com/nordkorb/nordkorb/internal/pkg/catalog"
	"github.com/nordkorb/nordkorb/internal/pkg/env"
	"github.com/nordkorb/nordkorb/internal/pkg/payment"
)

// Service is the recurring-order engine: it turns due plans into pending
// proposals, applies customer edits, and materializes confirmed proposals
// into paid orders.
type Service struct {
	db        *gorm.DB
	repos     *repository.Repositories
	prices    catalog.PriceSource
	processor payment.Processor

	shipping decimal.Decimal
	vatRate  decimal.Decimal
	currency string
	secret   string
	baseURL  string
}

// NewService wires the engine. Shipping fee, VAT rate and currency come from
// the environment so ops can adjust them without a deploy.
func NewService(db *gorm.DB, repos *repository.Repositories, prices catalog.PriceSource, processor payment.Processor) *Service {
	shipping, err := decimal.NewFromString(env.GetEnv("SHOP_SHIPPING_FEE", "4.90"))
	if err != nil {
		shipping = decimal.RequireFromString("4.90")
	}
	vat, err := decimal.NewFromString(env.GetEnv("SHOP_VAT_RATE", "0.20"))
	if err != nil {
		vat = decimal.RequireFromString("0.20")
	}

	return &Service{
		db:        db,
		repos:     repos,
		prices:    prices,
		processor: processor,
		shipping:  shipping,
		vatRate:   vat,
		currency:  env.GetEnv("SHOP_CURRENCY", "EUR"),
		secret:    env.GetEnv("APP_SECRET", ""),
		baseURL:   env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"),
	}
}
