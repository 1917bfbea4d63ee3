package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPaid     = "paid"
	OrderStatusRefunded = "refunded"
)

// Order is a real, charged order. Orders materialized from a proposal are
// built verbatim from the proposal's snapshot, never re-derived from the plan.
type Order struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UUID       string          `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	User       User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status     string          `gorm:"type:varchar(32);not null;default:'paid'" json:"status"`
	PaymentRef string          `gorm:"type:varchar(191)" json:"payment_ref"`
	Subtotal   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	VAT        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"vat"`
	Shipping   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"shipping"`
	Total      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

// OrderItem keeps the product name and price as sold; later catalog changes
// must not rewrite order history.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	VariantName string          `gorm:"type:varchar(255)" json:"variant_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_price"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// NewOrderFromSnapshot builds an order and its lines from a proposal
// snapshot. Unavailable items are display-only and never become order lines.
func NewOrderFromSnapshot(userID uint, paymentRef string, snap ItemsSnapshot) *Order {
	order := &Order{
		UUID:       uuid.New().String(),
		UserID:     userID,
		Status:     OrderStatusPaid,
		PaymentRef: paymentRef,
		Subtotal:   snap.Subtotal,
		VAT:        snap.VAT,
		Shipping:   snap.Shipping,
		Total:      snap.Total,
	}
	for _, item := range snap.Items {
		order.Items = append(order.Items, OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
			TotalPrice:  item.LineTotal(),
		})
	}
	return order
}
