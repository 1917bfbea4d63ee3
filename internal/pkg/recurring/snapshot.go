package recurring

import (
	"github.com/shopspring/decimal"

	"github.com/nordkorb/nordkorb/app/models"
	"github.com/nordkorb/nordkorb/internal/pkg/catalog"
)

// Line is one desired proposal line: product plus quantity. Prices always
// come from the live catalog, never from the caller.
type Line struct {
	ProductID uint
	Quantity  int
	Name      string // display fallback when the catalog has no quote
}

// BuildSnapshot freezes lines into an ItemsSnapshot using the given quotes.
// Orderable products become priced items; everything else lands in
// UnavailableItems so the customer sees what dropped out, and totals only
// cover orderable lines. VAT is applied at the fixed rate on the subtotal.
func BuildSnapshot(lines []Line, quotes map[uint]catalog.Quote, shipping, vatRate decimal.Decimal) models.ItemsSnapshot {
	snap := models.ItemsSnapshot{
		Subtotal: decimal.Zero,
		VAT:      decimal.Zero,
		Shipping: decimal.Zero,
		Total:    decimal.Zero,
	}

	for _, line := range lines {
		quote, ok := quotes[line.ProductID]
		item := models.SnapshotItem{
			ProductID:   line.ProductID,
			ProductName: quote.Name,
			VariantName: quote.VariantName,
			Quantity:    line.Quantity,
			Price:       quote.Price,
			Available:   ok && quote.Orderable,
		}
		if item.ProductName == "" {
			item.ProductName = line.Name
		}
		if !item.Available {
			snap.UnavailableItems = append(snap.UnavailableItems, item)
			continue
		}
		snap.Items = append(snap.Items, item)
		snap.Subtotal = snap.Subtotal.Add(item.LineTotal())
	}

	if len(snap.Items) > 0 {
		snap.VAT = snap.Subtotal.Mul(vatRate).Round(2)
		snap.Shipping = shipping
		snap.Total = snap.Subtotal.Add(snap.VAT).Add(snap.Shipping)
	}

	return snap
}

// linesFromPlan maps plan item templates to snapshot lines.
func linesFromPlan(items []models.RecurringPlanItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Name:      item.Product.Name,
		})
	}
	return lines
}

// productIDs collects the distinct product ids of the given lines.
func productIDs(lines []Line) []uint {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	return ids
}
