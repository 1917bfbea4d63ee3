package recurring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSnapshotTotals(t *testing.T) {
	lines := []Line{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}

	snap := BuildSnapshot(lines, testQuotes(), d("4.90"), d("0.20"))

	assert.Len(t, snap.Items, 2)
	assert.Empty(t, snap.UnavailableItems)
	// 2 x 3.50 + 1 x 12.90
	assert.True(t, snap.Subtotal.Equal(d("19.90")), "subtotal was %s", snap.Subtotal)
	assert.True(t, snap.VAT.Equal(d("3.98")), "vat was %s", snap.VAT)
	assert.True(t, snap.Shipping.Equal(d("4.90")))
	assert.True(t, snap.Total.Equal(d("28.78")), "total was %s", snap.Total)
}

func TestBuildSnapshotUnavailableExcludedFromTotals(t *testing.T) {
	quotes := testQuotes()
	q := quotes[2]
	q.Orderable = false
	quotes[2] = q

	snap := BuildSnapshot([]Line{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}, quotes, d("4.90"), d("0.20"))

	assert.Len(t, snap.Items, 1)
	assert.Len(t, snap.UnavailableItems, 1)
	assert.Equal(t, uint(2), snap.UnavailableItems[0].ProductID)
	assert.Equal(t, "Kaffee", snap.UnavailableItems[0].ProductName)
	// only 2 x 3.50 counts
	assert.True(t, snap.Subtotal.Equal(d("7.00")), "subtotal was %s", snap.Subtotal)
	assert.True(t, snap.Total.Equal(d("13.30")), "total was %s", snap.Total)
}

func TestBuildSnapshotMissingQuoteKeepsName(t *testing.T) {
	snap := BuildSnapshot([]Line{
		{ProductID: 9, Quantity: 1, Name: "Eingestelltes Produkt"},
	}, testQuotes(), d("4.90"), d("0.20"))

	assert.Empty(t, snap.Items)
	assert.Len(t, snap.UnavailableItems, 1)
	assert.Equal(t, "Eingestelltes Produkt", snap.UnavailableItems[0].ProductName)
}

func TestBuildSnapshotNoOrderableItemsZeroesTotals(t *testing.T) {
	snap := BuildSnapshot([]Line{
		{ProductID: 9, Quantity: 1},
	}, testQuotes(), d("4.90"), d("0.20"))

	assert.True(t, snap.Subtotal.IsZero())
	assert.True(t, snap.VAT.IsZero())
	assert.True(t, snap.Shipping.IsZero(), "no shipping on an empty proposal")
	assert.True(t, snap.Total.IsZero())
}

func TestBuildSnapshotVATRounding(t *testing.T) {
	quotes := testQuotes()
	q := quotes[1]
	q.Price = d("3.33")
	quotes[1] = q

	snap := BuildSnapshot([]Line{{ProductID: 1, Quantity: 1}}, quotes, d("0"), d("0.20"))

	// 3.33 x 0.20 = 0.666 rounds to 0.67
	assert.True(t, snap.VAT.Equal(d("0.67")), "vat was %s", snap.VAT)
	assert.True(t, snap.Total.Equal(d("4.00")), "total was %s", snap.Total)
}
