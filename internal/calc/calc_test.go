package calc

import (
	"math"
	"testing"

	"github.com/diewo77/billing-core/internal/models"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestSubtotalTaxTotal(t *testing.T) {
	items := []models.LineItem{
		{Description: "Consulting", Quantity: 2, Rate: 75},
		{Description: "Hosting", Quantity: 1, Rate: 50},
	}

	subtotal := Subtotal(items)
	if !almostEqual(subtotal, 200) {
		t.Fatalf("subtotal = %v, want 200", subtotal)
	}
	tax := Tax(subtotal, 0.08)
	if !almostEqual(tax, 16) {
		t.Fatalf("tax = %v, want 16", tax)
	}
	total := Total(subtotal, tax, 0)
	if !almostEqual(total, 216) {
		t.Fatalf("total = %v, want 216", total)
	}
}

func TestTotalTable(t *testing.T) {
	tests := []struct {
		name                    string
		items                   []models.LineItem
		taxRate, discount, want float64
	}{
		{
			name:  "no items",
			items: nil,
			want:  0,
		},
		{
			name:  "zero tax",
			items: []models.LineItem{{Quantity: 3, Rate: 10}},
			want:  30,
		},
		{
			name:     "discount applied after tax",
			items:    []models.LineItem{{Quantity: 1, Rate: 100}},
			taxRate:  0.1,
			discount: 25,
			want:     85,
		},
		{
			name:    "fractional quantities",
			items:   []models.LineItem{{Quantity: 1.5, Rate: 99.99}, {Quantity: 0.25, Rate: 40}},
			taxRate: 0.075,
			want:    (1.5*99.99 + 0.25*40) * 1.075,
		},
		{
			name:     "discount exceeding subtotal goes negative",
			items:    []models.LineItem{{Quantity: 1, Rate: 10}},
			discount: 50,
			want:     -40,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := Subtotal(tt.items)
			got := Total(sub, Tax(sub, tt.taxRate), tt.discount)
			if !almostEqual(got, tt.want) {
				t.Fatalf("total = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecalculate(t *testing.T) {
	inv := &models.Invoice{
		Items: []models.LineItem{
			{Quantity: 2, Rate: 75},
			{Quantity: 1, Rate: 50},
		},
		TaxRate:        0.08,
		DiscountAmount: 10,
		// Stale values that must be overwritten, never patched.
		Subtotal:  999,
		TaxAmount: 999,
		Total:     999,
	}
	Recalculate(inv)
	if !almostEqual(inv.Subtotal, 200) {
		t.Errorf("Subtotal = %v, want 200", inv.Subtotal)
	}
	if !almostEqual(inv.TaxAmount, 16) {
		t.Errorf("TaxAmount = %v, want 16", inv.TaxAmount)
	}
	if !almostEqual(inv.Total, 206) {
		t.Errorf("Total = %v, want 206", inv.Total)
	}
}
