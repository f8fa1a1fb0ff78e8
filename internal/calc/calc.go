// Package calc is the pure calculation engine for invoice totals. All
// functions are total over well-formed numeric input and never fail; stale
// cached totals are avoided by re-running Recalculate on every mutation of
// items, tax rate, or discount instead of patching values in place.
package calc

import "github.com/diewo77/billing-core/internal/models"

// Subtotal sums quantity*rate over the line items.
func Subtotal(items []models.LineItem) float64 {
	var sum float64
	for i := range items {
		sum += items[i].LineTotal()
	}
	return sum
}

// Tax computes the tax amount for a subtotal at a fractional rate.
func Tax(subtotal, rate float64) float64 {
	return subtotal * rate
}

// Total combines subtotal, tax, and discount into the amount due.
func Total(subtotal, tax, discount float64) float64 {
	return subtotal + tax - discount
}

// Recalculate re-derives Subtotal, TaxAmount, and Total on the invoice from
// its current items, tax rate, and discount.
func Recalculate(inv *models.Invoice) {
	inv.Subtotal = Subtotal(inv.Items)
	inv.TaxAmount = Tax(inv.Subtotal, inv.TaxRate)
	inv.Total = Total(inv.Subtotal, inv.TaxAmount, inv.DiscountAmount)
}
