package render

import (
	"fmt"
	"strconv"
	"time"

	"github.com/diewo77/billing-core/internal/config"
	"github.com/diewo77/billing-core/internal/models"
)

const dateLayout = "January 2, 2006"

// Money formats an amount to two decimals with a currency glyph prefix:
// a literal $ for USD, the currency code otherwise.
func Money(amount float64, currency models.Currency) string {
	if currency == models.CurrencyUSD {
		return fmt.Sprintf("$%.2f", amount)
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}

// Quantity formats a quantity without trailing zeros (2, 1.5, 0.25).
func Quantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// Percent formats a fractional rate as a percentage ("8%", "7.5%").
func Percent(rate float64) string {
	return strconv.FormatFloat(rate*100, 'f', -1, 64) + "%"
}

// Date formats a date in the document locale format.
func Date(t time.Time) string {
	return t.Format(dateLayout)
}

// BuildContext assembles the render context for one invoice. Template
// authors may reference any of these paths; monetary values arrive
// pre-formatted so templates never do arithmetic.
func BuildContext(inv *models.Invoice, client *models.Client, business config.BusinessProfile) map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(inv.Items))
	for i := range inv.Items {
		it := &inv.Items[i]
		items = append(items, map[string]interface{}{
			"description": it.Description,
			"details":     it.Details,
			"quantity":    Quantity(it.Quantity),
			"rate":        Money(it.Rate, inv.Currency),
			"total":       Money(it.LineTotal(), inv.Currency),
		})
	}

	ctx := map[string]interface{}{
		"business": map[string]interface{}{
			"name":    business.Name,
			"email":   business.Email,
			"address": business.Address,
		},
		"invoice": map[string]interface{}{
			"number":       inv.Number,
			"status":       string(inv.Status),
			"issueDate":    Date(inv.IssueDate),
			"dueDate":      Date(inv.DueDate),
			"paymentTerms": inv.PaymentTermsDays,
			"notes":        inv.Notes,
			"items":        items,
			"subtotal":     Money(inv.Subtotal, inv.Currency),
			"taxRate":      Percent(inv.TaxRate),
			"tax":          Money(inv.TaxAmount, inv.Currency),
			"discount":     Money(inv.DiscountAmount, inv.Currency),
			"hasDiscount":  inv.DiscountAmount > 0,
			"total":        Money(inv.Total, inv.Currency),
			"currency":     string(inv.Currency),
		},
	}

	if client != nil {
		ctx["client"] = map[string]interface{}{
			"name":    client.Name,
			"email":   client.Email,
			"company": client.Company,
			"taxId":   client.TaxID,
			"address": map[string]interface{}{
				"street": client.Street,
				"city":   client.City,
				"state":  client.State,
				"zip":    client.Zip,
			},
		}
	}
	return ctx
}
