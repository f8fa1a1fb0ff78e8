// Package numbering generates human-readable, per-period sequential invoice
// numbers. Generation is a read-then-format over the invoice store and is
// not transactionally safe against concurrent creation in the same period;
// the store's unique index on the number is what turns that race into a
// conflict error the caller can see and retry.
package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/billing-core/internal/store"
)

// Prefix is the leading tag on every generated number.
const Prefix = "INV"

type Generator struct {
	invoices store.InvoiceStore
}

func NewGenerator(invoices store.InvoiceStore) *Generator {
	return &Generator{invoices: invoices}
}

// PeriodPrefix formats the period part for a calendar month, e.g.
// "INV-202508-" for August 2025.
func PeriodPrefix(period time.Time) string {
	return fmt.Sprintf("%s-%d%02d-", Prefix, period.Year(), int(period.Month()))
}

// Next returns the next invoice number for the calendar month of period,
// formatted INV-YYYYMM-NNNN where NNNN is the count of invoices ever issued
// in that period plus one. Deleted invoices keep their slot, so a number is
// never reissued.
//
// When the store is unavailable the generator falls back to a
// timestamp-derived identifier (INV-{epochMillis}) so that invoice creation
// never blocks on numbering; fellBack reports that this happened so the
// caller can log it. Duplicate numbers produced by a same-period race are
// not detected here; they surface as a conflict on create.
func (g *Generator) Next(ctx context.Context, period time.Time) (number string, fellBack bool, err error) {
	prefix := PeriodPrefix(period)
	count, err := g.invoices.CountByNumberPrefix(ctx, prefix)
	if err != nil {
		return fmt.Sprintf("%s-%d", Prefix, time.Now().UnixMilli()), true, nil
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), false, nil
}
