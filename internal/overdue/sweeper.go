// Package overdue periodically moves sent invoices past their due date to
// the overdue status.
package overdue

import (
	"context"
	"time"

	"github.com/robfig/cron"

	"github.com/diewo77/billing-core/internal/models"
	"github.com/diewo77/billing-core/internal/store"
)

type Sweeper struct {
	invoices store.InvoiceStore
	cron     *cron.Cron
}

func NewSweeper(invoices store.InvoiceStore) *Sweeper {
	return &Sweeper{invoices: invoices}
}

// Sweep transitions every sent invoice whose due date has passed to
// overdue, returning how many were moved. Failures on one invoice do not
// stop the sweep.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := time.Now()
	due, err := s.invoices.FindDueBefore(ctx, now)
	if err != nil {
		return 0, err
	}
	var moved int
	for i := range due {
		inv := &due[i]
		if err := inv.Transition(models.InvoiceStatusOverdue, now); err != nil {
			log.Errorf("Sweep: invoice %v: %v", inv.Number, err)
			continue
		}
		if err := s.invoices.Update(ctx, inv); err != nil {
			log.Errorf("Sweep: update invoice %v: %v", inv.Number, err)
			continue
		}
		moved++
	}
	if moved > 0 {
		log.Infof("Marked %v invoice(s) overdue", moved)
	}
	return moved, nil
}

// Start schedules recurring sweeps. The schedule is a cron spec such as
// "@hourly".
func (s *Sweeper) Start(schedule string) error {
	c := cron.New()
	err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			log.Errorf("Sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	log.Infof("Overdue sweeper running (%v)", schedule)
	return nil
}

// Stop halts the recurring sweeps.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
