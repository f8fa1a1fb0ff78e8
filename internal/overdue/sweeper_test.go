package overdue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/billing-core/internal/models"
	"github.com/diewo77/billing-core/internal/store"
)

func setupStores(t *testing.T) *store.Stores {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Client{}, &models.Invoice{}, &models.LineItem{}, &models.Template{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewGormStores(db)
}

func seedInvoice(t *testing.T, stores *store.Stores, number string, status models.InvoiceStatus, due time.Time) *models.Invoice {
	t.Helper()
	ctx := context.Background()
	c := &models.Client{Name: "Client " + number, Currency: models.CurrencyUSD}
	if err := stores.Clients.Create(ctx, c); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	inv := &models.Invoice{
		Number:    number,
		ClientID:  c.ID,
		Status:    status,
		IssueDate: due.AddDate(0, 0, -30),
		DueDate:   due,
		Currency:  models.CurrencyUSD,
		Items:     []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}},
	}
	if err := stores.Invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return inv
}

func TestSweepMarksPastDueSentInvoices(t *testing.T) {
	stores := setupStores(t)
	now := time.Now()

	pastSent := seedInvoice(t, stores, "INV-202507-0001", models.InvoiceStatusSent, now.AddDate(0, 0, -5))
	pastDraft := seedInvoice(t, stores, "INV-202507-0002", models.InvoiceStatusDraft, now.AddDate(0, 0, -5))
	futureSent := seedInvoice(t, stores, "INV-202508-0001", models.InvoiceStatusSent, now.AddDate(0, 0, 5))
	pastPaid := seedInvoice(t, stores, "INV-202507-0003", models.InvoiceStatusPaid, now.AddDate(0, 0, -5))

	s := NewSweeper(stores.Invoices)
	moved, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if moved != 1 {
		t.Fatalf("moved = %d, want 1", moved)
	}

	wantStatus := map[uint]models.InvoiceStatus{
		pastSent.ID:   models.InvoiceStatusOverdue,
		pastDraft.ID:  models.InvoiceStatusDraft,
		futureSent.ID: models.InvoiceStatusSent,
		pastPaid.ID:   models.InvoiceStatusPaid,
	}
	for id, want := range wantStatus {
		got, err := stores.Invoices.FindByID(context.Background(), id)
		if err != nil {
			t.Fatalf("reload %d: %v", id, err)
		}
		if got.Status != want {
			t.Errorf("invoice %d status = %s, want %s", id, got.Status, want)
		}
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	stores := setupStores(t)
	now := time.Now()
	seedInvoice(t, stores, "INV-202507-0001", models.InvoiceStatusSent, now.AddDate(0, 0, -5))

	s := NewSweeper(stores.Invoices)
	if moved, err := s.Sweep(context.Background()); err != nil || moved != 1 {
		t.Fatalf("first sweep: moved=%d err=%v", moved, err)
	}
	if moved, err := s.Sweep(context.Background()); err != nil || moved != 0 {
		t.Fatalf("second sweep: moved=%d err=%v, want a no-op", moved, err)
	}
}
