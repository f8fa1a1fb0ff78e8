package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/billing-core/internal/apperr"
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

func seedClient(t *testing.T, stores *store.Stores) *models.Client {
	t.Helper()
	c := &models.Client{
		Name:             "Acme Corp",
		Email:            "billing@acme.test",
		Currency:         models.CurrencyEUR,
		PaymentTermsDays: 14,
	}
	if err := stores.Clients.Create(context.Background(), c); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return c
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

func TestCreateComputesNumberAndTotals(t *testing.T) {
	stores := setupStores(t)
	svc := NewInvoiceService(stores)
	client := seedClient(t, stores)

	issue := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	inv, err := svc.Create(context.Background(), CreateInvoiceInput{
		ClientID:  client.ID,
		IssueDate: issue,
		Items: []models.LineItem{
			{Description: "Consulting", Quantity: 2, Rate: 75},
			{Description: "Hosting", Quantity: 1, Rate: 50},
		},
		TaxRate: 0.08,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if inv.Number != "INV-202508-0001" {
		t.Errorf("number = %q, want INV-202508-0001", inv.Number)
	}
	if inv.Status != models.InvoiceStatusDraft {
		t.Errorf("status = %s, want draft", inv.Status)
	}
	if !almostEqual(inv.Subtotal, 200) || !almostEqual(inv.TaxAmount, 16) || !almostEqual(inv.Total, 216) {
		t.Errorf("totals = %v/%v/%v, want 200/16/216", inv.Subtotal, inv.TaxAmount, inv.Total)
	}
	// Client defaults apply when the request leaves them out.
	if inv.Currency != models.CurrencyEUR {
		t.Errorf("currency = %s, want client default EUR", inv.Currency)
	}
	if inv.PaymentTermsDays != 14 {
		t.Errorf("terms = %d, want client default 14", inv.PaymentTermsDays)
	}
	wantDue := issue.AddDate(0, 0, 14)
	if !inv.DueDate.Equal(wantDue) {
		t.Errorf("due = %v, want %v", inv.DueDate, wantDue)
	}
}

func TestCreateNumbersSequencePerMonth(t *testing.T) {
	stores := setupStores(t)
	svc := NewInvoiceService(stores)
	client := seedClient(t, stores)

	aug := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	sep := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	items := []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}}

	for i, want := range []string{"INV-202508-0001", "INV-202508-0002"} {
		inv, err := svc.Create(context.Background(), CreateInvoiceInput{ClientID: client.ID, IssueDate: aug, Items: items})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if inv.Number != want {
			t.Fatalf("number = %q, want %q", inv.Number, want)
		}
	}
	inv, err := svc.Create(context.Background(), CreateInvoiceInput{ClientID: client.ID, IssueDate: sep, Items: items})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Number != "INV-202509-0001" {
		t.Fatalf("new month number = %q, want INV-202509-0001", inv.Number)
	}
}

func TestCreateAfterDeleteGetsFreshNumber(t *testing.T) {
	stores := setupStores(t)
	svc := NewInvoiceService(stores)
	client := seedClient(t, stores)

	aug := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	items := []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}}

	first, err := svc.Create(context.Background(), CreateInvoiceInput{ClientID: client.ID, IssueDate: aug, Items: items})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Number != "INV-202508-0001" {
		t.Fatalf("number = %q, want INV-202508-0001", first.Number)
	}
	if err := svc.Delete(context.Background(), first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// The deleted invoice keeps its number slot; the next creation must
	// move past it instead of colliding with it.
	second, err := svc.Create(context.Background(), CreateInvoiceInput{ClientID: client.ID, IssueDate: aug, Items: items})
	if err != nil {
		t.Fatalf("create after delete: %v", err)
	}
	if second.Number != "INV-202508-0002" {
		t.Fatalf("number = %q, want INV-202508-0002", second.Number)
	}

	// Deleting mid-sequence keeps later creations ahead of the live top.
	third, err := svc.Create(context.Background(), CreateInvoiceInput{ClientID: client.ID, IssueDate: aug, Items: items})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), second.ID); err != nil {
		t.Fatalf("delete mid-sequence: %v", err)
	}
	fourth, err := svc.Create(context.Background(), CreateInvoiceInput{ClientID: client.ID, IssueDate: aug, Items: items})
	if err != nil {
		t.Fatalf("create after mid-sequence delete: %v", err)
	}
	if fourth.Number != "INV-202508-0004" {
		t.Fatalf("number = %q, want INV-202508-0004 past %q", fourth.Number, third.Number)
	}
}

func TestCreateUnknownClient(t *testing.T) {
	stores := setupStores(t)
	svc := NewInvoiceService(stores)

	_, err := svc.Create(context.Background(), CreateInvoiceInput{
		ClientID: 9999,
		Items:    []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("kind = %v, want %v", apperr.KindOf(err), apperr.KindNotFound)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	stores := setupStores(t)
	svc := NewInvoiceService(stores)
	client := seedClient(t, stores)

	_, err := svc.Create(context.Background(), CreateInvoiceInput{ClientID: client.ID})
	if err == nil || !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("no items: err = %v, want validation failure", err)
	}

	_, err = svc.Create(context.Background(), CreateInvoiceInput{
		ClientID: client.ID,
		Items:    []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}},
		TaxRate:  1.2,
	})
	if err == nil || !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("bad tax rate: err = %v, want validation failure", err)
	}
}

func TestUpdateRederivesTotals(t *testing.T) {
	stores := setupStores(t)
	svc := NewInvoiceService(stores)
	client := seedClient(t, stores)

	inv, err := svc.Create(context.Background(), CreateInvoiceInput{
		ClientID: client.ID,
		Items:    []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}},
		TaxRate:  0.1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newItems := []models.LineItem{
		{Description: "Consulting", Quantity: 2, Rate: 75},
		{Description: "Hosting", Quantity: 1, Rate: 50},
	}
	rate := 0.08
	updated, err := svc.Update(context.Background(), inv.ID, UpdateInvoiceInput{
		Items:   &newItems,
		TaxRate: &rate,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !almostEqual(updated.Subtotal, 200) || !almostEqual(updated.TaxAmount, 16) || !almostEqual(updated.Total, 216) {
		t.Fatalf("totals = %v/%v/%v, want 200/16/216", updated.Subtotal, updated.TaxAmount, updated.Total)
	}
	if len(updated.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(updated.Items))
	}
	if updated.Number != inv.Number {
		t.Fatalf("number changed on update: %q -> %q", inv.Number, updated.Number)
	}
}

func TestUpdatePaidInvoiceRejected(t *testing.T) {
	stores := setupStores(t)
	svc := NewInvoiceService(stores)
	client := seedClient(t, stores)

	inv, err := svc.Create(context.Background(), CreateInvoiceInput{
		ClientID: client.ID,
		Items:    []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, s := range []models.InvoiceStatus{models.InvoiceStatusSent, models.InvoiceStatusPaid} {
		if _, err := svc.Transition(context.Background(), inv.ID, s); err != nil {
			t.Fatalf("transition to %s: %v", s, err)
		}
	}

	notes := "too late"
	_, err = svc.Update(context.Background(), inv.ID, UpdateInvoiceInput{Notes: &notes})
	if err == nil {
		t.Fatal("expected error updating paid invoice")
	}
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("kind = %v, want %v", apperr.KindOf(err), apperr.KindInvalidTransition)
	}
}

func TestDeletePaidInvoiceRejected(t *testing.T) {
	stores := setupStores(t)
	svc := NewInvoiceService(stores)
	client := seedClient(t, stores)

	inv, err := svc.Create(context.Background(), CreateInvoiceInput{
		ClientID: client.ID,
		Items:    []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, s := range []models.InvoiceStatus{models.InvoiceStatusSent, models.InvoiceStatusPaid} {
		if _, err := svc.Transition(context.Background(), inv.ID, s); err != nil {
			t.Fatalf("transition to %s: %v", s, err)
		}
	}

	err = svc.Delete(context.Background(), inv.ID)
	if err == nil {
		t.Fatal("expected error deleting paid invoice")
	}
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("kind = %v, want %v", apperr.KindOf(err), apperr.KindInvalidTransition)
	}
	if _, err := svc.Get(context.Background(), inv.ID, 0); err != nil {
		t.Fatalf("paid invoice vanished after rejected delete: %v", err)
	}

	// A draft invoice deletes fine.
	draft, err := svc.Create(context.Background(), CreateInvoiceInput{
		ClientID: client.ID,
		Items:    []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}},
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if err := svc.Delete(context.Background(), draft.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
}

func TestTransitionStampsTimestamps(t *testing.T) {
	stores := setupStores(t)
	svc := NewInvoiceService(stores)
	client := seedClient(t, stores)

	inv, err := svc.Create(context.Background(), CreateInvoiceInput{
		ClientID: client.ID,
		Items:    []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sent, err := svc.Transition(context.Background(), inv.ID, models.InvoiceStatusSent)
	if err != nil {
		t.Fatalf("to sent: %v", err)
	}
	if sent.SentAt == nil {
		t.Fatal("SentAt not stamped")
	}
	firstSentAt := *sent.SentAt

	paid, err := svc.Transition(context.Background(), inv.ID, models.InvoiceStatusPaid)
	if err != nil {
		t.Fatalf("to paid: %v", err)
	}
	if paid.PaidAt == nil {
		t.Fatal("PaidAt not stamped")
	}
	if paid.SentAt == nil || !paid.SentAt.Equal(firstSentAt) {
		t.Fatalf("SentAt moved: %v -> %v", firstSentAt, paid.SentAt)
	}

	_, err = svc.Transition(context.Background(), inv.ID, models.InvoiceStatusCancelled)
	if err == nil {
		t.Fatal("expected error for paid -> cancelled")
	}
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("kind = %v, want %v", apperr.KindOf(err), apperr.KindInvalidTransition)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	stores := setupStores(t)
	svc := NewInvoiceService(stores)
	client := seedClient(t, stores)

	inv, err := svc.Create(context.Background(), CreateInvoiceInput{
		UserID:   7,
		ClientID: client.ID,
		Items:    []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), inv.ID, 7); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	_, err = svc.Get(context.Background(), inv.ID, 8)
	if err == nil || !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("foreign get: err = %v, want not found", err)
	}
	// Unscoped reads see everything.
	if _, err := svc.Get(context.Background(), inv.ID, 0); err != nil {
		t.Fatalf("unscoped get: %v", err)
	}
}

func TestCreateFallbackNumberOnBrokenNumbering(t *testing.T) {
	stores := setupStores(t)
	client := seedClient(t, stores)

	// A store whose prefix counting fails stands in for a numbering outage;
	// everything else keeps working.
	broken := &store.Stores{
		Clients:   stores.Clients,
		Invoices:  &failingCountStore{stores.Invoices},
		Templates: stores.Templates,
	}
	svc := NewInvoiceService(broken)

	inv, err := svc.Create(context.Background(), CreateInvoiceInput{
		ClientID: client.ID,
		Items:    []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(inv.Number, "INV-") {
		t.Fatalf("fallback number %q lacks INV- prefix", inv.Number)
	}
	if strings.Count(inv.Number, "-") != 1 {
		t.Fatalf("fallback number %q should be INV-{millis}", inv.Number)
	}
}

type failingCountStore struct {
	store.InvoiceStore
}

func (s *failingCountStore) CountByNumberPrefix(context.Context, string) (int64, error) {
	return 0, fmt.Errorf("store offline")
}
