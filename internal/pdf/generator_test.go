package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/billing-core/internal/apperr"
	"github.com/diewo77/billing-core/internal/config"
	"github.com/diewo77/billing-core/internal/models"
	"github.com/diewo77/billing-core/internal/store"
)

// stubEngine records whether it ran and serves canned output.
type stubEngine struct {
	calls int
	out   []byte
	err   error
}

func (e *stubEngine) RenderPDF(_ context.Context, _ string) ([]byte, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.out, nil
}

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

func seedInvoice(t *testing.T, stores *store.Stores, number string) *models.Invoice {
	t.Helper()
	ctx := context.Background()
	c := &models.Client{Name: "Acme Corp", Currency: models.CurrencyUSD}
	if err := stores.Clients.Create(ctx, c); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	tpl := &models.Template{Name: "Classic-" + number, HTML: "<h1>{{invoice.number}}</h1>", IsDefault: true}
	if err := stores.Templates.Create(ctx, tpl); err != nil {
		t.Fatalf("seed template: %v", err)
	}
	issue := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{
		Number:    number,
		ClientID:  c.ID,
		Status:    models.InvoiceStatusDraft,
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 30),
		Currency:  models.CurrencyUSD,
		Items:     []models.LineItem{{Description: "Work", Quantity: 1, Rate: 100}},
	}
	if err := stores.Invoices.Create(ctx, inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return inv
}

func TestGenerateWritesDocument(t *testing.T) {
	stores := setupStores(t)
	inv := seedInvoice(t, stores, "INV-202508-0001")
	engine := &stubEngine{out: []byte("%PDF-1.7 stub")}
	outDir := t.TempDir()
	g := NewGenerator(stores, engine, config.BusinessProfile{Name: "My Studio"}, outDir)

	res, err := g.Generate(context.Background(), inv.ID, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if engine.calls != 1 {
		t.Fatalf("engine calls = %d, want 1", engine.calls)
	}
	if !strings.HasPrefix(res.Filename, "INV-202508-0001-") || !strings.HasSuffix(res.Filename, ".pdf") {
		t.Fatalf("filename = %q, want number prefix and .pdf suffix", res.Filename)
	}
	if res.Size != int64(len(engine.out)) {
		t.Fatalf("size = %d, want %d", res.Size, len(engine.out))
	}
	written, err := os.ReadFile(filepath.Join(outDir, res.Filename))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(written) != "%PDF-1.7 stub" {
		t.Fatalf("wrong bytes on disk: %q", written)
	}

	stored, err := stores.Invoices.FindByID(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.DocumentPath != filepath.Join(outDir, res.Filename) {
		t.Fatalf("DocumentPath = %q", stored.DocumentPath)
	}
}

func TestGenerateMissingInvoiceSkipsEngine(t *testing.T) {
	stores := setupStores(t)
	engine := &stubEngine{out: []byte("unused")}
	g := NewGenerator(stores, engine, config.BusinessProfile{}, "")

	_, err := g.Generate(context.Background(), 9999, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("kind = %v, want %v", apperr.KindOf(err), apperr.KindNotFound)
	}
	if engine.calls != 0 {
		t.Fatalf("engine started %d time(s) for a missing invoice", engine.calls)
	}
}

func TestGenerateExplicitTemplateWins(t *testing.T) {
	stores := setupStores(t)
	inv := seedInvoice(t, stores, "INV-202508-0001")
	other := &models.Template{Name: "Plain", HTML: "PLAIN {{invoice.number}}"}
	if err := stores.Templates.Create(context.Background(), other); err != nil {
		t.Fatalf("create template: %v", err)
	}

	// The engine echoes its input so the chosen template is observable.
	var gotHTML string
	echo := engineFunc(func(_ context.Context, html string) ([]byte, error) {
		gotHTML = html
		return []byte("ok"), nil
	})
	g := NewGenerator(stores, echo, config.BusinessProfile{}, "")

	if _, err := g.Generate(context.Background(), inv.ID, &other.ID); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(gotHTML, "PLAIN ") {
		t.Fatalf("rendered with wrong template: %q", gotHTML)
	}
}

type engineFunc func(ctx context.Context, html string) ([]byte, error)

func (f engineFunc) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	return f(ctx, html)
}

func TestGenerateManyCollectsFailures(t *testing.T) {
	stores := setupStores(t)
	a := seedInvoice(t, stores, "INV-202508-0001")
	engine := &stubEngine{out: []byte("ok")}
	g := NewGenerator(stores, engine, config.BusinessProfile{}, "")

	results := g.GenerateMany(context.Background(), []uint{a.ID, 9999})
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("first result failed: %v", results[0].Err)
	}
	if results[0].Filename == "" {
		t.Fatal("first result has no filename")
	}
	if results[1].Err == nil {
		t.Fatal("missing invoice should fail its slot")
	}
	if !apperr.Is(results[1].Err, apperr.KindNotFound) {
		t.Fatalf("kind = %v, want %v", apperr.KindOf(results[1].Err), apperr.KindNotFound)
	}
}

func TestGenerateEngineFailurePropagates(t *testing.T) {
	stores := setupStores(t)
	inv := seedInvoice(t, stores, "INV-202508-0001")
	engine := &stubEngine{err: apperr.New(apperr.KindRender, "rendering engine timed out")}
	g := NewGenerator(stores, engine, config.BusinessProfile{}, "")

	_, err := g.Generate(context.Background(), inv.ID, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperr.Is(err, apperr.KindRender) {
		t.Fatalf("kind = %v, want %v", apperr.KindOf(err), apperr.KindRender)
	}
}
