package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/diewo77/billing-core/internal/config"
	"github.com/diewo77/billing-core/internal/models"
	"github.com/diewo77/billing-core/internal/render"
	"github.com/diewo77/billing-core/internal/store"
)

// Result is one generated document.
type Result struct {
	Bytes    []byte
	Filename string
	Size     int64
}

// BatchResult is the per-invoice outcome of GenerateMany.
type BatchResult struct {
	InvoiceID uint
	Filename  string
	Err       error
}

// Generator resolves an invoice into a rendered, paginated PDF and records
// the output path on the invoice.
type Generator struct {
	stores    *store.Stores
	engine    Engine
	business  config.BusinessProfile
	outputDir string
}

func NewGenerator(stores *store.Stores, engine Engine, business config.BusinessProfile, outputDir string) *Generator {
	return &Generator{
		stores:    stores,
		engine:    engine,
		business:  business,
		outputDir: outputDir,
	}
}

// Generate renders the invoice into a PDF. Template resolution order:
// explicit templateID, the invoice's stored template, then the default
// template. The invoice (and anything else that can fail cheaply) is
// resolved before the rendering engine is started.
func (g *Generator) Generate(ctx context.Context, invoiceID uint, templateID *uint) (*Result, error) {
	inv, err := g.stores.Invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	client := inv.Client
	if client == nil {
		client, err = g.stores.Clients.FindByID(ctx, inv.ClientID)
		if err != nil {
			return nil, err
		}
	}
	tpl, err := g.resolveTemplate(ctx, inv, templateID)
	if err != nil {
		return nil, err
	}

	html, err := render.Document(tpl, render.BuildContext(inv, client, g.business))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	bytes, err := g.engine.RenderPDF(ctx, html)
	if err != nil {
		return nil, err
	}
	log.Debugf("Rendered invoice %v (%v bytes) in %v", inv.Number, len(bytes), time.Since(start))

	// The timestamp keeps repeated generations of the same invoice from
	// colliding on disk.
	filename := fmt.Sprintf("%s-%s.pdf", inv.Number, time.Now().Format("20060102-150405"))
	if g.outputDir != "" {
		if err := g.persist(ctx, inv, filename, bytes); err != nil {
			return nil, err
		}
	}

	return &Result{
		Bytes:    bytes,
		Filename: filename,
		Size:     int64(len(bytes)),
	}, nil
}

// GenerateMany processes the invoices sequentially and collects a
// per-invoice result list; one failure never aborts the batch.
func (g *Generator) GenerateMany(ctx context.Context, invoiceIDs []uint) []BatchResult {
	results := make([]BatchResult, 0, len(invoiceIDs))
	for _, id := range invoiceIDs {
		res, err := g.Generate(ctx, id, nil)
		if err != nil {
			log.Errorf("Batch generation failed for invoice %v: %v", id, err)
			results = append(results, BatchResult{InvoiceID: id, Err: err})
			continue
		}
		results = append(results, BatchResult{InvoiceID: id, Filename: res.Filename})
	}
	return results
}

func (g *Generator) resolveTemplate(ctx context.Context, inv *models.Invoice, templateID *uint) (*models.Template, error) {
	switch {
	case templateID != nil:
		return g.stores.Templates.FindByID(ctx, *templateID)
	case inv.TemplateID != nil:
		return g.stores.Templates.FindByID(ctx, *inv.TemplateID)
	default:
		return g.stores.Templates.FindDefault(ctx)
	}
}

func (g *Generator) persist(ctx context.Context, inv *models.Invoice, filename string, bytes []byte) error {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(g.outputDir, filename)
	if err := os.WriteFile(path, bytes, 0o644); err != nil {
		return err
	}
	inv.DocumentPath = path
	return g.stores.Invoices.Update(ctx, inv)
}
