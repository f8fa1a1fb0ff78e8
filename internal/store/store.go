// Package store defines the per-entity repository contracts the business
// logic depends on, plus their gorm-backed implementation. All reads hit
// the database; computed totals are never cached in process.
package store

import (
	"context"
	"time"

	"github.com/diewo77/billing-core/internal/models"
	"gorm.io/gorm"
)

// ClientFilter narrows FindAll results. Zero values mean "any".
type ClientFilter struct {
	UserID uint
	Limit  int
	Offset int
}

// InvoiceFilter narrows FindAll results. Zero values mean "any".
type InvoiceFilter struct {
	UserID   uint
	ClientID uint
	Status   models.InvoiceStatus
	Limit    int
	Offset   int
}

// ClientStore is the storage contract for clients.
type ClientStore interface {
	FindAll(ctx context.Context, f ClientFilter) ([]models.Client, error)
	FindByID(ctx context.Context, id uint) (*models.Client, error)
	Create(ctx context.Context, c *models.Client) error
	Update(ctx context.Context, c *models.Client) error
	// Delete fails with a conflict while any invoice references the client.
	Delete(ctx context.Context, id uint) error
}

// InvoiceStore is the storage contract for invoices and their items.
type InvoiceStore interface {
	FindAll(ctx context.Context, f InvoiceFilter) ([]models.Invoice, error)
	FindByID(ctx context.Context, id uint) (*models.Invoice, error)
	// Create fails with a conflict when the invoice number is already
	// taken (store-level uniqueness backs the numbering service).
	Create(ctx context.Context, inv *models.Invoice) error
	Update(ctx context.Context, inv *models.Invoice) error
	// UpdateWithItems persists the invoice row and swaps its line items
	// wholesale in a single transaction, so stored totals and items cannot
	// diverge when one half fails.
	UpdateWithItems(ctx context.Context, inv *models.Invoice) error
	Delete(ctx context.Context, id uint) error
	// CountByNumberPrefix counts invoices whose number starts with prefix,
	// soft-deleted ones included: deleted invoices keep occupying the
	// unique index on number, so their slots stay counted.
	CountByNumberPrefix(ctx context.Context, prefix string) (int64, error)
	// FindDueBefore lists sent invoices whose due date precedes t.
	FindDueBefore(ctx context.Context, t time.Time) ([]models.Invoice, error)
}

// TemplateStore is the storage contract for document templates.
type TemplateStore interface {
	FindAll(ctx context.Context) ([]models.Template, error)
	FindByID(ctx context.Context, id uint) (*models.Template, error)
	// FindDefault returns the template flagged as default.
	FindDefault(ctx context.Context) (*models.Template, error)
	Create(ctx context.Context, t *models.Template) error
	Update(ctx context.Context, t *models.Template) error
	// SetDefault flags id as the default template and clears the flag on
	// every other template in the same transaction.
	SetDefault(ctx context.Context, id uint) error
	// Delete fails with a conflict while any invoice references the
	// template or while it is the sole template.
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// Stores bundles the per-entity repositories behind one injection point.
type Stores struct {
	Clients   ClientStore
	Invoices  InvoiceStore
	Templates TemplateStore
}

// NewGormStores returns gorm-backed implementations of all store contracts.
func NewGormStores(db *gorm.DB) *Stores {
	return &Stores{
		Clients:   &gormClientStore{db: db},
		Invoices:  &gormInvoiceStore{db: db},
		Templates: &gormTemplateStore{db: db},
	}
}
