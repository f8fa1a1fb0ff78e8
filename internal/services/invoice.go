package services

import (
	"context"
	"time"

	"github.com/diewo77/billing-core/internal/apperr"
	"github.com/diewo77/billing-core/internal/calc"
	"github.com/diewo77/billing-core/internal/models"
	"github.com/diewo77/billing-core/internal/numbering"
	"github.com/diewo77/billing-core/internal/store"
)

// InvoiceService owns the invoice lifecycle: creation with numbering,
// partial updates with full recalculation, deletion, and status
// transitions. Totals are always re-derived from the persisted items;
// nothing is cached in process.
type InvoiceService struct {
	stores  *store.Stores
	numbers *numbering.Generator
}

func NewInvoiceService(stores *store.Stores) *InvoiceService {
	return &InvoiceService{
		stores:  stores,
		numbers: numbering.NewGenerator(stores.Invoices),
	}
}

// CreateInvoiceInput is the explicit creation request. Zero-valued
// optional fields fall back to the client's defaults.
type CreateInvoiceInput struct {
	UserID           uint
	ClientID         uint
	IssueDate        time.Time // zero means today
	DueDate          time.Time // zero means issue date + payment terms
	PaymentTermsDays *int      // nil means the client's default terms
	Items            []models.LineItem
	TaxRate          float64
	DiscountAmount   float64
	Currency         models.Currency // empty means the client's default
	Notes            string
	TemplateID       *uint
}

// Create assembles, numbers, computes, validates, and persists a new draft
// invoice. A numbering collision with a concurrent creation surfaces as a
// conflict error; the caller retries with a fresh request.
func (s *InvoiceService) Create(ctx context.Context, in CreateInvoiceInput) (*models.Invoice, error) {
	client, err := s.stores.Clients.FindByID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}

	terms := client.PaymentTermsDays
	if in.PaymentTermsDays != nil {
		if *in.PaymentTermsDays < 0 {
			return nil, apperr.New(apperr.KindValidation, "payment terms cannot be negative")
		}
		terms = *in.PaymentTermsDays
	}
	issue := in.IssueDate
	if issue.IsZero() {
		issue = time.Now()
	}
	due := in.DueDate
	if due.IsZero() {
		due = issue.AddDate(0, 0, terms)
	}
	currency := in.Currency
	if currency == "" {
		currency = client.Currency
	}

	number, fellBack, err := s.numbers.Next(ctx, issue)
	if err != nil {
		return nil, err
	}
	if fellBack {
		log.Warnf("Numbering store unavailable, using timestamp number %v", number)
	}

	inv := &models.Invoice{
		UserID:           in.UserID,
		Number:           number,
		ClientID:         client.ID,
		Status:           models.InvoiceStatusDraft,
		IssueDate:        issue,
		DueDate:          due,
		PaymentTermsDays: terms,
		Items:            in.Items,
		TaxRate:          in.TaxRate,
		DiscountAmount:   in.DiscountAmount,
		Currency:         currency,
		Notes:            in.Notes,
		TemplateID:       in.TemplateID,
	}
	calc.Recalculate(inv)
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if err := s.stores.Invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	log.Infof("Created invoice %v for client %v (%v)", inv.Number, client.Name, inv.Total)
	return inv, nil
}

// UpdateInvoiceInput is a partial patch; nil fields are left untouched.
// Setting Items replaces the list wholesale and triggers recalculation.
type UpdateInvoiceInput struct {
	ClientID         *uint
	IssueDate        *time.Time
	DueDate          *time.Time
	PaymentTermsDays *int
	Items            *[]models.LineItem
	TaxRate          *float64
	DiscountAmount   *float64
	Currency         *models.Currency
	Notes            *string
	TemplateID       *uint
}

// Update applies a partial patch to a non-paid invoice. Any change to
// items, tax rate, or discount re-derives all totals from scratch.
func (s *InvoiceService) Update(ctx context.Context, id uint, in UpdateInvoiceInput) (*models.Invoice, error) {
	inv, err := s.stores.Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.IsPaid() {
		return nil, apperr.New(apperr.KindInvalidTransition,
			"invoice %s is paid and can no longer be edited", inv.Number)
	}

	if in.ClientID != nil && *in.ClientID != inv.ClientID {
		if _, err := s.stores.Clients.FindByID(ctx, *in.ClientID); err != nil {
			return nil, err
		}
		inv.ClientID = *in.ClientID
		inv.Client = nil
	}
	if in.IssueDate != nil {
		inv.IssueDate = *in.IssueDate
	}
	if in.DueDate != nil {
		inv.DueDate = *in.DueDate
	}
	if in.PaymentTermsDays != nil {
		inv.PaymentTermsDays = *in.PaymentTermsDays
	}
	if in.TaxRate != nil {
		inv.TaxRate = *in.TaxRate
	}
	if in.DiscountAmount != nil {
		inv.DiscountAmount = *in.DiscountAmount
	}
	if in.Currency != nil {
		inv.Currency = *in.Currency
	}
	if in.Notes != nil {
		inv.Notes = *in.Notes
	}
	if in.TemplateID != nil {
		inv.TemplateID = in.TemplateID
	}

	replaceItems := in.Items != nil
	if replaceItems {
		inv.Items = *in.Items
	}
	calc.Recalculate(inv)
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	if replaceItems {
		// Items and the totals derived from them must land together.
		if err := s.stores.Invoices.UpdateWithItems(ctx, inv); err != nil {
			return nil, err
		}
	} else if err := s.stores.Invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return s.stores.Invoices.FindByID(ctx, inv.ID)
}

// Delete removes an invoice. Paid invoices are immutable history and
// cannot be deleted.
func (s *InvoiceService) Delete(ctx context.Context, id uint) error {
	inv, err := s.stores.Invoices.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !inv.CanDelete() {
		return apperr.New(apperr.KindInvalidTransition,
			"invoice %s is paid and cannot be deleted", inv.Number)
	}
	return s.stores.Invoices.Delete(ctx, id)
}

// Transition moves the invoice to status under the lifecycle rules,
// stamping SentAt/PaidAt exactly once.
func (s *InvoiceService) Transition(ctx context.Context, id uint, status models.InvoiceStatus) (*models.Invoice, error) {
	inv, err := s.stores.Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inv.Transition(status, time.Now()); err != nil {
		return nil, err
	}
	if err := s.stores.Invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Get fetches an invoice, enforcing ownership when userID is non-zero.
func (s *InvoiceService) Get(ctx context.Context, id, userID uint) (*models.Invoice, error) {
	inv, err := s.stores.Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != 0 && inv.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "invoice not found")
	}
	return inv, nil
}

// List returns invoices matching the filter.
func (s *InvoiceService) List(ctx context.Context, f store.InvoiceFilter) ([]models.Invoice, error) {
	return s.stores.Invoices.FindAll(ctx, f)
}
