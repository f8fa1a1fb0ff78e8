package models

import (
	"time"

	"github.com/diewo77/billing-core/internal/apperr"
	"gorm.io/gorm"
)

// InvoiceStatus represents the position of an invoice in its lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// transitions is the allowed state graph. Paid is terminal. Overdue can
// still be settled or written off.
var transitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:     {InvoiceStatusSent},
	InvoiceStatusSent:      {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue:   {InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusPaid:      {},
	InvoiceStatusCancelled: {},
}

// CanTransition reports whether from -> to is an allowed transition.
// Re-entering the current status is always allowed (a no-op).
func CanTransition(from, to InvoiceStatus) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Invoice represents a numbered billing invoice and its computed totals.
// Totals are always re-derived from the items by calc.Recalculate; they are
// never patched incrementally.
type Invoice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// UserID is the owner of this invoice. Zero means unscoped.
	UserID uint `gorm:"index" json:"user_id,omitempty"`

	// Number is assigned once at creation and never changes.
	Number string `gorm:"size:50;uniqueIndex;not null" json:"number"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Status InvoiceStatus `gorm:"size:20;default:'draft'" json:"status"`

	IssueDate        time.Time `gorm:"not null" json:"issue_date"`
	DueDate          time.Time `gorm:"not null" json:"due_date"`
	PaymentTermsDays int       `json:"payment_terms_days"`

	Items []LineItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`

	// Monetary fields. TaxRate is a fraction in [0,1].
	Subtotal       float64  `gorm:"type:decimal(12,2)" json:"subtotal"`
	TaxRate        float64  `gorm:"type:decimal(5,4)" json:"tax_rate"`
	TaxAmount      float64  `gorm:"type:decimal(12,2)" json:"tax_amount"`
	DiscountAmount float64  `gorm:"type:decimal(12,2)" json:"discount_amount"`
	Total          float64  `gorm:"type:decimal(12,2)" json:"total"`
	Currency       Currency `gorm:"size:3;default:'USD'" json:"currency"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	// TemplateID selects the document template; nil falls back to the
	// default template at generation time.
	TemplateID *uint     `gorm:"index" json:"template_id,omitempty"`
	Template   *Template `gorm:"foreignKey:TemplateID" json:"-"`

	// DocumentPath is where the last generated PDF was persisted.
	DocumentPath string `gorm:"size:500" json:"document_path,omitempty"`

	SentAt *time.Time `json:"sent_at,omitempty"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

// GetUserID implements the Ownable interface.
func (i *Invoice) GetUserID() uint { return i.UserID }

// IsDraft returns true if the invoice is still editable as a draft.
func (i *Invoice) IsDraft() bool { return i.Status == InvoiceStatusDraft }

// IsPaid returns true once the invoice has been settled.
func (i *Invoice) IsPaid() bool { return i.Status == InvoiceStatusPaid }

// CanDelete reports whether the invoice may be deleted. Paid invoices are
// immutable history.
func (i *Invoice) CanDelete() bool { return i.Status != InvoiceStatusPaid }

// Transition moves the invoice to status, applying the entry side effects
// exactly once: entering sent stamps SentAt, entering paid stamps PaidAt.
// Re-entering the current status leaves the timestamps untouched.
func (i *Invoice) Transition(status InvoiceStatus, now time.Time) error {
	if !CanTransition(i.Status, status) {
		return apperr.New(apperr.KindInvalidTransition,
			"invoice %s cannot move from %s to %s", i.Number, i.Status, status)
	}
	if i.Status == status {
		return nil
	}
	i.Status = status
	switch status {
	case InvoiceStatusSent:
		if i.SentAt == nil {
			t := now
			i.SentAt = &t
		}
	case InvoiceStatusPaid:
		if i.PaidAt == nil {
			t := now
			i.PaidAt = &t
		}
	}
	return nil
}

// Validate checks the invariants that do not depend on other records.
func (i *Invoice) Validate() error {
	if i.ClientID == 0 {
		return apperr.New(apperr.KindValidation, "client_id is required")
	}
	if len(i.Items) == 0 {
		return apperr.New(apperr.KindValidation, "invoice requires at least one line item")
	}
	if i.DueDate.Before(i.IssueDate) {
		return apperr.New(apperr.KindValidation, "due date precedes issue date")
	}
	if i.TaxRate < 0 || i.TaxRate > 1 {
		return apperr.New(apperr.KindValidation, "tax rate must be within [0,1]")
	}
	if i.DiscountAmount < 0 {
		return apperr.New(apperr.KindValidation, "discount cannot be negative")
	}
	if !SupportedCurrency(i.Currency) {
		return apperr.New(apperr.KindValidation, "unsupported currency %q", i.Currency)
	}
	for idx := range i.Items {
		if err := i.Items[idx].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LineItem is one billable row on an invoice. Items have no identity of
// their own; an update replaces the whole list.
type LineItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	InvoiceID uint `gorm:"index;not null" json:"invoice_id"`

	Description string  `gorm:"size:500;not null" json:"description"`
	Details     string  `gorm:"type:text" json:"details,omitempty"`
	Quantity    float64 `gorm:"type:decimal(10,3);not null" json:"quantity"`
	Rate        float64 `gorm:"type:decimal(10,2);not null" json:"rate"`

	// Position preserves the authored order.
	Position int `gorm:"default:0" json:"position"`
}

// LineTotal calculates the line total.
func (li *LineItem) LineTotal() float64 {
	return li.Quantity * li.Rate
}

// Validate checks the per-item invariants.
func (li *LineItem) Validate() error {
	if li.Description == "" {
		return apperr.New(apperr.KindValidation, "line item description is required")
	}
	if li.Quantity <= 0 {
		return apperr.New(apperr.KindValidation, "line item quantity must be positive")
	}
	if li.Rate <= 0 {
		return apperr.New(apperr.KindValidation, "line item rate must be positive")
	}
	return nil
}
