package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Currency is an ISO 4217 currency code.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
)

// SupportedCurrency reports whether the code is one we can bill in.
func SupportedCurrency(c Currency) bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyCAD, CurrencyAUD:
		return true
	}
	return false
}

// Client represents a billable customer. Invoices keep their own copy of
// terms and currency at creation time, so editing a client never rewrites
// issued invoices.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// UserID is the owner of this client. Zero means unscoped.
	UserID uint `gorm:"index" json:"user_id,omitempty"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Company string `gorm:"size:255" json:"company,omitempty"`

	Street string `gorm:"size:255" json:"street,omitempty"`
	City   string `gorm:"size:100" json:"city,omitempty"`
	State  string `gorm:"size:100" json:"state,omitempty"`
	Zip    string `gorm:"size:20" json:"zip,omitempty"`

	TaxID string `gorm:"size:50" json:"tax_id,omitempty"`

	// PaymentTermsDays is the default net-terms window applied to new
	// invoices for this client.
	PaymentTermsDays int      `gorm:"default:30" json:"payment_terms_days"`
	Currency         Currency `gorm:"size:3;default:'USD'" json:"currency"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	Invoices []Invoice `gorm:"foreignKey:ClientID" json:"-"`
}

// GetUserID implements the Ownable interface.
func (c *Client) GetUserID() uint { return c.UserID }

// FullAddress joins the populated address parts into one display line.
func (c *Client) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.Street, c.City, c.State, c.Zip} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
