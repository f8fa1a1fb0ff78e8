package models

import "time"

// Template is a document skeleton (HTML + CSS) an invoice is rendered with.
// At most one template holds IsDefault at any time; the store enforces the
// swap transactionally.
type Template struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:500" json:"description,omitempty"`

	// HTML is the handlebars-style skeleton; CSS is injected into it
	// unescaped through the {{{styles}}} placeholder.
	HTML string `gorm:"type:text;not null" json:"html"`
	CSS  string `gorm:"type:text" json:"css,omitempty"`

	IsDefault bool `gorm:"default:false;index" json:"is_default"`
}
