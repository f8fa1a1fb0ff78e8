// Package dispatch ties invoice status transitions to document generation
// and the outbound mail transport.
package dispatch

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/diewo77/billing-core/internal/apperr"
	"github.com/diewo77/billing-core/internal/config"
	"github.com/diewo77/billing-core/internal/models"
	"github.com/diewo77/billing-core/internal/pdf"
	"github.com/diewo77/billing-core/internal/render"
	"github.com/diewo77/billing-core/internal/store"
)

// Options controls one send. An empty To defaults to the client's email.
type Options struct {
	To      []string
	CC      []string
	BCC     []string
	Subject string
	// Message is appended to the default body when set.
	Message   string
	AttachPDF bool
}

// DefaultOptions returns the options applied when the caller specifies
// nothing: attach the rendered PDF.
func DefaultOptions() Options {
	return Options{AttachPDF: true}
}

// SendResult is the per-invoice outcome of SendMany.
type SendResult struct {
	InvoiceID uint
	Receipt   *Receipt
	Err       error
}

// Generator is the document-generation collaborator Sender depends on.
type Generator interface {
	Generate(ctx context.Context, invoiceID uint, templateID *uint) (*pdf.Result, error)
}

// Sender emails rendered invoices to clients and advances their status.
type Sender struct {
	stores    *store.Stores
	generator Generator
	mailer    Mailer
	business  config.BusinessProfile
}

func NewSender(stores *store.Stores, generator Generator, mailer Mailer, business config.BusinessProfile) *Sender {
	return &Sender{
		stores:    stores,
		generator: generator,
		mailer:    mailer,
		business:  business,
	}
}

// SendInvoice emails the invoice to the requested recipients. A PDF
// generation failure degrades to sending without the attachment; a mail
// transport failure is fatal to the call. On success a draft invoice
// transitions to sent.
func (s *Sender) SendInvoice(ctx context.Context, invoiceID uint, opts Options) (*Receipt, error) {
	inv, err := s.stores.Invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	client := inv.Client
	if client == nil {
		client, err = s.stores.Clients.FindByID(ctx, inv.ClientID)
		if err != nil {
			return nil, err
		}
	}

	to := opts.To
	if len(to) == 0 && client.Email != "" {
		to = []string{client.Email}
	}
	if len(to) == 0 {
		return nil, apperr.New(apperr.KindValidation,
			"invoice %s has no recipient: client has no email and none was given", inv.Number)
	}

	subject := opts.Subject
	if subject == "" {
		subject = fmt.Sprintf("Invoice %s from %s", inv.Number, s.business.Name)
	}

	msg := &Message{
		To:      to,
		CC:      opts.CC,
		BCC:     opts.BCC,
		Subject: subject,
		Text:    textBody(inv, client, s.business, opts.Message),
		HTML:    htmlBody(inv, client, s.business, opts.Message),
	}

	if opts.AttachPDF {
		res, err := s.generator.Generate(ctx, invoiceID, nil)
		if err != nil {
			// Degraded send: the invoice still goes out, without the
			// document.
			log.Warnf("PDF attachment failed for invoice %v, sending without it: %v",
				inv.Number, err)
		} else {
			msg.Attachments = append(msg.Attachments, Attachment{
				Filename: res.Filename,
				Bytes:    res.Bytes,
			})
		}
	}

	receipt, err := s.mailer.Send(msg)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindDispatch,
			"failed to dispatch invoice %s", inv.Number)
	}
	log.Infof("Dispatched invoice %v to %v", inv.Number, strings.Join(to, ", "))

	if inv.IsDraft() {
		// Re-read before the transition; PDF generation may have updated
		// the record since our copy was loaded.
		fresh, err := s.stores.Invoices.FindByID(ctx, invoiceID)
		if err != nil {
			return receipt, err
		}
		if err := fresh.Transition(models.InvoiceStatusSent, time.Now()); err != nil {
			return receipt, err
		}
		if err := s.stores.Invoices.Update(ctx, fresh); err != nil {
			return receipt, err
		}
	}
	return receipt, nil
}

// SendMany dispatches the invoices independently, collecting per-invoice
// outcomes; one failure never short-circuits the batch.
func (s *Sender) SendMany(ctx context.Context, invoiceIDs []uint, opts Options) []SendResult {
	results := make([]SendResult, 0, len(invoiceIDs))
	for _, id := range invoiceIDs {
		receipt, err := s.SendInvoice(ctx, id, opts)
		if err != nil {
			log.Errorf("Bulk send failed for invoice %v: %v", id, err)
		}
		results = append(results, SendResult{InvoiceID: id, Receipt: receipt, Err: err})
	}
	return results
}

func textBody(inv *models.Invoice, client *models.Client, business config.BusinessProfile, custom string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", client.Name)
	fmt.Fprintf(&b, "Please find invoice %s for %s.\n\n",
		inv.Number, render.Money(inv.Total, inv.Currency))
	fmt.Fprintf(&b, "Issued: %s\n", render.Date(inv.IssueDate))
	fmt.Fprintf(&b, "Due:    %s\n", render.Date(inv.DueDate))
	if custom != "" {
		fmt.Fprintf(&b, "\n%s\n", custom)
	}
	fmt.Fprintf(&b, "\nThank you,\n%s\n", business.Name)
	return b.String()
}

func htmlBody(inv *models.Invoice, client *models.Client, business config.BusinessProfile, custom string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(client.Name))
	fmt.Fprintf(&b, "<p>Please find invoice <strong>%s</strong> for <strong>%s</strong>.</p>",
		inv.Number, render.Money(inv.Total, inv.Currency))
	fmt.Fprintf(&b, "<p>Issued: %s<br>Due: %s</p>",
		render.Date(inv.IssueDate), render.Date(inv.DueDate))
	if custom != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(custom))
	}
	fmt.Fprintf(&b, "<p>Thank you,<br>%s</p>", html.EscapeString(business.Name))
	b.WriteString("</body></html>")
	return b.String()
}
