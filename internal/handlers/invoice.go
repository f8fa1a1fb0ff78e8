package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/diewo77/billing-core/internal/auth"
	"github.com/diewo77/billing-core/internal/dispatch"
	"github.com/diewo77/billing-core/internal/httpx"
	"github.com/diewo77/billing-core/internal/models"
	"github.com/diewo77/billing-core/internal/pdf"
	"github.com/diewo77/billing-core/internal/services"
	"github.com/diewo77/billing-core/internal/store"
)

const dateParam = "2006-01-02"

// InvoiceHandler serves the invoice lifecycle endpoints.
type InvoiceHandler struct {
	Svc       *services.InvoiceService
	Generator *pdf.Generator
	Sender    *dispatch.Sender
}

func NewInvoiceHandler(svc *services.InvoiceService, gen *pdf.Generator, sender *dispatch.Sender) *InvoiceHandler {
	return &InvoiceHandler{Svc: svc, Generator: gen, Sender: sender}
}

type itemReq struct {
	Description string  `json:"description"`
	Details     string  `json:"details"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
}

func toLineItems(items []itemReq) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.LineItem{
			Description: it.Description,
			Details:     it.Details,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
		})
	}
	return out
}

// authorize resolves the invoice under the caller's identity scope before a
// mutating operation. Invoices owned by someone else read as not found, the
// same way Get reports them.
func (h *InvoiceHandler) authorize(w http.ResponseWriter, r *http.Request, id uint) bool {
	if _, err := h.Svc.Get(r.Context(), id, auth.UserIDFromContext(r.Context())); err != nil {
		httpx.Error(w, err)
		return false
	}
	return true
}

// authorizeBatch splits ids into those the caller may act on and error
// entries for the rest, in request order.
func (h *InvoiceHandler) authorizeBatch(r *http.Request, ids []uint) (allowed []uint, denied []map[string]any) {
	uid := auth.UserIDFromContext(r.Context())
	if uid == 0 {
		return ids, nil
	}
	allowed = make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, err := h.Svc.Get(r.Context(), id, uid); err != nil {
			denied = append(denied, map[string]any{"invoice_id": id, "ok": false, "error": err.Error()})
			continue
		}
		allowed = append(allowed, id)
	}
	return allowed, denied
}

// List: GET /invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	f := store.InvoiceFilter{
		UserID: auth.UserIDFromContext(r.Context()),
		Status: models.InvoiceStatus(r.URL.Query().Get("status")),
	}
	invs, err := h.Svc.List(r.Context(), f)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": invs, "total": len(invs)})
}

// Create: POST /invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID         uint      `json:"client_id"`
		IssueDate        string    `json:"issue_date"`
		DueDate          string    `json:"due_date"`
		PaymentTermsDays *int      `json:"payment_terms_days"`
		Items            []itemReq `json:"items"`
		TaxRate          float64   `json:"tax_rate"`
		Discount         float64   `json:"discount"`
		Currency         string    `json:"currency"`
		Notes            string    `json:"notes"`
		TemplateID       *uint     `json:"template_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in := services.CreateInvoiceInput{
		UserID:           auth.UserIDFromContext(r.Context()),
		ClientID:         req.ClientID,
		PaymentTermsDays: req.PaymentTermsDays,
		Items:            toLineItems(req.Items),
		TaxRate:          req.TaxRate,
		DiscountAmount:   req.Discount,
		Currency:         models.Currency(req.Currency),
		Notes:            req.Notes,
		TemplateID:       req.TemplateID,
	}
	if req.IssueDate != "" {
		t, err := time.Parse(dateParam, req.IssueDate)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"issue_date": "expected YYYY-MM-DD"})
			return
		}
		in.IssueDate = t
	}
	if req.DueDate != "" {
		t, err := time.Parse(dateParam, req.DueDate)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"due_date": "expected YYYY-MM-DD"})
			return
		}
		in.DueDate = t
	}
	inv, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// Get: GET /invoices/get?id=...
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Get(r.Context(), id, auth.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Update: POST /invoices/update?id=...
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok || !h.authorize(w, r, id) {
		return
	}
	var req struct {
		ClientID         *uint            `json:"client_id"`
		IssueDate        *string          `json:"issue_date"`
		DueDate          *string          `json:"due_date"`
		PaymentTermsDays *int             `json:"payment_terms_days"`
		Items            *[]itemReq       `json:"items"`
		TaxRate          *float64         `json:"tax_rate"`
		Discount         *float64         `json:"discount"`
		Currency         *models.Currency `json:"currency"`
		Notes            *string          `json:"notes"`
		TemplateID       *uint            `json:"template_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in := services.UpdateInvoiceInput{
		ClientID:         req.ClientID,
		PaymentTermsDays: req.PaymentTermsDays,
		TaxRate:          req.TaxRate,
		DiscountAmount:   req.Discount,
		Currency:         req.Currency,
		Notes:            req.Notes,
		TemplateID:       req.TemplateID,
	}
	if req.IssueDate != nil {
		t, err := time.Parse(dateParam, *req.IssueDate)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"issue_date": "expected YYYY-MM-DD"})
			return
		}
		in.IssueDate = &t
	}
	if req.DueDate != nil {
		t, err := time.Parse(dateParam, *req.DueDate)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"due_date": "expected YYYY-MM-DD"})
			return
		}
		in.DueDate = &t
	}
	if req.Items != nil {
		items := toLineItems(*req.Items)
		in.Items = &items
	}
	inv, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: POST /invoices/delete?id=...
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok || !h.authorize(w, r, id) {
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Status: POST /invoices/status?id=...&status=...
func (h *InvoiceHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok || !h.authorize(w, r, id) {
		return
	}
	status := models.InvoiceStatus(r.URL.Query().Get("status"))
	if status == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_status", nil)
		return
	}
	inv, err := h.Svc.Transition(r.Context(), id, status)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// PDF: GET /invoices/pdf?id=...&template_id=...
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok || !h.authorize(w, r, id) {
		return
	}
	var templateID *uint
	if v := r.URL.Query().Get("template_id"); v != "" {
		tid, ok := parseUintParam(w, v, "template_id")
		if !ok {
			return
		}
		templateID = &tid
	}
	res, err := h.Generator.Generate(r.Context(), id, templateID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Bytes)
}

// PDFBatch: POST /invoices/pdf/batch with {"ids": [...]}
func (h *InvoiceHandler) PDFBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	allowed, out := h.authorizeBatch(r, req.IDs)
	results := h.Generator.GenerateMany(r.Context(), allowed)
	for _, res := range results {
		entry := map[string]any{"invoice_id": res.InvoiceID, "ok": res.Err == nil}
		if res.Err != nil {
			entry["error"] = res.Err.Error()
		} else {
			entry["filename"] = res.Filename
		}
		out = append(out, entry)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": out})
}

type sendReq struct {
	To        []string `json:"to"`
	CC        []string `json:"cc"`
	BCC       []string `json:"bcc"`
	Subject   string   `json:"subject"`
	Message   string   `json:"message"`
	AttachPDF *bool    `json:"attach_pdf"`
}

func (r sendReq) options() dispatch.Options {
	opts := dispatch.DefaultOptions()
	opts.To = r.To
	opts.CC = r.CC
	opts.BCC = r.BCC
	opts.Subject = r.Subject
	opts.Message = r.Message
	if r.AttachPDF != nil {
		opts.AttachPDF = *r.AttachPDF
	}
	return opts
}

// Send: POST /invoices/send?id=...
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok || !h.authorize(w, r, id) {
		return
	}
	var req sendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	receipt, err := h.Sender.SendInvoice(r.Context(), id, req.options())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}

// SendBatch: POST /invoices/send/batch with {"ids": [...], ...}
func (h *InvoiceHandler) SendBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []uint `json:"ids"`
		sendReq
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	allowed, out := h.authorizeBatch(r, req.IDs)
	results := h.Sender.SendMany(r.Context(), allowed, req.options())
	for _, res := range results {
		entry := map[string]any{"invoice_id": res.InvoiceID, "ok": res.Err == nil}
		if res.Err != nil {
			entry["error"] = res.Err.Error()
		} else {
			entry["message_id"] = res.Receipt.MessageID
		}
		out = append(out, entry)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": out})
}
