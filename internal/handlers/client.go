package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/diewo77/billing-core/internal/auth"
	"github.com/diewo77/billing-core/internal/httpx"
	"github.com/diewo77/billing-core/internal/models"
	"github.com/diewo77/billing-core/internal/store"
)

// ClientHandler serves client CRUD.
type ClientHandler struct {
	Stores *store.Stores
}

func NewClientHandler(stores *store.Stores) *ClientHandler {
	return &ClientHandler{Stores: stores}
}

// List: GET /clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	f := store.ClientFilter{UserID: auth.UserIDFromContext(r.Context())}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			f.Limit = n
		}
	}
	clients, err := h.Stores.Clients.FindAll(r.Context(), f)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": len(clients)})
}

// Create: POST /clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c models.Client
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if c.Name == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required"})
		return
	}
	if c.Currency == "" {
		c.Currency = models.CurrencyUSD
	}
	if !models.SupportedCurrency(c.Currency) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"currency": "unsupported"})
		return
	}
	if c.PaymentTermsDays < 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"payment_terms_days": "negative"})
		return
	}
	c.UserID = auth.UserIDFromContext(r.Context())
	if err := h.Stores.Clients.Create(r.Context(), &c); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

// Get: GET /clients/get?id=...
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.Stores.Clients.FindByID(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if uid := auth.UserIDFromContext(r.Context()); uid != 0 && c.UserID != uid {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Update: POST /clients/update?id=... (contact and terms fields only;
// identity fields are immutable)
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.Stores.Clients.FindByID(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if uid := auth.UserIDFromContext(r.Context()); uid != 0 && c.UserID != uid {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var patch struct {
		Email            *string          `json:"email"`
		Company          *string          `json:"company"`
		Street           *string          `json:"street"`
		City             *string          `json:"city"`
		State            *string          `json:"state"`
		Zip              *string          `json:"zip"`
		TaxID            *string          `json:"tax_id"`
		PaymentTermsDays *int             `json:"payment_terms_days"`
		Currency         *models.Currency `json:"currency"`
		Notes            *string          `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Company != nil {
		c.Company = *patch.Company
	}
	if patch.Street != nil {
		c.Street = *patch.Street
	}
	if patch.City != nil {
		c.City = *patch.City
	}
	if patch.State != nil {
		c.State = *patch.State
	}
	if patch.Zip != nil {
		c.Zip = *patch.Zip
	}
	if patch.TaxID != nil {
		c.TaxID = *patch.TaxID
	}
	if patch.PaymentTermsDays != nil {
		if *patch.PaymentTermsDays < 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"payment_terms_days": "negative"})
			return
		}
		c.PaymentTermsDays = *patch.PaymentTermsDays
	}
	if patch.Currency != nil {
		if !models.SupportedCurrency(*patch.Currency) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"currency": "unsupported"})
			return
		}
		c.Currency = *patch.Currency
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
	if err := h.Stores.Clients.Update(r.Context(), c); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Delete: POST /clients/delete?id=...
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.Stores.Clients.FindByID(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if uid := auth.UserIDFromContext(r.Context()); uid != 0 && c.UserID != uid {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err := h.Stores.Clients.Delete(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// idParam parses the id query parameter shared by the detail endpoints.
func idParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	idStr := r.URL.Query().Get("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(id), true
}

func parseUintParam(w http.ResponseWriter, v, name string) (uint, bool) {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil || n == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_"+name, nil)
		return 0, false
	}
	return uint(n), true
}
