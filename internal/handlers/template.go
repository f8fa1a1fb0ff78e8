package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diewo77/billing-core/internal/httpx"
	"github.com/diewo77/billing-core/internal/models"
	"github.com/diewo77/billing-core/internal/services"
)

// TemplateHandler serves template CRUD plus the default-flag endpoint.
type TemplateHandler struct {
	Svc *services.TemplateService
}

func NewTemplateHandler(svc *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{Svc: svc}
}

// List: GET /templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	tpls, err := h.Svc.List(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": tpls, "total": len(tpls)})
}

// Create: POST /templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var t models.Template
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	t.ID = 0
	if err := h.Svc.Create(r.Context(), &t); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

// Get: GET /templates/get?id=...
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	tpl, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tpl)
}

// Update: POST /templates/update?id=...
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	current, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var patch struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		HTML        *string `json:"html"`
		CSS         *string `json:"css"`
		IsDefault   *bool   `json:"is_default"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if patch.Name != nil {
		current.Name = *patch.Name
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.HTML != nil {
		current.HTML = *patch.HTML
	}
	if patch.CSS != nil {
		current.CSS = *patch.CSS
	}
	if patch.IsDefault != nil {
		current.IsDefault = *patch.IsDefault
	}
	if err := h.Svc.Update(r.Context(), current); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, current)
}

// Delete: POST /templates/delete?id=...
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SetDefault: POST /templates/default?id=...
func (h *TemplateHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Svc.SetDefault(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}
	tpl, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tpl)
}
