// Package server assembles the HTTP surface: routing, middleware, and
// health endpoints.
package server

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/billing-core/internal/auth"
	"github.com/diewo77/billing-core/internal/dispatch"
	"github.com/diewo77/billing-core/internal/handlers"
	"github.com/diewo77/billing-core/internal/httpx"
	"github.com/diewo77/billing-core/internal/pdf"
	"github.com/diewo77/billing-core/internal/services"
	"github.com/diewo77/billing-core/internal/store"
)

// Deps are the constructed collaborators the router wires to handlers.
type Deps struct {
	DB        *gorm.DB
	Stores    *store.Stores
	Invoices  *services.InvoiceService
	Templates *services.TemplateService
	Generator *pdf.Generator
	Sender    *dispatch.Sender
}

// New constructs the root http.Handler with all routes and middlewares
// applied.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := d.DB.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Client endpoints. List/Create via /clients, detail actions via
	// /clients/update & /clients/delete with ?id=.
	ch := handlers.NewClientHandler(d.Stores)
	mux.HandleFunc("/clients", listCreate(ch.List, ch.Create))
	mux.HandleFunc("/clients/get", getOnly(ch.Get))
	mux.HandleFunc("/clients/update", postOnly(ch.Update))
	mux.HandleFunc("/clients/delete", postOnly(ch.Delete))

	// Invoice endpoints
	ih := handlers.NewInvoiceHandler(d.Invoices, d.Generator, d.Sender)
	mux.HandleFunc("/invoices", listCreate(ih.List, ih.Create))
	mux.HandleFunc("/invoices/get", getOnly(ih.Get))
	mux.HandleFunc("/invoices/update", postOnly(ih.Update))
	mux.HandleFunc("/invoices/delete", postOnly(ih.Delete))
	mux.HandleFunc("/invoices/status", postOnly(ih.Status))
	mux.HandleFunc("/invoices/pdf", getOnly(ih.PDF))
	mux.HandleFunc("/invoices/pdf/batch", postOnly(ih.PDFBatch))
	mux.HandleFunc("/invoices/send", postOnly(ih.Send))
	mux.HandleFunc("/invoices/send/batch", postOnly(ih.SendBatch))

	// Template endpoints
	th := handlers.NewTemplateHandler(d.Templates)
	mux.HandleFunc("/templates", listCreate(th.List, th.Create))
	mux.HandleFunc("/templates/get", getOnly(th.Get))
	mux.HandleFunc("/templates/update", postOnly(th.Update))
	mux.HandleFunc("/templates/delete", postOnly(th.Delete))
	mux.HandleFunc("/templates/default", postOnly(th.SetDefault))

	return auth.Middleware(withRecover(withLogging(mux)))
}

func listCreate(list, create http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list(w, r)
		case http.MethodPost:
			create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	}
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		h(w, r)
	}
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		h(w, r)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugf("%v %v %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Criticalf("Panic serving %v %v: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
