package ui

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/thep200/devfolio-sync/api"
	"github.com/thep200/devfolio-sync/cfg"
	"github.com/thep200/devfolio-sync/internal/store"
	"github.com/thep200/devfolio-sync/pkg/log"
)

// Handler manages HTTP requests for the UI
type Handler struct {
	Logger log.Logger
	Config *cfg.Config
	Store  store.Store

	// Sync, when set, exposes /api/sync for triggering runs.
	Sync *api.SyncAPI
}

// NewHandler creates a new UI handler
func NewHandler(logger log.Logger, config *cfg.Config, st store.Store) (*Handler, error) {
	return &Handler{
		Logger: logger,
		Config: config,
		Store:  st,
	}, nil
}

// Router sets up the HTTP routes
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.health)
	r.Get("/data/portfolios.json", h.getRawStore)
	r.Route("/api/portfolios", func(r chi.Router) {
		r.Get("/", h.getPortfolios)
		r.Get("/{username}", h.getPortfolio)
	})
	if h.Sync != nil {
		r.Route("/api/sync", func(r chi.Router) {
			r.Get("/", h.getSyncStats)
			r.Post("/", h.startSync)
			r.Delete("/", h.stopSync)
		})
	}

	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.Logger.Debug(r.Context(), "%s %s -> %d (%d bytes, %v)",
			r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start))
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(h, w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(h *Handler, w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error(r.Context(), "Failed to encode JSON response: %v", err)
	}
}

func writeError(h *Handler, w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(h, w, r, status, errorResponse{Error: code, Message: message})
}
