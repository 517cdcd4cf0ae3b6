package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/joshdurbin/url-mapper/internal/domain"
	"github.com/joshdurbin/url-mapper/internal/service"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler holds the HTTP handlers for the URL mapper
type Handler struct {
	mappings service.MappingService
	health   HealthChecker
	logger   zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(mappings service.MappingService, health HealthChecker, logger zerolog.Logger) *Handler {
	return &Handler{
		mappings: mappings,
		health:   health,
		logger:   logger.With().Str("component", "http").Logger(),
	}
}

// Register attaches every API route to the router
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/shorten", h.CreateURL).Methods(http.MethodPost)
	r.HandleFunc("/shorten", h.ListURLs).Methods(http.MethodGet)
	r.HandleFunc("/shorten/{code}", h.GetURL).Methods(http.MethodGet)
	r.HandleFunc("/shorten/{code}", h.UpdateURL).Methods(http.MethodPut)
	r.HandleFunc("/shorten/{code}", h.DeleteURL).Methods(http.MethodDelete)
	r.HandleFunc("/shorten/{code}/stats", h.Stats).Methods(http.MethodGet)
	r.HandleFunc("/r/{code}", h.Redirect).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
}

// CreateURL handles POST /shorten
func (h *Handler) CreateURL(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid JSON in create request")
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	record, err := h.mappings.Create(r.Context(), req.URL, req.ShortCode)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domain.NewMappingView(record))
}

// ListURLs handles GET /shorten
func (h *Handler) ListURLs(w http.ResponseWriter, r *http.Request) {
	records, err := h.mappings.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// GetURL handles GET /shorten/{code}; every successful call counts as an access
func (h *Handler) GetURL(w http.ResponseWriter, r *http.Request) {
	view, err := h.mappings.RetrieveAndCount(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// UpdateURL handles PUT /shorten/{code}
func (h *Handler) UpdateURL(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid JSON in update request")
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.mappings.Update(r.Context(), mux.Vars(r)["code"], req.URL); err != nil {
		h.writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Url updated")
}

// DeleteURL handles DELETE /shorten/{code}
func (h *Handler) DeleteURL(w http.ResponseWriter, r *http.Request) {
	if err := h.mappings.Delete(r.Context(), mux.Vars(r)["code"]); err != nil {
		h.writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Url deleted")
}

// Stats handles GET /shorten/{code}/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	record, err := h.mappings.Statistics(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// Redirect handles GET /r/{code}
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	view, err := h.mappings.RetrieveAndCount(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	http.Redirect(w, r, view.URL, http.StatusFound)
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := h.health.Ping(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("health check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// writeError maps the service error kind onto a status code
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		writeMessage(w, http.StatusBadRequest, err.Error())
	case domain.KindNotFound:
		writeMessage(w, http.StatusNotFound, "Url not found")
	case domain.KindDuplicateCode:
		writeMessage(w, http.StatusConflict, "Short code already exists")
	default:
		if errors.Is(err, context.Canceled) {
			h.logger.Debug().Err(err).Msg("request cancelled by client")
		}
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, domain.MessageResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
