// internal/source/stocksheet/handler.go
package stocksheet

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// CacheInvalidator drops cached snapshots so the next read refetches.
type CacheInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// Handler exposes the operational endpoints of the snapshot sync service.
type Handler struct {
	svc         *Service
	invalidator CacheInvalidator
}

func NewHandler(svc *Service, invalidator CacheInvalidator) *Handler {
	return &Handler{svc: svc, invalidator: invalidator}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sheets", h.ListSheets).Methods("GET")
	r.HandleFunc("/snapshot", h.GetSnapshot).Methods("GET")
	r.HandleFunc("/refresh", h.Refresh).Methods("POST")
}

func (h *Handler) ListSheets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sheets": h.svc.SheetNames()})
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.svc.FetchSnapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch stock snapshot")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Refresh invalidates the cached snapshot and loads a fresh one.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.invalidator != nil {
		if err := h.invalidator.InvalidateAll(r.Context()); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate stock cache")
		}
	}

	snapshot, err := h.svc.FetchSnapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to refresh stock snapshot")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"locations":  len(snapshot.Locations),
		"rows":       len(snapshot.Rows),
		"fetched_at": snapshot.FetchedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
