package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/posture_node/internal/report"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

type webHandlers struct {
	mon    *Monitor
	logger *slog.Logger
}

// NewRouter serves the monitor's JSON API and live websocket stream.
func NewRouter(mon *Monitor, hub *Hub, logger *slog.Logger) *mux.Router {
	h := &webHandlers{mon: mon, logger: logger}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/latest", h.latest).Methods(http.MethodGet)
	api.HandleFunc("/readings", h.readings).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	if hub != nil {
		r.Handle("/ws", hub)
	}
	return r
}

func (h *webHandlers) latest(w http.ResponseWriter, r *http.Request) {
	reading, ok := h.mon.Latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, reading)
}

func (h *webHandlers) readings(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	history, err := h.mon.store.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("history query failed", "err", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []report.Reading{}
	}
	h.writeJSON(w, history)
}

func (h *webHandlers) healthz(w http.ResponseWriter, r *http.Request) {
	_, ok := h.mon.Latest()
	h.writeJSON(w, map[string]any{
		"status":       "ok",
		"have_reading": ok,
		"data_enabled": h.mon.DataEnabled(),
	})
}

func (h *webHandlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("json encode failed", "err", err)
	}
}
