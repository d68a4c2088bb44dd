package status

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/masqueradebot/masquerade/internal/model"
	"github.com/masqueradebot/masquerade/internal/services/round"
)

// RouterConfig holds configuration for the status router
type RouterConfig struct {
	Logger          *slog.Logger
	RoundController *round.Controller
}

// roundSummary is what the status API exposes about a round. The pairs
// themselves are secret and never leave the registry through this surface.
type roundSummary struct {
	Channel      string    `json:"channel"`
	Host         string    `json:"host"`
	Participants int       `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewRouter creates the status/ops router: health, round lookup by
// conversation, and explicit round retirement by host.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(recovery(cfg.Logger))
	r.Use(logging(cfg.Logger))

	h := &handlers{controller: cfg.RoundController}

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/channels/{channel}/round", h.getRound).Methods(http.MethodGet)
	api.HandleFunc("/rounds/{host}", h.endRound).Methods(http.MethodDelete)

	return r
}

type handlers struct {
	controller *round.Controller
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) getRound(w http.ResponseWriter, r *http.Request) {
	channel, err := model.ParseChannelID(mux.Vars(r)["channel"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
		return
	}

	active, err := h.controller.ActiveRound(r.Context(), channel)
	if errors.Is(err, model.ErrRoundNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active round"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, roundSummary{
		Channel:      active.Channel.String(),
		Host:         active.Host.String(),
		Participants: len(active.Assignment),
		CreatedAt:    active.CreatedAt,
	})
}

func (h *handlers) endRound(w http.ResponseWriter, r *http.Request) {
	host, err := model.ParseParticipantID(mux.Vars(r)["host"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid host id"})
		return
	}

	if _, err := h.controller.EndRound(r.Context(), host); err != nil {
		if errors.Is(err, model.ErrRoundNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active round"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
