// Package api provides HTTP handlers for the randomchat status API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/srt/randomchat/internal/bot"
	"github.com/srt/randomchat/internal/match"
)

// Handler serves the status and diagnostic endpoints.
type Handler struct {
	engine *match.Engine
	bot    *bot.Service
}

// NewHandler creates a status API handler.
func NewHandler(engine *match.Engine, botSvc *bot.Service) *Handler {
	return &Handler{engine: engine, bot: botSvc}
}

// RegisterRoutes mounts the status endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.Health)
	r.Get("/api/info", h.Info)
	r.Get("/api/ai-test", h.AITest)
}

// Health reports process liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info reports matchmaking counters.
func (h *Handler) Info(w http.ResponseWriter, _ *http.Request) {
	stats := h.engine.GetStats()
	JSON(w, http.StatusOK, map[string]any{
		"app":         "randomchat",
		"registered":  stats.Registered,
		"waiting":     stats.Waiting,
		"activeRooms": stats.ActiveRooms,
	})
}

// AITest probes the generation backend with a throwaway prompt. Development
// aid for verifying backend connectivity.
func (h *Handler) AITest(w http.ResponseWriter, r *http.Request) {
	reply, err := h.bot.Probe(r.Context())
	if err != nil {
		if errors.Is(err, bot.ErrUnavailable) {
			Error(w, http.StatusServiceUnavailable, "bot disabled or cooling down")
			return
		}
		Error(w, http.StatusBadGateway, "generation backend unreachable")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
