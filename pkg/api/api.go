package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi"
	"github.com/rs/cors"

	"github.com/nocturne-labs/dreamscape/pkg/chat"
	"github.com/nocturne-labs/dreamscape/pkg/memory"
	"github.com/nocturne-labs/dreamscape/pkg/model"
)

// Handler exposes the chat pipeline over a small REST surface for the
// dreamscape frontend.
type Handler struct {
	logger *log.Logger
	chat   *chat.Service
}

func NewHandler(logger *log.Logger, chatService *chat.Service) *Handler {
	return &Handler{
		logger: logger,
		chat:   chatService,
	}
}

// Router wires the routes with CORS for the frontend origin.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", h.health)
	r.Post("/api/chat", h.postChat)
	r.Get("/api/knowledge", h.getKnowledge)
	r.Put("/api/knowledge", h.putKnowledge)
	r.Get("/api/memory/stats", h.getMemoryStats)
	r.Get("/api/memory/recent", h.getRecentFacts)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	SessionID string          `json:"sessionId"`
	Messages  []model.Message `json:"messages"`
}

func (h *Handler) postChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Rejecting malformed chat request", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	result := h.chat.ProcessTurn(r.Context(), req.Messages, req.SessionID)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getKnowledge(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chat.ExportKnowledge())
}

func (h *Handler) putKnowledge(w http.ResponseWriter, r *http.Request) {
	var snapshot memory.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed snapshot"})
		return
	}
	h.chat.ImportKnowledge(snapshot)
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (h *Handler) getMemoryStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chat.MemoryStats())
}

func (h *Handler) getRecentFacts(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid hours parameter"})
			return
		}
		hours = parsed
	}
	writeJSON(w, http.StatusOK, h.chat.RecentFacts(hours))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
