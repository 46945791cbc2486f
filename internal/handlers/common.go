package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/litscout/litscout/internal/analysis"
	"github.com/litscout/litscout/internal/crawler"
	"github.com/litscout/litscout/internal/storage"
)

type Handler struct {
	store    *storage.SessionStore
	crawler  *crawler.Crawler
	analysis *analysis.Service
	provider string
	maxPages int
}

func New(store *storage.SessionStore, c *crawler.Crawler, svc *analysis.Service, provider string, maxPages int) *Handler {
	if maxPages < 1 {
		maxPages = crawler.DefaultMaxPages
	}
	return &Handler{
		store:    store,
		crawler:  c,
		analysis: svc,
		provider: provider,
		maxPages: maxPages,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Credential helpers. Gemini needs a key from either the session sidebar or
// the environment; Ollama runs locally and OpenAI reads its own env var.
func (h *Handler) credential() string {
	return h.store.APIKey()
}

func (h *Handler) requireCredential(w http.ResponseWriter) (string, bool) {
	key := h.credential()
	if h.provider != "gemini" {
		return key, true
	}
	if key == "" && os.Getenv("GEMINI_API_KEY") == "" {
		h.writeError(w, "Enter your Gemini API key first", http.StatusUnauthorized)
		return "", false
	}
	return key, true
}
