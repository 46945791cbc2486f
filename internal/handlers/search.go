package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/litscout/litscout/internal/models"
)

// HandleSearch runs the full pipeline for a seed URL: crawl, extract AI
// metadata per page, attach loan stats, and upsert each record by title.
// A failed crawl degrades to an empty result with a warning rather than
// an error status.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		URL      string `json:"url"`
		MaxPages int    `json:"max_pages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.URL == "" {
		h.writeError(w, "url is required", http.StatusBadRequest)
		return
	}

	apiKey, ok := h.requireCredential(w)
	if !ok {
		return
	}

	maxPages := request.MaxPages
	if maxPages < 1 {
		maxPages = h.maxPages
	}

	var response struct {
		Books   []*models.BookMetadata `json:"books"`
		Warning string                 `json:"warning,omitempty"`
	}
	response.Books = []*models.BookMetadata{}

	pages, err := h.crawler.Crawl(r.Context(), request.URL, maxPages)
	if err != nil {
		slog.Warn("Crawl failed", "url", request.URL, "err", err)
		response.Warning = "Crawl failed: " + err.Error()
		h.writeJSON(w, response)
		return
	}

	for _, page := range pages {
		aiMetadata := h.analysis.GenerateMetadata(r.Context(), page.Body, apiKey)
		stats := h.store.LoanStats(page.Title)

		book := &models.BookMetadata{
			PageRecord: page,
			AIMetadata: aiMetadata,
			LoanRank:   stats.Rank,
			LoanCount:  stats.Count,
			AnalyzedAt: time.Now(),
		}
		h.store.UpsertBook(book)
		response.Books = append(response.Books, book)
	}

	h.writeJSON(w, response)
}

// HandleBooks lists every book analyzed during this session
func (h *Handler) HandleBooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.store.Books())
}

// HandleCredential stores the user's model API key for this session only
func (h *Handler) HandleCredential(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.APIKey == "" {
		h.writeError(w, "api_key is required", http.StatusBadRequest)
		return
	}

	h.store.SetAPIKey(request.APIKey)
	h.writeJSON(w, map[string]string{"status": "ok"})
}
