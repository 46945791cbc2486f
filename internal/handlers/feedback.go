package handlers

import (
	"encoding/json"
	"net/http"
)

// HandleFeedback appends one free-text comment under a (title, category) pair
func (h *Handler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Title    string `json:"title"`
		Category string `json:"category"`
		Comment  string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Title == "" || request.Category == "" || request.Comment == "" {
		h.writeError(w, "title, category and comment are required", http.StatusBadRequest)
		return
	}

	h.store.AddFeedback(request.Title, request.Category, request.Comment)
	h.writeJSON(w, map[string]string{"status": "ok"})
}

// HandleFeedbackReport renders comment counts per (title, category) pair
func (h *Handler) HandleFeedbackReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type reportEntry struct {
		Title    string   `json:"title"`
		Category string   `json:"category"`
		Count    int      `json:"count"`
		Comments []string `json:"comments"`
	}

	entries := h.store.FeedbackReport()
	report := make([]reportEntry, 0, len(entries))
	for _, entry := range entries {
		report = append(report, reportEntry{
			Title:    entry.Title,
			Category: entry.Category,
			Count:    len(entry.Comments),
			Comments: entry.Comments,
		})
	}
	h.writeJSON(w, report)
}
