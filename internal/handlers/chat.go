package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/litscout/litscout/internal/models"
)

// HandleQuery answers an in-depth question grounded on the most recently
// analyzed book. Without a book the interaction is refused; the user is told
// to search first. Provider failures abort this one interaction.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Question == "" {
		h.writeError(w, "question is required", http.StatusBadRequest)
		return
	}

	apiKey, ok := h.requireCredential(w)
	if !ok {
		return
	}

	latest, ok := h.store.LatestBook()
	if !ok {
		h.writeError(w, "Search for a book first", http.StatusConflict)
		return
	}

	answer, err := h.analysis.AnswerQuery(r.Context(), latest.AIMetadata, request.Question, apiKey)
	if err != nil {
		h.writeError(w, "Model invocation failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	h.store.AppendQueryMessage("user", request.Question)
	h.store.AppendQueryMessage("assistant", answer)

	h.writeJSON(w, map[string]string{"answer": answer})
}

// HandleChat responds to free-form discussion. It proceeds with or without
// an analyzed book; at most the first 200 characters of the latest book's
// metadata condition the reply.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Message == "" {
		h.writeError(w, "message is required", http.StatusBadRequest)
		return
	}

	apiKey, ok := h.requireCredential(w)
	if !ok {
		return
	}

	metadata := ""
	if latest, ok := h.store.LatestBook(); ok {
		metadata = latest.AIMetadata
	}

	reply, err := h.analysis.Discuss(r.Context(), metadata, request.Message, apiKey)
	if err != nil {
		h.writeError(w, "Model invocation failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	h.store.AppendChatMessage("user", request.Message)
	h.store.AppendChatMessage("assistant", reply)

	h.writeJSON(w, map[string]string{"reply": reply})
}

// HandleTranscripts returns both conversation transcripts
func (h *Handler) HandleTranscripts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query, chat := h.store.Transcripts()
	h.writeJSON(w, map[string][]models.ChatMessage{
		"query": query,
		"chat":  chat,
	})
}
