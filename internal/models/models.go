package models

import "time"

// PageRecord holds what the crawler extracted from a single fetched page
type PageRecord struct {
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary"`
	Body          string   `json:"body"`
	Platform      string   `json:"platform"`
	ExternalLinks []string `json:"external_links"`
}

// BookMetadata is a PageRecord enriched by the analysis pipeline.
// Records are keyed by title, so two books sharing a title overwrite
// one another.
type BookMetadata struct {
	PageRecord
	AIMetadata string    `json:"ai_metadata"`
	LoanRank   int       `json:"loan_rank"`
	LoanCount  int       `json:"loan_count"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Feedback collects free-text comments for one (book, category) pair
type Feedback struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Comments []string `json:"comments"`
}

// Feedback categories offered by the UI. Submissions are not validated
// against this list.
const (
	CategoryOverall       = "overall"
	CategoryKeywords      = "keywords"
	CategoryReview        = "review"
	CategoryAdaptation    = "adaptation"
	CategoryExternalLinks = "external-links"
)

// ChatMessage is one entry in a conversation transcript
type ChatMessage struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}
