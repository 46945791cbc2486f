package storage

import (
	"sync"

	"github.com/litscout/litscout/internal/loanstats"
	"github.com/litscout/litscout/internal/models"
)

type feedbackKey struct {
	title    string
	category string
}

// SessionStore holds all mutable state for one running instance: analyzed
// books, feedback, chat transcripts, memoized loan stats, and the user's
// API credential. Nothing survives process exit.
type SessionStore struct {
	mu sync.RWMutex

	books     map[string]*models.BookMetadata
	order     []string // titles in upsert order; last entry is the latest book
	feedback  map[feedbackKey]*models.Feedback
	fbOrder   []feedbackKey
	query     []models.ChatMessage
	chat      []models.ChatMessage
	loanStats map[string]loanstats.Stats
	loans     loanstats.Provider
	apiKey    string
}

// New creates an empty session store backed by the given loan stats provider
func New(loans loanstats.Provider) *SessionStore {
	return &SessionStore{
		books:     make(map[string]*models.BookMetadata),
		feedback:  make(map[feedbackKey]*models.Feedback),
		loanStats: make(map[string]loanstats.Stats),
		loans:     loans,
	}
}

// UpsertBook stores a book record keyed by title. An existing record under
// the same title is overwritten entirely and the title moves to the end of
// the insertion order.
func (s *SessionStore) UpsertBook(book *models.BookMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.books[book.Title]; exists {
		for i, t := range s.order {
			if t == book.Title {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.books[book.Title] = book
	s.order = append(s.order, book.Title)
}

// Books returns all stored book records in upsert order
func (s *SessionStore) Books() []*models.BookMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.BookMetadata, 0, len(s.order))
	for _, title := range s.order {
		result = append(result, s.books[title])
	}
	return result
}

// LatestBook returns the most recently upserted book record
func (s *SessionStore) LatestBook() (*models.BookMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil, false
	}
	return s.books[s.order[len(s.order)-1]], true
}

// LoanStats returns loan stats for a title, consulting the provider on
// first access and the memoized value afterwards
func (s *SessionStore) LoanStats(title string) loanstats.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stats, ok := s.loanStats[title]; ok {
		return stats
	}
	stats := s.loans.StatsFor(title)
	s.loanStats[title] = stats
	return stats
}

// AddFeedback appends a comment under the (title, category) pair
func (s *SessionStore) AddFeedback(title, category, comment string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := feedbackKey{title: title, category: category}
	entry, ok := s.feedback[key]
	if !ok {
		entry = &models.Feedback{Title: title, Category: category}
		s.feedback[key] = entry
		s.fbOrder = append(s.fbOrder, key)
	}
	entry.Comments = append(entry.Comments, comment)
}

// FeedbackReport returns all feedback entries in first-submission order
func (s *SessionStore) FeedbackReport() []models.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Feedback, 0, len(s.fbOrder))
	for _, key := range s.fbOrder {
		entry := s.feedback[key]
		comments := make([]string, len(entry.Comments))
		copy(comments, entry.Comments)
		result = append(result, models.Feedback{
			Title:    entry.Title,
			Category: entry.Category,
			Comments: comments,
		})
	}
	return result
}

// AppendQueryMessage appends one entry to the query-tab transcript
func (s *SessionStore) AppendQueryMessage(role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = append(s.query, models.ChatMessage{Role: role, Text: text})
}

// AppendChatMessage appends one entry to the chat-tab transcript
func (s *SessionStore) AppendChatMessage(role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, models.ChatMessage{Role: role, Text: text})
}

// Transcripts returns copies of the query and chat transcripts
func (s *SessionStore) Transcripts() (query, chat []models.ChatMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = make([]models.ChatMessage, len(s.query))
	copy(query, s.query)
	chat = make([]models.ChatMessage, len(s.chat))
	copy(chat, s.chat)
	return query, chat
}

// SetAPIKey stores the user-supplied model credential in memory only
func (s *SessionStore) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// APIKey returns the stored model credential, empty when none was entered
func (s *SessionStore) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}
