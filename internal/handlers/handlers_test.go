package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/litscout/litscout/internal/analysis"
	"github.com/litscout/litscout/internal/crawler"
	"github.com/litscout/litscout/internal/loanstats"
	"github.com/litscout/litscout/internal/models"
	"github.com/litscout/litscout/internal/providers"
	"github.com/litscout/litscout/internal/storage"
)

type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) GenerateText(ctx context.Context, config providers.Config) (string, error) {
	return f.response, f.err
}

func newTestHandler(fake *fakeProvider) (*Handler, *storage.SessionStore) {
	store := storage.New(loanstats.NewSeeded())
	store.SetAPIKey("test-key")
	svc := analysis.NewService(fake, "test-model", 0)
	return New(store, crawler.New(), svc, "gemini", 1), store
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestSearchPipeline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head>
<title>The Vegetarian</title>
<meta name="description" content="A story of loss.">
</head><body><p>Body text about a woman who stops eating meat.</p></body></html>`))
	}))
	defer ts.Close()

	fake := &fakeProvider{response: "Characters: Yeong-hye. Era: contemporary Seoul."}
	h, store := newTestHandler(fake)

	rec := postJSON(t, h.HandleSearch, "/api/search", `{"url":"`+ts.URL+`/book/42"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		Books   []models.BookMetadata `json:"books"`
		Warning string                `json:"warning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Warning != "" {
		t.Fatalf("unexpected warning %q", response.Warning)
	}
	if len(response.Books) != 1 {
		t.Fatalf("expected 1 book, got %d", len(response.Books))
	}

	book := response.Books[0]
	if book.Title != "The Vegetarian" {
		t.Errorf("unexpected title %q", book.Title)
	}
	if book.Summary != "A story of loss." {
		t.Errorf("unexpected summary %q", book.Summary)
	}
	if book.AIMetadata != fake.response {
		t.Errorf("unexpected ai metadata %q", book.AIMetadata)
	}
	if book.LoanRank < 1 || book.LoanRank > 50 || book.LoanCount < 1 || book.LoanCount > 300 {
		t.Errorf("loan stats out of range: %d, %d", book.LoanRank, book.LoanCount)
	}

	latest, ok := store.LatestBook()
	if !ok || latest.Title != "The Vegetarian" {
		t.Error("expected book stored as latest")
	}
}

func TestSearchBrokenModelKeepsPipelineAlive(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>t</title></head><body><p>text</p></body></html>"))
	}))
	defer ts.Close()

	h, store := newTestHandler(&fakeProvider{err: errors.New("model down")})

	rec := postJSON(t, h.HandleSearch, "/api/search", `{"url":"`+ts.URL+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite model failure, got %d", rec.Code)
	}

	latest, ok := store.LatestBook()
	if !ok {
		t.Fatal("expected record stored despite model failure")
	}
	if !strings.HasPrefix(latest.AIMetadata, analysis.MetadataErrorPrefix) {
		t.Errorf("expected error string in ai_metadata, got %q", latest.AIMetadata)
	}
}

func TestSearchCrawlFailureDegrades(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	h, store := newTestHandler(&fakeProvider{response: "unused"})

	rec := postJSON(t, h.HandleSearch, "/api/search", `{"url":"`+ts.URL+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with warning, got %d", rec.Code)
	}

	var response struct {
		Books   []models.BookMetadata `json:"books"`
		Warning string                `json:"warning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if len(response.Books) != 0 {
		t.Errorf("expected empty result set, got %d books", len(response.Books))
	}
	if response.Warning == "" {
		t.Error("expected a user-visible warning")
	}
	if _, ok := store.LatestBook(); ok {
		t.Error("failed crawl should store nothing")
	}
}

func TestSearchRequiresCredential(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	store := storage.New(loanstats.NewSeeded())
	svc := analysis.NewService(&fakeProvider{}, "m", 0)
	h := New(store, crawler.New(), svc, "gemini", 1)

	rec := postJSON(t, h.HandleSearch, "/api/search", `{"url":"https://example.com/book"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credential, got %d", rec.Code)
	}
}

func TestQueryRequiresBook(t *testing.T) {
	h, _ := newTestHandler(&fakeProvider{response: "answer"})

	rec := postJSON(t, h.HandleQuery, "/api/query", `{"question":"who is the lead?"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 before any search, got %d", rec.Code)
	}
}

func TestQueryAppendsTranscript(t *testing.T) {
	h, store := newTestHandler(&fakeProvider{response: "the lead is Yeong-hye"})
	store.UpsertBook(&models.BookMetadata{
		PageRecord: models.PageRecord{Title: "The Vegetarian"},
		AIMetadata: "Characters: Yeong-hye",
	})

	rec := postJSON(t, h.HandleQuery, "/api/query", `{"question":"who is the lead?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	query, _ := store.Transcripts()
	if len(query) != 2 {
		t.Fatalf("expected user+assistant entries, got %d", len(query))
	}
	if query[0].Role != "user" || query[1].Role != "assistant" {
		t.Errorf("transcript out of order: %+v", query)
	}
}

func TestQueryModelFailureAbortsInteraction(t *testing.T) {
	h, store := newTestHandler(&fakeProvider{err: errors.New("model down")})
	store.UpsertBook(&models.BookMetadata{
		PageRecord: models.PageRecord{Title: "T"},
		AIMetadata: "meta",
	})
	store.AppendQueryMessage("user", "earlier question")

	rec := postJSON(t, h.HandleQuery, "/api/query", `{"question":"q"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	// Prior transcript entries stay intact; the failed turn adds nothing
	query, _ := store.Transcripts()
	if len(query) != 1 || query[0].Text != "earlier question" {
		t.Errorf("transcript should be unchanged, got %+v", query)
	}
}

func TestChatProceedsWithoutBook(t *testing.T) {
	h, store := newTestHandler(&fakeProvider{response: "let's talk books"})

	rec := postJSON(t, h.HandleChat, "/api/chat", `{"message":"I loved this novel"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with empty context, got %d", rec.Code)
	}

	_, chat := store.Transcripts()
	if len(chat) != 2 {
		t.Fatalf("expected user+assistant entries, got %d", len(chat))
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	h, _ := newTestHandler(&fakeProvider{})

	for _, comment := range []string{"too vague", "missing the film adaptation"} {
		rec := postJSON(t, h.HandleFeedback, "/api/feedback",
			`{"title":"The Vegetarian","category":"adaptation","comment":"`+comment+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("feedback post failed: %d", rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/feedback/report", nil)
	rec := httptest.NewRecorder()
	h.HandleFeedbackReport(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("report failed: %d", rec.Code)
	}

	var report []struct {
		Title    string   `json:"title"`
		Category string   `json:"category"`
		Count    int      `json:"count"`
		Comments []string `json:"comments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if len(report) != 1 {
		t.Fatalf("expected one (title, category) entry, got %d", len(report))
	}
	entry := report[0]
	if entry.Count != 2 || entry.Comments[0] != "too vague" {
		t.Errorf("unexpected report entry %+v", entry)
	}
}

func TestFeedbackRejectsMissingFields(t *testing.T) {
	h, _ := newTestHandler(&fakeProvider{})

	rec := postJSON(t, h.HandleFeedback, "/api/feedback", `{"title":"T"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCredentialEndpoint(t *testing.T) {
	store := storage.New(loanstats.NewSeeded())
	svc := analysis.NewService(&fakeProvider{}, "m", 0)
	h := New(store, crawler.New(), svc, "gemini", 1)

	rec := postJSON(t, h.HandleCredential, "/api/credential", `{"api_key":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.APIKey() != "secret" {
		t.Error("credential not stored")
	}

	rec = postJSON(t, h.HandleCredential, "/api/credential", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty key, got %d", rec.Code)
	}
}
