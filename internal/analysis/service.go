package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/litscout/litscout/internal/providers"
)

const (
	// MetadataErrorPrefix marks an AI metadata field that holds a provider
	// error message instead of real output
	MetadataErrorPrefix = "AI metadata generation error: "

	// excerpt caps before prompting
	metadataExcerptMax = 1500
	chatContextMax     = 200
)

// Service builds prompts and calls the configured LLM provider
type Service struct {
	provider    providers.Provider
	model       string
	temperature float64
}

// NewService creates an analysis service backed by the given provider
func NewService(provider providers.Provider, model string, temperature float64) *Service {
	return &Service{
		provider:    provider,
		model:       model,
		temperature: temperature,
	}
}

// GenerateMetadata asks the model for structured literary metadata about the
// given page body. Provider failures do not abort the pipeline: the returned
// string then carries the error message behind MetadataErrorPrefix so the
// record completes with a visibly broken field.
func (s *Service) GenerateMetadata(ctx context.Context, body, apiKey string) string {
	prompt := fmt.Sprintf(`Analyze the following book content and extract information for each item below.
- Characters / main figures
- Main events and conflicts
- Era and setting
- Emotional elements (love-hate, loneliness, longing, etc.)
- Adaptations (film, drama, webtoon; include platform names)
- Short review
- External links (if any)

[Book content]
%s`, truncate(body, metadataExcerptMax))

	text, err := s.generate(ctx, prompt, apiKey)
	if err != nil {
		slog.Warn("Metadata generation failed", "err", err)
		return MetadataErrorPrefix + err.Error()
	}
	return text
}

// AnswerQuery answers a question about a book using its full AI metadata as
// context. Provider failures propagate to the caller.
func (s *Service) AnswerQuery(ctx context.Context, metadata, question, apiKey string) (string, error) {
	prompt := fmt.Sprintf(`Answer the question below using the book metadata and content as reference.
Include direct quotes from the book in your answer where possible.
[Book metadata]
%s
[Question]
%s`, metadata, question)

	return s.generate(ctx, prompt, apiKey)
}

// Discuss responds to a free-form remark on the chat tab. The latest book's
// metadata, when present, conditions the reply lightly: only its first 200
// characters are included.
func (s *Service) Discuss(ctx context.Context, metadata, message, apiKey string) (string, error) {
	bookContext := ""
	if metadata != "" {
		bookContext = "Reference book keywords: " + truncate(metadata, chatContextMax) + "\n"
	}
	prompt := fmt.Sprintf(`A reader left this remark or question: %s
%sRespond with open literary discussion, shared feelings, and a range of perspectives.`, message, bookContext)

	return s.generate(ctx, prompt, apiKey)
}

func (s *Service) generate(ctx context.Context, prompt, apiKey string) (string, error) {
	return s.provider.GenerateText(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		Prompt:      prompt,
		APIKey:      apiKey,
	})
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
