package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"

	"github.com/litscout/litscout/internal/models"
)

const (
	// DefaultMaxPages keeps the crawl to the seed page only
	DefaultMaxPages = 1

	fetchTimeout = 5 * time.Second
	sizeCap      = 2 << 20 // 2MB per page

	titlePlaceholder = "Untitled"
	summaryMax       = 500
	bodyMax          = 2000

	// Pages shorter than this are used as-is; longer ones go through
	// readability to strip navigation and boilerplate first.
	readabilityThreshold = 4000
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Crawler fetches book pages starting from a user-supplied seed URL
type Crawler struct {
	client    *http.Client
	userAgent string
}

// New returns a Crawler with the fixed short fetch deadline
func New() *Crawler {
	return &Crawler{
		client: &http.Client{
			Timeout: fetchTimeout,
		},
		userAgent: "litscout/1.0",
	}
}

// Crawl performs a breadth-first traversal from seedURL, visiting at most
// maxPages distinct URLs and following only links whose absolute form starts
// with the seed URL string. Any retrieval or parse failure aborts the whole
// crawl; callers get no partial results.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, maxPages int) ([]models.PageRecord, error) {
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}

	seed, err := url.Parse(seedURL)
	if err != nil || seed.Scheme == "" || seed.Host == "" {
		return nil, fmt.Errorf("invalid seed url %q", seedURL)
	}

	var records []models.PageRecord
	visited := make(map[string]bool)
	queue := []string{seedURL}

	for len(queue) > 0 && len(visited) < maxPages {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}

		page, links, err := c.fetchPage(ctx, current, seed)
		if err != nil {
			return nil, fmt.Errorf("crawl aborted at %s: %w", current, err)
		}
		visited[current] = true
		records = append(records, page)

		for _, link := range links {
			if strings.HasPrefix(link, seedURL) && !visited[link] && !queued(queue, link) {
				queue = append(queue, link)
			}
		}
	}

	slog.Info("Crawl finished", "seed", seedURL, "pages", len(records))
	return records, nil
}

func (c *Crawler) fetchPage(ctx context.Context, pageURL string, seed *url.URL) (models.PageRecord, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return models.PageRecord{}, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.PageRecord{}, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return models.PageRecord{}, nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, sizeCap))
	if err != nil {
		return models.PageRecord{}, nil, err
	}

	// Book platforms still serve EUC-KR and friends; decode before parsing
	utf8data, err := decodeToUTF8(data, resp.Header.Get("Content-Type"))
	if err != nil {
		return models.PageRecord{}, nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return models.PageRecord{}, nil, err
	}

	doc.Find("script,noscript,style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = titlePlaceholder
	}

	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(doc.Find("body").Text(), " "))

	summary := strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if summary == "" {
		summary = truncate(text, summaryMax)
	}

	body := text
	if utf8.RuneCountInString(text) > readabilityThreshold {
		if article, rerr := readability.FromReader(bytes.NewReader(utf8data), seed); rerr == nil {
			if main := strings.TrimSpace(whitespaceRe.ReplaceAllString(article.TextContent, " ")); main != "" {
				body = main
			}
		}
	}
	body = truncate(body, bodyMax)

	var links []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		links = append(links, seed.ResolveReference(ref).String())
	})

	record := models.PageRecord{
		URL:           pageURL,
		Title:         title,
		Summary:       summary,
		Body:          body,
		Platform:      seed.Host,
		ExternalLinks: []string{pageURL},
	}
	return record, links, nil
}

func decodeToUTF8(data []byte, contentType string) ([]byte, error) {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if utf8.Valid(data) {
			return data, nil
		}
		return nil, err
	}
	return decoded, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func queued(queue []string, link string) bool {
	for _, q := range queue {
		if q == link {
			return true
		}
	}
	return false
}
