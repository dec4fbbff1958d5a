package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ContentEngine/internal/domain"
)

const maxExtractedChars = 12000

// Completer is the LLM surface the processor needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Processor packages user-provided URLs or free text into discovery
// reports, so manual content rides the same drafting pipeline as
// scheduled runs.
type Processor struct {
	client *http.Client
	llm    Completer
	logger *slog.Logger
	now    func() time.Time
}

// NewProcessor wires an HTTP client and the completion client.
func NewProcessor(client *http.Client, llm Completer, logger *slog.Logger) *Processor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		client: client,
		llm:    llm,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// FromURL fetches a web page, extracts its readable text, and condenses
// it into a single-item discovery report.
func (p *Processor) FromURL(ctx context.Context, pageURL string) (domain.DiscoveryReport, error) {
	if strings.TrimSpace(pageURL) == "" {
		return domain.DiscoveryReport{}, errors.New("url is required")
	}

	text, err := p.fetchReadableText(ctx, pageURL)
	if err != nil {
		return domain.DiscoveryReport{}, err
	}

	item, err := p.condense(ctx, text, pageURL)
	if err != nil {
		return domain.DiscoveryReport{}, err
	}

	return domain.DiscoveryReport{
		GeneratedAt: p.now(),
		Items:       []domain.NewsItem{item},
		Note:        "manual import from " + pageURL,
	}, nil
}

// FromText condenses free text into a single-item discovery report.
func (p *Processor) FromText(ctx context.Context, text string) (domain.DiscoveryReport, error) {
	if strings.TrimSpace(text) == "" {
		return domain.DiscoveryReport{}, errors.New("text is required")
	}

	item, err := p.condense(ctx, text, "")
	if err != nil {
		return domain.DiscoveryReport{}, err
	}

	return domain.DiscoveryReport{
		GeneratedAt: p.now(),
		Items:       []domain.NewsItem{item},
		Note:        "manual import from text",
	}, nil
}

func (p *Processor) fetchReadableText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ContentEngine/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	text := extractReadableText(doc)
	if text == "" {
		return "", errors.New("page contained no readable text")
	}
	return text, nil
}

func extractReadableText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, footer").Remove()

	var parts []string
	doc.Find("h1, h2, h3, p, li").Each(func(i int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	joined := strings.Join(parts, "\n")
	if len(joined) > maxExtractedChars {
		joined = joined[:maxExtractedChars]
	}
	return joined
}

func (p *Processor) condense(ctx context.Context, text, sourceURL string) (domain.NewsItem, error) {
	prompt := fmt.Sprintf(`Condense the following content into a single news item.

CONTENT:
%s

Return ONLY a JSON object with these fields:
headline, summary, angle, tags (array of strings)`, text)

	raw, err := p.llm.Complete(ctx, "You summarize content for a drafting pipeline. Return only well-formed JSON.", prompt)
	if err != nil {
		return domain.NewsItem{}, fmt.Errorf("condense content: %w", err)
	}

	item := parseItem(raw)
	item.SourceURL = sourceURL
	if item.Headline == "" && item.Summary == "" {
		return domain.NewsItem{}, errors.New("condensed item is empty")
	}
	return item, nil
}

// parseItem extracts the outermost JSON object from the completion; a
// response with no parseable object degrades to a summary-only item.
func parseItem(raw string) domain.NewsItem {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		var item domain.NewsItem
		if err := json.Unmarshal([]byte(raw[start:end+1]), &item); err == nil {
			return item
		}
	}

	text := strings.TrimSpace(raw)
	if len(text) > 500 {
		text = text[:500]
	}
	return domain.NewsItem{Headline: "Imported content", Summary: text}
}
