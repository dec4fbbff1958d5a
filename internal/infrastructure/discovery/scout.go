package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// Completer is the LLM surface the scout needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Scout finds trending stories by asking an LLM for a structured roundup
// of the configured topics.
type Scout struct {
	llm    Completer
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.DiscoverySource = (*Scout)(nil)

// NewScout wires the completion client.
func NewScout(llm Completer, logger *slog.Logger) *Scout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scout{
		llm:    llm,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

const scoutSystem = "You are a tech news scout. You return only well-formed JSON."

// Search asks for the most compelling stories of the past day and parses
// the JSON array out of the response. Responses that carry no parseable
// array degrade to a single roundup item rather than failing the run.
func (s *Scout) Search(ctx context.Context, topics []string) (domain.DiscoveryReport, error) {
	prompt := buildScoutPrompt(topics, s.now())

	raw, err := s.llm.Complete(ctx, scoutSystem, prompt)
	if err != nil {
		return domain.DiscoveryReport{}, fmt.Errorf("scout completion: %w", err)
	}

	items, parsed := parseItems(raw)
	if !parsed {
		s.logger.Warn("scout response carried no JSON array, using fallback item")
	}

	return domain.DiscoveryReport{
		GeneratedAt: s.now(),
		Topics:      topics,
		Items:       items,
		RawResponse: raw,
	}, nil
}

func buildScoutPrompt(topics []string, today time.Time) string {
	return fmt.Sprintf(`Today is %s.

Search for the most interesting and trending news from the past 24 hours
about the following topics: %s.

For each news item provide:
1. A concise headline
2. A 2-3 sentence summary of why this matters
3. The source URL
4. Why this would interest a tech-savvy professional audience

Find 3-5 of the most compelling stories. Prioritize breaking news,
significant product launches, research breakthroughs, and industry shifts.

Return your findings as a JSON array of objects with these fields:
headline, summary, source_url, angle, tags

Return ONLY the JSON array, no other text.`,
		today.Format("2006-01-02"), strings.Join(topics, ", "))
}

// parseItems extracts the outermost JSON array from the completion text.
// The second return reports whether a parseable array was found.
func parseItems(raw string) ([]domain.NewsItem, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		var items []domain.NewsItem
		if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err == nil {
			cleaned := items[:0]
			for _, item := range items {
				if strings.TrimSpace(item.Headline) != "" || strings.TrimSpace(item.Summary) != "" {
					cleaned = append(cleaned, item)
				}
			}
			return cleaned, true
		}
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, false
	}
	if len(text) > 500 {
		text = text[:500]
	}
	return []domain.NewsItem{{
		Headline: "Tech news roundup",
		Summary:  text,
		Tags:     []string{"roundup"},
	}}, false
}
