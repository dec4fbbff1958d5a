package drafting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// Completer is the LLM surface the editor needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Editor turns a discovery report into the two publishable facets: a
// short feed post and a long-form markdown article.
type Editor struct {
	llm    Completer
	logger *slog.Logger
}

var _ ports.DraftWriter = (*Editor)(nil)

// NewEditor wires the completion client.
func NewEditor(llm Completer, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{llm: llm, logger: logger}
}

const maxArticleTags = 5

const persona = `You are a senior technology writer. Professional but
approachable; you explain complex tech concepts clearly without being
condescending, with light wit and no forced jokes.

You are a practitioner who builds things, not just a commentator.
Reference real-world implications for engineers and product teams.

Do not use clickbait, excessive emojis, or disclaimers about being AI.`

// Write generates both draft facets from the report's findings.
func (e *Editor) Write(ctx context.Context, report domain.DiscoveryReport) (domain.DraftBundle, error) {
	if len(report.Items) == 0 {
		return domain.DraftBundle{}, errors.New("report has no items to draft from")
	}

	findings := formatFindings(report)
	headlines := make([]string, 0, len(report.Items))
	for _, item := range report.Items {
		headlines = append(headlines, item.Headline)
	}

	short, err := e.writeShortPost(ctx, findings)
	if err != nil {
		return domain.DraftBundle{}, fmt.Errorf("short draft: %w", err)
	}

	markdown, err := e.writeArticle(ctx, findings)
	if err != nil {
		return domain.DraftBundle{}, fmt.Errorf("article draft: %w", err)
	}

	tags := report.Topics
	if len(tags) > maxArticleTags {
		tags = tags[:maxArticleTags]
	}

	return domain.DraftBundle{
		Short: domain.ShortDraft{
			Content:     short,
			SourceItems: headlines,
		},
		Article: domain.ArticleDraft{
			Title:       extractTitle(markdown),
			Markdown:    markdown,
			Tags:        tags,
			SourceItems: headlines,
		},
	}, nil
}

func (e *Editor) writeShortPost(ctx context.Context, findings string) (string, error) {
	prompt := fmt.Sprintf(`Based on these trending tech news findings, write a short feed post.

FINDINGS:
%s

REQUIREMENTS:
- Pick the single most compelling story or combine 2-3 into a theme
- Hook in the first line
- 150-300 words
- End with a question or call to action
- Include 3-5 hashtags
- Plain text with line breaks between paragraphs, no markdown`, findings)

	raw, err := e.llm.Complete(ctx, persona, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func (e *Editor) writeArticle(ctx context.Context, findings string) (string, error) {
	prompt := fmt.Sprintf(`Based on these trending tech news findings, write a long-form article.

FINDINGS:
%s

REQUIREMENTS:
- Markdown format
- 800-1500 words
- Clear title as a # heading on the first line
- 3-4 sections with ## headers
- Practical takeaways for engineers and product teams
- Include source attribution with links
- End with a summary and forward-looking thought`, findings)

	raw, err := e.llm.Complete(ctx, persona, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func formatFindings(report domain.DiscoveryReport) string {
	parts := make([]string, 0, len(report.Items))
	for i, item := range report.Items {
		parts = append(parts, fmt.Sprintf("Story %d: %s\nSummary: %s\nSource: %s\nAngle: %s\nTags: %s",
			i+1, item.Headline, item.Summary, item.SourceURL, item.Angle, strings.Join(item.Tags, ", ")))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// extractTitle returns the first top-level markdown heading, falling back
// to a generic title when none is present.
func extractTitle(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(stripped, "# "))
		}
	}
	return "Tech Weekly Roundup"
}
