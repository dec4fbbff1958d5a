package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// TelegramNotifier pings reviewers via the Telegram bot API when drafts
// need attention.
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier registers bot token and chat identifier.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// NotifyPending announces a new record awaiting review.
func (n *TelegramNotifier) NotifyPending(ctx context.Context, record domain.ContentRecord) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft ready for review: %s\n", record.ID)
	if title := record.Draft.Article.Title; title != "" {
		fmt.Fprintf(&b, "Article: %s\n", title)
	}
	fmt.Fprintf(&b, "Stories: %d", len(record.Discovery.Items))
	if record.Discovery.Note != "" {
		fmt.Fprintf(&b, "\nNote: %s", record.Discovery.Note)
	}

	return n.send(ctx, b.String())
}

// NotifyPublishOutcome reports a finished publish run that needs human
// remediation (partial or failed).
func (n *TelegramNotifier) NotifyPublishOutcome(ctx context.Context, record domain.ContentRecord) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Publish finished for %s: %s\n", record.ID, record.Status)
	for _, p := range domain.TargetPlatforms() {
		result, ok := record.LatestResult(p)
		if !ok {
			continue
		}
		if result.Outcome == domain.OutcomeSuccess {
			fmt.Fprintf(&b, "- %s: published (%s)\n", p, result.ExternalID)
		} else {
			fmt.Fprintf(&b, "- %s: failed (%s) %s\n", p, result.ErrorKind, result.Error)
		}
	}

	return n.send(ctx, strings.TrimSpace(b.String()))
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
