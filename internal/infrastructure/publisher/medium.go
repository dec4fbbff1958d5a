package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

const (
	defaultMediumBaseURL = "https://api.medium.com/v1"
	maxMediumTags        = 5
)

// Medium publishes the article facet via the integration-token API.
type Medium struct {
	client        *http.Client
	baseURL       string
	publishStatus string
}

var _ ports.Publisher = (*Medium)(nil)

// NewMedium wires an HTTP client; publishStatus is "draft", "public", or
// "unlisted".
func NewMedium(client *http.Client, publishStatus string) *Medium {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if publishStatus == "" {
		publishStatus = "public"
	}
	return &Medium{
		client:        client,
		baseURL:       defaultMediumBaseURL,
		publishStatus: publishStatus,
	}
}

// Platform identifies the publisher inside the registry.
func (m *Medium) Platform() domain.Platform { return domain.PlatformMedium }

// Publish creates one article from the markdown facet.
func (m *Medium) Publish(ctx context.Context, draft domain.DraftBundle, cred domain.Credential) (domain.PublishReceipt, error) {
	if strings.TrimSpace(draft.Article.Markdown) == "" {
		return domain.PublishReceipt{}, &domain.PublishError{
			Platform: domain.PlatformMedium,
			Kind:     domain.PublishErrorAPI,
			Message:  "article draft is empty",
		}
	}

	userID, err := m.userID(ctx, cred)
	if err != nil {
		return domain.PublishReceipt{}, err
	}

	tags := draft.Article.Tags
	if len(tags) > maxMediumTags {
		tags = tags[:maxMediumTags]
	}

	payload := map[string]any{
		"title":         draft.Article.Title,
		"contentFormat": "markdown",
		"content":       draft.Article.Markdown,
		"tags":          tags,
		"publishStatus": m.publishStatus,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.PublishReceipt{}, fmt.Errorf("marshal article payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/users/"+userID+"/posts", bytes.NewReader(body))
	if err != nil {
		return domain.PublishReceipt{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return domain.PublishReceipt{}, &domain.PublishError{
			Platform: domain.PlatformMedium,
			Kind:     domain.PublishErrorNetwork,
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return domain.PublishReceipt{}, classify(domain.PlatformMedium, resp)
	}

	var result struct {
		Data struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.PublishReceipt{}, fmt.Errorf("decode post response: %w", err)
	}

	return domain.PublishReceipt{
		ExternalID: result.Data.ID,
		URL:        result.Data.URL,
	}, nil
}

func (m *Medium) userID(ctx context.Context, cred domain.Credential) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/me", nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", &domain.PublishError{
			Platform: domain.PlatformMedium,
			Kind:     domain.PublishErrorNetwork,
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classify(domain.PlatformMedium, resp)
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode me response: %w", err)
	}
	if result.Data.ID == "" {
		return "", &domain.PublishError{
			Platform: domain.PlatformMedium,
			Kind:     domain.PublishErrorAPI,
			Message:  "me response missing user id",
		}
	}
	return result.Data.ID, nil
}
