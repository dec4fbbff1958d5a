package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

const defaultLinkedInBaseURL = "https://api.linkedin.com"

// LinkedIn publishes the short draft facet through the Posts API.
type LinkedIn struct {
	client     *http.Client
	baseURL    string
	apiVersion string
}

var _ ports.Publisher = (*LinkedIn)(nil)

// NewLinkedIn wires an HTTP client and the Linkedin-Version header value.
func NewLinkedIn(client *http.Client, apiVersion string) *LinkedIn {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &LinkedIn{
		client:     client,
		baseURL:    defaultLinkedInBaseURL,
		apiVersion: apiVersion,
	}
}

// Platform identifies the publisher inside the registry.
func (l *LinkedIn) Platform() domain.Platform { return domain.PlatformLinkedIn }

// Publish creates one feed post. The member URN comes from the OpenID
// userinfo endpoint; the post id from the x-restli-id response header.
func (l *LinkedIn) Publish(ctx context.Context, draft domain.DraftBundle, cred domain.Credential) (domain.PublishReceipt, error) {
	if strings.TrimSpace(draft.Short.Content) == "" {
		return domain.PublishReceipt{}, &domain.PublishError{
			Platform: domain.PlatformLinkedIn,
			Kind:     domain.PublishErrorAPI,
			Message:  "short draft is empty",
		}
	}

	member, err := l.memberID(ctx, cred)
	if err != nil {
		return domain.PublishReceipt{}, err
	}

	payload := map[string]any{
		"author":     "urn:li:person:" + member,
		"commentary": draft.Short.Content,
		"visibility": "PUBLIC",
		"distribution": map[string]any{
			"feedDistribution":               "MAIN_FEED",
			"targetEntities":                 []any{},
			"thirdPartyDistributionChannels": []any{},
		},
		"lifecycleState":            "PUBLISHED",
		"isReshareDisabledByAuthor": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.PublishReceipt{}, fmt.Errorf("marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/rest/posts", bytes.NewReader(body))
	if err != nil {
		return domain.PublishReceipt{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	req.Header.Set("Linkedin-Version", l.apiVersion)

	resp, err := l.client.Do(req)
	if err != nil {
		return domain.PublishReceipt{}, &domain.PublishError{
			Platform: domain.PlatformLinkedIn,
			Kind:     domain.PublishErrorNetwork,
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return domain.PublishReceipt{}, classify(domain.PlatformLinkedIn, resp)
	}

	postID := resp.Header.Get("x-restli-id")
	return domain.PublishReceipt{
		ExternalID: postID,
		URL:        "https://www.linkedin.com/feed/update/" + postID,
	}, nil
}

func (l *LinkedIn) memberID(ctx context.Context, cred domain.Credential) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/v2/userinfo", nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", &domain.PublishError{
			Platform: domain.PlatformLinkedIn,
			Kind:     domain.PublishErrorNetwork,
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classify(domain.PlatformLinkedIn, resp)
	}

	var profile struct {
		Sub string `json:"sub"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.Sub == "" {
		return "", &domain.PublishError{
			Platform: domain.PlatformLinkedIn,
			Kind:     domain.PublishErrorAPI,
			Message:  "userinfo response missing sub",
		}
	}
	return profile.Sub, nil
}

// classify maps an error response to a PublishError kind shared by both
// platform publishers.
func classify(p domain.Platform, resp *http.Response) *domain.PublishError {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	message := strings.TrimSpace(string(payload))

	kind := domain.PublishErrorAPI
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.PublishErrorAuth
	case http.StatusTooManyRequests:
		kind = domain.PublishErrorRateLimit
	}

	return &domain.PublishError{
		Platform:   p,
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
