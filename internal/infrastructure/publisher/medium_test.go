package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ContentEngine/internal/domain"
)

func mediumDraft() domain.DraftBundle {
	return domain.DraftBundle{
		Short: domain.ShortDraft{Content: "short"},
		Article: domain.ArticleDraft{
			Title:    "Deep Dive",
			Markdown: "# Deep Dive\n\nbody",
			Tags:     []string{"ai", "ml", "llm", "agents", "infra", "extra"},
		},
	}
}

func TestMediumPublish(t *testing.T) {
	t.Parallel()

	var gotPost map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"id": "user-9"}})
		case "/users/user-9/posts":
			_ = json.NewDecoder(r.Body).Decode(&gotPost)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]string{"id": "post-1", "url": "https://medium.com/p/post-1"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	pub := NewMedium(server.Client(), "draft")
	pub.baseURL = server.URL

	receipt, err := pub.Publish(context.Background(), mediumDraft(), domain.Credential{Token: "md-token"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if receipt.ExternalID != "post-1" || receipt.URL != "https://medium.com/p/post-1" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if gotPost["contentFormat"] != "markdown" {
		t.Fatalf("unexpected content format: %v", gotPost["contentFormat"])
	}
	if gotPost["publishStatus"] != "draft" {
		t.Fatalf("unexpected publish status: %v", gotPost["publishStatus"])
	}
	tags, _ := gotPost["tags"].([]any)
	if len(tags) != maxMediumTags {
		t.Fatalf("expected tags capped at %d, got %d", maxMediumTags, len(tags))
	}
}

func TestMediumPublishMissingUserID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{}})
	}))
	defer server.Close()

	pub := NewMedium(server.Client(), "public")
	pub.baseURL = server.URL

	_, err := pub.Publish(context.Background(), mediumDraft(), domain.Credential{Token: "md-token"})
	var pubErr *domain.PublishError
	if !errors.As(err, &pubErr) || pubErr.Kind != domain.PublishErrorAPI {
		t.Fatalf("expected API-kind PublishError, got %v", err)
	}
}

func TestMediumPublishAuthFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"token revoked"}]}`))
	}))
	defer server.Close()

	pub := NewMedium(server.Client(), "public")
	pub.baseURL = server.URL

	_, err := pub.Publish(context.Background(), mediumDraft(), domain.Credential{Token: "bad"})
	var pubErr *domain.PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("expected PublishError, got %v", err)
	}
	if pubErr.Kind != domain.PublishErrorAuth || pubErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected classified auth failure, got %+v", pubErr)
	}
}

func TestMediumPublishRejectsEmptyArticle(t *testing.T) {
	t.Parallel()

	pub := NewMedium(nil, "public")
	_, err := pub.Publish(context.Background(), domain.DraftBundle{Short: domain.ShortDraft{Content: "only short"}}, domain.Credential{Token: "md-token"})
	var pubErr *domain.PublishError
	if !errors.As(err, &pubErr) || pubErr.Kind != domain.PublishErrorAPI {
		t.Fatalf("expected API-kind PublishError for empty article, got %v", err)
	}
}
