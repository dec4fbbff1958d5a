package credentials

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
)

func TestStoreSaveAndLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "tokens.json"))

	token := Token{AccessToken: "li-token", ExpiresAt: time.Now().Add(time.Hour).UTC()}
	if err := store.Save(domain.PlatformLinkedIn, token); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, ok, err := store.Load(domain.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok || loaded.AccessToken != "li-token" {
		t.Fatalf("unexpected token: %+v ok=%v", loaded, ok)
	}

	if _, ok, _ := store.Load(domain.PlatformMedium); ok {
		t.Fatal("expected no medium token")
	}
}

func TestProviderPrefersStaticTokens(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	_ = store.Save(domain.PlatformLinkedIn, Token{AccessToken: "vault-token"})

	provider := NewProvider(config.CredentialConfig{LinkedInToken: "static-token"}, store)

	cred, err := provider.Get(context.Background(), domain.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cred.Token != "static-token" {
		t.Fatalf("expected the static token to win, got %q", cred.Token)
	}
}

func TestProviderReadsVault(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	_ = store.Save(domain.PlatformMedium, Token{AccessToken: "md-token"})

	provider := NewProvider(config.CredentialConfig{}, store)

	cred, err := provider.Get(context.Background(), domain.PlatformMedium)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cred.Token != "md-token" || cred.Platform != domain.PlatformMedium {
		t.Fatalf("unexpected credential: %+v", cred)
	}
}

func TestProviderClassifiesMissing(t *testing.T) {
	t.Parallel()

	provider := NewProvider(config.CredentialConfig{}, NewStore(filepath.Join(t.TempDir(), "tokens.json")))

	_, err := provider.Get(context.Background(), domain.PlatformLinkedIn)
	var credErr *domain.CredentialError
	if !errors.As(err, &credErr) {
		t.Fatalf("expected CredentialError, got %v", err)
	}
	if credErr.Reason != domain.CredentialMissing || credErr.Platform != domain.PlatformLinkedIn {
		t.Fatalf("unexpected classification: %+v", credErr)
	}
}

func TestProviderClassifiesExpired(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	_ = store.Save(domain.PlatformLinkedIn, Token{
		AccessToken: "stale",
		ExpiresAt:   time.Now().Add(-time.Minute).UTC(),
	})

	provider := NewProvider(config.CredentialConfig{}, store)

	_, err := provider.Get(context.Background(), domain.PlatformLinkedIn)
	var credErr *domain.CredentialError
	if !errors.As(err, &credErr) || credErr.Reason != domain.CredentialExpired {
		t.Fatalf("expected expired classification, got %v", err)
	}
}
