package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// Token is a stored bearer credential. A zero ExpiresAt means the token
// does not expire (Medium integration tokens).
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// Store is a small file-backed token vault. The OAuth callback writes
// into it; the provider reads from it.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore wires the vault file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save writes or replaces the token for a platform.
func (s *Store) Save(platform domain.Platform, token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.read()
	if err != nil {
		return err
	}
	tokens[string(platform)] = token

	raw, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Load returns the stored token for a platform, if present.
func (s *Store) Load(platform domain.Platform) (Token, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.read()
	if err != nil {
		return Token{}, false, err
	}
	token, ok := tokens[string(platform)]
	return token, ok, nil
}

func (s *Store) read() (map[string]Token, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Token{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	tokens := map[string]Token{}
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	return tokens, nil
}

// Provider resolves bearer credentials from statically configured tokens
// first, then from the vault. Failures carry a classified reason.
type Provider struct {
	store  *Store
	static map[domain.Platform]string
	now    func() time.Time
}

var _ ports.CredentialProvider = (*Provider)(nil)

// NewProvider wires config-supplied tokens and the vault.
func NewProvider(cfg config.CredentialConfig, store *Store) *Provider {
	static := map[domain.Platform]string{}
	if cfg.LinkedInToken != "" {
		static[domain.PlatformLinkedIn] = cfg.LinkedInToken
	}
	if cfg.MediumToken != "" {
		static[domain.PlatformMedium] = cfg.MediumToken
	}

	return &Provider{
		store:  store,
		static: static,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a valid credential for the platform or a classified
// *domain.CredentialError.
func (p *Provider) Get(ctx context.Context, platform domain.Platform) (domain.Credential, error) {
	if token, ok := p.static[platform]; ok {
		return domain.Credential{Platform: platform, Token: token}, nil
	}

	if p.store == nil {
		return domain.Credential{}, &domain.CredentialError{Platform: platform, Reason: domain.CredentialMissing}
	}

	token, ok, err := p.store.Load(platform)
	if err != nil {
		return domain.Credential{}, &domain.CredentialError{Platform: platform, Reason: domain.CredentialMissing, Err: err}
	}
	if !ok || token.AccessToken == "" {
		return domain.Credential{}, &domain.CredentialError{Platform: platform, Reason: domain.CredentialMissing}
	}
	if !token.ExpiresAt.IsZero() && !token.ExpiresAt.After(p.now()) {
		return domain.Credential{}, &domain.CredentialError{Platform: platform, Reason: domain.CredentialExpired}
	}

	return domain.Credential{
		Platform:  platform,
		Token:     token.AccessToken,
		ExpiresAt: token.ExpiresAt,
	}, nil
}
