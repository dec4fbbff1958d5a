package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/linkedin"

	"ContentEngine/internal/config"
	"ContentEngine/internal/domain"
	"ContentEngine/internal/infrastructure/credentials"
)

// LinkedInAuth runs the OAuth flow and stores the resulting access token
// in the credential vault so the publisher can use it.
type LinkedInAuth struct {
	vault  *credentials.Store
	logger *slog.Logger
}

// NewLinkedInAuth registers the LinkedIn provider with gothic. The session
// secret signs the state cookie gothic uses across the redirect.
func NewLinkedInAuth(cfg config.Config, vault *credentials.Store, logger *slog.Logger) *LinkedInAuth {
	store := sessions.NewCookieStore([]byte(cfg.Dashboard.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	goth.UseProviders(
		linkedin.New(
			cfg.Platforms.LinkedIn.ClientID,
			cfg.Platforms.LinkedIn.ClientSecret,
			cfg.Platforms.LinkedIn.CallbackURL,
			"openid", "profile", "w_member_social",
		),
	)

	return &LinkedInAuth{vault: vault, logger: logger.With("component", "linkedin_auth")}
}

// Begin redirects the operator to LinkedIn's consent page.
func (a *LinkedInAuth) Begin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("provider", "linkedin")
	r.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(w, r)
}

// Callback completes the flow and persists the token.
func (a *LinkedInAuth) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("provider", "linkedin")
	r.URL.RawQuery = q.Encode()

	user, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		a.logger.Error("oauth callback failed", "error", err)
		http.Error(w, "authorization failed", http.StatusBadGateway)
		return
	}

	token := credentials.Token{AccessToken: user.AccessToken, ExpiresAt: user.ExpiresAt}
	if err := a.vault.Save(domain.PlatformLinkedIn, token); err != nil {
		a.logger.Error("token save failed", "error", err)
		http.Error(w, "token save failed", http.StatusInternalServerError)
		return
	}

	a.logger.Info("linkedin token stored", "expires_at", user.ExpiresAt)
	http.Redirect(w, r, "/api/records?status=pending_approval", http.StatusFound)
}
