package slack

import (
	"fmt"
	"strings"

	"replica-auth/internal/auth/provider"

	"golang.org/x/oauth2"
)

const (
	providerName = "slack"

	DefaultAuthorizeURL = "https://slack.com/oauth/v2/authorize"
)

type Config struct {
	ClientID string
	Scopes   []string
	// RedirectURI is the backend endpoint Slack calls after consent. The
	// backend exchanges the code and redirects the browser to the dashboard.
	RedirectURI  string
	AuthorizeURL string
}

// Provider builds Slack "Add to Slack" authorization requests.
type Provider struct {
	cfg Config
}

// New never fails: incomplete configuration is reported by Validate when a
// link is attempted, so the rest of the service keeps working.
func New(cfg Config) *Provider {
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = DefaultAuthorizeURL
	}
	return &Provider{cfg: cfg}
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) Validate() error {
	var missing []string
	if p.cfg.ClientID == "" {
		missing = append(missing, "client id")
	}
	if len(p.cfg.Scopes) == 0 {
		missing = append(missing, "scopes")
	}
	if p.cfg.RedirectURI == "" {
		missing = append(missing, "redirect uri")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: slack %s", provider.ErrMissingConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// AuthCodeURL builds the authorization URL. Slack expects scopes as a comma
// separated list, so they are passed as a raw parameter instead of through
// oauth2.Config.Scopes.
func (p *Provider) AuthCodeURL(state string) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	oauthCfg := &oauth2.Config{
		ClientID:    p.cfg.ClientID,
		RedirectURL: p.cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL: p.cfg.AuthorizeURL,
		},
	}

	return oauthCfg.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("scope", strings.Join(p.cfg.Scopes, ",")),
	), nil
}
