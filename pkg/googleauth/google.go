// Package googleauth runs the Google OAuth 2.0 authorization code flow and
// reads the signed-in account's OpenID profile.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// DefaultUserInfoURL is Google's OpenID Connect userinfo endpoint
const DefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var defaultScopes = []string{"openid", "email", "profile"}

// ErrMissingCode is returned when the callback carries no authorization code
var ErrMissingCode = errors.New("missing authorization code")

// Config holds the OAuth client registration
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// HostedDomain is sent as the hd hint so Google preselects school accounts.
	// It is a hint only; callers must still check the returned email.
	HostedDomain string
	// Endpoint and UserInfoURL default to Google's
	Endpoint    oauth2.Endpoint
	UserInfoURL string
	HTTPClient  *http.Client
}

// Provider wraps an oauth2 config for Google
type Provider struct {
	oauth       *oauth2.Config
	hd          string
	userInfoURL string
	httpClient  *http.Client
}

// NewProvider creates a Google OAuth provider
func NewProvider(cfg Config) *Provider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = endpoints.Google
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       defaultScopes,
		},
		hd:          cfg.HostedDomain,
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
	}
}

// AuthCodeURL is where the browser is sent to sign in
func (p *Provider) AuthCodeURL(state string) string {
	opts := []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "select_account")}
	if p.hd != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", p.hd))
	}
	return p.oauth.AuthCodeURL(state, opts...)
}

// Authenticate exchanges the authorization code and returns the account profile
func (p *Provider) Authenticate(ctx context.Context, code string) (*models.GoogleUser, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	start := time.Now()
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		logger.LogAPICall("google_oauth", "exchange", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	logger.LogAPICall("google_oauth", "exchange", "success", time.Since(start).Seconds())

	return p.userInfo(ctx, token)
}

func (p *Provider) userInfo(ctx context.Context, token *oauth2.Token) (*models.GoogleUser, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		logger.LogAPICall("google_oauth", "userinfo", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain
		logger.LogAPICall("google_oauth", "userinfo", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var user models.GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if user.Subject == "" || user.Email == "" {
		return nil, errors.New("userinfo is missing sub or email")
	}

	logger.LogAPICall("google_oauth", "userinfo", "success", time.Since(start).Seconds())
	return &user, nil
}
