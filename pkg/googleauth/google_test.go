package googleauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newFakeGoogle(t *testing.T, userinfo string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "good-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(userinfo))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *Provider {
	return NewProvider(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://asucbc.example/api/auth/google/callback",
		HostedDomain: "asu.edu",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/auth",
			TokenURL: srv.URL + "/token",
		},
		UserInfoURL: srv.URL + "/userinfo",
		HTTPClient:  srv.Client(),
	})
}

func TestAuthCodeURL(t *testing.T) {
	p := NewProvider(Config{ClientID: "client-id", RedirectURL: "https://x/cb", HostedDomain: "asu.edu"})

	u, err := url.Parse(p.AuthCodeURL("state-1"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)

	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "asu.edu", q.Get("hd"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
}

func TestAuthenticate(t *testing.T) {
	srv := newFakeGoogle(t, `{"sub":"1234","email":"sparky@asu.edu","email_verified":true,"name":"Sparky"}`)

	user, err := newTestProvider(srv).Authenticate(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "1234", user.Subject)
	assert.Equal(t, "sparky@asu.edu", user.Email)
	assert.True(t, user.EmailVerified)
}

func TestAuthenticate_IncompleteProfile(t *testing.T) {
	srv := newFakeGoogle(t, `{"sub":"1234"}`)

	_, err := newTestProvider(srv).Authenticate(context.Background(), "good-code")
	assert.Error(t, err)
}

func TestAuthenticate_MissingCode(t *testing.T) {
	_, err := NewProvider(Config{}).Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingCode)
}
