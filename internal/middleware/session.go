package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/internal/services"
	"github.com/asucbc/cbc-api/pkg/jwt"
	"github.com/gin-gonic/gin"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "cbc_session"

	// OAuthStateCookieName holds the CSRF state between login and callback
	OAuthStateCookieName = "cbc_oauth_state"

	// SessionContextKey is the key used to store session in context
	SessionContextKey = "user_session"

	oauthStateTTLSeconds = 10 * 60
	oauthStatePath       = "/api/auth"
)

var (
	ErrSessionNotFound = errors.New("session not found in context")
	ErrInvalidSession  = errors.New("invalid session type")
)

// SessionMiddleware requires a valid session cookie and adds the session to context
func SessionMiddleware(tokenManager *jwt.TokenManager, cookieDomain string, cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie == "" {
			_ = c.Error(fmt.Errorf("missing session cookie")) //nolint:errcheck
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := tokenManager.ValidateToken(cookie)
		if err != nil {
			_ = c.Error(fmt.Errorf("invalid session token: %w", err)) //nolint:errcheck
			ClearSessionCookie(c, cookieDomain, cookieSecure)

			if errors.Is(err, jwt.ErrExpiredToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			}
			return
		}

		c.Set(SessionContextKey, services.SessionFromClaims(claims))
		c.Next()
	}
}

// OptionalSession adds the session to context when a valid cookie is present
// and otherwise lets the request through anonymously
func OptionalSession(tokenManager *jwt.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
			if claims, err := tokenManager.ValidateToken(cookie); err == nil {
				c.Set(SessionContextKey, services.SessionFromClaims(claims))
			}
		}
		c.Next()
	}
}

// GetUserSession extracts session from context
func GetUserSession(c *gin.Context) (*models.UserSession, error) {
	val, exists := c.Get(SessionContextKey)
	if !exists {
		return nil, ErrSessionNotFound
	}

	session, ok := val.(*models.UserSession)
	if !ok {
		return nil, ErrInvalidSession
	}

	return session, nil
}

// SetSessionCookie sets the session cookie
func SetSessionCookie(c *gin.Context, token string, ttlSeconds int, domain string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, ttlSeconds, "/", domain, secure, true)
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c *gin.Context, domain string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", domain, secure, true)
}

// SetOAuthStateCookie stores the login state for the callback to compare
func SetOAuthStateCookie(c *gin.Context, state, domain string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(OAuthStateCookieName, state, oauthStateTTLSeconds, oauthStatePath, domain, secure, true)
}

// OAuthState returns the stored login state, or "" when absent
func OAuthState(c *gin.Context) string {
	state, err := c.Cookie(OAuthStateCookieName)
	if err != nil {
		return ""
	}
	return state
}

// ClearOAuthStateCookie expires the login state cookie
func ClearOAuthStateCookie(c *gin.Context, domain string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(OAuthStateCookieName, "", -1, oauthStatePath, domain, secure, true)
}
