package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/asucbc/cbc-api/config"
	"github.com/asucbc/cbc-api/internal/models"
	apperrors "github.com/asucbc/cbc-api/pkg/errors"
	"github.com/asucbc/cbc-api/pkg/jwt"
	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/asucbc/cbc-api/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidOAuthState    = fmt.Errorf("oauth state mismatch: %w", apperrors.ErrUnauthorized)
	ErrEmailDomainForbidden = fmt.Errorf("email domain not allowed: %w", apperrors.ErrAccessDenied)
	ErrEmailNotVerified     = fmt.Errorf("email not verified: %w", apperrors.ErrAccessDenied)
	ErrSignInFailed         = fmt.Errorf("google sign-in: %w", apperrors.ErrUnavailable)
)

// OAuthProvider runs the provider side of the authorization code flow
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Authenticate(ctx context.Context, code string) (*models.GoogleUser, error)
}

// UserStore records members on sign-in
type UserStore interface {
	UpsertFromGoogle(ctx context.Context, user *models.GoogleUser) (*models.User, error)
}

// AuthService signs members in with Google and issues session tokens.
// Only verified addresses in the allowed domain may sign in.
type AuthService struct {
	config       config.AuthConfig
	provider     OAuthProvider
	tokenManager *jwt.TokenManager
	users        UserStore
}

// NewAuthService creates a new auth service instance. users may be nil, in
// which case sessions are issued without recording the member.
func NewAuthService(cfg config.AuthConfig, provider OAuthProvider, tokenManager *jwt.TokenManager, users UserStore) *AuthService {
	return &AuthService{
		config:       cfg,
		provider:     provider,
		tokenManager: tokenManager,
		users:        users,
	}
}

// BeginLogin returns the Google consent URL and the state value the caller
// must keep for the callback
func (s *AuthService) BeginLogin() (string, string) {
	state := uuid.NewString()
	return s.provider.AuthCodeURL(state), state
}

// CompleteLogin verifies the callback and returns the session and its signed token
func (s *AuthService) CompleteLogin(ctx context.Context, code, state, expectedState string) (*models.UserSession, string, error) {
	if state == "" || expectedState == "" || !jwt.TimingSafeCompare(state, expectedState) {
		metrics.SignIns.WithLabelValues("invalid_state").Inc()
		return nil, "", ErrInvalidOAuthState
	}

	gu, err := s.provider.Authenticate(ctx, code)
	if err != nil {
		metrics.SignIns.WithLabelValues("error").Inc()
		logger.Error("Google authentication failed", zap.Error(err))
		return nil, "", errors.Join(ErrSignInFailed, err)
	}

	if !s.EmailAllowed(gu.Email) {
		metrics.SignIns.WithLabelValues("denied").Inc()
		logger.Warn("Sign-in rejected for email domain", zap.String("domain", emailDomain(gu.Email)))
		return nil, "", ErrEmailDomainForbidden
	}
	if !gu.EmailVerified {
		metrics.SignIns.WithLabelValues("denied").Inc()
		return nil, "", ErrEmailNotVerified
	}

	if s.users != nil {
		if _, err := s.users.UpsertFromGoogle(ctx, gu); err != nil {
			metrics.SignIns.WithLabelValues("error").Inc()
			return nil, "", fmt.Errorf("%w: %w", apperrors.InternalError("failed to record user"), err)
		}
	}

	token, claims, err := s.tokenManager.GenerateToken(gu.Subject, gu.Email, gu.Name, gu.Picture)
	if err != nil {
		metrics.SignIns.WithLabelValues("error").Inc()
		return nil, "", fmt.Errorf("%w: %w", apperrors.InternalError("failed to issue session"), err)
	}

	metrics.SignIns.WithLabelValues("success").Inc()
	logger.Info("User signed in", zap.String("user_id", gu.Subject))

	return SessionFromClaims(claims), token, nil
}

// EmailAllowed reports whether email belongs to the allowed domain
func (s *AuthService) EmailAllowed(email string) bool {
	domain := strings.ToLower(strings.TrimPrefix(s.config.AllowedEmailDomain, "@"))
	if domain == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+domain)
}

// AllowedDomain is the domain members must sign in with
func (s *AuthService) AllowedDomain() string {
	return s.config.AllowedEmailDomain
}

func (s *AuthService) GetSessionTTL() int {
	return int(s.tokenManager.TTL().Seconds())
}

func (s *AuthService) GetCookieDomain() string {
	return s.config.CookieDomain
}

func (s *AuthService) GetCookieSecure() bool {
	return s.config.CookieSecure
}

func (s *AuthService) GetTokenManager() *jwt.TokenManager {
	return s.tokenManager
}

// SessionFromClaims converts validated token claims into a session
func SessionFromClaims(claims *jwt.UserClaims) *models.UserSession {
	session := &models.UserSession{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Unix()
	}
	return session
}

func emailDomain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return strings.ToLower(email[i+1:])
	}
	return ""
}
