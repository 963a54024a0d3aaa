package services

import (
	"context"
	"time"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/pkg/jwt"
)

// RedeemServiceInterface defines the interface for credit redemption
type RedeemServiceInterface interface {
	Redeem(ctx context.Context, req *models.RedeemRequest) error
}

// CalendarServiceInterface defines the interface for calendar reads
type CalendarServiceInterface interface {
	Month(ctx context.Context, year int, month time.Month, selected *time.Time) (*models.CalendarMonth, error)
	Today(ctx context.Context) (*models.CalendarDayEvents, error)
	Metadata(ctx context.Context) (*models.CalendarMetadata, error)
	SubscribeURL() string
	Location() *time.Location
}

// AuthServiceInterface defines Google sign-in for members
type AuthServiceInterface interface {
	BeginLogin() (authURL string, state string)
	CompleteLogin(ctx context.Context, code, state, expectedState string) (*models.UserSession, string, error)
	AllowedDomain() string
	GetSessionTTL() int
	GetCookieDomain() string
	GetCookieSecure() bool
	GetTokenManager() *jwt.TokenManager
}

// Ensure services implement their interfaces
var _ RedeemServiceInterface = (*RedeemService)(nil)
var _ CalendarServiceInterface = (*CalendarService)(nil)
var _ AuthServiceInterface = (*AuthService)(nil)
