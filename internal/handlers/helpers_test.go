package handlers

import (
	"context"
	"math"
	"time"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/pkg/geo"
	"github.com/asucbc/cbc-api/pkg/jwt"
	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
	UseTagFieldNames()

	if err := logger.Initialize(logger.Config{Level: "error", Environment: "test"}); err != nil {
		panic(err)
	}
}

var eventLocation = geo.Point{Lat: 33.4242, Lon: -111.9281}

// northOf returns the point the given number of feet due north of p
func northOf(p geo.Point, feet float64) geo.Point {
	meters := feet / geo.FeetPerMeter
	return geo.Point{Lat: p.Lat + meters/geo.EarthRadiusMeters*180/math.Pi, Lon: p.Lon}
}

// MockRedeemService is a mock implementation of RedeemServiceInterface
type MockRedeemService struct {
	mock.Mock
}

func (m *MockRedeemService) Redeem(ctx context.Context, req *models.RedeemRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockCalendarService is a mock implementation of CalendarServiceInterface
type MockCalendarService struct {
	mock.Mock
	loc *time.Location
}

func (m *MockCalendarService) Month(ctx context.Context, year int, month time.Month, selected *time.Time) (*models.CalendarMonth, error) {
	args := m.Called(ctx, year, month, selected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarMonth), args.Error(1)
}

func (m *MockCalendarService) Today(ctx context.Context) (*models.CalendarDayEvents, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarDayEvents), args.Error(1)
}

func (m *MockCalendarService) Metadata(ctx context.Context) (*models.CalendarMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarMetadata), args.Error(1)
}

func (m *MockCalendarService) SubscribeURL() string {
	return m.Called().String(0)
}

func (m *MockCalendarService) Location() *time.Location {
	if m.loc == nil {
		return time.UTC
	}
	return m.loc
}

// MockAuthService is a mock implementation of AuthServiceInterface
type MockAuthService struct {
	mock.Mock
	tokens *jwt.TokenManager
}

func (m *MockAuthService) BeginLogin() (string, string) {
	args := m.Called()
	return args.String(0), args.String(1)
}

func (m *MockAuthService) CompleteLogin(ctx context.Context, code, state, expectedState string) (*models.UserSession, string, error) {
	args := m.Called(ctx, code, state, expectedState)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*models.UserSession), args.String(1), args.Error(2)
}

func (m *MockAuthService) AllowedDomain() string              { return "asu.edu" }
func (m *MockAuthService) GetSessionTTL() int                 { return 3600 }
func (m *MockAuthService) GetCookieDomain() string            { return "" }
func (m *MockAuthService) GetCookieSecure() bool              { return false }
func (m *MockAuthService) GetTokenManager() *jwt.TokenManager { return m.tokens }
