package services_test

import (
	"context"
	"time"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/pkg/discord"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of services.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, webhookURL string, msg *discord.Message) error {
	args := m.Called(ctx, webhookURL, msg)
	return args.Error(0)
}

// targets returns the webhook URLs in the order they were attempted
func (m *MockNotifier) targets() []string {
	var out []string
	for _, call := range m.Calls {
		out = append(out, call.Arguments.String(1))
	}
	return out
}

// MockCalendarSource is a mock implementation of services.CalendarSource
type MockCalendarSource struct {
	mock.Mock
}

func (m *MockCalendarSource) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]models.CalendarEvent, error) {
	args := m.Called(ctx, timeMin, timeMax)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CalendarEvent), args.Error(1)
}

func (m *MockCalendarSource) Metadata(ctx context.Context) (*models.CalendarMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarMetadata), args.Error(1)
}

// MockOAuthProvider is a mock implementation of services.OAuthProvider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) AuthCodeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) Authenticate(ctx context.Context, code string) (*models.GoogleUser, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GoogleUser), args.Error(1)
}

// MockUserStore is a mock implementation of services.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) UpsertFromGoogle(ctx context.Context, user *models.GoogleUser) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
