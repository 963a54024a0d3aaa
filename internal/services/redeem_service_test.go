package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/asucbc/cbc-api/config"
	"github.com/asucbc/cbc-api/internal/services"
	"github.com/asucbc/cbc-api/pkg/discord"
	apperrors "github.com/asucbc/cbc-api/pkg/errors"
	"github.com/asucbc/cbc-api/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func redeemConfig(webhooks ...string) config.RedeemConfig {
	loc := eventLocation
	return config.RedeemConfig{
		EventLocation:         &loc,
		WebhookURLs:           webhooks,
		WebhookTimeoutSeconds: 5,
		ThumbnailURL:          "https://asucbc.vercel.app/staff/claude.svg",
	}
}

func TestRedeemService_WithinRadiusDelivers(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("Send", mock.Anything, "https://a.example/hook", mock.Anything).Return(nil).Once()
	svc := services.NewRedeemService(redeemConfig("https://a.example/hook"), notifier)

	err := svc.Redeem(context.Background(), redeemRequestAt(northOf(eventLocation, 10)))
	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestRedeemService_ExactBoundary(t *testing.T) {
	t.Run("149.99 feet accepted", func(t *testing.T) {
		notifier := new(MockNotifier)
		notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		svc := services.NewRedeemService(redeemConfig("https://a.example/hook"), notifier)

		assert.NoError(t, svc.Redeem(context.Background(), redeemRequestAt(northOf(eventLocation, 149.99))))
	})

	t.Run("150.01 feet rejected", func(t *testing.T) {
		notifier := new(MockNotifier)
		svc := services.NewRedeemService(redeemConfig("https://a.example/hook"), notifier)

		err := svc.Redeem(context.Background(), redeemRequestAt(northOf(eventLocation, 150.01)))
		assert.ErrorIs(t, err, services.ErrTooFar)
		notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRedeemService_TooFarNeverDelivers(t *testing.T) {
	notifier := new(MockNotifier)
	svc := services.NewRedeemService(redeemConfig("https://a.example/hook"), notifier)

	err := svc.Redeem(context.Background(), redeemRequestAt(northOf(eventLocation, 500)))
	assert.ErrorIs(t, err, services.ErrTooFar)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestRedeemService_LocationNotConfigured(t *testing.T) {
	notifier := new(MockNotifier)
	cfg := redeemConfig("https://a.example/hook")
	cfg.EventLocation = nil
	svc := services.NewRedeemService(cfg, notifier)

	err := svc.Redeem(context.Background(), redeemRequestAt(eventLocation))
	assert.ErrorIs(t, err, services.ErrLocationNotConfigured)
	assert.ErrorIs(t, err, apperrors.ErrNotConfigured)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestRedeemService_ZeroEventCoordinatesAreConfigured(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cfg := redeemConfig("https://a.example/hook")
	cfg.EventLocation = &geo.Point{Lat: 0, Lon: 0}
	svc := services.NewRedeemService(cfg, notifier)

	err := svc.Redeem(context.Background(), redeemRequestAt(geo.Point{Lat: 0, Lon: 0}))
	assert.NoError(t, err)
}

func TestRedeemService_NonEduEmailRejectedBeforeDistance(t *testing.T) {
	notifier := new(MockNotifier)
	cfg := redeemConfig("https://a.example/hook")
	cfg.EventLocation = nil
	svc := services.NewRedeemService(cfg, notifier)

	req := redeemRequestAt(northOf(eventLocation, 5000))
	req.ASUEmail = "user@asu.com"

	err := svc.Redeem(context.Background(), req)
	assert.ErrorIs(t, err, services.ErrInvalidEmail)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestRedeemService_MalformedEmail(t *testing.T) {
	svc := services.NewRedeemService(redeemConfig("https://a.example/hook"), new(MockNotifier))

	req := redeemRequestAt(eventLocation)
	req.ASUEmail = "not an email.edu"

	err := svc.Redeem(context.Background(), req)
	assert.ErrorIs(t, err, services.ErrMalformedEmail)
}

func TestRedeemService_MissingFieldsWinOverEmail(t *testing.T) {
	svc := services.NewRedeemService(redeemConfig("https://a.example/hook"), new(MockNotifier))

	req := redeemRequestAt(eventLocation)
	req.ASUEmail = "user@gmail.com"
	req.Latitude = nil

	err := svc.Redeem(context.Background(), req)
	assert.ErrorIs(t, err, services.ErrMissingFields)
	assert.NotErrorIs(t, err, services.ErrInvalidEmail)
}

func TestRedeemService_NoWebhooks(t *testing.T) {
	svc := services.NewRedeemService(redeemConfig(), new(MockNotifier))

	err := svc.Redeem(context.Background(), redeemRequestAt(eventLocation))
	assert.ErrorIs(t, err, services.ErrWebhookNotConfigured)
}

func TestRedeemService_FailoverStopsAtFirstSuccess(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("Send", mock.Anything, "https://a.example/hook", mock.Anything).Return(&discord.StatusError{StatusCode: 500}).Once()
	notifier.On("Send", mock.Anything, "https://b.example/hook", mock.Anything).Return(nil).Once()
	svc := services.NewRedeemService(redeemConfig("https://a.example/hook", "https://b.example/hook", "https://c.example/hook"), notifier)

	err := svc.Redeem(context.Background(), redeemRequestAt(eventLocation))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example/hook", "https://b.example/hook"}, notifier.targets())
	notifier.AssertNotCalled(t, "Send", mock.Anything, "https://c.example/hook", mock.Anything)
}

func TestRedeemService_AllWebhooksFailInOrder(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	svc := services.NewRedeemService(redeemConfig("https://a.example/hook", "https://b.example/hook", "https://c.example/hook"), notifier)

	err := svc.Redeem(context.Background(), redeemRequestAt(eventLocation))
	assert.ErrorIs(t, err, services.ErrDeliveryFailed)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.Equal(t, []string{"https://a.example/hook", "https://b.example/hook", "https://c.example/hook"}, notifier.targets())
}

// blockingNotifier never answers until its context ends
type blockingNotifier struct {
	calls []string
}

func (n *blockingNotifier) Send(ctx context.Context, webhookURL string, _ *discord.Message) error {
	n.calls = append(n.calls, webhookURL)
	if webhookURL == "https://slow.example/hook" {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func TestRedeemService_TimedOutAttemptFailsOver(t *testing.T) {
	notifier := &blockingNotifier{}
	cfg := redeemConfig("https://slow.example/hook", "https://fast.example/hook")
	cfg.WebhookTimeoutSeconds = 1
	svc := services.NewRedeemService(cfg, notifier)

	start := time.Now()
	err := svc.Redeem(context.Background(), redeemRequestAt(eventLocation))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, []string{"https://slow.example/hook", "https://fast.example/hook"}, notifier.calls)
}

func TestRedeemService_MessageShape(t *testing.T) {
	notifier := new(MockNotifier)
	var sent *discord.Message
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(2).(*discord.Message) }).
		Return(nil)
	svc := services.NewRedeemService(redeemConfig("https://a.example/hook"), notifier)

	req := redeemRequestAt(eventLocation)
	req.FirstName = "  Sparky "
	req.HasReceivedCredits = boolPtr(false)

	require.NoError(t, svc.Redeem(context.Background(), req))
	require.NotNil(t, sent)

	assert.Equal(t, "New Claude Credits Redemption Request", sent.Content)
	require.Len(t, sent.Embeds, 1)
	embed := sent.Embeds[0]
	assert.Equal(t, "Claude API Credits Redemption", embed.Title)
	assert.Equal(t, 16763802, embed.Color)
	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, "https://asucbc.vercel.app/staff/claude.svg", embed.Thumbnail.URL)

	_, err := time.Parse(time.RFC3339, embed.Timestamp)
	assert.NoError(t, err)

	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "Sparky", values["First Name"])
	assert.Equal(t, "No", values["Has Received Credits"])
	assert.Equal(t, "Lat: 33.424200, Long: -111.928100", values["Location"])
	assert.Equal(t, "[View on Map](https://www.google.com/maps?q=33.4242,-111.9281)", values["Google Maps"])
	assert.NotNil(t, sent.Attachments)
}
