package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/asucbc/cbc-api/config"
	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/internal/validation"
	"github.com/asucbc/cbc-api/pkg/discord"
	apperrors "github.com/asucbc/cbc-api/pkg/errors"
	"github.com/asucbc/cbc-api/pkg/failover"
	"github.com/asucbc/cbc-api/pkg/geo"
	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/asucbc/cbc-api/pkg/metrics"
	"github.com/asucbc/cbc-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MaxDistanceFeet is the largest accepted distance from the event, inclusive
const MaxDistanceFeet = 150.0

const (
	redeemMessageContent = "New Claude Credits Redemption Request"
	redeemEmbedTitle     = "Claude API Credits Redemption"
	redeemEmbedColor     = 16763802
)

// Redemption errors. Each wraps the kind handlers map to a status class.
var (
	ErrMissingFields         = fmt.Errorf("missing required fields: %w", apperrors.ErrInvalidInput)
	ErrInvalidEmail          = fmt.Errorf("email must end with .edu: %w", apperrors.ErrInvalidInput)
	ErrMalformedEmail        = fmt.Errorf("malformed email address: %w", apperrors.ErrInvalidInput)
	ErrLocationNotConfigured = fmt.Errorf("event location: %w", apperrors.ErrNotConfigured)
	ErrTooFar                = fmt.Errorf("outside event radius: %w", apperrors.ErrAccessDenied)
	ErrWebhookNotConfigured  = fmt.Errorf("redeem webhooks: %w", apperrors.ErrNotConfigured)
	ErrDeliveryFailed        = fmt.Errorf("redeem delivery: %w", apperrors.ErrUnavailable)
)

// Notifier delivers a message to one webhook endpoint
type Notifier interface {
	Send(ctx context.Context, webhookURL string, msg *discord.Message) error
}

// RedeemService verifies a redemption and forwards it to the first webhook
// that accepts it. It holds no per-request state.
type RedeemService struct {
	config   config.RedeemConfig
	notifier Notifier
	now      func() time.Time
}

// NewRedeemService creates a new redeem service instance
func NewRedeemService(cfg config.RedeemConfig, notifier Notifier) *RedeemService {
	return &RedeemService{
		config:   cfg,
		notifier: notifier,
		now:      time.Now,
	}
}

// Redeem runs the checks in order and stops at the first failure:
// fields, email, event location, distance, webhooks, delivery.
func (s *RedeemService) Redeem(ctx context.Context, req *models.RedeemRequest) error {
	ctx, span := tracing.StartSpan(ctx, "redeem.submit",
		attribute.Int("redeem.webhook_count", len(s.config.WebhookURLs)),
		attribute.Bool("redeem.location_configured", s.config.LocationConfigured()))
	defer span.End()

	err := s.redeem(ctx, req)
	tracing.RecordError(span, err)
	return err
}

func (s *RedeemService) redeem(ctx context.Context, req *models.RedeemRequest) error {
	if errs := validation.Redemption(req); errs != nil {
		return s.rejectInvalid(errs)
	}

	normalized := *req
	normalized.Normalize()

	if !s.config.LocationConfigured() {
		s.record(models.OutcomeLocationNotConfigured)
		logger.Error("EVENT_GPS_LAT or EVENT_GPS_LONG not configured")
		return ErrLocationNotConfigured
	}

	submitted := geo.Point{Lat: *normalized.Latitude, Lon: *normalized.Longitude}
	distance, within := geo.WithinFeet(submitted, *s.config.EventLocation, MaxDistanceFeet)
	metrics.RedeemDistanceFeet.Observe(distance)

	if !within {
		s.record(models.OutcomeTooFar)
		logger.Info("Location verification failed",
			zap.Float64("distance_feet", distance),
			zap.Float64("max_distance_feet", MaxDistanceFeet))
		return fmt.Errorf("%.2f feet away: %w", distance, ErrTooFar)
	}

	logger.Info("Location verified", zap.Float64("distance_feet", distance))

	if len(s.config.WebhookURLs) == 0 {
		s.record(models.OutcomeNoEndpoints)
		logger.Error("No Discord webhook URLs configured")
		return ErrWebhookNotConfigured
	}

	msg := s.buildMessage(&normalized)

	index, err := failover.First(ctx, failover.Config{
		AttemptTimeout: time.Duration(s.config.WebhookTimeoutSeconds) * time.Second,
		Operation:      "redeem_webhook",
		Describe: func(i int, target string) string {
			return fmt.Sprintf("#%d (%s)", i, discord.Host(target))
		},
	}, s.config.WebhookURLs, func(ctx context.Context, target string) error {
		return s.notifier.Send(ctx, target, msg)
	})
	if err != nil {
		if errors.Is(err, failover.ErrNoTargets) {
			s.record(models.OutcomeNoEndpoints)
			logger.Error("No Discord webhook URLs configured")
			return ErrWebhookNotConfigured
		}
		s.record(models.OutcomeDeliveryFailed)
		return errors.Join(ErrDeliveryFailed, err)
	}

	s.record(models.OutcomeDelivered)
	logger.Info("Redemption delivered", zap.Int("webhook_index", index))
	return nil
}

func (s *RedeemService) rejectInvalid(errs validation.Errors) error {
	if errs.Has(validation.CodeRequired) {
		s.record(models.OutcomeMissingFields)
		return fmt.Errorf("%w (%s)", ErrMissingFields, errs.Error())
	}

	s.record(models.OutcomeInvalidEmail)
	if errs.Has(validation.CodeEmailDomain) {
		return ErrInvalidEmail
	}
	return ErrMalformedEmail
}

func (s *RedeemService) record(outcome models.RedeemOutcome) {
	metrics.RedeemOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (s *RedeemService) buildMessage(req *models.RedeemRequest) *discord.Message {
	lat, lon := *req.Latitude, *req.Longitude

	received := "No"
	if *req.HasReceivedCredits {
		received = "Yes"
	}

	embed := discord.Embed{
		Title: redeemEmbedTitle,
		Color: redeemEmbedColor,
		Fields: []discord.EmbedField{
			{Name: "First Name", Value: req.FirstName, Inline: true},
			{Name: "Last Name", Value: req.LastName, Inline: true},
			{Name: "ASU Email", Value: req.ASUEmail},
			{Name: "Has Received Credits", Value: received, Inline: true},
			{Name: "Claude Org ID", Value: req.OrgID},
			{Name: "Location", Value: fmt.Sprintf("Lat: %.6f, Long: %.6f", lat, lon)},
			{Name: "Google Maps", Value: fmt.Sprintf("[View on Map](https://www.google.com/maps?q=%s,%s)", formatCoord(lat), formatCoord(lon))},
		},
		Timestamp: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if s.config.ThumbnailURL != "" {
		embed.Thumbnail = &discord.Thumbnail{URL: s.config.ThumbnailURL}
	}

	return &discord.Message{
		Content:     redeemMessageContent,
		Embeds:      []discord.Embed{embed},
		Attachments: []string{},
	}
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
