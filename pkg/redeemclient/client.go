// Package redeemclient is the intake side of credit redemption: it acquires
// the device position, enforces the resubmission cooldown, validates the form
// and posts it to the redeem endpoint.
package redeemclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/internal/validation"
	"github.com/asucbc/cbc-api/pkg/cooldown"
	"github.com/asucbc/cbc-api/pkg/httpclient"
	"github.com/asucbc/cbc-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	// DefaultLocationTimeout bounds each position fix
	DefaultLocationTimeout = 10 * time.Second

	DefaultEndpoint = "http://localhost:8080/redeem"

	maxResponseBytes = 64 << 10
)

// Messages shown to the user for failures that never reach the server
const (
	MsgCooldownActive      = "You have already submitted a request. Please wait 24 hours before submitting again."
	MsgLocationUnavailable = "Location access is required. Please enable location services."
	MsgNetworkError        = "Network error. Please try again."
	MsgUnknownError        = "An error occurred while submitting the form"
)

var (
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrCooldownActive       = errors.New("submission cooldown active")
	ErrLocationUnavailable  = errors.New("location unavailable")
	ErrInvalidForm          = errors.New("invalid form")
)

// Form holds the fields the member fills in. Position is added at submit time.
type Form struct {
	FirstName          string
	LastName           string
	ASUEmail           string
	HasReceivedCredits *bool
	OrgID              string
}

// Config holds client configuration
type Config struct {
	Endpoint        string
	LocationTimeout time.Duration
}

// Result describes an accepted submission
type Result struct {
	Message  string
	Cooldown cooldown.State
}

// CooldownError is returned while a previous submission blocks a new one
type CooldownError struct {
	State cooldown.State
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s (%s remaining)", MsgCooldownActive, e.State.Display())
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// FormError carries per-field problems found before posting. Location holds
// the positioning failure, if that is why the location field is missing.
type FormError struct {
	Fields   validation.Errors
	Location error
}

func (e *FormError) Error() string {
	return e.Fields.Error()
}

func (e *FormError) Unwrap() []error {
	errs := []error{ErrInvalidForm}
	if e.Location != nil {
		errs = append(errs, e.Location)
	}
	return errs
}

// FieldMessages maps each field to the message to show next to it
func (e *FormError) FieldMessages() map[string]string {
	messages := e.Fields.Fields()
	if e.Location != nil {
		messages[validation.LocationField] = MsgLocationUnavailable
	}
	return messages
}

// SubmitError is a submission the server refused or never answered.
// Message is safe to show to the user.
type SubmitError struct {
	Outcome    Outcome
	StatusCode int
	Message    string
	Err        error
}

func (e *SubmitError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Outcome, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Outcome, e.StatusCode, e.Message)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Client submits redemption forms. It allows one submission at a time.
type Client struct {
	config   Config
	http     httpclient.Client
	location LocationProvider
	guard    *cooldown.Guard
	inFlight atomic.Bool
	now      func() time.Time
}

// New creates a client. Zero config values fall back to the defaults.
func New(cfg Config, httpClient httpclient.Client, location LocationProvider, guard *cooldown.Guard) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.LocationTimeout <= 0 {
		cfg.LocationTimeout = DefaultLocationTimeout
	}
	return &Client{
		config:   cfg,
		http:     httpClient,
		location: location,
		guard:    guard,
		now:      time.Now,
	}
}

// Cooldown reports the current cooldown state
func (c *Client) Cooldown() (cooldown.State, error) {
	return c.guard.Check(c.now())
}

// Submit checks the cooldown, takes a fresh position fix, validates the form
// and posts it. The cooldown starts only when the server accepts.
func (c *Client) Submit(ctx context.Context, form Form) (*Result, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInProgress
	}
	defer c.inFlight.Store(false)

	state, err := c.guard.Check(c.now())
	if err != nil {
		return nil, err
	}
	if state.Active {
		return nil, &CooldownError{State: state}
	}

	req := &models.RedeemRequest{
		FirstName:          form.FirstName,
		LastName:           form.LastName,
		ASUEmail:           form.ASUEmail,
		HasReceivedCredits: form.HasReceivedCredits,
		OrgID:              form.OrgID,
	}

	locErr := c.locate(ctx, req)
	if errs := validation.Redemption(req); errs != nil {
		return nil, &FormError{Fields: errs, Location: locErr}
	}
	req.Normalize()

	message, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}

	recorded, err := c.guard.Record(c.now())
	if err != nil {
		// Accepted by the server; only the local timer failed
		logger.Warn("Failed to record submission cooldown", zap.Error(err))
	}

	return &Result{Message: message, Cooldown: recorded}, nil
}

// locate fills the request coordinates from a fresh fix bounded by the
// configured timeout
func (c *Client) locate(ctx context.Context, req *models.RedeemRequest) error {
	if c.location == nil {
		return ErrLocationUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.LocationTimeout)
	defer cancel()

	p, err := c.location.Locate(ctx)
	if err != nil {
		logger.Warn("Could not acquire location", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}

	req.Latitude = &p.Lat
	req.Longitude = &p.Lon
	return nil
}

type responseBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) post(ctx context.Context, req *models.RedeemRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode redemption: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create redemption request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &SubmitError{Outcome: OutcomeNetworkError, Message: MsgNetworkError, Err: err}
	}
	defer resp.Body.Close()

	var body responseBody
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr == nil {
		_ = json.Unmarshal(raw, &body) //nolint:errcheck // non-JSON bodies fall back to generic messages
	}

	if resp.StatusCode == http.StatusOK {
		return body.Message, nil
	}

	message := body.Error
	if message == "" {
		message = MsgUnknownError
	}
	outcome := Classify(resp.StatusCode)
	logger.Info("Redemption refused",
		zap.Int("status_code", resp.StatusCode),
		zap.String("outcome", string(outcome)))

	return "", &SubmitError{Outcome: outcome, StatusCode: resp.StatusCode, Message: message}
}
