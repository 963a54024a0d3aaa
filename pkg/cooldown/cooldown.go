// Package cooldown enforces a client-side resubmission window. It is advisory:
// anyone who clears the store can submit again.
package cooldown

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/asucbc/cbc-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	// Key is the store entry holding the last submission time in ms since epoch
	Key = "claudeRedeemLastSubmission"

	// DefaultWindow is how long a successful submission blocks the next one
	DefaultWindow = 24 * time.Hour
)

// State describes the cooldown at a point in time
type State struct {
	Active    bool
	EndsAt    time.Time
	Remaining time.Duration
}

// Display renders the remaining time as "<h>h <m>m", rounding down
func (s State) Display() string {
	return FormatRemaining(s.Remaining)
}

// FormatRemaining renders d as "<h>h <m>m", rounding down to the minute
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// Guard reads and writes the cooldown record
type Guard struct {
	store  Store
	window time.Duration
}

// NewGuard creates a guard over store. A non-positive window uses DefaultWindow.
func NewGuard(store Store, window time.Duration) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{store: store, window: window}
}

// Check reports whether a cooldown is active at now. Expired or unreadable
// records are removed.
func (g *Guard) Check(now time.Time) (State, error) {
	raw, ok, err := g.store.Get(Key)
	if err != nil {
		return State{}, fmt.Errorf("failed to read cooldown: %w", err)
	}
	if !ok {
		return State{}, nil
	}

	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		logger.Warn("Discarding unreadable cooldown record", zap.String("value", raw))
		return State{}, g.clear()
	}

	endsAt := g.endsAt(ms, now.Location())
	if !now.Before(endsAt) {
		return State{}, g.clear()
	}

	return State{Active: true, EndsAt: endsAt, Remaining: endsAt.Sub(now)}, nil
}

// Record stores now as the last successful submission
func (g *Guard) Record(now time.Time) (State, error) {
	if err := g.store.Set(Key, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		return State{}, fmt.Errorf("failed to record cooldown: %w", err)
	}
	endsAt := g.endsAt(now.UnixMilli(), now.Location())
	return State{Active: true, EndsAt: endsAt, Remaining: endsAt.Sub(now)}, nil
}

// endsAt is reported in loc so callers get times in the zone they passed in
func (g *Guard) endsAt(ms int64, loc *time.Location) time.Time {
	return time.UnixMilli(ms).In(loc).Add(g.window)
}

// Reset removes any recorded submission
func (g *Guard) Reset() error {
	return g.clear()
}

func (g *Guard) clear() error {
	if err := g.store.Delete(Key); err != nil {
		return fmt.Errorf("failed to clear cooldown: %w", err)
	}
	return nil
}
