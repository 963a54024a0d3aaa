package cooldown

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submittedAt = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

func TestGuard_NoRecordIsInactive(t *testing.T) {
	g := NewGuard(NewMemoryStore(), 0)

	state, err := g.Check(submittedAt)
	require.NoError(t, err)
	assert.False(t, state.Active)
}

func TestGuard_RecordMakesActiveImmediately(t *testing.T) {
	g := NewGuard(NewMemoryStore(), 0)

	recorded, err := g.Record(submittedAt)
	require.NoError(t, err)
	assert.True(t, recorded.Active)
	assert.Equal(t, "24h 0m", recorded.Display())

	state, err := g.Check(submittedAt)
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, submittedAt.Add(24*time.Hour), state.EndsAt)
}

func TestGuard_EndsAtUsesCallerLocation(t *testing.T) {
	phoenix := time.FixedZone("MST", -7*60*60)
	now := submittedAt.In(phoenix)
	g := NewGuard(NewMemoryStore(), 0)

	recorded, err := g.Record(now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), recorded.EndsAt)
	assert.Equal(t, phoenix, recorded.EndsAt.Location())

	state, err := g.Check(now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), state.EndsAt)
	assert.Equal(t, phoenix, state.EndsAt.Location())
}

func TestGuard_ActiveOneMinuteBeforeExpiry(t *testing.T) {
	store := NewMemoryStore()
	g := NewGuard(store, 0)
	_, err := g.Record(submittedAt)
	require.NoError(t, err)

	state, err := g.Check(submittedAt.Add(23*time.Hour + 59*time.Minute))
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, time.Minute, state.Remaining)
	assert.Equal(t, "0h 1m", state.Display())

	state, err = g.Check(submittedAt.Add(23*time.Hour + 59*time.Minute + 30*time.Second))
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, "0h 0m", state.Display())
}

func TestGuard_ExpiredRecordIsCleared(t *testing.T) {
	store := NewMemoryStore()
	g := NewGuard(store, 0)
	_, err := g.Record(submittedAt)
	require.NoError(t, err)

	state, err := g.Check(submittedAt.Add(24*time.Hour + time.Minute))
	require.NoError(t, err)
	assert.False(t, state.Active)

	_, ok, err := store.Get(Key)
	require.NoError(t, err)
	assert.False(t, ok, "expired record should be removed")
}

func TestGuard_ExactlyAtExpiryIsInactive(t *testing.T) {
	g := NewGuard(NewMemoryStore(), 0)
	_, err := g.Record(submittedAt)
	require.NoError(t, err)

	state, err := g.Check(submittedAt.Add(24 * time.Hour))
	require.NoError(t, err)
	assert.False(t, state.Active)
}

func TestGuard_UnparseableRecordIsCleared(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(Key, "not-a-number"))
	g := NewGuard(store, 0)

	state, err := g.Check(submittedAt)
	require.NoError(t, err)
	assert.False(t, state.Active)

	_, ok, _ := store.Get(Key)
	assert.False(t, ok)
}

func TestGuard_StoresMilliseconds(t *testing.T) {
	store := NewMemoryStore()
	g := NewGuard(store, 0)
	_, err := g.Record(submittedAt)
	require.NoError(t, err)

	raw, ok, err := store.Get(Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strconv.FormatInt(submittedAt.UnixMilli(), 10), raw)
}

func TestGuard_Reset(t *testing.T) {
	g := NewGuard(NewMemoryStore(), 0)
	_, err := g.Record(submittedAt)
	require.NoError(t, err)
	require.NoError(t, g.Reset())

	state, err := g.Check(submittedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, state.Active)
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0h 0m"},
		{59 * time.Second, "0h 0m"},
		{59 * time.Minute, "0h 59m"},
		{5*time.Hour + 7*time.Minute + 59*time.Second, "5h 7m"},
		{-time.Minute, "0h 0m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRemaining(tt.in))
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	g := NewGuard(NewFileStore(path), 0)
	_, err := g.Record(submittedAt)
	require.NoError(t, err)

	reopened := NewGuard(NewFileStore(path), 0)
	state, err := reopened.Check(submittedAt.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, "23h 0m", state.Display())
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	_, ok, err := store.Get(Key)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.Delete(Key))
}

func TestFileStore_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store := NewFileStore(path)

	_, ok, err := store.Get(Key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(Key, "1"))
	v, ok, err := store.Get(Key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}
