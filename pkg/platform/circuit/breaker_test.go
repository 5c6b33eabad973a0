package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("holder-storage",
		WithFailureThreshold(2),
		WithCooldown(time.Minute),
		WithClock(func() time.Time { return now }),
	)

	assert.True(t, b.Allow())
	assert.False(t, b.RecordFailure())
	assert.True(t, b.RecordFailure())
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	now = now.Add(time.Minute)
	assert.True(t, b.Allow(), "trial call admitted after cooldown")

	assert.True(t, b.RecordSuccess())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_FailedTrialRestartsCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("holder-storage", WithFailureThreshold(1), WithCooldown(time.Second),
		WithClock(func() time.Time { return now }))

	b.RecordFailure()
	now = now.Add(time.Second)
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.False(t, b.Allow())
	assert.Equal(t, "open", b.State().String())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("holder-storage", WithFailureThreshold(2))
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}
