package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clawarena/config"
)

type fixedCounter struct{ n int }

func (f fixedCounter) ActiveCount() int { return f.n }

func TestIsPeakAndWeekend(t *testing.T) {
	peak := time.Date(2026, 8, 4, 15, 0, 0, 0, time.UTC) // Tuesday
	require.True(t, IsPeak(peak))
	require.False(t, IsWeekend(peak))

	offPeak := time.Date(2026, 8, 4, 3, 0, 0, 0, time.UTC)
	require.False(t, IsPeak(offPeak))

	weekend := time.Date(2026, 8, 8, 15, 0, 0, 0, time.UTC) // Saturday
	require.True(t, IsWeekend(weekend))
}

func TestCycleCreatesWhenBelowMinActive(t *testing.T) {
	var created []CreationParams
	createFn := func(ctx context.Context, p CreationParams) error {
		created = append(created, p)
		return nil
	}
	a := New(config.DefaultTierPolicies(), fixedCounter{n: 0}, createFn,
		WithClock(func() time.Time { return time.Date(2026, 8, 4, 15, 0, 0, 0, time.UTC) }))

	err := a.Cycle(context.Background())
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.NotEmpty(t, created[0].Name)
	require.NotNil(t, created[0].EntryFee)
}

func TestCycleWaitsWhenAtMaxActiveAndLowConfidence(t *testing.T) {
	createFn := func(ctx context.Context, p CreationParams) error {
		t.Fatal("should not create")
		return nil
	}
	a := New(config.DefaultTierPolicies(), fixedCounter{n: MaxActive}, createFn,
		WithClock(func() time.Time { return time.Date(2026, 8, 4, 3, 0, 0, 0, time.UTC) }))

	err := a.Cycle(context.Background())
	require.NoError(t, err)
}

func TestRetryWithBackoffOnCreationFailure(t *testing.T) {
	attempts := 0
	createFn := func(ctx context.Context, p CreationParams) error {
		attempts++
		return assertErr
	}
	var slept []time.Duration
	a := New(config.DefaultTierPolicies(), fixedCounter{n: 0}, createFn,
		WithClock(func() time.Time { return time.Date(2026, 8, 4, 15, 0, 0, 0, time.UTC) }),
		WithSleep(func(d time.Duration) { slept = append(slept, d) }))

	err := a.Cycle(context.Background())
	require.Error(t, err)
	require.Equal(t, CreationRetryAttempts, attempts)
	require.Len(t, slept, CreationRetryAttempts-1)
}

func TestTierPausesAfterConsecutiveFailures(t *testing.T) {
	a := New(config.DefaultTierPolicies(), fixedCounter{n: 0}, func(ctx context.Context, p CreationParams) error { return nil },
		WithClock(func() time.Time { return time.Date(2026, 8, 4, 15, 0, 0, 0, time.UTC) }))

	a.RecordFillOutcome("MICRO", false, 0.1)
	a.RecordFillOutcome("MICRO", false, 0.1)
	a.RecordFillOutcome("MICRO", false, 0.1)
	require.True(t, a.paused("MICRO"))
}

func TestRecordFinalizeSetsNextTournamentETAInFuture(t *testing.T) {
	a := New(config.DefaultTierPolicies(), fixedCounter{n: 0}, func(ctx context.Context, p CreationParams) error { return nil })
	now := time.Date(2026, 8, 4, 15, 0, 0, 0, time.UTC)
	a.RecordFinalize(now)
	require.True(t, a.NextTournamentETA().After(now))
}

type sentinelErr struct{}

func (sentinelErr) Error() string { return "create failed" }

var assertErr = sentinelErr{}
