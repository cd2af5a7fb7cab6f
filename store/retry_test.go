package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gr-butler/highlow/apperr"
	"github.com/gr-butler/highlow/env"
	"github.com/gr-butler/highlow/extremum"
	"github.com/gr-butler/highlow/store"
	"github.com/gr-butler/highlow/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubborn fails the first failures calls to Apply with err
type stubborn struct {
	*memory.Gateway
	failures int
	err      error
	calls    int
}

func (s *stubborn) Apply(ctx context.Context, sensorID string, u extremum.Update) error {
	s.calls++
	if s.calls <= s.failures {
		return s.err
	}
	return s.Gateway.Apply(ctx, sensorID, u)
}

func newStubborn(t *testing.T, failures int, err error) *stubborn {
	gw := memory.New()
	require.NoError(t, store.Prepare(context.Background(), gw, gw, env.SchemaVersion, extremum.Catalogue, ""))
	return &stubborn{Gateway: gw, failures: failures, err: err}
}

var reading = extremum.Update{extremum.Latest: extremum.At(3, time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC))}

func TestRetryRecovers(t *testing.T) {
	s := newStubborn(t, 2, apperr.NewPersistenceError("busy", errors.New("deadlock detected")))
	gw := store.WithRetry(s, 3, 0)

	require.NoError(t, gw.Apply(context.Background(), extremum.UV, reading))
	assert.Equal(t, 3, s.calls)
}

func TestRetryIsBounded(t *testing.T) {
	s := newStubborn(t, 10, apperr.NewPersistenceError("down", errors.New("connection refused")))
	gw := store.WithRetry(s, 3, time.Millisecond)

	err := gw.Apply(context.Background(), extremum.UV, reading)
	assert.True(t, apperr.IsPersistence(err))
	assert.Equal(t, 3, s.calls)
}

func TestRetrySkipsPermanentErrors(t *testing.T) {
	for _, err := range []error{
		apperr.NewNotFoundError("no row", nil),
		apperr.NewValidationError("bad field", nil),
		apperr.NewConfigurationError("unknown sensor", nil),
	} {
		s := newStubborn(t, 10, err)
		got := store.WithRetry(s, 3, 0).Apply(context.Background(), extremum.UV, reading)
		assert.Equal(t, err, got)
		assert.Equal(t, 1, s.calls)
	}
}

func TestRetryStopsWhenCancelled(t *testing.T) {
	s := newStubborn(t, 10, errors.New("timeout"))
	gw := store.WithRetry(s, 5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, gw.Apply(ctx, extremum.UV, reading))
	assert.Equal(t, 1, s.calls)
}

func TestRetryAtLeastOnce(t *testing.T) {
	s := newStubborn(t, 0, nil)
	require.NoError(t, store.WithRetry(s, 0, 0).Apply(context.Background(), extremum.UV, reading))
	assert.Equal(t, 1, s.calls)
}
