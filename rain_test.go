package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_weatherstation_addRain(t *testing.T) {
	ctx := context.Background()
	w, gw, _ := newTestStation(t)
	first := time.Date(2024, time.November, 3, 6, 10, 0, 0, time.UTC)

	w.addRain(ctx, 0, first.Add(-time.Hour))
	w.addRain(ctx, 0.4, first)
	w.addRain(ctx, 0.6, first.Add(20*time.Minute))

	s, err := gw.Snapshot(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.RainToday, 1e-9)
	assert.True(t, s.RainStart.Equal(first))
}
