package trend

import (
	"context"
	"testing"
	"time"

	"github.com/gr-butler/highlow/env"
	"github.com/gr-butler/highlow/extremum"
	"github.com/gr-butler/highlow/samples"
	"github.com/gr-butler/highlow/store"
	"github.com/gr-butler/highlow/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.October, 2, 18, 0, 0, 0, time.UTC)

func newClassifier(t *testing.T, units string, history ...float64) *Classifier {
	ctx := context.Background()
	gw := memory.New()
	require.NoError(t, store.Prepare(ctx, gw, gw, env.SchemaVersion, extremum.Catalogue, ""))
	s := samples.NewStore(gw)
	// oldest first, the last one lands just outside the window
	for i, p := range history {
		p := p
		ts := now.Add(-env.TrendWindow - time.Duration(len(history)-i)*time.Minute)
		require.NoError(t, s.Append(ctx, samples.Pressure, ts, &p))
	}
	c := NewClassifier(s, units)
	c.now = func() time.Time { return now }
	return c
}

func pressure(v float64) *float64 {
	return &v
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		units   string
		history []float64
		reading *float64
		trend   Trend
		delta   float64
	}{
		{"rising", env.UnitsMetric, []float64{1013.0}, pressure(1014.2), Rising, 1.2},
		{"steady", env.UnitsMetric, []float64{1013.0}, pressure(1013.5), Steady, 0},
		{"falling", env.UnitsMetric, []float64{1013.0}, pressure(1011.9), Falling, -1.1},
		{"uses newest outside window", env.UnitsMetric, []float64{1020.0, 1013.0}, pressure(1014.2), Rising, 1.2},
		{"no history", env.UnitsMetric, nil, pressure(1014.2), Steady, 0},
		{"no reading", env.UnitsMetric, []float64{1013.0}, nil, Steady, 0},
		{"imperial rising", env.UnitsImperial, []float64{29.90}, pressure(29.95), Rising, 0.05},
		{"imperial steady", env.UnitsImperial, []float64{29.90}, pressure(29.92), Steady, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClassifier(t, tt.units, tt.history...)
			trend, delta, err := c.Classify(context.Background(), tt.reading)
			require.NoError(t, err)
			assert.Equal(t, tt.trend, trend)
			assert.InDelta(t, tt.delta, delta, 1e-9)
		})
	}
}

func TestIgnoresSamplesInsideWindow(t *testing.T) {
	ctx := context.Background()
	c := newClassifier(t, env.UnitsMetric, 1013.0)
	recent := 1020.0
	require.NoError(t, c.store.Append(ctx, samples.Pressure, now.Add(-time.Hour), &recent))

	trend, delta, err := c.Classify(ctx, pressure(1014.2))
	require.NoError(t, err)
	assert.Equal(t, Rising, trend)
	assert.InDelta(t, 1.2, delta, 1e-9)
}

func TestThresholdIsInclusive(t *testing.T) {
	trend, delta := classify(-1.0, env.MetricTrendThreshold)
	assert.Equal(t, Falling, trend)
	assert.Equal(t, -1.0, delta)

	trend, delta = classify(1.0, env.MetricTrendThreshold)
	assert.Equal(t, Rising, trend)
	assert.Equal(t, 1.0, delta)

	trend, _ = classify(0.99, env.MetricTrendThreshold)
	assert.Equal(t, Steady, trend)
}
