package trend

import (
	"context"
	"math"
	"time"

	"github.com/gr-butler/highlow/env"
	"github.com/gr-butler/highlow/samples"
	logger "github.com/sirupsen/logrus"
)

type Trend string

const (
	Steady  Trend = "steady"
	Falling Trend = "falling"
	Rising  Trend = "rising"
)

// Classifier works out the pressure trend by comparing a new reading with the
// last one stored before the trend window.
type Classifier struct {
	store     *samples.Store
	threshold float64
	window    time.Duration
	now       func() time.Time
}

func NewClassifier(store *samples.Store, unitSystem string) *Classifier {
	threshold := env.MetricTrendThreshold
	if unitSystem == env.UnitsImperial {
		threshold = env.ImperialTrendThreshold
	}
	return &Classifier{
		store:     store,
		threshold: threshold,
		window:    env.TrendWindow,
		now:       time.Now,
	}
}

// Classify returns the trend and the pressure change. Changes inside the
// threshold are reported as steady with a delta of 0. A nil pressure is steady.
func (c *Classifier) Classify(ctx context.Context, pressure *float64) (Trend, float64, error) {
	if pressure == nil {
		return Steady, 0, nil
	}
	old := *pressure
	s, ok, err := c.store.Latest(ctx, samples.Pressure, c.now().Add(-c.window))
	if err != nil {
		logger.Errorf("Could not read pressure history [%v]", err)
		return Steady, 0, err
	}
	if ok && s.Value != nil {
		old = *s.Value
	}
	t, delta := classify(*pressure-old, c.threshold)
	return t, delta, nil
}

func classify(delta, threshold float64) (Trend, float64) {
	switch {
	case delta <= -threshold:
		return Falling, round2(delta)
	case delta >= threshold:
		return Rising, round2(delta)
	default:
		return Steady, 0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
