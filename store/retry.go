package store

import (
	"context"
	"time"

	"github.com/gr-butler/highlow/apperr"
	"github.com/gr-butler/highlow/extremum"
	"github.com/gr-butler/highlow/samples"
	logger "github.com/sirupsen/logrus"
)

// retrying wraps a gateway so every call is tried a bounded number of times.
type retrying struct {
	gw       Gateway
	attempts int
	delay    time.Duration
}

// WithRetry retries failed persistence calls up to attempts times, waiting
// delay between tries. Configuration, validation and not found errors are
// returned straight away.
func WithRetry(gw Gateway, attempts int, delay time.Duration) Gateway {
	if attempts < 1 {
		attempts = 1
	}
	return &retrying{gw: gw, attempts: attempts, delay: delay}
}

func (r *retrying) do(ctx context.Context, op string, fn func() error) error {
	var err error
	for i := 1; i <= r.attempts; i++ {
		err = fn()
		if err == nil || !retryable(err) {
			return err
		}
		if i == r.attempts {
			break
		}
		logger.Warnf("Gateway %v failed, attempt [%v/%v] [%v]", op, i, r.attempts, err)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(r.delay):
		}
	}
	return err
}

func retryable(err error) bool {
	return !(apperr.IsConfiguration(err) || apperr.IsValidation(err) || apperr.IsNotFound(err))
}

func (r *retrying) Row(ctx context.Context, sensorID string) (extremum.Row, error) {
	var row extremum.Row
	err := r.do(ctx, "row", func() (err error) {
		row, err = r.gw.Row(ctx, sensorID)
		return err
	})
	return row, err
}

func (r *retrying) Apply(ctx context.Context, sensorID string, u extremum.Update) error {
	return r.do(ctx, "apply", func() error {
		return r.gw.Apply(ctx, sensorID, u)
	})
}

func (r *retrying) Append(ctx context.Context, s samples.Sample) error {
	return r.do(ctx, "append", func() error {
		return r.gw.Append(ctx, s)
	})
}

func (r *retrying) Latest(ctx context.Context, kind samples.Kind, before time.Time) (samples.Sample, bool, error) {
	var (
		s  samples.Sample
		ok bool
	)
	err := r.do(ctx, "latest", func() (err error) {
		s, ok, err = r.gw.Latest(ctx, kind, before)
		return err
	})
	return s, ok, err
}

func (r *retrying) CountSince(ctx context.Context, kind samples.Kind, after time.Time) (int, error) {
	var n int
	err := r.do(ctx, "count", func() (err error) {
		n, err = r.gw.CountSince(ctx, kind, after)
		return err
	})
	return n, err
}

func (r *retrying) DeleteThrough(ctx context.Context, kind samples.Kind, cutoff time.Time) (int64, error) {
	var n int64
	err := r.do(ctx, "delete", func() (err error) {
		n, err = r.gw.DeleteThrough(ctx, kind, cutoff)
		return err
	})
	return n, err
}

func (r *retrying) Initialize(ctx context.Context, sensors []extremum.Sensor) error {
	return r.do(ctx, "initialize", func() error {
		return r.gw.Initialize(ctx, sensors)
	})
}

func (r *retrying) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := r.do(ctx, "snapshot", func() (err error) {
		s, err = r.gw.Snapshot(ctx)
		return err
	})
	return s, err
}

func (r *retrying) PutSnapshot(ctx context.Context, s Snapshot) error {
	return r.do(ctx, "put snapshot", func() error {
		return r.gw.PutSnapshot(ctx, s)
	})
}

func (r *retrying) Close() error {
	return r.gw.Close()
}
