package samples

import (
	"context"
	"fmt"
	"time"

	"github.com/gr-butler/highlow/apperr"
	logger "github.com/sirupsen/logrus"
)

type Kind string

const (
	Pressure  Kind = "pressure"
	Lightning Kind = "lightning"
)

func (k Kind) Valid() bool {
	return k == Pressure || k == Lightning
}

// Sample is one entry in a sliding log. Lightning samples carry no value; the
// sample itself is the strike.
type Sample struct {
	Kind  Kind
	Time  time.Time
	Value *float64
}

// Log is the part of the persistence gateway that holds samples.
type Log interface {
	Append(ctx context.Context, s Sample) error
	// Latest returns the newest sample strictly before t, ok is false when there is none.
	Latest(ctx context.Context, kind Kind, before time.Time) (s Sample, ok bool, err error)
	// CountSince counts samples strictly after t.
	CountSince(ctx context.Context, kind Kind, after time.Time) (int, error)
	// DeleteThrough removes samples at or before t and returns how many went.
	DeleteThrough(ctx context.Context, kind Kind, cutoff time.Time) (int64, error)
}

// Store is the sliding-window sample store. Every query applies its own time
// predicate, pruning only keeps the log small.
type Store struct {
	log Log
}

func NewStore(log Log) *Store {
	return &Store{log: log}
}

func (s *Store) Append(ctx context.Context, kind Kind, ts time.Time, value *float64) error {
	if !kind.Valid() {
		return apperr.NewValidationError(fmt.Sprintf("unknown sample kind [%v]", kind), nil)
	}
	if kind == Lightning {
		value = nil
	}
	return s.log.Append(ctx, Sample{Kind: kind, Time: ts, Value: value})
}

// PruneOlderThan removes samples at or before now - horizon.
func (s *Store) PruneOlderThan(ctx context.Context, kind Kind, horizon time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-horizon)
	n, err := s.log.DeleteThrough(ctx, kind, cutoff)
	if err != nil {
		return 0, err
	}
	logger.Debugf("Pruned [%v] %v samples at or before [%v]", n, kind, cutoff.Format(time.RFC3339))
	return n, nil
}

func (s *Store) Latest(ctx context.Context, kind Kind, before time.Time) (Sample, bool, error) {
	return s.log.Latest(ctx, kind, before)
}

func (s *Store) CountSince(ctx context.Context, kind Kind, after time.Time) (int, error) {
	return s.log.CountSince(ctx, kind, after)
}
