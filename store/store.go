package store

import (
	"context"
	"time"

	"github.com/gr-butler/highlow/extremum"
	"github.com/gr-butler/highlow/samples"
)

// Snapshot holds the cumulative counters that survive a restart. Its daily
// totals are rolled by RollDay, separately from the extremum rows.
type Snapshot struct {
	RainToday             float64   `json:"rain_today"`
	RainYesterday         float64   `json:"rain_yesterday"`
	RainStart             time.Time `json:"rain_start"`
	RainDurationToday     float64   `json:"rain_duration_today"`
	RainDurationYesterday float64   `json:"rain_duration_yesterday"`
	LightningCount        int       `json:"lightning_count"`
	LightningCountToday   int       `json:"lightning_count_today"`
	LastLightningTime     time.Time `json:"last_lightning_time"`
	LastLightningDistance float64   `json:"last_lightning_distance"`
	LastLightningEnergy   float64   `json:"last_lightning_energy"`
	RolledOver            time.Time `json:"rolled_over"`
}

// RollDay moves today's totals into yesterday and clears them. It reports
// false, and changes nothing, when the snapshot was already rolled on now's
// calendar day in loc. A snapshot that has never been rolled is dated by its
// latest rain or strike; with neither it is only stamped.
func (s Snapshot) RollDay(now time.Time, loc *time.Location) (Snapshot, bool) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	last := s.RolledOver
	if last.IsZero() {
		last = s.RainStart
		if s.LastLightningTime.After(last) {
			last = s.LastLightningTime
		}
	}
	if last.IsZero() || sameDay(last.In(loc), now) {
		if !s.RolledOver.IsZero() {
			return s, false
		}
		s.RolledOver = now
		return s, true
	}
	s.RainYesterday = s.RainToday
	s.RainToday = 0
	s.RainStart = time.Time{}
	s.RainDurationYesterday = s.RainDurationToday
	s.RainDurationToday = 0
	s.LightningCountToday = 0
	s.RolledOver = now
	return s, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Gateway is the durable store behind the aggregation engine.
type Gateway interface {
	extremum.RowStore
	samples.Log

	// Initialize creates the row of every sensor that does not have one yet. Existing rows are kept.
	Initialize(ctx context.Context, sensors []extremum.Sensor) error
	Snapshot(ctx context.Context) (Snapshot, error)
	PutSnapshot(ctx context.Context, s Snapshot) error
	Close() error
}

// Schema is implemented by gateways with a versioned layout.
type Schema interface {
	SchemaVersion(ctx context.Context) (int, error)
	SetSchemaVersion(ctx context.Context, v int) error
	// UpgradeTo applies the step that brings the layout from v-1 to v. Existing values must be kept.
	UpgradeTo(ctx context.Context, v int) error
}
