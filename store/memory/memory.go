package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gr-butler/highlow/apperr"
	"github.com/gr-butler/highlow/extremum"
	"github.com/gr-butler/highlow/samples"
	"github.com/gr-butler/highlow/store"
)

// Gateway keeps everything in process. It backs test mode and the unit tests;
// nothing survives a restart.
type Gateway struct {
	lock     sync.RWMutex
	version  int
	rows     map[string]extremum.Row
	samples  map[samples.Kind][]samples.Sample
	snapshot store.Snapshot
}

func New() *Gateway {
	return &Gateway{}
}

func (g *Gateway) SchemaVersion(ctx context.Context) (int, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.version, nil
}

func (g *Gateway) SetSchemaVersion(ctx context.Context, v int) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.version = v
	return nil
}

// UpgradeTo only has work to do for the first version; later versions add
// fields that every in-memory row already has.
func (g *Gateway) UpgradeTo(ctx context.Context, v int) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	if v == 1 {
		if g.rows == nil {
			g.rows = map[string]extremum.Row{}
		}
		if g.samples == nil {
			g.samples = map[samples.Kind][]samples.Sample{}
		}
	}
	return nil
}

func (g *Gateway) ready() error {
	if g.rows == nil {
		return apperr.NewPersistenceError("schema not created", nil)
	}
	return nil
}

func (g *Gateway) Initialize(ctx context.Context, sensors []extremum.Sensor) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	if err := g.ready(); err != nil {
		return err
	}
	for _, s := range sensors {
		if _, ok := g.rows[s.ID]; !ok {
			g.rows[s.ID] = extremum.NewRow(s)
		}
	}
	return nil
}

func (g *Gateway) Row(ctx context.Context, sensorID string) (extremum.Row, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	if err := g.ready(); err != nil {
		return extremum.Row{}, err
	}
	row, ok := g.rows[sensorID]
	if !ok {
		return extremum.Row{}, apperr.NewNotFoundError(fmt.Sprintf("no row for sensor [%v]", sensorID), nil)
	}
	return row, nil
}

func (g *Gateway) Apply(ctx context.Context, sensorID string, u extremum.Update) error {
	if err := u.Validate(); err != nil {
		return apperr.NewValidationError("bad update", err)
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	if err := g.ready(); err != nil {
		return err
	}
	row, ok := g.rows[sensorID]
	if !ok {
		return apperr.NewNotFoundError(fmt.Sprintf("no row for sensor [%v]", sensorID), nil)
	}
	row.Apply(u)
	g.rows[sensorID] = row
	return nil
}

func (g *Gateway) Snapshot(ctx context.Context) (store.Snapshot, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.snapshot, nil
}

func (g *Gateway) PutSnapshot(ctx context.Context, s store.Snapshot) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.snapshot = s
	return nil
}

func (g *Gateway) Append(ctx context.Context, s samples.Sample) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	if err := g.ready(); err != nil {
		return err
	}
	if s.Value != nil {
		v := *s.Value
		s.Value = &v
	}
	g.samples[s.Kind] = append(g.samples[s.Kind], s)
	return nil
}

func (g *Gateway) Latest(ctx context.Context, kind samples.Kind, before time.Time) (samples.Sample, bool, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	var (
		best samples.Sample
		ok   bool
	)
	for _, s := range g.samples[kind] {
		if !s.Time.Before(before) {
			continue
		}
		if !ok || s.Time.After(best.Time) {
			best, ok = s, true
		}
	}
	return best, ok, nil
}

func (g *Gateway) CountSince(ctx context.Context, kind samples.Kind, after time.Time) (int, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	n := 0
	for _, s := range g.samples[kind] {
		if s.Time.After(after) {
			n++
		}
	}
	return n, nil
}

func (g *Gateway) DeleteThrough(ctx context.Context, kind samples.Kind, cutoff time.Time) (int64, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	kept := g.samples[kind][:0]
	var removed int64
	for _, s := range g.samples[kind] {
		if s.Time.After(cutoff) {
			kept = append(kept, s)
			continue
		}
		removed++
	}
	if g.samples != nil {
		g.samples[kind] = kept
	}
	return removed, nil
}

func (g *Gateway) Close() error {
	return nil
}

var (
	_ store.Gateway = (*Gateway)(nil)
	_ store.Schema  = (*Gateway)(nil)
)
