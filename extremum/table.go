package extremum

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gr-butler/highlow/apperr"
	logger "github.com/sirupsen/logrus"
)

// RowStore is the part of the persistence gateway the table needs.
type RowStore interface {
	Row(ctx context.Context, sensorID string) (Row, error)
	Apply(ctx context.Context, sensorID string, u Update) error
}

// Table serializes access to the extremum rows. Readings for one sensor are
// applied one at a time while different sensors proceed in parallel; a
// rollover pass holds the whole table.
type Table struct {
	rows    RowStore
	lock    sync.RWMutex
	sensors map[string]*sync.Mutex
	ids     []string
}

func NewTable(rows RowStore, sensors []Sensor) *Table {
	t := &Table{
		rows:    rows,
		sensors: make(map[string]*sync.Mutex, len(sensors)),
	}
	for _, s := range sensors {
		if _, ok := t.sensors[s.ID]; ok {
			continue
		}
		t.sensors[s.ID] = &sync.Mutex{}
		t.ids = append(t.ids, s.ID)
	}
	sort.Strings(t.ids)
	return t
}

// SensorIDs returns the known sensors in a stable order.
func (t *Table) SensorIDs() []string {
	out := make([]string, len(t.ids))
	copy(out, t.ids)
	return out
}

func (t *Table) Known(sensorID string) bool {
	_, ok := t.sensors[sensorID]
	return ok
}

// lockSensor takes the table read lock and the sensor's own lock. The caller must call the returned func.
func (t *Table) lockSensor(sensorID string) (func(), error) {
	m, ok := t.sensors[sensorID]
	if !ok {
		return nil, apperr.NewConfigurationError(fmt.Sprintf("unknown sensor [%v]", sensorID), nil)
	}
	t.lock.RLock()
	m.Lock()
	return func() {
		m.Unlock()
		t.lock.RUnlock()
	}, nil
}

// Update records a reading. Only latest and the day bounds move; a tie with
// the current day extreme keeps the time of the first occurrence.
func (t *Table) Update(ctx context.Context, sensorID string, value float64, ts time.Time) error {
	unlock, err := t.lockSensor(sensorID)
	if err != nil {
		logger.WithField("sensor", sensorID).Warnf("Dropping reading [%v]", value)
		return err
	}
	defer unlock()

	row, err := t.rows.Row(ctx, sensorID)
	if err != nil {
		logger.WithField("sensor", sensorID).Errorf("Failed to read row [%v]", err)
		return err
	}

	u := Reading(row, value, ts)
	if err := t.rows.Apply(ctx, sensorID, u); err != nil {
		logger.WithField("sensor", sensorID).Errorf("Failed to record reading [%v]", err)
		return err
	}
	return nil
}

// Reading works out the update a new value makes to a row.
func Reading(row Row, value float64, ts time.Time) Update {
	u := Update{Latest: At(value, ts)}
	if row.Max[Day].Above(value) {
		u[MaxField(Day)] = At(value, ts)
	}
	if row.Min[Day].Below(value) {
		u[MinField(Day)] = At(value, ts)
	}
	return u
}

// Get returns a point-in-time copy of the sensor's row.
func (t *Table) Get(ctx context.Context, sensorID string) (Row, error) {
	unlock, err := t.lockSensor(sensorID)
	if err != nil {
		return Row{}, err
	}
	defer unlock()
	return t.rows.Row(ctx, sensorID)
}

func (t *Table) View(ctx context.Context, sensorID string) (View, error) {
	row, err := t.Get(ctx, sensorID)
	if err != nil {
		return View{}, err
	}
	return NewView(row), nil
}

// Views returns every readable sensor. Rows that fail to load are logged and left out.
func (t *Table) Views(ctx context.Context) []View {
	views := make([]View, 0, len(t.ids))
	for _, id := range t.ids {
		v, err := t.View(ctx, id)
		if err != nil {
			logger.WithField("sensor", id).Errorf("Failed to read row [%v]", err)
			continue
		}
		views = append(views, v)
	}
	return views
}

// Pass is the outcome of a rotation over the table.
type Pass struct {
	Rolled  []string
	Skipped []string
	Failed  map[string]error
}

func (p Pass) OK() bool {
	return len(p.Failed) == 0
}

// Rotate holds the table exclusively and applies plan to every row. A row
// whose plan is empty is skipped. Failures are recorded and the pass carries on.
func (t *Table) Rotate(ctx context.Context, plan func(Row) Update) Pass {
	t.lock.Lock()
	defer t.lock.Unlock()

	p := Pass{Failed: map[string]error{}}
	for _, id := range t.ids {
		row, err := t.rows.Row(ctx, id)
		if err != nil {
			logger.WithField("sensor", id).Errorf("Rollover read failed [%v]", err)
			p.Failed[id] = err
			continue
		}
		u := plan(row)
		if len(u) == 0 {
			p.Skipped = append(p.Skipped, id)
			continue
		}
		if err := t.rows.Apply(ctx, id, u); err != nil {
			logger.WithField("sensor", id).Errorf("Rollover write failed [%v]", err)
			p.Failed[id] = err
			continue
		}
		p.Rolled = append(p.Rolled, id)
	}
	return p
}
