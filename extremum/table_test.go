package extremum_test

import (
	"context"
	"errors"
	"sync"
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

var base = time.Date(2024, time.March, 12, 8, 0, 0, 0, time.UTC)

func newTable(t *testing.T) (*extremum.Table, *memory.Gateway) {
	ctx := context.Background()
	gw := memory.New()
	_, err := store.Upgrade(ctx, gw, env.SchemaVersion)
	require.NoError(t, err)
	require.NoError(t, gw.Initialize(ctx, extremum.Catalogue))
	return extremum.NewTable(gw, extremum.Catalogue), gw
}

func TestUpdateKeepsFirstOccurrence(t *testing.T) {
	table, _ := newTable(t)
	ctx := context.Background()

	readings := []float64{10, 12, 12, 8, 8, 11}
	for i, v := range readings {
		require.NoError(t, table.Update(ctx, extremum.AirTemperature, v, base.Add(time.Duration(i)*time.Minute)))
	}

	row, err := table.Get(ctx, extremum.AirTemperature)
	require.NoError(t, err)

	assert.Equal(t, extremum.At(12, base.Add(time.Minute)), row.Max[extremum.Day])
	assert.Equal(t, extremum.At(8, base.Add(3*time.Minute)), row.Min[extremum.Day])
	assert.Equal(t, extremum.At(11, base.Add(5*time.Minute)), row.Latest)

	for _, w := range []extremum.Window{extremum.Week, extremum.Month, extremum.Year, extremum.All, extremum.Yesterday} {
		assert.False(t, row.Max[w].Set, "max %v", w)
		assert.False(t, row.Min[w].Set, "min %v", w)
	}
}

func TestUpdateUnknownSensor(t *testing.T) {
	table, _ := newTable(t)

	err := table.Update(context.Background(), "soil_moisture", 12, base)
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
	assert.False(t, table.Known("soil_moisture"))
}

func TestZeroBasedSensorKeepsZeroLow(t *testing.T) {
	table, _ := newTable(t)
	ctx := context.Background()

	require.NoError(t, table.Update(ctx, extremum.WindGust, 5, base))
	require.NoError(t, table.Update(ctx, extremum.WindGust, 3, base.Add(time.Minute)))

	row, err := table.Get(ctx, extremum.WindGust)
	require.NoError(t, err)
	assert.Equal(t, extremum.At(5, base), row.Max[extremum.Day])
	assert.True(t, row.Min[extremum.Day].IsZero())
	assert.False(t, row.Min[extremum.Day].HasTime())
}

func TestNegativeReadingsBeatUnsetBounds(t *testing.T) {
	table, _ := newTable(t)
	ctx := context.Background()

	require.NoError(t, table.Update(ctx, extremum.AirTemperature, -4.5, base))

	row, err := table.Get(ctx, extremum.AirTemperature)
	require.NoError(t, err)
	assert.Equal(t, extremum.At(-4.5, base), row.Max[extremum.Day])
	assert.Equal(t, extremum.At(-4.5, base), row.Min[extremum.Day])
}

func TestConcurrentUpdates(t *testing.T) {
	table, _ := newTable(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{extremum.AirTemperature, extremum.RelativeHumidity} {
		for i := 1; i <= 100; i++ {
			wg.Add(1)
			go func(id string, v float64) {
				defer wg.Done()
				assert.NoError(t, table.Update(ctx, id, v, base.Add(time.Duration(v)*time.Second)))
			}(id, float64(i))
		}
	}
	wg.Wait()

	for _, id := range []string{extremum.AirTemperature, extremum.RelativeHumidity} {
		row, err := table.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 100.0, row.Max[extremum.Day].Value)
		assert.Equal(t, 1.0, row.Min[extremum.Day].Value)
		assert.True(t, row.Min[extremum.Day].Time.Equal(base.Add(time.Second)))
	}
}

// flaky fails every write for one sensor
type flaky struct {
	extremum.RowStore
	bad string
}

func (f flaky) Apply(ctx context.Context, sensorID string, u extremum.Update) error {
	if sensorID == f.bad {
		return apperr.NewPersistenceError("disk full", errors.New("no space"))
	}
	return f.RowStore.Apply(ctx, sensorID, u)
}

func TestRotateCarriesOnAfterFailure(t *testing.T) {
	_, gw := newTable(t)
	table := extremum.NewTable(flaky{RowStore: gw, bad: extremum.Dewpoint}, extremum.Catalogue)

	p := table.Rotate(context.Background(), func(r extremum.Row) extremum.Update {
		if r.SensorID == extremum.UV {
			return nil
		}
		return extremum.Update{extremum.Latest: extremum.At(1, base)}
	})

	assert.False(t, p.OK())
	assert.Contains(t, p.Failed, extremum.Dewpoint)
	assert.Equal(t, []string{extremum.UV}, p.Skipped)
	assert.Len(t, p.Rolled, len(extremum.Catalogue)-2)

	row, err := gw.Row(context.Background(), extremum.AirTemperature)
	require.NoError(t, err)
	assert.Equal(t, extremum.At(1, base), row.Latest)
}
