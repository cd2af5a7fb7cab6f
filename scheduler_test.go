package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gr-butler/highlow/broker"
	"github.com/gr-butler/highlow/extremum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_dueForRollover(t *testing.T) {
	nz := time.FixedZone("NZST", 12*60*60)
	last := time.Date(2024, time.July, 1, 11, 0, 0, 0, time.UTC) // 23:00 local

	tests := []struct {
		name string
		now  time.Time
		loc  *time.Location
		want bool
	}{
		{"same day utc", last.Add(10 * time.Hour), time.UTC, false},
		{"next day utc", last.Add(13 * time.Hour), time.UTC, true},
		{"past local midnight", last.Add(90 * time.Minute), nz, true},
		{"before local midnight", last.Add(30 * time.Minute), nz, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dueForRollover(last, tt.now, tt.loc))
		})
	}
}

func Test_weatherstation_runRollover(t *testing.T) {
	ctx := context.Background()
	w, gw, pub := newTestStation(t)
	day := time.Date(2024, time.July, 1, 15, 0, 0, 0, time.UTC)
	require.NoError(t, w.table.Update(ctx, extremum.AirTemperature, 21, day))

	midnight := time.Date(2024, time.July, 2, 0, 0, 10, 0, time.UTC)
	assert.Equal(t, midnight, w.runRollover(ctx, midnight))

	row, err := gw.Row(ctx, extremum.AirTemperature)
	require.NoError(t, err)
	assert.Equal(t, extremum.At(21, day), row.Max[extremum.Yesterday])
	assert.Equal(t, extremum.At(21, midnight), row.Max[extremum.Day])

	// every sensor plus the strike count
	assert.Len(t, pub.sent, len(extremum.Catalogue)+1)

	var v extremum.View
	require.NoError(t, json.Unmarshal(pub.sent[broker.Topic("weather", highLowTopic, extremum.AirTemperature)], &v))
	require.NotNil(t, v.Max["yday"])
	assert.Equal(t, 21.0, *v.Max["yday"])

	var l lightningResponse
	require.NoError(t, json.Unmarshal(pub.sent[broker.Topic("weather", lightningTopic)], &l))
	assert.Equal(t, 3.0, l.Hours)
	assert.Zero(t, l.Count)
}

func Test_weatherstation_runRollover_storageTotals(t *testing.T) {
	ctx := context.Background()
	w, gw, _ := newTestStation(t)
	d1 := time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, time.July, 2, 0, 0, 0, 0, time.UTC)

	w.runRollover(ctx, d1)
	w.addRain(ctx, 2, d1.Add(time.Hour))
	w.recordStrike(ctx, strike{Timestamp: d1.Add(2 * time.Hour), Distance: 5})

	w.runRollover(ctx, d2)
	w.runRollover(ctx, d2.Add(time.Minute))
	w.addRain(ctx, 1, d2.Add(6*time.Hour))

	snap, err := gw.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, snap.RainToday)
	assert.Equal(t, 2.0, snap.RainYesterday)
	assert.True(t, snap.RainStart.Equal(d2.Add(6*time.Hour)))
	assert.Zero(t, snap.LightningCountToday)
	assert.Equal(t, 1, snap.LightningCount)
}

func Test_weatherstation_runRollover_firstRunAfterActivity(t *testing.T) {
	ctx := context.Background()
	w, gw, _ := newTestStation(t)
	d1 := time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC)

	w.addRain(ctx, 2, d1)
	w.recordStrike(ctx, strike{Timestamp: d1})
	w.runRollover(ctx, time.Date(2024, time.July, 2, 0, 0, 0, 0, time.UTC))

	snap, err := gw.Snapshot(ctx)
	require.NoError(t, err)
	assert.Zero(t, snap.RainToday)
	assert.Equal(t, 2.0, snap.RainYesterday)
	assert.Zero(t, snap.LightningCountToday)
}
