package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gr-butler/highlow/samples"
	logger "github.com/sirupsen/logrus"
)

// strike is one lightning event reported by the station.
type strike struct {
	Timestamp time.Time `json:"timestamp"`
	Distance  float64   `json:"distance"`
	Energy    float64   `json:"energy"`
}

func (w *weatherstation) handleStrike(topic string, payload []byte) {
	var s strike
	if err := json.Unmarshal(payload, &s); err != nil {
		logger.Errorf("Bad strike on [%v] [%v]", topic, err)
		Prom_updatesDropped.WithLabelValues("malformed").Inc()
		return
	}
	w.recordStrike(context.Background(), s)
}

// recordStrike logs the strike for the rate counter and bumps the stored totals.
func (w *weatherstation) recordStrike(ctx context.Context, s strike) {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	if err := w.samples.Append(ctx, samples.Lightning, s.Timestamp, nil); err != nil {
		logger.Errorf("Failed to store strike [%v]", err)
		Prom_updatesDropped.WithLabelValues("persistence").Inc()
	}

	w.snapLock.Lock()
	defer w.snapLock.Unlock()
	snap, err := w.gw.Snapshot(ctx)
	if err != nil {
		logger.Errorf("Could not read storage [%v]", err)
		return
	}
	snap.LightningCount++
	snap.LightningCountToday++
	snap.LastLightningTime = s.Timestamp
	snap.LastLightningDistance = s.Distance
	snap.LastLightningEnergy = s.Energy
	if err := w.gw.PutSnapshot(ctx, snap); err != nil {
		logger.Errorf("Could not update lightning totals [%v]", err)
	}
}
