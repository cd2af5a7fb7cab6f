package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gr-butler/highlow/apperr"
	"github.com/gr-butler/highlow/extremum"
	"github.com/gr-butler/highlow/samples"
	logger "github.com/sirupsen/logrus"
)

const (
	observationTopic = "observation"
	strikeTopic      = "strike"
)

// observation is a decoded set of readings taken at one time.
type observation struct {
	Timestamp time.Time           `json:"timestamp"`
	Values    map[string]*float64 `json:"values"`
}

func (w *weatherstation) handleObservation(topic string, payload []byte) {
	var o observation
	if err := json.Unmarshal(payload, &o); err != nil {
		logger.Errorf("Bad observation on [%v] [%v]", topic, err)
		Prom_updatesDropped.WithLabelValues("malformed").Inc()
		return
	}
	w.recordObservation(context.Background(), o)
}

// recordObservation feeds every value to the tracker. Pressure also goes into
// the trend history. A null value means the station has no reading and is
// skipped. A failure for one sensor does not stop the others.
func (w *weatherstation) recordObservation(ctx context.Context, o observation) {
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}
	for id, p := range o.Values {
		if p == nil {
			logger.Debugf("No reading for [%v]", id)
			continue
		}
		v := *p
		if id == rainAccumulated {
			w.addRain(ctx, v, o.Timestamp)
			continue
		}
		if err := w.table.Update(ctx, id, v, o.Timestamp); err != nil {
			reason := "persistence"
			if apperr.IsConfiguration(err) {
				reason = "unknown_sensor"
			}
			Prom_updatesDropped.WithLabelValues(reason).Inc()
			continue
		}
		Prom_latest.WithLabelValues(id).Set(v)

		if id == extremum.RainDurationToday {
			w.setRainDuration(ctx, v)
		}
		if id == extremum.SealevelPressure {
			pressure := v
			if err := w.samples.Append(ctx, samples.Pressure, o.Timestamp, &pressure); err != nil {
				logger.Errorf("Failed to store pressure sample [%v]", err)
			}
		}
	}
}
