package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gr-butler/highlow/broker"
	"github.com/gr-butler/highlow/env"
	"github.com/gr-butler/highlow/extremum"
	logger "github.com/sirupsen/logrus"
)

const (
	highLowTopic   = "highlow"
	lightningTopic = "lightning"
)

// StartPublisher called as a go routine sends the high/low views and the
// strike count every publish interval.
func (w *weatherstation) StartPublisher(ctx context.Context) {
	for range time.Tick(w.cfg.PublishInterval) {
		w.publishAll(ctx)
	}
}

// publishAll refreshes the gauges and, when a broker is connected, publishes
// one retained message per sensor plus the strike count.
func (w *weatherstation) publishAll(ctx context.Context) {
	day := extremum.Day.String()
	for _, v := range w.table.Views(ctx) {
		if v.Max[day] != nil {
			Prom_dayMax.WithLabelValues(v.SensorID).Set(*v.Max[day])
		}
		if v.Min[day] != nil {
			Prom_dayMin.WithLabelValues(v.SensorID).Set(*v.Min[day])
		}
		w.publishJSON(broker.Topic(w.cfg.MQTT.TopicPrefix, highLowTopic, v.SensorID), v)
	}

	count, err := w.strikes.CountSince(ctx, env.StrikeWindow.Hours())
	if err != nil {
		logger.Errorf("Could not count strikes [%v]", err)
		return
	}
	Prom_lightningStrikes.Set(float64(count))
	w.publishJSON(broker.Topic(w.cfg.MQTT.TopicPrefix, lightningTopic), lightningResponse{
		Hours: env.StrikeWindow.Hours(),
		Count: count,
	})
}

func (w *weatherstation) publishJSON(topic string, v interface{}) {
	if w.pub == nil {
		return
	}
	js, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("JSON error [%v]", err)
		return
	}
	if err := w.pub.Publish(topic, js, true); err != nil {
		logger.Errorf("Failed to publish to [%v] [%v]", topic, err)
	}
}
