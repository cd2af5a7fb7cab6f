package main

import (
	"context"
	"time"

	"github.com/gr-butler/highlow/env"
	logger "github.com/sirupsen/logrus"
)

// StartRolloverScheduler called as a go routine runs the daily rollover once
// at start up, to catch up on a missed midnight, then once per calendar day.
func (w *weatherstation) StartRolloverScheduler(ctx context.Context) {
	logger.Info("Starting rollover scheduler")
	last := w.runRollover(ctx, time.Now())
	for t := range time.Tick(env.RolloverCheckPeriod) {
		if !dueForRollover(last, t, w.loc) {
			continue
		}
		last = w.runRollover(ctx, t)
	}
}

// dueForRollover is true once now is on a later calendar day than the last pass.
func dueForRollover(last, now time.Time, loc *time.Location) bool {
	ly, lm, ld := last.In(loc).Date()
	ny, nm, nd := now.In(loc).Date()
	return ly != ny || lm != nm || ld != nd
}

func (w *weatherstation) runRollover(ctx context.Context, now time.Time) time.Time {
	res := w.rollover.Run(ctx, now)
	if !res.OK() {
		for id, err := range res.Failed {
			logger.WithField("sensor", id).Errorf("Rollover failed [%v]", err)
		}
		Prom_rolloverFailures.Add(float64(len(res.Failed)))
	}
	w.rollSnapshot(ctx, now)
	w.publishAll(ctx)
	return now
}
