package main

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
)

// rain accumulation is not a tracked sensor, it only moves the stored totals
const rainAccumulated = "rain_accumulated"

// addRain adds mm of rain to today's total. The first rain since the daily
// reset sets the start time.
func (w *weatherstation) addRain(ctx context.Context, mm float64, at time.Time) {
	if mm <= 0 {
		return
	}
	w.snapLock.Lock()
	defer w.snapLock.Unlock()

	s, err := w.gw.Snapshot(ctx)
	if err != nil {
		logger.Errorf("Could not read storage [%v]", err)
		return
	}
	if s.RainToday == 0 {
		s.RainStart = at
	}
	s.RainToday += mm
	if err := w.gw.PutSnapshot(ctx, s); err != nil {
		logger.Errorf("Could not update rain total [%v]", err)
		return
	}
	logger.Debugf("Rain today [%.2f]", s.RainToday)
}

// setRainDuration stores the station's running rain duration for today.
func (w *weatherstation) setRainDuration(ctx context.Context, minutes float64) {
	w.snapLock.Lock()
	defer w.snapLock.Unlock()

	s, err := w.gw.Snapshot(ctx)
	if err != nil {
		logger.Errorf("Could not read storage [%v]", err)
		return
	}
	if s.RainDurationToday == minutes {
		return
	}
	s.RainDurationToday = minutes
	if err := w.gw.PutSnapshot(ctx, s); err != nil {
		logger.Errorf("Could not update rain duration [%v]", err)
	}
}

// rollSnapshot starts a new day for the stored rain and lightning totals.
func (w *weatherstation) rollSnapshot(ctx context.Context, now time.Time) {
	w.snapLock.Lock()
	defer w.snapLock.Unlock()

	s, err := w.gw.Snapshot(ctx)
	if err != nil {
		logger.Errorf("Could not read storage [%v]", err)
		return
	}
	next, changed := s.RollDay(now, w.loc)
	if !changed {
		return
	}
	if err := w.gw.PutSnapshot(ctx, next); err != nil {
		logger.Errorf("Could not roll storage totals [%v]", err)
		return
	}
	logger.Infof("Rain yesterday [%.2f], today's totals cleared", next.RainYesterday)
}
