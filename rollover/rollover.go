package rollover

import (
	"context"
	"time"

	"github.com/gr-butler/highlow/env"
	"github.com/gr-butler/highlow/extremum"
	"github.com/gr-butler/highlow/samples"
	logger "github.com/sirupsen/logrus"
)

/*
Daily rollover, per sensor, from the row as it stood before the pass:

 1. all time  - promote the day high/low if it beats the record
 2. year      - promote if the day extreme was set this year, otherwise reset
 3. month     - as year, keyed on (year, month)
 4. week      - as year, keyed on ISO (year, week)
 5. yesterday - copy the day high/low
 6. day       - seed a new day from the latest reading

A reset seeds the bucket from the latest reading, unless the sensor's day low
is 0 in which case only the high is zeroed. Unset lows count as non zero.

Every row carries the time of its last pass; a row already rolled today is left
alone so running the pass twice for the same day changes nothing.
*/

// period identifies a calendar bucket; two times are in the same bucket when their periods match.
type period struct {
	a, b int
}

type periodFunc func(t time.Time) period

func yearOf(t time.Time) period {
	return period{a: t.Year()}
}

func monthOf(t time.Time) period {
	return period{a: t.Year(), b: int(t.Month())}
}

func weekOf(t time.Time) period {
	y, w := t.ISOWeek()
	return period{a: y, b: w}
}

func dayOf(t time.Time) period {
	return period{a: t.Year(), b: t.YearDay()}
}

// Clock is the frozen "now" of one pass with its calendar keys worked out once.
type Clock struct {
	Now time.Time
	loc *time.Location
}

func NewClock(now time.Time, loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return Clock{Now: now.In(loc), loc: loc}
}

func (c Clock) same(f periodFunc, t time.Time) bool {
	return f(t.In(c.loc)) == f(c.Now)
}

// Plan returns the update one pass makes to a row. An empty update means the
// row has already been rolled over today.
func Plan(row extremum.Row, c Clock) extremum.Update {
	if !row.RolledOver.IsZero() && c.same(dayOf, row.RolledOver) {
		return nil
	}

	maxDay := row.Max[extremum.Day]
	minDay := row.Min[extremum.Day]
	u := extremum.Update{}

	if maxDay.Set && row.Max[extremum.All].Above(maxDay.Value) {
		u[extremum.MaxField(extremum.All)] = maxDay
	}
	if minDay.Set && row.Min[extremum.All].Below(minDay.Value) {
		u[extremum.MinField(extremum.All)] = minDay
	}

	promoteOrReset(u, row, c, extremum.Year, yearOf)
	promoteOrReset(u, row, c, extremum.Month, monthOf)
	promoteOrReset(u, row, c, extremum.Week, weekOf)

	u[extremum.MaxField(extremum.Yesterday)] = maxDay
	u[extremum.MinField(extremum.Yesterday)] = minDay

	if !minDay.IsZero() {
		seed := seedFrom(row.Latest, c.Now)
		u[extremum.MaxField(extremum.Day)] = seed
		u[extremum.MinField(extremum.Day)] = seed
	} else {
		u[extremum.MaxField(extremum.Day)] = extremum.At(0, c.Now)
	}

	u.Stamp(c.Now)
	return u
}

func promoteOrReset(u extremum.Update, row extremum.Row, c Clock, w extremum.Window, f periodFunc) {
	maxDay := row.Max[extremum.Day]
	minDay := row.Min[extremum.Day]

	if maxDay.HasTime() && c.same(f, maxDay.Time) && row.Max[w].Above(maxDay.Value) {
		u[extremum.MaxField(w)] = maxDay
	}
	if minDay.HasTime() && c.same(f, minDay.Time) && row.Min[w].Below(minDay.Value) {
		u[extremum.MinField(w)] = minDay
	}

	// the reset is keyed on the day high's time for both sides
	if !maxDay.HasTime() || c.same(f, maxDay.Time) {
		return
	}
	if !minDay.IsZero() {
		seed := seedFrom(row.Latest, c.Now)
		u[extremum.MaxField(w)] = seed
		u[extremum.MinField(w)] = seed
	} else {
		u[extremum.MaxField(w)] = extremum.At(0, c.Now)
	}
}

func seedFrom(latest extremum.Bound, now time.Time) extremum.Bound {
	if !latest.Set {
		return extremum.Unset()
	}
	return extremum.At(latest.Value, now)
}

// Result reports one rollover run.
type Result struct {
	extremum.Pass
	PrunedPressure  int64
	PrunedLightning int64
}

// Engine runs the daily pass over the extremum table and tidies the sample logs.
type Engine struct {
	table   *extremum.Table
	samples *samples.Store
	loc     *time.Location
}

func NewEngine(table *extremum.Table, store *samples.Store, loc *time.Location) *Engine {
	return &Engine{table: table, samples: store, loc: loc}
}

// Run performs the daily rollover at now. It never stops early: a sensor that
// fails is reported in the result and the rest are still rolled.
func (e *Engine) Run(ctx context.Context, now time.Time) Result {
	c := NewClock(now, e.loc)
	logger.Infof("Starting rollover for [%v]", c.Now.Format(time.RFC822))

	res := Result{Pass: e.table.Rotate(ctx, func(row extremum.Row) extremum.Update {
		return Plan(row, c)
	})}

	if e.samples != nil {
		var err error
		res.PrunedPressure, err = e.samples.PruneOlderThan(ctx, samples.Pressure, env.TrendWindow+env.PruneMargin, c.Now)
		if err != nil {
			logger.Errorf("Failed to prune pressure samples [%v]", err)
		}
		res.PrunedLightning, err = e.samples.PruneOlderThan(ctx, samples.Lightning, env.StrikeWindow+env.PruneMargin, c.Now)
		if err != nil {
			logger.Errorf("Failed to prune lightning samples [%v]", err)
		}
	}

	logger.Infof("Rollover done: rolled [%v] skipped [%v] failed [%v]", len(res.Rolled), len(res.Skipped), len(res.Failed))
	return res
}
