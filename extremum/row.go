package extremum

import (
	"fmt"
	"time"
)

// Bound is one tracked value and the time it was recorded. Set is false until
// a real value arrives, so an unset bound never compares equal to a zero reading.
type Bound struct {
	Value float64
	Time  time.Time
	Set   bool
}

func Unset() Bound {
	return Bound{}
}

func At(value float64, t time.Time) Bound {
	return Bound{Value: value, Time: t, Set: true}
}

// IsZero reports whether the bound holds the value 0. Unset bounds are not zero.
func (b Bound) IsZero() bool {
	return b.Set && b.Value == 0
}

// HasTime reports whether the bound is set and was stamped.
func (b Bound) HasTime() bool {
	return b.Set && !b.Time.IsZero()
}

// Above is true when v beats b as a maximum. An unset bound is beaten by anything.
func (b Bound) Above(v float64) bool {
	return !b.Set || v > b.Value
}

// Below is true when v beats b as a minimum.
func (b Bound) Below(v float64) bool {
	return !b.Set || v < b.Value
}

type Window int

const (
	Day Window = iota
	Week
	Month
	Year
	All
	Yesterday
	windowCount
)

var windowNames = [windowCount]string{"day", "week", "month", "year", "all", "yday"}

func (w Window) String() string {
	if w < 0 || w >= windowCount {
		return fmt.Sprintf("window(%d)", int(w))
	}
	return windowNames[w]
}

// Windows lists every tracked window in storage order.
func Windows() []Window {
	return []Window{Day, Week, Month, Year, All, Yesterday}
}

// Row is the full extremum state of one sensor.
type Row struct {
	SensorID   string
	Latest     Bound
	Max        [windowCount]Bound
	Min        [windowCount]Bound
	RolledOver time.Time
}

// NewRow returns the first-run state of a sensor.
func NewRow(s Sensor) Row {
	r := Row{SensorID: s.ID}
	if s.ZeroBased {
		r.Max[Day] = Bound{Value: 0, Set: true}
		r.Min[Day] = Bound{Value: 0, Set: true}
	}
	return r
}

// Get returns the bound held in field f.
func (r Row) Get(f Field) Bound {
	switch {
	case f == Latest:
		return r.Latest
	case f == RolledOver:
		return Bound{Time: r.RolledOver, Set: !r.RolledOver.IsZero()}
	case f.isMax():
		return r.Max[f.window()]
	default:
		return r.Min[f.window()]
	}
}

// Apply writes every field of u into the row.
func (r *Row) Apply(u Update) {
	for f, b := range u {
		switch {
		case f == Latest:
			r.Latest = b
		case f == RolledOver:
			r.RolledOver = b.Time
		case f.isMax():
			r.Max[f.window()] = b
		default:
			r.Min[f.window()] = b
		}
	}
}
