package extremum

import "time"

// View is the external form of a row. Unset bounds and missing times are nil.
type View struct {
	SensorID string              `json:"sensor"`
	Latest   *float64            `json:"latest"`
	Max      map[string]*float64 `json:"max"`
	MaxTime  map[string]*string  `json:"max_time"`
	Min      map[string]*float64 `json:"min"`
	MinTime  map[string]*string  `json:"min_time"`
}

func NewView(r Row) View {
	v := View{
		SensorID: r.SensorID,
		Latest:   value(r.Latest),
		Max:      map[string]*float64{},
		MaxTime:  map[string]*string{},
		Min:      map[string]*float64{},
		MinTime:  map[string]*string{},
	}
	for _, w := range Windows() {
		v.Max[w.String()] = value(r.Max[w])
		v.MaxTime[w.String()] = stamp(r.Max[w])
		v.Min[w.String()] = value(r.Min[w])
		v.MinTime[w.String()] = stamp(r.Min[w])
	}
	return v
}

func value(b Bound) *float64 {
	if !b.Set {
		return nil
	}
	v := b.Value
	return &v
}

func stamp(b Bound) *string {
	if !b.HasTime() {
		return nil
	}
	s := b.Time.UTC().Truncate(time.Second).Format(time.RFC3339)
	return &s
}
