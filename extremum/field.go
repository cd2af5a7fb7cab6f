package extremum

import (
	"fmt"
	"strings"
	"time"
)

// Field names one stored bound. The string is the persisted column name; the
// matching timestamp column is the name with a "_time" suffix.
type Field string

const (
	Latest     Field = "latest"
	RolledOver Field = "rolled_over"
)

// MaxField and MinField name the bound of a window.
func MaxField(w Window) Field { return Field("max_" + w.String()) }
func MinField(w Window) Field { return Field("min_" + w.String()) }

var fields = func() map[Field]Window {
	m := map[Field]Window{}
	for _, w := range Windows() {
		m[MaxField(w)] = w
		m[MinField(w)] = w
	}
	return m
}()

// Fields returns every field a row stores, latest first and the rollover marker last.
func Fields() []Field {
	out := []Field{Latest}
	for _, w := range Windows() {
		out = append(out, MaxField(w), MinField(w))
	}
	return append(out, RolledOver)
}

// Valid reports whether f is one of the known fields.
func (f Field) Valid() bool {
	if f == Latest || f == RolledOver {
		return true
	}
	_, ok := fields[f]
	return ok
}

func (f Field) Column() string     { return string(f) }
func (f Field) TimeColumn() string { return string(f) + "_time" }

func (f Field) isMax() bool {
	return strings.HasPrefix(string(f), "max_")
}

func (f Field) window() Window {
	return fields[f]
}

// Update is a set of field writes applied to one row in a single step.
type Update map[Field]Bound

func (u Update) Validate() error {
	for f := range u {
		if !f.Valid() {
			return fmt.Errorf("unknown field [%v]", f)
		}
	}
	return nil
}

// Stamp records a rollover marker in the update.
func (u Update) Stamp(t time.Time) {
	u[RolledOver] = Bound{Time: t, Set: true}
}
