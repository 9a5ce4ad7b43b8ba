package filter

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/mastplan/internal/domain"
)

// MaxEntries is the maximum number of entries in one Spec.
const MaxEntries = 32

// Default filter values: proposed (not yet executed) JWST observations.
const (
	ParamCalibLevel    = "calib_level"
	ParamObsCollection = "obs_collection"

	PlannedCalibLevel = "-1"
	CollectionJWST    = "JWST"
)

// Spec is an ordered conjunction of entries passed opaquely to the catalog.
// Field names are not interpreted locally.
type Spec struct {
	entries []Entry
}

// NewSpec validates and creates a Spec.
// Every entry must be valid and param names must be unique.
func NewSpec(entries ...Entry) (Spec, error) {
	if len(entries) > MaxEntries {
		return Spec{}, fmt.Errorf("%w: too many entries (max %d)", domain.ErrInvalidFilterSpec, MaxEntries)
	}
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		if err := e.validate(); err != nil {
			return Spec{}, fmt.Errorf("entry %d: %w", i, err)
		}
		if j, dup := seen[e.param]; dup {
			return Spec{}, fmt.Errorf("%w: duplicate param %q (entries %d and %d)",
				domain.ErrInvalidFilterSpec, e.param, j, i)
		}
		seen[e.param] = i
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return Spec{entries: out}, nil
}

// Default returns calib_level=-1 AND obs_collection=JWST.
func Default() Spec {
	return Spec{entries: []Entry{
		Equals(ParamCalibLevel, PlannedCalibLevel),
		Equals(ParamObsCollection, CollectionJWST),
	}}
}

// Entries returns a copy of the entries in order.
func (s Spec) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s Spec) Len() int { return len(s.entries) }

// IsEmpty reports whether s has no entries.
func (s Spec) IsEmpty() bool { return len(s.entries) == 0 }

// With returns a new Spec with e appended.
func (s Spec) With(e Entry) (Spec, error) {
	return NewSpec(append(s.Entries(), e)...)
}

// Entry is a single column constraint: either equals-one-of or a numeric range.
type Entry struct {
	param     string
	values    []string
	rangeExpr *Range
}

// Equals creates a column-equals-one-of-values entry.
// Validation happens in NewSpec so helpers compose inline.
func Equals(param string, values ...string) Entry {
	v := make([]string, len(values))
	copy(v, values)
	return Entry{param: param, values: v}
}

// Between creates an inclusive numeric range entry.
func Between(param string, minVal, maxVal float64) Entry {
	return Entry{param: param, rangeExpr: &Range{min: minVal, max: maxVal}}
}

// Param returns the column name.
func (e Entry) Param() string { return e.param }

// Values returns the accepted values of an equals entry.
func (e Entry) Values() []string {
	out := make([]string, len(e.values))
	copy(out, e.values)
	return out
}

// Range returns the numeric range, nil for equals entries.
func (e Entry) Range() *Range { return e.rangeExpr }

// IsRange reports whether this is a range entry.
func (e Entry) IsRange() bool { return e.rangeExpr != nil }

func (e Entry) validate() error {
	if e.param == "" {
		return fmt.Errorf("%w: param name is required", domain.ErrInvalidFilterSpec)
	}
	if e.rangeExpr != nil {
		r := e.rangeExpr
		if math.IsNaN(r.min) || math.IsNaN(r.max) {
			return fmt.Errorf("%w: range for %q is NaN", domain.ErrInvalidFilterSpec, e.param)
		}
		if math.IsInf(r.min, 0) || math.IsInf(r.max, 0) {
			return fmt.Errorf("%w: range for %q is not finite", domain.ErrInvalidFilterSpec, e.param)
		}
		if r.min > r.max {
			return fmt.Errorf("%w: range for %q has min > max", domain.ErrInvalidFilterSpec, e.param)
		}
		return nil
	}
	if len(e.values) == 0 {
		return fmt.Errorf("%w: values for %q are empty", domain.ErrInvalidFilterSpec, e.param)
	}
	return nil
}

// Range is an inclusive numeric interval.
type Range struct {
	min float64
	max float64
}

// Min returns the lower bound.
func (r Range) Min() float64 { return r.min }

// Max returns the upper bound.
func (r Range) Max() float64 { return r.max }
