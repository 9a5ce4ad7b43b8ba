package result

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Branch names the path the count-first search took.
type Branch string

// Branch constants.
const (
	// BranchFull means records were fetched in a second query.
	BranchFull Branch = "full"
	// BranchCountOnly means the caller asked for the count only.
	BranchCountOnly Branch = "count_only"
	// BranchEmpty means the count was zero.
	BranchEmpty Branch = "empty"
	// BranchTooLarge means the count exceeded the full-fetch limit.
	BranchTooLarge Branch = "too_large"
)

// Field describes one column of a catalog table.
type Field struct {
	Name string
	Type string
}

// Table is a raw tabular payload returned by the catalog.
type Table struct {
	Fields []Field
	Rows   []Observation
}

// Observation is one catalog record. The schema is owned by the remote service.
type Observation map[string]any

// String returns the column value as a string ("" when absent or null).
func (o Observation) String(col string) string {
	v, ok := o[col]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Float returns the column value as float64.
func (o Observation) Float(col string) (float64, bool) {
	switch x := o[col].(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Select returns a new Observation with only the given columns (missing ones are skipped).
func (o Observation) Select(cols ...string) Observation {
	out := make(Observation, len(cols))
	for _, c := range cols {
		if v, ok := o[c]; ok {
			out[c] = v
		}
	}
	return out
}

// Result is either a bare count or a count with its full record set.
type Result struct {
	count        int64
	branch       Branch
	fields       []Field
	observations []Observation
}

// NewCount creates a short-circuited result carrying only the count.
func NewCount(count int64, branch Branch) Result {
	return Result{count: count, branch: branch}
}

// NewRecords creates a full-fetch result.
func NewRecords(count int64, table Table) Result {
	return Result{
		count:        count,
		branch:       BranchFull,
		fields:       table.Fields,
		observations: table.Rows,
	}
}

// Count returns the row count reported by the count query.
func (r *Result) Count() int64 { return r.count }

// Branch returns which path produced this result.
func (r *Result) Branch() Branch { return r.branch }

// HasRecords reports whether records were fetched.
func (r *Result) HasRecords() bool { return r.branch == BranchFull }

// Fields returns the column descriptions of the fetched records.
func (r *Result) Fields() []Field { return r.fields }

// Observations returns the fetched records in catalog order (nil for count results).
func (r *Result) Observations() []Observation { return r.observations }
