package check

import (
	"github.com/kailas-cloud/mastplan/internal/domain/search/result"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
)

// Status is the coverage verdict for a single target.
type Status string

// Target status values.
const (
	// StatusPlanned means at least one matching observation exists near the target.
	StatusPlanned Status = "planned"
	// StatusClear means the search found nothing.
	StatusClear Status = "clear"
	// StatusError means the target could not be checked.
	StatusError Status = "error"
)

// Outcome is the result of checking one target.
type Outcome struct {
	target     string
	status     Status
	resolution sky.Resolution
	result     result.Result
	err        error
}

// NewFound creates an outcome from a completed search.
func NewFound(target string, res sky.Resolution, r result.Result) Outcome {
	status := StatusClear
	if r.Count() > 0 {
		status = StatusPlanned
	}
	return Outcome{target: target, status: status, resolution: res, result: r}
}

// NewError creates a failed outcome.
func NewError(target string, err error) Outcome {
	return Outcome{target: target, status: StatusError, err: err}
}

// Target returns the name as given by the caller.
func (o *Outcome) Target() string { return o.target }

// Status returns the verdict.
func (o *Outcome) Status() Status { return o.status }

// Resolution returns the resolved position, zero for errors.
func (o *Outcome) Resolution() sky.Resolution { return o.resolution }

// Result returns the search result, zero for errors.
func (o *Outcome) Result() result.Result { return o.result }

// Err returns the error, if any.
func (o *Outcome) Err() error { return o.err }

// Report is a full run over a target list.
type Report struct {
	RunID        string
	RadiusArcsec float64
	Outcomes     []Outcome
}

// Count returns how many outcomes have the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for i := range r.Outcomes {
		if r.Outcomes[i].status == s {
			n++
		}
	}
	return n
}
