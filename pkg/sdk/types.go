package mastplan

// Position is an ICRS sky position in degrees.
type Position struct {
	RA  float64
	Dec float64
}

// Resolution is the outcome of a name lookup.
type Resolution struct {
	Query         string
	CanonicalName string
	Position      Position
	Resolver      string // e.g. "NED", "SIMBAD"
	ObjectType    string
}

// Branch names the path a count-first search took.
type Branch string

// Branch constants.
const (
	BranchFull      Branch = "full"       // records fetched
	BranchCountOnly Branch = "count_only" // caller asked for the count
	BranchEmpty     Branch = "empty"      // nothing matched
	BranchTooLarge  Branch = "too_large"  // count above the full-fetch limit
)

// Filter is a single column constraint passed to the archive as is.
// Exactly one of Values or Range must be set.
type Filter struct {
	Param  string
	Values []string
	Range  *Range
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64
	Max float64
}

// Equals builds a column-equals-one-of filter.
func Equals(param string, values ...string) Filter {
	return Filter{Param: param, Values: values}
}

// Between builds an inclusive numeric range filter.
func Between(param string, minVal, maxVal float64) Filter {
	return Filter{Param: param, Range: &Range{Min: minVal, Max: maxVal}}
}

// SearchOptions configures a cone search.
// Empty Filters selects the planned-JWST defaults (calib_level=-1, obs_collection=JWST)
// unless NoDefaultFilters is set.
type SearchOptions struct {
	Filters          []Filter
	NoDefaultFilters bool
	CountOnly        bool
}

// Field describes one column of the returned table.
type Field struct {
	Name string
	Type string
}

// SearchResult is the outcome of a count-first search.
// Observations is only populated for BranchFull.
type SearchResult struct {
	Count        int64
	Branch       Branch
	Fields       []Field
	Observations []map[string]any
}

// CheckStatus is the verdict for one target of a Check run.
type CheckStatus string

// Check status constants.
const (
	CheckPlanned CheckStatus = "planned"
	CheckClear   CheckStatus = "clear"
	CheckError   CheckStatus = "error"
)

// CheckItem is the outcome for one target.
type CheckItem struct {
	Target     string
	Status     CheckStatus
	Resolution Resolution   // zero when Status is CheckError
	Result     SearchResult // zero when Status is CheckError
	Err        error
}

// CheckReport is the outcome of a Check run.
type CheckReport struct {
	RunID        string
	RadiusArcsec float64
	Items        []CheckItem
}
