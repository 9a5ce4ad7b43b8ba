package request

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/mastplan/internal/domain"
	"github.com/kailas-cloud/mastplan/internal/domain/search/columns"
	"github.com/kailas-cloud/mastplan/internal/domain/search/filter"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
)

// MaxRadiusArcsec caps the cone radius at 180 degrees.
const MaxRadiusArcsec = 180 * sky.ArcsecPerDegree

// Request is a validated cone search.
type Request struct {
	position     sky.Position
	radiusArcsec float64
	filters      filter.Spec
	countOnly    bool
}

// New validates search parameters.
// A nil filters pointer selects filter.Default(); a non-nil empty spec means no filters.
func New(
	pos sky.Position,
	radiusArcsec float64,
	filters *filter.Spec,
	countOnly bool,
) (Request, error) {
	if math.IsNaN(radiusArcsec) || radiusArcsec <= 0 {
		return Request{}, fmt.Errorf("%w: radius must be positive, got %v", domain.ErrInvalidPosition, radiusArcsec)
	}
	if radiusArcsec > MaxRadiusArcsec {
		return Request{}, fmt.Errorf("%w: radius exceeds %v arcsec", domain.ErrInvalidPosition, MaxRadiusArcsec)
	}

	spec := filter.Default()
	if filters != nil {
		spec = *filters
	}

	return Request{
		position:     pos,
		radiusArcsec: radiusArcsec,
		filters:      spec,
		countOnly:    countOnly,
	}, nil
}

// Position returns the cone center.
func (r *Request) Position() sky.Position { return r.position }

// RadiusArcsec returns the cone radius in arcseconds.
func (r *Request) RadiusArcsec() float64 { return r.radiusArcsec }

// RadiusDegrees returns the cone radius in degrees, the unit the catalog expects.
func (r *Request) RadiusDegrees() float64 { return sky.ArcsecToDegrees(r.radiusArcsec) }

// Filters returns the filter conjunction.
func (r *Request) Filters() filter.Spec { return r.filters }

// CountOnly reports whether the caller wants the count without records.
func (r *Request) CountOnly() bool { return r.countOnly }

// Params builds the wire-neutral query for the given column selection.
// Position and filters are identical for every selection.
func (r *Request) Params(c columns.Columns) Params {
	return Params{
		Columns:  c.Expr(),
		Filters:  r.filters,
		Position: FormatPosition(r.position, r.RadiusDegrees()),
	}
}

// Params is a catalog query: column expression, filters and "ra, dec, radius" position.
type Params struct {
	Columns  string
	Filters  filter.Spec
	Position string
}

// FormatPosition renders "ra, dec, radiusDegrees" with the shortest exact decimal form.
func FormatPosition(pos sky.Position, radiusDeg float64) string {
	return formatFloat(pos.RA()) + ", " + formatFloat(pos.Dec()) + ", " + formatFloat(radiusDeg)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
