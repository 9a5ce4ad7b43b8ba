package sky

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/mastplan/internal/domain"
)

// ArcsecPerDegree is the number of arcseconds in one degree.
const ArcsecPerDegree = 3600.0

// Position is an ICRS sky position in degrees. Immutable once created.
type Position struct {
	ra  float64
	dec float64
}

// NewPosition validates and creates a Position.
// RA must be in [0,360), Dec in [-90,90].
func NewPosition(raDeg, decDeg float64) (Position, error) {
	if !ValidateCoordinates(raDeg, decDeg) {
		return Position{}, fmt.Errorf("%w: ra=%v dec=%v", domain.ErrInvalidPosition, raDeg, decDeg)
	}
	return Position{ra: raDeg, dec: decDeg}, nil
}

// RA returns the right ascension in degrees.
func (p Position) RA() float64 { return p.ra }

// Dec returns the declination in degrees.
func (p Position) Dec() float64 { return p.dec }

func (p Position) String() string {
	return fmt.Sprintf("(%.6f, %+.6f)", p.ra, p.dec)
}

// ValidateCoordinates checks that RA is in [0,360) and Dec in [-90,90].
func ValidateCoordinates(raDeg, decDeg float64) bool {
	if math.IsNaN(raDeg) || math.IsNaN(decDeg) {
		return false
	}
	return raDeg >= 0 && raDeg < 360 && decDeg >= -90 && decDeg <= 90
}

// ArcsecToDegrees converts an angle in arcseconds to degrees.
func ArcsecToDegrees(arcsec float64) float64 {
	return arcsec / ArcsecPerDegree
}

// ToUnitVector converts RA/Dec (degrees) to a unit vector on the celestial sphere.
func ToUnitVector(raDeg, decDeg float64) [3]float64 {
	ra := raDeg * math.Pi / 180
	dec := decDeg * math.Pi / 180
	return [3]float64{
		math.Cos(dec) * math.Cos(ra),
		math.Cos(dec) * math.Sin(ra),
		math.Sin(dec),
	}
}

// SeparationArcsec returns the great-circle angle between two positions in arcseconds.
// atan2 of the cross and dot products stays accurate at both tiny and antipodal separations.
func SeparationArcsec(a, b Position) float64 {
	u := ToUnitVector(a.ra, a.dec)
	v := ToUnitVector(b.ra, b.dec)

	cross := [3]float64{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	sin := math.Sqrt(cross[0]*cross[0] + cross[1]*cross[1] + cross[2]*cross[2])
	cos := u[0]*v[0] + u[1]*v[1] + u[2]*v[2]

	return math.Atan2(sin, cos) * 180 / math.Pi * ArcsecPerDegree
}
