package chi

import (
	"fmt"

	"github.com/kailas-cloud/mastplan/internal/domain"
	"github.com/kailas-cloud/mastplan/internal/domain/search/filter"
	"github.com/kailas-cloud/mastplan/internal/domain/search/result"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeNameNotResolved    ErrorCode = "name_not_resolved"
	ErrorCodeInvalidFilterSpec  ErrorCode = "invalid_filter_spec"
	ErrorCodeServiceUnavailable ErrorCode = "service_unavailable"
	ErrorCodeMalformedResponse  ErrorCode = "malformed_response"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// FilterDTO is one filter entry: either values or a numeric range.
type FilterDTO struct {
	Param  string    `json:"param" validate:"required,max=64"`
	Values []string  `json:"values,omitempty" validate:"omitempty,max=100,dive,required"`
	Range  *RangeDTO `json:"range,omitempty"`
}

// RangeDTO is an inclusive numeric interval.
type RangeDTO struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SearchRequest is the body of POST /v1/search.
// Either Target or both RA and Dec must be set.
type SearchRequest struct {
	Target       string      `json:"target,omitempty" validate:"omitempty,max=256"`
	RA           *float64    `json:"ra,omitempty" validate:"omitempty,gte=0,lt=360"`
	Dec          *float64    `json:"dec,omitempty" validate:"omitempty,gte=-90,lte=90"`
	RadiusArcsec *float64    `json:"radius_arcsec,omitempty" validate:"omitempty,gt=0,lte=648000"`
	Filters      []FilterDTO `json:"filters,omitempty" validate:"omitempty,max=32,dive"`
	CountOnly    bool        `json:"count_only,omitempty"`
}

// CheckRequest is the body of POST /v1/check.
type CheckRequest struct {
	Targets      []string    `json:"targets" validate:"required,min=1,dive,required,max=256"`
	RadiusArcsec *float64    `json:"radius_arcsec,omitempty" validate:"omitempty,gt=0,lte=648000"`
	Filters      []FilterDTO `json:"filters,omitempty" validate:"omitempty,max=32,dive"`
	CountOnly    bool        `json:"count_only,omitempty"`
}

// PositionDTO is an ICRS position in degrees.
type PositionDTO struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// ResolveResponse is the body of GET /v1/resolve.
type ResolveResponse struct {
	Query         string      `json:"query"`
	CanonicalName string      `json:"canonical_name,omitempty"`
	Position      PositionDTO `json:"position"`
	Resolver      string      `json:"resolver,omitempty"`
	ObjectType    string      `json:"object_type,omitempty"`
}

// FieldDTO describes one returned column.
type FieldDTO struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Target       *ResolveResponse `json:"target,omitempty"`
	Position     PositionDTO      `json:"position"`
	RadiusArcsec float64          `json:"radius_arcsec"`
	Count        int64            `json:"count"`
	Branch       string           `json:"branch"`
	Fields       []FieldDTO       `json:"fields,omitempty"`
	Observations []map[string]any `json:"observations,omitempty"`
}

// CheckItem is the outcome for one target.
type CheckItem struct {
	Target        string         `json:"target"`
	Status        string         `json:"status"`
	CanonicalName string         `json:"canonical_name,omitempty"`
	Position      *PositionDTO   `json:"position,omitempty"`
	Count         *int64         `json:"count,omitempty"`
	Branch        string         `json:"branch,omitempty"`
	Error         *ErrorResponse `json:"error,omitempty"`
}

// CheckResponse is the body of POST /v1/check.
type CheckResponse struct {
	RunID        string      `json:"run_id"`
	RadiusArcsec float64     `json:"radius_arcsec"`
	Planned      int         `json:"planned"`
	Clear        int         `json:"clear"`
	Errors       int         `json:"errors"`
	Items        []CheckItem `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	LatencyMs map[string]int64  `json:"latency_ms,omitempty"`
}

// filtersFromDTO converts request filters. A nil slice selects the default filters;
// an explicit empty list means no filters.
func filtersFromDTO(ff []FilterDTO) (*filter.Spec, error) {
	if ff == nil {
		return nil, nil
	}
	entries := make([]filter.Entry, len(ff))
	for i, f := range ff {
		if f.Range != nil {
			if len(f.Values) > 0 {
				return nil, fmt.Errorf("%w: filter %q has both values and range", domain.ErrInvalidFilterSpec, f.Param)
			}
			entries[i] = filter.Between(f.Param, f.Range.Min, f.Range.Max)
			continue
		}
		entries[i] = filter.Equals(f.Param, f.Values...)
	}
	spec, err := filter.NewSpec(entries...)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

func positionToDTO(p sky.Position) PositionDTO {
	return PositionDTO{RA: p.RA(), Dec: p.Dec()}
}

func resolutionToDTO(r *sky.Resolution) ResolveResponse {
	return ResolveResponse{
		Query:         r.Query,
		CanonicalName: r.CanonicalName,
		Position:      positionToDTO(r.Position),
		Resolver:      r.Resolver,
		ObjectType:    r.ObjectType,
	}
}

func resultToDTO(r *result.Result, pos sky.Position, radiusArcsec float64) SearchResponse {
	resp := SearchResponse{
		Position:     positionToDTO(pos),
		RadiusArcsec: radiusArcsec,
		Count:        r.Count(),
		Branch:       string(r.Branch()),
	}
	if !r.HasRecords() {
		return resp
	}
	resp.Fields = make([]FieldDTO, len(r.Fields()))
	for i, f := range r.Fields() {
		resp.Fields[i] = FieldDTO{Name: f.Name, Type: f.Type}
	}
	resp.Observations = make([]map[string]any, len(r.Observations()))
	for i, o := range r.Observations() {
		resp.Observations[i] = o
	}
	return resp
}
