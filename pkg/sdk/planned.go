package mastplan

import (
	"context"
	"errors"
	"fmt"
)

// DefaultRadiusArcsec is the cone radius used by the builder when Arcsec is not called.
const DefaultRadiusArcsec = 10.0

// PlannedSearch is a fluent builder for planned-observation searches.
type PlannedSearch struct {
	client *Client

	target  string
	pos     *Position
	radius  float64
	filters []Filter
	noDef   bool
	count   bool
}

// Planned starts a search builder. Without Where/Between the planned-JWST defaults apply.
func (c *Client) Planned() *PlannedSearch {
	return &PlannedSearch{client: c, radius: DefaultRadiusArcsec}
}

// Target searches around the resolved position of an object name.
func (b *PlannedSearch) Target(name string) *PlannedSearch {
	b.target = name
	b.pos = nil
	return b
}

// Near searches around explicit ICRS coordinates in degrees.
func (b *PlannedSearch) Near(ra, dec float64) *PlannedSearch {
	b.pos = &Position{RA: ra, Dec: dec}
	b.target = ""
	return b
}

// Arcsec sets the cone radius in arcseconds.
func (b *PlannedSearch) Arcsec(r float64) *PlannedSearch {
	b.radius = r
	return b
}

// Arcmin sets the cone radius in arcminutes.
func (b *PlannedSearch) Arcmin(r float64) *PlannedSearch {
	b.radius = r * 60
	return b
}

// Where adds an equals-one-of filter. The first filter replaces the defaults.
func (b *PlannedSearch) Where(param string, values ...string) *PlannedSearch {
	b.filters = append(b.filters, Equals(param, values...))
	return b
}

// Between adds an inclusive numeric range filter.
func (b *PlannedSearch) Between(param string, minVal, maxVal float64) *PlannedSearch {
	b.filters = append(b.filters, Between(param, minVal, maxVal))
	return b
}

// AnyCollection drops the default filters when no other filter is set.
func (b *PlannedSearch) AnyCollection() *PlannedSearch {
	b.noDef = true
	return b
}

// CountOnly skips the record fetch.
func (b *PlannedSearch) CountOnly() *PlannedSearch {
	b.count = true
	return b
}

// Do executes the search.
func (b *PlannedSearch) Do(ctx context.Context) (SearchResult, error) {
	opts := &SearchOptions{Filters: b.filters, NoDefaultFilters: b.noDef, CountOnly: b.count}

	switch {
	case b.pos != nil:
		return b.client.Search(ctx, *b.pos, b.radius, opts)
	case b.target != "":
		_, res, err := b.client.SearchTarget(ctx, b.target, b.radius, opts)
		if err != nil {
			return SearchResult{}, fmt.Errorf("planned search %q: %w", b.target, err)
		}
		return res, nil
	default:
		return SearchResult{}, errors.New("mastplan: Target or Near is required")
	}
}
