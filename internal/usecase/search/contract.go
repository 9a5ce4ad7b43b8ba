package search

import (
	"context"

	"github.com/kailas-cloud/mastplan/internal/domain/search/request"
	"github.com/kailas-cloud/mastplan/internal/domain/search/result"
)

// Catalog runs one logical query against a catalog service.
type Catalog interface {
	Query(ctx context.Context, service string, p request.Params) (result.Table, error)
}
