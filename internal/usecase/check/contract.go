package check

import (
	"context"

	"github.com/kailas-cloud/mastplan/internal/domain/search/request"
	"github.com/kailas-cloud/mastplan/internal/domain/search/result"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
)

// Resolver turns object names into positions.
type Resolver interface {
	ResolveDetailed(ctx context.Context, name string) (sky.Resolution, error)
}

// Searcher runs a count-first cone search.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (result.Result, error)
}
