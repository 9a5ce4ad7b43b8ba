package resolve

import (
	"context"

	"github.com/kailas-cloud/mastplan/internal/domain/sky"
)

// NameLookup queries a name resolution service.
// An empty result with a nil error means the service found nothing.
type NameLookup interface {
	Resolve(ctx context.Context, name string) ([]sky.Candidate, error)
}
