package health

import "context"

// ArchiveChecker checks archive portal availability.
type ArchiveChecker interface {
	HealthCheck(ctx context.Context) error
}
