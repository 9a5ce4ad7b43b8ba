package health

import (
	"context"
	"time"
)

// DefaultTimeout bounds one archive health check.
const DefaultTimeout = 5 * time.Second

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the archive is unreachable; local validation still works.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Latency map[string]time.Duration
	Errors  map[string]error // only failing checks; not for clients
}

// Service coordinates health checks.
type Service struct {
	archive ArchiveChecker
	timeout time.Duration
}

// New creates a Service. archive can be nil when running offline.
func New(archive ArchiveChecker) *Service {
	return &Service{archive: archive, timeout: DefaultTimeout}
}

// WithTimeout overrides the health check deadline.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check pings the archive. The process itself is always up, so a failing
// archive degrades the report instead of failing it.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{
		Status:  Healthy,
		Checks:  make(map[string]CheckResult),
		Latency: make(map[string]time.Duration),
		Errors:  make(map[string]error),
	}
	if s.archive == nil {
		return r
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.archive.HealthCheck(checkCtx)
	r.Latency["mast"] = time.Since(start)
	if err != nil {
		r.Checks["mast"] = CheckError
		r.Errors["mast"] = err
		r.Status = Degraded
		return r
	}
	r.Checks["mast"] = CheckOK
	return r
}
