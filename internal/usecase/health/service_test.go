package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockArchiveChecker struct {
	err   error
	delay time.Duration
}

func (m *mockArchiveChecker) HealthCheck(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	return m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockArchiveChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["mast"] != CheckOK {
		t.Errorf("expected mast %q, got %q", CheckOK, r.Checks["mast"])
	}
	if _, ok := r.Latency["mast"]; !ok {
		t.Error("expected mast latency")
	}
	if len(r.Errors) != 0 {
		t.Errorf("expected no errors, got %v", r.Errors)
	}
}

func TestCheck_ArchiveError(t *testing.T) {
	svc := New(&mockArchiveChecker{err: errors.New("connection refused")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["mast"] != CheckError {
		t.Errorf("expected mast %q, got %q", CheckError, r.Checks["mast"])
	}
	if r.Errors["mast"] == nil {
		t.Error("expected mast error detail")
	}
}

func TestCheck_Timeout(t *testing.T) {
	svc := New(&mockArchiveChecker{delay: time.Second}).WithTimeout(10 * time.Millisecond)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if !errors.Is(r.Errors["mast"], context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", r.Errors["mast"])
	}
}

func TestCheck_NoArchive(t *testing.T) {
	svc := New(nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["mast"]; ok {
		t.Error("mast check should be skipped")
	}
}
