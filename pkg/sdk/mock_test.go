package mastplan

import (
	"context"

	domcheck "github.com/kailas-cloud/mastplan/internal/domain/check"
	"github.com/kailas-cloud/mastplan/internal/domain/search/filter"
	"github.com/kailas-cloud/mastplan/internal/domain/search/request"
	"github.com/kailas-cloud/mastplan/internal/domain/search/result"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
	healthuc "github.com/kailas-cloud/mastplan/internal/usecase/health"
)

// --- resolveUseCase mock ---

type mockResolveUC struct {
	fn func(ctx context.Context, name string) (sky.Resolution, error)
}

func (m *mockResolveUC) ResolveDetailed(ctx context.Context, name string) (sky.Resolution, error) {
	return m.fn(ctx, name)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	fn  func(ctx context.Context, req *request.Request) (result.Result, error)
	got *request.Request
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) (result.Result, error) {
	m.got = req
	return m.fn(ctx, req)
}

// --- checkUseCase mock ---

type mockCheckUC struct {
	fn func(ctx context.Context, names []string, radius float64, f *filter.Spec, countOnly bool) (domcheck.Report, error)
}

func (m *mockCheckUC) Run(
	ctx context.Context, names []string, radius float64, f *filter.Spec, countOnly bool,
) (domcheck.Report, error) {
	return m.fn(ctx, names, radius, f, countOnly)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }
