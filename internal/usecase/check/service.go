package check

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mastplan/internal/domain"
	domcheck "github.com/kailas-cloud/mastplan/internal/domain/check"
	"github.com/kailas-cloud/mastplan/internal/domain/search/filter"
	"github.com/kailas-cloud/mastplan/internal/domain/search/request"
	"github.com/kailas-cloud/mastplan/internal/logger"
)

// MaxTargets is the maximum number of names per run.
const MaxTargets = 100

// Service checks a list of targets for already planned observations.
type Service struct {
	resolver   Resolver
	searcher   Searcher
	maxTargets int
	logger     *zap.Logger
}

// New creates a check service.
func New(resolver Resolver, searcher Searcher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{resolver: resolver, searcher: searcher, maxTargets: MaxTargets, logger: log}
}

// WithMaxTargets configures the maximum run size.
func (s *Service) WithMaxTargets(n int) *Service {
	if n > 0 {
		s.maxTargets = n
	}
	return s
}

// Run resolves and searches each name in order, one at a time.
// A failing target is recorded in its outcome and the loop moves on.
// Only a canceled context stops the run early; the partial report is returned with the error.
func (s *Service) Run(
	ctx context.Context, names []string, radiusArcsec float64, filters *filter.Spec, countOnly bool,
) (domcheck.Report, error) {
	report := domcheck.Report{RunID: uuid.NewString(), RadiusArcsec: radiusArcsec}

	if len(names) == 0 {
		return report, fmt.Errorf("%w: no targets given", domain.ErrInvalidName)
	}
	if len(names) > s.maxTargets {
		return report, fmt.Errorf("%w: %d targets exceeds %d", domain.ErrInvalidName, len(names), s.maxTargets)
	}

	log := s.logger.With(zap.String("run_id", report.RunID))
	ctx = logger.ContextWithLogger(ctx, log)
	start := time.Now()

	report.Outcomes = make([]domcheck.Outcome, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("check run %s: %w", report.RunID, err)
		}
		report.Outcomes = append(report.Outcomes, s.checkOne(ctx, name, radiusArcsec, filters, countOnly))
	}

	log.Info("Check run finished",
		zap.Int("targets", len(names)),
		zap.Int("planned", report.Count(domcheck.StatusPlanned)),
		zap.Int("clear", report.Count(domcheck.StatusClear)),
		zap.Int("errors", report.Count(domcheck.StatusError)),
		zap.Duration("duration", time.Since(start)),
	)
	return report, nil
}

func (s *Service) checkOne(
	ctx context.Context, name string, radiusArcsec float64, filters *filter.Spec, countOnly bool,
) domcheck.Outcome {
	ctx, log := logger.With(ctx, zap.String("target", name))

	res, err := s.resolver.ResolveDetailed(ctx, name)
	if err != nil {
		log.Warn("Target not resolved", zap.Error(err))
		return domcheck.NewError(name, err)
	}

	req, err := request.New(res.Position, radiusArcsec, filters, countOnly)
	if err != nil {
		return domcheck.NewError(name, err)
	}

	r, err := s.searcher.Search(ctx, &req)
	if err != nil {
		log.Warn("Target search failed", zap.Error(err))
		return domcheck.NewError(name, err)
	}

	log.Debug("Target checked",
		zap.Int64("count", r.Count()),
		zap.String("branch", string(r.Branch())),
	)
	return domcheck.NewFound(name, res, r)
}
