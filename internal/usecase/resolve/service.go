package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mastplan/internal/domain"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
	"github.com/kailas-cloud/mastplan/internal/metrics"
)

// Service turns object names into sky positions.
type Service struct {
	lookup NameLookup
	logger *zap.Logger
}

// New creates a resolve service.
func New(lookup NameLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{lookup: lookup, logger: logger}
}

// Resolve returns the position of the first candidate for name.
func (s *Service) Resolve(ctx context.Context, name string) (sky.Position, error) {
	res, err := s.ResolveDetailed(ctx, name)
	if err != nil {
		return sky.Position{}, err
	}
	return res.Position, nil
}

// ResolveDetailed returns the first candidate together with its resolver metadata.
// The name is trimmed but otherwise passed through unchanged.
func (s *Service) ResolveDetailed(ctx context.Context, name string) (res sky.Resolution, err error) {
	defer func() { metrics.ResolveTotal.WithLabelValues(outcome(err)).Inc() }()

	query := strings.TrimSpace(name)
	if query == "" {
		return sky.Resolution{}, fmt.Errorf("%w: name is empty", domain.ErrInvalidName)
	}

	candidates, err := s.lookup.Resolve(ctx, query)
	if err != nil {
		return sky.Resolution{}, fmt.Errorf("resolve %q: %w", query, err)
	}
	if len(candidates) == 0 {
		return sky.Resolution{}, fmt.Errorf("%w: %q", domain.ErrNameNotResolved, query)
	}

	first := candidates[0]
	pos, err := sky.NewPosition(first.RA, first.Dec)
	if err != nil {
		return sky.Resolution{}, fmt.Errorf("%w: resolver returned %w", domain.ErrMalformedResponse, err)
	}

	s.logger.Debug("Resolved object name",
		zap.String("name", query),
		zap.String("canonical_name", first.CanonicalName),
		zap.String("resolver", first.Resolver),
		zap.Stringer("position", pos),
		zap.Int("candidates", len(candidates)),
	)

	return sky.Resolution{
		Query:         query,
		CanonicalName: first.CanonicalName,
		Position:      pos,
		Resolver:      first.Resolver,
		ObjectType:    first.ObjectType,
	}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "resolved"
	case errors.Is(err, domain.ErrNameNotResolved):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidName):
		return "invalid"
	default:
		return "error"
	}
}
