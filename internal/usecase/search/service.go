package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mastplan/internal/domain"
	"github.com/kailas-cloud/mastplan/internal/domain/search/columns"
	"github.com/kailas-cloud/mastplan/internal/domain/search/request"
	"github.com/kailas-cloud/mastplan/internal/domain/search/result"
	"github.com/kailas-cloud/mastplan/internal/metrics"
)

// Defaults for the filtered cone search.
const (
	DefaultService      = "Mast.Caom.Filtered.Position"
	DefaultMaxFullFetch = 1000
)

// countColumn is the name the catalog gives an unaliased aggregate.
const countColumn = "Column1"

// Config tunes the count-first search.
type Config struct {
	Service      string
	MaxFullFetch int64 // counts above this are returned without records
}

// Service performs count-first filtered cone searches.
type Service struct {
	catalog      Catalog
	service      string
	maxFullFetch int64
	logger       *zap.Logger
}

// New creates a search service. Zero config values fall back to defaults.
func New(catalog Catalog, cfg Config, logger *zap.Logger) *Service {
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	if cfg.MaxFullFetch <= 0 {
		cfg.MaxFullFetch = DefaultMaxFullFetch
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:      catalog,
		service:      cfg.Service,
		maxFullFetch: cfg.MaxFullFetch,
		logger:       logger,
	}
}

// Search counts matching observations first and fetches records only
// when 1 <= count <= MaxFullFetch and the request is not count-only.
// Exactly one count query is issued, followed by at most one record query.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Result, error) {
	start := time.Now()

	table, err := s.catalog.Query(ctx, s.service, req.Params(columns.Count))
	if err != nil {
		return result.Result{}, fmt.Errorf("count query: %w", err)
	}
	count, err := parseCount(table)
	if err != nil {
		return result.Result{}, fmt.Errorf("count query: %w", err)
	}

	if branch, short := s.shortCircuit(count, req.CountOnly()); short {
		metrics.SearchBranchTotal.WithLabelValues(string(branch)).Inc()
		s.logger.Debug("Search answered by count",
			zap.Stringer("position", req.Position()),
			zap.Float64("radius_arcsec", req.RadiusArcsec()),
			zap.Int64("count", count),
			zap.String("branch", string(branch)),
			zap.Duration("duration", time.Since(start)),
		)
		return result.NewCount(count, branch), nil
	}

	records, err := s.catalog.Query(ctx, s.service, req.Params(columns.All))
	if err != nil {
		return result.Result{}, fmt.Errorf("record query: %w", err)
	}
	if int64(len(records.Rows)) != count {
		s.logger.Warn("Record query returned a different row count",
			zap.Int64("count", count),
			zap.Int("rows", len(records.Rows)),
		)
	}

	metrics.SearchBranchTotal.WithLabelValues(string(result.BranchFull)).Inc()
	s.logger.Debug("Search fetched records",
		zap.Stringer("position", req.Position()),
		zap.Float64("radius_arcsec", req.RadiusArcsec()),
		zap.Int64("count", count),
		zap.Duration("duration", time.Since(start)),
	)
	return result.NewRecords(count, records), nil
}

// shortCircuit decides whether the count alone answers the request.
func (s *Service) shortCircuit(count int64, countOnly bool) (result.Branch, bool) {
	switch {
	case countOnly:
		return result.BranchCountOnly, true
	case count == 0:
		return result.BranchEmpty, true
	case count > s.maxFullFetch:
		return result.BranchTooLarge, true
	default:
		return "", false
	}
}

// parseCount extracts a non-negative integer from a single-row count table.
func parseCount(t result.Table) (int64, error) {
	if len(t.Rows) != 1 {
		return 0, fmt.Errorf("%w: count table has %d rows", domain.ErrMalformedResponse, len(t.Rows))
	}
	row := t.Rows[0]

	v, ok := row[countColumn]
	if !ok {
		if len(row) != 1 {
			return 0, fmt.Errorf("%w: count row has %d columns", domain.ErrMalformedResponse, len(row))
		}
		for _, only := range row {
			v = only
		}
	}

	n, err := toCount(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	return n, nil
}

func toCount(v any) (int64, error) {
	var n int64
	switch x := v.(type) {
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("count %q is not an integer", x)
		}
		n = i
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("count %v is not an integer", x)
		}
		n = int64(x)
	case int64:
		n = x
	case int:
		n = int64(x)
	case string:
		i, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("count %q is not an integer", x)
		}
		n = i
	default:
		return 0, fmt.Errorf("count has unexpected type %T", v)
	}
	if n < 0 {
		return 0, fmt.Errorf("count %d is negative", n)
	}
	return n, nil
}
