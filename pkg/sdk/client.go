package mastplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domcheck "github.com/kailas-cloud/mastplan/internal/domain/check"
	"github.com/kailas-cloud/mastplan/internal/domain/search/filter"
	"github.com/kailas-cloud/mastplan/internal/domain/search/request"
	"github.com/kailas-cloud/mastplan/internal/domain/search/result"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
	mastTransport "github.com/kailas-cloud/mastplan/internal/transport/mast"
	checkuc "github.com/kailas-cloud/mastplan/internal/usecase/check"
	healthuc "github.com/kailas-cloud/mastplan/internal/usecase/health"
	resolveuc "github.com/kailas-cloud/mastplan/internal/usecase/resolve"
	searchuc "github.com/kailas-cloud/mastplan/internal/usecase/search"
)

// Internal interfaces so tests can swap the use cases.
type resolveUseCase interface {
	ResolveDetailed(ctx context.Context, name string) (sky.Resolution, error)
}

type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (result.Result, error)
}

type checkUseCase interface {
	Run(ctx context.Context, names []string, radiusArcsec float64, filters *filter.Spec, countOnly bool) (domcheck.Report, error)
}

// Client is the mastplan SDK entry point. It is safe for concurrent use.
type Client struct {
	resolveSvc resolveUseCase
	searchSvc  searchUseCase
	checkSvc   checkUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New creates a Client. No network call is made until the first query.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.timeout < 0 || cfg.rps < 0 || cfg.maxFullFetch < 0 {
		return nil, errors.New("mastplan: timeout, rate limit and max full fetch must not be negative")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireClient(cfg, obs), nil
}

func wireClient(cfg *clientConfig, obs *observer) *Client {
	// Internal layers log with zap; the SDK reports through obs only.
	log := zap.NewNop()

	archive := mastTransport.NewClient(&mastTransport.Config{
		BaseURL:           cfg.baseURL,
		ResolverService:   cfg.resolverService,
		Timeout:           cfg.timeout,
		PollInterval:      cfg.pollInterval,
		RequestsPerSecond: cfg.rps,
		UserAgent:         cfg.userAgent,
		HTTPClient:        cfg.httpClient,
		Logger:            log,
	})

	resolveSvc := resolveuc.New(archive, log)
	searchSvc := searchuc.New(archive, searchuc.Config{
		Service:      cfg.service,
		MaxFullFetch: cfg.maxFullFetch,
	}, log)
	checkSvc := checkuc.New(resolveSvc, searchSvc, log).WithMaxTargets(cfg.maxTargets)

	return &Client{
		resolveSvc: resolveSvc,
		searchSvc:  searchSvc,
		checkSvc:   checkSvc,
		healthSvc:  healthuc.New(archive),
		obs:        obs,
	}
}

// Resolve looks up an object name. ErrNameNotResolved means the lookup found nothing.
func (c *Client) Resolve(ctx context.Context, name string) (res Resolution, err error) {
	start := time.Now()
	defer func() { c.obs.observe("resolve", start, err, "name", name) }()

	r, err := c.resolveSvc.ResolveDetailed(ctx, name)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %q: %w", name, err)
	}
	return fromResolution(&r), nil
}

// Search runs a count-first cone search around pos. opts may be nil.
func (c *Client) Search(
	ctx context.Context, pos Position, radiusArcsec float64, opts *SearchOptions,
) (res SearchResult, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("search", start, err, "ra", pos.RA, "dec", pos.Dec, "count", res.Count)
	}()

	req, err := buildRequest(pos, radiusArcsec, opts)
	if err != nil {
		return SearchResult{}, err
	}
	r, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	return fromResult(&r), nil
}

// SearchTarget resolves name and searches around its position.
func (c *Client) SearchTarget(
	ctx context.Context, name string, radiusArcsec float64, opts *SearchOptions,
) (Resolution, SearchResult, error) {
	r, err := c.Resolve(ctx, name)
	if err != nil {
		return Resolution{}, SearchResult{}, err
	}
	res, err := c.Search(ctx, r.Position, radiusArcsec, opts)
	if err != nil {
		return r, SearchResult{}, err
	}
	return r, res, nil
}

func buildRequest(pos Position, radiusArcsec float64, opts *SearchOptions) (request.Request, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	p, err := sky.NewPosition(pos.RA, pos.Dec)
	if err != nil {
		return request.Request{}, err
	}
	spec, err := toSpec(opts.Filters, opts.NoDefaultFilters)
	if err != nil {
		return request.Request{}, err
	}
	req, err := request.New(p, radiusArcsec, spec, opts.CountOnly)
	if err != nil {
		return request.Request{}, err
	}
	return req, nil
}

// toSpec returns nil (defaults) when no filters are given and defaults are allowed.
func toSpec(filters []Filter, noDefault bool) (*filter.Spec, error) {
	if len(filters) == 0 && !noDefault {
		return nil, nil
	}
	entries := make([]filter.Entry, len(filters))
	for i, f := range filters {
		switch {
		case f.Range != nil && len(f.Values) > 0:
			return nil, fmt.Errorf("%w: filter %q sets both values and range", ErrInvalidFilterSpec, f.Param)
		case f.Range != nil:
			entries[i] = filter.Between(f.Param, f.Range.Min, f.Range.Max)
		default:
			entries[i] = filter.Equals(f.Param, f.Values...)
		}
	}
	spec, err := filter.NewSpec(entries...)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

func fromResolution(r *sky.Resolution) Resolution {
	return Resolution{
		Query:         r.Query,
		CanonicalName: r.CanonicalName,
		Position:      Position{RA: r.Position.RA(), Dec: r.Position.Dec()},
		Resolver:      r.Resolver,
		ObjectType:    r.ObjectType,
	}
}

func fromResult(r *result.Result) SearchResult {
	out := SearchResult{Count: r.Count(), Branch: Branch(r.Branch())}
	if !r.HasRecords() {
		return out
	}
	out.Fields = make([]Field, len(r.Fields()))
	for i, f := range r.Fields() {
		out.Fields[i] = Field{Name: f.Name, Type: f.Type}
	}
	out.Observations = make([]map[string]any, len(r.Observations()))
	for i, o := range r.Observations() {
		out.Observations[i] = o
	}
	return out
}
