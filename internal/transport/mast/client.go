package mast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/mastplan/internal/domain"
	"github.com/kailas-cloud/mastplan/internal/domain/search/filter"
	"github.com/kailas-cloud/mastplan/internal/domain/search/request"
	"github.com/kailas-cloud/mastplan/internal/domain/search/result"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
	"github.com/kailas-cloud/mastplan/internal/metrics"
)

// Defaults for the public MAST portal.
const (
	DefaultBaseURL         = "https://mast.stsci.edu"
	DefaultInvokePath      = "/api/v0/invoke"
	DefaultResolverService = "Mast.Name.Lookup"
	DefaultTimeout         = 60 * time.Second
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultPageSize        = 50000
	DefaultUserAgent       = "mastplan"

	maxErrorBody = 4 << 10
)

// Config holds the archive client settings.
type Config struct {
	BaseURL           string
	InvokePath        string
	ResolverService   string
	Timeout           time.Duration // per call, covers EXECUTING polls
	PollInterval      time.Duration
	RequestsPerSecond float64 // 0 = unlimited
	PageSize          int
	UserAgent         string
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

// Client talks to the MAST invoke API.
type Client struct {
	invokeURL       string
	baseURL         string
	resolverService string
	timeout         time.Duration
	pollInterval    time.Duration
	pageSize        int
	userAgent       string
	limiter         *rate.Limiter
	httpClient      *http.Client
	logger          *zap.Logger
}

// NewClient creates a MAST client. Zero-valued settings fall back to defaults.
func NewClient(cfg *Config) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(firstNonEmpty(cfg.BaseURL, DefaultBaseURL), "/"),
		resolverService: firstNonEmpty(cfg.ResolverService, DefaultResolverService),
		timeout:         cfg.Timeout,
		pollInterval:    cfg.PollInterval,
		pageSize:        cfg.PageSize,
		userAgent:       firstNonEmpty(cfg.UserAgent, DefaultUserAgent),
		httpClient:      cfg.HTTPClient,
		logger:          cfg.Logger,
	}
	c.invokeURL = c.baseURL + "/" + strings.TrimLeft(firstNonEmpty(cfg.InvokePath, DefaultInvokePath), "/")
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// Resolve asks the lookup service for coordinates of an object name.
// An empty slice means the service answered but found nothing.
func (c *Client) Resolve(ctx context.Context, name string) ([]sky.Candidate, error) {
	req := invokeRequest{
		Service: c.resolverService,
		Params:  lookupParams{Input: name, Format: "json"},
		Format:  "json",
	}

	var resp lookupResponse
	if err := c.invoke(ctx, &req, domain.ErrServiceUnavailable, &resp); err != nil {
		return nil, err
	}
	if resp.ResolvedCoordinate == nil {
		return nil, domain.NewServiceError(c.resolverService, 0,
			"resolvedCoordinate missing from payload", domain.ErrMalformedResponse)
	}

	// The first candidate is the answer; later ones are alternatives and may be partial.
	raw := *resp.ResolvedCoordinate
	out := make([]sky.Candidate, 0, len(raw))
	for i, rc := range raw {
		ra, errRA := rc.RA.Float64()
		dec, errDec := rc.Decl.Float64()
		if errRA != nil || errDec != nil {
			if i == 0 {
				return nil, domain.NewServiceError(c.resolverService, 0,
					"first candidate lacks numeric ra/decl", domain.ErrMalformedResponse)
			}
			c.logger.Debug("Skipping lookup candidate without coordinates",
				zap.String("name", name), zap.Int("index", i), zap.String("canonical_name", rc.CanonicalName))
			continue
		}
		out = append(out, sky.Candidate{
			CanonicalName: rc.CanonicalName,
			RA:            ra,
			Dec:           dec,
			Resolver:      rc.Resolver,
			ObjectType:    rc.ObjectType,
		})
	}
	return out, nil
}

// Query runs a catalog service with the given parameters and returns the raw table.
// A rejection by the service (status ERROR or 4xx) maps to domain.ErrInvalidFilterSpec.
func (c *Client) Query(ctx context.Context, service string, p request.Params) (result.Table, error) {
	req := invokeRequest{
		Service: service,
		Params: filteredParams{
			Columns:  p.Columns,
			Filters:  toWireFilters(p.Filters),
			Position: p.Position,
		},
		Format:            "json",
		PageSize:          c.pageSize,
		Page:              1,
		RemoveNullColumns: true,
	}

	var resp tableResponse
	if err := c.invoke(ctx, &req, domain.ErrInvalidFilterSpec, &resp); err != nil {
		return result.Table{}, err
	}

	table := result.Table{
		Fields: make([]result.Field, len(resp.Fields)),
		Rows:   make([]result.Observation, len(resp.Data)),
	}
	for i, f := range resp.Fields {
		table.Fields[i] = result.Field{Name: f.Name, Type: f.Type}
	}
	for i, row := range resp.Data {
		table.Rows[i] = result.Observation(row)
	}
	if resp.Paging != nil && resp.Paging.PagesFiltered > 1 {
		c.logger.Warn("MAST result spans multiple pages, only the first was fetched",
			zap.String("service", service),
			zap.Int("pages", resp.Paging.PagesFiltered),
			zap.Int("rows_filtered", resp.Paging.RowsFiltered),
		)
	}
	return table, nil
}

// HealthCheck verifies that the portal answers HTTP requests.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: http %d", domain.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// invoke posts the request and decodes the final (non-EXECUTING) response into out.
// rejectErr is the sentinel used when the service refuses the request.
func (c *Client) invoke(ctx context.Context, req *invokeRequest, rejectErr error, out any) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.MastRequestsTotal.WithLabelValues(req.Service, outcome(err)).Inc()
		metrics.MastRequestDuration.WithLabelValues(req.Service).Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", req.Service, err)
	}
	form := url.Values{"request": {string(payload)}}.Encode()

	for {
		body, err := c.post(ctx, req.Service, form, rejectErr)
		if err != nil {
			return err
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return c.malformed(req.Service, err)
		}

		switch env.Status {
		case statusExecuting:
			metrics.MastPollsTotal.WithLabelValues(req.Service).Inc()
			c.logger.Debug("MAST request still executing", zap.String("service", req.Service))
			if err := sleepCtx(ctx, c.pollInterval); err != nil {
				return unavailable(req.Service, err)
			}
			continue
		case statusError:
			return domain.NewServiceError(req.Service, http.StatusOK, env.Msg, rejectErr)
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return c.malformed(req.Service, err)
		}
		return nil
	}
}

// post sends one form-encoded invoke request and returns the 2xx body.
func (c *Client) post(ctx context.Context, service, form string, rejectErr error) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, unavailable(service, err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.invokeURL, strings.NewReader(form))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", service, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, unavailable(service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrorMessage(resp.Body)
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, domain.NewServiceError(service, resp.StatusCode, msg, domain.ErrServiceUnavailable)
		}
		return nil, domain.NewServiceError(service, resp.StatusCode, msg, rejectErr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(service, err)
	}
	return body, nil
}

func (c *Client) malformed(service string, err error) error {
	c.logger.Warn("Failed to decode MAST response", zap.String("service", service), zap.Error(err))
	return domain.NewServiceError(service, 0, err.Error(), domain.ErrMalformedResponse)
}

func unavailable(service string, err error) error {
	return fmt.Errorf("%w: %w", domain.NewServiceError(service, 0, "", domain.ErrServiceUnavailable), err)
}

// readErrorMessage extracts "msg" from a JSON error body, falling back to the raw text.
func readErrorMessage(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Msg != "" {
		return env.Msg
	}
	return strings.TrimSpace(string(body))
}

func toWireFilters(spec filter.Spec) []wireFilter {
	entries := spec.Entries()
	out := make([]wireFilter, len(entries))
	for i, e := range entries {
		if e.IsRange() {
			out[i] = wireFilter{
				ParamName: e.Param(),
				Values:    []any{wireRange{Min: e.Range().Min(), Max: e.Range().Max()}},
			}
			continue
		}
		vals := e.Values()
		wv := make([]any, len(vals))
		for j, v := range vals {
			wv[j] = v
		}
		out[i] = wireFilter{ParamName: e.Param(), Values: wv}
	}
	return out
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	default:
		return "rejected"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
