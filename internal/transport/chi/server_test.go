package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mastplan/internal/domain"
	"github.com/kailas-cloud/mastplan/internal/domain/search/request"
	"github.com/kailas-cloud/mastplan/internal/domain/search/result"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
	checkuc "github.com/kailas-cloud/mastplan/internal/usecase/check"
	healthuc "github.com/kailas-cloud/mastplan/internal/usecase/health"
	resolveuc "github.com/kailas-cloud/mastplan/internal/usecase/resolve"
	searchuc "github.com/kailas-cloud/mastplan/internal/usecase/search"
)

// --- Fakes ---

type fakeLookup struct {
	known map[string]sky.Candidate
	err   error
}

func (f *fakeLookup) Resolve(_ context.Context, name string) ([]sky.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.known[name]; ok {
		return []sky.Candidate{c}, nil
	}
	return []sky.Candidate{}, nil
}

type fakeCatalog struct {
	count    int64
	countErr error
	calls    []request.Params
}

func (f *fakeCatalog) Query(_ context.Context, _ string, p request.Params) (result.Table, error) {
	f.calls = append(f.calls, p)
	if f.countErr != nil {
		return result.Table{}, f.countErr
	}
	if p.Columns == "COUNT_BIG(*)" {
		return result.Table{Rows: []result.Observation{{"Column1": json.Number(strconv.FormatInt(f.count, 10))}}}, nil
	}
	t := result.Table{Fields: []result.Field{{Name: "obsid", Type: "string"}}}
	for i := int64(0); i < f.count; i++ {
		t.Rows = append(t.Rows, result.Observation{"obsid": strconv.FormatInt(i, 10)})
	}
	return t, nil
}

type fakeArchive struct{ err error }

func (f *fakeArchive) HealthCheck(context.Context) error { return f.err }

func newTestRouter(t *testing.T, lookup *fakeLookup, catalog *fakeCatalog, apiKeys ...string) http.Handler {
	t.Helper()
	log := zap.NewNop()
	resolveSvc := resolveuc.New(lookup, log)
	searchSvc := searchuc.New(catalog, searchuc.Config{}, log)
	checkSvc := checkuc.New(resolveSvc, searchSvc, log)
	healthSvc := healthuc.New(&fakeArchive{})
	return NewRouter(NewServer(resolveSvc, searchSvc, checkSvc, healthSvc, 10, log), apiKeys, log)
}

func trappistLookup() *fakeLookup {
	return &fakeLookup{known: map[string]sky.Candidate{
		"Trappist-1": {CanonicalName: "TRAPPIST-1", RA: 346.62233, Dec: -5.04144, Resolver: "SIMBAD"},
	}}
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&e))
	return e
}

// --- Tests ---

func TestResolve_OK(t *testing.T) {
	h := newTestRouter(t, trappistLookup(), &fakeCatalog{})

	rr := do(t, h, http.MethodGet, "/v1/resolve?name=Trappist-1", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp ResolveResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "TRAPPIST-1", resp.CanonicalName)
	assert.InDelta(t, 346.62233, resp.Position.RA, 1e-9)
	assert.InDelta(t, -5.04144, resp.Position.Dec, 1e-9)
}

func TestResolve_NotFound(t *testing.T) {
	h := newTestRouter(t, trappistLookup(), &fakeCatalog{})

	rr := do(t, h, http.MethodGet, "/v1/resolve?name=NoSuchObjectXYZ", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, ErrorCodeNameNotResolved, decodeError(t, rr).Code)
}

func TestResolve_MissingName(t *testing.T) {
	h := newTestRouter(t, trappistLookup(), &fakeCatalog{})

	rr := do(t, h, http.MethodGet, "/v1/resolve", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorCodeBadRequest, decodeError(t, rr).Code)
}

func TestResolve_Unavailable(t *testing.T) {
	h := newTestRouter(t, &fakeLookup{err: domain.ErrServiceUnavailable}, &fakeCatalog{})

	rr := do(t, h, http.MethodGet, "/v1/resolve?name=Trappist-1", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	e := decodeError(t, rr)
	assert.Equal(t, ErrorCodeServiceUnavailable, e.Code)
	assert.Equal(t, "service unavailable", e.Message)
}

func TestSearch_ByTargetFullFetch(t *testing.T) {
	catalog := &fakeCatalog{count: 23}
	h := newTestRouter(t, trappistLookup(), catalog)

	rr := do(t, h, http.MethodPost, "/v1/search", map[string]any{"target": "Trappist-1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(23), resp.Count)
	assert.Equal(t, "full", resp.Branch)
	assert.Len(t, resp.Observations, 23)
	assert.Equal(t, 10.0, resp.RadiusArcsec)
	require.NotNil(t, resp.Target)
	assert.Equal(t, "TRAPPIST-1", resp.Target.CanonicalName)
	assert.Len(t, catalog.calls, 2)
}

func TestSearch_ByPositionCountOnly(t *testing.T) {
	catalog := &fakeCatalog{count: 23}
	h := newTestRouter(t, trappistLookup(), catalog)

	rr := do(t, h, http.MethodPost, "/v1/search", map[string]any{
		"ra": 346.62233, "dec": -5.04144, "radius_arcsec": 3600, "count_only": true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "count_only", resp.Branch)
	assert.Empty(t, resp.Observations)
	require.Len(t, catalog.calls, 1)
	assert.Equal(t, "346.62233, -5.04144, 1", catalog.calls[0].Position)
}

func TestSearch_CustomFilters(t *testing.T) {
	catalog := &fakeCatalog{count: 0}
	h := newTestRouter(t, trappistLookup(), catalog)

	rr := do(t, h, http.MethodPost, "/v1/search", map[string]any{
		"ra": 10, "dec": 10,
		"filters": []map[string]any{
			{"param": "obs_collection", "values": []string{"HST"}},
			{"param": "t_exptime", "range": map[string]float64{"min": 100, "max": 1000}},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	entries := catalog.calls[0].Filters.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "obs_collection", entries[0].Param())
	assert.True(t, entries[1].IsRange())
}

func TestSearch_DuplicateFilterRejected(t *testing.T) {
	catalog := &fakeCatalog{}
	h := newTestRouter(t, trappistLookup(), catalog)

	rr := do(t, h, http.MethodPost, "/v1/search", map[string]any{
		"ra": 10, "dec": 10,
		"filters": []map[string]any{
			{"param": "obs_collection", "values": []string{"JWST"}},
			{"param": "obs_collection", "values": []string{"HST"}},
		},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorCodeInvalidFilterSpec, decodeError(t, rr).Code)
	assert.Empty(t, catalog.calls)
}

func TestSearch_RemoteRejection(t *testing.T) {
	catalog := &fakeCatalog{countErr: domain.NewServiceError(
		"Mast.Caom.Filtered.Position", http.StatusOK, "Unknown column 'bogus'", domain.ErrInvalidFilterSpec)}
	h := newTestRouter(t, trappistLookup(), catalog)

	rr := do(t, h, http.MethodPost, "/v1/search", map[string]any{
		"ra": 10, "dec": 10,
		"filters": []map[string]any{{"param": "bogus", "values": []string{"x"}}},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	e := decodeError(t, rr)
	assert.Equal(t, ErrorCodeInvalidFilterSpec, e.Code)
	assert.Contains(t, e.Message, "Unknown column 'bogus'")
}

func TestSearch_Validation(t *testing.T) {
	h := newTestRouter(t, trappistLookup(), &fakeCatalog{})

	tests := []struct {
		name string
		body any
		code ErrorCode
	}{
		{"no position", map[string]any{}, ErrorCodeValidationFailed},
		{"ra only", map[string]any{"ra": 10}, ErrorCodeValidationFailed},
		{"ra out of range", map[string]any{"ra": 360, "dec": 0}, ErrorCodeValidationFailed},
		{"negative radius", map[string]any{"ra": 10, "dec": 0, "radius_arcsec": -1}, ErrorCodeValidationFailed},
		{"unknown field", map[string]any{"ra": 10, "dec": 0, "bogus": true}, ErrorCodeBadRequest},
		{"empty filter param", map[string]any{
			"ra": 10, "dec": 0, "filters": []map[string]any{{"param": "", "values": []string{"x"}}},
		}, ErrorCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/v1/search", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rr).Code)
		})
	}
}

func TestSearchQuery_TooLarge(t *testing.T) {
	catalog := &fakeCatalog{count: 1001}
	h := newTestRouter(t, trappistLookup(), catalog)

	rr := do(t, h, http.MethodGet, "/v1/search?ra=346.62233&dec=-5.04144&radius_arcsec=600", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(1001), resp.Count)
	assert.Equal(t, "too_large", resp.Branch)
	assert.Len(t, catalog.calls, 1)
}

func TestSearchQuery_BadNumber(t *testing.T) {
	h := newTestRouter(t, trappistLookup(), &fakeCatalog{})

	rr := do(t, h, http.MethodGet, "/v1/search?ra=abc&dec=1", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorCodeBadRequest, decodeError(t, rr).Code)
}

func TestCheck_Mixed(t *testing.T) {
	h := newTestRouter(t, trappistLookup(), &fakeCatalog{count: 23})

	rr := do(t, h, http.MethodPost, "/v1/check", map[string]any{
		"targets":    []string{"Trappist-1", "NoSuchObjectXYZ"},
		"count_only": true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp CheckResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 1, resp.Planned)
	assert.Equal(t, 1, resp.Errors)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "planned", resp.Items[0].Status)
	require.NotNil(t, resp.Items[0].Count)
	assert.Equal(t, int64(23), *resp.Items[0].Count)
	require.NotNil(t, resp.Items[1].Error)
	assert.Equal(t, ErrorCodeNameNotResolved, resp.Items[1].Error.Code)
}

func TestCheck_EmptyTargets(t *testing.T) {
	h := newTestRouter(t, trappistLookup(), &fakeCatalog{})

	rr := do(t, h, http.MethodPost, "/v1/check", map[string]any{"targets": []string{}})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorCodeValidationFailed, decodeError(t, rr).Code)
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, trappistLookup(), &fakeCatalog{}, "secret")

	rr := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["mast"])
	assert.Contains(t, resp.LatencyMs, "mast")
}

func TestHealth_Degraded(t *testing.T) {
	log := zap.NewNop()
	resolveSvc := resolveuc.New(trappistLookup(), log)
	searchSvc := searchuc.New(&fakeCatalog{}, searchuc.Config{}, log)
	checkSvc := checkuc.New(resolveSvc, searchSvc, log)
	healthSvc := healthuc.New(&fakeArchive{err: errors.New("dial tcp: connection refused")})
	h := NewRouter(NewServer(resolveSvc, searchSvc, checkSvc, healthSvc, 10, log), nil, log)

	rr := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := rr.Body.String()
	assert.NotContains(t, body, "connection refused")

	var resp HealthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "error", resp.Checks["mast"])
}

func TestRouter_AuthAndRequestID(t *testing.T) {
	h := newTestRouter(t, trappistLookup(), &fakeCatalog{}, "secret")

	rr := do(t, h, http.MethodGet, "/v1/resolve?name=Trappist-1", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouter_NotFound(t *testing.T) {
	h := newTestRouter(t, trappistLookup(), &fakeCatalog{})

	rr := do(t, h, http.MethodGet, "/v2/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, ErrorCodeInternalError, decodeError(t, rr).Code)
}
