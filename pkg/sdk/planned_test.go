package mastplan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeMast answers name lookups and filtered position queries.
// count is returned for COUNT_BIG(*) queries; rows for * queries.
type fakeMast struct {
	mu      sync.Mutex
	count   int
	rows    []map[string]any
	queries []map[string]any
}

func (f *fakeMast) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req map[string]any
	if err := json.Unmarshal([]byte(r.PostForm.Get("request")), &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if req["service"] == "Mast.Name.Lookup" {
		_, _ = w.Write([]byte(`{"status":"COMPLETE","resolvedCoordinate":[
			{"canonicalName":"TRAPPIST-1","ra":346.62233,"decl":-5.04144,"resolver":"SIMBAD","objectType":"BD*"}]}`))
		return
	}

	f.mu.Lock()
	f.queries = append(f.queries, req)
	f.mu.Unlock()

	params, _ := req["params"].(map[string]any)
	if params["columns"] == "COUNT_BIG(*)" {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "COMPLETE",
			"fields": []map[string]string{{"name": "Column1", "type": "int"}},
			"data":   []map[string]any{{"Column1": f.count}},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "COMPLETE",
		"fields": []map[string]string{{"name": "obs_id", "type": "string"}, {"name": "t_exptime", "type": "float"}},
		"data":   f.rows,
	})
}

func newFakeClient(t *testing.T, f *fakeMast) *Client {
	t.Helper()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)

	c, err := New(WithBaseURL(server.URL), WithTimeout(2*time.Second), WithPollInterval(5*time.Millisecond))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestPlanned_TargetFullFetch(t *testing.T) {
	f := &fakeMast{
		count: 1,
		rows:  []map[string]any{{"obs_id": "jw01234", "t_exptime": 600.5}},
	}
	c := newFakeClient(t, f)

	res, err := c.Planned().Target("Trappist-1").Arcsec(36).Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Branch != BranchFull || res.Count != 1 || len(res.Observations) != 1 {
		t.Fatalf("result = %+v", res)
	}

	rows, err := Decode[observation](res.Observations)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rows[0].ID != "jw01234" || rows[0].Exposure != 600.5 {
		t.Errorf("row = %+v", rows[0])
	}

	if len(f.queries) != 2 {
		t.Fatalf("expected count + fetch queries, got %d", len(f.queries))
	}
	params := f.queries[0]["params"].(map[string]any)
	if pos, _ := params["position"].(string); !strings.HasPrefix(pos, "346.62233, -5.04144, 0.01") {
		t.Errorf("position = %q", pos)
	}
	filters := params["filters"].([]any)
	if len(filters) != 2 {
		t.Errorf("expected default filters, got %v", filters)
	}
}

func TestPlanned_NearCountOnly(t *testing.T) {
	f := &fakeMast{count: 12}
	c := newFakeClient(t, f)

	res, err := c.Planned().Near(83.8221, -5.3911).Arcmin(1).
		Where("instrument_name", "NIRCAM/IMAGE").CountOnly().Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Branch != BranchCountOnly || res.Count != 12 {
		t.Errorf("result = %+v", res)
	}
	if len(f.queries) != 1 {
		t.Fatalf("count-only must issue one query, got %d", len(f.queries))
	}
	filters := f.queries[0]["params"].(map[string]any)["filters"].([]any)
	first := filters[0].(map[string]any)
	if len(filters) != 1 || first["paramName"] != "instrument_name" {
		t.Errorf("filters = %v", filters)
	}
}

func TestPlanned_TooLarge(t *testing.T) {
	f := &fakeMast{count: 1001}
	c := newFakeClient(t, f)

	res, err := c.Planned().Near(10, 10).AnyCollection().Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Branch != BranchTooLarge || res.Observations != nil {
		t.Errorf("result = %+v", res)
	}
	if len(f.queries) != 1 {
		t.Errorf("expected a single query, got %d", len(f.queries))
	}
	if filters := f.queries[0]["params"].(map[string]any)["filters"].([]any); len(filters) != 0 {
		t.Errorf("expected no filters, got %v", filters)
	}
}

func TestPlanned_NoCenter(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Planned().Do(context.Background()); err == nil {
		t.Fatal("expected error without Target or Near")
	}
}

func TestClient_Health_Live(t *testing.T) {
	c := newFakeClient(t, &fakeMast{})
	if h := c.Health(context.Background()); h.Status != "ok" || h.Checks["mast"] != "ok" {
		t.Errorf("health = %+v", h)
	}
}
