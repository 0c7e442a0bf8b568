package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/creatorscout/creatorscout/internal/discover"
	"github.com/creatorscout/creatorscout/internal/httpapi"
	"github.com/creatorscout/creatorscout/internal/store"
	"github.com/creatorscout/creatorscout/internal/version"
)

type fnDiscoverer struct {
	discoverFn func(ctx context.Context, req discover.Request) ([]discover.Profile, error)
	modeFn     func() discover.Mode
}

func (d fnDiscoverer) Discover(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
	return d.discoverFn(ctx, req)
}

func (d fnDiscoverer) Mode() discover.Mode {
	if d.modeFn == nil {
		return discover.Mode{Mode: discover.SourceSearch, Label: "test mode", HasSearch: true}
	}
	return d.modeFn()
}

func apiProfile(username string) discover.Profile {
	return discover.Profile{
		UniqueProfileID:      "yoga_20260301_" + username,
		Username:             username,
		ProfileLink:          "https://instagram.com/" + username,
		EstimatedFollowers:   "25000",
		ProfileDescription:   username + " bio",
		ContentFocus:         "yoga",
		SuggestedHashtags:    "#yoga",
		OpenToCollaborations: "Yes",
		Country:              "USA",
		Niche:                "yoga",
		DiscoveryDate:        "2026-03-01",
		Status:               discover.StatusNew,
		Source:               discover.SourceSearch,
	}
}

func newTestServer(t *testing.T, d httpapi.Discoverer) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := httptest.NewServer(httpapi.NewServer(httpapi.Options{Discoverer: d, Store: st}))
	t.Cleanup(srv.Close)
	return srv, st
}

func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("build %s %s: %v", method, url, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSearchEndpoint_PersistsAndDeduplicates(t *testing.T) {
	t.Parallel()

	d := fnDiscoverer{discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
		return []discover.Profile{apiProfile("alice"), apiProfile("bob")}, nil
	}}
	srv, st := newTestServer(t, d)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/search", `{"keyword": "yoga"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/search status = %d, want 200", resp.StatusCode)
	}
	var got struct {
		Success     bool               `json:"success"`
		Found       int                `json:"found"`
		Added       int                `json:"added"`
		Influencers []discover.Profile `json:"influencers"`
		Message     string             `json:"message"`
	}
	decodeBody(t, resp, &got)
	if !got.Success || got.Found != 2 || got.Added != 2 || len(got.Influencers) != 2 {
		t.Fatalf("first search = %+v", got)
	}
	if got.Message == "" {
		t.Error("first search returned an empty message")
	}

	// The same profiles come back; the store ignores them as duplicates.
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/search", `{"keyword": "yoga"}`)
	decodeBody(t, resp, &got)
	if got.Found != 2 || got.Added != 0 {
		t.Fatalf("second search = found %d added %d, want 2/0", got.Found, got.Added)
	}

	recs, err := st.History(context.Background(), 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 2 || recs[0].Keyword != "yoga" || recs[0].ResultsCount != 2 {
		t.Errorf("history = %+v, want two yoga searches with 2 results", recs)
	}
}

func TestSearchEndpoint_AppliesDefaults(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var captured discover.Request
	d := fnDiscoverer{discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
		mu.Lock()
		captured = req
		mu.Unlock()
		return []discover.Profile{apiProfile("alice")}, nil
	}}
	srv, _ := newTestServer(t, d)
	lastRequest := func() discover.Request {
		mu.Lock()
		defer mu.Unlock()
		return captured
	}

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/search", `{"keyword": "yoga"}`)
	resp.Body.Close()
	want := discover.Request{Keyword: "yoga", Country: "USA", MinFollowers: 1000, MaxFollowers: 100000, Quantity: 10}
	if got := lastRequest(); got != want {
		t.Errorf("defaulted request = %+v, want %+v", got, want)
	}

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/search",
		`{"keyword": "yoga", "min_followers": 0, "max_followers": 0, "country": "", "quantity": 3}`)
	resp.Body.Close()
	want = discover.Request{Keyword: "yoga", Quantity: 3}
	if got := lastRequest(); got != want {
		t.Errorf("explicit-zero request = %+v, want %+v", got, want)
	}
}

func TestSearchEndpoint_Validation(t *testing.T) {
	t.Parallel()

	d := fnDiscoverer{discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
		t.Error("Discover was called for an invalid request")
		return nil, nil
	}}
	srv, _ := newTestServer(t, d)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"keyword":`},
		{name: "missing keyword", body: `{}`},
		{name: "blank keyword", body: `{"keyword": "   "}`},
		{name: "negative min", body: `{"keyword": "yoga", "min_followers": -1}`},
		{name: "inverted bounds", body: `{"keyword": "yoga", "min_followers": 5000, "max_followers": 100}`},
		{name: "zero quantity", body: `{"keyword": "yoga", "quantity": 0}`},
		{name: "oversized quantity", body: `{"keyword": "yoga", "quantity": 51}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := doRequest(t, http.MethodPost, srv.URL+"/api/search", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			var e struct {
				Detail string `json:"detail"`
			}
			decodeBody(t, resp, &e)
			if e.Detail == "" {
				t.Error("error response has no detail")
			}
		})
	}
}

func TestSearchEndpoint_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not configured", err: discover.ErrNotConfigured, wantStatus: http.StatusBadRequest},
		{name: "no results", err: discover.ErrNoResults, wantStatus: http.StatusNotFound},
		{name: "internal", err: errors.New("upstream exploded: key=AIzaSecretValue"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := fnDiscoverer{discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
				return nil, tt.err
			}}
			srv, _ := newTestServer(t, d)

			resp := doRequest(t, http.MethodPost, srv.URL+"/api/search", `{"keyword": "yoga"}`)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var e struct {
				Detail string `json:"detail"`
			}
			decodeBody(t, resp, &e)
			if strings.Contains(e.Detail, "AIzaSecretValue") {
				t.Errorf("error detail leaks upstream internals: %q", e.Detail)
			}
		})
	}
}

func seedProfiles(t *testing.T, st *store.Store) {
	t.Helper()
	alice := apiProfile("alice")
	bob := apiProfile("bob")
	bob.Country = "UK"
	bob.Niche = "travel"
	bob.EstimatedFollowers = "3500"
	carol := apiProfile("carol")
	carol.EstimatedFollowers = ""
	for _, p := range []discover.Profile{alice, bob, carol} {
		if _, err := st.Add(context.Background(), p); err != nil {
			t.Fatalf("seed %s: %v", p.Username, err)
		}
	}
}

func TestListInfluencersEndpoint(t *testing.T) {
	t.Parallel()

	d := fnDiscoverer{discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
		return nil, nil
	}}
	srv, st := newTestServer(t, d)
	seedProfiles(t, st)

	var got struct {
		Influencers []store.Influencer `json:"influencers"`
		Count       int                `json:"count"`
		Total       int                `json:"total"`
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/influencers", "")
	decodeBody(t, resp, &got)
	if got.Count != 3 || got.Total != 3 {
		t.Fatalf("unfiltered list = count %d total %d, want 3/3", got.Count, got.Total)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/influencers?country=UK", "")
	decodeBody(t, resp, &got)
	if got.Count != 1 || got.Influencers[0].Username != "bob" {
		t.Fatalf("country filter = %+v", got)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/influencers?limit=2", "")
	decodeBody(t, resp, &got)
	if got.Count != 2 || got.Total != 3 {
		t.Fatalf("paged list = count %d total %d, want 2/3", got.Count, got.Total)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/influencers?min_followers=abc", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad min_followers status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUpdateStatusEndpoint(t *testing.T) {
	t.Parallel()

	d := fnDiscoverer{discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
		return nil, nil
	}}
	srv, st := newTestServer(t, d)
	seedProfiles(t, st)

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/influencers/1/status", `{"status": "Contacted"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	rows, err := st.List(context.Background(), store.Filter{Status: "Contacted"})
	if err != nil || len(rows) != 1 || rows[0].Username != "alice" {
		t.Fatalf("status not written: rows=%+v err=%v", rows, err)
	}

	resp = doRequest(t, http.MethodPut, srv.URL+"/api/influencers/999/status", `{"status": "Contacted"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodPut, srv.URL+"/api/influencers/1/status", `{"status": "Ghosted"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodPut, srv.URL+"/api/influencers/abc/status", `{"status": "Contacted"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDeleteAndClearEndpoints(t *testing.T) {
	t.Parallel()

	d := fnDiscoverer{discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
		return nil, nil
	}}
	srv, st := newTestServer(t, d)
	seedProfiles(t, st)

	resp := doRequest(t, http.MethodDelete, srv.URL+"/api/influencers/1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/influencers/1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("repeated delete = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/influencers", "")
	var cleared struct {
		Success bool  `json:"success"`
		Cleared int64 `json:"cleared"`
	}
	decodeBody(t, resp, &cleared)
	if !cleared.Success || cleared.Cleared != 2 {
		t.Fatalf("clear = %+v, want 2 remaining rows removed", cleared)
	}

	if n, _ := st.Count(context.Background(), store.Filter{}); n != 0 {
		t.Errorf("store still has %d rows after clear", n)
	}
}

func TestFiltersEndpoint(t *testing.T) {
	t.Parallel()

	d := fnDiscoverer{discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
		return nil, nil
	}}
	srv, st := newTestServer(t, d)
	seedProfiles(t, st)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/filters", "")
	var got struct {
		Countries       []string `json:"countries"`
		StoredCountries []string `json:"stored_countries"`
		StoredNiches    []string `json:"stored_niches"`
		FollowerPresets []struct {
			Label string `json:"label"`
			Min   int64  `json:"min"`
			Max   int64  `json:"max"`
		} `json:"follower_presets"`
		Statuses []string `json:"statuses"`
	}
	decodeBody(t, resp, &got)

	if len(got.Countries) == 0 {
		t.Error("no selectable countries returned")
	}
	if len(got.StoredCountries) != 2 || got.StoredCountries[0] != "UK" {
		t.Errorf("stored_countries = %v", got.StoredCountries)
	}
	if len(got.StoredNiches) != 2 {
		t.Errorf("stored_niches = %v", got.StoredNiches)
	}
	if len(got.FollowerPresets) != 6 || got.FollowerPresets[0].Label != "Nano (1K-10K)" {
		t.Errorf("follower_presets = %+v", got.FollowerPresets)
	}
	if last := got.FollowerPresets[len(got.FollowerPresets)-1]; last.Max != 0 {
		t.Errorf("top preset should be unbounded, got max %d", last.Max)
	}
	if len(got.Statuses) != 5 || got.Statuses[0] != "New" {
		t.Errorf("statuses = %v", got.Statuses)
	}
}

func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	d := fnDiscoverer{discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
		return nil, nil
	}}
	srv, st := newTestServer(t, d)
	seedProfiles(t, st)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/stats", "")
	var got store.Stats
	decodeBody(t, resp, &got)
	if got.Total != 3 || got.New != 3 {
		t.Errorf("stats = %+v, want 3 total, 3 new", got)
	}
}

func TestSearchModeEndpoint(t *testing.T) {
	t.Parallel()

	d := fnDiscoverer{
		discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) { return nil, nil },
		modeFn: func() discover.Mode {
			return discover.Mode{Mode: discover.SourceSuggestion, Label: "AI suggestions only", HasModel: true}
		},
	}
	srv, _ := newTestServer(t, d)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/search-mode", "")
	var got discover.Mode
	decodeBody(t, resp, &got)
	if got.Mode != discover.SourceSuggestion || !got.HasModel || got.HasSearch {
		t.Errorf("search-mode = %+v", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	d := fnDiscoverer{discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
		return nil, nil
	}}
	srv, _ := newTestServer(t, d)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
	var got map[string]string
	decodeBody(t, resp, &got)
	if got["status"] != "ok" || got["version"] != version.Current {
		t.Errorf("health = %v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	d := fnDiscoverer{discoverFn: func(ctx context.Context, req discover.Request) ([]discover.Profile, error) {
		return nil, nil
	}}
	srv, _ := newTestServer(t, d)

	resp := doRequest(t, http.MethodGet, srv.URL+"/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	if !strings.Contains(string(body), "creatorscout_") {
		t.Error("metrics exposition is missing creatorscout collectors")
	}
}
