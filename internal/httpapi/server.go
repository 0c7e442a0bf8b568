// Package httpapi exposes the discovery pipeline and the store over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creatorscout/creatorscout/internal/discover"
	"github.com/creatorscout/creatorscout/internal/store"
	"github.com/creatorscout/creatorscout/internal/util"
	"github.com/creatorscout/creatorscout/internal/version"
)

// Discoverer runs one discovery pass. *discover.Service implements it.
type Discoverer interface {
	Discover(ctx context.Context, req discover.Request) ([]discover.Profile, error)
	Mode() discover.Mode
}

// Request-body defaults for POST /api/search.
const (
	defaultMinFollowers = 1000
	defaultMaxFollowers = 100000
	defaultCountry      = "USA"
	defaultQuantity     = 10
	maxQuantity         = 50
)

var statuses = []string{"New", "Contacted", "Responded", "Hired", "Rejected"}

var allowedStatuses = func() map[string]bool {
	m := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		m[s] = true
	}
	return m
}()

type followerPreset struct {
	Label string `json:"label"`
	Min   int64  `json:"min"`
	Max   int64  `json:"max"`
}

// followerPresets mirror the tier labels used in search query construction.
// Max 0 means unbounded.
var followerPresets = []followerPreset{
	{Label: "Nano (1K-10K)", Min: 1000, Max: 10000},
	{Label: "Micro (10K-50K)", Min: 10000, Max: 50000},
	{Label: "Mid-tier (50K-100K)", Min: 50000, Max: 100000},
	{Label: "Macro (100K-500K)", Min: 100000, Max: 500000},
	{Label: "Mega (500K-1M)", Min: 500000, Max: 1000000},
	{Label: "Celebrity (1M+)", Min: 1000000, Max: 0},
}

// searchCountries feed the country dropdown; storage accepts any value.
var searchCountries = []string{
	"USA", "UK", "Canada", "Australia", "Germany", "France", "Spain",
	"Italy", "Netherlands", "Brazil", "India", "UAE", "South Korea", "Japan",
}

// Server routes API requests. Timeout bounds one discovery run; zero leaves
// only the request context deadline.
type Server struct {
	discoverer Discoverer
	store      *store.Store
	logger     *log.Logger
	timeout    time.Duration
	mux        *http.ServeMux
}

type Options struct {
	Discoverer Discoverer
	Store      *store.Store
	Logger     *log.Logger
	Timeout    time.Duration
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		discoverer: opts.Discoverer,
		store:      opts.Store,
		logger:     logger,
		timeout:    opts.Timeout,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/influencers", s.handleListInfluencers)
	s.mux.HandleFunc("PUT /api/influencers/{id}/status", s.handleUpdateStatus)
	s.mux.HandleFunc("DELETE /api/influencers/{id}", s.handleDeleteInfluencer)
	s.mux.HandleFunc("DELETE /api/influencers", s.handleClearInfluencers)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("GET /api/filters", s.handleFilters)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/search-mode", s.handleSearchMode)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type searchRequest struct {
	Keyword      string  `json:"keyword"`
	MinFollowers *int64  `json:"min_followers"`
	MaxFollowers *int64  `json:"max_followers"`
	Country      *string `json:"country"`
	Quantity     *int    `json:"quantity"`
}

type searchResponse struct {
	Success     bool               `json:"success"`
	Found       int                `json:"found"`
	Added       int                `json:"added"`
	Influencers []discover.Profile `json:"influencers"`
	Message     string             `json:"message"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	req := discover.Request{
		Keyword:      strings.TrimSpace(body.Keyword),
		Country:      defaultCountry,
		MinFollowers: defaultMinFollowers,
		MaxFollowers: defaultMaxFollowers,
		Quantity:     defaultQuantity,
	}
	if body.Country != nil {
		req.Country = strings.TrimSpace(*body.Country)
	}
	if body.MinFollowers != nil {
		req.MinFollowers = *body.MinFollowers
	}
	if body.MaxFollowers != nil {
		req.MaxFollowers = *body.MaxFollowers
	}
	if body.Quantity != nil {
		req.Quantity = *body.Quantity
	}

	if req.Keyword == "" {
		s.writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}
	if req.MinFollowers < 0 || req.MaxFollowers < 0 {
		s.writeError(w, http.StatusBadRequest, "follower bounds must be non-negative")
		return
	}
	if req.MaxFollowers > 0 && req.MinFollowers > req.MaxFollowers {
		s.writeError(w, http.StatusBadRequest, "min_followers exceeds max_followers")
		return
	}
	if req.Quantity < 1 || req.Quantity > maxQuantity {
		s.writeError(w, http.StatusBadRequest, "quantity must be between 1 and %d", maxQuantity)
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	profiles, err := s.discoverer.Discover(ctx, req)
	switch {
	case errors.Is(err, discover.ErrNotConfigured):
		s.writeError(w, http.StatusBadRequest, "%v", err)
		return
	case errors.Is(err, discover.ErrNoResults):
		s.writeError(w, http.StatusNotFound, "no influencers found for %q", req.Keyword)
		return
	case err != nil:
		s.logger.Printf("discovery failed: keyword=%q error=%q", req.Keyword, util.RedactSecrets(err.Error()))
		s.writeError(w, http.StatusInternalServerError, "discovery failed")
		return
	}

	added := 0
	for _, p := range profiles {
		ok, err := s.store.Add(ctx, p)
		if err != nil {
			s.logger.Printf("persist profile failed: username=%q error=%v", p.Username, err)
			continue
		}
		if ok {
			added++
		}
	}

	if err := s.store.AddSearch(ctx, store.SearchRecord{
		Keyword:      req.Keyword,
		MinFollowers: req.MinFollowers,
		MaxFollowers: req.MaxFollowers,
		Country:      req.Country,
		ResultsCount: len(profiles),
	}); err != nil {
		s.logger.Printf("record search history failed: %v", err)
	}

	s.writeJSON(w, http.StatusOK, searchResponse{
		Success:     true,
		Found:       len(profiles),
		Added:       added,
		Influencers: profiles,
		Message:     fmt.Sprintf("Found %d influencers, added %d new", len(profiles), added),
	})
}

func (s *Server) handleListInfluencers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.Filter{
		Country: strings.TrimSpace(q.Get("country")),
		Niche:   strings.TrimSpace(q.Get("niche")),
		Status:  strings.TrimSpace(q.Get("status")),
	}
	var err error
	if f.MinFollowers, err = queryInt64(q, "min_followers"); err != nil {
		s.writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if f.MaxFollowers, err = queryInt64(q, "max_followers"); err != nil {
		s.writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	limit, err := queryInt64(q, "limit")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	offset, err := queryInt64(q, "offset")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	f.Limit = int(limit)
	f.Offset = int(offset)

	rows, err := s.store.List(r.Context(), f)
	if err != nil {
		s.logger.Printf("list influencers failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "list influencers failed")
		return
	}
	total, err := s.store.Count(r.Context(), f)
	if err != nil {
		s.logger.Printf("count influencers failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "count influencers failed")
		return
	}
	if rows == nil {
		rows = []store.Influencer{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"influencers": rows,
		"count":       len(rows),
		"total":       total,
	})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	status := strings.TrimSpace(body.Status)
	if !allowedStatuses[status] {
		s.writeError(w, http.StatusBadRequest, "invalid status %q, want one of %s", status, strings.Join(statuses, ", "))
		return
	}

	found, err := s.store.UpdateStatus(r.Context(), id, status)
	if err != nil {
		s.logger.Printf("update status failed: id=%d error=%v", id, err)
		s.writeError(w, http.StatusInternalServerError, "update status failed")
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "influencer %d not found", id)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id, "status": status})
}

func (s *Server) handleDeleteInfluencer(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	found, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.logger.Printf("delete influencer failed: id=%d error=%v", id, err)
		s.writeError(w, http.StatusInternalServerError, "delete influencer failed")
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "influencer %d not found", id)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (s *Server) handleClearInfluencers(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Clear(r.Context())
	if err != nil {
		s.logger.Printf("clear influencers failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "clear influencers failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "cleared": n})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.History(r.Context(), 0)
	if err != nil {
		s.logger.Printf("list history failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "list history failed")
		return
	}
	if recs == nil {
		recs = []store.SearchRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"history": recs})
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	countries, err := s.store.Countries(r.Context())
	if err != nil {
		s.logger.Printf("list countries failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "list filters failed")
		return
	}
	niches, err := s.store.Niches(r.Context())
	if err != nil {
		s.logger.Printf("list niches failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "list filters failed")
		return
	}
	if countries == nil {
		countries = []string{}
	}
	if niches == nil {
		niches = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"countries":        searchCountries,
		"stored_countries": countries,
		"stored_niches":    niches,
		"follower_presets": followerPresets,
		"statuses":         statuses,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Printf("load stats failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "load stats failed")
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSearchMode(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.discoverer.Mode())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Current,
	})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		s.writeError(w, http.StatusBadRequest, "invalid influencer id %q", raw)
		return 0, false
	}
	return id, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

// writeError emits the {"detail": ...} envelope used by every error response.
func (s *Server) writeError(w http.ResponseWriter, status int, format string, args ...any) {
	s.writeJSON(w, status, map[string]string{"detail": fmt.Sprintf(format, args...)})
}

func queryInt64(q url.Values, key string) (int64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s=%q", key, v)
	}
	return n, nil
}
