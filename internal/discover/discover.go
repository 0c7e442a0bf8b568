package discover

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/creatorscout/creatorscout/internal/llm"
	"github.com/creatorscout/creatorscout/internal/metrics"
	"github.com/creatorscout/creatorscout/internal/search"
)

// Sentinel errors surfaced by Discover.
var (
	// ErrNotConfigured means neither a search provider nor a generative
	// client is available.
	ErrNotConfigured = errors.New("no search provider or generative client configured")

	// ErrNoResults means every available path produced zero profiles.
	ErrNoResults = errors.New("discovery produced no results")
)

const defaultQuantity = 10

// Request describes one discovery run. Zero MaxFollowers means unbounded.
type Request struct {
	Keyword      string
	Country      string
	MinFollowers int64
	MaxFollowers int64
	Quantity     int
}

// Mode reports which pipeline path discovery runs will take.
type Mode struct {
	Mode      string `json:"mode"`
	Label     string `json:"label"`
	HasSearch bool   `json:"has_search"`
	HasModel  bool   `json:"has_model"`
}

// Service orchestrates the two discovery paths behind one output schema.
type Service struct {
	fanout    *search.FanOut
	enricher  *Enricher
	generator *Generator
	logger    *log.Logger
}

// Options assembles a Service. SearchProvider and Model may each be nil; at
// least one must be set for Discover to succeed.
type Options struct {
	SearchProvider search.Provider
	Model          llm.Client
	Logger         *log.Logger
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}
	s := &Service{
		enricher: NewEnricher(opts.Model, logger),
		logger:   logger,
	}
	if opts.SearchProvider != nil {
		s.fanout = search.NewFanOut(opts.SearchProvider, logger)
	}
	if opts.Model != nil {
		s.generator = NewGenerator(opts.Model, logger)
	}
	return s
}

// Mode reports the active pipeline path for observability endpoints.
func (s *Service) Mode() Mode {
	hasSearch := s.fanout != nil
	hasModel := s.generator != nil
	switch {
	case hasSearch && hasModel:
		return Mode{Mode: SourceSearch, Label: "Google search with AI enrichment", HasSearch: true, HasModel: true}
	case hasSearch:
		return Mode{Mode: SourceSearch, Label: "Google search only, enrichment disabled", HasSearch: true}
	case hasModel:
		return Mode{Mode: SourceSuggestion, Label: "AI suggestions only", HasModel: true}
	default:
		return Mode{Mode: "unconfigured", Label: "No search provider or AI credentials configured"}
	}
}

// Discover runs the search path when a provider exists, then falls back to
// generative suggestions when search yields nothing. Results never exceed
// req.Quantity and usernames are unique within the returned set.
func (s *Service) Discover(ctx context.Context, req Request) ([]Profile, error) {
	req = normalizeRequest(req)
	if req.Keyword == "" {
		return nil, fmt.Errorf("keyword is required")
	}
	if s.fanout == nil && s.generator == nil {
		return nil, ErrNotConfigured
	}

	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	logf := func(format string, args ...any) {
		all := make([]any, 0, len(args)+1)
		all = append(all, runID)
		all = append(all, args...)
		s.logger.Printf("run=%s "+format, all...)
	}
	start := time.Now()
	defer metrics.ObserveDiscoveryDuration(start)

	logf("discovery start: keyword=%q country=%q range=%d-%d quantity=%d",
		req.Keyword, req.Country, req.MinFollowers, req.MaxFollowers, req.Quantity)

	if s.fanout != nil {
		cands := s.fanout.Collect(ctx, search.Params{
			Niche:        req.Keyword,
			Country:      req.Country,
			MinFollowers: req.MinFollowers,
			MaxFollowers: req.MaxFollowers,
			Quantity:     req.Quantity,
		})
		logf("fan-out collected %d candidates in %s", len(cands), time.Since(start).Round(time.Millisecond))

		if len(cands) > 0 {
			profiles := s.enricher.Enrich(ctx, req, cands)
			logf("enrichment kept %d of %d candidates", len(profiles), len(cands))
			if len(profiles) > 0 {
				out := truncateProfiles(profiles, req.Quantity)
				metrics.DiscoveryRuns.WithLabelValues(SourceSearch).Inc()
				metrics.ProfilesDiscovered.WithLabelValues(SourceSearch).Add(float64(len(out)))
				logf("discovery complete: mode=%s results=%d duration=%s",
					SourceSearch, len(out), time.Since(start).Round(time.Millisecond))
				return out, nil
			}
		}
		logf("search path produced nothing, trying generative suggestions")
	}

	if s.generator == nil {
		return nil, ErrNoResults
	}

	out, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNoResults
	}
	out = truncateProfiles(out, req.Quantity)
	metrics.DiscoveryRuns.WithLabelValues(SourceSuggestion).Inc()
	metrics.ProfilesDiscovered.WithLabelValues(SourceSuggestion).Add(float64(len(out)))
	logf("discovery complete: mode=%s results=%d duration=%s",
		SourceSuggestion, len(out), time.Since(start).Round(time.Millisecond))
	return out, nil
}

func normalizeRequest(req Request) Request {
	req.Keyword = strings.TrimSpace(req.Keyword)
	req.Country = strings.TrimSpace(req.Country)
	if req.Quantity <= 0 {
		req.Quantity = defaultQuantity
	}
	if req.MinFollowers < 0 {
		req.MinFollowers = 0
	}
	if req.MaxFollowers < 0 {
		req.MaxFollowers = 0
	}
	return req
}

func truncateProfiles(in []Profile, quantity int) []Profile {
	if quantity > 0 && len(in) > quantity {
		return in[:quantity]
	}
	return in
}
