package search

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/creatorscout/creatorscout/internal/metrics"
	"github.com/creatorscout/creatorscout/internal/util"
)

// collectBuffer pads the fan-out target past the requested quantity so the
// enrichment filter has spares to discard.
const collectBuffer = 5

// Params describes one discovery request to fan out.
type Params struct {
	Niche        string
	Country      string
	MinFollowers int64
	MaxFollowers int64
	Quantity     int
}

// FanOut runs ordered query variants against a provider and accumulates
// deduplicated candidates.
type FanOut struct {
	provider Provider
	logger   *log.Logger
}

// NewFanOut constructs a fan-out engine. A nil logger discards query logs.
func NewFanOut(provider Provider, logger *log.Logger) *FanOut {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &FanOut{provider: provider, logger: logger}
}

// countryAliases expands common country names into OR-grouped variants that
// match how locations appear in bios and listicle pages.
var countryAliases = map[string]string{
	"usa":            "USA OR America OR American",
	"united states":  "USA OR America OR American",
	"uk":             "UK OR Britain OR British",
	"united kingdom": "UK OR Britain OR British",
	"uae":            "UAE OR Emirates OR Dubai",
	"germany":        "Germany OR German",
	"france":         "France OR French",
	"spain":          "Spain OR Spanish",
	"italy":          "Italy OR Italian",
	"netherlands":    "Netherlands OR Dutch",
	"brazil":         "Brazil OR Brazilian",
	"south korea":    "South Korea OR Korean",
}

func locationTerms(country string) string {
	c := strings.TrimSpace(country)
	if c == "" {
		return ""
	}
	if alias, ok := countryAliases[strings.ToLower(c)]; ok {
		return "(" + alias + ")"
	}
	return c
}

// tierLabel names the audience tier spanned by the follower bounds, using the
// conventional 1K/10K/50K/100K/500K/1M breakpoints.
func tierLabel(min, max int64) string {
	switch {
	case max > 0 && max <= 10_000:
		return "nano"
	case max > 0 && max <= 50_000:
		return "micro"
	case max > 0 && max <= 100_000:
		return "mid-tier"
	case max > 0 && max <= 500_000:
		return "macro"
	case max > 0 && max <= 1_000_000:
		return "mega"
	case min >= 1_000_000:
		return "celebrity"
	default:
		return ""
	}
}

// BuildQueries returns the fan-out query variants in fixed priority order:
// direct profile searches first, then a tier-qualified variant, then listicle
// and directory searches that surface roundup pages naming many creators.
// The order is deterministic for a given Params.
func BuildQueries(p Params) []string {
	niche := strings.TrimSpace(p.Niche)
	loc := locationTerms(p.Country)
	country := strings.TrimSpace(p.Country)

	queries := []string{
		joinQuery("site:instagram.com", fmt.Sprintf("%q", niche), loc),
		joinQuery("site:instagram.com", niche, "influencer", loc),
	}
	if tier := tierLabel(p.MinFollowers, p.MaxFollowers); tier != "" {
		queries = append(queries, joinQuery(tier, niche, "influencer", "instagram", loc))
	}
	queries = append(queries,
		joinQuery("best", niche, "influencers", "instagram", country),
		joinQuery("top", niche, "instagram", "accounts", country),
		joinQuery(niche, "creator", "instagram", loc),
	)
	return queries
}

func joinQuery(parts ...string) string {
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			fields = append(fields, strings.TrimSpace(p))
		}
	}
	return strings.Join(fields, " ")
}

// Collect fans out the query variants sequentially, extracting and merging
// candidates first-occurrence-wins until quantity+buffer are gathered or the
// variants are exhausted. A failed query logs and contributes zero
// candidates; a total provider outage therefore yields an empty slice, not an
// error.
func (f *FanOut) Collect(ctx context.Context, p Params) []Candidate {
	if p.Quantity <= 0 {
		return nil
	}
	target := p.Quantity + collectBuffer

	seen := make(map[string]struct{}, target)
	out := make([]Candidate, 0, target)

	for _, query := range BuildQueries(p) {
		if len(out) >= target {
			break
		}
		if ctx.Err() != nil {
			break
		}

		metrics.SearchQueries.Inc()
		results, err := f.provider.Search(ctx, query, maxPerQuery)
		if err != nil {
			metrics.SearchQueryErrors.Inc()
			f.logger.Printf("search query failed: query=%q error=%q", query, util.RedactSecrets(err.Error()))
			continue
		}

		for _, c := range ExtractCandidates(results) {
			if len(out) >= target {
				break
			}
			if _, dup := seen[c.Username]; dup {
				continue
			}
			seen[c.Username] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
