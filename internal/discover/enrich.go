package discover

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/creatorscout/creatorscout/internal/followers"
	"github.com/creatorscout/creatorscout/internal/llm"
	"github.com/creatorscout/creatorscout/internal/metrics"
	"github.com/creatorscout/creatorscout/internal/search"
	"github.com/creatorscout/creatorscout/internal/util"
)

// enrichBatchSize bounds how many candidates one model call judges.
const enrichBatchSize = 10

// Enricher asks a generative model to judge raw search candidates and formats
// the survivors into Profiles. With no client, or when a batch call fails, it
// degrades to pass-through formatting so the search signal is never lost.
type Enricher struct {
	llm    llm.Client
	logger *log.Logger
}

// NewEnricher accepts a nil client; the enricher then formats every
// candidate without judgment.
func NewEnricher(client llm.Client, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Enricher{llm: client, logger: logger}
}

// Enrich judges candidates in batches and returns the formatted survivors in
// input order. A failed batch falls back to pass-through formatting of that
// batch only.
func (e *Enricher) Enrich(ctx context.Context, req Request, cands []search.Candidate) []Profile {
	out := make([]Profile, 0, len(cands))
	for start := 0; start < len(cands); start += enrichBatchSize {
		end := start + enrichBatchSize
		if end > len(cands) {
			end = len(cands)
		}
		batch := cands[start:end]

		if e.llm == nil {
			out = append(out, e.passthrough(req, batch)...)
			continue
		}

		judged, err := e.judgeBatch(ctx, req, batch)
		if err != nil {
			metrics.EnrichDegraded.Inc()
			e.logger.Printf("enrichment degraded to pass-through: batch=%d size=%d error=%q",
				start/enrichBatchSize, len(batch), util.RedactSecrets(err.Error()))
			out = append(out, e.passthrough(req, batch)...)
			continue
		}
		out = append(out, judged...)
	}
	return out
}

func (e *Enricher) judgeBatch(ctx context.Context, req Request, batch []search.Candidate) ([]Profile, error) {
	metrics.EnrichBatches.Inc()
	resp, err := e.llm.Complete(ctx, buildJudgmentPrompt(req, batch))
	if err != nil {
		return nil, err
	}
	objs, err := decodeObjects(resp)
	if err != nil {
		return nil, err
	}

	byUsername := make(map[string]map[string]any, len(objs))
	for _, obj := range objs {
		username, ok := stringField(obj, "username")
		if !ok {
			continue
		}
		username = strings.ToLower(strings.TrimPrefix(username, "@"))
		if _, dup := byUsername[username]; !dup {
			byUsername[username] = obj
		}
	}

	out := make([]Profile, 0, len(batch))
	for _, c := range batch {
		j, ok := byUsername[c.Username]
		if !ok {
			// No judgment came back for this candidate; keep it rather
			// than guess.
			out = append(out, formatProfile(req, c, nil))
			continue
		}
		if relevant, ok := boolField(j, "is_relevant"); ok && !relevant {
			continue
		}
		if inRange, ok := boolField(j, "in_range"); ok && !inRange && req.MaxFollowers > 0 {
			continue
		}
		out = append(out, formatProfile(req, c, j))
	}
	return out, nil
}

func (e *Enricher) passthrough(req Request, batch []search.Candidate) []Profile {
	out := make([]Profile, 0, len(batch))
	for _, c := range batch {
		out = append(out, formatProfile(req, c, nil))
	}
	return out
}

// formatProfile builds the Profile for one candidate, preferring model
// judgments and falling back to raw candidate fields, then to request
// defaults.
func formatProfile(req Request, c search.Candidate, judgment map[string]any) Profile {
	now := time.Now()
	p := Profile{
		UniqueProfileID:      NewProfileID(req.Keyword, now),
		Username:             c.Username,
		ProfileLink:          c.ProfileLink,
		ProfileDescription:   c.Snippet,
		ContentFocus:         req.Keyword,
		SuggestedHashtags:    req.Keyword,
		OpenToCollaborations: "Yes",
		Country:              req.Country,
		Niche:                req.Keyword,
		DiscoveryDate:        now.Format("2006-01-02"),
		Status:               StatusNew,
		Source:               SourceSearch,
	}
	if n := followers.ParseHint(c.FollowersHint); n > 0 {
		p.EstimatedFollowers = strconv.FormatInt(n, 10)
	}
	if judgment == nil {
		return p
	}

	if n, ok := intField(judgment, "estimated_followers"); ok {
		p.EstimatedFollowers = strconv.FormatInt(n, 10)
	}
	if s, ok := stringField(judgment, "profile_description"); ok {
		p.ProfileDescription = s
	}
	if s, ok := stringField(judgment, "content_focus"); ok {
		p.ContentFocus = s
	}
	if s, ok := listField(judgment, "suggested_hashtags"); ok {
		p.SuggestedHashtags = s
	}
	if b, ok := boolField(judgment, "open_to_collaborations"); ok {
		p.OpenToCollaborations = yesNo(b)
	}
	return p
}

func buildJudgmentPrompt(req Request, batch []search.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are vetting Instagram creator profiles found via web search for the niche %q", req.Keyword)
	if req.Country != "" {
		fmt.Fprintf(&b, " in %s", req.Country)
	}
	b.WriteString(".\n\nCandidates:\n")
	for i, c := range batch {
		fmt.Fprintf(&b, "%d. username: %s\n   name: %s\n   link: %s\n", i+1, c.Username, c.DisplayName, c.ProfileLink)
		if c.FollowersHint != "" {
			fmt.Fprintf(&b, "   follower hint: %s\n", c.FollowersHint)
		}
		if c.Snippet != "" {
			fmt.Fprintf(&b, "   snippet: %s\n", c.Snippet)
		}
	}
	b.WriteString("\nFor each candidate, judge relevance to the niche and estimate the audience size.\n")
	if req.MaxFollowers > 0 {
		fmt.Fprintf(&b, "The target audience range is %d to %d followers.\n", req.MinFollowers, req.MaxFollowers)
	} else if req.MinFollowers > 0 {
		fmt.Fprintf(&b, "The target audience is at least %d followers.\n", req.MinFollowers)
	}
	b.WriteString(`
Return ONLY a JSON array with one object per candidate:
[
  {
    "username": "the candidate username",
    "is_relevant": true,
    "estimated_followers": 25000,
    "in_range": true,
    "profile_description": "one-sentence bio",
    "content_focus": "main content theme",
    "suggested_hashtags": ["#tag1", "#tag2", "#tag3"],
    "open_to_collaborations": true
  }
]
No markdown, no commentary.
`)
	return b.String()
}
