package discover

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/creatorscout/creatorscout/internal/llm"
	"github.com/creatorscout/creatorscout/internal/metrics"
	"github.com/creatorscout/creatorscout/internal/util"
)

// generateBatchSize bounds how many profiles one fallback model call invents.
const generateBatchSize = 10

// Generator produces profile suggestions from the model alone. It is the
// fallback path when search is unavailable or came back empty.
type Generator struct {
	llm    llm.Client
	logger *log.Logger
}

func NewGenerator(client llm.Client, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Generator{llm: client, logger: logger}
}

// Generate accumulates suggestions in batches until quantity is reached.
// Usernames already accepted are excluded from later prompts and repeats are
// discarded. A batch failure after at least one accepted profile returns the
// partial accumulation; a failure with nothing accumulated propagates.
func (g *Generator) Generate(ctx context.Context, req Request) ([]Profile, error) {
	if g.llm == nil {
		return nil, ErrNotConfigured
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = defaultQuantity
	}

	out := make([]Profile, 0, quantity)
	seen := make(map[string]struct{}, quantity)
	var excluded []string

	for len(out) < quantity {
		n := generateBatchSize
		if remaining := quantity - len(out); remaining < n {
			n = remaining
		}

		metrics.FallbackBatches.Inc()
		batch, err := g.generateBatch(ctx, req, n, excluded)
		if err != nil {
			metrics.FallbackErrors.Inc()
			if len(out) > 0 {
				g.logger.Printf("suggestion batch failed, keeping partial results: accepted=%d error=%q",
					len(out), util.RedactSecrets(err.Error()))
				return out, nil
			}
			return nil, err
		}

		added := 0
		for _, p := range batch {
			if _, dup := seen[p.Username]; dup {
				continue
			}
			seen[p.Username] = struct{}{}
			excluded = append(excluded, p.Username)
			out = append(out, p)
			added++
			if len(out) >= quantity {
				break
			}
		}
		if added == 0 {
			g.logger.Printf("suggestion batch produced no new usernames, stopping: accepted=%d", len(out))
			break
		}
	}
	return out, nil
}

func (g *Generator) generateBatch(ctx context.Context, req Request, n int, excluded []string) ([]Profile, error) {
	resp, err := g.llm.Complete(ctx, buildGenerationPrompt(req, n, excluded))
	if err != nil {
		return nil, err
	}
	objs, err := decodeObjects(resp)
	if err != nil {
		return nil, err
	}

	out := make([]Profile, 0, len(objs))
	for _, obj := range objs {
		username, ok := stringField(obj, "username")
		if !ok {
			continue
		}
		username = strings.ToLower(strings.TrimPrefix(username, "@"))

		now := time.Now()
		p := Profile{
			UniqueProfileID:      NewProfileID(req.Keyword, now),
			Username:             username,
			ProfileLink:          "https://instagram.com/" + username,
			ContentFocus:         req.Keyword,
			SuggestedHashtags:    req.Keyword,
			OpenToCollaborations: "Yes",
			Country:              req.Country,
			Niche:                req.Keyword,
			DiscoveryDate:        now.Format("2006-01-02"),
			Status:               StatusNew,
			Source:               SourceSuggestion,
		}
		if link, ok := stringField(obj, "profile_link"); ok {
			p.ProfileLink = link
		}
		if n, ok := intField(obj, "estimated_followers"); ok {
			p.EstimatedFollowers = strconv.FormatInt(n, 10)
		}
		if s, ok := stringField(obj, "profile_description"); ok {
			p.ProfileDescription = s
		}
		if s, ok := stringField(obj, "content_focus"); ok {
			p.ContentFocus = s
		}
		if s, ok := listField(obj, "suggested_hashtags"); ok {
			p.SuggestedHashtags = s
		}
		if b, ok := boolField(obj, "open_to_collaborations"); ok {
			p.OpenToCollaborations = yesNo(b)
		}
		out = append(out, p)
	}
	return out, nil
}

func buildGenerationPrompt(req Request, n int, excluded []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %d real, currently active Instagram influencer profiles for the %q niche", n, req.Keyword)
	if req.Country != "" {
		fmt.Fprintf(&b, " based in %s", req.Country)
	}
	b.WriteString(".\n")
	if req.MaxFollowers > 0 {
		fmt.Fprintf(&b, "Each profile should have between %d and %d followers.\n", req.MinFollowers, req.MaxFollowers)
	} else if req.MinFollowers > 0 {
		fmt.Fprintf(&b, "Each profile should have at least %d followers.\n", req.MinFollowers)
	}
	if len(excluded) > 0 {
		b.WriteString("\nDo NOT include any of these usernames:\n")
		for _, u := range excluded {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}
	b.WriteString(`
Return ONLY a JSON array:
[
  {
    "username": "handle_without_at",
    "profile_link": "https://instagram.com/handle_without_at",
    "estimated_followers": 25000,
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
