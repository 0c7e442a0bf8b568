package discover

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func suggestionJSON(usernames ...string) string {
	items := make([]string, 0, len(usernames))
	for _, u := range usernames {
		items = append(items, fmt.Sprintf(
			`{"username": %q, "estimated_followers": 25000, "profile_description": "bio of %s", "content_focus": "themes", "suggested_hashtags": ["#one", "#two"], "open_to_collaborations": true}`,
			u, u))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestGenerate_NilClient(t *testing.T) {
	t.Parallel()

	g := NewGenerator(nil, nil)
	if _, err := g.Generate(context.Background(), Request{Keyword: "yoga"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Generate with nil client returned %v, want ErrNotConfigured", err)
	}
}

func TestGenerate_SingleBatch(t *testing.T) {
	t.Parallel()

	var prompts []string
	client := fnClient{fn: func(ctx context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return suggestionJSON("@Alice", "bob_fit", "carol.zen"), nil
	}}

	g := NewGenerator(client, nil)
	got, err := g.Generate(context.Background(), Request{Keyword: "yoga", Country: "USA", MinFollowers: 1000, MaxFollowers: 100000, Quantity: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(prompts) != 1 {
		t.Fatalf("model was called %d times, want 1", len(prompts))
	}
	if !strings.Contains(prompts[0], "Suggest 3") {
		t.Errorf("prompt does not request 3 profiles: %q", prompts[0])
	}
	if !strings.Contains(prompts[0], "between 1000 and 100000") {
		t.Errorf("prompt does not carry the follower range: %q", prompts[0])
	}
	if len(got) != 3 {
		t.Fatalf("Generate returned %d profiles, want 3", len(got))
	}

	p := got[0]
	if p.Username != "alice" {
		t.Errorf("Username = %q, want lowercased alice without @", p.Username)
	}
	if p.ProfileLink != "https://instagram.com/alice" {
		t.Errorf("ProfileLink = %q", p.ProfileLink)
	}
	if p.EstimatedFollowers != "25000" {
		t.Errorf("EstimatedFollowers = %q", p.EstimatedFollowers)
	}
	if p.SuggestedHashtags != "#one, #two" {
		t.Errorf("SuggestedHashtags = %q", p.SuggestedHashtags)
	}
	if p.Source != SourceSuggestion || p.Status != StatusNew {
		t.Errorf("Source/Status = %q/%q", p.Source, p.Status)
	}
	if p.Country != "USA" || p.Niche != "yoga" {
		t.Errorf("Country/Niche = %q/%q", p.Country, p.Niche)
	}
}

func TestGenerate_AccumulatesAcrossBatchesWithExclusion(t *testing.T) {
	t.Parallel()

	var prompts []string
	client := fnClient{fn: func(ctx context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		if len(prompts) == 1 {
			names := make([]string, 10)
			for i := range names {
				names[i] = fmt.Sprintf("user%02d", i)
			}
			return suggestionJSON(names...), nil
		}
		// Repeat one excluded name plus two fresh ones.
		return suggestionJSON("user00", "fresh01", "fresh02"), nil
	}}

	g := NewGenerator(client, nil)
	got, err := g.Generate(context.Background(), Request{Keyword: "yoga", Quantity: 12})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("model was called %d times, want 2", len(prompts))
	}
	if strings.Contains(prompts[0], "Do NOT include") {
		t.Errorf("first prompt already carries an exclusion list")
	}
	if !strings.Contains(prompts[1], "Do NOT include") {
		t.Fatalf("second prompt is missing the exclusion list: %q", prompts[1])
	}
	for i := 0; i < 10; i++ {
		if name := fmt.Sprintf("user%02d", i); !strings.Contains(prompts[1], "- "+name+"\n") {
			t.Errorf("second prompt does not exclude %s", name)
		}
	}
	if !strings.Contains(prompts[1], "Suggest 2 ") {
		t.Errorf("second prompt should ask only for the 2 remaining profiles: %q", prompts[1])
	}
	if len(got) != 12 {
		t.Fatalf("Generate returned %d profiles, want 12", len(got))
	}
	if got[10].Username != "fresh01" || got[11].Username != "fresh02" {
		t.Errorf("tail usernames = %q, %q; repeated user00 should have been dropped", got[10].Username, got[11].Username)
	}
}

func TestGenerate_StopsWhenNoNewUsernames(t *testing.T) {
	t.Parallel()

	var calls int
	client := fnClient{fn: func(ctx context.Context, prompt string) (string, error) {
		calls++
		return suggestionJSON("alpha", "beta"), nil
	}}

	g := NewGenerator(client, nil)
	got, err := g.Generate(context.Background(), Request{Keyword: "yoga", Quantity: 5})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls != 2 {
		t.Fatalf("model was called %d times, want 2 (second batch adds nothing)", calls)
	}
	if len(got) != 2 {
		t.Fatalf("Generate returned %d profiles, want the 2 unique ones", len(got))
	}
}

func TestGenerate_FirstBatchFailurePropagates(t *testing.T) {
	t.Parallel()

	client := fnClient{fn: func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("model unavailable")
	}}
	g := NewGenerator(client, nil)
	if _, err := g.Generate(context.Background(), Request{Keyword: "yoga", Quantity: 5}); err == nil {
		t.Fatal("Generate returned nil error after first-batch failure")
	}
}

func TestGenerate_LaterBatchFailureKeepsPartial(t *testing.T) {
	t.Parallel()

	var calls int
	client := fnClient{fn: func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls == 1 {
			names := make([]string, 10)
			for i := range names {
				names[i] = fmt.Sprintf("user%02d", i)
			}
			return suggestionJSON(names...), nil
		}
		return "", errors.New("model unavailable")
	}}

	g := NewGenerator(client, nil)
	got, err := g.Generate(context.Background(), Request{Keyword: "yoga", Quantity: 15})
	if err != nil {
		t.Fatalf("Generate should keep partial results, got error: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("Generate returned %d profiles, want the 10 from the first batch", len(got))
	}
}
