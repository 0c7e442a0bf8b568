package search_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/creatorscout/creatorscout/internal/search"
)

func TestExtractCandidates_FiltersNonProfileLinks(t *testing.T) {
	t.Parallel()

	results := []search.Result{
		{Link: "https://www.instagram.com/yogawithtara/", Title: "Tara (@yogawithtara) • Instagram photos and videos"},
		{Link: "https://www.instagram.com/p/Cxyz123/", Title: "A post"},
		{Link: "https://www.instagram.com/reel/Cabc456/", Title: "A reel"},
		{Link: "https://www.instagram.com/explore/tags/yoga/", Title: "Explore"},
		{Link: "https://www.instagram.com/explore/", Title: "Explore"},
		{Link: "https://www.instagram.com/accounts/login/", Title: "Login"},
		{Link: "https://www.instagram.com/yogawithtara/?hl=en", Title: "Query string"},
		{Link: "https://twitter.com/yogawithtara", Title: "Wrong site"},
		{Link: "http://instagram.com/plainhttp", Title: "Not https"},
		{Link: "https://instagram.com/fit.mike_99", Title: "Mike • Instagram"},
	}

	got := search.ExtractCandidates(results)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %#v", len(got), got)
	}
	if got[0].Username != "yogawithtara" {
		t.Fatalf("got[0].Username = %q, want yogawithtara", got[0].Username)
	}
	if got[1].Username != "fit.mike_99" {
		t.Fatalf("got[1].Username = %q, want fit.mike_99", got[1].Username)
	}
}

func TestExtractCandidates_LowercasesAndDedupes(t *testing.T) {
	t.Parallel()

	results := []search.Result{
		{Link: "https://www.instagram.com/YogaWithTara", Title: "first"},
		{Link: "https://instagram.com/yogawithtara/", Title: "second"},
		{Link: "https://www.instagram.com/other", Title: "third"},
	}

	got := search.ExtractCandidates(results)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Username != "yogawithtara" {
		t.Fatalf("got[0].Username = %q, want lowercased yogawithtara", got[0].Username)
	}
	if got[0].DisplayName != "first" {
		t.Fatalf("got[0].DisplayName = %q, want first occurrence to win", got[0].DisplayName)
	}
	if got[0].ProfileLink != "https://instagram.com/yogawithtara" {
		t.Fatalf("got[0].ProfileLink = %q", got[0].ProfileLink)
	}
	if got[1].Username != "other" {
		t.Fatalf("got[1].Username = %q, want other", got[1].Username)
	}
}

func TestExtractCandidates_DisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "branding and handle stripped",
			title: "Yoga With Adriene (@adriene_mishler) • Instagram photos and videos",
			want:  "Yoga With Adriene",
		},
		{
			name:  "pipe branding",
			title: "Adriene Mishler | Instagram",
			want:  "Adriene Mishler",
		},
		{
			name:  "on instagram suffix",
			title: "Adriene Mishler on Instagram",
			want:  "Adriene Mishler",
		},
		{
			name:  "empty title falls back to handle",
			title: "",
			want:  "someone",
		},
		{
			name:  "title that is only branding falls back to handle",
			title: " • Instagram photos and videos",
			want:  "someone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := search.ExtractCandidates([]search.Result{
				{Link: "https://www.instagram.com/someone/", Title: tt.title},
			})
			if len(got) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(got))
			}
			if got[0].DisplayName != tt.want {
				t.Fatalf("DisplayName = %q, want %q", got[0].DisplayName, tt.want)
			}
		})
	}
}

func TestExtractCandidates_FollowersHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		snippet string
		want    string
	}{
		{name: "k magnitude", snippet: "28.3K Followers, 1,010 Following, 2,748 Posts", want: "28.3K"},
		{name: "plain count", snippet: "1,234 followers on Instagram", want: "1,234"},
		{name: "m magnitude lowercase", snippet: "about 1.2m followers", want: "1.2m"},
		{name: "no hint", snippet: "Daily yoga flows and breathwork.", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := search.ExtractCandidates([]search.Result{
				{Link: "https://www.instagram.com/someone/", Snippet: tt.snippet},
			})
			if len(got) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(got))
			}
			if got[0].FollowersHint != tt.want {
				t.Fatalf("FollowersHint = %q, want %q", got[0].FollowersHint, tt.want)
			}
		})
	}
}

func TestExtractCandidates_TruncatesSnippet(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("yoga flows ", 40)
	got := search.ExtractCandidates([]search.Result{
		{Link: "https://www.instagram.com/someone/", Snippet: long},
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if n := utf8.RuneCountInString(got[0].Snippet); n > 200 {
		t.Fatalf("snippet length = %d runes, want <= 200", n)
	}
	if !strings.HasPrefix(long, got[0].Snippet) {
		t.Fatalf("snippet %q is not a prefix of the input", got[0].Snippet)
	}
}
