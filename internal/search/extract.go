package search

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const snippetMaxRunes = 200

var (
	// profileLinkRe matches a bare Instagram profile URL. Post, reel, and
	// query-string URLs intentionally do not match.
	profileLinkRe = regexp.MustCompile(`^https://(?:www\.)?instagram\.com/([A-Za-z0-9._]+)/?$`)

	// followerHintRe captures magnitudes like "28.3K Followers" or
	// "1,010 followers" from result snippets.
	followerHintRe = regexp.MustCompile(`(?i)([0-9][0-9,.]*[KkMm]?)\s*followers`)

	// handleParenRe strips the "(@handle)" parenthetical Instagram puts in
	// result titles.
	handleParenRe = regexp.MustCompile(`\s*\(@[A-Za-z0-9._]+\)`)
)

// reservedHandles are instagram.com path segments that match the profile URL
// shape but are site sections, not accounts.
var reservedHandles = map[string]struct{}{
	"about":     {},
	"accounts":  {},
	"ads":       {},
	"api":       {},
	"blog":      {},
	"business":  {},
	"challenge": {},
	"creators":  {},
	"developer": {},
	"direct":    {},
	"directory": {},
	"explore":   {},
	"help":      {},
	"legal":     {},
	"p":         {},
	"press":     {},
	"privacy":   {},
	"reel":      {},
	"reels":     {},
	"stories":   {},
	"tags":      {},
	"terms":     {},
	"tv":        {},
	"web":       {},
}

// titleBrandMarkers cut result titles at the platform-branding suffix, e.g.
// "Yoga With Adriene (@adriene) • Instagram photos and videos".
var titleBrandMarkers = []string{
	" • Instagram",
	" | Instagram",
	" - Instagram",
	" on Instagram",
}

// ExtractCandidates converts raw hits into profile candidates. Non-profile
// URLs and reserved site sections are dropped, usernames are lowercased, and
// duplicates within the batch are deduplicated first-occurrence-wins. Output
// preserves first-seen order.
func ExtractCandidates(results []Result) []Candidate {
	seen := make(map[string]struct{}, len(results))
	out := make([]Candidate, 0, len(results))
	for _, r := range results {
		m := profileLinkRe.FindStringSubmatch(strings.TrimSpace(r.Link))
		if m == nil {
			continue
		}
		username := strings.ToLower(m[1])
		if _, reserved := reservedHandles[username]; reserved {
			continue
		}
		if _, dup := seen[username]; dup {
			continue
		}
		seen[username] = struct{}{}

		out = append(out, Candidate{
			Username:      username,
			ProfileLink:   "https://instagram.com/" + username,
			DisplayName:   displayName(r.Title, username),
			Snippet:       truncate(r.Snippet, snippetMaxRunes),
			FollowersHint: followersHint(r.Snippet),
		})
	}
	return out
}

func displayName(title, fallback string) string {
	name := strings.TrimSpace(title)
	for _, marker := range titleBrandMarkers {
		if i := strings.Index(name, marker); i >= 0 {
			name = name[:i]
		}
	}
	name = handleParenRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	return name
}

func followersHint(snippet string) string {
	m := followerHintRe.FindStringSubmatch(snippet)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
