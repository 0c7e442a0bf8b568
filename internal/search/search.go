// Package search turns web-search results into creator profile candidates.
//
// The flow is: fan out query variants against a Provider, extract Instagram
// profile candidates from the raw hits, and hand the deduplicated accumulation
// to the enrichment stage.
package search

import "context"

// Result is one raw hit from the web search provider.
type Result struct {
	Link    string
	Title   string
	Snippet string
}

// Candidate is an unverified profile stub extracted from search results.
// Usernames are lowercased and unique within one extraction batch.
// FollowersHint carries the raw magnitude string from the snippet ("28.3K")
// when one was present, otherwise "".
type Candidate struct {
	Username      string
	ProfileLink   string
	DisplayName   string
	Snippet       string
	FollowersHint string
}

// Provider issues a single web-search query.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
