// Package discover implements the creator discovery pipeline: search fan-out
// with generative enrichment (path A) and generative-only fallback (path B),
// both emitting one Profile schema.
package discover

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile sources. A profile's source is set once at creation and never
// rewritten.
const (
	SourceSearch     = "google_search"
	SourceSuggestion = "ai_suggestion"
)

// StatusNew is the workflow status stamped on every freshly discovered
// profile.
const StatusNew = "New"

// Profile is the pipeline's output unit. Fields are string-typed because this
// record is the store/API boundary: follower counts are string-encoded
// integers (empty when unknown) and flags are "Yes"/"No".
type Profile struct {
	UniqueProfileID      string `json:"unique_profile_id"`
	Username             string `json:"username"`
	ProfileLink          string `json:"profile_link"`
	EstimatedFollowers   string `json:"estimated_followers"`
	ProfileDescription   string `json:"profile_description"`
	ContentFocus         string `json:"content_focus"`
	SuggestedHashtags    string `json:"suggested_hashtags"`
	OpenToCollaborations string `json:"open_to_collaborations"`
	Country              string `json:"country"`
	Niche                string `json:"niche"`
	DiscoveryDate        string `json:"discovery_date"`
	Status               string `json:"status"`
	Source               string `json:"source"`
}

// NewProfileID builds the id stamped on one discovered profile:
// <niche slug>_<YYYYMMDD>_<5 random chars>.
func NewProfileID(niche string, now time.Time) string {
	slug := strings.ToLower(strings.TrimSpace(niche))
	slug = strings.ReplaceAll(slug, " ", "_")
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:5]
	return fmt.Sprintf("%s_%s_%s", slug, now.Format("20060102"), suffix)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
