// Package followers normalizes human-readable follower magnitudes
// ("28.3K", "1.2M", "12,345") into absolute counts.
package followers

import (
	"regexp"
	"strconv"
	"strings"
)

// hintRe accepts an integer part, an optional fraction, and an optional K/M
// suffix. Thousands separators are stripped before matching.
var hintRe = regexp.MustCompile(`^([0-9]+)(?:\.([0-9]+))?([KkMm])?$`)

// ParseHint converts a follower magnitude string into an absolute count.
// Empty, malformed, or unparsable input yields 0, never an error: the hint is
// advisory and a bad one must not sink the candidate carrying it.
//
// Fractions are scaled in integer arithmetic and truncated toward zero, so
// "4.35K" is exactly 4350 and "1.2345K" is 1234. A fraction without a suffix
// ("12.5") has no whole-follower meaning and yields 0.
func ParseHint(raw string) int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")

	m := hintRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	whole, frac, suffix := m[1], m[2], m[3]

	var mult int64 = 1
	switch suffix {
	case "K", "k":
		mult = 1_000
	case "M", "m":
		mult = 1_000_000
	}
	if frac != "" && mult == 1 {
		return 0
	}

	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0
	}

	out := n * mult
	scale := mult
	for _, d := range frac {
		scale /= 10
		if scale == 0 {
			break
		}
		out += int64(d-'0') * scale
	}
	return out
}
