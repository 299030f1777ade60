package manifest

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	dimensionLabelPattern = regexp.MustCompile(`^\d+x(\d+)$`)
	pathHeightPattern     = regexp.MustCompile(`(?i)/(\d+p)/`)
)

// NormalizeLabel turns "1280x720" into "720p". "unknown" and empty labels
// become empty; anything else is returned trimmed.
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" || strings.EqualFold(label, "unknown") {
		return ""
	}
	if m := dimensionLabelPattern.FindStringSubmatch(strings.ToLower(label)); m != nil {
		return m[1] + "p"
	}
	return label
}

// HeightFromPath extracts a "/720p/" style token from a URL path.
func HeightFromPath(u url.URL) string {
	if m := pathHeightPattern.FindStringSubmatch(u.Path); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}
