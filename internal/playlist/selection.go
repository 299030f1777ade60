package playlist

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	dimensionPattern = regexp.MustCompile(`^(\d+)x(\d+)$`)
	heightPattern    = regexp.MustCompile(`^(\d+)p$`)
)

// ParseHeight reads the height out of "<w>x<h>" or "<h>p" labels.
func ParseHeight(label string) (int, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if m := dimensionPattern.FindStringSubmatch(label); m != nil {
		h, err := strconv.Atoi(m[2])
		return h, err == nil
	}
	if m := heightPattern.FindStringSubmatch(label); m != nil {
		h, err := strconv.Atoi(m[1])
		return h, err == nil
	}
	return 0, false
}

// SelectBest picks the variant with the greatest height. Ties keep the
// first-seen entry and unresolved labels never outrank a resolved one.
// Among only unresolved labels the first one wins.
func SelectBest(variants []VariantRef) (VariantRef, bool) {
	ranked := RankVariants(variants)
	if len(ranked) == 0 {
		return VariantRef{}, false
	}
	return ranked[0], true
}

// RankVariants returns a copy of variants in selection order.
func RankVariants(variants []VariantRef) []VariantRef {
	ranked := make([]VariantRef, len(variants))
	copy(ranked, variants)
	sort.SliceStable(ranked, func(i, j int) bool {
		hi, okI := ParseHeight(ranked[i].ResolutionLabel)
		hj, okJ := ParseHeight(ranked[j].ResolutionLabel)
		if okI != okJ {
			return okI
		}
		return hi > hj
	})
	return ranked
}
