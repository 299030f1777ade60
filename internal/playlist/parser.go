package playlist

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/rohmanhakim/stream-harvester/pkg/urlutil"
)

const variantDirective = "#EXT-X-STREAM-INF"

var (
	resolutionAttrPattern = regexp.MustCompile(`(?i)RESOLUTION=(\d+x\d+)`)
	segmentTokenPattern   = regexp.MustCompile(`(?i)(segment|seg|chunk|frag)[-_]\d+`)
	segmentExtensions     = map[string]struct{}{".ts": {}, ".m4s": {}, ".aac": {}}
)

// Parse scans manifest text line by line. It never fails: lines it cannot
// use are reported in Manifest.Dropped.
//
// The first non-blank line after a variant directive is that variant's URI.
// A tag in that position drops the pending variant. When any segment line is
// present the manifest is a segment list and variants are discarded.
func Parse(manifestText string, manifestURL url.URL) Manifest {
	manifest := Manifest{SourceURL: manifestURL}

	var (
		pending      bool
		pendingLabel string
		pendingLine  int
	)

	for i, raw := range strings.Split(manifestText, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if pending {
			if strings.HasPrefix(line, "#") {
				manifest.Dropped = append(manifest.Dropped, DroppedLine{
					Line:   pendingLine,
					Text:   variantDirective,
					Reason: "variant directive not followed by a URI",
				})
				pending = false
			} else {
				pending = false
				variantURL, err := urlutil.Resolve(manifestURL, line)
				if err != nil {
					manifest.Dropped = append(manifest.Dropped, DroppedLine{
						Line:   lineNo,
						Text:   line,
						Reason: "malformed variant URI: " + err.Error(),
					})
					continue
				}
				manifest.Variants = append(manifest.Variants, VariantRef{
					URL:             variantURL,
					ResolutionLabel: pendingLabel,
				})
				continue
			}
		}

		if strings.HasPrefix(line, "#") {
			if strings.HasPrefix(strings.ToUpper(line), variantDirective) {
				pending = true
				pendingLine = lineNo
				pendingLabel = ""
				if m := resolutionAttrPattern.FindStringSubmatch(line); m != nil {
					pendingLabel = strings.ToLower(m[1])
				}
			}
			continue
		}

		if !IsSegmentLine(line) {
			continue
		}
		segmentURL, err := urlutil.Resolve(manifestURL, line)
		if err != nil {
			manifest.Dropped = append(manifest.Dropped, DroppedLine{
				Line:   lineNo,
				Text:   line,
				Reason: "malformed segment URI: " + err.Error(),
			})
			continue
		}
		manifest.Segments = append(manifest.Segments, SegmentRef{
			URL:     segmentURL,
			Ordinal: len(manifest.Segments),
		})
	}

	if pending {
		manifest.Dropped = append(manifest.Dropped, DroppedLine{
			Line:   pendingLine,
			Text:   variantDirective,
			Reason: "variant directive at end of manifest",
		})
	}

	switch {
	case len(manifest.Segments) > 0:
		manifest.Kind = KindSegmentList
		manifest.Variants = nil
	case len(manifest.Variants) > 0:
		manifest.Kind = KindVariantIndex
		if best, ok := SelectBest(manifest.Variants); ok {
			manifest.ResolutionLabel = best.ResolutionLabel
		}
	default:
		manifest.Kind = KindEmpty
	}
	return manifest
}

// IsSegmentLine reports whether a non-tag line looks like a media segment:
// a known segment extension or a numbering token such as segment-12.
func IsSegmentLine(line string) bool {
	p := line
	if idx := strings.IndexAny(p, "?#"); idx >= 0 {
		p = p[:idx]
	}
	if HasSegmentExtension(p) {
		return true
	}
	return segmentTokenPattern.MatchString(line)
}

// HasSegmentExtension reports whether a path ends in .ts, .m4s or .aac.
func HasSegmentExtension(p string) bool {
	_, ok := segmentExtensions[strings.ToLower(path.Ext(p))]
	return ok
}
