package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
	"github.com/rohmanhakim/stream-harvester/pkg/urlutil"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Parse HTML into a DOM tree
- Match a structural selector
- Return {href, title} pairs in document order, resolved against the page URL

Elements without a usable href are skipped with a warning.
The extractor never fetches anything.
*/

type DomExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewDomExtractor(
	metadataSink metadata.MetadataSink,
) DomExtractor {
	return DomExtractor{
		metadataSink: metadataSink,
	}
}

// ExtractLinks returns every element matching selector that carries an href.
func (d *DomExtractor) ExtractLinks(
	sourceUrl url.URL,
	htmlByte []byte,
	selector string,
) ([]Link, failure.ClassifiedError) {
	return d.collect("DomExtractor.ExtractLinks", sourceUrl, htmlByte, selector, "href")
}

// ExtractAttr is ExtractLinks for an arbitrary URL-valued attribute, such as
// an iframe or source src.
func (d *DomExtractor) ExtractAttr(
	sourceUrl url.URL,
	htmlByte []byte,
	selector string,
	attr string,
) ([]Link, failure.ClassifiedError) {
	return d.collect("DomExtractor.ExtractAttr", sourceUrl, htmlByte, selector, attr)
}

func (d *DomExtractor) collect(
	action string,
	sourceUrl url.URL,
	htmlByte []byte,
	selector string,
	attr string,
) ([]Link, failure.ClassifiedError) {
	links, err := d.extract(sourceUrl, htmlByte, selector, attr)
	if err != nil {
		var extractionError *ExtractionError
		errors.As(err, &extractionError)
		d.metadataSink.RecordError(
			time.Now(),
			"extractor",
			action,
			mapExtractionErrorToMetadataCause(extractionError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
			},
		)
		return nil, extractionError
	}
	return links, nil
}

func (d *DomExtractor) extract(sourceUrl url.URL, htmlByte []byte, selector string, attr string) ([]Link, error) {
	doc, err := html.Parse(bytes.NewReader(htmlByte))
	if err != nil {
		return nil, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	matcher, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}
	selection := goquery.NewDocumentFromNode(doc).FindMatcher(matcher)

	links := make([]Link, 0, selection.Length())
	selection.Each(func(i int, s *goquery.Selection) {
		raw, ok := s.Attr(attr)
		if !ok || strings.TrimSpace(raw) == "" {
			return
		}
		resolved, resolveErr := urlutil.Resolve(sourceUrl, raw)
		if resolveErr != nil {
			d.metadataSink.RecordWarning(
				"extractor",
				"DomExtractor.extract",
				fmt.Sprintf("dropping unusable %s: %v", attr, resolveErr),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
					metadata.NewAttr(metadata.AttrItem, raw),
				},
			)
			return
		}
		links = append(links, Link{
			Href:  resolved,
			Title: elementTitle(s),
		})
	})

	return links, nil
}

func compileSelector(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &ExtractionError{
			Message:   fmt.Sprintf("%q: %v", selector, err),
			Retryable: false,
			Cause:     ErrCauseInvalidSelector,
		}
	}
	return sel, nil
}

// elementTitle reads only the title attribute. Anchor text on listing
// pages is poster markup, not a name.
func elementTitle(s *goquery.Selection) string {
	return strings.TrimSpace(s.AttrOr("title", ""))
}
