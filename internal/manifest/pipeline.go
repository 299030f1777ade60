package manifest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rohmanhakim/stream-harvester/internal/fetcher"
	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/internal/playlist"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
	"github.com/rohmanhakim/stream-harvester/pkg/retry"
)

/*
Pipeline turns a page URL into an ordered segment list.

  - locate the top-level manifest (Resolver)
  - fetch and parse it
  - for a variant index, fetch and parse the best variant once more
  - fail with NoSegmentsFound when no segments remain

Label precedence, weakest first: resolver hint, top-level label, then
either the variant manifest's label or, when it has none, a /<N>p/ token
in the variant URL. Labels are normalized before use.

Structural failures are never retried here; the fetcher owns retries.
*/
type Pipeline struct {
	metadataSink metadata.MetadataSink
	fetcher      fetcher.Fetcher
	resolver     Resolver
	retryParam   retry.RetryParam
}

func NewPipeline(
	metadataSink metadata.MetadataSink,
	htmlFetcher fetcher.Fetcher,
	resolver Resolver,
	retryParam retry.RetryParam,
) Pipeline {
	return Pipeline{
		metadataSink: metadataSink,
		fetcher:      htmlFetcher,
		resolver:     resolver,
		retryParam:   retryParam,
	}
}

func (p *Pipeline) Resolve(ctx context.Context, pageURL url.URL) (Resolution, failure.ClassifiedError) {
	resolution, err := p.resolve(ctx, pageURL)
	if err != nil {
		var manifestErr *ManifestError
		if errors.As(err, &manifestErr) {
			p.metadataSink.RecordError(
				time.Now(),
				"manifest",
				"Pipeline.Resolve",
				mapManifestErrorToMetadataCause(manifestErr),
				err.Error(),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrURL, pageURL.String()),
				},
			)
		}
		return Resolution{}, err
	}
	return resolution, nil
}

func (p *Pipeline) resolve(ctx context.Context, pageURL url.URL) (Resolution, failure.ClassifiedError) {
	locator, err := p.resolver.Locate(ctx, pageURL)
	if err != nil {
		return Resolution{}, err
	}

	top, err := p.fetchManifest(ctx, locator.ManifestURL, locator.Referer)
	if err != nil {
		return Resolution{}, err
	}

	label := NormalizeLabel(locator.ResolutionHint)
	if topLabel := NormalizeLabel(top.ResolutionLabel); topLabel != "" {
		label = topLabel
	}

	resolution := Resolution{
		PageURL:     pageURL,
		ManifestURL: locator.ManifestURL,
		Referer:     locator.Referer,
	}

	final := top
	if top.Kind == playlist.KindVariantIndex {
		best, ok := top.Best()
		if !ok {
			return Resolution{}, &ManifestError{
				Message: "variant index without a selectable variant",
				Cause:   ErrCauseNoVariant,
			}
		}
		variant, err := p.fetchManifest(ctx, best.URL, locator.Referer)
		if err != nil {
			return Resolution{}, err
		}
		if variantLabel := NormalizeLabel(variant.ResolutionLabel); variantLabel != "" {
			label = variantLabel
		} else if pathLabel := HeightFromPath(best.URL); pathLabel != "" {
			label = pathLabel
		}
		variantURL := best.URL
		resolution.VariantURL = &variantURL
		final = variant
	}

	if final.Kind != playlist.KindSegmentList || len(final.Segments) == 0 {
		source := final.SourceURL
		return Resolution{}, &ManifestError{
			Message:   fmt.Sprintf("%s parsed as %s", source.String(), final.Kind),
			Retryable: false,
			Cause:     ErrCauseNoSegments,
		}
	}

	resolution.Segments = final.Segments
	resolution.ResolutionLabel = label
	return resolution, nil
}

func (p *Pipeline) fetchManifest(ctx context.Context, manifestURL url.URL, referer string) (playlist.Manifest, failure.ClassifiedError) {
	request := fetcher.NewFetchRequest(manifestURL, fetcher.WithReferer(referer))
	result, err := p.fetcher.Fetch(ctx, request, p.retryParam)
	if err != nil {
		return playlist.Manifest{}, err
	}

	// parse against the post-redirect URL so relative segments resolve
	// where the manifest actually lives
	parsed := playlist.Parse(string(result.Body()), result.FinalURL())
	for _, dropped := range parsed.Dropped {
		p.metadataSink.RecordWarning(
			"manifest",
			"playlist.Parse",
			dropped.Reason,
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, manifestURL.String()),
				metadata.NewAttr(metadata.AttrLine, strconv.Itoa(dropped.Line)),
			},
		)
	}
	return parsed, nil
}
