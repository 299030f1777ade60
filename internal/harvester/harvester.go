package harvester

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/stream-harvester/internal/extractor"
	"github.com/rohmanhakim/stream-harvester/internal/fetcher"
	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/internal/storage"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
	"github.com/rohmanhakim/stream-harvester/pkg/taskpool"
)

/*
 Harvester walks a paginated listing and turns every entity on it into one
 link-list artifact.

 Per page:
 - fetch the listing page; a page that cannot be fetched is skipped
 - extract entity records; zero records after page 1 ends pagination,
   zero records on page 1 is only a warning
 - fan out over entities with the task pool

 Per entity:
 - fetch the entity page and extract its targets
 - fan out over targets, following each redirect chain once
 - persist the resolved set ordered by the target's position on the page

 Every entity leaves exactly one artifact, a sentinel when nothing resolved.
 A failing target only drops that target. A failing entity only drops
 that entity. Neither stops the harvest.

 Cancellation is not a failure: an interrupted entity writes nothing, so
 artifacts from an earlier run stay as they were.
*/

type LinkExtractor interface {
	ExtractLinks(
		sourceUrl url.URL,
		htmlByte []byte,
		selector string,
	) ([]extractor.Link, failure.ClassifiedError)
}

type Harvester struct {
	metadataSink     metadata.MetadataSink
	harvestFinalizer metadata.HarvestFinalizer
	fetcher          fetcher.Fetcher
	linkExtractor    LinkExtractor
	linkSink         storage.LinkSink
}

func NewHarvester(
	metadataSink metadata.MetadataSink,
	harvestFinalizer metadata.HarvestFinalizer,
	htmlFetcher fetcher.Fetcher,
	linkExtractor LinkExtractor,
	linkSink storage.LinkSink,
) Harvester {
	return Harvester{
		metadataSink:     metadataSink,
		harvestFinalizer: harvestFinalizer,
		fetcher:          htmlFetcher,
		linkExtractor:    linkExtractor,
		linkSink:         linkSink,
	}
}

// Harvest runs pages 1..MaxPages. It returns an error only for invalid
// params, a fatal extraction failure or a cancelled context; everything
// else is counted in the stats.
func (h *Harvester) Harvest(ctx context.Context, params Params) (HarvestStats, error) {
	startTime := time.Now()
	var stats HarvestStats

	if err := validateParams(params); err != nil {
		return stats, err
	}

	defer func() {
		h.harvestFinalizer.RecordFinalHarvestStats(
			stats.Pages,
			stats.Entities,
			stats.Resolved,
			stats.Failures,
			time.Since(startTime),
		)
	}()

	for page := 1; page <= params.MaxPages; page++ {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		listingURL, err := ListingURL(params.ListingURLTemplate, page)
		if err != nil {
			return stats, err
		}

		fetchResult, fetchErr := h.fetcher.Fetch(ctx, fetcher.NewFetchRequest(listingURL), params.RetryParam)
		if fetchErr != nil {
			// already recorded by the fetcher
			stats.Failures++
			continue
		}

		links, extractErr := h.linkExtractor.ExtractLinks(params.BaseURL, fetchResult.Body(), params.EntitySelector)
		if extractErr != nil {
			if extractErr.Severity() == failure.SeverityFatal {
				return stats, extractErr
			}
			stats.Failures++
			continue
		}

		entities := h.entitiesOf(links, page)
		if len(entities) == 0 {
			if page > 1 {
				h.metadataSink.RecordWarning(
					"harvester",
					"Harvester.Harvest",
					"no entities found, listing exhausted",
					[]metadata.Attribute{
						metadata.NewAttr(metadata.AttrPage, strconv.Itoa(page)),
						metadata.NewAttr(metadata.AttrURL, listingURL.String()),
					},
				)
				break
			}
			h.metadataSink.RecordWarning(
				"harvester",
				"Harvester.Harvest",
				"no entities found on the first page",
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrPage, strconv.Itoa(page)),
					metadata.NewAttr(metadata.AttrURL, listingURL.String()),
				},
			)
			stats.Pages++
			continue
		}
		stats.Pages++

		report := taskpool.Run(
			ctx,
			entities,
			params.EntityConcurrency,
			func(ctx context.Context, e entity) (entityReport, error) {
				return h.harvestEntity(ctx, params, e)
			},
			taskpool.WithFailureHook(h.poolFailureHook("entities page "+strconv.Itoa(page))),
		)

		for _, outcome := range report.Outcomes() {
			stats.Entities++
			entityStats := outcome.Value
			stats.Targets += entityStats.targets
			stats.Resolved += entityStats.resolved
			stats.Failures += entityStats.failures
			if entityStats.writeResult != nil {
				stats.WriteResults = append(stats.WriteResults, *entityStats.writeResult)
			}
			if outcome.IsFailure() {
				stats.Failures++
			}
		}
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		h.metadataSink.RecordProgress("harvest.pages", page, params.MaxPages)
	}

	return stats, nil
}

// entitiesOf keeps records carrying both an href and a title.
func (h *Harvester) entitiesOf(links []extractor.Link, page int) []entity {
	entities := make([]entity, 0, len(links))
	for _, link := range links {
		if strings.TrimSpace(link.Title) == "" {
			h.metadataSink.RecordWarning(
				"harvester",
				"Harvester.entitiesOf",
				"skipping entity without title",
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrPage, strconv.Itoa(page)),
					metadata.NewAttr(metadata.AttrURL, link.Href.String()),
				},
			)
			continue
		}
		entities = append(entities, entity{link: link})
	}
	return entities
}

func (h *Harvester) harvestEntity(ctx context.Context, params Params, e entity) (entityReport, error) {
	var report entityReport

	pageResult, fetchErr := h.fetcher.Fetch(ctx, fetcher.NewFetchRequest(e.link.Href), params.RetryParam)
	if fetchErr != nil {
		if interrupted(ctx, fetchErr) {
			return report, fetchErr
		}
		h.persist(params, e, nil, &report)
		return report, fetchErr
	}

	targetLinks, extractErr := h.linkExtractor.ExtractLinks(pageResult.FinalURL(), pageResult.Body(), params.TargetSelector)
	if extractErr != nil {
		if interrupted(ctx, extractErr) {
			return report, extractErr
		}
		h.persist(params, e, nil, &report)
		return report, extractErr
	}
	if len(targetLinks) == 0 {
		h.metadataSink.RecordWarning(
			"harvester",
			"Harvester.harvestEntity",
			"no targets found",
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrEntity, e.link.Title),
				metadata.NewAttr(metadata.AttrURL, e.link.Href.String()),
			},
		)
	}

	targets := make([]target, len(targetLinks))
	for i, link := range targetLinks {
		targets[i] = target{link: link}
	}

	referer := e.link.Href.String()
	targetReport := taskpool.Run(
		ctx,
		targets,
		params.TargetConcurrency,
		func(ctx context.Context, t target) (string, error) {
			return h.resolveTarget(ctx, params, t, referer)
		},
		taskpool.WithFailureHook(h.poolFailureHook("targets of "+e.link.Title)),
	)

	resolved := orderedUnique(targetReport.Successes())
	report.targets = len(targets)
	report.failures = len(targetReport.Failures())
	if ctx.Err() != nil {
		// a partial set must not replace a complete one
		return report, ctx.Err()
	}

	if err := h.persist(params, e, resolved, &report); err != nil {
		return report, err
	}
	report.resolved = len(resolved)
	return report, nil
}

// resolveTarget follows the redirect chain of one target and returns the final URL.
func (h *Harvester) resolveTarget(ctx context.Context, params Params, t target, referer string) (string, error) {
	request := fetcher.NewFetchRequest(t.link.Href, fetcher.WithReferer(referer), fetcher.WithoutBody())
	result, err := h.fetcher.Fetch(ctx, request, params.RetryParam)
	if err != nil {
		return "", err
	}
	finalURL := result.FinalURL()
	return finalURL.String(), nil
}

// interrupted reports whether err comes from cancellation rather than
// from the entity itself.
func interrupted(ctx context.Context, err failure.ClassifiedError) bool {
	if ctx.Err() != nil {
		return true
	}
	var fetchErr *fetcher.FetchError
	return errors.As(err, &fetchErr) && fetchErr.Cause == fetcher.ErrCauseCancelled
}

func (h *Harvester) persist(params Params, e entity, urls []string, report *entityReport) failure.ClassifiedError {
	writeResult, err := h.linkSink.Write(params.OutputDir, e.link.Title, urls, params.HashAlgo)
	if err != nil {
		return err
	}
	report.writeResult = &writeResult
	return nil
}

func (h *Harvester) poolFailureHook(taskGroup string) taskpool.FailureHook {
	return func(worker int, index int, identity string, err error) {
		h.metadataSink.RecordWarning(
			"harvester",
			"taskpool.Run",
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrTaskGroup, taskGroup),
				metadata.NewAttr(metadata.AttrWorker, strconv.Itoa(worker)),
				metadata.NewAttr(metadata.AttrItem, identity),
			},
		)
	}
}

// orderedUnique sorts successes by listing position and drops repeated URLs,
// keeping the first.
func orderedUnique(successes []taskpool.Outcome[target, string]) []string {
	sort.Slice(successes, func(i, j int) bool {
		return successes[i].Index < successes[j].Index
	})
	seen := make(map[string]struct{}, len(successes))
	urls := make([]string, 0, len(successes))
	for _, s := range successes {
		if _, ok := seen[s.Value]; ok {
			continue
		}
		seen[s.Value] = struct{}{}
		urls = append(urls, s.Value)
	}
	return urls
}

// ListingURL renders the listing template for one page.
func ListingURL(template string, page int) (url.URL, error) {
	raw := strings.ReplaceAll(template, PagePlaceholder, strconv.Itoa(page))
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return url.URL{}, &HarvestError{
			Message:   fmt.Sprintf("listing url %q is not absolute", raw),
			Retryable: false,
			Cause:     ErrCauseInvalidURL,
		}
	}
	return *parsed, nil
}

func validateParams(params Params) error {
	switch {
	case !strings.Contains(params.ListingURLTemplate, PagePlaceholder):
		return &HarvestError{
			Message: fmt.Sprintf("listing url template %q has no %s placeholder", params.ListingURLTemplate, PagePlaceholder),
			Cause:   ErrCauseInvalidParams,
		}
	case params.MaxPages < 1:
		return &HarvestError{
			Message: fmt.Sprintf("max pages must be at least 1, got %d", params.MaxPages),
			Cause:   ErrCauseInvalidParams,
		}
	case params.EntityConcurrency < 1 || params.TargetConcurrency < 1:
		return &HarvestError{
			Message: "concurrency must be at least 1",
			Cause:   ErrCauseInvalidParams,
		}
	case params.OutputDir == "":
		return &HarvestError{
			Message: "output dir is empty",
			Cause:   ErrCauseInvalidParams,
		}
	}
	return nil
}
