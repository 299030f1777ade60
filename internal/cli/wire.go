package cmd

import (
	"io"
	"net/url"

	"github.com/rohmanhakim/stream-harvester/internal/config"
	"github.com/rohmanhakim/stream-harvester/internal/download"
	"github.com/rohmanhakim/stream-harvester/internal/extractor"
	"github.com/rohmanhakim/stream-harvester/internal/fetcher"
	"github.com/rohmanhakim/stream-harvester/internal/harvester"
	"github.com/rohmanhakim/stream-harvester/internal/manifest"
	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/internal/reassembler"
	"github.com/rohmanhakim/stream-harvester/internal/storage"
	"github.com/rohmanhakim/stream-harvester/pkg/limiter"
	"github.com/rohmanhakim/stream-harvester/pkg/retry"
)

// newFetcher builds the one HTTP client every component of a run shares,
// so politeness delays apply across harvest and download traffic alike.
func newFetcher(cfg config.Config, sink metadata.MetadataSink) *fetcher.RetryingFetcher {
	credentials := fetcher.Credentials{
		UserAgent: cfg.UserAgent(),
		Cookie:    cfg.Cookie(),
		Headers:   cfg.Headers(),
	}
	opts := []fetcher.Option{fetcher.WithTimeout(cfg.Timeout())}
	if rateLimiter := newRateLimiter(cfg); rateLimiter != nil {
		opts = append(opts, fetcher.WithRateLimiter(rateLimiter))
	}
	return fetcher.NewRetryingFetcher(sink, credentials, opts...)
}

// newRateLimiter returns nil when no politeness delay is configured.
func newRateLimiter(cfg config.Config) limiter.RateLimiter {
	hostDelays := cfg.HostDelays()
	if cfg.BaseDelay() <= 0 && len(hostDelays) == 0 {
		return nil
	}
	rateLimiter := limiter.NewConcurrentRateLimiter(cfg.BaseDelay())
	for host, delay := range hostDelays {
		rateLimiter.SetHostDelay(host, delay)
	}
	return rateLimiter
}

func retryParamOf(cfg config.Config) retry.RetryParam {
	return retry.NewRetryParam(cfg.RetryDelay(), cfg.MaxAttempts())
}

func newHarvester(cfg config.Config, logOut io.Writer) harvester.Harvester {
	recorder := metadata.NewRecorder("harvest", logOut, cfg.Debug())
	htmlFetcher := newFetcher(cfg, &recorder)
	domExtractor := extractor.NewDomExtractor(&recorder)
	linkSink := storage.NewLocalSink(&recorder)
	return harvester.NewHarvester(&recorder, &recorder, htmlFetcher, &domExtractor, &linkSink)
}

func harvestParamsOf(cfg config.Config) harvester.Params {
	return harvester.Params{
		ListingURLTemplate: cfg.ListingURLTemplate(),
		BaseURL:            cfg.BaseURL(),
		MaxPages:           cfg.MaxPages(),
		EntityConcurrency:  cfg.EntityConcurrency(),
		TargetConcurrency:  cfg.TargetConcurrency(),
		EntitySelector:     cfg.EntitySelector(),
		TargetSelector:     cfg.TargetSelector(),
		OutputDir:          cfg.OutputDir(),
		HashAlgo:           cfg.HashAlgo(),
		RetryParam:         retryParamOf(cfg),
	}
}

// newDownloadService wires manifest resolution and reassembly. A non-nil
// manifestOverride skips page discovery entirely.
func newDownloadService(cfg config.Config, logOut io.Writer, manifestOverride *url.URL) download.Service {
	recorder := metadata.NewRecorder("download", logOut, cfg.Debug())
	httpFetcher := newFetcher(cfg, &recorder)
	retryParam := retryParamOf(cfg)

	var resolver manifest.Resolver
	if manifestOverride != nil {
		resolver = manifest.NewStaticResolver(*manifestOverride)
	} else {
		domExtractor := extractor.NewDomExtractor(&recorder)
		resolver = manifest.NewPageScanResolver(
			&recorder,
			httpFetcher,
			&domExtractor,
			cfg.IframeSelector(),
			cfg.VideoSelector(),
			retryParam,
		)
	}

	pipeline := manifest.NewPipeline(&recorder, httpFetcher, resolver, retryParam)
	assembler := reassembler.NewReassembler(
		&recorder,
		httpFetcher,
		reassembler.NewFFmpegMuxer(cfg.FFmpegPath()),
		retryParam,
	)
	return download.NewService(&recorder, &pipeline, &assembler)
}
