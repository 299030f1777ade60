package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/stream-harvester/internal/extractor"
	"github.com/rohmanhakim/stream-harvester/pkg/hashutil"
)

const listingPagePlaceholder = "%d"

type Config struct {
	//===============
	// Harvest scope
	//===============
	// Listing page URL with a %d placeholder for the 1-based page number
	listingURLTemplate string
	// Base against which relative entity and target links are resolved.
	// Empty means scheme and host of the listing URL.
	baseURL url.URL
	// Number of listing pages to walk before stopping
	maxPages int

	//===============
	// Concurrency
	//===============
	// Entities processed at once
	entityConcurrency int
	// Redirect targets resolved at once within one entity
	targetConcurrency int

	//===============
	// Extraction
	//===============
	entitySelector string
	targetSelector string
	// Player iframe on a target page
	iframeSelector string
	// Video element whose <source> may carry the manifest URL
	videoSelector string

	//===============
	// Retry & politeness
	//===============
	maxAttempts int
	// Fixed wait between two attempts of the same request
	retryDelay time.Duration
	// Upper bound of a single HTTP attempt
	timeout time.Duration
	// Minimum gap between two requests to the same host. Zero disables it.
	baseDelay time.Duration
	// Per-host gaps, applied where larger than baseDelay
	hostDelays map[string]time.Duration

	//===============
	// Credentials
	//===============
	userAgent string
	cookie    string
	headers   map[string]string

	//===============
	// Output
	//===============
	// Where per-entity link lists are written
	outputDir string
	// Default root for reassembled media
	downloadDir string
	ffmpegPath  string
	hashAlgo    hashutil.HashAlgo
	debug       bool
}

type configDTO struct {
	ListingURLTemplate string                   `json:"listingUrlTemplate,omitempty"`
	BaseURL            string                   `json:"baseUrl,omitempty"`
	MaxPages           int                      `json:"maxPages,omitempty"`
	EntityConcurrency  int                      `json:"entityConcurrency,omitempty"`
	TargetConcurrency  int                      `json:"targetConcurrency,omitempty"`
	EntitySelector     string                   `json:"entitySelector,omitempty"`
	TargetSelector     string                   `json:"targetSelector,omitempty"`
	IframeSelector     string                   `json:"iframeSelector,omitempty"`
	VideoSelector      string                   `json:"videoSelector,omitempty"`
	MaxAttempts        int                      `json:"maxAttempts,omitempty"`
	RetryDelay         time.Duration            `json:"retryDelay,omitempty"`
	Timeout            time.Duration            `json:"timeout,omitempty"`
	BaseDelay          time.Duration            `json:"baseDelay,omitempty"`
	HostDelays         map[string]time.Duration `json:"hostDelays,omitempty"`
	UserAgent          string                   `json:"userAgent,omitempty"`
	Cookie             string                   `json:"cookie,omitempty"`
	Headers            map[string]string        `json:"headers,omitempty"`
	OutputDir          string                   `json:"outputDir,omitempty"`
	DownloadDir        string                   `json:"downloadDir,omitempty"`
	FFmpegPath         string                   `json:"ffmpegPath,omitempty"`
	HashAlgo           string                   `json:"hashAlgo,omitempty"`
	Debug              bool                     `json:"debug,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg := WithDefault()

	if dto.ListingURLTemplate != "" {
		cfg.listingURLTemplate = dto.ListingURLTemplate
	}
	if dto.BaseURL != "" {
		u, err := url.Parse(dto.BaseURL)
		if err != nil {
			return Config{}, fmt.Errorf("%w: baseUrl: %s", ErrInvalidConfig, err.Error())
		}
		cfg.baseURL = *u
	}

	// For the rest, only override if a non-zero value is provided
	if dto.MaxPages != 0 {
		cfg.maxPages = dto.MaxPages
	}
	if dto.EntityConcurrency != 0 {
		cfg.entityConcurrency = dto.EntityConcurrency
	}
	if dto.TargetConcurrency != 0 {
		cfg.targetConcurrency = dto.TargetConcurrency
	}
	if dto.EntitySelector != "" {
		cfg.entitySelector = dto.EntitySelector
	}
	if dto.TargetSelector != "" {
		cfg.targetSelector = dto.TargetSelector
	}
	if dto.IframeSelector != "" {
		cfg.iframeSelector = dto.IframeSelector
	}
	if dto.VideoSelector != "" {
		cfg.videoSelector = dto.VideoSelector
	}
	if dto.MaxAttempts != 0 {
		cfg.maxAttempts = dto.MaxAttempts
	}
	if dto.RetryDelay != 0 {
		cfg.retryDelay = dto.RetryDelay
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	// Zero is meaningful here (no politeness delay), so always take the DTO value
	cfg.baseDelay = dto.BaseDelay
	if len(dto.HostDelays) > 0 {
		cfg.hostDelays = dto.HostDelays
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	cfg.cookie = dto.Cookie
	if len(dto.Headers) > 0 {
		cfg.headers = dto.Headers
	}
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}
	if dto.DownloadDir != "" {
		cfg.downloadDir = dto.DownloadDir
	}
	if dto.FFmpegPath != "" {
		cfg.ffmpegPath = dto.FFmpegPath
	}
	if dto.HashAlgo != "" {
		cfg.hashAlgo = hashutil.HashAlgo(dto.HashAlgo)
	}
	cfg.debug = dto.Debug

	return cfg.Build()
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config with default values for every field.
// The listing URL has no sensible default and stays empty; Build accepts
// that so the download command can run without one.
func WithDefault() *Config {
	defaultConfig := Config{
		maxPages:          11,
		entityConcurrency: 5,
		targetConcurrency: 20,
		entitySelector:    extractor.DefaultEntitySelector,
		targetSelector:    extractor.DefaultTargetSelector,
		iframeSelector:    extractor.DefaultIframeSelector,
		videoSelector:     extractor.DefaultVideoSelector,
		maxAttempts:       3,
		retryDelay:        time.Second,
		timeout:           30 * time.Second,
		baseDelay:         0,
		hostDelays:        map[string]time.Duration{},
		userAgent:         "Mozilla/5.0 (X11; Linux x86_64; rv:138.0) Gecko/20100101 Firefox/138.0",
		headers:           map[string]string{},
		outputDir:         "links",
		downloadDir:       "downloads",
		ffmpegPath:        "ffmpeg",
		hashAlgo:          hashutil.HashAlgoBLAKE3,
		debug:             false,
	}
	return &defaultConfig
}

func (c *Config) WithListingURLTemplate(template string) *Config {
	c.listingURLTemplate = template
	return c
}

func (c *Config) WithBaseURL(baseURL url.URL) *Config {
	c.baseURL = baseURL
	return c
}

func (c *Config) WithMaxPages(pages int) *Config {
	c.maxPages = pages
	return c
}

func (c *Config) WithEntityConcurrency(concurrency int) *Config {
	c.entityConcurrency = concurrency
	return c
}

func (c *Config) WithTargetConcurrency(concurrency int) *Config {
	c.targetConcurrency = concurrency
	return c
}

func (c *Config) WithEntitySelector(selector string) *Config {
	c.entitySelector = selector
	return c
}

func (c *Config) WithTargetSelector(selector string) *Config {
	c.targetSelector = selector
	return c
}

func (c *Config) WithIframeSelector(selector string) *Config {
	c.iframeSelector = selector
	return c
}

func (c *Config) WithVideoSelector(selector string) *Config {
	c.videoSelector = selector
	return c
}

func (c *Config) WithMaxAttempts(attempts int) *Config {
	c.maxAttempts = attempts
	return c
}

func (c *Config) WithRetryDelay(delay time.Duration) *Config {
	c.retryDelay = delay
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithHostDelays(delays map[string]time.Duration) *Config {
	c.hostDelays = delays
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithCookie(cookie string) *Config {
	c.cookie = cookie
	return c
}

func (c *Config) WithHeaders(headers map[string]string) *Config {
	c.headers = headers
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithDownloadDir(downloadDir string) *Config {
	c.downloadDir = downloadDir
	return c
}

func (c *Config) WithFFmpegPath(path string) *Config {
	c.ffmpegPath = path
	return c
}

func (c *Config) WithHashAlgo(algo hashutil.HashAlgo) *Config {
	c.hashAlgo = algo
	return c
}

func (c *Config) WithDebug(debug bool) *Config {
	c.debug = debug
	return c
}

func (c *Config) Build() (Config, error) {
	if c.listingURLTemplate != "" {
		if !strings.Contains(c.listingURLTemplate, listingPagePlaceholder) {
			return Config{}, fmt.Errorf("%w: listing URL must contain the %s page placeholder", ErrInvalidConfig, listingPagePlaceholder)
		}
		listingURL, err := url.Parse(strings.Replace(c.listingURLTemplate, listingPagePlaceholder, "1", 1))
		if err != nil || listingURL.Host == "" {
			return Config{}, fmt.Errorf("%w: listing URL %q is not absolute", ErrInvalidConfig, c.listingURLTemplate)
		}
		// If baseURL is empty, default to the listing URL origin
		if c.baseURL.Host == "" {
			c.baseURL = url.URL{Scheme: listingURL.Scheme, Host: listingURL.Host}
		}
	}
	if c.maxPages <= 0 {
		return Config{}, fmt.Errorf("%w: maxPages must be positive", ErrInvalidConfig)
	}
	if c.entityConcurrency <= 0 || c.targetConcurrency <= 0 {
		return Config{}, fmt.Errorf("%w: concurrency must be positive", ErrInvalidConfig)
	}
	if c.maxAttempts <= 0 {
		return Config{}, fmt.Errorf("%w: maxAttempts must be positive", ErrInvalidConfig)
	}
	if c.retryDelay < 0 || c.timeout < 0 || c.baseDelay < 0 {
		return Config{}, fmt.Errorf("%w: durations cannot be negative", ErrInvalidConfig)
	}
	for host, delay := range c.hostDelays {
		if host == "" || delay < 0 {
			return Config{}, fmt.Errorf("%w: invalid host delay %q=%v", ErrInvalidConfig, host, delay)
		}
	}
	switch c.hashAlgo {
	case hashutil.HashAlgoBLAKE3, hashutil.HashAlgoSHA256:
	default:
		return Config{}, fmt.Errorf("%w: unsupported hash algorithm %q", ErrInvalidConfig, c.hashAlgo)
	}
	if c.headers == nil {
		c.headers = map[string]string{}
	}
	if c.hostDelays == nil {
		c.hostDelays = map[string]time.Duration{}
	}

	return *c, nil
}

func (c Config) ListingURLTemplate() string {
	return c.listingURLTemplate
}

func (c Config) BaseURL() url.URL {
	return c.baseURL
}

func (c Config) MaxPages() int {
	return c.maxPages
}

func (c Config) EntityConcurrency() int {
	return c.entityConcurrency
}

func (c Config) TargetConcurrency() int {
	return c.targetConcurrency
}

func (c Config) EntitySelector() string {
	return c.entitySelector
}

func (c Config) TargetSelector() string {
	return c.targetSelector
}

func (c Config) IframeSelector() string {
	return c.iframeSelector
}

func (c Config) VideoSelector() string {
	return c.videoSelector
}

func (c Config) MaxAttempts() int {
	return c.maxAttempts
}

func (c Config) RetryDelay() time.Duration {
	return c.retryDelay
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) HostDelays() map[string]time.Duration {
	delays := make(map[string]time.Duration, len(c.hostDelays))
	for k, v := range c.hostDelays {
		delays[k] = v
	}
	return delays
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) Cookie() string {
	return c.cookie
}

func (c Config) Headers() map[string]string {
	headers := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		headers[k] = v
	}
	return headers
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) DownloadDir() string {
	return c.downloadDir
}

func (c Config) FFmpegPath() string {
	return c.ffmpegPath
}

func (c Config) HashAlgo() hashutil.HashAlgo {
	return c.hashAlgo
}

func (c Config) Debug() bool {
	return c.debug
}
