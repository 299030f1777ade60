package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rohmanhakim/stream-harvester/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	debug       bool
	userAgent   string
	cookie      string
	headers     []string
	maxAttempts int
	retryDelay  time.Duration
	timeout     time.Duration
	baseDelay   time.Duration
	hostDelays  []string
)

// parseHeaders converts repeated "Name: value" flags into a header map
func parseHeaders(raw []string) (map[string]string, error) {
	parsed := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", h)
		}
		parsed[name] = strings.TrimSpace(value)
	}
	return parsed, nil
}

// parseHostDelays converts repeated "host=duration" flags into a delay map
func parseHostDelays(raw []string) (map[string]time.Duration, error) {
	parsed := make(map[string]time.Duration, len(raw))
	for _, h := range raw {
		host, value, ok := strings.Cut(h, "=")
		host = strings.TrimSpace(host)
		if !ok || host == "" {
			return nil, fmt.Errorf("invalid host delay %q, expected \"host=duration\"", h)
		}
		delay, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid host delay %q: %w", h, err)
		}
		parsed[host] = delay
	}
	return parsed, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stream-harvester",
	Short: "Harvests listing pages and reassembles streamed media.",
	Long: `stream-harvester walks paginated listing pages, resolves every entity's
redirect targets into one link list per entity, and turns a single player page
into a local media file by resolving its HLS manifest chain, fetching the
segments in order and muxing them with ffmpeg.

Runs are idempotent: link lists are rewritten atomically and media that already
exists on disk is not downloaded again.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// Run executes the command tree with explicit arguments and streams.
func Run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log fetch, retry and progress events")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().StringVar(&cookie, "cookie", "", "cookie header sent with every request")
	rootCmd.PersistentFlags().StringArrayVar(&headers, "header", []string{}, "extra request header as \"Name: value\" (can be repeated)")
	rootCmd.PersistentFlags().IntVar(&maxAttempts, "max-attempts", 0, "attempts per request before giving up")
	rootCmd.PersistentFlags().DurationVar(&retryDelay, "retry-delay", 0, "fixed wait between attempts")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for a single HTTP attempt")
	rootCmd.PersistentFlags().DurationVar(&baseDelay, "base-delay", 0, "minimum delay between requests to the same host")
	rootCmd.PersistentFlags().StringArrayVar(&hostDelays, "host-delay", []string{}, "per-host delay as \"host=duration\" (can be repeated)")

	rootCmd.AddCommand(harvestCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(versionCmd)
}

// InitConfigWithError reads the config file when one is given, otherwise
// builds the config from defaults and the flags that were set.
func InitConfigWithError(out io.Writer) (config.Config, error) {
	if cfgFile != "" {
		fmt.Fprintf(out, "Initializing config from file: %s\n", cfgFile)
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	configBuilder := config.WithDefault()

	// Override with CLI flag values where provided
	if listingURL != "" {
		configBuilder = configBuilder.WithListingURLTemplate(listingURL)
	}

	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: base URL: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithBaseURL(*parsed)
	}

	if maxPages > 0 {
		configBuilder = configBuilder.WithMaxPages(maxPages)
	}

	if entityConcurrency > 0 {
		configBuilder = configBuilder.WithEntityConcurrency(entityConcurrency)
	}

	if targetConcurrency > 0 {
		configBuilder = configBuilder.WithTargetConcurrency(targetConcurrency)
	}

	if outputDir != "" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}

	if ffmpegPath != "" {
		configBuilder = configBuilder.WithFFmpegPath(ffmpegPath)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if cookie != "" {
		configBuilder = configBuilder.WithCookie(cookie)
	}

	if len(headers) > 0 {
		parsed, err := parseHeaders(headers)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithHeaders(parsed)
	}

	if maxAttempts > 0 {
		configBuilder = configBuilder.WithMaxAttempts(maxAttempts)
	}

	if retryDelay > 0 {
		configBuilder = configBuilder.WithRetryDelay(retryDelay)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if baseDelay > 0 {
		configBuilder = configBuilder.WithBaseDelay(baseDelay)
	}

	if len(hostDelays) > 0 {
		parsed, err := parseHostDelays(hostDelays)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithHostDelays(parsed)
	}

	if debug {
		configBuilder = configBuilder.WithDebug(debug)
	}

	return configBuilder.Build()
}

func ResetFlags() {
	cfgFile = ""
	debug = false
	userAgent = ""
	cookie = ""
	headers = []string{}
	maxAttempts = 0
	retryDelay = 0
	timeout = 0
	baseDelay = 0
	hostDelays = []string{}
	listingURL = ""
	baseURL = ""
	maxPages = 0
	entityConcurrency = 0
	targetConcurrency = 0
	outputDir = ""
	manifestURL = ""
	ffmpegPath = ""
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetDebugForTest(d bool) {
	debug = d
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetCookieForTest(c string) {
	cookie = c
}

func SetHeadersForTest(h []string) {
	headers = h
}

func SetMaxAttemptsForTest(attempts int) {
	maxAttempts = attempts
}

func SetRetryDelayForTest(delay time.Duration) {
	retryDelay = delay
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetBaseDelayForTest(delay time.Duration) {
	baseDelay = delay
}

func SetHostDelaysForTest(delays []string) {
	hostDelays = delays
}

func SetListingURLForTest(u string) {
	listingURL = u
}

func SetBaseURLForTest(u string) {
	baseURL = u
}

func SetMaxPagesForTest(pages int) {
	maxPages = pages
}

func SetEntityConcurrencyForTest(conc int) {
	entityConcurrency = conc
}

func SetTargetConcurrencyForTest(conc int) {
	targetConcurrency = conc
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}

func SetFFmpegPathForTest(path string) {
	ffmpegPath = path
}
