package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	manifestURL string
	ffmpegPath  string
)

var downloadCmd = &cobra.Command{
	Use:   "download <page-url> [output-dir]",
	Short: "Resolve a player page to its stream and reassemble it into one file.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		pageURL, err := parseAbsoluteURL(args[0])
		if err != nil {
			return fmt.Errorf("page URL: %w", err)
		}
		outputBase := cfg.DownloadDir()
		if len(args) == 2 {
			outputBase = args[1]
		}

		var manifestOverride *url.URL
		if manifestURL != "" {
			parsed, err := parseAbsoluteURL(manifestURL)
			if err != nil {
				return fmt.Errorf("manifest URL: %w", err)
			}
			manifestOverride = &parsed
		}

		svc := newDownloadService(cfg, cmd.ErrOrStderr(), manifestOverride)
		result, dlErr := svc.Download(cmd.Context(), pageURL, outputBase)
		if dlErr != nil {
			return dlErr
		}

		if result.Skipped() {
			fmt.Fprintf(cmd.OutOrStdout(), "Already exists: %s\n", result.Path())
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d segments to %s\n", result.Segments(), result.Path())
		return nil
	},
}

func parseAbsoluteURL(raw string) (url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return url.URL{}, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return url.URL{}, fmt.Errorf("%q is not an absolute URL", raw)
	}
	return *parsed, nil
}

func init() {
	downloadCmd.Flags().StringVar(&manifestURL, "manifest-url", "", "use this manifest directly instead of scanning the page")
	downloadCmd.Flags().StringVar(&ffmpegPath, "ffmpeg", "", "ffmpeg binary (default \"ffmpeg\")")
}
