package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listingURL        string
	baseURL           string
	maxPages          int
	entityConcurrency int
	targetConcurrency int
	outputDir         string
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Walk listing pages and write one resolved link list per entity.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if cfg.ListingURLTemplate() == "" {
			return fmt.Errorf("--listing-url is required (e.g. https://site/list?page=%%d)")
		}

		h := newHarvester(cfg, cmd.ErrOrStderr())
		stats, err := h.Harvest(cmd.Context(), harvestParamsOf(cfg))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Pages: %d\n", stats.Pages)
		fmt.Fprintf(out, "Entities: %d\n", stats.Entities)
		fmt.Fprintf(out, "Targets resolved: %d/%d\n", stats.Resolved, stats.Targets)
		fmt.Fprintf(out, "Failures: %d\n", stats.Failures)
		for _, wr := range stats.WriteResults {
			fmt.Fprintf(out, "  %s\n", wr.Path())
		}
		return nil
	},
}

func init() {
	harvestCmd.Flags().StringVar(&listingURL, "listing-url", "", "listing URL with a %d page placeholder")
	harvestCmd.Flags().StringVar(&baseURL, "base-url", "", "base for relative links (defaults to the listing URL origin)")
	harvestCmd.Flags().IntVar(&maxPages, "max-pages", 0, "number of listing pages to walk")
	harvestCmd.Flags().IntVar(&entityConcurrency, "entity-concurrency", 0, "entities processed at once")
	harvestCmd.Flags().IntVar(&targetConcurrency, "target-concurrency", 0, "targets resolved at once per entity")
	harvestCmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for per-entity link lists")
}
