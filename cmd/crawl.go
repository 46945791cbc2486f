package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/litscout/litscout/internal/crawler"
)

func newCrawlCmd() *cobra.Command {
	var maxPages int

	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a book page and print the extracted records",
		Long: `Runs the crawler against a single seed URL without any LLM calls
and prints the extracted page records as YAML. Useful for checking
what a platform page yields before analyzing it.`,
		Example: `  litscout crawl https://example.com/book/42
  litscout crawl --max-pages 3 https://example.com/book/42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := crawler.New().Crawl(cmd.Context(), args[0], maxPages)
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(pages)
			if err != nil {
				return fmt.Errorf("failed to marshal records: %w", err)
			}
			fmt.Print(string(out))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", crawler.DefaultMaxPages, "Maximum number of same-prefix pages to visit")

	return cmd
}
