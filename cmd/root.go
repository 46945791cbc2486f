package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "litscout",
		Short: "Interactive literary book search with LLM-powered metadata extraction",
		Long: `Litscout crawls book-platform pages and uses a hosted LLM to extract
literary metadata: characters, conflicts, era, emotional elements,
adaptations, and a short review.

The web interface adds an in-depth query tab, a free discussion tab,
and per-book feedback collection. All state lives in memory for the
lifetime of the process.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCrawlCmd())

	return cmd
}
