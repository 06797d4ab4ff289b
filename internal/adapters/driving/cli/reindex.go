package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-index the whole corpus directory",
	Long: `Walks the corpus directory and indexes every supported file,
superseding what was indexed before. Documents whose files have
disappeared are pruned. One failing document does not abort the pass.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	if reindexService == nil {
		return errors.New("reindex not configured: set corpus.dir and an embedding provider in the config")
	}

	ctx := context.Background()
	cmd.Println("Reindexing corpus...")

	if err := reindexService.Reindex(ctx); err != nil {
		if errors.Is(err, domain.ErrReindexRunning) {
			cmd.Println("A reindex pass is already running.")
			return nil
		}
		return fmt.Errorf("reindex failed: %w", err)
	}

	cmd.Println("Reindex complete.")

	// Outcome summary, best effort: per-document failures live in the
	// registry, visible via 'ansa documents'.
	if adminService != nil {
		if stats, err := adminService.Status(ctx); err == nil {
			cmd.Printf("%d documents, %d vectors indexed.\n", stats.DocumentCount, stats.VectorCount)
		}
	}
	return nil
}
