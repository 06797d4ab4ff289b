package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index health",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if adminService == nil {
		return errors.New("admin service not configured")
	}

	ctx := context.Background()
	stats, err := adminService.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	lastIndexed := "never"
	if !stats.LastIndexed.IsZero() {
		lastIndexed = stats.LastIndexed.Local().Format(time.RFC1123)
	}

	cmd.Println("Index Status")
	cmd.Println("============")
	cmd.Printf("  Documents:    %d\n", stats.DocumentCount)
	cmd.Printf("  Vectors:      %d\n", stats.VectorCount)
	cmd.Printf("  Last indexed: %s\n", lastIndexed)
	cmd.Printf("  Threshold:    %.2f\n", stats.Threshold)
	cmd.Printf("  Top-k:        %d\n", stats.TopK)
	return nil
}
