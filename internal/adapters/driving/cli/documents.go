package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

var documentsCmd = &cobra.Command{
	Use:   "documents [doc-id]",
	Short: "List indexed documents or show one",
	Long: `Without arguments, lists every document in the registry with its
indexing status. With a document ID, shows that document's details,
including the failure reason if indexing did not succeed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDocuments,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, args []string) error {
	if adminService == nil {
		return errors.New("admin service not configured")
	}

	ctx := context.Background()
	if len(args) == 1 {
		return showDocument(ctx, cmd, args[0])
	}
	return listDocuments(ctx, cmd)
}

func listDocuments(ctx context.Context, cmd *cobra.Command) error {
	docs, err := adminService.Documents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		doc := docs[i]
		cmd.Printf("  %s [%s]\n", doc.ID, doc.Status)
		if doc.Title != "" {
			cmd.Printf("    Title:  %s\n", doc.Title)
		}
		if doc.Status == domain.StatusIndexed {
			cmd.Printf("    Chunks: %d\n", doc.ChunkCount)
		}
		if doc.Failure != "" {
			cmd.Printf("    Failure: %s\n", doc.Failure)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func showDocument(ctx context.Context, cmd *cobra.Command, docID string) error {
	doc, err := adminService.Document(ctx, docID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document not found: %s", docID)
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  Status:   %s\n", doc.Status)
	if doc.SourceURL != "" {
		cmd.Printf("  URL:      %s\n", doc.SourceURL)
	}
	if doc.Category != "" {
		cmd.Printf("  Category: %s\n", doc.Category)
	}
	if len(doc.Tags) > 0 {
		cmd.Printf("  Tags:     %s\n", strings.Join(doc.Tags, ", "))
	}
	cmd.Printf("  Chunks:   %d\n", doc.ChunkCount)
	if doc.Failure != "" {
		cmd.Printf("  Failure:  %s\n", doc.Failure)
	}
	if !doc.CreatedAt.IsZero() {
		cmd.Printf("  Created:  %s\n", doc.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if !doc.LastIndexed.IsZero() {
		cmd.Printf("  Indexed:  %s\n", doc.LastIndexed.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}
