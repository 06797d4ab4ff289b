package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/corpus"
)

var (
	indexDocID    string
	indexTitle    string
	indexURL      string
	indexCategory string
	indexTags     []string
	indexStdin    bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a document so it becomes retrievable",
	Long: `Chunks, embeds and stores a document in the index.

With a file path, indexes that file; front matter supplies the
metadata unless overridden by flags. With a directory, indexes every
supported file under it. With --stdin, reads the document text from
standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexDocID, "id", "", "document ID (default: derived from the path)")
	indexCmd.Flags().StringVar(&indexTitle, "title", "", "document title")
	indexCmd.Flags().StringVar(&indexURL, "url", "", "source URL recorded for citations")
	indexCmd.Flags().StringVar(&indexCategory, "category", "", "document category")
	indexCmd.Flags().StringSliceVar(&indexTags, "tags", nil, "document tags")
	indexCmd.Flags().BoolVar(&indexStdin, "stdin", false, "read document text from standard input")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured: set an embedding provider in the config")
	}
	if indexStdin == (len(args) == 1) {
		return errors.New("provide either a path or --stdin")
	}

	ctx := context.Background()

	if indexStdin {
		return indexFromStdin(ctx, cmd)
	}
	return indexFromPath(ctx, cmd, args[0])
}

// indexFromStdin reads the whole of stdin as one document. Without
// --id the document gets a generated ID, printed in the receipt.
func indexFromStdin(ctx context.Context, cmd *cobra.Command) error {
	text, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	docID := indexDocID
	if docID == "" {
		docID = uuid.NewString()
	}
	title := indexTitle
	if title == "" {
		title = docID
	}

	receipt, err := indexService.Index(ctx, domain.Submission{
		DocID:     docID,
		Title:     title,
		SourceURL: indexURL,
		Category:  indexCategory,
		Tags:      indexTags,
		Text:      string(text),
	})
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	printReceipt(cmd, receipt)
	return nil
}

// indexFromPath indexes one file, or every supported file under a
// directory. Failed documents are reported per receipt; only
// infrastructure errors abort the walk.
func indexFromPath(ctx context.Context, cmd *cobra.Command, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		loader := corpus.NewLoader(path)
		subs, err := loader.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("load corpus: %w", err)
		}
		if len(subs) == 0 {
			cmd.Printf("No supported files under %s.\n", path)
			return nil
		}
		for _, sub := range subs {
			receipt, err := indexService.Index(ctx, sub)
			if err != nil {
				return fmt.Errorf("index %s: %w", sub.DocID, err)
			}
			printReceipt(cmd, receipt)
		}
		return nil
	}

	// A single file is loaded relative to its own directory so the
	// derived document ID stays short.
	loader := corpus.NewLoader(filepath.Dir(path), corpus.WithExtensions([]string{filepath.Ext(path)}))
	sub, err := loader.LoadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	applyOverrides(&sub)

	receipt, err := indexService.Index(ctx, sub)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	printReceipt(cmd, receipt)
	return nil
}

// applyOverrides lets flags win over front matter and derived values.
func applyOverrides(sub *domain.Submission) {
	if indexDocID != "" {
		sub.DocID = indexDocID
	}
	if indexTitle != "" {
		sub.Title = indexTitle
	}
	if indexURL != "" {
		sub.SourceURL = indexURL
	}
	if indexCategory != "" {
		sub.Category = indexCategory
	}
	if len(indexTags) > 0 {
		sub.Tags = indexTags
	}
}

func printReceipt(cmd *cobra.Command, receipt domain.Receipt) {
	switch receipt.Status {
	case domain.StatusIndexed:
		cmd.Printf("Indexed %s (%d chunks)\n", receipt.DocID, receipt.ChunkCount)
	default:
		reason := receipt.Reason
		if reason == "" {
			reason = strings.ToLower(receipt.Status.String())
		}
		cmd.Printf("Failed %s: %s\n", receipt.DocID, reason)
	}
}
