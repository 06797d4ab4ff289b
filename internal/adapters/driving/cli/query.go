package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

var (
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question answered from the indexed corpus",
	Long: `Answers a natural-language question strictly from the indexed corpus.
A confident answer cites the documents it came from. When no indexed
passage clears the similarity threshold, ansa returns reading
suggestions and rephrase proposals instead of inventing an answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "passages to retrieve (0 = configured default)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := args[0]

	if queryService == nil {
		return errors.New("query service not configured: set embedding and generation providers in the config")
	}

	ctx := context.Background()
	result, err := queryService.Query(ctx, question, queryTopK)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, result)
	}
	return outputQueryText(cmd, result)
}

// queryResultJSON is the wire shape for --json output. The answer key
// is always present: null says "no confident answer" in a way scripts
// can test without string matching.
type queryResultJSON struct {
	Answer      *string          `json:"answer"`
	Sources     []sourceJSON     `json:"sources"`
	Suggestions []suggestionJSON `json:"suggestions,omitempty"`
	Rephrases   []string         `json:"rephrases,omitempty"`
	Redirect    string           `json:"redirect,omitempty"`
	TopScore    float64          `json:"top_score"`
	Threshold   float64          `json:"threshold"`
	Strict      bool             `json:"strict"`
}

type sourceJSON struct {
	DocID     string  `json:"doc_id"`
	Title     string  `json:"title"`
	SourceURL string  `json:"source_url,omitempty"`
	Score     float64 `json:"score"`
}

type suggestionJSON struct {
	Title     string  `json:"title"`
	SourceURL string  `json:"source_url,omitempty"`
	Snippet   string  `json:"snippet,omitempty"`
	Score     float64 `json:"score"`
}

func outputQueryJSON(cmd *cobra.Command, result domain.QueryResult) error {
	out := queryResultJSON{
		Answer:    result.Answer,
		Sources:   make([]sourceJSON, 0, len(result.Sources)),
		Rephrases: result.Rephrases,
		Redirect:  result.Redirect,
		TopScore:  result.TopScore,
		Threshold: result.Threshold,
		Strict:    result.Strict,
	}
	for _, s := range result.Sources {
		out.Sources = append(out.Sources, sourceJSON{
			DocID:     s.DocID,
			Title:     s.Title,
			SourceURL: s.SourceURL,
			Score:     s.Score,
		})
	}
	for _, s := range result.Suggestions {
		out.Suggestions = append(out.Suggestions, suggestionJSON{
			Title:     s.Title,
			SourceURL: s.SourceURL,
			Snippet:   s.Snippet,
			Score:     s.Score,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, result domain.QueryResult) error {
	if result.Answered() {
		cmd.Println(*result.Answer)
		cmd.Println()
		cmd.Printf("(top score %.2f, threshold %.2f)\n", result.TopScore, result.Threshold)
		return nil
	}

	if result.Redirect != "" {
		cmd.Println(result.Redirect)
		return nil
	}

	cmd.Println("No confident answer found.")

	if len(result.Suggestions) > 0 {
		cmd.Println()
		cmd.Println("Worth reading:")
		for i := range result.Suggestions {
			s := result.Suggestions[i]
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, s.Title, s.Score)
			if s.SourceURL != "" {
				cmd.Printf("      %s\n", s.SourceURL)
			}
			if s.Snippet != "" {
				cmd.Printf("      %s\n", s.Snippet)
			}
		}
	}

	if len(result.Rephrases) > 0 {
		cmd.Println()
		cmd.Println("Try rephrasing:")
		for _, r := range result.Rephrases {
			cmd.Printf("  - %s\n", r)
		}
	}

	return nil
}
