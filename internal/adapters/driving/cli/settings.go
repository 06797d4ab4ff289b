package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	settingsThreshold    float64
	settingsTopK         int
	settingsRefusalFloor float64
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage retrieval settings",
	Long: `View and tune the retrieval knobs: the similarity threshold that
separates confident answers from suggestions, the retrieval depth, and
the refusal floor below which questions are redirected as off-domain.`,
	RunE: runSettingsGet,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show current retrieval settings",
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update retrieval settings",
	Long: `Updates one or more retrieval settings and persists them to the
config file. Values must satisfy 0 <= refusal-floor <= threshold <= 1
and top-k >= 1.`,
	RunE: runSettingsSet,
}

func init() {
	settingsSetCmd.Flags().Float64Var(&settingsThreshold, "threshold", -1, "similarity threshold for a confident answer (0..1)")
	settingsSetCmd.Flags().IntVar(&settingsTopK, "top-k", 0, "passages retrieved per query")
	settingsSetCmd.Flags().Float64Var(&settingsRefusalFloor, "refusal-floor", -1, "score below which a question is off-domain")

	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsGet(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Println("Retrieval Settings")
	cmd.Println("==================")
	cmd.Printf("  Threshold:     %.2f\n", settings.Threshold)
	cmd.Printf("  Top-k:         %d\n", settings.TopK)
	cmd.Printf("  Refusal floor: %.2f\n", settings.RefusalFloor)
	return nil
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if !cmd.Flags().Changed("threshold") && !cmd.Flags().Changed("top-k") && !cmd.Flags().Changed("refusal-floor") {
		return errors.New("nothing to set: pass --threshold, --top-k or --refusal-floor")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if cmd.Flags().Changed("threshold") {
		settings.Threshold = settingsThreshold
	}
	if cmd.Flags().Changed("top-k") {
		settings.TopK = settingsTopK
	}
	if cmd.Flags().Changed("refusal-floor") {
		settings.RefusalFloor = settingsRefusalFloor
	}

	if err := settingsService.Update(settings); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	cmd.Println("Settings updated.")
	return runSettingsGet(cmd, nil)
}
