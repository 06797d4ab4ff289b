// Package cli implements the cobra command tree for the ansa binary.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/ansa/internal/adapters/driven/config/file"
	misslogfile "github.com/custodia-labs/ansa/internal/adapters/driven/misslog/file"
	"github.com/custodia-labs/ansa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ansa/internal/chunker"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/core/services"
	"github.com/custodia-labs/ansa/internal/corpus"
	"github.com/custodia-labs/ansa/internal/logger"
)

// version is stamped at build time; Execute overrides the default.
var version = "dev"

// Global flags.
var (
	cfgDir  string
	verbose bool
)

// corpusReindexer is the synchronous corpus pass behind 'ansa reindex'.
// Satisfied by *services.Indexer.
type corpusReindexer interface {
	Reindex(ctx context.Context) error
}

// Services wired by initServices and consumed by the commands. Any of
// them may be nil when the configuration does not support it; each
// command checks what it needs. Tests install mocks directly.
var (
	queryService    driving.QueryService
	indexService    driving.IndexService
	adminService    driving.AdminService
	settingsService driving.SettingsService
	reindexService  corpusReindexer
	corpusLoader    *corpus.Loader
	modelServices   *ai.Result
)

var (
	servicesReady bool
	closers       []io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "ansa",
	Short: "Grounded question answering over a local document corpus",
	Long: `Ansa indexes a directory of documentation and answers questions
strictly from what it has indexed, citing the source documents.
Questions the corpus cannot answer confidently get reading suggestions
and rephrase proposals instead of a fabricated answer.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if skipServiceInit(cmd) {
			return nil
		}
		return initServices()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default ~/.ansa)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging to stderr")
}

// Execute runs the root command. v is the build version.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	defer closeServices()
	return rootCmd.Execute()
}

// skipServiceInit reports whether the command works without the
// service stack, so it never touches config or storage.
func skipServiceInit(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "completion":
			return true
		}
	}
	return false
}

// initServices builds the adapter stack and the core services once per
// process. Model providers left unconfigured disable the services that
// need them rather than failing the whole command; the commands report
// what is missing.
func initServices() error {
	if servicesReady {
		return nil
	}

	cfg, err := configfile.NewConfigStore(cfgDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	prompts, err := configfile.NewPromptStore(cfgDir)
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.dir"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	closers = append(closers, store)
	registry := store.RegistryStore()
	vectors := store.VectorIndex()

	settingsService = services.NewSettings(cfg)
	adminService = services.NewAdmin(registry, vectors, settingsService)

	models, err := ai.Build(cfg)
	if err != nil {
		return fmt.Errorf("build model services: %w", err)
	}
	closers = append(closers, models)
	modelServices = models
	for _, warning := range models.Warnings {
		logger.Warn("%s", warning)
	}

	// The corpus directory is optional: without it, documents arrive
	// only through 'ansa index' and the API.
	var source driven.CorpusSource
	if dir := cfg.GetString("corpus.dir"); dir != "" {
		corpusLoader = corpus.NewLoader(dir, corpus.WithExtensions(cfg.GetStringSlice("corpus.extensions")))
		source = corpusLoader
	}

	if models.Embedding != nil {
		var chunkOpts []chunker.Option
		if size := cfg.GetInt("chunker.size"); size > 0 {
			chunkOpts = append(chunkOpts, chunker.WithChunkSize(size))
		}
		if overlap := cfg.GetInt("chunker.overlap"); overlap > 0 {
			chunkOpts = append(chunkOpts, chunker.WithOverlap(overlap))
		}
		indexer := services.NewIndexer(chunker.New(chunkOpts...), models.Embedding, vectors, registry, source)
		indexService = indexer
		reindexService = indexer
	}

	if models.Embedding != nil && models.Generation != nil {
		misses, err := misslogfile.NewMissLog(cfg.GetString("storage.dir"))
		if err != nil {
			return fmt.Errorf("open miss log: %w", err)
		}
		closers = append(closers, misses)

		retriever := services.NewRetriever(models.Embedding, vectors, settingsService)
		composer := services.NewComposer(models.Generation, prompts, misses, settingsService)
		queryService = services.NewQueryService(retriever, composer)
	}

	servicesReady = true
	return nil
}

// closeServices releases adapter resources in reverse construction
// order.
func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Warn("Close failed: %v", err)
		}
	}
	closers = nil
	servicesReady = false
}
