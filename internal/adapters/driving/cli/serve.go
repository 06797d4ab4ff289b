package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/ansa/internal/corpus"
	"github.com/custodia-labs/ansa/internal/logger"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts the HTTP API server. With --watch, corpus files are
re-indexed automatically as they change on disk.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "re-index corpus files when they change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server := httpapi.NewServer(&httpapi.Ports{
		Query: queryService,
		Index: indexService,
		Admin: adminService,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Probe the model services now so a bad credential surfaces at
	// startup, not on the first request.
	if modelServices != nil {
		if err := modelServices.Ping(ctx); err != nil {
			logger.Warn("%v", err)
		}
	}

	if serveWatch {
		if corpusLoader == nil || indexService == nil {
			return errors.New("--watch needs corpus.dir and an embedding provider in the config")
		}
		watcher := corpus.NewWatcher(corpusLoader, indexService)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Warn("Corpus watcher stopped: %v", err)
			}
		}()
	}

	cmd.Printf("Ansa API listening on %s\n", serveAddr)
	return server.Serve(ctx, serveAddr)
}
