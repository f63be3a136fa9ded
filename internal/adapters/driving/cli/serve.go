package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/web"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question page",
	Long: `Build the index and serve a web page with a single question box.

The answer updates as you type. The page, a JSON API at /api/ask and
index statistics at /api/stats are served until interrupted.

With --watch the corpus directory is watched and the index is rebuilt
after files change. A failed rebuild keeps the previous index serving.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().Bool("watch", false, "rebuild the index when the corpus changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr") //nolint:errcheck // flag defined in init
	watch, _ := cmd.Flags().GetBool("watch") //nolint:errcheck // flag defined in init

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, stats, err := openRuntime(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	cmd.Printf("Indexed %d documents (%d chunks) from %s\n", stats.Documents, stats.Chunks, stats.CorpusDir)

	cfg := web.ConfigFromSettings(rt.Settings.Server)
	cfg.Fallback = rt.Settings.Pipeline.FallbackAnswer
	if addr != "" {
		cfg.Addr = addr
	}
	server, err := web.New(cfg, rt.Pipeline)
	if err != nil {
		return err
	}

	if watch {
		rebuilder := startRebuilder(ctx, cmd, rt)
		defer rebuilder.Stop() //nolint:errcheck // stopping on exit
	}

	if err := server.Start(); err != nil {
		return err
	}
	cmd.Printf("Serving on http://%s (Ctrl+C to stop)\n", server.Addr())

	<-ctx.Done()
	cmd.Println("Shutting down")
	return server.Stop()
}

// startRebuilder watches the corpus in the background until ctx ends.
func startRebuilder(ctx context.Context, cmd *cobra.Command, rt *appRuntime) *services.Rebuilder {
	rebuilder := services.NewRebuilder(rt.Source, rt.Pipeline, 0)
	rebuilder.OnRebuild = func(stats domain.IndexStats, err error) {
		if err == nil {
			cmd.Printf("Reindexed %d documents (%d chunks)\n", stats.Documents, stats.Chunks)
		}
	}
	go func() {
		if err := rebuilder.Start(ctx); err != nil {
			// Serving continues on the current index.
			logger.Error("watch corpus: %v", err)
		}
	}()
	return rebuilder
}
