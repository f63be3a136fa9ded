package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the index and report what was loaded",
	Long: `Load the corpus, chunk and embed it, and print index statistics.

Use this to check the corpus and backends before serving. Files that could
not be read are listed as skipped.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Bool("no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	noProgress, _ := cmd.Flags().GetBool("no-progress") //nolint:errcheck // flag defined in init

	var progress *buildProgressBar
	if !noProgress && isTerminal(cmd.ErrOrStderr()) {
		progress = newBuildProgressBar(cmd.ErrOrStderr())
	}

	rt, stats, err := openRuntime(cmd.Context(), progress.Update)
	progress.Finish()
	if err != nil {
		return err
	}
	defer rt.Close()

	printStats(cmd, stats)
	return nil
}

func printStats(cmd *cobra.Command, stats domain.IndexStats) {
	cmd.Printf("Corpus:     %s\n", stats.CorpusDir)
	cmd.Printf("Documents:  %d\n", stats.Documents)
	cmd.Printf("Chunks:     %d (%s)\n", stats.Chunks, stats.ChunkingStrategy)
	if stats.CachedEmbeddings > 0 {
		cmd.Printf("Cached:     %d embeddings\n", stats.CachedEmbeddings)
	}
	cmd.Printf("Embedding:  %s\n", stats.EmbeddingModel)
	cmd.Printf("Generation: %s\n", stats.GenerationModel)
	cmd.Printf("Index:      %s\n", stats.VectorBackend)
	cmd.Printf("Built in:   %s\n", stats.BuildDuration.Round(time.Millisecond))

	if len(stats.Skipped) > 0 {
		cmd.Printf("\nSkipped %d files:\n", len(stats.Skipped))
		for _, s := range stats.Skipped {
			cmd.Printf("  %s: %s\n", s.Path, s.Reason)
		}
	}
}

// buildProgressBar renders build progress, one bar per stage.
// A nil *buildProgressBar ignores updates.
type buildProgressBar struct {
	mu    sync.Mutex
	out   io.Writer
	stage domain.BuildStage
	bar   *progressbar.ProgressBar
}

func newBuildProgressBar(out io.Writer) *buildProgressBar {
	return &buildProgressBar{out: out}
}

// Update moves the bar for p's stage, starting a new bar on a stage change.
func (b *buildProgressBar) Update(p domain.BuildProgress) {
	if b == nil || p.Total <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil || b.stage != p.Stage {
		b.finish()
		b.stage = p.Stage
		b.bar = progressbar.NewOptions(p.Total,
			progressbar.OptionSetWriter(b.out),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%-6s[reset]", p.Stage)),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	_ = b.bar.Set(p.Done)
}

// Finish completes the current bar.
func (b *buildProgressBar) Finish() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.finish()
}

func (b *buildProgressBar) finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	fmt.Fprintln(b.out)
	b.bar = nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
