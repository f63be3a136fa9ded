package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"tui"},
	Short:   "Ask questions in an interactive terminal UI",
	Long: `Build the index and open a terminal chat for asking questions.

Controls:
  Enter     - Ask the question
  Tab       - Show or hide the sources of the last answer
  ↑/↓       - Recall earlier questions, or move through sources
  PgUp/PgDn - Scroll the transcript
  Ctrl+L    - Clear the transcript
  F1        - Toggle help
  Ctrl+C    - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	// Keep the stack trace visible after the alt screen is torn down.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	rt, stats, err := openRuntime(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	cmd.Printf("Indexed %d documents (%d chunks)\n", stats.Documents, stats.Chunks)

	ports := &tui.Ports{Pipeline: rt.Pipeline}
	if rt.Settings.History.Enabled() {
		ports.History = rt.History
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	p := tea.NewProgram(app.WithContext(cmd.Context()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
