package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
)

// historyService is set by tests; otherwise the store comes from history.dsn.
var historyService driving.HistoryService

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently asked questions",
	Long: `Show questions recorded by the pipeline, newest first.

History is recorded only when history.dsn is set:
  docqa settings set history.dsn sqlite                      # ~/.docqa/history.db
  docqa settings set history.dsn postgres://user@host/docqa`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", services.DefaultHistoryLimit, "maximum number of records")
	historyCmd.Flags().StringP("output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(historyCmd)
}

// historyEntry is the json/yaml form of a record.
type historyEntry struct {
	ID         string    `json:"id" yaml:"id"`
	Question   string    `json:"question" yaml:"question"`
	Answer     string    `json:"answer" yaml:"answer"`
	Outcome    string    `json:"outcome" yaml:"outcome"`
	Reason     string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Sources    []string  `json:"sources" yaml:"sources"`
	AskedAt    time.Time `json:"asked_at" yaml:"asked_at"`
	DurationMS int64     `json:"duration_ms" yaml:"duration_ms"`
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")      //nolint:errcheck // flag defined in init
	output, _ := cmd.Flags().GetString("output") //nolint:errcheck // flag defined in init

	svc, closeFn, err := openHistory(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	records, err := svc.Recent(cmd.Context(), limit)
	if errors.Is(err, domain.ErrHistoryDisabled) {
		cmd.Println("History is disabled. Set history.dsn to record questions.")
		return nil
	}
	if err != nil {
		return err
	}

	return writeHistory(cmd.OutOrStdout(), output, records)
}

// openHistory returns the history service and a function releasing its store.
func openHistory(ctx context.Context) (driving.HistoryService, func(), error) {
	if historyService != nil {
		return historyService, func() {}, nil
	}
	if settingsService == nil {
		return nil, nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	store, err := storage.NewHistoryStore(ctx, settings.History.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	if store == nil {
		return services.NewHistoryService(nil), func() {}, nil
	}
	return services.NewHistoryService(store), func() { _ = store.Close() }, nil
}

func writeHistory(w io.Writer, format string, records []domain.HistoryRecord) error {
	entries := make([]historyEntry, len(records))
	for i, r := range records {
		entries[i] = historyEntry{
			ID:         r.ID,
			Question:   r.Question,
			Answer:     r.Answer,
			Outcome:    r.Outcome.String(),
			Reason:     r.Reason,
			Sources:    r.Sources,
			AskedAt:    r.AskedAt,
			DurationMS: r.Duration.Milliseconds(),
		}
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(entries)
	case "table", "":
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, "No questions recorded yet.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ASKED\tOUTCOME\tQUESTION\tANSWER")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				e.AskedAt.Local().Format("2006-01-02 15:04"), e.Outcome, clip(e.Question, 40), clip(e.Answer, 60))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("%w: unknown output format %q", domain.ErrInvalidInput, format)
	}
}

// clip shortens s to at most n runes on one line.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
