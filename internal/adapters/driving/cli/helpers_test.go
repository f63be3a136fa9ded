package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/services"
)

// --- Mock implementations ---

// mockPipeline implements driving.QueryPipeline for testing.
type mockPipeline struct {
	stats     domain.IndexStats
	buildErr  error
	answer    domain.Answer
	questions []string
	closed    bool
}

func (m *mockPipeline) Build(context.Context) (domain.IndexStats, error) {
	return m.stats, m.buildErr
}

func (m *mockPipeline) Rebuild(context.Context) (domain.IndexStats, error) {
	return m.stats, m.buildErr
}

func (m *mockPipeline) Ask(_ context.Context, question string) domain.Answer {
	m.questions = append(m.questions, question)
	a := m.answer
	a.Question = question
	return a
}

func (m *mockPipeline) Ready() bool                      { return m.buildErr == nil }
func (m *mockPipeline) Stats() (domain.IndexStats, bool) { return m.stats, m.buildErr == nil }

func (m *mockPipeline) Close() error {
	m.closed = true
	return nil
}

// mockHistoryService implements driving.HistoryService for testing.
type mockHistoryService struct {
	records []domain.HistoryRecord
	err     error
	limit   int
}

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.HistoryRecord, error) {
	m.limit = limit
	return m.records, m.err
}

// --- Helpers ---

// useMemorySettings installs a settings service over an in-memory store
// and a temporary config directory for the duration of the test.
func useMemorySettings(t *testing.T) {
	t.Helper()
	prevSettings, prevDir := settingsService, configDir
	settingsService = services.NewSettingsService(memory.NewConfigStore(), nil)
	configDir = t.TempDir()
	t.Cleanup(func() {
		settingsService = prevSettings
		configDir = prevDir
	})
}

// useRuntime replaces runtime assembly with the given pipeline.
func useRuntime(t *testing.T, pipeline *mockPipeline) {
	t.Helper()
	useMemorySettings(t)
	prev := newRuntime
	newRuntime = func(context.Context, func(domain.BuildProgress)) (*appRuntime, error) {
		settings := domain.DefaultAppSettings()
		return &appRuntime{
			Settings: &settings,
			Pipeline: pipeline,
			History:  services.NewHistoryService(nil),
		}, nil
	}
	t.Cleanup(func() { newRuntime = prev })
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag to its default so tests do not leak
// values into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeCorpus creates a corpus directory holding files.
func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

// useOfflineBackends selects the in-process embedder and answerer.
func useOfflineBackends(t *testing.T) {
	t.Helper()
	require.NoError(t, settingsService.SetEmbeddingProvider(domain.AIProviderTFIDF, "", ""))
	require.NoError(t, settingsService.SetLLMProvider(domain.AIProviderExtractive, "", ""))
}
