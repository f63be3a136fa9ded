package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question about the corpus",
	Long: `Build the index from the corpus directory and answer a single question.

The build phase fails if a backend is missing or the corpus is empty.
Once built, problems while answering are reported and the fallback
answer is printed.

Examples:
  docqa ask "what does the cat eat?"
  docqa ask --sources "where is the dog at night?"
  docqa ask --json "what colour is the sky?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "print the answer as JSON")
	askCmd.Flags().Bool("sources", false, "list the chunks the answer was drawn from")
	rootCmd.AddCommand(askCmd)
}

// askOutput is the --json form of an answer.
type askOutput struct {
	Question   string         `json:"question"`
	Answer     string         `json:"answer"`
	Outcome    string         `json:"outcome"`
	Reason     string         `json:"reason,omitempty"`
	Sources    []sourceOutput `json:"sources"`
	DurationMS int64          `json:"duration_ms"`
}

type sourceOutput struct {
	Document   string  `json:"document"`
	Path       string  `json:"path"`
	Position   int     `json:"position"`
	Similarity float64 `json:"similarity"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")         //nolint:errcheck // flag defined in init
	showSources, _ := cmd.Flags().GetBool("sources") //nolint:errcheck // flag defined in init

	question := strings.Join(args, " ")

	rt, _, err := openRuntime(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	answer := rt.Pipeline.Ask(cmd.Context(), question)

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(newAskOutput(answer))
	}

	cmd.Println(answer.Display())
	if !answer.Answered() {
		cmd.PrintErrf("(%s: %s)\n", answer.Outcome.Description(), answer.ReasonString())
	}
	if showSources && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, s := range answer.Sources {
			cmd.Printf("  %d. %s (chunk %d, similarity %.3f)\n", i+1, sourceLabel(s), s.Chunk.Position, s.Similarity)
		}
	}
	return nil
}

func newAskOutput(a domain.Answer) askOutput {
	sources := make([]sourceOutput, len(a.Sources))
	for i, s := range a.Sources {
		sources[i] = sourceOutput{
			Document:   s.DocumentTitle,
			Path:       s.DocumentPath,
			Position:   s.Chunk.Position,
			Similarity: s.Similarity,
		}
	}
	return askOutput{
		Question:   a.Question,
		Answer:     a.Display(),
		Outcome:    a.Outcome.String(),
		Reason:     a.ReasonString(),
		Sources:    sources,
		DurationMS: a.Duration.Milliseconds(),
	}
}

func sourceLabel(s domain.RetrievedChunk) string {
	if s.DocumentPath != "" {
		return s.DocumentPath
	}
	if s.DocumentTitle != "" {
		return s.DocumentTitle
	}
	return fmt.Sprintf("document %s", s.Chunk.DocumentID)
}
