package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// recallLimit is how many earlier questions are loaded for recall.
const recallLimit = 50

// exchange is one question and, once it arrives, its answer.
type exchange struct {
	question string
	answer   domain.Answer
	pending  bool
}

// App is the chat TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input      *input.QuestionInput
	sources    *list.SourceList
	statusbar  *status.Bar
	transcript viewport.Model
	spinner    spinner.Model

	exchanges []exchange

	// seq numbers questions; only the answer to the latest one is accepted.
	seq    int
	asking bool

	// recall holds earlier questions, newest first. recallPos is -1 when
	// the input is not showing a recalled question.
	recall    []string
	recallPos int

	showSources bool
	showHelp    bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	a := &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		sources:    list.NewSourceList(s),
		statusbar:  status.NewBar(s, km),
		transcript: viewport.New(80, 16),
		spinner:    sp,
		recallPos:  -1,
	}
	a.SetDimensions(80, 24)
	return a, nil
}

// WithContext sets the context questions are asked with.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("docqa"),
		a.input.Init(),
		a.loadStats(),
	}
	if a.ports.History != nil {
		cmds = append(cmds, a.loadHistory())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.AnswerReceived:
		a.handleAnswer(msg)
		return a, nil

	case messages.StatsLoaded:
		if msg.Ready {
			a.statusbar.SetCorpus(msg.Stats.Documents, msg.Stats.Chunks)
		} else {
			a.statusbar.SetState(status.StateNotReady)
		}
		return a, nil

	case messages.HistoryLoaded:
		// History is a convenience; a failure only loses recall.
		if msg.Err == nil {
			a.recall = a.recall[:0]
			for _, r := range msg.Records {
				a.recall = append(a.recall, r.Question)
			}
		}
		return a, nil

	case messages.ErrorOccurred:
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return a, nil

	case spinner.TickMsg:
		if !a.asking {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.refreshTranscript()
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

//nolint:gocyclo // one branch per binding
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()

	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(k, a.keymap.Help):
		a.showHelp = !a.showHelp
		a.layout()
		return a, nil

	case keymap.Matches(k, a.keymap.Sources):
		a.toggleSources()
		return a, nil

	case keymap.Matches(k, a.keymap.Reset):
		a.exchanges = nil
		a.sources.SetSources(nil)
		a.showSources = false
		a.statusbar.Clear()
		a.layout()
		a.refreshTranscript()
		return a, nil

	case keymap.Matches(k, a.keymap.ScrollUp), keymap.Matches(k, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.transcript, cmd = a.transcript.Update(msg)
		return a, cmd

	case keymap.Matches(k, a.keymap.Up), keymap.Matches(k, a.keymap.Down):
		if a.showSources {
			a.sources, _ = a.sources.Update(msg)
			return a, nil
		}
		a.recallStep(keymap.Matches(k, a.keymap.Up))
		return a, nil

	case keymap.Matches(k, a.keymap.Clear):
		a.input.Reset()
		a.recallPos = -1
		return a, nil

	case keymap.Matches(k, a.keymap.Ask):
		return a, a.submit()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit asks the question in the input. Nothing happens while a previous
// question is being answered or the input is blank.
func (a *App) submit() tea.Cmd {
	question := a.input.Question()
	if question == "" || a.asking {
		return nil
	}

	a.seq++
	a.asking = true
	a.exchanges = append(a.exchanges, exchange{question: question, pending: true})
	a.input.Reset()
	a.recall = append([]string{question}, a.recall...)
	a.recallPos = -1
	a.statusbar.Clear()
	a.statusbar.SetState(status.StateAsking)
	a.refreshTranscript()

	return tea.Batch(a.ask(a.seq, question), a.spinner.Tick)
}

// ask runs the pipeline off the update loop.
func (a *App) ask(seq int, question string) tea.Cmd {
	ctx, pipeline := a.ctx, a.ports.Pipeline
	return func() tea.Msg {
		return messages.AnswerReceived{Seq: seq, Answer: pipeline.Ask(ctx, question)}
	}
}

func (a *App) handleAnswer(msg messages.AnswerReceived) {
	if msg.Seq != a.seq || len(a.exchanges) == 0 {
		return
	}
	a.asking = false

	last := &a.exchanges[len(a.exchanges)-1]
	last.answer = msg.Answer
	last.pending = false

	a.sources.SetSources(msg.Answer.Sources)
	a.statusbar.Clear()
	if !msg.Answer.Answered() {
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Answer.Outcome.Description())
	}
	if a.showSources && a.sources.Count() == 0 {
		a.showSources = false
		a.layout()
	}
	a.refreshTranscript()
}

func (a *App) toggleSources() {
	if !a.showSources && a.sources.Count() == 0 {
		return
	}
	a.showSources = !a.showSources
	if a.showSources {
		a.statusbar.SetState(status.StateSources)
	} else if a.statusbar.State() == status.StateSources {
		a.statusbar.SetState(status.StateReady)
	}
	a.layout()
}

// recallStep moves through earlier questions; older when up is true.
func (a *App) recallStep(up bool) {
	if len(a.recall) == 0 {
		return
	}
	pos := a.recallPos
	if up {
		pos++
	} else {
		pos--
	}
	switch {
	case pos >= len(a.recall):
		pos = len(a.recall) - 1
	case pos < 0:
		a.recallPos = -1
		a.input.Reset()
		return
	}
	a.recallPos = pos
	a.input.SetValue(a.recall[pos])
}

// View implements tea.Model.
func (a *App) View() string {
	parts := []string{
		a.styles.Title.Render("docqa") + a.styles.Muted.Render("  ask questions about your documents"),
		a.transcript.View(),
	}
	if a.showSources {
		parts = append(parts, a.styles.Border.Width(a.width-2).Render(a.sources.View()))
	}
	parts = append(parts, a.input.View())
	if a.showHelp {
		groups := a.keymap.FullHelp()
		lines := make([]string, len(groups))
		for i, g := range groups {
			lines[i] = status.HelpLine(g)
		}
		parts = append(parts, a.styles.Help.Render(strings.Join(lines, "   ")))
	}
	parts = append(parts, a.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetDimensions resizes every component.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.input.SetWidth(width)
	a.statusbar.SetWidth(width)
	a.layout()
}

// layout gives the transcript whatever height the other parts leave.
func (a *App) layout() {
	// Title, input box (3 lines) and status bar.
	used := 1 + 3 + 1
	if a.showHelp {
		used++
	}
	if a.showSources {
		panel := a.height / 3
		if panel < 6 {
			panel = 6
		}
		a.sources.SetDimensions(a.width-4, panel-2)
		used += panel
	}

	h := a.height - used
	if h < 3 {
		h = 3
	}
	a.transcript.Width = a.width
	a.transcript.Height = h
	a.refreshTranscript()
}

func (a *App) refreshTranscript() {
	a.transcript.SetContent(a.renderTranscript())
	a.transcript.GotoBottom()
}

func (a *App) renderTranscript() string {
	if len(a.exchanges) == 0 {
		return a.styles.Muted.Render("Type a question and press enter.")
	}

	wrap := a.width - 4
	if wrap < 20 {
		wrap = 20
	}

	var b strings.Builder
	for i, ex := range a.exchanges {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(a.styles.Question.Render("> " + ex.question))
		b.WriteString("\n")
		switch {
		case ex.pending:
			b.WriteString(a.styles.Muted.PaddingLeft(2).Render(a.spinner.View() + " thinking"))
		case ex.answer.Answered():
			b.WriteString(a.styles.Answer.Width(wrap).Render(ex.answer.Display()))
		default:
			b.WriteString(a.styles.Fallback.Width(wrap).Render(ex.answer.Display()))
		}
	}
	return b.String()
}

// loadStats reads the index statistics for the status bar.
func (a *App) loadStats() tea.Cmd {
	pipeline := a.ports.Pipeline
	return func() tea.Msg {
		stats, ok := pipeline.Stats()
		return messages.StatsLoaded{Stats: stats, Ready: ok}
	}
}

// loadHistory reads earlier questions for recall.
func (a *App) loadHistory() tea.Cmd {
	ctx, history := a.ctx, a.ports.History
	return func() tea.Msg {
		records, err := history.Recent(ctx, recallLimit)
		if errors.Is(err, domain.ErrHistoryDisabled) {
			err = nil
		}
		return messages.HistoryLoaded{Records: records, Err: err}
	}
}

// Accessors, mainly for tests.

// Ready reports whether a window size has been received.
func (a *App) Ready() bool { return a.ready }

// Asking reports whether a question is being answered.
func (a *App) Asking() bool { return a.asking }

// Question returns the text in the input.
func (a *App) Question() string { return a.input.Value() }

// ShowingSources reports whether the sources panel is open.
func (a *App) ShowingSources() bool { return a.showSources }

// Answers returns the answers received so far, oldest first.
func (a *App) Answers() []domain.Answer {
	out := make([]domain.Answer, 0, len(a.exchanges))
	for _, ex := range a.exchanges {
		if !ex.pending {
			out = append(out, ex.answer)
		}
	}
	return out
}
