// Package list provides the sources panel for the TUI.
package list

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SourceList shows the chunks an answer was drawn from. The selected
// chunk is shown with its full text.
type SourceList struct {
	sources  []domain.RetrievedChunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles navigation keys.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only navigation keys
		switch msg.Type {
		case tea.KeyUp:
			l.MoveUp()
		case tea.KeyDown:
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("No sources for this answer")
	}

	lines := []string{
		l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))),
		"",
	}
	for i := range l.sources {
		lines = append(lines, l.renderRow(i))
	}

	if sel := l.SelectedSource(); sel != nil {
		lines = append(lines, "", l.styles.Normal.Render(wrap(sel.Chunk.Content, l.width-4, l.height-len(lines)-1)))
	}
	return strings.Join(lines, "\n")
}

func (l *SourceList) renderRow(i int) string {
	s := l.sources[i]
	name := s.DocumentTitle
	if s.DocumentPath != "" {
		name = filepath.Base(s.DocumentPath)
	}
	if name == "" {
		name = "(untitled)"
	}
	row := fmt.Sprintf("%-*s  chunk %-3d  %.3f", l.nameWidth(), clip(name, l.nameWidth()), s.Chunk.Position, s.Similarity)
	if i == l.selected {
		return l.styles.Selected.Render("> " + row)
	}
	return l.styles.Normal.Render("  " + row)
}

func (l *SourceList) nameWidth() int {
	w := l.width - 24
	if w < 10 {
		w = 10
	}
	return w
}

// SetSources replaces the list and selects the first entry.
func (l *SourceList) SetSources(sources []domain.RetrievedChunk) {
	l.sources = sources
	l.selected = 0
}

// Sources returns the current entries.
func (l *SourceList) Sources() []domain.RetrievedChunk {
	return l.sources
}

// Selected returns the selected index.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedSource returns the selected entry, or nil if the list is empty.
func (l *SourceList) SelectedSource() *domain.RetrievedChunk {
	if l.selected < 0 || l.selected >= len(l.sources) {
		return nil
	}
	return &l.sources[l.selected]
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.sources)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of entries.
func (l *SourceList) Count() int {
	return len(l.sources)
}

// clip shortens s to n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// wrap word-wraps text to width and keeps at most maxLines lines.
func wrap(text string, width, maxLines int) string {
	if width < 10 {
		width = 10
	}
	if maxLines < 1 {
		maxLines = 1
	}

	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = clip(lines[maxLines-1], width-3) + "..."
	}
	return strings.Join(lines, "\n")
}
