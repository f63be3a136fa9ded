package status

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_InitAndUpdate(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())
	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Bar)
		want    string
		notWant string
	}{
		{
			name:  "ready without corpus",
			setup: func(*Bar) {},
			want:  "Ready",
		},
		{
			name:  "ready with corpus",
			setup: func(b *Bar) { b.SetCorpus(3, 12) },
			want:  "3 documents, 12 chunks",
		},
		{
			name:  "asking",
			setup: func(b *Bar) { b.SetState(StateAsking) },
			want:  "Thinking...",
		},
		{
			name: "error with message",
			setup: func(b *Bar) {
				b.SetState(StateError)
				b.SetMessage("backend down")
			},
			want: "Error: backend down",
		},
		{
			name:  "not ready",
			setup: func(b *Bar) { b.SetState(StateNotReady) },
			want:  "Index not built",
		},
		{
			name:    "sources shows navigation help",
			setup:   func(b *Bar) { b.SetState(StateSources) },
			want:    "↑: up",
			notWant: "f1: help",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			tt.setup(bar)

			view := bar.View()

			assert.Contains(t, view, tt.want)
			if tt.notWant != "" {
				assert.NotContains(t, view, tt.notWant)
			}
		})
	}
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetCorpus(2, 5)
	bar.SetState(StateError)
	bar.SetMessage("oops")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Contains(t, bar.View(), "2 documents, 5 chunks")
}

func TestHelpLine(t *testing.T) {
	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "alpha")),
		key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "beta")),
	}

	assert.Equal(t, "a: alpha | b: beta", HelpLine(bindings))
	assert.Empty(t, HelpLine(nil))
}
