package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/classmarket/tutorchat/internal/chat"
)

func TestViewStackNavigation(t *testing.T) {
	m := &Model{
		viewStack: []ViewID{ViewChats},
		views:     map[ViewID]viewModel{},
	}

	require.Equal(t, ViewChats, m.activeViewID())

	m.pushView(ViewThread)
	require.Equal(t, ViewThread, m.activeViewID())

	// Pushing the active view again is a no-op.
	m.pushView(ViewThread)
	require.Len(t, m.viewStack, 2)

	m.popView()
	require.Equal(t, ViewChats, m.activeViewID())

	// The root view never pops.
	m.popView()
	require.Equal(t, ViewChats, m.activeViewID())
}

func TestChatsViewSelection(t *testing.T) {
	view := newChatsView(nil, "b", time.Minute)
	view.loaded = true
	view.summaries = []chat.Summary{
		{JobID: "11", CounterpartID: "c", UnreadCount: 2},
		{JobID: "10", CounterpartID: "a"},
	}

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	require.Equal(t, 1, view.selected)

	// Selection stops at the last row.
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	require.Equal(t, 1, view.selected)

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	require.Equal(t, 0, view.selected)
}

func TestChatsViewEnterOpensThread(t *testing.T) {
	view := newChatsView(nil, "b", time.Minute)
	view.loaded = true
	view.summaries = []chat.Summary{{JobID: "10", CounterpartID: "a"}}

	cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(openThreadMsg)
	require.True(t, ok)
	require.Equal(t, "10", msg.jobID)
	require.Equal(t, "a", msg.counterpartID)
}

func TestChatsViewRendersUnreadBadge(t *testing.T) {
	view := newChatsView(nil, "b", time.Minute)
	view.loaded = true
	view.summaries = []chat.Summary{{
		JobID:         "10",
		CounterpartID: "a",
		UnreadCount:   3,
		LastMessage:   chat.Message{ID: "1", Body: "hello", CreatedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)},
	}}

	out := view.View(100, 20, DefaultTheme)
	require.Contains(t, out, "job 10")
	require.Contains(t, out, "[3 new]")
	require.Contains(t, out, "hello")
}

func TestThreadViewComposeToggle(t *testing.T) {
	view := newThreadView(nil, nil, "b", "tok", time.Minute)
	require.False(t, view.CapturesInput())

	view.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	require.True(t, view.CapturesInput())

	view.handleComposeKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	view.handleComposeKey(tea.KeyMsg{Type: tea.KeySpace})
	view.handleComposeKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("there")})
	require.Equal(t, "hi there", view.input)

	view.handleComposeKey(tea.KeyMsg{Type: tea.KeyBackspace})
	require.Equal(t, "hi ther", view.input)

	view.handleComposeKey(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, view.CapturesInput())
}

func TestTruncateLine(t *testing.T) {
	require.Equal(t, "short", truncateLine("short", 10))
	require.Equal(t, "multi line", truncateLine("multi\nline", 20))
	require.Equal(t, "long…", truncateLine("long text here", 5))
}

func TestThemeLookup(t *testing.T) {
	require.Contains(t, Themes, "default")
	require.Contains(t, Themes, "high-contrast")
}
