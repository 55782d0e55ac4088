package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/classmarket/tutorchat/internal/chat"
)

type chatsTickMsg struct{}

type chatsLoadedMsg struct {
	summaries []chat.Summary
	err       error
}

type chatsView struct {
	aggregator *chat.Aggregator
	viewerID   string
	interval   time.Duration

	summaries []chat.Summary
	lastErr   error
	loaded    bool

	selected int
	top      int
}

func newChatsView(aggregator *chat.Aggregator, viewerID string, interval time.Duration) *chatsView {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &chatsView{
		aggregator: aggregator,
		viewerID:   viewerID,
		interval:   interval,
	}
}

func (v *chatsView) Init() tea.Cmd {
	return tea.Batch(v.loadCmd(), v.tickCmd())
}

func (v *chatsView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case chatsTickMsg:
		return tea.Batch(v.loadCmd(), v.tickCmd())
	case chatsLoadedMsg:
		v.loaded = true
		v.lastErr = typed.err
		if typed.err == nil {
			v.summaries = typed.summaries
			if v.selected >= len(v.summaries) {
				v.selected = maxInt(0, len(v.summaries)-1)
			}
		}
		return nil
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *chatsView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "j", "down":
		if v.selected < len(v.summaries)-1 {
			v.selected++
		}
	case "k", "up":
		if v.selected > 0 {
			v.selected--
		}
	case "g", "home":
		v.selected = 0
	case "G", "end":
		v.selected = maxInt(0, len(v.summaries)-1)
	case "r":
		return v.loadCmd()
	case "enter":
		if v.selected < len(v.summaries) {
			summary := v.summaries[v.selected]
			return openThreadCmd(summary.JobID, summary.CounterpartID)
		}
	}
	return nil
}

func (v *chatsView) View(width, height int, theme Theme) string {
	if !v.loaded {
		return theme.mutedStyle().Render("Loading conversations…")
	}
	var b strings.Builder
	if v.lastErr != nil {
		b.WriteString(theme.unreadStyle().Render("refresh failed: backend unreachable"))
		b.WriteString("\n")
	}
	if len(v.summaries) == 0 {
		b.WriteString(theme.mutedStyle().Render("No conversations."))
		return b.String()
	}

	rows := maxInt(1, height-1)
	v.clampScroll(rows)
	end := minInt(len(v.summaries), v.top+rows)
	for idx := v.top; idx < end; idx++ {
		summary := v.summaries[idx]
		line := v.renderRow(summary, width, theme)
		if idx == v.selected {
			line = theme.selectedStyle().Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v *chatsView) renderRow(summary chat.Summary, width int, theme Theme) string {
	when := "unknown"
	if !summary.LastMessage.CreatedAt.IsZero() {
		when = summary.LastMessage.CreatedAt.Local().Format("Jan 02 15:04")
	}
	unread := ""
	if summary.UnreadCount > 0 {
		unread = theme.unreadStyle().Render(fmt.Sprintf(" [%d new]", summary.UnreadCount))
	}
	head := theme.accentStyle().Render("job "+summary.JobID) +
		theme.mutedStyle().Render(" with ") + summary.CounterpartID + unread
	body := truncateLine(summary.LastMessage.Body, maxInt(10, width-30))
	return fmt.Sprintf("%s  %s  %s", head, theme.mutedStyle().Render(when), body)
}

func (v *chatsView) clampScroll(rows int) {
	if v.selected < v.top {
		v.top = v.selected
	}
	if v.selected >= v.top+rows {
		v.top = v.selected - rows + 1
	}
	if v.top < 0 {
		v.top = 0
	}
}

func (v *chatsView) loadCmd() tea.Cmd {
	aggregator := v.aggregator
	viewerID := v.viewerID
	return func() tea.Msg {
		summaries, err := aggregator.Summaries(context.Background(), viewerID)
		return chatsLoadedMsg{summaries: summaries, err: err}
	}
}

func (v *chatsView) tickCmd() tea.Cmd {
	return tea.Tick(v.interval, func(time.Time) tea.Msg {
		return chatsTickMsg{}
	})
}

func truncateLine(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
