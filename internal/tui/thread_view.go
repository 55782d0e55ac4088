package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/classmarket/tutorchat/internal/api"
	"github.com/classmarket/tutorchat/internal/chat"
)

type threadTickMsg struct {
	jobID string
}

type threadLoadedMsg struct {
	jobID    string
	messages []chat.Message
	err      error
}

type threadSentMsg struct {
	jobID string
	err   error
}

type threadView struct {
	client   *api.Client
	updater  *chat.StatusUpdater
	viewerID string
	token    string
	interval time.Duration

	jobID         string
	counterpartID string
	store         *chat.Store
	sender        *chat.Sender

	messages []chat.Message
	lastErr  error
	loaded   bool

	composing bool
	input     string
	sendErr   error
	retryBody string

	top int
}

func newThreadView(client *api.Client, updater *chat.StatusUpdater, viewerID, token string, interval time.Duration) *threadView {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &threadView{
		client:   client,
		updater:  updater,
		viewerID: viewerID,
		token:    token,
		interval: interval,
	}
}

// SetThread points the view at a job thread and starts loading it.
func (v *threadView) SetThread(jobID, counterpartID string) tea.Cmd {
	if jobID == v.jobID {
		return v.loadCmd()
	}
	v.jobID = jobID
	v.counterpartID = counterpartID
	v.store = chat.NewStore(jobID, v.viewerID, v.client)
	v.sender = chat.NewSender(v.client, v.client, chat.StaticCredential(v.token), v.store)
	v.messages = nil
	v.loaded = false
	v.lastErr = nil
	v.sendErr = nil
	v.retryBody = ""
	v.composing = false
	v.input = ""
	v.top = 0
	return tea.Batch(v.loadCmd(), v.tickCmd())
}

func (v *threadView) Title() string {
	if v.counterpartID != "" {
		return fmt.Sprintf("— job %s with %s", v.jobID, v.counterpartID)
	}
	return "— job " + v.jobID
}

// CapturesInput reports whether the compose line owns the keyboard.
func (v *threadView) CapturesInput() bool {
	return v.composing
}

func (v *threadView) Init() tea.Cmd {
	if v.store == nil {
		return nil
	}
	return tea.Batch(v.loadCmd(), v.tickCmd())
}

func (v *threadView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case threadTickMsg:
		if typed.jobID != v.jobID {
			return nil
		}
		return tea.Batch(v.loadCmd(), v.tickCmd())
	case threadLoadedMsg:
		if typed.jobID != v.jobID {
			return nil
		}
		v.loaded = true
		v.lastErr = typed.err
		if typed.err == nil {
			v.messages = typed.messages
			if v.counterpartID == "" && v.store != nil {
				v.counterpartID = v.store.Counterpart()
			}
			return v.markReadCmd()
		}
		return nil
	case threadSentMsg:
		if typed.jobID != v.jobID {
			return nil
		}
		v.sendErr = typed.err
		if typed.err == nil {
			v.retryBody = ""
		} else {
			var sendErr *chat.SendError
			if errors.As(typed.err, &sendErr) {
				v.retryBody = sendErr.Body
			}
		}
		if v.store != nil {
			v.messages = v.store.Messages()
		}
		return nil
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *threadView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.composing {
		return v.handleComposeKey(msg)
	}
	switch msg.String() {
	case "i":
		v.composing = true
		if v.retryBody != "" {
			v.input = v.retryBody
		}
	case "r":
		return v.loadCmd()
	case "j", "down":
		v.top++
	case "k", "up":
		if v.top > 0 {
			v.top--
		}
	case "esc":
		return popViewCmd()
	}
	return nil
}

func (v *threadView) handleComposeKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		v.composing = false
		return nil
	case tea.KeyEnter:
		body := strings.TrimSpace(v.input)
		if body == "" {
			v.composing = false
			return nil
		}
		v.input = ""
		v.composing = false
		return v.sendCmd(body)
	case tea.KeyBackspace:
		if len(v.input) > 0 {
			runes := []rune(v.input)
			v.input = string(runes[:len(runes)-1])
		}
		return nil
	case tea.KeySpace:
		v.input += " "
		return nil
	case tea.KeyRunes:
		v.input += string(msg.Runes)
		return nil
	}
	return nil
}

func (v *threadView) View(width, height int, theme Theme) string {
	if v.store == nil {
		return theme.mutedStyle().Render("No thread selected.")
	}
	if !v.loaded {
		return theme.mutedStyle().Render("Loading thread…")
	}

	var b strings.Builder
	if v.lastErr != nil {
		b.WriteString(theme.unreadStyle().Render("refresh failed: backend unreachable"))
		b.WriteString("\n")
	}
	if v.sendErr != nil {
		b.WriteString(theme.unreadStyle().Render("send failed; press i to retry the message"))
		b.WriteString("\n")
	}

	composeLines := 1
	rows := maxInt(1, height-composeLines-1)
	lines := make([]string, 0, len(v.messages))
	for _, message := range v.messages {
		lines = append(lines, v.renderMessage(message, width, theme))
	}
	if v.top > maxInt(0, len(lines)-rows) {
		v.top = maxInt(0, len(lines)-rows)
	}
	start := v.top
	if len(lines) > rows && start == 0 {
		// Follow the newest message by default.
		start = len(lines) - rows
	}
	for idx := start; idx < len(lines) && idx < start+rows; idx++ {
		b.WriteString(lines[idx])
		b.WriteString("\n")
	}

	if v.composing {
		b.WriteString(theme.accentStyle().Render("> ") + v.input + "█")
	} else {
		b.WriteString(theme.mutedStyle().Render("press i to compose"))
	}
	return b.String()
}

func (v *threadView) renderMessage(message chat.Message, width int, theme Theme) string {
	when := "??:??"
	if !message.CreatedAt.IsZero() {
		when = message.CreatedAt.Local().Format("Jan 02 15:04")
	}
	who := message.SenderID
	style := theme.mutedStyle()
	if message.SenderID == v.viewerID {
		who = "me"
		style = theme.accentStyle()
	}
	status := theme.statusStyle(string(message.Status)).Render(strings.ToLower(string(message.Status)))
	body := truncateLine(message.Body, maxInt(10, width-30))
	return fmt.Sprintf("%s %s %s %s",
		theme.mutedStyle().Render(when), style.Render(who), status, body)
}

func (v *threadView) loadCmd() tea.Cmd {
	store := v.store
	jobID := v.jobID
	return func() tea.Msg {
		messages, err := store.Load(context.Background())
		return threadLoadedMsg{jobID: jobID, messages: messages, err: err}
	}
}

// markReadCmd acknowledges unread incoming messages after a successful
// load; opening a thread is what reads it.
func (v *threadView) markReadCmd() tea.Cmd {
	store := v.store
	updater := v.updater
	jobID := v.jobID
	if len(store.UnreadIncoming()) == 0 {
		return nil
	}
	return func() tea.Msg {
		_, _ = updater.MarkThreadRead(context.Background(), store)
		return threadLoadedMsg{jobID: jobID, messages: store.Messages()}
	}
}

func (v *threadView) sendCmd(body string) tea.Cmd {
	sender := v.sender
	jobID := v.jobID
	recipientID := v.counterpartID
	return func() tea.Msg {
		_, err := sender.Send(context.Background(), chat.SendRequest{
			JobID:       jobID,
			Body:        body,
			RecipientID: recipientID,
		})
		return threadSentMsg{jobID: jobID, err: err}
	}
}

func (v *threadView) tickCmd() tea.Cmd {
	jobID := v.jobID
	return tea.Tick(v.interval, func(time.Time) tea.Msg {
		return threadTickMsg{jobID: jobID}
	})
}
