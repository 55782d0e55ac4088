// Package tui implements the tutorchat terminal UI.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/classmarket/tutorchat/internal/api"
	"github.com/classmarket/tutorchat/internal/chat"
	"github.com/classmarket/tutorchat/internal/config"
)

const defaultPollInterval = 30 * time.Second

// ViewID identifies a view on the navigation stack.
type ViewID string

const (
	ViewChats  ViewID = "chats"
	ViewThread ViewID = "thread"
)

// Config wires the TUI.
type Config struct {
	ConfigFile   string
	Theme        string
	PollInterval time.Duration
}

type viewModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int, theme Theme) string
}

type pushViewMsg struct {
	id ViewID
}

type popViewMsg struct{}

type openThreadMsg struct {
	jobID         string
	counterpartID string
}

func pushViewCmd(id ViewID) tea.Cmd {
	return func() tea.Msg {
		return pushViewMsg{id: id}
	}
}

func popViewCmd() tea.Cmd {
	return func() tea.Msg {
		return popViewMsg{}
	}
}

func openThreadCmd(jobID, counterpartID string) tea.Cmd {
	return func() tea.Msg {
		return openThreadMsg{jobID: jobID, counterpartID: counterpartID}
	}
}

// Model is the root bubbletea model.
type Model struct {
	cfg      *config.Config
	client   *api.Client
	viewerID string
	theme    Theme

	width  int
	height int

	viewStack []ViewID
	views     map[ViewID]viewModel
}

// NewModel loads configuration and wires the views.
func NewModel(tuiCfg Config) (*Model, error) {
	var cfg *config.Config
	var err error
	if tuiCfg.ConfigFile != "" {
		cfg, err = config.LoadFromFile(tuiCfg.ConfigFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	client, err := api.NewClient(api.Config{
		BaseURL:     cfg.API.BaseURL,
		Credentials: chat.StaticCredential(cfg.Auth.Token),
		Timeout:     cfg.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	viewerID := strings.TrimSpace(cfg.Auth.UserID)
	session, err := config.DefaultSessionStore().Load()
	if err == nil && strings.TrimSpace(session.UserID) != "" {
		viewerID = strings.TrimSpace(session.UserID)
	}
	if viewerID == "" {
		return nil, fmt.Errorf("no viewer configured; run 'tutorchat login' or set auth.user_id")
	}

	theme, ok := Themes[tuiCfg.Theme]
	if !ok {
		theme = DefaultTheme
	}
	interval := tuiCfg.PollInterval
	if interval <= 0 {
		interval = cfg.PollInterval()
	}

	aggregator := chat.NewAggregator(client, chat.WithPageSize(cfg.Chat.PageSize))
	updater := chat.NewStatusUpdater(client)

	m := &Model{
		cfg:       cfg,
		client:    client,
		viewerID:  viewerID,
		theme:     theme,
		viewStack: []ViewID{ViewChats},
		views:     make(map[ViewID]viewModel),
	}
	m.views[ViewChats] = newChatsView(aggregator, viewerID, interval)
	m.views[ViewThread] = newThreadView(client, updater, viewerID, cfg.Auth.Token, interval)
	return m, nil
}

// Run starts the TUI event loop.
func Run(cfg Config) error {
	model, err := NewModel(cfg)
	if err != nil {
		return err
	}
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	if view := m.activeView(); view != nil {
		return view.Init()
	}
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case openThreadMsg:
		if view := m.views[ViewThread]; view != nil {
			if setter, ok := view.(interface {
				SetThread(jobID, counterpartID string) tea.Cmd
			}); ok {
				m.pushView(ViewThread)
				return m, setter.SetThread(typed.jobID, typed.counterpartID)
			}
		}
		return m, nil
	case pushViewMsg:
		m.pushView(typed.id)
		if view := m.activeView(); view != nil {
			return m, view.Init()
		}
		return m, nil
	case popViewMsg:
		m.popView()
		if view := m.activeView(); view != nil {
			return m, view.Init()
		}
		return m, nil
	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(typed); handled {
			return m, cmd
		}
	}

	if active := m.activeView(); active != nil {
		return m, active.Update(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	active := m.activeView()
	if active == nil {
		return "no active view"
	}
	header := m.renderHeader()
	footer := m.renderFooter()
	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}
	body := active.View(m.width, contentHeight, m.theme)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// Views with an active input own the keyboard.
	if capturer, ok := m.activeView().(interface{ CapturesInput() bool }); ok && capturer.CapturesInput() {
		return nil, false
	}
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit, true
	case "esc":
		if len(m.viewStack) > 1 {
			return popViewCmd(), true
		}
	}
	return nil, false
}

func (m *Model) renderHeader() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	title := "tutorchat"
	if m.activeViewID() == ViewThread {
		if titled, ok := m.activeView().(interface{ Title() string }); ok {
			title = "tutorchat " + titled.Title()
		}
	}
	line := title + "  viewer: " + m.viewerID
	return style.Width(maxInt(0, m.width)).Render(line)
}

func (m *Model) renderFooter() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Footer)).
		Padding(0, 1)

	hints := "enter Open  j/k Move  r Refresh  q Quit"
	if m.activeViewID() == ViewThread {
		hints = "i Compose  enter Send  esc Back  r Refresh  q Quit"
	}
	return style.Width(maxInt(0, m.width)).Render(hints)
}

func (m *Model) activeView() viewModel {
	return m.views[m.activeViewID()]
}

func (m *Model) activeViewID() ViewID {
	if len(m.viewStack) == 0 {
		return ViewChats
	}
	return m.viewStack[len(m.viewStack)-1]
}

func (m *Model) pushView(id ViewID) {
	if id == "" || m.activeViewID() == id {
		return
	}
	m.viewStack = append(m.viewStack, id)
}

func (m *Model) popView() {
	if len(m.viewStack) > 1 {
		m.viewStack = m.viewStack[:len(m.viewStack)-1]
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
