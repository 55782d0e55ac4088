package tui

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// MessageColors defines colors for message origin.
type MessageColors struct {
	Own   string
	Other string
}

// StatusColors defines colors per delivery state.
type StatusColors struct {
	Sending   string
	Sent      string
	Delivered string
	Read      string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
	Unread       string
}

// Theme defines the tutorchat TUI style tokens.
type Theme struct {
	Name string

	Base    BaseColors
	Message MessageColors
	Status  StatusColors
	Chrome  ChromeColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name: "default",
	Base: BaseColors{
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Message: MessageColors{
		Own:   "81",
		Other: "147",
	},
	Status: StatusColors{
		Sending:   "243",
		Sent:      "220",
		Delivered: "75",
		Read:      "41",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		SelectedItem: "75",
		Unread:       "203",
	},
}

// HighContrastTheme favors legibility on washed-out terminals.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Base: BaseColors{
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "255",
	},
	Message: MessageColors{
		Own:   "51",
		Other: "213",
	},
	Status: StatusColors{
		Sending:   "250",
		Sent:      "226",
		Delivered: "51",
		Read:      "46",
	},
	Chrome: ChromeColors{
		Header:       "21",
		Footer:       "18",
		SelectedItem: "51",
		Unread:       "196",
	},
}

func (t Theme) mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

func (t Theme) accentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent))
}

func (t Theme) selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.SelectedItem)).Bold(true)
}

func (t Theme) unreadStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.Unread)).Bold(true)
}

func (t Theme) statusStyle(status string) lipgloss.Style {
	color := t.Status.Sent
	switch status {
	case "SENDING":
		color = t.Status.Sending
	case "DELIVERED":
		color = t.Status.Delivered
	case "READ":
		color = t.Status.Read
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
