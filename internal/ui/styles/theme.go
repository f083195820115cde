package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a color scheme for the application
type Theme struct {
	Name string

	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
}

// Dark is the default theme
var Dark = Theme{
	Name: "dark",

	Background:    lipgloss.Color("#1a1b26"),
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#3B82F6"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
}

// Light suits terminals with a light background
var Light = Theme{
	Name: "light",

	Background:    lipgloss.Color("#e1e2e7"),
	Foreground:    lipgloss.Color("#3760bf"),
	ForegroundDim: lipgloss.Color("#848cb5"),

	Primary:   lipgloss.Color("#2e7de9"),
	Secondary: lipgloss.Color("#9854f1"),
	Accent:    lipgloss.Color("#007197"),

	Success: lipgloss.Color("#587539"),
	Warning: lipgloss.Color("#8c6c3e"),
	Error:   lipgloss.Color("#f52a65"),
	Info:    lipgloss.Color("#3B82F6"),

	Border:      lipgloss.Color("#a8aecb"),
	BorderFocus: lipgloss.Color("#2e7de9"),
	Selection:   lipgloss.Color("#b6bfe2"),
}

// Current holds the active theme
var Current = Dark

// ThemeByName looks up a theme; ok is false for unknown names
func ThemeByName(name string) (Theme, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dark":
		return Dark, true
	case "light":
		return Light, true
	}
	return Dark, false
}

// Apply makes the named theme current, falling back to Dark
func Apply(name string) Theme {
	Current, _ = ThemeByName(name)
	return Current
}

// MaxWidth caps the content width on wide terminals
const MaxWidth = 80

// ContentWidth returns min(terminalWidth, MaxWidth)
func ContentWidth(terminalWidth int) int {
	return min(terminalWidth, MaxWidth)
}

// CenterView centers content horizontally when the terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Styles holds the pre-computed styles for the UI
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style
	Section    lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	SearchBar lipgloss.Style

	Button        lipgloss.Style
	ButtonFocused lipgloss.Style

	Tag      lipgloss.Style
	Priority [4]lipgloss.Style
	Done     lipgloss.Style
	Overdue  lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style

	Popup    lipgloss.Style
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	StatusBar lipgloss.Style
	ErrorText lipgloss.Style
}

// NewStyles builds styles from the current theme
func NewStyles() *Styles {
	t := Current

	boxed := func(border lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1)
	}

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),
		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),
		Section: lipgloss.NewStyle().
			Foreground(t.Secondary).
			Bold(true).
			MarginTop(1),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),
		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		SearchBar: boxed(t.Border),

		Button: boxed(t.Border).
			Foreground(t.Foreground).
			Padding(0, 2),
		ButtonFocused: boxed(t.BorderFocus).
			Foreground(t.Primary).
			Padding(0, 2).
			Bold(true),

		Tag: lipgloss.NewStyle().
			Foreground(t.Accent).
			MarginRight(1),
		Priority: [4]lipgloss.Style{
			lipgloss.NewStyle().Foreground(t.ForegroundDim),
			lipgloss.NewStyle().Foreground(t.Info),
			lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
			lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		},
		Done: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Strikethrough(true),
		Overdue: lipgloss.NewStyle().
			Foreground(t.Error),

		Input:        boxed(t.Border).Foreground(t.Foreground),
		InputFocused: boxed(t.BorderFocus).Foreground(t.Foreground),

		Popup: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(1, 2),
		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),
		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),
		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),
		ErrorText: lipgloss.NewStyle().
			Foreground(t.Error),
	}
}
