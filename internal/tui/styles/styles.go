package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Accent    = lipgloss.Color("#4F46E5")
	AccentEnd = lipgloss.Color("#22D3EE")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Green     = lipgloss.Color("#10B981")
	Red       = lipgloss.Color("#EF4444")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Accent)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Panel wrapping the sync status view
var PanelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(DimGray).
	Padding(0, 1)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Accent)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Status glyphs
const (
	CompletedChar = "✓"
	ErrorChar     = "✗"
	IdleChar      = "·"
)
