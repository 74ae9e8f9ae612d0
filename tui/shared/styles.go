package shared

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/dylan/focusfarm/config"
)

var (
	// Pane chrome
	TitleStyle        lipgloss.Style
	PaneBorderStyle   lipgloss.Style
	SectionLabelStyle lipgloss.Style
	ValueStyle        lipgloss.Style
	DimStyle          lipgloss.Style
	MutedStyle        lipgloss.Style
	AccentStyle       lipgloss.Style

	// Status bar
	StatusBarStyle lipgloss.Style
	StateBadges    map[string]lipgloss.Style

	// Help styles
	HelpKeyStyle     lipgloss.Style
	HelpDescStyle    lipgloss.Style
	HelpOverlayStyle lipgloss.Style

	// Calibration overlay
	CalibrationOverlayStyle lipgloss.Style

	// Error
	ErrorStyle lipgloss.Style

	// Farm
	SoilStyle     lipgloss.Style
	SproutStyle   lipgloss.Style
	CornStyle     lipgloss.Style
	CherryStyle   lipgloss.Style
	HillStyle     lipgloss.Style
	HenHouseStyle lipgloss.Style
	EggStyle      lipgloss.Style
	ChickenStyle  lipgloss.Style

	// Stats
	GaugeLow       string
	GaugeHigh      string
	GoodFocusStyle lipgloss.Style
	BandStyle      lipgloss.Style
	ChannelStyles  []lipgloss.Style

	// Spinner
	SpinnerStyle lipgloss.Style
	SpinnerType  spinner.Spinner

	// Feedback
	FeedbackInfoStyle    lipgloss.Style
	FeedbackSuccessStyle lipgloss.Style
	FeedbackWarningStyle lipgloss.Style
	FeedbackErrorStyle   lipgloss.Style
)

// InitStyles configures all styles from a resolved theme.
func InitStyles(theme config.ThemeConfig) {
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.FG))

	PaneBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color(theme.Muted))

	SectionLabelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Dim))

	ValueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.FG)).
		Bold(true)

	DimStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Dim))

	MutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Muted))

	AccentStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Accent)).
		Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.StatusBarFG)).
		Background(lipgloss.Color(theme.StatusBarBG)).
		Padding(0, 1)

	StateBadges = map[string]lipgloss.Style{
		"idle": lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Dim)).
			Background(lipgloss.Color(theme.StatusBarBG)).
			Padding(0, 1),
		"calibrating": lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.FeedbackWarningFG)).
			Background(lipgloss.Color(theme.FeedbackWarningBG)).
			Padding(0, 1),
		"running": lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.FeedbackSuccessFG)).
			Background(lipgloss.Color(theme.FeedbackSuccessBG)).
			Padding(0, 1),
	}

	HelpKeyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Accent))

	HelpDescStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Dim))

	HelpOverlayStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Muted)).
		Padding(1, 2)

	CalibrationOverlayStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 3)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Error))

	SoilStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Soil))
	SproutStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Sprout))
	CornStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Corn)).
		Bold(true)
	CherryStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Cherry)).
		Bold(true)
	HillStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Hill))
	HenHouseStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.HenHouse)).
		Bold(true)
	EggStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Egg))
	ChickenStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Chicken)).
		Bold(true)

	GaugeLow = theme.GaugeLow
	GaugeHigh = theme.GaugeHigh

	GoodFocusStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.GaugeHigh))

	BandStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Accent2))

	ChannelStyles = make([]lipgloss.Style, len(theme.ChannelColors))
	for i, c := range theme.ChannelColors {
		ChannelStyles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.SpinnerFG))
	SpinnerType = ResolveSpinnerType(theme.SpinnerType)

	FeedbackInfoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.StatusBarFG)).
		Padding(0, 1)

	FeedbackSuccessStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.FeedbackSuccessFG)).
		Background(lipgloss.Color(theme.FeedbackSuccessBG)).
		Padding(0, 1)

	FeedbackWarningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.FeedbackWarningFG)).
		Background(lipgloss.Color(theme.FeedbackWarningBG)).
		Padding(0, 1)

	FeedbackErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.FeedbackErrorFG)).
		Background(lipgloss.Color(theme.FeedbackErrorBG)).
		Padding(0, 1)
}

// ChannelStyle returns the rotating sparkline style for channel i.
func ChannelStyle(i int) lipgloss.Style {
	if len(ChannelStyles) == 0 {
		return DimStyle
	}
	return ChannelStyles[i%len(ChannelStyles)]
}

// FeedbackStyle maps a feedback level to its badge style.
func FeedbackStyle(level FeedbackLevel) lipgloss.Style {
	switch level {
	case FeedbackSuccess:
		return FeedbackSuccessStyle
	case FeedbackWarning:
		return FeedbackWarningStyle
	case FeedbackError:
		return FeedbackErrorStyle
	default:
		return FeedbackInfoStyle
	}
}

// ResolveSpinnerType maps a config string to a bubbles spinner type.
func ResolveSpinnerType(name string) spinner.Spinner {
	switch strings.ToLower(name) {
	case "dot":
		return spinner.Dot
	case "line":
		return spinner.Line
	case "minidot":
		return spinner.MiniDot
	case "pulse":
		return spinner.Pulse
	case "points":
		return spinner.Points
	case "meter":
		return spinner.Meter
	case "ellipsis":
		return spinner.Ellipsis
	default:
		return spinner.MiniDot
	}
}

func init() {
	// Initialize with defaults so styles work even without explicit InitStyles call
	InitStyles(config.DefaultTheme())
}
