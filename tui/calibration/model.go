package calibration

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dylan/focusfarm/tui/shared"
)

// Model is the modal shown while the session calibrates.
type Model struct {
	bar      progress.Model
	value    float64
	duration time.Duration
}

func New(duration time.Duration) Model {
	bar := progress.New(
		progress.WithGradient(shared.GaugeLow, shared.GaugeHigh),
	)
	bar.Width = 36
	return Model{bar: bar, duration: duration}
}

// SetProgress sets the fraction done, clamped to [0,1].
func (m *Model) SetProgress(p float64) {
	if math.IsNaN(p) || p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	m.value = p
}

// Remaining is the whole seconds left, rounded up.
func (m Model) Remaining() int {
	left := (1 - m.value) * m.duration.Seconds()
	return int(math.Ceil(left))
}

func (m Model) ViewOverlay(w, h int) string {
	content := m.renderContent()
	overlay := shared.CalibrationOverlayStyle.Render(content)
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, overlay,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("0")),
	)
}

func (m Model) renderContent() string {
	var b strings.Builder
	b.WriteString(shared.TitleStyle.Render("Calibrating"))
	b.WriteString("\n\n")
	b.WriteString(shared.DimStyle.Render("Sit still and relax while a baseline is recorded."))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.value))
	b.WriteString("\n\n")
	b.WriteString(shared.MutedStyle.Render(fmt.Sprintf("About %ds remaining", m.Remaining())))
	return b.String()
}
