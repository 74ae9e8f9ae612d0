package statspane

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dylan/focusfarm/clock"
	"github.com/dylan/focusfarm/telemetry"
	"github.com/dylan/focusfarm/tui/shared"
)

type Model struct {
	gauge   progress.Model
	agg     telemetry.Aggregate
	elapsed time.Duration
	spinner string

	showChannels bool

	width  int
	height int
}

func New(showChannels bool) Model {
	return Model{
		gauge: progress.New(
			progress.WithGradient(shared.GaugeLow, shared.GaugeHigh),
			progress.WithoutPercentage(),
		),
		showChannels: showChannels,
	}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.gauge.Width = max(w-8, 4)
}

// SetAggregate replaces the displayed aggregates and session time.
func (m *Model) SetAggregate(agg telemetry.Aggregate, elapsed time.Duration) {
	m.agg = agg
	m.elapsed = elapsed
}

// SetSpinner sets the frame shown next to the status while connecting.
func (m *Model) SetSpinner(view string) {
	m.spinner = view
}

func (m *Model) ToggleChannels() {
	m.showChannels = !m.showChannels
}

func (m Model) ShowChannels() bool {
	return m.showChannels
}

func (m Model) View() string {
	if m.width < 4 {
		return ""
	}
	content := m.renderContent()
	return shared.PaneBorderStyle.Width(m.width).Height(m.height).Render(fixedHeight(content, m.height))
}

func (m Model) renderContent() string {
	a := m.agg
	var b strings.Builder

	b.WriteString(" " + shared.TitleStyle.Render("Focus Score"))
	b.WriteString("\n")
	b.WriteString(" " + m.gauge.ViewAs(a.Score/100) + " " + shared.ValueStyle.Render(fmt.Sprintf("%3.0f", a.Score)))
	b.WriteString("\n")

	status := a.StatusMessage()
	if a.Connection == telemetry.Disconnected && m.spinner != "" {
		status = m.spinner + " " + status
	}
	b.WriteString(" " + shared.DimStyle.Render(status))
	b.WriteString("\n\n")

	b.WriteString(" " + label("Session") + shared.ValueStyle.Render(clock.FormatClock(m.elapsed)))
	b.WriteString("   " + label("Good focus") + shared.GoodFocusStyle.Render(clock.FormatShort(a.GoodTime)))
	b.WriteString("\n")
	b.WriteString(" " + label("Avg") + shared.ValueStyle.Render(fmt.Sprintf("%.1f", a.Average)))
	b.WriteString("   " + label("Peak") + shared.ValueStyle.Render(fmt.Sprintf("%.1f", a.Peak)))
	b.WriteString("\n\n")

	sparkW := max(m.width-16, 4)
	b.WriteString(" " + label("Focus") + shared.AccentStyle.Render(Sparkline(a.DisplayHistory, sparkW, 0, 100)))
	b.WriteString("\n")
	b.WriteString(" " + label("Band") + shared.BandStyle.Render(Sparkline(a.BandHistory, sparkW, 0, 1)))
	b.WriteString("\n")

	if m.showChannels && len(a.ChannelHistory) > 0 {
		b.WriteString("\n")
		b.WriteString(" " + shared.SectionLabelStyle.Render("Channels"))
		b.WriteString("\n")
		chW := max(m.width-20, 4)
		for i, h := range a.ChannelHistory {
			var cur float64
			if i < len(a.ChannelValues) {
				cur = a.ChannelValues[i]
			}
			b.WriteString(fmt.Sprintf(" %s %s %s\n",
				shared.SectionLabelStyle.Render(fmt.Sprintf("Ch%d", i+1)),
				shared.ChannelStyle(i).Render(Sparkline(h, chW, 0, 0)),
				shared.DimStyle.Render(fmt.Sprintf("%6.1f µV", cur)),
			))
		}
	}

	return b.String()
}

func label(s string) string {
	return shared.SectionLabelStyle.Render(fmt.Sprintf("%-7s", s)) + " "
}

// fixedHeight ensures a string has exactly h lines, truncating or padding as needed.
func fixedHeight(s string, h int) string {
	if h <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
