package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dylan/focusfarm/tui/shared"
)

type Model struct {
	width  int
	height int
}

func New() Model {
	return Model{}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(shared.TitleStyle.Render("FocusFarm Help"))
	b.WriteString("\n\n")

	groups := shared.Keys.FullHelp()
	groupNames := []string{"Session", "Panels", "General"}

	for i, group := range groups {
		if i < len(groupNames) {
			b.WriteString(shared.ValueStyle.Render(groupNames[i]))
			b.WriteString("\n")
		}
		for _, k := range group {
			help := k.Help()
			key := shared.HelpKeyStyle.Render(help.Key)
			desc := shared.HelpDescStyle.Render(help.Desc)
			b.WriteString("  " + key + "  " + desc + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(shared.DimStyle.Render("Focus above the threshold to earn good time."))
	b.WriteString("\n")
	b.WriteString(shared.DimStyle.Render("Crops grow with session time; chickens hatch once the field is full."))

	content := shared.HelpOverlayStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
