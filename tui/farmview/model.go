package farmview

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dylan/focusfarm/farm"
	"github.com/dylan/focusfarm/tui/shared"
)

// Per-crop growth sprites, earliest first. Stages are scaled onto these.
var (
	cornSprites   = []string{".", ",", "i", "l", "Y"}
	cherrySprites = []string{".", ",", "v", "w", "@"}
)

var henHouse = []string{
	` /\ `,
	`/__\`,
	`|[]|`,
}

var (
	hatchedFrames = []string{"v", "w"}
	walkingFrames = []string{"d", "b", "d", "p"}
	settledFrames = []string{"Y", "y"}
)

type cell struct {
	glyph string
	style *lipgloss.Style
}

type Model struct {
	plot     farm.Plot
	animator *farm.Animator
	elapsed  time.Duration

	width  int
	height int
}

func New(plot farm.Plot, animator *farm.Animator) Model {
	return Model{plot: plot, animator: animator}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetElapsed sets the session time the farm is drawn at.
func (m *Model) SetElapsed(d time.Duration) {
	if d < 0 {
		d = 0
	}
	m.elapsed = d
}

func (m Model) seconds() float64 {
	return m.elapsed.Seconds()
}

// Counts returns the grown plant count, the plot size and the number of
// hatched chickens. Both counters advance on whole seconds.
func (m Model) Counts() (plants, total, chickens int) {
	whole := math.Floor(m.seconds())
	plants = m.plot.GrownCount(whole)
	total = len(m.plot.Slots())
	chickens = m.animator.Snapshot(whole).Hatched
	return plants, total, chickens
}

func (m Model) View() string {
	if m.width < 4 || m.height < 4 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	bodyH := m.height - 1
	hillH := bodyH * 45 / 100
	if hillH < 4 {
		hillH = 4
	}
	gridH := bodyH - hillH
	if gridH < 1 {
		gridH = 1
	}

	b.WriteString(fixedHeight(m.renderHill(hillH), hillH))
	b.WriteString("\n")
	b.WriteString(fixedHeight(m.renderPlot(gridH), gridH))
	return b.String()
}

func (m Model) renderHeader() string {
	plants, total, chickens := m.Counts()
	left := shared.SectionLabelStyle.Render("Plants: ") +
		shared.ValueStyle.Render(fmt.Sprintf("%d / %d", plants, total))
	right := shared.SectionLabelStyle.Render("Chickens: ") +
		shared.ValueStyle.Render(fmt.Sprintf("%d", chickens))
	return " " + left + "   " + right
}

// --- Hill ---

func (m Model) renderHill(h int) string {
	w := m.width
	canvas := make([][]cell, h)
	for y := range canvas {
		canvas[y] = make([]cell, w)
		for x := range canvas[y] {
			canvas[y][x] = cell{glyph: " "}
		}
	}

	ridge := func(x int) int {
		// Gentle hump, highest in the middle.
		t := float64(x)/float64(max(w-1, 1))*2 - 1
		return int(float64(h-1) * (0.35 + 0.3*t*t))
	}
	for x := 0; x < w; x++ {
		top := ridge(x)
		for y := top; y < h; y++ {
			if y == top {
				canvas[y][x] = cell{glyph: "~", style: &shared.HillStyle}
			} else if (x+y*3)%7 == 0 {
				canvas[y][x] = cell{glyph: "'", style: &shared.HillStyle}
			}
		}
	}

	secs := m.seconds()
	if m.animator.HouseVisible(secs) {
		sp := m.animator.Config().SpawnPoint
		cx, cy := project(sp, w, h)
		top := cy - len(henHouse) + 1
		if top < 0 {
			top = 0
		}
		for i, line := range henHouse {
			x0 := cx - len(line)/2
			for j, r := range line {
				put(canvas, x0+j, top+i, string(r), &shared.HenHouseStyle)
			}
		}
	}

	herd := m.animator.Snapshot(secs)
	for _, e := range herd.Entities {
		x, y := project(e.Position, w, h)
		glyph, style := entitySprite(e)
		put(canvas, x, y, glyph, style)
	}

	lines := make([]string, h)
	for y, row := range canvas {
		var b strings.Builder
		for _, c := range row {
			if c.style == nil {
				b.WriteString(c.glyph)
				continue
			}
			b.WriteString(c.style.Render(c.glyph))
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

// project maps a percent position onto a w x h cell canvas.
func project(p farm.Point, w, h int) (int, int) {
	x := int(math.Round(p.X / 100 * float64(w-1)))
	y := int(math.Round(p.Y / 100 * float64(h-1)))
	return x, y
}

func put(canvas [][]cell, x, y int, glyph string, style *lipgloss.Style) {
	if y < 0 || y >= len(canvas) || x < 0 || x >= len(canvas[y]) {
		return
	}
	canvas[y][x] = cell{glyph: glyph, style: style}
}

func entitySprite(e farm.EntityState) (string, *lipgloss.Style) {
	switch e.Phase {
	case farm.Spawning:
		return "o", &shared.EggStyle
	case farm.Hatched:
		return pickFrame(hatchedFrames, e.Frame), &shared.ChickenStyle
	case farm.Walking:
		return pickFrame(walkingFrames, e.Frame), &shared.ChickenStyle
	default:
		return pickFrame(settledFrames, e.Frame), &shared.ChickenStyle
	}
}

func pickFrame(frames []string, i int) string {
	if i < 0 {
		i = 0
	}
	return frames[i%len(frames)]
}

// --- Plot ---

func (m Model) renderPlot(h int) string {
	rows, cols := m.plot.Rows(), m.plot.Cols()
	cellW := m.width / cols
	if cellW < 2 {
		cellW = 2
	}
	rowGap := h/rows > 1

	secs := m.seconds()
	states := m.plot.Snapshot(secs)
	var lines []string
	for r := 0; r < rows; r++ {
		var b strings.Builder
		for c := 0; c < cols; c++ {
			ps := states[r*cols+c]
			glyph := plantSprite(ps, secs)
			pad := (cellW - lipgloss.Width(glyph)) / 2
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(glyph)
			b.WriteString(strings.Repeat(" ", cellW-pad-lipgloss.Width(glyph)))
		}
		lines = append(lines, b.String())
		if rowGap && r < rows-1 {
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n")
}

func plantSprite(ps farm.PlantState, elapsedSeconds float64) string {
	if !ps.Planted {
		return shared.SoilStyle.Render("_")
	}
	sprites, ripe := cornSprites, shared.CornStyle
	if ps.Slot.Crop == farm.Cherry {
		sprites, ripe = cherrySprites, shared.CherryStyle
	}
	idx := len(sprites) - 1
	if ps.Slot.MaxStage > 0 {
		idx = min(ps.Stage*(len(sprites)-1)/ps.Slot.MaxStage, len(sprites)-1)
	}
	if farm.AtMaxStage(ps.Slot, elapsedSeconds) {
		return ripe.Render(sprites[idx])
	}
	return shared.SproutStyle.Render(sprites[idx])
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
