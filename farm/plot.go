package farm

// PlotConfig describes the plant grid.
type PlotConfig struct {
	Rows           int
	Cols           int
	Stages         int // sprites per crop, maxStage = Stages-1
	GrowthSeconds  float64
	StaggerSeconds float64
}

// DefaultPlotConfig is the 5x4 grid with 5-stage crops.
func DefaultPlotConfig() PlotConfig {
	return PlotConfig{
		Rows:           5,
		Cols:           4,
		Stages:         5,
		GrowthSeconds:  20,
		StaggerSeconds: 3,
	}
}

// Plot is the fixed set of plant slots.
type Plot struct {
	cfg   PlotConfig
	slots []Slot
}

func NewPlot(cfg PlotConfig) Plot {
	if cfg.Rows < 1 {
		cfg.Rows = 1
	}
	if cfg.Cols < 1 {
		cfg.Cols = 1
	}
	if cfg.Stages < 1 {
		cfg.Stages = 1
	}
	slots := make([]Slot, 0, cfg.Rows*cfg.Cols)
	for r := 0; r < cfg.Rows; r++ {
		crop := Corn
		if r%2 == 1 {
			crop = Cherry
		}
		for c := 0; c < cfg.Cols; c++ {
			slots = append(slots, Slot{
				Index:          r*cfg.Cols + c,
				Row:            r,
				Col:            c,
				Crop:           crop,
				StaggerSeconds: cfg.StaggerSeconds,
				GrowthSeconds:  cfg.GrowthSeconds,
				MaxStage:       cfg.Stages - 1,
			})
		}
	}
	return Plot{cfg: cfg, slots: slots}
}

func (p Plot) Slots() []Slot {
	return p.slots
}

func (p Plot) Rows() int { return p.cfg.Rows }
func (p Plot) Cols() int { return p.cfg.Cols }

// AllGrownTime is when the last slot's growth duration ends.
func (p Plot) AllGrownTime() float64 {
	if len(p.slots) == 0 {
		return 0
	}
	last := p.slots[len(p.slots)-1]
	return last.StartTime() + last.GrowthSeconds
}

// GrownCount counts slots whose full growth duration has elapsed.
func (p Plot) GrownCount(elapsedSeconds float64) int {
	n := 0
	for _, s := range p.slots {
		if FullyGrown(s, elapsedSeconds) {
			n++
		}
	}
	return n
}

// PlantState is a render-ready view of one slot.
type PlantState struct {
	Slot    Slot
	Stage   int
	Planted bool
}

// Snapshot returns the state of every slot at elapsedSeconds.
func (p Plot) Snapshot(elapsedSeconds float64) []PlantState {
	out := make([]PlantState, len(p.slots))
	for i, s := range p.slots {
		stage, planted := StageFor(s, elapsedSeconds)
		out[i] = PlantState{Slot: s, Stage: stage, Planted: planted}
	}
	return out
}
