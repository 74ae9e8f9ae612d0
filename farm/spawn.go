package farm

import "math"

// Phase is the animation phase of a spawned entity. Phases only move forward.
type Phase int

const (
	Spawning Phase = iota // egg slides out of the hen house
	Hatched               // chick idles at the hatch point
	Walking               // walks to its target
	Settled               // terminal
)

func (p Phase) String() string {
	switch p {
	case Spawning:
		return "spawning"
	case Hatched:
		return "hatched"
	case Walking:
		return "walking"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

const framePeriod = 0.5

// SpawnConfig holds the phase durations and gating of spawned entities.
// All times are seconds.
type SpawnConfig struct {
	FirstEligible float64 // usually Plot.AllGrownTime()
	Slide         float64
	Idle          float64
	Walk          float64
	Interval      float64
	MaxSpawn      int
	SpawnPoint    Point
	HatchPoint    Point
	Placement     PlacementConfig
}

// DefaultSpawnConfig matches the default plot: the egg leaves the hen house
// door and slides a quarter of the house height down.
func DefaultSpawnConfig(firstEligible float64) SpawnConfig {
	return SpawnConfig{
		FirstEligible: firstEligible,
		Slide:         2.5,
		Idle:          2,
		Walk:          5,
		Interval:      20,
		MaxSpawn:      12,
		SpawnPoint:    Point{X: 48.41, Y: 10.99},
		HatchPoint:    Point{X: 48.41, Y: 18.845},
		Placement:     DefaultPlacementConfig(),
	}
}

func (c SpawnConfig) total() float64 {
	return c.Slide + c.Idle + c.Walk
}

// EntityState is the render state of one entity at a point in time.
type EntityState struct {
	Index     int
	Phase     Phase
	Position  Point
	Frame     int
	LocalTime float64
}

// Herd is the derived state of all entities at one elapsed time.
type Herd struct {
	Entities []EntityState
	Eligible int
	Hatched  int // entities past the egg slide
	Settled  int // entities that finished walking
}

// Animator computes entity states from elapsed time. Targets are fixed at
// construction, so an Animator is immutable and safe to share.
type Animator struct {
	cfg     SpawnConfig
	targets []Point
}

func NewAnimator(cfg SpawnConfig) *Animator {
	if cfg.MaxSpawn < 0 {
		cfg.MaxSpawn = 0
	}
	return &Animator{
		cfg:     cfg,
		targets: Layout(cfg.Placement, cfg.MaxSpawn),
	}
}

func (a *Animator) Config() SpawnConfig {
	return a.cfg
}

// Target returns the settle position of entity index.
func (a *Animator) Target(index int) (Point, bool) {
	if index < 0 || index >= len(a.targets) {
		return Point{}, false
	}
	return a.targets[index], true
}

// gateOpen mirrors the hen house appearing: only once whole elapsed seconds
// pass the threshold.
func (a *Animator) gateOpen(elapsed float64) bool {
	return math.Floor(elapsed) > a.cfg.FirstEligible
}

// HouseVisible reports whether the hen house is shown at elapsedSeconds.
func (a *Animator) HouseVisible(elapsedSeconds float64) bool {
	return a.gateOpen(sanitizeSeconds(elapsedSeconds))
}

// EligibleCount is min(MaxSpawn, floor(since/Interval)+1) once the gate is open.
func (a *Animator) EligibleCount(elapsedSeconds float64) int {
	elapsed := sanitizeSeconds(elapsedSeconds)
	if !a.gateOpen(elapsed) || a.cfg.MaxSpawn == 0 {
		return 0
	}
	if a.cfg.Interval <= 0 {
		return a.cfg.MaxSpawn
	}
	since := elapsed - a.cfg.FirstEligible
	n := math.Floor(since/a.cfg.Interval) + 1
	if n >= float64(a.cfg.MaxSpawn) {
		return a.cfg.MaxSpawn
	}
	return int(n)
}

// localTime is the entity's time since its own spawn; negative means not yet.
func (a *Animator) localTime(index int, elapsed float64) float64 {
	return elapsed - a.cfg.FirstEligible - float64(index)*a.cfg.Interval
}

// StateFor returns the state of entity index, or false if it does not exist
// at elapsedSeconds.
func (a *Animator) StateFor(index int, elapsedSeconds float64) (EntityState, bool) {
	if index < 0 || index >= a.cfg.MaxSpawn {
		return EntityState{}, false
	}
	elapsed := sanitizeSeconds(elapsedSeconds)
	if !a.gateOpen(elapsed) {
		return EntityState{}, false
	}
	t := a.localTime(index, elapsed)
	if t < 0 {
		return EntityState{}, false
	}

	c := a.cfg
	st := EntityState{Index: index, LocalTime: t}
	switch {
	case t < c.Slide:
		st.Phase = Spawning
		st.Position = lerp(c.SpawnPoint, c.HatchPoint, ratio(t, c.Slide))
		st.Frame = 0
	case t < c.Slide+c.Idle:
		st.Phase = Hatched
		st.Position = c.HatchPoint
		st.Frame = frame(t-c.Slide, 2)
	case t < c.total():
		st.Phase = Walking
		walkT := t - c.Slide - c.Idle
		st.Position = lerp(c.HatchPoint, a.targets[index], ratio(walkT, c.Walk))
		st.Frame = frame(walkT, 4)
	default:
		st.Phase = Settled
		st.Position = a.targets[index]
		st.Frame = frame(t-c.total(), 2)
	}
	return st, true
}

// Snapshot returns every existing entity plus the derived counters.
func (a *Animator) Snapshot(elapsedSeconds float64) Herd {
	var h Herd
	h.Eligible = a.EligibleCount(elapsedSeconds)
	for i := 0; i < h.Eligible; i++ {
		st, ok := a.StateFor(i, elapsedSeconds)
		if !ok {
			continue
		}
		h.Entities = append(h.Entities, st)
		if st.Phase >= Hatched {
			h.Hatched++
		}
		if st.Phase == Settled {
			h.Settled++
		}
	}
	return h
}

func ratio(t, d float64) float64 {
	if d <= 0 {
		return 1
	}
	return t / d
}

// frame cycles through n sprite frames every framePeriod seconds.
func frame(t float64, n int) int {
	if t < 0 || math.IsInf(t, 0) || math.IsNaN(t) {
		return 0
	}
	return int(math.Mod(math.Floor(t/framePeriod), float64(n)))
}
