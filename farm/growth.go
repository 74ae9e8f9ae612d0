package farm

import "math"

// Crop selects the sprite set of a plant slot.
type Crop int

const (
	Corn Crop = iota
	Cherry
)

func (c Crop) String() string {
	if c == Cherry {
		return "cherry"
	}
	return "corn"
}

// Slot is one plant position in the plot grid.
type Slot struct {
	Index          int
	Row            int
	Col            int
	Crop           Crop
	StaggerSeconds float64
	GrowthSeconds  float64
	MaxStage       int
}

// StartTime is the elapsed second at which the slot is planted.
func (s Slot) StartTime() float64 {
	return float64(s.Index) * s.StaggerSeconds
}

// StageFor maps elapsed seconds to the slot's growth stage. planted is false
// until the stagger offset has elapsed; the slot is absent, not stage 0.
//
// The stage is floor(ratio*(maxStage+1)) clamped to maxStage, so the last
// stage is reached at growthSeconds*maxStage/(maxStage+1), before the growth
// duration is over. FullyGrown is the separate, stricter predicate.
func StageFor(s Slot, elapsedSeconds float64) (stage int, planted bool) {
	elapsed := sanitizeSeconds(elapsedSeconds)
	start := s.StartTime()
	if elapsed < start {
		return 0, false
	}
	if s.GrowthSeconds <= 0 {
		return s.MaxStage, true
	}
	ratio := (elapsed - start) / s.GrowthSeconds
	if ratio >= 1 {
		return s.MaxStage, true
	}
	stage = int(math.Floor(ratio * float64(s.MaxStage+1)))
	if stage > s.MaxStage {
		stage = s.MaxStage
	}
	return stage, true
}

// AtMaxStage reports whether the slot shows its final sprite.
func AtMaxStage(s Slot, elapsedSeconds float64) bool {
	stage, planted := StageFor(s, elapsedSeconds)
	return planted && stage == s.MaxStage
}

// FullyGrown reports whether the whole growth duration has elapsed. This is
// the rule behind the plot's grown counter and is deliberately not the same
// as AtMaxStage.
func FullyGrown(s Slot, elapsedSeconds float64) bool {
	return sanitizeSeconds(elapsedSeconds) >= s.StartTime()+s.GrowthSeconds
}

// sanitizeSeconds maps NaN, negative and -Inf to zero. +Inf is kept.
func sanitizeSeconds(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
