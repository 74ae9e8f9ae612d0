package farmview

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/dylan/focusfarm/farm"
)

func newTestModel() Model {
	plot := farm.NewPlot(farm.DefaultPlotConfig())
	anim := farm.NewAnimator(farm.DefaultSpawnConfig(plot.AllGrownTime()))
	m := New(plot, anim)
	m.SetSize(60, 24)
	return m
}

func TestCounts_EmptyAtStart(t *testing.T) {
	m := newTestModel()
	plants, total, chickens := m.Counts()
	if plants != 0 || chickens != 0 {
		t.Errorf("Expected empty farm, got %d plants %d chickens", plants, chickens)
	}
	if total != 20 {
		t.Errorf("Expected 20 slots, got %d", total)
	}
}

func TestCounts_AllGrown(t *testing.T) {
	m := newTestModel()
	m.SetElapsed(time.Duration(m.plot.AllGrownTime()) * time.Second)
	plants, total, _ := m.Counts()
	if plants != total {
		t.Errorf("Expected %d grown plants, got %d", total, plants)
	}
}

func TestCounts_ChickensAfterHatch(t *testing.T) {
	m := newTestModel()
	cfg := m.animator.Config()
	after := cfg.FirstEligible + cfg.Slide + 1.5
	m.SetElapsed(time.Duration(after * float64(time.Second)))
	_, _, chickens := m.Counts()
	if chickens != 1 {
		t.Errorf("Expected 1 chicken, got %d", chickens)
	}
}

func TestCounts_ChickensOnWholeSeconds(t *testing.T) {
	m := newTestModel()
	cfg := m.animator.Config()
	// 0.4s past the slide on the default integer gate floors back inside it.
	after := cfg.FirstEligible + cfg.Slide + 0.4
	if cfg.FirstEligible != math.Floor(cfg.FirstEligible) || cfg.Slide-math.Floor(cfg.Slide) < 0.5 {
		t.Skipf("default timings changed: gate %v slide %v", cfg.FirstEligible, cfg.Slide)
	}
	m.SetElapsed(time.Duration(after * float64(time.Second)))
	_, _, chickens := m.Counts()
	if chickens != 0 {
		t.Errorf("Expected no chicken before the whole second passes the slide, got %d", chickens)
	}
	if got := m.animator.Snapshot(math.Floor(after)).Hatched; got != chickens {
		t.Errorf("Expected counter to match the whole-second snapshot %d, got %d", got, chickens)
	}
}

func TestView_HeaderAndHeight(t *testing.T) {
	m := newTestModel()
	out := m.View()
	if !strings.Contains(out, "Plants:") || !strings.Contains(out, "0 / 20") {
		t.Errorf("Expected plant counter in header, got %q", strings.Split(out, "\n")[0])
	}
	if !strings.Contains(out, "Chickens:") {
		t.Errorf("Expected chicken counter in header")
	}
	if got := len(strings.Split(out, "\n")); got != 24 {
		t.Errorf("Expected 24 lines, got %d", got)
	}
}

func TestView_TooSmall(t *testing.T) {
	m := newTestModel()
	m.SetSize(2, 2)
	if m.View() != "" {
		t.Errorf("Expected empty view for tiny pane")
	}
}

func TestPlantSprite_Stages(t *testing.T) {
	slot := farm.Slot{Crop: farm.Corn, MaxStage: 4, GrowthSeconds: 10}
	if got := plantSprite(farm.PlantState{Slot: slot}, 0); !strings.Contains(got, "_") {
		t.Errorf("Expected soil for unplanted slot, got %q", got)
	}
	if got := plantSprite(farm.PlantState{Slot: slot, Stage: 4, Planted: true}, 10); !strings.Contains(got, "Y") {
		t.Errorf("Expected ripe corn, got %q", got)
	}
	cherry := farm.Slot{Crop: farm.Cherry, MaxStage: 4, GrowthSeconds: 10}
	if got := plantSprite(farm.PlantState{Slot: cherry, Stage: 4, Planted: true}, 10); !strings.Contains(got, "@") {
		t.Errorf("Expected ripe cherry, got %q", got)
	}
}

func TestProject_Corners(t *testing.T) {
	x, y := project(farm.Point{X: 0, Y: 0}, 11, 5)
	if x != 0 || y != 0 {
		t.Errorf("Expected (0,0), got (%d,%d)", x, y)
	}
	x, y = project(farm.Point{X: 100, Y: 100}, 11, 5)
	if x != 10 || y != 4 {
		t.Errorf("Expected (10,4), got (%d,%d)", x, y)
	}
}
