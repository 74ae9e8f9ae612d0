package statspane

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dylan/focusfarm/telemetry"
)

func TestSparkline_FixedRange(t *testing.T) {
	got := Sparkline([]float64{0, 50, 100}, 3, 0, 100)
	if got != "▁▄█" {
		t.Errorf("Expected ▁▄█, got %q", got)
	}
}

func TestSparkline_AutoScale(t *testing.T) {
	got := Sparkline([]float64{10, 20}, 2, 0, 0)
	if got != "▁█" {
		t.Errorf("Expected ▁█, got %q", got)
	}
}

func TestSparkline_FlatSeries(t *testing.T) {
	got := Sparkline([]float64{5, 5, 5}, 3, 0, 0)
	if got != "▁▁▁" {
		t.Errorf("Expected flat line, got %q", got)
	}
}

func TestSparkline_KeepsLastValuesAndPads(t *testing.T) {
	got := Sparkline([]float64{100, 0, 100}, 2, 0, 100)
	if got != "▁█" {
		t.Errorf("Expected last two values, got %q", got)
	}
	got = Sparkline([]float64{100}, 4, 0, 100)
	if utf8.RuneCountInString(got) != 4 || !strings.HasPrefix(got, "█") {
		t.Errorf("Expected padded sparkline, got %q", got)
	}
	if Sparkline(nil, 0, 0, 0) != "" {
		t.Errorf("Expected empty sparkline for zero width")
	}
}

func TestSparkline_ClampsOutOfRange(t *testing.T) {
	got := Sparkline([]float64{-10, 200}, 2, 0, 100)
	if got != "▁█" {
		t.Errorf("Expected clamped values, got %q", got)
	}
}

func TestView_ShowsStats(t *testing.T) {
	m := New(true)
	m.SetSize(40, 30)
	m.SetAggregate(telemetry.Aggregate{
		State:           telemetry.Running,
		Connection:      telemetry.Connected,
		Score:           72,
		Average:         61.25,
		Peak:            93,
		GoodTime:        105 * time.Second,
		HasReceivedData: true,
		DisplayHistory:  []float64{10, 50, 90},
		ChannelValues:   []float64{12.5},
		ChannelHistory:  [][]float64{{1, 2, 3}},
	}, 192*time.Second)

	out := m.View()
	for _, want := range []string{"Focus Score", "72", "03:12", "1:45", "61.2", "93.0", "Monitoring Focus", "Ch1", "12.5 µV"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in view", want)
		}
	}
}

func TestView_HidesChannels(t *testing.T) {
	m := New(true)
	m.SetSize(40, 30)
	m.ToggleChannels()
	m.SetAggregate(telemetry.Aggregate{
		ChannelValues:  []float64{1},
		ChannelHistory: [][]float64{{1}},
	}, 0)
	if strings.Contains(m.View(), "Ch1") {
		t.Errorf("Expected channels hidden")
	}
}

func TestView_SpinnerWhileConnecting(t *testing.T) {
	m := New(false)
	m.SetSize(40, 20)
	m.SetSpinner("*")
	m.SetAggregate(telemetry.Aggregate{Connection: telemetry.Disconnected}, 0)
	if !strings.Contains(m.View(), "* Connecting...") {
		t.Errorf("Expected spinner before status")
	}
}
