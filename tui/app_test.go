package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dylan/focusfarm/config"
	"github.com/dylan/focusfarm/telemetry"
	"github.com/dylan/focusfarm/tui/shared"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

type fakeController struct {
	startErr error
	started  []string
	stopped  int
}

func (f *fakeController) StartSession(ctx context.Context, sessionID string) error {
	f.started = append(f.started, sessionID)
	return f.startErr
}

func (f *fakeController) StopSession(ctx context.Context) error {
	f.stopped++
	return nil
}

func newTestApp() (App, *fakeClock, *fakeController) {
	fc := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	ctrl := &fakeController{}
	app := NewApp(config.Config{}, Deps{
		Controller: ctrl,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:      fc,
	})
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App), fc, ctrl
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func runeKey(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

var enterKey = tea.KeyMsg{Type: tea.KeyEnter}

func TestApp_ToggleStartsAndStopsSession(t *testing.T) {
	a, _, _ := newTestApp()
	if a.State() != telemetry.Idle {
		t.Fatalf("Expected Idle, got %v", a.State())
	}

	a, cmd := update(t, a, enterKey)
	if a.State() != telemetry.Calibrating {
		t.Errorf("Expected Calibrating, got %v", a.State())
	}
	if cmd == nil {
		t.Errorf("Expected start command")
	}
	if a.sessionID == "" {
		t.Errorf("Expected a session id")
	}

	a, cmd = update(t, a, enterKey)
	if a.State() != telemetry.Idle {
		t.Errorf("Expected Idle after stop, got %v", a.State())
	}
	if cmd == nil {
		t.Errorf("Expected stop command")
	}
}

func TestApp_StartFailureReturnsToIdle(t *testing.T) {
	a, _, _ := newTestApp()
	a, _ = update(t, a, enterKey)
	gen := a.norm.Generation()

	a, cmd := update(t, a, shared.SessionStartedMsg{Generation: gen, Err: errors.New("backend down")})
	if a.State() != telemetry.Idle {
		t.Errorf("Expected Idle, got %v", a.State())
	}
	if cmd == nil {
		t.Errorf("Expected a feedback dismiss command")
	}
	if a.feedback == nil || a.feedback.Level != shared.FeedbackError {
		t.Errorf("Expected error feedback, got %+v", a.feedback)
	}
}

func TestApp_StaleStartFailureIgnored(t *testing.T) {
	a, _, _ := newTestApp()
	a, _ = update(t, a, enterKey)
	stale := a.norm.Generation()
	a, _ = update(t, a, enterKey)
	a, _ = update(t, a, enterKey)

	a, _ = update(t, a, shared.SessionStartedMsg{Generation: stale, Err: context.Canceled})
	if a.State() != telemetry.Calibrating {
		t.Errorf("Expected Calibrating, got %v", a.State())
	}
	if a.feedback != nil && a.feedback.Level == shared.FeedbackError {
		t.Errorf("Expected no error feedback for a stale result")
	}
}

func TestApp_StartSessionCmdCallsController(t *testing.T) {
	ctrl := &fakeController{}
	msg := startSessionCmd(context.Background(), ctrl, 7, "abc", nil)()
	started, ok := msg.(shared.SessionStartedMsg)
	if !ok {
		t.Fatalf("Expected SessionStartedMsg, got %T", msg)
	}
	if started.Generation != 7 || started.Err != nil {
		t.Errorf("Expected generation 7 without error, got %+v", started)
	}
	if len(ctrl.started) != 1 || ctrl.started[0] != "abc" {
		t.Errorf("Expected controller start with abc, got %v", ctrl.started)
	}

	ctrl.startErr = errors.New("boom")
	started = startSessionCmd(context.Background(), ctrl, 8, "def", nil)().(shared.SessionStartedMsg)
	if !errors.Is(started.Err, ctrl.startErr) {
		t.Errorf("Expected wrapped controller error, got %v", started.Err)
	}
}

func TestApp_StopSessionCmdCallsController(t *testing.T) {
	ctrl := &fakeController{}
	done := make(chan struct{})
	msg := stopSessionCmd(ctrl, 3, done)().(shared.SessionStoppedMsg)
	if msg.Generation != 3 || msg.Err != nil {
		t.Errorf("Expected generation 3 without error, got %+v", msg)
	}
	if ctrl.stopped != 1 {
		t.Errorf("Expected 1 stop call, got %d", ctrl.stopped)
	}
	select {
	case <-done:
	default:
		t.Errorf("Expected done to be closed after the stop call")
	}
}

func TestApp_TickLoopHaltsOnStop(t *testing.T) {
	a, _, _ := newTestApp()
	a, _ = update(t, a, enterKey)
	id := a.tickID

	a, cmd := update(t, a, shared.TickMsg{ID: id})
	if cmd == nil {
		t.Fatalf("Expected tick to re-arm while calibrating")
	}

	a, _ = update(t, a, enterKey)
	_, cmd = update(t, a, shared.TickMsg{ID: id})
	if cmd != nil {
		t.Errorf("Expected pending tick to be ignored after stop")
	}
}

func TestApp_TickCompletesCalibrationOnTimeout(t *testing.T) {
	a, fc, _ := newTestApp()
	a, _ = update(t, a, enterKey)

	fc.Advance(21 * time.Second)
	a, cmd := update(t, a, shared.TickMsg{ID: a.tickID})
	if a.State() != telemetry.Running {
		t.Errorf("Expected Running after timeout, got %v", a.State())
	}
	if cmd == nil {
		t.Errorf("Expected tick to keep running")
	}
}

func TestApp_TelemetryUpdatesAggregates(t *testing.T) {
	events := make(chan telemetry.Event, 1)
	fc := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	a := NewApp(config.Config{}, Deps{
		Controller: &fakeController{},
		Events:     events,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:      fc,
	})
	a, _ = update(t, a, enterKey)

	a, cmd := update(t, a, shared.TelemetryMsg{Event: telemetry.StreamConnected{}})
	if cmd == nil {
		t.Errorf("Expected wait command to be re-armed")
	}
	a, _ = update(t, a, shared.TelemetryMsg{Event: telemetry.CalibrationComplete{Mu: 0.4, Sigma: 0.05}})
	if a.State() != telemetry.Running {
		t.Fatalf("Expected Running, got %v", a.State())
	}
	a, _ = update(t, a, shared.TelemetryMsg{Event: telemetry.MetricSample{Score: 72, State: telemetry.SampleRunning}})

	snap := a.Snapshot()
	if snap.Score != 72 {
		t.Errorf("Expected score 72, got %v", snap.Score)
	}
	if snap.Connection != telemetry.Connected {
		t.Errorf("Expected Connected, got %v", snap.Connection)
	}
}

func TestApp_WaitForEventReportsClosedStream(t *testing.T) {
	events := make(chan telemetry.Event)
	close(events)
	msg := waitForEvent(events)()
	if _, ok := msg.(shared.StreamClosedMsg); !ok {
		t.Errorf("Expected StreamClosedMsg, got %T", msg)
	}
	if waitForEvent(nil) != nil {
		t.Errorf("Expected nil command for a nil channel")
	}
}

func TestApp_ResetOnlyWhenIdle(t *testing.T) {
	a, _, _ := newTestApp()
	a, _ = update(t, a, enterKey)

	a, _ = update(t, a, runeKey("r"))
	if a.feedback == nil || a.feedback.Level != shared.FeedbackWarning {
		t.Errorf("Expected warning feedback while calibrating, got %+v", a.feedback)
	}
	if a.State() != telemetry.Calibrating {
		t.Errorf("Expected reset to be refused, got %v", a.State())
	}

	a, _ = update(t, a, enterKey)
	a, _ = update(t, a, runeKey("r"))
	if a.feedback == nil || a.feedback.Message != "Farm reset" {
		t.Errorf("Expected reset feedback, got %+v", a.feedback)
	}
}

func TestApp_PauseTogglesFarmClock(t *testing.T) {
	a, fc, _ := newTestApp()
	a, _ = update(t, a, enterKey)
	a, _ = update(t, a, shared.TelemetryMsg{Event: telemetry.CalibrationComplete{}})

	fc.Advance(5 * time.Second)
	a, _ = update(t, a, runeKey("p"))
	if a.norm.SessionClock().Running() {
		t.Fatalf("Expected farm clock paused")
	}
	fc.Advance(5 * time.Second)
	if got := a.norm.SessionClock().Elapsed(); got != 5*time.Second {
		t.Errorf("Expected 5s elapsed while paused, got %v", got)
	}

	a, _ = update(t, a, runeKey("p"))
	if !a.norm.SessionClock().Running() {
		t.Errorf("Expected farm clock resumed")
	}
}

func TestApp_DismissFeedbackMatchesTimestamp(t *testing.T) {
	a, _, _ := newTestApp()
	a, _ = update(t, a, runeKey("r"))
	if a.feedback == nil {
		t.Fatalf("Expected feedback")
	}
	ts := a.feedback.Timestamp

	a, _ = update(t, a, shared.DismissFeedbackMsg{Timestamp: ts.Add(-time.Second)})
	if a.feedback == nil {
		t.Errorf("Expected feedback to survive a stale dismiss")
	}
	a, _ = update(t, a, shared.DismissFeedbackMsg{Timestamp: ts})
	if a.feedback != nil {
		t.Errorf("Expected feedback dismissed")
	}
}

func TestApp_HelpCapturesKeys(t *testing.T) {
	a, _, _ := newTestApp()
	a, _ = update(t, a, runeKey("?"))
	if !a.showHelp {
		t.Fatalf("Expected help shown")
	}
	a, _ = update(t, a, enterKey)
	if a.State() != telemetry.Idle {
		t.Errorf("Expected keys ignored while help is open")
	}
	if !strings.Contains(a.View(), "FocusFarm Help") {
		t.Errorf("Expected help view")
	}
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.showHelp {
		t.Errorf("Expected esc to close help")
	}
}

func TestApp_ToggleStatsChangesLayout(t *testing.T) {
	a, _, _ := newTestApp()
	if !a.statsVisible() {
		t.Fatalf("Expected stats visible by default")
	}
	a, _ = update(t, a, runeKey("s"))
	if a.statsVisible() {
		t.Errorf("Expected stats hidden")
	}
	if !strings.Contains(a.View(), "Plants:") {
		t.Errorf("Expected farm header in view")
	}
}

func TestApp_CalibrationOverlayShown(t *testing.T) {
	a, _, _ := newTestApp()
	a, _ = update(t, a, enterKey)
	if !strings.Contains(a.View(), "Calibrating") {
		t.Errorf("Expected calibration overlay while calibrating")
	}
}

func TestApp_QuitKey(t *testing.T) {
	a, _, _ := newTestApp()
	_, cmd := update(t, a, runeKey("q"))
	if cmd == nil {
		t.Fatalf("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("Expected QuitMsg")
	}
}

// orderedController records call order and holds StopSession until release
// is closed.
type orderedController struct {
	mu      sync.Mutex
	calls   []string
	release chan struct{}
}

func (o *orderedController) record(call string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, call)
}

func (o *orderedController) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}

func (o *orderedController) StartSession(ctx context.Context, sessionID string) error {
	o.record("start")
	return nil
}

func (o *orderedController) StopSession(ctx context.Context) error {
	<-o.release
	o.record("stop")
	return nil
}

// runBatch runs every command of a possibly batched Cmd concurrently and
// forwards the messages they produce.
func runBatch(cmd tea.Cmd, out chan<- tea.Msg) {
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				go runBatch(c, out)
			}
		}
		return
	}
	out <- msg
}

func TestApp_RestartWaitsForPendingStop(t *testing.T) {
	ctrl := &orderedController{release: make(chan struct{})}
	a := NewApp(config.Config{}, Deps{
		Controller: ctrl,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:      &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
	})

	a, _ = update(t, a, enterKey)
	a, stopCmd := update(t, a, enterKey)
	a, startCmd := update(t, a, enterKey)
	if a.State() != telemetry.Calibrating {
		t.Fatalf("Expected Calibrating, got %v", a.State())
	}

	msgs := make(chan tea.Msg, 8)
	go runBatch(stopCmd, msgs)
	go runBatch(startCmd, msgs)

	time.Sleep(50 * time.Millisecond)
	if calls := ctrl.Calls(); len(calls) != 0 {
		t.Fatalf("Expected start to wait for the pending stop, got calls %v", calls)
	}
	close(ctrl.release)

	deadline := time.After(2 * time.Second)
	for started := false; !started; {
		select {
		case msg := <-msgs:
			if m, ok := msg.(shared.SessionStartedMsg); ok {
				if m.Err != nil {
					t.Fatalf("Expected start to succeed, got %v", m.Err)
				}
				started = true
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for the start result")
		}
	}

	calls := ctrl.Calls()
	if len(calls) != 2 || calls[0] != "stop" || calls[1] != "start" {
		t.Errorf("Expected [stop start], got %v", calls)
	}
}

func TestApp_StopCancelsStartWaitingOnStop(t *testing.T) {
	prev := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctrl := &fakeController{}
	msg := startSessionCmd(ctx, ctrl, 4, "xyz", prev)().(shared.SessionStartedMsg)
	if !errors.Is(msg.Err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", msg.Err)
	}
	if len(ctrl.started) != 0 {
		t.Errorf("Expected no start call, got %v", ctrl.started)
	}
}

func TestApp_SaveKeyPersistsPanelLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	a := NewApp(config.Config{}, Deps{
		Controller: &fakeController{},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:      &fakeClock{},
		ConfigPath: path,
	})
	a, _ = update(t, a, runeKey("s"))
	a, _ = update(t, a, runeKey("c"))

	a, cmd := update(t, a, runeKey("w"))
	if cmd == nil {
		t.Fatalf("Expected save command")
	}
	fb, ok := cmd().(shared.FeedbackMsg)
	if !ok || fb.Feedback.Level != shared.FeedbackSuccess {
		t.Fatalf("Expected success feedback, got %+v", fb)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Expected saved config to load, got %v", err)
	}
	if cfg.ResolvedShowStats() || cfg.ResolvedShowChannels() {
		t.Errorf("Expected both panels saved as hidden, got stats=%v channels=%v",
			cfg.ResolvedShowStats(), cfg.ResolvedShowChannels())
	}
}

func TestApp_SaveKeyWithoutPath(t *testing.T) {
	a, _, _ := newTestApp()
	a, _ = update(t, a, runeKey("w"))
	if a.feedback == nil || a.feedback.Level != shared.FeedbackWarning {
		t.Errorf("Expected warning feedback, got %+v", a.feedback)
	}
}
