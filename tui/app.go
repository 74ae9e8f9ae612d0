package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dylan/focusfarm/clock"
	"github.com/dylan/focusfarm/config"
	"github.com/dylan/focusfarm/farm"
	"github.com/dylan/focusfarm/metrics"
	"github.com/dylan/focusfarm/telemetry"
	"github.com/dylan/focusfarm/tui/calibration"
	"github.com/dylan/focusfarm/tui/farmview"
	"github.com/dylan/focusfarm/tui/help"
	"github.com/dylan/focusfarm/tui/shared"
	"github.com/dylan/focusfarm/tui/statspane"
	"github.com/google/uuid"
)

// requestTimeout bounds a single start or stop call to the backend.
const requestTimeout = 10 * time.Second

// Deps are the collaborators the dashboard drives. Events may be nil, in
// which case no telemetry is received. An empty ConfigPath disables saving.
type Deps struct {
	Controller telemetry.Controller
	Events     <-chan telemetry.Event
	Recorder   *metrics.Recorder
	Logger     *slog.Logger
	Clock      clock.Clock
	ConfigPath string
}

type App struct {
	cfg  config.Config
	deps Deps
	norm *telemetry.Normalizer

	showHelp  bool
	showStats bool

	farmView    farmview.Model
	statsPane   statspane.Model
	calibration calibration.Model
	helpView    help.Model
	spinner     spinner.Model

	loaders  shared.Loaders
	feedback *shared.Feedback

	tickEvery   time.Duration
	tickID      int
	sessionID   string
	cancelStart context.CancelFunc
	stopDone    <-chan struct{} // closed once the last stop request returned

	width  int
	height int
}

func NewApp(cfg config.Config, deps Deps) App {
	shared.InitStyles(cfg.ResolvedTheme())

	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.NewRecorder()
	}

	settings := NormalizerSettings(cfg)
	plot := farm.NewPlot(PlotConfig(cfg))
	animator := farm.NewAnimator(SpawnConfig(cfg, plot))

	sp := spinner.New()
	sp.Spinner = shared.SpinnerType
	sp.Style = shared.SpinnerStyle

	app := App{
		cfg:         cfg,
		deps:        deps,
		norm:        telemetry.NewNormalizer(settings, clock.NewSessionClock(deps.Clock)),
		showStats:   cfg.ResolvedShowStats(),
		farmView:    farmview.New(plot, animator),
		statsPane:   statspane.New(cfg.ResolvedShowChannels()),
		calibration: calibration.New(settings.CalibrationDuration),
		helpView:    help.New(),
		spinner:     sp,
		loaders:     shared.Loaders{},
		tickEvery:   cfg.ResolvedTick(),
	}
	app.refresh()
	return app
}

// NormalizerSettings maps the telemetry section onto normalizer settings.
func NormalizerSettings(cfg config.Config) telemetry.Settings {
	t := cfg.ResolvedTelemetry()
	return telemetry.Settings{
		ScoreCapacity:       t.ScoreCapacity,
		DisplayCapacity:     t.DisplayCapacity,
		GoodThreshold:       t.GoodThreshold,
		SampleInterval:      time.Duration(t.SampleIntervalMs) * time.Millisecond,
		CalibrationDuration: seconds(t.CalibrationSeconds),
		CalibrationTimeout:  seconds(t.CalibrationTimeoutSeconds),
	}
}

func PlotConfig(cfg config.Config) farm.PlotConfig {
	f := cfg.ResolvedFarm()
	return farm.PlotConfig{
		Rows:           f.Rows,
		Cols:           f.Cols,
		Stages:         f.Stages,
		GrowthSeconds:  f.GrowthSeconds,
		StaggerSeconds: f.StaggerSeconds,
	}
}

// SpawnConfig gates spawning on the plot being fully grown.
func SpawnConfig(cfg config.Config, plot farm.Plot) farm.SpawnConfig {
	s := cfg.ResolvedSpawn()
	sc := farm.DefaultSpawnConfig(plot.AllGrownTime())
	sc.Slide = s.SlideSeconds
	sc.Idle = s.IdleSeconds
	sc.Walk = s.WalkSeconds
	sc.Interval = s.IntervalSeconds
	sc.MaxSpawn = s.MaxSpawn
	sc.Placement.GridCols = s.GridCols
	sc.Placement.GridRows = s.GridRows
	sc.Placement.Candidates = s.Candidates
	return sc
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func (a App) Init() tea.Cmd {
	return tea.Batch(waitForEvent(a.deps.Events), a.spinner.Tick)
}

// State reports the current session state.
func (a App) State() telemetry.SessionState {
	return a.norm.State()
}

// Snapshot returns the current aggregates.
func (a App) Snapshot() telemetry.Aggregate {
	return a.norm.Snapshot()
}

func (a App) now() time.Time {
	return a.deps.Clock.Now()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layoutSizes()
		a.helpView.SetSize(msg.Width, msg.Height)
		return a, nil

	case shared.TickMsg:
		if msg.ID != a.tickID {
			return a, nil
		}
		if a.norm.Tick(a.now()) && a.norm.State() == telemetry.Running {
			a.deps.Logger.Info("calibration finished", "session", a.sessionID)
		}
		a.refresh()
		if a.norm.State() == telemetry.Idle {
			return a, nil
		}
		return a, tickCmd(a.tickEvery, a.tickID)

	case shared.TelemetryMsg:
		cmd := a.handleEvent(msg.Event)
		a.refresh()
		return a, tea.Batch(cmd, waitForEvent(a.deps.Events))

	case shared.StreamClosedMsg:
		a.deps.Logger.Warn("telemetry stream closed")
		a.norm.Handle(telemetry.StreamDisconnected{})
		a.refresh()
		return a, nil

	case shared.SessionStartedMsg:
		a.loaders.Stop(shared.OpStart)
		if msg.Err != nil {
			if !a.norm.StartFailed(msg.Generation) {
				a.deps.Logger.Debug("ignoring stale start result", "generation", msg.Generation, "err", msg.Err)
				return a, nil
			}
			a.deps.Logger.Error("start session failed", "session", msg.SessionID, "err", msg.Err)
			a.refresh()
			return a, a.setFeedback(shared.FeedbackError, "Could not start session", msg.Err.Error())
		}
		if msg.Generation != a.norm.Generation() {
			return a, nil
		}
		a.deps.Logger.Info("session started", "session", msg.SessionID)
		return a, a.setFeedback(shared.FeedbackSuccess, "Session started", "")

	case shared.SessionStoppedMsg:
		a.loaders.Stop(shared.OpStop)
		if msg.Err != nil {
			a.deps.Logger.Warn("stop session failed", "err", msg.Err)
			return a, a.setFeedback(shared.FeedbackWarning, "Stop request failed", msg.Err.Error())
		}
		return a, nil

	case shared.FeedbackMsg:
		return a, a.setFeedback(msg.Feedback.Level, msg.Feedback.Message, msg.Feedback.Detail)

	case shared.DismissFeedbackMsg:
		if a.feedback != nil && a.feedback.Timestamp.Equal(msg.Timestamp) {
			a.feedback = nil
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.statsPane.SetSpinner(a.spinner.View())
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) handleEvent(e telemetry.Event) tea.Cmd {
	wasConnected := a.norm.Connection() == telemetry.Connected
	prev := a.norm.State()
	a.norm.Handle(e)

	switch e.(type) {
	case telemetry.StreamConnected:
		if !wasConnected {
			a.loaders.Stop(shared.OpConnect)
			a.deps.Logger.Info("telemetry connected")
			return a.setFeedback(shared.FeedbackInfo, "Connected", "")
		}
	case telemetry.StreamDisconnected:
		if wasConnected {
			a.loaders = a.loaders.Start(shared.OpConnect, "Reconnecting")
			a.deps.Logger.Warn("telemetry disconnected")
			return a.setFeedback(shared.FeedbackWarning, "Telemetry disconnected", "")
		}
	}
	if prev == telemetry.Calibrating && a.norm.State() == telemetry.Running {
		a.deps.Logger.Info("calibration finished", "session", a.sessionID)
	}
	return nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, shared.Keys.Quit) {
		if a.cancelStart != nil {
			a.cancelStart()
		}
		return a, tea.Quit
	}

	if a.showHelp {
		if key.Matches(msg, shared.Keys.Help) || key.Matches(msg, shared.Keys.Escape) {
			a.showHelp = false
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, shared.Keys.Help):
		a.showHelp = true
		return a, nil

	case key.Matches(msg, shared.Keys.Toggle):
		if a.norm.State() == telemetry.Idle {
			return a, a.startSession()
		}
		return a, a.stopSession()

	case key.Matches(msg, shared.Keys.Pause):
		if a.norm.State() != telemetry.Running {
			return a, nil
		}
		sc := a.norm.SessionClock()
		sc.Toggle()
		a.refresh()
		if sc.Running() {
			return a, a.setFeedback(shared.FeedbackInfo, "Farm clock resumed", "")
		}
		return a, a.setFeedback(shared.FeedbackInfo, "Farm clock paused", "")

	case key.Matches(msg, shared.Keys.Reset):
		if !a.norm.Reset() {
			return a, a.setFeedback(shared.FeedbackWarning, "Stop the session before resetting", "")
		}
		a.refresh()
		return a, a.setFeedback(shared.FeedbackInfo, "Farm reset", "")

	case key.Matches(msg, shared.Keys.ToggleStats):
		a.showStats = !a.showStats
		a.layoutSizes()
		return a, nil

	case key.Matches(msg, shared.Keys.ToggleChannels):
		a.statsPane.ToggleChannels()
		return a, nil

	case key.Matches(msg, shared.Keys.Save):
		if a.deps.ConfigPath == "" {
			return a, a.setFeedback(shared.FeedbackWarning, "No config file to save to", "")
		}
		showStats, showChannels := a.showStats, a.statsPane.ShowChannels()
		a.cfg.Display.ShowStats = &showStats
		a.cfg.Display.ShowChannels = &showChannels
		return a, saveConfigCmd(a.deps.ConfigPath, a.cfg)
	}
	return a, nil
}

func (a *App) startSession() tea.Cmd {
	gen := a.norm.Start(a.now())
	a.sessionID = uuid.NewString()
	if a.cancelStart != nil {
		a.cancelStart()
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	a.cancelStart = cancel
	a.loaders = a.loaders.Start(shared.OpStart, "Starting session")
	a.deps.Logger.Info("starting session", "session", a.sessionID, "generation", gen)
	a.refresh()

	a.tickID++
	return tea.Batch(
		tickCmd(a.tickEvery, a.tickID),
		startSessionCmd(ctx, a.deps.Controller, gen, a.sessionID, a.stopDone),
	)
}

func (a *App) stopSession() tea.Cmd {
	if a.cancelStart != nil {
		a.cancelStart()
		a.cancelStart = nil
	}
	a.loaders.Stop(shared.OpStart)
	gen := a.norm.Stop()
	a.tickID++
	a.loaders = a.loaders.Start(shared.OpStop, "Stopping session")
	a.deps.Logger.Info("stopping session", "session", a.sessionID, "generation", gen)
	a.refresh()
	done := make(chan struct{})
	a.stopDone = done
	return stopSessionCmd(a.deps.Controller, gen, done)
}

// refresh pushes the current aggregates into the panes and metrics.
func (a *App) refresh() {
	snap := a.norm.Snapshot()
	elapsed := a.norm.SessionClock().Elapsed()

	a.farmView.SetElapsed(elapsed)
	a.statsPane.SetAggregate(snap, elapsed)
	a.statsPane.SetSpinner(a.spinner.View())
	a.calibration.SetProgress(snap.CalibrationProgress)

	plants, _, chickens := a.farmView.Counts()
	a.deps.Recorder.Observe(snap)
	a.deps.Recorder.ObserveFarm(elapsed.Seconds(), plants, chickens)
}

func (a *App) setFeedback(level shared.FeedbackLevel, message, detail string) tea.Cmd {
	ts := time.Now()
	a.feedback = &shared.Feedback{
		Level:     level,
		Message:   message,
		Detail:    detail,
		Timestamp: ts,
	}
	return tea.Tick(shared.FeedbackTTL(level), func(time.Time) tea.Msg {
		return shared.DismissFeedbackMsg{Timestamp: ts}
	})
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}
	if a.showHelp {
		return a.helpView.View()
	}
	if a.norm.State() == telemetry.Calibrating {
		return a.calibration.ViewOverlay(a.width, a.height)
	}

	contentH := a.contentHeight()
	farmView := a.farmView.View()
	var view string
	if a.statsVisible() {
		farmW := a.width - a.statsWidth()
		farmView = lipgloss.NewStyle().Width(farmW).Height(contentH).MaxHeight(contentH).Render(farmView)
		view = lipgloss.JoinHorizontal(lipgloss.Top, farmView, a.statsPane.View())
	} else {
		view = lipgloss.NewStyle().Width(a.width).Height(contentH).MaxHeight(contentH).Render(farmView)
	}
	return view + a.renderStatusBar()
}

func (a App) contentHeight() int {
	h := a.height - 1 // 1 for status bar
	if h < 3 {
		h = 3
	}
	return h
}

func (a App) statsVisible() bool {
	return a.showStats && a.width >= 60
}

// statsWidth is the configured percentage of the terminal width.
func (a App) statsWidth() int {
	return a.width * a.cfg.ResolvedStatsWidth() / 100
}

func (a *App) layoutSizes() {
	contentH := a.contentHeight()
	if a.statsVisible() {
		statsW := a.statsWidth()
		a.farmView.SetSize(a.width-statsW, contentH)
		// stats width accounts for left border (1 char)
		a.statsPane.SetSize(statsW-1, contentH)
	} else {
		a.farmView.SetSize(a.width, contentH)
	}
}

func (a App) renderStatusBar() string {
	state := a.norm.State().String()
	badge := shared.StateBadges[state].Render(strings.ToUpper(state))

	parts := []string{"FocusFarm", a.cfg.ResolvedTelemetry().Source}
	if a.norm.State() == telemetry.Running && !a.norm.SessionClock().Running() {
		parts = append(parts, "paused")
	}
	if a.loaders.Active() {
		parts = append(parts, a.spinner.View()+" "+a.loaders.Label())
	}
	status := strings.Join(parts, " │ ")
	if a.feedback != nil {
		status += " " + shared.FeedbackStyle(a.feedback.Level).Render(a.feedback.Message)
	}
	status += " │ ? for help"

	bar := shared.StatusBarStyle.Width(max(a.width-lipgloss.Width(badge), 0)).Render(status)
	return "\n" + badge + bar
}

// --- Commands ---

func tickCmd(d time.Duration, id int) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return shared.TickMsg{Time: t, ID: id}
	})
}

func waitForEvent(events <-chan telemetry.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return shared.StreamClosedMsg{}
		}
		return shared.TelemetryMsg{Event: e}
	}
}

// startSessionCmd waits for the previous stop request, if any, so the
// producer never sees a stop after the start that replaced it.
func startSessionCmd(ctx context.Context, c telemetry.Controller, gen uint64, sessionID string, prevStop <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		var err error
		if prevStop != nil {
			select {
			case <-prevStop:
			case <-ctx.Done():
				err = ctx.Err()
			}
		}
		if err == nil && c != nil {
			err = c.StartSession(ctx, sessionID)
		}
		if err != nil {
			err = fmt.Errorf("starting session %s: %w", sessionID, err)
		}
		return shared.SessionStartedMsg{Generation: gen, SessionID: sessionID, Err: err}
	}
}

func stopSessionCmd(c telemetry.Controller, gen uint64, done chan<- struct{}) tea.Cmd {
	return func() tea.Msg {
		defer close(done)
		if c == nil {
			return shared.SessionStoppedMsg{Generation: gen}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return shared.SessionStoppedMsg{Generation: gen, Err: c.StopSession(ctx)}
	}
}

func saveConfigCmd(path string, cfg config.Config) tea.Cmd {
	return func() tea.Msg {
		if err := config.Save(path, cfg); err != nil {
			return shared.FeedbackMsg{Feedback: shared.Feedback{
				Level:   shared.FeedbackError,
				Message: "Could not save config",
				Detail:  err.Error(),
			}}
		}
		return shared.FeedbackMsg{Feedback: shared.Feedback{
			Level:   shared.FeedbackSuccess,
			Message: "Saved panel layout",
		}}
	}
}
