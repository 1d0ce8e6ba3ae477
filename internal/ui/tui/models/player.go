package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/engine"
	"github.com/PizzaHomicide/vplay/internal/events"
	kb "github.com/PizzaHomicide/vplay/internal/keybindings"
	"github.com/PizzaHomicide/vplay/internal/log"
	"github.com/PizzaHomicide/vplay/internal/ui/tui/components"
	"github.com/PizzaHomicide/vplay/internal/ui/tui/styles"
	"github.com/PizzaHomicide/vplay/internal/ui/tui/util"
)

const statusInterval = 500 * time.Millisecond

// Options configures the player UI
type Options struct {
	// Sources are played in order; next and previous move through them
	Sources []string
	// Table is the player key binding table
	Table kb.Table
	// Controls lists the on-screen controls in display order.  Nil shows every control.
	Controls []kb.Control
	// Media and Container form the playback surface shared by every engine
	Media     domain.Media
	Container domain.Element
	// NewEngine creates the engine for a source
	NewEngine func(source string) *engine.Engine
}

// PlayerModel owns the playback engine of the current source and renders its state
type PlayerModel struct {
	opts Options

	current    int
	engine     *engine.Engine
	changeSub  events.Subscription
	changes    chan EngineChangedMsg
	dispatcher *kb.Dispatcher

	status   engine.Status
	theater  bool
	progress progress.Model
	loading  *LoadingModel

	// pending collects commands raised by key binding callbacks during a dispatch
	pending []tea.Cmd

	width, height int
}

// NewPlayerModel creates the player and the engine for the first source
func NewPlayerModel(opts Options) *PlayerModel {
	if opts.Table == nil {
		opts.Table = kb.DefaultTable()
	}
	p := &PlayerModel{
		opts:     opts,
		changes:  make(chan EngineChangedMsg, 32),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	p.pending = append(p.pending, p.switchTo(0))
	return p
}

func (p *PlayerModel) Init() tea.Cmd {
	cmds := append(p.takePending(), p.listenForChanges(), tickStatus())
	return tea.Batch(cmds...)
}

// Engine returns the engine of the current source
func (p *PlayerModel) Engine() *engine.Engine {
	return p.engine
}

// Theater reports whether theater mode is on
func (p *PlayerModel) Theater() bool {
	return p.theater
}

// Close tears down the current engine
func (p *PlayerModel) Close() {
	if p.changeSub != nil {
		p.changeSub.Cancel()
	}
	if p.engine != nil {
		p.engine.Close()
	}
}

// switchTo replaces the engine with a new one for the source at index
func (p *PlayerModel) switchTo(index int) tea.Cmd {
	p.Close()

	source := p.opts.Sources[index]
	p.current = index

	e := p.opts.NewEngine(source)
	e.SetSurface(p.opts.Media, p.opts.Container)

	id := e.ID()
	changes := p.changes
	p.changeSub = e.Subscribe(func(c engine.Change) {
		select {
		case changes <- EngineChangedMsg{SessionID: id, Change: c}:
		default:
			log.Trace("Dropping engine change, UI is behind", "session", id)
		}
	})

	p.engine = e
	p.dispatcher = p.newDispatcher(e)
	p.status = e.Status()
	p.loading = NewLoadingModel(source)
	if len(p.opts.Sources) > 1 {
		p.loading.WithHint(p.sourceHint())
	}
	p.loading.Resize(p.width, p.bodyHeight())

	log.Info("Switching source", "index", index, "source", source, "session", id)

	return tea.Batch(initialize(e), p.loading.Init())
}

func (p *PlayerModel) newDispatcher(e *engine.Engine) *kb.Dispatcher {
	opts := []kb.DispatcherOption{kb.WithTable(p.opts.Table)}
	if p.opts.Controls != nil {
		opts = append(opts, kb.WithControls(p.opts.Controls))
	}
	return kb.NewDispatcher(e, kb.UICallbacks{
		TheaterMode: func() { p.theater = !p.theater },
		Next:        func() { p.step(1) },
		Previous:    func() { p.step(-1) },
		Settings:    func() { p.pending = append(p.pending, msgCmd(OpenSettingsMsg{})) },
	}, opts...)
}

// step moves through the sources.  Moving past either end does nothing.
func (p *PlayerModel) step(delta int) {
	next := p.current + delta
	if next < 0 || next >= len(p.opts.Sources) {
		log.Debug("No more sources in that direction", "current", p.current, "delta", delta)
		return
	}
	p.pending = append(p.pending, p.switchTo(next))
}

func (p *PlayerModel) sourceHint() string {
	var parts []string
	for _, b := range []struct {
		action kb.Action
		desc   string
	}{{kb.ActionNext, "next"}, {kb.ActionPrevious, "previous"}} {
		if keys := p.opts.Table.Keys(b.action); len(keys) > 0 {
			parts = append(parts, kb.DisplayKey(keys[0])+" for the "+b.desc+" source")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Press " + strings.Join(parts, ", ")
}

func initialize(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		e.Initialize(context.Background())
		return EngineInitializedMsg{SessionID: e.ID()}
	}
}

func tickStatus() tea.Cmd {
	return tea.Tick(statusInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func (p *PlayerModel) listenForChanges() tea.Cmd {
	return func() tea.Msg {
		return <-p.changes
	}
}

func (p *PlayerModel) takePending() []tea.Cmd {
	cmds := p.pending
	p.pending = nil
	return cmds
}

// batch avoids wrapping a single command so callers can run it directly
func batch(cmds []tea.Cmd) tea.Cmd {
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

func (p *PlayerModel) refresh() {
	p.status = p.engine.Status()
}

func (p *PlayerModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		token := kb.TokenFromKeyName(msg.String())
		if action := p.dispatcher.Dispatch(token); action == kb.ActionNone {
			return p, nil
		}
		p.refresh()
		return p, batch(p.takePending())

	case EngineChangedMsg:
		if msg.SessionID == p.engine.ID() {
			p.refresh()
		} else {
			log.Trace("Ignoring change from a previous engine", "session", msg.SessionID)
		}
		return p, p.listenForChanges()

	case EngineInitializedMsg:
		if msg.SessionID == p.engine.ID() {
			p.refresh()
		}
		return p, nil

	case statusTickMsg:
		p.refresh()
		return p, tickStatus()

	case spinner.TickMsg:
		if p.loading != nil {
			_, cmd := p.loading.Update(msg)
			return p, cmd
		}
	}

	return p, nil
}

func (p *PlayerModel) Resize(width, height int) {
	p.width = width
	p.height = height
	p.progress.Width = max(width-24, 10)
	if p.loading != nil {
		p.loading.Resize(width, p.bodyHeight())
	}
}

func (p *PlayerModel) bodyHeight() int {
	return max(p.height-8, 1)
}

func (p *PlayerModel) View() string {
	var sections []string

	if !p.theater {
		title := fmt.Sprintf("vplay • [%d/%d] %s", p.current+1, len(p.opts.Sources), p.status.Source)
		sections = append(sections, styles.Header(p.width, util.TruncateString(title, max(p.width-2, 10))), "")
	}

	switch {
	case p.status.Err != nil:
		sections = append(sections, styles.ContentBox(max(p.width-4, 10),
			styles.Error.Render("Playback unavailable")+"\n\n"+styles.Info.Render(p.status.Err.Error()), 1))
	case p.status.Loading && !p.status.Ready:
		sections = append(sections, p.loading.View())
	case !p.theater:
		sections = append(sections, styles.ContentBox(max(p.width-4, 10), p.statusPanel(), 1))
	}

	sections = append(sections, "", p.timeline(), "", p.controlBar())

	footer := components.KeyBindingsBar(p.width, []components.KeyBinding{
		{Key: "?", Desc: "Help"},
		{Key: "q", Desc: "Quit"},
	})
	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (p *PlayerModel) statusPanel() string {
	st := p.status

	state := "▶ Playing"
	if st.Paused {
		state = "⏸ Paused"
	}

	var flags []string
	if st.Muted {
		flags = append(flags, "muted")
	}
	if st.FullScreen {
		flags = append(flags, "fullscreen")
	}
	if st.PictureInPicture {
		flags = append(flags, "picture-in-picture")
	}
	if len(flags) == 0 {
		flags = append(flags, "none")
	}

	rows := []string{
		lipgloss.NewStyle().Bold(true).Render(state),
		"",
		"Format:   " + string(st.Format),
		"Quality:  " + qualitySummary(p.engine.GetPlaybackQuality()),
		"Speed:    " + rateLabel(st.PlaybackRate),
		fmt.Sprintf("Buffered: %.0f%%", st.BufferPercent()),
		"Modes:    " + strings.Join(flags, ", "),
	}
	return strings.Join(rows, "\n")
}

func (p *PlayerModel) timeline() string {
	st := p.status
	times := fmt.Sprintf("%s / %s", util.FormatPlaybackTime(st.CurrentTime), util.FormatPlaybackTime(st.Duration))
	bar := p.progress.ViewAs(st.ProgressPercent() / 100)
	return styles.CenteredText(p.width, bar+"  "+styles.Muted.Render(times))
}

// controlLabels names the on-screen controls
var controlLabels = map[kb.Control]string{
	kb.ControlPlay:             "Play",
	kb.ControlPrevious:         "Prev",
	kb.ControlNext:             "Next",
	kb.ControlMute:             "Mute",
	kb.ControlSettings:         "Settings",
	kb.ControlPictureInPicture: "PiP",
	kb.ControlTheaterMode:      "Theater",
	kb.ControlFullscreen:       "Fullscreen",
}

var controlActions = map[kb.Control]kb.Action{
	kb.ControlPlay:             kb.ActionPlayPause,
	kb.ControlPrevious:         kb.ActionPrevious,
	kb.ControlNext:             kb.ActionNext,
	kb.ControlMute:             kb.ActionMute,
	kb.ControlSettings:         kb.ActionSettings,
	kb.ControlPictureInPicture: kb.ActionPictureInPicture,
	kb.ControlTheaterMode:      kb.ActionTheaterMode,
	kb.ControlFullscreen:       kb.ActionFullscreen,
}

func (p *PlayerModel) controlBar() string {
	controls := p.opts.Controls
	if controls == nil {
		controls = kb.DefaultControls
	}

	st := p.status
	active := map[kb.Control]bool{
		kb.ControlPlay:             !st.Paused,
		kb.ControlMute:             st.Muted,
		kb.ControlFullscreen:       st.FullScreen,
		kb.ControlPictureInPicture: st.PictureInPicture,
		kb.ControlTheaterMode:      p.theater,
	}

	buttons := make([]components.ControlButton, 0, len(controls))
	for _, c := range controls {
		label := controlLabels[c]
		if c == kb.ControlPlay && !st.Paused {
			label = "Pause"
		}
		key := ""
		if keys := p.opts.Table.Keys(controlActions[c]); len(keys) > 0 {
			key = kb.DisplayKey(keys[0])
		}
		buttons = append(buttons, components.ControlButton{Label: label, Key: key, Active: active[c]})
	}
	return components.ControlBar(p.width, buttons)
}
