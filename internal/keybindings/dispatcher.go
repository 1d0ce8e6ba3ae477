package keybindings

import (
	"github.com/PizzaHomicide/vplay/internal/log"
)

// SkipStep is the number of seconds skipped by the skip actions
const SkipStep = 5.0

// Control names an on-screen control.  Actions without a control are always enabled.
type Control string

const (
	ControlPlay             Control = "play"
	ControlPrevious         Control = "previous"
	ControlNext             Control = "next"
	ControlMute             Control = "mute"
	ControlSettings         Control = "settings"
	ControlPictureInPicture Control = "picture-in-picture"
	ControlTheaterMode      Control = "theater-mode"
	ControlFullscreen       Control = "fullscreen"
)

// DefaultControls is the control bar layout used when none is configured
var DefaultControls = []Control{
	ControlPlay, ControlMute, ControlSettings, ControlPictureInPicture,
	ControlTheaterMode, ControlPrevious, ControlNext, ControlFullscreen,
}

// KnownControl reports whether name is a valid control option
func KnownControl(name string) bool {
	switch Control(name) {
	case ControlPlay, ControlPrevious, ControlNext, ControlMute, ControlSettings,
		ControlPictureInPicture, ControlTheaterMode, ControlFullscreen:
		return true
	}
	return false
}

var actionControls = map[Action]Control{
	ActionPlayPause:        ControlPlay,
	ActionMute:             ControlMute,
	ActionFullscreen:       ControlFullscreen,
	ActionPictureInPicture: ControlPictureInPicture,
	ActionTheaterMode:      ControlTheaterMode,
	ActionNext:             ControlNext,
	ActionPrevious:         ControlPrevious,
	ActionSettings:         ControlSettings,
}

// Controller is the part of the playback engine driven by key presses
type Controller interface {
	TogglePlay()
	ToggleMute()
	ToggleFullScreenMode()
	TogglePictureInPictureMode()
	SkipForwardBackward(delta float64)
}

// UICallbacks are invoked for actions the engine does not own.  Nil callbacks are skipped.
type UICallbacks struct {
	TheaterMode func()
	Next        func()
	Previous    func()
	Settings    func()
}

// Dispatcher translates key tokens into engine calls and UI callbacks
type Dispatcher struct {
	table   Table
	player  Controller
	ui      UICallbacks
	enabled map[Control]bool
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithTable replaces the default binding table
func WithTable(t Table) DispatcherOption {
	return func(d *Dispatcher) {
		d.table = t
	}
}

// WithControls limits dispatch to actions whose control is in the list
func WithControls(controls []Control) DispatcherOption {
	return func(d *Dispatcher) {
		d.enabled = make(map[Control]bool, len(controls))
		for _, c := range controls {
			d.enabled[c] = true
		}
	}
}

// NewDispatcher creates a dispatcher bound to player and the UI callbacks
func NewDispatcher(player Controller, ui UICallbacks, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		table:  DefaultTable(),
		player: player,
		ui:     ui,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Table returns the bindings currently in effect, disabled actions excluded
func (d *Dispatcher) Table() Table {
	out := make(Table, 0, len(d.table))
	for _, b := range d.table {
		if d.Enabled(b.Action) {
			out = append(out, b)
		}
	}
	return out
}

// Enabled reports whether action can be dispatched
func (d *Dispatcher) Enabled(action Action) bool {
	if d.enabled == nil {
		return true
	}
	control, ok := actionControls[action]
	if !ok {
		return true
	}
	return d.enabled[control]
}

// Dispatch runs the action bound to token and returns it.  Unbound or disabled tokens return ActionNone.
func (d *Dispatcher) Dispatch(token string) Action {
	action := d.table.ActionFor(token)
	if action == ActionNone {
		return ActionNone
	}
	if !d.Enabled(action) {
		log.Debug("Ignoring key for disabled control", "key", token, "action", action)
		return ActionNone
	}

	log.Trace("Dispatching key", "key", token, "action", action)

	switch action {
	case ActionPlayPause:
		d.player.TogglePlay()
	case ActionMute:
		d.player.ToggleMute()
	case ActionFullscreen:
		d.player.ToggleFullScreenMode()
	case ActionPictureInPicture:
		d.player.TogglePictureInPictureMode()
	case ActionSkipForward:
		d.player.SkipForwardBackward(SkipStep)
	case ActionSkipBackward:
		d.player.SkipForwardBackward(-SkipStep)
	case ActionTheaterMode:
		call(d.ui.TheaterMode)
	case ActionNext:
		call(d.ui.Next)
	case ActionPrevious:
		call(d.ui.Previous)
	case ActionSettings:
		call(d.ui.Settings)
	}

	return action
}

// Help renders the enabled bindings as help text
func (d *Dispatcher) Help() string {
	return GetHelpText("Player", d.Table())
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
