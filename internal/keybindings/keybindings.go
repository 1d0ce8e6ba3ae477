package keybindings

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Action represents a specific action that can be triggered by a key
type Action string

const (
	ActionNone             Action = ""
	ActionPlayPause        Action = "play_pause"
	ActionMute             Action = "mute"
	ActionFullscreen       Action = "fullscreen"
	ActionPictureInPicture Action = "picture_in_picture"
	ActionTheaterMode      Action = "theater_mode"
	ActionNext             Action = "next"
	ActionPrevious         Action = "previous"
	ActionSettings         Action = "settings"
	ActionSkipForward      Action = "skip_forward"
	ActionSkipBackward     Action = "skip_backward"
)

// Binding maps an action to its keys and help text.  Keys are literal, case-sensitive key tokens.
type Binding struct {
	Action Action
	Keys   []string
	Help   string
}

// Table is an ordered list of bindings.  When a key appears in more than one binding the first one wins.
type Table []Binding

// DefaultTable returns the default player key bindings
func DefaultTable() Table {
	return Table{
		{Action: ActionPlayPause, Keys: []string{" ", "k"}, Help: "Play/pause"},
		{Action: ActionMute, Keys: []string{"m"}, Help: "Mute/unmute"},
		{Action: ActionFullscreen, Keys: []string{"f"}, Help: "Toggle fullscreen"},
		{Action: ActionPictureInPicture, Keys: []string{"p"}, Help: "Toggle picture-in-picture"},
		{Action: ActionTheaterMode, Keys: []string{"t"}, Help: "Toggle theater mode"},
		{Action: ActionNext, Keys: []string{"n"}, Help: "Next source"},
		{Action: ActionPrevious, Keys: []string{"b"}, Help: "Previous source"},
		{Action: ActionSettings, Keys: []string{"s"}, Help: "Open settings"},
		{Action: ActionSkipForward, Keys: []string{"ArrowRight"}, Help: "Skip forward 5s"},
		{Action: ActionSkipBackward, Keys: []string{"ArrowLeft"}, Help: "Skip backward 5s"},
	}
}

// ActionFor returns the action bound to token, or ActionNone
func (t Table) ActionFor(token string) Action {
	for _, binding := range t {
		for _, key := range binding.Keys {
			if key == token {
				return binding.Action
			}
		}
	}
	return ActionNone
}

// Keys returns the keys bound to an action
func (t Table) Keys(action Action) []string {
	for _, binding := range t {
		if binding.Action == action {
			return append([]string(nil), binding.Keys...)
		}
	}
	return nil
}

// WithOverrides returns a copy of the table with the keys of the named actions replaced.  Table order is kept.
// Unknown action names are an error, with a suggestion when one is close enough.
func (t Table) WithOverrides(overrides map[string][]string) (Table, error) {
	out := make(Table, len(t))
	for i, b := range t {
		out[i] = Binding{Action: b.Action, Keys: append([]string(nil), b.Keys...), Help: b.Help}
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		idx := -1
		for i, b := range out {
			if string(b.Action) == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			if suggestion := out.suggest(name); suggestion != "" {
				return nil, fmt.Errorf("unknown key binding action %q, did you mean %q?", name, suggestion)
			}
			return nil, fmt.Errorf("unknown key binding action %q", name)
		}
		out[idx].Keys = append([]string(nil), overrides[name]...)
	}

	return out, nil
}

// suggest returns the action name closest to name, or an empty string
func (t Table) suggest(name string) string {
	targets := make([]string, 0, len(t))
	for _, b := range t {
		targets = append(targets, string(b.Action))
	}

	if ranks := fuzzy.RankFindNormalizedFold(name, targets); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDistance := "", 4
	for _, target := range targets {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), target); d < bestDistance {
			best, bestDistance = target, d
		}
	}
	return best
}

// DisplayKey renders a key token for help text and control labels
func DisplayKey(key string) string {
	switch key {
	case " ":
		return "space"
	case "ArrowRight":
		return "→"
	case "ArrowLeft":
		return "←"
	default:
		return key
	}
}

// FormatKeyHelp formats a key binding for display in help text
func FormatKeyHelp(binding Binding) string {
	keys := make([]string, 0, len(binding.Keys))
	for _, k := range binding.Keys {
		keys = append(keys, DisplayKey(k))
	}
	return strings.Join(keys, "/") + ": " + binding.Help
}

// GetHelpText generates formatted help text for a set of bindings
func GetHelpText(title string, bindings Table) string {
	helpText := "## " + title + "\n\n"
	for _, binding := range bindings {
		helpText += "* " + FormatKeyHelp(binding) + "\n"
	}
	return helpText
}

// TokenFromKeyName translates terminal key names into the key tokens used by binding tables
func TokenFromKeyName(name string) string {
	switch name {
	case "space":
		return " "
	case "right":
		return "ArrowRight"
	case "left":
		return "ArrowLeft"
	case "up":
		return "ArrowUp"
	case "down":
		return "ArrowDown"
	case "enter":
		return "Enter"
	case "esc":
		return "Escape"
	default:
		return name
	}
}
