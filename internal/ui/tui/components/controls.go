package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/PizzaHomicide/vplay/internal/ui/tui/styles"
)

// ControlButton is one entry of the player control bar
type ControlButton struct {
	Label  string
	Key    string
	Active bool
}

// ControlBar renders the player controls in order, highlighting the active ones
func ControlBar(width int, buttons []ControlButton) string {
	parts := make([]string, 0, len(buttons))
	for _, b := range buttons {
		text := b.Label
		if b.Key != "" {
			text += " " + keyStyle.Render("["+b.Key+"]")
		}
		if b.Active {
			parts = append(parts, styles.ControlActive.Render(text))
		} else {
			parts = append(parts, styles.Control.Render(text))
		}
	}
	return styles.CenteredText(width, lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(parts, " ")))
}
