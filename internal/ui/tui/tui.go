package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/PizzaHomicide/vplay/internal/ui/tui/models"
)

// Run starts the TUI and blocks until the user quits
func Run(opts models.Options) error {
	p := tea.NewProgram(models.NewAppModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
