package models

import tea "github.com/charmbracelet/bubbletea"

// Modal represents a UI intended to be temporarily shown to the user before returning to the player
type Modal string

// Available modals in the application
const (
	ModalNone     Modal = "none"
	ModalHelp     Modal = "help"
	ModalSettings Modal = "settings"
)

// Model is implemented by the sub-models the app delegates to
type Model interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Model, tea.Cmd)
	View() string
	Resize(width, height int)
}
