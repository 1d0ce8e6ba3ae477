package models

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/PizzaHomicide/vplay/internal/log"
	kb "github.com/PizzaHomicide/vplay/internal/ui/tui/keybindings"
)

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	activeModal   Modal // Track the current active 'modal overlay' if any
	width, height int

	player   *PlayerModel
	help     *HelpModel
	settings *MenuModel
}

// NewAppModel creates a new instance of the main application model
func NewAppModel(opts Options) AppModel {
	p := NewPlayerModel(opts)
	return AppModel{
		activeModal: ModalNone,
		player:      p,
		help:        NewHelpModel(p.dispatcher.Table()),
	}
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising vplay TUI", "sources", len(m.player.opts.Sources))
	return m.player.Init()
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextGlobal) {
		case kb.ActionQuit:
			log.Info("Quit command received.  Shutting down...")
			m.player.Close()
			return m, tea.Quit
		case kb.ActionToggleHelp:
			log.Debug("Help requested")
			// Disable/toggle modal if one already active
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
			} else {
				m.help.SetBindings(m.player.dispatcher.Table())
				m.activeModal = ModalHelp
			}
			return m, nil
		// Handle closing modal when esc is pressed if any is active
		case kb.ActionBack:
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
				return m, nil
			}
		}

		// Prioritise delegating keys to a modal if one is active
		switch m.activeModal {
		case ModalHelp:
			_, cmd := m.help.Update(msg)
			return m, cmd
		case ModalSettings:
			_, cmd := m.settings.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		m.player.Resize(msg.Width, msg.Height)
		m.help.Resize(msg.Width, msg.Height)
		if m.settings != nil {
			m.settings.Resize(msg.Width, msg.Height)
		}
		return m, nil

	case OpenSettingsMsg:
		return m.openMenu(newSettingsMenu(m.player.Engine()))

	case OpenQualityMenuMsg:
		return m.openMenu(newQualityMenu(m.player.Engine()))

	case OpenRateMenuMsg:
		return m.openMenu(newRateMenu(m.player.Engine()))

	case QualitySelectedMsg:
		m.player.Engine().SetPlaybackQuality(msg.Index)
		m.activeModal = ModalNone
		m.player.refresh()
		return m, nil

	case RateSelectedMsg:
		m.player.Engine().SetPlaybackRate(msg.Label)
		m.activeModal = ModalNone
		m.player.refresh()
		return m, nil

	case tea.MouseMsg:
		if m.activeModal == ModalHelp {
			_, cmd := m.help.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Everything else belongs to the player, including engine notifications while a modal is open
	_, cmd := m.player.Update(msg)
	return m, cmd
}

func (m AppModel) openMenu(menu *MenuModel) (tea.Model, tea.Cmd) {
	menu.Resize(m.width, m.height)
	m.settings = menu
	m.activeModal = ModalSettings
	return m, nil
}

func (m AppModel) View() string {
	// If there is an active modal it takes precedence
	switch m.activeModal {
	case ModalHelp:
		return m.help.View()
	case ModalSettings:
		return m.settings.View()
	}
	return m.player.View()
}
