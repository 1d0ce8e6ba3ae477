package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	player "github.com/PizzaHomicide/vplay/internal/keybindings"
	kb "github.com/PizzaHomicide/vplay/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/vplay/internal/ui/tui/styles"
)

// HelpModel displays the key bindings with scrolling
type HelpModel struct {
	width, height int
	bindings      player.Table
	viewport      viewport.Model
}

// NewHelpModel creates a help model listing the given player bindings
func NewHelpModel(bindings player.Table) *HelpModel {
	return &HelpModel{
		bindings: bindings,
		viewport: viewport.New(0, 0),
	}
}

// SetBindings replaces the player bindings shown
func (m *HelpModel) SetBindings(bindings player.Table) {
	m.bindings = bindings
	m.updateContent()
}

// Init initializes the model
func (m *HelpModel) Init() tea.Cmd {
	// Set initial content if dimensions are available
	if m.width > 0 && m.height > 0 {
		m.updateContent()
	}
	return nil
}

// Update handles messages
func (m *HelpModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextHelp) {
		case kb.ActionMoveUp, kb.ActionMoveDown, kb.ActionPageUp, kb.ActionPageDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case kb.ActionMoveTop:
			m.viewport.GotoTop()
			return m, cmd
		case kb.ActionMoveBottom:
			m.viewport.GotoBottom()
			return m, cmd
		}

	}
	return m, cmd
}

// Resize updates the dimensions
func (m *HelpModel) Resize(width, height int) {
	m.width = width
	m.height = height

	// Update viewport dimensions
	contentWidth := width - 4    // Account for borders
	contentHeight := height - 10 // Account for header, footer, spacing

	// Ensure we don't set negative dimensions
	if contentWidth < 1 {
		contentWidth = 1
	}
	if contentHeight < 1 {
		contentHeight = 1
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = contentHeight

	// Update content for new dimensions
	m.updateContent()
}

// updateContent generates help content and updates the viewport
func (m *HelpModel) updateContent() {
	content := m.generateHelpContent()
	m.viewport.SetContent(content)
	// Reset to top when content changes
	m.viewport.GotoTop()
}

// View renders the help screen
func (m *HelpModel) View() string {
	header := styles.Header(m.width, "Help")

	contentView := m.viewport.View()

	// Footer with navigation help
	scrollText := "↑/↓: Scroll • PgUp/PgDn: Page scroll • Home/End: Goto top/bottom • ESC: Return"
	footer := styles.CenteredText(m.width, styles.Info.Render(scrollText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"", // Spacing
		styles.ContentBox(m.width-2, contentView, 1),
		"", // Spacing
		footer,
	)
}

// helpRow is one line of a help section
type helpRow struct {
	keys string
	help string
}

// formatSection formats a section of keybindings with aligned colons
func formatSection(title string, rows []helpRow) string {
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")

	// First pass: determine the maximum key width for alignment
	maxKeyWidth := 0
	for _, row := range rows {
		if width := utf8.RuneCountInString(row.keys); width > maxKeyWidth {
			maxKeyWidth = width
		}
	}

	// Second pass: format each binding with aligned colons
	for _, row := range rows {
		padding := strings.Repeat(" ", maxKeyWidth-utf8.RuneCountInString(row.keys))

		b.WriteString(fmt.Sprintf("• %s%s : %s\n",
			lipgloss.NewStyle().Bold(true).Render(row.keys),
			padding,
			row.help))
	}

	return b.String()
}

// generateHelpContent builds the complete help content
func (m *HelpModel) generateHelpContent() string {
	var b strings.Builder

	// Title style for sections
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

	b.WriteString(titleStyle.Render("Player"))
	b.WriteString("\n\n")
	b.WriteString("Controls the mpv window playing the current source. Quality and speed are changed from the settings menu.")
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Keybindings"))
	b.WriteString("\n\n")

	var playerRows []helpRow
	for _, binding := range m.bindings {
		keys := make([]string, 0, len(binding.Keys))
		for _, k := range binding.Keys {
			keys = append(keys, player.DisplayKey(k))
		}
		playerRows = append(playerRows, helpRow{keys: strings.Join(keys, " or "), help: binding.Help})
	}
	b.WriteString(formatSection("Playback:", playerRows))
	b.WriteString("\n")

	var globalRows []helpRow
	for _, binding := range kb.ContextBindings[kb.ContextGlobal] {
		keys := binding.KeyMap.Primary
		if binding.KeyMap.Secondary != "" {
			keys += " or " + binding.KeyMap.Secondary
		}
		globalRows = append(globalRows, helpRow{keys: keys, help: binding.KeyMap.Help})
	}
	b.WriteString(formatSection("Global commands:", globalRows))

	return b.String()
}
