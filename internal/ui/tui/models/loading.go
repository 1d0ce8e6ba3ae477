package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/log"
	"github.com/PizzaHomicide/vplay/internal/ui/tui/styles"
	"github.com/PizzaHomicide/vplay/internal/ui/tui/util"
)

// LoadingModel shows a spinner while a source is being attached and loaded into mpv
type LoadingModel struct {
	width, height int
	source        string
	format        domain.Format
	hint          string
	spinner       spinner.Model
	started       time.Time
	now           func() time.Time
}

// NewLoadingModel creates a loading panel for source
func NewLoadingModel(source string) *LoadingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return &LoadingModel{
		source:  source,
		format:  domain.Classify(source),
		spinner: s,
		started: time.Now(),
		now:     time.Now,
	}
}

// WithHint sets the line telling the user what they can do while waiting
func (m *LoadingModel) WithHint(hint string) *LoadingModel {
	m.hint = hint
	return m
}

func (m *LoadingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *LoadingModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}

	log.Trace("Loading model ignoring message", "message", msg)
	return m, nil
}

// Elapsed returns how long the source has been loading, rounded to the second
func (m *LoadingModel) Elapsed() time.Duration {
	return m.now().Sub(m.started).Round(time.Second)
}

func (m *LoadingModel) View() string {
	contentWidth := min(m.width-20, 80)
	if contentWidth < 40 {
		contentWidth = min(m.width-4, 40)
	}
	inner := max(contentWidth-6, 1)
	center := lipgloss.NewStyle().Width(inner).Align(lipgloss.Center)

	var b strings.Builder
	b.WriteString(center.Render(m.spinner.View() + " " + styles.LoadingMessage.Render("Loading "+string(m.format)+" stream")))
	b.WriteString("\n\n")
	b.WriteString(center.Inherit(styles.Muted).Italic(true).Render(fmt.Sprintf("%s elapsed", m.Elapsed())))
	if m.hint != "" {
		b.WriteString("\n\n")
		b.WriteString(center.Inherit(styles.Hint).Render(m.hint))
	}

	header := styles.Title.Width(contentWidth).Align(lipgloss.Center).Render(util.TruncateString(m.source, max(contentWidth-4, 10)))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#9D86FF")).
		Padding(1, 3).
		Width(contentWidth).
		Render(b.String())

	return styles.CenteredView(m.width, m.height, lipgloss.JoinVertical(lipgloss.Center, header, box))
}

func (m *LoadingModel) Resize(width, height int) {
	m.width = width
	m.height = height
}
