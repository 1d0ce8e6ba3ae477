package models

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/PizzaHomicide/vplay/internal/domain"
	"github.com/PizzaHomicide/vplay/internal/engine"
)

// msgCmd wraps a message in a command
func msgCmd(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// newSettingsMenu builds the top level settings menu
func newSettingsMenu(e *engine.Engine) *MenuModel {
	status := e.Status()

	return NewMenuModel("Settings", []MenuItem{
		{Text: "Quality: " + qualityLabel(status.Format, e.PlaybackQuality(), e.GetPlaybackQuality()), Command: msgCmd(OpenQualityMenuMsg{})},
		{Text: "Speed: " + rateLabel(status.PlaybackRate), Command: msgCmd(OpenRateMenuMsg{})},
	})
}

// qualityLabel names the selected level.  Automatic selection, or a level missing from the snapshot, reads Auto.
func qualityLabel(format domain.Format, selected int, options []domain.QualityOption) string {
	if !format.Adaptive() {
		return "Auto (single rendition)"
	}
	for _, opt := range options {
		if opt.Index == selected {
			return opt.Label
		}
	}
	return "Auto"
}

// newQualityMenu lists the automatic option followed by every quality level of the current snapshot
func newQualityMenu(e *engine.Engine) *MenuModel {
	selected := e.PlaybackQuality()
	items := []MenuItem{
		{Text: "Auto", Current: selected == domain.AutoQuality, Command: msgCmd(QualitySelectedMsg{Index: domain.AutoQuality})},
	}
	for _, opt := range e.GetPlaybackQuality() {
		items = append(items, MenuItem{
			Text:    opt.Label,
			Current: opt.Index == selected,
			Command: msgCmd(QualitySelectedMsg{Index: opt.Index}),
		})
	}
	return NewMenuModel("Quality", items)
}

// newRateMenu lists the playback-rate labels, marking the active one
func newRateMenu(e *engine.Engine) *MenuModel {
	current := rateLabel(e.Status().PlaybackRate)

	var items []MenuItem
	for _, label := range e.PlaybackRates() {
		items = append(items, MenuItem{
			Text:    label,
			Current: label == current,
			Command: msgCmd(RateSelectedMsg{Label: label}),
		})
	}
	return NewMenuModel("Playback speed", items)
}

// rateLabel renders a rate the way the rate menu labels it
func rateLabel(rate float64) string {
	if rate == 1 || rate <= 0 {
		return engine.RateNormal
	}
	return strconv.FormatFloat(rate, 'f', -1, 64) + "x"
}

// qualitySummary describes the quality snapshot for the status panel
func qualitySummary(options []domain.QualityOption) string {
	switch len(options) {
	case 0:
		return "single rendition"
	case 1:
		return options[0].Label
	default:
		return fmt.Sprintf("%s to %s (%d levels)", options[0].Label, options[len(options)-1].Label, len(options))
	}
}
