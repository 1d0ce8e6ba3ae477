package models

import (
	"time"

	"github.com/PizzaHomicide/vplay/internal/engine"
)

// EngineChangedMsg carries a state change notification from a playback engine
type EngineChangedMsg struct {
	SessionID string
	Change    engine.Change
}

// EngineInitializedMsg is sent once Initialize returns for an engine
type EngineInitializedMsg struct {
	SessionID string
}

// statusTickMsg refreshes the playback position
type statusTickMsg time.Time

// OpenSettingsMsg opens the settings menu
type OpenSettingsMsg struct{}

// OpenQualityMenuMsg opens the quality sub-menu
type OpenQualityMenuMsg struct{}

// OpenRateMenuMsg opens the playback speed sub-menu
type OpenRateMenuMsg struct{}

// QualitySelectedMsg selects a quality index, or domain.AutoQuality
type QualitySelectedMsg struct {
	Index int
}

// RateSelectedMsg selects a playback-rate label
type RateSelectedMsg struct {
	Label string
}
