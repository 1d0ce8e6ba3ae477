package keybindings

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	player "github.com/PizzaHomicide/vplay/internal/keybindings"
)

func TestNoDuplicateKeyBindings(t *testing.T) {
	// Check each context individually
	for contextName, bindings := range ContextBindings {
		t.Run(fmt.Sprintf("Context_%s", contextName), func(t *testing.T) {
			keyToAction := make(map[string]Action)

			for _, binding := range bindings {
				// Check primary key
				if existingAction, exists := keyToAction[binding.KeyMap.Primary]; exists {
					t.Errorf("Duplicate key binding '%s' in context '%s': "+
						"first assigned to action '%s', then to '%s'",
						binding.KeyMap.Primary, contextName, existingAction, binding.Action)
				} else {
					keyToAction[binding.KeyMap.Primary] = binding.Action
				}

				// Check secondary key if it exists
				if binding.KeyMap.Secondary != "" {
					if existingAction, exists := keyToAction[binding.KeyMap.Secondary]; exists {
						t.Errorf("Duplicate key binding '%s' in context '%s': "+
							"first assigned to action '%s', then to '%s'",
							binding.KeyMap.Secondary, contextName, existingAction, binding.Action)
					} else {
						keyToAction[binding.KeyMap.Secondary] = binding.Action
					}
				}
			}
		})
	}
}

// Global keys are checked before player keys, so they must not shadow a default player binding
func TestGlobalKeysDoNotShadowPlayerKeys(t *testing.T) {
	for _, binding := range ContextBindings[ContextGlobal] {
		for _, key := range []string{binding.KeyMap.Primary, binding.KeyMap.Secondary} {
			if key == "" {
				continue
			}
			assert.Equal(t, player.ActionNone, player.DefaultTable().ActionFor(player.TokenFromKeyName(key)),
				"global key %q shadows a player binding", key)
		}
	}
}

func TestGetActionByKey(t *testing.T) {
	assert.Equal(t, ActionQuit, GetActionByKey(tea.KeyMsg{Type: tea.KeyCtrlC}, ContextGlobal))
	assert.Equal(t, ActionMoveDown, GetActionByKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}, ContextMenu))
	assert.Equal(t, ActionSelectMenuItem, GetActionByKey(tea.KeyMsg{Type: tea.KeyEnter}, ContextMenu))
	assert.Equal(t, Action(""), GetActionByKey(tea.KeyMsg{Type: tea.KeyEnter}, ContextGlobal))
}
