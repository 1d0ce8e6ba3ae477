package config

import (
	"errors"
	"fmt"

	"github.com/PizzaHomicide/vplay/internal/keybindings"
	"github.com/PizzaHomicide/vplay/internal/log"
)

// Validate checks values that cannot be expressed by the YAML types alone
func (c *Config) Validate() error {
	var errs []error

	if !log.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	if c.Stream.HTTPTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("stream.http_timeout_seconds: must be positive, got %d", c.Stream.HTTPTimeoutSeconds))
	}
	for _, name := range c.UI.Controls {
		if !keybindings.KnownControl(name) {
			errs = append(errs, fmt.Errorf("ui.controls: unknown control %q", name))
		}
	}
	if _, err := c.KeyTable(); err != nil {
		errs = append(errs, fmt.Errorf("ui.keybindings: %w", err))
	}

	return errors.Join(errs...)
}
