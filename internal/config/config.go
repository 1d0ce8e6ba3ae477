package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/PizzaHomicide/vplay/internal/keybindings"
)

// Config represents the application configuration
type Config struct {
	Player  PlayerConfig  `yaml:"player,omitempty"`
	Stream  StreamConfig  `yaml:"stream,omitempty"`
	UI      UIConfig      `yaml:"ui,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// PlayerConfig contains media player settings
type PlayerConfig struct {
	Path       string `yaml:"path,omitempty"`
	Args       string `yaml:"args,omitempty"`
	SocketPath string `yaml:"socket_path,omitempty"`
}

// StreamConfig contains settings for fetching adaptive streaming manifests
type StreamConfig struct {
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds,omitempty"`
	UserAgent          string `yaml:"user_agent,omitempty"`
}

// HTTPTimeout returns the manifest fetch timeout
func (s StreamConfig) HTTPTimeout() time.Duration {
	return time.Duration(s.HTTPTimeoutSeconds) * time.Second
}

// UIConfig contains UI display preferences
type UIConfig struct {
	// Controls lists the on-screen controls, in display order
	Controls []string `yaml:"controls,omitempty"`
	// KeyBindings replaces the keys of the named actions
	KeyBindings map[string][]string `yaml:"keybindings,omitempty"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`
	FilePath string `yaml:"file_path,omitempty"`
}

// Load builds the configuration from the default config path.  See LoadFrom.
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
// 6. Validate the result
func LoadFrom(configPath string) (*Config, error) {
	// 1. Start with base defaults
	cfg := createBaseDefaultConfig()

	// 2. If no config file exists on disk, then write a default one
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// If there is an error saving the default config, then still let the application startup using the defaults.
		_ = save(cfg, configPath)
	}

	// 3. Apply dynamic defaults if necessary
	applyDynamicDefaults(cfg)

	// 4. Load the config from disk and merge it into the base defaults
	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	// Overrides the config with any values coming from the loaded file
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	// 5. Apply the environment variable overrides which take precedence
	applyEnvVarOverrides(cfg)

	// 6. Reject values that would only fail later
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return cfg, nil
}

// Controls returns the configured on-screen controls
func (c *Config) Controls() []keybindings.Control {
	controls := make([]keybindings.Control, 0, len(c.UI.Controls))
	for _, name := range c.UI.Controls {
		controls = append(controls, keybindings.Control(name))
	}
	return controls
}

// KeyTable returns the default key binding table with the configured overrides applied
func (c *Config) KeyTable() (keybindings.Table, error) {
	return keybindings.DefaultTable().WithOverrides(c.UI.KeyBindings)
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	// Create config dir if not exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv(envConfigPath)
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "vplay", "config.yaml"), nil
}

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	controls := make([]string, 0, len(keybindings.DefaultControls))
	for _, c := range keybindings.DefaultControls {
		controls = append(controls, string(c))
	}

	return &Config{
		Player: PlayerConfig{
			Path: "mpv",
		},
		Stream: StreamConfig{
			HTTPTimeoutSeconds: 15,
			UserAgent:          "vplay",
		},
		UI: UIConfig{
			Controls: controls,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	var basePath string
	homedir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to logging in the current directory if home directory cannot be determined
		return filepath.Join(".", "vplay.log")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\vplay\logs
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, "vplay", "logs")
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", "vplay", "logs")
		}
	case "darwin":
		// macOS:  ~/Library/Logs/vplay
		basePath = filepath.Join(homedir, "Library", "Logs", "vplay")
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, "vplay", "logs")
		} else {
			basePath = filepath.Join(homedir, ".local", "state", "vplay", "logs")
		}
	}

	err = os.MkdirAll(basePath, 0700)
	if err != nil {
		// If we failed to create the directory, fallback to logging in the current directory
		return filepath.Join(".", "vplay.log")
	}
	return filepath.Join(basePath, "vplay.log")
}
