package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/PizzaHomicide/vplay/internal/log"
)

const envConfigPath = "VPLAY_CONFIG_PATH"

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string)
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  Does not override any values in the config as this environment variable
		// points to where the config should be loaded.  It is handled prior to loading the config.
		name:  envConfigPath,
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) {}, // Special case, no-op
	},
	{
		name:  "VPLAY_CONFIG_PLAYER_PATH",
		desc:  "Sets the path to the mpv binary.  Default: mpv",
		apply: func(c *Config, s string) { c.Player.Path = s },
	},
	{
		name:  "VPLAY_CONFIG_PLAYER_ARGS",
		desc:  "Sets extra mpv arguments.  Default: None",
		apply: func(c *Config, s string) { c.Player.Args = s },
	},
	{
		name:  "VPLAY_CONFIG_PLAYER_SOCKET_PATH",
		desc:  "Sets the mpv IPC socket or pipe.  Default: per-process path in the runtime directory",
		apply: func(c *Config, s string) { c.Player.SocketPath = s },
	},
	{
		name: "VPLAY_CONFIG_STREAM_HTTP_TIMEOUT_SECONDS",
		desc: "Sets the manifest fetch timeout in seconds.  Default: 15",
		apply: func(c *Config, s string) {
			v, err := strconv.Atoi(s)
			if err != nil {
				log.Warn("Ignoring invalid stream timeout override", "value", s, "error", err)
				return
			}
			c.Stream.HTTPTimeoutSeconds = v
		},
	},
	{
		name:  "VPLAY_CONFIG_STREAM_USER_AGENT",
		desc:  "Sets the User-Agent sent when fetching manifests.  Default: vplay",
		apply: func(c *Config, s string) { c.Stream.UserAgent = s },
	},
	{
		name: "VPLAY_CONFIG_UI_CONTROLS",
		desc: "Sets the comma separated list of on-screen controls.  Default: all controls",
		apply: func(c *Config, s string) {
			var controls []string
			for _, part := range strings.Split(s, ",") {
				if part = strings.TrimSpace(part); part != "" {
					controls = append(controls, part)
				}
			}
			c.UI.Controls = controls
		},
	},
	{
		name:  "VPLAY_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: func(c *Config, s string) { c.Logging.Level = s },
	},
	{
		name:  "VPLAY_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: func(c *Config, s string) { c.Logging.FilePath = s },
	},
}

func applyEnvVarOverrides(c *Config) {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			envVar.apply(c, value)
		}
	}
}

// EnvVarHelp describes the supported environment variables, one per line
func EnvVarHelp() string {
	var b strings.Builder
	for _, envVar := range supportedEnvVars {
		_, _ = fmt.Fprintf(&b, "  %s\n      %s\n", envVar.name, envVar.desc)
	}
	return b.String()
}
