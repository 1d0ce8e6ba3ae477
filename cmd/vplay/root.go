package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/PizzaHomicide/vplay/internal/backend"
	"github.com/PizzaHomicide/vplay/internal/config"
	"github.com/PizzaHomicide/vplay/internal/engine"
	"github.com/PizzaHomicide/vplay/internal/log"
	"github.com/PizzaHomicide/vplay/internal/platform"
	"github.com/PizzaHomicide/vplay/internal/player"
	"github.com/PizzaHomicide/vplay/internal/stream"
	"github.com/PizzaHomicide/vplay/internal/ui/tui"
	"github.com/PizzaHomicide/vplay/internal/ui/tui/models"
	"github.com/PizzaHomicide/vplay/internal/version"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the config file (default: OS config directory)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "Override the configured log level (trace, debug, info, warn, error)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("log-level", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"trace", "debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	}))

	rootCmd.AddCommand(versionCmd, envCmd)
}

// rootCmd plays one or more sources in mpv with a terminal control bar
var rootCmd = &cobra.Command{
	Use:   "vplay [flags] <source>...",
	Short: "Play HLS, DASH and progressive video sources in mpv from the terminal",
	Long: "vplay classifies each source by its extension, attaches the matching streaming backend and drives mpv\n" +
		"through a keyboard control bar.  Sources ending in .m3u8 are HLS, .mpd are DASH and .mp4, .webm or .ogg\n" +
		"are played progressively.  Anything else is reported as unsupported.",
	SilenceUsage: true,
	Args: func(cmd *cobra.Command, args []string) error {
		if lo.Must(cmd.Flags().GetBool("version")) {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if lo.Must(cmd.Flags().GetBool("version")) {
			versionCmd.Run(versionCmd, args)
			return nil
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err := log.New(log.Config{
			Level:    cfg.Logging.Level,
			FilePath: cfg.Logging.FilePath,
		})
		if err != nil {
			return fmt.Errorf("failed to initialise logger: %w", err)
		}
		defer logger.Close()
		log.SetDefaultLogger(logger)

		log.Info("Starting up vplay", "version", version.GetVersion(), "build_time", version.GetBuildTime(), "sources", len(args))

		if err := run(cmd.Context(), cfg, args); err != nil {
			log.Error("Unhandled error while running vplay", "error", err)
			return err
		}

		log.Info("vplay shutting down.  Goodbye!")
		return nil
	},
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := lo.Must(cmd.Flags().GetString("config")); path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level := lo.Must(cmd.Flags().GetString("log-level")); level != "" {
		if !log.ValidLevel(level) {
			return nil, fmt.Errorf("unknown log level %q", level)
		}
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, sources []string) error {
	table, err := cfg.KeyTable()
	if err != nil {
		return err
	}

	mpv := player.New(player.Config{
		Path:       cfg.Player.Path,
		Args:       cfg.Player.Args,
		SocketPath: cfg.Player.SocketPath,
	})
	if err := mpv.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := mpv.Close(); err != nil {
			log.Warn("Failed to close mpv cleanly", "error", err)
		}
	}()

	factory := backend.Factory{
		Fetcher: stream.Fetcher{
			Client:    &http.Client{Timeout: cfg.Stream.HTTPTimeout()},
			UserAgent: cfg.Stream.UserAgent,
		},
	}
	doc := platform.NewDocument()

	return tui.Run(models.Options{
		Sources:   sources,
		Table:     table,
		Controls:  cfg.Controls(),
		Media:     mpv,
		Container: mpv,
		NewEngine: func(source string) *engine.Engine {
			return engine.New(source, doc, engine.WithBackendFactory(factory))
		},
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the application version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersionInfo())
	},
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables that override the config file",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(config.EnvVarHelp())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
