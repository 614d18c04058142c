// Package main provides the entry point for the NetraMarg CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/neelchudasama51-ui/netramarg/internal/config"
	"github.com/neelchudasama51-ui/netramarg/internal/speech/engines"
	"github.com/neelchudasama51-ui/netramarg/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const appName = "netramarg"

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	cfg        config.Config
	width      uint
	isTerminal bool

	rootCmd = &cobra.Command{
		Use:   appName,
		Short: "Voice-first controls for the NetraMarg smart stick",
		Long: paragraph(
			fmt.Sprintf("\nVoice-first controls for the NetraMarg smart stick: %s, %s and %s, each announced out loud.",
				keyword("AI Vision"), keyword("Navigation"), keyword("SOS")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: func(*cobra.Command, []string) error {
			return runTUI()
		},
	}
)

func validateOptions(cmd *cobra.Command) error {
	if configFile != "" && cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	c, err := config.Load(viper.GetViper())
	if err != nil {
		return err //nolint:wrapcheck
	}
	cfg = c

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	isTerminal = term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec

	// Detect terminal width
	if !cmd.Flags().Changed("width") {
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec
			if err == nil {
				width = uint(w) //nolint:gosec
			}
			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func runTUI() error {
	if !isTerminal {
		return errors.New("the interface needs a terminal; use `netramarg serve` to drive the stick over HTTP")
	}

	// Read environment to get debugging stuff
	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	if _, ok := styles.DefaultStyles[uiCfg.GlamourStyle]; !ok && uiCfg.GlamourStyle != styles.AutoStyle {
		uiCfg.GlamourStyle = styles.AutoStyle
	}
	uiCfg.GlamourMaxWidth = width

	a, err := newApp(cfg, log.Default())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := signalContext()
	defer cancel()
	a.prewarm(ctx)
	a.watch(viper.GetViper())

	if _, err := ui.NewProgram(uiCfg, a.ctrl).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.Bool("debug", false, "log at debug level")
	flags.String("engine", engines.NameAuto, fmt.Sprintf("speech engine (%s)", strings.Join(engines.Names, ", ")))
	flags.Float64("rate", 0.8, "speaking rate")
	flags.Bool("mute", false, "simulate audio output instead of using the sound card")
	flags.Bool("voice", true, "start with voice feedback enabled")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap help at width (set to 0 to detect)")

	// Config bindings
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("speech.engine", flags.Lookup("engine"))
	_ = viper.BindPFlag("speech.rate", flags.Lookup("rate"))
	_ = viper.BindPFlag("audio.mute", flags.Lookup("mute"))
	_ = viper.BindPFlag("voice_enabled", flags.Lookup("voice"))

	rootCmd.AddCommand(configCmd, manCmd, serveCmd, sayCmd, phrasesCmd, cacheCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, appName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, appName)}, dirs...)
	}

	if c := os.Getenv("NETRAMARG_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	cacheDir, err := scope.CacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), appName)
	}
	config.SetDefaults(viper.GetViper(), filepath.Join(cacheDir, "audio"))

	viper.SetConfigName(appName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(appName)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], appName+".yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
		return
	}
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		log.Warn("Could not parse configuration file", "err", err)
	}
}
