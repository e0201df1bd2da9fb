// Package main provides the entry point for the sayclip daemon.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/sayclip/internal/ctl"
	"github.com/dgnsrekt/sayclip/internal/session"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	listenAddr string
	voice      string
	rate       string
	volume     string
	pitch      string
	speed      float64
	engineName string
	playerBin  string

	rootCmd = &cobra.Command{
		Use:   "sayclip",
		Short: "Read your clipboard aloud",
		Long: paragraph(
			fmt.Sprintf("\nRun a daemon that reads the clipboard %s: trigger it, and whatever you copied streams through text-to-speech into your speakers.", keyword("aloud")),
		),
		SilenceErrors: false,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if configFile != "" {
				viper.SetConfigFile(configFile)
				if err := viper.ReadInConfig(); err != nil {
					log.Warn("Could not read configuration file", "path", configFile, "error", err)
				}
			}
			if debug || viper.GetBool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
		RunE: runDaemon,
	}
)

// clipboardSource captures the system clipboard as the session text.
func clipboardSource() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("unable to read clipboard: %w", err)
	}
	return text, nil
}

func runDaemon(*cobra.Command, []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	if err := cfg.PlayerCommand().LookPath(); err != nil {
		return fmt.Errorf("%w; install FFmpeg or point --player at another binary", err)
	}

	sessCfg, err := cfg.SessionConfig(clipboardSource)
	if err != nil {
		return err
	}
	ctrl, err := session.New(sessCfg)
	if err != nil {
		return err
	}

	srv, err := ctl.Listen(cfg.Listen, daemonHandler{ctrl})
	if err != nil {
		if errors.Is(err, ctl.ErrAlreadyRunning) {
			return fmt.Errorf("%w; use `sayclip toggle` to drive the running instance", err)
		}
		return err
	}
	defer srv.Close()

	watchConfig(ctrl)

	log.Info("Ready",
		"engine", cfg.Engine,
		"voice", cfg.Voice,
		"speed", cfg.Speed,
		"player", cfg.Player,
		"listen", srv.Addr())

	waitForSignals(ctrl)

	log.Info("Shutting down")
	ctrl.Stop()
	return nil
}

// waitForSignals blocks until a termination signal arrives. Toggle
// signals drive the session controller without ending the daemon.
func waitForSignals(ctrl *session.Controller) {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	notifyToggle(sigCh)
	defer signal.Stop(sigCh)

	for s := range sigCh {
		if isToggle(s) {
			log.Debug("Toggle signal received")
			ctrl.Toggle()
			continue
		}
		log.Info("Signal received", "signal", s)
		return
	}
}

// watchConfig reloads settings when the config file changes. The next
// session picks them up; a live one finishes with the set it started
// with.
func watchConfig(ctrl *session.Controller) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := loadSettings()
		if err != nil {
			log.Warn("Ignoring configuration change", "path", e.Name, "error", err)
			return
		}
		sessCfg, err := cfg.SessionConfig(clipboardSource)
		if err != nil {
			log.Warn("Ignoring configuration change", "path", e.Name, "error", err)
			return
		}
		if err := ctrl.UpdateConfig(sessCfg); err != nil {
			log.Warn("Ignoring configuration change", "path", e.Name, "error", err)
			return
		}
		log.Info("Configuration reloaded",
			"path", e.Name,
			"voice", cfg.Voice,
			"speed", cfg.Speed,
			"engine", cfg.Engine)
	})
	viper.WatchConfig()
}

// setupLog configures the global logger. SAYCLIP_LOGFILE redirects the
// output to a file, which is how a hotkey-launched instance stays
// debuggable.
func setupLog() (func() error, error) {
	// Timestamps matter once the output lands in a file or journal; on
	// an interactive terminal they are noise.
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetReportTimestamp(true)
		log.SetTimeFormat("2006-01-02 15:04:05")
	}

	logFile := os.Getenv("SAYCLIP_LOGFILE")
	if logFile == "" {
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	log.SetTimeFormat("2006-01-02 15:04:05")
	return f.Close, nil
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

	def := DefaultSettings()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "listen", def.Listen, "control endpoint address")
	rootCmd.Flags().StringVarP(&voice, "voice", "v", def.Voice, "voice name, or auto to match the system locale")
	rootCmd.Flags().StringVar(&rate, "rate", def.Rate, "synthesis rate offset, e.g. +10%")
	rootCmd.Flags().StringVar(&volume, "volume", def.Volume, "synthesis volume offset, e.g. -20%")
	rootCmd.Flags().StringVar(&pitch, "pitch", def.Pitch, "synthesis pitch offset, e.g. +2Hz")
	rootCmd.Flags().Float64VarP(&speed, "speed", "s", def.Speed, "playback speed multiplier (0.25 to 4.0)")
	rootCmd.Flags().StringVarP(&engineName, "engine", "e", def.Engine, "synthesis engine: edge or mock")
	rootCmd.Flags().StringVar(&playerBin, "player", def.Player, "audio player binary")

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("listen", rootCmd.PersistentFlags().Lookup("listen"))
	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("rate", rootCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("volume", rootCmd.Flags().Lookup("volume"))
	_ = viper.BindPFlag("pitch", rootCmd.Flags().Lookup("pitch"))
	_ = viper.BindPFlag("speed", rootCmd.Flags().Lookup("speed"))
	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("player", rootCmd.Flags().Lookup("player"))

	rootCmd.AddCommand(toggleCmd, stopCmd, statusCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "sayclip")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "sayclip")}, dirs...)
	}

	if c := os.Getenv("SAYCLIP_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("sayclip")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("sayclip")
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
		configFile = filepath.Join(dirs[0], "sayclip.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
