// Package main provides the CLI entrypoint for typewarrior.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/typewarrior/typewarrior/internal/config"
	"github.com/typewarrior/typewarrior/internal/engine"
	"github.com/typewarrior/typewarrior/internal/model"
	"github.com/typewarrior/typewarrior/internal/race"
	"github.com/typewarrior/typewarrior/internal/raceclient"
	"github.com/typewarrior/typewarrior/internal/raceserver"
	"github.com/typewarrior/typewarrior/internal/stats"
	"github.com/typewarrior/typewarrior/internal/store"
	"github.com/typewarrior/typewarrior/internal/tui"
	"github.com/typewarrior/typewarrior/internal/words"
)

const (
	defaultMode        = "time"
	defaultTime        = 30
	defaultWords       = 25
	defaultClass       = "plain"
	defaultServer      = "ws://localhost:8080/ws"
	defaultAddr        = ":8080"
	defaultCurveWindow = 10
)

var (
	practiceMode     string
	practiceTime     int
	practiceWords    int
	practiceClass    string
	practiceWordlist string

	serveAddr    string
	serveOrigins []string
	serveArchive string

	raceServer string
	raceName   string
	raceAvatar string

	statsSince  string
	statsLast   int
	statsMode   string
	statsWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typewarrior",
		Short:         "TUI typing trainer with multiplayer races",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "test mode: time or words")
	rootCmd.Flags().IntVar(&practiceTime, "time", defaultTime, "time budget in seconds (time mode)")
	rootCmd.Flags().IntVar(&practiceWords, "words", defaultWords, "word budget (words mode)")
	rootCmd.Flags().StringVar(&practiceClass, "class", defaultClass, "text class: plain, numbers, symbols, javascript, python, html, hardcore")
	rootCmd.Flags().StringVar(&practiceWordlist, "wordlist", "", "custom word list file (one word per line)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRaceCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// version is stamped by the release build.
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	applyIntConfig(cmd, "time", &practiceTime, fileCfg.Practice.Time)
	applyIntConfig(cmd, "words", &practiceWords, fileCfg.Practice.Words)
	applyStringConfig(cmd, "class", &practiceClass, fileCfg.Practice.Class)
	applyStringConfig(cmd, "wordlist", &practiceWordlist, fileCfg.Practice.WordList)

	mode, err := parseMode(practiceMode)
	if err != nil {
		return err
	}
	class, err := words.ParseClass(practiceClass)
	if err != nil {
		return err
	}
	if practiceTime <= 0 {
		return fmt.Errorf("--time must be > 0")
	}
	if practiceWords <= 0 {
		return fmt.Errorf("--words must be > 0")
	}

	gen := words.New()
	if practiceWordlist != "" {
		custom, err := words.LoadFile(practiceWordlist)
		if err != nil {
			return fmt.Errorf("failed to load word list: %w", err)
		}
		gen = words.NewWithWords(custom)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	eng := engine.New(engine.Config{
		Mode:       mode,
		TimeBudget: time.Duration(practiceTime) * time.Second,
		WordBudget: practiceWords,
		Class:      class,
	}, gen)

	program := tea.NewProgram(tui.NewPracticeModel(eng, st), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the multiplayer race server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "allowed websocket origins (default: all)")
	cmd.Flags().StringVar(&serveArchive, "archive-dir", "", "race archive directory (default: XDG data dir)")
	return cmd
}

func runServeCmd(_ *cobra.Command, _ []string) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	archiveDir := serveArchive
	if archiveDir == "" {
		archiveDir = config.DefaultArchiveDir()
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive dir: %w", err)
	}
	archive, err := raceserver.OpenArchive(archiveDir)
	if err != nil {
		return fmt.Errorf("failed to open race archive: %w", err)
	}
	defer func() {
		if cerr := archive.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("failed to close archive")
		}
	}()

	reg := race.NewRegistry()
	reg.SeedDefaults()

	hub := raceserver.NewHub(reg, log, raceserver.WithArchive(archive))
	go hub.Run(ctx)

	srv := raceserver.NewServer(hub, log, serveOrigins)
	return srv.Run(ctx, serveAddr)
}

func newRaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "race",
		Short: "Join multiplayer races",
		Args:  cobra.NoArgs,
		RunE:  runRaceCmd,
	}
	cmd.Flags().StringVar(&raceServer, "server", defaultServer, "race server websocket URL")
	cmd.Flags().StringVar(&raceName, "name", "", "player name")
	cmd.Flags().StringVar(&raceAvatar, "avatar", "", "player avatar emoji")
	return cmd
}

func runRaceCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "server", &raceServer, fileCfg.Race.Server)
	applyStringConfig(cmd, "name", &raceName, fileCfg.Race.Name)
	applyStringConfig(cmd, "avatar", &raceAvatar, fileCfg.Race.Avatar)

	if raceName == "" {
		raceName = "Player"
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	bridge, err := raceclient.Dial(dialCtx, raceServer, zerolog.Nop())
	if err != nil {
		return fmt.Errorf("failed to connect to race server: %w", err)
	}
	defer func() {
		if cerr := bridge.Close(); cerr != nil {
			logErrf("failed to close connection: %v\n", cerr)
		}
	}()

	profile := race.Profile{Name: raceName, Avatar: raceAvatar}
	program := tea.NewProgram(tui.NewRaceModel(bridge, profile), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N tests")
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter: time or words")
	cmd.Flags().IntVar(&statsWindow, "window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsMode != "" {
		if _, err := parseMode(statsMode); err != nil {
			return err
		}
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	results, err := st.ListResults(context.Background(), model.StatsFilter{
		Since: sinceTime,
		Last:  statsLast,
		Mode:  statsMode,
	})
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}
	return stats.RenderReport(os.Stdout, results, statsWindow, 0)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func parseMode(s string) (model.Mode, error) {
	switch model.Mode(s) {
	case model.ModeTime, model.ModeWords:
		return model.Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (expected time or words)", s)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typewarrior configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q           # Test mode: time or words
# time = %d             # Time budget in seconds
# words = %d            # Word budget
# class = %q         # Text class
# wordlist = ""         # Custom word list file

[race]
# server = %q
# name = "Player"
# avatar = "🎯"
`,
		defaultMode,
		defaultTime,
		defaultWords,
		defaultClass,
		defaultServer,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
