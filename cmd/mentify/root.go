package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/mentify/command"
	"github.com/tailored-agentic-units/mentify/engine"
	"github.com/tailored-agentic-units/mentify/history"
	"github.com/tailored-agentic-units/mentify/observability"
	"github.com/tailored-agentic-units/mentify/speech"
)

const version = "0.1.0"

const eventBuffer = 256

type options struct {
	configFile  string
	persona     string
	historyPath string
	redisAddr   string
	logFile     string
	verbose     bool
	altScreen   bool
	noSpeech    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:     "mentify",
		Short:   "Chat with simulated Mentify personas in the terminal",
		Version: version,
		Long: `Mentify is a terminal chat client. Messages go to a selectable persona that
answers with simulated replies. Files can be staged as attachments, voice
input and read-aloud are simulated, and every submitted message is recorded
in a history ledger.`,
		Example: `  # Start chatting with the default persona
  $ mentify

  # Keep history on disk and start with Mentify 2
  $ mentify --history-path ~/.mentify/history --persona "Mentify 2"

  # Log engine events while chatting
  $ mentify --log-file mentify.log --verbose`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	f := cmd.Flags()
	f.StringVarP(&opts.configFile, "config", "c", "", "Path to engine config JSON file")
	f.StringVarP(&opts.persona, "persona", "p", "", "Persona id or display name to start with (overrides config)")
	f.StringVar(&opts.historyPath, "history-path", "", "Directory for file-backed history (overrides config)")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "Redis address for history, host:port (overrides config)")
	f.StringVar(&opts.logFile, "log-file", "", "Write structured logs to this file")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug-level events")
	f.BoolVar(&opts.altScreen, "alt-screen", true, "Run in the terminal's alternate screen")
	f.BoolVar(&opts.noSpeech, "no-speech", false, "Disable simulated voice input and read-aloud")

	return cmd
}

func loadConfig(opts *options) (*engine.Config, error) {
	var cfg *engine.Config
	if opts.configFile != "" {
		loaded, err := engine.LoadConfig(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		defaults := engine.DefaultConfig()
		cfg = &defaults
	}

	if opts.historyPath != "" {
		cfg.History.Backend = history.BackendFile
		cfg.History.Path = opts.historyPath
	}
	if opts.redisAddr != "" {
		cfg.History.Backend = history.BackendRedis
		cfg.History.RedisAddr = opts.redisAddr
	}
	return cfg, nil
}

func newLogger(opts *options) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}

	if opts.logFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}

	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), func() { f.Close() }, nil
}

func run(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	bridge := newEventBridge(eventBuffer)
	observer := observability.NewMultiObserver(
		observability.NewSlogObserver(logger),
		bridge,
	)

	engineOpts := []engine.Option{
		engine.WithObserver(observer),
		engine.WithClipboard(newOSC52Clipboard(os.Stderr)),
	}
	if !opts.noSpeech {
		sim := speech.NewSimulated()
		engineOpts = append(engineOpts, engine.WithCapture(sim), engine.WithPlayback(sim))
	}

	e, err := engine.New(cfg, engineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer e.Close()

	if opts.persona != "" {
		if err := e.SelectPersona(ctx, opts.persona); err != nil {
			return fmt.Errorf("failed to select persona: %w", err)
		}
	}

	registry := command.NewRegistry()
	registerCommands(registry, e)

	teaOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.altScreen {
		teaOpts = append(teaOpts, tea.WithAltScreen())
	}

	logger.Info("mentify starting", "session_id", e.Session().ID(), "persona", e.Persona().DisplayName)

	program := tea.NewProgram(newModel(e, registry, bridge), teaOpts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run chat TUI: %w", err)
	}
	return nil
}
