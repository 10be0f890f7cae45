package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/Iron-Ham/tandem/internal/config"
	"github.com/Iron-Ham/tandem/internal/coordinator"
	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/event"
	"github.com/Iron-Ham/tandem/internal/logging"
	"github.com/Iron-Ham/tandem/internal/report"
	"github.com/Iron-Ham/tandem/internal/sources"
	"github.com/Iron-Ham/tandem/internal/tmux"
	"github.com/Iron-Ham/tandem/internal/toolctl"
	"github.com/Iron-Ham/tandem/internal/toolctl/sim"
	"github.com/Iron-Ham/tandem/internal/tui"
)

// interruptGrace bounds how long an interrupted run waits for deletion
// notifications after closing everything.
const interruptGrace = 3 * time.Second

var openCmd = &cobra.Command{
	Use:   "open <source>...",
	Short: "Open documents together",
	Long: `Open every source in its own instance of the tool and attach a shared
close command to each one. Picking the command in any of them closes all
of them; tandem exits once the tool has no open instance left.

Sources are file paths or URIs. Duplicates are dropped and --exclude
removes sources matching a glob pattern (by full path or base name).

Interrupting tandem (Ctrl+C) closes every document and exits with 130.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)

	openCmd.Flags().StringSlice("exclude", nil, "skip sources matching this glob pattern (repeatable)")
	openCmd.Flags().String("backend", "", "tool backend: tmux or sim (overrides tool.backend)")
	openCmd.Flags().Bool("no-tui", false, "do not show the status view")
	_ = viper.BindPFlag("tool.backend", openCmd.Flags().Lookup("backend"))
}

// backend is a tool together with the pieces of wiring that depend on it.
type backend struct {
	tool     toolctl.Tool
	preClose coordinator.PreCloseHook
	hint     string
}

// newBackend builds the configured tool. Tests replace it.
var newBackend = func(cfg *config.Config, logger *logging.Logger) (*backend, error) {
	switch cfg.Tool.Backend {
	case "sim":
		return &backend{
			tool: sim.New(logger),
			hint: "simulated backend: nothing is opened on screen",
		}, nil
	case "tmux":
		t, err := tmux.New(tmux.Config{
			Socket:     cfg.Tmux.Socket,
			Editor:     cfg.Tmux.Editor,
			Width:      cfg.Tmux.Width,
			Height:     cfg.Tmux.Height,
			MenuKey:    cfg.Tmux.MenuKey,
			PollMin:    cfg.Tmux.PollMin(),
			PollMax:    cfg.Tmux.PollMax(),
			SaveSettle: saveSettle(cfg.Close.PreCloseSettle()),
		}, logger)
		if err != nil {
			return nil, err
		}
		b := &backend{
			tool: t,
			hint: fmt.Sprintf("attach with: tmux -L %s attach  (press %s for the %q menu)",
				t.Socket(), cfg.Tmux.MenuKey, cfg.Close.CommandLabel),
		}
		if len(cfg.Close.PreCloseKeys) > 0 {
			b.preClose = t.SaveHook(cfg.Close.PreCloseKeys)
		}
		return b, nil
	default:
		return nil, errors.NewValidationError("unknown tool backend").
			WithField("tool.backend").
			WithValue(cfg.Tool.Backend)
	}
}

// saveSettle maps the configured pause to tmux.Config, where 0 means unset
// and a negative value means no pause.
func saveSettle(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

// isTerminal reports whether stdout is a terminal. Tests replace it.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// openParams is everything one open run needs.
type openParams struct {
	cfg      *config.Config
	sources  []string
	useTUI   bool
	logger   *logging.Logger
	out      io.Writer
	reporter *report.Reporter
}

func runOpen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	excludes, _ := cmd.Flags().GetStringSlice("exclude")
	noTUI, _ := cmd.Flags().GetBool("no-tui")

	srcs, err := sources.Resolve(args, excludes)
	if err != nil {
		return err
	}

	useTUI := cfg.TUI.Enabled && !noTUI && isTerminal()

	logger, err := newLogger(cfg, useTUI)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()
	watchConfig(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return openDocuments(ctx, openParams{
		cfg:      cfg,
		sources:  srcs,
		useTUI:   useTUI,
		logger:   logger,
		out:      cmd.OutOrStdout(),
		reporter: report.New(cfg.App.Name, cmd.ErrOrStderr()),
	})
}

// newLogger opens the run's logger. Logs never go to the terminal while the
// status view owns it.
func newLogger(cfg *config.Config, useTUI bool) (*logging.Logger, error) {
	dir := cfg.Logging.ResolveDir()
	if dir == "" && useTUI {
		dir = filepath.Join(os.TempDir(), "tandem")
	}
	return logging.NewLogger(dir, cfg.Logging.Level)
}

// openDocuments runs one coordinated session until every instance is gone
// or ctx is canceled.
func openDocuments(ctx context.Context, p openParams) error {
	logger := p.logger

	b, err := newBackend(p.cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.tool.Close(); err != nil {
			logger.Warn("closing tool failed", "error", err.Error())
		}
	}()

	bus := event.NewBus(logger)
	c, err := coordinator.Initialize(b.tool, p.sources, coordinator.Options{
		CommandLabel: p.cfg.Close.CommandLabel,
		PreClose:     b.preClose,
		Logger:       logger,
		Bus:          bus,
	})
	if err != nil {
		p.reporter.Report(err)
		if abandonErr := c.Abandon(); abandonErr != nil {
			logger.Warn("could not close instances after failed initialization", "error", abandonErr.Error())
		}
		return &exitError{code: ExitFailure, err: err, reported: true}
	}

	fmt.Fprintf(p.out, "Opened %d document(s). Use %q in any of them to close all.\n",
		len(p.sources), c.CommandLabel())
	if b.hint != "" {
		fmt.Fprintln(p.out, b.hint)
	}

	if p.useTUI {
		model, err := tui.New(c, bus, p.cfg.App.Name, b.hint).Run(ctx)
		if err != nil {
			logger.Warn("status view failed", "error", err.Error())
		}
		switch {
		case model.Terminated():
			return nil
		case model.Interrupted():
			return interrupt(c, p)
		}
		fmt.Fprintln(p.out, "Status view hidden; waiting for the documents to close.")
	}

	select {
	case <-c.Done():
		logger.Info("every document closed")
		return nil
	case <-ctx.Done():
		return interrupt(c, p)
	}
}

// interrupt closes every remaining instance and waits briefly for the tool
// to confirm.
func interrupt(c *coordinator.Coordinator, p openParams) error {
	p.logger.Info("interrupted, closing all documents")

	if err := c.CloseAll(); err != nil {
		p.reporter.Report(err)
	}

	select {
	case <-c.Done():
	case <-time.After(interruptGrace):
		p.logger.Warn("documents still open after interrupt", "wait", interruptGrace.String())
	}
	return &exitError{code: ExitInterrupted, err: errInterrupted, reported: true}
}
