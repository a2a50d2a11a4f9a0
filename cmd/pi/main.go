package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/prodintel/pkg/api"
	"github.com/vanderheijden86/prodintel/pkg/config"
	"github.com/vanderheijden86/prodintel/pkg/debug"
	"github.com/vanderheijden86/prodintel/pkg/metrics"
	"github.com/vanderheijden86/prodintel/pkg/ui"
	"github.com/vanderheijden86/prodintel/pkg/version"
	"github.com/vanderheijden86/prodintel/pkg/watcher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the exit, returning the process status.
func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.help {
		printUsage(fs, stdout)
		return 0
	}
	if opts.version {
		fmt.Fprintf(stdout, "pi %s\n", version.Version)
		return 0
	}

	config.LoadDotEnv(".")
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	debug.Dump("config", cfg)

	baseURL := cfg.ResolveBaseURL(opts.apiURL)
	client := api.NewClient(baseURL, api.WithTimeout(cfg.API.Timeout))
	debug.Log("backend %s (timeout %v)", baseURL, cfg.API.Timeout)

	if !opts.isCommand() {
		path := opts.configPath
		if path == "" {
			path = config.ConfigPath()
		}
		return runDashboard(client, cfg, path, stderr)
	}

	defer logTimings()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{client: client, cfg: cfg, opts: opts, stdout: stdout, stderr: stderr}
	return c.dispatch(ctx)
}

// loadConfig reads an explicit --config path strictly, so a missing file is
// an error too. The default location is optional and a broken file there
// only produces a warning.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return config.Config{}, fmt.Errorf("reading config: %w", err)
		}
		return config.LoadFrom(path)
	}
	cfg, err := config.Load()
	if err != nil {
		debug.Errorf("config %s: %v (using defaults)", config.ConfigPath(), err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

func runDashboard(client *api.Client, cfg config.Config, configPath string, stderr io.Writer) int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(stderr, "Error: the dashboard needs a terminal on stdout.")
		fmt.Fprintln(stderr, "Use --robot-snapshot or --export-md - for non-interactive output.")
		return 1
	}

	// The screen belongs to the TUI; diagnostics go to the log file.
	closeLog, err := openDiagnosticLog(config.LogPath())
	if err != nil {
		fmt.Fprintf(stderr, "Warning: diagnostics disabled: %v\n", err)
		debug.SetOutput(io.Discard)
	} else {
		defer closeLog()
	}
	defer logTimings()

	opts := ui.Options{
		BaseURL:    client.BaseURL(),
		DateLayout: cfg.UI.DateLayout,
		ConfigPath: configPath,
	}
	if w := watchConfig(configPath); w != nil {
		defer w.Stop()
		opts.ConfigChanges = w.Changed()
	}

	m := ui.NewModel(client, opts)
	defer m.Stop()

	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(stderr, "Error running dashboard: %v\n", err)
		return 1
	}
	return 0
}

// watchConfig starts watching the config file. Live reload is optional, so
// failures are only logged.
func watchConfig(path string) *watcher.Watcher {
	if path == "" {
		return nil
	}
	w, err := watcher.New(path, watcher.WithOnError(func(err error) {
		debug.Errorf("watch config: %v", err)
	}))
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		debug.Errorf("watch config %s: %v", path, err)
		return nil
	}
	debug.Log("watching %s (polling=%v)", w.Path(), w.IsPolling())
	return w
}

// openDiagnosticLog points both debug channels at path, creating the
// state directory as needed.
func openDiagnosticLog(path string) (func(), error) {
	if path == "" {
		return nil, errors.New("no state directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	debug.SetOutput(f)
	return func() {
		debug.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}

// logTimings writes the collected request timings to the debug log.
// PI_METRICS=0 turns collection and this report off.
func logTimings() {
	if !metrics.Enabled() {
		return
	}
	for _, s := range metrics.AllTimingStats() {
		debug.LogTiming(s.Name+" avg", time.Duration(s.AvgMs*float64(time.Millisecond)))
		debug.Dump(s.Name, s)
	}
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		m.Stop()
		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set PI_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("PI_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
