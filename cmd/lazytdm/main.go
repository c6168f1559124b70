package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/pflag"

	"github.com/rebeliceyang/lazytdm/internal/app"
	"github.com/rebeliceyang/lazytdm/internal/config"
	"github.com/rebeliceyang/lazytdm/internal/gateway"
	"github.com/rebeliceyang/lazytdm/internal/history"
	"github.com/rebeliceyang/lazytdm/internal/selection"
)

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup runs before the process exits
func run() int {
	flags := pflag.NewFlagSet("lazytdm", pflag.ExitOnError)
	config.ClientFlags(flags)
	_ = flags.Parse(os.Args[1:])

	loader, err := config.NewLoader(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v (using defaults)\n", err)
		cfg = config.GetDefaults()
	}

	logger, closeLog, err := openLog(cfg.General)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (logging disabled)\n", err)
	}
	defer closeLog()

	client, err := gateway.NewClient(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: time.Duration(cfg.Gateway.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	sel, err := selection.NewManager(cfg.State.Path)
	if err != nil {
		logger.Warn("selection state unavailable", "error", err)
		sel = nil
	}

	var hist *history.Store
	if cfg.History.Enabled {
		hist, err = history.NewStore(cfg.History.Path, cfg.History.MaxEntries)
		if err != nil {
			logger.Warn("activity history unavailable", "error", err)
			hist = nil
		} else {
			defer hist.Close()
		}
	}

	zone.NewGlobal()

	model := app.New(app.Deps{
		Config:    cfg,
		Gateway:   client,
		Selection: sel,
		History:   hist,
		Logger:    logger,
	})

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(model, opts...)

	loader.Watch(func(c *config.Config, err error) {
		p.Send(app.ConfigChangedMsg{Cfg: c, Err: err})
	})

	logger.Info("starting", "gateway", client.BaseURL(), "config", loader.ConfigFile())
	if _, err := p.Run(); err != nil {
		logger.Error("program exited with error", "error", err)
		fmt.Printf("Error running program: %v\n", err)
		return 1
	}
	return 0
}

// openLog sends structured logs to the configured file; the terminal belongs to the UI
func openLog(g config.GeneralConfig) (*slog.Logger, func(), error) {
	discard := slog.New(slog.DiscardHandler)
	if err := os.MkdirAll(filepath.Dir(g.LogFile), 0o755); err != nil {
		return discard, func() {}, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(g.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return discard, func() {}, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: g.Level()}))
	return logger, func() { _ = f.Close() }, nil
}
