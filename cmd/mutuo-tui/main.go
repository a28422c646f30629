package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"mutuo/internal/cli"
	applog "mutuo/internal/log"
	"mutuo/internal/services"
	"mutuo/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mutuo-tui:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := cli.LoadEnvFile(); err != nil {
		return err
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.TUILogFile != "" {
		f, err := os.OpenFile(cfg.TUILogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := cli.SetupLogger(cfg.LogLevel, logOut)

	defaults, err := cfg.DefaultParams()
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	model := tui.New(ctx, tui.Config{
		Computer: services.NewScheduleService(cfg.ScheduleCacheSize, cfg.ScheduleCacheTTL, services.WithLogger(logger)),
		Defaults: defaults,
		PageSize: cfg.PageSize,
		Logger:   logger,
	})

	logger.Info("Starting terminal UI", applog.FieldOperation, applog.OpStartup)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	return nil
}
