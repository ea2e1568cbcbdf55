package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/resound/internal/shared"
	"github.com/desertthunder/resound/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal browser for the cache.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	r.applyConfigFlag(cmd)

	d, err := r.build(ctx)
	if err != nil {
		return fmt.Errorf("failed to assemble services: %w", err)
	}
	defer d.close()

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(r.config.Storage.TempDirectory, "resound-tui.log")
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, d.store, d.tracks)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// tuiCommand opens the cache browser
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse and manage cached audio interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.TUI,
	}
}
