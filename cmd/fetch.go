package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/shared"
	"github.com/urfave/cli/v3"
)

// Prefetch warms the cache for one or more video identifiers.
//
// Each identifier runs through the full acquisition path, so an already
// cached asset is a cheap no-op.
func (r *Runner) Prefetch(ctx context.Context, cmd *cli.Command) error {
	r.applyConfigFlag(cmd)

	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one video ID is required", shared.ErrMissingArgument)
	}

	for _, id := range ids {
		if !models.ValidVideoID(id) {
			return fmt.Errorf("%w: %q", shared.ErrInvalidVideoID, id)
		}
	}

	d, err := r.build(ctx)
	if err != nil {
		return fmt.Errorf("failed to assemble services: %w", err)
	}
	defer d.close()

	failures := 0
	for _, id := range ids {
		r.logger.Info("fetching audio", "id", id)

		handle, err := d.pipeline.Ensure(ctx, id)
		if err != nil {
			failures++
			r.logger.Error("fetch failed", "id", id, "error", err)
			r.writePlain("✗ %s: %v\n", id, err)
			continue
		}
		if handle.Reader != nil {
			handle.Reader.Close()
		}

		info, err := d.pipeline.Info(ctx, id)
		if err != nil {
			r.writePlain("✓ %s cached\n", id)
			continue
		}
		r.writePlain("✓ %s cached: %s - %s (%d bytes)\n", id, info.Artist, info.Title, info.FileSize)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d fetches failed", failures, len(ids))
	}
	return nil
}

// fetchCommand warms the cache ahead of streaming
func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Download and cache audio for video IDs",
		ArgsUsage: "<id> [<id>...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Prefetch,
	}
}
