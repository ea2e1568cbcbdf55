package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/resound/internal/formatter"
	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheStats reports cache occupancy against the configured ceiling.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	r.applyConfigFlag(cmd)

	d, err := r.build(ctx)
	if err != nil {
		return fmt.Errorf("failed to assemble services: %w", err)
	}
	defer d.close()

	stats, err := d.pipeline.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writePlainHeader("Cache Storage")
	_, err = r.output.Write(formatter.StatsToText(stats))
	return err
}

// CacheCleanup forces an eviction pass and reports the resulting occupancy.
func (r *Runner) CacheCleanup(ctx context.Context, cmd *cli.Command) error {
	r.applyConfigFlag(cmd)

	d, err := r.build(ctx)
	if err != nil {
		return fmt.Errorf("failed to assemble services: %w", err)
	}
	defer d.close()

	stats, err := d.pipeline.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	r.writePlain("✓ Cleanup complete\n")
	_, err = r.output.Write(formatter.StatsToText(stats))
	return err
}

// CacheList prints every cached asset joined with its track metadata.
//
// Output format is selectable and can be redirected to a file for export.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	r.applyConfigFlag(cmd)
	format := cmd.String("format")
	outputPath := cmd.String("output")

	d, err := r.build(ctx)
	if err != nil {
		return fmt.Errorf("failed to assemble services: %w", err)
	}
	defer d.close()

	assets, err := d.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cached assets: %w", err)
	}

	tracks, err := d.tracks.List()
	if err != nil {
		r.logger.Warn("failed to load track metadata", "error", err)
	}

	entries := formatter.JoinListing(assets, tracks)

	var data []byte
	switch format {
	case "csv":
		data, err = formatter.ExportToCSV(entries)
	case "markdown", "md":
		var stats *models.StorageStats
		if stats, err = d.pipeline.Stats(ctx); err != nil {
			return fmt.Errorf("failed to read cache stats: %w", err)
		}
		data, err = formatter.ExportToMarkdown(entries, stats)
	case "text", "":
		data, err = formatter.ExportToText(entries)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return fmt.Errorf("failed to format listing: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputPath, err)
		}
		r.writePlain("✓ Listing written to %s (%d entries)\n", outputPath, len(entries))
		return nil
	}

	_, err = r.output.Write(data)
	return err
}

// CacheRemove deletes a single cached asset and its metadata.
func (r *Runner) CacheRemove(ctx context.Context, cmd *cli.Command) error {
	r.applyConfigFlag(cmd)

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: video ID is required", shared.ErrMissingArgument)
	}
	if !models.ValidVideoID(id) {
		return fmt.Errorf("%w: %q", shared.ErrInvalidVideoID, id)
	}

	d, err := r.build(ctx)
	if err != nil {
		return fmt.Errorf("failed to assemble services: %w", err)
	}
	defer d.close()

	if err := d.pipeline.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove %s: %w", id, err)
	}

	r.writePlain("✓ Removed %s from cache\n", id)
	return nil
}

// cacheCommand inspects and manages the on-disk audio cache
func cacheCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage cached audio",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache occupancy and limits",
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:   "cleanup",
				Usage:  "Evict oldest assets if over the size ceiling",
				Flags:  []cli.Flag{configFlag},
				Action: r.CacheCleanup,
			},
			{
				Name:  "list",
				Usage: "List cached assets with track metadata",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, csv or markdown",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:  "rm",
				Usage: "Remove a cached asset",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  []cli.Flag{configFlag},
				Action: r.CacheRemove,
			},
		},
	}
}
