package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/resound/internal/fetch"
	"github.com/desertthunder/resound/internal/history"
	"github.com/desertthunder/resound/internal/pipeline"
	"github.com/desertthunder/resound/internal/repositories"
	"github.com/desertthunder/resound/internal/shared"
	"github.com/desertthunder/resound/internal/storage"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, fetchCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the Runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// applyConfigFlag reloads configuration when --config points at a readable file.
func (r *Runner) applyConfigFlag(cmd *cli.Command) {
	path := cmd.String("config")
	if path == "" {
		return
	}
	if cfg, err := shared.LoadConfig(path); err == nil {
		r.config = cfg
	}
}

// deps bundles the assembled service graph for one command invocation.
type deps struct {
	db       *sql.DB
	store    storage.Store
	capacity *storage.CapacityManager
	tracks   *repositories.TrackRepository
	pipeline *pipeline.Pipeline
}

// close releases resources owned by the graph.
func (d *deps) close() {
	if d.db != nil {
		d.db.Close()
	}
}

// build assembles the store, repositories and pipeline from configuration.
//
// The storage backend decides the shape: the local backend gets a transcoder
// and a capacity manager, the blob backend stores extractor output directly
// and leaves capacity to the object store's own lifecycle rules.
func (r *Runner) build(ctx context.Context) (*deps, error) {
	cfg := r.config

	db, err := shared.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	d := &deps{db: db, tracks: repositories.NewTrackRepository(db)}

	var transcoder pipeline.Transcoder
	switch cfg.Storage.Backend {
	case "blob":
		store, err := storage.NewBlobStore(ctx, cfg.Storage.Blob)
		if err != nil {
			d.close()
			return nil, err
		}
		d.store = store
	default:
		store, err := storage.NewLocalStore(cfg.Storage.Directory)
		if err != nil {
			d.close()
			return nil, err
		}
		d.store = store
		d.capacity = storage.NewCapacityManager(store, cfg.Storage.MaxCacheMB, r.logger)
		transcoder = fetch.NewFFmpeg(cfg.Fetcher.FFmpegPath, r.logger)
	}

	var recorder history.Recorder
	if cfg.History.RedisAddr != "" {
		redisRecorder, err := history.NewRedisRecorder(ctx, cfg.History.RedisAddr, cfg.History.RedisDB)
		if err != nil {
			r.logger.Warn("redis unavailable, falling back to in-memory play history", "error", err)
		} else {
			recorder = redisRecorder
		}
	}

	d.pipeline = pipeline.New(pipeline.Opts{
		Fetcher:    fetch.NewYTDLP(cfg.Fetcher, cfg.Storage.TempDirectory, r.logger),
		Transcoder: transcoder,
		Store:      d.store,
		Capacity:   d.capacity,
		Tracks:     d.tracks,
		Recorder:   recorder,
		TempDir:    cfg.Storage.TempDirectory,
		Logger:     r.logger,
	})

	return d, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
