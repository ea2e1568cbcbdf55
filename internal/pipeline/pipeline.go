// package pipeline orchestrates the audio acquisition-and-cache sequence.
//
// One [Pipeline] ties the fetcher, optional transcoder, cache store,
// capacity manager, metadata repository and play recorder together. The
// stream endpoint calls [Pipeline.Ensure] and serves whatever handle the
// store resolves; everything upstream of the store is invisible to HTTP.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/resound/internal/fetch"
	"github.com/desertthunder/resound/internal/history"
	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/repositories"
	"github.com/desertthunder/resound/internal/shared"
	"github.com/desertthunder/resound/internal/storage"
)

// Transcoder converts a downloaded audio file into the canonical cache
// format. Nil for the blob backend, which stores extractor output directly.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// Opts contains the collaborators a Pipeline is assembled from.
type Opts struct {
	Fetcher    fetch.Fetcher
	Transcoder Transcoder // nil: skip transcoding (blob backend)
	Store      storage.Store
	Capacity   *storage.CapacityManager
	Tracks     *repositories.TrackRepository
	Recorder   history.Recorder
	TempDir    string
	Logger     *log.Logger
}

// Pipeline is the acquisition-and-cache orchestrator.
type Pipeline struct {
	fetcher    fetch.Fetcher
	transcoder Transcoder
	store      storage.Store
	capacity   *storage.CapacityManager
	tracks     *repositories.TrackRepository
	recorder   history.Recorder
	tempDir    string
	logger     *log.Logger
	inflight   *inflight
}

// New assembles a Pipeline from its collaborators.
func New(opts Opts) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Recorder == nil {
		opts.Recorder = history.NewMemoryRecorder()
	}

	return &Pipeline{
		fetcher:    opts.Fetcher,
		transcoder: opts.Transcoder,
		store:      opts.Store,
		capacity:   opts.Capacity,
		tracks:     opts.Tracks,
		recorder:   opts.Recorder,
		tempDir:    opts.TempDir,
		logger:     opts.Logger,
		inflight:   newInflight(),
	}
}

// Ensure makes the asset for videoID available in the cache store and
// returns a handle to stream it from.
//
// Cache hit: resolve and return. Miss: fetch, transcode (local backend),
// publish, upsert metadata and trigger a capacity sweep. Concurrent calls
// for the same identifier share a single fetch; all callers observe the
// same outcome. No partial artifact is ever published: any failure aborts
// the whole sequence and temp files are cleaned up best-effort.
func (p *Pipeline) Ensure(ctx context.Context, videoID string) (*storage.Handle, error) {
	if !models.ValidVideoID(videoID) {
		return nil, shared.ErrInvalidVideoID
	}

	exists, err := p.store.Exists(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if exists {
		return p.store.Resolve(ctx, videoID)
	}

	f, leader := p.inflight.begin(videoID)
	if leader {
		// Detach the fetch from the leader's request context so a client
		// disconnect does not abort a download other waiters may want.
		// The fetcher applies its own overall timeout.
		p.inflight.settle(videoID, f, p.acquire(context.WithoutCancel(ctx), videoID))
	} else {
		select {
		case <-f.done:
		case <-ctx.Done():
			// The shared fetch keeps running for the other waiters.
			return nil, ctx.Err()
		}
	}

	if f.err != nil {
		return nil, f.err
	}

	return p.store.Resolve(ctx, videoID)
}

// acquire runs the miss path: fetch, transcode, publish, metadata, sweep.
func (p *Pipeline) acquire(ctx context.Context, videoID string) error {
	started := time.Now()

	// A flight may have published the asset between the caller's Exists
	// check and its leader election. Re-check before paying for a fetch.
	exists, err := p.store.Exists(ctx, videoID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	result, err := p.fetcher.Fetch(ctx, videoID)
	if err != nil {
		return err
	}
	defer p.removeTemp(result.AudioPath)

	assetPath := result.AudioPath
	if p.transcoder != nil {
		transcoded := result.AudioPath + ".mp3"
		if err := p.transcoder.Transcode(ctx, result.AudioPath, transcoded); err != nil {
			return err
		}
		defer p.removeTemp(transcoded)
		assetPath = transcoded
	}

	src, err := os.Open(assetPath)
	if err != nil {
		return fmt.Errorf("%w: open staged asset: %v", shared.ErrStorage, err)
	}
	defer src.Close()

	if err := p.store.Put(ctx, videoID, src, storage.ContentTypeMPEG); err != nil {
		return err
	}

	// Metadata is best-effort after the asset is published: the asset's
	// existence is authoritative and a failed upsert must not roll it back.
	if p.tracks != nil {
		if err := p.tracks.Upsert(result.Track); err != nil {
			p.logger.Error("metadata upsert failed", "video_id", videoID, "error", err)
		}
	}

	if p.capacity != nil {
		if _, err := p.capacity.Cleanup(ctx); err != nil {
			p.logger.Error("capacity sweep failed", "error", err)
		}
	}

	p.logger.Info("asset acquired", "video_id", videoID, "title", result.Track.Title(), "elapsed", time.Since(started))
	return nil
}

func (p *Pipeline) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("failed to remove temp file", "path", path, "error", err)
	}
}

// Info describes the cached state plus metadata snapshot for one identifier.
type Info struct {
	VideoID      string     `json:"identifier"`
	Cached       bool       `json:"cached"`
	Title        string     `json:"title"`
	Artist       string     `json:"artist"`
	FileSize     int64      `json:"fileSize,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
}

// Info returns the metadata snapshot without forcing a fetch.
func (p *Pipeline) Info(ctx context.Context, videoID string) (*Info, error) {
	if !models.ValidVideoID(videoID) {
		return nil, shared.ErrInvalidVideoID
	}

	info := &Info{VideoID: videoID, Title: models.UnknownTitle, Artist: models.UnknownArtist}

	if p.tracks != nil {
		track, err := p.tracks.GetByVideoID(videoID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if track != nil {
			info.Title = track.Title()
			info.Artist = track.Artist()
		}
	}

	assets, err := p.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		if a.VideoID == videoID {
			info.Cached = true
			info.FileSize = a.Size
			access := a.LastAccess
			info.LastAccessed = &access
			info.CreatedAt = &access
			break
		}
	}

	return info, nil
}

// Delete removes the cached asset and its metadata.
//
// Returns [shared.ErrNotFound] when neither the asset nor its metadata
// exists. Metadata removal failures are logged, not surfaced, because the
// asset is already gone.
func (p *Pipeline) Delete(ctx context.Context, videoID string) error {
	if !models.ValidVideoID(videoID) {
		return shared.ErrInvalidVideoID
	}

	removed, err := p.store.Delete(ctx, videoID)
	if err != nil {
		return err
	}
	if !removed {
		return shared.ErrNotFound
	}

	if p.tracks != nil {
		if err := p.tracks.Delete(videoID); err != nil && !errors.Is(err, shared.ErrNotFound) {
			p.logger.Error("metadata delete failed", "video_id", videoID, "error", err)
		}
	}

	return nil
}

// Stats reports aggregate cache usage.
func (p *Pipeline) Stats(ctx context.Context) (*models.StorageStats, error) {
	if p.capacity == nil {
		return &models.StorageStats{}, nil
	}
	return p.capacity.Stats(ctx)
}

// Cleanup runs one eviction pass and returns the refreshed stats.
func (p *Pipeline) Cleanup(ctx context.Context) (*models.StorageStats, error) {
	if p.capacity == nil {
		return &models.StorageStats{}, nil
	}

	if _, err := p.capacity.Cleanup(ctx); err != nil {
		return nil, err
	}
	return p.capacity.Stats(ctx)
}

// RecordPlay registers a play event without blocking the response path.
//
// Fire-and-forget: runs in a detached goroutine with its own timeout and
// only logs failures. The stream endpoint calls this for authenticated
// callers only.
func (p *Pipeline) RecordPlay(videoID, userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.recorder.Record(ctx, videoID, userID); err != nil {
			p.logger.Error("play record failed", "video_id", videoID, "error", err)
		}

		if p.tracks != nil {
			if err := p.tracks.IncrementPlayCount(videoID); err != nil {
				p.logger.Error("play count increment failed", "video_id", videoID, "error", err)
			}
		}
	}()
}
