package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/shared"
)

const (
	// pollInterval spaces the materialization checks after yt-dlp exits.
	// With the default 10 retries the budget is ~5 seconds.
	pollInterval = 500 * time.Millisecond

	defaultPollRetries = 10
)

// ytdlpInfo is the subset of `yt-dlp -J` output the fetcher consumes.
type ytdlpInfo struct {
	Title     string  `json:"title"`
	Uploader  string  `json:"uploader"`
	Channel   string  `json:"channel"`
	Album     string  `json:"album"`
	Artist    string  `json:"artist"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
}

// YTDLP fetches audio by shelling out to yt-dlp.
//
// Each fetch downloads the best available audio-only format into the scratch
// directory under a unique name and extracts metadata in the same
// invocation via --print-json.
type YTDLP struct {
	binPath     string
	tempDir     string
	timeout     time.Duration
	pollRetries int
	logger      *log.Logger
}

// NewYTDLP creates a fetcher using the given yt-dlp binary and scratch directory.
func NewYTDLP(cfg shared.FetcherConfig, tempDir string, logger *log.Logger) *YTDLP {
	retries := cfg.PollRetries
	if retries <= 0 {
		retries = defaultPollRetries
	}

	return &YTDLP{
		binPath:     cfg.YTDLPPath,
		tempDir:     tempDir,
		timeout:     time.Duration(cfg.FetchTimeout()) * time.Second,
		pollRetries: retries,
		logger:      logger,
	}
}

// Fetch downloads the audio for videoID and returns the file plus metadata.
//
// The whole operation runs under the configured fetch timeout. After yt-dlp
// exits the output file is polled for a bounded number of retries before the
// fetch fails with [shared.ErrDownloadIncomplete]; slow filesystems
// occasionally lag behind process exit.
func (y *YTDLP) Fetch(ctx context.Context, videoID string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	if err := os.MkdirAll(y.tempDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create scratch directory: %v", shared.ErrStorage, err)
	}

	outPath := filepath.Join(y.tempDir, shared.GenerateID()+".audio")

	args := []string{
		"-f", "bestaudio",
		"--no-playlist",
		"--no-warnings",
		"--print-json",
		"-o", outPath,
		"https://www.youtube.com/watch?v=" + videoID,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.binPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	y.logger.Debug("starting extraction", "video_id", videoID, "output", outPath)

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrUpstreamFetch, detail)
	}

	if err := y.waitForFile(ctx, outPath); err != nil {
		return nil, err
	}

	track := y.parseMetadata(videoID, stdout.Bytes())

	return &Result{AudioPath: outPath, Track: track}, nil
}

// waitForFile polls until the downloaded file exists and is non-empty.
func (y *YTDLP) waitForFile(ctx context.Context, path string) error {
	for attempt := 0; attempt < y.pollRetries; attempt++ {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", shared.ErrDownloadIncomplete, ctx.Err())
		case <-time.After(pollInterval):
		}
	}

	return fmt.Errorf("%w: file %s never materialized", shared.ErrDownloadIncomplete, filepath.Base(path))
}

// parseMetadata turns yt-dlp's JSON document into a Track, falling back to
// placeholder values for anything missing. Metadata problems never fail a
// fetch that produced audio.
func (y *YTDLP) parseMetadata(videoID string, raw []byte) *models.Track {
	var info ytdlpInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		y.logger.Warn("failed to parse extractor metadata", "video_id", videoID, "error", err)
		return models.NewTrack(videoID, "", "", "", 0)
	}

	artist := info.Artist
	if artist == "" {
		artist = info.Uploader
	}

	track := models.NewTrack(videoID, info.Title, artist, info.Album, int(info.Duration))
	track.SetThumbnailURL(info.Thumbnail)
	if info.Channel != "" {
		track.SetChannel(info.Channel)
	} else {
		track.SetChannel(info.Uploader)
	}

	return track
}
