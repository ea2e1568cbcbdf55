package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/resound/internal/shared"
)

// transcodeTimeout bounds a single ffmpeg run. Normalizing a few minutes of
// audio takes seconds; ten minutes covers pathological inputs.
const transcodeTimeout = 10 * time.Minute

// FFmpeg normalizes downloaded audio into the canonical cache format:
// 192 kbps constant bitrate, 2 channels, 44.1 kHz, loudness-normalized MP3.
//
// Only the local-disk cache needs this; the blob backend stores the
// extractor's native output directly.
type FFmpeg struct {
	binPath string
	logger  *log.Logger
}

// NewFFmpeg creates a transcoder using the given ffmpeg binary.
func NewFFmpeg(binPath string, logger *log.Logger) *FFmpeg {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &FFmpeg{binPath: binPath, logger: logger}
}

// Transcode converts inputPath into an MP3 at outputPath.
//
// On failure any partial output is removed and the error wraps
// [shared.ErrTranscodeFailed]; the caller aborts the whole fetch.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, transcodeTimeout)
	defer cancel()

	args := []string{
		"-y",
		"-loglevel", "error",
		"-nostdin",
		"-i", inputPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-b:a", "192k",
		"-ar", "44100",
		"-ac", "2",
		"-af", "loudnorm",
		outputPath,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.binPath, args...)
	cmd.Stderr = &stderr

	f.logger.Debug("transcoding", "input", inputPath, "output", outputPath)

	if err := cmd.Run(); err != nil {
		if rmErr := os.Remove(outputPath); rmErr != nil && !os.IsNotExist(rmErr) {
			f.logger.Warn("failed to remove partial transcode output", "path", outputPath, "error", rmErr)
		}

		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("%w: %s", shared.ErrTranscodeFailed, detail)
	}

	return nil
}
