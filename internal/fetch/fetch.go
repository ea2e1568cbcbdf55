// package fetch wraps the external audio extraction and transcoding tools.
//
// The [Fetcher] interface hides yt-dlp behind a contract the pipeline can
// mock; [FFmpeg] normalizes downloaded audio into the canonical cache format
// (192 kbps CBR, 44.1 kHz, stereo, loudness-normalized MP3).
package fetch

import (
	"context"

	"github.com/desertthunder/resound/internal/models"
)

// Result is one successful extraction: a downloaded audio file in the
// scratch directory plus best-effort metadata.
//
// The caller owns cleanup of AudioPath.
type Result struct {
	AudioPath string        // Downloaded audio file in the scratch directory
	Track     *models.Track // Best-effort metadata, never nil on success
}

// Fetcher downloads the audio for a video identifier.
//
// Implementations assume the identifier already passed shape validation at
// the HTTP boundary; the upstream extractor still fails for removed, private
// or region-locked content. Failures are not retried automatically.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (*Result, error)
}
