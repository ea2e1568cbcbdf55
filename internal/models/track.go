package models

import (
	"fmt"
	"time"
)

// Track metadata defaults used when the upstream extractor omits a field.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
)

// Track represents descriptive metadata for one identifier, independent of
// whether the audio bytes have been cached yet.
//
// Implements the [Model] interface. Fields are private with accessor methods
// so repositories control mutation of identity and timestamps.
type Track struct {
	id           string
	sequence     int
	videoID      string
	title        string
	artist       string
	album        string
	duration     int
	thumbnailURL string
	channel      string
	playCount    int
	createdAt    time.Time
	updatedAt    time.Time
}

// NewTrack creates a Track for the given identifier with best-effort metadata.
//
// Empty title/artist fall back to the Unknown placeholders and negative
// durations are clamped to zero, so a sparse upstream response never fails
// validation.
func NewTrack(videoID, title, artist, album string, duration int) *Track {
	if title == "" {
		title = UnknownTitle
	}
	if artist == "" {
		artist = UnknownArtist
	}
	if duration < 0 {
		duration = 0
	}

	now := time.Now().UTC()
	return &Track{
		videoID:   videoID,
		title:     title,
		artist:    artist,
		album:     album,
		duration:  duration,
		createdAt: now,
		updatedAt: now,
	}
}

func (t *Track) ID() string           { return t.id }
func (t *Track) Sequence() int        { return t.sequence }
func (t *Track) VideoID() string      { return t.videoID }
func (t *Track) Title() string        { return t.title }
func (t *Track) Artist() string       { return t.artist }
func (t *Track) Album() string        { return t.album }
func (t *Track) Duration() int        { return t.duration }
func (t *Track) ThumbnailURL() string { return t.thumbnailURL }
func (t *Track) Channel() string      { return t.channel }
func (t *Track) PlayCount() int       { return t.playCount }
func (t *Track) CreatedAt() time.Time { return t.createdAt }
func (t *Track) UpdatedAt() time.Time { return t.updatedAt }

// SetID assigns the generated primary key. Called by repositories on insert.
func (t *Track) SetID(id string) { t.id = id }

// SetSequence assigns the human-readable ordering number. Called by repositories on insert.
func (t *Track) SetSequence(seq int) { t.sequence = seq }

// SetThumbnailURL sets the cover/thumbnail URL extracted upstream.
func (t *Track) SetThumbnailURL(url string) { t.thumbnailURL = url }

// SetChannel sets the source channel name extracted upstream.
func (t *Track) SetChannel(channel string) { t.channel = channel }

// SetPlayCount sets the popularity counter. Called by repositories on load.
func (t *Track) SetPlayCount(n int) { t.playCount = n }

// SetTimestamps sets creation and update times. Called by repositories on load.
func (t *Track) SetTimestamps(created, updated time.Time) {
	t.createdAt = created
	t.updatedAt = updated
}

// Touch bumps the update time.
func (t *Track) Touch() { t.updatedAt = time.Now().UTC() }

// Validate checks the track's invariants: a well-formed identifier, a
// non-empty title/artist and a non-negative duration.
func (t *Track) Validate() error {
	if !ValidVideoID(t.videoID) {
		return fmt.Errorf("invalid video ID %q", t.videoID)
	}
	if t.title == "" {
		return fmt.Errorf("title is required")
	}
	if t.artist == "" {
		return fmt.Errorf("artist is required")
	}
	if t.duration < 0 {
		return fmt.Errorf("duration must be non-negative")
	}
	return nil
}
