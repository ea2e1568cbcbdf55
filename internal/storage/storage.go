// package storage implements the keyed audio cache store.
//
// Two backends satisfy the [Store] interface: [LocalStore] keeps one MP3 file
// per identifier on disk and serves seekable handles, [BlobStore] keeps
// objects in an S3-compatible store and serves time-limited signed URLs. The
// stream endpoint and [CapacityManager] are written against the interface and
// do not know which backend is configured.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/desertthunder/resound/internal/models"
)

// ContentTypeMPEG is the canonical content type for cached assets.
const ContentTypeMPEG = "audio/mpeg"

// Handle is a readable view of one cached asset.
//
// Exactly one of the two access forms is populated: a seekable reader for
// byte-range serving (local backend) or a signed URL the client is redirected
// to (blob backend).
type Handle struct {
	Reader    io.ReadSeekCloser // Seekable content, nil for the blob backend
	Size      int64             // Content length in bytes (0 when only URL is set)
	ModTime   time.Time         // Creation time of the cached bytes
	SignedURL string            // Time-limited access URL, empty for the local backend
}

// Store is durable keyed storage for one audio blob per identifier.
//
// Implementations guarantee write-then-publish: content under an identifier
// is byte-stable between a completed Put and the next Put or Delete, and a
// partially written asset is never observable.
type Store interface {
	// Exists reports whether an asset is cached under the identifier.
	Exists(ctx context.Context, videoID string) (bool, error)

	// Put atomically stores the content under the identifier. Idempotent;
	// a second Put for the same identifier overwrites (last writer wins).
	Put(ctx context.Context, videoID string, r io.Reader, contentType string) error

	// Resolve returns something a client can stream the asset from,
	// updating its last-access time. Returns shared.ErrNotFound when the
	// identifier is not cached.
	Resolve(ctx context.Context, videoID string) (*Handle, error)

	// Delete removes the asset. The returned bool is false when the
	// identifier was not cached; that case is not an error.
	Delete(ctx context.Context, videoID string) (bool, error)

	// List enumerates all cached assets with size and last-access time
	// for capacity accounting.
	List(ctx context.Context) ([]models.AssetInfo, error)
}
