package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/shared"
)

const assetExt = ".mp3"

// LocalStore caches one <videoID>.mp3 file per identifier under a single
// directory.
//
// Put writes to a .tmp sibling and renames into place, so readers never
// observe a torn asset. Resolve bumps the file's access/mod time, which is
// what the capacity manager sorts on for LRU eviction.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the cache directory if needed and returns a store over it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the cache directory path.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) assetPath(videoID string) string {
	return filepath.Join(s.dir, videoID+assetExt)
}

// Exists reports whether an asset file is present for the identifier.
func (s *LocalStore) Exists(ctx context.Context, videoID string) (bool, error) {
	_, err := os.Stat(s.assetPath(videoID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %v", shared.ErrStorage, videoID, err)
}

// Put streams r into a temp file and renames it over the asset path.
//
// The rename is the publish step: a concurrent Resolve sees either the old
// bytes or the new bytes, never a mix. Idempotent, last writer wins.
func (s *LocalStore) Put(ctx context.Context, videoID string, r io.Reader, contentType string) error {
	tmp := s.assetPath(videoID) + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: create temp asset: %v", shared.ErrStorage, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: write asset %s: %v", shared.ErrStorage, videoID, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: close asset %s: %v", shared.ErrStorage, videoID, err)
	}

	if err := os.Rename(tmp, s.assetPath(videoID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: publish asset %s: %v", shared.ErrStorage, videoID, err)
	}

	return nil
}

// Resolve opens the asset for reading and touches its access time.
//
// The returned handle's Reader is an *os.File; the caller closes it. An
// in-flight read of a file that is later evicted keeps working because the
// open handle pins the inode.
func (s *LocalStore) Resolve(ctx context.Context, videoID string) (*Handle, error) {
	path := s.assetPath(videoID)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("%w: open asset %s: %v", shared.ErrStorage, videoID, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat asset %s: %v", shared.ErrStorage, videoID, err)
	}

	// LRU bookkeeping. Best-effort: a failed touch only skews eviction order.
	now := time.Now()
	_ = os.Chtimes(path, now, now)

	return &Handle{
		Reader:  f,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Delete removes the asset file. Missing files report false, not an error.
func (s *LocalStore) Delete(ctx context.Context, videoID string) (bool, error) {
	err := os.Remove(s.assetPath(videoID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: delete asset %s: %v", shared.ErrStorage, videoID, err)
}

// List scans the cache directory and returns one entry per published asset.
//
// Temp files from in-flight puts are skipped so they are neither counted
// against the ceiling nor eligible for eviction.
func (s *LocalStore) List(ctx context.Context) ([]models.AssetInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read cache directory: %v", shared.ErrStorage, err)
	}

	var assets []models.AssetInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, assetExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue // Deleted between ReadDir and Info
		}

		assets = append(assets, models.AssetInfo{
			VideoID:    strings.TrimSuffix(name, assetExt),
			Size:       info.Size(),
			LastAccess: info.ModTime(),
		})
	}

	return assets, nil
}
