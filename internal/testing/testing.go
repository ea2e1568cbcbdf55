// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/resound/internal/fetch"
	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/shared"
	"github.com/desertthunder/resound/internal/storage"
)

// MockFetcher is a test double for [fetch.Fetcher] that writes canned audio
// bytes to a temp file and counts invocations.
type MockFetcher struct {
	mu      sync.Mutex
	calls   int
	Dir     string        // Scratch directory for fake downloads
	Audio   []byte        // Bytes each fetch materializes
	Err     error         // When set, Fetch fails without producing a file
	Latency time.Duration // Optional artificial fetch delay
}

// NewMockFetcher creates a fetcher producing the given bytes in dir.
func NewMockFetcher(dir string, audio []byte) *MockFetcher {
	return &MockFetcher{Dir: dir, Audio: audio}
}

func (m *MockFetcher) Fetch(ctx context.Context, videoID string) (*fetch.Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}

	f, err := os.CreateTemp(m.Dir, videoID+"-*.audio")
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(m.Audio); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return &fetch.Result{
		AudioPath: f.Name(),
		Track:     models.NewTrack(videoID, "Mock Title", "Mock Artist", "", 180),
	}, nil
}

// Calls returns the number of Fetch invocations.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockStore is an in-memory test double for [storage.Store] that counts
// operations per method.
type MockStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	access  map[string]time.Time
	Existed int    // Exists invocations
	Puts    int    // Put invocations
	Opens   int    // Resolve invocations
	BaseURL string // When set, Resolve returns signed URLs instead of readers
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		blobs:  make(map[string][]byte),
		access: make(map[string]time.Time),
	}
}

func (s *MockStore) Exists(ctx context.Context, videoID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Existed++
	_, ok := s.blobs[videoID]
	return ok, nil
}

func (s *MockStore) Put(ctx context.Context, videoID string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Puts++
	s.blobs[videoID] = data
	s.access[videoID] = time.Now()
	return nil
}

func (s *MockStore) Resolve(ctx context.Context, videoID string) (*storage.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Opens++

	data, ok := s.blobs[videoID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	s.access[videoID] = time.Now()

	if s.BaseURL != "" {
		return &storage.Handle{
			Size:      int64(len(data)),
			ModTime:   time.Now(),
			SignedURL: s.BaseURL + "/" + videoID,
		}, nil
	}

	return &storage.Handle{
		Reader:  nopReadSeekCloser{bytes.NewReader(data)},
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}, nil
}

func (s *MockStore) Delete(ctx context.Context, videoID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[videoID]; !ok {
		return false, nil
	}
	delete(s.blobs, videoID)
	delete(s.access, videoID)
	return true, nil
}

func (s *MockStore) List(ctx context.Context) ([]models.AssetInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var assets []models.AssetInfo
	for id, data := range s.blobs {
		assets = append(assets, models.AssetInfo{
			VideoID:    id,
			Size:       int64(len(data)),
			LastAccess: s.access[id],
		})
	}
	return assets, nil
}

// Content returns the stored bytes for an identifier, for assertions.
func (s *MockStore) Content(videoID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blobs[videoID]
}

type nopReadSeekCloser struct{ *bytes.Reader }

func (nopReadSeekCloser) Close() error { return nil }

// MockRecorder is a test double for [history.Recorder] capturing events.
type MockRecorder struct {
	mu     sync.Mutex
	Events []string // "<videoID>:<userID>" per recorded play
	Err    error
}

func (m *MockRecorder) Record(ctx context.Context, videoID, userID string) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, strings.Join([]string{videoID, userID}, ":"))
	return nil
}

// Count returns the number of recorded events.
func (m *MockRecorder) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
