package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/pipeline"
	"github.com/desertthunder/resound/internal/shared"
	mocks "github.com/desertthunder/resound/internal/testing"
)

func testHandler(t *testing.T) (*StreamHandler, *mocks.MockFetcher, *mocks.MockStore) {
	t.Helper()

	dir := t.TempDir()
	fetcher := mocks.NewMockFetcher(dir, bytes.Repeat([]byte("a"), 1000))
	store := mocks.NewMockStore()
	logger := shared.NewLogger(io.Discard)

	p := pipeline.New(pipeline.Opts{
		Fetcher: fetcher,
		Store:   store,
		TempDir: dir,
		Logger:  logger,
	})

	return NewStreamHandler(p, logger), fetcher, store
}

func TestStream(t *testing.T) {
	t.Run("Invalid ID Rejected Before Any Work", func(t *testing.T) {
		handler, fetcher, store := testHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/stream/short", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["error"] != "Invalid video ID" {
			t.Errorf("unexpected error message %q", body["error"])
		}

		if fetcher.Calls() != 0 {
			t.Error("invalid IDs should not reach the fetcher")
		}
		if store.Existed != 0 {
			t.Error("invalid IDs should not reach the store")
		}
	})

	t.Run("Miss Fetches And Streams", func(t *testing.T) {
		handler, fetcher, _ := testHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
			t.Errorf("expected audio/mpeg, got %s", ct)
		}

		if ar := rec.Header().Get("Accept-Ranges"); ar != "bytes" {
			t.Errorf("expected Accept-Ranges bytes, got %s", ar)
		}

		if rec.Body.Len() != 1000 {
			t.Errorf("expected 1000 body bytes, got %d", rec.Body.Len())
		}

		if fetcher.Calls() != 1 {
			t.Errorf("expected 1 fetch, got %d", fetcher.Calls())
		}
	})

	t.Run("Range Request", func(t *testing.T) {
		handler, _, _ := testHandler(t)

		// Warm the cache
		warm := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		handler.ServeHTTP(httptest.NewRecorder(), warm)

		req := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		req.Header.Set("Range", "bytes=100-199")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusPartialContent {
			t.Fatalf("expected 206, got %d", rec.Code)
		}

		if cr := rec.Header().Get("Content-Range"); cr != "bytes 100-199/1000" {
			t.Errorf("unexpected Content-Range %q", cr)
		}

		if rec.Body.Len() != 100 {
			t.Errorf("expected 100 body bytes, got %d", rec.Body.Len())
		}
	})

	t.Run("Unsatisfiable Range", func(t *testing.T) {
		handler, _, _ := testHandler(t)

		warm := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		handler.ServeHTTP(httptest.NewRecorder(), warm)

		req := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		req.Header.Set("Range", "bytes=5000-6000")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestedRangeNotSatisfiable {
			t.Errorf("expected 416, got %d", rec.Code)
		}
	})

	t.Run("Signed URL Redirect", func(t *testing.T) {
		handler, _, store := testHandler(t)
		store.BaseURL = "https://blobs.example.com/audio"

		warm := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		handler.ServeHTTP(httptest.NewRecorder(), warm)

		req := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}

		if loc := rec.Header().Get("Location"); loc != "https://blobs.example.com/audio/dQw4w9WgXcQ" {
			t.Errorf("unexpected Location %q", loc)
		}

		if ct := rec.Header().Get("Content-Type"); ct == "audio/mpeg" {
			t.Error("redirect must not stream audio content")
		}

		if rec.Body.Len() >= 1000 {
			t.Errorf("redirect must not carry the asset body, got %d bytes", rec.Body.Len())
		}
	})

	t.Run("Upstream Failure Maps To 500", func(t *testing.T) {
		handler, fetcher, _ := testHandler(t)
		fetcher.Err = fmt.Errorf("%w: video unavailable", shared.ErrUpstreamFetch)

		req := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestPlayRecording(t *testing.T) {
	setup := func(t *testing.T) (http.Handler, *mocks.MockRecorder, *mocks.MockStore) {
		t.Helper()

		dir := t.TempDir()
		fetcher := mocks.NewMockFetcher(dir, bytes.Repeat([]byte("a"), 1000))
		store := mocks.NewMockStore()
		recorder := &mocks.MockRecorder{}
		logger := shared.NewLogger(io.Discard)

		p := pipeline.New(pipeline.Opts{
			Fetcher:  fetcher,
			Store:    store,
			Recorder: recorder,
			TempDir:  dir,
			Logger:   logger,
		})

		return Identify("s3cret")(NewStreamHandler(p, logger)), recorder, store
	}

	authorized := func(target string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Bearer s3cret")
		return req
	}

	waitForEvents := func(recorder *mocks.MockRecorder, want int) int {
		deadline := time.Now().Add(2 * time.Second)
		for recorder.Count() < want && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		return recorder.Count()
	}

	t.Run("Successful Serve Records", func(t *testing.T) {
		handler, recorder, _ := setup(t)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authorized("/stream/dQw4w9WgXcQ"))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		if got := waitForEvents(recorder, 1); got != 1 {
			t.Fatalf("expected 1 recorded play, got %d", got)
		}

		if recorder.Events[0] != "dQw4w9WgXcQ:owner" {
			t.Errorf("unexpected event %q", recorder.Events[0])
		}
	})

	t.Run("Unsatisfiable Range Does Not Record", func(t *testing.T) {
		handler, recorder, _ := setup(t)

		warm := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		handler.ServeHTTP(httptest.NewRecorder(), warm)

		req := authorized("/stream/dQw4w9WgXcQ")
		req.Header.Set("Range", "bytes=5000-6000")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestedRangeNotSatisfiable {
			t.Fatalf("expected 416, got %d", rec.Code)
		}

		time.Sleep(100 * time.Millisecond)
		if got := recorder.Count(); got != 0 {
			t.Errorf("a rejected range must not record a play, got %d events", got)
		}
	})

	t.Run("Anonymous Serve Does Not Record", func(t *testing.T) {
		handler, recorder, _ := setup(t)

		req := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		time.Sleep(100 * time.Millisecond)
		if got := recorder.Count(); got != 0 {
			t.Errorf("anonymous callers must not record plays, got %d events", got)
		}
	})

	t.Run("Redirect Records", func(t *testing.T) {
		handler, recorder, store := setup(t)
		store.BaseURL = "https://blobs.example.com/audio"

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authorized("/stream/dQw4w9WgXcQ"))

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}

		if got := waitForEvents(recorder, 1); got != 1 {
			t.Errorf("a redirect serve should record a play, got %d events", got)
		}
	})
}

func TestInfoEndpoint(t *testing.T) {
	handler, fetcher, _ := testHandler(t)

	t.Run("Uncached", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stream/info/dQw4w9WgXcQ", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var info pipeline.Info
		if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}

		if info.Cached {
			t.Error("uncached asset should report cached=false")
		}

		if info.VideoID != "dQw4w9WgXcQ" {
			t.Errorf("unexpected identifier %q", info.VideoID)
		}

		if fetcher.Calls() != 0 {
			t.Error("info must never trigger a fetch")
		}
	})

	t.Run("Cached", func(t *testing.T) {
		warm := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		handler.ServeHTTP(httptest.NewRecorder(), warm)

		req := httptest.NewRequest(http.MethodGet, "/stream/info/dQw4w9WgXcQ", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var info pipeline.Info
		if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}

		if !info.Cached {
			t.Error("cached asset should report cached=true")
		}

		if info.FileSize != 1000 {
			t.Errorf("expected file size 1000, got %d", info.FileSize)
		}
	})
}

func TestDeleteEndpoint(t *testing.T) {
	handler, _, store := testHandler(t)

	t.Run("Missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/stream/dQw4w9WgXcQ", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Cached", func(t *testing.T) {
		warm := httptest.NewRequest(http.MethodGet, "/stream/dQw4w9WgXcQ", nil)
		handler.ServeHTTP(httptest.NewRecorder(), warm)

		req := httptest.NewRequest(http.MethodDelete, "/stream/dQw4w9WgXcQ", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		if store.Content("dQw4w9WgXcQ") != nil {
			t.Error("asset should be removed")
		}
	})
}

func TestStatsAndCleanupEndpoints(t *testing.T) {
	handler, _, _ := testHandler(t)

	t.Run("Stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stream/stats/storage", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var stats models.StorageStats
		if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/stream/cleanup", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}

func TestHealthHandler(t *testing.T) {
	handler := &HealthHandler{}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected status %q", body["status"])
	}
}
