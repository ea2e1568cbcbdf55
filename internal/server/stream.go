package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/pipeline"
	"github.com/desertthunder/resound/internal/shared"
	"github.com/desertthunder/resound/internal/storage"
)

// StreamHandler serves the audio cache over HTTP.
//
// All pipeline failures are mapped to status codes here: invalid identifier
// shape → 400 (before any fetcher or store call), missing asset → 404,
// fetch/transcode/storage failures → 500 with the underlying message.
type StreamHandler struct {
	pipeline *pipeline.Pipeline
	logger   *log.Logger
	mux      *http.ServeMux
}

// NewStreamHandler creates a StreamHandler over the given pipeline.
func NewStreamHandler(p *pipeline.Pipeline, logger *log.Logger) *StreamHandler {
	h := &StreamHandler{pipeline: p, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /stream/stats/storage", h.Stats)
	mux.HandleFunc("POST /stream/cleanup", h.Cleanup)
	mux.HandleFunc("GET /stream/info/{id}", h.Info)
	mux.HandleFunc("GET /stream/{id}", h.Stream)
	mux.HandleFunc("DELETE /stream/{id}", h.Delete)
	h.mux = mux

	return h
}

// Routes returns the path patterns this handler serves.
func (h *StreamHandler) Routes() []string {
	return []string{"/stream/"}
}

// ServeHTTP dispatches to the endpoint handlers.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Stream serves the audio for an identifier, fetching and caching on miss.
//
// Local backend: byte-range capable response via [http.ServeContent]. Blob
// backend: 302 to a signed URL. A successful serve records a play for
// identified callers, fire-and-forget.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("id")
	if !models.ValidVideoID(videoID) {
		h.writeError(w, http.StatusBadRequest, "Invalid video ID")
		return
	}

	handle, err := h.pipeline.Ensure(r.Context(), videoID)
	if err != nil {
		h.respondPipelineError(w, videoID, err)
		return
	}

	if handle.SignedURL != "" {
		http.Redirect(w, r, handle.SignedURL, http.StatusFound)
		h.recordPlay(r, videoID)
		return
	}

	defer handle.Reader.Close()

	w.Header().Set("Content-Type", storage.ContentTypeMPEG)
	w.Header().Set("Accept-Ranges", "bytes")
	// ServeContent negotiates Range headers: 200 full body, 206 partial with
	// Content-Range, 416 for unsatisfiable or malformed ranges. The empty
	// name suppresses content-type sniffing in favor of the header above.
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	http.ServeContent(sw, r, "", handle.ModTime, handle.Reader)

	// A rejected range request is not a play.
	if sw.status < http.StatusBadRequest {
		h.recordPlay(r, videoID)
	}
}

// recordPlay notes a completed serve for identified callers, fire-and-forget.
func (h *StreamHandler) recordPlay(r *http.Request, videoID string) {
	if caller := CallerID(r); caller != "" {
		h.pipeline.RecordPlay(videoID, caller)
	}
}

// Info returns the metadata snapshot without forcing a fetch.
func (h *StreamHandler) Info(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("id")
	if !models.ValidVideoID(videoID) {
		h.writeError(w, http.StatusBadRequest, "Invalid video ID")
		return
	}

	info, err := h.pipeline.Info(r.Context(), videoID)
	if err != nil {
		h.respondPipelineError(w, videoID, err)
		return
	}

	h.writeJSON(w, http.StatusOK, info)
}

// Delete removes the cached asset for an identifier.
func (h *StreamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("id")
	if !models.ValidVideoID(videoID) {
		h.writeError(w, http.StatusBadRequest, "Invalid video ID")
		return
	}

	if err := h.pipeline.Delete(r.Context(), videoID); err != nil {
		h.respondPipelineError(w, videoID, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "identifier": videoID})
}

// Stats reports aggregate cache usage.
func (h *StreamHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.pipeline.Stats(r.Context())
	if err != nil {
		h.respondPipelineError(w, "", err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// Cleanup triggers one eviction pass and returns the refreshed stats.
func (h *StreamHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	stats, err := h.pipeline.Cleanup(r.Context())
	if err != nil {
		h.respondPipelineError(w, "", err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// respondPipelineError maps the error taxonomy onto HTTP status codes.
func (h *StreamHandler) respondPipelineError(w http.ResponseWriter, videoID string, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidVideoID):
		h.writeError(w, http.StatusBadRequest, "Invalid video ID")
	case errors.Is(err, shared.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "Not found")
	default:
		h.logger.Error("stream pipeline error", "video_id", videoID, "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *StreamHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *StreamHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
