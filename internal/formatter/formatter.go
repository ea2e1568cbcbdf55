// package formatter provides functions to export cache listings and storage stats to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/shared"
)

// Entry is one cache listing row: storage facts joined with track metadata.
//
// Title and Artist are empty when no metadata exists for the identifier.
type Entry struct {
	VideoID    string
	Title      string
	Artist     string
	Duration   int
	Size       int64
	LastAccess time.Time
}

// JoinListing builds Entry rows from a store enumeration and the matching tracks.
func JoinListing(assets []models.AssetInfo, tracks []*models.Track) []Entry {
	byID := make(map[string]*models.Track, len(tracks))
	for _, t := range tracks {
		byID[t.VideoID()] = t
	}

	entries := make([]Entry, 0, len(assets))
	for _, a := range assets {
		entry := Entry{
			VideoID:    a.VideoID,
			Size:       a.Size,
			LastAccess: a.LastAccess,
		}
		if t, ok := byID[a.VideoID]; ok {
			entry.Title = t.Title()
			entry.Artist = t.Artist()
			entry.Duration = t.Duration()
		}
		entries = append(entries, entry)
	}

	return entries
}

// ExportToCSV converts cache entries to CSV with columns: VideoID, Title, Artist, Duration, SizeBytes, LastAccess
func ExportToCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"VideoID", "Title", "Artist", "Duration", "SizeBytes", "LastAccess"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		record := []string{
			entry.VideoID,
			entry.Title,
			entry.Artist,
			strconv.Itoa(entry.Duration),
			strconv.FormatInt(entry.Size, 10),
			entry.LastAccess.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts cache entries plus storage stats to a Markdown report
func ExportToMarkdown(entries []Entry, stats *models.StorageStats) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Cached Assets\n\n")

	if stats != nil {
		buf.WriteString(fmt.Sprintf("**Files**: %d\n", stats.TotalFiles))
		buf.WriteString(fmt.Sprintf("**Usage**: %.2f / %d MB (%.1f%%)\n\n", stats.TotalSizeMB, stats.MaxSizeMB, stats.UsagePercent))
	}

	buf.WriteString("## Assets\n\n")
	for i, entry := range entries {
		title := entry.Title
		if title == "" {
			title = entry.VideoID
		}
		artistPart := ""
		if entry.Artist != "" {
			artistPart = fmt.Sprintf("%s - ", entry.Artist)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s [%s] (%.1f MB)\n",
			i+1, artistPart, title, shared.FormatDuration(entry.Duration), float64(entry.Size)/(1024*1024)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts cache entries to plain text format
func ExportToText(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Cached assets: %d\n\n", len(entries)))

	for i, entry := range entries {
		title := entry.Title
		if title == "" {
			title = entry.VideoID
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%s, %.1f MB, last played %s)\n",
			i+1, title, entry.VideoID, float64(entry.Size)/(1024*1024), entry.LastAccess.Format("2006-01-02 15:04")))
	}

	return buf.Bytes(), nil
}

// StatsToText renders storage stats for terminal output
func StatsToText(stats *models.StorageStats) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Files:  %d\n", stats.TotalFiles))
	buf.WriteString(fmt.Sprintf("Used:   %.2f MB\n", stats.TotalSizeMB))
	buf.WriteString(fmt.Sprintf("Limit:  %d MB\n", stats.MaxSizeMB))
	buf.WriteString(fmt.Sprintf("Usage:  %.1f%%\n", stats.UsagePercent))

	return buf.Bytes()
}
