package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = assetItem{}
)

// assetItem is one cached asset row: storage facts joined with track metadata.
type assetItem struct {
	videoID    string
	title      string
	artist     string
	size       int64
	lastAccess time.Time
}

func (i assetItem) FilterValue() string { return i.title }
func (i assetItem) Title() string {
	if i.title == "" {
		return i.videoID
	}
	return i.title
}

func (i assetItem) Description() string {
	desc := fmt.Sprintf("%s • %.1f MB", i.videoID, float64(i.size)/(1024*1024))
	if i.artist != "" {
		desc = fmt.Sprintf("%s • %s", i.artist, desc)
	}
	if !i.lastAccess.IsZero() {
		desc = fmt.Sprintf("%s • played %s", desc, i.lastAccess.Format("2006-01-02 15:04"))
	}
	return desc
}
