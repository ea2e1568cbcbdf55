package storage

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/resound/internal/models"
)

// evictFraction is the share of assets removed per cleanup pass once the
// cache is over its ceiling. Evicting a batch instead of single items avoids
// churn right at the boundary and amortizes the directory scan.
const evictFraction = 0.2

// CapacityManager keeps aggregate cache size under a configured ceiling by
// evicting least-recently-accessed assets.
//
// Eviction is single-pass: one trigger removes ceil(20% of count) assets and
// returns. Triggers are frequent (after every successful put) so repeated
// passes converge; callers wanting immediate convergence can invoke Cleanup
// again.
type CapacityManager struct {
	store    Store
	maxBytes int64
	logger   *log.Logger
}

// NewCapacityManager creates a manager enforcing maxMB megabytes over the store.
//
// A zero or negative ceiling disables eviction.
func NewCapacityManager(store Store, maxMB int64, logger *log.Logger) *CapacityManager {
	return &CapacityManager{
		store:    store,
		maxBytes: maxMB * 1024 * 1024,
		logger:   logger,
	}
}

// Cleanup runs one eviction pass and returns the number of assets removed.
//
// When usage is at or under the ceiling nothing is deleted. Otherwise assets
// are sorted by last-access ascending (ties keep enumeration order) and the
// oldest ceil(20%) are deleted by identifier.
func (m *CapacityManager) Cleanup(ctx context.Context) (int, error) {
	if m.maxBytes <= 0 {
		return 0, nil
	}

	assets, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate cache: %w", err)
	}

	var total int64
	for _, a := range assets {
		total += a.Size
	}

	if total <= m.maxBytes {
		return 0, nil
	}

	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].LastAccess.Before(assets[j].LastAccess)
	})

	batch := int(math.Ceil(evictFraction * float64(len(assets))))

	removed := 0
	for _, a := range assets[:batch] {
		ok, err := m.store.Delete(ctx, a.VideoID)
		if err != nil {
			m.logger.Error("eviction delete failed", "video_id", a.VideoID, "error", err)
			continue
		}
		if ok {
			removed++
			m.logger.Debug("evicted asset", "video_id", a.VideoID, "size", a.Size, "last_access", a.LastAccess)
		}
	}

	m.logger.Info("cache cleanup pass complete",
		"total_bytes", total, "max_bytes", m.maxBytes, "candidates", batch, "removed", removed)

	return removed, nil
}

// Stats reports aggregate usage against the ceiling.
func (m *CapacityManager) Stats(ctx context.Context) (*models.StorageStats, error) {
	assets, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate cache: %w", err)
	}

	var total int64
	for _, a := range assets {
		total += a.Size
	}

	maxMB := m.maxBytes / (1024 * 1024)
	stats := &models.StorageStats{
		TotalFiles:  len(assets),
		TotalSizeMB: math.Round(float64(total)/(1024*1024)*100) / 100,
		MaxSizeMB:   maxMB,
	}
	if m.maxBytes > 0 {
		stats.UsagePercent = math.Round(float64(total)/float64(m.maxBytes)*10000) / 100
	}

	return stats, nil
}
