// package models defines the data model for the audio cache service
package models

import (
	"regexp"
	"time"
)

// videoIDPattern matches the external identifier contract: exactly 11
// characters drawn from [A-Za-z0-9_-].
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidVideoID reports whether id satisfies the identifier contract.
//
// The HTTP boundary rejects malformed identifiers before any fetcher or
// store call is made.
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// Model defines the base interface for all persistent models in the audio cache service.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// AssetInfo describes one cached audio object as seen by capacity accounting.
type AssetInfo struct {
	VideoID    string    // Identifier the asset was cached under
	Size       int64     // Size in bytes
	LastAccess time.Time // Last read time, updated on every serve
}

// StorageStats summarizes aggregate cache usage against the configured ceiling.
type StorageStats struct {
	TotalFiles   int     `json:"totalFiles"`
	TotalSizeMB  float64 `json:"totalSizeMB"`
	MaxSizeMB    int64   `json:"maxSizeMB"`
	UsagePercent float64 `json:"usagePercent"`
}
