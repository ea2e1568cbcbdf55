package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestTrackRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		track := models.NewTrack("dQw4w9WgXcQ", "Never Gonna Give You Up", "Rick Astley", "", 213)

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if track.ID() == "" {
			t.Error("track ID should be set after creation")
		}

		if track.Sequence() == 0 {
			t.Error("track sequence should be set after creation")
		}
	})

	t.Run("Create Duplicate VideoID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)

		if err := repo.Create(models.NewTrack("dQw4w9WgXcQ", "First", "Artist", "", 100)); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if err := repo.Create(models.NewTrack("dQw4w9WgXcQ", "Second", "Artist", "", 100)); err == nil {
			t.Error("creating a second track with the same video ID should fail")
		}
	})

	t.Run("GetByVideoID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		track := models.NewTrack("dQw4w9WgXcQ", "Never Gonna Give You Up", "Rick Astley", "Whenever You Need Somebody", 213)
		track.SetChannel("RickAstleyVEVO")

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		retrieved, err := repo.GetByVideoID("dQw4w9WgXcQ")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if retrieved.Title() != track.Title() {
			t.Errorf("expected title %s, got %s", track.Title(), retrieved.Title())
		}

		if retrieved.Artist() != track.Artist() {
			t.Errorf("expected artist %s, got %s", track.Artist(), retrieved.Artist())
		}

		if retrieved.Channel() != "RickAstleyVEVO" {
			t.Errorf("expected channel RickAstleyVEVO, got %s", retrieved.Channel())
		}
	})

	t.Run("GetByVideoID Unknown", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)

		_, err := repo.GetByVideoID("aaaaaaaaaaa")
		if err != sql.ErrNoRows {
			t.Errorf("expected sql.ErrNoRows, got %v", err)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)

		first := models.NewTrack("dQw4w9WgXcQ", "Old Title", "Old Artist", "", 200)
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("failed to upsert new track: %v", err)
		}

		if err := repo.IncrementPlayCount("dQw4w9WgXcQ"); err != nil {
			t.Fatalf("failed to increment play count: %v", err)
		}

		second := models.NewTrack("dQw4w9WgXcQ", "New Title", "New Artist", "New Album", 213)
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("failed to upsert existing track: %v", err)
		}

		retrieved, err := repo.GetByVideoID("dQw4w9WgXcQ")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if retrieved.Title() != "New Title" {
			t.Errorf("upsert should refresh title, got %s", retrieved.Title())
		}

		if retrieved.PlayCount() != 1 {
			t.Errorf("upsert should preserve play count, got %d", retrieved.PlayCount())
		}
	})

	t.Run("IncrementPlayCount", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		track := models.NewTrack("dQw4w9WgXcQ", "Title", "Artist", "", 180)

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		for i := 0; i < 3; i++ {
			if err := repo.IncrementPlayCount("dQw4w9WgXcQ"); err != nil {
				t.Fatalf("failed to increment play count: %v", err)
			}
		}

		retrieved, err := repo.GetByVideoID("dQw4w9WgXcQ")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if retrieved.PlayCount() != 3 {
			t.Errorf("expected play count 3, got %d", retrieved.PlayCount())
		}
	})

	t.Run("IncrementPlayCount Unknown", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)

		if err := repo.IncrementPlayCount("aaaaaaaaaaa"); err != nil {
			t.Errorf("incrementing an unknown track should be a no-op: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		track := models.NewTrack("dQw4w9WgXcQ", "Title", "Artist", "", 180)

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if err := repo.Delete("dQw4w9WgXcQ"); err != nil {
			t.Fatalf("failed to delete track: %v", err)
		}

		if err := repo.Delete("dQw4w9WgXcQ"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("deleting a missing track should return ErrNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)

		ids := []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"}
		for _, id := range ids {
			if err := repo.Create(models.NewTrack(id, "Title "+id, "Artist", "", 100)); err != nil {
				t.Fatalf("failed to create track %s: %v", id, err)
			}
		}

		tracks, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}

		if len(tracks) != len(ids) {
			t.Fatalf("expected %d tracks, got %d", len(ids), len(tracks))
		}

		for i := 1; i < len(tracks); i++ {
			if tracks[i].Sequence() <= tracks[i-1].Sequence() {
				t.Error("tracks should be ordered by sequence")
			}
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "tracks")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	second, err := NextSequence(db, "tracks")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	if second != first+1 {
		t.Errorf("sequence should increment: got %d then %d", first, second)
	}
}
