// package history records play events as a best-effort side channel.
//
// Recording never blocks or fails playback: the pipeline calls [Recorder]
// from a detached goroutine and only logs errors. Deployments with Redis
// configured get durable play counts and per-user recent lists; everything
// else falls back to the in-memory recorder.
package history

import (
	"context"
	"fmt"
	"sync"

	redis "github.com/redis/go-redis/v9"
)

// recentListMax bounds the per-user recent plays list in Redis.
const recentListMax = 100

// Recorder records one play of a video by a caller.
//
// UserID is empty for anonymous callers; implementations may ignore those
// events entirely.
type Recorder interface {
	Record(ctx context.Context, videoID, userID string) error
}

// MemoryRecorder keeps play counts in process memory.
//
// Used for tests and deployments without Redis. Counts reset on restart.
type MemoryRecorder struct {
	mu     sync.Mutex
	counts map[string]int
	recent map[string][]string
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		counts: make(map[string]int),
		recent: make(map[string][]string),
	}
}

// Record increments the play count and prepends to the user's recent list.
func (m *MemoryRecorder) Record(ctx context.Context, videoID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts[videoID]++
	if userID != "" {
		list := append([]string{videoID}, m.recent[userID]...)
		if len(list) > recentListMax {
			list = list[:recentListMax]
		}
		m.recent[userID] = list
	}

	return nil
}

// Plays returns the recorded play count for a video.
func (m *MemoryRecorder) Plays(videoID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[videoID]
}

// Recent returns the user's most recent plays, newest first.
func (m *MemoryRecorder) Recent(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.recent[userID]...)
}

// RedisRecorder persists play events in Redis.
//
// Layout: `plays:<videoID>` counters and `recent:<userID>` lists trimmed to
// the last 100 entries.
type RedisRecorder struct {
	client *redis.Client
}

// NewRedisRecorder connects to Redis at addr and verifies the connection.
func NewRedisRecorder(ctx context.Context, addr string, db int) (*RedisRecorder, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRecorder{client: client}, nil
}

// Record increments the play counter and updates the user's recent list.
func (r *RedisRecorder) Record(ctx context.Context, videoID, userID string) error {
	pipe := r.client.Pipeline()
	pipe.Incr(ctx, "plays:"+videoID)
	if userID != "" {
		key := "recent:" + userID
		pipe.LPush(ctx, key, videoID)
		pipe.LTrim(ctx, key, 0, recentListMax-1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisRecorder) Close() error {
	return r.client.Close()
}
