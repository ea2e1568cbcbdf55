package pipeline

import "sync"

// flight is one shared in-progress fetch. Followers wait on done and read
// err afterwards; the asset itself is re-resolved from the store so all
// waiters observe the same outcome.
type flight struct {
	done chan struct{}
	err  error
}

// inflight de-duplicates concurrent fetches per identifier.
//
// The first caller for an identifier begins the fetch; concurrent callers
// for the same identifier wait on the same flight instead of starting their
// own. Entries are removed on settle (success or failure) so a later request
// can retry a failed fetch.
type inflight struct {
	mu      sync.Mutex
	flights map[string]*flight
}

func newInflight() *inflight {
	return &inflight{flights: make(map[string]*flight)}
}

// begin returns the flight for videoID and whether the caller is its leader.
//
// The leader must call settle exactly once.
func (i *inflight) begin(videoID string) (*flight, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if f, ok := i.flights[videoID]; ok {
		return f, false
	}

	f := &flight{done: make(chan struct{})}
	i.flights[videoID] = f
	return f, true
}

// settle records the outcome, wakes all waiters and clears the entry.
func (i *inflight) settle(videoID string, f *flight, err error) {
	f.err = err

	i.mu.Lock()
	delete(i.flights, videoID)
	i.mu.Unlock()

	close(f.done)
}
