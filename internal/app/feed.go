package app

import (
	"sync"
	"time"

	"quiz-service/internal/domain"
)

// ActiveSessionsSnapshot is pushed to dashboard subscribers whenever a game starts or ends.
type ActiveSessionsSnapshot struct {
	Sessions  []domain.ActiveSession `json:"sessions"`
	Count     int                    `json:"count"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Feed fans snapshots out to subscribers, keeping only the latest for slow readers.
type Feed struct {
	mu          sync.Mutex
	last        ActiveSessionsSnapshot
	subscribers map[chan ActiveSessionsSnapshot]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[chan ActiveSessionsSnapshot]struct{})}
}

// Subscribe returns a channel primed with the latest snapshot.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *Feed) Subscribe() (<-chan ActiveSessionsSnapshot, func()) {
	ch := make(chan ActiveSessionsSnapshot, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	initial := f.last
	f.mu.Unlock()

	ch <- initial

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *Feed) Publish(snapshot ActiveSessionsSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.last = snapshot
	for ch := range f.subscribers {
		select {
		case ch <- snapshot:
		default:
			// drop the stale update so a slow dashboard never blocks game requests
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
