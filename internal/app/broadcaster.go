package app

import (
	"sync"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

// Broadcaster fans leaderboard snapshots out to display subscribers.
// Delivery is best effort: scoring never blocks on a slow consumer.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[chan domain.Leaderboard]struct{})}
}

// Subscribe registers a consumer and delivers initial as its first snapshot.
// The returned cancel must be called to release the channel.
func (b *Broadcaster) Subscribe(initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	ch <- initial

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish pushes a snapshot to every subscriber, dropping the oldest queued
// snapshot for consumers that have fallen behind.
func (b *Broadcaster) Publish(lb domain.Leaderboard) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
