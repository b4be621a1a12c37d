package memory

import (
	"context"
	"sync"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

// PlacementCounter hands out arrival-order slots per day under a mutex.
type PlacementCounter struct {
	mu    sync.Mutex
	slots map[domain.Day]int
}

func NewPlacementCounter() *PlacementCounter {
	return &PlacementCounter{slots: make(map[domain.Day]int)}
}

// Next returns the next free 0-indexed slot for day.
func (c *PlacementCounter) Next(_ context.Context, day domain.Day) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot := c.slots[day]
	c.slots[day] = slot + 1
	return slot, nil
}

// Release gives slot back if and only if it is still the most recently
// assigned one; out-of-order releases are ignored.
func (c *PlacementCounter) Release(_ context.Context, day domain.Day, slot int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slots[day] == slot+1 {
		c.slots[day] = slot
	}
	return nil
}
