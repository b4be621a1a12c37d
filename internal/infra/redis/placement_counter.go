package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

// counterTTL keeps day keys around long past midnight so in-flight requests
// straddling the boundary still resolve, then lets Redis reap them.
const counterTTL = 48 * time.Hour

// releaseScript gives a slot back only when it is still the most recently
// assigned one; anything else would hand an already-awarded placement to a
// later responder.
var releaseScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current == tonumber(ARGV[1]) + 1 then
	redis.call('DECR', KEYS[1])
	return 1
end
return 0
`)

// PlacementCounter assigns arrival-order slots per day via a day-scoped
// Redis INCR. The increment is atomic across instances, which serializes
// concurrent correct answers without any cross-user locking.
type PlacementCounter struct {
	client *redis.Client
}

func NewPlacementCounter(client *redis.Client) *PlacementCounter {
	return &PlacementCounter{client: client}
}

func (c *PlacementCounter) Next(ctx context.Context, day domain.Day) (int, error) {
	key := c.key(day)
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, counterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("placement incr: %w", err)
	}
	// INCR returns the new count; slots are 0-indexed.
	return int(incr.Val()) - 1, nil
}

func (c *PlacementCounter) Release(ctx context.Context, day domain.Day, slot int) error {
	if err := releaseScript.Run(ctx, c.client, []string{c.key(day)}, slot).Err(); err != nil {
		return fmt.Errorf("placement release: %w", err)
	}
	return nil
}

func (c *PlacementCounter) key(day domain.Day) string {
	return "riddle:placements:" + string(day)
}
