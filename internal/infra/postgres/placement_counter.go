package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

// PlacementCounter assigns arrival-order slots from a per-day counter row.
// The upsert-returning statement is atomic, so simultaneous correct answers
// are serialized by the row lock rather than any application-level mutex.
type PlacementCounter struct {
	pool *pgxpool.Pool
}

func NewPlacementCounter(pool *pgxpool.Pool) *PlacementCounter {
	return &PlacementCounter{pool: pool}
}

func (c *PlacementCounter) Next(ctx context.Context, day domain.Day) (int, error) {
	var slots int
	err := c.pool.QueryRow(ctx,
		`INSERT INTO daily_placements (day, slots) VALUES ($1, 1)
		 ON CONFLICT (day) DO UPDATE SET slots = daily_placements.slots + 1
		 RETURNING slots`,
		string(day),
	).Scan(&slots)
	if err != nil {
		if isTransient(err) {
			return 0, domain.ErrConflict
		}
		return 0, fmt.Errorf("placement next: %w", err)
	}
	return slots - 1, nil
}

// Release hands a slot back only while it is still the most recent one.
func (c *PlacementCounter) Release(ctx context.Context, day domain.Day, slot int) error {
	_, err := c.pool.Exec(ctx,
		`UPDATE daily_placements SET slots = slots - 1 WHERE day = $1 AND slots = $2`,
		string(day), slot+1,
	)
	if err != nil {
		return fmt.Errorf("placement release: %w", err)
	}
	return nil
}
