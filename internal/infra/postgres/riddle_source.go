package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

// RiddleLoader loads the ordered riddle pool from Postgres (one JSONB row
// per riddle, ordered by idx). It satisfies the cache layers' PoolLoader.
type RiddleLoader struct {
	pool *pgxpool.Pool
}

func NewRiddleLoader(pool *pgxpool.Pool) *RiddleLoader {
	return &RiddleLoader{pool: pool}
}

func (l *RiddleLoader) LoadPool(ctx context.Context) ([]domain.Riddle, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM riddles ORDER BY idx ASC`)
	if err != nil {
		return nil, fmt.Errorf("load riddles: %w", err)
	}
	defer rows.Close()

	var out []domain.Riddle
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan riddle: %w", err)
		}
		var r domain.Riddle
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("unmarshal riddle: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrEmptyPool
	}
	return out, nil
}

// Seed inserts pool as the riddle set, replacing rows with matching indexes.
// Used by the migrate command to install the default pool.
func (l *RiddleLoader) Seed(ctx context.Context, pool []domain.Riddle) error {
	for i, r := range pool {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal riddle %d: %w", i, err)
		}
		if _, err := l.pool.Exec(ctx,
			`INSERT INTO riddles (idx, data) VALUES ($1, $2::jsonb)
			 ON CONFLICT (idx) DO UPDATE SET data = EXCLUDED.data`,
			i, string(data),
		); err != nil {
			return fmt.Errorf("seed riddle %d: %w", i, err)
		}
	}
	return nil
}
