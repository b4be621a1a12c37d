package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// isTransient reports whether err is a conflict worth retrying rather than
// surfacing.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		(pgErr.Code == serializationFailure || pgErr.Code == deadlockDetected)
}

// UserStore persists participant records in Postgres. The award write is a
// single conditional UPDATE, so the points increment and the day transition
// commit together or not at all.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Get(ctx context.Context, userID string) (domain.Participant, error) {
	var rec domain.Participant
	var day string
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, points, last_answer_day, correct_today, seq FROM users WHERE id=$1`,
		userID,
	).Scan(&rec.UserID, &rec.Email, &rec.Points, &day, &rec.CorrectToday, &rec.Seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	rec.LastAnswerDay = domain.Day(day)
	return rec, nil
}

func (s *UserStore) Create(ctx context.Context, userID, email string) (domain.Participant, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		userID, email,
	)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	return s.Get(ctx, userID)
}

// MarkAnswered is conditional on the record not already carrying day; zero
// rows updated means either a lost double-submit race or a missing record.
func (s *UserStore) MarkAnswered(ctx context.Context, userID string, day domain.Day, correct bool, bonus int) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`UPDATE users
		    SET points = points + $3, last_answer_day = $2, correct_today = $4
		  WHERE id = $1 AND last_answer_day <> $2
		 RETURNING points`,
		userID, string(day), bonus, correct,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.Get(ctx, userID); errors.Is(getErr, domain.ErrRecordNotFound) {
			return 0, domain.ErrRecordNotFound
		}
		return 0, domain.ErrAlreadyAnswered
	}
	if isTransient(err) {
		return 0, domain.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("mark answered: %w", err)
	}
	return total, nil
}

func (s *UserStore) Leaderboard(ctx context.Context, limit int) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, points, last_answer_day, correct_today, seq
		   FROM users ORDER BY points DESC, seq ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var rec domain.Participant
		var day string
		if err := rows.Scan(&rec.UserID, &rec.Email, &rec.Points, &day, &rec.CorrectToday, &rec.Seq); err != nil {
			return nil, fmt.Errorf("leaderboard scan: %w", err)
		}
		rec.LastAnswerDay = domain.Day(day)
		out = append(out, rec)
	}
	return out, rows.Err()
}
