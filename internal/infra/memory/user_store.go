package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

// UserStore is an in-memory implementation of app.UserStore, used in tests
// and in the no-database demo mode.
type UserStore struct {
	mu      sync.RWMutex
	records map[string]*domain.Participant
	nextSeq int64
}

func NewUserStore() *UserStore {
	return &UserStore{records: make(map[string]*domain.Participant)}
}

func (s *UserStore) Get(_ context.Context, userID string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return domain.Participant{}, domain.ErrRecordNotFound
	}
	return *rec, nil
}

func (s *UserStore) Create(_ context.Context, userID, email string) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[userID]; ok {
		return *rec, nil
	}
	s.nextSeq++
	rec := &domain.Participant{
		UserID: userID,
		Email:  email,
		Seq:    s.nextSeq,
	}
	s.records[userID] = rec
	return *rec, nil
}

// MarkAnswered applies the day transition and the bonus increment under one
// lock, conditional on the record not already carrying day.
func (s *UserStore) MarkAnswered(_ context.Context, userID string, day domain.Day, correct bool, bonus int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return 0, domain.ErrRecordNotFound
	}
	if rec.LastAnswerDay == day {
		return 0, domain.ErrAlreadyAnswered
	}
	rec.LastAnswerDay = day
	rec.CorrectToday = correct
	rec.Points += bonus
	return rec.Points, nil
}

func (s *UserStore) Leaderboard(_ context.Context, limit int) ([]domain.Participant, error) {
	s.mu.RLock()
	rows := make([]domain.Participant, 0, len(s.records))
	for _, rec := range s.records {
		rows = append(rows, *rec)
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].Seq < rows[j].Seq
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
