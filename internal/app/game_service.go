package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
	"github.com/zaidAlkhathlan/ramdan/internal/riddle"
)

// UserStore abstracts how participant records are persisted (in-memory, Postgres, etc).
type UserStore interface {
	// Get returns the participant record or domain.ErrRecordNotFound.
	Get(ctx context.Context, userID string) (domain.Participant, error)
	// Create initializes a zero-point record. Creating an existing record is
	// a no-op returning the stored one.
	Create(ctx context.Context, userID, email string) (domain.Participant, error)
	// MarkAnswered applies the whole day transition in one store operation:
	// sets the answer day and correctness flag together and atomically adds
	// bonus to points. It is conditional on the record not already carrying
	// day, returning domain.ErrAlreadyAnswered when it does; callers rely on
	// this to close the double-submit race. Returns the new point total.
	MarkAnswered(ctx context.Context, userID string, day domain.Day, correct bool, bonus int) (int, error)
	// Leaderboard returns up to limit records ordered by points descending,
	// ties broken by record creation order.
	Leaderboard(ctx context.Context, limit int) ([]domain.Participant, error)
}

// PlacementCounter assigns arrival-order slots among a day's correct
// responders. Next is a fetch-and-increment; Release gives a slot back after
// a failed award (compare-and-swap, only the most recent slot can be
// returned).
type PlacementCounter interface {
	Next(ctx context.Context, day domain.Day) (int, error)
	Release(ctx context.Context, day domain.Day, slot int) error
}

// RiddleSource supplies the fixed ordered riddle pool.
type RiddleSource interface {
	Pool(ctx context.Context) ([]domain.Riddle, error)
}

// Bonus schedule by 0-indexed placement among today's correct responders.
// Arrival order is normative; global rank-by-points plays no part here.
var bonusSchedule = []int{15, 10, 5}

// BonusFor returns the points awarded for a placement slot.
func BonusFor(placement int) int {
	if placement < 0 || placement >= len(bonusSchedule) {
		return 0
	}
	return bonusSchedule[placement]
}

// DefaultLeaderboardLimit bounds leaderboard queries when callers pass 0.
const DefaultLeaderboardLimit = 10

// conflictRetries bounds retries of the placement fetch and the award write
// under transient store conflicts.
const conflictRetries = 3

// GameService contains the daily riddle use cases: attempt gating, scoring
// with tiered first-three bonuses, and ranking.
type GameService struct {
	users       UserStore
	counter     PlacementCounter
	riddles     RiddleSource
	window      riddle.Window
	now         func() time.Time
	broadcaster *Broadcaster
	userLocks   sync.Map // userID -> *sync.Mutex
}

func NewGameService(users UserStore, counter PlacementCounter, riddles RiddleSource, window riddle.Window) *GameService {
	return NewGameServiceWithClock(users, counter, riddles, window, time.Now)
}

// NewGameServiceWithClock allows deterministic time in tests.
func NewGameServiceWithClock(users UserStore, counter PlacementCounter, riddles RiddleSource, window riddle.Window, now func() time.Time) *GameService {
	return &GameService{
		users:       users,
		counter:     counter,
		riddles:     riddles,
		window:      window,
		now:         now,
		broadcaster: NewBroadcaster(),
	}
}

// RiddleView is the presentation-safe slice of a riddle: the answer never
// leaves the service.
type RiddleView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// TodayRiddle returns the current riddle together with the caller's attempt
// state for today. Outside the configured answering window it returns
// domain.ErrOutsideWindow regardless of attempt state.
func (s *GameService) TodayRiddle(ctx context.Context, userID string) (RiddleView, domain.AttemptState, error) {
	now := s.now()
	if !s.window.Contains(now) {
		return RiddleView{}, domain.NotAnswered, domain.ErrOutsideWindow
	}

	pool, err := s.riddles.Pool(ctx)
	if err != nil {
		return RiddleView{}, domain.NotAnswered, err
	}
	if len(pool) == 0 {
		return RiddleView{}, domain.NotAnswered, domain.ErrEmptyPool
	}
	r := riddle.Select(pool, now)

	state := domain.NotAnswered
	if rec, err := s.users.Get(ctx, userID); err == nil {
		state = rec.StateOn(domain.DayOf(now))
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return RiddleView{}, domain.NotAnswered, err
	}

	return RiddleView{Question: r.Question, Options: r.Options}, state, nil
}

// EnsureRecord creates the zero-point participant record at registration.
func (s *GameService) EnsureRecord(ctx context.Context, userID, email string) error {
	_, err := s.users.Create(ctx, userID, email)
	return err
}

// SubmitAnswer evaluates a participant's choice against today's riddle,
// assigns their placement among today's correct responders, and applies the
// tiered bonus. Each user gets exactly one scoring transition per day; a
// second call for the same day fails with domain.ErrAlreadyAnswered and
// changes nothing.
func (s *GameService) SubmitAnswer(ctx context.Context, userID, email, choice string) (domain.ScoreResult, error) {
	now := s.now()
	if !s.window.Contains(now) {
		return domain.ScoreResult{}, domain.ErrOutsideWindow
	}
	if strings.TrimSpace(choice) == "" {
		return domain.ScoreResult{}, domain.ErrEmptyChoice
	}

	// A user's own submissions never interleave between the gate check and
	// the award write: a duplicate that slipped past the gate would consume
	// a slot it can never be awarded, stranding the day's top bonus.
	unlock := s.lockUser(userID)
	defer unlock()

	rec, err := s.users.Get(ctx, userID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		// First-time responder: initialize before scoring.
		rec, err = s.users.Create(ctx, userID, email)
	}
	if err != nil {
		return domain.ScoreResult{}, err
	}

	day := domain.DayOf(now)
	if rec.StateOn(day) != domain.NotAnswered {
		return domain.ScoreResult{}, domain.ErrAlreadyAnswered
	}

	pool, err := s.riddles.Pool(ctx)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	if len(pool) == 0 {
		return domain.ScoreResult{}, domain.ErrEmptyPool
	}
	todays := riddle.Select(pool, now)

	if choice != todays.Answer {
		total, err := s.markAnswered(ctx, userID, day, false, 0)
		if err != nil {
			return domain.ScoreResult{}, err
		}
		return domain.ScoreResult{Correct: false, Placement: -1, Bonus: 0, TotalPoints: total}, nil
	}

	// Placement is assigned by a day-scoped fetch-and-increment, serializing
	// concurrent correct answers so no two users share a paid slot.
	slot, err := s.nextSlot(ctx, day)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	bonus := BonusFor(slot)

	total, err := s.markAnswered(ctx, userID, day, true, bonus)
	if err != nil {
		// The record write failed, so the slot was never awarded; hand it
		// back so the next correct responder can claim it.
		if relErr := s.counter.Release(ctx, day, slot); relErr != nil {
			return domain.ScoreResult{}, errors.Join(err, relErr)
		}
		return domain.ScoreResult{}, err
	}

	s.publishLeaderboard(ctx)
	return domain.ScoreResult{Correct: true, Placement: slot, Bonus: bonus, TotalPoints: total}, nil
}

// lockUser serializes all submissions by one user; cross-user ordering needs
// no lock beyond the day counter.
func (s *GameService) lockUser(userID string) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// markAnswered retries the conditional award write a bounded number of times
// on store conflicts; contention from simultaneous correct answers is
// expected and transient.
func (s *GameService) markAnswered(ctx context.Context, userID string, day domain.Day, correct bool, bonus int) (int, error) {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		total, err := s.users.MarkAnswered(ctx, userID, day, correct, bonus)
		if err == nil {
			return total, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

// nextSlot retries the day counter the same way; a fresh day's counter can
// conflict with itself when several correct answers race to create it.
func (s *GameService) nextSlot(ctx context.Context, day domain.Day) (int, error) {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		slot, err := s.counter.Next(ctx, day)
		if err == nil {
			return slot, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

// Leaderboard returns the top-limit scoreboard, points descending with
// record creation order breaking ties. All registered users are ranked by
// lifetime points; there is no answered-today filter.
func (s *GameService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	rows, err := s.users.Leaderboard(ctx, limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for i, rec := range rows {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:   i + 1,
			Email:  rec.Email,
			Points: rec.Points,
		})
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}

// Rank returns the 1-based position of userID within the same top-limit
// window Leaderboard uses, or domain.ErrNotRanked when the user falls
// outside it.
func (s *GameService) Rank(ctx context.Context, userID string, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	rows, err := s.users.Leaderboard(ctx, limit)
	if err != nil {
		return 0, err
	}
	for i, rec := range rows {
		if rec.UserID == userID {
			return i + 1, nil
		}
	}
	return 0, domain.ErrNotRanked
}

// Subscribe returns a channel receiving leaderboard snapshots after each
// accepted correct answer. The caller must invoke cancel to avoid leaks.
func (s *GameService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Leaderboard(ctx, DefaultLeaderboardLimit)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.broadcaster.Subscribe(initial)
	return ch, cancel, nil
}

func (s *GameService) publishLeaderboard(ctx context.Context) {
	lb, err := s.Leaderboard(ctx, DefaultLeaderboardLimit)
	if err != nil {
		return // display feed is informational; scoring already committed
	}
	s.broadcaster.Publish(lb)
}
