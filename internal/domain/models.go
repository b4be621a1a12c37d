package domain

import "time"

// Day is a calendar date in ISO form (2006-01-02). All attempt gating is
// keyed on Day: a new day is a fresh attempt, not a transition of the old one.
type Day string

// DayOf truncates a wall-clock instant to its calendar date.
func DayOf(t time.Time) Day {
	return Day(t.Format("2006-01-02"))
}

// AttemptState is the per-user per-day answer state.
type AttemptState int

const (
	NotAnswered AttemptState = iota
	AnsweredCorrect
	AnsweredIncorrect
)

func (s AttemptState) String() string {
	switch s {
	case AnsweredCorrect:
		return "correct"
	case AnsweredIncorrect:
		return "incorrect"
	default:
		return "not_answered"
	}
}

// Participant is the persistent per-user record. Points only ever grow
// through answering; LastAnswerDay and CorrectToday are written together in
// a single store operation so the pair can never disagree.
type Participant struct {
	UserID        string
	Email         string
	Points        int
	LastAnswerDay Day
	CorrectToday  bool
	// Seq is the record creation order, used as the stable leaderboard
	// tie-breaker when points are equal.
	Seq int64
}

// StateOn derives the attempt state for a given day.
func (p Participant) StateOn(day Day) AttemptState {
	if p.LastAnswerDay != day {
		return NotAnswered
	}
	if p.CorrectToday {
		return AnsweredCorrect
	}
	return AnsweredIncorrect
}

// Riddle is one entry of the fixed daily pool.
type Riddle struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// ScoreResult summarizes the outcome of a submission for a single user.
type ScoreResult struct {
	Correct     bool `json:"correct"`
	Placement   int  `json:"placement"` // 0-indexed arrival order among today's correct responders; -1 when incorrect
	Bonus       int  `json:"bonus"`
	TotalPoints int  `json:"totalPoints"`
}

// LeaderboardEntry is a display row of the scoreboard.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Email  string `json:"email"`
	Points int    `json:"points"`
}

// Leaderboard captures the ordered scoreboard at a point in time.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Account is the identity-side view of a registered user.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
