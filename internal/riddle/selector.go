package riddle

import (
	"time"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

// Select maps a calendar date onto the fixed pool: day-of-month mod pool
// size. Deterministic and side-effect free; the same date always yields the
// same riddle, and the mapping repeats with the pool's period.
func Select(pool []domain.Riddle, date time.Time) domain.Riddle {
	return pool[date.Day()%len(pool)]
}

// Window is an optional time-of-day interval during which the riddle may be
// requested and answered. The zero value is unbounded.
type Window struct {
	Start time.Duration // offset from midnight, local to the server clock
	End   time.Duration
}

// Unbounded reports whether the window places no restriction on answering.
func (w Window) Unbounded() bool {
	return w.Start == 0 && w.End == 0
}

// Contains reports whether now's clock time falls inside the window.
// Evaluated against the server clock only; client-supplied time is never
// consulted.
func (w Window) Contains(now time.Time) bool {
	if w.Unbounded() {
		return true
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := now.Sub(midnight)
	if w.Start <= w.End {
		return offset >= w.Start && offset <= w.End
	}
	// Window wraps past midnight (e.g. 21:00–02:00).
	return offset >= w.Start || offset <= w.End
}

// DefaultPool is the built-in riddle set, used when no backing store is
// configured. Pool content is static lookup data, not authored here.
func DefaultPool() []domain.Riddle {
	return []domain.Riddle{
		{
			Question: "ما هو الشيء الذي يمشي بلا قدمين؟",
			Options:  []string{"السيارة", "الظل", "الريح", "النهر"},
			Answer:   "الظل",
		},
		{
			Question: "ما هو الشيء الذي يكتب ولا يقرأ؟",
			Options:  []string{"الكتاب", "الحاسوب", "القلم", "الرسالة"},
			Answer:   "القلم",
		},
		{
			Question: "ما هو الشيء الذي كلما أخذت منه كبر؟",
			Options:  []string{"الثقب", "الحفرة", "البئر", "الهواء"},
			Answer:   "الحفرة",
		},
	}
}
