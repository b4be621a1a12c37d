package domain

import "errors"

var (
	// ErrAlreadyAnswered is returned when a user has already consumed today's attempt.
	ErrAlreadyAnswered = errors.New("already answered today")
	// ErrEmptyChoice is returned when a submission carries no selected option.
	ErrEmptyChoice = errors.New("no option selected")
	// ErrRecordNotFound indicates the participant record does not exist yet.
	ErrRecordNotFound = errors.New("participant record not found")
	// ErrConflict signals a transient store conflict under concurrent
	// updates; callers may retry a bounded number of times.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrNotRanked indicates the user is outside the leaderboard window.
	ErrNotRanked = errors.New("not ranked")
	// ErrAccountNotFound is returned when an email lookup finds no account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is returned on duplicate registration.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredentials is returned when a password check fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOutsideWindow is returned when the riddle is requested outside the answering window.
	ErrOutsideWindow = errors.New("outside answering window")
	// ErrEmptyPool indicates the riddle pool was configured empty; reported at startup.
	ErrEmptyPool = errors.New("riddle pool is empty")
)
