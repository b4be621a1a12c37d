package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

// AccountStore abstracts how identity accounts are persisted.
type AccountStore interface {
	// Create stores a new account, returning domain.ErrAccountExists on a
	// duplicate email.
	Create(ctx context.Context, account domain.Account) error
	// ByEmail returns the account or domain.ErrAccountNotFound.
	ByEmail(ctx context.Context, email string) (domain.Account, error)
}

const minPasswordLen = 6

// Service issues and checks credentials. It knows nothing about scoring;
// the game side only ever sees the stable user id and email.
type Service struct {
	accounts AccountStore
	tokens   *TokenIssuer
	now      func() time.Time
}

func NewService(accounts AccountStore, tokens *TokenIssuer) *Service {
	return &Service{accounts: accounts, tokens: tokens, now: time.Now}
}

// Register creates an account with a bcrypt-hashed credential and returns it
// alongside a signed session token.
func (s *Service) Register(ctx context.Context, email, password string) (domain.Account, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Account{}, "", domain.ErrInvalidCredentials
	}
	if len(password) < minPasswordLen {
		return domain.Account{}, "", domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Account{}, "", err
	}
	account := domain.Account{
		ID:           newID(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return domain.Account{}, "", err
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return domain.Account{}, "", err
	}
	return account, token, nil
}

// Login checks the password against the stored hash and issues a token.
// Unknown emails surface as domain.ErrAccountNotFound so callers can offer
// registration instead.
func (s *Service) Login(ctx context.Context, email, password string) (domain.Account, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := s.accounts.ByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return domain.Account{}, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return domain.Account{}, "", err
	}
	return account, token, nil
}

// Verify validates a bearer token and returns the authenticated identity.
func (s *Service) Verify(token string) (userID, email string, err error) {
	return s.tokens.Verify(token)
}

func newID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
