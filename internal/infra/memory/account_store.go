package memory

import (
	"context"
	"sync"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

// AccountStore is an in-memory identity.AccountStore.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account // keyed by email
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]domain.Account)}
}

func (s *AccountStore) Create(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Email]; ok {
		return domain.ErrAccountExists
	}
	s.accounts[account.Email] = account
	return nil
}

func (s *AccountStore) ByEmail(_ context.Context, email string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[email]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}
