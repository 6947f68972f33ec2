package application

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/pezkuwichain/pezd/internal/core/domain"
)

// RegistryService mirrors the durable account registry in memory after an
// initial load, so reads never hit storage and selection set by this process
// is immediately visible to subsequent Current calls.
type RegistryService struct {
	repo domain.AccountRepository

	mtx      sync.RWMutex
	accounts []domain.Account
	selected string
}

// NewRegistryService returns a RegistryService backed by the given
// repository. Load must be called before any other method.
func NewRegistryService(repo domain.AccountRepository) *RegistryService {
	return &RegistryService{repo: repo}
}

// Load reads the accounts and the persisted selection into the in-memory
// mirror. A persisted selection pointing at a vanished account silently
// falls back to none.
func (s *RegistryService) Load(ctx context.Context) error {
	accounts, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}
	selected, err := s.repo.GetSelectedAddress(ctx)
	if err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.accounts = accounts
	s.selected = ""
	for _, a := range accounts {
		if a.Address == selected {
			s.selected = selected
			break
		}
	}
	if selected != "" && s.selected == "" {
		log.Debugf(
			"persisted selection %s no longer exists, falling back to none",
			selected,
		)
	}
	return nil
}

// List returns all known accounts.
func (s *RegistryService) List() []domain.Account {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out := make([]domain.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Current returns the selected account, nil if none.
func (s *RegistryService) Current() *domain.Account {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.findLocked(s.selected)
}

// Select persists and mirrors the active account address. An empty address
// clears the selection. Selecting an unknown address fails with
// ErrAccountNotFound.
func (s *RegistryService) Select(ctx context.Context, address string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if address != "" && s.findLocked(address) == nil {
		return domain.ErrAccountNotFound
	}
	if err := s.repo.UpdateSelectedAddress(ctx, address); err != nil {
		return err
	}
	s.selected = address
	return nil
}

func (s *RegistryService) findLocked(address string) *domain.Account {
	if address == "" {
		return nil
	}
	for i := range s.accounts {
		if s.accounts[i].Address == address {
			account := s.accounts[i]
			return &account
		}
	}
	return nil
}

// add mirrors a repository insertion. Called by the custody service, which
// owns the write path.
func (s *RegistryService) add(account domain.Account) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.accounts = append(s.accounts, account)
}

// remove drops the account from the mirror and returns the address selection
// falls back to: another existing account's address or empty.
func (s *RegistryService) remove(address string) string {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	next := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if a.Address != address {
			next = append(next, a)
		}
	}
	s.accounts = next

	if s.selected != address {
		return s.selected
	}
	if len(s.accounts) > 0 {
		return s.accounts[0].Address
	}
	return ""
}

// setSelected mirrors a selection change already persisted by the caller.
func (s *RegistryService) setSelected(address string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.selected = address
}
