// Package inmemorysecurestore holds secrets in a plaintext map. It exists
// for tests and development targets without an encrypted backend and reports
// itself as non-secure; production wiring must reject it.
package inmemorysecurestore

import (
	"sync"

	"github.com/pezkuwichain/pezd/pkg/securestore"
)

type inMemorySecureStorage struct {
	mtx      sync.RWMutex
	unlocked bool
	data     map[string][]byte
}

// NewSecureStorage returns an in-memory, plaintext instance of the
// SecureStorage interface.
func NewSecureStorage() securestore.SecureStorage {
	return &inMemorySecureStorage{data: make(map[string][]byte)}
}

func (s *inMemorySecureStorage) CreateUnlock(password *[]byte) error {
	if password == nil {
		return securestore.ErrPasswordRequired
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.unlocked = true
	return nil
}

func (s *inMemorySecureStorage) Lock() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.unlocked = false
}

func (s *inMemorySecureStorage) IsLocked() bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return !s.unlocked
}

func (s *inMemorySecureStorage) SetItem(key, value []byte) error {
	if s.IsLocked() {
		return securestore.ErrStoreLocked
	}
	if len(key) <= 0 {
		return securestore.ErrMissingKey
	}
	if len(value) <= 0 {
		return securestore.ErrMissingValue
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[string(key)] = v
	return nil
}

func (s *inMemorySecureStorage) GetItem(key []byte) ([]byte, error) {
	if s.IsLocked() {
		return nil, securestore.ErrStoreLocked
	}
	if len(key) <= 0 {
		return nil, securestore.ErrMissingKey
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()
	value, ok := s.data[string(key)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *inMemorySecureStorage) RemoveItem(key []byte) error {
	if s.IsLocked() {
		return securestore.ErrStoreLocked
	}
	if len(key) <= 0 {
		return securestore.ErrMissingKey
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.data, string(key))
	return nil
}

func (s *inMemorySecureStorage) Secure() bool {
	return false
}

func (s *inMemorySecureStorage) Close() error {
	s.Lock()
	return nil
}
