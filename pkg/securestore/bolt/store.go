package boltsecurestore

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/btcsuite/btcwallet/snacl"
	bolt "go.etcd.io/bbolt"

	"github.com/pezkuwichain/pezd/pkg/securestore"
)

var (
	// rootBucketName is the name of the store's top level bucket.
	rootBucketName = []byte("secrets")

	// encryptionKeyID is the name of the database key that stores the
	// encryption key, encrypted with a salted + hashed password.
	encryptionKeyID = []byte("enckey")
)

const dbTimeout = 5 * time.Second

type boltSecureStorage struct {
	db *bolt.DB

	encKeyMtx sync.RWMutex
	encKey    *snacl.SecretKey
}

// NewSecureStorage creates a bolt backed instance of the SecureStorage
// interface. Values are encrypted with a snacl secret key derived from the
// unlock password.
func NewSecureStorage(datadir, filename string) (securestore.SecureStorage, error) {
	if _, err := os.Stat(datadir); os.IsNotExist(err) {
		if err := os.MkdirAll(datadir, 0700); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(
		filepath.Join(datadir, filename),
		0600,
		&bolt.Options{Timeout: dbTimeout},
	)
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucketName)
		return err
	}); err != nil {
		return nil, err
	}

	return &boltSecureStorage{db: db}, nil
}

// IsLocked returns whether the store is locked by checking if the encryption
// key is held in memory.
func (s *boltSecureStorage) IsLocked() bool {
	s.encKeyMtx.RLock()
	defer s.encKeyMtx.RUnlock()
	return s.encKey == nil
}

// Lock locks the store by zeroing and flushing the in-memory encryption key.
func (s *boltSecureStorage) Lock() {
	s.encKeyMtx.Lock()
	defer s.encKeyMtx.Unlock()
	if s.encKey != nil {
		s.encKey.Zero()
		s.encKey = nil
	}
}

// CreateUnlock sets an encryption key if one is not already stored, otherwise
// it checks the password against the stored one.
func (s *boltSecureStorage) CreateUnlock(password *[]byte) error {
	if !s.IsLocked() {
		return nil
	}
	if password == nil {
		return ErrPasswordRequired
	}

	s.encKeyMtx.Lock()
	defer s.encKeyMtx.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}

		dbKey := bucket.Get(encryptionKeyID)
		if len(dbKey) > 0 {
			encKey := &snacl.SecretKey{}
			if err := encKey.Unmarshal(dbKey); err != nil {
				return err
			}
			if err := encKey.DeriveKey(password); err != nil {
				return ErrInvalidPassword
			}
			s.encKey = encKey
			return nil
		}

		encKey, err := snacl.NewSecretKey(
			password, snacl.DefaultN, snacl.DefaultR, snacl.DefaultP,
		)
		if err != nil {
			return err
		}
		if err := bucket.Put(encryptionKeyID, encKey.Marshal()); err != nil {
			return err
		}

		s.encKey = encKey
		return nil
	})
}

// SetItem stores the value encrypted under the given key.
func (s *boltSecureStorage) SetItem(key, value []byte) error {
	if s.IsLocked() {
		return ErrStoreLocked
	}
	if len(key) <= 0 {
		return ErrMissingKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return ErrForbiddenKey
	}
	if len(value) <= 0 {
		return ErrMissingValue
	}

	s.encKeyMtx.RLock()
	defer s.encKeyMtx.RUnlock()

	encryptedValue, err := s.encKey.Encrypt(value)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}
		return bucket.Put(key, encryptedValue)
	})
}

// GetItem retrieves and decrypts the value stored under the given key. A nil
// value with no error means the key is absent.
func (s *boltSecureStorage) GetItem(key []byte) ([]byte, error) {
	if s.IsLocked() {
		return nil, ErrStoreLocked
	}
	if len(key) <= 0 {
		return nil, ErrMissingKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return nil, ErrForbiddenKey
	}

	s.encKeyMtx.RLock()
	defer s.encKeyMtx.RUnlock()

	var value []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}

		encryptedValue := bucket.Get(key)
		if len(encryptedValue) <= 0 {
			return nil
		}

		v, err := s.encKey.Decrypt(encryptedValue)
		if err != nil {
			return err
		}
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	}); err != nil {
		return nil, err
	}

	return value, nil
}

// RemoveItem deletes the entry stored under the given key.
func (s *boltSecureStorage) RemoveItem(key []byte) error {
	if s.IsLocked() {
		return ErrStoreLocked
	}
	if len(key) <= 0 {
		return ErrMissingKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return ErrForbiddenKey
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(rootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}
		return bucket.Delete(key)
	})
}

// Secure returns true, values are encrypted at rest.
func (s *boltSecureStorage) Secure() bool {
	return true
}

// Close locks the store and closes the connection to the DB.
func (s *boltSecureStorage) Close() error {
	s.Lock()
	return s.db.Close()
}
