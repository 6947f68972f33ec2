package securestore

// SecureStorage is a key/value store for secret material. Implementations
// encrypt values at rest; the Secure method tells callers whether they do,
// so that a production build can refuse a plaintext fallback instead of
// silently degrading.
type SecureStorage interface {
	// CreateUnlock creates or unlocks the store with a password.
	CreateUnlock(password *[]byte) error
	// Lock locks the store once unlocked.
	Lock()
	// IsLocked returns whether the store is locked.
	IsLocked() bool
	// SetItem writes a key/value entry.
	SetItem(key, value []byte) error
	// GetItem retrieves the value for a key, nil if the key is absent.
	GetItem(key []byte) ([]byte, error)
	// RemoveItem deletes a key/value entry. Removing an absent key is not
	// an error.
	RemoveItem(key []byte) error
	// Secure returns whether values are encrypted at rest.
	Secure() bool
	// Close closes the underlying DB.
	Close() error
}
