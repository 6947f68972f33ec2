package boltsecurestore

import (
	"fmt"

	"github.com/pezkuwichain/pezd/pkg/securestore"
)

var (
	// ErrStoreLocked ...
	ErrStoreLocked = securestore.ErrStoreLocked
	// ErrPasswordRequired ...
	ErrPasswordRequired = securestore.ErrPasswordRequired
	// ErrMissingKey ...
	ErrMissingKey = securestore.ErrMissingKey
	// ErrMissingValue ...
	ErrMissingValue = securestore.ErrMissingValue

	// ErrInvalidPassword is returned when trying to unlock the store with an
	// incorrect password.
	ErrInvalidPassword = fmt.Errorf("password is not valid")
	// ErrRootBucketNotFound specifies that there is no root bucket, which
	// can happen only if the store has been corrupted or was initialized
	// incorrectly.
	ErrRootBucketNotFound = fmt.Errorf("root bucket not found")
	// ErrForbiddenKey is used when the data key collides with the store's
	// reserved encryption key entry.
	ErrForbiddenKey = fmt.Errorf("data key is not allowed")
)
