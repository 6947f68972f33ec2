package securestore

import "fmt"

var (
	// ErrStoreLocked specifies that the store must be unlocked to perform
	// the requested operation.
	ErrStoreLocked = fmt.Errorf("store is locked")
	// ErrPasswordRequired specifies that a password is required to
	// create/unlock the store.
	ErrPasswordRequired = fmt.Errorf("password must not be null")
	// ErrMissingKey specifies that a data key is required to perform the
	// requested operation.
	ErrMissingKey = fmt.Errorf("missing data key")
	// ErrMissingValue specifies that the data value is required to perform
	// a write operation.
	ErrMissingValue = fmt.Errorf("missing data to add")
)
