package keyring

import "errors"

var (
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic must not be null")
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrNullDerivationURI ...
	ErrNullDerivationURI = errors.New("derivation uri must not be null")
	// ErrMalformedDerivationURI ...
	ErrMalformedDerivationURI = errors.New(
		"derivation uri must begin with '/' and contain non-empty junctions",
	)
	// ErrSoftDerivationNotSupported ...
	ErrSoftDerivationNotSupported = errors.New(
		"soft junctions are not supported for ed25519 keypairs",
	)
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("address is not a valid SS58 string")
	// ErrInvalidAddressChecksum ...
	ErrInvalidAddressChecksum = errors.New("address checksum mismatch")
	// ErrUnsupportedAddressFormat ...
	ErrUnsupportedAddressFormat = errors.New(
		"address format id must be in the range [0,63]",
	)
)
