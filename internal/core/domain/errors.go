package domain

import "errors"

var (
	// ErrCustodyUninitialized is thrown when a custody operation is invoked
	// before the secret store has been unlocked. Recoverable by retry.
	ErrCustodyUninitialized = errors.New(
		"custody is not initialized, retry once the secret store is unlocked",
	)
	// ErrAccountAlreadyExists is thrown when creating or importing an account
	// whose address is already in the registry.
	ErrAccountAlreadyExists = errors.New("account with this address already exists")
	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsecureSecretStore is thrown when a production configuration is
	// wired with a secret store that does not encrypt at rest.
	ErrInsecureSecretStore = errors.New(
		"secret store is not encrypted at rest, refusing to run in production",
	)
	// ErrNullDisplayName ...
	ErrNullDisplayName = errors.New("display name must not be null")
	// ErrUnknownNetwork is thrown when a network id is not part of the
	// compiled-in catalog.
	ErrUnknownNetwork = errors.New("network id is not in the catalog")
	// ErrConnectionNotReady specifies that the ledger connection is not in
	// the Ready state.
	ErrConnectionNotReady = errors.New("ledger connection is not ready")
	// ErrSameAsset is thrown when a swap quote is requested with identical
	// source and destination assets.
	ErrSameAsset = errors.New("source and destination assets must differ")
)
