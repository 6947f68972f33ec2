package domain

import "context"

// AccountRepository is the durable registry of known accounts plus the two
// persisted selections: the active account address and the active network id.
type AccountRepository interface {
	// GetAll returns every known account.
	GetAll(ctx context.Context) ([]Account, error)
	// GetByAddress returns the account with the given address or
	// ErrAccountNotFound.
	GetByAddress(ctx context.Context, address string) (*Account, error)
	// Add stores a new account, failing with ErrAccountAlreadyExists if the
	// address is already present.
	Add(ctx context.Context, account Account) error
	// UpdateDisplayName renames an existing account.
	UpdateDisplayName(ctx context.Context, address, displayName string) error
	// Delete removes the account with the given address. Deleting an absent
	// address is not an error.
	Delete(ctx context.Context, address string) error

	// GetSelectedAddress returns the persisted active account address, empty
	// if none is selected.
	GetSelectedAddress(ctx context.Context) (string, error)
	// UpdateSelectedAddress persists the active account address; an empty
	// string clears the selection.
	UpdateSelectedAddress(ctx context.Context, address string) error

	// GetSelectedNetwork returns the persisted network id, empty if the
	// default applies.
	GetSelectedNetwork(ctx context.Context) (string, error)
	// UpdateSelectedNetwork persists the network id.
	UpdateSelectedNetwork(ctx context.Context, networkID string) error
}
