package domain

// Account is a public signing identity known to the registry. It carries no
// secret material; the matching recovery phrase lives in the secret store,
// keyed by the address.
type Account struct {
	Address     string
	DisplayName string
}

// NewAccount returns a validated Account.
func NewAccount(address, displayName string) (*Account, error) {
	if len(displayName) <= 0 {
		return nil, ErrNullDisplayName
	}
	return &Account{Address: address, DisplayName: displayName}, nil
}
