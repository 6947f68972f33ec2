package ports

import (
	"context"
	"math/big"
)

// LedgerClient is the read/submit surface of a live connection to a ledger
// node. Exactly one live client exists per connection supervisor; every other
// component borrows it through the supervisor, never by dialing its own.
type LedgerClient interface {
	// SystemChain returns the human readable chain name, used as a liveness
	// probe right after dialing.
	SystemChain(ctx context.Context) (string, error)
	// AssetBalance returns the balance of the given asset held by the given
	// account id. A nil balance with no error means the account holds no
	// queryable position for that asset.
	AssetBalance(ctx context.Context, assetID uint32, accountID []byte) (*big.Int, error)
	// SubmitExtrinsic submits a hex encoded signed extrinsic and returns the
	// transaction hash.
	SubmitExtrinsic(ctx context.Context, extrinsicHex string) (string, error)
	// SetAddressFormat applies a network's address format id to the client's
	// decoding registry.
	SetAddressFormat(formatID uint16)
	// Close releases the connection. Idempotent.
	Close() error
}

// LedgerClientFactory dials the given endpoint and returns a live client.
type LedgerClientFactory func(ctx context.Context, endpoint string) (LedgerClient, error)
