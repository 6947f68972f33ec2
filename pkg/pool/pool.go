// Package pool derives liquidity pool identifiers and custodial account ids
// the same way the chain's asset conversion pallet does. The account
// derivation must reproduce the ledger-side scheme bit for bit: a divergence
// does not fail, it silently prices against an empty account.
package pool

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// palletID is the fixed 8 byte identifier of the asset conversion pallet.
const palletID = "py/ascon"

// AccountIDLen is the length of a derived pool account identifier.
const AccountIDLen = 32

// Pair is a canonical, order-invariant asset pair: the lower asset id always
// comes first.
type Pair struct {
	AssetA uint32
	AssetB uint32
}

// NewPair returns the canonical pair for the two asset ids.
func NewPair(a, b uint32) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{AssetA: a, AssetB: b}
}

// DeriveAccountID computes the pool's custodial account identifier:
// blake2b-256 over the pallet id concatenated with the SCALE encoding of the
// sorted (u32, u32) pair.
func DeriveAccountID(p Pair) []byte {
	preimage := make([]byte, 0, len(palletID)+8)
	preimage = append(preimage, palletID...)
	preimage = binary.LittleEndian.AppendUint32(preimage, p.AssetA)
	preimage = binary.LittleEndian.AppendUint32(preimage, p.AssetB)

	digest := blake2b.Sum256(preimage)
	return digest[:]
}
