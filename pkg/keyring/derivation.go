package keyring

import (
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	uriPathSeparator  = "/"
	hardKeyDerivation = "Ed25519HDKD"
	miniSecretLen     = 32
	chainCodeLen      = 32
)

// FromURIOpts is the struct given to the FromURI method.
type FromURIOpts struct {
	URI string
}

func (o FromURIOpts) validate() error {
	if len(o.URI) <= 0 {
		return ErrNullDerivationURI
	}
	if !strings.HasPrefix(o.URI, uriPathSeparator) {
		return ErrMalformedDerivationURI
	}
	return nil
}

// FromURI derives a deterministic keypair from a derivation URI such as
// "//Alice". Junctions prefixed with a double separator are hard junctions;
// single-separator (soft) junctions are rejected since ed25519 does not
// support public derivation.
func FromURI(opts FromURIOpts) (*KeyPair, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	junctions, err := parseJunctions(opts.URI)
	if err != nil {
		return nil, err
	}

	// Bare URIs have no phrase part, so the chain starts from the all-zero
	// mini secret. Every client deriving "//Name" must agree on this base or
	// addresses diverge.
	seed := make([]byte, miniSecretLen)
	for _, j := range junctions {
		seed = deriveHard(seed, j)
	}
	return fromMiniSecret(seed), nil
}

type junction struct {
	value string
	hard  bool
}

func parseJunctions(uri string) ([]junction, error) {
	out := []junction{}
	rest := uri
	for len(rest) > 0 {
		if !strings.HasPrefix(rest, uriPathSeparator) {
			return nil, ErrMalformedDerivationURI
		}
		rest = rest[1:]
		hard := false
		if strings.HasPrefix(rest, uriPathSeparator) {
			hard = true
			rest = rest[1:]
		}
		end := strings.Index(rest, uriPathSeparator)
		var value string
		if end < 0 {
			value, rest = rest, ""
		} else {
			value, rest = rest[:end], rest[end:]
		}
		if len(value) == 0 {
			return nil, ErrMalformedDerivationURI
		}
		if !hard {
			return nil, ErrSoftDerivationNotSupported
		}
		out = append(out, junction{value: value, hard: hard})
	}
	if len(out) == 0 {
		return nil, ErrMalformedDerivationURI
	}
	return out, nil
}

// deriveHard computes the child mini secret of a hard junction:
// blake2b-256( SCALE("Ed25519HDKD") ++ seed ++ chaincode ).
func deriveHard(seed []byte, j junction) []byte {
	preimage := make([]byte, 0, len(hardKeyDerivation)+1+miniSecretLen+chainCodeLen)
	preimage = append(preimage, scaleEncodeString(hardKeyDerivation)...)
	preimage = append(preimage, seed...)
	preimage = append(preimage, j.chainCode()...)

	digest := blake2b.Sum256(preimage)
	return digest[:]
}

// chainCode is the SCALE encoding of the junction value, zero-padded to 32
// bytes, or its blake2b-256 digest when longer.
func (j junction) chainCode() []byte {
	encoded := scaleEncodeString(j.value)
	if len(encoded) > chainCodeLen {
		digest := blake2b.Sum256(encoded)
		return digest[:]
	}
	cc := make([]byte, chainCodeLen)
	copy(cc, encoded)
	return cc
}

// scaleEncodeString encodes a string the SCALE way: compact length prefix
// followed by the raw bytes.
func scaleEncodeString(s string) []byte {
	return append(scaleCompactUint(uint64(len(s))), s...)
}

func scaleCompactUint(n uint64) []byte {
	switch {
	case n < 1<<6:
		return []byte{byte(n << 2)}
	case n < 1<<14:
		v := uint16(n<<2) | 0x01
		return []byte{byte(v), byte(v >> 8)}
	default:
		v := uint32(n<<2) | 0x02
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	}
}
