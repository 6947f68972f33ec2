package keyring

import (
	"crypto/ed25519"
	"strings"
)

// KeyPair holds an ed25519 signing keypair deterministically derived from
// recovery material. The private key never leaves the struct, callers only
// get signatures and the public key.
type KeyPair struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// FromMnemonicOpts is the struct given to the FromMnemonic method.
type FromMnemonicOpts struct {
	Mnemonic string
}

func (o FromMnemonicOpts) validate() error {
	if len(o.Mnemonic) <= 0 {
		return ErrNullMnemonic
	}
	if !IsMnemonicValid(o.Mnemonic) {
		return ErrInvalidMnemonic
	}
	return nil
}

// FromMnemonic derives the keypair of the given recovery phrase. The first
// 32 bytes of the BIP39 seed are used as the ed25519 mini secret.
func FromMnemonic(opts FromMnemonicOpts) (*KeyPair, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	seed := seedFromMnemonic(opts.Mnemonic)
	return fromMiniSecret(seed[:miniSecretLen]), nil
}

// FromRecoveryMaterial derives a keypair from either a mnemonic phrase or a
// derivation URI. Material beginning with the path separator token is
// treated as a URI, anything else as a mnemonic.
func FromRecoveryMaterial(material string) (*KeyPair, error) {
	if strings.HasPrefix(material, uriPathSeparator) {
		return FromURI(FromURIOpts{URI: material})
	}
	return FromMnemonic(FromMnemonicOpts{Mnemonic: material})
}

func fromMiniSecret(mini []byte) *KeyPair {
	priv := ed25519.NewKeyFromSeed(mini)
	return &KeyPair{
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
	}
}

// PublicKey returns the raw 32 byte public key.
func (k *KeyPair) PublicKey() []byte {
	out := make([]byte, len(k.pub))
	copy(out, k.pub)
	return out
}

// Sign returns the ed25519 signature of the given payload.
func (k *KeyPair) Sign(payload []byte) []byte {
	return ed25519.Sign(k.priv, payload)
}

// Verify reports whether sig is a valid signature of payload by pub.
func Verify(pub, payload, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), payload, sig)
}
