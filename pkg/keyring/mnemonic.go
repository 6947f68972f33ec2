package keyring

import (
	bip39 "github.com/tyler-smith/go-bip39"
)

// NewMnemonicOpts is the struct given to the NewMnemonic method.
type NewMnemonicOpts struct {
	EntropySize int
}

func (o NewMnemonicOpts) validate() error {
	if o.EntropySize > 0 {
		if o.EntropySize < 128 || o.EntropySize > 256 || o.EntropySize%32 != 0 {
			return ErrInvalidEntropySize
		}
	}
	if o.EntropySize < 0 {
		return ErrInvalidEntropySize
	}
	return nil
}

// NewMnemonic returns a freshly generated recovery phrase. The default
// entropy size of 128 bits yields a 12 word phrase.
func NewMnemonic(opts NewMnemonicOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if opts.EntropySize == 0 {
		opts.EntropySize = 128
	}

	entropy, err := bip39.NewEntropy(opts.EntropySize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// IsMnemonicValid returns whether the given phrase is a well-formed
// BIP39 mnemonic.
func IsMnemonicValid(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

func seedFromMnemonic(mnemonic string) []byte {
	return bip39.NewSeed(mnemonic, "")
}
