package keyring

import (
	"bytes"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	ss58Prefix      = "SS58PRE"
	ss58ChecksumLen = 2
	publicKeyLen    = 32
	maxSimpleFormat = 63
)

// EncodeAddress renders a 32 byte public key as an SS58 address string for
// the given address format id.
func EncodeAddress(pub []byte, formatID uint16) (string, error) {
	if len(pub) != publicKeyLen {
		return "", ErrInvalidAddress
	}
	if formatID > maxSimpleFormat {
		return "", ErrUnsupportedAddressFormat
	}

	data := append([]byte{byte(formatID)}, pub...)
	return base58.Encode(append(data, ss58Checksum(data)...)), nil
}

// DecodeAddress parses an SS58 address and returns its format id and raw
// public key, verifying the embedded checksum.
func DecodeAddress(address string) (uint16, []byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return 0, nil, ErrInvalidAddress
	}
	if len(raw) != 1+publicKeyLen+ss58ChecksumLen {
		return 0, nil, ErrInvalidAddress
	}
	formatID := uint16(raw[0])
	if formatID > maxSimpleFormat {
		return 0, nil, ErrUnsupportedAddressFormat
	}

	data := raw[:1+publicKeyLen]
	if !bytes.Equal(raw[1+publicKeyLen:], ss58Checksum(data)) {
		return 0, nil, ErrInvalidAddressChecksum
	}

	pub := make([]byte, publicKeyLen)
	copy(pub, raw[1:1+publicKeyLen])
	return formatID, pub, nil
}

// Address returns the keypair's SS58 address for the given format id.
func (k *KeyPair) Address(formatID uint16) (string, error) {
	return EncodeAddress(k.pub, formatID)
}

func ss58Checksum(data []byte) []byte {
	hasher, _ := blake2b.New512(nil)
	hasher.Write([]byte(ss58Prefix))
	hasher.Write(data)
	return hasher.Sum(nil)[:ss58ChecksumLen]
}
