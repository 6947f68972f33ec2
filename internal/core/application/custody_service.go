package application

import (
	"context"
	"encoding/hex"

	log "github.com/sirupsen/logrus"

	"github.com/pezkuwichain/pezd/internal/core/domain"
	"github.com/pezkuwichain/pezd/pkg/keyring"
	"github.com/pezkuwichain/pezd/pkg/securestore"
)

// secretKeyPrefix namespaces secret store entries by account address.
const secretKeyPrefix = "secret_"

// Signer is the capability handed out for signing: it exposes the public key
// and a sign operation, never the recovery material behind them.
type Signer interface {
	PublicKey() []byte
	Sign(payload []byte) (string, error)
}

// CreateAccountResult carries the recovery phrase of a freshly created
// account. The phrase crosses this boundary exactly once, for user backup;
// it is never logged and never returned again.
type CreateAccountResult struct {
	Address  string
	Mnemonic string
}

// CustodyServiceOpts groups the constructor-injected dependencies of the
// custody service.
type CustodyServiceOpts struct {
	SecretStore     securestore.SecureStorage
	Repository      domain.AccountRepository
	Registry        *RegistryService
	AddressFormatID uint16
	// Production refuses a secret store without encryption at rest.
	Production bool
}

func (o CustodyServiceOpts) validate() error {
	if o.Production && !o.SecretStore.Secure() {
		return domain.ErrInsecureSecretStore
	}
	return nil
}

// CustodyService derives, stores and resolves signing identities. It is the
// only component allowed to touch the secret store.
type CustodyService struct {
	store           securestore.SecureStorage
	repo            domain.AccountRepository
	registry        *RegistryService
	addressFormatID uint16
}

// NewCustodyService returns a CustodyService, failing loudly when a
// production configuration is paired with a plaintext secret store.
func NewCustodyService(opts CustodyServiceOpts) (*CustodyService, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if !opts.SecretStore.Secure() {
		log.Warn(
			"secret store does not encrypt at rest, acceptable for development only",
		)
	}
	return &CustodyService{
		store:           opts.SecretStore,
		repo:            opts.Repository,
		registry:        opts.Registry,
		addressFormatID: opts.AddressFormatID,
	}, nil
}

// CreateAccount generates (or adopts) a recovery phrase, derives its
// keypair and registers the account. The secret record is written before the
// registry entry so a crash in between cannot leave a registered account
// without recoverable material.
func (s *CustodyService) CreateAccount(
	ctx context.Context, displayName, mnemonic string,
) (*CreateAccountResult, error) {
	if s.store.IsLocked() {
		return nil, domain.ErrCustodyUninitialized
	}

	if mnemonic == "" {
		var err error
		mnemonic, err = keyring.NewMnemonic(keyring.NewMnemonicOpts{})
		if err != nil {
			return nil, err
		}
	}

	address, err := s.register(ctx, displayName, mnemonic)
	if err != nil {
		return nil, err
	}

	log.Debugf("account %s created", address)
	return &CreateAccountResult{Address: address, Mnemonic: mnemonic}, nil
}

// ImportAccount registers an account from existing recovery material: a
// mnemonic phrase or a derivation URI beginning with the path separator.
func (s *CustodyService) ImportAccount(
	ctx context.Context, displayName, recoveryMaterial string,
) (string, error) {
	if s.store.IsLocked() {
		return "", domain.ErrCustodyUninitialized
	}

	address, err := s.register(ctx, displayName, recoveryMaterial)
	if err != nil {
		return "", err
	}

	log.Debugf("account %s imported", address)
	return address, nil
}

func (s *CustodyService) register(
	ctx context.Context, displayName, recoveryMaterial string,
) (string, error) {
	pair, err := keyring.FromRecoveryMaterial(recoveryMaterial)
	if err != nil {
		return "", err
	}
	address, err := pair.Address(s.addressFormatID)
	if err != nil {
		return "", err
	}

	account, err := domain.NewAccount(address, displayName)
	if err != nil {
		return "", err
	}

	// Duplicate check up front: the secret of an existing account must not
	// be overwritten by a colliding create/import.
	if _, err := s.repo.GetByAddress(ctx, address); err == nil {
		return "", domain.ErrAccountAlreadyExists
	} else if err != domain.ErrAccountNotFound {
		return "", err
	}

	// Secret first, registry second.
	if err := s.store.SetItem(secretKey(address), []byte(recoveryMaterial)); err != nil {
		return "", err
	}
	if err := s.repo.Add(ctx, *account); err != nil {
		// A duplicate slipping past the pre-check means the write above
		// re-stored the existing account's identical material; that record
		// must survive. Any other failure leaves an orphan secret to drop.
		if err != domain.ErrAccountAlreadyExists {
			if rmErr := s.store.RemoveItem(secretKey(address)); rmErr != nil {
				log.WithError(rmErr).Warnf(
					"could not clean up secret record for %s", address,
				)
			}
		}
		return "", err
	}
	s.registry.add(*account)

	return address, nil
}

// DeleteAccount removes the account and its secret record together. The
// registry entry goes first so a crash in between can only leave an inert,
// unreachable secret. Deleting an unknown address is a no-op. If the deleted
// account was selected, selection falls back to another account or none.
func (s *CustodyService) DeleteAccount(ctx context.Context, address string) error {
	if s.store.IsLocked() {
		return domain.ErrCustodyUninitialized
	}

	if _, err := s.repo.GetByAddress(ctx, address); err != nil {
		if err == domain.ErrAccountNotFound {
			return nil
		}
		return err
	}

	if err := s.repo.Delete(ctx, address); err != nil {
		return err
	}
	fallback := s.registry.remove(address)
	if err := s.repo.UpdateSelectedAddress(ctx, fallback); err != nil {
		return err
	}
	s.registry.setSelected(fallback)

	if err := s.store.RemoveItem(secretKey(address)); err != nil {
		return err
	}

	log.Debugf("account %s deleted", address)
	return nil
}

// ResolveSigner re-derives the keypair of the given address from its secret
// record and wraps it in a Signer. A missing record yields a nil Signer and
// no error: callers treat it as a recoverable anomaly, not a crash.
func (s *CustodyService) ResolveSigner(
	ctx context.Context, address string,
) (Signer, error) {
	if s.store.IsLocked() {
		return nil, domain.ErrCustodyUninitialized
	}

	material, err := s.store.GetItem(secretKey(address))
	if err != nil {
		return nil, err
	}
	if material == nil {
		log.Debugf("no secret record for %s", address)
		return nil, nil
	}

	pair, err := keyring.FromRecoveryMaterial(string(material))
	if err != nil {
		return nil, err
	}
	return &keyPairSigner{pair: pair}, nil
}

// SignMessage signs an arbitrary message with the account's key and returns
// the hex encoded signature, or an empty string when no secret record
// exists.
func (s *CustodyService) SignMessage(
	ctx context.Context, address string, message []byte,
) (string, error) {
	signer, err := s.ResolveSigner(ctx, address)
	if err != nil {
		return "", err
	}
	if signer == nil {
		return "", nil
	}
	return signer.Sign(message)
}

type keyPairSigner struct {
	pair *keyring.KeyPair
}

func (k *keyPairSigner) PublicKey() []byte {
	return k.pair.PublicKey()
}

func (k *keyPairSigner) Sign(payload []byte) (string, error) {
	return hex.EncodeToString(k.pair.Sign(payload)), nil
}

func secretKey(address string) []byte {
	return []byte(secretKeyPrefix + address)
}
