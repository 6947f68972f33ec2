package dbbadger

import (
	"context"

	"github.com/timshannon/badgerhold/v4"

	"github.com/pezkuwichain/pezd/internal/core/domain"
)

// walletSettings is the single record carrying the persisted selections.
type walletSettings struct {
	SelectedAddress string
	SelectedNetwork string
}

const walletSettingsKey = "settings"

type accountRepositoryImpl struct {
	store *badgerhold.Store
}

// NewAccountRepositoryImpl initialize a badger implementation of the
// domain.AccountRepository
func NewAccountRepositoryImpl(store *badgerhold.Store) domain.AccountRepository {
	return accountRepositoryImpl{store}
}

func (r accountRepositoryImpl) GetAll(
	_ context.Context,
) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0)
	if err := r.store.Find(&accounts, nil); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r accountRepositoryImpl) GetByAddress(
	_ context.Context, address string,
) (*domain.Account, error) {
	var account domain.Account
	if err := r.store.Get(address, &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r accountRepositoryImpl) Add(
	_ context.Context, account domain.Account,
) error {
	if err := r.store.Insert(account.Address, &account); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrAccountAlreadyExists
		}
		return err
	}
	return nil
}

func (r accountRepositoryImpl) UpdateDisplayName(
	_ context.Context, address, displayName string,
) error {
	var account domain.Account
	if err := r.store.Get(address, &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return domain.ErrAccountNotFound
		}
		return err
	}
	account.DisplayName = displayName
	return r.store.Update(address, &account)
}

func (r accountRepositoryImpl) Delete(
	_ context.Context, address string,
) error {
	if err := r.store.Delete(address, domain.Account{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return err
	}
	return nil
}

func (r accountRepositoryImpl) GetSelectedAddress(
	_ context.Context,
) (string, error) {
	settings, err := r.getSettings()
	if err != nil {
		return "", err
	}
	return settings.SelectedAddress, nil
}

func (r accountRepositoryImpl) UpdateSelectedAddress(
	_ context.Context, address string,
) error {
	settings, err := r.getSettings()
	if err != nil {
		return err
	}
	settings.SelectedAddress = address
	return r.store.Upsert(walletSettingsKey, &settings)
}

func (r accountRepositoryImpl) GetSelectedNetwork(
	_ context.Context,
) (string, error) {
	settings, err := r.getSettings()
	if err != nil {
		return "", err
	}
	return settings.SelectedNetwork, nil
}

func (r accountRepositoryImpl) UpdateSelectedNetwork(
	_ context.Context, networkID string,
) error {
	settings, err := r.getSettings()
	if err != nil {
		return err
	}
	settings.SelectedNetwork = networkID
	return r.store.Upsert(walletSettingsKey, &settings)
}

func (r accountRepositoryImpl) getSettings() (walletSettings, error) {
	var settings walletSettings
	if err := r.store.Get(walletSettingsKey, &settings); err != nil {
		if err == badgerhold.ErrNotFound {
			return walletSettings{}, nil
		}
		return walletSettings{}, err
	}
	return settings, nil
}
