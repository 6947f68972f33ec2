package config

import "github.com/pezkuwichain/pezd/internal/core/domain"

// Network catalog ids. Switching networks is a selection over this table,
// never an arbitrary user supplied endpoint.
const (
	// MainnetNetworkID ...
	MainnetNetworkID = "mainnet"
	// BetaNetworkID is the currently active public testnet.
	BetaNetworkID = "beta"
	// AlfaNetworkID is the canary network for early feature testing.
	AlfaNetworkID = "alfa"
	// DevNetworkID ...
	DevNetworkID = "dev"
	// LocalNetworkID ...
	LocalNetworkID = "local"
)

var networks = []domain.NetworkConfig{
	{
		ID:              MainnetNetworkID,
		DisplayName:     "Pezkuwi Mainnet",
		EndpointURL:     "wss://mainnet.pezkuwichain.io",
		AddressFormatID: 0,
		Classification:  domain.NetworkMainnet,
	},
	{
		ID:              BetaNetworkID,
		DisplayName:     "Pezkuwi Beta Testnet",
		EndpointURL:     "wss://rpc.pezkuwichain.io:9944",
		AddressFormatID: 42,
		Classification:  domain.NetworkTestnet,
	},
	{
		ID:              AlfaNetworkID,
		DisplayName:     "Pezkuwi Alfa Testnet",
		EndpointURL:     "wss://alfa.pezkuwichain.io",
		AddressFormatID: 42,
		Classification:  domain.NetworkCanary,
	},
	{
		ID:              DevNetworkID,
		DisplayName:     "Pezkuwi Development",
		EndpointURL:     "wss://dev.pezkuwichain.io",
		AddressFormatID: 42,
		Classification:  domain.NetworkDev,
	},
	{
		ID:              LocalNetworkID,
		DisplayName:     "Local Development",
		EndpointURL:     "ws://127.0.0.1:9944",
		AddressFormatID: 42,
		Classification:  domain.NetworkDev,
	},
}

// Networks returns a copy of the compiled-in network catalog.
func Networks() []domain.NetworkConfig {
	out := make([]domain.NetworkConfig, len(networks))
	copy(out, networks)
	return out
}

// NetworkByID looks a network up in the catalog.
func NetworkByID(id string) (domain.NetworkConfig, bool) {
	for _, n := range networks {
		if n.ID == id {
			return n, true
		}
	}
	return domain.NetworkConfig{}, false
}
