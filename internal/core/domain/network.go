package domain

// NetworkClassification partitions the compiled-in network catalog.
type NetworkClassification string

const (
	// NetworkMainnet ...
	NetworkMainnet NetworkClassification = "mainnet"
	// NetworkTestnet ...
	NetworkTestnet NetworkClassification = "testnet"
	// NetworkCanary ...
	NetworkCanary NetworkClassification = "canary"
	// NetworkDev ...
	NetworkDev NetworkClassification = "dev"
)

// NetworkConfig is one entry of the static network catalog. Entries are
// immutable at runtime; only the selection changes.
type NetworkConfig struct {
	ID              string
	DisplayName     string
	EndpointURL     string
	AddressFormatID uint16
	Classification  NetworkClassification
}
