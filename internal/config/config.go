package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory storing the daemon state.
	DatadirKey = "DATA_DIR_PATH"
	// LogLevelKey are the different logging levels. For reference on the
	// values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// NetworkKey is the id of the network to connect to at startup. Must be
	// one of the compiled-in catalog ids.
	NetworkKey = "NETWORK"
	// RetryIntervalKey is the fixed delay in seconds before a failed
	// connection attempt is retried.
	RetryIntervalKey = "CONNECTION_RETRY_INTERVAL"
	// SwapFeeKey is the liquidity fee per mille embedded in swap quotes,
	// matching the ledger's configured fee.
	SwapFeeKey = "SWAP_FEE_PER_MILLE"
	// SlippageBpsKey is the slippage tolerance in basis points applied to
	// the minimum received amount of a quote.
	SlippageBpsKey = "SLIPPAGE_BPS"
	// AddressFormatKey is the SS58 format id used when rendering newly
	// derived account addresses.
	AddressFormatKey = "ADDRESS_FORMAT"
	// BridgeListenAddrKey is the listen address of the embedded-content
	// bridge channel.
	BridgeListenAddrKey = "BRIDGE_LISTEN_ADDR"
	// ProductionKey marks the build as production grade: a non-encrypted
	// secret store backend is then a startup failure, not a warning.
	ProductionKey = "PRODUCTION"
	// InsecureStoreKey explicitly opts in to the plaintext secret store
	// fallback (development only).
	InsecureStoreKey = "ALLOW_INSECURE_STORE"

	// DbLocation is the datadir subdirectory of the registry database.
	DbLocation = "db"
	// SecretsLocation is the datadir subdirectory of the secret store.
	SecretsLocation = "secrets"
	// SecretsFilename ...
	SecretsFilename = "secrets.db"
)

var vip *viper.Viper

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("PEZ")
	vip.AutomaticEnv()

	defaultDatadir, _ := os.UserHomeDir()
	defaultDatadir = filepath.Join(defaultDatadir, ".pezd")

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(NetworkKey, BetaNetworkID)
	vip.SetDefault(RetryIntervalKey, 5)
	vip.SetDefault(SwapFeeKey, 30)
	vip.SetDefault(SlippageBpsKey, 100)
	vip.SetDefault(AddressFormatKey, 42)
	vip.SetDefault(BridgeListenAddrKey, ":9446")
	vip.SetDefault(ProductionKey, false)
	vip.SetDefault(InsecureStoreKey, false)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}
	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

// GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

// GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

// GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

// GetDuration reads an integer number of seconds.
func GetDuration(key string) time.Duration {
	return time.Duration(vip.GetInt(key)) * time.Second
}

// Set overrides a config value at runtime (tests and CLI flags).
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// GetDatadir returns the base data directory.
func GetDatadir() string {
	return vip.GetString(DatadirKey)
}

func validate() error {
	networkID := vip.GetString(NetworkKey)
	if _, ok := NetworkByID(networkID); !ok {
		return fmt.Errorf("unknown network id %s", networkID)
	}
	if fee := vip.GetInt(SwapFeeKey); fee < 0 || fee >= 1000 {
		return fmt.Errorf("swap fee per mille must be in the range [0,1000)")
	}
	if format := vip.GetInt(AddressFormatKey); format < 0 || format > 63 {
		return fmt.Errorf("address format id must be in the range [0,63]")
	}
	if retry := vip.GetInt(RetryIntervalKey); retry <= 0 {
		return fmt.Errorf("connection retry interval must be positive")
	}
	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	for _, sub := range []string{DbLocation, SecretsLocation} {
		if err := os.MkdirAll(filepath.Join(datadir, sub), 0700); err != nil {
			return err
		}
	}
	return nil
}
