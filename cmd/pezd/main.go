package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/pezkuwichain/pezd/internal/config"
	"github.com/pezkuwichain/pezd/internal/core/application"
	"github.com/pezkuwichain/pezd/internal/core/domain"
	"github.com/pezkuwichain/pezd/internal/infrastructure/ledger"
	dbbadger "github.com/pezkuwichain/pezd/internal/infrastructure/storage/db/badger"
	"github.com/pezkuwichain/pezd/internal/interfaces/bridge"
	"github.com/pezkuwichain/pezd/pkg/securestore"
	boltsecurestore "github.com/pezkuwichain/pezd/pkg/securestore/bolt"
	inmemorysecurestore "github.com/pezkuwichain/pezd/pkg/securestore/inmemory"
	"github.com/pezkuwichain/pezd/pkg/swapmath"
)

func main() {
	app := &cli.App{
		Name:  "pezd",
		Usage: "Pezkuwi wallet daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "datadir",
				Usage:   "directory holding the wallet state",
				EnvVars: []string{"PEZ_DATA_DIR_PATH"},
			},
			&cli.StringFlag{
				Name:    "network",
				Usage:   "network id to connect to",
				EnvVars: []string{"PEZ_NETWORK"},
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "secret store password",
				EnvVars: []string{"PEZ_PASSWORD"},
			},
		},
		Before: func(ctx *cli.Context) error {
			if datadir := ctx.String("datadir"); datadir != "" {
				config.Set(config.DatadirKey, datadir)
			}
			if network := ctx.String("network"); network != "" {
				config.Set(config.NetworkKey, network)
			}
			log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
			return nil
		},
		Commands: []*cli.Command{
			runCommand(),
			accountCommand(),
			quoteCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("pezd exited with error")
	}
}

// services bundles everything a command needs, with a teardown releasing
// resources in reverse wiring order.
type services struct {
	store      securestore.SecureStorage
	manager    *dbbadger.DbManager
	repo       domain.AccountRepository
	registry   *application.RegistryService
	custody    *application.CustodyService
	connection *application.ConnectionService
	swaps      *application.SwapService

	teardown func()
}

func buildServices(ctx *cli.Context) (*services, error) {
	store, err := openSecretStore(ctx)
	if err != nil {
		return nil, err
	}

	manager, err := dbbadger.NewDbManager(
		filepath.Join(config.GetDatadir(), config.DbLocation), nil,
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	repo := dbbadger.NewAccountRepositoryImpl(manager.Store)

	registry := application.NewRegistryService(repo)
	if err := registry.Load(ctx.Context); err != nil {
		manager.Close()
		store.Close()
		return nil, err
	}

	custody, err := application.NewCustodyService(application.CustodyServiceOpts{
		SecretStore:     store,
		Repository:      repo,
		Registry:        registry,
		AddressFormatID: uint16(config.GetInt(config.AddressFormatKey)),
		Production:      config.GetBool(config.ProductionKey),
	})
	if err != nil {
		manager.Close()
		store.Close()
		return nil, err
	}

	connection := application.NewConnectionService(application.ConnectionServiceOpts{
		Repository:    repo,
		ClientFactory: ledger.NewClient,
		NetworkByID:   config.NetworkByID,
		RetryInterval: config.GetDuration(config.RetryIntervalKey),
	})

	swaps := application.NewSwapService(application.SwapServiceOpts{
		Connection:  connection,
		FeePerMille: uint64(config.GetInt(config.SwapFeeKey)),
		SlippageBps: uint64(config.GetInt(config.SlippageBpsKey)),
	})

	return &services{
		store:      store,
		manager:    manager,
		repo:       repo,
		registry:   registry,
		custody:    custody,
		connection: connection,
		swaps:      swaps,
		teardown: func() {
			connection.Teardown()
			if err := manager.Close(); err != nil {
				log.WithError(err).Warn("error closing registry db")
			}
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("error closing secret store")
			}
		},
	}, nil
}

func openSecretStore(ctx *cli.Context) (securestore.SecureStorage, error) {
	var store securestore.SecureStorage
	if config.GetBool(config.InsecureStoreKey) {
		store = inmemorysecurestore.NewSecureStorage()
	} else {
		var err error
		store, err = boltsecurestore.NewSecureStorage(
			filepath.Join(config.GetDatadir(), config.SecretsLocation),
			config.SecretsFilename,
		)
		if err != nil {
			return nil, err
		}
	}

	password := []byte(ctx.String("password"))
	if err := store.CreateUnlock(&password); err != nil {
		store.Close()
		return nil, fmt.Errorf("unlocking secret store: %w", err)
	}
	return store, nil
}

// startupNetwork prefers the persisted network choice over the configured
// default.
func startupNetwork(ctx context.Context, svc *services) string {
	networkID := config.GetString(config.NetworkKey)
	if saved, err := svc.repo.GetSelectedNetwork(ctx); err == nil && saved != "" {
		if _, ok := config.NetworkByID(saved); ok {
			networkID = saved
		}
	}
	return networkID
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "start the wallet daemon",
		Action: func(ctx *cli.Context) error {
			svc, err := buildServices(ctx)
			if err != nil {
				return err
			}
			defer svc.teardown()

			go func() {
				for event := range svc.connection.Events() {
					if event.Error != "" {
						log.Warnf("connection %s: %s (%s)",
							event.NetworkID, event.State, event.Error)
						continue
					}
					log.Infof("connection %s: %s", event.NetworkID, event.State)
				}
			}()

			if err := svc.connection.Connect(
				startupNetwork(ctx.Context, svc),
			); err != nil {
				return err
			}

			bridgeSvc := application.NewBridgeService(application.BridgeServiceOpts{
				Custody:    svc.custody,
				Registry:   svc.registry,
				Connection: svc.connection,
				Host:       noopHost{},
				Platform:   "desktop",
			})
			bridgeServer := bridge.NewServer(
				config.GetString(config.BridgeListenAddrKey), bridgeSvc,
			)
			go func() {
				if err := bridgeServer.Start(); err != nil {
					log.WithError(err).Panic("error listening on bridge interface")
				}
			}()
			defer bridgeServer.Stop()

			log.Debug("daemon started")

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
			<-sigChan

			log.Debug("exiting")
			return nil
		},
	}
}

func accountCommand() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "manage wallet accounts",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "create an account with a fresh recovery phrase",
				ArgsUsage: "<display name>",
				Action: func(ctx *cli.Context) error {
					svc, err := buildServices(ctx)
					if err != nil {
						return err
					}
					defer svc.teardown()

					result, err := svc.custody.CreateAccount(
						ctx.Context, ctx.Args().First(), "",
					)
					if err != nil {
						return err
					}
					fmt.Println("address:", result.Address)
					fmt.Println("recovery phrase:", result.Mnemonic)
					fmt.Println("write the phrase down, it is not shown again")
					return nil
				},
			},
			{
				Name:      "import",
				Usage:     "import an account from a mnemonic or derivation uri",
				ArgsUsage: "<display name> <recovery material>",
				Action: func(ctx *cli.Context) error {
					svc, err := buildServices(ctx)
					if err != nil {
						return err
					}
					defer svc.teardown()

					address, err := svc.custody.ImportAccount(
						ctx.Context, ctx.Args().Get(0), ctx.Args().Get(1),
					)
					if err != nil {
						return err
					}
					fmt.Println("address:", address)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "list known accounts",
				Action: func(ctx *cli.Context) error {
					svc, err := buildServices(ctx)
					if err != nil {
						return err
					}
					defer svc.teardown()

					selected := svc.registry.Current()
					for _, account := range svc.registry.List() {
						marker := " "
						if selected != nil && selected.Address == account.Address {
							marker = "*"
						}
						fmt.Printf("%s %s\t%s\n", marker, account.Address, account.DisplayName)
					}
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "delete an account and its secret record",
				ArgsUsage: "<address>",
				Action: func(ctx *cli.Context) error {
					svc, err := buildServices(ctx)
					if err != nil {
						return err
					}
					defer svc.teardown()

					return svc.custody.DeleteAccount(ctx.Context, ctx.Args().First())
				},
			},
		},
	}
}

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "quote",
		Usage:     "price a swap against the live pool reserves",
		ArgsUsage: "<asset in> <asset out> <amount in>",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "timeout",
				Usage: "seconds to wait for the connection",
				Value: 30,
			},
			&cli.IntFlag{
				Name:  "decimals",
				Usage: "asset decimals used to render amounts",
				Value: 12,
			},
		},
		Action: func(ctx *cli.Context) error {
			svc, err := buildServices(ctx)
			if err != nil {
				return err
			}
			defer svc.teardown()

			assetIn, err := parseAssetID(ctx.Args().Get(0))
			if err != nil {
				return err
			}
			assetOut, err := parseAssetID(ctx.Args().Get(1))
			if err != nil {
				return err
			}
			amountIn, ok := new(big.Int).SetString(ctx.Args().Get(2), 10)
			if !ok {
				return fmt.Errorf("malformed amount %q", ctx.Args().Get(2))
			}

			if err := svc.connection.Connect(
				startupNetwork(ctx.Context, svc),
			); err != nil {
				return err
			}
			if err := waitForConnection(
				svc.connection, time.Duration(ctx.Uint64("timeout"))*time.Second,
			); err != nil {
				return err
			}

			quote, err := svc.swaps.Quote(ctx.Context, assetIn, assetOut, amountIn)
			if err != nil {
				return err
			}
			if quote.NoLiquidity {
				fmt.Println("pool has no liquidity")
				return nil
			}
			decimals := int32(ctx.Int("decimals"))
			fmt.Println("amount out:", swapmath.ToDisplay(quote.AmountOut, decimals))
			fmt.Println("minimum received:", swapmath.ToDisplay(quote.MinimumReceived, decimals))
			fmt.Printf("price impact: %d bps\n", quote.PriceImpactBps)
			return nil
		},
	}
}

func waitForConnection(
	connection *application.ConnectionService, timeout time.Duration,
) error {
	deadline := time.After(timeout)
	for {
		if connection.IsReady() {
			return nil
		}
		select {
		case <-deadline:
			return fmt.Errorf("connection not ready: %s", connection.ErrorMessage())
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func parseAssetID(raw string) (uint32, error) {
	var id uint32
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil {
		return 0, fmt.Errorf("malformed asset id %q", raw)
	}
	return id, nil
}

// noopHost backs the bridge in headless mode, where there is no surface to
// navigate away from.
type noopHost struct{}

func (noopHost) NavigateBack() {}
