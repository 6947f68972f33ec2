package application

import (
	"context"
	"math/big"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pezkuwichain/pezd/internal/core/domain"
	"github.com/pezkuwichain/pezd/internal/core/ports"
	"github.com/pezkuwichain/pezd/pkg/pool"
	"github.com/pezkuwichain/pezd/pkg/swapmath"
)

// SwapQuote is the outcome of pricing a prospective swap against the pool
// reserves. NoLiquidity marks a pool with an empty or missing side; all
// amounts are zero in that case.
type SwapQuote struct {
	AssetIn         uint32
	AssetOut        uint32
	AmountIn        *big.Int
	AmountOut       *big.Int
	MinimumReceived *big.Int
	PriceImpactBps  int64
	NoLiquidity     bool
	PoolAccountID   []byte
}

// SwapServiceOpts groups the constructor-injected dependencies of the quote
// engine.
type SwapServiceOpts struct {
	Connection *ConnectionService
	// FeePerMille is the pool fee in parts per thousand.
	FeePerMille uint64
	// SlippageBps is the tolerance applied to the minimum received amount.
	SlippageBps uint64
}

// SwapService prices swaps against on-chain pool reserves. It holds no
// state of its own; every quote reads fresh reserves through the live
// ledger client.
type SwapService struct {
	connection  *ConnectionService
	feePerMille uint64
	slippageBps uint64
}

// NewSwapService returns a SwapService quoting with the given fee and
// slippage tolerance.
func NewSwapService(opts SwapServiceOpts) *SwapService {
	return &SwapService{
		connection:  opts.Connection,
		feePerMille: opts.FeePerMille,
		slippageBps: opts.SlippageBps,
	}
}

// Quote prices swapping amountIn of assetIn for assetOut. A zero or
// negative input yields an empty quote against the real pool account. An
// empty pool is reported through NoLiquidity, not as an error.
func (s *SwapService) Quote(
	ctx context.Context, assetIn, assetOut uint32, amountIn *big.Int,
) (SwapQuote, error) {
	if assetIn == assetOut {
		return SwapQuote{}, domain.ErrSameAsset
	}

	pair := pool.NewPair(assetIn, assetOut)
	accountID := pool.DeriveAccountID(pair)

	quote := SwapQuote{
		AssetIn:       assetIn,
		AssetOut:      assetOut,
		AmountIn:      new(big.Int),
		AmountOut:     new(big.Int),
		PoolAccountID: accountID,
	}
	if amountIn != nil {
		quote.AmountIn.Set(amountIn)
	}

	if amountIn == nil || amountIn.Sign() <= 0 {
		quote.MinimumReceived = new(big.Int)
		return quote, nil
	}

	client, err := s.connection.Client()
	if err != nil {
		return SwapQuote{}, err
	}

	reserveIn, reserveOut, err := s.fetchReserves(ctx, client, accountID, assetIn, assetOut)
	if err != nil {
		return SwapQuote{}, err
	}

	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		log.Debugf("pool %d/%d has no liquidity", pair.AssetA, pair.AssetB)
		quote.NoLiquidity = true
		quote.MinimumReceived = new(big.Int)
		return quote, nil
	}

	amountOut := swapmath.AmountOut(amountIn, reserveIn, reserveOut, s.feePerMille)

	quote.AmountOut = amountOut
	quote.PriceImpactBps = swapmath.PriceImpactBps(amountIn, reserveIn, reserveOut)
	quote.MinimumReceived = swapmath.MinimumReceived(amountOut, s.slippageBps)
	return quote, nil
}

// fetchReserves reads both sides of the pool concurrently. A nil balance
// means the pool account holds none of that asset and maps to zero.
func (s *SwapService) fetchReserves(
	ctx context.Context, client ports.LedgerClient,
	accountID []byte, assetIn, assetOut uint32,
) (*big.Int, *big.Int, error) {
	reserveIn := new(big.Int)
	reserveOut := new(big.Int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balance, err := client.AssetBalance(gctx, assetIn, accountID)
		if err != nil {
			return err
		}
		if balance != nil {
			reserveIn.Set(balance)
		}
		return nil
	})
	g.Go(func() error {
		balance, err := client.AssetBalance(gctx, assetOut, accountID)
		if err != nil {
			return err
		}
		if balance != nil {
			reserveOut.Set(balance)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return reserveIn, reserveOut, nil
}
