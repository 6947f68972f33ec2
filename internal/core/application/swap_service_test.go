package application

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pezkuwichain/pezd/internal/core/domain"
)

func newSwapFixture(t *testing.T, connect bool) (*SwapService, *fakeLedgerClient) {
	t.Helper()

	client := newFakeLedgerClient()
	dials := newDialController()
	close(dials.expect(1, client, nil))

	connection := newConnectionFixture(dials, newInMemoryAccountRepository())
	t.Cleanup(connection.Teardown)
	if connect {
		require.NoError(t, connection.Connect("beta"))
		waitReady(t, connection)
	}

	svc := NewSwapService(SwapServiceOpts{
		Connection:  connection,
		FeePerMille: 30,
		SlippageBps: 100,
	})
	return svc, client
}

func TestQuote(t *testing.T) {
	svc, client := newSwapFixture(t, true)
	client.setBalance(1, 1000)
	client.setBalance(2, 2000)

	quote, err := svc.Quote(context.Background(), 1, 2, big.NewInt(100))
	require.NoError(t, err)

	assert.False(t, quote.NoLiquidity)
	assert.Equal(t, int64(100), quote.AmountIn.Int64())
	assert.Equal(t, int64(176), quote.AmountOut.Int64())
	assert.Equal(t, int64(174), quote.MinimumReceived.Int64())
	assert.Equal(t, int64(1732), quote.PriceImpactBps)
	assert.Equal(
		t,
		"83f62d34767d288eb8796ce644546fbd836e596b0420e4b7b36f31c2c1efdfda",
		hex.EncodeToString(quote.PoolAccountID),
	)
}

func TestQuoteSameAsset(t *testing.T) {
	svc, _ := newSwapFixture(t, true)

	_, err := svc.Quote(context.Background(), 7, 7, big.NewInt(100))
	require.EqualError(t, err, domain.ErrSameAsset.Error())
}

func TestQuoteZeroInput(t *testing.T) {
	// A zero input never needs reserves, so it works even while offline.
	svc, _ := newSwapFixture(t, false)

	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		quote, err := svc.Quote(context.Background(), 1, 2, amount)
		require.NoError(t, err)
		assert.Zero(t, quote.AmountOut.Sign())
		assert.Zero(t, quote.MinimumReceived.Sign())
		assert.False(t, quote.NoLiquidity)
		assert.NotEmpty(t, quote.PoolAccountID)
	}
}

func TestQuoteWhileDisconnected(t *testing.T) {
	svc, _ := newSwapFixture(t, false)

	_, err := svc.Quote(context.Background(), 1, 2, big.NewInt(100))
	require.EqualError(t, err, domain.ErrConnectionNotReady.Error())
}

func TestQuoteNoLiquidity(t *testing.T) {
	svc, client := newSwapFixture(t, true)
	// Only one side of the pool is funded.
	client.setBalance(1, 1000)

	quote, err := svc.Quote(context.Background(), 1, 2, big.NewInt(100))
	require.NoError(t, err)

	assert.True(t, quote.NoLiquidity)
	assert.Zero(t, quote.AmountOut.Sign())
	assert.Zero(t, quote.MinimumReceived.Sign())
}

func TestQuoteReserveReadFailure(t *testing.T) {
	svc, client := newSwapFixture(t, true)
	client.balanceErr = errors.New("rpc timeout")

	_, err := svc.Quote(context.Background(), 1, 2, big.NewInt(100))
	require.Error(t, err)
}

func TestQuoteDirectionMatters(t *testing.T) {
	svc, client := newSwapFixture(t, true)
	client.setBalance(1, 1000)
	client.setBalance(2, 2000)

	forward, err := svc.Quote(context.Background(), 1, 2, big.NewInt(100))
	require.NoError(t, err)
	backward, err := svc.Quote(context.Background(), 2, 1, big.NewInt(100))
	require.NoError(t, err)

	// Same pool account both ways, different pricing.
	assert.Equal(t, forward.PoolAccountID, backward.PoolAccountID)
	assert.NotEqual(t, forward.AmountOut.Int64(), backward.AmountOut.Int64())
}
