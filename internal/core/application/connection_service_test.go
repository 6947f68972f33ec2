package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pezkuwichain/pezd/internal/core/domain"
)

var testNetworks = map[string]domain.NetworkConfig{
	"beta": {
		ID:              "beta",
		DisplayName:     "Beta",
		EndpointURL:     "ws://beta.test:9944",
		AddressFormatID: 42,
	},
	"dev": {
		ID:              "dev",
		DisplayName:     "Dev",
		EndpointURL:     "ws://dev.test:9944",
		AddressFormatID: 42,
	},
}

func testNetworkByID(id string) (domain.NetworkConfig, bool) {
	network, ok := testNetworks[id]
	return network, ok
}

func newConnectionFixture(
	dials *dialController, repo *inMemoryAccountRepository,
) *ConnectionService {
	return NewConnectionService(ConnectionServiceOpts{
		Repository:    repo,
		ClientFactory: dials.factory(),
		NetworkByID:   testNetworkByID,
		RetryInterval: 10 * time.Millisecond,
	})
}

func waitReady(t *testing.T, svc *ConnectionService) {
	t.Helper()
	require.Eventually(t, svc.IsReady, time.Second, time.Millisecond)
}

func TestConnect(t *testing.T) {
	dials := newDialController()
	client := newFakeLedgerClient()
	gate := dials.expect(1, client, nil)
	close(gate)

	svc := newConnectionFixture(dials, newInMemoryAccountRepository())
	defer svc.Teardown()

	require.NoError(t, svc.Connect("beta"))
	waitReady(t, svc)

	got, err := svc.Client()
	require.NoError(t, err)
	assert.Same(t, client, got.(*fakeLedgerClient))
	assert.Equal(t, uint16(42), client.format())
	assert.Equal(t, "beta", svc.NetworkID())
	assert.Empty(t, svc.ErrorMessage())
}

func TestConnectUnknownNetwork(t *testing.T) {
	svc := newConnectionFixture(newDialController(), newInMemoryAccountRepository())
	err := svc.Connect("mordor")
	require.EqualError(t, err, domain.ErrUnknownNetwork.Error())
}

func TestClientBeforeReady(t *testing.T) {
	svc := newConnectionFixture(newDialController(), newInMemoryAccountRepository())
	_, err := svc.Client()
	require.EqualError(t, err, domain.ErrConnectionNotReady.Error())
}

func TestConnectRetriesAfterFailure(t *testing.T) {
	dials := newDialController()
	close(dials.expect(1, nil, errors.New("connection refused")))
	client := newFakeLedgerClient()
	close(dials.expect(2, client, nil))

	svc := newConnectionFixture(dials, newInMemoryAccountRepository())
	defer svc.Teardown()

	require.NoError(t, svc.Connect("beta"))

	require.Eventually(t, func() bool {
		return svc.ErrorMessage() == "Failed to connect to Beta" || svc.IsReady()
	}, time.Second, time.Millisecond)

	waitReady(t, svc)
	assert.Equal(t, 2, dials.dialCount())
	assert.Empty(t, svc.ErrorMessage())
}

func TestSwitchNetworkSupersedesInFlightAttempt(t *testing.T) {
	ctx := context.Background()
	dials := newDialController()
	staleClient := newFakeLedgerClient()
	staleGate := dials.expect(1, staleClient, nil)
	freshClient := newFakeLedgerClient()
	close(dials.expect(2, freshClient, nil))

	repo := newInMemoryAccountRepository()
	svc := newConnectionFixture(dials, repo)
	defer svc.Teardown()

	require.NoError(t, svc.Connect("beta"))
	// The controller assigns outcomes by dial order: make sure the beta
	// attempt has reached the factory (and holds gate 1) before switching.
	require.Eventually(t, func() bool {
		return dials.dialCount() == 1
	}, time.Second, time.Millisecond)
	require.NoError(t, svc.SwitchNetwork(ctx, "dev"))
	waitReady(t, svc)
	assert.Equal(t, "dev", svc.NetworkID())
	assert.Equal(t, "dev", repo.selectedNetwork)

	// The first dial resolves only now. Its outcome must be discarded and
	// its client released.
	close(staleGate)
	require.Eventually(t, staleClient.isClosed, time.Second, time.Millisecond)

	got, err := svc.Client()
	require.NoError(t, err)
	assert.Same(t, freshClient, got.(*fakeLedgerClient))
	assert.Equal(t, "dev", svc.NetworkID())
}

func TestSwitchNetworkToCurrentIsNoOp(t *testing.T) {
	dials := newDialController()
	close(dials.expect(1, newFakeLedgerClient(), nil))

	svc := newConnectionFixture(dials, newInMemoryAccountRepository())
	defer svc.Teardown()

	require.NoError(t, svc.Connect("beta"))
	waitReady(t, svc)

	require.NoError(t, svc.SwitchNetwork(context.Background(), "beta"))
	assert.True(t, svc.IsReady())
	assert.Equal(t, 1, dials.dialCount())
}

func TestTeardown(t *testing.T) {
	dials := newDialController()
	client := newFakeLedgerClient()
	close(dials.expect(1, client, nil))

	svc := newConnectionFixture(dials, newInMemoryAccountRepository())
	require.NoError(t, svc.Connect("beta"))
	waitReady(t, svc)

	svc.Teardown()
	assert.False(t, svc.IsReady())
	assert.True(t, client.isClosed())

	// Idempotent, and no reconnection happens afterwards.
	svc.Teardown()
	require.NoError(t, svc.Connect("beta"))
	time.Sleep(50 * time.Millisecond)
	assert.False(t, svc.IsReady())
	assert.Equal(t, 1, dials.dialCount())
}
