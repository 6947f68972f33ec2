package application

import (
	"context"
	"math/big"
	"sync"

	"github.com/pezkuwichain/pezd/internal/core/domain"
	"github.com/pezkuwichain/pezd/internal/core/ports"
)

// inMemoryAccountRepository backs the services under test without touching
// disk.
type inMemoryAccountRepository struct {
	mtx             sync.Mutex
	accounts        []domain.Account
	selectedAddress string
	selectedNetwork string

	failAdd    error
	failSelect error
	// missLookups makes GetByAddress miss that many times, simulating a
	// lookup racing a concurrent registration.
	missLookups int
}

func newInMemoryAccountRepository() *inMemoryAccountRepository {
	return &inMemoryAccountRepository{}
}

func (r *inMemoryAccountRepository) GetAll(
	_ context.Context,
) ([]domain.Account, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	out := make([]domain.Account, len(r.accounts))
	copy(out, r.accounts)
	return out, nil
}

func (r *inMemoryAccountRepository) GetByAddress(
	_ context.Context, address string,
) (*domain.Account, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.missLookups > 0 {
		r.missLookups--
		return nil, domain.ErrAccountNotFound
	}
	for i := range r.accounts {
		if r.accounts[i].Address == address {
			account := r.accounts[i]
			return &account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *inMemoryAccountRepository) Add(
	_ context.Context, account domain.Account,
) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.failAdd != nil {
		return r.failAdd
	}
	for i := range r.accounts {
		if r.accounts[i].Address == account.Address {
			return domain.ErrAccountAlreadyExists
		}
	}
	r.accounts = append(r.accounts, account)
	return nil
}

func (r *inMemoryAccountRepository) UpdateDisplayName(
	_ context.Context, address, displayName string,
) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	for i := range r.accounts {
		if r.accounts[i].Address == address {
			r.accounts[i].DisplayName = displayName
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func (r *inMemoryAccountRepository) Delete(
	_ context.Context, address string,
) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	next := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		if a.Address != address {
			next = append(next, a)
		}
	}
	r.accounts = next
	return nil
}

func (r *inMemoryAccountRepository) GetSelectedAddress(
	_ context.Context,
) (string, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.selectedAddress, nil
}

func (r *inMemoryAccountRepository) UpdateSelectedAddress(
	_ context.Context, address string,
) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.failSelect != nil {
		return r.failSelect
	}
	r.selectedAddress = address
	return nil
}

func (r *inMemoryAccountRepository) GetSelectedNetwork(
	_ context.Context,
) (string, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.selectedNetwork, nil
}

func (r *inMemoryAccountRepository) UpdateSelectedNetwork(
	_ context.Context, networkID string,
) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.selectedNetwork = networkID
	return nil
}

// fakeLedgerClient serves canned balances and records lifecycle calls.
type fakeLedgerClient struct {
	mtx        sync.Mutex
	chainName  string
	balances   map[uint32]*big.Int
	balanceErr error
	formatID   uint16
	closed     bool
}

func newFakeLedgerClient() *fakeLedgerClient {
	return &fakeLedgerClient{
		chainName: "Pezkuwi Testnet",
		balances:  make(map[uint32]*big.Int),
	}
}

func (c *fakeLedgerClient) setBalance(assetID uint32, amount int64) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.balances[assetID] = big.NewInt(amount)
}

func (c *fakeLedgerClient) SystemChain(_ context.Context) (string, error) {
	return c.chainName, nil
}

func (c *fakeLedgerClient) AssetBalance(
	_ context.Context, assetID uint32, _ []byte,
) (*big.Int, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.balanceErr != nil {
		return nil, c.balanceErr
	}
	balance, ok := c.balances[assetID]
	if !ok {
		return nil, nil
	}
	return new(big.Int).Set(balance), nil
}

func (c *fakeLedgerClient) SubmitExtrinsic(
	_ context.Context, _ string,
) (string, error) {
	return "0x00", nil
}

func (c *fakeLedgerClient) SetAddressFormat(formatID uint16) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.formatID = formatID
}

func (c *fakeLedgerClient) Close() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.closed = true
	return nil
}

func (c *fakeLedgerClient) format() uint16 {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.formatID
}

func (c *fakeLedgerClient) isClosed() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.closed
}

// dialController hands out fake clients and lets tests hold a dial open
// until released, to exercise superseded attempts.
type dialController struct {
	mtx     sync.Mutex
	dials   int
	gates   map[int]chan struct{}
	results map[int]dialResult
}

type dialResult struct {
	client *fakeLedgerClient
	err    error
}

func newDialController() *dialController {
	return &dialController{
		gates:   make(map[int]chan struct{}),
		results: make(map[int]dialResult),
	}
}

// expect registers the outcome of the n-th dial (1-based) and returns the
// gate that holds it open until closed.
func (d *dialController) expect(n int, client *fakeLedgerClient, err error) chan struct{} {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	gate := make(chan struct{})
	d.gates[n] = gate
	d.results[n] = dialResult{client: client, err: err}
	return gate
}

func (d *dialController) factory() ports.LedgerClientFactory {
	return func(_ context.Context, _ string) (ports.LedgerClient, error) {
		d.mtx.Lock()
		d.dials++
		n := d.dials
		gate := d.gates[n]
		result, ok := d.results[n]
		d.mtx.Unlock()

		if gate != nil {
			<-gate
		}
		if !ok {
			return newFakeLedgerClient(), nil
		}
		if result.err != nil {
			return nil, result.err
		}
		return result.client, nil
	}
}

func (d *dialController) dialCount() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.dials
}

// recordingSink captures outbound bridge envelopes.
type recordingSink struct {
	mtx       sync.Mutex
	envelopes []BridgeEnvelope
	notify    chan BridgeEnvelope
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan BridgeEnvelope, 16)}
}

func (s *recordingSink) Send(envelope BridgeEnvelope) error {
	s.mtx.Lock()
	s.envelopes = append(s.envelopes, envelope)
	s.mtx.Unlock()
	s.notify <- envelope
	return nil
}

func (s *recordingSink) sent() []BridgeEnvelope {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make([]BridgeEnvelope, len(s.envelopes))
	copy(out, s.envelopes)
	return out
}

// recordingHost counts back navigation requests.
type recordingHost struct {
	mtx   sync.Mutex
	backs int
}

func (h *recordingHost) NavigateBack() {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	h.backs++
}

func (h *recordingHost) backCount() int {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return h.backs
}
