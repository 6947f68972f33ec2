// Package ledger implements the ledger client port on top of the node's
// websocket JSON-RPC endpoint.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/pezkuwichain/pezd/internal/core/ports"
	"github.com/pezkuwichain/pezd/pkg/circuitbreaker"
	"github.com/pezkuwichain/pezd/pkg/keyring"
)

const (
	dialTimeout    = 10 * time.Second
	requestTimeout = 30 * time.Second
	// queryRatePerSecond caps read traffic towards a public node.
	queryRatePerSecond = 50
)

// ErrClientClosed ...
var ErrClientClosed = errors.New("ledger client is closed")

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type assetAccount struct {
	Balance string `json:"balance"`
}

type client struct {
	conn    *websocket.Conn
	breaker *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter

	writeMtx sync.Mutex

	mtx      sync.Mutex
	pending  map[string]chan rpcResponse
	formatID uint16
	closed   bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient dials the given websocket endpoint and probes it with a
// system_chain call before handing the client out. The returned client is
// safe for concurrent use.
func NewClient(ctx context.Context, endpoint string) (ports.LedgerClient, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}

	c := &client{
		conn:     conn,
		breaker:  circuitbreaker.NewCircuitBreaker("ledger"),
		limiter:  ratelimit.New(queryRatePerSecond),
		pending:  make(map[string]chan rpcResponse),
		formatID: 42,
		done:     make(chan struct{}),
	}
	go c.readPump()

	if _, err := c.SystemChain(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("probing %s: %w", endpoint, err)
	}
	return c, nil
}

func (c *client) SystemChain(ctx context.Context) (string, error) {
	result, err := c.call(ctx, "system_chain", nil)
	if err != nil {
		return "", err
	}
	var chain string
	if err := json.Unmarshal(result, &chain); err != nil {
		return "", fmt.Errorf("decoding chain name: %w", err)
	}
	return chain, nil
}

func (c *client) AssetBalance(
	ctx context.Context, assetID uint32, accountID []byte,
) (*big.Int, error) {
	address, err := keyring.EncodeAddress(accountID, c.addressFormat())
	if err != nil {
		return nil, err
	}

	result, err := c.call(ctx, "assets_account", []interface{}{assetID, address})
	if err != nil {
		return nil, err
	}
	if string(result) == "null" {
		return nil, nil
	}

	var account assetAccount
	if err := json.Unmarshal(result, &account); err != nil {
		return nil, fmt.Errorf("decoding asset account: %w", err)
	}
	return parseAmount(account.Balance)
}

func (c *client) SubmitExtrinsic(
	ctx context.Context, extrinsicHex string,
) (string, error) {
	result, err := c.call(ctx, "author_submitExtrinsic", []interface{}{extrinsicHex})
	if err != nil {
		return "", err
	}
	var hash string
	if err := json.Unmarshal(result, &hash); err != nil {
		return "", fmt.Errorf("decoding extrinsic hash: %w", err)
	}
	return hash, nil
}

func (c *client) SetAddressFormat(formatID uint16) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.formatID = formatID
}

func (c *client) Close() error {
	c.closeOnce.Do(func() {
		c.mtx.Lock()
		c.closed = true
		c.mtx.Unlock()
		close(c.done)
		c.conn.Close()
		c.failPending(ErrClientClosed)
	})
	return nil
}

func (c *client) addressFormat() uint16 {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.formatID
}

// call performs one JSON-RPC round trip. Calls are rate limited and routed
// through the circuit breaker, so a dying node sheds load fast instead of
// piling up blocked requests.
func (c *client) call(
	ctx context.Context, method string, params []interface{},
) (json.RawMessage, error) {
	c.limiter.Take()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, method, params)
	})
	if err != nil {
		return nil, err
	}
	return result.(json.RawMessage), nil
}

func (c *client) roundTrip(
	ctx context.Context, method string, params []interface{},
) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	request := rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}

	respChan := make(chan rpcResponse, 1)
	c.mtx.Lock()
	if c.closed {
		c.mtx.Unlock()
		return nil, ErrClientClosed
	}
	c.pending[request.ID] = respChan
	c.mtx.Unlock()

	defer func() {
		c.mtx.Lock()
		delete(c.pending, request.ID)
		c.mtx.Unlock()
	}()

	c.writeMtx.Lock()
	err := c.conn.WriteJSON(request)
	c.writeMtx.Unlock()
	if err != nil {
		return nil, fmt.Errorf("sending %s: %w", method, err)
	}

	timeout := time.NewTimer(requestTimeout)
	defer timeout.Stop()

	select {
	case resp := <-respChan:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClientClosed
	case <-timeout.C:
		return nil, fmt.Errorf("%s timed out", method)
	}
}

// readPump is the single reader of the connection. It correlates responses
// to pending calls by request id and drops frames nobody waits for.
func (c *client) readPump() {
	for {
		var resp rpcResponse
		if err := c.conn.ReadJSON(&resp); err != nil {
			c.mtx.Lock()
			closed := c.closed
			c.mtx.Unlock()
			if !closed {
				log.WithError(err).Debug("ledger connection read failed")
				c.Close()
			}
			return
		}

		c.mtx.Lock()
		respChan, ok := c.pending[resp.ID]
		c.mtx.Unlock()
		if ok {
			respChan <- resp
		}
	}
}

func (c *client) failPending(err error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	for id, respChan := range c.pending {
		select {
		case respChan <- rpcResponse{
			ID:    id,
			Error: &rpcError{Code: -1, Message: err.Error()},
		}:
		default:
			// A real response already landed in the buffer.
		}
	}
}

// parseAmount accepts the node's two balance renderings, plain decimal and
// 0x prefixed hex.
func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return new(big.Int), nil
	}
	base := 10
	digits := raw
	if len(raw) > 2 && raw[:2] == "0x" {
		base = 16
		digits = raw[2:]
	}
	amount, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("malformed balance %q", raw)
	}
	return amount, nil
}
