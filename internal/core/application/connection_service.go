package application

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pezkuwichain/pezd/internal/core/domain"
	"github.com/pezkuwichain/pezd/internal/core/ports"
)

// ConnectionState is the lifecycle state of the ledger connection.
type ConnectionState int

const (
	// Disconnected ...
	Disconnected ConnectionState = iota
	// Connecting ...
	Connecting
	// Ready ...
	Ready
	// Failed means the last attempt failed; a retry is already scheduled,
	// recovery is automatic and no manual transition out is exposed.
	Failed
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "disconnected"
	}
}

// StateEvent is published on every state transition.
type StateEvent struct {
	NetworkID string
	State     ConnectionState
	Error     string
}

const stateEventQueueSize = 32

// ConnectionServiceOpts groups the constructor-injected dependencies of the
// connection supervisor.
type ConnectionServiceOpts struct {
	Repository    domain.AccountRepository
	ClientFactory ports.LedgerClientFactory
	NetworkByID   func(id string) (domain.NetworkConfig, bool)
	// RetryInterval is the fixed delay before a failed attempt is retried.
	RetryInterval time.Duration
}

// ConnectionService owns the single live ledger client across the configured
// networks: Disconnected -> Connecting -> Ready, with Connecting -> Failed ->
// Connecting on a fixed interval. Only the most recent attempt may publish
// state; superseded attempts are discarded by token comparison.
type ConnectionService struct {
	repo          domain.AccountRepository
	factory       ports.LedgerClientFactory
	networkByID   func(id string) (domain.NetworkConfig, bool)
	retryInterval time.Duration

	mtx        sync.Mutex
	attempt    uint64
	state      ConnectionState
	networkID  string
	errMsg     string
	client     ports.LedgerClient
	retryTimer *time.Timer
	eventChan  chan StateEvent
	tornDown   bool
}

// NewConnectionService returns a ConnectionService in the Disconnected
// state. The supervisor dials nothing until Connect is called.
func NewConnectionService(opts ConnectionServiceOpts) *ConnectionService {
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &ConnectionService{
		repo:          opts.Repository,
		factory:       opts.ClientFactory,
		networkByID:   opts.NetworkByID,
		retryInterval: interval,
		state:         Disconnected,
		eventChan:     make(chan StateEvent, stateEventQueueSize),
	}
}

// IsReady returns whether a live client is available.
func (s *ConnectionService) IsReady() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.state == Ready
}

// ErrorMessage returns the user facing message of the last failure, empty
// when none applies.
func (s *ConnectionService) ErrorMessage() string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.errMsg
}

// NetworkID returns the id of the network the supervisor is on.
func (s *ConnectionService) NetworkID() string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.networkID
}

// Client returns the live ledger client, or ErrConnectionNotReady when the
// supervisor is not in the Ready state.
func (s *ConnectionService) Client() (ports.LedgerClient, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.state != Ready || s.client == nil {
		return nil, domain.ErrConnectionNotReady
	}
	return s.client, nil
}

// Events returns the channel state transitions are published on. The channel
// is shared, not fanned out: wire it to exactly one consumer, as a second
// receiver would steal events from the first. Transitions are dropped when
// the buffer is full rather than blocking the supervisor.
func (s *ConnectionService) Events() <-chan StateEvent {
	return s.eventChan
}

// Connect tears down any handle for a different network and starts a
// connection attempt towards the given one.
func (s *ConnectionService) Connect(networkID string) error {
	network, ok := s.networkByID(networkID)
	if !ok {
		return domain.ErrUnknownNetwork
	}

	s.mtx.Lock()
	if s.tornDown {
		s.mtx.Unlock()
		return nil
	}
	token := s.beginAttemptLocked(network.ID)
	s.mtx.Unlock()

	go s.dial(token, network)
	return nil
}

// SwitchNetwork persists the network preference and reconnects. A switch to
// the current network is a no-op. IsReady is forced false synchronously
// before the new attempt begins, so no stale readiness leaks through the
// switch window.
func (s *ConnectionService) SwitchNetwork(ctx context.Context, networkID string) error {
	network, ok := s.networkByID(networkID)
	if !ok {
		return domain.ErrUnknownNetwork
	}

	s.mtx.Lock()
	if s.tornDown || s.networkID == network.ID {
		s.mtx.Unlock()
		return nil
	}
	token := s.beginAttemptLocked(network.ID)
	s.mtx.Unlock()

	if err := s.repo.UpdateSelectedNetwork(ctx, network.ID); err != nil {
		log.WithError(err).Warn("could not persist network preference")
	}

	go s.dial(token, network)
	return nil
}

// Teardown cancels any pending retry and releases the client. Idempotent.
func (s *ConnectionService) Teardown() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.tornDown = true
	s.attempt++
	s.stopRetryLocked()
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.WithError(err).Debug("error closing ledger client")
		}
		s.client = nil
	}
	s.setStateLocked(Disconnected, "")
}

// beginAttemptLocked invalidates any in-flight attempt and flips the
// supervisor to Connecting for the given network. Returns the new attempt
// token. Caller holds the lock.
func (s *ConnectionService) beginAttemptLocked(networkID string) uint64 {
	s.attempt++
	s.stopRetryLocked()
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.WithError(err).Debug("error closing superseded ledger client")
		}
		s.client = nil
	}
	s.networkID = networkID
	s.setStateLocked(Connecting, "")
	return s.attempt
}

func (s *ConnectionService) dial(token uint64, network domain.NetworkConfig) {
	log.Debugf("connecting to %s (%s)", network.DisplayName, network.EndpointURL)

	client, err := s.factory(context.Background(), network.EndpointURL)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if token != s.attempt {
		// A later connect/switch superseded this attempt; its outcome must
		// not publish state.
		if client != nil {
			client.Close()
		}
		return
	}

	if err != nil {
		log.WithError(err).Warnf("connection to %s failed", network.DisplayName)
		s.setStateLocked(Failed, "Failed to connect to "+network.DisplayName)
		s.scheduleRetryLocked(token, network)
		return
	}

	// The address format must be applied before readiness is published, so
	// no consumer ever decodes with the previous network's format.
	client.SetAddressFormat(network.AddressFormatID)
	s.client = client
	s.setStateLocked(Ready, "")
	log.Debugf("connected to %s", network.DisplayName)
}

// scheduleRetryLocked arms the single retry timer. When it fires, the retry
// only proceeds if no other attempt has started in the meantime.
func (s *ConnectionService) scheduleRetryLocked(token uint64, network domain.NetworkConfig) {
	s.retryTimer = time.AfterFunc(s.retryInterval, func() {
		s.mtx.Lock()
		if s.tornDown || token != s.attempt {
			s.mtx.Unlock()
			return
		}
		next := s.beginAttemptLocked(network.ID)
		s.mtx.Unlock()

		s.dial(next, network)
	})
}

func (s *ConnectionService) stopRetryLocked() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
}

func (s *ConnectionService) setStateLocked(state ConnectionState, errMsg string) {
	s.state = state
	s.errMsg = errMsg

	event := StateEvent{NetworkID: s.networkID, State: state, Error: errMsg}
	select {
	case s.eventChan <- event:
	default:
		// Slow subscribers drop events rather than block the supervisor.
	}
}
