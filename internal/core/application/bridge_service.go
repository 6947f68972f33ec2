package application

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Inbound message types accepted from embedded content.
const (
	msgSignTransaction = "SIGN_TRANSACTION"
	msgConnectWallet   = "CONNECT_WALLET"
	msgGoBack          = "GO_BACK"
	msgConsoleLog      = "CONSOLE_LOG"
)

// Outbound message types.
const (
	msgSignResult      = "SIGN_RESULT"
	msgWalletConnected = "WALLET_CONNECTED"
)

// BridgeEnvelope is the wire frame exchanged with embedded content.
type BridgeEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type signRequestPayload struct {
	ID           string `json:"id"`
	ExtrinsicHex string `json:"extrinsicHex"`
}

type signResultPayload struct {
	ID        string `json:"id"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

type sessionContextPayload struct {
	Address     string `json:"address"`
	DisplayName string `json:"displayName"`
	Platform    string `json:"platform"`
}

// MessageSink receives outbound envelopes for one bridge session.
type MessageSink interface {
	Send(BridgeEnvelope) error
}

// HostActions are the host side effects embedded content may request.
type HostActions interface {
	// NavigateBack asks the host to leave the embedded surface.
	NavigateBack()
}

// BridgeServiceOpts groups the constructor-injected dependencies of the
// signing bridge.
type BridgeServiceOpts struct {
	Custody    *CustodyService
	Registry   *RegistryService
	Connection *ConnectionService
	Host       HostActions
	Platform   string
}

// BridgeService dispatches messages from embedded content to the wallet.
// Any number of signing requests may be in flight at once; each is tracked
// under its own request id and resolved independently.
type BridgeService struct {
	custody    *CustodyService
	registry   *RegistryService
	connection *ConnectionService
	host       HostActions
	platform   string

	mtx     sync.Mutex
	pending map[string]struct{}
}

// NewBridgeService returns a BridgeService with no pending requests.
func NewBridgeService(opts BridgeServiceOpts) *BridgeService {
	platform := opts.Platform
	if platform == "" {
		platform = "desktop"
	}
	return &BridgeService{
		custody:    opts.Custody,
		registry:   opts.Registry,
		connection: opts.Connection,
		host:       opts.Host,
		platform:   platform,
		pending:    make(map[string]struct{}),
	}
}

// SessionContext returns the envelope announcing the active account to a
// freshly attached session. Sent with an empty address when no account is
// selected.
func (s *BridgeService) SessionContext() BridgeEnvelope {
	payload := sessionContextPayload{Platform: s.platform}
	if account := s.registry.Current(); account != nil {
		payload.Address = account.Address
		payload.DisplayName = account.DisplayName
	}
	raw, _ := json.Marshal(payload)
	return BridgeEnvelope{Type: msgWalletConnected, Payload: raw}
}

// PendingCount returns the number of signing requests in flight.
func (s *BridgeService) PendingCount() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.pending)
}

// HandleMessage processes one raw inbound frame. Malformed or unknown
// frames are swallowed; embedded content must not be able to crash the
// host by sending garbage.
func (s *BridgeService) HandleMessage(ctx context.Context, raw []byte, sink MessageSink) {
	var envelope BridgeEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.WithError(err).Debug("discarding malformed bridge frame")
		return
	}

	switch envelope.Type {
	case msgSignTransaction:
		s.handleSignRequest(ctx, envelope.Payload, sink)
	case msgConnectWallet:
		if err := sink.Send(s.SessionContext()); err != nil {
			log.WithError(err).Debug("could not send session context")
		}
	case msgGoBack:
		if s.host != nil {
			s.host.NavigateBack()
		}
	case msgConsoleLog:
		log.Debugf("embedded: %s", string(envelope.Payload))
	default:
		log.Debugf("discarding unknown bridge message %q", envelope.Type)
	}
}

func (s *BridgeService) handleSignRequest(
	ctx context.Context, raw json.RawMessage, sink MessageSink,
) {
	var req signRequestPayload
	if err := json.Unmarshal(raw, &req); err != nil {
		log.WithError(err).Debug("discarding malformed signing request")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	s.mtx.Lock()
	s.pending[req.ID] = struct{}{}
	s.mtx.Unlock()

	go s.resolveSignRequest(ctx, req, sink)
}

func (s *BridgeService) resolveSignRequest(
	ctx context.Context, req signRequestPayload, sink MessageSink,
) {
	defer func() {
		s.mtx.Lock()
		delete(s.pending, req.ID)
		s.mtx.Unlock()
	}()

	// The signature covers the raw extrinsic bytes; signing the hex text
	// would never verify ledger side.
	extrinsic, err := hex.DecodeString(strings.TrimPrefix(req.ExtrinsicHex, "0x"))
	if err != nil || len(extrinsic) == 0 {
		s.sendResult(sink, signResultPayload{ID: req.ID, Error: "Malformed extrinsic"})
		return
	}

	account := s.registry.Current()
	if account == nil {
		s.sendResult(sink, signResultPayload{ID: req.ID, Error: "Wallet not connected"})
		return
	}
	if !s.connection.IsReady() {
		s.sendResult(sink, signResultPayload{ID: req.ID, Error: "Blockchain not connected"})
		return
	}

	signature, err := s.custody.SignMessage(ctx, account.Address, extrinsic)
	if err != nil {
		log.WithError(err).Warnf("signing request %s failed", req.ID)
		s.sendResult(sink, signResultPayload{ID: req.ID, Error: "Signing failed"})
		return
	}
	if signature == "" {
		// Selected account has no secret record behind it.
		s.sendResult(sink, signResultPayload{ID: req.ID, Error: "Signing failed"})
		return
	}

	s.sendResult(sink, signResultPayload{ID: req.ID, Signature: signature})
}

func (s *BridgeService) sendResult(sink MessageSink, result signResultPayload) {
	raw, _ := json.Marshal(result)
	if err := sink.Send(BridgeEnvelope{Type: msgSignResult, Payload: raw}); err != nil {
		log.WithError(err).Debug("could not deliver signing result")
	}
}
