// Package bridge exposes the wallet's signing bridge to embedded web content
// over a local websocket endpoint.
package bridge

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/pezkuwichain/pezd/internal/core/application"
)

const shutdownTimeout = 5 * time.Second

// Server accepts bridge sessions and pipes their frames through the bridge
// service. Each session gets the wallet context pushed right after attach.
type Server struct {
	svc      *application.BridgeService
	upgrader websocket.Upgrader
	server   *http.Server
}

// NewServer returns a Server bound to the given listen address.
func NewServer(listenAddr string, svc *application.BridgeService) *Server {
	s := &Server{
		svc: svc,
		upgrader: websocket.Upgrader{
			// Embedded webviews present no stable origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", s.handleSession)
	s.server = &http.Server{Addr: listenAddr, Handler: mux}

	return s
}

// Start serves until Stop is called. It returns on listener failure only.
func (s *Server) Start() error {
	log.Infof("bridge listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains open sessions and closes the listener. Idempotent.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("bridge shutdown incomplete")
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("bridge session upgrade failed")
		return
	}
	defer conn.Close()
	log.Debugf("bridge session attached from %s", r.RemoteAddr)

	sink := &sessionSink{conn: conn}
	if err := sink.Send(s.svc.SessionContext()); err != nil {
		log.WithError(err).Debug("could not push session context")
		return
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Debugf("bridge session from %s detached", r.RemoteAddr)
			return
		}
		s.svc.HandleMessage(r.Context(), raw, sink)
	}
}

// sessionSink serializes writes to one session's connection; signing
// results for the same session may resolve concurrently.
type sessionSink struct {
	mtx  sync.Mutex
	conn *websocket.Conn
}

func (s *sessionSink) Send(envelope application.BridgeEnvelope) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.conn.WriteJSON(envelope)
}
