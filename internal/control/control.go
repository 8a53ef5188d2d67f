// Package control implements the control channel: a gorilla/websocket
// server accepting persistent client connections, one goroutine per
// client for inbound reads, a writePump per client draining a buffered
// send queue — shaped directly on the grounding example's
// Client{conn, send} + writePump hub, generalized from a single global
// broadcast loop to the command/event protocol of §4.5.
package control

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/eegstream/eegstream/internal/errs"
	"github.com/eegstream/eegstream/internal/lifecycle"
	"github.com/eegstream/eegstream/internal/sink/broadcast"
)

// sendQueueDepth bounds each client's outbound buffer; a message for a
// client whose buffer is full is dropped with a logged warning rather
// than allowed to back up the broadcast loop.
const sendQueueDepth = 256

// Commands is the Lifecycle Controller surface the control channel
// drives; kept narrow so this package never imports internal/lifecycle
// directly.
type Commands interface {
	Start(ctx context.Context, overrideChannels []string) error
	Stop(ctx context.Context) error
	Quit(ctx context.Context) error
}

// inbound is the wire shape of every inbound command message.
type inbound struct {
	Command  string   `json:"command"`
	Channels []string `json:"channels,omitempty"`
}

// logEnvelope is the outbound "log" event (§4.5).
type logEnvelope struct {
	Address string `json:"address"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// eventEnvelope is the outbound "brainflow_event" event.
type eventEnvelope struct {
	Address   string `json:"address"`
	Event     string `json:"event"`
	Timestamp int64  `json:"timestamp"`
}

// Client is one connected control-channel peer.
type Client struct {
	conn *websocket.Conn
	send chan interface{}
}

// writePump drains send onto the websocket connection until send is
// closed or a write fails.
func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// Server is the control-channel websocket server and client registry.
type Server struct {
	onQuit func()
	log    *log.Logger

	mu       sync.RWMutex
	commands Commands
	clients  map[*Client]bool

	upgrader websocket.Upgrader
}

// New builds a Server driving commands, which may be nil if the real
// Commands implementation is constructed after the Server (it in turn
// needs the Server as its lifecycle.EventSink) — set it with
// SetCommands before ServeHTTP ever handles a command message. onQuit
// is invoked once, after a quit command has been fully processed, so
// the caller can stop the scheduler and exit the process.
func New(commands Commands, onQuit func(), logger *log.Logger) *Server {
	return &Server{
		commands: commands,
		onQuit:   onQuit,
		log:      logger,
		clients:  make(map[*Client]bool),
		upgrader: websocket.Upgrader{ //nolint:exhaustruct
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
	}
}

// SetCommands installs the Commands implementation a Server drives,
// resolving the Server/Controller construction cycle described above.
func (s *Server) SetCommands(commands Commands) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = commands
}

func (s *Server) commandsRef() Commands {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.commands
}

// ServeHTTP upgrades the connection and starts the client's read and
// write pumps. Clients are added on connect, removed on disconnect or
// send failure, exactly the lifecycle named in §4.5.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.log != nil {
			s.log.Warn("control: upgrade failed", "err", err)
		}

		return
	}

	client := &Client{conn: conn, send: make(chan interface{}, sendQueueDepth)}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	go client.writePump()

	s.readPump(client)
}

// readPump processes inbound command messages until the connection
// closes, then removes the client.
func (s *Server) readPump(client *Client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
		close(client.send)
	}()

	for {
		_, msg, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		s.handle(client, msg)
	}
}

// handle processes one inbound message: a broadcast received ack, then
// exactly one broadcast success/error result envelope (§4.5's
// two-message pattern — every connected client sees both, not just
// the one that issued the command, matching broadcast_websocket_message
// in the grounding example).
func (s *Server) handle(client *Client, msg []byte) {
	var in inbound
	if err := json.Unmarshal(msg, &in); err != nil {
		s.broadcastEnvelope(logEnvelope{Address: "log", Message: "malformed command", Status: "error"})

		if s.log != nil {
			s.log.Warn("control: malformed command", "err", errs.Protocol("decode", err))
		}

		return
	}

	s.broadcastEnvelope(logEnvelope{Address: "log", Message: fmt.Sprintf("received %q", in.Command)})

	ctx := context.Background()
	cmds := s.commandsRef()

	switch in.Command {
	case "start":
		if err := cmds.Start(ctx, in.Channels); err != nil {
			s.broadcastEnvelope(logEnvelope{Address: "log", Message: err.Error(), Status: "error"})
			return
		}

		s.broadcastEnvelope(logEnvelope{Address: "log", Message: "started", Status: "success"})

	case "stop":
		if err := cmds.Stop(ctx); err != nil {
			s.broadcastEnvelope(logEnvelope{Address: "log", Message: err.Error(), Status: "error"})
			return
		}

		s.broadcastEnvelope(logEnvelope{Address: "log", Message: "stopped", Status: "success"})

	case "quit":
		err := cmds.Quit(ctx)
		if err != nil {
			s.broadcastEnvelope(logEnvelope{Address: "log", Message: err.Error(), Status: "error"})
		} else {
			s.broadcastEnvelope(logEnvelope{Address: "log", Message: "quitting", Status: "success"})
		}

		if s.onQuit != nil {
			s.onQuit()
		}

	default:
		s.broadcastEnvelope(logEnvelope{Address: "log", Message: "unknown command", Status: "error"})

		if s.log != nil {
			s.log.Warn("control: unknown command", "command", in.Command)
		}
	}
}

func (s *Server) sendTo(client *Client, msg interface{}) {
	select {
	case client.send <- msg:
	default:
		if s.log != nil {
			s.log.Warn("control: client send queue full, dropping message")
		}
	}
}

// broadcastEnvelope delivers msg to every currently connected client,
// the same pattern as BroadcastEvent/BroadcastError/PublishEEG.
func (s *Server) broadcastEnvelope(msg interface{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients {
		s.sendTo(client, msg)
	}
}

// PublishEEG implements broadcast.Publisher: every currently connected
// client receives the envelope, non-blockingly.
func (s *Server) PublishEEG(env broadcast.Envelope) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients {
		s.sendTo(client, env)
	}
}

// BroadcastEvent implements lifecycle.EventSink.
func (s *Server) BroadcastEvent(ev lifecycle.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	env := eventEnvelope{Address: "brainflow_event", Event: ev.Name, Timestamp: ev.Timestamp.UnixMilli()}

	for client := range s.clients {
		s.sendTo(client, env)
	}
}

// BroadcastError implements lifecycle.EventSink.
func (s *Server) BroadcastError(msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	env := logEnvelope{Address: "log", Message: msg, Status: "error"}

	for client := range s.clients {
		s.sendTo(client, env)
	}
}

// ListenAndServe starts the HTTP server on addr, over TLS if both
// certFile and keyFile are non-empty (stdlib tls.LoadX509KeyPair — no
// pack library wraps TLS config loading, so stdlib is the deliberate
// choice here).
func ListenAndServe(ctx context.Context, addr string, s *Server, certFile, keyFile string) error {
	mux := http.NewServeMux()
	mux.Handle("/", s)

	server := &http.Server{ //nolint:exhaustruct
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		if certFile != "" && keyFile != "" {
			cert, err := tls.LoadX509KeyPair(certFile, keyFile)
			if err != nil {
				errCh <- errs.Config("load TLS keypair", err)
				return
			}

			server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}

			errCh <- server.ListenAndServeTLS("", "")

			return
		}

		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return server.Close()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}

		return err
	}
}

// AnnounceDNSSD registers the control channel as _eeg-ctrl._tcp via
// mDNS/DNS-SD, repurposing the teacher's KISS-over-TCP announcement
// (src/dns_sd.go) for this protocol's service type.
func AnnounceDNSSD(ctx context.Context, name string, port int, logger *log.Logger) error {
	cfg := dnssd.Config{ //nolint:exhaustruct
		Name: name,
		Type: "_eeg-ctrl._tcp",
		Port: port,
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("dns-sd: new service: %w", err)
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return fmt.Errorf("dns-sd: new responder: %w", err)
	}

	if _, err := responder.Add(sv); err != nil {
		return fmt.Errorf("dns-sd: add service: %w", err)
	}

	go func() {
		if err := responder.Respond(ctx); err != nil && logger != nil {
			logger.Warn("dns-sd responder stopped", "err", err)
		}
	}()

	return nil
}
