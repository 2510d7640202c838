package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/protocol"
)

// Host accepts client connections, hands out player ids and relays
// movement between peers. Game logic stays with the engine; the host only
// forwards what it receives through the Listener.
type Host struct {
	settings config.NetworkSettings
	log      *logrus.Entry
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	listener Listener
	conns    map[*peer]struct{} // Every open connection
	peers    map[int]*peer      // Joined connections by player id
	nextID   int
	server   *http.Server
	stopped  bool

	state atomic.Int32
	wg    sync.WaitGroup
}

// Compile-time check that Host implements Session.
var _ Session = (*Host)(nil)

// peer is one client connection on the host.
type peer struct {
	*conn
	id     int // 0 until join_game
	joined bool
}

// NewHost creates a host for the given network settings. When HostPlays
// is set, player id 1 is reserved for the host's own player.
func NewHost(n config.NetworkSettings, log *logrus.Entry) *Host {
	h := &Host{
		settings: n,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		listener: nopListener{},
		conns:    make(map[*peer]struct{}),
		peers:    make(map[int]*peer),
	}
	if n.HostPlays {
		h.nextID = 1
	}
	return h
}

// LocalPlayerID is the host's own player id, or 0 when it only serves.
func (h *Host) LocalPlayerID() int {
	if h.settings.HostPlays {
		return 1
	}
	return 0
}

func (h *Host) Role() config.Role { return config.RoleHost }

func (h *Host) State() ConnState { return ConnState(h.state.Load()) }

// SetListener installs the receiver of peer messages.
func (h *Host) SetListener(l Listener) {
	if l == nil {
		l = nopListener{}
	}
	h.mu.Lock()
	h.listener = l
	h.mu.Unlock()
}

func (h *Host) currentListener() Listener {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.listener
}

// Handler serves the websocket endpoint. Start mounts it on its own
// server; tests can mount it on an httptest server instead.
func (h *Host) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(h.settings.Path, h.serveWS)
	return mux
}

// Start listens on the configured endpoint and serves in the background.
func (h *Host) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", h.settings.Endpoint())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", h.settings.Endpoint(), err)
	}

	srv := &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	h.mu.Lock()
	h.server = srv
	h.mu.Unlock()
	h.state.Store(int32(StateActive))

	h.log.WithField("addr", ln.Addr().String()).Info("hosting game")
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.WithError(err).Error("http server stopped")
		}
	}()
	return nil
}

// Stop closes the listener and every peer, then waits for their goroutines.
func (h *Host) Stop() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	srv := h.server
	for p := range h.conns {
		p.shutdown()
	}
	h.mu.Unlock()

	var err error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err = srv.Shutdown(ctx)
		cancel()
	}
	h.wg.Wait()
	h.state.Store(int32(StateDisconnected))
	return err
}

// Send broadcasts env to every joined peer.
func (h *Host) Send(env protocol.Envelope) {
	b, err := protocol.Marshal(env)
	if err != nil {
		h.log.WithError(err).WithField("type", env.Type).Error("encode broadcast")
		return
	}
	h.broadcast(b, 0)
}

// SendTo delivers env to one joined peer.
func (h *Host) SendTo(peerID int, env protocol.Envelope) {
	b, err := protocol.Marshal(env)
	if err != nil {
		h.log.WithError(err).WithField("type", env.Type).Error("encode message")
		return
	}
	h.mu.RLock()
	p, ok := h.peers[peerID]
	h.mu.RUnlock()
	if !ok {
		h.log.WithField("peer", peerID).Debug("send to unknown peer")
		return
	}
	p.enqueue(b)
}

// PeerCount returns the number of joined, connected peers.
func (h *Host) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// broadcast queues b for every joined peer except the one with id except.
func (h *Host) broadcast(b []byte, except int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, p := range h.peers {
		if id == except {
			continue
		}
		if !p.enqueue(b) {
			h.log.WithField("peer", id).Debug("dropped message for peer")
		}
	}
}

func (h *Host) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	log := h.log.WithField("remote", r.RemoteAddr)
	p := &peer{conn: newConn(ws, h.settings.SendBuffer, log)}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		ws.Close()
		return
	}
	h.conns[p] = struct{}{}
	h.wg.Add(2)
	h.mu.Unlock()

	log.Debug("peer connected")
	go func() {
		defer h.wg.Done()
		p.writePump()
	}()
	go func() {
		defer h.wg.Done()
		h.readPump(p)
	}()
}

func (h *Host) readPump(p *peer) {
	var readErr error
	defer func() {
		h.drop(p, readErr)
	}()

	p.prepareRead()
	for {
		_, data, err := p.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.log.WithError(err).Warn("peer read failed")
			}
			readErr = err
			return
		}
		h.handle(p, data)
	}
}

// drop forgets a closed connection. The player it controlled stays in the
// game; the peer just leaves the relay set.
func (h *Host) drop(p *peer, cause error) {
	p.shutdown()

	h.mu.Lock()
	delete(h.conns, p)
	joined := p.joined
	if joined {
		delete(h.peers, p.id)
	}
	listener := h.listener
	h.mu.Unlock()

	if !joined {
		return
	}
	p.log.WithField("player_id", p.id).Info("peer disconnected")
	listener.OnDisconnected(p.id, fmt.Errorf("peer %d: %w: %v", p.id, ErrDisconnected, cause))
}

func (h *Host) handle(p *peer, data []byte) {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		p.log.WithError(err).Warn("dropping malformed message")
		return
	}

	switch env.Type {
	case protocol.MsgJoinGame:
		h.join(p, env)

	case protocol.MsgPlayerUpdate, protocol.MsgPlayerShoot:
		if !p.joined {
			p.log.WithField("type", env.Type).Debug("message before join")
			return
		}
		id, err := senderID(env)
		if err != nil {
			p.log.WithError(err).Warn("dropping invalid message")
			return
		}
		if id != p.id {
			p.log.WithFields(logrus.Fields{"type": env.Type, "claimed": id, "player_id": p.id}).
				Warn("dropping message for another player")
			return
		}
		h.broadcast(data, p.id)
		h.currentListener().OnMessage(Inbound{PeerID: p.id, Env: env})

	case protocol.MsgEnemyDestroyed:
		// Kills are decided here, never by clients.
		p.log.Debug("ignoring client enemy_destroyed")

	default:
		p.log.WithField("type", env.Type).Debug("ignoring host-bound message")
	}
}

func (h *Host) join(p *peer, env protocol.Envelope) {
	if p.joined {
		p.log.WithField("player_id", p.id).Debug("duplicate join")
		return
	}

	h.mu.Lock()
	h.nextID++
	p.id = h.nextID
	p.joined = true
	h.peers[p.id] = p
	listener := h.listener
	h.mu.Unlock()

	log := p.log.WithField("player_id", p.id)
	log.Info("player joined")

	reply, err := protocol.Encode(protocol.MsgPlayerJoined, protocol.PlayerJoined{PlayerID: p.id})
	if err != nil {
		log.WithError(err).Error("encode player_joined")
		return
	}
	p.enqueue(reply)
	listener.OnMessage(Inbound{PeerID: p.id, Env: env})
}

func senderID(env protocol.Envelope) (int, error) {
	switch env.Type {
	case protocol.MsgPlayerUpdate:
		m, err := protocol.Decode[protocol.PlayerUpdate](env)
		return m.PlayerID, err
	case protocol.MsgPlayerShoot:
		m, err := protocol.Decode[protocol.PlayerShoot](env)
		return m.PlayerID, err
	}
	return 0, fmt.Errorf("%q carries no sender: %w", env.Type, protocol.ErrInvalid)
}
