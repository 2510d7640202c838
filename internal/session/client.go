package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/protocol"
)

// Client is a participant's connection to a host.
type Client struct {
	settings config.NetworkSettings
	url      string
	log      *logrus.Entry

	mu       sync.RWMutex
	listener Listener
	conn     *conn
	stopping atomic.Bool

	state    atomic.Int32
	playerID atomic.Int64
	wg       sync.WaitGroup
}

// Compile-time check that Client implements Session.
var _ Session = (*Client)(nil)

// NewClient creates a client that dials the host named in n.
func NewClient(n config.NetworkSettings, log *logrus.Entry) *Client {
	return &Client{
		settings: n,
		url:      n.URL(),
		log:      log.WithField("url", n.URL()),
		listener: nopListener{},
	}
}

func (c *Client) Role() config.Role { return config.RoleClient }

func (c *Client) State() ConnState { return ConnState(c.state.Load()) }

// PlayerID returns the id the host assigned, 0 before player_joined.
func (c *Client) PlayerID() int { return int(c.playerID.Load()) }

// SetListener installs the receiver of host messages.
func (c *Client) SetListener(l Listener) {
	if l == nil {
		l = nopListener{}
	}
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
}

func (c *Client) currentListener() Listener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listener
}

// Start dials the host and asks to join. A failed dial returns an error
// wrapping ErrConnect; there is no retry.
func (c *Client) Start(ctx context.Context) error {
	c.state.Store(int32(StateConnecting))

	dialer := websocket.Dialer{HandshakeTimeout: c.settings.ConnectTimeout}
	ws, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.state.Store(int32(StateDisconnected))
		return fmt.Errorf("%w %s: %v", ErrConnect, c.url, err)
	}
	c.state.Store(int32(StateConnected))
	c.log.Info("connected to host")

	cn := newConn(ws, c.settings.SendBuffer, c.log)
	c.mu.Lock()
	c.conn = cn
	c.mu.Unlock()

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		cn.writePump()
	}()
	go func() {
		defer c.wg.Done()
		c.readPump(cn)
	}()

	join, err := protocol.Encode(protocol.MsgJoinGame, nil)
	if err != nil {
		return err
	}
	cn.enqueue(join)
	return nil
}

// Stop closes the connection and waits for its goroutines.
func (c *Client) Stop() error {
	c.stopping.Store(true)
	c.mu.RLock()
	cn := c.conn
	c.mu.RUnlock()
	if cn != nil {
		cn.shutdown()
	}
	c.wg.Wait()
	c.state.Store(int32(StateDisconnected))
	return nil
}

// Send delivers env to the host.
func (c *Client) Send(env protocol.Envelope) {
	c.mu.RLock()
	cn := c.conn
	c.mu.RUnlock()
	if cn == nil {
		return
	}
	b, err := protocol.Marshal(env)
	if err != nil {
		c.log.WithError(err).WithField("type", env.Type).Error("encode message")
		return
	}
	cn.enqueue(b)
}

// SendTo on a client can only reach the host, so it is Send.
func (c *Client) SendTo(_ int, env protocol.Envelope) {
	c.Send(env)
}

func (c *Client) readPump(cn *conn) {
	defer cn.shutdown()

	cn.prepareRead()
	for {
		_, data, err := cn.ws.ReadMessage()
		if err != nil {
			c.state.Store(int32(StateDisconnected))
			if c.stopping.Load() {
				return
			}
			c.log.WithError(err).Warn("lost connection to host")
			c.currentListener().OnDisconnected(0, fmt.Errorf("%w: %v", ErrDisconnected, err))
			return
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			c.log.WithError(err).Warn("dropping malformed message")
			continue
		}
		c.track(env)
		c.currentListener().OnMessage(Inbound{PeerID: 0, Env: env})
	}
}

// track advances the connection state from what the host sends.
func (c *Client) track(env protocol.Envelope) {
	if env.Type == protocol.MsgPlayerJoined {
		m, err := protocol.Decode[protocol.PlayerJoined](env)
		if err != nil {
			c.log.WithError(err).Warn("bad player_joined")
			return
		}
		c.playerID.Store(int64(m.PlayerID))
		c.state.Store(int32(StateJoined))
		c.log.WithField("player_id", m.PlayerID).Info("joined game")
		return
	}
	if c.State() == StateJoined {
		c.state.Store(int32(StateActive))
	}
}
