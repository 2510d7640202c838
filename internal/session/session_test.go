package session

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/logger"
	"github.com/tomz197/skyraid/internal/object"
	"github.com/tomz197/skyraid/internal/protocol"
)

const waitFor = 2 * time.Second

type disconnect struct {
	peerID int
	err    error
}

// recorder is a Listener that forwards everything to channels.
type recorder struct {
	msgs  chan Inbound
	drops chan disconnect
}

func newRecorder() *recorder {
	return &recorder{
		msgs:  make(chan Inbound, 64),
		drops: make(chan disconnect, 8),
	}
}

func (r *recorder) OnMessage(in Inbound)                { r.msgs <- in }
func (r *recorder) OnDisconnected(peerID int, err error) { r.drops <- disconnect{peerID, err} }

func (r *recorder) next(t *testing.T) Inbound {
	t.Helper()
	select {
	case in := <-r.msgs:
		return in
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for a message")
		return Inbound{}
	}
}

func (r *recorder) nextDrop(t *testing.T) disconnect {
	t.Helper()
	select {
	case d := <-r.drops:
		return d
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for a disconnect")
		return disconnect{}
	}
}

func testNetwork() config.NetworkSettings {
	n := config.Default().Network
	n.HostPlays = false
	n.ConnectTimeout = time.Second
	return n
}

func startHost(t *testing.T) (*Host, *recorder, *httptest.Server) {
	t.Helper()
	h := NewHost(testNetwork(), logger.Component(logger.Discard(), "host"))
	rec := newRecorder()
	h.SetListener(rec)
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(func() {
		h.Stop()
		srv.Close()
	})
	return h, rec, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + config.DefaultPath
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, typ string, payload any) {
	t.Helper()
	b, err := protocol.Encode(typ, payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func read(t *testing.T, ws *websocket.Conn) protocol.Envelope {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(waitFor))
	_, b, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func join(t *testing.T, ws *websocket.Conn) int {
	t.Helper()
	send(t, ws, protocol.MsgJoinGame, nil)
	env := read(t, ws)
	if env.Type != protocol.MsgPlayerJoined {
		t.Fatalf("reply to join = %q", env.Type)
	}
	m, err := protocol.Decode[protocol.PlayerJoined](env)
	if err != nil {
		t.Fatal(err)
	}
	return m.PlayerID
}

func TestHostAssignsIDsAndRelaysUpdates(t *testing.T) {
	h, rec, srv := startHost(t)
	a, b := dial(t, srv), dial(t, srv)

	if id := join(t, a); id != 1 {
		t.Fatalf("first player id = %d, want 1", id)
	}
	if in := rec.next(t); in.PeerID != 1 || in.Env.Type != protocol.MsgJoinGame {
		t.Fatalf("join not forwarded: %+v", in)
	}
	if id := join(t, b); id != 2 {
		t.Fatalf("second player id = %d, want 2", id)
	}
	rec.next(t)
	if h.PeerCount() != 2 {
		t.Fatalf("peers = %d", h.PeerCount())
	}

	update := protocol.PlayerUpdate{PlayerID: 1, Position: object.Vec2{X: 10, Y: 20}}
	send(t, a, protocol.MsgPlayerUpdate, update)

	env := read(t, b)
	got, err := protocol.Decode[protocol.PlayerUpdate](env)
	if err != nil {
		t.Fatal(err)
	}
	if got != update {
		t.Fatalf("relayed %+v, want %+v", got, update)
	}
	if in := rec.next(t); in.PeerID != 1 || in.Env.Type != protocol.MsgPlayerUpdate {
		t.Fatalf("update not forwarded to the engine: %+v", in)
	}
}

func TestHostDropsSpoofedAndKillReports(t *testing.T) {
	_, rec, srv := startHost(t)
	a, b := dial(t, srv), dial(t, srv)
	join(t, a)
	rec.next(t)
	join(t, b)
	rec.next(t)

	send(t, b, protocol.MsgPlayerUpdate, protocol.PlayerUpdate{PlayerID: 1, Position: object.Vec2{X: 666}})
	send(t, b, protocol.MsgEnemyDestroyed, protocol.EnemyDestroyed{EnemyID: 3, PlayerID: 2, Score: 9999})
	b.WriteMessage(websocket.TextMessage, []byte(`{"type":"player_update","payload":`))
	genuine := protocol.PlayerUpdate{PlayerID: 2, Position: object.Vec2{X: 5, Y: 5}}
	send(t, b, protocol.MsgPlayerUpdate, genuine)

	got, err := protocol.Decode[protocol.PlayerUpdate](read(t, a))
	if err != nil {
		t.Fatal(err)
	}
	if got != genuine {
		t.Fatalf("first relayed message = %+v, want the genuine update", got)
	}
	in := rec.next(t)
	if in.PeerID != 2 || in.Env.Type != protocol.MsgPlayerUpdate {
		t.Fatalf("engine saw %+v before the genuine update", in)
	}
}

func TestHostReportsDisconnectAndKeepsServing(t *testing.T) {
	h, rec, srv := startHost(t)
	a := dial(t, srv)
	join(t, a)
	rec.next(t)

	a.Close()
	d := rec.nextDrop(t)
	if d.peerID != 1 || !errors.Is(d.err, ErrDisconnected) {
		t.Fatalf("disconnect = %+v", d)
	}
	if h.PeerCount() != 0 {
		t.Fatalf("peer still in relay set")
	}

	b := dial(t, srv)
	if id := join(t, b); id != 2 {
		t.Fatalf("ids must not be reused, got %d", id)
	}
}

func TestHostReservesIDForItself(t *testing.T) {
	n := testNetwork()
	n.HostPlays = true
	h := NewHost(n, logger.Component(logger.Discard(), "host"))
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()
	defer h.Stop()

	if h.LocalPlayerID() != 1 {
		t.Fatalf("local id = %d", h.LocalPlayerID())
	}
	if id := join(t, dial(t, srv)); id != 2 {
		t.Fatalf("first remote id = %d, want 2", id)
	}
}

func clientFor(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	host, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	n := testNetwork()
	n.Address = host
	n.Port, _ = strconv.Atoi(port)
	return NewClient(n, logger.Component(logger.Discard(), "client"))
}

func TestClientJoinsAndSeesHostLoss(t *testing.T) {
	h, hostRec, srv := startHost(t)
	c := clientFor(t, srv)
	rec := newRecorder()
	c.SetListener(rec)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()
	hostRec.next(t)

	if in := rec.next(t); in.Env.Type != protocol.MsgPlayerJoined {
		t.Fatalf("first message = %q", in.Env.Type)
	}
	if c.PlayerID() != 1 || c.State() != StateJoined {
		t.Fatalf("id=%d state=%v", c.PlayerID(), c.State())
	}

	env, _ := protocol.New(protocol.MsgEnemyDestroyed, protocol.EnemyDestroyed{EnemyID: 1, PlayerID: 1, Score: 100})
	h.Send(env)
	if in := rec.next(t); in.Env.Type != protocol.MsgEnemyDestroyed {
		t.Fatalf("broadcast not received: %q", in.Env.Type)
	}
	if c.State() != StateActive {
		t.Fatalf("state = %v, want active", c.State())
	}

	h.Stop()
	if d := rec.nextDrop(t); !errors.Is(d.err, ErrDisconnected) {
		t.Fatalf("disconnect err = %v", d.err)
	}
	if c.State() != StateDisconnected {
		t.Fatalf("state = %v", c.State())
	}
}

func TestClientConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	n := testNetwork()
	n.Port = port
	c := NewClient(n, logger.Component(logger.Discard(), "client"))

	err = c.Start(context.Background())
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("err = %v, want ErrConnect", err)
	}
	if c.State() != StateDisconnected {
		t.Fatalf("state = %v", c.State())
	}
}

func TestConnStateString(t *testing.T) {
	if StateActive.String() != "active" || StateConnecting.String() != "connecting" {
		t.Fatalf("unexpected names %q %q", StateActive, StateConnecting)
	}
}
