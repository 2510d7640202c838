// Package session moves protocol envelopes between peers over websockets.
// The host accepts connections, assigns player ids and relays movement;
// clients dial the host.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/protocol"
)

var (
	// ErrConnect is returned when a client cannot reach its host.
	ErrConnect = errors.New("connect to host")
	// ErrDisconnected is reported when an established connection drops.
	ErrDisconnected = errors.New("connection lost")
	// ErrClosed is returned by operations on a stopped session.
	ErrClosed = errors.New("session closed")
)

// ConnState tracks a connection through its life.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateJoined
	StateActive
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Inbound is a message received from a peer. PeerID is the sender's
// player id on the host, and 0 (the host) on a client.
type Inbound struct {
	PeerID int
	Env    protocol.Envelope
}

// Listener receives session events. Calls come from connection goroutines
// and must not block.
type Listener interface {
	OnMessage(in Inbound)
	OnDisconnected(peerID int, err error)
}

// Session is one peer's connection to the game.
type Session interface {
	Start(ctx context.Context) error
	Stop() error
	// Send delivers env to every connected peer without blocking.
	Send(env protocol.Envelope)
	// SendTo delivers env to a single peer without blocking.
	SendTo(peerID int, env protocol.Envelope)
	SetListener(l Listener)
	Role() config.Role
	State() ConnState
}

type nopListener struct{}

func (nopListener) OnMessage(Inbound)         {}
func (nopListener) OnDisconnected(int, error) {}
