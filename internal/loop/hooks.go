package loop

import (
	"github.com/tomz197/skyraid/internal/game"
	"github.com/tomz197/skyraid/internal/object"
	"github.com/tomz197/skyraid/internal/protocol"
)

// Hooks let a presentation layer react to game events. Every hook runs on
// the tick goroutine; nil hooks are skipped.
type Hooks struct {
	OnPlayerJoined       func(playerID int)
	OnRemotePlayerUpdate func(m protocol.PlayerUpdate)
	OnRemoteShoot        func(m protocol.PlayerShoot)
	OnEnemyDestroyed     func(e game.EnemyDestroyed)
	OnDisconnected       func(peerID int, err error)
	OnConnectionError    func(err error)
	OnGameOver           func(score, highScore int)
	OnLevelChanged       func(level int)
}

func (h Hooks) playerJoined(id int) {
	if h.OnPlayerJoined != nil {
		h.OnPlayerJoined(id)
	}
}

func (h Hooks) remotePlayerUpdate(m protocol.PlayerUpdate) {
	if h.OnRemotePlayerUpdate != nil {
		h.OnRemotePlayerUpdate(m)
	}
}

func (h Hooks) remoteShoot(m protocol.PlayerShoot) {
	if h.OnRemoteShoot != nil {
		h.OnRemoteShoot(m)
	}
}

func (h Hooks) enemyDestroyed(e game.EnemyDestroyed) {
	if h.OnEnemyDestroyed != nil {
		h.OnEnemyDestroyed(e)
	}
}

func (h Hooks) disconnected(peerID int, err error) {
	if h.OnDisconnected != nil {
		h.OnDisconnected(peerID, err)
	}
}

func (h Hooks) connectionError(err error) {
	if h.OnConnectionError != nil {
		h.OnConnectionError(err)
	}
}

func (h Hooks) gameOver(score, highScore int) {
	if h.OnGameOver != nil {
		h.OnGameOver(score, highScore)
	}
}

func (h Hooks) levelChanged(level int) {
	if h.OnLevelChanged != nil {
		h.OnLevelChanged(level)
	}
}

// Input is the local player's intent for the coming ticks.
type Input struct {
	Move    object.Vec2 // Direction; each axis in [-1, 1]
	Fire    bool
	Missile bool
}

// Snapshot is a copy of the game published after every tick. It is shared
// by all readers and must not be modified.
type Snapshot struct {
	State   *game.State
	LocalID int // 0 when this peer has no player
	Tick    uint64
}

// LocalPlayer returns this peer's player, if it has one yet.
func (s *Snapshot) LocalPlayer() (*object.Player, bool) {
	if s.LocalID == 0 {
		return nil, false
	}
	return s.State.Player(s.LocalID)
}
