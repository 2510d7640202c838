// Package protocol defines the messages peers exchange and their JSON
// framing.
package protocol

import (
	"encoding/json"
	"errors"

	"github.com/tomz197/skyraid/internal/game"
	"github.com/tomz197/skyraid/internal/object"
)

const (
	MsgJoinGame       = "join_game"
	MsgPlayerJoined   = "player_joined"
	MsgPlayerUpdate   = "player_update"
	MsgPlayerShoot    = "player_shoot"
	MsgEnemyDestroyed = "enemy_destroyed"
	MsgGameState      = "game_state"
)

var (
	// ErrMalformed marks bytes that are not a well-formed message.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownType marks an envelope whose type is not in the protocol.
	ErrUnknownType = errors.New("unknown message type")
	// ErrInvalid marks a well-formed payload with out-of-range values.
	ErrInvalid = errors.New("invalid payload")
)

var knownTypes = map[string]bool{
	MsgJoinGame:       true,
	MsgPlayerJoined:   true,
	MsgPlayerUpdate:   true,
	MsgPlayerShoot:    true,
	MsgEnemyDestroyed: true,
	MsgGameState:      true,
}

// Envelope is the frame every message travels in.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinGame asks the host for a player slot. It carries no fields.
type JoinGame struct{}

// PlayerJoined tells a client which player id it owns.
type PlayerJoined struct {
	PlayerID int `json:"player_id"`
}

// PlayerUpdate carries a player's movement.
type PlayerUpdate struct {
	PlayerID int         `json:"player_id"`
	Position object.Vec2 `json:"position"`
	Velocity object.Vec2 `json:"velocity"`
}

// PlayerShoot announces a shot fired at Position.
type PlayerShoot struct {
	PlayerID int         `json:"player_id"`
	Position object.Vec2 `json:"position"`
	Missile  bool        `json:"missile,omitempty"`
}

// EnemyDestroyed credits a kill.
type EnemyDestroyed struct {
	EnemyID  int `json:"enemy_id"`
	PlayerID int `json:"player_id"`
	Score    int `json:"score"`
}

// PlayerState is one player inside a GameState.
type PlayerState struct {
	Position        object.Vec2 `json:"position"`
	Velocity        object.Vec2 `json:"velocity"`
	Score           int         `json:"score"`
	Lives           int         `json:"lives"`
	Invincible      bool        `json:"invincible"`
	MissileUnlocked bool        `json:"missile_unlocked,omitempty"`
}

// EnemyState is one enemy inside a GameState.
type EnemyState struct {
	ID         int              `json:"id"`
	Type       object.EnemyType `json:"type"`
	Position   object.Vec2      `json:"position"`
	Velocity   object.Vec2      `json:"velocity"`
	Speed      float64          `json:"speed"`
	Health     int              `json:"health"`
	ScoreValue int              `json:"score_value"`
	IsSpecial  bool             `json:"is_special,omitempty"`
}

// BulletState is one projectile inside a GameState.
type BulletState struct {
	ID       int            `json:"id"`
	OwnerID  int            `json:"owner_id"`
	Position object.Vec2    `json:"position"`
	Velocity object.Vec2    `json:"velocity"`
	Damage   int            `json:"damage"`
	Faction  object.Faction `json:"faction"`
	Missile  bool           `json:"missile,omitempty"`
}

// GameState is the authority's full snapshot.
type GameState struct {
	Players   map[int]PlayerState `json:"players"`
	Enemies   []EnemyState        `json:"enemies"`
	Bullets   []BulletState       `json:"bullets"`
	Status    game.Status         `json:"game_status"`
	Score     int                 `json:"score"`
	HighScore int                 `json:"high_score"`
	Level     int                 `json:"level"`
}
