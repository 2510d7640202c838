package object

import (
	"fmt"
	"time"
)

// Faction selects which collision rules a projectile takes part in.
type Faction int

const (
	FactionPlayer Faction = iota
	FactionEnemy
)

func (f Faction) String() string {
	switch f {
	case FactionPlayer:
		return "player"
	case FactionEnemy:
		return "enemy"
	default:
		return fmt.Sprintf("faction(%d)", int(f))
	}
}

// MarshalText encodes the faction by name.
func (f Faction) MarshalText() ([]byte, error) {
	switch f {
	case FactionPlayer, FactionEnemy:
		return []byte(f.String()), nil
	}
	return nil, fmt.Errorf("unknown faction %d", int(f))
}

// UnmarshalText decodes a faction name.
func (f *Faction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "player":
		*f = FactionPlayer
	case "enemy":
		*f = FactionEnemy
	default:
		return fmt.Errorf("unknown faction %q", string(b))
	}
	return nil
}

// Projectile is a bullet or missile.
type Projectile struct {
	ID       int
	OwnerID  int // Player id for player shots, enemy id for enemy shots
	Pos, Vel Vec2
	Damage   int
	Faction  Faction
	Missile  bool
}

// NewPlayerShot creates an upward player-faction projectile.
func NewPlayerShot(id, ownerID int, pos Vec2, speed float64, damage int, missile bool) *Projectile {
	return &Projectile{
		ID:      id,
		OwnerID: ownerID,
		Pos:     pos,
		Vel:     Vec2{X: 0, Y: -speed},
		Damage:  damage,
		Faction: FactionPlayer,
		Missile: missile,
	}
}

// NewEnemyShot creates a downward enemy-faction projectile.
func NewEnemyShot(id, ownerID int, pos Vec2, speed float64, damage int) *Projectile {
	return &Projectile{
		ID:      id,
		OwnerID: ownerID,
		Pos:     pos,
		Vel:     Vec2{X: 0, Y: speed},
		Damage:  damage,
		Faction: FactionEnemy,
	}
}

// Hitbox returns the projectile's collision rectangle.
func (p *Projectile) Hitbox(size float64) Rect {
	return CenteredRect(p.Pos, size, size)
}

// Move advances the projectile.
func (p *Projectile) Move(dt time.Duration) {
	p.Pos = Advance(p.Pos, p.Vel, dt)
}

// Clone returns a copy safe to hand to other goroutines.
func (p *Projectile) Clone() *Projectile {
	cp := *p
	return &cp
}
