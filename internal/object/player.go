package object

import "time"

// Player is a player-controlled ship.
type Player struct {
	ID       int
	Pos, Vel Vec2
	Lives    int
	Score    int

	Invincible      bool
	InvincibleUntil time.Duration // Simulation clock time the invincibility ends

	LastShotAt      time.Duration
	MissileUnlocked bool
	LastMissileAt   time.Duration

	// Local marks the player driven by this peer's own input. It never
	// crosses the wire.
	Local bool
}

// NewPlayer creates a player at pos with the given lives.
func NewPlayer(id int, pos Vec2, lives int) *Player {
	return &Player{
		ID:            id,
		Pos:           pos,
		Lives:         lives,
		LastShotAt:    -time.Hour,
		LastMissileAt: -time.Hour,
	}
}

// Alive reports whether the player still has lives.
func (p *Player) Alive() bool {
	return p.Lives > 0
}

// Hitbox returns the player's collision rectangle.
func (p *Player) Hitbox(size float64) Rect {
	return CenteredRect(p.Pos, size, size)
}

// Move integrates velocity over dt and keeps the ship on screen.
func (p *Player) Move(dt time.Duration, b Bounds) {
	p.Pos = b.Clamp(Advance(p.Pos, p.Vel, dt))
}

// ExpireInvincibility clears invincibility once its window has passed.
func (p *Player) ExpireInvincibility(now time.Duration) {
	if p.Invincible && now >= p.InvincibleUntil {
		p.Invincible = false
	}
}

// TakeDamage removes one life and starts the invincibility window.
// It is a no-op while invincible or already out of lives and reports
// whether a life was lost.
func (p *Player) TakeDamage(now, window time.Duration) bool {
	if p.Invincible || p.Lives <= 0 {
		return false
	}
	p.Lives--
	if p.Lives < 0 {
		p.Lives = 0
	}
	p.Invincible = true
	p.InvincibleUntil = now + window
	return true
}

// CanFire reports whether the fire cooldown has elapsed.
func (p *Player) CanFire(now, cooldown time.Duration) bool {
	return now-p.LastShotAt >= cooldown
}

// CanFireMissile reports whether missiles are unlocked and off cooldown.
func (p *Player) CanFireMissile(now, cooldown time.Duration) bool {
	return p.MissileUnlocked && now-p.LastMissileAt >= cooldown
}

// Clone returns a copy safe to hand to other goroutines.
func (p *Player) Clone() *Player {
	cp := *p
	return &cp
}
