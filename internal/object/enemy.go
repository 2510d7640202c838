package object

import (
	"fmt"
	"time"
)

// EnemyType is the enemy category.
type EnemyType int

const (
	EnemyBasic   EnemyType = iota // Slow; special ones reverse near the bottom
	EnemyFast                     // Fast, fragile
	EnemySpecial                  // Tough, shoots back
)

var enemyTypeNames = map[EnemyType]string{
	EnemyBasic:   "basic",
	EnemyFast:    "fast",
	EnemySpecial: "special",
}

func (t EnemyType) String() string {
	if name, ok := enemyTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("enemy(%d)", int(t))
}

// MarshalText encodes the type by name.
func (t EnemyType) MarshalText() ([]byte, error) {
	name, ok := enemyTypeNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown enemy type %d", int(t))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a type name.
func (t *EnemyType) UnmarshalText(b []byte) error {
	for k, name := range enemyTypeNames {
		if name == string(b) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown enemy type %q", string(b))
}

// Enemy is a hostile ship descending the playfield.
type Enemy struct {
	ID         int
	Type       EnemyType
	Pos, Vel   Vec2
	Speed      float64
	Health     int
	ScoreValue int

	CanShoot   bool
	CanReverse bool
	IsSpecial  bool
	LastShotAt time.Duration
}

// EnemyParams are the already level-scaled attributes of a new enemy.
type EnemyParams struct {
	Type       EnemyType
	Speed      float64
	Health     int
	ScoreValue int
	IsSpecial  bool
}

// NewEnemy creates an enemy at pos heading down the screen.
func NewEnemy(id int, pos Vec2, p EnemyParams, now time.Duration) *Enemy {
	return &Enemy{
		ID:         id,
		Type:       p.Type,
		Pos:        pos,
		Vel:        Vec2{X: 0, Y: p.Speed},
		Speed:      p.Speed,
		Health:     p.Health,
		ScoreValue: p.ScoreValue,
		CanShoot:   p.Type == EnemySpecial,
		CanReverse: p.Type == EnemyBasic,
		IsSpecial:  p.IsSpecial,
		LastShotAt: now,
	}
}

// Alive reports whether the enemy has health left.
func (e *Enemy) Alive() bool {
	return e.Health > 0
}

// Hitbox returns the enemy's collision rectangle.
func (e *Enemy) Hitbox(size float64) Rect {
	return CenteredRect(e.Pos, size, size)
}

// Damage subtracts dmg and reports whether the hit was lethal.
func (e *Enemy) Damage(dmg int) bool {
	e.Health -= dmg
	return e.Health <= 0
}

// Move advances the enemy. Special reversing enemies turn back upward once
// their bottom edge passes reverseLine.
func (e *Enemy) Move(dt time.Duration, size, reverseLine float64) {
	e.Pos = Advance(e.Pos, e.Vel, dt)
	if e.CanReverse && e.IsSpecial && e.Vel.Y > 0 && e.Pos.Y+size/2 > reverseLine {
		e.Vel.Y = -e.Speed
	}
}

// Gone reports whether the enemy has left the playfield. Enemies enter from
// above, so only leaving through the bottom, or through the top while moving
// upward, counts.
func (e *Enemy) Gone(b Bounds, size float64) bool {
	r := e.Hitbox(size)
	if r.Top() > b.Height {
		return true
	}
	return e.Vel.Y < 0 && r.Bottom() < 0
}

// ReadyToShoot reports whether a shooting enemy's delay has elapsed.
func (e *Enemy) ReadyToShoot(now, delay time.Duration) bool {
	return e.CanShoot && now-e.LastShotAt >= delay
}

// Clone returns a copy safe to hand to other goroutines.
func (e *Enemy) Clone() *Enemy {
	cp := *e
	return &cp
}
