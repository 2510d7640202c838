package game

import (
	"math"
	"sort"
	"time"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/object"
	"github.com/tomz197/skyraid/internal/physics"
)

// Rules are the collision parameters the resolver needs.
type Rules struct {
	PlayerSize            float64
	EnemySize             float64
	BulletSize            float64
	InvincibilityDuration time.Duration
	MissileUnlockScore    int
}

// RulesFrom extracts the collision rules from settings.
func RulesFrom(s config.Settings) Rules {
	return Rules{
		PlayerSize:            s.Player.Size,
		EnemySize:             s.Enemy.Size,
		BulletSize:            s.Player.BulletSize,
		InvincibilityDuration: s.Player.InvincibilityDuration,
		MissileUnlockScore:    s.Player.MissileUnlockScore,
	}
}

// EnemyDestroyed records a kill credited to a player.
type EnemyDestroyed struct {
	EnemyID  int
	PlayerID int
	Score    int
}

// PlayerHit records a life lost.
type PlayerHit struct {
	PlayerID int
	Lives    int // Lives left after the hit
}

// Outcome is everything one resolution pass changed.
type Outcome struct {
	Destroyed        []EnemyDestroyed
	Hits             []PlayerHit
	MissilesUnlocked []int // Player ids
	GameOver         bool  // This pass ended the game
}

// Resolver detects collisions and applies their consequences. It keeps its
// broad-phase grid and scratch buffers between ticks, so reuse one per
// simulation. It is not safe for concurrent use.
type Resolver struct {
	rules Rules
	grid  *physics.SpatialGrid

	enemies     []*object.Enemy
	projectiles []*object.Projectile
	candidates  []int
	removed     map[int]struct{} // Enemy ids gone this pass
	consumed    map[int]struct{} // Projectile ids spent this pass
}

// NewResolver creates a resolver for a width x height playfield.
func NewResolver(rules Rules, width, height float64) *Resolver {
	// Overlapping centers are never further apart than the largest size.
	cell := math.Max(rules.EnemySize, math.Max(rules.PlayerSize, rules.BulletSize))
	return &Resolver{
		rules:    rules,
		grid:     physics.NewSpatialGrid(width, height, cell),
		removed:  make(map[int]struct{}),
		consumed: make(map[int]struct{}),
	}
}

// Resolve runs a one-shot resolution pass over st.
func Resolve(st *State, rules Rules, width, height float64) Outcome {
	return NewResolver(rules, width, height).Resolve(st)
}

// Resolve applies one tick of collisions to st, in order:
//
//  1. player projectiles against enemies
//  2. enemies against players
//  3. enemy projectiles against players
//
// Entities are visited in ascending id order and each projectile hits at
// most one enemy, the lowest-id one it overlaps. A state that is not
// playing is left untouched.
func (r *Resolver) Resolve(st *State) Outcome {
	var out Outcome
	if st.Status != StatusPlaying {
		return out
	}

	r.collect(st)
	r.grid.Clear()
	for i, e := range r.enemies {
		r.grid.Insert(e.Pos.X, e.Pos.Y, i)
	}

	r.playerShots(st, &out)
	r.rammedPlayers(st, &out)
	r.enemyShots(st, &out)

	r.compact(st)
	return out
}

func (r *Resolver) collect(st *State) {
	clear(r.removed)
	clear(r.consumed)

	r.enemies = append(r.enemies[:0], st.Enemies...)
	sort.Slice(r.enemies, func(i, j int) bool { return r.enemies[i].ID < r.enemies[j].ID })

	r.projectiles = append(r.projectiles[:0], st.Projectiles...)
	sort.Slice(r.projectiles, func(i, j int) bool { return r.projectiles[i].ID < r.projectiles[j].ID })
}

func (r *Resolver) enemyLive(e *object.Enemy) bool {
	_, gone := r.removed[e.ID]
	return !gone && e.Alive()
}

func (r *Resolver) playerShots(st *State, out *Outcome) {
	for _, p := range r.projectiles {
		if p.Faction != object.FactionPlayer {
			continue
		}
		hitbox := p.Hitbox(r.rules.BulletSize)
		r.candidates = r.grid.Candidates(p.Pos.X, p.Pos.Y, r.candidates)
		for _, i := range r.candidates {
			e := r.enemies[i]
			if !r.enemyLive(e) || !physics.RectsOverlap(hitbox, e.Hitbox(r.rules.EnemySize)) {
				continue
			}
			r.consumed[p.ID] = struct{}{}
			if e.Damage(p.Damage) {
				r.removed[e.ID] = struct{}{}
				r.award(st, p.OwnerID, e, out)
			}
			break
		}
	}
}

func (r *Resolver) award(st *State, playerID int, e *object.Enemy, out *Outcome) {
	st.Score += e.ScoreValue
	out.Destroyed = append(out.Destroyed, EnemyDestroyed{
		EnemyID:  e.ID,
		PlayerID: playerID,
		Score:    e.ScoreValue,
	})

	pl, ok := st.Player(playerID)
	if !ok {
		return
	}
	pl.Score += e.ScoreValue
	if !pl.MissileUnlocked && r.rules.MissileUnlockScore > 0 && pl.Score >= r.rules.MissileUnlockScore {
		pl.MissileUnlocked = true
		out.MissilesUnlocked = append(out.MissilesUnlocked, pl.ID)
	}
}

func (r *Resolver) rammedPlayers(st *State, out *Outcome) {
	for _, id := range st.PlayerIDs() {
		pl := st.Players[id]
		if !pl.Alive() || pl.Invincible {
			continue
		}
		hitbox := pl.Hitbox(r.rules.PlayerSize)
		hit := false
		r.candidates = r.grid.Candidates(pl.Pos.X, pl.Pos.Y, r.candidates)
		for _, i := range r.candidates {
			e := r.enemies[i]
			if !r.enemyLive(e) || !physics.RectsOverlap(hitbox, e.Hitbox(r.rules.EnemySize)) {
				continue
			}
			// Rammed enemies are destroyed without awarding score.
			r.removed[e.ID] = struct{}{}
			hit = true
		}
		if hit {
			r.damage(st, pl, out)
		}
	}
}

func (r *Resolver) enemyShots(st *State, out *Outcome) {
	for _, id := range st.PlayerIDs() {
		pl := st.Players[id]
		if !pl.Alive() || pl.Invincible {
			continue
		}
		hitbox := pl.Hitbox(r.rules.PlayerSize)
		hit := false
		for _, p := range r.projectiles {
			if p.Faction != object.FactionEnemy {
				continue
			}
			if _, spent := r.consumed[p.ID]; spent {
				continue
			}
			if physics.RectsOverlap(hitbox, p.Hitbox(r.rules.BulletSize)) {
				r.consumed[p.ID] = struct{}{}
				hit = true
			}
		}
		if hit {
			r.damage(st, pl, out)
		}
	}
}

// damage costs pl at most one life per call. The first player to run out
// ends the game.
func (r *Resolver) damage(st *State, pl *object.Player, out *Outcome) {
	if !pl.TakeDamage(st.Clock, r.rules.InvincibilityDuration) {
		return
	}
	assertf(pl.Lives >= 0, "player %d lives went negative", pl.ID)
	out.Hits = append(out.Hits, PlayerHit{PlayerID: pl.ID, Lives: pl.Lives})
	if pl.Lives == 0 && st.EndGame() {
		out.GameOver = true
	}
}

// compact drops removed enemies and spent projectiles in place, keeping the
// survivors' order.
func (r *Resolver) compact(st *State) {
	if len(r.removed) > 0 {
		n := 0
		for _, e := range st.Enemies {
			if _, gone := r.removed[e.ID]; !gone {
				st.Enemies[n] = e
				n++
			}
		}
		clear(st.Enemies[n:])
		st.Enemies = st.Enemies[:n]
	}
	if len(r.consumed) > 0 {
		n := 0
		for _, p := range st.Projectiles {
			if _, spent := r.consumed[p.ID]; !spent {
				st.Projectiles[n] = p
				n++
			}
		}
		clear(st.Projectiles[n:])
		st.Projectiles = st.Projectiles[:n]
	}
}
