// Package reconcile folds messages from other peers into a local view of
// the game without ever disturbing the locally driven player's movement.
package reconcile

import (
	"github.com/tomz197/skyraid/internal/game"
	"github.com/tomz197/skyraid/internal/object"
	"github.com/tomz197/skyraid/internal/protocol"
)

// Reconciler applies inbound deltas and snapshots to a view simulation.
// It must only be used from the goroutine that steps the simulation.
type Reconciler struct {
	sim     *game.Simulation
	localID int // 0 until the host assigns one
}

// New binds a reconciler to sim with the given local player id.
func New(sim *game.Simulation, localID int) *Reconciler {
	return &Reconciler{sim: sim, localID: localID}
}

// LocalID returns the id of the locally driven player.
func (r *Reconciler) LocalID() int {
	return r.localID
}

// SetLocalID records the id the host assigned to this peer.
func (r *Reconciler) SetLocalID(id int) {
	r.localID = id
}

func (r *Reconciler) state() *game.State {
	return r.sim.State()
}

// PlayerUpdate moves a remote player, creating it on first sight. Updates
// about the local player are ignored. Only position and velocity change.
// It reports whether the view changed.
func (r *Reconciler) PlayerUpdate(m protocol.PlayerUpdate) bool {
	if m.PlayerID == r.localID {
		return false
	}
	p, ok := r.state().Player(m.PlayerID)
	if !ok {
		var err error
		if p, err = r.sim.Join(m.PlayerID); err != nil {
			return false
		}
	}
	p.Pos = m.Position
	p.Vel = m.Velocity
	return true
}

// PlayerShoot adds a remote player's shot. Shots from unknown players or
// echoes of the local player's own shots are ignored.
func (r *Reconciler) PlayerShoot(m protocol.PlayerShoot) *object.Projectile {
	if m.PlayerID == r.localID {
		return nil
	}
	if _, ok := r.state().Player(m.PlayerID); !ok {
		return nil
	}
	return r.sim.RemoteShot(m.PlayerID, m.Position, m.Missile)
}

// EnemyDestroyed removes the enemy and credits the kill. A kill for an
// enemy the view no longer has was already folded in by a snapshot and is
// not credited twice.
func (r *Reconciler) EnemyDestroyed(m protocol.EnemyDestroyed) bool {
	st := r.state()
	if !st.RemoveEnemy(m.EnemyID) {
		return false
	}
	st.Score += m.Score
	if p, ok := st.Player(m.PlayerID); ok {
		p.Score += m.Score
	}
	return true
}

// Snapshot merges a full authority snapshot into the view.
func (r *Reconciler) Snapshot(gs protocol.GameState) {
	st := r.state()
	r.mergePlayers(st, gs)
	r.mergeEnemies(st, gs)
	r.mergeProjectiles(st, gs)

	st.Status = gs.Status
	st.Score = gs.Score
	st.HighScore = gs.HighScore
	st.Level = gs.Level
}

func (r *Reconciler) mergePlayers(st *game.State, gs protocol.GameState) {
	for id, ps := range gs.Players {
		p, ok := st.Player(id)
		if !ok {
			p = object.NewPlayer(id, ps.Position, ps.Lives)
			p.Vel = ps.Velocity
			p.Local = id == r.localID
			st.AddPlayer(p)
		}
		if id != r.localID {
			p.Pos = ps.Position
			p.Vel = ps.Velocity
		}
		p.Score = ps.Score
		p.Lives = ps.Lives
		p.Invincible = ps.Invincible
		p.MissileUnlocked = ps.MissileUnlocked
	}
	for id := range st.Players {
		if _, ok := gs.Players[id]; !ok && id != r.localID {
			delete(st.Players, id)
		}
	}
}

func (r *Reconciler) mergeEnemies(st *game.State, gs protocol.GameState) {
	merged := make([]*object.Enemy, 0, len(gs.Enemies))
	for _, es := range gs.Enemies {
		e, _ := st.Enemy(es.ID)
		if e == nil {
			merged = append(merged, es.Enemy())
			continue
		}
		e.Type = es.Type
		e.Pos = es.Position
		e.Vel = es.Velocity
		e.Speed = es.Speed
		e.Health = es.Health
		e.ScoreValue = es.ScoreValue
		e.IsSpecial = es.IsSpecial
		merged = append(merged, e)
	}
	st.Enemies = merged
}

func (r *Reconciler) mergeProjectiles(st *game.State, gs protocol.GameState) {
	merged := make([]*object.Projectile, 0, len(gs.Bullets))
	for _, p := range st.Projectiles {
		if r.ownedLocally(p.Faction, p.OwnerID) {
			merged = append(merged, p)
		}
	}
	for _, b := range gs.Bullets {
		if r.ownedLocally(b.Faction, b.OwnerID) {
			continue
		}
		merged = append(merged, b.Projectile())
	}
	st.Projectiles = merged
}

func (r *Reconciler) ownedLocally(f object.Faction, owner int) bool {
	return r.localID != 0 && f == object.FactionPlayer && owner == r.localID
}
