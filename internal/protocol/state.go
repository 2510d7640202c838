package protocol

import (
	"github.com/tomz197/skyraid/internal/game"
	"github.com/tomz197/skyraid/internal/object"
)

// FromState captures st as a wire snapshot.
func FromState(st *game.State) GameState {
	gs := GameState{
		Players:   make(map[int]PlayerState, len(st.Players)),
		Enemies:   make([]EnemyState, 0, len(st.Enemies)),
		Bullets:   make([]BulletState, 0, len(st.Projectiles)),
		Status:    st.Status,
		Score:     st.Score,
		HighScore: st.HighScore,
		Level:     st.Level,
	}
	for id, p := range st.Players {
		gs.Players[id] = PlayerState{
			Position:        p.Pos,
			Velocity:        p.Vel,
			Score:           p.Score,
			Lives:           p.Lives,
			Invincible:      p.Invincible,
			MissileUnlocked: p.MissileUnlocked,
		}
	}
	for _, e := range st.Enemies {
		gs.Enemies = append(gs.Enemies, EnemyState{
			ID:         e.ID,
			Type:       e.Type,
			Position:   e.Pos,
			Velocity:   e.Vel,
			Speed:      e.Speed,
			Health:     e.Health,
			ScoreValue: e.ScoreValue,
			IsSpecial:  e.IsSpecial,
		})
	}
	for _, p := range st.Projectiles {
		gs.Bullets = append(gs.Bullets, BulletState{
			ID:       p.ID,
			OwnerID:  p.OwnerID,
			Position: p.Pos,
			Velocity: p.Vel,
			Damage:   p.Damage,
			Faction:  p.Faction,
			Missile:  p.Missile,
		})
	}
	return gs
}

// Enemy rebuilds the enemy described by e.
func (e EnemyState) Enemy() *object.Enemy {
	out := object.NewEnemy(e.ID, e.Position, object.EnemyParams{
		Type:       e.Type,
		Speed:      e.Speed,
		Health:     e.Health,
		ScoreValue: e.ScoreValue,
		IsSpecial:  e.IsSpecial,
	}, 0)
	out.Vel = e.Velocity
	return out
}

// Projectile rebuilds the projectile described by b.
func (b BulletState) Projectile() *object.Projectile {
	return &object.Projectile{
		ID:      b.ID,
		OwnerID: b.OwnerID,
		Pos:     b.Position,
		Vel:     b.Velocity,
		Damage:  b.Damage,
		Faction: b.Faction,
		Missile: b.Missile,
	}
}
