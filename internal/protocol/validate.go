package protocol

import (
	"fmt"
	"math"

	"github.com/tomz197/skyraid/internal/object"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func finite(v object.Vec2) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

func (JoinGame) Validate() error { return nil }

func (m PlayerJoined) Validate() error {
	if m.PlayerID <= 0 {
		return invalid("player id %d", m.PlayerID)
	}
	return nil
}

func (m PlayerUpdate) Validate() error {
	if m.PlayerID <= 0 {
		return invalid("player id %d", m.PlayerID)
	}
	if !finite(m.Position) || !finite(m.Velocity) {
		return invalid("non-finite movement for player %d", m.PlayerID)
	}
	return nil
}

func (m PlayerShoot) Validate() error {
	if m.PlayerID <= 0 {
		return invalid("player id %d", m.PlayerID)
	}
	if !finite(m.Position) {
		return invalid("non-finite shot position for player %d", m.PlayerID)
	}
	return nil
}

func (m EnemyDestroyed) Validate() error {
	if m.EnemyID <= 0 || m.PlayerID <= 0 {
		return invalid("enemy %d player %d", m.EnemyID, m.PlayerID)
	}
	if m.Score < 0 {
		return invalid("negative score %d", m.Score)
	}
	return nil
}

// Validate rejects snapshots an authority could not have produced:
// non-positive ids, duplicates, negative lives or score.
func (m GameState) Validate() error {
	for id, p := range m.Players {
		if id <= 0 {
			return invalid("player id %d", id)
		}
		if p.Lives < 0 || p.Score < 0 {
			return invalid("player %d lives %d score %d", id, p.Lives, p.Score)
		}
	}
	seen := make(map[int]bool, len(m.Enemies))
	for _, e := range m.Enemies {
		if e.ID <= 0 || seen[e.ID] {
			return invalid("enemy id %d", e.ID)
		}
		seen[e.ID] = true
	}
	clear(seen)
	for _, b := range m.Bullets {
		if b.ID <= 0 || seen[b.ID] {
			return invalid("bullet id %d", b.ID)
		}
		seen[b.ID] = true
	}
	if m.Score < 0 || m.HighScore < 0 || m.Level < 1 {
		return invalid("score %d high score %d level %d", m.Score, m.HighScore, m.Level)
	}
	return nil
}
