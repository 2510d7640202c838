package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/object"
)

// LevelMultiplier scales a base stat for the given level: 1 + (level-1)*k.
func LevelMultiplier(level int, k float64) float64 {
	if level < 1 {
		level = 1
	}
	return 1 + float64(level-1)*k
}

// TypeWeights returns the spawn weights of basic, fast and special enemies
// at the given level. Basic enemies thin out as levels rise and special
// ones take their place.
func TypeWeights(level int) [3]float64 {
	l := float64(max(level, 1) - 1)
	return [3]float64{
		math.Max(0, 0.5-l*0.05),
		0.3,
		0.2 + l*0.05,
	}
}

var spawnOrder = [3]object.EnemyType{object.EnemyBasic, object.EnemyFast, object.EnemySpecial}

// Scheduler decides when and what enemies enter the playfield. Only the
// authority runs one.
type Scheduler struct {
	enemy  config.EnemySettings
	spawn  config.SpawnSettings
	width  float64
	rng    *rand.Rand
	delay  time.Duration
	lastAt time.Duration
}

// NewScheduler creates a scheduler drawing from rng. Tests pass a seeded
// source to get a reproducible spawn sequence.
func NewScheduler(s config.Settings, rng *rand.Rand) *Scheduler {
	return &Scheduler{
		enemy: s.Enemy,
		spawn: s.Spawn,
		width: s.Game.Width,
		rng:   rng,
		delay: s.Spawn.BaseDelay,
	}
}

// Delay is the minimum time between spawns.
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// SetDelay changes the spawn delay, never going below the configured
// minimum.
func (s *Scheduler) SetDelay(d time.Duration) {
	s.delay = max(d, s.spawn.MinDelay)
}

// Reset restarts the spawn timer at now with the base delay.
func (s *Scheduler) Reset(now time.Duration) {
	s.lastAt = now
	s.delay = s.spawn.BaseDelay
}

// Chance is the per-tick spawn probability at the given level.
func (s *Scheduler) Chance(level int) float64 {
	c := s.spawn.BaseChance + float64(max(level, 1)-1)*s.spawn.ChanceStep
	return math.Min(s.spawn.MaxChance, c)
}

// Tick spawns at most one enemy into st. It needs the delay to have passed
// since the last spawn, room under the enemy cap and a successful chance
// roll. The spawned enemy is returned, or nil.
func (s *Scheduler) Tick(st *State) *object.Enemy {
	if st.Clock-s.lastAt <= s.delay {
		return nil
	}
	if len(st.Enemies) >= s.enemy.MaxEnemies {
		return nil
	}
	if s.rng.Float64() >= s.Chance(st.Level) {
		return nil
	}

	params := s.roll(st.Level)
	size := s.enemy.Size
	x := size/2 + s.rng.Float64()*math.Max(0, s.width-size)
	e := object.NewEnemy(st.NextID(), object.Vec2{X: x, Y: -size / 2}, params, st.Clock)
	if err := st.AddEnemy(e); err != nil {
		return nil
	}
	s.lastAt = st.Clock
	return e
}

func (s *Scheduler) roll(level int) object.EnemyParams {
	typ := s.pickType(level)

	var base config.EnemyStats
	switch typ {
	case object.EnemyFast:
		base = s.enemy.Fast
	case object.EnemySpecial:
		base = s.enemy.Special
	default:
		base = s.enemy.Basic
	}

	m := LevelMultiplier(level, s.spawn.LevelScale)
	return object.EnemyParams{
		Type:       typ,
		Speed:      base.Speed * m,
		Health:     max(1, int(float64(base.Health)*m)),
		ScoreValue: int(float64(base.Score) * m),
		IsSpecial:  s.rng.Float64() < s.enemy.SpecialChance,
	}
}

func (s *Scheduler) pickType(level int) object.EnemyType {
	weights := TypeWeights(level)
	total := weights[0] + weights[1] + weights[2]
	if total <= 0 {
		return object.EnemyBasic
	}
	r := s.rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return spawnOrder[i]
		}
		r -= w
	}
	return spawnOrder[len(spawnOrder)-1]
}
