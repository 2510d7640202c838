package game

import (
	"time"

	"github.com/tomz197/skyraid/internal/config"
)

// Difficulty maps the team score to a level and the level to a spawn delay.
type Difficulty struct {
	Threshold int // Score per level
	BaseDelay time.Duration
	MinDelay  time.Duration
	DelayStep time.Duration
}

// NewDifficulty builds the curve from spawn settings.
func NewDifficulty(s config.SpawnSettings) Difficulty {
	return Difficulty{
		Threshold: max(s.LevelThreshold, 1),
		BaseDelay: s.BaseDelay,
		MinDelay:  s.MinDelay,
		DelayStep: s.DelayStep,
	}
}

// Level returns 1 + score/threshold.
func (d Difficulty) Level(score int) int {
	return 1 + max(score, 0)/max(d.Threshold, 1)
}

// SpawnDelay shrinks by one step per level down to the minimum.
func (d Difficulty) SpawnDelay(level int) time.Duration {
	step := time.Duration(max(level, 1)-1) * d.DelayStep
	return max(d.MinDelay, d.BaseDelay-step)
}

// Update recomputes the level from st.Score and pushes the new spawn delay
// into sch when it changed. It reports whether the level changed, so
// calling it again with the same score does nothing.
func (d Difficulty) Update(st *State, sch *Scheduler) bool {
	lvl := d.Level(st.Score)
	if lvl == st.Level {
		return false
	}
	st.Level = lvl
	if sch != nil {
		sch.SetDelay(d.SpawnDelay(lvl))
	}
	return true
}
