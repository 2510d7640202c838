package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/tomz197/skyraid/internal/config"
)

func TestDifficultyLevel(t *testing.T) {
	d := NewDifficulty(config.Default().Spawn)
	tests := []struct {
		score int
		want  int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{2500, 3},
		{-50, 1},
	}
	for _, tt := range tests {
		if got := d.Level(tt.score); got != tt.want {
			t.Errorf("Level(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestDifficultySpawnDelay(t *testing.T) {
	d := NewDifficulty(config.Default().Spawn)
	if got := d.SpawnDelay(1); got != time.Second {
		t.Fatalf("level 1 delay = %v", got)
	}
	if got := d.SpawnDelay(3); got != 800*time.Millisecond {
		t.Fatalf("level 3 delay = %v", got)
	}

	prev := d.SpawnDelay(1)
	for lvl := 2; lvl <= 50; lvl++ {
		cur := d.SpawnDelay(lvl)
		if cur > prev {
			t.Fatalf("delay grew from %v to %v at level %d", prev, cur, lvl)
		}
		if cur < config.SpawnMinDelay {
			t.Fatalf("delay %v below minimum at level %d", cur, lvl)
		}
		prev = cur
	}
	if prev != config.SpawnMinDelay {
		t.Fatalf("late delay = %v, want the minimum", prev)
	}
}

func TestDifficultyUpdateIsIdempotent(t *testing.T) {
	s := config.Default()
	d := NewDifficulty(s.Spawn)
	sch := NewScheduler(s, rand.New(rand.NewSource(1)))
	st := playingState()

	st.Score = 2500
	if !d.Update(st, sch) {
		t.Fatalf("level change not reported")
	}
	if st.Level != 3 || sch.Delay() != 800*time.Millisecond {
		t.Fatalf("level=%d delay=%v", st.Level, sch.Delay())
	}
	if d.Update(st, sch) {
		t.Fatalf("second update with the same score reported a change")
	}
	if st.Level != 3 || sch.Delay() != 800*time.Millisecond {
		t.Fatalf("second update changed level=%d delay=%v", st.Level, sch.Delay())
	}
}
