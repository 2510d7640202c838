package object

import (
	"testing"
	"time"
)

func TestTakeDamageStartsInvincibility(t *testing.T) {
	p := NewPlayer(1, Vec2{X: 100, Y: 100}, 3)

	if !p.TakeDamage(time.Second, 2*time.Second) {
		t.Fatalf("first hit should cost a life")
	}
	if p.Lives != 2 || !p.Invincible {
		t.Fatalf("lives=%d invincible=%v, want 2 true", p.Lives, p.Invincible)
	}
	if p.TakeDamage(1500*time.Millisecond, 2*time.Second) {
		t.Fatalf("hit during invincibility should be a no-op")
	}
	if p.InvincibleUntil != 3*time.Second {
		t.Fatalf("window extended to %v, want 3s", p.InvincibleUntil)
	}

	p.ExpireInvincibility(2999 * time.Millisecond)
	if !p.Invincible {
		t.Fatalf("invincibility cleared early")
	}
	p.ExpireInvincibility(3 * time.Second)
	if p.Invincible {
		t.Fatalf("invincibility should clear at its deadline")
	}
}

func TestTakeDamageNeverGoesNegative(t *testing.T) {
	p := NewPlayer(1, Vec2{}, 1)
	p.TakeDamage(0, 0)
	p.ExpireInvincibility(0)
	if p.TakeDamage(time.Second, 0) {
		t.Fatalf("player without lives took damage")
	}
	if p.Lives != 0 {
		t.Fatalf("lives = %d, want 0", p.Lives)
	}
}

func TestPlayerMoveClampsToBounds(t *testing.T) {
	p := NewPlayer(1, Vec2{X: 790, Y: 10}, 3)
	p.Vel = Vec2{X: 300, Y: -300}
	p.Move(time.Second, Bounds{Width: 800, Height: 600})
	if p.Pos != (Vec2{X: 800, Y: 0}) {
		t.Fatalf("pos = %+v, want clamped to (800,0)", p.Pos)
	}
}

func TestSpecialEnemyReverses(t *testing.T) {
	e := NewEnemy(1, Vec2{X: 100, Y: 480}, EnemyParams{Type: EnemyBasic, Speed: 100, Health: 1, IsSpecial: true}, 0)
	e.Move(100*time.Millisecond, 32, 500)
	if e.Vel.Y != -100 {
		t.Fatalf("special basic enemy should reverse, vel=%+v", e.Vel)
	}

	plain := NewEnemy(2, Vec2{X: 100, Y: 480}, EnemyParams{Type: EnemyBasic, Speed: 100, Health: 1}, 0)
	plain.Move(100*time.Millisecond, 32, 500)
	if plain.Vel.Y != 100 {
		t.Fatalf("non-special enemy reversed, vel=%+v", plain.Vel)
	}
}

func TestEnemyGone(t *testing.T) {
	b := Bounds{Width: 800, Height: 600}
	tests := []struct {
		name string
		pos  Vec2
		velY float64
		want bool
	}{
		{"just spawned above", Vec2{X: 50, Y: -16}, 100, false},
		{"on screen", Vec2{X: 50, Y: 300}, 100, false},
		{"below bottom", Vec2{X: 50, Y: 617}, 100, true},
		{"reversed out the top", Vec2{X: 50, Y: -17}, -100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Enemy{Pos: tt.pos, Vel: Vec2{Y: tt.velY}}
			if got := e.Gone(b, 32); got != tt.want {
				t.Errorf("Gone = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnemyTypeText(t *testing.T) {
	for _, typ := range []EnemyType{EnemyBasic, EnemyFast, EnemySpecial} {
		b, err := typ.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", typ, err)
		}
		var back EnemyType
		if err := back.UnmarshalText(b); err != nil || back != typ {
			t.Fatalf("round trip %v -> %q -> %v (%v)", typ, b, back, err)
		}
	}
	var bad EnemyType
	if err := bad.UnmarshalText([]byte("boss")); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestIDSources(t *testing.T) {
	auth := NewAuthorityIDs()
	if a, b := auth.Next(), auth.Next(); a != 1 || b != 2 {
		t.Fatalf("authority ids = %d,%d", a, b)
	}
	auth.Observe(10)
	if got := auth.Next(); got != 11 {
		t.Fatalf("after Observe(10) next = %d, want 11", got)
	}

	view := NewViewIDs()
	if a, b := view.Next(), view.Next(); a != -1 || b != -2 {
		t.Fatalf("view ids = %d,%d", a, b)
	}
	view.Observe(40)
	if got := view.Next(); got != -3 {
		t.Fatalf("view source should ignore positive ids, got %d", got)
	}
}

func TestBoundsOutside(t *testing.T) {
	b := Bounds{Width: 800, Height: 600}
	if b.Outside(CenteredRect(Vec2{X: 400, Y: 300}, 8, 8)) {
		t.Fatalf("center rect reported outside")
	}
	if !b.Outside(CenteredRect(Vec2{X: 400, Y: -10}, 8, 8)) {
		t.Fatalf("rect above the top reported inside")
	}
}
