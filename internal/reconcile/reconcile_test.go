package reconcile

import (
	"testing"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/game"
	"github.com/tomz197/skyraid/internal/object"
	"github.com/tomz197/skyraid/internal/protocol"
)

// newView returns a playing view with local player 2 at (100, 500).
func newView(t *testing.T) (*Reconciler, *game.State) {
	t.Helper()
	st := game.NewView()
	st.Status = game.StatusPlaying
	sim := game.NewViewSimulation(config.Default(), st)
	local := object.NewPlayer(2, object.Vec2{X: 100, Y: 500}, 3)
	local.Local = true
	if err := st.AddPlayer(local); err != nil {
		t.Fatal(err)
	}
	return New(sim, 2), st
}

func TestPlayerUpdateCreatesRemoteOnce(t *testing.T) {
	r, st := newView(t)

	m := protocol.PlayerUpdate{PlayerID: 1, Position: object.Vec2{X: 10, Y: 20}, Velocity: object.Vec2{X: 3, Y: 4}}
	if !r.PlayerUpdate(m) {
		t.Fatalf("update for unknown player ignored")
	}
	p, ok := st.Player(1)
	if !ok {
		t.Fatalf("remote player not created")
	}
	if p.Pos != m.Position || p.Vel != m.Velocity {
		t.Fatalf("remote player = %+v", p)
	}
	if p.Lives != config.InitialLives || p.Score != 0 || p.Local {
		t.Fatalf("remote player defaults = %+v", p)
	}

	p.Score = 400
	p.Lives = 1
	m.Position = object.Vec2{X: 11, Y: 21}
	r.PlayerUpdate(m)
	if q, _ := st.Player(1); q != p {
		t.Fatalf("second update replaced the player")
	}
	if p.Pos.X != 11 || p.Score != 400 || p.Lives != 1 {
		t.Fatalf("update touched more than movement: %+v", p)
	}
	if len(st.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(st.Players))
	}
}

func TestPlayerUpdateIgnoresLocal(t *testing.T) {
	r, st := newView(t)

	if r.PlayerUpdate(protocol.PlayerUpdate{PlayerID: 2, Position: object.Vec2{X: 700, Y: 10}}) {
		t.Fatalf("local update applied")
	}
	if p, _ := st.Player(2); p.Pos != (object.Vec2{X: 100, Y: 500}) {
		t.Fatalf("local player moved to %+v", p.Pos)
	}
}

func TestPlayerShootOnlyFromKnownRemote(t *testing.T) {
	r, st := newView(t)

	if p := r.PlayerShoot(protocol.PlayerShoot{PlayerID: 5, Position: object.Vec2{X: 1, Y: 1}}); p != nil {
		t.Fatalf("shot from unknown player accepted")
	}
	if p := r.PlayerShoot(protocol.PlayerShoot{PlayerID: 2, Position: object.Vec2{X: 1, Y: 1}}); p != nil {
		t.Fatalf("echo of local shot accepted")
	}

	r.PlayerUpdate(protocol.PlayerUpdate{PlayerID: 1, Position: object.Vec2{X: 300, Y: 500}})
	p := r.PlayerShoot(protocol.PlayerShoot{PlayerID: 1, Position: object.Vec2{X: 300, Y: 484}, Missile: true})
	if p == nil {
		t.Fatalf("remote shot rejected")
	}
	if p.OwnerID != 1 || p.Faction != object.FactionPlayer || !p.Missile || p.ID >= 0 {
		t.Fatalf("remote shot = %+v", p)
	}
	if len(st.Projectiles) != 1 {
		t.Fatalf("projectiles = %d, want 1", len(st.Projectiles))
	}
}

func TestEnemyDestroyedCreditsOnce(t *testing.T) {
	r, st := newView(t)
	st.AddEnemy(object.NewEnemy(7, object.Vec2{X: 50, Y: 50}, object.EnemyParams{Health: 1, ScoreValue: 100}, 0))

	m := protocol.EnemyDestroyed{EnemyID: 7, PlayerID: 2, Score: 100}
	if !r.EnemyDestroyed(m) {
		t.Fatalf("kill not applied")
	}
	if r.EnemyDestroyed(m) {
		t.Fatalf("kill applied twice")
	}
	p, _ := st.Player(2)
	if p.Score != 100 || st.Score != 100 || len(st.Enemies) != 0 {
		t.Fatalf("player score=%d team=%d enemies=%d", p.Score, st.Score, len(st.Enemies))
	}
}

func TestSnapshotKeepsLocalMovement(t *testing.T) {
	r, st := newView(t)
	local, _ := st.Player(2)
	local.Vel = object.Vec2{X: 300}

	r.Snapshot(protocol.GameState{
		Players: map[int]protocol.PlayerState{
			1: {Position: object.Vec2{X: 10, Y: 20}, Lives: 3},
			2: {Position: object.Vec2{X: 400, Y: 534}, Score: 700, Lives: 1, Invincible: true},
		},
		Status: game.StatusPlaying,
		Score:  700,
		Level:  1,
	})

	if local.Pos != (object.Vec2{X: 100, Y: 500}) || local.Vel != (object.Vec2{X: 300}) {
		t.Fatalf("snapshot moved the local player: pos=%+v vel=%+v", local.Pos, local.Vel)
	}
	if local.Score != 700 || local.Lives != 1 || !local.Invincible {
		t.Fatalf("authoritative fields not applied: %+v", local)
	}
	remote, ok := st.Player(1)
	if !ok || remote.Pos != (object.Vec2{X: 10, Y: 20}) {
		t.Fatalf("remote player = %+v", remote)
	}
	if st.Score != 700 {
		t.Fatalf("team score = %d", st.Score)
	}
}

func TestSnapshotRemovesAbsentEntities(t *testing.T) {
	r, st := newView(t)
	r.PlayerUpdate(protocol.PlayerUpdate{PlayerID: 3})
	st.AddEnemy(object.NewEnemy(4, object.Vec2{}, object.EnemyParams{Health: 1}, 0))
	kept := object.NewEnemy(5, object.Vec2{X: 1, Y: 1}, object.EnemyParams{Health: 3}, 0)
	st.AddEnemy(kept)

	r.Snapshot(protocol.GameState{
		Players: map[int]protocol.PlayerState{2: {Lives: 3}},
		Enemies: []protocol.EnemyState{
			{ID: 5, Type: object.EnemySpecial, Position: object.Vec2{X: 9, Y: 9}, Health: 2},
			{ID: 6, Type: object.EnemyFast, Position: object.Vec2{X: 20, Y: 20}, Health: 1},
		},
		Status: game.StatusGameOver,
		Level:  2,
	})

	if _, ok := st.Player(3); ok {
		t.Fatalf("absent remote player kept")
	}
	if _, ok := st.Player(2); !ok {
		t.Fatalf("local player removed")
	}
	if len(st.Enemies) != 2 || st.Enemies[0] != kept || st.Enemies[1].ID != 6 {
		t.Fatalf("enemies after merge = %+v", st.Enemies)
	}
	if kept.Health != 2 || kept.Pos != (object.Vec2{X: 9, Y: 9}) {
		t.Fatalf("enemy not updated in place: %+v", kept)
	}
	if st.Status != game.StatusGameOver || st.Level != 2 {
		t.Fatalf("status=%v level=%d", st.Status, st.Level)
	}
}

func TestSnapshotKeepsLocalProjectiles(t *testing.T) {
	r, st := newView(t)
	mine := object.NewPlayerShot(st.NextID(), 2, object.Vec2{X: 100, Y: 480}, 600, 1, false)
	st.AddProjectile(mine)
	r.PlayerUpdate(protocol.PlayerUpdate{PlayerID: 1})
	r.PlayerShoot(protocol.PlayerShoot{PlayerID: 1, Position: object.Vec2{X: 5, Y: 5}})

	r.Snapshot(protocol.GameState{
		Players: map[int]protocol.PlayerState{1: {Lives: 3}, 2: {Lives: 3}},
		Bullets: []protocol.BulletState{
			{ID: 10, OwnerID: 2, Faction: object.FactionPlayer},
			{ID: 11, OwnerID: 1, Faction: object.FactionPlayer},
			{ID: 12, OwnerID: 5, Faction: object.FactionEnemy},
		},
		Status: game.StatusPlaying,
		Level:  1,
	})

	if len(st.Projectiles) != 3 {
		t.Fatalf("projectiles = %d, want 3", len(st.Projectiles))
	}
	if st.Projectiles[0] != mine {
		t.Fatalf("local projectile replaced")
	}
	for _, p := range st.Projectiles[1:] {
		if p.ID == 10 {
			t.Fatalf("host copy of a local shot duplicated it")
		}
		if p.ID < 0 {
			t.Fatalf("stale predicted remote shot %d kept", p.ID)
		}
	}
}
