package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomz197/skyraid/internal/game"
	"github.com/tomz197/skyraid/internal/object"
)

func TestEncodeUsesWireNames(t *testing.T) {
	b, err := Encode(MsgPlayerUpdate, PlayerUpdate{
		PlayerID: 2,
		Position: object.Vec2{X: 10, Y: 20},
		Velocity: object.Vec2{X: 1, Y: -1},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"player_update","payload":{"player_id":2,"position":{"x":10,"y":20},"velocity":{"x":1,"y":-1}}}`
	if string(b) != want {
		t.Fatalf("encoded\n  %s\nwant\n  %s", b, want)
	}
}

func TestJoinGameHasNoPayload(t *testing.T) {
	b, err := Encode(MsgJoinGame, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"type":"join_game"}` {
		t.Fatalf("join_game = %s", b)
	}
	env, err := DecodeEnvelope(b)
	if err != nil || env.Type != MsgJoinGame {
		t.Fatalf("decode join_game: %+v %v", env, err)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	shoot := PlayerShoot{PlayerID: 3, Position: object.Vec2{X: 5, Y: 6}, Missile: true}
	b, err := Encode(MsgPlayerShoot, shoot)
	if err != nil {
		t.Fatal(err)
	}
	env, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode[PlayerShoot](env)
	if err != nil {
		t.Fatal(err)
	}
	if got != shoot {
		t.Fatalf("got %+v, want %+v", got, shoot)
	}

	kill := EnemyDestroyed{EnemyID: 9, PlayerID: 1, Score: 150}
	b, _ = Encode(MsgEnemyDestroyed, kill)
	env, _ = DecodeEnvelope(b)
	if got, err := Decode[EnemyDestroyed](env); err != nil || got != kill {
		t.Fatalf("enemy_destroyed = %+v, %v", got, err)
	}

	joined := PlayerJoined{PlayerID: 4}
	b, _ = Encode(MsgPlayerJoined, joined)
	env, _ = DecodeEnvelope(b)
	if got, err := Decode[PlayerJoined](env); err != nil || got != joined {
		t.Fatalf("player_joined = %+v, %v", got, err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", ``, ErrMalformed},
		{"not json", `{"type":`, ErrMalformed},
		{"unknown type", `{"type":"chat","payload":{}}`, ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(tt.in))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	env := Envelope{Type: MsgPlayerUpdate}
	if _, err := Decode[PlayerUpdate](env); !errors.Is(err, ErrMalformed) {
		t.Fatalf("missing payload err = %v", err)
	}

	env.Payload = []byte(`{"player_id":"two"}`)
	if _, err := Decode[PlayerUpdate](env); !errors.Is(err, ErrMalformed) {
		t.Fatalf("wrong field type err = %v", err)
	}

	env.Payload = []byte(`{"player_id":0,"position":{"x":1,"y":2}}`)
	if _, err := Decode[PlayerUpdate](env); !errors.Is(err, ErrInvalid) {
		t.Fatalf("zero player id err = %v", err)
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	if _, err := New("teleport", nil); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v", err)
	}
}

func TestGameStateValidate(t *testing.T) {
	valid := GameState{
		Players: map[int]PlayerState{1: {Lives: 3}},
		Enemies: []EnemyState{{ID: 1, Health: 1}, {ID: 2, Health: 1}},
		Bullets: []BulletState{{ID: 1}},
		Status:  game.StatusPlaying,
		Level:   1,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*GameState)
	}{
		{"negative lives", func(g *GameState) { g.Players = map[int]PlayerState{1: {Lives: -1}} }},
		{"zero player id", func(g *GameState) { g.Players = map[int]PlayerState{0: {Lives: 1}} }},
		{"duplicate enemy", func(g *GameState) { g.Enemies = []EnemyState{{ID: 3}, {ID: 3}} }},
		{"negative bullet id", func(g *GameState) { g.Bullets = []BulletState{{ID: -4}} }},
		{"level zero", func(g *GameState) { g.Level = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := valid
			tt.mutate(&gs)
			if err := gs.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestFromStateRoundTrip(t *testing.T) {
	st := game.NewState()
	st.Status = game.StatusPlaying
	st.Score = 250
	st.HighScore = 900
	st.Level = 1
	p := object.NewPlayer(1, object.Vec2{X: 400, Y: 534}, 2)
	p.Score = 250
	st.AddPlayer(p)
	st.AddEnemy(object.NewEnemy(st.NextID(), object.Vec2{X: 50, Y: 60}, object.EnemyParams{Type: object.EnemySpecial, Speed: 120, Health: 3, ScoreValue: 300}, 0))
	st.AddProjectile(object.NewPlayerShot(st.NextID(), 1, object.Vec2{X: 10, Y: 20}, 600, 1, false))

	b, err := Encode(MsgGameState, FromState(st))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"game_status":"playing"`) || !strings.Contains(string(b), `"type":"special"`) {
		t.Fatalf("snapshot does not use wire names: %s", b)
	}

	env, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatal(err)
	}
	gs, err := Decode[GameState](env)
	if err != nil {
		t.Fatal(err)
	}
	if gs.Score != 250 || gs.HighScore != 900 || gs.Status != game.StatusPlaying {
		t.Fatalf("header = %+v", gs)
	}
	if got := gs.Players[1]; got.Lives != 2 || got.Score != 250 || got.Position != p.Pos {
		t.Fatalf("player = %+v", got)
	}
	e := gs.Enemies[0].Enemy()
	if e.ID != 1 || e.Type != object.EnemySpecial || !e.CanShoot || e.Health != 3 {
		t.Fatalf("enemy = %+v", e)
	}
	if pr := gs.Bullets[0].Projectile(); pr.ID != 2 || pr.OwnerID != 1 || pr.Faction != object.FactionPlayer {
		t.Fatalf("bullet = %+v", pr)
	}
}
