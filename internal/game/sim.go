package game

import (
	"math/rand"
	"time"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/object"
)

// TickEvents are the notable things that happened during one Step.
type TickEvents struct {
	Outcome
	Spawned      *object.Enemy
	EnemyShots   []*object.Projectile
	LevelChanged bool
}

// Simulation advances a State by fixed steps. The authority runs the full
// rule set; a view only moves entities and waits for the authority to
// correct it.
type Simulation struct {
	settings  config.Settings
	state     *State
	authority bool
	bounds    object.Bounds

	resolver   *Resolver
	scheduler  *Scheduler
	difficulty Difficulty
}

// NewSimulation creates an authoritative simulation over st.
func NewSimulation(s config.Settings, st *State, rng *rand.Rand) *Simulation {
	sim := newSimulation(s, st, true)
	sim.scheduler = NewScheduler(s, rng)
	sim.scheduler.Reset(st.Clock)
	return sim
}

// NewViewSimulation creates a simulation that only moves entities.
// Collisions, spawns and the level belong to the authority.
func NewViewSimulation(s config.Settings, st *State) *Simulation {
	return newSimulation(s, st, false)
}

func newSimulation(s config.Settings, st *State, authority bool) *Simulation {
	return &Simulation{
		settings:   s,
		state:      st,
		authority:  authority,
		bounds:     object.Bounds{Width: s.Game.Width, Height: s.Game.Height},
		resolver:   NewResolver(RulesFrom(s), s.Game.Width, s.Game.Height),
		difficulty: NewDifficulty(s.Spawn),
	}
}

// State returns the simulated state.
func (s *Simulation) State() *State {
	return s.state
}

// Authority reports whether this simulation owns the rules.
func (s *Simulation) Authority() bool {
	return s.authority
}

// Scheduler returns the spawn scheduler, nil on a view.
func (s *Simulation) Scheduler() *Scheduler {
	return s.scheduler
}

// SpawnPoint is where players enter and respawn.
func (s *Simulation) SpawnPoint() object.Vec2 {
	return object.Vec2{X: s.settings.Player.SpawnX, Y: s.settings.Player.SpawnY}
}

// Join adds a player at the spawn point with full lives.
func (s *Simulation) Join(id int) (*object.Player, error) {
	p := object.NewPlayer(id, s.SpawnPoint(), s.settings.Player.InitialLives)
	if err := s.state.AddPlayer(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Start moves a waiting game to playing.
func (s *Simulation) Start() {
	if s.state.Status == StatusWaiting {
		s.state.Status = StatusPlaying
	}
}

// SetPaused pauses or resumes a running game. Game over is left alone.
func (s *Simulation) SetPaused(paused bool) {
	switch {
	case paused && s.state.Status == StatusPlaying:
		s.state.Status = StatusPaused
	case !paused && s.state.Status == StatusPaused:
		s.state.Status = StatusPlaying
	}
}

// Reset starts a fresh game with the same players.
func (s *Simulation) Reset() {
	s.state.Reset(s.settings.Player.InitialLives, s.SpawnPoint())
	if s.scheduler != nil {
		s.scheduler.Reset(s.state.Clock)
	}
}

// Step advances the game by dt. Nothing moves unless the game is playing.
func (s *Simulation) Step(dt time.Duration) TickEvents {
	var ev TickEvents
	st := s.state
	if st.Status != StatusPlaying {
		return ev
	}
	st.Clock += dt

	for _, id := range st.PlayerIDs() {
		p := st.Players[id]
		// A view only learns invincibility from snapshots.
		if s.authority {
			p.ExpireInvincibility(st.Clock)
		}
		if p.Alive() {
			p.Move(dt, s.bounds)
		}
	}

	s.moveEnemies(dt, &ev)
	s.moveProjectiles(dt)

	if !s.authority {
		return ev
	}

	ev.Outcome = s.resolver.Resolve(st)
	if st.Status != StatusPlaying {
		return ev
	}
	ev.Spawned = s.scheduler.Tick(st)
	ev.LevelChanged = s.difficulty.Update(st, s.scheduler)
	return ev
}

func (s *Simulation) moveEnemies(dt time.Duration, ev *TickEvents) {
	st := s.state
	es := s.settings.Enemy
	reverseLine := s.bounds.Height - es.ReverseMargin

	n := 0
	for _, e := range st.Enemies {
		e.Move(dt, es.Size, reverseLine)
		if e.Gone(s.bounds, es.Size) {
			continue
		}
		if s.authority && e.ReadyToShoot(st.Clock, es.ShootDelay) {
			e.LastShotAt = st.Clock
			muzzle := object.Vec2{X: e.Pos.X, Y: e.Pos.Y + es.Size/2}
			shot := object.NewEnemyShot(st.NextID(), e.ID, muzzle, es.BulletSpeed, es.BulletDamage)
			if st.AddProjectile(shot) == nil {
				ev.EnemyShots = append(ev.EnemyShots, shot)
			}
		}
		st.Enemies[n] = e
		n++
	}
	clear(st.Enemies[n:])
	st.Enemies = st.Enemies[:n]
}

func (s *Simulation) moveProjectiles(dt time.Duration) {
	st := s.state
	size := s.settings.Player.BulletSize

	n := 0
	for _, p := range st.Projectiles {
		p.Move(dt)
		if s.bounds.Outside(p.Hitbox(size)) {
			continue
		}
		st.Projectiles[n] = p
		n++
	}
	clear(st.Projectiles[n:])
	st.Projectiles = st.Projectiles[:n]
}

// Fire shoots from playerID's nose if the weapon is ready, returning the
// new projectile or nil. Missiles need to be unlocked first.
func (s *Simulation) Fire(playerID int, missile bool) *object.Projectile {
	st := s.state
	if st.Status != StatusPlaying {
		return nil
	}
	p, ok := st.Player(playerID)
	if !ok || !p.Alive() {
		return nil
	}

	ps := s.settings.Player
	speed, damage := ps.BulletSpeed, ps.BulletDamage
	if missile {
		if !p.CanFireMissile(st.Clock, ps.MissileCooldown) {
			return nil
		}
		p.LastMissileAt = st.Clock
		speed, damage = ps.MissileSpeed, ps.MissileDamage
	} else {
		if !p.CanFire(st.Clock, ps.FireCooldown) {
			return nil
		}
		p.LastShotAt = st.Clock
	}

	return s.addShot(p.ID, s.Muzzle(p.Pos), missile, speed, damage)
}

// RemoteShot adds a shot another peer fired from pos. Bullet cooldowns are
// left to the shooter. On the authority a missile from a player without
// unlocked, ready missiles is fired as a bullet.
func (s *Simulation) RemoteShot(ownerID int, pos object.Vec2, missile bool) *object.Projectile {
	ps := s.settings.Player
	if missile && s.authority {
		p, ok := s.state.Player(ownerID)
		if ok && p.CanFireMissile(s.state.Clock, ps.MissileCooldown) {
			p.LastMissileAt = s.state.Clock
		} else {
			missile = false
		}
	}
	speed, damage := ps.BulletSpeed, ps.BulletDamage
	if missile {
		speed, damage = ps.MissileSpeed, ps.MissileDamage
	}
	return s.addShot(ownerID, pos, missile, speed, damage)
}

func (s *Simulation) addShot(owner int, pos object.Vec2, missile bool, speed float64, damage int) *object.Projectile {
	shot := object.NewPlayerShot(s.state.NextID(), owner, pos, speed, damage, missile)
	if err := s.state.AddProjectile(shot); err != nil {
		return nil
	}
	return shot
}

// Muzzle returns where a shot from a ship at pos starts.
func (s *Simulation) Muzzle(pos object.Vec2) object.Vec2 {
	return object.Vec2{X: pos.X, Y: pos.Y - s.settings.Player.Size/2}
}
