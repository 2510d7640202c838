// Package game holds the canonical game state and the deterministic
// simulation that advances it: collision and scoring, enemy spawning and
// the difficulty curve.
package game

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomz197/skyraid/internal/object"
)

// ErrDuplicateID is returned when an entity id is already present.
var ErrDuplicateID = errors.New("duplicate entity id")

// Status is the session-wide game phase.
type Status int

const (
	StatusWaiting Status = iota
	StatusPlaying
	StatusPaused
	StatusGameOver
)

var statusNames = map[Status]string{
	StatusWaiting:  "waiting",
	StatusPlaying:  "playing",
	StatusPaused:   "paused",
	StatusGameOver: "game_over",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for k, name := range statusNames {
		if name == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}

// State is a game snapshot: the canonical one on the authority, a
// reconciled view everywhere else.
type State struct {
	Players     map[int]*object.Player
	Enemies     []*object.Enemy      // Ascending id on the authority
	Projectiles []*object.Projectile // Ascending id on the authority
	Status      Status
	Score       int
	HighScore   int
	Level       int
	Clock       time.Duration // Simulation time

	ids *object.IDSource
}

// NewState creates an authoritative state.
func NewState() *State {
	return newState(object.NewAuthorityIDs())
}

// NewView creates a state that mirrors an authority. Entities it creates
// itself get negative ids.
func NewView() *State {
	return newState(object.NewViewIDs())
}

func newState(ids *object.IDSource) *State {
	return &State{
		Players: make(map[int]*object.Player),
		Status:  StatusWaiting,
		Level:   1,
		ids:     ids,
	}
}

// NextID returns a fresh enemy/projectile id.
func (s *State) NextID() int {
	return s.ids.Next()
}

// AddPlayer inserts a player, rejecting duplicate ids.
func (s *State) AddPlayer(p *object.Player) error {
	if _, ok := s.Players[p.ID]; ok {
		assertf(false, "player %d added twice", p.ID)
		return fmt.Errorf("player %d: %w", p.ID, ErrDuplicateID)
	}
	s.Players[p.ID] = p
	return nil
}

// Player looks up a player by id.
func (s *State) Player(id int) (*object.Player, bool) {
	p, ok := s.Players[id]
	return p, ok
}

// PlayerIDs returns player ids in ascending order.
func (s *State) PlayerIDs() []int {
	ids := make([]int, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// AddEnemy inserts an enemy, rejecting duplicate ids.
func (s *State) AddEnemy(e *object.Enemy) error {
	if existing, _ := s.Enemy(e.ID); existing != nil {
		assertf(false, "enemy %d added twice", e.ID)
		return fmt.Errorf("enemy %d: %w", e.ID, ErrDuplicateID)
	}
	s.ids.Observe(e.ID)
	s.Enemies = append(s.Enemies, e)
	return nil
}

// Enemy looks up an enemy and its index. It returns nil, -1 when absent.
func (s *State) Enemy(id int) (*object.Enemy, int) {
	for i, e := range s.Enemies {
		if e.ID == id {
			return e, i
		}
	}
	return nil, -1
}

// RemoveEnemy deletes an enemy and reports whether it was present.
func (s *State) RemoveEnemy(id int) bool {
	_, i := s.Enemy(id)
	if i < 0 {
		return false
	}
	s.Enemies = append(s.Enemies[:i], s.Enemies[i+1:]...)
	return true
}

// AddProjectile inserts a projectile, rejecting duplicate ids.
func (s *State) AddProjectile(p *object.Projectile) error {
	if existing, _ := s.Projectile(p.ID); existing != nil {
		assertf(false, "projectile %d added twice", p.ID)
		return fmt.Errorf("projectile %d: %w", p.ID, ErrDuplicateID)
	}
	s.ids.Observe(p.ID)
	s.Projectiles = append(s.Projectiles, p)
	return nil
}

// Projectile looks up a projectile and its index. It returns nil, -1 when
// absent.
func (s *State) Projectile(id int) (*object.Projectile, int) {
	for i, p := range s.Projectiles {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// EndGame moves the state to game over, recording the high score. Only the
// first call transitions; it reports whether this call did.
func (s *State) EndGame() bool {
	if s.Status == StatusGameOver {
		return false
	}
	s.Status = StatusGameOver
	if s.Score > s.HighScore {
		s.HighScore = s.Score
	}
	return true
}

// Reset starts a new game: entities cleared, every player respawned with
// full lives and no score, level back to 1. The high score and the clock
// carry over.
func (s *State) Reset(lives int, spawn object.Vec2) {
	s.Enemies = s.Enemies[:0]
	s.Projectiles = s.Projectiles[:0]
	for _, p := range s.Players {
		local := p.Local
		*p = *object.NewPlayer(p.ID, spawn, lives)
		p.Local = local
	}
	s.Score = 0
	s.Level = 1
	s.Status = StatusPlaying
}

// Clone returns a deep copy that shares nothing with s.
func (s *State) Clone() *State {
	cp := &State{
		Players:     make(map[int]*object.Player, len(s.Players)),
		Enemies:     make([]*object.Enemy, len(s.Enemies)),
		Projectiles: make([]*object.Projectile, len(s.Projectiles)),
		Status:      s.Status,
		Score:       s.Score,
		HighScore:   s.HighScore,
		Level:       s.Level,
		Clock:       s.Clock,
	}
	if s.ids != nil {
		ids := *s.ids
		cp.ids = &ids
	}
	for id, p := range s.Players {
		cp.Players[id] = p.Clone()
	}
	for i, e := range s.Enemies {
		cp.Enemies[i] = e.Clone()
	}
	for i, p := range s.Projectiles {
		cp.Projectiles[i] = p.Clone()
	}
	return cp
}
