package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Playfield and timing
const (
	ScreenWidth   = 800
	ScreenHeight  = 600
	TickRate      = 60 // Simulation ticks per second
	SnapshotEvery = 6  // Ticks between full game_state broadcasts (10 Hz)
	SyncEvery     = 2  // Ticks between local player_update sends (30 Hz)
)

// Player
const (
	InitialLives          = 3
	InvincibilityDuration = 2 * time.Second
	PlayerSpeed           = 300.0 // Units per second
	PlayerSize            = 32.0
	PlayerSpawnX          = 400.0
	PlayerSpawnY          = 534.0
	BulletSpeed           = 600.0
	BulletDamage          = 1
	BulletSize            = 8.0
	FireCooldown          = 200 * time.Millisecond
	MissileUnlockScore    = 2000
	MissileDamage         = 3
	MissileSpeed          = 450.0
	MissileCooldown       = 1500 * time.Millisecond
)

// Enemies
const (
	MaxEnemies         = 10
	EnemySize          = 32.0
	SpecialEnemyChance = 0.2
	EnemyBulletSpeed   = 300.0
	EnemyBulletDamage  = 1
	EnemyShootDelay    = 1500 * time.Millisecond
	ReverseMargin      = 100.0 // Distance above the bottom edge where reversing enemies turn
)

// Spawning and difficulty
const (
	SpawnBaseDelay  = 1000 * time.Millisecond
	SpawnMinDelay   = 500 * time.Millisecond
	SpawnDelayStep  = 100 * time.Millisecond
	LevelThreshold  = 1000
	LevelScale      = 0.2
	SpawnBaseChance = 0.3
	SpawnChanceStep = 0.1
	SpawnMaxChance  = 0.8
)

// Network
const (
	DefaultAddress        = "127.0.0.1"
	DefaultPort           = 5000
	DefaultPath           = "/ws"
	DefaultConnectTimeout = 5 * time.Second
	DefaultSendBuffer     = 256
)

// Role selects how a peer takes part in a session.
type Role int

const (
	RoleSingle Role = iota // Sole peer, no transport
	RoleHost               // Authority and relay
	RoleClient             // Participant reconciled from the host
)

func (r Role) String() string {
	switch r {
	case RoleSingle:
		return "single"
	case RoleHost:
		return "host"
	case RoleClient:
		return "client"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole accepts either the role name or its numeric selector.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "single", "":
		return RoleSingle, nil
	case "host":
		return RoleHost, nil
	case "client":
		return RoleClient, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < int(RoleSingle) || n > int(RoleClient) {
		return RoleSingle, fmt.Errorf("unknown role %q", s)
	}
	return Role(n), nil
}

// EnemyStats are the base (level 1) attributes of one enemy type.
type EnemyStats struct {
	Speed  float64
	Health int
	Score  int
}

// GameSettings describe the playfield and tick timing.
type GameSettings struct {
	Width         float64
	Height        float64
	TickRate      int
	SnapshotEvery int
	SyncEvery     int
}

// TickTime is the fixed duration of one simulation tick.
func (g GameSettings) TickTime() time.Duration {
	if g.TickRate <= 0 {
		return time.Second / TickRate
	}
	return time.Second / time.Duration(g.TickRate)
}

// PlayerSettings describe player ships and their weapons.
type PlayerSettings struct {
	Speed                 float64
	Size                  float64
	InitialLives          int
	InvincibilityDuration time.Duration
	SpawnX, SpawnY        float64
	BulletSpeed           float64
	BulletDamage          int
	BulletSize            float64
	FireCooldown          time.Duration
	MissileUnlockScore    int
	MissileDamage         int
	MissileSpeed          float64
	MissileCooldown       time.Duration
}

// EnemySettings describe the enemy roster.
type EnemySettings struct {
	MaxEnemies    int
	Size          float64
	Basic         EnemyStats
	Fast          EnemyStats
	Special       EnemyStats
	SpecialChance float64
	BulletSpeed   float64
	BulletDamage  int
	ShootDelay    time.Duration
	ReverseMargin float64
}

// SpawnSettings drive the spawn scheduler and the difficulty curve.
type SpawnSettings struct {
	BaseDelay      time.Duration
	MinDelay       time.Duration
	DelayStep      time.Duration
	LevelThreshold int
	LevelScale     float64
	BaseChance     float64
	ChanceStep     float64
	MaxChance      float64
	Seed           int64 // 0 picks a time-based seed
}

// NetworkSettings select the role and the endpoint.
type NetworkSettings struct {
	Role           Role
	Address        string
	Port           int
	Path           string
	ConnectTimeout time.Duration
	HostPlays      bool // Host runs its own player alongside remote ones
	SendBuffer     int
}

// Endpoint returns host:port.
func (n NetworkSettings) Endpoint() string {
	return fmt.Sprintf("%s:%d", n.Address, n.Port)
}

// URL returns the websocket URL clients dial.
func (n NetworkSettings) URL() string {
	return fmt.Sprintf("ws://%s%s", n.Endpoint(), n.Path)
}

// Settings is the immutable configuration a session is constructed with.
// It is passed by value; nothing mutates it after Load returns.
type Settings struct {
	Game    GameSettings
	Player  PlayerSettings
	Enemy   EnemySettings
	Spawn   SpawnSettings
	Network NetworkSettings
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Game: GameSettings{
			Width:         ScreenWidth,
			Height:        ScreenHeight,
			TickRate:      TickRate,
			SnapshotEvery: SnapshotEvery,
			SyncEvery:     SyncEvery,
		},
		Player: PlayerSettings{
			Speed:                 PlayerSpeed,
			Size:                  PlayerSize,
			InitialLives:          InitialLives,
			InvincibilityDuration: InvincibilityDuration,
			SpawnX:                PlayerSpawnX,
			SpawnY:                PlayerSpawnY,
			BulletSpeed:           BulletSpeed,
			BulletDamage:          BulletDamage,
			BulletSize:            BulletSize,
			FireCooldown:          FireCooldown,
			MissileUnlockScore:    MissileUnlockScore,
			MissileDamage:         MissileDamage,
			MissileSpeed:          MissileSpeed,
			MissileCooldown:       MissileCooldown,
		},
		Enemy: EnemySettings{
			MaxEnemies:    MaxEnemies,
			Size:          EnemySize,
			Basic:         EnemyStats{Speed: 180, Health: 1, Score: 100},
			Fast:          EnemyStats{Speed: 300, Health: 1, Score: 150},
			Special:       EnemyStats{Speed: 120, Health: 3, Score: 300},
			SpecialChance: SpecialEnemyChance,
			BulletSpeed:   EnemyBulletSpeed,
			BulletDamage:  EnemyBulletDamage,
			ShootDelay:    EnemyShootDelay,
			ReverseMargin: ReverseMargin,
		},
		Spawn: SpawnSettings{
			BaseDelay:      SpawnBaseDelay,
			MinDelay:       SpawnMinDelay,
			DelayStep:      SpawnDelayStep,
			LevelThreshold: LevelThreshold,
			LevelScale:     LevelScale,
			BaseChance:     SpawnBaseChance,
			ChanceStep:     SpawnChanceStep,
			MaxChance:      SpawnMaxChance,
		},
		Network: NetworkSettings{
			Role:           RoleSingle,
			Address:        DefaultAddress,
			Port:           DefaultPort,
			Path:           DefaultPath,
			ConnectTimeout: DefaultConnectTimeout,
			HostPlays:      true,
			SendBuffer:     DefaultSendBuffer,
		},
	}
}

// Sanitize clamps values that would break the simulation back into range.
func (s Settings) Sanitize() Settings {
	d := Default()
	if s.Game.Width <= 0 {
		s.Game.Width = d.Game.Width
	}
	if s.Game.Height <= 0 {
		s.Game.Height = d.Game.Height
	}
	if s.Game.TickRate <= 0 {
		s.Game.TickRate = d.Game.TickRate
	}
	if s.Game.SnapshotEvery <= 0 {
		s.Game.SnapshotEvery = 1
	}
	if s.Game.SyncEvery <= 0 {
		s.Game.SyncEvery = 1
	}
	if s.Player.InitialLives < 1 {
		s.Player.InitialLives = 1
	}
	if s.Player.InvincibilityDuration < 0 {
		s.Player.InvincibilityDuration = 0
	}
	if s.Enemy.MaxEnemies < 0 {
		s.Enemy.MaxEnemies = 0
	}
	if s.Spawn.LevelThreshold <= 0 {
		s.Spawn.LevelThreshold = d.Spawn.LevelThreshold
	}
	if s.Spawn.MinDelay < 0 {
		s.Spawn.MinDelay = 0
	}
	if s.Spawn.BaseDelay < s.Spawn.MinDelay {
		s.Spawn.BaseDelay = s.Spawn.MinDelay
	}
	if s.Spawn.DelayStep < 0 {
		s.Spawn.DelayStep = 0
	}
	s.Spawn.MaxChance = clamp01(s.Spawn.MaxChance)
	s.Spawn.BaseChance = clamp01(s.Spawn.BaseChance)
	s.Enemy.SpecialChance = clamp01(s.Enemy.SpecialChance)
	if s.Network.Path == "" {
		s.Network.Path = DefaultPath
	}
	if s.Network.SendBuffer <= 0 {
		s.Network.SendBuffer = DefaultSendBuffer
	}
	if s.Network.ConnectTimeout <= 0 {
		s.Network.ConnectTimeout = DefaultConnectTimeout
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
