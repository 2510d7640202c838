package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Environment keys.
const (
	EnvRole           = "SKYRAID_ROLE"
	EnvAddress        = "SKYRAID_ADDR"
	EnvPort           = "SKYRAID_PORT"
	EnvPath           = "SKYRAID_PATH"
	EnvHostPlays      = "SKYRAID_HOST_PLAYS"
	EnvConnectTimeout = "SKYRAID_CONNECT_TIMEOUT"
	EnvTuningFile     = "SKYRAID_TUNING"
	EnvSeed           = "SKYRAID_SEED"
)

type statsConfig struct {
	Speed  *float64 `json:"speed"`
	Health *int     `json:"health"`
	Score  *int     `json:"score"`
}

type gameConfig struct {
	Width         *float64 `json:"width"`
	Height        *float64 `json:"height"`
	TickRate      *int     `json:"tickRate"`
	SnapshotEvery *int     `json:"snapshotEvery"`
	SyncEvery     *int     `json:"syncEvery"`
}

type playerConfig struct {
	Speed              *float64 `json:"speed"`
	Size               *float64 `json:"size"`
	InitialLives       *int     `json:"initialLives"`
	InvincibilityMs    *int64   `json:"invincibilityMs"`
	SpawnX             *float64 `json:"spawnX"`
	SpawnY             *float64 `json:"spawnY"`
	BulletSpeed        *float64 `json:"bulletSpeed"`
	BulletDamage       *int     `json:"bulletDamage"`
	FireCooldownMs     *int64   `json:"fireCooldownMs"`
	MissileUnlockScore *int     `json:"missileUnlockScore"`
	MissileDamage      *int     `json:"missileDamage"`
	MissileCooldownMs  *int64   `json:"missileCooldownMs"`
}

type enemyConfig struct {
	MaxEnemies    *int         `json:"maxEnemies"`
	Size          *float64     `json:"size"`
	Basic         *statsConfig `json:"basic"`
	Fast          *statsConfig `json:"fast"`
	Special       *statsConfig `json:"special"`
	SpecialChance *float64     `json:"specialChance"`
	BulletSpeed   *float64     `json:"bulletSpeed"`
	ShootDelayMs  *int64       `json:"shootDelayMs"`
}

type spawnConfig struct {
	BaseDelayMs    *int64   `json:"baseDelayMs"`
	MinDelayMs     *int64   `json:"minDelayMs"`
	DelayStepMs    *int64   `json:"delayStepMs"`
	LevelThreshold *int     `json:"levelThreshold"`
	LevelScale     *float64 `json:"levelScale"`
	BaseChance     *float64 `json:"baseChance"`
	ChanceStep     *float64 `json:"chanceStep"`
	MaxChance      *float64 `json:"maxChance"`
}

type tuningConfig struct {
	Game   *gameConfig   `json:"game"`
	Player *playerConfig `json:"player"`
	Enemy  *enemyConfig  `json:"enemy"`
	Spawn  *spawnConfig  `json:"spawn"`
}

// Load builds Settings from the defaults, an optional .env file, the process
// environment and an optional JSON tuning file named by SKYRAID_TUNING.
// A missing .env or tuning file is not an error.
func Load(envFiles ...string) (Settings, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("load env file: %w", err)
	}

	s := Default()

	role, err := ParseRole(GetEnv(EnvRole, s.Network.Role.String()))
	if err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", EnvRole, err)
	}
	s.Network.Role = role
	s.Network.Address = GetEnv(EnvAddress, s.Network.Address)
	s.Network.Port = GetEnvInt(EnvPort, s.Network.Port)
	s.Network.Path = GetEnv(EnvPath, s.Network.Path)
	s.Network.HostPlays = GetEnvBool(EnvHostPlays, s.Network.HostPlays)
	s.Network.ConnectTimeout = GetEnvDuration(EnvConnectTimeout, s.Network.ConnectTimeout)
	s.Spawn.Seed = int64(GetEnvInt(EnvSeed, 0))

	s, err = LoadTuningFile(GetEnv(EnvTuningFile, ""), s)
	if err != nil {
		return Settings{}, err
	}
	return s.Sanitize(), nil
}

// LoadTuningFile merges a JSON tuning file over base. An empty path or a
// missing file returns base unchanged.
func LoadTuningFile(path string, base Settings) (Settings, error) {
	if path == "" {
		return base, nil
	}
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, fmt.Errorf("read tuning file %q: %w", cleanPath, err)
	}
	var cfg tuningConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse tuning file %q: %w", cleanPath, err)
	}
	return mergeTuning(base, cfg).Sanitize(), nil
}

func mergeTuning(s Settings, cfg tuningConfig) Settings {
	if g := cfg.Game; g != nil {
		setFloat(&s.Game.Width, g.Width)
		setFloat(&s.Game.Height, g.Height)
		setInt(&s.Game.TickRate, g.TickRate)
		setInt(&s.Game.SnapshotEvery, g.SnapshotEvery)
		setInt(&s.Game.SyncEvery, g.SyncEvery)
	}
	if p := cfg.Player; p != nil {
		setFloat(&s.Player.Speed, p.Speed)
		setFloat(&s.Player.Size, p.Size)
		setInt(&s.Player.InitialLives, p.InitialLives)
		setMillis(&s.Player.InvincibilityDuration, p.InvincibilityMs)
		setFloat(&s.Player.SpawnX, p.SpawnX)
		setFloat(&s.Player.SpawnY, p.SpawnY)
		setFloat(&s.Player.BulletSpeed, p.BulletSpeed)
		setInt(&s.Player.BulletDamage, p.BulletDamage)
		setMillis(&s.Player.FireCooldown, p.FireCooldownMs)
		setInt(&s.Player.MissileUnlockScore, p.MissileUnlockScore)
		setInt(&s.Player.MissileDamage, p.MissileDamage)
		setMillis(&s.Player.MissileCooldown, p.MissileCooldownMs)
	}
	if e := cfg.Enemy; e != nil {
		setInt(&s.Enemy.MaxEnemies, e.MaxEnemies)
		setFloat(&s.Enemy.Size, e.Size)
		mergeStats(&s.Enemy.Basic, e.Basic)
		mergeStats(&s.Enemy.Fast, e.Fast)
		mergeStats(&s.Enemy.Special, e.Special)
		setFloat(&s.Enemy.SpecialChance, e.SpecialChance)
		setFloat(&s.Enemy.BulletSpeed, e.BulletSpeed)
		setMillis(&s.Enemy.ShootDelay, e.ShootDelayMs)
	}
	if sp := cfg.Spawn; sp != nil {
		setMillis(&s.Spawn.BaseDelay, sp.BaseDelayMs)
		setMillis(&s.Spawn.MinDelay, sp.MinDelayMs)
		setMillis(&s.Spawn.DelayStep, sp.DelayStepMs)
		setInt(&s.Spawn.LevelThreshold, sp.LevelThreshold)
		setFloat(&s.Spawn.LevelScale, sp.LevelScale)
		setFloat(&s.Spawn.BaseChance, sp.BaseChance)
		setFloat(&s.Spawn.ChanceStep, sp.ChanceStep)
		setFloat(&s.Spawn.MaxChance, sp.MaxChance)
	}
	return s
}

func mergeStats(dst *EnemyStats, cfg *statsConfig) {
	if cfg == nil {
		return
	}
	setFloat(&dst.Speed, cfg.Speed)
	setInt(&dst.Health, cfg.Health)
	setInt(&dst.Score, cfg.Score)
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setMillis(dst *time.Duration, v *int64) {
	if v != nil {
		*dst = time.Duration(*v) * time.Millisecond
	}
}
