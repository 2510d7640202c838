package draw

import (
	"strings"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/game"
	"github.com/tomz197/skyraid/internal/loop"
	"github.com/tomz197/skyraid/internal/object"
)

// Status adds a summary of snap to f: the game header, one line per player
// and entity counts.
func Status(f *Frame, role config.Role, snap *loop.Snapshot) {
	st := snap.State
	f.Linef("skyraid  %-6s  %-9s  level %d  score %d  high %d",
		role, st.Status, st.Level, st.Score, st.HighScore)
	f.Linef("%s", strings.Repeat("-", 56))

	for _, id := range st.PlayerIDs() {
		p := st.Players[id]
		marker := " "
		if id == snap.LocalID {
			marker = "*"
		}
		f.Linef("%s P%-3d lives %-5s score %-7d pos %4.0f,%-4.0f %s",
			marker, id, hearts(p), p.Score, p.Pos.X, p.Pos.Y, flags(p))
	}
	if len(st.Players) == 0 {
		f.Linef("  waiting for players")
	}

	var special, hostile int
	for _, e := range st.Enemies {
		if e.IsSpecial {
			special++
		}
	}
	for _, p := range st.Projectiles {
		if p.Faction == object.FactionEnemy {
			hostile++
		}
	}
	f.Linef("")
	f.Linef("enemies %d (%d special)  shots %d (%d hostile)",
		len(st.Enemies), special, len(st.Projectiles), hostile)

	switch st.Status {
	case game.StatusGameOver:
		f.Linef("GAME OVER")
	case game.StatusPaused:
		f.Linef("paused")
	}
}

func hearts(p *object.Player) string {
	return strings.Repeat("♥", max(p.Lives, 0))
}

func flags(p *object.Player) string {
	var fs []string
	if !p.Alive() {
		fs = append(fs, "down")
	}
	if p.Invincible {
		fs = append(fs, "shield")
	}
	if p.MissileUnlocked {
		fs = append(fs, "missiles")
	}
	return strings.Join(fs, " ")
}
