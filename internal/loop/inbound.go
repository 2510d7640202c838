package loop

import (
	"github.com/sirupsen/logrus"

	"github.com/tomz197/skyraid/internal/game"
	"github.com/tomz197/skyraid/internal/protocol"
	"github.com/tomz197/skyraid/internal/session"
)

func (e *Engine) handleInbound(in session.Inbound) {
	log := e.log.WithFields(logrus.Fields{"type": in.Env.Type, "peer": in.PeerID})
	if e.hostLost {
		log.Debug("ignoring message from a lost host")
		return
	}

	var err error
	switch in.Env.Type {
	case protocol.MsgJoinGame:
		e.peerJoined(in.PeerID)

	case protocol.MsgPlayerJoined:
		var m protocol.PlayerJoined
		if m, err = protocol.Decode[protocol.PlayerJoined](in.Env); err == nil {
			e.assignedID(m.PlayerID)
		}

	case protocol.MsgPlayerUpdate:
		var m protocol.PlayerUpdate
		if m, err = protocol.Decode[protocol.PlayerUpdate](in.Env); err == nil {
			if e.rec.PlayerUpdate(m) {
				e.hooks.remotePlayerUpdate(m)
			}
		}

	case protocol.MsgPlayerShoot:
		var m protocol.PlayerShoot
		if m, err = protocol.Decode[protocol.PlayerShoot](in.Env); err == nil {
			if e.rec.PlayerShoot(m) != nil {
				e.hooks.remoteShoot(m)
			}
		}

	case protocol.MsgEnemyDestroyed:
		if e.sim.Authority() {
			log.Debug("ignoring enemy_destroyed on the authority")
			return
		}
		var m protocol.EnemyDestroyed
		if m, err = protocol.Decode[protocol.EnemyDestroyed](in.Env); err == nil {
			if e.rec.EnemyDestroyed(m) {
				e.hooks.enemyDestroyed(game.EnemyDestroyed{EnemyID: m.EnemyID, PlayerID: m.PlayerID, Score: m.Score})
			}
		}

	case protocol.MsgGameState:
		if e.sim.Authority() {
			log.Debug("ignoring game_state on the authority")
			return
		}
		var m protocol.GameState
		if m, err = protocol.Decode[protocol.GameState](in.Env); err == nil {
			e.applySnapshot(m)
		}
	}

	if err != nil {
		log.WithError(err).Warn("dropping message")
	}
}

// peerJoined puts a newly joined client's player into the game and shows
// everyone the new roster.
func (e *Engine) peerJoined(id int) {
	if !e.sim.Authority() {
		return
	}
	if _, err := e.sim.Join(id); err != nil {
		e.log.WithError(err).WithField("player_id", id).Warn("join for existing player")
		return
	}
	e.sim.Start()
	e.log.WithField("player_id", id).Info("player entered the game")
	e.hooks.playerJoined(id)
	e.broadcastState()
}

// assignedID records the player id the host gave this client.
func (e *Engine) assignedID(id int) {
	e.rec.SetLocalID(id)
	st := e.sim.State()
	p, ok := st.Player(id)
	if !ok {
		var err error
		if p, err = e.sim.Join(id); err != nil {
			e.log.WithError(err).Warn("cannot add local player")
			return
		}
	}
	p.Local = true
	e.hooks.playerJoined(id)
}

func (e *Engine) applySnapshot(m protocol.GameState) {
	st := e.sim.State()
	prevStatus, prevLevel := st.Status, st.Level

	e.rec.Snapshot(m)

	if st.Level != prevLevel {
		e.hooks.levelChanged(st.Level)
	}
	if st.Status == game.StatusGameOver && prevStatus != game.StatusGameOver {
		e.hooks.gameOver(st.Score, st.HighScore)
	}
}

func (e *Engine) handleDisconnect(peerID int, err error) {
	e.hooks.disconnected(peerID, err)
	if e.sim.Authority() {
		// The player stays in the game; only the connection is gone.
		e.log.WithField("peer", peerID).Info("peer left, keeping its player")
		return
	}
	e.log.WithError(err).Warn("lost host, pausing")
	e.hostLost = true
	e.sim.SetPaused(true)
}
