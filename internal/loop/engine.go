// Package loop drives a game session: a fixed-tick loop that owns the game
// state, folds in network traffic and local input, and publishes snapshots.
package loop

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/game"
	"github.com/tomz197/skyraid/internal/object"
	"github.com/tomz197/skyraid/internal/protocol"
	"github.com/tomz197/skyraid/internal/reconcile"
	"github.com/tomz197/skyraid/internal/session"
)

const (
	inboxSize   = 256
	controlSize = 16
)

type control int

const (
	controlReset control = iota
	controlPause
	controlResume
)

// queued is a session event waiting for the tick goroutine: a message, or
// the loss of a connection when lost is set.
type queued struct {
	msg    session.Inbound
	lost   bool
	peerID int
	err    error
}

// Engine owns one peer's game. It is the only writer of its state: network
// goroutines queue messages, other goroutines set input or send controls,
// and everything is applied at the start of the next tick.
type Engine struct {
	settings config.Settings
	role     config.Role
	log      *logrus.Entry
	hooks    Hooks

	sess session.Session // nil when playing alone
	sim  *game.Simulation
	rec  *reconcile.Reconciler

	inbox    chan queued
	overflow chan queued // disconnects that found the inbox full
	controls chan control
	hostLost bool

	inputMu sync.Mutex
	input   Input

	snapshot atomic.Pointer[Snapshot]
	tick     uint64
}

// Compile-time check that Engine receives session events.
var _ session.Listener = (*Engine)(nil)

// NewLocal creates a single-player engine with the local player already in
// the game.
func NewLocal(s config.Settings, hooks Hooks, log *logrus.Entry) *Engine {
	e := newEngine(s, config.RoleSingle, nil, hooks, log)
	e.sim = game.NewSimulation(s, game.NewState(), newRand(s.Spawn.Seed))
	e.rec = reconcile.New(e.sim, 1)
	e.addLocalPlayer(1)
	e.sim.Start()
	e.publish()
	return e
}

// NewHost creates the authoritative engine behind a host session. With
// HostPlays the host's own player takes id 1 and the game starts at once;
// otherwise it starts when the first client joins.
func NewHost(s config.Settings, h *session.Host, hooks Hooks, log *logrus.Entry) *Engine {
	e := newEngine(s, config.RoleHost, h, hooks, log)
	e.sim = game.NewSimulation(s, game.NewState(), newRand(s.Spawn.Seed))
	e.rec = reconcile.New(e.sim, h.LocalPlayerID())
	if id := h.LocalPlayerID(); id != 0 {
		e.addLocalPlayer(id)
		e.sim.Start()
	}
	h.SetListener(e)
	e.publish()
	return e
}

// NewClient creates an engine that mirrors the host it connects to.
func NewClient(s config.Settings, c *session.Client, hooks Hooks, log *logrus.Entry) *Engine {
	e := newEngine(s, config.RoleClient, c, hooks, log)
	e.sim = game.NewViewSimulation(s, game.NewView())
	e.rec = reconcile.New(e.sim, 0)
	c.SetListener(e)
	e.publish()
	return e
}

func newEngine(s config.Settings, role config.Role, sess session.Session, hooks Hooks, log *logrus.Entry) *Engine {
	return &Engine{
		settings: s,
		role:     role,
		log:      log.WithField("role", role.String()),
		hooks:    hooks,
		sess:     sess,
		inbox:    make(chan queued, inboxSize),
		overflow: make(chan queued, controlSize),
		controls: make(chan control, controlSize),
	}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (e *Engine) addLocalPlayer(id int) {
	p, err := e.sim.Join(id)
	if err != nil {
		e.log.WithError(err).WithField("player_id", id).Warn("local player already present")
		p, _ = e.sim.State().Player(id)
	}
	p.Local = true
}

// Role reports how this engine takes part in the session.
func (e *Engine) Role() config.Role {
	return e.role
}

// Start connects the session, if any. A client that cannot reach its host
// reports through OnConnectionError and returns the error.
func (e *Engine) Start(ctx context.Context) error {
	if e.sess == nil {
		return nil
	}
	if err := e.sess.Start(ctx); err != nil {
		e.log.WithError(err).Error("session failed to start")
		e.hooks.connectionError(err)
		return err
	}
	return nil
}

// Run starts the session and ticks at the configured rate until ctx is
// cancelled, then stops the session.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	defer e.Stop()

	dt := e.settings.Game.TickTime()
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Tick(dt)
		}
	}
}

// Stop closes the session.
func (e *Engine) Stop() {
	if e.sess == nil {
		return
	}
	if err := e.sess.Stop(); err != nil {
		e.log.WithError(err).Warn("session stop")
	}
}

// Snapshot returns the state as of the last tick. Safe from any goroutine.
// Every caller until the next tick gets the same value; treat it as
// read-only.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// SetInput replaces the local player's input.
func (e *Engine) SetInput(in Input) {
	e.inputMu.Lock()
	e.input = in
	e.inputMu.Unlock()
}

func (e *Engine) currentInput() Input {
	e.inputMu.Lock()
	defer e.inputMu.Unlock()
	return e.input
}

// Reset asks the authority to start a new game on the next tick.
func (e *Engine) Reset() {
	e.sendControl(controlReset)
}

// SetPaused pauses or resumes the authority's game on the next tick.
func (e *Engine) SetPaused(paused bool) {
	if paused {
		e.sendControl(controlPause)
	} else {
		e.sendControl(controlResume)
	}
}

func (e *Engine) sendControl(c control) {
	select {
	case e.controls <- c:
	default:
		e.log.Warn("control queue full, dropping request")
	}
}

// OnMessage queues a peer message for the tick goroutine.
func (e *Engine) OnMessage(in session.Inbound) {
	select {
	case e.inbox <- queued{msg: in}:
	default:
		e.log.WithField("type", in.Env.Type).Debug("inbox full, dropping message")
	}
}

// OnDisconnected queues a connection loss behind the messages that came
// before it.
func (e *Engine) OnDisconnected(peerID int, err error) {
	q := queued{lost: true, peerID: peerID, err: err}
	select {
	case e.inbox <- q:
		return
	default:
	}
	select {
	case e.overflow <- q:
	default:
		e.log.WithError(err).WithField("peer", peerID).Warn("disconnect queue full")
	}
}

// Tick advances the game by dt: queued controls and messages first, then
// local input, the simulation step, outbound sync and the snapshot.
func (e *Engine) Tick(dt time.Duration) {
	e.tick++
	e.drainControls()
	e.drainInbox()
	e.applyInput()

	ev := e.sim.Step(dt)
	e.handleEvents(ev)

	e.sync()
	e.publish()
}

func (e *Engine) drainControls() {
	for {
		select {
		case c := <-e.controls:
			e.applyControl(c)
		default:
			return
		}
	}
}

func (e *Engine) applyControl(c control) {
	if !e.sim.Authority() {
		e.log.Debug("ignoring control on a client; the host owns the game")
		return
	}
	switch c {
	case controlReset:
		e.sim.Reset()
		e.log.Info("game reset")
	case controlPause:
		e.sim.SetPaused(true)
	case controlResume:
		e.sim.SetPaused(false)
	}
	e.broadcastState()
}

func (e *Engine) drainInbox() {
	for {
		select {
		case q := <-e.inbox:
			e.dispatch(q)
		default:
			for {
				select {
				case q := <-e.overflow:
					e.dispatch(q)
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) dispatch(q queued) {
	if q.lost {
		e.handleDisconnect(q.peerID, q.err)
		return
	}
	e.handleInbound(q.msg)
}

func (e *Engine) applyInput() {
	id := e.rec.LocalID()
	if id == 0 {
		return
	}
	p, ok := e.sim.State().Player(id)
	if !ok || !p.Alive() {
		return
	}
	in := e.currentInput()

	speed := e.settings.Player.Speed
	p.Vel = object.Vec2{X: clampUnit(in.Move.X) * speed, Y: clampUnit(in.Move.Y) * speed}

	if in.Fire {
		e.fire(id, false)
	}
	if in.Missile {
		e.fire(id, true)
	}
}

func (e *Engine) fire(id int, missile bool) {
	shot := e.sim.Fire(id, missile)
	if shot == nil || e.sess == nil {
		return
	}
	e.send(protocol.MsgPlayerShoot, protocol.PlayerShoot{
		PlayerID: id,
		Position: shot.Pos,
		Missile:  missile,
	})
}

func (e *Engine) handleEvents(ev game.TickEvents) {
	for _, d := range ev.Destroyed {
		e.hooks.enemyDestroyed(d)
		if e.role == config.RoleHost {
			e.send(protocol.MsgEnemyDestroyed, protocol.EnemyDestroyed{
				EnemyID:  d.EnemyID,
				PlayerID: d.PlayerID,
				Score:    d.Score,
			})
		}
	}
	for _, id := range ev.MissilesUnlocked {
		e.log.WithField("player_id", id).Info("missiles unlocked")
	}
	st := e.sim.State()
	if ev.LevelChanged {
		e.log.WithField("level", st.Level).Info("level up")
		e.hooks.levelChanged(st.Level)
	}
	if ev.GameOver {
		e.log.WithFields(logrus.Fields{"score": st.Score, "high_score": st.HighScore}).Info("game over")
		e.hooks.gameOver(st.Score, st.HighScore)
		e.broadcastState()
	}
}

// sync sends this tick's outbound traffic: the local player's movement
// every SyncEvery ticks and, on the host, a full snapshot every
// SnapshotEvery ticks.
func (e *Engine) sync() {
	if e.sess == nil {
		return
	}
	if id := e.rec.LocalID(); id != 0 && e.every(e.settings.Game.SyncEvery) {
		if p, ok := e.sim.State().Player(id); ok {
			e.send(protocol.MsgPlayerUpdate, protocol.PlayerUpdate{
				PlayerID: id,
				Position: p.Pos,
				Velocity: p.Vel,
			})
		}
	}
	if e.every(e.settings.Game.SnapshotEvery) {
		e.broadcastState()
	}
}

// broadcastState sends the full game state to every client. Only the host
// does this.
func (e *Engine) broadcastState() {
	if e.role != config.RoleHost || e.sess == nil {
		return
	}
	e.send(protocol.MsgGameState, protocol.FromState(e.sim.State()))
}

func (e *Engine) send(t string, payload any) {
	env, err := protocol.New(t, payload)
	if err != nil {
		e.log.WithError(err).WithField("type", t).Error("encode outbound message")
		return
	}
	e.sess.Send(env)
}

func (e *Engine) publish() {
	e.snapshot.Store(&Snapshot{
		State:   e.sim.State().Clone(),
		LocalID: e.rec.LocalID(),
		Tick:    e.tick,
	})
}

// every reports whether this tick falls on an n-tick boundary.
func (e *Engine) every(n int) bool {
	return e.tick%uint64(max(n, 1)) == 0
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
