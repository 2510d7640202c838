package main

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/draw"
	"github.com/tomz197/skyraid/internal/input"
	"github.com/tomz197/skyraid/internal/logger"
	"github.com/tomz197/skyraid/internal/loop"
	"github.com/tomz197/skyraid/internal/session"
)

const redrawEvery = 100 * time.Millisecond

func main() {
	fd := int(os.Stdin.Fd())
	interactive := term.IsTerminal(fd)

	// The status screen owns stdout when a player is at the keyboard.
	opts := logger.Options{}
	if interactive {
		opts.Output = os.Stderr
	}
	log := logger.New(opts)

	settings, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := newEngine(settings, log)
	log.WithFields(logrus.Fields{
		"role":     settings.Network.Role,
		"endpoint": settings.Network.Endpoint(),
	}).Info("starting")

	if interactive {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			log.WithError(err).Fatal("enable raw mode")
		}
		defer func() {
			draw.ShowCursor(os.Stdout)
			_ = term.Restore(fd, oldState)
		}()
		draw.ClearScreen(os.Stdout)
		draw.HideCursor(os.Stdout)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go play(ctx, cancel, engine, settings)
		err = engine.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("game stopped")
		}
		return
	}

	if err := engine.Run(ctx); err != nil {
		log.WithError(err).Fatal("game stopped")
	}
	log.Info("shut down")
}

func newEngine(s config.Settings, log *logrus.Logger) *loop.Engine {
	hooks := loop.Hooks{
		OnGameOver: func(score, high int) {
			log.WithFields(logrus.Fields{"score": score, "high_score": high}).Info("game over")
		},
		OnConnectionError: func(err error) {
			log.WithError(err).Error("cannot reach host")
		},
		OnDisconnected: func(peer int, err error) {
			log.WithError(err).WithField("peer", peer).Warn("connection lost")
		},
	}

	switch s.Network.Role {
	case config.RoleHost:
		h := session.NewHost(s.Network, logger.Component(log, "host"))
		return loop.NewHost(s, h, hooks, logger.Component(log, "engine"))
	case config.RoleClient:
		c := session.NewClient(s.Network, logger.Component(log, "client"))
		return loop.NewClient(s, c, hooks, logger.Component(log, "engine"))
	default:
		return loop.NewLocal(s, hooks, logger.Component(log, "engine"))
	}
}

// play feeds keyboard input to the engine and redraws the status screen
// until the player quits or ctx ends.
func play(ctx context.Context, quit context.CancelFunc, e *loop.Engine, s config.Settings) {
	keys := input.StartStream(bufio.NewReader(os.Stdin))
	frame := draw.NewFrame(os.Stdout, draw.StdoutWidth())

	tick := time.NewTicker(s.Game.TickTime())
	defer tick.Stop()
	redraw := time.NewTicker(redrawEvery)
	defer redraw.Stop()

	paused := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			k := keys.Read()
			if k.Quit {
				quit()
				return
			}
			if k.Pause {
				paused = !paused
				e.SetPaused(paused)
			}
			if k.Reset {
				e.Reset()
			}
			e.SetInput(k.Intent())
		case <-redraw.C:
			draw.Status(frame, s.Network.Role, e.Snapshot())
			frame.Linef("")
			frame.Linef("move wasd/arrows  fire space  missile m  pause p  reset r  quit q")
			if err := frame.Flush(); err != nil {
				quit()
				return
			}
		}
	}
}
