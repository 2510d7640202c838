package main

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"github.com/sirupsen/logrus"

	"github.com/tomz197/skyraid/internal/config"
	"github.com/tomz197/skyraid/internal/draw"
	"github.com/tomz197/skyraid/internal/input"
	"github.com/tomz197/skyraid/internal/logger"
	"github.com/tomz197/skyraid/internal/loop"
	"github.com/tomz197/skyraid/internal/session"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"

	refreshEvery = 250 * time.Millisecond
)

func main() {
	log := logger.New(logger.Options{})

	settings, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}
	settings.Network.Role = config.RoleHost

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	log.WithFields(logrus.Fields{
		"ssh":      net.JoinHostPort(host, port),
		"host_key": hostKeyPath,
		"game":     settings.Network.Endpoint(),
	}).Info("configuration")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hostSession := session.NewHost(settings.Network, logger.Component(log, "host"))
	engine := loop.NewHost(settings, hostSession, loop.Hooks{
		OnPlayerJoined: func(id int) {
			log.WithField("player_id", id).Info("player joined")
		},
		OnGameOver: func(score, high int) {
			log.WithFields(logrus.Fields{"score": score, "high_score": high}).Info("game over")
		},
	}, logger.Component(log, "engine"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := engine.Run(ctx); err != nil {
			log.WithError(err).Error("game host stopped")
			stop()
		}
	}()

	console := &console{engine: engine, role: settings.Network.Role, log: logger.Component(log, "console")}
	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			console.middleware,
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(log),
		),
		// Status frames are small; send them without Nagle delay.
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		log.WithError(err).Fatal("create ssh server")
	}

	go func() {
		log.WithField("addr", net.JoinHostPort(host, port)).Info("ssh console listening")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.WithError(err).Error("ssh server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("ssh shutdown")
	}
	wg.Wait()
}

// console shows the host's game to SSH users. It is read-only; players
// join over the websocket endpoint.
type console struct {
	engine *loop.Engine
	role   config.Role
	log    *logrus.Entry
}

func (c *console) middleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			wish.Println(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}
		log := c.log.WithField("user", sess.User())
		log.WithFields(logrus.Fields{"term": pty.Term, "width": pty.Window.Width}).Info("console opened")

		frame := draw.NewFrame(sess, pty.Window.Width)
		resize := make(chan int, 1)
		go func() {
			for win := range winCh {
				select {
				case resize <- win.Width:
				default:
				}
			}
		}()

		keys := input.StartStream(bufio.NewReader(sess))
		draw.ClearScreen(sess)
		draw.HideCursor(sess)
		defer draw.ShowCursor(sess)

		ticker := time.NewTicker(refreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-sess.Context().Done():
				log.Info("console closed")
				next(sess)
				return
			case w := <-resize:
				frame.SetWidth(w)
				draw.ClearScreen(sess)
			case <-ticker.C:
				if keys.Read().Quit {
					log.Info("console closed")
					next(sess)
					return
				}
				draw.Status(frame, c.role, c.engine.Snapshot())
				frame.Linef("")
				frame.Linef("read-only view  quit q")
				if err := frame.Flush(); err != nil {
					log.WithError(err).Debug("write frame")
					return
				}
			}
		}
	}
}
