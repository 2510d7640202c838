package session

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Websocket settings
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// conn is one websocket with its outbound queue. Writes only happen on the
// write pump; everything else enqueues.
type conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	log  *logrus.Entry

	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, buffer int, log *logrus.Entry) *conn {
	return &conn{
		ws:   ws,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
		log:  log,
	}
}

// enqueue queues b without blocking. A full queue drops the message.
func (c *conn) enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		c.log.Debug("send queue full, dropping message")
		return false
	}
}

// prepareRead applies the read limit and keeps the deadline alive on pongs.
func (c *conn) prepareRead() {
	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// writePump drains the send queue and pings until done is closed or a
// write fails.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.ws.Close(); err != nil {
			c.log.WithError(err).Debug("close after write pump")
		}
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.WithError(err).Debug("write failed")
				return
			}

		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}

		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := c.ws.WriteMessage(websocket.CloseMessage, msg); err != nil {
				c.log.WithError(err).Debug("write close message failed")
			}
			return
		}
	}
}

// shutdown signals the write pump to close the connection.
func (c *conn) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}
