// Package input turns raw terminal bytes into the local player's intent.
package input

import (
	"bufio"
	"time"

	"github.com/tomz197/skyraid/internal/loop"
	"github.com/tomz197/skyraid/internal/object"
)

// holdFor is how long a key counts as held after its last byte. Terminals
// only repeat, they never report releases.
const holdFor = 120 * time.Millisecond

type key int

const (
	keyLeft key = iota
	keyRight
	keyUp
	keyDown
	keyFire
	keyMissile
	keyPause
	keyReset
	keyQuit
	numKeys
)

// Keys is the set of keys held at one moment.
type Keys struct {
	Left, Right, Up, Down bool
	Fire, Missile         bool
	Pause, Reset, Quit    bool
}

// Intent converts held keys into engine input.
func (k Keys) Intent() loop.Input {
	var move object.Vec2
	if k.Left {
		move.X--
	}
	if k.Right {
		move.X++
	}
	if k.Up {
		move.Y--
	}
	if k.Down {
		move.Y++
	}
	return loop.Input{Move: move, Fire: k.Fire, Missile: k.Missile}
}

// Stream reads bytes from a terminal on its own goroutine and remembers
// when each key was last seen.
type Stream struct {
	ch     chan byte
	closed bool
	seen   [numKeys]time.Time
	now    func() time.Time
}

// StartStream starts reading r. The stream ends when r returns an error.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 128), now: time.Now}
	go func() {
		defer close(s.ch)
		for {
			b, err := r.ReadByte()
			if err != nil {
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// Closed reports whether the reader behind the stream has ended.
func (s *Stream) Closed() bool {
	return s.closed
}

// Read drains pending bytes without blocking and returns the held keys.
// Pause, Reset and Quit are edge-triggered: they are only set on the read
// that saw the byte.
func (s *Stream) Read() Keys {
	now := s.now()
	var buf []byte
drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	var edge [numKeys]bool
	for i := 0; i < len(buf); i++ {
		// Arrow keys arrive as ESC [ A..D.
		if buf[i] == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			if k, ok := arrows[buf[i+2]]; ok {
				s.seen[k] = now
				i += 2
				continue
			}
		}
		if k, ok := bindings[buf[i]]; ok {
			s.seen[k] = now
			edge[k] = true
		}
	}

	held := func(k key) bool { return now.Sub(s.seen[k]) < holdFor }
	return Keys{
		Left:    held(keyLeft),
		Right:   held(keyRight),
		Up:      held(keyUp),
		Down:    held(keyDown),
		Fire:    held(keyFire),
		Missile: held(keyMissile),
		Pause:   edge[keyPause],
		Reset:   edge[keyReset],
		Quit:    edge[keyQuit] || s.closed,
	}
}

var arrows = map[byte]key{
	'A': keyUp,
	'B': keyDown,
	'C': keyRight,
	'D': keyLeft,
}

var bindings = map[byte]key{
	'a': keyLeft, 'A': keyLeft, 'h': keyLeft,
	'd': keyRight, 'D': keyRight, 'l': keyRight,
	'w': keyUp, 'W': keyUp, 'k': keyUp,
	's': keyDown, 'S': keyDown, 'j': keyDown,
	' ': keyFire,
	'm': keyMissile, 'M': keyMissile,
	'p': keyPause, 'P': keyPause,
	'r': keyReset, 'R': keyReset,
	'q': keyQuit, 'Q': keyQuit, '\x03': keyQuit,
}
