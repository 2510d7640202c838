package input

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/tomz197/skyraid/internal/object"
)

func TestKeysAndArrows(t *testing.T) {
	const typed = "\x1b[Ad m"
	now := time.Now()
	s := StartStream(bufio.NewReader(strings.NewReader(typed)))
	s.now = func() time.Time { return now }

	// Wait for every byte so the escape sequence is not split across reads.
	deadline := time.Now().Add(time.Second)
	for len(s.ch) < len(typed) && !s.Closed() {
		if time.Now().After(deadline) {
			t.Fatal("stream did not deliver the input")
		}
		time.Sleep(time.Millisecond)
	}

	k := s.Read()
	if !k.Up || !k.Right || !k.Fire || !k.Missile {
		t.Fatalf("keys = %+v", k)
	}
	if k.Left || k.Down || k.Pause || k.Reset {
		t.Fatalf("unexpected keys in %+v", k)
	}

	for !s.Closed() {
		if time.Now().After(deadline) {
			t.Fatal("stream did not close")
		}
		time.Sleep(time.Millisecond)
		k = s.Read()
	}
	if !k.Quit {
		t.Fatal("end of input must read as quit")
	}
}

func TestHeldKeysExpire(t *testing.T) {
	now := time.Now()
	s := &Stream{ch: make(chan byte, 8), now: func() time.Time { return now }}

	s.ch <- 'a'
	s.ch <- 'p'
	if k := s.Read(); !k.Left || !k.Pause {
		t.Fatalf("first read = %+v", k)
	}

	now = now.Add(holdFor / 2)
	if k := s.Read(); !k.Left || k.Pause {
		t.Fatalf("held read = %+v, want left held and pause gone", k)
	}

	now = now.Add(holdFor)
	if k := s.Read(); k.Left {
		t.Fatal("left still held after the hold window")
	}
}

func TestIntent(t *testing.T) {
	tests := []struct {
		keys Keys
		move object.Vec2
	}{
		{Keys{}, object.Vec2{}},
		{Keys{Left: true}, object.Vec2{X: -1}},
		{Keys{Right: true, Up: true}, object.Vec2{X: 1, Y: -1}},
		{Keys{Left: true, Right: true, Down: true}, object.Vec2{Y: 1}},
	}
	for _, tt := range tests {
		if got := tt.keys.Intent().Move; got != tt.move {
			t.Errorf("%+v: move = %v, want %v", tt.keys, got, tt.move)
		}
	}
	in := Keys{Fire: true, Missile: true}.Intent()
	if !in.Fire || !in.Missile {
		t.Fatalf("fire flags lost: %+v", in)
	}
}
