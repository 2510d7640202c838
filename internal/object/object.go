// Package object defines the simulation entities: players, enemies and
// projectiles, plus the small geometry types they share.
package object

import (
	"math"
	"time"
)

// Vec2 is a 2D vector used for positions and velocities.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale returns v * f.
func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{X: v.X * f, Y: v.Y * f}
}

// Len returns the vector magnitude.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Advance returns the position reached after moving with vel for dt.
func Advance(pos, vel Vec2, dt time.Duration) Vec2 {
	return pos.Add(vel.Scale(dt.Seconds()))
}

// Rect is an axis-aligned rectangle (top-left corner plus size).
type Rect struct {
	X, Y float64
	W, H float64
}

// CenteredRect returns a w*h rectangle centered on c.
func CenteredRect(c Vec2, w, h float64) Rect {
	return Rect{X: c.X - w/2, Y: c.Y - h/2, W: w, H: h}
}

// Left, Right, Top and Bottom return the rectangle edges.
func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Bounds is the playfield. Origin is top-left, Y grows downward.
type Bounds struct {
	Width  float64
	Height float64
}

// Clamp keeps a point inside the playfield.
func (b Bounds) Clamp(p Vec2) Vec2 {
	return Vec2{
		X: math.Max(0, math.Min(p.X, b.Width)),
		Y: math.Max(0, math.Min(p.Y, b.Height)),
	}
}

// Outside reports whether r lies entirely outside the playfield.
func (b Bounds) Outside(r Rect) bool {
	return r.Bottom() < 0 || r.Top() > b.Height || r.Right() < 0 || r.Left() > b.Width
}

// IDSource hands out entity ids. Authority sources count up from 1;
// view sources count down from -1 so locally created entities can never
// collide with ids minted by the authority.
type IDSource struct {
	next int
	step int
}

// NewAuthorityIDs returns a source of positive ids.
func NewAuthorityIDs() *IDSource {
	return &IDSource{next: 1, step: 1}
}

// NewViewIDs returns a source of negative ids.
func NewViewIDs() *IDSource {
	return &IDSource{next: -1, step: -1}
}

// Next returns a fresh id.
func (s *IDSource) Next() int {
	id := s.next
	s.next += s.step
	return id
}

// Observe advances the source past an id that was created elsewhere, so a
// restored or reconciled state never hands it out again.
func (s *IDSource) Observe(id int) {
	if s.step > 0 && id >= s.next {
		s.next = id + 1
	}
	if s.step < 0 && id <= s.next {
		s.next = id - 1
	}
}
