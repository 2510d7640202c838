// Package physics provides collision detection and broad-phase utilities.
package physics

import "github.com/tomz197/skyraid/internal/object"

// RectsOverlap checks if two axis-aligned rectangles intersect.
// Touching edges do not count as overlap.
func RectsOverlap(a, b object.Rect) bool {
	return a.Left() < b.Right() && b.Left() < a.Right() &&
		a.Top() < b.Bottom() && b.Top() < a.Bottom()
}
