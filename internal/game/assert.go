package game

import "fmt"

// assertf panics on a broken invariant in debug builds (-tags debug).
// Release builds fall through and the caller clamps or rejects instead.
func assertf(cond bool, format string, args ...any) {
	if debugAssertions && !cond {
		panic(fmt.Sprintf("game: invariant violated: "+format, args...))
	}
}
