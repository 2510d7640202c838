// Package draw writes text status screens to a terminal.
package draw

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// maxChunkSize keeps each write within one TCP segment, which keeps SSH
// sessions smooth.
const maxChunkSize = 1400

const (
	escHome       = "\033[H"
	escClearLine  = "\033[K"
	escClearBelow = "\033[J"
)

// Frame collects one screen of lines and writes it in place of the last.
type Frame struct {
	w     *bufio.Writer
	lines []string
	width int
}

// NewFrame creates a frame that writes to w, cutting lines to width
// columns. A width of 0 leaves lines whole.
func NewFrame(w io.Writer, width int) *Frame {
	return &Frame{w: bufio.NewWriterSize(w, 8192), width: width}
}

// SetWidth changes the column limit, e.g. after a resize.
func (f *Frame) SetWidth(width int) {
	f.width = width
}

// Linef adds a formatted line.
func (f *Frame) Linef(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if f.width > 0 {
		if r := []rune(line); len(r) > f.width {
			line = string(r[:f.width])
		}
	}
	f.lines = append(f.lines, line)
}

// Flush draws the collected lines from the top-left corner, clears
// whatever the previous frame left behind, and starts a new frame.
func (f *Frame) Flush() error {
	buf := make([]byte, 0, 2048)
	buf = append(buf, escHome...)
	for _, l := range f.lines {
		buf = append(buf, l...)
		buf = append(buf, escClearLine+"\r\n"...)
	}
	buf = append(buf, escClearBelow...)
	f.lines = f.lines[:0]

	for len(buf) > 0 {
		n := min(len(buf), maxChunkSize)
		if _, err := f.w.Write(buf[:n]); err != nil {
			return err
		}
		buf = buf[n:]
	}
	return f.w.Flush()
}

// ClearScreen clears the terminal and moves the cursor home.
func ClearScreen(w io.Writer) {
	fmt.Fprint(w, "\033[H\033[2J")
}

// HideCursor hides the terminal cursor.
func HideCursor(w io.Writer) {
	fmt.Fprint(w, "\033[?25l")
}

// ShowCursor shows the terminal cursor.
func ShowCursor(w io.Writer) {
	fmt.Fprint(w, "\033[?25h")
}

// StdoutWidth returns the column count of stdout, or 0 when it is not a
// terminal.
func StdoutWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}
