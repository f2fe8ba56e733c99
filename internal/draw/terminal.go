package draw

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Terminal control sequences.
const (
	ColorReset  = "\033[0m"
	clearScreen = "\033[H\033[2J"
	cursorOff   = "\033[?25l"
	cursorOn    = "\033[?25h"
	// Press/release reporting with SGR extended coordinates.
	mouseOn  = "\033[?1000h\033[?1006h"
	mouseOff = "\033[?1000l\033[?1006l"
)

// ChunkWriter collects one frame of terminal output and writes it in
// network-sized chunks (e.g. over SSH). Canvas.Render, the status line and
// the audio bell all go through it, so a frame reaches the terminal at once.
type ChunkWriter struct {
	buf    strings.Builder
	bufw   *bufio.Writer
	numBuf [20]byte // scratch for allocation-free integer formatting
}

// NewChunkWriter returns a ChunkWriter flushing to w.
func NewChunkWriter(w io.Writer) *ChunkWriter {
	return &ChunkWriter{bufw: bufio.NewWriterSize(w, 8192)}
}

// Write implements io.Writer.
func (cw *ChunkWriter) Write(p []byte) (n int, err error) {
	return cw.buf.Write(p)
}

// WriteString appends s to the frame.
func (cw *ChunkWriter) WriteString(s string) {
	cw.buf.WriteString(s)
}

// moveCursor appends a cursor position sequence for 1-based terminal
// coordinates.
func (cw *ChunkWriter) moveCursor(col, row int) {
	cw.buf.WriteString("\033[")
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(row), 10))
	cw.buf.WriteByte(';')
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(col), 10))
	cw.buf.WriteByte('H')
}

// WriteStyled writes s at terminal cell (col, row) in fg on bg, then resets
// attributes.
func (cw *ChunkWriter) WriteStyled(col, row int, s string, fg, bg Color) {
	cw.moveCursor(col, row)
	cw.buf.Write(appendSGR(appendSGR(cw.numBuf[:0], 38, fg), 48, bg))
	cw.buf.WriteString(s)
	cw.buf.WriteString(ColorReset)
}

// Len reports the bytes waiting for Flush.
func (cw *ChunkWriter) Len() int { return cw.buf.Len() }

// Flush writes the pending frame in chunks of at most maxChunkSize bytes.
func (cw *ChunkWriter) Flush() error {
	data := cw.buf.String()
	cw.buf.Reset()
	for len(data) > 0 {
		n := min(len(data), maxChunkSize)
		if _, err := cw.bufw.WriteString(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return cw.bufw.Flush()
}

var _ io.Writer = (*ChunkWriter)(nil)

// TermSizeFunc returns the terminal dimensions in cells.
type TermSizeFunc func() (width, height int, err error)

// DefaultTermSizeFunc reads the size of os.Stdout.
var DefaultTermSizeFunc TermSizeFunc = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// TerminalSizeRawWith returns the terminal dimensions reported by sizeFunc.
func TerminalSizeRawWith(sizeFunc TermSizeFunc) (width, height int, err error) {
	return sizeFunc()
}

// EnterGame prepares the terminal for play: cursor hidden, mouse reported,
// screen cleared.
func EnterGame(w io.Writer) {
	io.WriteString(w, cursorOff+mouseOn+ColorReset+clearScreen)
}

// LeaveGame undoes EnterGame and leaves a clean screen behind.
func LeaveGame(w io.Writer) {
	io.WriteString(w, mouseOff+cursorOn+ColorReset+clearScreen)
}

// ClearScreen clears the terminal and moves the cursor home.
func ClearScreen(w io.Writer) {
	io.WriteString(w, ColorReset+clearScreen)
}
