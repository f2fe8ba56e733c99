// Package input turns raw terminal bytes into game actions.
package input

import (
	"bufio"
	"bytes"
	"strconv"
)

// Click is a mouse press at a 1-based terminal position.
type Click struct {
	Col, Row int
}

// Input represents the actions seen since the previous frame.
// Flappy controls are taps, so every field is edge-triggered.
type Input struct {
	Flap        bool // space, up arrow, w
	Pause       bool // p
	Quit        bool // q, ctrl-c, or the stream closed
	Skin        bool // s
	Mute        bool // m
	Leaderboard bool // l
	Clicks      []Click
	Pressed     []byte
}

// Any reports whether the frame carried any action at all.
func (in Input) Any() bool {
	return in.Flap || in.Pause || in.Quit || in.Skin || in.Mute || in.Leaderboard || len(in.Clicks) > 0
}

// Stream delivers input bytes via a channel.
type Stream struct {
	ch      chan byte
	closed  bool
	pending []byte // incomplete escape sequence carried to the next frame
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 128)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ReadInput drains all available bytes from the stream (non-blocking).
func ReadInput(s *Stream) Input {
	buf := s.pending
	s.pending = nil

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

	in, rest := Parse(buf)
	if len(rest) > 0 && !s.closed {
		s.pending = append([]byte(nil), rest...)
	}
	if s.closed {
		in.Quit = true
	}
	return in
}

// Parse decodes buf. It returns the decoded input and any trailing bytes that
// form an incomplete escape sequence.
func Parse(buf []byte) (Input, []byte) {
	in := Input{Pressed: buf}
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if b != '\x1b' {
			applyByte(&in, b)
			continue
		}
		if i+1 >= len(buf) {
			// Lone ESC at the end of the read; the rest may still be in flight.
			return in, buf[i:]
		}
		if buf[i+1] != '[' {
			continue
		}
		if i+2 >= len(buf) {
			return in, buf[i:]
		}
		switch buf[i+2] {
		case 'A': // Up arrow
			in.Flap = true
			i += 2
		case 'B', 'C', 'D': // other arrows
			i += 2
		case '<': // SGR mouse: ESC [ < b ; x ; y (M|m)
			end := bytes.IndexAny(buf[i+3:], "Mm")
			if end < 0 {
				return in, buf[i:]
			}
			if click, ok := parseSGRMouse(buf[i+3:i+3+end], buf[i+3+end]); ok {
				in.Clicks = append(in.Clicks, click)
			}
			i += 3 + end
		default:
			i += 2
		}
	}
	return in, nil
}

// parseSGRMouse decodes the "b;x;y" body of an SGR mouse report. Only button
// presses count; releases, motion and wheel events are ignored.
func parseSGRMouse(body []byte, final byte) (Click, bool) {
	if final != 'M' {
		return Click{}, false
	}
	parts := bytes.Split(body, []byte{';'})
	if len(parts) != 3 {
		return Click{}, false
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(string(p))
		if err != nil {
			return Click{}, false
		}
		v[i] = n
	}
	button := v[0]
	if button&(32|64) != 0 || button&3 == 3 {
		return Click{}, false
	}
	return Click{Col: v[1], Row: v[2]}, true
}

func applyByte(in *Input, b byte) {
	switch b {
	case 'q', 'Q', 0x03: // ctrl-c
		in.Quit = true
	case ' ', 'w', 'W':
		in.Flap = true
	case 'p', 'P':
		in.Pause = true
	case 's', 'S':
		in.Skin = true
	case 'm', 'M':
		in.Mute = true
	case 'l', 'L':
		in.Leaderboard = true
	}
}
