package input

import (
	"bufio"
	"strings"
	"testing"
	"time"
)

func TestParseKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Input
	}{
		{"space flaps", " ", Input{Flap: true}},
		{"w flaps", "w", Input{Flap: true}},
		{"up arrow flaps", "\x1b[A", Input{Flap: true}},
		{"down arrow ignored", "\x1b[B", Input{}},
		{"pause", "p", Input{Pause: true}},
		{"quit", "q", Input{Quit: true}},
		{"ctrl-c quits", "\x03", Input{Quit: true}},
		{"skin mute board", "sml", Input{Skin: true, Mute: true, Leaderboard: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest := Parse([]byte(tt.in))
			if len(rest) != 0 {
				t.Fatalf("rest = %q, want none", rest)
			}
			if got.Flap != tt.want.Flap || got.Pause != tt.want.Pause || got.Quit != tt.want.Quit ||
				got.Skin != tt.want.Skin || got.Mute != tt.want.Mute || got.Leaderboard != tt.want.Leaderboard {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMousePress(t *testing.T) {
	got, rest := Parse([]byte("\x1b[<0;12;7M\x1b[<0;12;7m"))
	if len(rest) != 0 {
		t.Fatalf("rest = %q", rest)
	}
	if len(got.Clicks) != 1 || got.Clicks[0] != (Click{Col: 12, Row: 7}) {
		t.Fatalf("clicks = %+v, want one press at (12,7)", got.Clicks)
	}
}

func TestParseIgnoresWheel(t *testing.T) {
	got, _ := Parse([]byte("\x1b[<64;3;3M"))
	if len(got.Clicks) != 0 {
		t.Fatalf("wheel produced clicks %+v", got.Clicks)
	}
}

func TestParseKeepsIncompleteSequence(t *testing.T) {
	got, rest := Parse([]byte(" \x1b[<0;1"))
	if !got.Flap {
		t.Fatal("space before the partial sequence should still flap")
	}
	if string(rest) != "\x1b[<0;1" {
		t.Fatalf("rest = %q", rest)
	}

	got, rest = Parse(append(rest, []byte(";2M")...))
	if len(rest) != 0 || len(got.Clicks) != 1 {
		t.Fatalf("completed sequence: clicks %+v rest %q", got.Clicks, rest)
	}
}

func TestReadInputQuitsWhenStreamCloses(t *testing.T) {
	s := StartStream(bufio.NewReader(strings.NewReader(" ")))

	deadline := time.Now().Add(time.Second)
	var flapped, quit bool
	for time.Now().Before(deadline) && !quit {
		in := ReadInput(s)
		flapped = flapped || in.Flap
		quit = in.Quit
		time.Sleep(5 * time.Millisecond)
	}
	if !flapped || !quit {
		t.Fatalf("flapped=%v quit=%v, want both", flapped, quit)
	}
}
