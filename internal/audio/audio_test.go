package audio

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestScoreAndHitRingFlapIsSilent(t *testing.T) {
	var buf bytes.Buffer
	clk := &clock{t: time.Unix(0, 0)}
	p := New(&buf, false, WithClock(clk.now))

	p.Flap()
	if buf.Len() != 0 {
		t.Fatalf("flap wrote %q", buf.String())
	}
	p.Score()
	clk.t = clk.t.Add(time.Second)
	p.Hit()
	if buf.String() != "\a\a" {
		t.Fatalf("output = %q, want two bells", buf.String())
	}
}

func TestBellsAreSpaced(t *testing.T) {
	var buf bytes.Buffer
	clk := &clock{t: time.Unix(0, 0)}
	p := New(&buf, false, WithClock(clk.now))

	p.Score()
	clk.t = clk.t.Add(minGap / 2)
	p.Score()
	if p.Rung() != 1 {
		t.Fatalf("rung = %d, want 1 inside the gap", p.Rung())
	}
	clk.t = clk.t.Add(minGap)
	p.Score()
	if p.Rung() != 2 {
		t.Fatalf("rung = %d, want 2 after the gap", p.Rung())
	}
}

func TestMute(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true)
	p.Hit()
	if buf.Len() != 0 {
		t.Fatal("muted player rang")
	}
	if p.ToggleMute() {
		t.Fatal("toggle should unmute")
	}
	p.Hit()
	if buf.Len() != 1 {
		t.Fatal("unmuted player stayed silent")
	}
}

func TestEnableFlapCue(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false, WithCue(CueFlap, true))
	p.Flap()
	if buf.Len() != 1 {
		t.Fatal("enabled flap cue did not ring")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriteErrorsAreSwallowed(t *testing.T) {
	p := New(failingWriter{}, false)
	p.Hit()
	if p.Rung() != 0 {
		t.Fatalf("rung = %d after a failed write", p.Rung())
	}
}
