package draw

import (
	"bytes"
	"strings"
	"testing"
)

func TestFitLetterboxesUniformly(t *testing.T) {
	c := NewCanvas(420, 700)
	c.Fit(120, 35)

	// Height is the limiting axis: 70 sub-pixels for 700 logical units.
	if got := c.Scale(); got != 0.1 {
		t.Fatalf("scale = %v, want 0.1", got)
	}
	if c.Width() != 42 || c.Rows() != 35 {
		t.Fatalf("size = %dx%d, want 42x35", c.Width(), c.Rows())
	}
	if c.OffsetCol() != 39 || c.OffsetRow() != 0 {
		t.Fatalf("offset = (%d,%d), want (39,0)", c.OffsetCol(), c.OffsetRow())
	}
}

func TestTerminalToLogicalRoundTrip(t *testing.T) {
	c := NewCanvas(420, 700)
	c.Fit(120, 35)

	col, row := c.LogicalToTerminal(210, 350)
	x, y, ok := c.TerminalToLogical(col, row)
	if !ok {
		t.Fatal("centre of the canvas should map back inside it")
	}
	if x < 200 || x > 220 || y < 340 || y > 360 {
		t.Fatalf("round trip = (%v,%v), want near (210,350)", x, y)
	}

	if _, _, ok := c.TerminalToLogical(1, 1); ok {
		t.Fatal("column 1 lies in the left letterbox and should be outside")
	}
}

func TestFillRectSolidAndAlpha(t *testing.T) {
	c := NewCanvas(100, 100)
	c.Fit(100, 50)
	c.Clear(RGB(0, 0, 0))

	c.FillRect(10, 10, 20, 20, Solid(RGB(200, 100, 50)))
	if got := c.At(15, 15); got != RGB(200, 100, 50) {
		t.Fatalf("inside = %v", got)
	}
	if got := c.At(40, 40); got != RGB(0, 0, 0) {
		t.Fatalf("outside = %v", got)
	}

	c.SetAlpha(0.5)
	c.FillRect(50, 50, 10, 10, Solid(RGB(200, 200, 200)))
	if got := c.At(55, 55); got != RGB(100, 100, 100) {
		t.Fatalf("half alpha = %v, want #646464", got)
	}
}

func TestLinearGradientEndpoints(t *testing.T) {
	g := LinearGradient{X0: 0, Y0: 0, X1: 0, Y1: 100, From: RGB(0, 0, 0), To: RGB(200, 100, 0)}

	if got := g.ColorAt(0, 0); got != RGB(0, 0, 0) {
		t.Fatalf("start = %v", got)
	}
	if got := g.ColorAt(0, 100); got != RGB(200, 100, 0) {
		t.Fatalf("end = %v", got)
	}
	if got := g.ColorAt(0, 50); got != RGB(100, 50, 0) {
		t.Fatalf("middle = %v", got)
	}
	if got := g.ColorAt(0, 500); got != RGB(200, 100, 0) {
		t.Fatalf("beyond end = %v, want clamped", got)
	}
}

func TestMixEndpoints(t *testing.T) {
	a, b := RGB(10, 20, 30), RGB(110, 220, 130)
	if Mix(a, b, 0) != a || Mix(a, b, 1) != b {
		t.Fatal("mix endpoints should return the inputs")
	}
	if got := Mix(a, b, 0.5); got != RGB(60, 120, 80) {
		t.Fatalf("mix 0.5 = %v", got)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in    string
		want  Color
		alpha float64
		ok    bool
	}{
		{"#f5f0e8", RGB(0xf5, 0xf0, 0xe8), 1, true},
		{"fff", RGB(255, 255, 255), 1, true},
		{"#ffffff3a", RGB(255, 255, 255), float64(0x3a) / 255, true},
		{"#zzzzzz", Color{}, 0, false},
		{"", Color{}, 0, false},
	}
	for _, tt := range tests {
		got, alpha, err := ParseHex(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseHex(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want || alpha != tt.alpha {
			t.Errorf("ParseHex(%q) = %v,%v want %v,%v", tt.in, got, alpha, tt.want, tt.alpha)
		}
	}
	if got := RGB(0xcf, 0xe8, 0xc8).String(); got != "#cfe8c8" {
		t.Fatalf("String = %s", got)
	}
}

func TestRenderSendsOnlyChangedCells(t *testing.T) {
	c := NewCanvas(10, 10)
	c.Fit(10, 5)
	c.Clear(RGB(1, 2, 3))

	var first bytes.Buffer
	c.Render(&first)
	if n := strings.Count(first.String(), string(BlockUpperHalf)); n != 50 {
		t.Fatalf("first frame drew %d cells, want 50", n)
	}

	var second bytes.Buffer
	c.Render(&second)
	if second.Len() != 0 {
		t.Fatalf("unchanged frame wrote %q", second.String())
	}

	c.Text(5, 5, "A", RGB(255, 255, 255), AlignLeft)
	var third bytes.Buffer
	c.Render(&third)
	if !strings.Contains(third.String(), "A") || strings.Contains(third.String(), string(BlockUpperHalf)) {
		t.Fatalf("text frame = %q, want only the text cell", third.String())
	}

	c.ForceRedraw()
	var fourth bytes.Buffer
	c.Render(&fourth)
	if n := strings.Count(fourth.String(), string(BlockUpperHalf)); n != 49 {
		t.Fatalf("forced frame drew %d pixel cells, want 49", n)
	}
}

func TestFillRotatedRoundRectCoversCentre(t *testing.T) {
	c := NewCanvas(100, 100)
	c.Fit(100, 50)
	c.Clear(RGB(0, 0, 0))

	c.FillRotatedRoundRect(50, 50, 40, 20, 5, 0.5, Solid(RGB(9, 9, 9)))
	if got := c.At(50, 50); got != RGB(9, 9, 9) {
		t.Fatalf("centre = %v", got)
	}
	if got := c.At(5, 5); got != RGB(0, 0, 0) {
		t.Fatalf("corner = %v", got)
	}
}
