package draw

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Color is a 24-bit RGB colour.
type Color struct {
	R, G, B uint8
}

// RGB builds a Color from components.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

var errBadHex = errors.New("draw: invalid hex colour")

// ParseHex parses "#rrggbb", "rrggbb" or "#rgb". An optional trailing alpha
// pair ("#rrggbbaa") is accepted and returned separately in [0,1].
func ParseHex(s string) (Color, float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6, 8:
	default:
		return Color{}, 0, errBadHex
	}
	v, err := strconv.ParseUint(s[:6], 16, 32)
	if err != nil {
		return Color{}, 0, errBadHex
	}
	c := Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
	alpha := 1.0
	if len(s) == 8 {
		a, err := strconv.ParseUint(s[6:], 16, 8)
		if err != nil {
			return Color{}, 0, errBadHex
		}
		alpha = float64(a) / 255
	}
	return c, alpha, nil
}

// Hex parses s and returns fallback when it is not a valid colour.
func Hex(s string, fallback Color) Color {
	c, _, err := ParseHex(s)
	if err != nil {
		return fallback
	}
	return c
}

// String formats the colour as "#rrggbb".
func (c Color) String() string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4]
		b[2+i*2] = digits[v&0x0f]
	}
	return string(b)
}

// Mix linearly interpolates from a to b; k is clamped to [0,1].
func Mix(a, b Color, k float64) Color {
	k = clamp01(k)
	return Color{
		R: lerp8(a.R, b.R, k),
		G: lerp8(a.G, b.G, k),
		B: lerp8(a.B, b.B, k),
	}
}

// HSL converts hue (degrees), saturation and lightness (0..1) to RGB.
func HSL(h, s, l float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s, l = clamp01(s), clamp01(l)
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return Color{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
	}
}

func lerp8(a, b uint8, k float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*k))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
