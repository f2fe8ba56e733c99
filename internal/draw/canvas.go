package draw

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Canvas is an RGB drawing buffer with 2x vertical resolution using half-block
// characters. Game code draws in logical coordinates; the canvas fits the
// logical area into the terminal with a uniform scale and centres it
// (letterboxing), so shapes keep their proportions on any terminal size.
type Canvas struct {
	logicalWidth  float64
	logicalHeight float64
	scale         float64 // sub-pixels per logical unit, same on both axes

	width  int // pixel columns == terminal columns used
	rows   int // terminal rows used
	height int // rows * 2

	pixels []Color    // Flat slice: [y * width + x]
	text   []textCell // Flat slice: [row * width + col]
	alpha  float64    // global alpha applied to every fill

	// Offset for centering the render area inside the terminal.
	// These are 0-based terminal offsets (columns/rows to skip).
	offsetCol int
	offsetRow int

	// Last emitted frame, used to send only changed cells.
	prev      []cell
	prevValid bool

	// Reusable buffers to reduce allocations
	renderBuf       []byte
	scaledBuf       []Point
	intersectionBuf []float64
	polygonBuf      []Point
}

type textCell struct {
	ch  rune
	fg  Color
	set bool
}

type cell struct {
	top, bottom Color
	fg          Color
	ch          rune
}

// NewCanvas creates a canvas for the given logical size. Call Fit before drawing.
func NewCanvas(logicalWidth, logicalHeight float64) *Canvas {
	return &Canvas{
		logicalWidth:  logicalWidth,
		logicalHeight: logicalHeight,
		alpha:         1,
	}
}

// Fit sizes the canvas for a terminal of termWidth×termHeight cells: the
// largest uniform scale at which the whole logical area is visible, centred.
func (c *Canvas) Fit(termWidth, termHeight int) {
	scale := 0.0
	if termWidth > 0 && termHeight > 0 {
		scale = math.Min(float64(termWidth)/c.logicalWidth, float64(termHeight*2)/c.logicalHeight)
	}
	width := int(c.logicalWidth * scale)
	height := int(c.logicalHeight * scale)
	rows := (height + 1) / 2

	if width != c.width || rows != c.rows {
		c.width = width
		c.rows = rows
		c.height = rows * 2
		c.pixels = make([]Color, c.height*c.width)
		c.text = make([]textCell, c.rows*c.width)
		c.prev = make([]cell, c.rows*c.width)
		c.prevValid = false
	}
	c.scale = scale
	c.offsetCol = max(0, (termWidth-width)/2)
	c.offsetRow = max(0, (termHeight-rows)/2)
}

// SetOffset overrides the column and row offset used for centering.
// Offsets are 0-based terminal positions: the canvas starts at (offsetCol+1, offsetRow+1).
func (c *Canvas) SetOffset(col, row int) {
	c.offsetCol = col
	c.offsetRow = row
	c.prevValid = false
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int {
	return c.offsetCol
}

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int {
	return c.offsetRow
}

// ForceRedraw makes the next Render emit every cell.
func (c *Canvas) ForceRedraw() {
	c.prevValid = false
}

// Clear fills all pixels with bg, removes text and resets the global alpha.
func (c *Canvas) Clear(bg Color) {
	for i := range c.pixels {
		c.pixels[i] = bg
	}
	clear(c.text)
	c.alpha = 1
}

// SetAlpha sets the global alpha in [0,1] for subsequent fills.
func (c *Canvas) SetAlpha(a float64) {
	c.alpha = clamp01(a)
}

// Alpha returns the current global alpha.
func (c *Canvas) Alpha() float64 {
	return c.alpha
}

// blend mixes col into the pixel at actual sub-pixel coordinates (no scaling).
func (c *Canvas) blend(x, y int, col Color) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	i := y*c.width + x
	if c.alpha >= 1 {
		c.pixels[i] = col
		return
	}
	c.pixels[i] = Mix(c.pixels[i], col, c.alpha)
}

// toLogical returns the logical coordinate of a sub-pixel centre.
func (c *Canvas) toLogical(px int) float64 {
	return (float64(px) + 0.5) / c.scale
}

// span returns the sub-pixel range whose centres fall in [from, to) logical units.
func (c *Canvas) span(from, to float64, limit int) (int, int) {
	start := int(math.Ceil(from*c.scale - 0.5))
	end := int(math.Ceil(to*c.scale-0.5)) - 1
	return max(start, 0), min(end, limit-1)
}

// At returns the pixel colour at logical coordinates, for tests and sampling.
func (c *Canvas) At(x, y float64) Color {
	px := int(x * c.scale)
	py := int(y * c.scale)
	if px < 0 || px >= c.width || py < 0 || py >= c.height {
		return Color{}
	}
	return c.pixels[py*c.width+px]
}

// FillRect fills an axis-aligned rectangle in logical coordinates.
func (c *Canvas) FillRect(x, y, w, h float64, p Paint) {
	if c.scale == 0 || w <= 0 || h <= 0 {
		return
	}
	x0, x1 := c.span(x, x+w, c.width)
	y0, y1 := c.span(y, y+h, c.height)
	for py := y0; py <= y1; py++ {
		ly := c.toLogical(py)
		for px := x0; px <= x1; px++ {
			c.blend(px, py, p.ColorAt(c.toLogical(px), ly))
		}
	}
}

// FillCircle fills a disc of radius r centred on (cx, cy).
func (c *Canvas) FillCircle(cx, cy, r float64, p Paint) {
	if c.scale == 0 || r <= 0 {
		return
	}
	x0, x1 := c.span(cx-r, cx+r, c.width)
	y0, y1 := c.span(cy-r, cy+r, c.height)
	r2 := r * r
	for py := y0; py <= y1; py++ {
		ly := c.toLogical(py)
		dy := ly - cy
		for px := x0; px <= x1; px++ {
			lx := c.toLogical(px)
			dx := lx - cx
			if dx*dx+dy*dy <= r2 {
				c.blend(px, py, p.ColorAt(lx, ly))
			}
		}
	}
}

// FillRoundRect fills a rounded rectangle.
func (c *Canvas) FillRoundRect(x, y, w, h, r float64, p Paint) {
	c.polygonBuf = AppendRoundRect(c.polygonBuf[:0], x, y, w, h, r)
	c.FillPolygon(c.polygonBuf, p)
}

// FillRotatedRoundRect fills a w×h rounded rectangle centred on (cx, cy),
// rotated by angle radians. The paint is sampled in the shape's upright frame.
func (c *Canvas) FillRotatedRoundRect(cx, cy, w, h, r, angle float64, p Paint) {
	pts := AppendRoundRect(c.polygonBuf[:0], cx-w/2, cy-h/2, w, h, r)
	for i := range pts {
		pts[i] = RotateAround(pts[i], cx, cy, angle)
	}
	c.polygonBuf = pts
	if angle != 0 {
		p = Rotated{Paint: p, CX: cx, CY: cy, Angle: angle}
	}
	c.FillPolygon(pts, p)
}

// FillPolygon fills a polygon using the scanline algorithm.
// Works in pixel space for proper scaling.
func (c *Canvas) FillPolygon(points []Point, p Paint) {
	if len(points) < 3 || c.scale == 0 {
		return
	}

	// Reuse or grow scaled points buffer
	if cap(c.scaledBuf) < len(points) {
		c.scaledBuf = make([]Point, len(points))
	}
	scaled := c.scaledBuf[:len(points)]
	for i, pt := range points {
		scaled[i] = Point{X: pt.X * c.scale, Y: pt.Y * c.scale}
	}

	// Find bounding box in pixel space
	minY, maxY := scaled[0].Y, scaled[0].Y
	for _, pt := range scaled {
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}

	yStart := max(int(math.Floor(minY)), 0)
	yEnd := min(int(math.Ceil(maxY)), c.height-1)

	for y := yStart; y <= yEnd; y++ {
		scanY := float64(y) + 0.5
		intersections := c.intersectionBuf[:0]

		n := len(scaled)
		for i := 0; i < n; i++ {
			p1 := scaled[i]
			p2 := scaled[(i+1)%n]
			if (p1.Y <= scanY && p2.Y > scanY) || (p2.Y <= scanY && p1.Y > scanY) {
				t := (scanY - p1.Y) / (p2.Y - p1.Y)
				intersections = append(intersections, p1.X+t*(p2.X-p1.X))
			}
		}
		c.intersectionBuf = intersections

		sort.Float64s(intersections)

		ly := c.toLogical(y)
		for i := 0; i+1 < len(intersections); i += 2 {
			xStart := max(int(math.Ceil(intersections[i]-0.5)), 0)
			xEnd := min(int(math.Ceil(intersections[i+1]-0.5))-1, c.width-1)
			for x := xStart; x <= xEnd; x++ {
				c.blend(x, y, p.ColorAt(c.toLogical(x), ly))
			}
		}
	}
}

// StrokeLine draws a one-pixel line using Bresenham's algorithm.
// Coordinates are in logical space and get scaled to pixels.
func (c *Canvas) StrokeLine(p1, p2 Point, p Paint) {
	if c.scale == 0 {
		return
	}
	x1 := int(math.Floor(p1.X * c.scale))
	y1 := int(math.Floor(p1.Y * c.scale))
	x2 := int(math.Floor(p2.X * c.scale))
	y2 := int(math.Floor(p2.Y * c.scale))

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		c.blend(x1, y1, p.ColorAt(c.toLogical(x1), c.toLogical(y1)))

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// Text places s on the text layer. (x, y) is a logical anchor; the text row is
// the cell containing y, and align decides where x sits within the string.
// Characters outside the canvas are dropped.
func (c *Canvas) Text(x, y float64, s string, fg Color, align Align) {
	if c.scale == 0 || s == "" {
		return
	}
	row := int(y * c.scale / 2)
	if row < 0 || row >= c.rows {
		return
	}
	col := int(x * c.scale)
	n := utf8.RuneCountInString(s)
	switch align {
	case AlignCenter:
		col -= n / 2
	case AlignRight:
		col -= n
	}
	for _, r := range s {
		if col >= 0 && col < c.width {
			c.text[row*c.width+col] = textCell{ch: r, fg: fg, set: true}
		}
		col++
	}
}

// Cells returns how many terminal columns a logical width spans.
func (c *Canvas) Cells(w float64) int {
	return int(w * c.scale)
}

// TextRows returns the logical height of one text row.
func (c *Canvas) TextRows() float64 {
	if c.scale == 0 {
		return 0
	}
	return 2 / c.scale
}

// maxChunkSize is the maximum bytes to write at once for optimal network flow.
// 1500 bytes matches typical MTU size for smooth SSH/network transmission.
const maxChunkSize = 1400

// Render outputs the canvas to the writer. Cells are drawn as upper half
// blocks with the top pixel as foreground and the bottom pixel as background;
// text cells keep their glyph over the averaged pixel colour. Only cells that
// changed since the previous Render are sent.
func (c *Canvas) Render(w io.Writer) {
	buf := c.renderBuf[:0]
	var lastFg, lastBg Color
	colorsSet := false
	cursorRow, cursorCol := -1, -1

	for row := 0; row < c.rows; row++ {
		topOffset := row * 2 * c.width
		bottomOffset := topOffset + c.width
		for col := 0; col < c.width; col++ {
			cur := cell{
				top:    c.pixels[topOffset+col],
				bottom: c.pixels[bottomOffset+col],
				ch:     BlockUpperHalf,
			}
			if t := c.text[row*c.width+col]; t.set {
				cur.ch = t.ch
				cur.fg = t.fg
			}

			idx := row*c.width + col
			if c.prevValid && c.prev[idx] == cur {
				continue
			}
			c.prev[idx] = cur

			if row != cursorRow || col != cursorCol {
				buf = append(buf, "\033["...)
				buf = strconv.AppendInt(buf, int64(row+1+c.offsetRow), 10)
				buf = append(buf, ';')
				buf = strconv.AppendInt(buf, int64(col+1+c.offsetCol), 10)
				buf = append(buf, 'H')
			}

			fg, bg := cur.top, cur.bottom
			if cur.ch != BlockUpperHalf {
				fg, bg = cur.fg, Mix(cur.top, cur.bottom, 0.5)
			}
			if !colorsSet || fg != lastFg {
				buf = appendSGR(buf, 38, fg)
				lastFg = fg
			}
			if !colorsSet || bg != lastBg {
				buf = appendSGR(buf, 48, bg)
				lastBg = bg
			}
			colorsSet = true

			buf = utf8.AppendRune(buf, cur.ch)
			cursorRow, cursorCol = row, col+1
		}
	}
	c.prevValid = true

	if colorsSet {
		buf = append(buf, ColorReset...)
	}
	c.renderBuf = buf

	// Write output in chunks for optimal network flow
	for len(buf) > 0 {
		chunk := buf
		if len(chunk) > maxChunkSize {
			chunk = buf[:maxChunkSize]
		}
		w.Write(chunk)
		buf = buf[len(chunk):]
	}
}

// appendSGR appends a truecolor select-graphic-rendition sequence.
// layer is 38 for foreground or 48 for background.
func appendSGR(buf []byte, layer int, col Color) []byte {
	buf = append(buf, "\033["...)
	buf = strconv.AppendInt(buf, int64(layer), 10)
	buf = append(buf, ";2;"...)
	buf = strconv.AppendInt(buf, int64(col.R), 10)
	buf = append(buf, ';')
	buf = strconv.AppendInt(buf, int64(col.G), 10)
	buf = append(buf, ';')
	buf = strconv.AppendInt(buf, int64(col.B), 10)
	return append(buf, 'm')
}

// RenderBorder draws a box border around the canvas area when the terminal
// leaves room around it.
// Draws horizontal borders when there is vertical offset, vertical borders
// when there is horizontal offset, and corners when both are present.
func (c *Canvas) RenderBorder(w io.Writer) {
	hasH := c.offsetCol >= 1 // Room for left/right vertical bars
	hasV := c.offsetRow >= 1 // Room for top/bottom horizontal bars

	// Border positions (1-based terminal coordinates)
	left := c.offsetCol
	right := c.offsetCol + c.width + 1
	top := c.offsetRow
	bottom := c.offsetRow + c.rows + 1

	var buf strings.Builder
	buf.Grow((c.width+2)*2 + c.rows*2*12)

	if hasV {
		if hasH {
			fmt.Fprintf(&buf, "\033[%d;%dH┌%s┐", top, left, strings.Repeat("─", c.width))
			fmt.Fprintf(&buf, "\033[%d;%dH└%s┘", bottom, left, strings.Repeat("─", c.width))
		} else {
			fmt.Fprintf(&buf, "\033[%d;%dH%s", top, c.offsetCol+1, strings.Repeat("─", c.width))
			fmt.Fprintf(&buf, "\033[%d;%dH%s", bottom, c.offsetCol+1, strings.Repeat("─", c.width))
		}
	}

	if hasH {
		startRow := top + 1
		endRow := bottom
		if !hasV {
			// No horizontal borders, side bars span full canvas height
			startRow = c.offsetRow + 1
			endRow = c.offsetRow + c.rows + 1
		}
		for row := startRow; row < endRow; row++ {
			fmt.Fprintf(&buf, "\033[%d;%dH│\033[%d;%dH│", row, left, row, right)
		}
	}

	io.WriteString(w, buf.String())
}

// LogicalWidth returns the logical width.
func (c *Canvas) LogicalWidth() float64 {
	return c.logicalWidth
}

// LogicalHeight returns the logical height.
func (c *Canvas) LogicalHeight() float64 {
	return c.logicalHeight
}

// Width returns the number of terminal columns the canvas occupies.
func (c *Canvas) Width() int {
	return c.width
}

// Rows returns the number of terminal rows the canvas occupies.
func (c *Canvas) Rows() int {
	return c.rows
}

// Scale returns the sub-pixels per logical unit.
func (c *Canvas) Scale() float64 {
	return c.scale
}

// LogicalToTerminal converts logical coordinates to a 1-based terminal position (col, row).
func (c *Canvas) LogicalToTerminal(x, y float64) (col, row int) {
	return int(x*c.scale) + 1 + c.offsetCol, int(y*c.scale)/2 + 1 + c.offsetRow
}

// TerminalToLogical converts a 1-based terminal position to the logical
// coordinate at the centre of that cell. ok is false outside the canvas.
func (c *Canvas) TerminalToLogical(col, row int) (x, y float64, ok bool) {
	cc := col - 1 - c.offsetCol
	rr := row - 1 - c.offsetRow
	if c.scale == 0 || cc < 0 || cc >= c.width || rr < 0 || rr >= c.rows {
		return 0, 0, false
	}
	return (float64(cc) + 0.5) / c.scale, (float64(rr)*2 + 1) / c.scale, true
}
