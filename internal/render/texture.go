package render

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/tomz197/flappysavon/internal/draw"
)

// Texture is an obstacle image. It is rescaled to the pipe's on-screen width
// whenever the canvas scale changes, and tiled vertically. The rescaled copy
// is cached, so a Texture belongs to one renderer; use Clone to share the
// decoded image.
type Texture struct {
	src    image.Image
	scaled *image.RGBA
	cols   int
}

var errEmptyImage = errors.New("render: empty image")

// LoadTexture decodes a PNG or JPEG file.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture: %w", err)
	}
	return NewTexture(img)
}

// NewTexture wraps an already decoded image.
func NewTexture(img image.Image) (*Texture, error) {
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, errEmptyImage
	}
	return &Texture{src: img}, nil
}

// Clone returns a texture sharing the decoded image but not the scaled cache.
func (t *Texture) Clone() *Texture {
	return &Texture{src: t.src}
}

// prepare rescales the source so one image pixel covers one sub-pixel of a
// pipe that is cols sub-pixels wide.
func (t *Texture) prepare(cols int) {
	cols = max(cols, 1)
	if t.scaled != nil && t.cols == cols {
		return
	}
	b := t.src.Bounds()
	rows := max(1, cols*b.Dy()/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, cols, rows))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), t.src, b, xdraw.Src, nil)
	t.scaled = dst
	t.cols = cols
}

// paint anchors the scaled image at (x, y) with logical width w.
func (t *Texture) paint(x, y, w float64) draw.Paint {
	return texturePaint{tex: t, x: x, y: y, w: w}
}

type texturePaint struct {
	tex     *Texture
	x, y, w float64
}

// ColorAt implements draw.Paint.
func (p texturePaint) ColorAt(x, y float64) draw.Color {
	img := p.tex.scaled
	if img == nil || p.w <= 0 {
		return kraftTop
	}
	b := img.Bounds()
	unit := p.w / float64(b.Dx())
	px := int((x - p.x) / unit)
	py := int((y - p.y) / unit)
	px = min(max(px, 0), b.Dx()-1)
	py %= b.Dy()
	if py < 0 {
		py += b.Dy()
	}
	c := img.RGBAAt(px, py)
	return draw.RGB(c.R, c.G, c.B)
}
