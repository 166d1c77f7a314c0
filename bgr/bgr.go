// Package bgr implements an [image.Image] for 24-bit BGR pixels, the
// wire format used throughout the surround-view pipeline.
package bgr

import (
	"image"
	"image/color"
	"image/draw"
)

// Color is a single BGR24 pixel, stored in B, G, R order.
type Color [3]byte

// Image is an in-memory BGR24 image implementing [draw.Image] and
// [draw.RGBA64Image].
type Image struct {
	Pix    []Color
	Stride int
	Rect   image.Rectangle
}

// New returns a new Image with the given bounds.
func New(r image.Rectangle) *Image {
	return &Image{
		Pix:    make([]Color, r.Dx()*r.Dy()),
		Stride: r.Dx(),
		Rect:   r,
	}
}

func (p *Image) Bounds() image.Rectangle { return p.Rect }

func (p *Image) ColorModel() color.Model { return color.RGBAModel }

func (p *Image) PixOffset(x, y int) int {
	off := image.Pt(x, y).Sub(p.Rect.Min)
	return off.Y*p.Stride + off.X
}

func (p *Image) At(x, y int) color.Color {
	if !(image.Point{x, y}).In(p.Rect) {
		return color.RGBA{}
	}
	c := p.Pix[p.PixOffset(x, y)]
	return color.RGBA{R: c[2], G: c[1], B: c[0], A: 0xff}
}

func (p *Image) RGBA64At(x, y int) color.RGBA64 {
	if !(image.Point{x, y}).In(p.Rect) {
		return color.RGBA64{}
	}
	c := p.Pix[p.PixOffset(x, y)]
	r16 := uint16(c[2]) * 0x101
	g16 := uint16(c[1]) * 0x101
	b16 := uint16(c[0]) * 0x101
	return color.RGBA64{R: r16, G: g16, B: b16, A: 0xffff}
}

func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}).In(p.Rect) {
		return
	}
	r, g, b, _ := c.RGBA()
	p.Pix[p.PixOffset(x, y)] = Color{byte(b >> 8), byte(g >> 8), byte(r >> 8)}
}

func (p *Image) SetRGBA64(x, y int, c color.RGBA64) {
	if !(image.Point{x, y}).In(p.Rect) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = Color{byte(c.B >> 8), byte(c.G >> 8), byte(c.R >> 8)}
}

// SubImage returns an image sharing the backing array, restricted to r.
func (p *Image) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &Image{}
	}
	start := p.PixOffset(r.Min.X, r.Min.Y)
	end := p.PixOffset(r.Max.X-1, r.Max.Y-1) + 1
	return &Image{
		Pix:    p.Pix[start:end],
		Stride: p.Stride,
		Rect:   r,
	}
}

// Draw implements a fast path for uniform sources, falling back to
// [draw.Draw] otherwise.
func (p *Image) Draw(dr image.Rectangle, src image.Image, sp image.Point, op draw.Op) {
	dr = dr.Intersect(p.Rect)
	if u, ok := src.(*image.Uniform); ok && (u.Opaque() || op == draw.Src) {
		r, g, b, _ := u.C.RGBA()
		c := Color{byte(b >> 8), byte(g >> 8), byte(r >> 8)}
		for y := 0; y < dr.Dy(); y++ {
			for x := 0; x < dr.Dx(); x++ {
				p.Pix[p.PixOffset(dr.Min.X+x, dr.Min.Y+y)] = c
			}
		}
		return
	}
	draw.Draw(p, dr, src, sp, op)
}

// Clone returns a deep copy of p.
func (p *Image) Clone() *Image {
	cp := &Image{
		Pix:    make([]Color, len(p.Pix)),
		Stride: p.Stride,
		Rect:   p.Rect,
	}
	copy(cp.Pix, p.Pix)
	return cp
}

// Fill sets every pixel of p to c.
func (p *Image) Fill(c Color) {
	for i := range p.Pix {
		p.Pix[i] = c
	}
}

// At8 is a fast accessor bypassing the color.Color interface.
func (p *Image) At8(x, y int) Color {
	return p.Pix[p.PixOffset(x, y)]
}

// Set8 is a fast mutator bypassing the color.Color interface.
func (p *Image) Set8(x, y int, c Color) {
	p.Pix[p.PixOffset(x, y)] = c
}
