package stitch

import (
	"image"

	"birdseye.dev/bgr"
	"birdseye.dev/geometry"
	"birdseye.dev/weights"
)

// Blend copies the four non-overlap edge strips directly into canvas,
// then alpha-blends the four overlap quadrants using their broadcast
// weight fields: canvas[k] = round(A_k*G_k + B_k*(1-G_k)).
func Blend(canvas *bgr.Image, layout geometry.Layout, frames map[geometry.Camera]*bgr.Image, tiles *weights.Tiles) {
	for _, c := range [4]geometry.Camera{geometry.Front, geometry.Back, geometry.Left, geometry.Right} {
		copyEdge(canvas, frames[c], layout.EdgeRect(c), layout.EdgeTile(c))
	}

	for q := geometry.FL; q <= geometry.BR; q++ {
		camA, camB := layout.QuadrantCameras(q)
		tileA := cropTile(frames[camA], layout, camA, q)
		tileB := cropTile(frames[camB], layout, camB, q)
		blendQuadrant(canvas, layout.QuadrantRect(q), tileA, tileB, tiles.Weight[q])
	}
}

// copyEdge copies frame's non-overlap strip (src, in frame's own
// oriented coordinates) straight into canvas at dst (canvas-absolute).
func copyEdge(canvas *bgr.Image, frame *bgr.Image, dst, src image.Rectangle) {
	w, h := dst.Dx(), dst.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			canvas.Set8(dst.Min.X+x, dst.Min.Y+y, frame.At8(src.Min.X+x, src.Min.Y+y))
		}
	}
}

func blendQuadrant(canvas *bgr.Image, dst image.Rectangle, a, b *bgr.Image, g *weights.WeightField) {
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			wA := g.G[y*g.W+x]
			wB := 1 - wA
			ca := a.At8(a.Bounds().Min.X+x, a.Bounds().Min.Y+y)
			cb := b.At8(b.Bounds().Min.X+x, b.Bounds().Min.Y+y)
			out := bgr.Color{
				clip(float64(ca[0])*wA + float64(cb[0])*wB),
				clip(float64(ca[1])*wA + float64(cb[1])*wB),
				clip(float64(ca[2])*wA + float64(cb[2])*wB),
			}
			canvas.Set8(dst.Min.X+x, dst.Min.Y+y, out)
		}
	}
}
