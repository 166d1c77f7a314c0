package weights

import (
	"image"

	"birdseye.dev/bgr"
	"birdseye.dev/geometry"
)

// distThreshold is the default seam-softening distance in pixels; the
// design adopts the later, tuned source draft over the 1px variant.
const distThreshold = 5.0

// approxTolerance is the Douglas-Peucker tolerance fraction of a
// boundary's arc length used when approximating non-overlap polygons.
const approxTolerance = 0.009

// Tiles is the persisted weight/mask document: one weight field and one
// overlap mask per corner overlap quadrant.
type Tiles struct {
	Weight [4]*WeightField
	Mask   [4]*OverlapMask
}

// WeightField is a single-channel matrix G in [0, 1], sized to one
// overlap quadrant.
type WeightField struct {
	W, H int
	G    []float64
}

func (f *WeightField) at(x, y int) float64    { return f.G[y*f.W+x] }
func (f *WeightField) set(x, y int, v float64) { f.G[y*f.W+x] = v }

// OverlapMask is a binary {0, 1} single-channel matrix, same shape as
// its weight field.
type OverlapMask struct {
	W, H int
	M    []bool
}

// Build computes the seam weight fields and overlap masks for all four
// corner quadrants from one static four-camera sample, already in
// canvas orientation and shape.
func Build(layout geometry.Layout, frames map[geometry.Camera]*bgr.Image) *Tiles {
	var t Tiles
	for q := geometry.FL; q <= geometry.BR; q++ {
		camA, camB := layout.QuadrantCameras(q)
		tileA := extractTile(frames[camA], layout.Tile(camA, q))
		tileB := extractTile(frames[camB], layout.Tile(camB, q))
		g, m := buildQuadrant(tileA, tileB)
		t.Weight[q] = g
		t.Mask[q] = m
	}
	return &t
}

// extractTile crops img to r and converts it to a grayscale "has
// signal" mask input: any pixel with a nonzero channel counts as
// signal, matching a warpPerspective border of pure black (0,0,0)
// outside the valid projected area.
func extractTile(img *bgr.Image, r image.Rectangle) *grayImage {
	w, h := r.Dx(), r.Dy()
	g := newGrayImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At8(r.Min.X+x, r.Min.Y+y)
			if c[0] != 0 || c[1] != 0 || c[2] != 0 {
				g.pix[y*w+x] = 255
			}
		}
	}
	return g
}

// buildQuadrant implements the full §4.8.1 recipe for one overlap
// quadrant given its two contributing tiles.
func buildQuadrant(a, b *grayImage) (*WeightField, *OverlapMask) {
	maskA := nonzero(a)
	maskB := nonzero(b)
	overlap := and(a, b)
	overlap = dilate(overlap, 2)

	onlyA := sub(maskA, overlap)
	onlyB := sub(maskB, overlap)

	polyA := approxBoundary(onlyA)
	polyB := approxBoundary(onlyB)

	g := &WeightField{W: a.w, H: a.h, G: make([]float64, a.w*a.h)}
	for y := 0; y < a.h; y++ {
		for x := 0; x < a.w; x++ {
			init := 0.0
			if maskA.at(x, y) != 0 {
				init = 1
			}
			g.set(x, y, init)
		}
	}

	m := &OverlapMask{W: a.w, H: a.h, M: make([]bool, a.w*a.h)}
	for y := 0; y < a.h; y++ {
		for x := 0; x < a.w; x++ {
			if overlap.at(x, y) == 0 {
				continue
			}
			m.M[y*a.w+x] = true
			if polyA == nil || polyB == nil {
				// Degenerate capture: no contour to measure distance
				// against. Leave G at its initial A-mask value.
				continue
			}
			p := point{x, y}
			dA := signedPolygonDist(p, polyA)
			dB := signedPolygonDist(p, polyB)
			if dB < distThreshold {
				g.set(x, y, (dB*dB)/(dA*dA+dB*dB))
			}
		}
	}
	return g, m
}

// approxBoundary finds the largest external contour of m and simplifies
// it to a polygon with tolerance 0.009*arcLength. An empty or
// degenerate mask yields a nil polygon.
func approxBoundary(m *mask) []point {
	boundary := largestExternalContour(m)
	if len(boundary) < 3 {
		return nil
	}
	tol := approxTolerance * arcLength(boundary)
	return approxPolyDP(boundary, tol)
}
