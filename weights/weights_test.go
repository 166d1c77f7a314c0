package weights

import (
	"os"
	"path/filepath"
	"testing"
)

// syntheticTiles builds two overlapping rectangular signal regions: A
// covers columns [0, 0.6w), B covers columns [0.4w, w), both full
// height, producing a vertical-seam overlap band in the middle.
func syntheticTiles(w, h int) (*grayImage, *grayImage) {
	a := newGrayImage(w, h)
	b := newGrayImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w*6/10 {
				a.pix[y*w+x] = 255
			}
			if x >= w*4/10 {
				b.pix[y*w+x] = 255
			}
		}
	}
	return a, b
}

func TestWeightFieldBoundedAndHasBothExtremes(t *testing.T) {
	a, b := syntheticTiles(40, 20)
	g, m := buildQuadrant(a, b)

	hasOne, hasZero := false, false
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			v := g.at(x, y)
			if v < 0 || v > 1 {
				t.Fatalf("G(%d,%d) = %v out of [0,1]", x, y, v)
			}
			if v >= 0.999 {
				hasOne = true
			}
			if v <= 0.001 {
				hasZero = true
			}
		}
	}
	if !hasOne {
		t.Fatalf("no pixel with G=1 (pure A) found")
	}
	if !hasZero {
		t.Fatalf("no pixel with G=0 (pure B) found")
	}
	if m.W != g.W || m.H != g.H {
		t.Fatalf("mask shape %dx%d != weight field shape %dx%d", m.W, m.H, g.W, g.H)
	}
}

func TestOverlapMaskMatchesDilatedIntersection(t *testing.T) {
	a, b := syntheticTiles(40, 20)
	_, m := buildQuadrant(a, b)
	anyTrue := false
	for _, v := range m.M {
		if v {
			anyTrue = true
			break
		}
	}
	if !anyTrue {
		t.Fatalf("expected a nonempty overlap mask")
	}
}

func TestBuildProducesAllFourQuadrants(t *testing.T) {
	a, b := syntheticTiles(30, 15)
	var tiles Tiles
	for k := 0; k < 4; k++ {
		g, m := buildQuadrant(a, b)
		tiles.Weight[k] = g
		tiles.Mask[k] = m
	}
	for k := 0; k < 4; k++ {
		if tiles.Weight[k] == nil || tiles.Mask[k] == nil {
			t.Fatalf("quadrant %d missing weight or mask", k)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	a, b := syntheticTiles(20, 10)
	var tiles Tiles
	for k := 0; k < 4; k++ {
		g, m := buildQuadrant(a, b)
		tiles.Weight[k] = g
		tiles.Mask[k] = m
	}

	dir := t.TempDir()
	wp := filepath.Join(dir, "weights.png")
	mp := filepath.Join(dir, "masks.png")
	if err := tiles.Save(wp, mp); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(wp); err != nil {
		t.Fatal(err)
	}

	got, err := Load(wp, mp)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 4; k++ {
		orig := tiles.Weight[k]
		loaded := got.Weight[k]
		for i := range orig.G {
			diff := orig.G[i] - loaded.G[i]
			if diff < 0 {
				diff = -diff
			}
			if diff > 1.0/255 {
				t.Fatalf("quadrant %d weight[%d]: round-trip diff %v too large", k, i, diff)
			}
		}
		for i := range tiles.Mask[k].M {
			if tiles.Mask[k].M[i] != got.Mask[k].M[i] {
				t.Fatalf("quadrant %d mask[%d] round-trip mismatch", k, i)
			}
		}
	}
}

func TestApproxPolyDPSimplifiesSquare(t *testing.T) {
	// A 10x10 square boundary has many collinear points; simplification
	// at a generous tolerance should collapse it close to 4 corners.
	var boundary []point
	for x := 0; x < 10; x++ {
		boundary = append(boundary, point{x, 0})
	}
	for y := 0; y < 10; y++ {
		boundary = append(boundary, point{9, y})
	}
	for x := 9; x >= 0; x-- {
		boundary = append(boundary, point{x, 9})
	}
	for y := 9; y >= 0; y-- {
		boundary = append(boundary, point{0, y})
	}
	simplified := approxPolyDP(boundary, 1.0)
	if len(simplified) >= len(boundary) {
		t.Fatalf("approxPolyDP did not simplify: got %d points from %d", len(simplified), len(boundary))
	}
}

func TestSignedPolygonDistSignsCorrectly(t *testing.T) {
	square := []point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	inside := signedPolygonDist(point{5, 5}, square)
	outside := signedPolygonDist(point{-5, 5}, square)
	if inside <= 0 {
		t.Fatalf("signedPolygonDist inside = %v, want > 0", inside)
	}
	if outside >= 0 {
		t.Fatalf("signedPolygonDist outside = %v, want < 0", outside)
	}
}

func TestDegenerateMaskYieldsEmptyPolygon(t *testing.T) {
	m := newMask(10, 10)
	if poly := largestExternalContour(m); poly != nil {
		t.Fatalf("expected nil contour for empty mask, got %v", poly)
	}
}
