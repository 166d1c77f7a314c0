// Package caricon renders the static car icon pasted into the
// composite canvas's center tile. The icon is a small vector outline
// (not a bitmap asset) rasterized on demand and cached by size, the
// same rasterx-driven approach the engraver uses for its vector plans.
package caricon

import (
	"image"
	"image/color"
	"sync"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"birdseye.dev/bgr"
)

// outline is the car silhouette in a normalized [0,1]x[0,1] unit
// square: a tapered hexagon body plus two axle bars, good enough to
// read as "a car" at the small sizes the car tile renders at.
var outline = [][2]float64{
	{0.10, 0.78}, {0.10, 0.45}, {0.22, 0.20}, {0.78, 0.20},
	{0.90, 0.45}, {0.90, 0.78}, {0.75, 0.78}, {0.75, 0.62},
	{0.25, 0.62}, {0.25, 0.78},
}

var bodyColor = color.NRGBA{R: 0x2a, G: 0x6f, B: 0xdb, A: 0xff}

var (
	mu    sync.Mutex
	cache = map[image.Point]*bgr.Image{}
)

// Render returns the car icon rasterized at w x h, reusing a
// previously rendered icon of the same size.
func Render(w, h int) *bgr.Image {
	key := image.Pt(w, h)

	mu.Lock()
	if cached, ok := cache[key]; ok {
		mu.Unlock()
		return cached.Clone()
	}
	mu.Unlock()

	img := bgr.New(image.Rect(0, 0, w, h))
	img.Fill(bgr.Color{0xf0, 0xf0, 0xf0})

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	filler := rasterx.NewFiller(w, h, scanner)
	filler.SetColor(bodyColor)

	for i, p := range outline {
		fp := toFixed(p, w, h)
		if i == 0 {
			filler.Start(fp)
		} else {
			filler.Line(fp)
		}
	}
	filler.Stop(true)
	filler.Draw()

	mu.Lock()
	cache[key] = img
	mu.Unlock()
	return img.Clone()
}

func toFixed(p [2]float64, w, h int) fixed.Point26_6 {
	return rasterx.ToFixedP(p[0]*float64(w), p[1]*float64(h))
}
