package stitch

import (
	"image"
	"testing"

	"birdseye.dev/bgr"
	"birdseye.dev/geometry"
	"birdseye.dev/weights"
)

// flatFrame returns a frame of size r filled with a uniform color, the
// shape callers need to simulate an oriented camera output.
func flatFrame(r image.Rectangle, c bgr.Color) *bgr.Image {
	img := bgr.New(r)
	img.Fill(c)
	return img
}

// flatTiles builds a seam weight/mask document with every weight fixed
// at 0.5 and every mask pixel set, so blending two equal-brightness
// frames reproduces the input exactly regardless of geometry.
func flatTiles(layout geometry.Layout) *weights.Tiles {
	var t weights.Tiles
	for q := geometry.FL; q <= geometry.BR; q++ {
		r := layout.QuadrantRect(q)
		w, h := r.Dx(), r.Dy()
		g := make([]float64, w*h)
		m := make([]bool, w*h)
		for i := range g {
			g[i] = 0.5
			m[i] = true
		}
		t.Weight[q] = &weights.WeightField{W: w, H: h, G: g}
		t.Mask[q] = &weights.OverlapMask{W: w, H: h, M: m}
	}
	return &t
}

func uniformFrames(layout geometry.Layout, c bgr.Color) map[geometry.Camera]*bgr.Image {
	return map[geometry.Camera]*bgr.Image{
		geometry.Front: flatFrame(image.Rect(0, 0, layout.TotalW, layout.YT), c),
		geometry.Back:  flatFrame(image.Rect(0, 0, layout.TotalW, layout.YT), c),
		geometry.Left:  flatFrame(image.Rect(0, 0, layout.XL, layout.TotalH), c),
		geometry.Right: flatFrame(image.Rect(0, 0, layout.XL, layout.TotalH), c),
	}
}

func TestCompositeSizeMatchesCanvas(t *testing.T) {
	layout := geometry.Default
	tiles := flatTiles(layout)
	s := NewStitcher(nil, layout, tiles, nil, 1, true)

	frames := uniformFrames(layout, bgr.Color{128, 128, 128})
	canvas := s.StitchOne(frames)

	want := layout.CanvasSize()
	got := canvas.Bounds()
	if got.Dx() != want.X || got.Dy() != want.Y {
		t.Fatalf("composite size = %dx%d, want %dx%d", got.Dx(), got.Dy(), want.X, want.Y)
	}
}

func TestStaticGrayInputYieldsStableGrayOutput(t *testing.T) {
	layout := geometry.Default
	tiles := flatTiles(layout)
	s := NewStitcher(nil, layout, tiles, nil, 1, true)

	frames := uniformFrames(layout, bgr.Color{128, 128, 128})
	canvas := s.StitchOne(frames)

	car := layout.CarRect()
	b := canvas.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if (image.Point{x, y}).In(car) {
				continue
			}
			c := canvas.At8(x, y)
			for k := 0; k < 3; k++ {
				d := int(c[k]) - 128
				if d < -1 || d > 1 {
					t.Fatalf("pixel (%d,%d) channel %d = %d, want 128+-1", x, y, k, c[k])
				}
			}
		}
	}
}

func TestWhiteBalanceIsIdempotent(t *testing.T) {
	layout := geometry.Default
	canvas := bgr.New(image.Rect(0, 0, layout.TotalW, layout.TotalH))
	for y := 0; y < layout.TotalH; y++ {
		for x := 0; x < layout.TotalW; x++ {
			canvas.Set8(x, y, bgr.Color{byte((x + y) % 200), byte(x % 150), byte(y % 180)})
		}
	}
	WhiteBalance(canvas)
	once := canvas.Clone()
	WhiteBalance(canvas)
	for i := range once.Pix {
		a, b := once.Pix[i], canvas.Pix[i]
		for k := 0; k < 3; k++ {
			d := int(a[k]) - int(b[k])
			if d < -1 || d > 1 {
				t.Fatalf("white balance not idempotent at pixel %d channel %d: %v vs %v", i, k, a, b)
			}
		}
	}
}

func TestCarOverlayExactMatch(t *testing.T) {
	layout := geometry.Default
	canvas := bgr.New(image.Rect(0, 0, layout.TotalW, layout.TotalH))
	car := layout.CarRect()
	icon := flatFrame(image.Rect(0, 0, 50, 30), bgr.Color{10, 20, 30})

	CarOverlay(canvas, layout, icon)

	for y := car.Min.Y; y < car.Max.Y; y++ {
		for x := car.Min.X; x < car.Max.X; x++ {
			if canvas.At8(x, y) != (bgr.Color{10, 20, 30}) {
				t.Fatalf("car pixel (%d,%d) = %v, want icon color", x, y, canvas.At8(x, y))
			}
		}
	}
}

func TestSkipsSnapshotMissingACamera(t *testing.T) {
	layout := geometry.Default
	frames := uniformFrames(layout, bgr.Color{1, 2, 3})
	delete(frames, geometry.Right)
	if hasAllCameras(frames) {
		t.Fatalf("expected hasAllCameras to report false with a camera missing")
	}
}

func TestSeamIsMonotonicAcrossVerticalBoundary(t *testing.T) {
	layout := geometry.Default
	tiles := flatTiles(layout)

	// Ramp the FL-quadrant weight linearly across its width so the
	// blended red channel (A=255, B=0) must also vary monotonically.
	flField := tiles.Weight[geometry.FL]
	for y := 0; y < flField.H; y++ {
		for x := 0; x < flField.W; x++ {
			flField.G[y*flField.W+x] = float64(x) / float64(flField.W-1)
		}
	}

	// QuadrantCameras(FL) = (Front, Left); ramping G from 0 to 1 across
	// x blends from pure-left-color toward pure-front-color, so a red
	// channel of 255 on front and 0 on left must rise monotonically.
	frontFrame := flatFrame(image.Rect(0, 0, layout.TotalW, layout.YT), bgr.Color{0, 0, 255})
	leftFrame := flatFrame(image.Rect(0, 0, layout.XL, layout.TotalH), bgr.Color{0, 0, 0})
	backFrame := flatFrame(image.Rect(0, 0, layout.TotalW, layout.YT), bgr.Color{0, 0, 0})
	rightFrame := flatFrame(image.Rect(0, 0, layout.XL, layout.TotalH), bgr.Color{0, 0, 0})

	canvas := bgr.New(image.Rect(0, 0, layout.TotalW, layout.TotalH))
	Blend(canvas, layout, map[geometry.Camera]*bgr.Image{
		geometry.Front: frontFrame, geometry.Back: backFrame,
		geometry.Left: leftFrame, geometry.Right: rightFrame,
	}, tiles)

	r := layout.QuadrantRect(geometry.FL)
	prev := -1
	for x := r.Min.X; x < r.Max.X; x++ {
		v := int(canvas.At8(x, r.Min.Y)[2])
		if v < prev {
			t.Fatalf("red channel not monotonic across FL seam at x=%d: %d after %d", x, v, prev)
		}
		prev = v
	}
}
