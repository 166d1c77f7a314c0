package camera

import (
	"errors"
	"image"
	"testing"

	"golang.org/x/image/math/f64"

	"birdseye.dev/bgr"
	"birdseye.dev/camparam"
	"birdseye.dev/geometry"
	"birdseye.dev/pipelineerr"
)

func sampleImage(w, h int) *bgr.Image {
	img := bgr.New(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set8(x, y, bgr.Color{byte(x * 7 % 256), byte(y * 13 % 256), byte((x + y) % 256)})
		}
	}
	return img
}

func imagesEqual(a, b *bgr.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.At8(x, y) != b.At8(x, y) {
				return false
			}
		}
	}
	return true
}

func TestFlipFrontIsIdentity(t *testing.T) {
	m := &Model{name: geometry.Front}
	img := sampleImage(4, 3)
	if got := m.Flip(img); !imagesEqual(got, img) {
		t.Fatalf("front flip is not identity")
	}
}

func TestFlipBackInvolution(t *testing.T) {
	m := &Model{name: geometry.Back}
	img := sampleImage(5, 4)
	twice := m.Flip(m.Flip(img))
	if !imagesEqual(twice, img) {
		t.Fatalf("flip_back(flip_back(img)) != img")
	}
}

func TestFlipLeftRightInvolution(t *testing.T) {
	left := &Model{name: geometry.Left}
	right := &Model{name: geometry.Right}
	img := sampleImage(6, 4)
	out := left.Flip(right.Flip(left.Flip(right.Flip(img))))
	if !imagesEqual(out, img) {
		t.Fatalf("flip_left(flip_right(flip_left(flip_right(img)))) != img")
	}
}

func TestProjectWithoutMatrixIsNotCalibrated(t *testing.T) {
	p := &camparam.Params{Resolution: camparam.Resolution{W: 4, H: 4}}
	m := &Model{name: geometry.Front, params: p, layout: geometry.Default}
	_, err := m.Project(sampleImage(4, 4))
	if !errors.Is(err, pipelineerr.NotCalibrated) {
		t.Fatalf("err = %v, want NotCalibrated", err)
	}
}

func TestSolveHomographyRecoversKnownMapping(t *testing.T) {
	src := [4]image.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	// A pure translation is an easy, exactly-representable homography.
	dst := [4]image.Point{{5, 5}, {15, 5}, {15, 15}, {5, 15}}

	m, ok := SolveHomography(src, dst)
	if !ok {
		t.Fatalf("SolveHomography reported singular for a well-conditioned input")
	}
	for i, p := range src {
		px, py, ok := applyHomogeneous(m, float64(p.X), float64(p.Y))
		if !ok {
			t.Fatalf("applyHomogeneous failed for point %d", i)
		}
		want := dst[i]
		if d := px - float64(want.X); d < -1e-6 || d > 1e-6 {
			t.Fatalf("point %d: x = %v, want %v", i, px, want.X)
		}
		if d := py - float64(want.Y); d < -1e-6 || d > 1e-6 {
			t.Fatalf("point %d: y = %v, want %v", i, py, want.Y)
		}
	}
}

func TestSolveHomographyDegenerateInputFails(t *testing.T) {
	src := [4]image.Point{{0, 0}, {0, 0}, {0, 0}, {0, 0}}
	dst := [4]image.Point{{5, 5}, {15, 5}, {15, 15}, {5, 15}}
	if _, ok := SolveHomography(src, dst); ok {
		t.Fatalf("expected SolveHomography to fail on degenerate input")
	}
}

func TestProjectIdentityMatrixPreservesShape(t *testing.T) {
	layout := geometry.Default
	shape := layout.ProjectedShape(geometry.Front)
	identity := f64.Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
	p := &camparam.Params{
		Resolution:    camparam.Resolution{W: shape.X, H: shape.Y},
		ProjectMatrix: &identity,
	}
	m := &Model{name: geometry.Front, params: p, layout: layout}
	src := sampleImage(shape.X, shape.Y)
	got, err := m.Project(src)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds().Dx() != shape.X || got.Bounds().Dy() != shape.Y {
		t.Fatalf("projected shape = %v, want %v", got.Bounds(), shape)
	}
}
