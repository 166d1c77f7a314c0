package camera

import (
	"image"

	"birdseye.dev/bgr"
)

// transpose swaps rows and columns, the first step of the left/right
// orientation flips in the canvas coordinate frame.
func transpose(img *bgr.Image) *bgr.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := bgr.New(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set8(y, x, img.At8(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// rotate180 reverses both rows and columns, the back camera's flip.
func rotate180(img *bgr.Image) *bgr.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := bgr.New(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set8(w-1-x, h-1-y, img.At8(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// flipRows reverses row order, the second step of the left camera's
// 90-degree-counterclockwise orientation.
func flipRows(img *bgr.Image) *bgr.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := bgr.New(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set8(x, h-1-y, img.At8(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// flipCols reverses column order, the second step of the right
// camera's 90-degree-clockwise orientation.
func flipCols(img *bgr.Image) *bgr.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := bgr.New(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set8(w-1-x, y, img.At8(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
