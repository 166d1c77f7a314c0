package stitch

import (
	"image"

	"golang.org/x/image/draw"

	"birdseye.dev/bgr"
	"birdseye.dev/caricon"
	"birdseye.dev/geometry"
)

// CarOverlay pastes the car icon into canvas's car rectangle
// unconditionally, resizing icon to the rectangle's exact size first.
// A nil icon falls back to the built-in vector icon.
func CarOverlay(canvas *bgr.Image, layout geometry.Layout, icon *bgr.Image) {
	car := layout.CarRect()
	w, h := car.Dx(), car.Dy()

	if icon == nil {
		icon = caricon.Render(w, h)
	} else if icon.Bounds().Dx() != w || icon.Bounds().Dy() != h {
		resized := bgr.New(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(resized, resized.Bounds(), icon, icon.Bounds(), draw.Src, nil)
		icon = resized
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			canvas.Set8(car.Min.X+x, car.Min.Y+y, icon.At8(icon.Bounds().Min.X+x, icon.Bounds().Min.Y+y))
		}
	}
}
