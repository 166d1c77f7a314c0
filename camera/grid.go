package camera

import "birdseye.dev/bgr"

// DrawCalibrationGrid overlays a reference grid of the given pixel
// spacing on img, for the interactive point-picking collaborator that
// computes a camera's project matrix. It mutates and returns img.
func DrawCalibrationGrid(img *bgr.Image, spacing int, line bgr.Color) *bgr.Image {
	if spacing <= 0 {
		return img
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if (x-b.Min.X)%spacing == 0 || (y-b.Min.Y)%spacing == 0 {
				img.Set8(x, y, line)
			}
		}
	}
	return img
}
