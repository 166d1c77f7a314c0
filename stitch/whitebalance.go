package stitch

import "birdseye.dev/bgr"

// WhiteBalance computes the composite image's global gray-world white
// balance and applies it in place: each channel is scaled by the
// average of the three channel means divided by its own mean, so the
// three channel means become equal after correction.
func WhiteBalance(canvas *bgr.Image) {
	var sum [3]float64
	n := len(canvas.Pix)
	if n == 0 {
		return
	}
	for _, c := range canvas.Pix {
		sum[0] += float64(c[0])
		sum[1] += float64(c[1])
		sum[2] += float64(c[2])
	}
	mean := [3]float64{sum[0] / float64(n), sum[1] / float64(n), sum[2] / float64(n)}
	k := (mean[0] + mean[1] + mean[2]) / 3

	var gain [3]float64
	for i := 0; i < 3; i++ {
		gain[i] = ratio(k, mean[i])
	}

	for i, c := range canvas.Pix {
		canvas.Pix[i] = bgr.Color{
			clip(float64(c[0]) * gain[0]),
			clip(float64(c[1]) * gain[1]),
			clip(float64(c[2]) * gain[2]),
		}
	}
}
