// Package stitch implements the stitching engine: per-frame luminance
// balance, quadrant alpha blending, global white balance, and car-icon
// overlay, consuming the offline-computed seam weights and masks.
package stitch

import (
	"math"

	"birdseye.dev/bgr"
	"birdseye.dev/geometry"
	"birdseye.dev/weights"
)

// channelMean computes the mean of a single BGR channel over tile,
// restricted to pixels where mask is set. A mask with no set pixels
// yields 0, which the caller must treat as "below the 1e-6 threshold".
func channelMean(tile *bgr.Image, mask *weights.OverlapMask, channel int) float64 {
	r := tile.Bounds()
	var sum float64
	var n int
	for y := 0; y < mask.H; y++ {
		for x := 0; x < mask.W; x++ {
			if !mask.M[y*mask.W+x] {
				continue
			}
			c := tile.At8(r.Min.X+x, r.Min.Y+y)
			sum += float64(c[channel])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ratio computes num/den, treating a denominator whose masked mean is
// below 1e-6 as the identity ratio 1.0, per the explicit divide-by-zero
// contract (source behavior was undefined here).
func ratio(num, den float64) float64 {
	if den < 1e-6 {
		return 1.0
	}
	return num / den
}

// tune softens a gain to damp overcorrection: gains above 1 are damped
// more gently than gains below 1.
func tune(x float64) float64 {
	if x >= 1 {
		return x * math.Exp((1-x)*0.5)
	}
	return x * math.Exp((1-x)*0.8)
}

// Gains holds the tuned per-channel multiplier applied to one camera's
// frame before blending.
type Gains [3]float64

// LuminanceBalance computes the four cameras' tuned per-channel gains
// from the mean brightness of each of the four overlap quadrants,
// matching the adjacent pair of cameras sharing that corner.
func LuminanceBalance(layout geometry.Layout, frames map[geometry.Camera]*bgr.Image, masks *weights.Tiles) map[geometry.Camera]Gains {
	var front, back, left, right Gains
	for c := 0; c < 3; c++ {
		fr := frames[geometry.Front]
		bk := frames[geometry.Back]
		lf := frames[geometry.Left]
		rt := frames[geometry.Right]

		frTileFR := cropTile(fr, layout, geometry.Front, geometry.FR)
		rtTileFR := cropTile(rt, layout, geometry.Right, geometry.FR)
		a := ratio(channelMean(frTileFR, masks.Mask[geometry.FR], c), channelMean(rtTileFR, masks.Mask[geometry.FR], c))

		rtTileBR := cropTile(rt, layout, geometry.Right, geometry.BR)
		bkTileBR := cropTile(bk, layout, geometry.Back, geometry.BR)
		b := ratio(channelMean(rtTileBR, masks.Mask[geometry.BR], c), channelMean(bkTileBR, masks.Mask[geometry.BR], c))

		bkTileBL := cropTile(bk, layout, geometry.Back, geometry.BL)
		lfTileBL := cropTile(lf, layout, geometry.Left, geometry.BL)
		cc := ratio(channelMean(bkTileBL, masks.Mask[geometry.BL], c), channelMean(lfTileBL, masks.Mask[geometry.BL], c))

		lfTileFL := cropTile(lf, layout, geometry.Left, geometry.FL)
		frTileFL := cropTile(fr, layout, geometry.Front, geometry.FL)
		d := ratio(channelMean(lfTileFL, masks.Mask[geometry.FL], c), channelMean(frTileFL, masks.Mask[geometry.FL], c))

		t := math.Pow(a*b*cc*d, 0.25)

		front[c] = tune(t * math.Sqrt(a/d))
		back[c] = tune(t * math.Sqrt(cc/b))
		left[c] = tune(t * math.Sqrt(d/cc))
		right[c] = tune(t * math.Sqrt(b/a))
	}
	return map[geometry.Camera]Gains{
		geometry.Front: front,
		geometry.Back:  back,
		geometry.Left:  left,
		geometry.Right: right,
	}
}

// cropTile extracts the slice of cam's oriented frame contributing to
// quadrant q.
func cropTile(img *bgr.Image, layout geometry.Layout, cam geometry.Camera, q geometry.Quadrant) *bgr.Image {
	r := layout.Tile(cam, q)
	return img.SubImage(r).(*bgr.Image)
}

// Apply multiplies every pixel of img by its camera's tuned gains,
// clipping to [0, 255], mutating img in place.
func (g Gains) Apply(img *bgr.Image) {
	for i, c := range img.Pix {
		img.Pix[i] = bgr.Color{
			clip(float64(c[0]) * g[0]),
			clip(float64(c[1]) * g[1]),
			clip(float64(c[2]) * g[2]),
		}
	}
}

func clip(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}
