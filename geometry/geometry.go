// Package geometry holds the static canvas layout that every other
// component in the surround-view pipeline agrees on: the composite
// canvas size, the car rectangle, the four overlap quadrants, and the
// per-camera projected frame shapes and calibration keypoints.
//
// These are the vehicle-independent geometric constants described in
// the canvas layout file; they are invariants of the layout, not
// something any runtime component computes.
package geometry

import "image"

// Camera names the four mounting positions.
type Camera int

const (
	Front Camera = iota
	Back
	Left
	Right
)

func (c Camera) String() string {
	switch c {
	case Front:
		return "front"
	case Back:
		return "back"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Quadrant names the four corner overlap regions.
type Quadrant int

const (
	FL Quadrant = iota
	FR
	BL
	BR
)

func (q Quadrant) String() string {
	switch q {
	case FL:
		return "FL"
	case FR:
		return "FR"
	case BL:
		return "BL"
	case BR:
		return "BR"
	default:
		return "unknown"
	}
}

// Layout is the process-wide canvas geometry. It is passed by reference
// to every component that needs it; there is no process-wide singleton.
type Layout struct {
	TotalW, TotalH int
	XL, XR         int
	YT, YB         int
	// ShiftW, ShiftH are the calibration-pattern shift used to derive
	// the calibration keypoints below; kept alongside the derived
	// fields rather than re-computed from them.
	ShiftW, ShiftH int
}

// Default mirrors the canonical layout shipped by the vehicle-independent
// geometry file: a 300-pixel border around a 600-wide, 1000-high
// calibration pattern, with a 20x50 inner margin around the car silhouette.
var Default = NewLayout(300, 300, 20, 50, 600, 1000, 180, 200)

// NewLayout derives a Layout the same way the offline calibration
// tooling does: shiftW/shiftH is how far the birdview extends outside
// the calibration pattern, innShiftW/innShiftH is the gap between the
// pattern and the car, and patternW/patternH/carMarginW/carMarginH size
// the calibration pattern and the car rectangle within it.
func NewLayout(shiftW, shiftH, innShiftW, innShiftH, patternW, patternH, carMarginW, carMarginH int) Layout {
	totalW := patternW + 2*shiftW
	totalH := patternH + 2*shiftH
	xl := shiftW + carMarginW + innShiftW
	xr := totalW - xl
	yt := shiftH + carMarginH + innShiftH
	yb := totalH - yt
	return Layout{
		TotalW: totalW, TotalH: totalH,
		XL: xl, XR: xr,
		YT: yt, YB: yb,
		ShiftW: shiftW, ShiftH: shiftH,
	}
}

// CanvasSize is the fixed size of the composite output image.
func (l Layout) CanvasSize() image.Point {
	return image.Pt(l.TotalW, l.TotalH)
}

// CarRect is the rectangle reserved for the car icon.
func (l Layout) CarRect() image.Rectangle {
	return image.Rect(l.XL, l.YT, l.XR, l.YB)
}

// ProjectedShape is the canonical shape a camera's projected frame must
// have before orientation, in (width, height) order as OpenCV-style
// warpPerspective expects it.
func (l Layout) ProjectedShape(c Camera) image.Point {
	switch c {
	case Front, Back:
		return image.Pt(l.TotalW, l.YT)
	case Left, Right:
		return image.Pt(l.TotalH, l.XL)
	default:
		return image.Point{}
	}
}

// quadrantCameras names the two cameras contributing to each overlap
// quadrant, in (A, B) order as used by the seam weight formulas: A is
// the front/back tile, B is the left/right tile.
var quadrantCameras = [4][2]Camera{
	FL: {Front, Left},
	FR: {Front, Right},
	BL: {Back, Left},
	BR: {Back, Right},
}

// QuadrantCameras returns the (A, B) cameras overlapping in quadrant q.
func (l Layout) QuadrantCameras(q Quadrant) (a, b Camera) {
	p := quadrantCameras[q]
	return p[0], p[1]
}

// QuadrantRect is the quadrant's rectangle within the composite canvas.
func (l Layout) QuadrantRect(q Quadrant) image.Rectangle {
	switch q {
	case FL:
		return image.Rect(0, 0, l.XL, l.YT)
	case FR:
		return image.Rect(l.XR, 0, l.TotalW, l.YT)
	case BL:
		return image.Rect(0, l.YB, l.XL, l.TotalH)
	case BR:
		return image.Rect(l.XR, l.YB, l.TotalW, l.TotalH)
	default:
		return image.Rectangle{}
	}
}

// EdgeRect is the non-overlapping edge strip contributed entirely by
// one camera (front/back top/bottom strips, left/right side strips).
func (l Layout) EdgeRect(c Camera) image.Rectangle {
	switch c {
	case Front:
		return image.Rect(l.XL, 0, l.XR, l.YT)
	case Back:
		return image.Rect(l.XL, l.YB, l.XR, l.TotalH)
	case Left:
		return image.Rect(0, l.YT, l.XL, l.YB)
	case Right:
		return image.Rect(l.XR, l.YT, l.TotalW, l.YB)
	default:
		return image.Rectangle{}
	}
}

// FrontTile extracts the front-oriented image's FL/middle/FR slices, in
// canvas-column coordinates: [:xl], [xl:xr], [xr:]. Front's oriented
// frame is registered directly in canvas coordinates (Model.Flip is an
// identity for the front camera), so these match QuadrantRect/EdgeRect
// exactly.
func (l Layout) FrontTile(q Quadrant) image.Rectangle {
	switch q {
	case FL:
		return image.Rect(0, 0, l.XL, l.YT)
	case FR:
		return image.Rect(l.XR, 0, l.TotalW, l.YT)
	default:
		return image.Rect(l.XL, 0, l.XR, l.YT)
	}
}

// BackTile is FrontTile's analogue for the back camera: the quadrants
// it contributes to are BL/BR rather than FL/FR, so unlike
// LeftTile/RightTile it cannot simply delegate to FrontTile.
func (l Layout) BackTile(q Quadrant) image.Rectangle {
	switch q {
	case BL:
		return image.Rect(0, 0, l.XL, l.YT)
	case BR:
		return image.Rect(l.XR, 0, l.TotalW, l.YT)
	default:
		return image.Rect(l.XL, 0, l.XR, l.YT)
	}
}

// LeftTile extracts the left-oriented image's FL/middle/BL slices:
// [:yt], [yt:yb], [yb:]. The transpose in Model.Flip registers the
// oriented left frame directly in canvas (x, y) coordinates, so these
// rectangles match QuadrantRect/EdgeRect exactly rather than the
// pre-flip projected shape.
func (l Layout) LeftTile(q Quadrant) image.Rectangle {
	switch q {
	case FL, FR:
		return image.Rect(0, 0, l.XL, l.YT)
	case BL, BR:
		return image.Rect(0, l.YB, l.XL, l.TotalH)
	default:
		return image.Rect(0, l.YT, l.XL, l.YB)
	}
}

// RightTile is LeftTile's analogue for the right camera.
func (l Layout) RightTile(q Quadrant) image.Rectangle {
	return l.LeftTile(q)
}

// EdgeTile is the non-overlap middle strip's rectangle within cam's own
// oriented frame, the source-side counterpart of EdgeRect's
// canvas-absolute destination. Front and back share one local frame
// (local x tracks canvas x directly); left and right share another
// (local x always starts at 0, since both sit flush against their
// respective canvas edge in their own orientation).
func (l Layout) EdgeTile(c Camera) image.Rectangle {
	switch c {
	case Front, Back:
		return image.Rect(l.XL, 0, l.XR, l.YT)
	case Left, Right:
		return image.Rect(0, l.YT, l.XL, l.YB)
	default:
		return image.Rectangle{}
	}
}

// Tile returns the slice of an oriented camera frame that contributes
// to quadrant q, choosing the correct extractor for the camera.
func (l Layout) Tile(c Camera, q Quadrant) image.Rectangle {
	switch c {
	case Front:
		return l.FrontTile(q)
	case Back:
		return l.BackTile(q)
	case Left:
		return l.LeftTile(q)
	case Right:
		return l.RightTile(q)
	default:
		return image.Rectangle{}
	}
}

// KeyPoints are the calibration keypoints clicked (in the same order)
// during interactive point-picking for each camera, expressed in
// canvas coordinates. They are the `dst_points` half of the
// calibrate-extrinsic collaborator contract in the external interfaces.
func (l Layout) KeyPoints(c Camera) [4]image.Point {
	sw, sh := l.ShiftW, l.ShiftH
	switch c {
	case Front, Back:
		return [4]image.Point{
			{sw + 120, sh}, {sw + 480, sh},
			{sw + 120, sh + 160}, {sw + 480, sh + 160},
		}
	case Left:
		return [4]image.Point{
			{sh + 280, sw}, {sh + 840, sw},
			{sh + 280, sw + 160}, {sh + 840, sw + 160},
		}
	case Right:
		return [4]image.Point{
			{sh + 160, sw}, {sh + 720, sw},
			{sh + 160, sw + 160}, {sh + 720, sw + 160},
		}
	default:
		return [4]image.Point{}
	}
}
