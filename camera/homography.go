package camera

import (
	"image"

	"golang.org/x/image/math/f64"
)

// invert3 returns the inverse of m, generalizing affine.go's f32.Aff3
// helpers (built for 2x3 affine transforms) up to a full 3x3
// homography with a perspective row. ok is false if m is singular.
func invert3(m f64.Mat3) (inv f64.Mat3, ok bool) {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if det > -1e-12 && det < 1e-12 {
		return f64.Mat3{}, false
	}
	invDet := 1 / det
	return f64.Mat3{
		(e*i - f*h) * invDet,
		(c*h - b*i) * invDet,
		(b*f - c*e) * invDet,
		(f*g - d*i) * invDet,
		(a*i - c*g) * invDet,
		(c*d - a*f) * invDet,
		(d*h - e*g) * invDet,
		(b*g - a*h) * invDet,
		(a*e - b*d) * invDet,
	}, true
}

// applyHomogeneous maps point (x, y) through m as a perspective
// transform: (x', y', w') = m*(x, y, 1), returning (x'/w', y'/w').
// ok is false if w' is too close to zero to divide by.
func applyHomogeneous(m f64.Mat3, x, y float64) (px, py float64, ok bool) {
	w := m[6]*x + m[7]*y + m[8]
	if w > -1e-12 && w < 1e-12 {
		return 0, 0, false
	}
	px = (m[0]*x + m[1]*y + m[2]) / w
	py = (m[3]*x + m[4]*y + m[5]) / w
	return px, py, true
}

// SolveHomography finds the 3x3 matrix mapping each src[i] to dst[i]
// (i = 0..3) via direct linear transform, fixing h[8]=1 and solving the
// resulting 8x8 linear system by Gaussian elimination with partial
// pivoting. This is the extrinsic calibration step: src are the four
// points an operator clicked in a camera's undistorted frame, dst are
// the layout's fixed canvas keypoints for that camera.
func SolveHomography(src, dst [4]image.Point) (f64.Mat3, bool) {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := float64(src[i].X), float64(src[i].Y)
		dx, dy := float64(dst[i].X), float64(dst[i].Y)
		a[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx, dx}
		a[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy, dy}
	}
	h, ok := solveLinear8(a)
	if !ok {
		return f64.Mat3{}, false
	}
	return f64.Mat3{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, true
}

// solveLinear8 solves the 8x8 system whose augmented rows are a[i][0:8]
// (coefficients) and a[i][8] (right-hand side), via Gaussian
// elimination with partial pivoting.
func solveLinear8(a [8][9]float64) (x [8]float64, ok bool) {
	const n = 8
	for col := 0; col < n; col++ {
		pivot := col
		best := a[col][col]
		if best < 0 {
			best = -best
		}
		for r := col + 1; r < n; r++ {
			v := a[r][col]
			if v < 0 {
				v = -v
			}
			if v > best {
				pivot, best = r, v
			}
		}
		if best < 1e-9 {
			return x, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := a[r][col] / a[col][col]
			for c := col; c <= n; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}
	for i := 0; i < n; i++ {
		x[i] = a[i][n] / a[i][i]
	}
	return x, true
}
