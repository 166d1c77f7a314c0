package camparam

import "math"

// rebuildUndistortMaps recomputes the lookup tables mapping each pixel
// of the virtual (scaled/shifted) camera back to the fractional source
// pixel it samples, following the equidistant fisheye distortion model:
// a point is undistorted by converting it to the camera's angular
// coordinate and re-distorting it through the polynomial
// theta_d = theta*(1 + k1*theta^2 + k2*theta^4 + k3*theta^6 + k4*theta^8).
func (p *Params) rebuildUndistortMaps() {
	w, h := p.Resolution.W, p.Resolution.H
	fx, fy := p.CameraMatrix[0], p.CameraMatrix[4]
	cx, cy := p.CameraMatrix[2], p.CameraMatrix[5]

	nfx, nfy := fx*p.ScaleXY[0], fy*p.ScaleXY[1]
	ncx, ncy := cx+p.ShiftXY[0], cy+p.ShiftXY[1]

	k1, k2, k3, k4 := p.DistCoeffs[0], p.DistCoeffs[1], p.DistCoeffs[2], p.DistCoeffs[3]

	mapX := make([]float64, w*h)
	mapY := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			xc := (float64(x) - ncx) / nfx
			yc := (float64(y) - ncy) / nfy

			r := math.Hypot(xc, yc)
			var scale float64
			if r < 1e-9 {
				scale = 1
			} else {
				theta := math.Atan(r)
				t2 := theta * theta
				thetaD := theta * (1 + t2*(k1+t2*(k2+t2*(k3+t2*k4))))
				scale = thetaD / r
			}

			i := y*w + x
			mapX[i] = fx*xc*scale + cx
			mapY[i] = fy*yc*scale + cy
		}
	}
	p.undistortMaps = &undistortMaps{mapX: mapX, mapY: mapY, w: w, h: h}
}
