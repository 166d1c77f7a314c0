// Package camera implements the fisheye camera model contract: undistort,
// perspective projection, and canonical orientation flip, bound to a
// set of persisted parameters.
package camera

import (
	"fmt"
	"image"
	"sync"

	"birdseye.dev/bgr"
	"birdseye.dev/camparam"
	"birdseye.dev/geometry"
	"birdseye.dev/pipelineerr"
)

// Model is one camera's undistort/project/flip pipeline, bound to its
// persisted parameters and canonical projected shape.
type Model struct {
	// mu is held for the duration of each Undistort, Project and Save
	// call. Flip does not take it, nothing holds it across a whole
	// undistort/project/flip sequence, and the Params mutators reached
	// through Params() (SetIntrinsics, SetProjectMatrix) do not take it.
	mu     sync.Mutex
	name   geometry.Camera
	params *camparam.Params
	layout geometry.Layout
}

// Load reads the named camera's parameter file and binds it to its
// canonical projected shape from layout.
func Load(path string, name geometry.Camera, layout geometry.Layout) (*Model, error) {
	p, err := camparam.Load(path)
	if err != nil {
		return nil, fmt.Errorf("camera: load %v: %w", name, err)
	}
	return &Model{params: p, name: name, layout: layout}, nil
}

// NewModel binds an already-constructed parameter document to name and
// layout, for calibration tools and tests that build Params
// programmatically instead of loading them from disk.
func NewModel(params *camparam.Params, name geometry.Camera, layout geometry.Layout) *Model {
	return &Model{params: params, name: name, layout: layout}
}

// Params returns the model's underlying parameter document, for
// calibration tools that need to mutate and re-save it.
func (m *Model) Params() *camparam.Params {
	return m.params
}

// Save persists the model's current parameters to path.
func (m *Model) Save(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params.Save(path)
}

// Undistort removes lens distortion using the precomputed maps, with
// bilinear interpolation and zero-padded borders. The result has the
// same resolution as the input.
func (m *Model) Undistort(img *bgr.Image) *bgr.Image {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, h := m.params.Resolution.W, m.params.Resolution.H
	dst := bgr.New(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := m.params.UndistortMapAt(x, y)
			dst.Set8(x, y, sampleBilinear(img, sx, sy))
		}
	}
	return dst
}

// Project applies the camera's project matrix as a perspective warp,
// returning an image of the camera's canonical projected shape. It
// fails with pipelineerr.NotCalibrated if no project matrix has been
// set.
func (m *Model) Project(img *bgr.Image) (*bgr.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.params.ProjectMatrix == nil {
		return nil, fmt.Errorf("camera: project %v: %w", m.name, pipelineerr.NotCalibrated)
	}
	inv, ok := invert3(*m.params.ProjectMatrix)
	if !ok {
		return nil, fmt.Errorf("camera: project %v: singular project matrix", m.name)
	}

	shape := m.layout.ProjectedShape(m.name)
	dst := bgr.New(image.Rect(0, 0, shape.X, shape.Y))
	for y := 0; y < shape.Y; y++ {
		for x := 0; x < shape.X; x++ {
			sx, sy, ok := applyHomogeneous(inv, float64(x), float64(y))
			if !ok {
				continue
			}
			dst.Set8(x, y, sampleBilinear(img, sx, sy))
		}
	}
	return dst, nil
}

// Flip returns the canonically oriented image for this camera: front
// unchanged, back rotated 180 degrees, left transposed then
// row-reversed, right transposed then column-reversed.
func (m *Model) Flip(img *bgr.Image) *bgr.Image {
	switch m.name {
	case geometry.Front:
		return img.Clone()
	case geometry.Back:
		return rotate180(img)
	case geometry.Left:
		return flipRows(transpose(img))
	case geometry.Right:
		return flipCols(transpose(img))
	default:
		return img.Clone()
	}
}

// sampleBilinear samples img at fractional coordinates (sx, sy),
// zero-padding any out-of-bounds contribution.
func sampleBilinear(img *bgr.Image, sx, sy float64) bgr.Color {
	x0 := floor(sx)
	y0 := floor(sy)
	fx := sx - float64(x0)
	fy := sy - float64(y0)

	c00 := at8(img, x0, y0)
	c10 := at8(img, x0+1, y0)
	c01 := at8(img, x0, y0+1)
	c11 := at8(img, x0+1, y0+1)

	var out bgr.Color
	for k := 0; k < 3; k++ {
		top := float64(c00[k])*(1-fx) + float64(c10[k])*fx
		bot := float64(c01[k])*(1-fx) + float64(c11[k])*fx
		out[k] = clampByte(top*(1-fy) + bot*fy)
	}
	return out
}

func at8(img *bgr.Image, x, y int) bgr.Color {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return bgr.Color{}
	}
	return img.At8(x, y)
}

func floor(v float64) int {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}
