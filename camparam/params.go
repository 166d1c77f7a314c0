// Package camparam implements the per-camera parameter document: the
// intrinsic matrix, fisheye distortion coefficients, the virtual-camera
// scale/shift adjustment, the optional extrinsic project matrix, and
// the undistort maps derived from them.
//
// Documents are persisted as CBOR using the same canonical encode mode
// the teacher uses for its descriptor documents, so files are
// byte-stable across re-saves of unchanged data.
package camparam

import (
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/image/math/f64"

	"birdseye.dev/pipelineerr"
)

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// Resolution is a camera's capture width and height in pixels.
type Resolution struct {
	W, H int
}

// Adjustment is the optional manual brightness/contrast pair applied to
// a camera's frame immediately before the luminance balance stage. The
// pair (1, 0), DefaultAdjustment, is a no-op.
type Adjustment struct {
	Gain float64
	Bias float64
}

// DefaultAdjustment is the no-op gain/bias pair.
var DefaultAdjustment = Adjustment{Gain: 1, Bias: 0}

// doc is the on-disk shape of a camera parameter file. Fields are
// addressed by integer key so renaming a Go field never changes the
// wire format, and unknown keys in a file are silently ignored on
// decode.
type doc struct {
	CameraMatrix  [3][3]float64 `cbor:"1,keyasint"`
	DistCoeffs    [4]float64    `cbor:"2,keyasint"`
	ResW          int           `cbor:"3,keyasint"`
	ResH          int           `cbor:"4,keyasint"`
	ScaleX        float64       `cbor:"5,keyasint"`
	ScaleY        float64       `cbor:"6,keyasint"`
	ShiftX        float64       `cbor:"7,keyasint"`
	ShiftY        float64       `cbor:"8,keyasint"`
	ProjectMatrix *[3][3]float64 `cbor:"9,keyasint,omitempty"`
	Gain          float64       `cbor:"10,keyasint,omitempty"`
	Bias          float64       `cbor:"11,keyasint,omitempty"`
}

// Params holds one camera's intrinsic and extrinsic parameters, plus
// the undistort maps derived from them. ProjectMatrix is nil until an
// extrinsic calibration has been performed.
type Params struct {
	CameraMatrix f64.Mat3
	DistCoeffs   [4]float64
	Resolution   Resolution
	ScaleXY      [2]float64
	ShiftXY      [2]float64

	ProjectMatrix *f64.Mat3
	Adjustment    Adjustment

	undistortMaps *undistortMaps
}

// undistortMaps are the two lookup tables mapping each destination
// pixel to the fractional source coordinate it samples, one shaped
// resolution.W x resolution.H.
type undistortMaps struct {
	mapX, mapY []float64
	w, h       int
}

// New constructs a Params from explicit intrinsics, building its
// undistort maps immediately, for calibration tools and tests that
// compute parameters programmatically instead of loading them from
// disk.
func New(camMatrix f64.Mat3, dist [4]float64, res Resolution, scaleXY, shiftXY [2]float64) *Params {
	p := &Params{
		CameraMatrix: camMatrix,
		DistCoeffs:   dist,
		Resolution:   res,
		ScaleXY:      scaleXY,
		ShiftXY:      shiftXY,
		Adjustment:   DefaultAdjustment,
	}
	p.rebuildUndistortMaps()
	return p
}

// Load reads and parses a camera parameter file. It fails with
// pipelineerr.ConfigMissing if the file does not exist, or
// pipelineerr.ConfigInvalid if required fields are missing or
// malformed. The undistort maps are rebuilt from the loaded intrinsics
// before Load returns, so the invariant that they stay consistent with
// camera_matrix*diag(scale_xy)+shift_xy always holds for a freshly
// loaded Params.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("camparam: load %q: %w", path, pipelineerr.ConfigMissing)
		}
		return nil, fmt.Errorf("camparam: load %q: %w", path, err)
	}
	var d doc
	if err := decMode.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("camparam: load %q: %w", path, pipelineerr.ConfigInvalid)
	}
	if d.ResW <= 0 || d.ResH <= 0 {
		return nil, fmt.Errorf("camparam: load %q: missing resolution: %w", path, pipelineerr.ConfigInvalid)
	}
	if d.CameraMatrix[0][0] == 0 || d.CameraMatrix[1][1] == 0 {
		return nil, fmt.Errorf("camparam: load %q: missing camera matrix: %w", path, pipelineerr.ConfigInvalid)
	}
	p := &Params{
		CameraMatrix: f64.Mat3{
			d.CameraMatrix[0][0], d.CameraMatrix[0][1], d.CameraMatrix[0][2],
			d.CameraMatrix[1][0], d.CameraMatrix[1][1], d.CameraMatrix[1][2],
			d.CameraMatrix[2][0], d.CameraMatrix[2][1], d.CameraMatrix[2][2],
		},
		DistCoeffs: d.DistCoeffs,
		Resolution: Resolution{W: d.ResW, H: d.ResH},
		ScaleXY:    [2]float64{orOne(d.ScaleX), orOne(d.ScaleY)},
		ShiftXY:    [2]float64{d.ShiftX, d.ShiftY},
		Adjustment: Adjustment{Gain: orOne(d.Gain), Bias: d.Bias},
	}
	if d.ProjectMatrix != nil {
		m := f64.Mat3{
			d.ProjectMatrix[0][0], d.ProjectMatrix[0][1], d.ProjectMatrix[0][2],
			d.ProjectMatrix[1][0], d.ProjectMatrix[1][1], d.ProjectMatrix[1][2],
			d.ProjectMatrix[2][0], d.ProjectMatrix[2][1], d.ProjectMatrix[2][2],
		}
		p.ProjectMatrix = &m
	}
	p.rebuildUndistortMaps()
	return p, nil
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// Save persists camera_matrix, dist_coeffs, resolution, project_matrix,
// scale_xy, and shift_xy to path, overwriting any existing file.
func (p *Params) Save(path string) error {
	d := doc{
		ResW:   p.Resolution.W,
		ResH:   p.Resolution.H,
		ScaleX: p.ScaleXY[0],
		ScaleY: p.ScaleXY[1],
		ShiftX: p.ShiftXY[0],
		ShiftY: p.ShiftXY[1],
		Gain:   p.Adjustment.Gain,
		Bias:   p.Adjustment.Bias,
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d.CameraMatrix[i][j] = p.CameraMatrix[i*3+j]
		}
	}
	d.DistCoeffs = p.DistCoeffs
	if p.ProjectMatrix != nil {
		var m [3][3]float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				m[i][j] = p.ProjectMatrix[i*3+j]
			}
		}
		d.ProjectMatrix = &m
	}
	enc, err := encMode.Marshal(d)
	if err != nil {
		return fmt.Errorf("camparam: save %q: %w", path, err)
	}
	if err := os.WriteFile(path, enc, 0o644); err != nil {
		return fmt.Errorf("camparam: save %q: %w", path, err)
	}
	return nil
}

// SetProjectMatrix installs the extrinsic homography computed by the
// external calibration collaborator (see camera.DrawCalibrationGrid).
func (p *Params) SetProjectMatrix(m f64.Mat3) {
	mc := m
	p.ProjectMatrix = &mc
}

// SetIntrinsics replaces the intrinsic matrix, distortion coefficients,
// and virtual-camera scale/shift, rebuilding the undistort maps so they
// stay consistent with the new values.
func (p *Params) SetIntrinsics(camMatrix f64.Mat3, dist [4]float64, scaleXY, shiftXY [2]float64) {
	p.CameraMatrix = camMatrix
	p.DistCoeffs = dist
	p.ScaleXY = scaleXY
	p.ShiftXY = shiftXY
	p.rebuildUndistortMaps()
}

// UndistortMapAt returns the fractional source coordinate that
// destination pixel (x, y) samples from.
func (p *Params) UndistortMapAt(x, y int) (sx, sy float64) {
	m := p.undistortMaps
	i := y*m.w + x
	return m.mapX[i], m.mapY[i]
}
