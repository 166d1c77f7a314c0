// Command surroundview runs the 360-degree bird's-eye surround-view
// pipeline: per-camera capture, undistort/project/flip, and stitching
// into a single composite frame. It also hosts the offline calibration
// and seam-weight-building tools the pipeline depends on.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/image/math/f64"

	"birdseye.dev/bgr"
	"birdseye.dev/camera"
	"birdseye.dev/camparam"
	"birdseye.dev/capture"
	"birdseye.dev/gensync"
	"birdseye.dev/geometry"
	"birdseye.dev/pipelineerr"
	"birdseye.dev/powercycle"
	"birdseye.dev/process"
	"birdseye.dev/stitch"
	"birdseye.dev/sync2"
	"birdseye.dev/weights"
)

var (
	intrinsicsFlags = flag.NewFlagSet("calibrate-intrinsics", flag.ExitOnError)
	intrinsicsIn    = intrinsicsFlags.String("i", "", "JSON file with camera_matrix, dist_coeffs, resolution")
	intrinsicsOut   = intrinsicsFlags.String("o", "", "camera parameter file to write")

	captureFlags  = flag.NewFlagSet("capture-image", flag.ExitOnError)
	captureDevice = captureFlags.String("device", "/dev/video0", "V4L2 device path")
	captureRes    = captureFlags.String("r", "1280x720", "capture resolution WxH")
	captureOut    = captureFlags.String("o", "frame.png", "output PNG path")

	extrinsicFlags  = flag.NewFlagSet("calibrate-extrinsic", flag.ExitOnError)
	extrinsicCamera = extrinsicFlags.String("camera", "", "front, back, left, or right")
	extrinsicParams = extrinsicFlags.String("params", "", "camera parameter file to update")
	extrinsicPoints = extrinsicFlags.String("points", "", "four clicked source points: x1,y1,x2,y2,x3,y3,x4,y4")

	weightsFlags = flag.NewFlagSet("build-weights", flag.ExitOnError)
	weightsIn    = weightsFlags.String("frames", "", "comma-separated front,back,left,right oriented sample PNGs")
	weightsOut   = weightsFlags.String("o", "weights", "output path prefix (writes <prefix>.png and <prefix>-mask.png)")

	runFlags    = flag.NewFlagSet("run", flag.ExitOnError)
	runConfDir  = runFlags.String("config", ".", "directory holding front.cam, back.cam, left.cam, right.cam")
	runOut      = runFlags.String("o", "", "write the latest composite frame to this PNG path every second (optional)")
	runGenlock  = runFlags.String("genlock", "", "serial device for an external genlock trigger (optional)")
	runRelay    = runFlags.Bool("powercycle", false, "power-cycle cameras on the onboard relay before starting (optional)")
	runSettleMs = runFlags.Int("powercycle-settle-ms", 500, "relay off-time before restoring camera power")
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "surroundview: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New("missing command (calibrate-intrinsics, capture-image, calibrate-extrinsic, build-weights, run)")
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "calibrate-intrinsics":
		intrinsicsFlags.Parse(args)
		return calibrateIntrinsics()
	case "capture-image":
		captureFlags.Parse(args)
		return captureImage()
	case "calibrate-extrinsic":
		extrinsicFlags.Parse(args)
		return calibrateExtrinsic()
	case "build-weights":
		weightsFlags.Parse(args)
		return buildWeights()
	case "run":
		runFlags.Parse(args)
		return runPipeline()
	default:
		return fmt.Errorf("unknown command: %q", cmd)
	}
}

// intrinsicsDoc is the JSON shape accepted by calibrate-intrinsics,
// standing in for the interactive checkerboard detector: a calibration
// rig upstream of this tool already solved for these values.
type intrinsicsDoc struct {
	CameraMatrix [3][3]float64 `json:"camera_matrix"`
	DistCoeffs   [4]float64    `json:"dist_coeffs"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
}

func calibrateIntrinsics() error {
	if *intrinsicsIn == "" || *intrinsicsOut == "" {
		return errors.New("calibrate-intrinsics: -i and -o are required")
	}
	data, err := os.ReadFile(*intrinsicsIn)
	if err != nil {
		return err
	}
	var d intrinsicsDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("calibrate-intrinsics: parse %q: %w", *intrinsicsIn, err)
	}
	m := f64.Mat3{
		d.CameraMatrix[0][0], d.CameraMatrix[0][1], d.CameraMatrix[0][2],
		d.CameraMatrix[1][0], d.CameraMatrix[1][1], d.CameraMatrix[1][2],
		d.CameraMatrix[2][0], d.CameraMatrix[2][1], d.CameraMatrix[2][2],
	}
	p := camparam.New(m, d.DistCoeffs, camparam.Resolution{W: d.Width, H: d.Height}, [2]float64{1, 1}, [2]float64{0, 0})
	return p.Save(*intrinsicsOut)
}

func captureImage() error {
	w, h, err := parseWH(*captureRes)
	if err != nil {
		return err
	}
	src, err := capture.OpenV4L2(*captureDevice, w, h)
	if err != nil {
		return err
	}
	defer src.Close()

	img, ok := src.Grab()
	if !ok {
		return fmt.Errorf("capture-image: %w", pipelineerr.FrameReadTransient)
	}
	f, err := os.Create(*captureOut)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func calibrateExtrinsic() error {
	cam, err := parseCamera(*extrinsicCamera)
	if err != nil {
		return err
	}
	if *extrinsicParams == "" {
		return errors.New("calibrate-extrinsic: -params is required")
	}
	src, err := parsePoints(*extrinsicPoints)
	if err != nil {
		return fmt.Errorf("calibrate-extrinsic: -points: %w", err)
	}
	dst := geometry.Default.KeyPoints(cam)

	m, ok := camera.SolveHomography(src, dst)
	if !ok {
		return errors.New("calibrate-extrinsic: clicked points are degenerate")
	}

	p, err := camparam.Load(*extrinsicParams)
	if err != nil {
		return err
	}
	p.SetProjectMatrix(m)
	return p.Save(*extrinsicParams)
}

func buildWeights() error {
	parts := strings.Split(*weightsIn, ",")
	if len(parts) != 4 {
		return errors.New("build-weights: -frames must list exactly 4 paths (front,back,left,right)")
	}
	frames := make(map[geometry.Camera]*bgr.Image, 4)
	for i, cam := range [4]geometry.Camera{geometry.Front, geometry.Back, geometry.Left, geometry.Right} {
		img, err := readPNG(parts[i])
		if err != nil {
			return fmt.Errorf("build-weights: %s: %w", cam, err)
		}
		frames[cam] = img
	}
	tiles := weights.Build(geometry.Default, frames)
	return tiles.Save(*weightsOut+".png", *weightsOut+"-mask.png")
}

func runPipeline() error {
	layout := geometry.Default
	tiles, err := weights.Load(*runConfDir+"/weights.png", *runConfDir+"/weights-mask.png")
	if err != nil {
		return err
	}

	if *runRelay {
		relay, err := powercycle.OpenDefault()
		if err != nil {
			return fmt.Errorf("run: powercycle: %w", err)
		}
		if err := relay.Cycle(time.Duration(*runSettleMs) * time.Millisecond); err != nil {
			return fmt.Errorf("run: powercycle: %w", err)
		}
	}

	var genlock *gensync.Generator
	if *runGenlock != "" {
		genlock, err = gensync.Open(*runGenlock)
		if err != nil {
			return fmt.Errorf("run: gensync: %w", err)
		}
		defer genlock.Close()
	}

	cams := [4]geometry.Camera{geometry.Front, geometry.Back, geometry.Left, geometry.Right}
	captureBarrier := sync2.NewCaptureBarrier(cams[:])
	projBarrier := sync2.NewProjectionBarrier[geometry.Camera, *bgr.Image](cams[:], 2, true)

	var captureWorkers []*capture.Worker[geometry.Camera]
	var processWorkers []*process.Worker
	for _, cam := range cams {
		p, err := camparam.Load(*runConfDir + "/" + cam.String() + ".cam")
		if err != nil {
			return err
		}
		model := camera.NewModel(p, cam, layout)
		src, err := capture.OpenV4L2("/dev/video0", p.Resolution.W, p.Resolution.H)
		if err != nil {
			return err
		}
		cw := capture.NewWorker(cam, src, 2, true, captureBarrier)
		pw := process.NewWorker(cam, model, cw.Buffer(), projBarrier)
		captureWorkers = append(captureWorkers, cw)
		processWorkers = append(processWorkers, pw)
	}

	stitcher := stitch.NewStitcher(projBarrier, layout, tiles, nil, 2, true)

	if genlock != nil {
		go func() {
			tick := time.NewTicker(33 * time.Millisecond)
			defer tick.Stop()
			for range tick.C {
				if err := genlock.Trigger(); err != nil {
					fmt.Fprintf(os.Stderr, "surroundview: genlock: %v\n", err)
				}
			}
		}()
	}

	for _, cw := range captureWorkers {
		go cw.Run()
	}
	for _, pw := range processWorkers {
		go pw.Run(func(err error) {
			if !errors.Is(err, pipelineerr.NotCalibrated) {
				fmt.Fprintf(os.Stderr, "surroundview: process: %v\n", err)
			}
		})
	}
	go stitcher.Run()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			stitcher.Stop()
			for _, pw := range processWorkers {
				pw.Stop()
			}
			for _, cw := range captureWorkers {
				cw.Stop()
			}
			return nil
		case <-ticker.C:
			fmt.Fprintf(os.Stderr, "surroundview: stitch fps=%.1f\n", stitcher.FPS())
			if *runOut != "" {
				if frame, ok := stitcher.Output().Pop(); ok {
					writePNGBestEffort(*runOut, frame)
				}
			}
		}
	}
}

func writePNGBestEffort(path string, img *bgr.Image) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	png.Encode(f, img)
}

func readPNG(path string) (*bgr.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	dst := bgr.New(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			dst.Set8(x-b.Min.X, y-b.Min.Y, bgr.Color{byte(bl >> 8), byte(g >> 8), byte(r >> 8)})
		}
	}
	return dst, nil
}

func parseWH(s string) (w, h int, err error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid resolution %q, want WxH", s)
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("invalid resolution %q, want WxH", s)
	}
	return w, h, nil
}

func parseCamera(s string) (geometry.Camera, error) {
	switch s {
	case "front":
		return geometry.Front, nil
	case "back":
		return geometry.Back, nil
	case "left":
		return geometry.Left, nil
	case "right":
		return geometry.Right, nil
	default:
		return 0, fmt.Errorf("-camera must be one of front, back, left, right, got %q", s)
	}
}

func parsePoints(s string) ([4]image.Point, error) {
	var pts [4]image.Point
	fields := strings.Split(s, ",")
	if len(fields) != 8 {
		return pts, fmt.Errorf("expected 8 comma-separated coordinates, got %d", len(fields))
	}
	nums := make([]int, 8)
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return pts, fmt.Errorf("invalid coordinate %q: %w", f, err)
		}
		nums[i] = n
	}
	for i := 0; i < 4; i++ {
		pts[i] = image.Pt(nums[2*i], nums[2*i+1])
	}
	return pts, nil
}
