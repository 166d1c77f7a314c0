//go:build linux

package capture

import (
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/unix"

	"birdseye.dev/bgr"
	"birdseye.dev/pipelineerr"
)

// The V4L2 ioctl request codes and struct layouts below are fixed by
// the kernel's videodev2.h ABI; they are reproduced here because
// golang.org/x/sys/unix does not export them. This is the non-cgo
// translation of the same ioctl sequence the teacher's cgo-based
// camera_linux.go performs: REQBUFS, QUERYBUF, QBUF, DQBUF, STREAMON,
// STREAMOFF, S_FMT.
const (
	v4l2BufTypeVideoCapture = 1
	v4l2MemoryMMAP          = 1
	v4l2FieldNone           = 1
	v4l2PixFmtBGR24         = 0x33524742 // 'BGR3'

	vidiocQueryCap   = 0x80685600
	vidiocSFmt       = 0xc0d05605
	vidiocReqBufs    = 0xc0145608
	vidiocQueryBuf   = 0xc0585609
	vidiocQBuf       = 0xc058560f
	vidiocDQBuf      = 0xc0585611
	vidiocStreamOn   = 0x40045612
	vidiocStreamOff  = 0x40045613
)

type v4l2PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	BytesPerLine uint32
	SizeImage    uint32
	Colorspace   uint32
	Priv         uint32
	Flags        uint32
	YcbcrEnc     uint32
	Quantization uint32
	XferFunc     uint32
}

type v4l2Format struct {
	Type uint32
	_    [4]byte // padding to align the union on amd64/arm64
	Pix  v4l2PixFormat
	_    [200 - 4*12]byte // pad struct to the kernel's 200-byte v4l2_format union size
}

type v4l2RequestBuffers struct {
	Count        uint32
	Type         uint32
	Memory       uint32
	Capabilities uint32
	Reserved     [1]uint32
}

type v4l2Buffer struct {
	Index     uint32
	Type      uint32
	BytesUsed uint32
	Flags     uint32
	Field     uint32
	Timestamp [2]int64
	Timecode  [16]byte
	Sequence  uint32
	Memory    uint32
	Offset    uint32
	_         [4]byte
	Length    uint32
	Reserved2 uint32
	RequestFD int32
}

// v4l2Source captures BGR24 frames from a Linux V4L2 device via mmap'd
// streaming buffers.
type v4l2Source struct {
	fd      int
	w, h    int
	bufs    [][]byte
	pending []uint32
}

// OpenV4L2 opens devicePath (e.g. "/dev/video0") and negotiates BGR24
// capture at the given resolution. It fails with
// pipelineerr.CameraOpenFailed if the device cannot be opened or
// configured, or pipelineerr.ResolutionUnsupported if the driver cannot
// deliver the requested size.
func OpenV4L2(devicePath string, width, height int) (Source, error) {
	fd, err := unix.Open(devicePath, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w: %v", devicePath, pipelineerr.CameraOpenFailed, err)
	}
	s := &v4l2Source{fd: fd}
	if err := s.setup(width, height); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return s, nil
}

func (s *v4l2Source) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(s.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (s *v4l2Source) setup(width, height int) error {
	format := v4l2Format{
		Type: v4l2BufTypeVideoCapture,
		Pix: v4l2PixFormat{
			Width:       uint32(width),
			Height:      uint32(height),
			PixelFormat: v4l2PixFmtBGR24,
			Field:       v4l2FieldNone,
		},
	}
	if err := s.ioctl(vidiocSFmt, unsafe.Pointer(&format)); err != nil {
		return fmt.Errorf("capture: VIDIOC_S_FMT: %w: %v", pipelineerr.ResolutionUnsupported, err)
	}
	if int(format.Pix.Width) != width || int(format.Pix.Height) != height {
		return fmt.Errorf("capture: negotiated %dx%d, wanted %dx%d: %w",
			format.Pix.Width, format.Pix.Height, width, height, pipelineerr.ResolutionUnsupported)
	}
	s.w, s.h = int(format.Pix.Width), int(format.Pix.Height)

	const nbuf = 4
	req := v4l2RequestBuffers{Count: nbuf, Type: v4l2BufTypeVideoCapture, Memory: v4l2MemoryMMAP}
	if err := s.ioctl(vidiocReqBufs, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("capture: VIDIOC_REQBUFS: %w: %v", pipelineerr.CameraOpenFailed, err)
	}
	for i := uint32(0); i < req.Count; i++ {
		buf := v4l2Buffer{Type: v4l2BufTypeVideoCapture, Memory: v4l2MemoryMMAP, Index: i}
		if err := s.ioctl(vidiocQueryBuf, unsafe.Pointer(&buf)); err != nil {
			return fmt.Errorf("capture: VIDIOC_QUERYBUF: %w: %v", pipelineerr.CameraOpenFailed, err)
		}
		mem, err := unix.Mmap(s.fd, int64(buf.Offset), int(buf.Length), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			return fmt.Errorf("capture: mmap buffer %d: %w: %v", i, pipelineerr.CameraOpenFailed, err)
		}
		s.bufs = append(s.bufs, mem)
		if err := s.ioctl(vidiocQBuf, unsafe.Pointer(&buf)); err != nil {
			return fmt.Errorf("capture: VIDIOC_QBUF: %w: %v", pipelineerr.CameraOpenFailed, err)
		}
	}

	typ := uint32(v4l2BufTypeVideoCapture)
	if err := s.ioctl(vidiocStreamOn, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("capture: VIDIOC_STREAMON: %w: %v", pipelineerr.CameraOpenFailed, err)
	}
	return nil
}

// Grab dequeues one streaming buffer, copies it into a bgr.Image, and
// re-queues the buffer. ok is false on a transient dequeue error.
func (s *v4l2Source) Grab() (*bgr.Image, bool) {
	deq := v4l2Buffer{Type: v4l2BufTypeVideoCapture, Memory: v4l2MemoryMMAP}
	if err := s.ioctl(vidiocDQBuf, unsafe.Pointer(&deq)); err != nil {
		return nil, false
	}
	defer s.ioctl(vidiocQBuf, unsafe.Pointer(&deq))

	raw := s.bufs[deq.Index]
	img := bgr.New(image.Rect(0, 0, s.w, s.h))
	n := s.w * s.h
	if len(raw) < n*3 {
		return nil, false
	}
	for i := 0; i < n; i++ {
		img.Pix[i] = bgr.Color{raw[i*3], raw[i*3+1], raw[i*3+2]}
	}
	return img, true
}

// Close stops streaming, unmaps buffers, and closes the device.
func (s *v4l2Source) Close() error {
	typ := uint32(v4l2BufTypeVideoCapture)
	s.ioctl(vidiocStreamOff, unsafe.Pointer(&typ))
	for _, b := range s.bufs {
		unix.Munmap(b)
	}
	return unix.Close(s.fd)
}
