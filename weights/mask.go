// Package weights implements the offline seam-weight and overlap-mask
// builder: given one static four-camera sample, it computes, for each
// of the four corner overlap quadrants, a smooth per-pixel blend weight
// field and a binary overlap mask, and persists both for the runtime
// stitcher to load.
package weights

// mask is a binary {0, 255} single-channel image of fixed width/height,
// the Go analogue of a cv2 CV_8UC1 mask.
type mask struct {
	w, h int
	pix  []byte
}

func newMask(w, h int) *mask {
	return &mask{w: w, h: h, pix: make([]byte, w*h)}
}

func (m *mask) at(x, y int) byte {
	if x < 0 || x >= m.w || y < 0 || y >= m.h {
		return 0
	}
	return m.pix[y*m.w+x]
}

func (m *mask) set(x, y int, v byte) {
	m.pix[y*m.w+x] = v
}

// and returns the pixelwise bitwise-AND of a and b, thresholded to a
// binary {0, 255} mask: any nonzero AND result becomes 255.
func and(a, b *grayImage) *mask {
	out := newMask(a.w, a.h)
	for i := range out.pix {
		if a.pix[i]&b.pix[i] != 0 {
			out.pix[i] = 255
		}
	}
	return out
}

// nonzero thresholds a grayscale image to a binary mask: any nonzero
// sample is signal.
func nonzero(g *grayImage) *mask {
	out := newMask(g.w, g.h)
	for i, v := range g.pix {
		if v != 0 {
			out.pix[i] = 255
		}
	}
	return out
}

// sub returns a AND NOT b: pixels where a has signal and b does not,
// i.e. a \ overlap.
func sub(a *mask, overlap *mask) *mask {
	out := newMask(a.w, a.h)
	for i := range out.pix {
		if a.pix[i] != 0 && overlap.pix[i] == 0 {
			out.pix[i] = 255
		}
	}
	return out
}

// dilate grows the mask's foreground by iterations applications of a
// 2x2 structuring element (the pixel and its right/down/diagonal
// neighbors), matching cv2.dilate with a 2x2 kernel.
func dilate(m *mask, iterations int) *mask {
	cur := m
	for i := 0; i < iterations; i++ {
		next := newMask(cur.w, cur.h)
		for y := 0; y < cur.h; y++ {
			for x := 0; x < cur.w; x++ {
				v := cur.at(x, y) | cur.at(x+1, y) | cur.at(x, y+1) | cur.at(x+1, y+1)
				next.set(x, y, v)
			}
		}
		cur = next
	}
	return cur
}

// grayImage is a single-channel 8-bit image, the input tiles the
// builder operates on.
type grayImage struct {
	w, h int
	pix  []byte
}

func newGrayImage(w, h int) *grayImage {
	return &grayImage{w: w, h: h, pix: make([]byte, w*h)}
}
