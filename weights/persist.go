package weights

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"birdseye.dev/pipelineerr"
)

// channelOffset maps quadrant index k to its byte offset within an
// image.NRGBA pixel (R, G, B, A physical order), packing the four
// quadrants as B, G, R, A per the weight/mask document layout.
var channelOffset = [4]int{2, 1, 0, 3}

// Save writes t's weight fields and overlap masks as two four-channel
// PNGs: weightsPath holds round(G_k*255) per channel, masksPath holds
// M_k in {0, 255} per channel.
func (t *Tiles) Save(weightsPath, masksPath string) error {
	w, h := t.Weight[0].W, t.Weight[0].H
	weightImg := image.NewNRGBA(image.Rect(0, 0, w, h))
	maskImg := image.NewNRGBA(image.Rect(0, 0, w, h))
	for k := 0; k < 4; k++ {
		off := channelOffset[k]
		gf := t.Weight[k]
		mf := t.Mask[k]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := weightImg.PixOffset(x, y)
				weightImg.Pix[i+off] = round255(gf.at(x, y))
				if mf.M[y*w+x] {
					maskImg.Pix[i+off] = 255
				} else {
					maskImg.Pix[i+off] = 0
				}
			}
		}
	}
	if err := writePNG(weightsPath, weightImg); err != nil {
		return err
	}
	return writePNG(masksPath, maskImg)
}

// Load reads a weight/mask document persisted by Save.
func Load(weightsPath, masksPath string) (*Tiles, error) {
	weightImg, err := readPNG(weightsPath)
	if err != nil {
		return nil, err
	}
	maskImg, err := readPNG(masksPath)
	if err != nil {
		return nil, err
	}
	if weightImg.Bounds() != maskImg.Bounds() {
		return nil, fmt.Errorf("weights: weights/masks size mismatch: %w", pipelineerr.ConfigInvalid)
	}
	w, h := weightImg.Bounds().Dx(), weightImg.Bounds().Dy()

	var t Tiles
	for k := 0; k < 4; k++ {
		off := channelOffset[k]
		gf := &WeightField{W: w, H: h, G: make([]float64, w*h)}
		mf := &OverlapMask{W: w, H: h, M: make([]bool, w*h)}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := weightImg.PixOffset(x, y)
				gf.set(x, y, float64(weightImg.Pix[i+off])/255)
				mf.M[y*w+x] = maskImg.Pix[i+off] != 0
			}
		}
		t.Weight[k] = gf
		t.Mask[k] = mf
	}
	return &t, nil
}

func round255(v float64) byte {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return byte(v*255 + 0.5)
}

func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("weights: write %q: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("weights: encode %q: %w", path, err)
	}
	return nil
}

func readPNG(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("weights: read %q: %w", path, pipelineerr.ConfigMissing)
		}
		return nil, fmt.Errorf("weights: read %q: %w", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("weights: decode %q: %w", path, pipelineerr.ConfigInvalid)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		b := img.Bounds()
		n := image.NewNRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				n.Set(x, y, img.At(x, y))
			}
		}
		nrgba = n
	}
	return nrgba, nil
}
