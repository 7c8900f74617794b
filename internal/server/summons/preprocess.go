package summons

import (
	"context"
	"image"
	"image/color"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	minOCRWidth     = 2000
	blurSigma       = 1.1 // 5x5 kernel
	thresholdSigma  = 5.0 // 31x31 kernel
	thresholdOffset = 10
)

// preprocessImage prepares a photo or scan for OCR and writes it as PNG
// into dstDir.
func preprocessImage(ctx context.Context, ocr OCR, src, dstDir string) (string, error) {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	if img.Bounds().Dx() < minOCRWidth {
		img = imaging.Resize(img, minOCRWidth, 0, imaging.Lanczos)
	}
	gray := imaging.Grayscale(img)
	gray = imaging.Blur(gray, blurSigma)
	bin := medianFilter(adaptiveThreshold(gray))

	dst := filepath.Join(dstDir, "prepared.png")
	if err := imaging.Save(bin, dst); err != nil {
		return "", err
	}

	if ocr == nil {
		return dst, nil
	}
	angle, err := ocr.Orientation(ctx, dst)
	if err != nil {
		return dst, nil
	}
	rotated, ok := uprightImage(bin, angle)
	if !ok {
		return dst, nil
	}
	if err := imaging.Save(rotated, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// uprightImage turns img clockwise by the given quarter-turn angle, the
// correction tesseract OSD reports as "Rotate". imaging rotates
// counter-clockwise. ok is false when nothing needs to change.
func uprightImage(img image.Image, clockwise int) (image.Image, bool) {
	switch (clockwise%360 + 360) % 360 {
	case 90:
		return imaging.Rotate270(img), true
	case 180:
		return imaging.Rotate180(img), true
	case 270:
		return imaging.Rotate90(img), true
	}
	return img, false
}

// adaptiveThreshold binarises against a Gaussian-weighted local mean:
// a pixel stays white when it is brighter than mean-offset.
func adaptiveThreshold(src image.Image) *image.Gray {
	mean := imaging.Blur(src, thresholdSigma)
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := int(color.GrayModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y)
			m := int(mean.NRGBAAt(x, y).R)
			if v > m-thresholdOffset {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

func medianFilter(src *image.Gray) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(b)
	window := make([]uint8, 0, 9)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px, py := clamp(x+dx, b.Min.X, b.Max.X-1), clamp(y+dy, b.Min.Y, b.Max.Y-1)
					window = append(window, src.GrayAt(px, py).Y)
				}
			}
			for i := 1; i < len(window); i++ {
				for j := i; j > 0 && window[j] < window[j-1]; j-- {
					window[j], window[j-1] = window[j-1], window[j]
				}
			}
			out.SetGray(x, y, color.Gray{Y: window[4]})
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
