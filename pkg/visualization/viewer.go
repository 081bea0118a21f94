package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"cryosim/internal/models"
	"cryosim/pkg/geometry"
)

// Viewer renders simulated particle images to grayscale files. Pixel values
// are mapped linearly from the image's own value range, so both noiseless
// renders and noisy samples come out with full contrast.
type Viewer struct {
	// quality is the JPEG encoding quality
	quality int
}

// NewViewer creates a viewer with default encoding settings.
func NewViewer() *Viewer {
	return &Viewer{quality: 90}
}

// GrayImage converts an image to 16-bit grayscale, stretching its value
// range to full scale. A constant image maps to mid-gray.
func (v *Viewer) GrayImage(im geometry.Image) *image.Gray16 {
	lo, hi := im.Data[0], im.Data[0]
	for _, val := range im.Data {
		if val < lo {
			lo = val
		}
		if val > hi {
			hi = val
		}
	}

	img := image.NewGray16(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			var scaled float64
			if hi > lo {
				scaled = (im.At(y, x) - lo) / (hi - lo)
			} else {
				scaled = 0.5
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(scaled * 65535)})
		}
	}
	return img
}

// SaveImage saves an image as a JPEG file.
func (v *Viewer) SaveImage(im geometry.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, v.GrayImage(im), &jpeg.Options{Quality: v.quality})
}

// SaveStack saves every particle in a stack to the output directory, one
// file per particle in stack order.
func (v *Viewer) SaveStack(stack *models.ParticleStack, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for _, p := range stack.Particles {
		filename := filepath.Join(outputDir, fmt.Sprintf("particle_%03d.jpg", p.Index))
		if err := v.SaveImage(p.Image, filename); err != nil {
			return fmt.Errorf("saving particle %d: %w", p.Index, err)
		}
	}
	return nil
}
