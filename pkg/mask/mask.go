// Package mask builds multiplicative real-space masks with cosine soft
// edges from coordinate grids. A mask is an immutable buffer of per-pixel
// weights in [0, 1], computed once at construction from a small set of
// scalar parameters and applied by elementwise multiplication. The buffer is
// a fixed constant at application time: reparameterizing a mask means
// constructing a new one.
package mask

import (
	"fmt"
	"math"

	"cryosim/pkg/geometry"
)

// Mask is a multiplicative image operator backed by a precomputed buffer.
type Mask interface {
	// Apply multiplies an image elementwise by the mask buffer.
	Apply(im geometry.Image) (geometry.Image, error)

	// Buffer returns the underlying weight buffer. Read-only.
	Buffer() geometry.Image
}

// CircularCosine is a circular mask with a half-cosine taper over the
// rolloff band: weight 1 inside the radius, 0 beyond radius+rolloff, and
// 0.5*(1+cos(pi*(r-radius)/rolloff)) in between.
type CircularCosine struct {
	buffer  geometry.Image
	Radius  float64
	Rolloff float64
}

// NewCircularCosine computes the mask buffer over the given coordinate grid.
// The grid must contain height*width entries of {x, y} coordinates in the
// same units as radius and rolloff.
func NewCircularCosine(coords [][2]float64, height, width int, radius, rolloff float64) (*CircularCosine, error) {
	if len(coords) != height*width {
		return nil, fmt.Errorf(
			"mask: coordinate grid length %d does not match shape (%d, %d)",
			len(coords), height, width)
	}
	buffer := geometry.NewImage(height, width)
	for i, c := range coords {
		buffer.Data[i] = radialTaper(math.Hypot(c[0], c[1]), radius, rolloff)
	}
	return &CircularCosine{buffer: buffer, Radius: radius, Rolloff: rolloff}, nil
}

// Apply multiplies the image by the mask buffer.
func (m *CircularCosine) Apply(im geometry.Image) (geometry.Image, error) {
	return applyBuffer(m.buffer, im)
}

// Buffer returns the weight buffer. Read-only.
func (m *CircularCosine) Buffer() geometry.Image { return m.buffer }

// SquareCosine is a square mask with an independent half-cosine taper on
// each axis. Inside the core square the weight is 1; in a single axis's soft
// band it is that axis's taper; where both soft bands overlap it is the
// product of the two tapers; beyond the padded square it is 0.
type SquareCosine struct {
	buffer     geometry.Image
	SideLength float64
	Rolloff    float64
}

// NewSquareCosine computes the separable square mask buffer over the given
// coordinate grid.
func NewSquareCosine(coords [][2]float64, height, width int, sideLength, rolloff float64) (*SquareCosine, error) {
	if len(coords) != height*width {
		return nil, fmt.Errorf(
			"mask: coordinate grid length %d does not match shape (%d, %d)",
			len(coords), height, width)
	}
	half := sideLength / 2
	buffer := geometry.NewImage(height, width)
	for i, c := range coords {
		x, y := math.Abs(c[0]), math.Abs(c[1])
		switch {
		case x <= half && y <= half:
			buffer.Data[i] = 1
		case x > half+rolloff || y > half+rolloff:
			buffer.Data[i] = 0
		default:
			inBandX := x > half && x < half+rolloff
			inBandY := y > half && y < half+rolloff
			switch {
			case inBandX && inBandY:
				buffer.Data[i] = axisTaper(x, half, rolloff) * axisTaper(y, half, rolloff)
			case inBandX:
				buffer.Data[i] = axisTaper(x, half, rolloff)
			default:
				buffer.Data[i] = axisTaper(y, half, rolloff)
			}
		}
	}
	return &SquareCosine{buffer: buffer, SideLength: sideLength, Rolloff: rolloff}, nil
}

// Apply multiplies the image by the mask buffer.
func (m *SquareCosine) Apply(im geometry.Image) (geometry.Image, error) {
	return applyBuffer(m.buffer, im)
}

// Buffer returns the weight buffer. Read-only.
func (m *SquareCosine) Buffer() geometry.Image { return m.buffer }

// Custom wraps a caller-provided buffer verbatim.
type Custom struct {
	buffer geometry.Image
}

// NewCustom wraps the given buffer without copying or validating its values.
func NewCustom(buffer geometry.Image) *Custom {
	return &Custom{buffer: buffer}
}

// Apply multiplies the image by the wrapped buffer.
func (m *Custom) Apply(im geometry.Image) (geometry.Image, error) {
	return applyBuffer(m.buffer, im)
}

// Buffer returns the wrapped buffer. Read-only.
func (m *Custom) Buffer() geometry.Image { return m.buffer }

// SphericalCosine is the volumetric counterpart of CircularCosine, applied
// to volumes rather than images.
type SphericalCosine struct {
	buffer  geometry.Volume
	Radius  float64
	Rolloff float64
}

// NewSphericalCosine computes the spherical mask buffer over a volume
// coordinate grid of {x, y, z} triples.
func NewSphericalCosine(coords [][3]float64, depth, height, width int, radius, rolloff float64) (*SphericalCosine, error) {
	if len(coords) != depth*height*width {
		return nil, fmt.Errorf(
			"mask: coordinate grid length %d does not match shape (%d, %d, %d)",
			len(coords), depth, height, width)
	}
	buffer := geometry.NewVolume(depth, height, width)
	for i, c := range coords {
		r := math.Sqrt(c[0]*c[0] + c[1]*c[1] + c[2]*c[2])
		buffer.Data[i] = radialTaper(r, radius, rolloff)
	}
	return &SphericalCosine{buffer: buffer, Radius: radius, Rolloff: rolloff}, nil
}

// Apply multiplies a volume by the mask buffer.
func (m *SphericalCosine) Apply(vol geometry.Volume) (geometry.Volume, error) {
	if vol.Depth != m.buffer.Depth || vol.Height != m.buffer.Height || vol.Width != m.buffer.Width {
		return geometry.Volume{}, &geometry.ShapeError{
			Msg: fmt.Sprintf("mask: volume shape (%d, %d, %d) does not match buffer shape (%d, %d, %d)",
				vol.Depth, vol.Height, vol.Width, m.buffer.Depth, m.buffer.Height, m.buffer.Width),
		}
	}
	out := geometry.NewVolume(vol.Depth, vol.Height, vol.Width)
	for i := range vol.Data {
		out.Data[i] = vol.Data[i] * m.buffer.Data[i]
	}
	return out, nil
}

// Buffer returns the weight buffer. Read-only.
func (m *SphericalCosine) Buffer() geometry.Volume { return m.buffer }

// radialTaper is the half-cosine rolloff shared by the circular and
// spherical masks: 1 up to the radius, 0 beyond radius+rolloff, cosine
// tapered in between.
func radialTaper(r, radius, rolloff float64) float64 {
	switch {
	case r <= radius:
		return 1
	case r > radius+rolloff:
		return 0
	default:
		return 0.5 * (1 + math.Cos(math.Pi*(r-radius)/rolloff))
	}
}

// axisTaper is the per-axis half-cosine used by the square mask, evaluated
// on the absolute coordinate inside the soft band (half, half+rolloff).
func axisTaper(v, half, rolloff float64) float64 {
	return 0.5 * (1 + math.Cos(math.Pi*(v-half)/rolloff))
}

func applyBuffer(buffer, im geometry.Image) (geometry.Image, error) {
	if im.Height != buffer.Height || im.Width != buffer.Width {
		return geometry.Image{}, &geometry.ShapeError{
			Msg: fmt.Sprintf("mask: image shape (%d, %d) does not match buffer shape (%d, %d)",
				im.Height, im.Width, buffer.Height, buffer.Width),
		}
	}
	out := geometry.NewImage(im.Height, im.Width)
	for i := range im.Data {
		out.Data[i] = im.Data[i] * buffer.Data[i]
	}
	return out, nil
}
