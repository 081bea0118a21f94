// Package geometry provides the array value types and grid bookkeeping used
// throughout the simulation pipeline: real images and volumes stored as flat
// row-major arrays, complex half-spectrum images, centered coordinate grids,
// Fourier frequency grids, and the crop/pad/resize operations that move data
// between padded and unpadded imaging planes.
package geometry

// Image is a 2D real-valued image stored as a flat row-major array.
// The pixel at row y, column x lives at Data[y*Width+x].
type Image struct {
	// Data holds the pixel values in row-major order
	Data []float64

	// Height and Width are the image dimensions in pixels
	Height int
	Width  int
}

// NewImage allocates a zero-filled image with the given dimensions.
func NewImage(height, width int) Image {
	return Image{
		Data:   make([]float64, height*width),
		Height: height,
		Width:  width,
	}
}

// At returns the pixel value at row y, column x.
func (im Image) At(y, x int) float64 {
	return im.Data[y*im.Width+x]
}

// Set assigns the pixel value at row y, column x.
func (im Image) Set(y, x int, v float64) {
	im.Data[y*im.Width+x] = v
}

// Clone returns a deep copy of the image.
func (im Image) Clone() Image {
	out := NewImage(im.Height, im.Width)
	copy(out.Data, im.Data)
	return out
}

// ComplexImage is a 2D complex-valued image stored as a flat row-major array.
// It is used both for full Fourier spectra and for the non-redundant
// half-spectrum representation of a real signal, where Width is the number of
// retained columns (fullWidth/2 + 1) and the zero-frequency mode sits at
// index (0, 0).
type ComplexImage struct {
	// Data holds the complex values in row-major order
	Data []complex128

	// Height and Width are the array dimensions
	Height int
	Width  int
}

// NewComplexImage allocates a zero-filled complex image.
func NewComplexImage(height, width int) ComplexImage {
	return ComplexImage{
		Data:   make([]complex128, height*width),
		Height: height,
		Width:  width,
	}
}

// At returns the value at row y, column x.
func (im ComplexImage) At(y, x int) complex128 {
	return im.Data[y*im.Width+x]
}

// Set assigns the value at row y, column x.
func (im ComplexImage) Set(y, x int, v complex128) {
	im.Data[y*im.Width+x] = v
}

// Clone returns a deep copy of the complex image.
func (im ComplexImage) Clone() ComplexImage {
	out := NewComplexImage(im.Height, im.Width)
	copy(out.Data, im.Data)
	return out
}

// Volume is a 3D real-valued volume stored as a flat row-major array.
// The voxel at depth z, row y, column x lives at Data[(z*Height+y)*Width+x].
type Volume struct {
	// Data holds the voxel values in row-major order
	Data []float64

	// Depth, Height and Width are the volume dimensions in voxels
	Depth  int
	Height int
	Width  int
}

// NewVolume allocates a zero-filled volume with the given dimensions.
func NewVolume(depth, height, width int) Volume {
	return Volume{
		Data:   make([]float64, depth*height*width),
		Depth:  depth,
		Height: height,
		Width:  width,
	}
}

// At returns the voxel value at depth z, row y, column x.
func (v Volume) At(z, y, x int) float64 {
	return v.Data[(z*v.Height+y)*v.Width+x]
}

// Set assigns the voxel value at depth z, row y, column x.
func (v Volume) Set(z, y, x int, val float64) {
	v.Data[(z*v.Height+y)*v.Width+x] = val
}

// Clone returns a deep copy of the volume.
func (v Volume) Clone() Volume {
	out := NewVolume(v.Depth, v.Height, v.Width)
	copy(out.Data, v.Data)
	return out
}

// CoordinateGrid2D builds the centered real-space coordinate grid for an
// image plane. The entry for row y, column x is {x_coord, y_coord} with
// x_coord = (x - width/2) * spacing, so the coordinate origin sits on the
// pixel at (height/2, width/2).
func CoordinateGrid2D(height, width int, spacing float64) [][2]float64 {
	grid := make([][2]float64, height*width)
	for y := 0; y < height; y++ {
		yc := float64(y-height/2) * spacing
		for x := 0; x < width; x++ {
			grid[y*width+x] = [2]float64{float64(x-width/2) * spacing, yc}
		}
	}
	return grid
}

// CoordinateGrid3D builds the centered real-space coordinate grid for a
// volume. The entry for voxel (z, y, x) is {x_coord, y_coord, z_coord},
// in the same row-major order as Volume.Data.
func CoordinateGrid3D(depth, height, width int, spacing float64) [][3]float64 {
	grid := make([][3]float64, depth*height*width)
	for z := 0; z < depth; z++ {
		zc := float64(z-depth/2) * spacing
		for y := 0; y < height; y++ {
			yc := float64(y-height/2) * spacing
			for x := 0; x < width; x++ {
				grid[(z*height+y)*width+x] = [3]float64{float64(x-width/2) * spacing, yc, zc}
			}
		}
	}
	return grid
}

// HalfSpectrumWidth returns the number of non-redundant columns in the
// half-spectrum representation of a real signal with fullWidth samples
// along the second axis.
func HalfSpectrumWidth(fullWidth int) int {
	return fullWidth/2 + 1
}

// SignedFrequencyIndex maps an array index in standard FFT ordering to its
// signed frequency index: 0, 1, ..., n/2-1, -n/2, ..., -1 for even n.
func SignedFrequencyIndex(i, n int) int {
	if i < (n+1)/2 {
		return i
	}
	return i - n
}

// RescaleFrequencies returns a copy of a frequency grid with every component
// multiplied by the given factor. It is used to re-express frequencies when
// the sampling rate changes, e.g. from the specimen resolution to the
// physical pixel size of the detector.
func RescaleFrequencies(freqs [][2]float64, factor float64) [][2]float64 {
	out := make([][2]float64, len(freqs))
	for i, f := range freqs {
		out[i] = [2]float64{f[0] * factor, f[1] * factor}
	}
	return out
}
