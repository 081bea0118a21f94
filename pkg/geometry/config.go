package geometry

// ImageConfig is an immutable description of an imaging plane: the unpadded
// shape delivered to the user, the padded shape used internally for
// anti-aliasing headroom, the physical pixel size, and the derived coordinate
// and frequency grids. The grids are computed once at construction and must
// be treated as read-only by callers.
type ImageConfig struct {
	// Shape is the unpadded image shape as {height, width}
	Shape [2]int

	// PaddedShape is the internal padded shape as {height, width}.
	// Each component is at least the corresponding component of Shape.
	PaddedShape [2]int

	// PixelSize is the physical size of a pixel in angstroms
	PixelSize float64

	freqGrid        [][2]float64
	paddedFreqGrid  [][2]float64
	coordGrid       [][2]float64
	paddedCoordGrid [][2]float64
}

// NewImageConfig validates the shapes and precomputes the coordinate and
// frequency grids for both the padded and unpadded planes.
func NewImageConfig(shape, paddedShape [2]int, pixelSize float64) (*ImageConfig, error) {
	if shape[0] <= 0 || shape[1] <= 0 {
		return nil, shapeErrorf("image shape must be positive, got (%d, %d)", shape[0], shape[1])
	}
	if paddedShape[0] < shape[0] || paddedShape[1] < shape[1] {
		return nil, shapeErrorf(
			"padded shape (%d, %d) must be at least the image shape (%d, %d)",
			paddedShape[0], paddedShape[1], shape[0], shape[1])
	}
	if pixelSize <= 0 {
		return nil, shapeErrorf("pixel size must be positive, got %g", pixelSize)
	}
	cfg := &ImageConfig{
		Shape:       shape,
		PaddedShape: paddedShape,
		PixelSize:   pixelSize,
	}
	cfg.freqGrid = FrequencyGrid2D(shape[0], shape[1], pixelSize)
	cfg.paddedFreqGrid = FrequencyGrid2D(paddedShape[0], paddedShape[1], pixelSize)
	cfg.coordGrid = CoordinateGrid2D(shape[0], shape[1], pixelSize)
	cfg.paddedCoordGrid = CoordinateGrid2D(paddedShape[0], paddedShape[1], pixelSize)
	return cfg, nil
}

// FrequencyGrid returns the cached half-spectrum frequency grid of the
// unpadded plane in inverse angstroms.
func (cfg *ImageConfig) FrequencyGrid() [][2]float64 {
	return cfg.freqGrid
}

// PaddedFrequencyGrid returns the cached half-spectrum frequency grid of the
// padded plane in inverse angstroms.
func (cfg *ImageConfig) PaddedFrequencyGrid() [][2]float64 {
	return cfg.paddedFreqGrid
}

// CoordinateGrid returns the cached centered coordinate grid of the unpadded
// plane in angstroms.
func (cfg *ImageConfig) CoordinateGrid() [][2]float64 {
	return cfg.coordGrid
}

// PaddedCoordinateGrid returns the cached centered coordinate grid of the
// padded plane in angstroms.
func (cfg *ImageConfig) PaddedCoordinateGrid() [][2]float64 {
	return cfg.paddedCoordGrid
}

// PaddedHalfWidth is the number of columns in the half-spectrum
// representation of the padded plane.
func (cfg *ImageConfig) PaddedHalfWidth() int {
	return HalfSpectrumWidth(cfg.PaddedShape[1])
}

// Crop center-crops a padded image down to the unpadded shape.
func (cfg *ImageConfig) Crop(im Image) (Image, error) {
	return CropToShape(im, cfg.Shape[0], cfg.Shape[1])
}

// Pad pads an unpadded image up to the padded shape.
func (cfg *ImageConfig) Pad(im Image, fill Fill) (Image, error) {
	return PadToShape(im, cfg.PaddedShape[0], cfg.PaddedShape[1], fill)
}

// FrequencyGrid2D builds the half-spectrum frequency grid for a real image
// of the given shape sampled at the given spacing. Rows are laid out in
// standard FFT order (non-negative frequencies first, then negative);
// columns carry only the non-negative frequencies of the non-redundant half
// spectrum. The entry for mode (i, j) is {fx, fy} in units of 1/spacing
// units, with the zero-frequency mode at (0, 0).
func FrequencyGrid2D(height, width int, spacing float64) [][2]float64 {
	halfWidth := HalfSpectrumWidth(width)
	grid := make([][2]float64, height*halfWidth)
	for i := 0; i < height; i++ {
		fy := float64(SignedFrequencyIndex(i, height)) / (float64(height) * spacing)
		for j := 0; j < halfWidth; j++ {
			fx := float64(j) / (float64(width) * spacing)
			grid[i*halfWidth+j] = [2]float64{fx, fy}
		}
	}
	return grid
}
