// Package integrator turns a volumetric scattering potential into a 2D
// complex Fourier-space projection on the padded imaging plane. The
// projection direction is the z axis: only the x and y coordinates of the
// potential enter the transform, so projecting is summing the potential
// along z.
package integrator

import (
	"fmt"
	"math"

	"cryosim/pkg/geometry"
	"cryosim/pkg/nufft"
	"cryosim/pkg/potential"
	"cryosim/pkg/spectrum"
)

// UnsupportedPotentialError reports an integrator being handed a potential
// representation it does not understand.
type UnsupportedPotentialError struct {
	Got potential.Potential
}

func (e *UnsupportedPotentialError) Error() string {
	return fmt.Sprintf("integrator: unsupported potential representation %T; "+
		"supported representations are VoxelGrid and VoxelCloud", e.Got)
}

// NufftProjector integrates a potential onto the imaging plane with a
// type-1 non-uniform Fourier transform, producing the exact half spectrum of
// the projected potential at the padded shape.
type NufftProjector struct {
	// Config describes the target imaging plane
	Config *geometry.ImageConfig

	// Eps is the requested transform precision. The direct evaluation in
	// pkg/nufft is exact, so this is kept for interface compatibility with
	// approximate NUFFT backends.
	Eps float64
}

// NewNufftProjector creates a projector for the given imaging plane.
func NewNufftProjector(cfg *geometry.ImageConfig) *NufftProjector {
	return &NufftProjector{Config: cfg, Eps: 1e-6}
}

// Project computes the Fourier-space projection of a potential. The result
// is the non-redundant half spectrum at the padded shape, rescaled from the
// potential's voxel size to the detector pixel size, with the zero-frequency
// mode at index (0, 0) and Nyquist-ambiguous bins zeroed for even
// dimensions.
func (p *NufftProjector) Project(pot potential.Potential) (geometry.ComplexImage, error) {
	switch v := pot.(type) {
	case *potential.VoxelGrid:
		vol := v.Weights()
		weights := make([]complex128, len(vol.Data))
		for i, w := range vol.Data {
			weights[i] = complex(w, 0)
		}
		return p.projectPoints(weights, v.Coordinates(), v.VoxelSize())
	case *potential.VoxelCloud:
		weights := make([]complex128, v.NumPoints())
		for i, w := range v.Weights() {
			weights[i] = complex(w, 0)
		}
		return p.projectPoints(weights, v.Coordinates(), v.VoxelSize())
	default:
		return geometry.ComplexImage{}, &UnsupportedPotentialError{Got: pot}
	}
}

// projectPoints runs the shared point-cloud path: normalize coordinates into
// the periodic NUFFT domain, evaluate the type-1 transform, reduce to the
// half spectrum, zero the Nyquist-ambiguous bins, and rescale to the
// detector pixel size.
func (p *NufftProjector) projectPoints(weights []complex128, coords [][3]float64, voxelSize float64) (geometry.ComplexImage, error) {
	m1, m2 := p.Config.PaddedShape[0], p.Config.PaddedShape[1]

	// Real-space x and y map to the NUFFT's periodic domain as
	// 2*pi*coord/image_size per axis; z is the projection direction and is
	// dropped.
	rowCoords := make([]float64, len(coords))
	colCoords := make([]float64, len(coords))
	for j, c := range coords {
		colCoords[j] = 2 * math.Pi * c[0] / float64(m2)
		rowCoords[j] = 2 * math.Pi * c[1] / float64(m1)
	}

	full, err := nufft.Type1(m1, m2, weights, rowCoords, colCoords, -1)
	if err != nil {
		return geometry.ComplexImage{}, err
	}

	// Shift the zero-frequency mode to the corner, then keep the
	// non-redundant columns [0, m2/2].
	shifted := spectrum.IFFTShift(full)
	halfWidth := geometry.HalfSpectrumWidth(m2)
	proj := geometry.NewComplexImage(m1, halfWidth)
	for y := 0; y < m1; y++ {
		copy(proj.Data[y*halfWidth:(y+1)*halfWidth], shifted.Data[y*m2:y*m2+halfWidth])
	}
	zeroNyquist(proj, m1, m2)

	// Rescale from the potential's native voxel size to the detector pixel
	// size. The resampling can repopulate Nyquist bins, so they are zeroed
	// again afterwards.
	if voxelSize != p.Config.PixelSize {
		proj = spectrum.RescaleToPixelSize(proj, m2, voxelSize, p.Config.PixelSize)
		zeroNyquist(proj, m1, m2)
	}
	return proj, nil
}

// zeroNyquist clears the bins whose imaginary part is not representable in
// the half spectrum of a real signal: the last column when the full width is
// even, and the m1/2 row when the height is even.
func zeroNyquist(proj geometry.ComplexImage, m1, m2 int) {
	if m2%2 == 0 {
		for y := 0; y < proj.Height; y++ {
			proj.Data[y*proj.Width+proj.Width-1] = 0
		}
	}
	if m1%2 == 0 {
		row := m1 / 2
		for x := 0; x < proj.Width; x++ {
			proj.Data[row*proj.Width+x] = 0
		}
	}
}
