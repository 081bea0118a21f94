// Package spectrum implements the Fourier-space bookkeeping shared by the
// projection and noise models: forward and inverse transforms between real
// images and their non-redundant half-spectrum representation, full complex
// transforms, the zero-frequency shift, frequency-domain resampling between
// voxel and pixel sizes, and Parseval-consistent power sums.
//
// Half-spectrum convention: a real image of shape (H, W) transforms to a
// complex array of shape (H, W/2+1) with rows in standard FFT order and the
// zero-frequency mode at index (0, 0).
package spectrum

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"

	"cryosim/pkg/geometry"
)

// RFFT2 computes the 2D Fourier transform of a real image, returning the
// non-redundant half spectrum. Rows are transformed with the real-input FFT
// from gonum, columns with a full complex FFT.
func RFFT2(im geometry.Image) geometry.ComplexImage {
	halfWidth := geometry.HalfSpectrumWidth(im.Width)
	out := geometry.NewComplexImage(im.Height, halfWidth)

	// Row-wise real FFT
	rowFFT := fourier.NewFFT(im.Width)
	rowOut := make([]complex128, halfWidth)
	for y := 0; y < im.Height; y++ {
		rowFFT.Coefficients(rowOut, im.Data[y*im.Width:(y+1)*im.Width])
		copy(out.Data[y*halfWidth:(y+1)*halfWidth], rowOut)
	}

	// Column-wise complex FFT
	col := make([]complex128, im.Height)
	for x := 0; x < halfWidth; x++ {
		for y := 0; y < im.Height; y++ {
			col[y] = out.Data[y*halfWidth+x]
		}
		colOut := fft.FFT(col)
		for y := 0; y < im.Height; y++ {
			out.Data[y*halfWidth+x] = colOut[y]
		}
	}
	return out
}

// IRFFT2 computes the inverse transform of a half spectrum back to a real
// image of the given shape. The transform is normalized so that
// IRFFT2(RFFT2(im)) == im up to rounding.
func IRFFT2(spec geometry.ComplexImage, height, width int) (geometry.Image, error) {
	halfWidth := geometry.HalfSpectrumWidth(width)
	if spec.Height != height || spec.Width != halfWidth {
		return geometry.Image{}, &geometry.ShapeError{
			Msg: "half spectrum shape does not match the requested image shape",
		}
	}

	// Column-wise inverse complex FFT (normalized by the height)
	work := spec.Clone()
	col := make([]complex128, height)
	for x := 0; x < halfWidth; x++ {
		for y := 0; y < height; y++ {
			col[y] = work.Data[y*halfWidth+x]
		}
		colOut := fft.IFFT(col)
		for y := 0; y < height; y++ {
			work.Data[y*halfWidth+x] = colOut[y]
		}
	}

	// Row-wise inverse real FFT. gonum's Sequence is unnormalized, so each
	// row is scaled by 1/width afterwards.
	out := geometry.NewImage(height, width)
	rowFFT := fourier.NewFFT(width)
	rowIn := make([]complex128, halfWidth)
	for y := 0; y < height; y++ {
		copy(rowIn, work.Data[y*halfWidth:(y+1)*halfWidth])
		rowFFT.Sequence(out.Data[y*width:(y+1)*width], rowIn)
	}
	scale := 1.0 / float64(width)
	for i := range out.Data {
		out.Data[i] *= scale
	}
	return out, nil
}

// FFT2 computes the full 2D Fourier transform of a complex image.
func FFT2(im geometry.ComplexImage) geometry.ComplexImage {
	return applyFull2D(im, fft.FFT2)
}

// IFFT2 computes the full 2D inverse Fourier transform of a complex image.
func IFFT2(im geometry.ComplexImage) geometry.ComplexImage {
	return applyFull2D(im, fft.IFFT2)
}

func applyFull2D(im geometry.ComplexImage, transform func([][]complex128) [][]complex128) geometry.ComplexImage {
	rows := make([][]complex128, im.Height)
	for y := 0; y < im.Height; y++ {
		rows[y] = im.Data[y*im.Width : (y+1)*im.Width]
	}
	result := transform(rows)
	out := geometry.NewComplexImage(im.Height, im.Width)
	for y := 0; y < im.Height; y++ {
		copy(out.Data[y*im.Width:(y+1)*im.Width], result[y])
	}
	return out
}

// IFFTShift moves the zero-frequency component of a centered full spectrum
// to the array corner. It is the inverse of the usual fftshift and the two
// differ for odd dimensions.
func IFFTShift(im geometry.ComplexImage) geometry.ComplexImage {
	out := geometry.NewComplexImage(im.Height, im.Width)
	for y := 0; y < im.Height; y++ {
		srcY := (y + im.Height/2) % im.Height
		for x := 0; x < im.Width; x++ {
			srcX := (x + im.Width/2) % im.Width
			out.Data[y*im.Width+x] = im.Data[srcY*im.Width+srcX]
		}
	}
	return out
}

// RescaleToPixelSize resamples a half spectrum from its native sampling
// (currentSize, e.g. the voxel size of a potential) to a target sampling
// (targetSize, the detector pixel size). By the Fourier scaling theorem the
// target mode k' reads the source spectrum at index k'*currentSize/targetSize
// and the amplitude picks up a factor (currentSize/targetSize)^2 in two
// dimensions. Off-grid reads are bilinearly interpolated; frequencies beyond
// the source band are treated as zero. fullWidth is the width of the
// real-space image the half spectrum represents.
func RescaleToPixelSize(spec geometry.ComplexImage, fullWidth int, currentSize, targetSize float64) geometry.ComplexImage {
	if currentSize == targetSize {
		return spec.Clone()
	}
	height := spec.Height
	halfWidth := spec.Width
	scale := currentSize / targetSize
	amplitude := complex(scale*scale, 0)

	out := geometry.NewComplexImage(height, halfWidth)
	for i := 0; i < height; i++ {
		// Fractional source row in signed frequency index space
		rowFreq := float64(geometry.SignedFrequencyIndex(i, height)) * scale
		r0 := math.Floor(rowFreq)
		rw := rowFreq - r0
		for j := 0; j < halfWidth; j++ {
			colFreq := float64(j) * scale
			c0 := math.Floor(colFreq)
			cw := colFreq - c0

			v00 := sampleHalfSpectrum(spec, int(r0), int(c0), height, fullWidth)
			v01 := sampleHalfSpectrum(spec, int(r0), int(c0)+1, height, fullWidth)
			v10 := sampleHalfSpectrum(spec, int(r0)+1, int(c0), height, fullWidth)
			v11 := sampleHalfSpectrum(spec, int(r0)+1, int(c0)+1, height, fullWidth)

			low := v00*complex(1-cw, 0) + v01*complex(cw, 0)
			high := v10*complex(1-cw, 0) + v11*complex(cw, 0)
			out.Data[i*halfWidth+j] = amplitude * (low*complex(1-rw, 0) + high*complex(rw, 0))
		}
	}
	return out
}

// sampleHalfSpectrum reads the half spectrum at a signed row frequency index
// and a non-negative column index, returning zero outside the stored band.
func sampleHalfSpectrum(spec geometry.ComplexImage, rowIndex, colIndex, height, fullWidth int) complex128 {
	if rowIndex < -(height / 2) || rowIndex > (height-1)/2 {
		return 0
	}
	if colIndex < 0 || colIndex > fullWidth/2 || colIndex >= spec.Width {
		return 0
	}
	row := rowIndex
	if row < 0 {
		row += height
	}
	if row < 0 || row >= height {
		return 0
	}
	return spec.Data[row*spec.Width+colIndex]
}

// TotalPower sums the squared modulus of a half spectrum with the Hermitian
// double counting of interior columns, divided by the pixel count. By
// Parseval's theorem this equals the sum of squares of the real-space image.
func TotalPower(spec geometry.ComplexImage, fullWidth int) float64 {
	power := 0.0
	for y := 0; y < spec.Height; y++ {
		for x := 0; x < spec.Width; x++ {
			v := spec.Data[y*spec.Width+x]
			p := real(v)*real(v) + imag(v)*imag(v)
			if x > 0 && !(fullWidth%2 == 0 && x == spec.Width-1) {
				// Interior columns stand in for a conjugate pair.
				p *= 2
			}
			power += p
		}
	}
	return power / float64(spec.Height*fullWidth)
}

// Normalize rescales a half spectrum in place so that its real-space
// counterpart has zero mean and unit standard deviation: the zero mode is
// cleared and every mode is divided by the standard deviation obtained from
// the total power. fullWidth is the width of the real-space image.
func Normalize(spec geometry.ComplexImage, fullWidth int) error {
	n := float64(spec.Height * fullWidth)
	mean := real(spec.Data[0]) / n
	variance := TotalPower(spec, fullWidth)/n - mean*mean
	if variance <= 0 {
		return fmt.Errorf("spectrum: cannot normalize a spectrum with zero power")
	}
	inv := complex(1/math.Sqrt(variance), 0)
	spec.Data[0] = 0
	for i := range spec.Data {
		spec.Data[i] *= inv
	}
	return nil
}
