// Package optics models the instrument side of image formation: the
// microscope's contrast transfer function, the electron exposure, and the
// detector that pixelizes the specimen image and contributes readout noise.
// Transfer functions are evaluated on the half-spectrum frequency grids
// produced by pkg/geometry.
package optics

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"cryosim/pkg/geometry"
	"cryosim/pkg/spectrum"
)

// FourierOperator is a real-valued multiplicative operator in Fourier
// space, evaluated pointwise on a frequency grid of {fx, fy} pairs.
type FourierOperator interface {
	Evaluate(freqs [][2]float64) []float64
}

// NullOptics is an aberration-free instrument: a transfer function of ones.
type NullOptics struct{}

// Evaluate returns a flat transfer function.
func (NullOptics) Evaluate(freqs [][2]float64) []float64 {
	out := make([]float64, len(freqs))
	for i := range out {
		out[i] = 1
	}
	return out
}

// CTF is the weak-phase contrast transfer function of a defocused electron
// microscope, with astigmatic defocus, spherical aberration, amplitude
// contrast and an additional phase shift.
type CTF struct {
	// DefocusU and DefocusV are the major and minor astigmatic defocus
	// values in angstroms; positive is underfocus.
	DefocusU float64
	DefocusV float64

	// AstigmatismAngle is the major axis angle in radians
	AstigmatismAngle float64

	// VoltageKV is the accelerating voltage in kilovolts
	VoltageKV float64

	// SphericalAberration is the Cs coefficient in millimeters
	SphericalAberration float64

	// AmplitudeContrast is the amplitude contrast ratio in [0, 1]
	AmplitudeContrast float64

	// PhaseShift is an additional constant phase in radians, e.g. from a
	// phase plate
	PhaseShift float64
}

// Evaluate computes the CTF value at every mode of the frequency grid. The
// frequencies must be in inverse angstroms.
func (c CTF) Evaluate(freqs [][2]float64) []float64 {
	lambda := electronWavelength(c.VoltageKV)
	csAngstroms := c.SphericalAberration * 1e7
	w := c.AmplitudeContrast
	amplitudeTerm := math.Sqrt(1 - w*w)

	out := make([]float64, len(freqs))
	for i, f := range freqs {
		k2 := f[0]*f[0] + f[1]*f[1]
		theta := math.Atan2(f[1], f[0])
		defocus := 0.5 * (c.DefocusU + c.DefocusV +
			(c.DefocusU-c.DefocusV)*math.Cos(2*(theta-c.AstigmatismAngle)))
		gamma := math.Pi*lambda*defocus*k2 -
			0.5*math.Pi*csAngstroms*lambda*lambda*lambda*k2*k2 +
			c.PhaseShift
		out[i] = -(amplitudeTerm*math.Sin(gamma) + w*math.Cos(gamma))
	}
	return out
}

// electronWavelength returns the relativistic electron wavelength in
// angstroms for an accelerating voltage in kilovolts.
func electronWavelength(voltageKV float64) float64 {
	v := voltageKV * 1e3
	return 12.2643247 / math.Sqrt(v*(1+v*0.978466e-6))
}

// LowpassFilter passes frequencies up to the cutoff unchanged and tapers
// them to zero with a half-cosine over the rolloff band, in inverse
// angstroms. It is meant to be used in the pipeline's filter chain, before
// cropping.
type LowpassFilter struct {
	Cutoff  float64
	Rolloff float64
}

// Evaluate computes the radial lowpass response at every mode.
func (f LowpassFilter) Evaluate(freqs [][2]float64) []float64 {
	out := make([]float64, len(freqs))
	for i, fr := range freqs {
		k := math.Hypot(fr[0], fr[1])
		switch {
		case k <= f.Cutoff:
			out[i] = 1
		case k > f.Cutoff+f.Rolloff:
			out[i] = 0
		default:
			out[i] = 0.5 * (1 + math.Cos(math.Pi*(k-f.Cutoff)/f.Rolloff))
		}
	}
	return out
}

// Exposure scales the Fourier-space specimen image by the integrated
// electron dose and adds a constant real-space offset through the zero
// mode.
type Exposure struct {
	Scaling float64
	Offset  float64
}

// NewUniformExposure returns the neutral exposure.
func NewUniformExposure() Exposure {
	return Exposure{Scaling: 1, Offset: 0}
}

// ApplySpectrum returns a scaled copy of the half spectrum with the offset
// folded into the zero mode. nPixels is the real-space pixel count of the
// plane the spectrum represents.
func (e Exposure) ApplySpectrum(spec geometry.ComplexImage, nPixels int) geometry.ComplexImage {
	out := geometry.NewComplexImage(spec.Height, spec.Width)
	scale := complex(e.Scaling, 0)
	for i, v := range spec.Data {
		out.Data[i] = v * scale
	}
	out.Data[0] += complex(e.Offset*float64(nPixels), 0)
	return out
}

// Detector abstracts the camera: an optional physical pixel size, the
// resampling of the specimen image onto the detector plane, and a
// stochastic readout.
type Detector interface {
	// PixelSize returns the physical pixel size in angstroms, or 0 when
	// the detector does not define one and the specimen resolution should
	// be used instead.
	PixelSize() float64

	// Pixelize resamples an image from the given resolution onto the
	// detector pixel size.
	Pixelize(im geometry.Image, resolution float64) (geometry.Image, error)

	// Sample draws one realization of the readout noise for the given
	// image. freqs is the frequency grid at the detector pixel size, for
	// detectors with a frequency-dependent response.
	Sample(src rand.Source, freqs [][2]float64, im geometry.Image) (geometry.Image, error)
}

// NullDetector is a noiseless, perfectly matched detector.
type NullDetector struct{}

// PixelSize reports no physical pixel size.
func (NullDetector) PixelSize() float64 { return 0 }

// Pixelize returns the image unchanged.
func (NullDetector) Pixelize(im geometry.Image, resolution float64) (geometry.Image, error) {
	return im.Clone(), nil
}

// Sample returns a zero noise image.
func (NullDetector) Sample(src rand.Source, freqs [][2]float64, im geometry.Image) (geometry.Image, error) {
	return geometry.NewImage(im.Height, im.Width), nil
}

// GaussianDetector models the camera readout as white Gaussian noise with a
// fixed per-pixel variance, at an optional physical pixel size.
type GaussianDetector struct {
	// Variance is the per-pixel readout variance
	Variance float64

	// PhysicalPixelSize is the detector pixel size in angstroms; 0 means
	// undefined
	PhysicalPixelSize float64
}

// PixelSize returns the physical pixel size, or 0 when undefined.
func (d GaussianDetector) PixelSize() float64 { return d.PhysicalPixelSize }

// Pixelize resamples the image from the given resolution onto the detector
// pixel size by Fourier-domain rescaling at a fixed shape. When the sizes
// agree, or no pixel size is defined, the image passes through unchanged.
func (d GaussianDetector) Pixelize(im geometry.Image, resolution float64) (geometry.Image, error) {
	if d.PhysicalPixelSize == 0 || d.PhysicalPixelSize == resolution {
		return im.Clone(), nil
	}
	spec := spectrum.RFFT2(im)
	spec = spectrum.RescaleToPixelSize(spec, im.Width, resolution, d.PhysicalPixelSize)
	return spectrum.IRFFT2(spec, im.Height, im.Width)
}

// Sample draws white Gaussian readout noise matching the image shape.
func (d GaussianDetector) Sample(src rand.Source, freqs [][2]float64, im geometry.Image) (geometry.Image, error) {
	normal := distuv.Normal{Mu: 0, Sigma: math.Sqrt(d.Variance), Src: src}
	noise := geometry.NewImage(im.Height, im.Width)
	for i := range noise.Data {
		noise.Data[i] = normal.Rand()
	}
	return noise, nil
}
