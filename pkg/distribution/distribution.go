// Package distribution defines probabilistic observation models over
// simulated images. The Gaussian model treats the Fourier modes of the
// padded plane as independent, with a frequency-dependent variance, which
// makes the likelihood a single weighted sum over the half spectrum.
package distribution

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"cryosim/pkg/geometry"
	"cryosim/pkg/optics"
	"cryosim/pkg/pipeline"
	"cryosim/pkg/spectrum"
)

// Constant is a flat noise variance across all modes.
type Constant struct {
	Value float64
}

// Evaluate returns the constant at every mode.
func (c Constant) Evaluate(freqs [][2]float64) []float64 {
	out := make([]float64, len(freqs))
	for i := range out {
		out[i] = c.Value
	}
	return out
}

// Lorentzian is a radially symmetric noise variance that decays with
// frequency, with an optional flat floor.
type Lorentzian struct {
	// Amplitude is the variance scale at zero frequency
	Amplitude float64

	// LengthScale sets the decay in angstroms
	LengthScale float64

	// Offset is a flat variance floor added at every mode
	Offset float64
}

// Evaluate computes amplitude / (1 + (k * length)^2) + offset per mode.
func (l Lorentzian) Evaluate(freqs [][2]float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		k2 := f[0]*f[0] + f[1]*f[1]
		out[i] = l.Amplitude/(1+k2*l.LengthScale*l.LengthScale) + l.Offset
	}
	return out
}

// IndependentFourierGaussian models the observed image as the pipeline's
// rendered image plus Gaussian noise that is independent across Fourier
// modes of the padded plane.
type IndependentFourierGaussian struct {
	// Pipeline is the underlying image formation model
	Pipeline *pipeline.Pipeline

	// Variance gives the per-mode noise variance; nil means a flat unit
	// variance
	Variance optics.FourierOperator

	// ContrastScale multiplies the noiseless signal; 0 means 1
	ContrastScale float64
}

func (d *IndependentFourierGaussian) variance() optics.FourierOperator {
	if d.Variance == nil {
		return Constant{Value: 1}
	}
	return d.Variance
}

func (d *IndependentFourierGaussian) scale() float64 {
	if d.ContrastScale == 0 {
		return 1
	}
	return d.ContrastScale
}

// Render computes the noiseless mean image at the output shape. The
// underlying signal is normalized to zero mean and unit standard deviation
// on the padded plane, so ContrastScale is the standard deviation of the
// noiseless signal.
func (d *IndependentFourierGaussian) Render() (geometry.Image, error) {
	spec, err := d.RenderFourier()
	if err != nil {
		return geometry.Image{}, err
	}
	return d.Pipeline.ViewSpectrum(spec)
}

// RenderFourier computes the normalized, contrast-scaled noiseless mean as
// a padded half spectrum, the representation the likelihood compares
// against.
func (d *IndependentFourierGaussian) RenderFourier() (geometry.ComplexImage, error) {
	spec, err := d.Pipeline.RenderFourier()
	if err != nil {
		return geometry.ComplexImage{}, err
	}
	if err := spectrum.Normalize(spec, d.Pipeline.Config.PaddedShape[1]); err != nil {
		return geometry.ComplexImage{}, err
	}
	s := complex(d.scale(), 0)
	for i := range spec.Data {
		spec.Data[i] *= s
	}
	return spec, nil
}

// Sample draws one observation: the rendered mean plus one noise
// realization. The noise is drawn per Fourier mode on the padded plane,
// carried through the pipeline's filter, crop and mask stages, and added in
// real space.
func (d *IndependentFourierGaussian) Sample(src rand.Source) (geometry.Image, error) {
	im, err := d.Render()
	if err != nil {
		return geometry.Image{}, err
	}

	cfg := d.Pipeline.Config
	nPixels := float64(cfg.PaddedShape[0] * cfg.PaddedShape[1])
	variance := d.variance().Evaluate(cfg.PaddedFrequencyGrid())

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	noiseSpec := geometry.NewComplexImage(cfg.PaddedShape[0], cfg.PaddedHalfWidth())
	// One real standard normal per mode; the Hermitian redundancy of the
	// half spectrum supplies the conjugate half, so the reconstructed image
	// carries exactly the per-pixel variance the operator specifies.
	for i := range noiseSpec.Data {
		sigma := math.Sqrt(nPixels * variance[i])
		noiseSpec.Data[i] = complex(normal.Rand()*sigma, 0)
	}
	// The mean carries all of the zero mode; the noise is zero mean.
	noiseSpec.Data[0] = 0

	noise, err := d.Pipeline.CropAndApplyOperators(noiseSpec)
	if err != nil {
		return geometry.Image{}, err
	}
	for i := range im.Data {
		im.Data[i] += noise.Data[i]
	}
	return im, nil
}

// LogLikelihood evaluates the log density of an observed padded half
// spectrum under the model. Modes are weighted for Hermitian redundancy:
// the zero mode is excluded, the first column counts once, and every other
// column counts twice.
func (d *IndependentFourierGaussian) LogLikelihood(observed geometry.ComplexImage) (float64, error) {
	cfg := d.Pipeline.Config
	height, halfWidth := cfg.PaddedShape[0], cfg.PaddedHalfWidth()
	if observed.Height != height || observed.Width != halfWidth {
		return 0, &geometry.ShapeError{
			Msg: "observed spectrum shape does not match the padded plane",
		}
	}

	model, err := d.RenderFourier()
	if err != nil {
		return 0, err
	}

	nPixels := float64(cfg.PaddedShape[0] * cfg.PaddedShape[1])
	variance := d.variance().Evaluate(cfg.PaddedFrequencyGrid())

	var sum float64
	for i := 0; i < height; i++ {
		for j := 0; j < halfWidth; j++ {
			if i == 0 && j == 0 {
				continue
			}
			idx := i*halfWidth + j
			weight := 1.0
			if j > 0 {
				weight = 2.0
			}
			r := model.Data[idx] - observed.Data[idx]
			r2 := real(r)*real(r) + imag(r)*imag(r)
			// Scale the per-mode variance by the pixel count so the
			// likelihood matches sampling, where each mode's amplitude is
			// sqrt(nPixels * variance).
			v := nPixels * variance[idx]
			perMode := (r2/(2*v) - math.Log(2*math.Pi*v)/2) / nPixels
			sum += weight * perMode
		}
	}
	return -sum, nil
}
