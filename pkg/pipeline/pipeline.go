// Package pipeline composes the full image formation model: a specimen
// potential is projected onto the padded plane, passed through the
// instrument optics and exposure, optionally mixed with solvent scattering,
// filtered, cropped to the detector shape, masked, and finally read out by
// the detector. All Fourier-space stages work on the padded half spectrum;
// cropping and masking happen in real space, in that order.
package pipeline

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"cryosim/pkg/geometry"
	"cryosim/pkg/integrator"
	"cryosim/pkg/mask"
	"cryosim/pkg/optics"
	"cryosim/pkg/potential"
	"cryosim/pkg/spectrum"
)

// Ice models the scattering contribution of the solvent surrounding the
// specimen, expressed directly in the padded half spectrum.
type Ice interface {
	// Scatter draws one solvent realization on the padded plane of the
	// config, already seen through the given instrument transfer function.
	Scatter(src rand.Source, cfg *geometry.ImageConfig, instrument optics.FourierOperator) (geometry.ComplexImage, error)
}

// NullIce is vacuum: no solvent contribution.
type NullIce struct{}

// Scatter returns a zero spectrum.
func (NullIce) Scatter(src rand.Source, cfg *geometry.ImageConfig, instrument optics.FourierOperator) (geometry.ComplexImage, error) {
	return geometry.NewComplexImage(cfg.PaddedShape[0], cfg.PaddedHalfWidth()), nil
}

// GaussianIce models the solvent as mode-independent Gaussian scattering
// whose per-mode power follows an envelope, seen through the instrument
// optics like the specimen itself.
type GaussianIce struct {
	// PowerEnvelope gives the solvent scattering variance at each mode
	PowerEnvelope optics.FourierOperator
}

// Scatter draws complex Gaussian amplitudes per mode, scales them by the
// square root of the power envelope, and applies the instrument transfer
// function.
func (ice GaussianIce) Scatter(src rand.Source, cfg *geometry.ImageConfig, instrument optics.FourierOperator) (geometry.ComplexImage, error) {
	freqs := cfg.PaddedFrequencyGrid()
	power := ice.PowerEnvelope.Evaluate(freqs)
	transfer := instrument.Evaluate(freqs)

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	out := geometry.NewComplexImage(cfg.PaddedShape[0], cfg.PaddedHalfWidth())
	for i := range out.Data {
		if power[i] < 0 {
			return geometry.ComplexImage{}, fmt.Errorf(
				"pipeline: negative solvent power %g at mode %d", power[i], i)
		}
		sigma := math.Sqrt(power[i])
		re := normal.Rand() * sigma
		im := normal.Rand() * sigma
		out.Data[i] = complex(re*transfer[i], im*transfer[i])
	}
	// The solvent is real in real space, so its zero mode must be real.
	out.Data[0] = complex(real(out.Data[0]), 0)
	return out, nil
}

// Pipeline is a fully assembled image formation model. Optics, Exposure,
// Detector and Solvent have neutral defaults when left nil; Filters and
// Masks may be empty.
type Pipeline struct {
	// Config describes the imaging plane shapes and pixel size
	Config *geometry.ImageConfig

	// Specimen is the scattering potential being imaged
	Specimen potential.Potential

	// Projector integrates the potential onto the padded plane
	Projector *integrator.NufftProjector

	// Optics is the instrument transfer function; nil means no aberrations
	Optics optics.FourierOperator

	// Exposure scales and offsets the specimen image; nil means the
	// neutral exposure
	Exposure *optics.Exposure

	// Detector models pixelization and readout noise; nil means a
	// noiseless, perfectly matched detector
	Detector optics.Detector

	// Solvent models ice scattering; nil means vacuum
	Solvent Ice

	// Filters are applied to the padded spectrum before cropping
	Filters []optics.FourierOperator

	// Masks are applied in real space after cropping
	Masks []mask.Mask
}

// New assembles a pipeline around a config and specimen with neutral
// instrument components.
func New(cfg *geometry.ImageConfig, specimen potential.Potential) *Pipeline {
	neutral := optics.NewUniformExposure()
	return &Pipeline{
		Config:    cfg,
		Specimen:  specimen,
		Projector: integrator.NewNufftProjector(cfg),
		Optics:    optics.NullOptics{},
		Exposure:  &neutral,
		Detector:  optics.NullDetector{},
		Solvent:   NullIce{},
	}
}

func (p *Pipeline) instrument() optics.FourierOperator {
	if p.Optics == nil {
		return optics.NullOptics{}
	}
	return p.Optics
}

func (p *Pipeline) exposure() optics.Exposure {
	if p.Exposure == nil {
		return optics.NewUniformExposure()
	}
	return *p.Exposure
}

func (p *Pipeline) detector() optics.Detector {
	if p.Detector == nil {
		return optics.NullDetector{}
	}
	return p.Detector
}

// scatterToDetectorPlane projects the specimen and carries the spectrum
// through the optics and exposure, all on the padded plane.
func (p *Pipeline) scatterToDetectorPlane() (geometry.ComplexImage, error) {
	spec, err := p.Projector.Project(p.Specimen)
	if err != nil {
		return geometry.ComplexImage{}, fmt.Errorf("projecting specimen: %w", err)
	}
	applyOperator(spec, p.instrument().Evaluate(p.Config.PaddedFrequencyGrid()))

	nPadded := p.Config.PaddedShape[0] * p.Config.PaddedShape[1]
	return p.exposure().ApplySpectrum(spec, nPadded), nil
}

// RenderFourier computes the noiseless model image as a padded half
// spectrum with the filter chain applied. This is the representation the
// likelihood is evaluated in.
func (p *Pipeline) RenderFourier() (geometry.ComplexImage, error) {
	spec, err := p.scatterToDetectorPlane()
	if err != nil {
		return geometry.ComplexImage{}, err
	}
	p.applyFilters(spec)
	return spec, nil
}

// RenderPadded computes the noiseless model image on the padded plane,
// before filtering, cropping and masking.
func (p *Pipeline) RenderPadded() (geometry.Image, error) {
	spec, err := p.scatterToDetectorPlane()
	if err != nil {
		return geometry.Image{}, err
	}
	return spectrum.IRFFT2(spec, p.Config.PaddedShape[0], p.Config.PaddedShape[1])
}

// Render computes the noiseless model image at the output shape: filters in
// Fourier space, then crop, then masks.
func (p *Pipeline) Render() (geometry.Image, error) {
	spec, err := p.RenderFourier()
	if err != nil {
		return geometry.Image{}, err
	}
	return p.ViewSpectrum(spec)
}

// RenderNormalized renders the model image and rescales it to zero mean and
// unit standard deviation.
func (p *Pipeline) RenderNormalized() (geometry.Image, error) {
	im, err := p.Render()
	if err != nil {
		return geometry.Image{}, err
	}
	mean := stat.Mean(im.Data, nil)
	std := stat.StdDev(im.Data, nil)
	if std == 0 {
		return geometry.Image{}, fmt.Errorf("pipeline: cannot normalize a constant image")
	}
	for i := range im.Data {
		im.Data[i] = (im.Data[i] - mean) / std
	}
	return im, nil
}

// View carries an already rendered padded real-space image through the
// output stages: the filter chain, the center crop, and the masks. When no
// filters are configured the Fourier round trip is skipped.
func (p *Pipeline) View(padded geometry.Image) (geometry.Image, error) {
	if len(p.Filters) > 0 {
		spec := spectrum.RFFT2(padded)
		p.applyFilters(spec)
		var err error
		padded, err = spectrum.IRFFT2(spec, padded.Height, padded.Width)
		if err != nil {
			return geometry.Image{}, err
		}
	}
	im, err := p.Config.Crop(padded)
	if err != nil {
		return geometry.Image{}, fmt.Errorf("cropping to output shape: %w", err)
	}
	return p.applyMasks(im)
}

// CropAndApplyOperators takes a padded half spectrum through the output
// stages: filters, inverse transform, crop and masks.
func (p *Pipeline) CropAndApplyOperators(spec geometry.ComplexImage) (geometry.Image, error) {
	p.applyFilters(spec)
	return p.ViewSpectrum(spec)
}

// ViewSpectrum takes an already filtered padded half spectrum to the output
// shape: inverse transform, crop and masks.
func (p *Pipeline) ViewSpectrum(spec geometry.ComplexImage) (geometry.Image, error) {
	padded, err := spectrum.IRFFT2(spec, p.Config.PaddedShape[0], p.Config.PaddedShape[1])
	if err != nil {
		return geometry.Image{}, err
	}
	im, err := p.Config.Crop(padded)
	if err != nil {
		return geometry.Image{}, fmt.Errorf("cropping to output shape: %w", err)
	}
	return p.applyMasks(im)
}

// Sample draws one noisy realization of the image at the output shape.
func (p *Pipeline) Sample(src rand.Source) (geometry.Image, error) {
	padded, err := p.SamplePadded(src)
	if err != nil {
		return geometry.Image{}, err
	}
	return p.View(padded)
}

// SamplePadded draws one noisy realization on the padded plane, before the
// view stages. The solvent contribution is added in Fourier space, then the
// padded image is pixelized at the detector pixel size and combined with
// one readout noise draw.
func (p *Pipeline) SamplePadded(src rand.Source) (geometry.Image, error) {
	spec, err := p.scatterToDetectorPlane()
	if err != nil {
		return geometry.Image{}, err
	}

	solvent := p.Solvent
	if solvent == nil {
		solvent = NullIce{}
	}
	ice, err := solvent.Scatter(src, p.Config, p.instrument())
	if err != nil {
		return geometry.Image{}, fmt.Errorf("scattering solvent: %w", err)
	}
	if len(ice.Data) != len(spec.Data) {
		return geometry.Image{}, fmt.Errorf(
			"pipeline: solvent spectrum shape (%d, %d) does not match specimen (%d, %d)",
			ice.Height, ice.Width, spec.Height, spec.Width)
	}
	for i := range spec.Data {
		spec.Data[i] += ice.Data[i]
	}

	padded, err := spectrum.IRFFT2(spec, p.Config.PaddedShape[0], p.Config.PaddedShape[1])
	if err != nil {
		return geometry.Image{}, err
	}

	det := p.detector()
	pixelSize := det.PixelSize()
	if pixelSize == 0 {
		pixelSize = p.Config.PixelSize
	}
	padded, err = det.Pixelize(padded, p.Config.PixelSize)
	if err != nil {
		return geometry.Image{}, fmt.Errorf("pixelizing image: %w", err)
	}

	freqs := geometry.RescaleFrequencies(p.Config.PaddedFrequencyGrid(), p.Config.PixelSize/pixelSize)
	noise, err := det.Sample(src, freqs, padded)
	if err != nil {
		return geometry.Image{}, fmt.Errorf("sampling detector noise: %w", err)
	}
	floats.Add(padded.Data, noise.Data)
	return padded, nil
}

func (p *Pipeline) applyFilters(spec geometry.ComplexImage) {
	for _, f := range p.Filters {
		applyOperator(spec, f.Evaluate(p.Config.PaddedFrequencyGrid()))
	}
}

func (p *Pipeline) applyMasks(im geometry.Image) (geometry.Image, error) {
	var err error
	for _, m := range p.Masks {
		im, err = m.Apply(im)
		if err != nil {
			return geometry.Image{}, fmt.Errorf("applying mask: %w", err)
		}
	}
	return im, nil
}

func applyOperator(spec geometry.ComplexImage, vals []float64) {
	for i := range spec.Data {
		spec.Data[i] *= complex(vals[i], 0)
	}
}
