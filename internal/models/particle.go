package models

import (
	"fmt"

	"cryosim/pkg/geometry"
)

// Particle represents a single simulated particle image with metadata
type Particle struct {
	// Image is the sampled image data
	Image geometry.Image

	// Index is the position of this particle in the stack
	Index int

	// Seed is the random seed the sample was drawn with
	Seed uint64

	// LogLikelihood is the log density of this sample under the model
	LogLikelihood float64
}

// ParticleStack represents a batch of particle images sharing one imaging
// configuration
type ParticleStack struct {
	// Particles holds the images in stack order
	Particles []Particle

	// Height and Width are the shared image dimensions in pixels
	Height, Width int

	// PixelSize is the physical pixel size in angstroms
	PixelSize float64
}

// NewParticleStack creates an empty stack for images of the given shape.
func NewParticleStack(height, width int, pixelSize float64) *ParticleStack {
	return &ParticleStack{Height: height, Width: width, PixelSize: pixelSize}
}

// Append adds a particle to the stack, checking its shape.
func (s *ParticleStack) Append(p Particle) error {
	if p.Image.Height != s.Height || p.Image.Width != s.Width {
		return fmt.Errorf(
			"particle image shape (%d, %d) does not match stack shape (%d, %d)",
			p.Image.Height, p.Image.Width, s.Height, s.Width)
	}
	p.Index = len(s.Particles)
	s.Particles = append(s.Particles, p)
	return nil
}

// Len returns the number of particles in the stack.
func (s *ParticleStack) Len() int { return len(s.Particles) }
