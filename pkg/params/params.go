// Package params provides reparameterizations for model parameters that are
// estimated by an optimizer: a transform stores a parameter in an
// unconstrained or rescaled space and recovers the physical value on
// demand.
package params

import (
	"fmt"
	"math"
)

// Transform recovers a physical parameter value from its stored
// representation.
type Transform interface {
	Get() float64
}

// ExpTransform stores the logarithm of a strictly positive parameter, so an
// optimizer can move freely in log space.
type ExpTransform struct {
	// LogParameter is the stored value in log space
	LogParameter float64
}

// NewExpTransform stores a positive parameter in log space.
func NewExpTransform(parameter float64) (ExpTransform, error) {
	if parameter <= 0 {
		return ExpTransform{}, fmt.Errorf(
			"params: exp transform requires a positive parameter, got %g", parameter)
	}
	return ExpTransform{LogParameter: math.Log(parameter)}, nil
}

// Get recovers the physical value by exponentiating.
func (t ExpTransform) Get() float64 {
	return math.Exp(t.LogParameter)
}

// RescalingTransform stores a parameter divided by a fixed scale, so
// parameters of very different magnitudes can share an optimizer step size.
type RescalingTransform struct {
	// RescaledParameter is the stored value after dividing by Rescaling
	RescaledParameter float64

	// Rescaling is the fixed scale, nonzero
	Rescaling float64
}

// NewRescalingTransform stores a parameter at the given scale.
func NewRescalingTransform(parameter, rescaling float64) (RescalingTransform, error) {
	if rescaling == 0 {
		return RescalingTransform{}, fmt.Errorf("params: rescaling must be nonzero")
	}
	return RescalingTransform{
		RescaledParameter: parameter / rescaling,
		Rescaling:         rescaling,
	}, nil
}

// Get recovers the physical value by multiplying the scale back in.
func (t RescalingTransform) Get() float64 {
	return t.RescaledParameter * t.Rescaling
}

// ApplyTransforms maps named physical parameters into their stored spaces.
// Parameters without a transform pass through unchanged.
func ApplyTransforms(values map[string]float64, transforms map[string]Transform) (map[string]float64, error) {
	out := make(map[string]float64, len(values))
	for name, v := range values {
		tr, ok := transforms[name]
		if !ok {
			out[name] = v
			continue
		}
		switch tr := tr.(type) {
		case ExpTransform:
			if v <= 0 {
				return nil, fmt.Errorf(
					"params: parameter %q must be positive for the exp transform, got %g", name, v)
			}
			out[name] = math.Log(v)
		case RescalingTransform:
			out[name] = v / tr.Rescaling
		default:
			return nil, fmt.Errorf("params: unknown transform %T for parameter %q", tr, name)
		}
	}
	return out, nil
}

// ApplyInverseTransforms maps stored parameters back to physical values,
// inverting ApplyTransforms.
func ApplyInverseTransforms(values map[string]float64, transforms map[string]Transform) (map[string]float64, error) {
	out := make(map[string]float64, len(values))
	for name, v := range values {
		tr, ok := transforms[name]
		if !ok {
			out[name] = v
			continue
		}
		switch tr := tr.(type) {
		case ExpTransform:
			out[name] = math.Exp(v)
		case RescalingTransform:
			out[name] = v * tr.Rescaling
		default:
			return nil, fmt.Errorf("params: unknown transform %T for parameter %q", tr, name)
		}
	}
	return out, nil
}
