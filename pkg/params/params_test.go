package params

import (
	"math"
	"testing"
)

func TestExpTransformRoundTrip(t *testing.T) {
	for _, v := range []float64{0.001, 1, 250.5} {
		tr, err := NewExpTransform(v)
		if err != nil {
			t.Fatalf("NewExpTransform(%v): %v", v, err)
		}
		if got := tr.Get(); math.Abs(got-v) > 1e-12*v {
			t.Errorf("round trip of %v gave %v", v, got)
		}
	}
}

func TestExpTransformRejectsNonPositive(t *testing.T) {
	for _, v := range []float64{0, -3} {
		if _, err := NewExpTransform(v); err == nil {
			t.Errorf("NewExpTransform(%v) accepted a non-positive parameter", v)
		}
	}
}

func TestRescalingTransformRoundTrip(t *testing.T) {
	tr, err := NewRescalingTransform(10000, 1e4)
	if err != nil {
		t.Fatalf("NewRescalingTransform: %v", err)
	}
	if tr.RescaledParameter != 1 {
		t.Errorf("stored value = %v, want 1", tr.RescaledParameter)
	}
	if got := tr.Get(); got != 10000 {
		t.Errorf("recovered value = %v, want 10000", got)
	}

	if _, err := NewRescalingTransform(1, 0); err == nil {
		t.Error("zero rescaling was accepted")
	}
}

func TestApplyTransformsRoundTrip(t *testing.T) {
	exp, err := NewExpTransform(2.0)
	if err != nil {
		t.Fatalf("NewExpTransform: %v", err)
	}
	resc, err := NewRescalingTransform(9000, 1e4)
	if err != nil {
		t.Fatalf("NewRescalingTransform: %v", err)
	}
	transforms := map[string]Transform{
		"noise_variance": exp,
		"defocus":        resc,
	}
	values := map[string]float64{
		"noise_variance": 2.0,
		"defocus":        9000,
		"phase_shift":    0.25,
	}

	stored, err := ApplyTransforms(values, transforms)
	if err != nil {
		t.Fatalf("ApplyTransforms: %v", err)
	}
	if got, want := stored["noise_variance"], math.Log(2.0); math.Abs(got-want) > 1e-12 {
		t.Errorf("stored variance = %v, want %v", got, want)
	}
	if got := stored["defocus"]; math.Abs(got-0.9) > 1e-12 {
		t.Errorf("stored defocus = %v, want 0.9", got)
	}
	if got := stored["phase_shift"]; got != 0.25 {
		t.Errorf("untransformed parameter changed: %v", got)
	}

	recovered, err := ApplyInverseTransforms(stored, transforms)
	if err != nil {
		t.Fatalf("ApplyInverseTransforms: %v", err)
	}
	for name, want := range values {
		if got := recovered[name]; math.Abs(got-want) > 1e-9 {
			t.Errorf("parameter %q: recovered %v, want %v", name, got, want)
		}
	}
}

func TestApplyTransformsRejectsNegativeForExp(t *testing.T) {
	exp, err := NewExpTransform(1)
	if err != nil {
		t.Fatalf("NewExpTransform: %v", err)
	}
	_, err = ApplyTransforms(
		map[string]float64{"noise_variance": -1},
		map[string]Transform{"noise_variance": exp},
	)
	if err == nil {
		t.Error("negative parameter was accepted for the exp transform")
	}
}
