package pipeline

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"cryosim/pkg/geometry"
	"cryosim/pkg/mask"
	"cryosim/pkg/optics"
	"cryosim/pkg/potential"
)

func testSpecimen(t *testing.T, nPoints int) *potential.VoxelCloud {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	weights := make([]float64, nPoints)
	coords := make([][3]float64, nPoints)
	for i := range weights {
		weights[i] = 1
		for d := 0; d < 3; d++ {
			coords[i][d] = 10 * (2*rng.Float64() - 1)
		}
	}
	cloud, err := potential.NewVoxelCloud(weights, coords, 1.0)
	if err != nil {
		t.Fatalf("NewVoxelCloud: %v", err)
	}
	return cloud
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg, err := geometry.NewImageConfig([2]int{32, 32}, [2]int{48, 48}, 1.0)
	if err != nil {
		t.Fatalf("NewImageConfig: %v", err)
	}
	return New(cfg, testSpecimen(t, 10))
}

func TestRenderShape(t *testing.T) {
	p := testPipeline(t)

	im, err := p.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if im.Height != 32 || im.Width != 32 {
		t.Fatalf("rendered shape = (%d, %d), want (32, 32)", im.Height, im.Width)
	}
	for i, v := range im.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("pixel %d is not finite: %v", i, v)
		}
	}

	padded, err := p.RenderPadded()
	if err != nil {
		t.Fatalf("RenderPadded: %v", err)
	}
	if padded.Height != 48 || padded.Width != 48 {
		t.Fatalf("padded shape = (%d, %d), want (48, 48)", padded.Height, padded.Width)
	}
}

func TestRenderMatchesViewOfPadded(t *testing.T) {
	p := testPipeline(t)
	p.Filters = []optics.FourierOperator{optics.LowpassFilter{Cutoff: 0.2, Rolloff: 0.1}}

	direct, err := p.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	padded, err := p.RenderPadded()
	if err != nil {
		t.Fatalf("RenderPadded: %v", err)
	}
	viewed, err := p.View(padded)
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	for i := range direct.Data {
		if math.Abs(direct.Data[i]-viewed.Data[i]) > 1e-9 {
			t.Fatalf("pixel %d: direct %v vs viewed %v", i, direct.Data[i], viewed.Data[i])
		}
	}
}

func TestSampleWithNullComponentsEqualsRender(t *testing.T) {
	p := testPipeline(t)

	rendered, err := p.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	sampled, err := p.Sample(rand.NewSource(3))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for i := range rendered.Data {
		if math.Abs(rendered.Data[i]-sampled.Data[i]) > 1e-12 {
			t.Fatalf("pixel %d: sample %v differs from render %v", i, sampled.Data[i], rendered.Data[i])
		}
	}
}

func TestSamplePaddedWithNullComponentsEqualsRenderPadded(t *testing.T) {
	p := testPipeline(t)

	rendered, err := p.RenderPadded()
	if err != nil {
		t.Fatalf("RenderPadded: %v", err)
	}
	sampled, err := p.SamplePadded(rand.NewSource(3))
	if err != nil {
		t.Fatalf("SamplePadded: %v", err)
	}
	if sampled.Height != 48 || sampled.Width != 48 {
		t.Fatalf("padded sample shape = (%d, %d), want (48, 48)", sampled.Height, sampled.Width)
	}
	for i := range rendered.Data {
		if math.Abs(rendered.Data[i]-sampled.Data[i]) > 1e-12 {
			t.Fatalf("pixel %d: padded sample %v differs from padded render %v",
				i, sampled.Data[i], rendered.Data[i])
		}
	}
}

func TestSampleAddsDetectorNoise(t *testing.T) {
	p := testPipeline(t)
	p.Detector = optics.GaussianDetector{Variance: 2}

	rendered, err := p.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	sampled, err := p.Sample(rand.NewSource(5))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	var sumSq float64
	for i := range rendered.Data {
		d := sampled.Data[i] - rendered.Data[i]
		sumSq += d * d
	}
	variance := sumSq / float64(len(rendered.Data))
	if math.Abs(variance-2) > 0.5 {
		t.Errorf("residual variance = %v, want near 2", variance)
	}
}

func TestMaskZeroesCorners(t *testing.T) {
	p := testPipeline(t)
	cfg := p.Config
	m, err := mask.NewCircularCosine(cfg.CoordinateGrid(), cfg.Shape[0], cfg.Shape[1], 8, 2)
	if err != nil {
		t.Fatalf("NewCircularCosine: %v", err)
	}
	p.Masks = []mask.Mask{m}

	im, err := p.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := im.At(0, 0); got != 0 {
		t.Errorf("corner pixel = %v, want 0", got)
	}
	if got := im.At(im.Height-1, im.Width-1); got != 0 {
		t.Errorf("opposite corner pixel = %v, want 0", got)
	}
}

func TestExposureOffsetShiftsMean(t *testing.T) {
	p := testPipeline(t)

	base, err := p.RenderPadded()
	if err != nil {
		t.Fatalf("RenderPadded: %v", err)
	}

	p.Exposure = &optics.Exposure{Scaling: 1, Offset: 0.5}
	shifted, err := p.RenderPadded()
	if err != nil {
		t.Fatalf("RenderPadded: %v", err)
	}

	for i := range base.Data {
		if math.Abs(shifted.Data[i]-base.Data[i]-0.5) > 1e-9 {
			t.Fatalf("pixel %d: shift = %v, want 0.5", i, shifted.Data[i]-base.Data[i])
		}
	}
}

func TestZeroScalingExposureAttenuatesFully(t *testing.T) {
	// An explicit zero-dose exposure must not be mistaken for the neutral
	// default.
	p := testPipeline(t)
	p.Exposure = &optics.Exposure{}

	im, err := p.RenderPadded()
	if err != nil {
		t.Fatalf("RenderPadded: %v", err)
	}
	for i, v := range im.Data {
		if math.Abs(v) > 1e-12 {
			t.Fatalf("pixel %d = %v, want 0 under a zero-dose exposure", i, v)
		}
	}
}

func TestRenderNormalized(t *testing.T) {
	p := testPipeline(t)

	im, err := p.RenderNormalized()
	if err != nil {
		t.Fatalf("RenderNormalized: %v", err)
	}

	var sum float64
	for _, v := range im.Data {
		sum += v
	}
	mean := sum / float64(len(im.Data))
	if math.Abs(mean) > 1e-9 {
		t.Errorf("normalized mean = %v, want 0", mean)
	}
}

func TestGaussianIceContributesPower(t *testing.T) {
	p := testPipeline(t)
	p.Solvent = GaussianIce{PowerEnvelope: optics.LowpassFilter{Cutoff: 0.3, Rolloff: 0.1}}

	rendered, err := p.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	sampled, err := p.Sample(rand.NewSource(9))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	var sumSq float64
	for i := range rendered.Data {
		d := sampled.Data[i] - rendered.Data[i]
		sumSq += d * d
	}
	if sumSq == 0 {
		t.Error("solvent scattering added no power")
	}
}
