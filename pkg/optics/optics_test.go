package optics

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"cryosim/pkg/geometry"
)

func TestCTFAtZeroFrequency(t *testing.T) {
	ctf := CTF{
		DefocusU:            10000,
		DefocusV:            10000,
		VoltageKV:           300,
		SphericalAberration: 2.7,
		AmplitudeContrast:   0.1,
	}

	got := ctf.Evaluate([][2]float64{{0, 0}})[0]
	want := -ctf.AmplitudeContrast
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("CTF at zero frequency = %v, want %v", got, want)
	}
}

func TestCTFAstigmatismSymmetry(t *testing.T) {
	// Without astigmatism the CTF must be radially symmetric.
	ctf := CTF{
		DefocusU:            12000,
		DefocusV:            12000,
		VoltageKV:           200,
		SphericalAberration: 2.0,
		AmplitudeContrast:   0.07,
	}

	k := 0.05
	vals := ctf.Evaluate([][2]float64{
		{k, 0},
		{0, k},
		{k / math.Sqrt2, k / math.Sqrt2},
	})
	for i := 1; i < len(vals); i++ {
		if math.Abs(vals[i]-vals[0]) > 1e-12 {
			t.Errorf("CTF not radially symmetric: %v vs %v", vals[i], vals[0])
		}
	}
}

func TestCTFAstigmaticDefocus(t *testing.T) {
	// With distinct defocus values, frequencies along the major axis see
	// DefocusU and frequencies along the minor axis see DefocusV.
	ctf := CTF{
		DefocusU:          15000,
		DefocusV:          9000,
		VoltageKV:         300,
		AmplitudeContrast: 0,
	}
	major := CTF{DefocusU: 15000, DefocusV: 15000, VoltageKV: 300}
	minor := CTF{DefocusU: 9000, DefocusV: 9000, VoltageKV: 300}

	k := 0.03
	gotMajor := ctf.Evaluate([][2]float64{{k, 0}})[0]
	gotMinor := ctf.Evaluate([][2]float64{{0, k}})[0]
	wantMajor := major.Evaluate([][2]float64{{k, 0}})[0]
	wantMinor := minor.Evaluate([][2]float64{{0, k}})[0]

	if math.Abs(gotMajor-wantMajor) > 1e-12 {
		t.Errorf("major axis CTF = %v, want %v", gotMajor, wantMajor)
	}
	if math.Abs(gotMinor-wantMinor) > 1e-12 {
		t.Errorf("minor axis CTF = %v, want %v", gotMinor, wantMinor)
	}
}

func TestElectronWavelength(t *testing.T) {
	// Standard value for a 300 kV microscope is about 0.0197 angstroms.
	got := electronWavelength(300)
	if math.Abs(got-0.0197) > 1e-3 {
		t.Errorf("wavelength at 300 kV = %v, want about 0.0197", got)
	}
}

func TestNullOpticsIsFlat(t *testing.T) {
	vals := NullOptics{}.Evaluate([][2]float64{{0, 0}, {0.1, 0.2}, {-0.3, 0.05}})
	for i, v := range vals {
		if v != 1 {
			t.Errorf("mode %d: got %v, want 1", i, v)
		}
	}
}

func TestLowpassFilterBands(t *testing.T) {
	f := LowpassFilter{Cutoff: 0.1, Rolloff: 0.05}

	cases := []struct {
		k    float64
		want float64
	}{
		{0, 1},
		{0.1, 1},
		{0.125, 0.5},
		{0.15, 0},
		{0.3, 0},
	}
	for _, c := range cases {
		got := f.Evaluate([][2]float64{{c.k, 0}})[0]
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("lowpass at k=%v: got %v, want %v", c.k, got, c.want)
		}
	}
}

func TestExposureScalesAndOffsets(t *testing.T) {
	spec := geometry.NewComplexImage(4, 3)
	spec.Data[0] = complex(2, 0)
	spec.Data[5] = complex(1, -1)

	out := Exposure{Scaling: 3, Offset: 0.5}.ApplySpectrum(spec, 16)

	if got, want := out.Data[0], complex(2*3+0.5*16, 0); got != want {
		t.Errorf("zero mode = %v, want %v", got, want)
	}
	if got, want := out.Data[5], complex(3, -3); got != want {
		t.Errorf("mode 5 = %v, want %v", got, want)
	}
	if spec.Data[0] != complex(2, 0) {
		t.Error("input spectrum was modified")
	}
}

func TestNullDetector(t *testing.T) {
	im := geometry.NewImage(4, 4)
	im.Data[0] = 7

	pix, err := NullDetector{}.Pixelize(im, 1.2)
	if err != nil {
		t.Fatalf("Pixelize: %v", err)
	}
	if pix.Data[0] != 7 {
		t.Errorf("pixelized value = %v, want 7", pix.Data[0])
	}

	noise, err := NullDetector{}.Sample(rand.NewSource(1), nil, im)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for _, v := range noise.Data {
		if v != 0 {
			t.Fatal("null detector produced nonzero noise")
		}
	}
}

func TestGaussianDetectorNoiseStatistics(t *testing.T) {
	d := GaussianDetector{Variance: 4}
	im := geometry.NewImage(64, 64)

	noise, err := d.Sample(rand.NewSource(7), nil, im)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	var sum, sumSq float64
	for _, v := range noise.Data {
		sum += v
		sumSq += v * v
	}
	n := float64(len(noise.Data))
	mean := sum / n
	variance := sumSq/n - mean*mean

	if math.Abs(mean) > 0.2 {
		t.Errorf("noise mean = %v, want near 0", mean)
	}
	if math.Abs(variance-4) > 0.5 {
		t.Errorf("noise variance = %v, want near 4", variance)
	}
}

func TestGaussianDetectorPixelizePassthrough(t *testing.T) {
	d := GaussianDetector{Variance: 1, PhysicalPixelSize: 1.5}
	im := geometry.NewImage(8, 8)
	for i := range im.Data {
		im.Data[i] = float64(i)
	}

	out, err := d.Pixelize(im, 1.5)
	if err != nil {
		t.Fatalf("Pixelize: %v", err)
	}
	for i := range im.Data {
		if out.Data[i] != im.Data[i] {
			t.Fatalf("pixel %d changed on matched pixel size", i)
		}
	}
}

func TestGaussianDetectorPixelizeConstant(t *testing.T) {
	// A constant image keeps all its power in the zero mode, whose
	// amplitude the rescale multiplies by (resolution/pixelSize)^2.
	d := GaussianDetector{Variance: 1, PhysicalPixelSize: 2.0}
	im := geometry.NewImage(16, 16)
	for i := range im.Data {
		im.Data[i] = 3
	}

	out, err := d.Pixelize(im, 1.0)
	if err != nil {
		t.Fatalf("Pixelize: %v", err)
	}
	var sum float64
	for _, v := range out.Data {
		sum += v
	}
	mean := sum / float64(len(out.Data))
	if math.Abs(mean-3*0.25) > 1e-9 {
		t.Errorf("mean after pixelize = %v, want %v", mean, 3*0.25)
	}
}
