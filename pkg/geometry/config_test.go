package geometry

import (
	"math"
	"testing"
)

// TestNewImageConfigValidation checks the constructor invariants.
func TestNewImageConfigValidation(t *testing.T) {
	if _, err := NewImageConfig([2]int{64, 64}, [2]int{32, 64}, 1.0); err == nil {
		t.Errorf("expected error for padded shape smaller than shape")
	}
	if _, err := NewImageConfig([2]int{64, 64}, [2]int{64, 64}, 0); err == nil {
		t.Errorf("expected error for non-positive pixel size")
	}
	if _, err := NewImageConfig([2]int{0, 64}, [2]int{64, 64}, 1.0); err == nil {
		t.Errorf("expected error for degenerate shape")
	}
	cfg, err := NewImageConfig([2]int{32, 32}, [2]int{48, 48}, 1.5)
	if err != nil {
		t.Fatalf("NewImageConfig failed: %v", err)
	}
	if len(cfg.FrequencyGrid()) != 32*17 {
		t.Errorf("unexpected unpadded frequency grid length %d", len(cfg.FrequencyGrid()))
	}
	if len(cfg.PaddedFrequencyGrid()) != 48*25 {
		t.Errorf("unexpected padded frequency grid length %d", len(cfg.PaddedFrequencyGrid()))
	}
}

// TestFrequencyGridLayout checks known frequency values of a small grid:
// the zero mode at (0, 0), the positive column frequencies, and the FFT
// ordering of row frequencies.
func TestFrequencyGridLayout(t *testing.T) {
	const spacing = 2.0
	height, width := 4, 4
	grid := FrequencyGrid2D(height, width, spacing)
	halfWidth := HalfSpectrumWidth(width)

	if halfWidth != 3 {
		t.Fatalf("expected half width 3, got %d", halfWidth)
	}
	dc := grid[0]
	if dc[0] != 0 || dc[1] != 0 {
		t.Errorf("expected zero frequency at (0,0), got %v", dc)
	}
	// Column frequency of mode (0, 1) is 1/(width*spacing).
	if got, want := grid[1][0], 1.0/(4*spacing); math.Abs(got-want) > 1e-15 {
		t.Errorf("column frequency: got %v, want %v", got, want)
	}
	// Row index 3 is the negative frequency -1/(height*spacing).
	if got, want := grid[3*halfWidth][1], -1.0/(4*spacing); math.Abs(got-want) > 1e-15 {
		t.Errorf("negative row frequency: got %v, want %v", got, want)
	}
	// Row index 2 is the Nyquist frequency -1/2/spacing for even height.
	if got, want := grid[2*halfWidth][1], -0.5/spacing; math.Abs(got-want) > 1e-15 {
		t.Errorf("Nyquist row frequency: got %v, want %v", got, want)
	}
}

// TestCoordinateGridCentering verifies that the coordinate origin sits on
// the N/2 pixel for both parities.
func TestCoordinateGridCentering(t *testing.T) {
	even := CoordinateGrid2D(4, 4, 1.0)
	if c := even[2*4+2]; c[0] != 0 || c[1] != 0 {
		t.Errorf("even grid: expected origin at (2,2), got %v", c)
	}
	odd := CoordinateGrid2D(5, 5, 0.5)
	if c := odd[2*5+2]; c[0] != 0 || c[1] != 0 {
		t.Errorf("odd grid: expected origin at (2,2), got %v", c)
	}
	if c := odd[0]; c[0] != -1.0 || c[1] != -1.0 {
		t.Errorf("odd grid corner: got %v, want (-1, -1)", c)
	}

	vol := CoordinateGrid3D(3, 3, 3, 2.0)
	if c := vol[(1*3+1)*3+1]; c[0] != 0 || c[1] != 0 || c[2] != 0 {
		t.Errorf("volume grid: expected origin at center, got %v", c)
	}
}

// TestSignedFrequencyIndex checks the FFT index mapping for both parities.
func TestSignedFrequencyIndex(t *testing.T) {
	cases := []struct {
		i, n, want int
	}{
		{0, 4, 0}, {1, 4, 1}, {2, 4, -2}, {3, 4, -1},
		{0, 5, 0}, {1, 5, 1}, {2, 5, 2}, {3, 5, -2}, {4, 5, -1},
	}
	for _, tc := range cases {
		if got := SignedFrequencyIndex(tc.i, tc.n); got != tc.want {
			t.Errorf("SignedFrequencyIndex(%d, %d): got %d, want %d", tc.i, tc.n, got, tc.want)
		}
	}
}
