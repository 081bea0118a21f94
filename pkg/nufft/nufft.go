// Package nufft provides a type-1 (non-uniform to uniform) two-dimensional
// discrete Fourier transform. Sample points live in the periodic domain
// [-pi, pi) per axis and the output spectrum is laid out in centered order,
// with the zero-frequency mode at index (height/2, width/2).
//
// The transform is evaluated directly rather than through a gridding
// kernel, so the result is exact to rounding; the cost is O(modes * points)
// with the work spread across all CPU cores.
package nufft

import (
	"fmt"
	"math/cmplx"
	"runtime"
	"sync"

	"cryosim/pkg/geometry"
)

// Type1 evaluates the type-1 non-uniform transform
//
//	F(k1, k2) = sum_j weights[j] * exp(sign * i * (k1*rowCoords[j] + k2*colCoords[j]))
//
// for k1 in [-height/2, height/2) and k2 in [-width/2, width/2), returning
// the full complex spectrum in centered order. sign must be +1 or -1; the
// projection pipeline uses -1.
func Type1(height, width int, weights []complex128, rowCoords, colCoords []float64, sign int) (geometry.ComplexImage, error) {
	if height <= 0 || width <= 0 {
		return geometry.ComplexImage{}, fmt.Errorf("nufft: output shape must be positive, got (%d, %d)", height, width)
	}
	if sign != 1 && sign != -1 {
		return geometry.ComplexImage{}, fmt.Errorf("nufft: sign must be +1 or -1, got %d", sign)
	}
	if len(rowCoords) != len(weights) || len(colCoords) != len(weights) {
		return geometry.ComplexImage{}, fmt.Errorf(
			"nufft: coordinate lengths (%d, %d) do not match weight length %d",
			len(rowCoords), len(colCoords), len(weights))
	}

	out := geometry.NewComplexImage(height, width)
	n := len(weights)
	if n == 0 {
		return out, nil
	}
	s := float64(sign)
	k2min := float64(-(width / 2))

	// Per-point column phase step, shared by every output row.
	colStep := make([]complex128, n)
	for j := 0; j < n; j++ {
		colStep[j] = cmplx.Exp(complex(0, s*colCoords[j]))
	}

	// Fan the output rows across the available cores. Rows are independent,
	// so no synchronization is needed beyond the final wait.
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > height {
		numWorkers = height
	}
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			phase := make([]complex128, n)
			for r := worker; r < height; r += numWorkers {
				k1 := float64(r - height/2)
				// Start each point at the leftmost column frequency and
				// advance by one column phase step per output bin.
				for j := 0; j < n; j++ {
					phase[j] = weights[j] * cmplx.Exp(complex(0, s*(k1*rowCoords[j]+k2min*colCoords[j])))
				}
				for c := 0; c < width; c++ {
					var sum complex128
					for j := 0; j < n; j++ {
						sum += phase[j]
						phase[j] *= colStep[j]
					}
					out.Data[r*width+c] = sum
				}
			}
		}(w)
	}
	wg.Wait()
	return out, nil
}
