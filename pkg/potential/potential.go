// Package potential defines the volumetric scattering-potential
// representations consumed by the projection integrators: a dense voxel grid
// with per-voxel coordinates, and a sparse weighted voxel cloud. Both are
// immutable after construction; parameter changes build a new value.
package potential

import (
	"fmt"

	"cryosim/pkg/geometry"
)

// Potential is the closed set of specimen representations understood by the
// integrators. Consumers type-switch over the concrete variants and reject
// anything else.
type Potential interface {
	// VoxelSize returns the native sampling of the representation in
	// angstroms. It is always positive.
	VoxelSize() float64
}

// VoxelGrid is a dense 3D scattering potential on a regular grid, together
// with the real-space coordinates of every voxel.
type VoxelGrid struct {
	weights     geometry.Volume
	coordinates [][3]float64
	voxelSize   float64
}

// NewVoxelGrid validates that the coordinate grid matches the weight volume
// element for element and that the voxel size is positive.
func NewVoxelGrid(weights geometry.Volume, coordinates [][3]float64, voxelSize float64) (*VoxelGrid, error) {
	if len(coordinates) != len(weights.Data) {
		return nil, fmt.Errorf(
			"potential: coordinate grid length %d does not match voxel count %d",
			len(coordinates), len(weights.Data))
	}
	if voxelSize <= 0 {
		return nil, fmt.Errorf("potential: voxel size must be positive, got %g", voxelSize)
	}
	return &VoxelGrid{weights: weights, coordinates: coordinates, voxelSize: voxelSize}, nil
}

// NewCenteredVoxelGrid builds a VoxelGrid whose coordinates are the centered
// grid implied by the volume shape and voxel size.
func NewCenteredVoxelGrid(weights geometry.Volume, voxelSize float64) (*VoxelGrid, error) {
	coords := geometry.CoordinateGrid3D(weights.Depth, weights.Height, weights.Width, voxelSize)
	return NewVoxelGrid(weights, coords, voxelSize)
}

// Weights returns the voxel weight volume. The returned value shares its
// backing array and must be treated as read-only.
func (g *VoxelGrid) Weights() geometry.Volume { return g.weights }

// Coordinates returns the per-voxel coordinate list as {x, y, z} triples, in
// the same row-major order as the weights. Read-only.
func (g *VoxelGrid) Coordinates() [][3]float64 { return g.coordinates }

// VoxelSize returns the grid spacing in angstroms.
func (g *VoxelGrid) VoxelSize() float64 { return g.voxelSize }

// VoxelCloud is a sparse scattering potential: a list of weighted points at
// arbitrary real-space positions.
type VoxelCloud struct {
	weights     []float64
	coordinates [][3]float64
	voxelSize   float64
}

// NewVoxelCloud validates that the coordinate list matches the weight list
// and that the voxel size is positive.
func NewVoxelCloud(weights []float64, coordinates [][3]float64, voxelSize float64) (*VoxelCloud, error) {
	if len(coordinates) != len(weights) {
		return nil, fmt.Errorf(
			"potential: coordinate list length %d does not match weight count %d",
			len(coordinates), len(weights))
	}
	if voxelSize <= 0 {
		return nil, fmt.Errorf("potential: voxel size must be positive, got %g", voxelSize)
	}
	return &VoxelCloud{weights: weights, coordinates: coordinates, voxelSize: voxelSize}, nil
}

// Weights returns the point weights. Read-only.
func (c *VoxelCloud) Weights() []float64 { return c.weights }

// Coordinates returns the point positions as {x, y, z} triples. Read-only.
func (c *VoxelCloud) Coordinates() [][3]float64 { return c.coordinates }

// VoxelSize returns the native point spacing in angstroms.
func (c *VoxelCloud) VoxelSize() float64 { return c.voxelSize }

// NumPoints returns the number of points in the cloud.
func (c *VoxelCloud) NumPoints() int { return len(c.weights) }
