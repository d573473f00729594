package fieldmap

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Axis is one regularly spaced grid axis. Nodes sit at Min, Min+step, ..., Max.
type Axis struct {
	Min, Max, Width float64
	Nodes           int
}

// coordTolerance is the gap, relative to the axis width, below which two
// coordinates name the same node.
const coordTolerance = 1e-9

// maxNodesPerSample bounds the grid size relative to the number of samples.
// Sparse maps are accepted; a grid far larger than its samples means the
// coordinates do not lie on one regular grid.
const maxNodesPerSample = 64

// inferAxis derives the axis extent and node count from sample coordinates.
// The step is the smallest gap between sorted distinct coordinates, so the
// samples may arrive in any order. Coordinates closer than coordTolerance
// times the width are merged first.
func inferAxis(name string, coords []float64) (Axis, error) {
	if len(coords) == 0 {
		return Axis{}, fmt.Errorf("%w: axis %s has no coordinates", ErrMalformedMap, name)
	}
	for _, c := range coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Axis{}, fmt.Errorf("%w: axis %s has a non-finite coordinate", ErrMalformedMap, name)
		}
	}
	a := Axis{Min: floats.Min(coords), Max: floats.Max(coords)}
	a.Width = a.Max - a.Min
	if a.Width == 0 {
		a.Nodes = 1
		return a, nil
	}

	tol := coordTolerance * a.Width
	distinct := slices.Clone(coords)
	slices.Sort(distinct)
	distinct = slices.CompactFunc(distinct, func(p, q float64) bool { return math.Abs(q-p) <= tol })
	step := math.Inf(1)
	for i := 1; i < len(distinct); i++ {
		step = math.Min(step, distinct[i]-distinct[i-1])
	}
	nodes := math.Round(a.Width/step) + 1
	if nodes > float64(maxNodesPerSample)*float64(len(coords)) {
		return Axis{}, fmt.Errorf("%w: axis %s step %g over width %g needs %.0f nodes for %d samples",
			ErrMalformedMap, name, step, a.Width, nodes, len(coords))
	}
	a.Nodes = int(nodes)
	return a, nil
}

// gridSize returns the node count of the grid spanned by axes, rejecting
// grids more than maxNodesPerSample times larger than the samples.
func gridSize(samples int, axes ...Axis) (int, error) {
	size := 1.0
	for _, a := range axes {
		size *= float64(a.Nodes)
	}
	if size > float64(maxNodesPerSample)*float64(samples) {
		return 0, fmt.Errorf("%w: %d samples span a grid of %.0f nodes", ErrMalformedMap, samples, size)
	}
	return int(size), nil
}

// Contains reports whether c lies within [Min, Max].
func (a Axis) Contains(c float64) bool {
	return c >= a.Min && c <= a.Max
}

// Step returns the node spacing, or 0 for a single-node axis.
func (a Axis) Step() float64 {
	if a.Nodes < 2 {
		return 0
	}
	return a.Width / float64(a.Nodes-1)
}

// node returns the index of the node nearest to c, clamped to the axis.
func (a Axis) node(c float64) int {
	if a.Nodes < 2 {
		return 0
	}
	i := int(math.Round((c - a.Min) * float64(a.Nodes-1) / a.Width))
	return min(max(i, 0), a.Nodes-1)
}

// cell returns the lower node index of the cell containing c and the local
// offset of c inside that cell, in [0, 1]. Points on the upper edge belong to
// the last cell with offset 1. A single-node axis always yields (0, 0).
func (a Axis) cell(c float64) (int, float64) {
	if a.Nodes < 2 {
		return 0, 0
	}
	f := (c - a.Min) / a.Width * float64(a.Nodes-1)
	i := math.Floor(f)
	idx, local := int(i), f-i
	if idx >= a.Nodes-1 {
		return a.Nodes - 2, 1
	}
	if idx < 0 {
		return 0, 0
	}
	return idx, local
}

// upper returns the node above i, or i itself on a single-node axis.
func (a Axis) upper(i int) int {
	return min(i+1, a.Nodes-1)
}

// Coordinate returns the position of node i.
func (a Axis) Coordinate(i int) float64 {
	return a.Min + float64(i)*a.Step()
}
