// Package fieldmap evaluates static magnetic fields sampled on regular grids:
// a Cartesian 3D map with trilinear interpolation and a radially symmetric
// (r, z) map with bilinear interpolation. Loaders convert file units to
// millimetres and tesla once; evaluation never converts.
//
// Every map is immutable after construction and implements sim.MagneticField.
// Points outside a map yield the zero vector.
package fieldmap

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim"
)

// ErrMalformedMap is wrapped by every error caused by unusable map data.
var ErrMalformedMap = errors.New("malformed field map")

// Sample3D is a field value at a node of a Cartesian map.
type Sample3D struct {
	Position r3.Vec
	Field    r3.Vec
}

// Regular3D is a Cartesian field map on a regular grid.
type Regular3D struct {
	x, y, z Axis
	field   []r3.Vec // indexed by (i*ny+j)*nz+k
}

var _ sim.MagneticField = (*Regular3D)(nil)

// NewRegular3D builds a map from samples in any order. Nodes without a sample
// hold the zero field; a later sample for the same node replaces an earlier one.
func NewRegular3D(samples []Sample3D) (*Regular3D, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrMalformedMap)
	}
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	zs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i], ys[i], zs[i] = s.Position.X, s.Position.Y, s.Position.Z
	}
	m := &Regular3D{}
	var err error
	if m.x, err = inferAxis("x", xs); err != nil {
		return nil, err
	}
	if m.y, err = inferAxis("y", ys); err != nil {
		return nil, err
	}
	if m.z, err = inferAxis("z", zs); err != nil {
		return nil, err
	}

	n, err := gridSize(len(samples), m.x, m.y, m.z)
	if err != nil {
		return nil, err
	}
	m.field = make([]r3.Vec, n)
	for _, s := range samples {
		m.field[m.index(m.x.node(s.Position.X), m.y.node(s.Position.Y), m.z.node(s.Position.Z))] = s.Field
	}
	if filled := len(samples); filled < len(m.field) {
		logrus.Debugf("[fieldmap] 3D map has %d nodes but only %d samples", len(m.field), filled)
	}
	return m, nil
}

func (m *Regular3D) index(i, j, k int) int {
	return (i*m.y.Nodes+j)*m.z.Nodes + k
}

// Axes returns the x, y and z axes of the map.
func (m *Regular3D) Axes() (x, y, z Axis) { return m.x, m.y, m.z }

// Node returns the field stored at node (i, j, k).
func (m *Regular3D) Node(i, j, k int) r3.Vec {
	return m.field[m.index(i, j, k)]
}

// FieldValue returns the trilinearly interpolated field at p (mm), in tesla.
func (m *Regular3D) FieldValue(p r3.Vec) r3.Vec {
	if !m.x.Contains(p.X) || !m.y.Contains(p.Y) || !m.z.Contains(p.Z) {
		return r3.Vec{}
	}
	ix, lx := m.x.cell(p.X)
	iy, ly := m.y.cell(p.Y)
	iz, lz := m.z.cell(p.Z)
	xs := [2]int{ix, m.x.upper(ix)}
	ys := [2]int{iy, m.y.upper(iy)}
	zs := [2]int{iz, m.z.upper(iz)}
	wx := [2]float64{1 - lx, lx}
	wy := [2]float64{1 - ly, ly}
	wz := [2]float64{1 - lz, lz}

	var b r3.Vec
	for a := 0; a < 2; a++ {
		for c := 0; c < 2; c++ {
			for d := 0; d < 2; d++ {
				w := wx[a] * wy[c] * wz[d]
				if w == 0 {
					continue
				}
				b = r3.Add(b, r3.Scale(w, m.Node(xs[a], ys[c], zs[d])))
			}
		}
	}
	return b
}
