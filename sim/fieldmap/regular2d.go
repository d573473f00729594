package fieldmap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim"
)

// Sample2D is a radial and longitudinal field value at an (r, z) node.
type Sample2D struct {
	R, Z   float64
	BR, BZ float64
}

// Regular2D is a radially symmetric field map on a regular (r, z) grid.
type Regular2D struct {
	r, z   Axis
	br, bz []float64 // indexed by i*nz+j
}

var _ sim.MagneticField = (*Regular2D)(nil)

// NewRegular2D builds a map from samples in any order.
func NewRegular2D(samples []Sample2D) (*Regular2D, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrMalformedMap)
	}
	rs := make([]float64, len(samples))
	zs := make([]float64, len(samples))
	for i, s := range samples {
		rs[i], zs[i] = s.R, s.Z
	}
	m := &Regular2D{}
	var err error
	if m.r, err = inferAxis("r", rs); err != nil {
		return nil, err
	}
	if m.z, err = inferAxis("z", zs); err != nil {
		return nil, err
	}
	n, err := gridSize(len(samples), m.r, m.z)
	if err != nil {
		return nil, err
	}
	m.br = make([]float64, n)
	m.bz = make([]float64, n)
	for _, s := range samples {
		idx := m.index(m.r.node(s.R), m.z.node(s.Z))
		m.br[idx], m.bz[idx] = s.BR, s.BZ
	}
	return m, nil
}

func (m *Regular2D) index(i, j int) int { return i*m.z.Nodes + j }

// Axes returns the r and z axes of the map.
func (m *Regular2D) Axes() (r, z Axis) { return m.r, m.z }

// Node returns (Br, Bz) stored at node (i, j).
func (m *Regular2D) Node(i, j int) (br, bz float64) {
	idx := m.index(i, j)
	return m.br[idx], m.bz[idx]
}

// FieldValue returns the field at p (mm), in tesla. Points with r below the
// first radial node use that node's values; the radial grid is taken to start at the axis.
func (m *Regular2D) FieldValue(p r3.Vec) r3.Vec {
	r := math.Hypot(p.X, p.Y)
	if r > m.r.Max || p.Z < m.z.Min || p.Z > m.z.Max {
		return r3.Vec{}
	}
	ir, lr := m.r.cell(max(r, m.r.Min))
	iz, lz := m.z.cell(p.Z)
	rs := [2]int{ir, m.r.upper(ir)}
	zs := [2]int{iz, m.z.upper(iz)}
	wr := [2]float64{1 - lr, lr}
	wz := [2]float64{1 - lz, lz}

	var br, bz float64
	for a := 0; a < 2; a++ {
		for c := 0; c < 2; c++ {
			w := wr[a] * wz[c]
			if w == 0 {
				continue
			}
			nr, nz := m.Node(rs[a], zs[c])
			br += w * nr
			bz += w * nz
		}
	}
	phi := azimuth(p.X, p.Y)
	return r3.Vec{X: br * math.Cos(phi), Y: br * math.Sin(phi), Z: bz}
}

// azimuth returns the angle of (x, y) from the x axis; the origin maps to 0.
func azimuth(x, y float64) float64 {
	switch {
	case x != 0:
		return math.Atan2(y, x)
	case y > 0:
		return math.Pi / 2
	case y < 0:
		return -math.Pi / 2
	default:
		return 0
	}
}
