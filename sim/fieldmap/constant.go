package fieldmap

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim"
)

// Constant is a uniform field inside an optional cylinder |z| <= ZMax,
// hypot(x, y) <= RMax. A limit <= 0 leaves that dimension unbounded.
type Constant struct {
	B    r3.Vec
	RMax float64
	ZMax float64
}

var _ sim.MagneticField = Constant{}

// FieldValue implements sim.MagneticField.
func (c Constant) FieldValue(p r3.Vec) r3.Vec {
	if c.RMax > 0 && math.Hypot(p.X, p.Y) > c.RMax {
		return r3.Vec{}
	}
	if c.ZMax > 0 && math.Abs(p.Z) > c.ZMax {
		return r3.Vec{}
	}
	return c.B
}

// Overlay is the vector sum of several fields.
type Overlay struct {
	Fields []sim.MagneticField
}

var _ sim.MagneticField = Overlay{}

// FieldValue implements sim.MagneticField.
func (o Overlay) FieldValue(p r3.Vec) r3.Vec {
	var b r3.Vec
	for _, f := range o.Fields {
		b = r3.Add(b, f.FieldValue(p))
	}
	return b
}
