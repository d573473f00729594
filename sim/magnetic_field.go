package sim

import "gonum.org/v1/gonum/spatial/r3"

// MagneticField evaluates a static magnetic field.
// Points are in millimetres and the returned vector is in tesla.
// Implementations are immutable after construction and safe for concurrent use.
type MagneticField interface {
	FieldValue(point r3.Vec) r3.Vec
}

// FieldFunc adapts a plain function to MagneticField.
type FieldFunc func(point r3.Vec) r3.Vec

// FieldValue calls f(point).
func (f FieldFunc) FieldValue(point r3.Vec) r3.Vec { return f(point) }
