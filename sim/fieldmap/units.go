package fieldmap

import (
	"fmt"

	"github.com/detsim/detsim/sim/units"
)

// UnitSystem names the units a map file is written in.
// Empty names default to millimetres and tesla, the internal units.
type UnitSystem struct {
	Length string `yaml:"length_unit,omitempty"`
	Field  string `yaml:"field_unit,omitempty"`
}

// DefaultUnits are the internal units; files written in them need no conversion.
var DefaultUnits = UnitSystem{Length: units.Millimetre, Field: units.Tesla}

func (u UnitSystem) withDefaults() UnitSystem {
	if u.Length == "" {
		u.Length = DefaultUnits.Length
	}
	if u.Field == "" {
		u.Field = DefaultUnits.Field
	}
	return u
}

// Factors returns the multipliers converting file lengths to millimetres and
// file fields to tesla.
func (u UnitSystem) Factors() (length, field float64, err error) {
	u = u.withDefaults()
	if length, err = units.LengthFactor(u.Length, units.Millimetre); err != nil {
		return 0, 0, fmt.Errorf("map length unit: %w", err)
	}
	if field, err = units.FieldFactor(u.Field, units.Tesla); err != nil {
		return 0, 0, fmt.Errorf("map field unit: %w", err)
	}
	return length, field, nil
}
