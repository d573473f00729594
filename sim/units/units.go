// Package units holds the explicit conversion tables between the length and
// magnetic-field units found in input files and the internal unit system
// (millimetre, tesla). Conversions are resolved to a single factor at load
// time; nothing here runs per hit or per field query.
package units

import (
	"fmt"
	"sort"
)

// Internal units.
const (
	Millimetre = "mm"
	Centimetre = "cm"
	Metre      = "m"
	Tesla      = "T"
)

// lengthInMM maps a length unit name to its size in millimetres.
var lengthInMM = map[string]float64{
	"um": 1e-3,
	"mm": 1,
	"cm": 10,
	"m":  1000,
}

// fieldInTesla maps a field unit name to its size in tesla.
var fieldInTesla = map[string]float64{
	"T":     1,
	"tesla": 1,
	"mT":    1e-3,
	"kG":    0.1,
	"G":     1e-4,
	"gauss": 1e-4,
}

// LengthFactor returns f such that a length x expressed in from equals x*f in to.
func LengthFactor(from, to string) (float64, error) {
	return factor("length", lengthInMM, from, to)
}

// FieldFactor returns f such that a field b expressed in from equals b*f in to.
func FieldFactor(from, to string) (float64, error) {
	return factor("field", fieldInTesla, from, to)
}

// IsLength reports whether name is a known length unit.
func IsLength(name string) bool { _, ok := lengthInMM[name]; return ok }

// IsField reports whether name is a known field unit.
func IsField(name string) bool { _, ok := fieldInTesla[name]; return ok }

func factor(kind string, table map[string]float64, from, to string) (float64, error) {
	f, ok := table[from]
	if !ok {
		return 0, fmt.Errorf("unknown %s unit %q (known: %v)", kind, from, keys(table))
	}
	t, ok := table[to]
	if !ok {
		return 0, fmt.Errorf("unknown %s unit %q (known: %v)", kind, to, keys(table))
	}
	return f / t, nil
}

func keys(table map[string]float64) []string {
	out := make([]string, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
