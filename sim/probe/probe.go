// Package probe samples a magnetic field over two-dimensional probe surfaces:
// an xy plane at fixed z, a half plane at fixed azimuth spanning z and r,
// and a cylinder surface at fixed radius spanning z and phi.
package probe

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// Range is one scanned coordinate of a probe surface.
type Range struct {
	Label    string
	Min, Max float64
}

// Probe is a surface parameterised by two coordinates (u, v).
type Probe interface {
	// Name identifies the probe in output, e.g. "xyPlane_1600_1600_0".
	Name() string
	// Ranges returns the scanned ranges of u and v.
	Ranges() (u, v Range)
	// Point maps (u, v) to a global position in millimetres.
	Point(u, v float64) r3.Vec
}

// XYPlane scans x in [-XMax, XMax] and y in [-YMax, YMax] at fixed Z.
type XYPlane struct {
	XMax, YMax, Z float64
}

func (p XYPlane) Name() string { return probeName("xyPlane", p.XMax, p.YMax, p.Z) }

func (p XYPlane) Ranges() (Range, Range) {
	return Range{"x [mm]", -p.XMax, p.XMax}, Range{"y [mm]", -p.YMax, p.YMax}
}

func (p XYPlane) Point(x, y float64) r3.Vec { return r3.Vec{X: x, Y: y, Z: p.Z} }

func (p XYPlane) String() string {
	return fmt.Sprintf("xyPlane: xMax = %g mm, yMax = %g mm, z = %g mm", p.XMax, p.YMax, p.Z)
}

// ZPlane scans z in [ZMin, ZMax] and r in [0, RMax] along azimuth Phi.
type ZPlane struct {
	ZMin, ZMax, RMax, Phi float64
}

func (p ZPlane) Name() string { return probeName("zPlane", p.ZMin, p.ZMax, p.RMax, p.Phi) }

func (p ZPlane) Ranges() (Range, Range) {
	return Range{"z [mm]", p.ZMin, p.ZMax}, Range{"r [mm]", 0, p.RMax}
}

func (p ZPlane) Point(z, r float64) r3.Vec {
	return r3.Vec{X: r * math.Cos(p.Phi), Y: r * math.Sin(p.Phi), Z: z}
}

func (p ZPlane) String() string {
	return fmt.Sprintf("zPlane: zMin = %g mm, zMax = %g mm, rMax = %g mm, phi = %g", p.ZMin, p.ZMax, p.RMax, p.Phi)
}

// Tube scans z in [ZMin, ZMax] and phi in [0, 2pi] at radius R.
type Tube struct {
	ZMin, ZMax, R float64
}

func (p Tube) Name() string { return probeName("tube", p.ZMin, p.ZMax, p.R) }

func (p Tube) Ranges() (Range, Range) {
	return Range{"z [mm]", p.ZMin, p.ZMax}, Range{"phi", 0, 2 * math.Pi}
}

func (p Tube) Point(z, phi float64) r3.Vec {
	return r3.Vec{X: p.R * math.Cos(phi), Y: p.R * math.Sin(phi), Z: z}
}

func (p Tube) String() string {
	return fmt.Sprintf("tube: zMin = %g mm, zMax = %g mm, r = %g mm", p.ZMin, p.ZMax, p.R)
}

// probeName joins the kind and the integer parts of its parameters.
func probeName(kind string, params ...float64) string {
	parts := lo.Map(params, func(v float64, _ int) string { return strconv.Itoa(int(v)) })
	return kind + "_" + strings.Join(parts, "_")
}

type parser struct {
	arity int
	build func(v []float64) (Probe, error)
}

var parsers = map[string]parser{
	"xyPlane": {3, func(v []float64) (Probe, error) {
		p := XYPlane{XMax: v[0], YMax: v[1], Z: v[2]}
		if p.XMax <= 0 || p.YMax <= 0 {
			return nil, fmt.Errorf("xyPlane probe needs positive xMax and yMax, got %g and %g", p.XMax, p.YMax)
		}
		return p, nil
	}},
	"zPlane": {4, func(v []float64) (Probe, error) {
		p := ZPlane{ZMin: v[0], ZMax: v[1], RMax: v[2], Phi: v[3]}
		if p.RMax <= 0 {
			return nil, fmt.Errorf("zPlane probe defined with negative or zero rMax %g", p.RMax)
		}
		if p.ZMax <= p.ZMin {
			return nil, fmt.Errorf("zPlane probe needs zMax > zMin, got [%g, %g]", p.ZMin, p.ZMax)
		}
		if math.Abs(p.Phi) > 2*math.Pi {
			logrus.Warnf("[probe] zPlane probe defined with |phi| = %g larger than 2*pi", math.Abs(p.Phi))
		}
		return p, nil
	}},
	"tube": {3, func(v []float64) (Probe, error) {
		p := Tube{ZMin: v[0], ZMax: v[1], R: v[2]}
		if p.R <= 0 {
			return nil, fmt.Errorf("tube probe defined with negative or zero r %g", p.R)
		}
		if p.ZMax <= p.ZMin {
			return nil, fmt.Errorf("tube probe needs zMax > zMin, got [%g, %g]", p.ZMin, p.ZMax)
		}
		return p, nil
	}},
}

// ParseProbe parses a definition such as "xyPlane 1600 1600 0",
// "zPlane -3000 3000 2000 0" or "tube -3000 3000 1500".
func ParseProbe(def string) (Probe, error) {
	fields := strings.Fields(def)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty probe definition")
	}
	p, ok := parsers[fields[0]]
	if !ok {
		kinds := lo.Keys(parsers)
		sort.Strings(kinds)
		return nil, fmt.Errorf("probe of type %q not recognized (valid: %s)", fields[0], strings.Join(kinds, ", "))
	}
	if len(fields)-1 != p.arity {
		return nil, fmt.Errorf("%s probe takes %d parameters, got %d", fields[0], p.arity, len(fields)-1)
	}
	values := make([]float64, p.arity)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%s probe parameter %d: %w", fields[0], i+1, err)
		}
		values[i] = v
	}
	return p.build(values)
}
