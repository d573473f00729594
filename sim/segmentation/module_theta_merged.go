package segmentation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/bitfield"
)

// ModuleThetaMergedType is the type name of ModuleThetaMerged.
const ModuleThetaMergedType = "FCCSWGridModuleThetaMerged"

// ModuleThetaMerged segments a barrel of inclined modules in theta and merges,
// per layer, groups of adjacent modules and adjacent theta cells into one cell.
// A merged cell is identified by the first module and first theta bin of its group.
type ModuleThetaMerged struct {
	typeName      string
	layout        *bitfield.Layout
	module        bitfield.Field
	theta         bitfield.Field
	layer         bitfield.Field
	nModules      int
	gridSizeTheta float64
	offsetTheta   float64
	mergedTheta   []int
	mergedModules []int
	layerRadii    []float64
}

// NewModuleThetaMerged builds the segmentation from params n_modules,
// grid_size_theta, offset_theta (radians), merged_theta_cells and
// merged_modules (one entry per layer) and layer_radii (cm, one per layer).
func NewModuleThetaMerged(typeName string, p map[string]any, layout *bitfield.Layout) (*ModuleThetaMerged, error) {
	pp := params(p)
	s := &ModuleThetaMerged{typeName: typeName, layout: layout}

	for _, name := range []string{"module", "theta", "layer"} {
		if !layout.Has(name) {
			return nil, fmt.Errorf("module-theta-merged: readout has no field %q", name)
		}
	}
	s.module, _ = layout.Field("module")
	s.theta, _ = layout.Field("theta")
	s.layer, _ = layout.Field("layer")

	var err error
	if s.nModules, err = pp.Int("n_modules", 0); err != nil {
		return nil, err
	}
	if s.nModules <= 0 {
		return nil, fmt.Errorf("module-theta-merged: n_modules must be positive, got %d", s.nModules)
	}
	if s.gridSizeTheta, err = pp.Float("grid_size_theta", 0); err != nil {
		return nil, err
	}
	if s.gridSizeTheta <= 0 {
		return nil, fmt.Errorf("module-theta-merged: grid_size_theta must be positive, got %v", s.gridSizeTheta)
	}
	if s.offsetTheta, err = pp.Float("offset_theta", 0); err != nil {
		return nil, err
	}
	if s.mergedTheta, err = pp.Ints("merged_theta_cells"); err != nil {
		return nil, err
	}
	if s.mergedModules, err = pp.Ints("merged_modules"); err != nil {
		return nil, err
	}
	if s.layerRadii, err = pp.Floats("layer_radii"); err != nil {
		return nil, err
	}
	nLayers := len(s.layerRadii)
	if nLayers == 0 {
		return nil, fmt.Errorf("module-theta-merged: layer_radii must list at least one layer")
	}
	if len(s.mergedTheta) != nLayers || len(s.mergedModules) != nLayers {
		return nil, fmt.Errorf("module-theta-merged: merged_theta_cells (%d) and merged_modules (%d) must have one entry per layer (%d)",
			len(s.mergedTheta), len(s.mergedModules), nLayers)
	}
	for i := 0; i < nLayers; i++ {
		if s.mergedTheta[i] < 1 || s.mergedModules[i] < 1 {
			return nil, fmt.Errorf("module-theta-merged: merge counts of layer %d must be >= 1", i)
		}
	}
	return s, nil
}

func (s *ModuleThetaMerged) Kind() sim.SegmentationKind { return sim.KindModuleThetaMerged }
func (s *ModuleThetaMerged) Type() string               { return s.typeName }
func (s *ModuleThetaMerged) Layout() *bitfield.Layout   { return s.layout }

// CellID reads the layer and the unmerged module number from volumeID and
// snaps both module and theta bin to the first cell of their merged group.
func (s *ModuleThetaMerged) CellID(local r3.Vec, volumeID uint64) (uint64, error) {
	layer := s.layer.Value(volumeID)
	if layer < 0 || int(layer) >= len(s.layerRadii) {
		return 0, fmt.Errorf("module-theta-merged: layer %d out of range [0,%d)", layer, len(s.layerRadii))
	}
	theta := math.Atan2(math.Hypot(local.X, local.Y), local.Z)
	thetaBin := positionToBin(theta, s.gridSizeTheta, s.offsetTheta)
	thetaBin -= floorMod(thetaBin, int64(s.mergedTheta[layer]))

	module := s.module.Value(volumeID)
	module -= floorMod(module, int64(s.mergedModules[layer]))

	id, err := encodeBin(s.theta, volumeID, thetaBin, theta)
	if err != nil {
		return 0, fmt.Errorf("module-theta-merged: %w", err)
	}
	return s.module.Encode(id, module), nil
}

// Position returns the centre of the merged cell at the radius of its layer.
// Cells in an unknown layer are reported at the origin.
func (s *ModuleThetaMerged) Position(id uint64) r3.Vec {
	layer := s.layer.Value(id)
	if layer < 0 || int(layer) >= len(s.layerRadii) {
		return r3.Vec{}
	}
	mergedTheta := float64(s.mergedTheta[layer])
	mergedModules := float64(s.mergedModules[layer])

	theta := binToPosition(s.theta.Value(id), s.gridSizeTheta, s.offsetTheta) +
		(mergedTheta-1)/2*s.gridSizeTheta
	dPhi := 2 * math.Pi / float64(s.nModules)
	phi := (float64(s.module.Value(id)) + (mergedModules-1)/2) * dPhi

	r := s.layerRadii[layer]
	z := 0.0
	if t := math.Tan(theta); t != 0 {
		z = r / t
	}
	return r3.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

func floorMod(v, m int64) int64 {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}
