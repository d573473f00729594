package segmentation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/bitfield"
)

func layout(t *testing.T, desc string) *bitfield.Layout {
	t.Helper()
	l, err := bitfield.ParseLayout(desc)
	require.NoError(t, err)
	return l
}

func TestCartesianGrid_CellIDAndPosition(t *testing.T) {
	// GIVEN a 1 cm grid in x and y over a readout with a system field
	l := layout(t, "system:4,x:-16,y:-16")
	seg, err := sim.NewSegmentation(sim.SegmentationSpec{Type: CartesianGridType}, l)
	require.NoError(t, err)
	assert.Equal(t, sim.KindGeneric, seg.Kind())

	// WHEN a cell id is computed from a position and a volume seed
	seed, _ := l.Set(0, "system", 5)
	id, err := seg.CellID(r3.Vec{X: 2.4, Y: -1.6, Z: 100}, seed)
	require.NoError(t, err)

	// THEN indices are the nearest cell centres and the seed survives
	assert.Equal(t, "system:5,x:2,y:-2", l.ValueString(id))
	assert.Equal(t, r3.Vec{X: 2, Y: -2}, seg.Position(id))
}

func TestCartesianGrid_SizeOffsetAndZ(t *testing.T) {
	l := layout(t, "cx:-8,cy:-8,cz:-8")
	seg, err := NewCartesianGrid("CartesianGridXYZ", map[string]any{
		"grid_size_x": 0.5, "grid_size_y": 2, "grid_size_z": 3.0,
		"offset_x": 0.25,
		"identifier_x": "cx", "identifier_y": "cy", "identifier_z": "cz",
	}, l)
	require.NoError(t, err)

	id, err := seg.CellID(r3.Vec{X: 1.3, Y: 3.1, Z: -4.4}, 0)
	require.NoError(t, err)

	assert.Equal(t, "cx:2,cy:2,cz:-1", l.ValueString(id))
	assert.Equal(t, r3.Vec{X: 1.25, Y: 4, Z: -3}, seg.Position(id))
}

func TestCartesianGrid_BinOutsideFieldRangeIsError(t *testing.T) {
	// GIVEN a signed 4-bit x field (-8..7) and an unsigned 4-bit y field (0..15)
	l := layout(t, "x:-4,y:4")
	seg, err := NewCartesianGrid(CartesianGridType, nil, l)
	require.NoError(t, err)

	// WHEN positions land in the last representable bins
	id, err := seg.CellID(r3.Vec{X: 7.4, Y: 15.4}, 0)
	require.NoError(t, err)
	assert.Equal(t, "x:7,y:15", l.ValueString(id))

	// THEN one bin further fails instead of wrapping into another cell
	for _, p := range []r3.Vec{{X: 7.6, Y: 0}, {X: -8.6, Y: 0}, {X: 0, Y: 15.6}, {X: 0, Y: -0.6}} {
		_, err := seg.CellID(p, 0)
		assert.Error(t, err, "position %v", p)
	}
}

func TestCartesianGrid_InvalidParams(t *testing.T) {
	l := layout(t, "x:-8,y:-8")
	tests := []struct {
		name string
		p    map[string]any
	}{
		{"negative size", map[string]any{"grid_size_x": -1.0}},
		{"non-numeric size", map[string]any{"grid_size_y": "big"}},
		{"missing identifier", map[string]any{"identifier_x": "u"}},
		{"z without field", map[string]any{"grid_size_z": 1.0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCartesianGrid(CartesianGridType, tc.p, l)
			assert.Error(t, err)
		})
	}
}

func mtmParams() map[string]any {
	return map[string]any{
		"n_modules":          1536,
		"grid_size_theta":    0.01,
		"offset_theta":       0.0,
		"merged_theta_cells": []any{2, 4},
		"merged_modules":     []any{2, 2},
		"layer_radii":        []any{200.0, 210.0},
	}
}

func TestModuleThetaMerged_KindResolvedFromTypeName(t *testing.T) {
	l := layout(t, "system:4,layer:8,module:11,theta:10")
	seg, err := New(sim.SegmentationSpec{Type: ModuleThetaMergedType, Params: mtmParams()}, l)
	require.NoError(t, err)
	assert.Equal(t, sim.KindModuleThetaMerged, seg.Kind())
	assert.Equal(t, ModuleThetaMergedType, seg.Type())
}

func TestModuleThetaMerged_CellIDMergesModuleAndTheta(t *testing.T) {
	// GIVEN layer 1 merging 4 theta cells and 2 modules
	l := layout(t, "system:4,layer:8,module:11,theta:10")
	seg, err := NewModuleThetaMerged(ModuleThetaMergedType, mtmParams(), l)
	require.NoError(t, err)
	seed, _ := l.Set(0, "layer", 1)
	seed, _ = l.Set(seed, "module", 7)

	// WHEN a point at theta = pi/2 is segmented
	id, err := seg.CellID(r3.Vec{X: 210, Y: 0, Z: 0}, seed)
	require.NoError(t, err)

	// THEN theta bin 157 snaps to 156 and module 7 snaps to 6
	assert.Equal(t, "system:0,layer:1,module:6,theta:156", l.ValueString(id))
}

func TestModuleThetaMerged_PositionAtMergedCellCentre(t *testing.T) {
	l := layout(t, "system:4,layer:8,module:11,theta:10")
	seg, err := NewModuleThetaMerged(ModuleThetaMergedType, mtmParams(), l)
	require.NoError(t, err)
	id, _ := l.Set(0, "layer", 1)
	id, _ = l.Set(id, "module", 6)
	id, _ = l.Set(id, "theta", 156)

	p := seg.Position(id)

	assert.InDelta(t, 210.0, math.Hypot(p.X, p.Y), 1e-9)
	assert.InDelta(t, 1.575, math.Atan2(math.Hypot(p.X, p.Y), p.Z), 1e-9)
	assert.InDelta(t, 6.5*2*math.Pi/1536, math.Atan2(p.Y, p.X), 1e-12)
}

func TestModuleThetaMerged_LayerOutOfRange(t *testing.T) {
	l := layout(t, "system:4,layer:8,module:11,theta:10")
	seg, err := NewModuleThetaMerged(ModuleThetaMergedType, mtmParams(), l)
	require.NoError(t, err)
	seed, _ := l.Set(0, "layer", 5)

	_, err = seg.CellID(r3.Vec{X: 1}, seed)
	assert.Error(t, err)
	assert.Equal(t, r3.Vec{}, seg.Position(seed))
}

func TestModuleThetaMerged_ThetaBinOutsideFieldRangeIsError(t *testing.T) {
	// GIVEN a 6-bit theta field that cannot hold bin 157
	l := layout(t, "system:4,layer:8,module:11,theta:6")
	seg, err := NewModuleThetaMerged(ModuleThetaMergedType, mtmParams(), l)
	require.NoError(t, err)
	seed, _ := l.Set(0, "layer", 1)

	_, err = seg.CellID(r3.Vec{X: 210}, seed)
	assert.Error(t, err)
}

func TestModuleThetaMerged_InvalidConfig(t *testing.T) {
	l := layout(t, "system:4,layer:8,module:11,theta:10")

	p := mtmParams()
	p["merged_modules"] = []any{2}
	_, err := NewModuleThetaMerged(ModuleThetaMergedType, p, l)
	assert.Error(t, err)

	_, err = NewModuleThetaMerged(ModuleThetaMergedType, mtmParams(), layout(t, "system:4,layer:8,theta:10"))
	assert.Error(t, err)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(sim.SegmentationSpec{Type: "hexagonal"}, layout(t, "x:8"))
	assert.Error(t, err)
}
