package geometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detsim/detsim/sim"
)

const twoReadouts = `
readouts:
  - name: ECalBarrelPhiTheta
    id: "system:4,cryo:1,type:3,subtype:3,layer:8,module:11,theta:10"
    segmentation:
      type: FCCSWGridModuleThetaMerged
      params:
        n_modules: 1536
        grid_size_theta: 0.009817477
        offset_theta: 0.0
        merged_theta_cells: [4, 2]
        merged_modules: [2, 1]
        layer_radii: [217.28, 219.43]
  - name: ECalBarrelGrid
    id: "system:4,cryo:1,type:3,subtype:3,layer:8,module:11,x:-16,y:-16"
    segmentation:
      type: cartesian-grid
      params:
        grid_size_x: 2
        grid_size_y: 2
`

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geometry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_BuildsReadoutsWithKinds(t *testing.T) {
	// GIVEN a description with one merged and one generic readout
	path := writeTempYAML(t, twoReadouts)

	// WHEN the registry is loaded
	reg, err := Load(path)
	require.NoError(t, err)

	// THEN both readouts exist with their resolved kinds
	assert.Equal(t, []string{"ECalBarrelGrid", "ECalBarrelPhiTheta"}, reg.Names())
	merged, ok := reg.Readout("ECalBarrelPhiTheta")
	require.True(t, ok)
	assert.Equal(t, sim.KindModuleThetaMerged, merged.Segmentation.Kind())
	grid, ok := reg.Readout("ECalBarrelGrid")
	require.True(t, ok)
	assert.Equal(t, sim.KindGeneric, grid.Segmentation.Kind())
	assert.True(t, grid.Layout.Has("x"))

	_, ok = reg.Readout("HCal")
	assert.False(t, ok)
}

func TestParseDescription_UnknownKey_ReturnsError(t *testing.T) {
	_, err := ParseDescription([]byte(`
readouts:
  - name: A
    id: "x:8"
    segmentaton: {type: cartesian-grid}
`))
	assert.Error(t, err)
}

func TestNewRegistry_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		desc Description
	}{
		{"no readouts", Description{}},
		{"missing name", Description{Readouts: []ReadoutSpec{{ID: "x:8", Segmentation: sim.SegmentationSpec{Type: "cartesian-grid"}}}}},
		{"duplicate name", Description{Readouts: []ReadoutSpec{
			{Name: "A", ID: "x:-8,y:-8", Segmentation: sim.SegmentationSpec{Type: "cartesian-grid"}},
			{Name: "A", ID: "x:-8,y:-8", Segmentation: sim.SegmentationSpec{Type: "cartesian-grid"}},
		}}},
		{"bad layout", Description{Readouts: []ReadoutSpec{{Name: "A", ID: "x", Segmentation: sim.SegmentationSpec{Type: "cartesian-grid"}}}}},
		{"missing segmentation", Description{Readouts: []ReadoutSpec{{Name: "A", ID: "x:8"}}}},
		{"segmentation error", Description{Readouts: []ReadoutSpec{{Name: "A", ID: "u:8", Segmentation: sim.SegmentationSpec{Type: "cartesian-grid"}}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(&tc.desc)
			assert.Error(t, err)
		})
	}
}
