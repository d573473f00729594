package resegment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detsim/detsim/sim/internal/testutil"
)

func TestLoadJob_MergeLayersFixture(t *testing.T) {
	job, err := LoadJob(testutil.TestdataPath(t, "merge_layers_job.yaml"))
	require.NoError(t, err)

	assert.Equal(t, KindMergeLayers, job.Kind)
	assert.Equal(t, "ECalBarrelGridMergedLayers", job.Output)
	require.NotNil(t, job.MergeLayers)
	assert.Equal(t, []uint{3, 3}, job.MergeLayers.ListToMerge)
	assert.Equal(t, OutOfRangeLast, job.MergeLayers.OutOfRange)
	require.NotNil(t, job.MergeLayers.DebugPrint)
	assert.Equal(t, 2, *job.MergeLayers.DebugPrint)
}

func TestJob_RunRenamesOutput(t *testing.T) {
	// GIVEN the redo-segmentation fixture and the test geometry
	reg := loadRegistry(t)
	grid := readoutOf(t, reg, "ECalBarrelGrid").Layout
	job, err := LoadJob(testutil.TestdataPath(t, "redo_segmentation_job.yaml"))
	require.NoError(t, err)

	// WHEN run over one hit
	out, err := job.Run(reg, collectionOf(testutil.MustID(t, grid, "system", 1, "layer", 2, "x", 0, "y", 0)))
	require.NoError(t, err)

	// THEN the output carries the job's collection name
	assert.Equal(t, "ECalBarrelGridCoarseCells", out.Name)
	assert.Equal(t, 1, out.Len())
}

func TestJob_BuildSelectsTransform(t *testing.T) {
	reg := loadRegistry(t)
	tests := []struct {
		yaml string
		want string
	}{
		{"kind: merge-cells\nmerge_cells: {readout: ECalBarrelGrid, identifier: x, merge: 3}\n", "merge-cells"},
		{"kind: merge-layers\nmerge_layers: {readout: ECalBarrelGrid, identifier: layer, merge: [2]}\n", "merge-layers"},
		{"kind: rewrite-bitfield\nrewrite_bitfield: {old_readout: ECalBarrelGrid, new_readout: ECalBarrelGridFlat, remove_identifiers: [layer]}\n", "rewrite-bitfield"},
		{"kind: redo-segmentation\nredo_segmentation: {old_readout: ECalBarrelGrid, new_readout: ECalBarrelGridCoarse, old_identifiers: [x, y]}\n", "redo-segmentation"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			job, err := ParseJob([]byte(tc.yaml))
			require.NoError(t, err)
			tr, err := job.Build(reg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, tr.Name())
		})
	}
}

func TestJob_BuildFailureReturnsNilTransform(t *testing.T) {
	job, err := ParseJob([]byte("kind: merge-cells\nmerge_cells: {readout: HCal, identifier: x, merge: 3}\n"))
	require.NoError(t, err)

	tr, err := job.Build(loadRegistry(t))

	assert.ErrorIs(t, err, ErrConfig)
	assert.True(t, tr == nil)
}

func TestParseJob_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "kind: split-cells\n"},
		{"missing section", "kind: merge-cells\n"},
		{"foreign section", "kind: merge-cells\nmerge_cells: {readout: A, identifier: x, merge: 3}\nmerge_layers: {readout: A, identifier: layer, merge: [2]}\n"},
		{"unknown key", "kind: merge-cells\nmerge_cells: {readout: A, identifier: x, merge: 3, factor: 2}\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseJob([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseJob_ForeignSectionsReportedInKindOrder(t *testing.T) {
	// GIVEN a redo-segmentation job carrying every other kind's section
	yaml := "kind: redo-segmentation\n" +
		"redo_segmentation: {old_readout: A, new_readout: B, old_identifiers: [x]}\n" +
		"rewrite_bitfield: {old_readout: A, new_readout: B}\n" +
		"merge_layers: {readout: A, identifier: layer, merge: [2]}\n" +
		"merge_cells: {readout: A, identifier: x, merge: 3}\n"
	want := `section merge_cells does not belong to kind "redo-segmentation"; ` +
		`section merge_layers does not belong to kind "redo-segmentation"; ` +
		`section rewrite_bitfield does not belong to kind "redo-segmentation"`

	// WHEN parsed repeatedly
	// THEN the problems are always listed in the same order
	for i := 0; i < 20; i++ {
		_, err := ParseJob([]byte(yaml))
		require.ErrorIs(t, err, ErrConfig)
		assert.Contains(t, err.Error(), want)
	}
}
