// register.go wires sim/segmentation constructors into the sim package's
// registration variable (NewSegmentationFunc). This init() runs when any package
// imports sim/segmentation, breaking the import cycle between sim/ (interface
// owner) and sim/segmentation/ (implementation). sim/geometry imports this
// package directly, so every loaded readout can build its segmentation.
package segmentation

import (
	"fmt"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/bitfield"
)

func init() {
	sim.NewSegmentationFunc = New
}

// New builds the segmentation named by spec.Type over layout.
// Dispatch happens here, once per readout; the returned value carries its kind.
func New(spec sim.SegmentationSpec, layout *bitfield.Layout) (sim.Segmentation, error) {
	if layout == nil {
		return nil, fmt.Errorf("segmentation %q: nil layout", spec.Type)
	}
	switch sim.KindOf(spec.Type) {
	case sim.KindModuleThetaMerged:
		return NewModuleThetaMerged(spec.Type, spec.Params, layout)
	}
	switch spec.Type {
	case CartesianGridType, "CartesianGridXY", "CartesianGridXYZ":
		return NewCartesianGrid(spec.Type, spec.Params, layout)
	default:
		return nil, fmt.Errorf("unknown segmentation type %q", spec.Type)
	}
}
