package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim/bitfield"
)

// SegmentationKind classifies segmentations whose cell ids need special
// handling when they are recomputed. It is resolved once from the
// segmentation type name when a readout is loaded.
type SegmentationKind int

const (
	// KindGeneric segmentations compute a cell id from a position alone.
	KindGeneric SegmentationKind = iota
	// KindModuleThetaMerged segmentations merge adjacent modules and theta
	// cells per layer; their ids carry a position and their id computation
	// needs the pre-merge module number in the seed.
	KindModuleThetaMerged
)

// moduleThetaMergedTypes lists the type names resolved to KindModuleThetaMerged.
var moduleThetaMergedTypes = map[string]bool{
	"FCCSWGridModuleThetaMerged": true,
	"module-theta-merged":        true,
}

// KindOf resolves a segmentation type name to its kind.
func KindOf(typeName string) SegmentationKind {
	if moduleThetaMergedTypes[typeName] {
		return KindModuleThetaMerged
	}
	return KindGeneric
}

func (k SegmentationKind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindModuleThetaMerged:
		return "module-theta-merged"
	default:
		return fmt.Sprintf("SegmentationKind(%d)", int(k))
	}
}

// Segmentation maps positions in a detector element to cell ids and back.
// Local positions are expressed in centimetres.
type Segmentation interface {
	// Kind returns the dispatch class of this segmentation.
	Kind() SegmentationKind
	// Type returns the configured type name.
	Type() string
	// Layout returns the bitfield layout of the ids this segmentation produces.
	Layout() *bitfield.Layout
	// CellID computes the id of the cell containing local, starting from volumeID
	// whose non-segmentation fields identify the detector element.
	CellID(local r3.Vec, volumeID uint64) (uint64, error)
	// Position returns the local position of the centre of cell id.
	Position(id uint64) r3.Vec
}

// SegmentationSpec is the declarative description of a segmentation.
type SegmentationSpec struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params,omitempty"`
}

// NewSegmentationFunc builds a Segmentation from its spec and the readout layout.
// Set by sim/segmentation's init(); nil until that package is imported.
var NewSegmentationFunc func(spec SegmentationSpec, layout *bitfield.Layout) (Segmentation, error)

// NewSegmentation builds a segmentation through the registered factory.
func NewSegmentation(spec SegmentationSpec, layout *bitfield.Layout) (Segmentation, error) {
	if NewSegmentationFunc == nil {
		return nil, fmt.Errorf("no segmentation factory registered; import sim/segmentation")
	}
	return NewSegmentationFunc(spec, layout)
}

// Readout binds a name to the layout and segmentation of a detector readout.
type Readout struct {
	Name         string
	Layout       *bitfield.Layout
	Segmentation Segmentation
}

// ReadoutRegistry looks readouts up by name.
type ReadoutRegistry interface {
	Readout(name string) (*Readout, bool)
}
