// Package sim provides the core types shared by the detector cell-id and
// magnetic field tools.
//
// # Reading Guide
//
// Start with these three files:
//   - hit.go: Hit and Collection, the unit of work of every cell-id transform
//   - segmentation.go: Segmentation, SegmentationKind, Readout and ReadoutRegistry
//   - magnetic_field.go: MagneticField, evaluated by field maps and probes
//
// # Architecture
//
// The sim package defines interfaces and bridge types; implementations live in
// sub-packages:
//   - sim/bitfield/: packed cell-id layouts (decode, encode, description strings)
//   - sim/segmentation/: cartesian-grid and module-theta-merged segmentations
//   - sim/geometry/: readout registry loaded from a YAML readout description
//   - sim/edm/: collection files (YAML header plus CSV hits)
//   - sim/resegment/: RedoSegmentation, MergeCells, MergeLayers, RewriteBitfield
//   - sim/fieldmap/: regular 2D and 3D field maps, constant and overlay fields
//   - sim/probe/: field scans over planes and tubes
//   - sim/units/: length and field unit factors
//
// sim/segmentation registers its factory via init() by setting the
// package-level NewSegmentationFunc variable.
//
// # Units
//
// Hit positions and field map points are in millimetres, segmentation-local
// positions in centimetres, and field values in tesla.
package sim
