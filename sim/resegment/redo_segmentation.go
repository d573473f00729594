package resegment

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/bitfield"
	"github.com/detsim/detsim/sim/units"
)

// ModuleField is the field carrying the pre-merge module number that
// module-theta merged segmentations read from their seed id.
const ModuleField = "module"

// SegmentationLengthUnit is the length unit of segmentation local positions.
const SegmentationLengthUnit = units.Centimetre

// RedoSegmentationConfig configures RedoSegmentation.
// OldIdentifiers names the fields set by the old segmentation; every other
// field of the old bitfield identifies the detector element and is carried over.
type RedoSegmentationConfig struct {
	OldReadout     string   `yaml:"old_readout"`
	NewReadout     string   `yaml:"new_readout"`
	OldIdentifiers []string `yaml:"old_identifiers"`
	DebugPrint     *int     `yaml:"debug_print,omitempty"`
	// HitLengthUnit is the unit of hit positions; defaults to millimetres.
	HitLengthUnit string `yaml:"hit_length_unit,omitempty"`
}

// RedoSegmentation recomputes cell ids under the segmentation of a new readout.
type RedoSegmentation struct {
	oldReadout  *sim.Readout
	newReadout  *sim.Readout
	segFields   []bitfield.Field // old segmentation fields, zeroed to get the volume id
	detector    []fieldCopy      // detector fields, old layout to new layout
	module      *fieldCopy       // set when the new segmentation needs the pre-merge module
	toSegLength float64
	debug       int
}

// NewRedoSegmentation validates cfg against the readouts found in registry.
func NewRedoSegmentation(cfg RedoSegmentationConfig, registry sim.ReadoutRegistry) (*RedoSegmentation, error) {
	const name = "redo segmentation"
	oldReadout, ok := registry.Readout(cfg.OldReadout)
	if !ok {
		return nil, configError(name, "old readout %q not found", cfg.OldReadout)
	}
	newReadout, ok := registry.Readout(cfg.NewReadout)
	if !ok {
		return nil, configError(name, "new readout %q not found", cfg.NewReadout)
	}
	oldLayout, newLayout := oldReadout.Layout, newReadout.Layout

	if len(cfg.OldIdentifiers) == 0 {
		logrus.Warnf("[redo segmentation] no old segmentation identifiers; volume ids may be recomputed incorrectly")
	}
	if unknown := lo.Without(cfg.OldIdentifiers, oldLayout.FieldNames()...); len(unknown) > 0 {
		return nil, configError(name, "old identifiers %v are not fields of %q (%s)", unknown, cfg.OldReadout, oldLayout.Description())
	}
	segFields := lo.Map(cfg.OldIdentifiers, func(n string, _ int) bitfield.Field {
		f, _ := oldLayout.Field(n)
		return f
	})

	detectorNames := lo.Without(oldLayout.FieldNames(), cfg.OldIdentifiers...)
	detector, err := fieldCopies(name, oldLayout, newLayout, detectorNames)
	if err != nil {
		return nil, err
	}

	r := &RedoSegmentation{
		oldReadout: oldReadout,
		newReadout: newReadout,
		segFields:  segFields,
		detector:   detector,
		debug:      debugLimit(cfg.DebugPrint),
	}
	if newReadout.Segmentation.Kind() == sim.KindModuleThetaMerged {
		from, okOld := oldLayout.Field(ModuleField)
		to, okNew := newLayout.Field(ModuleField)
		if !okOld || !okNew {
			return nil, configError(name, "%s segmentation of %q needs a %q field in both bitfields",
				newReadout.Segmentation.Type(), cfg.NewReadout, ModuleField)
		}
		r.module = &fieldCopy{from: from, to: to}
	}

	hitUnit := cfg.HitLengthUnit
	if hitUnit == "" {
		hitUnit = units.Millimetre
	}
	if r.toSegLength, err = units.LengthFactor(hitUnit, SegmentationLengthUnit); err != nil {
		return nil, configError(name, "hit_length_unit: %v", err)
	}

	logrus.Infof("[redo segmentation] old bitfield: %s", oldLayout.Description())
	logrus.Infof("[redo segmentation] new bitfield: %s", newLayout.Description())
	logrus.Infof("[redo segmentation] old segmentation %s (%s), new segmentation %s (%s)",
		oldReadout.Segmentation.Type(), oldReadout.Segmentation.Kind(),
		newReadout.Segmentation.Type(), newReadout.Segmentation.Kind())
	return r, nil
}

// Name implements Transform.
func (r *RedoSegmentation) Name() string { return "redo-segmentation" }

// VolumeID returns id with every old segmentation field zeroed.
func (r *RedoSegmentation) VolumeID(id uint64) uint64 {
	for _, f := range r.segFields {
		id = f.Clear(id)
	}
	return id
}

// localPosition returns the position handed to the new segmentation, in centimetres.
func (r *RedoSegmentation) localPosition(hit sim.Hit) r3.Vec {
	if r.oldReadout.Segmentation.Kind() == sim.KindModuleThetaMerged {
		return r.oldReadout.Segmentation.Position(hit.CellID)
	}
	return r3.Scale(r.toSegLength, hit.Position)
}

// CellID computes the new id of hit.
func (r *RedoSegmentation) CellID(hit sim.Hit) (uint64, error) {
	oldID := hit.CellID
	volumeID := r.VolumeID(oldID)

	// The seed is the volume id expressed in the new bitfield.
	var seed uint64
	for _, c := range r.detector {
		seed = c.apply(volumeID, seed)
	}
	if r.module != nil {
		seed = r.module.apply(oldID, seed)
	}

	newID, err := r.newReadout.Segmentation.CellID(r.localPosition(hit), seed)
	if err != nil {
		return 0, err
	}
	for _, c := range r.detector {
		newID = c.apply(oldID, newID)
	}
	return newID, nil
}

// Execute implements Transform. The output is annotated with the new bitfield description.
func (r *RedoSegmentation) Execute(in *sim.Collection) (*sim.Collection, error) {
	out := newOutput(in)
	out.SetMetadata(sim.CellIDEncodingKey, r.newReadout.Layout.Description())
	t := tracer{name: r.Name(), limit: r.debug}
	for i, hit := range in.Hits {
		id, err := r.CellID(hit)
		if err != nil {
			return nil, fmt.Errorf("redo segmentation: hit %d (%s): %w", i, r.oldReadout.Layout.ValueString(hit.CellID), err)
		}
		t.trace(r.oldReadout.Layout, hit.CellID, r.newReadout.Layout, id)
		out.Append(hit.WithCellID(id))
	}
	return out, nil
}
