package resegment

import (
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/bitfield"
)

// RewriteBitfieldConfig configures RewriteBitfield.
type RewriteBitfieldConfig struct {
	OldReadout        string   `yaml:"old_readout"`
	NewReadout        string   `yaml:"new_readout"`
	RemoveIdentifiers []string `yaml:"remove_identifiers"`
	DebugPrint        *int     `yaml:"debug_print,omitempty"`
}

// fieldCopy copies one field value from an old id into a new id.
type fieldCopy struct {
	from bitfield.Field
	to   bitfield.Field
}

func (c fieldCopy) apply(oldID, newID uint64) uint64 {
	return c.to.Encode(newID, c.from.Value(oldID))
}

// RewriteBitfield repacks the fields surviving removal into a zeroed id of the new layout.
type RewriteBitfield struct {
	oldLayout *bitfield.Layout
	newLayout *bitfield.Layout
	copies    []fieldCopy
	debug     int
}

// NewRewriteBitfield validates that every surviving field exists in the new layout.
func NewRewriteBitfield(cfg RewriteBitfieldConfig, registry sim.ReadoutRegistry) (*RewriteBitfield, error) {
	const name = "rewrite bitfield"
	oldReadout, ok := registry.Readout(cfg.OldReadout)
	if !ok {
		return nil, configError(name, "old readout %q not found", cfg.OldReadout)
	}
	newReadout, ok := registry.Readout(cfg.NewReadout)
	if !ok {
		return nil, configError(name, "new readout %q not found", cfg.NewReadout)
	}
	if len(cfg.RemoveIdentifiers) == 0 {
		logrus.Infof("[rewrite bitfield] no identifiers to remove; fields are only repacked")
	}
	if unknown := lo.Without(cfg.RemoveIdentifiers, oldReadout.Layout.FieldNames()...); len(unknown) > 0 {
		logrus.Warnf("[rewrite bitfield] identifiers %v are not in %q and are ignored", unknown, cfg.OldReadout)
	}
	surviving := lo.Without(oldReadout.Layout.FieldNames(), cfg.RemoveIdentifiers...)
	copies, err := fieldCopies(name, oldReadout.Layout, newReadout.Layout, surviving)
	if err != nil {
		return nil, err
	}
	logrus.Infof("[rewrite bitfield] old bitfield: %s", oldReadout.Layout.Description())
	logrus.Infof("[rewrite bitfield] new bitfield: %s", newReadout.Layout.Description())
	return &RewriteBitfield{
		oldLayout: oldReadout.Layout,
		newLayout: newReadout.Layout,
		copies:    copies,
		debug:     debugLimit(cfg.DebugPrint),
	}, nil
}

// fieldCopies pairs each named field of oldLayout with its namesake in newLayout.
func fieldCopies(transform string, oldLayout, newLayout *bitfield.Layout, names []string) ([]fieldCopy, error) {
	missing := lo.Filter(names, func(n string, _ int) bool { return !newLayout.Has(n) })
	if len(missing) > 0 {
		return nil, configError(transform, "fields %v of the old bitfield are missing from the new bitfield (%s)", missing, newLayout.Description())
	}
	return lo.Map(names, func(n string, _ int) fieldCopy {
		from, _ := oldLayout.Field(n)
		to, _ := newLayout.Field(n)
		return fieldCopy{from: from, to: to}
	}), nil
}

// Name implements Transform.
func (r *RewriteBitfield) Name() string { return "rewrite-bitfield" }

// CellID repacks id into the new layout.
func (r *RewriteBitfield) CellID(id uint64) uint64 {
	var newID uint64
	for _, c := range r.copies {
		newID = c.apply(id, newID)
	}
	return newID
}

// Execute implements Transform. The output is annotated with the new bitfield description.
func (r *RewriteBitfield) Execute(in *sim.Collection) (*sim.Collection, error) {
	out := newOutput(in)
	out.SetMetadata(sim.CellIDEncodingKey, r.newLayout.Description())
	t := tracer{name: r.Name(), limit: r.debug}
	for _, hit := range in.Hits {
		id := r.CellID(hit.CellID)
		t.trace(r.oldLayout, hit.CellID, r.newLayout, id)
		out.Append(hit.WithCellID(id))
	}
	return out, nil
}
