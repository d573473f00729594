package resegment

import (
	"github.com/sirupsen/logrus"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/bitfield"
)

// MergeCellsConfig configures MergeCells.
type MergeCellsConfig struct {
	Readout    string `yaml:"readout"`
	Identifier string `yaml:"identifier"`
	Merge      uint   `yaml:"merge"`
	DebugPrint *int   `yaml:"debug_print,omitempty"`
}

// MergeCells merges every Merge adjacent cells of one field into one.
// Signed fields require an odd factor so that the merged cell stays centred on zero.
type MergeCells struct {
	layout *bitfield.Layout
	field  bitfield.Field
	merge  int64
	debug  int
}

// NewMergeCells validates cfg against the readout found in registry.
func NewMergeCells(cfg MergeCellsConfig, registry sim.ReadoutRegistry) (*MergeCells, error) {
	const name = "merge cells"
	if cfg.Identifier == "" {
		return nil, configError(name, "identifier to merge is not set")
	}
	readout, ok := registry.Readout(cfg.Readout)
	if !ok {
		return nil, configError(name, "readout %q not found", cfg.Readout)
	}
	field, ok := readout.Layout.Field(cfg.Identifier)
	if !ok {
		return nil, configError(name, "field %q not in readout %q (%s)", cfg.Identifier, cfg.Readout, readout.Layout.Description())
	}
	if field.Width < 64 && uint64(cfg.Merge) > uint64(1)<<field.Width {
		return nil, configError(name, "merge factor %d exceeds the %d values of field %q", cfg.Merge, uint64(1)<<field.Width, field.Name)
	}
	if cfg.Merge < 2 {
		return nil, configError(name, "merge factor %d must be at least 2", cfg.Merge)
	}
	if field.Signed && cfg.Merge%2 == 0 {
		return nil, configError(name, "signed field %q needs an odd merge factor, got %d", field.Name, cfg.Merge)
	}
	logrus.Infof("[merge cells] merging %d cells of %q in %q (%s)", cfg.Merge, field.Name, cfg.Readout, field)
	return &MergeCells{
		layout: readout.Layout,
		field:  field,
		merge:  int64(cfg.Merge),
		debug:  debugLimit(cfg.DebugPrint),
	}, nil
}

// Name implements Transform.
func (m *MergeCells) Name() string { return "merge-cells" }

// MergeValue maps a field value to its merged value.
func (m *MergeCells) MergeValue(v int64) int64 {
	if m.field.Signed {
		// Go division truncates toward zero; shifting by half the factor
		// away from zero centres the merged cells on zero.
		if v < 0 {
			v -= m.merge / 2
		} else {
			v += m.merge / 2
		}
	}
	return v / m.merge
}

// CellID returns id with the configured field merged.
func (m *MergeCells) CellID(id uint64) uint64 {
	return m.field.Encode(id, m.MergeValue(m.field.Value(id)))
}

// Execute implements Transform.
func (m *MergeCells) Execute(in *sim.Collection) (*sim.Collection, error) {
	out := newOutput(in)
	t := tracer{name: m.Name(), limit: m.debug}
	for _, hit := range in.Hits {
		id := m.CellID(hit.CellID)
		t.trace(m.layout, hit.CellID, m.layout, id)
		out.Append(hit.WithCellID(id))
	}
	return out, nil
}
