package resegment

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/bitfield"
)

// Out-of-range policies for layer values beyond the last bucket.
const (
	// OutOfRangeKeep leaves the value unchanged.
	OutOfRangeKeep = "keep"
	// OutOfRangeLast assigns the value to the last bucket.
	OutOfRangeLast = "last"
	// OutOfRangeError fails the execution.
	OutOfRangeError = "error"
)

var outOfRangePolicies = []string{OutOfRangeKeep, OutOfRangeLast, OutOfRangeError}

// MergeLayersConfig configures MergeLayers.
// ListToMerge gives the number of consecutive layers in each bucket, starting at layer 0.
type MergeLayersConfig struct {
	Readout     string `yaml:"readout"`
	Identifier  string `yaml:"identifier"`
	ListToMerge []uint `yaml:"merge"`
	OutOfRange  string `yaml:"out_of_range,omitempty"`
	DebugPrint  *int   `yaml:"debug_print,omitempty"`
}

// MergeLayers maps each layer value to the index of the bucket containing it.
type MergeLayers struct {
	layout     *bitfield.Layout
	field      bitfield.Field
	boundaries []int64 // exclusive cumulative upper bounds
	policy     string
	debug      int
}

// NewMergeLayers validates cfg against the readout found in registry and
// precomputes the bucket boundaries.
func NewMergeLayers(cfg MergeLayersConfig, registry sim.ReadoutRegistry) (*MergeLayers, error) {
	const name = "merge layers"
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
	if len(cfg.ListToMerge) == 0 {
		return nil, configError(name, "list of layers to merge is empty")
	}
	if lo.Contains(cfg.ListToMerge, 0) {
		return nil, configError(name, "list of layers to merge %v contains a zero entry", cfg.ListToMerge)
	}
	policy := cfg.OutOfRange
	if policy == "" {
		policy = OutOfRangeKeep
	}
	if !lo.Contains(outOfRangePolicies, policy) {
		return nil, configError(name, "unknown out_of_range policy %q (valid: %v)", policy, outOfRangePolicies)
	}

	boundaries := make([]int64, len(cfg.ListToMerge))
	var sum int64
	for i, n := range cfg.ListToMerge {
		sum += int64(n)
		boundaries[i] = sum
	}
	if sum-1 > field.Max() {
		logrus.Warnf("[merge layers] buckets cover %d layers but field %q holds at most %d", sum, field.Name, field.Max()+1)
	}
	logrus.Infof("[merge layers] merging %q in %q into %d buckets %v (out of range: %s)",
		field.Name, cfg.Readout, len(boundaries), cfg.ListToMerge, policy)
	return &MergeLayers{
		layout:     readout.Layout,
		field:      field,
		boundaries: boundaries,
		policy:     policy,
		debug:      debugLimit(cfg.DebugPrint),
	}, nil
}

// Name implements Transform.
func (m *MergeLayers) Name() string { return "merge-layers" }

// Bucket returns the bucket index of layer value v, or ok=false when v lies
// outside every bucket.
func (m *MergeLayers) Bucket(v int64) (int64, bool) {
	if v < 0 {
		return 0, false
	}
	for i, b := range m.boundaries {
		if v < b {
			return int64(i), true
		}
	}
	return 0, false
}

// CellID returns id with the configured field replaced by its bucket index.
func (m *MergeLayers) CellID(id uint64) (uint64, error) {
	v := m.field.Value(id)
	bucket, ok := m.Bucket(v)
	if !ok {
		switch m.policy {
		case OutOfRangeLast:
			bucket = int64(len(m.boundaries) - 1)
		case OutOfRangeError:
			return 0, fmt.Errorf("merge layers: %s=%d outside the %d merged layers", m.field.Name, v, m.boundaries[len(m.boundaries)-1])
		default:
			return id, nil
		}
	}
	return m.field.Encode(id, bucket), nil
}

// Execute implements Transform.
func (m *MergeLayers) Execute(in *sim.Collection) (*sim.Collection, error) {
	out := newOutput(in)
	t := tracer{name: m.Name(), limit: m.debug}
	for i, hit := range in.Hits {
		id, err := m.CellID(hit.CellID)
		if err != nil {
			return nil, fmt.Errorf("hit %d: %w", i, err)
		}
		t.trace(m.layout, hit.CellID, m.layout, id)
		out.Append(hit.WithCellID(id))
	}
	return out, nil
}
