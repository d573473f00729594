// Package geometry loads readout descriptions and serves them as a
// sim.ReadoutRegistry. A readout pairs a bitfield layout with a segmentation.
package geometry

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/bitfield"
	_ "github.com/detsim/detsim/sim/segmentation" // registers sim.NewSegmentationFunc
)

// Description is the top-level readout description document.
type Description struct {
	Readouts []ReadoutSpec `yaml:"readouts"`
}

// ReadoutSpec declares one readout.
type ReadoutSpec struct {
	Name         string               `yaml:"name"`
	ID           string               `yaml:"id"`
	Segmentation sim.SegmentationSpec `yaml:"segmentation"`
}

// LoadDescription reads and parses a YAML readout description.
// Uses strict parsing: unrecognized keys are rejected.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading readout description: %w", err)
	}
	return ParseDescription(data)
}

// ParseDescription parses a YAML readout description held in memory.
func ParseDescription(data []byte) (*Description, error) {
	var desc Description
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&desc); err != nil {
		return nil, fmt.Errorf("parsing readout description: %w", err)
	}
	return &desc, nil
}

// Validate checks names and layouts; segmentation parameters are checked by NewRegistry.
func (d *Description) Validate() error {
	if len(d.Readouts) == 0 {
		return fmt.Errorf("readout description lists no readouts")
	}
	seen := make(map[string]bool, len(d.Readouts))
	for i, r := range d.Readouts {
		prefix := fmt.Sprintf("readouts[%d]", i)
		if r.Name == "" {
			return fmt.Errorf("%s: name is required", prefix)
		}
		if seen[r.Name] {
			return fmt.Errorf("%s: duplicate readout name %q", prefix, r.Name)
		}
		seen[r.Name] = true
		if _, err := bitfield.ParseLayout(r.ID); err != nil {
			return fmt.Errorf("%s (%s): %w", prefix, r.Name, err)
		}
		if r.Segmentation.Type == "" {
			return fmt.Errorf("%s (%s): segmentation type is required", prefix, r.Name)
		}
	}
	return nil
}

// Registry holds built readouts keyed by name. It is immutable once built.
type Registry struct {
	readouts map[string]*sim.Readout
}

// NewRegistry validates desc and builds every readout through sim.NewSegmentation.
func NewRegistry(desc *Description) (*Registry, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	reg := &Registry{readouts: make(map[string]*sim.Readout, len(desc.Readouts))}
	for _, r := range desc.Readouts {
		layout, err := bitfield.ParseLayout(r.ID)
		if err != nil {
			return nil, fmt.Errorf("readout %q: %w", r.Name, err)
		}
		seg, err := sim.NewSegmentation(r.Segmentation, layout)
		if err != nil {
			return nil, fmt.Errorf("readout %q: %w", r.Name, err)
		}
		reg.readouts[r.Name] = &sim.Readout{Name: r.Name, Layout: layout, Segmentation: seg}
		logrus.Debugf("readout %s: %s segmentation %q over %s", r.Name, seg.Kind(), seg.Type(), layout.Description())
	}
	return reg, nil
}

// Load reads a readout description file and builds its registry.
func Load(path string) (*Registry, error) {
	desc, err := LoadDescription(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(desc)
}

// Readout returns the named readout.
func (r *Registry) Readout(name string) (*sim.Readout, bool) {
	ro, ok := r.readouts[name]
	return ro, ok
}

// Names returns all readout names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.readouts))
	for name := range r.readouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
