package resegment

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/detsim/detsim/sim"
)

// Job kinds.
const (
	KindRedoSegmentation = "redo-segmentation"
	KindMergeCells       = "merge-cells"
	KindMergeLayers      = "merge-layers"
	KindRewriteBitfield  = "rewrite-bitfield"
)

// Job is a YAML-described transform: its kind plus the configuration section
// of that kind. Output optionally renames the produced collection.
type Job struct {
	Kind             string                  `yaml:"kind"`
	Output           string                  `yaml:"output,omitempty"`
	RedoSegmentation *RedoSegmentationConfig `yaml:"redo_segmentation,omitempty"`
	MergeCells       *MergeCellsConfig       `yaml:"merge_cells,omitempty"`
	MergeLayers      *MergeLayersConfig      `yaml:"merge_layers,omitempty"`
	RewriteBitfield  *RewriteBitfieldConfig  `yaml:"rewrite_bitfield,omitempty"`
}

// LoadJob reads a YAML job file. Unrecognized keys are rejected.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job: %w", err)
	}
	return ParseJob(data)
}

// ParseJob parses and validates a YAML job held in memory.
func ParseJob(data []byte) (*Job, error) {
	var job Job
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&job); err != nil {
		return nil, fmt.Errorf("parsing job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// kinds lists every job kind in the order problems are reported.
var kinds = []string{KindRedoSegmentation, KindMergeCells, KindMergeLayers, KindRewriteBitfield}

// hasSection reports whether the configuration section of kind is set.
func (j *Job) hasSection(kind string) bool {
	switch kind {
	case KindRedoSegmentation:
		return j.RedoSegmentation != nil
	case KindMergeCells:
		return j.MergeCells != nil
	case KindMergeLayers:
		return j.MergeLayers != nil
	case KindRewriteBitfield:
		return j.RewriteBitfield != nil
	}
	return false
}

// Validate checks that the job names a known kind and carries exactly that kind's section.
func (j *Job) Validate() error {
	if !slices.Contains(kinds, j.Kind) {
		return fmt.Errorf("job: %w: unknown kind %q (valid: %s)", ErrConfig, j.Kind, strings.Join(kinds, ", "))
	}
	if !j.hasSection(j.Kind) {
		return fmt.Errorf("job: %w: kind %q requires a %s section", ErrConfig, j.Kind, sectionKey(j.Kind))
	}
	var problems []string
	for _, kind := range kinds {
		if kind != j.Kind && j.hasSection(kind) {
			problems = append(problems, fmt.Sprintf("section %s does not belong to kind %q", sectionKey(kind), j.Kind))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("job: %w: %s", ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

func sectionKey(kind string) string {
	return strings.ReplaceAll(kind, "-", "_")
}

// Build constructs the transform described by the job.
func (j *Job) Build(registry sim.ReadoutRegistry) (Transform, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	var (
		t   Transform
		err error
	)
	// A failed constructor must yield a nil interface, not a typed nil.
	switch j.Kind {
	case KindRedoSegmentation:
		var r *RedoSegmentation
		r, err = NewRedoSegmentation(*j.RedoSegmentation, registry)
		t = r
	case KindMergeCells:
		var m *MergeCells
		m, err = NewMergeCells(*j.MergeCells, registry)
		t = m
	case KindMergeLayers:
		var m *MergeLayers
		m, err = NewMergeLayers(*j.MergeLayers, registry)
		t = m
	default:
		var r *RewriteBitfield
		r, err = NewRewriteBitfield(*j.RewriteBitfield, registry)
		t = r
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Run builds the transform and applies it to in, renaming the output when Output is set.
func (j *Job) Run(registry sim.ReadoutRegistry, in *sim.Collection) (*sim.Collection, error) {
	t, err := j.Build(registry)
	if err != nil {
		return nil, err
	}
	out, err := t.Execute(in)
	if err != nil {
		return nil, err
	}
	if j.Output != "" {
		out.Name = j.Output
	}
	return out, nil
}
