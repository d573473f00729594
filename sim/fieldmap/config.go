package fieldmap

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/units"
)

// Config describes the magnetic field to evaluate: an optional map file, an
// optional additional Bz limited in radius, and an optional constant field.
// Field strengths are in tesla and lengths in millimetres.
type Config struct {
	MapFile      string          `yaml:"map_file,omitempty"`
	LengthUnit   string          `yaml:"length_unit,omitempty"` // unit of map file lengths
	FieldUnit    string          `yaml:"field_unit,omitempty"`  // unit of map file fields
	AddFieldBz   float64         `yaml:"add_field_bz,omitempty"`
	AddFieldMaxR float64         `yaml:"add_field_max_r,omitempty"` // <= 0: no limit
	Constant     *ConstantConfig `yaml:"constant,omitempty"`
}

// ConstantConfig describes a uniform field.
type ConstantConfig struct {
	Bx   float64 `yaml:"bx"`
	By   float64 `yaml:"by"`
	Bz   float64 `yaml:"bz"`
	RMax float64 `yaml:"r_max,omitempty"`
	ZMax float64 `yaml:"z_max,omitempty"`
}

// LoadConfig reads a YAML field configuration. Unrecognized keys are rejected.
// A relative map_file is resolved against the directory of the configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading field config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	if cfg.MapFile != "" && !filepath.IsAbs(cfg.MapFile) {
		cfg.MapFile = filepath.Join(filepath.Dir(path), cfg.MapFile)
	}
	return cfg, nil
}

// ParseConfig parses and validates a YAML field configuration held in memory.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing field config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Units returns the unit system of the map file.
func (c *Config) Units() UnitSystem {
	return UnitSystem{Length: c.LengthUnit, Field: c.FieldUnit}
}

// Validate checks units and that at least one field source is configured.
func (c *Config) Validate() error {
	var problems []string
	if c.MapFile == "" && c.AddFieldBz == 0 && c.Constant == nil {
		problems = append(problems, "no field source: set map_file, add_field_bz or constant")
	}
	if c.LengthUnit != "" && !units.IsLength(c.LengthUnit) {
		problems = append(problems, fmt.Sprintf("unknown length_unit %q", c.LengthUnit))
	}
	if c.FieldUnit != "" && !units.IsField(c.FieldUnit) {
		problems = append(problems, fmt.Sprintf("unknown field_unit %q", c.FieldUnit))
	}
	if c.MapFile == "" && (c.LengthUnit != "" || c.FieldUnit != "") {
		problems = append(problems, "length_unit and field_unit apply only with map_file")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid field config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Build assembles the configured field. A single source is returned as is;
// several are summed.
func (c *Config) Build() (sim.MagneticField, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var fields []sim.MagneticField
	if c.MapFile != "" {
		m, err := LoadFile(c.MapFile, c.Units())
		if err != nil {
			return nil, err
		}
		fields = append(fields, m)
	}
	if c.AddFieldBz != 0 {
		logrus.Infof("[fieldmap] adding constant Bz = %g T (max r: %g mm)", c.AddFieldBz, c.AddFieldMaxR)
		fields = append(fields, Constant{B: r3.Vec{Z: c.AddFieldBz}, RMax: c.AddFieldMaxR})
	}
	if c.Constant != nil {
		fields = append(fields, Constant{
			B:    r3.Vec{X: c.Constant.Bx, Y: c.Constant.By, Z: c.Constant.Bz},
			RMax: c.Constant.RMax,
			ZMax: c.Constant.ZMax,
		})
	}
	if len(fields) == 1 {
		return fields[0], nil
	}
	return Overlay{Fields: fields}, nil
}
