// Package edm reads and writes hit collections: a YAML header carrying the
// collection metadata and a CSV file with one hit per row.
package edm

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/detsim/detsim/sim"
)

// FormatVersion is the collection file format version written by Export.
const FormatVersion = 1

// Header captures collection metadata.
type Header struct {
	Version    int               `yaml:"version"`
	Collection string            `yaml:"collection"`
	RunID      string            `yaml:"run_id"`
	CreatedAt  string            `yaml:"created_at,omitempty"`
	Hits       int               `yaml:"hits"`
	Metadata   map[string]string `yaml:"metadata,omitempty"`
}

// hitColumns are the CSV column headers of the data file.
var hitColumns = []string{"cell_id", "energy", "energy_error", "time", "x", "y", "z", "type"}

// NewHeader describes c, stamping a fresh run id.
func NewHeader(c *sim.Collection) *Header {
	return &Header{
		Version:    FormatVersion,
		Collection: c.Name,
		RunID:      uuid.NewString(),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Hits:       c.Len(),
		Metadata:   c.Metadata,
	}
}

// Export writes the collection header (YAML) and hits (CSV) to separate files.
func Export(c *sim.Collection, headerPath, dataPath string) error {
	headerData, err := yaml.Marshal(NewHeader(c))
	if err != nil {
		return fmt.Errorf("marshaling collection header: %w", err)
	}
	if err := os.WriteFile(headerPath, headerData, 0644); err != nil {
		return fmt.Errorf("writing collection header: %w", err)
	}

	file, err := os.Create(dataPath)
	if err != nil {
		return fmt.Errorf("creating collection data file: %w", err)
	}
	defer func() { _ = file.Close() }()
	if err := WriteHits(file, c.Hits); err != nil {
		return err
	}
	return file.Close()
}

// WriteHits writes hits as CSV with a header row.
// Cell ids are written as unsigned decimal integers to keep all 64 bits.
func WriteHits(w io.Writer, hits []sim.Hit) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(hitColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, h := range hits {
		row := []string{
			strconv.FormatUint(h.CellID, 10),
			formatFloat(h.Energy),
			formatFloat(h.EnergyError),
			formatFloat(h.Time),
			formatFloat(h.Position.X),
			formatFloat(h.Position.Y),
			formatFloat(h.Position.Z),
			strconv.FormatInt(int64(h.Type), 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Load reads a collection header (YAML) and hits (CSV).
func Load(headerPath, dataPath string) (*sim.Collection, error) {
	headerData, err := os.ReadFile(headerPath)
	if err != nil {
		return nil, fmt.Errorf("reading collection header: %w", err)
	}
	var header Header
	if err := yaml.Unmarshal(headerData, &header); err != nil {
		return nil, fmt.Errorf("parsing collection header: %w", err)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported collection format version %d", header.Version)
	}

	file, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("opening collection data: %w", err)
	}
	defer func() { _ = file.Close() }()

	hits, err := ReadHits(file)
	if err != nil {
		return nil, err
	}
	if header.Hits != len(hits) {
		return nil, fmt.Errorf("collection header declares %d hits, data has %d", header.Hits, len(hits))
	}
	c := sim.NewCollection(header.Collection, len(hits))
	c.Hits = append(c.Hits, hits...)
	for k, v := range header.Metadata {
		c.SetMetadata(k, v)
	}
	return c, nil
}

// ReadHits parses CSV hits written by WriteHits. Any malformed value is an error.
func ReadHits(r io.Reader) ([]sim.Hit, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(hitColumns)

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	var hits []sim.Hit
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		h, err := parseHit(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func parseHit(row []string) (sim.Hit, error) {
	var h sim.Hit
	var err error
	if h.CellID, err = strconv.ParseUint(row[0], 10, 64); err != nil {
		return h, fmt.Errorf("cell_id: %w", err)
	}
	floats := [6]float64{}
	for i := range floats {
		if floats[i], err = strconv.ParseFloat(row[i+1], 64); err != nil {
			return h, fmt.Errorf("%s: %w", hitColumns[i+1], err)
		}
	}
	typ, err := strconv.ParseInt(row[7], 10, 32)
	if err != nil {
		return h, fmt.Errorf("type: %w", err)
	}
	h.Energy, h.EnergyError, h.Time = floats[0], floats[1], floats[2]
	h.Position = r3.Vec{X: floats[3], Y: floats[4], Z: floats[5]}
	h.Type = int32(typ)
	return h, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
