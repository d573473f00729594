package probe

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/detsim/detsim/sim"
)

// DefaultBins is the number of bins per scanned coordinate.
const DefaultBins = 500

// Map2D holds the field components sampled at the bin centres of a probe.
// Component planes are indexed by i*Bins+j for u bin i and v bin j, in tesla.
type Map2D struct {
	Probe      string
	U, V       Range
	Bins       int
	BX, BY, BZ []float64
}

// center returns the centre of bin i of r.
func (r Range) center(i, bins int) float64 {
	return r.Min + (float64(i)+0.5)*(r.Max-r.Min)/float64(bins)
}

// UAt returns the u coordinate of bin i.
func (m *Map2D) UAt(i int) float64 { return m.U.center(i, m.Bins) }

// VAt returns the v coordinate of bin j.
func (m *Map2D) VAt(j int) float64 { return m.V.center(j, m.Bins) }

// Scan evaluates field at the centre of every bins x bins cell of p.
func Scan(field sim.MagneticField, p Probe, bins int) (*Map2D, error) {
	if bins < 1 {
		return nil, fmt.Errorf("scan %s: bins must be positive, got %d", p.Name(), bins)
	}
	u, v := p.Ranges()
	n := bins * bins
	m := &Map2D{
		Probe: p.Name(),
		U:     u,
		V:     v,
		Bins:  bins,
		BX:    make([]float64, n),
		BY:    make([]float64, n),
		BZ:    make([]float64, n),
	}
	for i := 0; i < bins; i++ {
		uc := m.UAt(i)
		for j := 0; j < bins; j++ {
			b := field.FieldValue(p.Point(uc, m.VAt(j)))
			idx := i*bins + j
			m.BX[idx], m.BY[idx], m.BZ[idx] = b.X, b.Y, b.Z
		}
	}
	return m, nil
}

// WriteCSV writes maps in long format with columns probe,u,v,bx,by,bz.
func WriteCSV(w io.Writer, maps ...*Map2D) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"probe", "u", "v", "bx", "by", "bz"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, m := range maps {
		for i := 0; i < m.Bins; i++ {
			for j := 0; j < m.Bins; j++ {
				idx := i*m.Bins + j
				row := []string{m.Probe, format(m.UAt(i)), format(m.VAt(j)),
					format(m.BX[idx]), format(m.BY[idx]), format(m.BZ[idx])}
				if err := writer.Write(row); err != nil {
					return fmt.Errorf("writing %s row: %w", m.Probe, err)
				}
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
