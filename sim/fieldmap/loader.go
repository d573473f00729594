package fieldmap

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim"
)

// tabularColumns are the required columns of a tabular map, matched case-insensitively.
var tabularColumns = []string{"x", "y", "z", "bx", "by", "bz"}

// LoadTabular reads a CSV map with a header row naming the columns
// X, Y, Z, Bx, By, Bz in any order. Rows may come in any order and extra
// columns are ignored. Lines starting with '#' are comments.
func LoadTabular(r io.Reader, u UnitSystem) ([]Sample3D, error) {
	lengthFactor, fieldFactor, err := u.Factors()
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformedMap, err)
	}
	position := make(map[string]int, len(header))
	for i, name := range header {
		position[strings.ToLower(strings.TrimSpace(name))] = i
	}
	missing := lo.Filter(tabularColumns, func(c string, _ int) bool { _, ok := position[c]; return !ok })
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: header %v lacks columns %v", ErrMalformedMap, header, missing)
	}
	cols := lo.Map(tabularColumns, func(c string, _ int) int { return position[c] })

	var samples []Sample3D
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMap, err)
		}
		line, _ := reader.FieldPos(0)
		var v [6]float64
		for i, c := range cols {
			if v[i], err = strconv.ParseFloat(strings.TrimSpace(row[c]), 64); err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %v", ErrMalformedMap, line, header[c], err)
			}
		}
		samples = append(samples, Sample3D{
			Position: r3.Scale(lengthFactor, r3.Vec{X: v[0], Y: v[1], Z: v[2]}),
			Field:    r3.Scale(fieldFactor, r3.Vec{X: v[3], Y: v[4], Z: v[5]}),
		})
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrMalformedMap)
	}
	return samples, nil
}

// LoadText reads a '%'-annotated text export of a 2D map. The metadata must
// declare "% Dimension: 2" and "% Nodes: N"; each of the N data rows holds
// r z Br Bphi Bz normB separated by whitespace. Bphi and normB are not used.
func LoadText(r io.Reader, u UnitSystem) ([]Sample2D, error) {
	lengthFactor, fieldFactor, err := u.Factors()
	if err != nil {
		return nil, err
	}
	dimension, nodes := -1, -1
	var samples []Sample2D
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "%") {
			key, value, ok := strings.Cut(strings.TrimSpace(text[1:]), ":")
			if !ok {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "dimension":
				if dimension, err = strconv.Atoi(strings.TrimSpace(value)); err != nil {
					return nil, fmt.Errorf("%w: line %d: dimension: %v", ErrMalformedMap, line, err)
				}
			case "nodes":
				if nodes, err = strconv.Atoi(strings.TrimSpace(value)); err != nil {
					return nil, fmt.Errorf("%w: line %d: nodes: %v", ErrMalformedMap, line, err)
				}
			}
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 6 {
			return nil, fmt.Errorf("%w: line %d: want 6 columns (r z Br Bphi Bz normB), got %d", ErrMalformedMap, line, len(fields))
		}
		var v [6]float64
		for i, f := range fields {
			if v[i], err = strconv.ParseFloat(f, 64); err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %v", ErrMalformedMap, line, i+1, err)
			}
		}
		samples = append(samples, Sample2D{
			R:  v[0] * lengthFactor,
			Z:  v[1] * lengthFactor,
			BR: v[2] * fieldFactor,
			BZ: v[4] * fieldFactor,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading text map: %w", err)
	}
	if dimension != 2 {
		return nil, fmt.Errorf("%w: text maps must declare dimension 2, got %d", ErrMalformedMap, dimension)
	}
	if nodes < 0 {
		return nil, fmt.Errorf("%w: text map does not declare its node count", ErrMalformedMap)
	}
	if nodes != len(samples) {
		return nil, fmt.Errorf("%w: text map declares %d nodes but has %d data rows", ErrMalformedMap, nodes, len(samples))
	}
	return samples, nil
}

// LoadFile loads a map by file extension: ".csv" is a tabular 3D map and
// ".txt" a text 2D map.
func LoadFile(path string, u UnitSystem) (sim.MagneticField, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".txt" {
		return nil, fmt.Errorf("field map %s: unsupported extension %q (want .csv or .txt)", path, ext)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening field map: %w", err)
	}
	defer func() { _ = file.Close() }()

	if ext == ".csv" {
		samples, err := LoadTabular(file, u)
		if err != nil {
			return nil, fmt.Errorf("field map %s: %w", path, err)
		}
		m, err := NewRegular3D(samples)
		if err != nil {
			return nil, fmt.Errorf("field map %s: %w", path, err)
		}
		x, y, z := m.Axes()
		logrus.Infof("[fieldmap] loaded %s: %d samples on a %dx%dx%d grid", path, len(samples), x.Nodes, y.Nodes, z.Nodes)
		return m, nil
	}
	samples, err := LoadText(file, u)
	if err != nil {
		return nil, fmt.Errorf("field map %s: %w", path, err)
	}
	m, err := NewRegular2D(samples)
	if err != nil {
		return nil, fmt.Errorf("field map %s: %w", path, err)
	}
	rAxis, zAxis := m.Axes()
	logrus.Infof("[fieldmap] loaded %s: %d samples on a %dx%d (r, z) grid", path, len(samples), rAxis.Nodes, zAxis.Nodes)
	return m, nil
}
