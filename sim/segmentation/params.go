package segmentation

import (
	"fmt"
	"math"

	"github.com/detsim/detsim/sim/bitfield"
)

// params wraps the loosely typed YAML parameter map of a segmentation.
// YAML integers decode as int and reals as float64; both are accepted where
// a number is expected.
type params map[string]any

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// Float returns the named number or def when absent.
func (p params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("param %q must be a finite number, got %v", key, v)
	}
	return f, nil
}

// Int returns the named integer or def when absent.
func (p params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("param %q must be an integer, got %v", key, v)
	}
	return int(f), nil
}

// Text returns the named string or def when absent.
func (p params) Text(key, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string, got %v", key, v)
	}
	return s, nil
}

// Floats returns the named number list; absent yields nil.
func (p params) Floats(key string) ([]float64, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("param %q must be a list of numbers, got %v", key, v)
	}
	out := make([]float64, 0, len(arr))
	for i, elem := range arr {
		f, ok := toFloat(elem)
		if !ok {
			return nil, fmt.Errorf("param %q[%d] must be a number, got %v", key, i, elem)
		}
		out = append(out, f)
	}
	return out, nil
}

// Ints returns the named integer list; absent yields nil.
func (p params) Ints(key string) ([]int, error) {
	fs, err := p.Floats(key)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(fs))
	for i, f := range fs {
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("param %q[%d] must be an integer, got %v", key, i, f)
		}
		out[i] = int(f)
	}
	return out, nil
}

// positionToBin returns the index of the cell of width size containing pos.
func positionToBin(pos, size, offset float64) int64 {
	return int64(math.Floor((pos-offset)/size + 0.5))
}

// encodeBin writes bin into the field of id, failing when bin does not fit.
func encodeBin(f bitfield.Field, id uint64, bin int64, pos float64) (uint64, error) {
	if !f.Contains(bin) {
		return 0, fmt.Errorf("position %g maps to %s bin %d outside [%d, %d]", pos, f.Name, bin, f.Min(), f.Max())
	}
	return f.Encode(id, bin), nil
}

// binToPosition returns the centre of cell bin.
func binToPosition(bin int64, size, offset float64) float64 {
	return float64(bin)*size + offset
}
