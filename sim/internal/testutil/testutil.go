// Package testutil provides shared test infrastructure for the detsim packages:
// repository testdata lookup, temporary fixtures and floating-point assertions.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim/bitfield"
)

// TestdataPath returns the path of name inside the repository testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func TestdataPath(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Missing testdata file %s: %v", name, err)
	}
	return path
}

// WriteTempFile writes content to name inside a fresh temporary directory and returns its path.
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// MustLayout parses a bitfield description or fails the test.
func MustLayout(t *testing.T, desc string) *bitfield.Layout {
	t.Helper()
	l, err := bitfield.ParseLayout(desc)
	if err != nil {
		t.Fatalf("ParseLayout(%q): %v", desc, err)
	}
	return l
}

// MustID encodes alternating field names and values into a zero id.
func MustID(t *testing.T, l *bitfield.Layout, kv ...any) uint64 {
	t.Helper()
	if len(kv)%2 != 0 {
		t.Fatalf("MustID: odd number of arguments")
	}
	var id uint64
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			t.Fatalf("MustID: argument %d is not a field name", i)
		}
		v, ok := kv[i+1].(int)
		if !ok {
			t.Fatalf("MustID: value of %q is not an int", name)
		}
		var err error
		if id, err = l.Set(id, name, int64(v)); err != nil {
			t.Fatalf("MustID: %v", err)
		}
	}
	return id
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertVecInDelta compares two vectors component-wise with an absolute tolerance.
func AssertVecInDelta(t *testing.T, name string, want, got r3.Vec, delta float64) {
	t.Helper()
	if d := r3.Sub(want, got); math.Abs(d.X) > delta || math.Abs(d.Y) > delta || math.Abs(d.Z) > delta {
		t.Errorf("%s: got %v, want %v (delta=%v)", name, got, want, delta)
	}
}
