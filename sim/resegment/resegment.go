// Package resegment rewrites the cell identifiers of calorimeter hit
// collections. Four transforms are provided:
//
//   - RedoSegmentation recomputes ids under a different segmentation.
//   - MergeCells coarsens one field by an integer factor.
//   - MergeLayers groups consecutive layers into buckets of configured sizes.
//   - RewriteBitfield drops fields and repacks the survivors into a new layout.
//
// Every transform validates its configuration once in its constructor and is
// immutable afterwards, so Execute may be called concurrently. Execute never
// alters the input collection; the output holds one hit per input hit, in
// input order, with only the cell id replaced.
package resegment

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/bitfield"
)

// ErrConfig is wrapped by every configuration error returned from a constructor.
var ErrConfig = errors.New("invalid transform configuration")

// DefaultDebugPrint is the number of hits traced at debug level when a
// configuration leaves DebugPrint unset.
const DefaultDebugPrint = 10

// Transform maps an input hit collection to an output collection.
type Transform interface {
	// Name identifies the transform kind in logs.
	Name() string
	// Execute produces the transformed collection.
	Execute(in *sim.Collection) (*sim.Collection, error)
}

func configError(transform, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", transform, ErrConfig, fmt.Sprintf(format, args...))
}

// debugLimit resolves an optional DebugPrint setting.
func debugLimit(v *int) int {
	if v == nil {
		return DefaultDebugPrint
	}
	return max(*v, 0)
}

// newOutput prepares an output collection carrying the input's name and metadata.
func newOutput(in *sim.Collection) *sim.Collection {
	out := sim.NewCollection(in.Name, in.Len())
	for k, v := range in.Metadata {
		out.SetMetadata(k, v)
	}
	return out
}

// tracer emits before/after debug lines for the first limit hits of one Execute call.
type tracer struct {
	name  string
	limit int
	count int
}

func (t *tracer) trace(oldLayout *bitfield.Layout, oldID uint64, newLayout *bitfield.Layout, newID uint64) {
	if t.count >= t.limit {
		return
	}
	t.count++
	if !logrus.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	logrus.Debugf("[%s] hit %d: %d (%s) -> %d (%s)", t.name, t.count,
		oldID, oldLayout.ValueString(oldID), newID, newLayout.ValueString(newID))
}
