// Package segmentation provides the concrete segmentations used by readouts:
// a Cartesian grid and the module/theta merged barrel segmentation.
// Importing the package registers its factory in sim.NewSegmentationFunc.
package segmentation

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/bitfield"
)

// CartesianGridType is the type name of CartesianGrid.
const CartesianGridType = "cartesian-grid"

// gridAxis is one segmented axis of a CartesianGrid.
type gridAxis struct {
	field  bitfield.Field
	size   float64
	offset float64
}

// CartesianGrid segments local x, y and optionally z into regular cells.
type CartesianGrid struct {
	typeName string
	layout   *bitfield.Layout
	x, y     gridAxis
	z        *gridAxis
}

// NewCartesianGrid builds a grid from params grid_size_{x,y,z}, offset_{x,y,z}
// and identifier_{x,y,z}. The z axis is segmented only when grid_size_z is set.
func NewCartesianGrid(typeName string, p map[string]any, layout *bitfield.Layout) (*CartesianGrid, error) {
	pp := params(p)
	g := &CartesianGrid{typeName: typeName, layout: layout}
	var err error
	if g.x, err = newGridAxis(pp, layout, "x"); err != nil {
		return nil, err
	}
	if g.y, err = newGridAxis(pp, layout, "y"); err != nil {
		return nil, err
	}
	if _, ok := pp["grid_size_z"]; ok {
		z, err := newGridAxis(pp, layout, "z")
		if err != nil {
			return nil, err
		}
		g.z = &z
	}
	return g, nil
}

func newGridAxis(p params, layout *bitfield.Layout, axis string) (gridAxis, error) {
	size, err := p.Float("grid_size_"+axis, 1.0)
	if err != nil {
		return gridAxis{}, err
	}
	if size <= 0 {
		return gridAxis{}, fmt.Errorf("grid_size_%s must be positive, got %v", axis, size)
	}
	offset, err := p.Float("offset_"+axis, 0)
	if err != nil {
		return gridAxis{}, err
	}
	name, err := p.Text("identifier_"+axis, axis)
	if err != nil {
		return gridAxis{}, err
	}
	f, ok := layout.Field(name)
	if !ok {
		return gridAxis{}, fmt.Errorf("cartesian grid: readout has no field %q for axis %s", name, axis)
	}
	return gridAxis{field: f, size: size, offset: offset}, nil
}

func (g *CartesianGrid) Kind() sim.SegmentationKind { return sim.KindGeneric }
func (g *CartesianGrid) Type() string               { return g.typeName }
func (g *CartesianGrid) Layout() *bitfield.Layout   { return g.layout }

// CellID writes the grid indices of local into volumeID. A bin outside the
// range of its field is an error.
func (g *CartesianGrid) CellID(local r3.Vec, volumeID uint64) (uint64, error) {
	id, err := g.x.encode(volumeID, local.X)
	if err != nil {
		return 0, err
	}
	if id, err = g.y.encode(id, local.Y); err != nil {
		return 0, err
	}
	if g.z != nil {
		if id, err = g.z.encode(id, local.Z); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// Position returns the cell centre; unsegmented z is reported as 0.
func (g *CartesianGrid) Position(id uint64) r3.Vec {
	p := r3.Vec{X: g.x.position(id), Y: g.y.position(id)}
	if g.z != nil {
		p.Z = g.z.position(id)
	}
	return p
}

func (a gridAxis) encode(id uint64, pos float64) (uint64, error) {
	return encodeBin(a.field, id, positionToBin(pos, a.size, a.offset), pos)
}

func (a gridAxis) position(id uint64) float64 {
	return binToPosition(a.field.Value(id), a.size, a.offset)
}
