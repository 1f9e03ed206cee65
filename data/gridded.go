/*
Copyright © 2024 the colocate authors.
This file is part of colocate.

colocate is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

colocate is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with colocate.  If not, see <http://www.gnu.org/licenses/>.
*/

package data

import "fmt"

// GriddedData is a variable defined over the rectilinear product of its
// dimension coordinates, one per array dimension. Auxiliary coordinates
// span any subset of the dimensions, and hybrid vertical coordinates are
// materialised on demand.
type GriddedData struct {
	md        *Metadata
	data      *MaskedArray
	lazy      *LazyData
	dimCoords []*Coord
	aux       CoordList
	hybrid    []HybridCoord

	materialised map[Axis]*Coord
}

// NewGriddedData returns a variable holding values over the grid given by
// dimCoords, which must match the shape of values.
func NewGriddedData(values *MaskedArray, md *Metadata, dimCoords []*Coord, aux ...*Coord) (*GriddedData, error) {
	g, err := newGridded(md, dimCoords, aux)
	if err != nil {
		return nil, err
	}
	if err := g.setData(values); err != nil {
		return nil, err
	}
	return g, nil
}

// NewLazyGriddedData returns a variable over the grid given by dimCoords
// whose values are read on first use.
func NewLazyGriddedData(values *LazyData, md *Metadata, dimCoords []*Coord, aux ...*Coord) (*GriddedData, error) {
	g, err := newGridded(md, dimCoords, aux)
	if err != nil {
		return nil, err
	}
	g.lazy = values
	return g, nil
}

func newGridded(md *Metadata, dimCoords []*Coord, aux []*Coord) (*GriddedData, error) {
	if md == nil {
		md = &Metadata{}
	}
	g := &GriddedData{md: md, dimCoords: dimCoords}
	shape := g.gridShape()
	for i, c := range dimCoords {
		if len(c.Points.Shape) != 1 {
			return nil, fmt.Errorf("data: dimension coordinate %s is not one-dimensional: %w",
				c.Identifier(), ErrShape)
		}
		if ok, _ := c.Monotonic(); !ok {
			return nil, fmt.Errorf("data: dimension coordinate %s is not monotonic", c.Identifier())
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		c.Dims = []int{i}
	}
	for _, c := range aux {
		if c.Dims == nil && sameShape(c.Points.Shape, shape) {
			c.Dims = make([]int, len(shape))
			for i := range c.Dims {
				c.Dims[i] = i
			}
		}
		if len(c.Dims) != len(c.Points.Shape) {
			return nil, fmt.Errorf("data: auxiliary coordinate %s does not say which dimensions it spans: %w",
				c.Identifier(), ErrShape)
		}
		for k, d := range c.Dims {
			if d < 0 || d >= len(shape) || c.Points.Shape[k] != shape[d] {
				return nil, fmt.Errorf("data: auxiliary coordinate %s of shape %v does not fit grid %v: %w",
					c.Identifier(), c.Points.Shape, shape, ErrShape)
			}
		}
		if err := g.aux.Add(c); err != nil {
			return nil, err
		}
	}
	for _, c := range dimCoords {
		for _, a := range g.aux {
			if coordKey(a) == coordKey(c) {
				return nil, fmt.Errorf("data: adding coordinate %s: %w", c.Identifier(), ErrDuplicateCoordinate)
			}
		}
	}
	md.Shape = shape
	return g, nil
}

func (g *GriddedData) gridShape() []int {
	s := make([]int, len(g.dimCoords))
	for i, c := range g.dimCoords {
		s[i] = c.Len()
	}
	return s
}

func (g *GriddedData) setData(values *MaskedArray) error {
	shape := g.gridShape()
	if values.Size() != sizeOf(shape) {
		return fmt.Errorf("data: %d values do not fit grid %v: %w", values.Size(), shape, ErrShape)
	}
	if !sameShape(values.Shape, shape) {
		values = values.Reshape(shape...)
	}
	g.data = values
	g.md.Shape = shape
	g.md.UpdateRange(values)
	return nil
}

// AddHybrid attaches a hybrid vertical coordinate.
func (g *GriddedData) AddHybrid(h HybridCoord) {
	g.hybrid = append(g.hybrid, h)
	g.materialised = nil
}

// Hybrid returns the hybrid vertical coordinates.
func (g *GriddedData) Hybrid() []HybridCoord { return g.hybrid }

// DimCoords returns the dimension coordinates in array order.
func (g *GriddedData) DimCoords() []*Coord { return g.dimCoords }

// AuxCoords returns the auxiliary coordinates.
func (g *GriddedData) AuxCoords() CoordList { return g.aux }

// DimIndex returns the array dimension of the dimension coordinate along
// a, or -1.
func (g *GriddedData) DimIndex(a Axis) int {
	for i, c := range g.dimCoords {
		if c.Axis == a {
			return i
		}
	}
	return -1
}

// AxisCoord returns the coordinate giving positions along a: a dimension
// coordinate, an auxiliary coordinate, or a materialised hybrid
// coordinate, in that order of preference.
func (g *GriddedData) AxisCoord(a Axis) (*Coord, error) {
	if i := g.DimIndex(a); i >= 0 {
		return g.dimCoords[i], nil
	}
	if c := g.aux.Axis(a); c != nil {
		return c, nil
	}
	if c, ok := g.materialised[a]; ok {
		return c, nil
	}
	for _, h := range g.hybrid {
		var c *Coord
		if h.Axis() == a {
			var err error
			if c, err = h.Materialise(g.gridShape()); err != nil {
				return nil, err
			}
		} else if hp, ok := h.(*HybridPressure); ok && a == Alt && hp.Altitude != nil {
			c = hp.Altitude
		}
		if c != nil {
			if g.materialised == nil {
				g.materialised = make(map[Axis]*Coord)
			}
			g.materialised[a] = c
			return c, nil
		}
	}
	return nil, fmt.Errorf("data: %s has no %s coordinate: %w", g.Name(), a, ErrCoordinateNotFound)
}

// HasAxis reports whether positions along a can be found.
func (g *GriddedData) HasAxis(a Axis) bool {
	_, err := g.AxisCoord(a)
	return err == nil
}

// Load reads lazily loaded values. Later calls do nothing.
func (g *GriddedData) Load() error {
	if g.data != nil {
		return nil
	}
	if g.lazy == nil {
		return fmt.Errorf("data: %s has neither values nor loaders: %w", g.Name(), ErrInvalidDataType)
	}
	d, err := g.lazy.Data()
	if err != nil {
		return fmt.Errorf("data: loading %s: %w", g.Name(), err)
	}
	return g.setData(d)
}

// Name returns the identifier of the variable.
func (g *GriddedData) Name() string { return g.md.Identifier() }

// Metadata returns the metadata of the variable.
func (g *GriddedData) Metadata() *Metadata { return g.md }

// IsGridded returns true.
func (g *GriddedData) IsGridded() bool { return true }

// Data returns the values.
func (g *GriddedData) Data() (*MaskedArray, error) {
	if err := g.Load(); err != nil {
		return nil, err
	}
	return g.data, nil
}

// Coords returns the dimension coordinates followed by the auxiliary
// coordinates.
func (g *GriddedData) Coords() CoordList {
	o := make(CoordList, 0, len(g.dimCoords)+len(g.aux))
	o = append(o, g.dimCoords...)
	return append(o, g.aux...)
}

// Coord returns the single coordinate matching cr.
func (g *GriddedData) Coord(cr Criteria) (*Coord, error) {
	return g.Coords().Get(cr)
}

// Shape returns the shape of the grid.
func (g *GriddedData) Shape() []int { return g.gridShape() }

// Size returns the number of grid points.
func (g *GriddedData) Size() int { return sizeOf(g.gridShape()) }

// Count returns the number of non-masked values.
func (g *GriddedData) Count() int {
	if g.Load() != nil {
		return 0
	}
	return g.data.Count()
}

// View returns every grid point as columns, in row-major order.
func (g *GriddedData) View() (*PointView, error) {
	if err := g.Load(); err != nil {
		return nil, err
	}
	shape := g.gridShape()
	n := sizeOf(shape)
	v := NewPointView(n)
	idx := make([]int, len(shape))
	for _, a := range Axes {
		c, err := g.AxisCoord(a)
		if err != nil {
			continue
		}
		col := make([]float64, n)
		for i := range col {
			Unravel(i, shape, idx)
			col[i] = c.At(idx)
		}
		v.SetAxis(a, col)
	}
	v.AddVariable(g.data.Elements, g.data.Mask)
	return v, nil
}

// HyperPoints returns every grid point.
func (g *GriddedData) HyperPoints() ([]HyperPoint, error) {
	v, err := g.View()
	if err != nil {
		return nil, err
	}
	return v.Points(), nil
}

// NonMaskedPoints returns the grid points whose value is valid.
func (g *GriddedData) NonMaskedPoints() ([]HyperPoint, error) {
	return selectPoints(g, true)
}

// MaskedPoints returns the grid points whose value is masked.
func (g *GriddedData) MaskedPoints() ([]HyperPoint, error) {
	return selectPoints(g, false)
}

// Copy returns a deep copy of g with all values loaded.
func (g *GriddedData) Copy() (CommonData, error) {
	if err := g.Load(); err != nil {
		return nil, err
	}
	o := &GriddedData{
		md:        g.md.Copy(),
		data:      g.data.Copy(),
		dimCoords: make([]*Coord, len(g.dimCoords)),
		aux:       g.aux.Copy(),
	}
	for i, c := range g.dimCoords {
		o.dimCoords[i] = c.Copy()
	}
	for _, h := range g.hybrid {
		o.hybrid = append(o.hybrid, mapHybrid(h, (*Coord).Copy))
	}
	return o, nil
}

// AddHistory appends a timestamped entry to the history of g.
func (g *GriddedData) AddHistory(entry string) { g.md.AddHistory(entry) }

// mapHybrid returns a copy of h with f applied to each of its component
// coordinates.
func mapHybrid(h HybridCoord, f func(*Coord) *Coord) HybridCoord {
	apply := func(c *Coord) *Coord {
		if c == nil {
			return nil
		}
		return f(c)
	}
	switch t := h.(type) {
	case *HybridPressure:
		return &HybridPressure{
			A:               apply(t.A),
			B:               apply(t.B),
			SurfacePressure: apply(t.SurfacePressure),
			Reference:       t.Reference,
			Altitude:        apply(t.Altitude),
		}
	case *HybridHeight:
		return &HybridHeight{
			LevelHeight: apply(t.LevelHeight),
			Sigma:       apply(t.Sigma),
			Orography:   apply(t.Orography),
		}
	}
	return h
}
