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

package constraint

import (
	"fmt"

	"github.com/spatialmodel/colocate/data"
	"github.com/spatialmodel/colocate/index"
)

// CellConstraint selects the points of an ungridded source that fall in
// each cell of a gridded sample. Sample dimensions along axes the source
// does not carry are left out of the test, so a cell's candidates are the
// same at every index along them.
type CellConstraint struct {
	// Sep, if not zero, is applied between the cell centre and each
	// point in the cell.
	Sep Separation

	shape  []int
	binned []int // sample dimensions the source is binned along
	ix     *index.CellIndex
	source *data.PointView
	preds  []Predicate

	// src maps points of the index back to source points.
	src []int
}

// NewCellConstraint bins the source points for which valid is true, or
// every point if valid is nil, into the cells of sample.
func NewCellConstraint(sample *data.GriddedData, source *data.PointView, valid []bool) (*CellConstraint, error) {
	if valid != nil && len(valid) != source.Len() {
		return nil, fmt.Errorf("constraint: %d validity flags for %d source points", len(valid), source.Len())
	}
	c := &CellConstraint{shape: sample.Shape(), source: source}
	var bounds []*data.Coord
	for d, dc := range sample.DimCoords() {
		if dc.Axis == data.NoAxis || !source.Has(dc.Axis) {
			continue
		}
		c.binned = append(c.binned, d)
		bounds = append(bounds, dc)
	}
	if len(c.binned) == 0 {
		return nil, fmt.Errorf("constraint: the source shares no dimension with the sample grid: %w", data.ErrDimensionMismatch)
	}
	for j := 0; j < source.Len(); j++ {
		if valid == nil || valid[j] {
			c.src = append(c.src, j)
		}
	}
	dims := make([]index.Bounds, len(bounds))
	points := make([][]float64, len(bounds))
	for k := range bounds {
		dims[k] = index.BoundsOf(bounds[k])
		col := source.Column(bounds[k].Axis)
		p := make([]float64, len(c.src))
		for n, j := range c.src {
			p[n] = col[j]
		}
		points[k] = p
	}
	var err error
	if c.ix, err = index.NewCellIndex(dims, points); err != nil {
		return nil, fmt.Errorf("constraint: binning source points: %v", err)
	}
	return c, nil
}

// WithSeparation sets an additional separation between each cell centre,
// taken from the sample view, and the points in the cell.
func (c *CellConstraint) WithSeparation(sep Separation, sample *data.PointView) error {
	if err := sep.Check(sample, c.source); err != nil {
		return err
	}
	c.Sep, c.preds = sep, sep.Predicates()
	return nil
}

// Binned returns the sample dimensions the source points are binned along.
func (c *CellConstraint) Binned() []int { return c.binned }

// NumBinned returns the number of source points inside the grid.
func (c *CellConstraint) NumBinned() int {
	n := 0
	for i := range c.src {
		if c.ix.CellOf(i) >= 0 {
			n++
		}
	}
	return n
}

func (c *CellConstraint) project(multi []int) []int {
	o := make([]int, len(c.binned))
	for k, d := range c.binned {
		o[k] = multi[d]
	}
	return o
}

// Candidates returns, in ascending order, the source points in the sample
// cell at multi-index multi. i is the flat index of the cell in the
// sample view and is only used to apply a separation.
func (c *CellConstraint) Candidates(sample *data.PointView, i int, multi []int) []int {
	return c.mapPoints(c.ix.PointsInCell(c.project(multi)), sample, i)
}

func (c *CellConstraint) mapPoints(pts []int, sample *data.PointView, i int) []int {
	o := make([]int, 0, len(pts))
outer:
	for _, p := range pts {
		j := c.src[p]
		for _, pred := range c.preds {
			if !pred(sample, i, c.source, j) {
				continue outer
			}
		}
		o = append(o, j)
	}
	return o
}

// Cells returns an iterator over the cells of the binned dimensions that
// hold at least one source point. It ignores any separation.
func (c *CellConstraint) Cells() *CellIterator {
	return &CellIterator{it: c.ix.Cells(), c: c}
}

// CellIterator walks the non-empty cells of a CellConstraint.
type CellIterator struct {
	it *index.CellIterator
	c  *CellConstraint
}

// Next advances to the next non-empty cell.
func (it *CellIterator) Next() bool { return it.it.Next() }

// Cell returns the index of the current cell along each binned dimension.
func (it *CellIterator) Cell() []int { return it.it.Cell() }

// Points returns the source points in the current cell.
func (it *CellIterator) Points() []int {
	pts := it.it.Points()
	o := make([]int, len(pts))
	for k, p := range pts {
		o[k] = it.c.src[p]
	}
	return o
}

// Expand calls f with the multi-index of every sample cell that projects
// onto cell, a multi-index over the binned dimensions.
func (c *CellConstraint) Expand(cell []int, f func(multi []int)) {
	multi := make([]int, len(c.shape))
	free := make([]int, 0, len(c.shape))
	for d := range c.shape {
		if !containsDim(c.binned, d) {
			free = append(free, d)
		}
	}
	for k, d := range c.binned {
		multi[d] = cell[k]
	}
	var walk func(n int)
	walk = func(n int) {
		if n == len(free) {
			f(multi)
			return
		}
		for v := 0; v < c.shape[free[n]]; v++ {
			multi[free[n]] = v
			walk(n + 1)
		}
	}
	walk(0)
}

func containsDim(dims []int, d int) bool {
	for _, v := range dims {
		if v == d {
			return true
		}
	}
	return false
}
