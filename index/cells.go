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

package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/spatialmodel/colocate/data"
)

// Bounds are the cell bounds along one grid dimension. Cells may be
// ordered ascending or descending, and each cell's pair of bounds may be
// given in either order.
type Bounds struct {
	Lower, Upper []float64

	// Circular dimensions are longitudes: points are wrapped into the
	// range of the grid before they are searched for.
	Circular bool
}

// BoundsOf returns the cell bounds of a one-dimensional coordinate,
// guessing them if the coordinate has none.
func BoundsOf(c *data.Coord) Bounds {
	if c.Bounds == nil {
		cc := *c
		cc.GuessBounds()
		c = &cc
	}
	n := c.Len()
	b := Bounds{Lower: make([]float64, n), Upper: make([]float64, n), Circular: c.Axis == data.Lon}
	for i := 0; i < n; i++ {
		b.Lower[i], b.Upper[i] = c.Lower(i), c.Upper(i)
	}
	return b
}

// dimSearch finds cells along one dimension.
type dimSearch struct {
	lo, hi   []float64 // ascending by lo
	reversed bool
	circular bool
	max      float64
}

func newDimSearch(b Bounds) (*dimSearch, error) {
	n := len(b.Lower)
	if n == 0 || len(b.Upper) != n {
		return nil, fmt.Errorf("index: %d lower and %d upper bounds", n, len(b.Upper))
	}
	s := &dimSearch{lo: make([]float64, n), hi: make([]float64, n), circular: b.Circular}
	for i := 0; i < n; i++ {
		s.lo[i] = math.Min(b.Lower[i], b.Upper[i])
		s.hi[i] = math.Max(b.Lower[i], b.Upper[i])
	}
	if n > 1 && s.lo[0] > s.lo[n-1] {
		s.reversed = true
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			s.lo[i], s.lo[j] = s.lo[j], s.lo[i]
			s.hi[i], s.hi[j] = s.hi[j], s.hi[i]
		}
	}
	for i := 1; i < n; i++ {
		if s.lo[i] < s.lo[i-1] {
			return nil, fmt.Errorf("index: cell bounds are not monotonic")
		}
	}
	s.max = s.hi[n-1]
	for _, h := range s.hi {
		s.max = math.Max(s.max, h)
	}
	return s, nil
}

// find returns the cell holding x, or -1. Cells are closed at the lower
// bound and open at the upper bound, so a value on a shared boundary goes
// to the higher cell; the upper bound of the last cell is closed.
func (s *dimSearch) find(x float64) int {
	if math.IsNaN(x) {
		return -1
	}
	if s.circular {
		x = data.WrapLongitude(x, s.lo[0])
	}
	if x < s.lo[0] || x > s.max {
		return -1
	}
	i := sort.Search(len(s.lo), func(k int) bool { return s.lo[k] > x }) - 1
	if i < 0 || x > s.hi[i] {
		return -1
	}
	if s.reversed {
		return len(s.lo) - 1 - i
	}
	return i
}

// CellIndex sorts points into the cells of a rectilinear grid.
type CellIndex struct {
	shape []int

	// cell holds the composite cell number of each point, or -1.
	cell []int

	// order holds the indices of the points inside the grid, sorted by
	// cell number; sorted holds their cell numbers.
	order  []int
	sorted []int
}

// NewCellIndex bins points into the grid whose cells along dimension d
// are dims[d]. points[d][i] is the coordinate of point i along dimension
// d.
func NewCellIndex(dims []Bounds, points [][]float64) (*CellIndex, error) {
	if len(dims) != len(points) {
		return nil, fmt.Errorf("index: %d grid dimensions but points have %d", len(dims), len(points))
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("index: no grid dimensions")
	}
	n := len(points[0])
	searches := make([]*dimSearch, len(dims))
	shape := make([]int, len(dims))
	for d, b := range dims {
		s, err := newDimSearch(b)
		if err != nil {
			return nil, fmt.Errorf("index: dimension %d: %v", d, err)
		}
		if len(points[d]) != n {
			return nil, fmt.Errorf("index: dimension %d has %d points, want %d", d, len(points[d]), n)
		}
		searches[d], shape[d] = s, len(b.Lower)
	}

	ix := &CellIndex{shape: shape, cell: make([]int, n)}
	for i := 0; i < n; i++ {
		c := 0
		for d, s := range searches {
			k := s.find(points[d][i])
			if k < 0 {
				c = -1
				break
			}
			c = c*shape[d] + k
		}
		ix.cell[i] = c
		if c >= 0 {
			ix.order = append(ix.order, i)
		}
	}
	sort.SliceStable(ix.order, func(a, b int) bool { return ix.cell[ix.order[a]] < ix.cell[ix.order[b]] })
	ix.sorted = make([]int, len(ix.order))
	for k, i := range ix.order {
		ix.sorted[k] = ix.cell[i]
	}
	return ix, nil
}

// Shape returns the number of cells along each dimension.
func (ix *CellIndex) Shape() []int { return ix.shape }

// CellOf returns the composite cell number of point i, or -1 if it lies
// outside the grid.
func (ix *CellIndex) CellOf(i int) int { return ix.cell[i] }

// Multi converts a composite cell number into a multi-index.
func (ix *CellIndex) Multi(cell int) []int {
	m := make([]int, len(ix.shape))
	data.Unravel(cell, ix.shape, m)
	return m
}

// Flat converts a multi-index into a composite cell number.
func (ix *CellIndex) Flat(multi []int) int {
	return data.Ravel(multi, ix.shape)
}

// PointsInCell returns the points in the cell at multi-index multi. The
// slice must not be modified.
func (ix *CellIndex) PointsInCell(multi []int) []int {
	return ix.points(ix.Flat(multi))
}

func (ix *CellIndex) points(cell int) []int {
	lo := sort.SearchInts(ix.sorted, cell)
	hi := sort.SearchInts(ix.sorted, cell+1)
	return ix.order[lo:hi]
}

// Cells returns an iterator over the cells holding at least one point, in
// order of cell number.
func (ix *CellIndex) Cells() *CellIterator {
	return &CellIterator{ix: ix}
}

// CellIterator walks the non-empty cells of a CellIndex.
//
//	it := ix.Cells()
//	for it.Next() {
//		cell, points := it.Cell(), it.Points()
//	}
type CellIterator struct {
	ix         *CellIndex
	start, end int
}

// Next advances to the next non-empty cell and reports whether there is
// one.
func (it *CellIterator) Next() bool {
	it.start = it.end
	if it.start >= len(it.ix.order) {
		return false
	}
	c := it.ix.sorted[it.start]
	it.end = it.start
	for it.end < len(it.ix.sorted) && it.ix.sorted[it.end] == c {
		it.end++
	}
	return true
}

// Flat returns the composite number of the current cell.
func (it *CellIterator) Flat() int { return it.ix.sorted[it.start] }

// Cell returns the multi-index of the current cell.
func (it *CellIterator) Cell() []int { return it.ix.Multi(it.Flat()) }

// Points returns the points in the current cell. The slice must not be
// modified.
func (it *CellIterator) Points() []int { return it.ix.order[it.start:it.end] }
