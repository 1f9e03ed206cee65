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

import "math"

// PointView is a columnar view of a collection of points: one column per
// present axis and one value column, with its own mask, per variable.
type PointView struct {
	n      int
	coords [NumAxes][]float64
	vals   [][]float64
	mask   [][]bool
}

// NewPointView returns an empty view of n points.
func NewPointView(n int) *PointView {
	return &PointView{n: n}
}

// SetAxis sets the column of coordinates along a. A nil column removes
// the axis.
func (v *PointView) SetAxis(a Axis, col []float64) {
	if col != nil && len(col) != v.n {
		panic("data: coordinate column has the wrong length")
	}
	v.coords[a] = col
}

// AddVariable adds a value column and its mask, which may be nil, and
// returns the index of the new variable.
func (v *PointView) AddVariable(vals []float64, mask []bool) int {
	if len(vals) != v.n {
		panic("data: value column has the wrong length")
	}
	v.vals = append(v.vals, vals)
	v.mask = append(v.mask, mask)
	return len(v.vals) - 1
}

// Len returns the number of points.
func (v *PointView) Len() int { return v.n }

// NumVariables returns the number of value columns.
func (v *PointView) NumVariables() int { return len(v.vals) }

// Has reports whether the points carry coordinates along a.
func (v *PointView) Has(a Axis) bool { return v.coords[a] != nil }

// Column returns the coordinates along a, or nil.
func (v *PointView) Column(a Axis) []float64 { return v.coords[a] }

// Coord returns the coordinate of point i along a, or NaN if the axis is
// absent.
func (v *PointView) Coord(a Axis, i int) float64 {
	if v.coords[a] == nil {
		return math.NaN()
	}
	return v.coords[a][i]
}

// Value returns the value of variable j at point i.
func (v *PointView) Value(i, j int) float64 { return v.vals[j][i] }

// Values returns the value column of variable j.
func (v *PointView) Values(j int) []float64 { return v.vals[j] }

// IsMasked reports whether variable j is masked at point i.
func (v *PointView) IsMasked(i, j int) bool {
	return v.mask[j] != nil && v.mask[j][i]
}

// Valid reports whether variable j at point i is neither masked nor NaN.
func (v *PointView) Valid(i, j int) bool {
	return !v.IsMasked(i, j) && !math.IsNaN(v.vals[j][i])
}

// Point returns point i as a HyperPoint.
func (v *PointView) Point(i int) HyperPoint {
	var p HyperPoint
	for a := range p.Coords {
		p.Coords[a] = v.Coord(Axis(a), i)
	}
	p.Vals = make([]float64, len(v.vals))
	for j := range v.vals {
		p.Vals[j] = v.vals[j][i]
	}
	return p
}

// NonMasked returns the indices of the points at which variable j is
// valid.
func (v *PointView) NonMasked(j int) []int {
	o := make([]int, 0, v.n)
	for i := 0; i < v.n; i++ {
		if v.Valid(i, j) {
			o = append(o, i)
		}
	}
	return o
}

// Masked returns the indices of the points at which variable j is masked
// or NaN.
func (v *PointView) Masked(j int) []int {
	var o []int
	for i := 0; i < v.n; i++ {
		if !v.Valid(i, j) {
			o = append(o, i)
		}
	}
	return o
}

// Points returns every point as a HyperPoint.
func (v *PointView) Points() []HyperPoint {
	o := make([]HyperPoint, v.n)
	for i := range o {
		o[i] = v.Point(i)
	}
	return o
}

// Take returns a view of the points at the given indices.
func (v *PointView) Take(idx []int) *PointView {
	o := NewPointView(len(idx))
	for a, col := range v.coords {
		if col == nil {
			continue
		}
		c := make([]float64, len(idx))
		for k, i := range idx {
			c[k] = col[i]
		}
		o.coords[a] = c
	}
	for j, col := range v.vals {
		c := make([]float64, len(idx))
		var m []bool
		for k, i := range idx {
			c[k] = col[i]
			if v.IsMasked(i, j) {
				if m == nil {
					m = make([]bool, len(idx))
				}
				m[k] = true
			}
		}
		o.AddVariable(c, m)
	}
	return o
}

// Clone returns a view sharing the columns of v. Replacing a column of the
// clone with SetAxis leaves v unchanged.
func (v *PointView) Clone() *PointView {
	o := &PointView{n: v.n, coords: v.coords}
	o.vals = append(o.vals, v.vals...)
	o.mask = append(o.mask, v.mask...)
	return o
}
