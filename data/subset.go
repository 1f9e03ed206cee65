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

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ctessum/sparse"
)

// Limit is an inclusive range of coordinate values along one axis.
type Limit struct {
	Axis     Axis
	Min, Max float64
}

// NewLimit returns the limit [min, max] along a.
func NewLimit(a Axis, min, max float64) Limit {
	if min > max && a != Lon {
		min, max = max, min
	}
	return Limit{Axis: a, Min: min, Max: max}
}

// NewTimeLimit returns the time limit [start, end].
func NewTimeLimit(start, end time.Time) Limit {
	return NewLimit(Time, TimeToStandard(start), TimeToStandard(end))
}

// ParseLimit parses a limit written as "axis=[min,max]", for example
// "x=[-10,10]" or "t=[2008-06-01,2008-07-01]". Time limits may be dates.
func ParseLimit(s string) (Limit, error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 {
		return Limit{}, fmt.Errorf("data: invalid limit %q", s)
	}
	a, err := ParseAxis(parts[0])
	if err != nil {
		return Limit{}, err
	}
	r := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(parts[1]), "["), "]")
	ends := strings.Split(r, ",")
	if len(ends) != 2 {
		return Limit{}, fmt.Errorf("data: invalid limit %q", s)
	}
	var v [2]float64
	for i, e := range ends {
		if v[i], err = parseFloatOrTime(e); err != nil {
			return Limit{}, fmt.Errorf("data: invalid limit %q: %v", s, err)
		}
	}
	return NewLimit(a, v[0], v[1]), nil
}

// Contains reports whether v lies within l. Longitudes are compared
// modulo 360 so that a limit such as [170, 190] selects points on both
// sides of the dateline.
func (l Limit) Contains(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if l.Axis == Lon {
		if l.Max-l.Min >= 360 {
			return true
		}
		return WrapLongitude(v, l.Min) <= l.Max
	}
	return v >= l.Min && v <= l.Max
}

func (l Limit) String() string {
	if l.Axis == Time {
		return fmt.Sprintf("%s=[%s,%s]", l.Axis, FormatStandardTime(l.Min), FormatStandardTime(l.Max))
	}
	return fmt.Sprintf("%s=[%g,%g]", l.Axis, l.Min, l.Max)
}

func limitsString(limits []Limit) string {
	s := make([]string, len(limits))
	for i, l := range limits {
		s[i] = l.String()
	}
	return strings.Join(s, " ")
}

// Subset returns the points whose coordinates lie within every limit.
func (u *UngriddedData) Subset(limits ...Limit) (CommonData, error) {
	if err := u.Load(); err != nil {
		return nil, err
	}
	cols := make([]*Coord, len(limits))
	for i, l := range limits {
		if cols[i] = u.coords.Axis(l.Axis); cols[i] == nil {
			return nil, fmt.Errorf("data: subsetting %s on %s: %w", u.Name(), l.Axis, ErrCoordinateNotFound)
		}
	}
	var keep []int
	for i := 0; i < u.data.Size(); i++ {
		in := true
		for k, l := range limits {
			if !l.Contains(cols[k].Value(i)) {
				in = false
				break
			}
		}
		if in {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, nil
	}
	o := &UngriddedData{md: u.md.Copy(), data: u.data.Take(keep), Log: u.Log}
	for _, c := range u.coords {
		o.coords = append(o.coords, c.take(keep))
	}
	o.md.Shape = []int{len(keep)}
	o.md.UpdateRange(o.data)
	o.AddHistory("subset to " + limitsString(limits))
	return o, nil
}

// Subset returns the slab of the grid whose dimension coordinates lie
// within every limit.
func (g *GriddedData) Subset(limits ...Limit) (CommonData, error) {
	if err := g.Load(); err != nil {
		return nil, err
	}
	sel := make([][]int, len(g.dimCoords))
	for _, l := range limits {
		d := g.DimIndex(l.Axis)
		if d < 0 {
			return nil, fmt.Errorf("data: subsetting %s on %s: %w", g.Name(), l.Axis, ErrCoordinateNotFound)
		}
		c := g.dimCoords[d]
		var idx []int
		for i := 0; i < c.Len(); i++ {
			if l.Contains(c.Value(i)) && (sel[d] == nil || containsInt(sel[d], i)) {
				idx = append(idx, i)
			}
		}
		if len(idx) == 0 {
			return nil, nil
		}
		sel[d] = idx
	}
	o := g.take(sel)
	o.AddHistory("subset to " + limitsString(limits))
	return o, nil
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// take returns the part of g selected by sel, which holds for each
// dimension the indices to keep, or nil to keep them all.
func (g *GriddedData) take(sel [][]int) *GriddedData {
	o := &GriddedData{md: g.md.Copy()}
	for _, c := range g.dimCoords {
		o.dimCoords = append(o.dimCoords, takeGridded(c, sel))
	}
	for _, c := range g.aux {
		o.aux = append(o.aux, takeGridded(c, sel))
	}
	for _, h := range g.hybrid {
		o.hybrid = append(o.hybrid, mapHybrid(h, func(c *Coord) *Coord { return takeGridded(c, sel) }))
	}
	all := make([]int, len(g.dimCoords))
	for i := range all {
		all[i] = i
	}
	o.data, _ = takeAlong(g.data, all, sel)
	o.md.Shape = append([]int{}, o.data.Shape...)
	o.md.UpdateRange(o.data)
	return o
}

// takeGridded applies sel to a coordinate spanning the data dimensions
// c.Dims.
func takeGridded(c *Coord, sel [][]int) *Coord {
	o := &Coord{
		Metadata: c.Metadata.Copy(),
		Axis:     c.Axis,
		Dims:     append([]int(nil), c.Dims...),
		Circular: c.Circular,
	}
	var src []int
	o.Points, src = takeAlong(c.Points, c.Dims, sel)
	o.Shape = append([]int{}, o.Points.Shape...)
	if c.Bounds != nil {
		o.Bounds = sparse.ZerosDense(append(append([]int{}, o.Points.Shape...), 2)...)
		for j, i := range src {
			o.Bounds.Elements[2*j] = c.Bounds.Elements[2*i]
			o.Bounds.Elements[2*j+1] = c.Bounds.Elements[2*i+1]
		}
	}
	// A longitude subset no longer spans the globe.
	if c.Axis == Lon && c.Circular && o.Points.Size() != c.Points.Size() {
		o.Circular = false
	}
	return o
}

// takeAlong selects elements of a, whose dimensions correspond to the data
// dimensions dims, and returns them with the flat source index of each.
func takeAlong(a *MaskedArray, dims []int, sel [][]int) (*MaskedArray, []int) {
	shape := make([]int, len(dims))
	for k, d := range dims {
		if sel[d] != nil {
			shape[k] = len(sel[d])
		} else {
			shape[k] = a.Shape[k]
		}
	}
	o := NewMaskedArray(shape...)
	src := make([]int, o.Size())
	idx := make([]int, len(shape))
	sidx := make([]int, len(shape))
	for j := range o.Elements {
		Unravel(j, shape, idx)
		for k, d := range dims {
			if sel[d] != nil {
				sidx[k] = sel[d][idx[k]]
			} else {
				sidx[k] = idx[k]
			}
		}
		i := Ravel(sidx, a.Shape)
		src[j] = i
		o.Elements[j] = a.Elements[i]
		if a.IsMasked(i) {
			o.SetMasked(j, true)
		}
	}
	return o, src
}
