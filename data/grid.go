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
	"strconv"
	"strings"

	"github.com/ctessum/sparse"
)

// GridSpec describes a regular division of one axis into cells of width
// Step from Start to End.
type GridSpec struct {
	Axis             Axis
	Start, End, Step float64
}

// ParseGridSpec parses a grid specification written as
// "axis=[start,end,step]", for example "x=[-180,180,10]". Time grids take
// dates for start and end and an ISO 8601 duration or a number of days
// for the step.
func ParseGridSpec(s string, parseStep func(string) (float64, error)) (GridSpec, error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 {
		return GridSpec{}, fmt.Errorf("data: invalid grid %q", s)
	}
	a, err := ParseAxis(parts[0])
	if err != nil {
		return GridSpec{}, err
	}
	r := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(parts[1]), "["), "]")
	f := strings.Split(r, ",")
	if len(f) != 3 {
		return GridSpec{}, fmt.Errorf("data: invalid grid %q", s)
	}
	g := GridSpec{Axis: a}
	if g.Start, err = parseFloatOrTime(f[0]); err != nil {
		return GridSpec{}, err
	}
	if g.End, err = parseFloatOrTime(f[1]); err != nil {
		return GridSpec{}, err
	}
	if parseStep == nil {
		parseStep = func(s string) (float64, error) { return strconv.ParseFloat(strings.TrimSpace(s), 64) }
	}
	if g.Step, err = parseStep(f[2]); err != nil {
		return GridSpec{}, fmt.Errorf("data: invalid grid step in %q: %v", s, err)
	}
	return g, nil
}

// cells returns the bounds of the cells of gs.
func (gs GridSpec) cells() ([]float64, error) {
	if gs.Step <= 0 || gs.End <= gs.Start {
		return nil, fmt.Errorf("data: invalid grid %s=[%g,%g,%g]: %w", gs.Axis, gs.Start, gs.End, gs.Step, ErrShape)
	}
	n := int(math.Floor((gs.End-gs.Start)/gs.Step + 1e-9))
	if n < 1 {
		n = 1
	}
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = gs.Start + float64(i)*gs.Step
	}
	return edges, nil
}

// NewRegularGrid returns an all-masked grid with one bounded dimension
// coordinate per spec, each point at the centre of its cell. It is meant
// as the sample geometry for aggregation.
func NewRegularGrid(specs ...GridSpec) (*GriddedData, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("data: no grid dimensions: %w", ErrShape)
	}
	var dims []*Coord
	for _, gs := range specs {
		edges, err := gs.cells()
		if err != nil {
			return nil, err
		}
		n := len(edges) - 1
		pts := make([]float64, n)
		b := sparse.ZerosDense(n, 2)
		for i := 0; i < n; i++ {
			pts[i] = (edges[i] + edges[i+1]) / 2
			b.Elements[2*i], b.Elements[2*i+1] = edges[i], edges[i+1]
		}
		c := NewAxisCoord(gs.Axis, pts)
		c.Bounds = b
		if gs.Axis == Lon && math.Abs(gs.End-gs.Start-360) < 1e-9 {
			c.Circular = true
		}
		dims = append(dims, c)
	}
	shape := make([]int, len(dims))
	for i, c := range dims {
		shape[i] = c.Len()
	}
	vals := NewMaskedArray(shape...)
	vals.Mask = make([]bool, vals.Size())
	for i := range vals.Mask {
		vals.Mask[i] = true
	}
	return NewGriddedData(vals, &Metadata{Name: "grid"}, dims)
}
