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

package kernel

import (
	"fmt"
	"math"
	"sort"

	"github.com/spatialmodel/colocate/data"
	"github.com/spatialmodel/colocate/index"
)

// tap is one grid index contributing to an interpolated value.
type tap struct {
	i int
	w float64
}

type dimKind int

const (
	dimFixed    dimKind = iota // a dimension of length one, or the vertical one
	dimRegular                 // interpolated along a sample axis
	dimVertical                // positions vary over the other dimensions
)

// gridDim resolves sample positions along one source dimension.
type gridDim struct {
	kind dimKind
	axis data.Axis

	// pts are the coordinates in ascending order; orig[k] is the grid
	// index of pts[k].
	pts  []float64
	orig []int

	// lo and hi delimit the positions inside the grid.
	lo, hi   float64
	circular bool
}

func newGridDim(vals []float64) *gridDim {
	g := &gridDim{kind: dimRegular, orig: make([]int, len(vals))}
	for i := range g.orig {
		g.orig[i] = i
	}
	sort.SliceStable(g.orig, func(a, b int) bool { return vals[g.orig[a]] < vals[g.orig[b]] })
	g.pts = make([]float64, len(vals))
	for k, i := range g.orig {
		g.pts[k] = vals[i]
	}
	g.lo, g.hi = g.pts[0], g.pts[len(g.pts)-1]
	return g
}

func pair(i0, i1 int, w float64) []tap {
	switch {
	case w == 0:
		return []tap{{i0, 1}}
	case w == 1:
		return []tap{{i1, 1}}
	}
	return []tap{{i0, 1 - w}, {i1, w}}
}

// taps returns the grid indices and weights giving the value at x.
func (g *gridDim) taps(x float64, m Method, extrapolate bool) ([]tap, error) {
	if math.IsNaN(x) {
		return nil, ErrOutOfBounds
	}
	n := len(g.pts)
	switch {
	case g.circular:
		x = data.WrapLongitude(x, g.pts[0])
	case g.axis == data.Lon:
		x = data.WrapLongitude(x, g.lo)
	}
	if m == Nearest {
		if !g.circular && !extrapolate && (x < g.lo || x > g.hi) {
			return nil, ErrOutOfBounds
		}
		k := sort.SearchFloat64s(g.pts, x)
		switch {
		case k == n && g.circular && g.pts[0]+360-x < x-g.pts[n-1]:
			k = 0
		case k == n:
			k = n - 1
		case k > 0 && x-g.pts[k-1] <= g.pts[k]-x:
			k--
		}
		return []tap{{g.orig[k], 1}}, nil
	}

	if n == 1 {
		if x != g.pts[0] && !extrapolate {
			return nil, ErrOutOfBounds
		}
		return []tap{{g.orig[0], 1}}, nil
	}
	k := sort.SearchFloat64s(g.pts, x)
	if k < n && g.pts[k] == x {
		return []tap{{g.orig[k], 1}}, nil
	}
	if k == 0 || k == n {
		if g.circular {
			x0, x1 := g.pts[n-1], g.pts[0]+360
			return pair(g.orig[n-1], g.orig[0], (x-x0)/(x1-x0)), nil
		}
		if !extrapolate {
			return nil, ErrOutOfBounds
		}
		if k == 0 {
			k = 1
		} else {
			k = n - 1
		}
	}
	x0, x1 := g.pts[k-1], g.pts[k]
	return pair(g.orig[k-1], g.orig[k], (x-x0)/(x1-x0)), nil
}

// Interpolator evaluates a gridded source at arbitrary sample positions,
// either at the nearest grid point or by multilinear interpolation.
//
// Source dimensions are matched to sample axes through their dimension
// coordinates. Dimensions of length one are always taken at their only
// index; any other dimension the sample cannot resolve is an error. A
// hybrid or auxiliary vertical coordinate is interpolated in altitude if
// both the sample and the source carry altitude, and in pressure
// otherwise. Horizontal and time weights are computed first; the vertical
// interpolation is then done in the column under each contributing grid
// point.
type Interpolator struct {
	Method      Method
	Extrapolate bool

	shape []int
	vals  *data.MaskedArray
	dims  []*gridDim

	vdim   int
	vaxis  data.Axis
	vcoord *data.Coord
}

// NewInterpolator prepares the interpolation of source at the positions of
// sample.
func NewInterpolator(source *data.GriddedData, sample *data.PointView, m Method, extrapolate bool) (*Interpolator, error) {
	vals, err := source.Data()
	if err != nil {
		return nil, err
	}
	ip := &Interpolator{
		Method:      m,
		Extrapolate: extrapolate,
		shape:       source.Shape(),
		vals:        vals,
		vdim:        -1,
		vaxis:       data.NoAxis,
	}

	for _, a := range []data.Axis{data.Alt, data.Pres} {
		if !sample.Has(a) {
			continue
		}
		if source.DimIndex(a) >= 0 {
			ip.vaxis = a
			break
		}
		c, err := source.AxisCoord(a)
		if err != nil {
			continue
		}
		if d := levelDim(source, c); d >= 0 {
			ip.vaxis, ip.vdim, ip.vcoord = a, d, c
			break
		}
	}

	for d, dc := range source.DimCoords() {
		a := dc.Axis
		switch {
		case d == ip.vdim:
			ip.dims = append(ip.dims, &gridDim{kind: dimVertical})
		case dc.Len() == 1:
			ip.dims = append(ip.dims, &gridDim{kind: dimFixed})
		case a != data.NoAxis && sample.Has(a) && (a != data.Alt && a != data.Pres || a == ip.vaxis):
			g := newGridDim(dc.Points.Elements)
			g.axis = a
			b := index.BoundsOf(dc)
			g.lo, g.hi = math.Inf(1), math.Inf(-1)
			for k := range b.Lower {
				g.lo = math.Min(g.lo, math.Min(b.Lower[k], b.Upper[k]))
				g.hi = math.Max(g.hi, math.Max(b.Lower[k], b.Upper[k]))
			}
			g.circular = a == data.Lon && (dc.Circular || g.hi-g.lo >= 360-1e-9)
			ip.dims = append(ip.dims, g)
		default:
			return nil, fmt.Errorf("kernel: the sample cannot resolve dimension %d (%s) of %s: %w",
				d, dc.Identifier(), source.Name(), data.ErrDimensionMismatch)
		}
	}
	return ip, nil
}

// levelDim returns the dimension a vertical coordinate varies along
// other than the horizontal and time dimensions, or -1.
func levelDim(g *data.GriddedData, c *data.Coord) int {
	dcs := g.DimCoords()
	for _, d := range c.Dims {
		switch dcs[d].Axis {
		case data.Lat, data.Lon, data.Time:
			continue
		}
		if dcs[d].Len() > 1 {
			return d
		}
	}
	return -1
}

// VerticalAxis returns the axis the vertical interpolation is done in, or
// data.NoAxis.
func (ip *Interpolator) VerticalAxis() data.Axis { return ip.vaxis }

// Value returns the source interpolated at sample point i.
func (ip *Interpolator) Value(sample *data.PointView, i int) (float64, error) {
	taps := make([][]tap, len(ip.dims))
	for d, g := range ip.dims {
		if g.kind != dimRegular {
			taps[d] = []tap{{0, 1}}
			continue
		}
		t, err := g.taps(sample.Coord(g.axis, i), ip.Method, ip.Extrapolate)
		if err != nil {
			return math.NaN(), err
		}
		taps[d] = t
	}
	z := math.NaN()
	if ip.vdim >= 0 {
		z = sample.Coord(ip.vaxis, i)
	}

	idx := make([]int, len(ip.shape))
	var sum float64
	var walk func(d int, w float64) error
	walk = func(d int, w float64) error {
		if d == len(ip.dims) {
			var v float64
			var err error
			if ip.vdim >= 0 {
				v, err = ip.column(idx, z)
			} else {
				v, err = ip.at(idx)
			}
			sum += w * v
			return err
		}
		for _, t := range taps[d] {
			idx[d] = t.i
			if err := walk(d+1, w*t.w); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, 1); err != nil {
		return math.NaN(), err
	}
	return sum, nil
}

func (ip *Interpolator) at(idx []int) (float64, error) {
	f := data.Ravel(idx, ip.shape)
	if ip.vals.IsMasked(f) || math.IsNaN(ip.vals.Elements[f]) {
		return math.NaN(), ErrNoCandidates
	}
	return ip.vals.Elements[f], nil
}

// column interpolates to vertical position z in the column through idx.
func (ip *Interpolator) column(idx []int, z float64) (float64, error) {
	n := ip.shape[ip.vdim]
	zs := make([]float64, n)
	for k := range zs {
		idx[ip.vdim] = k
		zs[k] = ip.vcoord.At(idx)
	}
	taps, err := newGridDim(zs).taps(z, ip.Method, ip.Extrapolate)
	if err != nil {
		return math.NaN(), err
	}
	var sum float64
	for _, t := range taps {
		idx[ip.vdim] = t.i
		v, err := ip.at(idx)
		if err != nil {
			return math.NaN(), err
		}
		sum += t.w * v
	}
	return sum, nil
}
