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
	"sort"
)

// WrapLongitude returns lon shifted by a multiple of 360 into
// [start, start+360).
func WrapLongitude(lon, start float64) float64 {
	v := math.Mod(lon-start, 360)
	if v < 0 {
		v += 360
	}
	// Guard against v rounding up to 360.
	if v >= 360 {
		v = 0
	}
	return start + v
}

// wrapCoord moves every point of c into [start, start+360) and moves each
// pair of bounds by the same offset as its point.
func wrapCoord(c *Coord, start float64) (changed bool) {
	for i, v := range c.Points.Elements {
		w := WrapLongitude(v, start)
		if w == v {
			continue
		}
		changed = true
		off := w - v
		c.Points.Elements[i] = w
		if c.Bounds != nil {
			c.Bounds.Elements[2*i] += off
			c.Bounds.Elements[2*i+1] += off
		}
	}
	return changed
}

// SetLongitudeRange places every longitude of u in [start, start+360).
func (u *UngriddedData) SetLongitudeRange(start float64) error {
	if err := u.Load(); err != nil {
		return err
	}
	for _, c := range u.coords.Find(ByAxis(Lon)) {
		wrapCoord(c, start)
	}
	return nil
}

// SetLongitudeRange places every longitude of g in [start, start+360). If
// the longitude is a dimension coordinate, the grid is rolled along it so
// that the coordinate stays ascending.
func (g *GriddedData) SetLongitudeRange(start float64) error {
	for _, c := range g.aux.Find(ByAxis(Lon)) {
		wrapCoord(c, start)
	}
	d := g.DimIndex(Lon)
	if d < 0 {
		return nil
	}
	c := g.dimCoords[d]
	if !wrapCoord(c, start) {
		return nil
	}
	if ok, _ := c.Monotonic(); ok {
		return nil
	}
	if err := g.Load(); err != nil {
		return err
	}
	n := c.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	p := c.Points.Elements
	sort.SliceStable(order, func(i, j int) bool { return p[order[i]] < p[order[j]] })
	sel := make([][]int, len(g.dimCoords))
	sel[d] = order
	r := g.take(sel)
	r.dimCoords[d].Circular = c.Circular
	if ok, _ := r.dimCoords[d].Monotonic(); !ok {
		return fmt.Errorf("data: longitudes of %s are not unique after rotation to start at %g",
			g.Name(), start)
	}
	g.data, g.dimCoords, g.aux, g.hybrid = r.data, r.dimCoords, r.aux, r.hybrid
	g.materialised = nil
	return nil
}
