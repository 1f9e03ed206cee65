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
)

// Axis identifies one of the five coordinate axes a point can carry.
type Axis int

// The coordinate axes, in HyperPoint order.
const (
	Lat Axis = iota
	Lon
	Alt
	Pres
	Time
	NumAxes int = iota
)

// Axes lists every axis in HyperPoint order.
var Axes = [NumAxes]Axis{Lat, Lon, Alt, Pres, Time}

func (a Axis) String() string {
	switch a {
	case Lat:
		return "latitude"
	case Lon:
		return "longitude"
	case Alt:
		return "altitude"
	case Pres:
		return "air_pressure"
	case Time:
		return "time"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// CFAxis returns the CF axis tag (X, Y, Z or T) of a.
func (a Axis) CFAxis() string {
	switch a {
	case Lat:
		return "Y"
	case Lon:
		return "X"
	case Alt, Pres:
		return "Z"
	case Time:
		return "T"
	}
	return ""
}

// ParseAxis returns the axis matching the given name. Short forms (x, y,
// z, p, t), full names and standard names are accepted.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "lat", "latitude":
		return Lat, nil
	case "x", "lon", "longitude":
		return Lon, nil
	case "z", "alt", "altitude":
		return Alt, nil
	case "p", "pres", "pressure", "air_pressure":
		return Pres, nil
	case "t", "time":
		return Time, nil
	}
	return 0, fmt.Errorf("data: unknown axis %q", s)
}

// HyperPoint is a single point in up to five coordinate dimensions with
// one or more values. Absent coordinates are NaN; within a collection
// either every point carries an axis or none does.
type HyperPoint struct {
	Coords [NumAxes]float64
	Vals   []float64
}

// NewHyperPoint returns a point at the given latitude and longitude with
// every other axis absent.
func NewHyperPoint(lat, lon float64, vals ...float64) HyperPoint {
	p := HyperPoint{Vals: vals}
	for i := range p.Coords {
		p.Coords[i] = math.NaN()
	}
	p.Coords[Lat] = lat
	p.Coords[Lon] = lon
	return p
}

// With returns a copy of p with axis a set to v.
func (p HyperPoint) With(a Axis, v float64) HyperPoint {
	p.Coords[a] = v
	return p
}

// Has reports whether p carries a coordinate on axis a.
func (p HyperPoint) Has(a Axis) bool {
	return !math.IsNaN(p.Coords[a])
}

// Val returns the first value of p, or NaN if it has none.
func (p HyperPoint) Val() float64 {
	if len(p.Vals) == 0 {
		return math.NaN()
	}
	return p.Vals[0]
}

func (p HyperPoint) String() string {
	var b strings.Builder
	b.WriteString("HyperPoint(")
	first := true
	for _, a := range Axes {
		if !p.Has(a) {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s=%g", a, p.Coords[a])
	}
	fmt.Fprintf(&b, ", vals=%v)", p.Vals)
	return b.String()
}
