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
	"math"

	"github.com/spatialmodel/colocate/constraint"
	"github.com/spatialmodel/colocate/data"
	"github.com/spatialmodel/colocate/index"
)

// separation returns the separation between sample point i and source
// point j along one axis.
type separation func(sample *data.PointView, i int, source *data.PointView, j int) float64

// NearestKernel takes the value of the candidate with the smallest
// separation from the sample. The first of several equally separated
// candidates wins.
type NearestKernel struct {
	name string
	axes []data.Axis
	sep  separation
}

// Name returns the name of the kernel.
func (k *NearestKernel) Name() string { return k.name }

// ReturnSize returns 1.
func (k *NearestKernel) ReturnSize() int { return 1 }

// VariableDetails passes the source details through.
func (k *NearestKernel) VariableDetails(name, longName, standardName, units string) []VariableDetails {
	return []VariableDetails{{name, longName, standardName, units}}
}

// Axes returns the axes the sample and the source must both carry.
func (k *NearestKernel) Axes() []data.Axis { return k.axes }

// Values returns the value of variable v at the nearest valid candidate.
func (k *NearestKernel) Values(sample *data.PointView, i int, source *data.PointView, candidates []int, v int) ([]float64, error) {
	best, bestSep := -1, math.Inf(1)
	for _, j := range candidates {
		if !source.Valid(j, v) {
			continue
		}
		if s := k.sep(sample, i, source, j); s < bestSep || best < 0 && !math.IsNaN(s) {
			best, bestSep = j, s
		}
	}
	if best < 0 {
		return nil, ErrNoCandidates
	}
	return []float64{source.Value(best, v)}, nil
}

// NearestHorizontal returns the kernel taking the candidate nearest by
// great-circle distance.
func NearestHorizontal() *NearestKernel {
	return &NearestKernel{name: "nn_horizontal", axes: []data.Axis{data.Lat, data.Lon},
		sep: func(sample *data.PointView, i int, source *data.PointView, j int) float64 {
			return index.Haversine(sample.Coord(data.Lat, i), sample.Coord(data.Lon, i),
				source.Coord(data.Lat, j), source.Coord(data.Lon, j))
		}}
}

func absDifference(a data.Axis) separation {
	return func(sample *data.PointView, i int, source *data.PointView, j int) float64 {
		return math.Abs(sample.Coord(a, i) - source.Coord(a, j))
	}
}

// NearestAltitude returns the kernel taking the candidate nearest in
// altitude.
func NearestAltitude() *NearestKernel {
	return &NearestKernel{name: "nn_altitude", axes: []data.Axis{data.Alt}, sep: absDifference(data.Alt)}
}

// NearestTime returns the kernel taking the candidate nearest in time.
func NearestTime() *NearestKernel {
	return &NearestKernel{name: "nn_time", axes: []data.Axis{data.Time}, sep: absDifference(data.Time)}
}

// NearestPressure returns the kernel taking the candidate with the
// smallest pressure ratio to the sample.
func NearestPressure() *NearestKernel {
	return &NearestKernel{name: "nn_pressure", axes: []data.Axis{data.Pres},
		sep: func(sample *data.PointView, i int, source *data.PointView, j int) float64 {
			return constraint.PressureRatio(sample.Coord(data.Pres, i), source.Coord(data.Pres, j))
		}}
}
