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

	"github.com/spatialmodel/colocate/data"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// reducer is a Reducer built from a reduction function and a naming
// scheme.
type reducer struct {
	name    string
	size    int
	reduce  func(vals []float64) ([]float64, error)
	details func(name, longName, standardName, units string) []VariableDetails
}

func (r *reducer) Name() string    { return r.name }
func (r *reducer) ReturnSize() int { return r.size }

func (r *reducer) VariableDetails(name, longName, standardName, units string) []VariableDetails {
	if r.details == nil {
		return []VariableDetails{{name, longName, standardName, units}}
	}
	return r.details(name, longName, standardName, units)
}

func (r *reducer) Reduce(vals []float64) ([]float64, error) { return r.reduce(vals) }

func (r *reducer) Values(sample *data.PointView, i int, source *data.PointView, candidates []int, v int) ([]float64, error) {
	return r.reduce(validValues(source, candidates, v))
}

func needsData(f func(vals []float64) []float64) func(vals []float64) ([]float64, error) {
	return func(vals []float64) ([]float64, error) {
		if len(vals) == 0 {
			return nil, ErrNoCandidates
		}
		return f(vals), nil
	}
}

// Mean returns the kernel computing the arithmetic mean of the candidate
// values.
func Mean() Reducer {
	return &reducer{name: "mean", size: 1, reduce: needsData(func(v []float64) []float64 {
		return []float64{stat.Mean(v, nil)}
	})}
}

// StdDev returns the kernel computing the corrected sample standard
// deviation of the candidate values. It is NaN for a single value.
func StdDev() Reducer {
	return &reducer{name: "stddev", size: 1, reduce: needsData(func(v []float64) []float64 {
		return []float64{stdDev(v)}
	})}
}

func stdDev(v []float64) float64 {
	if len(v) < 2 {
		return math.NaN()
	}
	return stat.StdDev(v, nil)
}

// Min returns the kernel taking the smallest candidate value.
func Min() Reducer {
	return &reducer{name: "min", size: 1, reduce: needsData(func(v []float64) []float64 {
		return []float64{floats.Min(v)}
	})}
}

// Max returns the kernel taking the largest candidate value.
func Max() Reducer {
	return &reducer{name: "max", size: 1, reduce: needsData(func(v []float64) []float64 {
		return []float64{floats.Max(v)}
	})}
}

// Count returns the kernel counting the valid candidate values. It is
// zero, not an error, when there are none.
func Count() Reducer {
	return &reducer{
		name: "count",
		size: 1,
		reduce: func(v []float64) ([]float64, error) {
			return []float64{float64(len(v))}, nil
		},
		details: func(name, longName, _, _ string) []VariableDetails {
			if longName == "" {
				longName = name
			}
			return []VariableDetails{{Name: name, LongName: "Number of points used to compute " + longName, Units: "1"}}
		},
	}
}

// Moments suffixes used when none are given.
const (
	DefaultStdDevSuffix    = "_std_dev"
	DefaultNumPointsSuffix = "_num_points"
)

// NewMoments returns the kernel computing the mean, the corrected sample
// standard deviation and the number of the candidate values. The outputs
// are named after the source variable, the source variable with
// stdDevSuffix and the source variable with numPointsSuffix. Empty
// suffixes take their defaults.
func NewMoments(stdDevSuffix, numPointsSuffix string) Reducer {
	if stdDevSuffix == "" {
		stdDevSuffix = DefaultStdDevSuffix
	}
	if numPointsSuffix == "" {
		numPointsSuffix = DefaultNumPointsSuffix
	}
	return &reducer{
		name: "moments",
		size: 3,
		reduce: needsData(func(v []float64) []float64 {
			return []float64{stat.Mean(v, nil), stdDev(v), float64(len(v))}
		}),
		details: func(name, longName, standardName, units string) []VariableDetails {
			if longName == "" {
				longName = name
			}
			return []VariableDetails{
				{name, longName, standardName, units},
				{name + stdDevSuffix, "Corrected sample standard deviation of " + longName, "", units},
				{name + numPointsSuffix, "Number of points used to calculate the mean of " + longName, "", "1"},
			}
		},
	}
}
