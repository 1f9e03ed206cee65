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
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spatialmodel/colocate/data"
)

var (
	// ErrNoCandidates is returned by a kernel that needs data when there
	// are no valid candidate values.
	ErrNoCandidates = errors.New("kernel: no valid candidate values")

	// ErrOutOfBounds is returned when a sample position lies outside the
	// source grid and extrapolation is off.
	ErrOutOfBounds = errors.New("kernel: sample lies outside the source grid")
)

// VariableDetails describe one output variable of a kernel.
type VariableDetails struct {
	Name, LongName, StandardName, Units string
}

// Kernel is the part shared by every kernel.
type Kernel interface {
	Name() string

	// ReturnSize is the number of values produced for each sample
	// position.
	ReturnSize() int

	// VariableDetails returns the details of the ReturnSize output
	// variables derived from a source variable with the given details.
	VariableDetails(name, longName, standardName, units string) []VariableDetails
}

// PointKernel computes values from candidate points of an ungridded
// source.
type PointKernel interface {
	Kernel

	// Values returns ReturnSize values for sample point i computed from
	// variable v of source at the candidate points.
	Values(sample *data.PointView, i int, source *data.PointView, candidates []int, v int) ([]float64, error)
}

// Reducer is a PointKernel whose result only depends on the candidate
// values, not on where they lie relative to the sample.
type Reducer interface {
	PointKernel

	// Reduce returns ReturnSize values computed from vals.
	Reduce(vals []float64) ([]float64, error)
}

// Method selects how a gridded source is interpolated.
type Method int

const (
	// Nearest takes the value of the grid point nearest along each
	// dimension.
	Nearest Method = iota

	// Linear interpolates multilinearly between grid points.
	Linear
)

func (m Method) String() string {
	if m == Linear {
		return "linear"
	}
	return "nn_gridded"
}

// Interpolation is the kernel of gridded sources: nn_gridded or linear.
type Interpolation struct {
	Method Method
}

// Name returns the name of the interpolation method.
func (k Interpolation) Name() string { return k.Method.String() }

// ReturnSize returns 1.
func (Interpolation) ReturnSize() int { return 1 }

// VariableDetails passes the source details through.
func (Interpolation) VariableDetails(name, longName, standardName, units string) []VariableDetails {
	return []VariableDetails{{name, longName, standardName, units}}
}

type constructor func() Kernel

var kernels = map[string]constructor{
	"mean":          func() Kernel { return Mean() },
	"moments":       func() Kernel { return NewMoments("", "") },
	"stddev":        func() Kernel { return StdDev() },
	"min":           func() Kernel { return Min() },
	"max":           func() Kernel { return Max() },
	"count":         func() Kernel { return Count() },
	"nn_horizontal": func() Kernel { return NearestHorizontal() },
	"nn_altitude":   func() Kernel { return NearestAltitude() },
	"nn_pressure":   func() Kernel { return NearestPressure() },
	"nn_time":       func() Kernel { return NearestTime() },
	"nn_gridded":    func() Kernel { return Interpolation{Method: Nearest} },
	"linear":        func() Kernel { return Interpolation{Method: Linear} },
}

var aliases = map[string]string{
	"nn_h":  "nn_horizontal",
	"nn_a":  "nn_altitude",
	"nn_p":  "nn_pressure",
	"nn_t":  "nn_time",
	"lin":   "linear",
	"nn":    "nn_horizontal",
	"std":   "stddev",
	"nn_gr": "nn_gridded",
}

// Names returns the names of the known kernels.
func Names() []string {
	o := make([]string, 0, len(kernels))
	for n := range kernels {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}

// New returns the kernel with the given name or alias.
func New(name string) (Kernel, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		n = a
	}
	c, ok := kernels[n]
	if !ok {
		return nil, fmt.Errorf("kernel: unknown kernel %q (valid kernels are %s): %w",
			name, strings.Join(Names(), ", "), data.ErrInvalidOption)
	}
	return c(), nil
}

// validValues returns the valid values of variable v at the candidates.
func validValues(source *data.PointView, candidates []int, v int) []float64 {
	o := make([]float64, 0, len(candidates))
	for _, j := range candidates {
		if source.Valid(j, v) {
			o = append(o, source.Value(j, v))
		}
	}
	return o
}
