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

import "fmt"

// HybridCoord is a vertical coordinate defined as a rule over level
// coefficients and a surface field. It is materialised on demand into a
// coordinate spanning every dimension of the data it belongs to.
type HybridCoord interface {
	// Axis is the axis of the materialised coordinate.
	Axis() Axis

	// Materialise returns the coordinate over a grid of the given shape.
	Materialise(shape []int) (*Coord, error)
}

// HybridPressure describes hybrid sigma-pressure levels, where the
// pressure at level k is A[k]*Reference + B[k]*SurfacePressure. If
// Reference is zero, A is taken to already be in Pa.
type HybridPressure struct {
	// A and B are one-dimensional over the level dimension.
	A, B *Coord

	// SurfacePressure spans the horizontal and, optionally, time
	// dimensions.
	SurfacePressure *Coord

	Reference float64

	// Altitude is an optional altitude field over the whole grid, derived
	// from the pressure levels by the data provider.
	Altitude *Coord
}

// Axis returns Pres.
func (h *HybridPressure) Axis() Axis { return Pres }

// Materialise returns the air pressure at every point of the grid.
func (h *HybridPressure) Materialise(shape []int) (*Coord, error) {
	if h.A == nil || h.B == nil || h.SurfacePressure == nil {
		return nil, fmt.Errorf("data: hybrid pressure coordinate is incomplete: %w", ErrShape)
	}
	if len(h.A.Dims) != 1 || len(h.B.Dims) != 1 || h.A.Dims[0] != h.B.Dims[0] {
		return nil, fmt.Errorf("data: hybrid pressure coefficients must share one dimension: %w", ErrShape)
	}
	ref := h.Reference
	if ref == 0 {
		ref = 1
	}
	psf := 1.
	if h.SurfacePressure.Units != "" && h.SurfacePressure.Units != "Pa" {
		var err error
		if psf, err = ConversionFactor(h.SurfacePressure.Units, "Pa"); err != nil {
			return nil, err
		}
	}
	out := NewMaskedArray(shape...)
	idx := make([]int, len(shape))
	for i := range out.Elements {
		Unravel(i, shape, idx)
		out.Elements[i] = h.A.At(idx)*ref + h.B.At(idx)*h.SurfacePressure.At(idx)*psf
	}
	return hybridResult(out, shape, Pres, "air_pressure", "Pa"), nil
}

// AltitudeCoord returns the derived altitude field, or nil if there is
// none.
func (h *HybridPressure) AltitudeCoord() *Coord { return h.Altitude }

// HybridHeight describes hybrid height levels, where the altitude at level
// k is LevelHeight[k] + Sigma[k]*Orography.
type HybridHeight struct {
	LevelHeight, Sigma *Coord
	Orography          *Coord
}

// Axis returns Alt.
func (h *HybridHeight) Axis() Axis { return Alt }

// Materialise returns the altitude at every point of the grid.
func (h *HybridHeight) Materialise(shape []int) (*Coord, error) {
	if h.LevelHeight == nil || h.Sigma == nil || h.Orography == nil {
		return nil, fmt.Errorf("data: hybrid height coordinate is incomplete: %w", ErrShape)
	}
	out := NewMaskedArray(shape...)
	idx := make([]int, len(shape))
	for i := range out.Elements {
		Unravel(i, shape, idx)
		out.Elements[i] = h.LevelHeight.At(idx) + h.Sigma.At(idx)*h.Orography.At(idx)
	}
	return hybridResult(out, shape, Alt, "altitude", "m"), nil
}

func hybridResult(out *MaskedArray, shape []int, a Axis, name, units string) *Coord {
	out.MaskNaN()
	dims := make([]int, len(shape))
	for i := range dims {
		dims[i] = i
	}
	c := NewCoord(out, &Metadata{Name: name, StandardName: name, Units: units}, a)
	c.Dims = dims
	return c
}
