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

package colocate

import (
	"fmt"

	"github.com/spatialmodel/colocate/constraint"
	"github.com/spatialmodel/colocate/data"
	"github.com/spatialmodel/colocate/index"
	"github.com/spatialmodel/colocate/kernel"
)

// UngriddedUngridded collocates point sources onto an ungridded sample.
// Each sample point is scanned in turn, and its candidates are found in a
// kd-tree over the source points. Gridded sources are treated as the
// points at their cell centres.
type UngriddedUngridded struct {
	Common
}

// Colocate collocates sources onto sample using a point kernel.
func (c *UngriddedUngridded) Colocate(sample data.CommonData, sources data.CommonDataList, k kernel.Kernel) (data.CommonDataList, error) {
	pk, ok := k.(kernel.PointKernel)
	if !ok {
		return nil, fmt.Errorf("colocate: kernel %s cannot be used with point sources: %w", k.Name(), ErrInvalidOption)
	}
	o, err := c.newOutputs(sample, sources, k)
	if err != nil {
		return nil, err
	}
	start := longitudeStart(o.sv)
	for v, src := range sources {
		view, valid, err := sourceView(src, start)
		if err != nil {
			return nil, err
		}
		sv, err := alignVertical(o.sv, sample, src)
		if err != nil {
			return nil, err
		}
		if err := checkAxes(k, sv, view); err != nil {
			return nil, err
		}
		if err := c.scan(o, v, pk, sv, view, valid); err != nil {
			return nil, err
		}
	}
	return o.finish()
}

func (c *UngriddedUngridded) scan(o *outputs, v int, pk kernel.PointKernel, sv, view *data.PointView, valid []bool) error {
	progress := c.progress(sv.Len())

	// The horizontal nearest neighbour without other bounds is a single
	// kd-tree query.
	if pk.Name() == "nn_horizontal" && c.Sep.IsZero() {
		tree := index.NewHaversineTree(view.Column(data.Lat), view.Column(data.Lon), valid, c.LeafSize)
		for i := 0; i < sv.Len(); i++ {
			progress()
			err := o.eval(v, i, func() ([]float64, error) {
				idx, _ := tree.Query(sv.Coord(data.Lat, i), sv.Coord(data.Lon, i), 1)
				if len(idx) == 0 {
					return nil, kernel.ErrNoCandidates
				}
				return []float64{view.Value(idx[0], 0)}, nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}

	cons, err := constraint.NewSepConstraint(c.Sep, sv, view, valid, c.LeafSize)
	if err != nil {
		return err
	}
	for i := 0; i < sv.Len(); i++ {
		progress()
		err := o.eval(v, i, func() ([]float64, error) {
			return pk.Values(sv, i, view, cons.Candidates(sv, i), 0)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// UngriddedGridded collocates gridded sources onto an ungridded sample by
// nearest-neighbour or linear interpolation. No index is built.
type UngriddedGridded struct {
	Common
}

// Colocate collocates sources onto sample. k must be an interpolation
// kernel.
func (c *UngriddedGridded) Colocate(sample data.CommonData, sources data.CommonDataList, k kernel.Kernel) (data.CommonDataList, error) {
	ik, ok := k.(kernel.Interpolation)
	if !ok {
		return nil, fmt.Errorf("colocate: kernel %s cannot interpolate a gridded source: %w", k.Name(), ErrInvalidOption)
	}
	o, err := c.newOutputs(sample, sources, k)
	if err != nil {
		return nil, err
	}
	if err := interpolate(&c.Common, o, ik); err != nil {
		return nil, err
	}
	return o.finish()
}

// interpolate evaluates each gridded source at every point of the sample
// view.
func interpolate(c *Common, o *outputs, ik kernel.Interpolation) error {
	for v, src := range o.sources {
		g, ok := src.(*data.GriddedData)
		if !ok {
			return fmt.Errorf("colocate: source %s is not gridded: %w", src.Name(), ErrInvalidOption)
		}
		sv, err := alignVertical(o.sv, o.sample, g)
		if err != nil {
			return err
		}
		ip, err := kernel.NewInterpolator(g, sv, ik.Method, c.Extrapolate)
		if err != nil {
			return fmt.Errorf("colocate: %w", err)
		}
		progress := c.progress(sv.Len())
		for i := 0; i < sv.Len(); i++ {
			progress()
			err := o.eval(v, i, func() ([]float64, error) {
				x, err := ip.Value(sv, i)
				return []float64{x}, err
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
