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
	"github.com/spatialmodel/colocate/kernel"
)

// GriddedUngridded collocates point sources onto a gridded sample by
// binning the source points into the sample cells. Reduction kernels
// without a separation only visit the cells holding source points; cells
// holding none are masked, whatever the kernel. Gridded sources are
// treated as the points at their cell centres.
type GriddedUngridded struct {
	Common
}

// Colocate collocates sources onto sample using a point kernel.
func (c *GriddedUngridded) Colocate(sample data.CommonData, sources data.CommonDataList, k kernel.Kernel) (data.CommonDataList, error) {
	g, ok := sample.(*data.GriddedData)
	if !ok {
		return nil, fmt.Errorf("colocate: sample %s is not gridded: %w", sample.Name(), ErrInvalidOption)
	}
	pk, ok := k.(kernel.PointKernel)
	if !ok {
		return nil, fmt.Errorf("colocate: kernel %s cannot be used with point sources: %w", k.Name(), ErrInvalidOption)
	}
	o, err := c.newOutputs(sample, sources, k)
	if err != nil {
		return nil, err
	}
	if err := c.bin(o, g, pk); err != nil {
		return nil, err
	}
	return o.finish()
}

func (c *GriddedUngridded) bin(o *outputs, g *data.GriddedData, pk kernel.PointKernel) error {
	shape := g.Shape()
	start := longitudeStart(o.sv)
	for v, src := range o.sources {
		view, valid, err := sourceView(src, start)
		if err != nil {
			return err
		}
		sv, err := alignVertical(o.sv, o.sample, src)
		if err != nil {
			return err
		}
		if err := checkAxes(pk, sv, view); err != nil {
			return err
		}
		cons, err := constraint.NewCellConstraint(g, view, valid)
		if err != nil {
			return fmt.Errorf("colocate: %w", err)
		}
		c.log().WithField("source", src.Name()).
			WithField("binned", cons.NumBinned()).
			Debug("colocate: binned source points into sample cells")

		if red, ok := pk.(kernel.Reducer); ok && c.Sep.IsZero() {
			progress := c.progress(sv.Len())
			it := cons.Cells()
			for it.Next() {
				pts := it.Points()
				vals := make([]float64, 0, len(pts))
				for _, j := range pts {
					if view.Valid(j, 0) {
						vals = append(vals, view.Value(j, 0))
					}
				}
				res, rerr := red.Reduce(vals)
				var ferr error
				cons.Expand(it.Cell(), func(multi []int) {
					if ferr != nil {
						return
					}
					progress()
					ferr = o.eval(v, data.Ravel(multi, shape), func() ([]float64, error) { return res, rerr })
				})
				if ferr != nil {
					return ferr
				}
			}
			continue
		}

		if !c.Sep.IsZero() {
			if err := cons.WithSeparation(c.Sep, sv); err != nil {
				return err
			}
		}
		progress := c.progress(sv.Len())
		multi := make([]int, len(shape))
		for i := 0; i < sv.Len(); i++ {
			progress()
			data.Unravel(i, shape, multi)
			err := o.eval(v, i, func() ([]float64, error) {
				return pk.Values(sv, i, view, cons.Candidates(sv, i, multi), 0)
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// GriddedGridded collocates gridded sources onto a gridded sample. The
// interpolation kernels regrid each source at the sample cell centres;
// point kernels bin the source cell centres into the sample cells.
type GriddedGridded struct {
	Common
}

// Colocate collocates sources onto sample.
func (c *GriddedGridded) Colocate(sample data.CommonData, sources data.CommonDataList, k kernel.Kernel) (data.CommonDataList, error) {
	if _, ok := sample.(*data.GriddedData); !ok {
		return nil, fmt.Errorf("colocate: sample %s is not gridded: %w", sample.Name(), ErrInvalidOption)
	}
	if ik, ok := k.(kernel.Interpolation); ok {
		o, err := c.newOutputs(sample, sources, k)
		if err != nil {
			return nil, err
		}
		if err := interpolate(&c.Common, o, ik); err != nil {
			return nil, err
		}
		return o.finish()
	}
	b := &GriddedUngridded{Common: c.Common}
	return b.Colocate(sample, sources, k)
}
