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

	"github.com/sirupsen/logrus"
)

// UngriddedData is a variable defined at a set of points. Every
// coordinate has the shape of the values.
type UngriddedData struct {
	md     *Metadata
	data   *MaskedArray
	coords CoordList

	lazy       *LazyData
	lazyCoords []LazyCoord
	loadErr    error

	// Log receives a message when points with masked coordinates are
	// dropped. If nil, the standard logrus logger is used.
	Log logrus.FieldLogger
}

// NewUngriddedData returns a variable holding values at the points given
// by coords. Points with a masked coordinate are dropped.
func NewUngriddedData(values *MaskedArray, md *Metadata, coords CoordList) (*UngriddedData, error) {
	if md == nil {
		md = &Metadata{}
	}
	u := &UngriddedData{md: md, data: values, coords: coords}
	if err := u.finish(); err != nil {
		return nil, err
	}
	return u, nil
}

// NewLazyUngriddedData returns a variable whose values and coordinates
// are read on first use.
func NewLazyUngriddedData(md *Metadata, values *LazyData, coords []LazyCoord, log logrus.FieldLogger) *UngriddedData {
	if md == nil {
		md = &Metadata{}
	}
	return &UngriddedData{md: md, lazy: values, lazyCoords: coords, Log: log}
}

func (u *UngriddedData) log() logrus.FieldLogger {
	if u.Log == nil {
		return logrus.StandardLogger()
	}
	return u.Log
}

// Load reads lazily loaded values and coordinates and drops points whose
// coordinates are masked. Later calls do nothing.
func (u *UngriddedData) Load() error {
	if u.data != nil {
		return nil
	}
	if u.loadErr != nil {
		return u.loadErr
	}
	u.loadErr = u.load()
	return u.loadErr
}

func (u *UngriddedData) load() error {
	if u.lazy == nil {
		return fmt.Errorf("data: %s has neither values nor loaders: %w", u.Name(), ErrInvalidDataType)
	}
	d, err := u.lazy.Data()
	if err != nil {
		return fmt.Errorf("data: loading %s: %w", u.Name(), err)
	}
	var coords CoordList
	for _, lc := range u.lazyCoords {
		c, err := lc.load()
		if err != nil {
			return err
		}
		if err := coords.Add(c); err != nil {
			return err
		}
	}
	u.data, u.coords = d, coords
	return u.finish()
}

// finish checks shapes, drops points with masked coordinates and updates
// the shape and range metadata.
func (u *UngriddedData) finish() error {
	for _, c := range u.coords {
		if c.Len() != u.data.Size() {
			return fmt.Errorf("data: coordinate %s has %d points but %s has %d values: %w",
				c.Identifier(), c.Len(), u.Name(), u.data.Size(), ErrShape)
		}
	}
	var keep []int
	dropped := 0
	for i := 0; i < u.data.Size(); i++ {
		masked := false
		for _, c := range u.coords {
			if c.Points.IsMasked(i) {
				masked = true
				break
			}
		}
		if masked {
			dropped++
		} else {
			keep = append(keep, i)
		}
	}
	if dropped > 0 {
		u.log().WithFields(logrus.Fields{
			"variable": u.Name(),
			"dropped":  dropped,
		}).Info("dropping points with masked coordinates")
		u.data = u.data.Take(keep)
		for i, c := range u.coords {
			u.coords[i] = c.take(keep)
		}
	}
	u.md.Shape = append([]int{}, u.data.Shape...)
	u.md.UpdateRange(u.data)
	return nil
}

// Name returns the identifier of the variable.
func (u *UngriddedData) Name() string { return u.md.Identifier() }

// Metadata returns the metadata of the variable.
func (u *UngriddedData) Metadata() *Metadata { return u.md }

// IsGridded returns false.
func (u *UngriddedData) IsGridded() bool { return false }

// Data returns the values.
func (u *UngriddedData) Data() (*MaskedArray, error) {
	if err := u.Load(); err != nil {
		return nil, err
	}
	return u.data, nil
}

// Coords returns the coordinates.
func (u *UngriddedData) Coords() CoordList {
	if u.Load() != nil {
		return nil
	}
	return u.coords
}

// Coord returns the single coordinate matching cr.
func (u *UngriddedData) Coord(cr Criteria) (*Coord, error) {
	if err := u.Load(); err != nil {
		return nil, err
	}
	return u.coords.Get(cr)
}

// Shape returns the shape of the values.
func (u *UngriddedData) Shape() []int {
	if u.Load() != nil {
		return nil
	}
	return u.data.Shape
}

// Size returns the number of points.
func (u *UngriddedData) Size() int {
	if u.Load() != nil {
		return 0
	}
	return u.data.Size()
}

// Count returns the number of non-masked values.
func (u *UngriddedData) Count() int {
	if u.Load() != nil {
		return 0
	}
	return u.data.Count()
}

// View returns the points as columns.
func (u *UngriddedData) View() (*PointView, error) {
	if err := u.Load(); err != nil {
		return nil, err
	}
	v := NewPointView(u.data.Size())
	for _, a := range Axes {
		if c := u.coords.Axis(a); c != nil {
			v.SetAxis(a, c.Points.Elements)
		}
	}
	v.AddVariable(u.data.Elements, u.data.Mask)
	return v, nil
}

// HyperPoints returns every point.
func (u *UngriddedData) HyperPoints() ([]HyperPoint, error) {
	v, err := u.View()
	if err != nil {
		return nil, err
	}
	return v.Points(), nil
}

// NonMaskedPoints returns the points whose value is valid.
func (u *UngriddedData) NonMaskedPoints() ([]HyperPoint, error) {
	return selectPoints(u, true)
}

// MaskedPoints returns the points whose value is masked.
func (u *UngriddedData) MaskedPoints() ([]HyperPoint, error) {
	return selectPoints(u, false)
}

func selectPoints(d CommonData, valid bool) ([]HyperPoint, error) {
	v, err := d.View()
	if err != nil {
		return nil, err
	}
	idx := v.Masked(0)
	if valid {
		idx = v.NonMasked(0)
	}
	o := make([]HyperPoint, len(idx))
	for k, i := range idx {
		o[k] = v.Point(i)
	}
	return o, nil
}

// Copy returns a deep copy of u with all values loaded.
func (u *UngriddedData) Copy() (CommonData, error) {
	if err := u.Load(); err != nil {
		return nil, err
	}
	return &UngriddedData{
		md:     u.md.Copy(),
		data:   u.data.Copy(),
		coords: u.coords.Copy(),
		Log:    u.Log,
	}, nil
}

// AddHistory appends a timestamped entry to the history of u.
func (u *UngriddedData) AddHistory(entry string) { u.md.AddHistory(entry) }

// Flatten returns u with one-dimensional values and coordinates.
func (u *UngriddedData) Flatten() (*UngriddedData, error) {
	if err := u.Load(); err != nil {
		return nil, err
	}
	if len(u.data.Shape) == 1 {
		return u, nil
	}
	n := u.data.Size()
	o := &UngriddedData{md: u.md.Copy(), data: u.data.Reshape(n), Log: u.Log}
	for _, c := range u.coords {
		cc := *c
		cc.Points = c.Points.Reshape(n)
		cc.Metadata = c.Metadata.Copy()
		cc.Shape = []int{n}
		o.coords = append(o.coords, &cc)
	}
	o.md.Shape = []int{n}
	return o, nil
}
