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

// CommonData is a single variable with its coordinates, either gridded
// or ungridded.
type CommonData interface {
	// Name returns the identifier of the variable.
	Name() string

	// Metadata returns the metadata of the variable. It is shared, not
	// copied.
	Metadata() *Metadata

	IsGridded() bool

	// Load materialises lazily read values. It is idempotent.
	Load() error

	// Data returns the values, loading them if necessary.
	Data() (*MaskedArray, error)

	// Coords returns every coordinate. Lazily read ungridded coordinates
	// are loaded first; if loading fails the list is empty and Load
	// returns the error.
	Coords() CoordList

	// Coord returns the single coordinate matching cr.
	Coord(cr Criteria) (*Coord, error)

	Shape() []int
	Size() int

	// Count returns the number of non-masked values.
	Count() int

	// View returns the values and the five-axis coordinates of every
	// point as columns.
	View() (*PointView, error)

	HyperPoints() ([]HyperPoint, error)
	NonMaskedPoints() ([]HyperPoint, error)
	MaskedPoints() ([]HyperPoint, error)

	// Copy returns a deep copy with all values loaded.
	Copy() (CommonData, error)

	// Subset returns the points (ungridded) or slabs (gridded) whose
	// coordinates lie within every limit, inclusive. If nothing lies
	// within the limits, Subset returns nil and no error.
	Subset(limits ...Limit) (CommonData, error)

	// SetLongitudeRange places every longitude in [start, start+360).
	SetLongitudeRange(start float64) error

	AddHistory(entry string)
}

// CommonDataList is an ordered list of variables.
type CommonDataList []CommonData

// Names returns the names of the variables.
func (l CommonDataList) Names() []string {
	o := make([]string, len(l))
	for i, d := range l {
		o[i] = d.Name()
	}
	return o
}

// Get returns the variable with the given name, or an error wrapping
// ErrInvalidVariable.
func (l CommonDataList) Get(name string) (CommonData, error) {
	for _, d := range l {
		if d.Name() == name || d.Metadata().VarName == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("data: %q: %w", name, ErrInvalidVariable)
}

// IsGridded reports whether every variable is gridded.
func (l CommonDataList) IsGridded() bool {
	for _, d := range l {
		if !d.IsGridded() {
			return false
		}
	}
	return len(l) > 0
}

// Coords returns the coordinates of the first variable.
func (l CommonDataList) Coords() CoordList {
	if len(l) == 0 {
		return nil
	}
	return l[0].Coords()
}

// View returns a single view holding a value column for every variable.
// All variables must have the same number of points.
func (l CommonDataList) View() (*PointView, error) {
	if len(l) == 0 {
		return nil, fmt.Errorf("data: empty list: %w", ErrInvalidVariable)
	}
	v, err := l[0].View()
	if err != nil {
		return nil, err
	}
	for _, d := range l[1:] {
		dv, err := d.View()
		if err != nil {
			return nil, err
		}
		if dv.Len() != v.Len() {
			return nil, fmt.Errorf("data: %s has %d points, %s has %d: %w",
				l[0].Name(), v.Len(), d.Name(), dv.Len(), ErrShape)
		}
		v.AddVariable(dv.Values(0), dv.mask[0])
	}
	return v, nil
}

// Load loads every variable.
func (l CommonDataList) Load() error {
	for _, d := range l {
		if err := d.Load(); err != nil {
			return err
		}
	}
	return nil
}

// SetLongitudeRange rotates the longitudes of every variable.
func (l CommonDataList) SetLongitudeRange(start float64) error {
	for _, d := range l {
		if err := d.SetLongitudeRange(start); err != nil {
			return err
		}
	}
	return nil
}

// Like returns a new variable with the geometry of sample holding values,
// which must have the shape of sample.
func Like(sample CommonData, values *MaskedArray, md *Metadata) (CommonData, error) {
	if !sameShape(values.Shape, sample.Shape()) {
		return nil, fmt.Errorf("data: values of shape %v do not fit sample of shape %v: %w",
			values.Shape, sample.Shape(), ErrShape)
	}
	switch s := sample.(type) {
	case *GriddedData:
		dims := make([]*Coord, len(s.dimCoords))
		for i, c := range s.dimCoords {
			dims[i] = c.Copy()
		}
		g, err := NewGriddedData(values, md, dims, s.aux.Copy()...)
		if err != nil {
			return nil, err
		}
		g.hybrid = s.hybrid
		return g, nil
	case *UngriddedData:
		return NewUngriddedData(values, md, s.Coords().Copy())
	default:
		return nil, fmt.Errorf("data: unsupported sample type %T: %w", sample, ErrInvalidDataType)
	}
}
