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

// Loader reads the raw values one file contributes to a variable. Loaders
// must be pure and idempotent.
type Loader func() (*MaskedArray, error)

// LazyData describes values that are read on first use. The arrays
// returned by the Loaders are concatenated along their first axis and then
// unpacked following the conventions of Family.
type LazyData struct {
	Loaders []Loader
	Family  Family
	Scaling Scaling

	data *MaskedArray
}

// NewLazyData returns lazy data read by loaders.
func NewLazyData(family Family, s Scaling, loaders ...Loader) (*LazyData, error) {
	if _, ok := families[family]; !ok {
		return nil, fmt.Errorf("data: scaling family %q: %w", family, ErrInvalidDataType)
	}
	return &LazyData{Loaders: loaders, Family: family, Scaling: s}, nil
}

// Loaded reports whether the values have been read.
func (l *LazyData) Loaded() bool {
	return l.data != nil
}

// Data reads, concatenates and unpacks the values. Later calls return the
// same array.
func (l *LazyData) Data() (*MaskedArray, error) {
	if l.data != nil {
		return l.data, nil
	}
	if len(l.Loaders) == 0 {
		return nil, fmt.Errorf("data: no loaders: %w", ErrInvalidDataType)
	}
	parts := make([]*MaskedArray, len(l.Loaders))
	for i, load := range l.Loaders {
		a, err := load()
		if err != nil {
			return nil, fmt.Errorf("data: loading part %d: %w", i, err)
		}
		// Loaders may hand back cached arrays; unpacking is in place.
		parts[i] = a.Copy()
	}
	d, err := Concatenate(parts...)
	if err != nil {
		return nil, err
	}
	if err := ApplyScaling(l.Family, d, l.Scaling); err != nil {
		return nil, err
	}
	l.data = d
	return d, nil
}

// LazyCoord is a coordinate whose points are read on first use.
type LazyCoord struct {
	*Metadata
	Axis Axis
	Data *LazyData
}

func (lc LazyCoord) load() (*Coord, error) {
	p, err := lc.Data.Data()
	if err != nil {
		return nil, fmt.Errorf("data: loading coordinate %s: %w", lc.Identifier(), err)
	}
	c := NewCoord(p, lc.Metadata, lc.Axis)
	if c.Axis == Time {
		if err := c.ToStandardTime(); err != nil {
			return nil, err
		}
	}
	return c, nil
}
