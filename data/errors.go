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

import "errors"

var (
	// ErrInvalidVariable is returned when a named variable is absent.
	ErrInvalidVariable = errors.New("data: invalid variable")

	// ErrCoordinateNotFound is returned when a coordinate lookup matches
	// zero or more than one coordinate.
	ErrCoordinateNotFound = errors.New("data: coordinate not found")

	// ErrDuplicateCoordinate is returned when adding a coordinate would
	// violate the uniqueness of a CoordList.
	ErrDuplicateCoordinate = errors.New("data: duplicate coordinate")

	// ErrInvalidDataType is returned for an unknown lazy-load handler or
	// scaling family.
	ErrInvalidDataType = errors.New("data: invalid data type")

	// ErrInvalidStandardName is returned for a standard name outside the
	// controlled vocabulary.
	ErrInvalidStandardName = errors.New("data: invalid standard name")

	// ErrShape is returned when array shapes are inconsistent.
	ErrShape = errors.New("data: inconsistent shape")

	// ErrUnits is returned for units that cannot be converted.
	ErrUnits = errors.New("data: incompatible units")

	// ErrInvalidOption is returned for an ill-formed separation or an
	// unsupported combination of collocation options.
	ErrInvalidOption = errors.New("invalid option")

	// ErrDimensionMismatch is returned when the sample has a dimension the
	// source cannot resolve.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
