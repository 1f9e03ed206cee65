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

import "github.com/spatialmodel/colocate/data"

// The error kinds raised while collocating. Errors returned by this
// package wrap one of these or one of the errors of package data, and can
// be tested with errors.Is.
var (
	// ErrInvalidOption is returned for ill-formed separations and
	// unsupported combinations of options.
	ErrInvalidOption = data.ErrInvalidOption

	// ErrDimensionMismatch is returned when the sample has a dimension the
	// source cannot resolve.
	ErrDimensionMismatch = data.ErrDimensionMismatch
)
