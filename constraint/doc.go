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

// Package constraint selects, for each sample position, the source points
// that may contribute to its value.
//
// A Separation bounds the distance between a sample and a source point
// along up to four axes: great-circle distance, altitude difference,
// pressure ratio and time difference. Every bound is strict, and the
// bounds combine by logical AND. SepConstraint applies a Separation to an
// ungridded source, using a kd-tree to prefilter on great-circle distance
// when a horizontal bound is given. CellConstraint bins an ungridded source
// into the cells of a gridded sample.
package constraint
