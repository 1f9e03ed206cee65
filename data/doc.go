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

// Package data holds the uniform in-memory model that every dataset is read
// into: coordinates, metadata, masked value arrays and the two CommonData
// variants, UngriddedData (a cloud of points) and GriddedData (values over a
// rectilinear product of dimension coordinates).
//
// Coordinates are described along five optional axes: latitude, longitude,
// altitude, air pressure and time. Times are always stored as standard time,
// a floating number of days since 1600-01-01 00:00:00 on the proleptic
// Gregorian calendar.
//
// Readers hand over data lazily through Loaders. Values are materialised on
// the first call to Data, which concatenates the per-file arrays, masks fill
// values, applies the scaling convention of the source family and, for
// ungridded data, drops points whose coordinates are masked.
package data
