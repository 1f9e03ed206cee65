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

// Package reader reads datasets from files into CommonData.
//
// NetCDF reads classic and NetCDF-4 files following the CF conventions. A
// variable whose dimensions all carry one-dimensional coordinate variables,
// latitude or longitude among them, is read as gridded data; any other
// variable is read as a cloud of points, with the coordinates named by its
// "coordinates" attribute broadcast to its shape. Values are read lazily,
// one loader per file, and several files are joined along their first
// dimension.
package reader
