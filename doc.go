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

// Package colocate collocates Earth-observation datasets: it produces the
// values of one or more source variables at the sampling geometry of
// another dataset.
//
// Samples and sources may each be gridded or ungridded, and one of four
// drivers handles each combination:
//
//	sample      source      driver              index
//	ungridded   ungridded   UngriddedUngridded  haversine kd-tree
//	ungridded   gridded     UngriddedGridded    none (nearest or linear interpolation)
//	gridded     ungridded   GriddedUngridded    grid-cell bin index
//	gridded     gridded     GriddedGridded      none, or the bin index for box kernels
//
// Colocate chooses the driver and the kernel from Options, and Aggregate
// reduces a dataset onto a regular grid. Single-point kernel failures leave
// the output masked and are reported in the log at the end of a run; every
// other error is returned.
package colocate
