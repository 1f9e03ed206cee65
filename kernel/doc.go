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

// Package kernel reduces the candidate source points of a sample position
// to one or more output values.
//
// Reduction kernels (mean, moments, stddev, min, max, count) only look at
// the candidate values. Nearest-neighbour kernels pick the candidate with
// the smallest separation from the sample along one axis. The nn_gridded
// and linear kernels interpolate a gridded source at the sample position
// through an Interpolator and take no candidates at all.
package kernel
