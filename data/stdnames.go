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
	_ "embed"
	"strings"
)

//go:embed standard_names.txt
var standardNameList string

var standardNames = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, n := range strings.Fields(standardNameList) {
		m[n] = struct{}{}
	}
	return m
}()

// IsStandardName reports whether name is in the standard name vocabulary.
func IsStandardName(name string) bool {
	_, ok := standardNames[name]
	return ok
}

// axisStandardNames are the standard names that identify a coordinate
// axis when no explicit axis tag is given.
var axisStandardNames = map[string]Axis{
	"latitude":                    Lat,
	"longitude":                   Lon,
	"altitude":                    Alt,
	"height":                      Alt,
	"height_above_mean_sea_level": Alt,
	"geopotential_height":         Alt,
	"air_pressure":                Pres,
	"time":                        Time,
}

// AxisOfStandardName returns the axis a standard name describes.
func AxisOfStandardName(name string) (Axis, bool) {
	a, ok := axisStandardNames[name]
	return a, ok
}
