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
	"fmt"
	"strings"

	"github.com/ctessum/unit"
)

// TidyUnits normalises sloppy unit strings: "deg" becomes "degrees", "#"
// becomes "1", and in since-style time units a "Since:" or "since:" is
// reduced to "since" and commas are removed.
func TidyUnits(u string) string {
	u = strings.TrimSpace(u)
	switch u {
	case "deg", "Deg", "DEG":
		return "degrees"
	case "#":
		return "1"
	}
	if strings.Contains(strings.ToLower(u), "since") {
		for _, s := range []string{"Since:", "since:", "SINCE:", "Since", "SINCE"} {
			u = strings.Replace(u, s, "since", -1)
		}
		u = strings.Replace(u, ",", "", -1)
		u = strings.Join(strings.Fields(u), " ")
	}
	return u
}

var (
	pascal = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -1, unit.TimeDim: -2}
	metre  = unit.Dimensions{unit.LengthDim: 1}
	second = unit.Dimensions{unit.TimeDim: 1}
	kelvin = unit.Dimensions{unit.TemperatureDim: 1}
	degree = unit.Dimensions{unit.AngleDim: 1}
)

// knownUnits maps recognised unit strings to their size in SI units.
var knownUnits = map[string]*unit.Unit{
	"m":             unit.New(1, metre),
	"metre":         unit.New(1, metre),
	"metres":        unit.New(1, metre),
	"meter":         unit.New(1, metre),
	"meters":        unit.New(1, metre),
	"km":            unit.New(1000, metre),
	"kilometres":    unit.New(1000, metre),
	"kilometers":    unit.New(1000, metre),
	"Pa":            unit.New(1, pascal),
	"hPa":           unit.New(100, pascal),
	"mbar":          unit.New(100, pascal),
	"mb":            unit.New(100, pascal),
	"millibar":      unit.New(100, pascal),
	"kPa":           unit.New(1000, pascal),
	"bar":           unit.New(1e5, pascal),
	"K":             unit.New(1, kelvin),
	"s":             unit.New(1, second),
	"seconds":       unit.New(1, second),
	"minutes":       unit.New(60, second),
	"hours":         unit.New(3600, second),
	"days":          unit.New(secondsPerDay, second),
	"degrees":       unit.New(1, degree),
	"degrees_north": unit.New(1, degree),
	"degrees_east":  unit.New(1, degree),
	"degree_north":  unit.New(1, degree),
	"degree_east":   unit.New(1, degree),
	"degrees_N":     unit.New(1, degree),
	"degrees_E":     unit.New(1, degree),
	"1":             unit.New(1, unit.Dimless),
	"":              unit.New(1, unit.Dimless),
}

// ParseUnits returns the size of one of the given units in SI units. The
// second return value is false for units that are not recognised. Time
// units of the form "<unit> since <ref>" are recognised as durations.
func ParseUnits(u string) (*unit.Unit, bool) {
	u = TidyUnits(u)
	if v, ok := knownUnits[u]; ok {
		return v.Clone(), true
	}
	if s, _, err := ParseTimeUnits(u); err == nil {
		return unit.New(s, second), true
	}
	return nil, false
}

// UnitsCompatible reports whether both units are recognised and describe
// the same physical dimensions.
func UnitsCompatible(a, b string) bool {
	ua, ok := ParseUnits(a)
	if !ok {
		return false
	}
	ub, ok := ParseUnits(b)
	if !ok {
		return false
	}
	return unit.DimensionsMatch(ua, ub)
}

// ConversionFactor returns the factor that converts values in units from
// to values in units to.
func ConversionFactor(from, to string) (float64, error) {
	uf, ok := ParseUnits(from)
	if !ok {
		return 0, fmt.Errorf("data: unrecognised units %q: %w", from, ErrUnits)
	}
	ut, ok := ParseUnits(to)
	if !ok {
		return 0, fmt.Errorf("data: unrecognised units %q: %w", to, ErrUnits)
	}
	if err := uf.Check(ut.Dimensions()); err != nil {
		return 0, fmt.Errorf("data: converting %q to %q: %v: %w", from, to, err, ErrUnits)
	}
	return uf.Value() / ut.Value(), nil
}

// IsPressureUnits reports whether u is a recognised pressure unit.
func IsPressureUnits(u string) bool {
	v, ok := ParseUnits(u)
	return ok && v.Dimensions().Matches(pascal)
}

// IsLengthUnits reports whether u is a recognised length unit.
func IsLengthUnits(u string) bool {
	v, ok := ParseUnits(u)
	return ok && v.Dimensions().Matches(metre)
}
