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

package constraint

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spatialmodel/colocate/data"
	"github.com/spatialmodel/colocate/index"
)

// Separation holds the largest allowed separation along each axis. A zero
// field places no bound on that axis.
type Separation struct {
	// H is the great-circle distance [m].
	H float64

	// A is the altitude difference [m].
	A float64

	// P is the largest allowed ratio between the larger and the smaller
	// of two pressures. It is at least 1.
	P float64

	// T is the time difference [days].
	T float64
}

var quantity = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)\s*([A-Za-z_]*)$`)

// parseLength parses a non-negative length, in defaultUnits if s carries
// no units, and returns it in metres.
func parseLength(name, s, defaultUnits string) (float64, error) {
	m := quantity.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("constraint: %s %q is not a length: %w", name, s, data.ErrInvalidOption)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("constraint: %s %q: %v: %w", name, s, err, data.ErrInvalidOption)
	}
	u := m[2]
	if u == "" {
		u = defaultUnits
	}
	if !data.IsLengthUnits(u) {
		return 0, fmt.Errorf("constraint: %s %q: units %q are not a length: %w", name, s, u, data.ErrInvalidOption)
	}
	f, err := data.ConversionFactor(u, "m")
	if err != nil {
		return 0, fmt.Errorf("constraint: %s %q: %v: %w", name, s, err, data.ErrInvalidOption)
	}
	if v < 0 {
		return 0, fmt.Errorf("constraint: %s %q is negative: %w", name, s, data.ErrInvalidOption)
	}
	return v * f, nil
}

// ParseHSep parses a horizontal separation such as "400km" or "10000m".
// A bare number is in kilometres. The result is in metres.
func ParseHSep(s string) (float64, error) { return parseLength("h_sep", s, "km") }

// ParseASep parses an altitude separation such as "15m" or "1.5km". A bare
// number is in metres. The result is in metres.
func ParseASep(s string) (float64, error) { return parseLength("a_sep", s, "m") }

// ParsePSep parses a pressure ratio separation, which must be at least 1.
func ParsePSep(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("constraint: p_sep %q: %v: %w", s, err, data.ErrInvalidOption)
	}
	if v < 1 {
		return 0, fmt.Errorf("constraint: p_sep %g is a ratio and must be at least 1: %w", v, data.ErrInvalidOption)
	}
	return v, nil
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+(?:\.\d+)?)Y)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)W)?(?:(\d+(?:\.\d+)?)D)?` +
	`(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// Lengths of the ISO 8601 duration designators in days. Years and months
// have their mean Gregorian lengths.
var isoDesignatorDays = [...]float64{365.2425, 365.2425 / 12, 7, 1, 1. / 24, 1. / 1440, 1. / 86400}

// ParseTSep parses a time separation given as an ISO 8601 duration such as
// "P1DT1M" or "PT6H". A bare number is in days. The result is in days.
func ParseTSep(s string) (float64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("constraint: t_sep %q is negative: %w", s, data.ErrInvalidOption)
		}
		return v, nil
	}
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || strings.HasSuffix(s, "T") {
		return 0, fmt.Errorf("constraint: t_sep %q is not an ISO 8601 duration: %w", s, data.ErrInvalidOption)
	}
	var days float64
	for i, f := range m[1:] {
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, fmt.Errorf("constraint: t_sep %q: %v: %w", s, err, data.ErrInvalidOption)
		}
		days += v * isoDesignatorDays[i]
	}
	return days, nil
}

// ParseSeparation parses the four separations. Empty strings place no
// bound on their axis.
func ParseSeparation(h, a, p, t string) (Separation, error) {
	var s Separation
	var err error
	if h != "" {
		if s.H, err = ParseHSep(h); err != nil {
			return s, err
		}
	}
	if a != "" {
		if s.A, err = ParseASep(a); err != nil {
			return s, err
		}
	}
	if p != "" {
		if s.P, err = ParsePSep(p); err != nil {
			return s, err
		}
	}
	if t != "" {
		if s.T, err = ParseTSep(t); err != nil {
			return s, err
		}
	}
	return s, nil
}

// IsZero reports whether s places no bound on any axis.
func (s Separation) IsZero() bool { return s == Separation{} }

// Axes returns the axes, other than latitude and longitude, that sample
// and source points must both carry for s to be applied.
func (s Separation) Axes() []data.Axis {
	var o []data.Axis
	if s.A > 0 {
		o = append(o, data.Alt)
	}
	if s.P > 0 {
		o = append(o, data.Pres)
	}
	if s.T > 0 {
		o = append(o, data.Time)
	}
	return o
}

// Check returns an error wrapping data.ErrDimensionMismatch if the sample
// or the source lacks an axis that s bounds.
func (s Separation) Check(sample, source *data.PointView) error {
	axes := s.Axes()
	if s.H > 0 {
		axes = append(axes, data.Lat, data.Lon)
	}
	for _, a := range axes {
		if !sample.Has(a) {
			return fmt.Errorf("constraint: the sample has no %s coordinate to apply %s: %w", a, s, data.ErrDimensionMismatch)
		}
		if !source.Has(a) {
			return fmt.Errorf("constraint: the source has no %s coordinate to apply %s: %w", a, s, data.ErrDimensionMismatch)
		}
	}
	return nil
}

// Predicate reports whether source point j lies close enough to sample
// point i.
type Predicate func(sample *data.PointView, i int, source *data.PointView, j int) bool

// HSep returns the great-circle distance predicate.
func HSep(h float64) Predicate {
	return func(sample *data.PointView, i int, source *data.PointView, j int) bool {
		return index.Haversine(sample.Coord(data.Lat, i), sample.Coord(data.Lon, i),
			source.Coord(data.Lat, j), source.Coord(data.Lon, j)) < h
	}
}

// ASep returns the altitude difference predicate.
func ASep(a float64) Predicate {
	return func(sample *data.PointView, i int, source *data.PointView, j int) bool {
		return math.Abs(sample.Coord(data.Alt, i)-source.Coord(data.Alt, j)) < a
	}
}

// PSep returns the pressure ratio predicate.
func PSep(p float64) Predicate {
	return func(sample *data.PointView, i int, source *data.PointView, j int) bool {
		return PressureRatio(sample.Coord(data.Pres, i), source.Coord(data.Pres, j)) < p
	}
}

// TSep returns the time difference predicate.
func TSep(t float64) Predicate {
	return func(sample *data.PointView, i int, source *data.PointView, j int) bool {
		return math.Abs(sample.Coord(data.Time, i)-source.Coord(data.Time, j)) < t
	}
}

// PressureRatio returns the ratio of the larger to the smaller of two
// pressures. It is at least 1.
func PressureRatio(a, b float64) float64 {
	return math.Max(a/b, b/a)
}

// Predicates returns one predicate for each axis s bounds.
func (s Separation) Predicates() []Predicate {
	var o []Predicate
	if s.H > 0 {
		o = append(o, HSep(s.H))
	}
	if s.A > 0 {
		o = append(o, ASep(s.A))
	}
	if s.P > 0 {
		o = append(o, PSep(s.P))
	}
	if s.T > 0 {
		o = append(o, TSep(s.T))
	}
	return o
}

// Keep reports whether source point j satisfies every bound of s with
// respect to sample point i.
func (s Separation) Keep(sample *data.PointView, i int, source *data.PointView, j int) bool {
	for _, p := range s.Predicates() {
		if !p(sample, i, source, j) {
			return false
		}
	}
	return true
}

func (s Separation) String() string {
	var o []string
	if s.H > 0 {
		o = append(o, fmt.Sprintf("h_sep=%gm", s.H))
	}
	if s.A > 0 {
		o = append(o, fmt.Sprintf("a_sep=%gm", s.A))
	}
	if s.P > 0 {
		o = append(o, fmt.Sprintf("p_sep=%g", s.P))
	}
	if s.T > 0 {
		o = append(o, fmt.Sprintf("t_sep=%gd", s.T))
	}
	if len(o) == 0 {
		return "no separation"
	}
	return strings.Join(o, ", ")
}
