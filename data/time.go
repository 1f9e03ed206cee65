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
	"math"
	"strconv"
	"strings"
	"time"
)

// StandardTimeUnits are the units of every time coordinate inside the
// toolkit.
const StandardTimeUnits = "days since 1600-01-01 00:00:00"

// julianDayOfEpoch is the Julian date of 1600-01-01 00:00:00.
const julianDayOfEpoch = 2305447.5

const secondsPerDay = 86400.

// StandardEpoch is the zero of standard time.
var StandardEpoch = time.Date(1600, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeToStandard converts t to days since the standard epoch.
// time.Duration cannot span the centuries involved, so the difference is
// taken in Unix seconds.
func TimeToStandard(t time.Time) float64 {
	s := t.Unix() - StandardEpoch.Unix()
	return (float64(s) + float64(t.Nanosecond())/1e9) / secondsPerDay
}

// StandardToTime converts days since the standard epoch to a UTC time,
// rounded to the nearest microsecond.
func StandardToTime(days float64) time.Time {
	us := math.Round(days * secondsPerDay * 1e6)
	sec := math.Floor(us / 1e6)
	frac := us - sec*1e6
	return time.Unix(StandardEpoch.Unix()+int64(sec), int64(frac)*1000).UTC()
}

// SecondsSinceToStandard converts seconds since ref to standard time.
func SecondsSinceToStandard(ref time.Time, seconds float64) float64 {
	return TimeToStandard(ref) + seconds/secondsPerDay
}

// JulianToStandard converts a Julian date to standard time.
func JulianToStandard(jd float64) float64 {
	return jd - julianDayOfEpoch
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2 15:4:5",
	"2006-1-2",
	"2006-01",
	"2006",
}

// ParseTime parses a date or date-time in one of the ISO-like layouts
// found in files and on command lines. Times without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, " UTC")
	s = strings.TrimSuffix(s, "UTC")
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), nil
		}
	}
	if strings.HasSuffix(s, "Z") {
		return ParseTime(strings.TrimSuffix(s, "Z"))
	}
	return time.Time{}, fmt.Errorf("data: unable to parse time %q", s)
}

// timeUnitSeconds gives the length of each recognised time unit.
var timeUnitSeconds = map[string]float64{
	"s": 1, "sec": 1, "secs": 1, "second": 1, "seconds": 1,
	"min": 60, "mins": 60, "minute": 60, "minutes": 60,
	"h": 3600, "hr": 3600, "hrs": 3600, "hour": 3600, "hours": 3600,
	"d": secondsPerDay, "day": secondsPerDay, "days": secondsPerDay,
}

// ParseTimeUnits splits CF time units of the form "<unit> since <ref>"
// into the length of one unit in seconds and the reference time.
func ParseTimeUnits(units string) (unitSeconds float64, ref time.Time, err error) {
	u := TidyUnits(units)
	parts := strings.SplitN(u, " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("data: %q are not time units: %w", units, ErrUnits)
	}
	unitSeconds, ok := timeUnitSeconds[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("data: unknown time unit in %q: %w", units, ErrUnits)
	}
	ref, err = ParseTime(parts[1])
	if err != nil {
		return 0, time.Time{}, err
	}
	return unitSeconds, ref, nil
}

// IsTimeUnits reports whether units can be converted to standard time.
func IsTimeUnits(units string) bool {
	if isJulian(units) {
		return true
	}
	_, _, err := ParseTimeUnits(units)
	return err == nil
}

func isJulian(units string) bool {
	switch strings.ToLower(strings.TrimSpace(units)) {
	case "julian", "julian date", "julian day", "jd":
		return true
	}
	return false
}

// ConvertToStandardTime converts vals, in the given time units, to
// standard time in place. Both "<unit> since <ref>" and Julian dates are
// recognised.
func ConvertToStandardTime(vals []float64, units string) error {
	if isJulian(units) {
		for i, v := range vals {
			vals[i] = JulianToStandard(v)
		}
		return nil
	}
	unitSeconds, ref, err := ParseTimeUnits(units)
	if err != nil {
		return err
	}
	offset := TimeToStandard(ref)
	for i, v := range vals {
		vals[i] = offset + v*unitSeconds/secondsPerDay
	}
	return nil
}

// FormatStandardTime formats a standard time for humans.
func FormatStandardTime(days float64) string {
	if math.IsNaN(days) {
		return "NaN"
	}
	return StandardToTime(days).Format("2006-01-02T15:04:05")
}

// parseFloatOrTime parses s as a number, or else as a date which is
// returned as standard time.
func parseFloatOrTime(s string) (float64, error) {
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return v, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return 0, err
	}
	return TimeToStandard(t), nil
}
