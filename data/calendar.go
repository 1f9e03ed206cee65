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

// StandardCalendar is the CF calendar of standard time.
const StandardCalendar = "standard"

// calendar is a model calendar with a fixed number of days in each month.
type calendar struct {
	name   string
	months [12]int
}

func (c *calendar) yearLength() int {
	n := 0
	for _, m := range c.months {
		n += m
	}
	return n
}

// dayOfYear returns the number of days before month m (1-based).
func (c *calendar) dayOfYear(m int) int {
	n := 0
	for _, l := range c.months[:m-1] {
		n += l
	}
	return n
}

var (
	noLeap  = &calendar{"noleap", [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}}
	allLeap = &calendar{"all_leap", [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}}
	day360  = &calendar{"360_day", [12]int{30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30}}
)

// lookupCalendar returns the model calendar called name, or nil for the
// Gregorian calendars.
func lookupCalendar(name string) (*calendar, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard", "gregorian", "proleptic_gregorian":
		return nil, nil
	case "noleap", "365_day":
		return noLeap, nil
	case "all_leap", "366_day":
		return allLeap, nil
	case "360_day":
		return day360, nil
	}
	return nil, fmt.Errorf("data: unsupported calendar %q: %w", name, ErrUnits)
}

// ConvertCalendarToStandardTime converts vals, in the given time units on
// the named CF calendar, to standard time in place.
//
// Dates on the noleap, all_leap and 360_day calendars are mapped month by
// month: the start of every calendar month is the start of the same
// Gregorian month, and the time within the month is stretched to the
// length of the Gregorian month. Dates that exist on both calendars are
// kept whenever the two months have the same length, and the conversion
// is strictly increasing.
func ConvertCalendarToStandardTime(vals []float64, units, calendarName string) error {
	cal, err := lookupCalendar(calendarName)
	if err != nil {
		return err
	}
	if cal == nil {
		return ConvertToStandardTime(vals, units)
	}
	if isJulian(units) {
		return fmt.Errorf("data: Julian dates on the %s calendar: %w", cal.name, ErrUnits)
	}
	u := TidyUnits(units)
	parts := strings.SplitN(u, " since ", 2)
	if len(parts) != 2 {
		return fmt.Errorf("data: %q are not time units: %w", units, ErrUnits)
	}
	unitSeconds, ok := timeUnitSeconds[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		return fmt.Errorf("data: unknown time unit in %q: %w", units, ErrUnits)
	}
	y, m, d, sec, err := parseCalendarDate(parts[1])
	if err != nil {
		return err
	}
	if m < 1 || m > 12 || d < 1 || d > cal.months[m-1] {
		return fmt.Errorf("data: %q is not a date on the %s calendar: %w", parts[1], cal.name, ErrUnits)
	}
	ref := float64(y*cal.yearLength()+cal.dayOfYear(m)+d-1) + sec/secondsPerDay
	for i, v := range vals {
		vals[i] = cal.toStandard(ref + v*unitSeconds/secondsPerDay)
	}
	return nil
}

// toStandard converts days since year zero of the calendar to standard
// time.
func (c *calendar) toStandard(days float64) float64 {
	if math.IsNaN(days) || math.IsInf(days, 0) {
		return days
	}
	n := float64(c.yearLength())
	y := math.Floor(days / n)
	rem := days - y*n
	m := 1
	for ; m < 12 && rem >= float64(c.months[m-1]); m++ {
		rem -= float64(c.months[m-1])
	}
	start := time.Date(int(y), time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	gregorian := end.Sub(start).Hours() / 24
	return TimeToStandard(start) + rem/float64(c.months[m-1])*gregorian
}

// parseCalendarDate parses the reference date of time units without
// checking it against the Gregorian calendar, so that dates such as
// 2000-02-30 on the 360_day calendar are accepted.
func parseCalendarDate(s string) (y, m, d int, sec float64, err error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "UTC")
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == 'T' })
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0, 0, 0, fmt.Errorf("data: unable to parse date %q: %w", s, ErrUnits)
	}
	date := strings.Split(fields[0], "-")
	if len(date) > 3 {
		return 0, 0, 0, 0, fmt.Errorf("data: unable to parse date %q: %w", s, ErrUnits)
	}
	ymd := []int{0, 1, 1}
	for i, p := range date {
		if ymd[i], err = strconv.Atoi(p); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("data: unable to parse date %q: %w", s, ErrUnits)
		}
	}
	if len(fields) == 2 {
		clock := strings.Split(fields[1], ":")
		if len(clock) > 3 {
			return 0, 0, 0, 0, fmt.Errorf("data: unable to parse time of day %q: %w", s, ErrUnits)
		}
		scale := 3600.
		for _, p := range clock {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return 0, 0, 0, 0, fmt.Errorf("data: unable to parse time of day %q: %w", s, ErrUnits)
			}
			sec += v * scale
			scale /= 60
		}
	}
	return ymd[0], ymd[1], ymd[2], sec, nil
}
