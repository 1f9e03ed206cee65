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
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestStandardTime(t *testing.T) {
	if v := JulianToStandard(2305447.5); v != 0 {
		t.Errorf("julian epoch: have %g, want 0", v)
	}
	if v := JulianToStandard(2440587.5); v != 135140 {
		t.Errorf("julian 1970: have %g, want 135140", v)
	}
	d := TimeToStandard(time.Date(1984, 8, 28, 0, 0, 0, 0, time.UTC))
	if d != 140493 {
		t.Errorf("1984-08-28: have %g, want 140493", d)
	}
	tt := StandardToTime(140493.25)
	if want := time.Date(1984, 8, 28, 6, 0, 0, 0, time.UTC); !tt.Equal(want) {
		t.Errorf("round trip: have %v, want %v", tt, want)
	}
	v := SecondsSinceToStandard(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 86400*1.5)
	if v != 135141.5 {
		t.Errorf("seconds since: have %g", v)
	}
}

func TestConvertToStandardTime(t *testing.T) {
	tests := []struct {
		units string
		in    float64
		want  float64
	}{
		{"seconds since 1970-01-01 00:00:00", 43200, 135140.5},
		{"hours Since: 1970-01-01, 00:00:00", 36, 135141.5},
		{"days since 1600-01-01 00:00:00", 12.25, 12.25},
		{"days since 2008-01-01", 1, 149020},
		{"Julian Date", 2305448.5, 1},
	}
	for _, test := range tests {
		v := []float64{test.in}
		if err := ConvertToStandardTime(v, test.units); err != nil {
			t.Fatalf("%s: %v", test.units, err)
		}
		if different(v[0], test.want, 1e-12) {
			t.Errorf("%s: have %g, want %g", test.units, v[0], test.want)
		}
	}
	err := ConvertToStandardTime([]float64{1}, "furlongs since 2000-01-01")
	assert.True(t, errors.Is(err, ErrUnits))
}

func TestCalendars(t *testing.T) {
	date := func(y int, m time.Month, d, h int) float64 {
		return TimeToStandard(time.Date(y, m, d, h, 0, 0, 0, time.UTC))
	}
	tests := []struct {
		calendar, units string
		in, want        float64
	}{
		{"", "days since 2000-01-01", 360, date(2000, 12, 26, 0)},
		{"standard", "days since 2000-01-01", 360, date(2000, 12, 26, 0)},
		{"gregorian", "days since 2000-01-01", 59, date(2000, 2, 29, 0)},
		{"proleptic_gregorian", "hours since 2000-01-01 06:00:00", 24, date(2000, 1, 2, 6)},
		{"360_day", "days since 2000-01-01", 360, date(2001, 1, 1, 0)},
		{"360_day", "days since 2000-01-01", 105, date(2000, 4, 16, 0)},
		{"360_day", "days since 2000-02-30", 1, date(2000, 3, 1, 0)},
		{"360_day", "hours since 2000-04-01 06:00:00", 240, date(2000, 4, 11, 6)},
		{"noleap", "days since 2000-01-01", 59, date(2000, 3, 1, 0)},
		{"noleap", "days since 2000-01-01", 365, date(2001, 1, 1, 0)},
		{"365_day", "days since 1999-12-31", 1, date(2000, 1, 1, 0)},
		{"all_leap", "days since 2001-01-01", 60, date(2001, 3, 1, 0)},
		{"366_day", "days since 2001-01-01", 366, date(2002, 1, 1, 0)},
	}
	for _, test := range tests {
		v := []float64{test.in}
		if err := ConvertCalendarToStandardTime(v, test.units, test.calendar); err != nil {
			t.Fatalf("%s %s: %v", test.calendar, test.units, err)
		}
		if different(v[0], test.want, 1e-12) {
			t.Errorf("%s %s + %g: have %s, want %s", test.calendar, test.units, test.in,
				FormatStandardTime(v[0]), FormatStandardTime(test.want))
		}
	}

	v := []float64{0, 29.5, 30, 59.99, 60}
	require.NoError(t, ConvertCalendarToStandardTime(v, "days since 2001-01-01", "360_day"))
	for i := 1; i < len(v); i++ {
		assert.Greater(t, v[i], v[i-1], "360_day times stay in order at %d", i)
	}

	for _, test := range []struct{ calendar, units string }{
		{"julian", "days since 2000-01-01"},
		{"none", "days since 2000-01-01"},
		{"noleap", "days since 2000-02-29"},
		{"360_day", "Julian Date"},
	} {
		err := ConvertCalendarToStandardTime([]float64{1}, test.units, test.calendar)
		assert.True(t, errors.Is(err, ErrUnits), "%s %s: %v", test.calendar, test.units, err)
	}

	c := NewCoord(FromSlice([]float64{360}), &Metadata{Name: "time", Units: "days since 2000-01-01"}, Time)
	c.SetMisc("calendar", "360_day")
	require.NoError(t, c.ToStandardTime())
	assert.Equal(t, "2001-01-01T00:00:00", FormatStandardTime(c.Points.Elements[0]))
	assert.Equal(t, StandardTimeUnits, c.Units)
	assert.Equal(t, StandardCalendar, c.Calendar())
}

func TestTidyUnits(t *testing.T) {
	tests := map[string]string{
		"deg":                              "degrees",
		"#":                                "1",
		"seconds since: 1993-01-01":        "seconds since 1993-01-01",
		"Seconds Since: 1993-01-01, 00:00": "Seconds since 1993-01-01 00:00",
		"m":                                "m",
	}
	for in, want := range tests {
		if have := TidyUnits(in); have != want {
			t.Errorf("%q: have %q, want %q", in, have, want)
		}
	}
}

func TestConversionFactor(t *testing.T) {
	f, err := ConversionFactor("km", "m")
	require.NoError(t, err)
	assert.Equal(t, 1000., f)
	f, err = ConversionFactor("hPa", "Pa")
	require.NoError(t, err)
	assert.Equal(t, 100., f)
	_, err = ConversionFactor("hPa", "m")
	assert.True(t, errors.Is(err, ErrUnits))
	assert.True(t, UnitsCompatible("mbar", "kPa"))
	assert.False(t, UnitsCompatible("mbar", "metres"))
}

func TestMetadata(t *testing.T) {
	_, err := NewMetadata("rain", "not_a_standard_name", "", "mm")
	assert.True(t, errors.Is(err, ErrInvalidStandardName))

	m, err := NewMetadata("aod", "atmosphere_optical_thickness_due_to_ambient_aerosol_particles", "AOD", "#")
	require.NoError(t, err)
	assert.Equal(t, "1", m.Units)
	m.SetMisc("platform", "Terra")
	m.Range = []float64{0, 1}
	m.AddHistory("read")

	c := m.Copy()
	if !reflect.DeepEqual(m.History, c.History) {
		t.Errorf("history not copied: %v", pretty.Diff(m.History, c.History))
	}
	c.Range[0] = -1
	c.SetMisc("platform", "Aqua")
	c.AddHistory("changed")
	assert.Equal(t, 0., m.Range[0])
	v, _ := m.GetMisc("platform")
	assert.Equal(t, "Terra", v)
	assert.Len(t, m.History, 1)
	assert.Len(t, c.History, 2)
}

func TestSensorStandardNames(t *testing.T) {
	for _, sn := range []string{
		"equivalent_reflectivity_factor", // CloudSat CPR
		"volume_backwards_scattering_coefficient_of_radiative_flux_in_air_due_to_ambient_aerosol_particles", // CALIOP
		"air_pressure_at_cloud_top",
		"x_wind",
		"height_above_reference_ellipsoid",
		"brightness_temperature",
		"mole_fraction_of_carbon_monoxide_in_air",
	} {
		m, err := NewMetadata("v", sn, "", "")
		if err != nil {
			t.Errorf("%s: %v", sn, err)
			continue
		}
		assert.Equal(t, sn, m.StandardName)
	}
	assert.False(t, IsStandardName("Equivalent_Reflectivity_Factor"))
	assert.False(t, IsStandardName(""))
}

func TestCoordList(t *testing.T) {
	lat := NewAxisCoord(Lat, []float64{0, 1})
	lon := NewAxisCoord(Lon, []float64{0, 1})
	l, err := NewCoordList(lat, lon)
	require.NoError(t, err)

	err = l.Add(NewAxisCoord(Lat, []float64{2, 3}))
	assert.True(t, errors.Is(err, ErrDuplicateCoordinate))

	c, err := l.Get(ByName("longitude"))
	require.NoError(t, err)
	assert.Equal(t, Lon, c.Axis)

	_, err = l.Get(ByAxis(Time))
	assert.True(t, errors.Is(err, ErrCoordinateNotFound))

	_, err = l.Get(Criteria{})
	assert.True(t, errors.Is(err, ErrCoordinateNotFound), "two matches")

	c, err = l.Get(Criteria{StandardName: "latitude", Axis: Lat, HasAxis: true})
	require.NoError(t, err)
	assert.Same(t, lat, c)
}

func TestGuessBounds(t *testing.T) {
	c := NewAxisCoord(Lat, []float64{-90, -45, 0, 45, 90})
	c.GuessBounds()
	want := []float64{-90, -67.5, -67.5, -22.5, -22.5, 22.5, 22.5, 67.5, 67.5, 90}
	if !reflect.DeepEqual(c.Bounds.Elements, want) {
		t.Errorf("bounds: %v", pretty.Diff(c.Bounds.Elements, want))
	}
	require.NoError(t, c.Validate())

	c.Bounds.Elements[3] = -20
	assert.Error(t, c.Validate())
}

func TestScaling(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	tests := []struct {
		family Family
		s      Scaling
		raw    []float64
		want   []float64
		masked []bool
	}{
		{
			family: CF,
			s:      Scaling{ScaleFactor: f(2), AddOffset: f(1), FillValue: f(-1)},
			raw:    []float64{1, -1, 3},
			want:   []float64{3, -1, 7},
			masked: []bool{false, true, false},
		},
		{
			family: MODIS,
			s:      Scaling{ScaleFactor: f(0.5), AddOffset: f(2), ValidRange: []float64{0, 100}},
			raw:    []float64{4, 200, 10},
			want:   []float64{1, 200, 4},
			masked: []bool{false, true, false},
		},
		{
			family: CALIPSO,
			s:      Scaling{ScaleFactor: f(4), AddOffset: f(1), DataType: "Float_32", ValidRangeString: "-10...10"},
			raw:    []float64{8, -9999, 12},
			want:   []float64{3, -9999, 12},
			masked: []bool{false, true, true},
		},
		{
			family: CloudSat,
			s:      Scaling{ScaleFactor: f(10), AddOffset: f(5), MissOp: "le", Missing: f(-88)},
			raw:    []float64{25, -100, -88},
			want:   []float64{2, -100, -88},
			masked: []bool{false, true, true},
		},
	}
	for _, test := range tests {
		a := FromSlice(test.raw)
		require.NoError(t, ApplyScaling(test.family, a, test.s))
		for i := range test.want {
			if a.IsMasked(i) != test.masked[i] {
				t.Errorf("%s %d: masked %v, want %v", test.family, i, a.IsMasked(i), test.masked[i])
			}
			if !a.IsMasked(i) && a.Elements[i] != test.want[i] {
				t.Errorf("%s %d: have %g, want %g", test.family, i, a.Elements[i], test.want[i])
			}
		}
	}
	err := ApplyScaling("hdf4", FromSlice([]float64{1}), Scaling{})
	assert.True(t, errors.Is(err, ErrInvalidDataType))
}

func TestConcatenate(t *testing.T) {
	a := FromSlice([]float64{1, 2, 3, 4}, 2, 2)
	b := FromSlice([]float64{5, 6}, 1, 2)
	b.SetMasked(1, true)
	c, err := Concatenate(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, c.Shape)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, c.Elements)
	assert.Equal(t, 5, c.Count())
	assert.True(t, c.IsMasked(5))

	_, err = Concatenate(a, FromSlice([]float64{1, 2, 3}, 1, 3))
	assert.True(t, errors.Is(err, ErrShape))
}
