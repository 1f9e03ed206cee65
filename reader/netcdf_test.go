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

package reader

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/colocate/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testVar struct {
	name  string
	dims  []string
	vals  interface{}
	attrs [][2]interface{}
}

// writeCDF writes a classic NetCDF file holding vars.
func writeCDF(t *testing.T, file string, dims []string, lengths []int, vars ...testVar) {
	h := cdf.NewHeader(dims, lengths)
	for _, v := range vars {
		var zero interface{}
		switch v.vals.(type) {
		case []int16:
			zero = []int16{0}
		default:
			zero = []float64{0}
		}
		h.AddVariable(v.name, v.dims, zero)
		for _, a := range v.attrs {
			h.AddAttribute(v.name, a[0].(string), a[1])
		}
	}
	h.Define()
	w, err := os.Create(file)
	require.NoError(t, err)
	defer w.Close()
	f, err := cdf.Create(w, h)
	require.NoError(t, err)
	for _, v := range vars {
		end := f.Header.Lengths(v.name)
		_, err := f.Writer(v.name, make([]int, len(end)), end).Write(v.vals)
		require.NoError(t, err, v.name)
	}
	require.NoError(t, cdf.UpdateNumRecs(w))
}

func newReader() *NetCDF {
	l, _ := logtest.NewNullLogger()
	return &NetCDF{Log: l}
}

func tempDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "reader")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// packedFile writes a 2x2x2 grid of packed temperatures starting at the
// given hour of 1984-08-28.
func packedFile(t *testing.T, file string, hours ...float64) {
	writeCDF(t, file, []string{"time", "lat", "lon"}, []int{2, 2, 2},
		testVar{name: "time", dims: []string{"time"}, vals: hours,
			attrs: [][2]interface{}{{"units", "hours since 1984-08-28 00:00:00"}}},
		testVar{name: "lat", dims: []string{"lat"}, vals: []float64{0, 1},
			attrs: [][2]interface{}{{"units", "degrees_north"}}},
		testVar{name: "lon", dims: []string{"lon"}, vals: []float64{10, 11},
			attrs: [][2]interface{}{{"units", "degrees_east"}}},
		testVar{name: "t", dims: []string{"time", "lat", "lon"}, vals: []int16{0, 1, 2, 3, 4, 5, 6, -1},
			attrs: [][2]interface{}{
				{"units", "K"},
				{"standard_name", "air_temperature"},
				{"long_name", "temperature"},
				{"scale_factor", []float32{0.5}},
				{"add_offset", []float32{100}},
				{"_FillValue", []int16{-1}},
			}},
		testVar{name: "u", dims: []string{"time", "lat", "lon"}, vals: []float64{1, 2, 3, 4, 5, 6, 7, 8},
			attrs: [][2]interface{}{{"standard_name", "made_up_quantity"}, {"history", "first\nsecond"}}},
	)
}

func TestReadGridded(t *testing.T) {
	dir := tempDir(t)
	f1, f2 := filepath.Join(dir, "a.nc"), filepath.Join(dir, "b.nc")
	packedFile(t, f1, 0, 12)
	packedFile(t, f2, 24, 36)
	r := newReader()

	vars, err := r.Variables([]string{f1})
	require.NoError(t, err)
	assert.Equal(t, []string{"t", "u"}, vars)

	d, err := r.Read([]string{f1}, "t")
	require.NoError(t, err)
	require.True(t, d.IsGridded())
	assert.Equal(t, []int{2, 2, 2}, d.Shape())
	md := d.Metadata()
	assert.Equal(t, "air_temperature", md.StandardName)
	assert.Equal(t, "temperature", md.LongName)
	assert.Equal(t, "K", md.Units)

	a, err := d.Data()
	require.NoError(t, err)
	for i, want := range []float64{100, 100.5, 101, 101.5, 102, 102.5, 103} {
		assert.False(t, a.IsMasked(i))
		if different(a.Elements[i], want, 1e-9) {
			t.Errorf("value %d: have %g, want %g", i, a.Elements[i], want)
		}
	}
	assert.True(t, a.IsMasked(7), "fill value")

	tc, err := d.Coord(data.ByAxis(data.Time))
	require.NoError(t, err)
	assert.Equal(t, data.StandardTimeUnits, tc.Units)
	assert.Equal(t, []float64{140493, 140493.5}, tc.Points.Elements)

	// Files are joined along time.
	d, err = r.Read([]string{f1, f2}, "t")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2, 2}, d.Shape())
	tc, err = d.Coord(data.ByAxis(data.Time))
	require.NoError(t, err)
	assert.Equal(t, []float64{140493, 140493.5, 140494, 140494.5}, tc.Points.Elements)
	assert.Equal(t, 14, d.Count())

	u, err := r.Read([]string{f1}, "u")
	require.NoError(t, err)
	assert.Equal(t, "", u.Metadata().StandardName)
	sn, ok := u.Metadata().GetMisc("standard_name")
	assert.True(t, ok)
	assert.Equal(t, "made_up_quantity", sn)
	require.Len(t, u.Metadata().History, 3)
	assert.Equal(t, "first", u.Metadata().History[0])
}

func TestReadCalendar(t *testing.T) {
	file := filepath.Join(tempDir(t), "model.nc")
	writeCDF(t, file, []string{"time", "lat"}, []int{2, 2},
		testVar{name: "time", dims: []string{"time"}, vals: []float64{0, 360},
			attrs: [][2]interface{}{{"units", "days since 2000-01-01"}, {"calendar", "360_day"}}},
		testVar{name: "lat", dims: []string{"lat"}, vals: []float64{0, 1},
			attrs: [][2]interface{}{{"units", "degrees_north"}}},
		testVar{name: "ts", dims: []string{"time", "lat"}, vals: []float64{1, 2, 3, 4},
			attrs: [][2]interface{}{{"units", "K"}, {"standard_name", "surface_temperature"}}},
	)
	d, err := newReader().Read([]string{file}, "ts")
	require.NoError(t, err)
	tc, err := d.Coord(data.ByAxis(data.Time))
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01T00:00:00", data.FormatStandardTime(tc.Points.Elements[0]))
	assert.Equal(t, "2001-01-01T00:00:00", data.FormatStandardTime(tc.Points.Elements[1]))
	assert.Equal(t, data.StandardCalendar, tc.Calendar())
}

func TestReadUngridded(t *testing.T) {
	file := filepath.Join(tempDir(t), "swath.nc")
	writeCDF(t, file, []string{"y", "x"}, []int{2, 3},
		testVar{name: "lat", dims: []string{"y", "x"}, vals: []float64{0, 0, 0, 1, 1, 1},
			attrs: [][2]interface{}{{"units", "degrees_north"}}},
		testVar{name: "lon", dims: []string{"y", "x"}, vals: []float64{10, 11, 12, 10, 11, 12},
			attrs: [][2]interface{}{{"units", "degrees_east"}}},
		testVar{name: "time", dims: []string{"y"}, vals: []float64{140493, 140494},
			attrs: [][2]interface{}{{"units", data.StandardTimeUnits}}},
		testVar{name: "aod", dims: []string{"y", "x"}, vals: []float64{0.1, 0.2, math.NaN(), 0.4, 0.5, 0.6},
			attrs: [][2]interface{}{{"coordinates", "lat lon time"}}},
		testVar{name: "junk", dims: []string{"y", "x"}, vals: []float64{1, 2, 3, 4, 5, 6}},
	)
	r := newReader()

	vars, err := r.Variables([]string{file})
	require.NoError(t, err)
	assert.Equal(t, []string{"aod", "junk"}, vars)

	d, err := r.Read([]string{file}, "aod")
	require.NoError(t, err)
	assert.False(t, d.IsGridded())
	assert.Equal(t, []int{6}, d.Shape())
	assert.Equal(t, 5, d.Count())

	coords := d.Coords()
	require.Len(t, coords, 3)
	assert.Equal(t, []float64{10, 11, 12, 10, 11, 12}, coords.Axis(data.Lon).Points.Elements)
	assert.Equal(t, []float64{140493, 140493, 140493, 140494, 140494, 140494},
		coords.Axis(data.Time).Points.Elements)

	_, err = r.Read([]string{file}, "junk")
	assert.True(t, errors.Is(err, data.ErrCoordinateNotFound), "%v", err)
}

func TestReadErrors(t *testing.T) {
	r := newReader()
	_, err := r.Read(nil, "t")
	assert.True(t, errors.Is(err, data.ErrInvalidVariable), "%v", err)

	file := filepath.Join(tempDir(t), "a.nc")
	packedFile(t, file, 0, 12)
	_, err = r.Read([]string{file}, "missing")
	assert.True(t, errors.Is(err, data.ErrInvalidVariable), "%v", err)

	_, err = r.Read([]string{filepath.Join(tempDir(t), "nofile.nc")}, "t")
	assert.Error(t, err)
}

func TestFlatten(t *testing.T) {
	a, err := flatten([][]int32{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, a.Shape)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, a.Elements)

	a, err = flatten(2.5)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, a.Shape)

	_, err = flatten([][]float64{{1, 2}, {3}})
	assert.True(t, errors.Is(err, data.ErrShape), "%v", err)

	_, err = flatten([]string{"a"})
	assert.True(t, errors.Is(err, data.ErrInvalidDataType), "%v", err)
}

func TestBroadcast(t *testing.T) {
	a := data.FromSlice([]float64{1, 2}, 2)
	a.SetMasked(1, true)
	o, err := broadcast(a, []string{"y"}, []string{"y", "x"}, []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 2, 2, 2}, o.Elements)
	assert.Equal(t, 3, o.Count())

	_, err = broadcast(a, []string{"z"}, []string{"y", "x"}, []int{2, 3})
	assert.True(t, errors.Is(err, data.ErrShape), "%v", err)
}

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}
