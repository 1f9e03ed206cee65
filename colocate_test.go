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

package colocate

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/colocate/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// testGrid returns the 5x3 grid with lat -10..10 step 5, lon -5..5 step 5
// and values 1..15 in row-major order.
func testGrid(t *testing.T) *data.GriddedData {
	lat := data.NewAxisCoord(data.Lat, []float64{-10, -5, 0, 5, 10})
	lon := data.NewAxisCoord(data.Lon, []float64{-5, 0, 5})
	vals := make([]float64, 15)
	for i := range vals {
		vals[i] = float64(i + 1)
	}
	g, err := data.NewGriddedData(data.FromSlice(vals, 5, 3),
		&data.Metadata{Name: "v", LongName: "test values", Units: "K"}, []*data.Coord{lat, lon})
	require.NoError(t, err)
	return g
}

// testPoints returns the points of testGrid as ungridded data.
func testPoints(t *testing.T) *data.UngriddedData {
	var lat, lon, vals []float64
	for i, y := range []float64{-10, -5, 0, 5, 10} {
		for j, x := range []float64{-5, 0, 5} {
			lat = append(lat, y)
			lon = append(lon, x)
			vals = append(vals, float64(i*3+j+1))
		}
	}
	return points(t, "v", lat, lon, vals)
}

func points(t *testing.T, name string, lat, lon, vals []float64) *data.UngriddedData {
	coords, err := data.NewCoordList(data.NewAxisCoord(data.Lat, lat), data.NewAxisCoord(data.Lon, lon))
	require.NoError(t, err)
	u, err := data.NewUngriddedData(data.FromSlice(vals), &data.Metadata{Name: name, Units: "1"}, coords)
	require.NoError(t, err)
	return u
}

func quietLog() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}

func values(t *testing.T, d data.CommonData) *data.MaskedArray {
	a, err := d.Data()
	require.NoError(t, err)
	return a
}

func checkValues(t *testing.T, name string, d data.CommonData, want []float64, tolerance float64) {
	a := values(t, d)
	require.Len(t, a.Elements, len(want), name)
	for i, w := range want {
		if math.IsNaN(w) {
			if !a.IsMasked(i) {
				t.Errorf("%s: point %d = %g should be masked", name, i, a.Elements[i])
			}
			continue
		}
		if a.IsMasked(i) {
			t.Errorf("%s: point %d is masked, want %g", name, i, w)
			continue
		}
		if math.Abs(a.Elements[i]-w) > tolerance {
			t.Errorf("%s: point %d: have %g, want %g", name, i, a.Elements[i], w)
		}
	}
}

func TestColocateGriddedOntoPoints(t *testing.T) {
	sample := points(t, "sample", []float64{1, 4, -4}, []float64{1, 4, -4}, []float64{0, 0, 0})
	for _, test := range []struct {
		how  string
		want []float64
	}{
		{NN, []float64{8, 12, 4}},
		{Lin, []float64{8.8, 11.2, 4.8}},
		{"", []float64{8.8, 11.2, 4.8}},
	} {
		out, err := Colocate(sample, data.CommonDataList{testGrid(t)}, Options{How: test.how, Log: quietLog()})
		require.NoError(t, err, test.how)
		require.Len(t, out, 1)
		assert.Equal(t, "v", out[0].Name())
		assert.Equal(t, "K", out[0].Metadata().Units)
		assert.False(t, out[0].IsGridded())
		checkValues(t, test.how, out[0], test.want, 1e-7)
	}
}

func TestColocateBox(t *testing.T) {
	sample := points(t, "sample", []float64{1, 3, -1}, []float64{1, 3, -1}, []float64{0, 0, 0})
	for _, src := range []data.CommonData{testPoints(t), testGrid(t)} {
		out, err := Colocate(sample, data.CommonDataList{src}, Options{
			How: Box, Kernel: "mean", HSep: "500", Log: quietLog(),
		})
		require.NoError(t, err)
		require.Len(t, out, 1)
		checkValues(t, "mean", out[0], []float64{28. / 3, 10, 20. / 3}, 1e-9)

		out, err = Colocate(sample, data.CommonDataList{src}, Options{
			How: Box, Kernel: "moments", HSep: "500km", Log: quietLog(),
		})
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, []string{"v", "v_std_dev", "v_num_points"}, out.Names())
		checkValues(t, "mean", out[0], []float64{28. / 3, 10, 20. / 3}, 1e-9)
		checkValues(t, "stddev", out[1], []float64{1.52752523, 1.82574186, 1.52752523}, 1e-7)
		checkValues(t, "count", out[2], []float64{3, 4, 3}, 0)
	}
}

func TestColocateDefaultsToMoments(t *testing.T) {
	sample := points(t, "sample", []float64{1}, []float64{1}, []float64{0})
	out, err := Colocate(sample, data.CommonDataList{testPoints(t)}, Options{
		HSep: "500", StdDevSuffix: "_sd", NumPointsSuffix: "_n", Log: quietLog(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"v", "v_sd", "v_n"}, out.Names())
}

func TestColocateStandardNames(t *testing.T) {
	sample := points(t, "sample", []float64{1}, []float64{1}, []float64{0})
	src := testPoints(t)
	require.NoError(t, src.Metadata().SetStandardName("equivalent_reflectivity_factor"))
	out, err := Colocate(sample, data.CommonDataList{src}, Options{HSep: "500", Log: quietLog()})
	require.NoError(t, err)
	assert.Equal(t, "equivalent_reflectivity_factor", out[0].Metadata().StandardName)
	assert.Equal(t, "", out[1].Metadata().StandardName)

	src = testPoints(t)
	src.Metadata().SetMisc("standard_name", "cloudsat_cpr_echo_top")
	out, err = Colocate(sample, data.CommonDataList{src}, Options{HSep: "500", Log: quietLog()})
	require.NoError(t, err)
	sn, ok := out[0].Metadata().GetMisc("standard_name")
	assert.True(t, ok)
	assert.Equal(t, "cloudsat_cpr_echo_top", sn)
	_, ok = out[2].Metadata().GetMisc("standard_name")
	assert.False(t, ok)
}

// hybridCube returns a cube over lat, lon, model level and time, with
// hybrid pressure levels rising 6e6 Pa per level above a surface pressure
// that varies with position and time.
func hybridCube(t *testing.T) *data.GriddedData {
	lat := data.NewAxisCoord(data.Lat, []float64{-10, -5, 0, 5, 10})
	lon := data.NewAxisCoord(data.Lon, []float64{-5, 0, 5})
	lev := make([]float64, 10)
	a := make([]float64, 10)
	b := make([]float64, 10)
	for k := range lev {
		lev[k] = float64(k + 1)
		a[k] = float64(k) * 6e6
		b[k] = 1
	}
	level := data.NewCoord(data.FromSlice(lev), &data.Metadata{Name: "model_level_number"}, data.NoAxis)
	tm := data.NewAxisCoord(data.Time, []float64{140492, 140493, 140494})

	shape := []int{5, 3, 10, 3}
	vals := make([]float64, 5*3*10*3)
	for i := range vals {
		vals[i] = float64(i + 1)
	}
	ps := data.NewMaskedArray(5, 3, 3)
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			for n := 0; n < 3; n++ {
				ps.Elements[(i*3+j)*3+n] = 8.5e7 + float64(i*3+j)*1e6 + float64(n)*1e5
			}
		}
	}
	g, err := data.NewGriddedData(data.FromSlice(vals, shape...), &data.Metadata{Name: "q"},
		[]*data.Coord{lat, lon, level, tm})
	require.NoError(t, err)

	ac := data.NewCoord(data.FromSlice(a), &data.Metadata{Name: "a", Units: "Pa"}, data.NoAxis)
	ac.Dims = []int{2}
	bc := data.NewCoord(data.FromSlice(b), &data.Metadata{Name: "b", Units: "1"}, data.NoAxis)
	bc.Dims = []int{2}
	psc := data.NewCoord(ps, &data.Metadata{Name: "surface_air_pressure", Units: "Pa"}, data.NoAxis)
	psc.Dims = []int{0, 1, 3}
	g.AddHybrid(&data.HybridPressure{A: ac, B: bc, SurfacePressure: psc})
	return g
}

func TestColocateHybridPressure(t *testing.T) {
	coords, err := data.NewCoordList(
		data.NewAxisCoord(data.Lat, []float64{0, 0}),
		data.NewAxisCoord(data.Lon, []float64{0, 0}),
		data.NewAxisCoord(data.Pres, []float64{1.111e8, 2e8}),
		data.NewAxisCoord(data.Time, []float64{140493, 140493}),
	)
	require.NoError(t, err)
	sample, err := data.NewUngriddedData(data.FromSlice([]float64{0, 0}), &data.Metadata{Name: "sample"}, coords)
	require.NoError(t, err)

	log, hook := logtest.NewNullLogger()
	out, err := Colocate(sample, data.CommonDataList{hybridCube(t)}, Options{Log: log})
	require.NoError(t, err)
	checkValues(t, "hybrid", out[0], []float64{221.5, math.NaN()}, 1e-5)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["failed"] == 1 {
			warned = true
		}
	}
	assert.True(t, warned, "the out of bounds point is reported")
	history := out[0].Metadata().History
	require.NotEmpty(t, history)
	assert.True(t, strings.Contains(history[len(history)-1], "run "), history[len(history)-1])

	fill := -999.
	out, err = Colocate(sample, data.CommonDataList{hybridCube(t)}, Options{Extrapolate: true, FillValue: &fill, Log: log})
	require.NoError(t, err)
	a := values(t, out[0])
	assert.False(t, a.IsMasked(1), "extrapolated")
	if want := 212 + 3*(2e8-9.21e7)/6e6; different(a.Elements[1], want, 1e-9) {
		t.Errorf("extrapolated: have %g, want %g", a.Elements[1], want)
	}
	require.NotNil(t, out[0].Metadata().MissingValue)
	assert.Equal(t, fill, *out[0].Metadata().MissingValue)
}

func TestColocateLongitudeWrap(t *testing.T) {
	lons := make([]float64, 36)
	vals := make([]float64, 36)
	for i := range lons {
		lons[i] = float64(i * 10)
		vals[i] = float64(i)
	}
	lon := data.NewAxisCoord(data.Lon, lons)
	lon.Circular = true
	lat := data.NewAxisCoord(data.Lat, []float64{0})
	g, err := data.NewGriddedData(data.FromSlice(vals, 1, 36), &data.Metadata{Name: "v"}, []*data.Coord{lat, lon})
	require.NoError(t, err)

	sample := points(t, "sample", []float64{0, 0, 0}, []float64{355, -5, 175}, []float64{0, 0, 0})
	out, err := Colocate(sample, data.CommonDataList{g}, Options{Log: quietLog()})
	require.NoError(t, err)
	checkValues(t, "wrap", out[0], []float64{17.5, 17.5, 17.5}, 1e-9)
}

func TestColocateOntoItself(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	n := 200
	lat, lon, vals := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		lat[i] = r.Float64()*170 - 85
		lon[i] = r.Float64()*360 - 180
		vals[i] = r.NormFloat64()
	}
	d := points(t, "d", lat, lon, vals)
	for _, k := range []string{"nn_horizontal", "nn_h"} {
		out, err := Colocate(d, data.CommonDataList{d}, Options{How: NN, Kernel: k, Log: quietLog()})
		require.NoError(t, err)
		require.Len(t, out, 1)
		checkValues(t, k, out[0], vals, 0)
		oc, err := out[0].Coord(data.ByAxis(data.Lat))
		require.NoError(t, err)
		assert.Equal(t, lat, oc.Points.Elements)
		oc, err = out[0].Coord(data.ByAxis(data.Lon))
		require.NoError(t, err)
		assert.Equal(t, lon, oc.Points.Elements)
	}
}

func TestMissingSample(t *testing.T) {
	sample := points(t, "sample", []float64{-10, -5, 0, 5}, []float64{0, 0, 0, 0}, []float64{1, 2, 3, 4})
	sa := values(t, sample)
	sa.SetMasked(1, true)
	sa.Elements[3] = math.NaN()

	for _, src := range []data.CommonData{testGrid(t), testPoints(t)} {
		opts := Options{How: NN, MissingDataForMissingSample: true, Log: quietLog()}
		out, err := Colocate(sample, data.CommonDataList{src}, opts)
		require.NoError(t, err)
		checkValues(t, "missing", out[0], []float64{2, math.NaN(), 8, math.NaN()}, 0)

		opts.MissingDataForMissingSample = false
		out, err = Colocate(sample, data.CommonDataList{src}, opts)
		require.NoError(t, err)
		checkValues(t, "not missing", out[0], []float64{2, 5, 8, 11}, 0)
	}
}

func TestAggregate(t *testing.T) {
	grid, err := data.NewRegularGrid(
		data.GridSpec{Axis: data.Lat, Start: -10, End: 30, Step: 10},
		data.GridSpec{Axis: data.Lon, Start: -5, End: 5, Step: 5},
	)
	require.NoError(t, err)

	out, err := Aggregate(data.CommonDataList{testPoints(t)}, grid, Options{Kernel: "mean", Log: quietLog()})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsGridded())
	assert.Equal(t, []int{4, 2}, out[0].Shape())
	nan := math.NaN()
	checkValues(t, "mean", out[0], []float64{2.5, 4, 8.5, 10, 13, 14.5, nan, nan}, 1e-12)

	out, err = Aggregate(data.CommonDataList{testPoints(t)}, grid, Options{Kernel: "count", Log: quietLog()})
	require.NoError(t, err)
	checkValues(t, "count", out[0], []float64{2, 4, 2, 4, 1, 2, nan, nan}, 0)

	out, err = Aggregate(data.CommonDataList{testPoints(t)}, grid, Options{Kernel: "nn_horizontal", Log: quietLog()})
	require.NoError(t, err)
	a := values(t, out[0])
	for i, want := range map[int]float64{0: 4, 2: 10, 4: 13} {
		assert.Equal(t, want, a.Elements[i], "cell %d", i)
	}
	assert.True(t, a.IsMasked(6) && a.IsMasked(7), "empty cells")

	out, err = Aggregate(data.CommonDataList{testPoints(t)}, grid, Options{
		Kernel: "min", HSep: "500", VarName: "vmin", VarUnits: "degC", Log: quietLog(),
	})
	require.NoError(t, err)
	assert.Equal(t, "vmin", out[0].Name())
	assert.Equal(t, "degC", out[0].Metadata().Units)
	a = values(t, out[0])
	assert.Equal(t, 4., a.Elements[0], "h_sep leaves out the far corner of the cell")
}

func TestRegridGridded(t *testing.T) {
	grid, err := data.NewRegularGrid(
		data.GridSpec{Axis: data.Lat, Start: -5, End: 5, Step: 5},
		data.GridSpec{Axis: data.Lon, Start: -5, End: 5, Step: 5},
	)
	require.NoError(t, err)
	out, err := Colocate(grid, data.CommonDataList{testGrid(t)}, Options{Log: quietLog()})
	require.NoError(t, err)
	checkValues(t, "linear", out[0], []float64{6, 7, 9, 10}, 1e-9)

	out, err = Colocate(grid, data.CommonDataList{testGrid(t)}, Options{How: Box, Kernel: "mean", Log: quietLog()})
	require.NoError(t, err)
	checkValues(t, "box", out[0], []float64{4, 5.5, 8.5, 10}, 1e-12)
}

func TestInvalidOptions(t *testing.T) {
	sample := points(t, "sample", []float64{1}, []float64{1}, []float64{0})
	grid := testGrid(t)
	pts := testPoints(t)
	other := points(t, "w", []float64{1}, []float64{1}, []float64{0})
	for name, test := range map[string]struct {
		sources data.CommonDataList
		opts    Options
		want    error
	}{
		"how":                 {data.CommonDataList{grid}, Options{How: "cubic"}, ErrInvalidOption},
		"lin ungridded":       {data.CommonDataList{pts}, Options{How: Lin}, ErrInvalidOption},
		"lin kernel":          {data.CommonDataList{grid}, Options{How: Lin, Kernel: "mean"}, ErrInvalidOption},
		"box linear":          {data.CommonDataList{grid}, Options{How: Box, Kernel: "linear"}, ErrInvalidOption},
		"nn mean":             {data.CommonDataList{pts}, Options{How: NN, Kernel: "mean"}, ErrInvalidOption},
		"separation with lin": {data.CommonDataList{grid}, Options{HSep: "10"}, ErrInvalidOption},
		"kernel":              {data.CommonDataList{pts}, Options{Kernel: "median"}, ErrInvalidOption},
		"separation":          {data.CommonDataList{pts}, Options{TSep: "P1X"}, ErrInvalidOption},
		"p_sep":               {data.CommonDataList{pts}, Options{PSep: "0.5"}, ErrInvalidOption},
		"interval":            {data.CommonDataList{pts}, Options{ProgressInterval: -1}, ErrInvalidOption},
		"mixed sources":       {data.CommonDataList{grid, pts}, Options{}, ErrInvalidOption},
		"var name":            {data.CommonDataList{pts, other}, Options{VarName: "x"}, ErrInvalidOption},
		"no sources":          {nil, Options{}, data.ErrInvalidVariable},
		"nn time":             {data.CommonDataList{pts}, Options{How: NN, Kernel: "nn_t"}, ErrDimensionMismatch},
	} {
		test.opts.Log = quietLog()
		_, err := Colocate(sample, test.sources, test.opts)
		if !errors.Is(err, test.want) {
			t.Errorf("%s: have error %v, want %v", name, err, test.want)
		}
	}
}

func TestProgress(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	c := &Common{ProgressInterval: 3, RunID: "abc", Log: log}
	p := c.progress(10)
	for i := 0; i < 10; i++ {
		p()
	}
	var n int
	for _, e := range hook.AllEntries() {
		if e.Message == "colocate: progress" {
			n++
			assert.Equal(t, "abc", e.Data["run"])
			assert.Equal(t, 10, e.Data["total"])
		}
	}
	assert.Equal(t, 3, n)
}
