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
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/spatialmodel/colocate/data"
	"github.com/spatialmodel/colocate/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeparations(t *testing.T) {
	tests := []struct {
		parse func(string) (float64, error)
		in    string
		want  float64
	}{
		{ParseHSep, "400km", 400e3},
		{ParseHSep, "10000m", 10000},
		{ParseHSep, "2.5", 2500},
		{ParseASep, "15m", 15},
		{ParseASep, "1.5km", 1500},
		{ParseASep, "20", 20},
		{ParsePSep, "1.22", 1.22},
		{ParseTSep, "P1D", 1},
		{ParseTSep, "P1DT1M", 1 + 1./1440},
		{ParseTSep, "PT6H", 0.25},
		{ParseTSep, "P2W", 14},
		{ParseTSep, "PT30S", 30. / 86400},
		{ParseTSep, "0.5", 0.5},
	}
	for _, test := range tests {
		v, err := test.parse(test.in)
		require.NoError(t, err, test.in)
		if math.Abs(v-test.want) > 1e-12*math.Max(1, test.want) {
			t.Errorf("%s: have %g, want %g", test.in, v, test.want)
		}
	}

	for _, bad := range []struct {
		parse func(string) (float64, error)
		in    string
	}{
		{ParseHSep, "far"},
		{ParseHSep, "10hPa"},
		{ParseHSep, "-3km"},
		{ParsePSep, "0.9"},
		{ParsePSep, "x"},
		{ParseTSep, "P"},
		{ParseTSep, "PT"},
		{ParseTSep, "1 day"},
	} {
		_, err := bad.parse(bad.in)
		assert.True(t, errors.Is(err, data.ErrInvalidOption), "%q: %v", bad.in, err)
	}

	s, err := ParseSeparation("500km", "", "", "P1D")
	require.NoError(t, err)
	assert.Equal(t, Separation{H: 500e3, T: 1}, s)
	assert.Equal(t, []data.Axis{data.Time}, s.Axes())
	assert.True(t, Separation{}.IsZero())
}

// randomView returns n points with coordinates along every axis.
func randomView(r *rand.Rand, n int) *data.PointView {
	v := data.NewPointView(n)
	cols := [data.NumAxes][]float64{}
	for a := range cols {
		cols[a] = make([]float64, n)
	}
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		cols[data.Lat][i] = r.Float64()*20 - 10
		cols[data.Lon][i] = r.Float64()*20 - 10
		cols[data.Alt][i] = r.Float64() * 1000
		cols[data.Pres][i] = 500 + r.Float64()*500
		cols[data.Time][i] = r.Float64() * 10
		vals[i] = float64(i)
	}
	for a, c := range cols {
		v.SetAxis(data.Axis(a), c)
	}
	v.AddVariable(vals, nil)
	return v
}

func TestSeparationComposition(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	sample, source := randomView(r, 20), randomView(r, 300)
	full := Separation{H: 800e3, A: 400, P: 1.3, T: 4}
	single := []Separation{{H: full.H}, {A: full.A}, {P: full.P}, {T: full.T}}
	kept := 0
	for i := 0; i < sample.Len(); i++ {
		for j := 0; j < source.Len(); j++ {
			each := true
			for _, s := range single {
				each = each && s.Keep(sample, i, source, j)
			}
			all := full.Keep(sample, i, source, j)
			if all != each {
				t.Fatalf("sample %d, source %d: conjunction %v, individually %v", i, j, all, each)
			}
			if all {
				kept++
			}
		}
	}
	assert.NotZero(t, kept)
}

func TestSepConstraintMatchesScan(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	sample, source := randomView(r, 30), randomView(r, 500)
	valid := make([]bool, source.Len())
	for j := range valid {
		valid[j] = j%5 != 0
	}
	for _, sep := range []Separation{{H: 300e3}, {H: 600e3, T: 2}, {A: 100, P: 1.1}} {
		c, err := NewSepConstraint(sep, sample, source, valid, 4)
		require.NoError(t, err)
		for i := 0; i < sample.Len(); i++ {
			var want []int
			for j := 0; j < source.Len(); j++ {
				if valid[j] && sep.Keep(sample, i, source, j) {
					want = append(want, j)
				}
			}
			have := c.Candidates(sample, i)
			if len(want) == 0 {
				assert.Empty(t, have)
			} else if !reflect.DeepEqual(have, want) {
				t.Errorf("%s sample %d: have %v, want %v", sep, i, have, want)
			}
		}
	}
}

func TestHSepIsStrict(t *testing.T) {
	sample := data.NewPointView(1)
	sample.SetAxis(data.Lat, []float64{0})
	sample.SetAxis(data.Lon, []float64{0})
	source := data.NewPointView(2)
	source.SetAxis(data.Lat, []float64{0, 0})
	source.SetAxis(data.Lon, []float64{1, 0.5})
	source.AddVariable([]float64{1, 2}, nil)
	h := index.Haversine(0, 0, 0, 1)
	c, err := NewSepConstraint(Separation{H: h}, sample, source, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, c.Candidates(sample, 0), "a point exactly at h_sep is excluded")

	_, err = NewSepConstraint(Separation{A: 10}, sample, source, nil, 0)
	assert.True(t, errors.Is(err, data.ErrDimensionMismatch))
}

func TestCellConstraint(t *testing.T) {
	lat := data.NewAxisCoord(data.Lat, []float64{-5, 5})
	lon := data.NewAxisCoord(data.Lon, []float64{0, 10})
	tm := data.NewAxisCoord(data.Time, []float64{100, 101})
	for _, c := range []*data.Coord{lat, lon, tm} {
		c.GuessBounds()
	}
	g, err := data.NewGriddedData(data.NewMaskedArray(2, 2, 2), &data.Metadata{Name: "s"}, []*data.Coord{lat, lon, tm})
	require.NoError(t, err)

	source := data.NewPointView(5)
	source.SetAxis(data.Lat, []float64{-5, 0, 4, 9, 40})
	source.SetAxis(data.Lon, []float64{1, 5, 12, 6, 0})
	source.AddVariable([]float64{1, 2, 3, 4, 5}, nil)

	c, err := NewCellConstraint(g, source, []bool{true, true, true, false, true})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, c.Binned())
	assert.Equal(t, 3, c.NumBinned())

	assert.Equal(t, []int{0}, c.Candidates(nil, 0, []int{0, 0, 1}))
	assert.Equal(t, []int{1, 2}, c.Candidates(nil, 0, []int{1, 1, 0}), "the boundary at 0 belongs to the upper cell")
	assert.Empty(t, c.Candidates(nil, 0, []int{1, 0, 0}))

	var cells [][]int
	var points [][]int
	it := c.Cells()
	for it.Next() {
		cells = append(cells, it.Cell())
		points = append(points, it.Points())
	}
	assert.Equal(t, [][]int{{0, 0}, {1, 1}}, cells)
	assert.Equal(t, [][]int{{0}, {1, 2}}, points)

	var expanded [][]int
	c.Expand([]int{1, 1}, func(multi []int) {
		expanded = append(expanded, append([]int{}, multi...))
	})
	assert.Equal(t, [][]int{{1, 1, 0}, {1, 1, 1}}, expanded)
}
