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

package eval

import (
	"errors"
	"math"
	"testing"

	"github.com/Knetic/govaluate"
	"github.com/spatialmodel/colocate/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func points(t *testing.T, name string, vals []float64, masked ...int) *data.UngriddedData {
	n := len(vals)
	lat, lon := make([]float64, n), make([]float64, n)
	for i := range lat {
		lat[i], lon[i] = float64(i), float64(2*i)
	}
	coords, err := data.NewCoordList(data.NewAxisCoord(data.Lat, lat), data.NewAxisCoord(data.Lon, lon))
	require.NoError(t, err)
	a := data.FromSlice(vals)
	for _, i := range masked {
		a.SetMasked(i, true)
	}
	u, err := data.NewUngriddedData(a, &data.Metadata{Name: name}, coords)
	require.NoError(t, err)
	return u
}

func TestEvaluate(t *testing.T) {
	a := points(t, "aod550", []float64{1, 2, 3, 4}, 2)
	b := points(t, "b", []float64{2, 2, 2, 0})

	out, err := Evaluate("(a - b) / b", []Variable{{Alias: "a", Data: a}, {Data: b}}, "rel", "1")
	require.NoError(t, err)
	assert.Equal(t, "rel", out.Name())
	assert.Equal(t, "1", out.Metadata().Units)
	v, err := out.Data()
	require.NoError(t, err)
	assert.Equal(t, -0.5, v.Elements[0])
	assert.Equal(t, 0., v.Elements[1])
	assert.True(t, v.IsMasked(2), "masked input")
	assert.True(t, v.IsMasked(3), "division by zero")

	lat, err := out.Coord(data.ByAxis(data.Lat))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, lat.Points.Elements)
}

func TestFunctions(t *testing.T) {
	x := points(t, "x", []float64{1, 4, 9})
	for expr, want := range map[string][]float64{
		"sqrt(x)":        {1, 2, 3},
		"max(x, 5)":      {5, 5, 9},
		"min(x, 5, 2)":   {1, 2, 2},
		"pow(x, 0.5)":    {1, 2, 3},
		"x > 3":          {0, 1, 1},
		"abs(-x) + 1":    {2, 5, 10},
		"log(exp(x))":    {1, 4, 9},
		"double(x) - 1":  {1, 7, 17},
		"x >= 4 ? x : 0": {0, 4, 9},
	} {
		e, err := Parse(expr, map[string]govaluate.ExpressionFunction{
			"double": func(arg ...interface{}) (interface{}, error) {
				return 2 * arg[0].(float64), nil
			},
		})
		require.NoError(t, err, expr)
		out, err := e.Evaluate([]Variable{{Data: x}}, "y", "")
		require.NoError(t, err, expr)
		v, _ := out.Data()
		for i, w := range want {
			if math.Abs(v.Elements[i]-w) > 1e-12 {
				t.Errorf("%s[%d]: have %g, want %g", expr, i, v.Elements[i], w)
			}
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	x := points(t, "x", []float64{1, 2})
	y := points(t, "y", []float64{1, 2, 3})

	_, err := Parse("x +", nil)
	assert.True(t, errors.Is(err, data.ErrInvalidOption), "%v", err)

	_, err = Evaluate("x + z", []Variable{{Data: x}}, "o", "")
	assert.True(t, errors.Is(err, data.ErrInvalidVariable), "%v", err)

	_, err = Evaluate("x + y", []Variable{{Data: x}, {Data: y}}, "o", "")
	assert.True(t, errors.Is(err, data.ErrShape), "%v", err)

	_, err = Evaluate("x", []Variable{{Data: x}, {Alias: "x", Data: y}}, "o", "")
	assert.True(t, errors.Is(err, data.ErrInvalidOption), "%v", err)

	_, err = Evaluate("x", nil, "o", "")
	assert.True(t, errors.Is(err, data.ErrInvalidVariable), "%v", err)
}

func TestParseVariable(t *testing.T) {
	n, a := ParseVariable("AOD550:a")
	assert.Equal(t, "AOD550", n)
	assert.Equal(t, "a", a)
	n, a = ParseVariable("AOD550")
	assert.Equal(t, "AOD550", n)
	assert.Equal(t, "", a)

	e, err := Parse("b * a + b", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, e.Vars())
}
