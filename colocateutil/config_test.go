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

package colocateutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/colocate/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColocateOptions(t *testing.T) {
	os.Setenv("COLOCATE_TEST_KERNEL", "mean")
	defer os.Unsetenv("COLOCATE_TEST_KERNEL")

	cfg := viper.New()
	cfg.Set("how", "Box")
	cfg.Set("kernel", "$COLOCATE_TEST_KERNEL")
	cfg.Set("h_sep", "500km")
	cfg.Set("t_sep", "P1D")
	cfg.Set("fill_value", "-999")
	cfg.Set("missing_data_for_missing_sample", true)
	cfg.Set("var_name", "aod_mean")
	cfg.Set("ProgressInterval", "10")
	cfg.Set("LeafSize", 5)

	o, err := colocateOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, "box", o.How)
	assert.Equal(t, "mean", o.Kernel)
	assert.Equal(t, "500km", o.HSep)
	assert.Equal(t, "", o.ASep)
	assert.Equal(t, "P1D", o.TSep)
	require.NotNil(t, o.FillValue)
	assert.Equal(t, -999., *o.FillValue)
	assert.True(t, o.MissingDataForMissingSample)
	assert.False(t, o.Extrapolate)
	assert.Equal(t, "aod_mean", o.VarName)
	assert.Equal(t, 10, o.ProgressInterval)
	assert.Equal(t, 5, o.LeafSize)

	cfg.Set("fill_value", "")
	o, err = colocateOptions(cfg)
	require.NoError(t, err)
	assert.Nil(t, o.FillValue)

	cfg.Set("fill_value", "lots")
	_, err = colocateOptions(cfg)
	assert.True(t, errors.Is(err, data.ErrInvalidOption), "%v", err)
}

func TestParseGrid(t *testing.T) {
	g, err := parseGrid([]string{"x=[0,20,10]", "y=[-10,20,10]"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, g.Shape())
	lat, err := g.AxisCoord(data.Lat)
	require.NoError(t, err)
	assert.Equal(t, []float64{-5, 5, 15}, lat.Points.Elements)

	g, err = parseGrid([]string{"t=[1984-08-28,1984-08-30,P12H]"})
	require.NoError(t, err)
	assert.Equal(t, []int{4}, g.Shape())
	tc, err := g.AxisCoord(data.Time)
	require.NoError(t, err)
	assert.Equal(t, 140493.25, tc.Points.Elements[0])

	_, err = parseGrid(nil)
	assert.True(t, errors.Is(err, data.ErrInvalidOption), "%v", err)
	_, err = parseGrid([]string{"x=[0,20]"})
	assert.Error(t, err)
}

func TestParseLimits(t *testing.T) {
	l, err := parseLimits([]string{"y=[-10,10]", "t=[1984-08-28,1984-08-29]"})
	require.NoError(t, err)
	require.Len(t, l, 2)
	assert.Equal(t, data.NewLimit(data.Lat, -10, 10), l[0])
	assert.True(t, l[1].Contains(140493.5))
	assert.False(t, l[1].Contains(140495))

	_, err = parseLimits(nil)
	assert.True(t, errors.Is(err, data.ErrInvalidOption), "%v", err)
}

func TestCheckOutputFile(t *testing.T) {
	dir := tempDir(t)
	f, err := checkOutputFile(context.Background(), filepath.Join(dir, "a", "b", "out.nc"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Dir(f))
	assert.NoError(t, err)

	f, err = checkOutputFile(context.Background(), "gs://bucket/out.nc")
	require.NoError(t, err)
	assert.Equal(t, "gs://bucket/out.nc", f)

	_, err = checkOutputFile(context.Background(), "")
	assert.True(t, errors.Is(err, data.ErrInvalidOption), "%v", err)
}

func TestExpandStringSlice(t *testing.T) {
	os.Setenv("COLOCATE_TEST_DIR", "/data")
	defer os.Unsetenv("COLOCATE_TEST_DIR")
	have := expandStringSlice([]string{"${COLOCATE_TEST_DIR}/a.nc", " ", "b.nc"})
	assert.Equal(t, []string{"/data/a.nc", "b.nc"}, have)
}

func TestNewLogger(t *testing.T) {
	file := filepath.Join(tempDir(t), "logs", "colocate.log")
	log, err := newLogger(file, "warning")
	require.NoError(t, err)
	log.Info("not written")
	log.Warn("written")
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "written"))
	assert.False(t, strings.Contains(string(b), "not written"))

	_, err = newLogger("", "chatty")
	assert.True(t, errors.Is(err, data.ErrInvalidOption), "%v", err)
}
