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

package writer

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/colocate/data"
)

// WGS84 is the projection written to the .prj file of a shapefile.
const WGS84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

// maxFieldName is the longest attribute name a shapefile can hold.
const maxFieldName = 10

// fieldName shortens name to fit in a shapefile, keeping it unique among
// used.
func fieldName(name string, used map[string]bool) string {
	n := strings.Replace(name, " ", "_", -1)
	if len(n) > maxFieldName {
		n = n[:maxFieldName]
	}
	base := n
	for i := 1; used[strings.ToLower(n)]; i++ {
		s := fmt.Sprint(i)
		if len(base)+len(s) > maxFieldName {
			base = base[:maxFieldName-len(s)]
		}
		n = base + s
	}
	used[strings.ToLower(n)] = true
	return n
}

// Shapefile writes every point of vars to fileName as a point shapefile,
// with one attribute per variable and one for each coordinate other than
// latitude and longitude. Masked values are written as the missing value
// of the variable, or NaN. Attribute names are cut to 10 characters and
// returned in the order of the columns.
func Shapefile(fileName string, vars data.CommonDataList) ([]string, error) {
	v, err := vars.View()
	if err != nil {
		return nil, err
	}
	if !v.Has(data.Lat) || !v.Has(data.Lon) {
		return nil, fmt.Errorf("writer: %s has no horizontal coordinates: %w", vars[0].Name(), data.ErrCoordinateNotFound)
	}

	used := make(map[string]bool)
	var (
		names  []string
		fields []goshp.Field
		axes   []data.Axis
	)
	for _, a := range data.Axes {
		if a == data.Lat || a == data.Lon || !v.Has(a) {
			continue
		}
		axes = append(axes, a)
		n := fieldName(a.String(), used)
		names = append(names, n)
		fields = append(fields, goshp.FloatField(n, 19, 8))
	}
	fills := make([]float64, len(vars))
	for j, d := range vars {
		n := fieldName(d.Name(), used)
		names = append(names, n)
		fields = append(fields, goshp.FloatField(n, 14, 8))
		fills[j] = math.NaN()
		if mv := d.Metadata().MissingValue; mv != nil {
			fills[j] = *mv
		}
	}

	// remove extension and replace it with .shp
	fileBase := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	shape, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POINT, fields...)
	if err != nil {
		return nil, fmt.Errorf("writer: creating shapefile: %v", err)
	}
	row := make([]interface{}, len(fields))
	for i := 0; i < v.Len(); i++ {
		for k, a := range axes {
			row[k] = v.Coord(a, i)
		}
		for j := range vars {
			val := v.Value(i, j)
			if v.IsMasked(i, j) {
				val = fills[j]
			}
			row[len(axes)+j] = val
		}
		p := geom.Point{X: v.Coord(data.Lon, i), Y: v.Coord(data.Lat, i)}
		if err := shape.EncodeFields(p, row...); err != nil {
			shape.Close()
			return nil, fmt.Errorf("writer: writing shapefile: %v", err)
		}
	}
	shape.Close()

	// Create .prj file
	f, err := os.Create(fileBase + ".prj")
	if err != nil {
		return nil, fmt.Errorf("writer: creating prj file: %v", err)
	}
	fmt.Fprint(f, WGS84)
	return names, f.Close()
}
