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
	"strings"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/colocate/data"
)

// Conventions is the value of the global Conventions attribute.
const Conventions = "CF-1.6"

// pixelDim is the dimension of ungridded variables.
const pixelDim = "pixel"

// boundsDim is the trailing dimension of coordinate bounds.
const boundsDim = "bnds"

// attributes that are written from Metadata fields, or that no longer
// apply to unpacked values, and so are not copied from Misc.
var reserved = map[string]bool{
	"units": true, "long_name": true,
	"_FillValue": true, "missing_value": true, "scale_factor": true, "add_offset": true,
	"valid_range": true, "valid_min": true, "valid_max": true,
	"coordinates": true, "bounds": true, "axis": true, "history": true,
}

type attr struct {
	key string
	val interface{}
}

// ncVar is a variable as laid out in the file.
type ncVar struct {
	name  string
	dims  []string
	attrs []attr
	vals  []float64
}

func (v *ncVar) set(key string, val interface{}) {
	if s, ok := val.(string); ok && s == "" {
		return
	}
	v.attrs = append(v.attrs, attr{key: key, val: val})
}

// layout holds the dimensions and coordinate variables of a file.
type layout struct {
	dims    []string
	lengths []int
	coords  []*ncVar

	// dataDims are the dimensions of the data variables.
	dataDims []string

	// aux lists the auxiliary coordinates for the coordinates attribute.
	aux []string

	used map[string]bool
}

func (l *layout) addDim(name string, n int) {
	l.dims = append(l.dims, name)
	l.lengths = append(l.lengths, n)
	l.used[name] = true
}

// name returns a unique variable name for c.
func (l *layout) name(c *data.Coord) string {
	n := ""
	if c.Metadata != nil {
		n = c.VarName
		if n == "" {
			n = c.Name
		}
	}
	if n == "" {
		n = c.Axis.String()
	}
	n = strings.Replace(n, " ", "_", -1)
	base := n
	for i := 1; l.used[n]; i++ {
		n = fmt.Sprintf("%s_%d", base, i)
	}
	l.used[n] = true
	return n
}

// coord adds c to the layout under name, spanning dims.
func (l *layout) coord(c *data.Coord, name string, dims []string) {
	v := &ncVar{name: name, dims: dims, vals: c.Points.Filled(math.NaN())}
	if c.Metadata != nil {
		v.set("units", c.Units)
		v.set("long_name", c.LongName)
	}
	sn := ""
	if c.Metadata != nil {
		sn = c.StandardName
	}
	if sn == "" && c.Axis != data.NoAxis {
		sn = c.Axis.String()
	}
	v.set("standard_name", sn)
	v.set("axis", c.Axis.CFAxis())
	if c.Bounds != nil {
		if !l.used[boundsDim] {
			l.addDim(boundsDim, 2)
		}
		b := &ncVar{
			name: l.unique(name + "_" + boundsDim),
			dims: append(append([]string(nil), dims...), boundsDim),
			vals: append([]float64(nil), c.Bounds.Elements...),
		}
		v.set("bounds", b.name)
		l.coords = append(l.coords, v, b)
		return
	}
	l.coords = append(l.coords, v)
}

func (l *layout) unique(n string) string {
	base := n
	for i := 1; l.used[n]; i++ {
		n = fmt.Sprintf("%s_%d", base, i)
	}
	l.used[n] = true
	return n
}

func griddedLayout(g *data.GriddedData) *layout {
	l := &layout{used: make(map[string]bool)}
	for _, c := range g.DimCoords() {
		n := l.name(c)
		l.addDim(n, c.Len())
		l.dataDims = append(l.dataDims, n)
	}
	for i, c := range g.DimCoords() {
		l.coord(c, l.dataDims[i], []string{l.dataDims[i]})
	}
	for _, c := range g.AuxCoords() {
		dims := make([]string, len(c.Dims))
		for i, d := range c.Dims {
			dims[i] = l.dataDims[d]
		}
		n := l.name(c)
		l.coord(c, n, dims)
		l.aux = append(l.aux, n)
	}
	return l
}

func ungriddedLayout(u data.CommonData) *layout {
	l := &layout{used: make(map[string]bool)}
	l.addDim(pixelDim, u.Size())
	l.dataDims = []string{pixelDim}
	for _, c := range u.Coords() {
		n := l.name(c)
		l.coord(c, n, []string{pixelDim})
		l.aux = append(l.aux, n)
	}
	return l
}

// attrValue converts v to a type that can be stored as an attribute, or
// returns false.
func attrValue(v interface{}) (interface{}, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return []float64{t}, true
	case float32:
		return []float32{t}, true
	case int:
		return []int32{int32(t)}, true
	case int32:
		return []int32{t}, true
	case int16:
		return []int16{t}, true
	case []float64, []float32, []int32, []int16, []uint8:
		return t, true
	case []int:
		o := make([]int32, len(t))
		for i, x := range t {
			o[i] = int32(x)
		}
		return o, true
	}
	return nil, false
}

// dataVar lays out variable d.
func (l *layout) dataVar(d data.CommonData) (*ncVar, error) {
	a, err := d.Data()
	if err != nil {
		return nil, err
	}
	md := d.Metadata()
	fill := math.NaN()
	if md.MissingValue != nil {
		fill = *md.MissingValue
	}
	v := &ncVar{name: l.unique(d.Name()), dims: l.dataDims, vals: a.Filled(fill)}
	v.set("units", md.Units)
	v.set("long_name", md.LongName)
	v.set("standard_name", md.StandardName)
	if md.MissingValue != nil {
		v.set("_FillValue", []float64{fill})
	}
	v.set("coordinates", strings.Join(l.aux, " "))
	v.set("history", md.HistoryString())
	if md.Misc != nil {
		for _, k := range md.Misc.Keys() {
			if reserved[k] || k == "standard_name" && md.StandardName != "" {
				continue
			}
			mv, _ := md.Misc.Get(k)
			if av, ok := attrValue(mv); ok {
				v.set(k, av)
			}
		}
	}
	return v, nil
}

// NetCDF writes vars to w as a classic NetCDF file of double precision
// values. Every variable must share the geometry of the first. Masked
// values are written as the missing value of the variable, or NaN if it
// has none.
func NetCDF(w *os.File, vars data.CommonDataList) error {
	if len(vars) == 0 {
		return fmt.Errorf("writer: no variables to write: %w", data.ErrInvalidVariable)
	}
	if err := vars.Load(); err != nil {
		return err
	}
	first := vars[0]
	if first.Size() == 0 {
		return fmt.Errorf("writer: %s has no points: %w", first.Name(), data.ErrShape)
	}
	var l *layout
	if g, ok := first.(*data.GriddedData); ok {
		l = griddedLayout(g)
	} else {
		l = ungriddedLayout(first)
	}

	ncVars := append([]*ncVar(nil), l.coords...)
	for _, d := range vars {
		if d.IsGridded() != first.IsGridded() || !sameShape(d.Shape(), first.Shape()) {
			return fmt.Errorf("writer: %s of shape %v does not match %s of shape %v: %w",
				d.Name(), d.Shape(), first.Name(), first.Shape(), data.ErrShape)
		}
		v, err := l.dataVar(d)
		if err != nil {
			return err
		}
		ncVars = append(ncVars, v)
	}

	h := cdf.NewHeader(l.dims, l.lengths)
	h.AddAttribute("", "Conventions", Conventions)
	h.AddAttribute("", "source", "colocate")
	for _, v := range ncVars {
		h.AddVariable(v.name, v.dims, []float64{0})
		for _, a := range v.attrs {
			h.AddAttribute(v.name, a.key, a.val)
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("writer: invalid netcdf header: %v", errs[0])
	}

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	for _, v := range ncVars {
		if err = writeNCF(f, v.name, v.vals); err != nil {
			return fmt.Errorf("writer: writing variable %s to netcdf file: %v", v.name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, name string, vals []float64) error {
	end := f.Header.Lengths(name)
	n := 1
	for _, v := range end {
		n *= v
	}
	if len(vals) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(vals))
	}
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	_, err := w.Write(vals)
	return err
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
