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
	"fmt"
	"sort"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/colocate/data"
)

// NetCDF reads CF NetCDF files.
type NetCDF struct {
	// Family sets the conventions used to unpack packed values. If empty,
	// data.CF is used.
	Family data.Family

	// Log receives a message for every variable read. If nil, the
	// standard logrus logger is used.
	Log logrus.FieldLogger
}

func (r *NetCDF) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

func (r *NetCDF) family() data.Family {
	if r.Family == "" {
		return data.CF
	}
	return r.Family
}

func open(file string) (api.Group, error) {
	nc, err := netcdf.Open(file)
	if err != nil {
		return nil, fmt.Errorf("reader: opening %s: %w", file, err)
	}
	return nc, nil
}

// withFile opens file, calls f and closes the file.
func withFile(file string, f func(nc api.Group) error) error {
	nc, err := open(file)
	if err != nil {
		return err
	}
	defer nc.Close()
	if err := f(nc); err != nil {
		return fmt.Errorf("reader: %s: %w", file, err)
	}
	return nil
}

// Variables returns the names of the variables in the first of files that
// are neither coordinate variables nor named as coordinates or bounds by
// other variables.
func (r *NetCDF) Variables(files []string) ([]string, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("reader: no files: %w", data.ErrInvalidVariable)
	}
	var o []string
	err := withFile(files[0], func(nc api.Group) error {
		coords := make(map[string]bool)
		vars := nc.ListVariables()
		for _, v := range vars {
			vg, err := nc.GetVarGetter(v)
			if err != nil {
				return err
			}
			if d := vg.Dimensions(); len(d) == 1 && d[0] == v {
				coords[v] = true
			}
			for _, c := range strings.Fields(attrString(vg.Attributes(), "coordinates")) {
				coords[c] = true
			}
			if b := attrString(vg.Attributes(), "bounds"); b != "" {
				coords[b] = true
			}
		}
		for _, v := range vars {
			if !coords[v] {
				o = append(o, v)
			}
		}
		return nil
	})
	sort.Strings(o)
	return o, err
}

// metadataOf builds the metadata of a variable from its attributes.
// Attributes without a field of their own are kept in Misc.
func (r *NetCDF) metadataOf(name string, attrs api.AttributeMap) *data.Metadata {
	md := &data.Metadata{Name: name, VarName: name}
	md.LongName = attrString(attrs, "long_name")
	md.SetUnits(attrString(attrs, "units"))
	if sn := attrString(attrs, "standard_name"); sn != "" {
		if err := md.SetStandardName(sn); err != nil {
			r.log().WithField("variable", name).Debug(err)
			md.SetMisc("standard_name", sn)
		}
	}
	s := scalingOf(attrs)
	md.ScaleFactor, md.AddOffset, md.MissingValue = s.ScaleFactor, s.AddOffset, s.FillValue
	if attrs == nil {
		return md
	}
	for _, k := range attrs.Keys() {
		switch k {
		case "long_name", "units", "standard_name", "scale_factor", "add_offset", "_FillValue", "missing_value":
			continue
		}
		v, _ := attrs.Get(k)
		if h, ok := v.(string); ok && k == "history" {
			md.History = append(md.History, strings.Split(h, "\n")...)
			continue
		}
		md.SetMisc(k, v)
	}
	return md
}

// readVar reads every value of variable name.
func readVar(nc api.Group, name string) (*data.MaskedArray, []string, api.AttributeMap, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading %s: %v: %w", name, err, data.ErrInvalidVariable)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}
	a, err := flatten(v)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return a, vg.Dimensions(), vg.Attributes(), nil
}

// loader returns a Loader reading variable name from file, optionally
// transformed by f.
func loader(file, name string, f func(a *data.MaskedArray, dims []string) (*data.MaskedArray, error)) data.Loader {
	return func() (*data.MaskedArray, error) {
		var out *data.MaskedArray
		err := withFile(file, func(nc api.Group) error {
			a, dims, _, err := readVar(nc, name)
			if err != nil {
				return err
			}
			if f != nil {
				a, err = f(a, dims)
			}
			out = a
			return err
		})
		return out, err
	}
}

// Read returns variable from files, which are joined along their first
// dimension.
func (r *NetCDF) Read(files []string, variable string) (data.CommonData, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("reader: no files: %w", data.ErrInvalidVariable)
	}
	var (
		dims    []string
		attrs   api.AttributeMap
		gridded bool
	)
	err := withFile(files[0], func(nc api.Group) error {
		vg, err := nc.GetVarGetter(variable)
		if err != nil {
			return fmt.Errorf("variable %s: %v: %w", variable, err, data.ErrInvalidVariable)
		}
		dims, attrs = vg.Dimensions(), vg.Attributes()
		gridded = r.isGridded(nc, dims)
		return nil
	})
	if err != nil {
		return nil, err
	}
	md := r.metadataOf(variable, attrs)
	md.AddHistory(fmt.Sprintf("read %s from %s", variable, strings.Join(files, ", ")))
	r.log().WithFields(logrus.Fields{
		"variable": variable,
		"files":    len(files),
		"gridded":  gridded,
	}).Info("reader: reading variable")
	if gridded {
		return r.readGridded(files, variable, dims, attrs, md)
	}
	return r.readUngridded(files, variable, dims, attrs, md)
}

// isGridded reports whether every dimension carries a one-dimensional
// coordinate variable, latitude or longitude among them.
func (r *NetCDF) isGridded(nc api.Group, dims []string) bool {
	if len(dims) == 0 {
		return false
	}
	horizontal := false
	for _, d := range dims {
		vg, err := nc.GetVarGetter(d)
		if err != nil {
			return false
		}
		if vd := vg.Dimensions(); len(vd) != 1 || vd[0] != d {
			return false
		}
		switch data.GuessAxis(r.metadataOf(d, vg.Attributes())) {
		case data.Lat, data.Lon:
			horizontal = true
		}
	}
	return horizontal
}

// readCoord reads coordinate variable name from every file, joining the
// files along the first dimension if join is true.
func (r *NetCDF) readCoord(files []string, name string, join bool) (*data.Coord, []string, error) {
	if !join {
		files = files[:1]
	}
	var (
		parts, bparts []*data.MaskedArray
		cdims         []string
		md            *data.Metadata
		sc            data.Scaling
	)
	for _, file := range files {
		err := withFile(file, func(nc api.Group) error {
			a, dims, attrs, err := readVar(nc, name)
			if err != nil {
				return err
			}
			cdims = dims
			if md == nil {
				md, sc = r.metadataOf(name, attrs), scalingOf(attrs)
			}
			parts = append(parts, a)
			if b := attrString(attrs, "bounds"); b != "" {
				ba, _, _, err := readVar(nc, b)
				if err != nil {
					return err
				}
				bparts = append(bparts, ba)
			}
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}
	p, err := data.Concatenate(parts...)
	if err != nil {
		return nil, nil, err
	}
	if err := data.ApplyScaling(r.family(), p, sc); err != nil {
		return nil, nil, err
	}
	c := data.NewCoord(p, md, data.NoAxis)
	if len(bparts) == len(parts) {
		b, err := data.Concatenate(bparts...)
		if err == nil && b.Size() == 2*p.Size() {
			c.Bounds = sparse.ZerosDense(append(append([]int(nil), p.Shape...), 2)...)
			copy(c.Bounds.Elements, b.Elements)
		}
	}
	if c.Axis == data.Time {
		if err := c.ToStandardTime(); err != nil {
			return nil, nil, err
		}
	}
	return c, cdims, nil
}

func (r *NetCDF) readGridded(files []string, variable string, dims []string, attrs api.AttributeMap, md *data.Metadata) (data.CommonData, error) {
	dimCoords := make([]*data.Coord, len(dims))
	for i, d := range dims {
		c, _, err := r.readCoord(files, d, i == 0)
		if err != nil {
			return nil, err
		}
		if c.Axis == data.Lon && c.Bounds != nil {
			lo, hi := c.BoundsExtent()
			c.Circular = hi-lo >= 360-1e-6
		}
		dimCoords[i] = c
	}

	var aux []*data.Coord
	for _, name := range strings.Fields(attrString(attrs, "coordinates")) {
		if contains(dims, name) {
			continue
		}
		c, cdims, err := r.readCoord(files, name, false)
		if err != nil {
			return nil, err
		}
		c.Dims = make([]int, len(cdims))
		ok := true
		for k, cd := range cdims {
			c.Dims[k] = index(dims, cd)
			ok = ok && c.Dims[k] >= 0
		}
		if !ok || len(cdims) > 0 && contains(cdims, dims[0]) && len(files) > 1 {
			r.log().WithFields(logrus.Fields{"variable": variable, "coordinate": name}).
				Warn("reader: skipping auxiliary coordinate that does not fit the grid")
			continue
		}
		aux = append(aux, c)
	}

	loaders := make([]data.Loader, len(files))
	for i, f := range files {
		loaders[i] = loader(f, variable, nil)
	}
	lazy, err := data.NewLazyData(r.family(), scalingOf(attrs), loaders...)
	if err != nil {
		return nil, err
	}
	return data.NewLazyGriddedData(lazy, md, dimCoords, aux...)
}

func (r *NetCDF) readUngridded(files []string, variable string, dims []string, attrs api.AttributeMap, md *data.Metadata) (data.CommonData, error) {
	names := strings.Fields(attrString(attrs, "coordinates"))
	if len(names) == 0 {
		// Without a coordinates attribute, use the coordinate variables
		// of the dimensions.
		names = dims
	}

	var (
		lazyCoords []data.LazyCoord
		scalings   []data.Scaling
	)
	err := withFile(files[0], func(nc api.Group) error {
		for _, name := range names {
			cg, err := nc.GetVarGetter(name)
			if err != nil {
				r.log().WithFields(logrus.Fields{"variable": variable, "coordinate": name}).
					Debug("reader: coordinate not found")
				continue
			}
			cmd := r.metadataOf(name, cg.Attributes())
			a := data.GuessAxis(cmd)
			if a == data.NoAxis {
				continue
			}
			lazyCoords = append(lazyCoords, data.LazyCoord{Metadata: cmd, Axis: a})
			scalings = append(scalings, scalingOf(cg.Attributes()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(lazyCoords) == 0 {
		return nil, fmt.Errorf("reader: %s has no recognisable coordinates: %w", variable, data.ErrCoordinateNotFound)
	}

	for k, lc := range lazyCoords {
		loaders := make([]data.Loader, len(files))
		for i, f := range files {
			loaders[i] = coordLoader(f, lc.VarName, variable)
		}
		lazy, err := data.NewLazyData(r.family(), scalings[k], loaders...)
		if err != nil {
			return nil, err
		}
		lazyCoords[k].Data = lazy
	}
	loaders := make([]data.Loader, len(files))
	for i, f := range files {
		loaders[i] = loader(f, variable, func(a *data.MaskedArray, _ []string) (*data.MaskedArray, error) {
			return a.Reshape(a.Size()), nil
		})
	}
	lazy, err := data.NewLazyData(r.family(), scalingOf(attrs), loaders...)
	if err != nil {
		return nil, err
	}
	return data.NewLazyUngriddedData(md, lazy, lazyCoords, r.log()), nil
}

// coordLoader returns a Loader reading coordinate name from file,
// broadcast to the shape of variable and flattened.
func coordLoader(file, name, variable string) data.Loader {
	return func() (*data.MaskedArray, error) {
		var out *data.MaskedArray
		err := withFile(file, func(nc api.Group) error {
			a, cdims, _, err := readVar(nc, name)
			if err != nil {
				return err
			}
			vg, err := nc.GetVarGetter(variable)
			if err != nil {
				return fmt.Errorf("variable %s: %v: %w", variable, err, data.ErrInvalidVariable)
			}
			vdims := vg.Dimensions()
			if !equal(cdims, vdims) {
				v, err := vg.Values()
				if err != nil {
					return err
				}
				va, err := flatten(v)
				if err != nil {
					return err
				}
				if a, err = broadcast(a, cdims, vdims, va.Shape); err != nil {
					return err
				}
			}
			out = a.Reshape(a.Size())
			return nil
		})
		return out, err
	}
}

func equal(a, b []string) bool {
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

func index(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func contains(s []string, v string) bool { return index(s, v) >= 0 }
