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
	"math"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/spatialmodel/colocate/data"
)

// flatten copies the numeric values of a possibly nested slice, as
// returned by api.VarGetter.Values, into a masked array of the same shape.
func flatten(v interface{}) (*data.MaskedArray, error) {
	switch t := v.(type) {
	case []float64:
		return data.FromSlice(append([]float64(nil), t...)), nil
	case []float32:
		o := make([]float64, len(t))
		for i, x := range t {
			o[i] = float64(x)
		}
		return data.FromSlice(o), nil
	}

	rv := reflect.ValueOf(v)
	var shape []int
	for x := rv; x.Kind() == reflect.Slice; x = x.Index(0) {
		shape = append(shape, x.Len())
		if x.Len() == 0 {
			break
		}
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	out := make([]float64, 0, n)
	var walk func(x reflect.Value) error
	walk = func(x reflect.Value) error {
		switch x.Kind() {
		case reflect.Slice:
			for i := 0; i < x.Len(); i++ {
				if err := walk(x.Index(i)); err != nil {
					return err
				}
			}
		case reflect.Float32, reflect.Float64:
			out = append(out, x.Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out = append(out, float64(x.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out = append(out, float64(x.Uint()))
		default:
			return fmt.Errorf("reader: cannot read values of type %s: %w", x.Type(), data.ErrInvalidDataType)
		}
		return nil
	}
	if err := walk(rv); err != nil {
		return nil, err
	}
	if len(shape) == 0 {
		shape = []int{1}
	}
	if len(out) != n {
		return nil, fmt.Errorf("reader: ragged array of shape %v holds %d values: %w", shape, len(out), data.ErrShape)
	}
	return data.FromSlice(out, shape...), nil
}

// attrFloat returns the numeric attribute key, or nil.
func attrFloat(attrs api.AttributeMap, key string) *float64 {
	v := attrFloats(attrs, key)
	if len(v) == 0 {
		return nil
	}
	return &v[0]
}

// attrFloats returns the numeric values of attribute key.
func attrFloats(attrs api.AttributeMap, key string) []float64 {
	if attrs == nil {
		return nil
	}
	v, ok := attrs.Get(key)
	if !ok {
		return nil
	}
	a, err := flatten(v)
	if err != nil {
		return nil
	}
	return a.Elements
}

// attrString returns the string attribute key, or "".
func attrString(attrs api.AttributeMap, key string) string {
	if attrs == nil {
		return ""
	}
	v, ok := attrs.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// scalingOf returns the packing attributes of a variable.
func scalingOf(attrs api.AttributeMap) data.Scaling {
	s := data.Scaling{
		ScaleFactor: attrFloat(attrs, "scale_factor"),
		AddOffset:   attrFloat(attrs, "add_offset"),
		FillValue:   attrFloat(attrs, "_FillValue"),
	}
	if s.FillValue == nil {
		s.FillValue = attrFloat(attrs, "missing_value")
	}
	if vr := attrFloats(attrs, "valid_range"); len(vr) == 2 {
		s.ValidRange = vr
	} else {
		lo, hi := attrFloat(attrs, "valid_min"), attrFloat(attrs, "valid_max")
		if lo != nil || hi != nil {
			s.ValidRange = []float64{math.Inf(-1), math.Inf(1)}
			if lo != nil {
				s.ValidRange[0] = *lo
			}
			if hi != nil {
				s.ValidRange[1] = *hi
			}
		}
	}
	return s
}

// broadcast expands a, whose dimensions are the named subset cdims of
// vdims, to shape, which has one length per element of vdims.
func broadcast(a *data.MaskedArray, cdims, vdims []string, shape []int) (*data.MaskedArray, error) {
	if len(cdims) == 0 && a.Size() == 1 {
		o := data.NewMaskedArray(shape...)
		for i := range o.Elements {
			o.Elements[i] = a.Elements[0]
		}
		if a.IsMasked(0) {
			o.MaskWhere(func(float64) bool { return true })
		}
		return o, nil
	}
	pos := make([]int, len(cdims))
	for k, d := range cdims {
		pos[k] = -1
		for i, vd := range vdims {
			if vd == d {
				pos[k] = i
			}
		}
		if pos[k] < 0 || a.Shape[k] != shape[pos[k]] {
			return nil, fmt.Errorf("reader: dimensions %v of shape %v do not fit %v of shape %v: %w",
				cdims, a.Shape, vdims, shape, data.ErrShape)
		}
	}
	o := data.NewMaskedArray(shape...)
	idx := make([]int, len(shape))
	sub := make([]int, len(cdims))
	for i := range o.Elements {
		data.Unravel(i, shape, idx)
		for k, p := range pos {
			sub[k] = idx[p]
		}
		j := data.Ravel(sub, a.Shape)
		o.Elements[i] = a.Elements[j]
		if a.IsMasked(j) {
			o.SetMasked(i, true)
		}
	}
	return o, nil
}
