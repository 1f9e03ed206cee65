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
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// MaskedArray is a dense N-dimensional array with an optional element mask.
// A nil Mask means no element is masked.
type MaskedArray struct {
	*sparse.DenseArray
	Mask []bool
}

// NewMaskedArray returns a zero-valued, unmasked array with the given shape.
func NewMaskedArray(shape ...int) *MaskedArray {
	return &MaskedArray{DenseArray: sparse.ZerosDense(append([]int(nil), shape...)...)}
}

// FromSlice wraps vals in an unmasked array of the given shape. If no
// shape is given the array is one-dimensional.
func FromSlice(vals []float64, shape ...int) *MaskedArray {
	if len(shape) == 0 {
		shape = []int{len(vals)}
	}
	a := NewMaskedArray(shape...)
	if len(a.Elements) != len(vals) {
		panic(fmt.Errorf("data: %d values do not fit shape %v", len(vals), shape))
	}
	copy(a.Elements, vals)
	return a
}

// Size returns the number of elements in a.
func (a *MaskedArray) Size() int {
	return len(a.Elements)
}

// IsMasked reports whether the element at flat index i is masked.
func (a *MaskedArray) IsMasked(i int) bool {
	return a.Mask != nil && a.Mask[i]
}

// SetMasked sets the mask of the element at flat index i.
func (a *MaskedArray) SetMasked(i int, masked bool) {
	if a.Mask == nil {
		if !masked {
			return
		}
		a.Mask = make([]bool, len(a.Elements))
	}
	a.Mask[i] = masked
}

// MaskWhere masks every element for which f returns true.
func (a *MaskedArray) MaskWhere(f func(v float64) bool) {
	for i, v := range a.Elements {
		if f(v) {
			a.SetMasked(i, true)
		}
	}
}

// MaskNaN masks every NaN element.
func (a *MaskedArray) MaskNaN() {
	a.MaskWhere(math.IsNaN)
}

// AnyMasked reports whether any element is masked.
func (a *MaskedArray) AnyMasked() bool {
	for _, m := range a.Mask {
		if m {
			return true
		}
	}
	return false
}

// Count returns the number of non-masked elements.
func (a *MaskedArray) Count() int {
	n := len(a.Elements)
	for _, m := range a.Mask {
		if m {
			n--
		}
	}
	return n
}

// Copy returns a deep copy of a.
func (a *MaskedArray) Copy() *MaskedArray {
	o := &MaskedArray{DenseArray: sparse.ZerosDense(append([]int{}, a.Shape...)...)}
	copy(o.Elements, a.Elements)
	if a.Mask != nil {
		o.Mask = append([]bool{}, a.Mask...)
	}
	return o
}

// Filled returns the elements of a with masked elements replaced by fill.
func (a *MaskedArray) Filled(fill float64) []float64 {
	o := append([]float64{}, a.Elements...)
	for i := range o {
		if a.IsMasked(i) {
			o[i] = fill
		}
	}
	return o
}

// Compressed returns the non-masked elements of a.
func (a *MaskedArray) Compressed() []float64 {
	o := make([]float64, 0, a.Count())
	for i, v := range a.Elements {
		if !a.IsMasked(i) {
			o = append(o, v)
		}
	}
	return o
}

// Take returns a one-dimensional array holding the elements at the given
// flat indices.
func (a *MaskedArray) Take(idx []int) *MaskedArray {
	o := NewMaskedArray(len(idx))
	for j, i := range idx {
		o.Elements[j] = a.Elements[i]
		if a.IsMasked(i) {
			o.SetMasked(j, true)
		}
	}
	return o
}

// Reshape returns a view of a with a new shape holding the same number of
// elements.
func (a *MaskedArray) Reshape(shape ...int) *MaskedArray {
	o := &MaskedArray{DenseArray: sparse.ZerosDense(shape...), Mask: a.Mask}
	if len(o.Elements) != len(a.Elements) {
		panic(fmt.Errorf("data: cannot reshape %v into %v", a.Shape, shape))
	}
	o.Elements = a.Elements
	return o
}

// MinMax returns the smallest and largest non-masked, non-NaN values of a.
// Both are NaN if there are none.
func (a *MaskedArray) MinMax() (min, max float64) {
	min, max = math.NaN(), math.NaN()
	for i, v := range a.Elements {
		if a.IsMasked(i) || math.IsNaN(v) {
			continue
		}
		if math.IsNaN(min) || v < min {
			min = v
		}
		if math.IsNaN(max) || v > max {
			max = v
		}
	}
	return
}

// Concatenate joins arrays along their first axis. All arrays must agree
// on the remaining axes.
func Concatenate(arrays ...*MaskedArray) (*MaskedArray, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("data: nothing to concatenate: %w", ErrShape)
	}
	if len(arrays) == 1 {
		return arrays[0], nil
	}
	rest := arrays[0].Shape[1:]
	n0 := 0
	for _, a := range arrays {
		if len(a.Shape) != len(rest)+1 {
			return nil, fmt.Errorf("data: concatenating %v and %v: %w", arrays[0].Shape, a.Shape, ErrShape)
		}
		for i, s := range a.Shape[1:] {
			if s != rest[i] {
				return nil, fmt.Errorf("data: concatenating %v and %v: %w", arrays[0].Shape, a.Shape, ErrShape)
			}
		}
		n0 += a.Shape[0]
	}
	o := NewMaskedArray(append([]int{n0}, rest...)...)
	pos := 0
	for _, a := range arrays {
		copy(o.Elements[pos:], a.Elements)
		for i := range a.Elements {
			if a.IsMasked(i) {
				o.SetMasked(pos+i, true)
			}
		}
		pos += len(a.Elements)
	}
	return o, nil
}

// strides returns the row-major strides of shape.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// Unravel converts flat index i into a multi-index over shape, writing it
// into idx.
func Unravel(i int, shape []int, idx []int) {
	for d := len(shape) - 1; d >= 0; d-- {
		if shape[d] == 0 {
			idx[d] = 0
			continue
		}
		idx[d] = i % shape[d]
		i /= shape[d]
	}
}

// Ravel converts a multi-index over shape into a flat index.
func Ravel(idx []int, shape []int) int {
	i := 0
	for d, n := range shape {
		i = i*n + idx[d]
	}
	return i
}

// sizeOf returns the number of elements in an array of the given shape.
func sizeOf(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
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
