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
	"strconv"
	"strings"
)

// Family identifies the value conventions of a family of data sources.
type Family string

// The recognised source families.
const (
	// CF data are unpacked as raw*scale + offset.
	CF Family = "cf"
	// MODIS data are unpacked as (raw - offset) * scale.
	MODIS Family = "modis"
	// CALIPSO data are unpacked as raw/scale + offset.
	CALIPSO Family = "calipso"
	// CloudSat data are unpacked as (raw - offset) / scale.
	CloudSat Family = "cloudsat"
)

// Scaling holds the packing attributes of a variable.
type Scaling struct {
	ScaleFactor *float64
	AddOffset   *float64
	FillValue   *float64

	// ValidRange, if it has two elements, masks raw values outside it.
	ValidRange []float64

	// ValidRangeString is a CALIPSO-style dotted range such as
	// "-0.2...2.5". It is used when ValidRange is empty.
	ValidRangeString string

	// DataType is the declared storage type (e.g. "Float_32"), used to
	// look up CALIPSO fill values.
	DataType string

	// MissOp and Missing mask raw values v for which "v MissOp Missing"
	// holds, as in CloudSat products.
	MissOp  string
	Missing *float64
}

// calipsoFillValues are the fill values of CALIPSO products by declared
// data type.
var calipsoFillValues = map[string]float64{
	"Float_32": -9999,
	"Int_16":   -9999,
	"Int_32":   -9999,
	"UInt_8":   -127,
}

type unpackFunc func(raw, scale, offset float64) float64

// families is the table of value pipelines by source family.
var families = map[Family]struct {
	unpack unpackFunc
	fill   func(s Scaling) (float64, bool)
}{
	CF: {
		unpack: func(v, scale, offset float64) float64 { return v*scale + offset },
		fill:   explicitFill,
	},
	MODIS: {
		unpack: func(v, scale, offset float64) float64 { return (v - offset) * scale },
		fill:   explicitFill,
	},
	CALIPSO: {
		unpack: func(v, scale, offset float64) float64 { return v/scale + offset },
		fill: func(s Scaling) (float64, bool) {
			if f, ok := explicitFill(s); ok {
				return f, true
			}
			f, ok := calipsoFillValues[s.DataType]
			return f, ok
		},
	},
	CloudSat: {
		unpack: func(v, scale, offset float64) float64 { return (v - offset) / scale },
		fill:   explicitFill,
	},
}

func explicitFill(s Scaling) (float64, bool) {
	if s.FillValue == nil {
		return 0, false
	}
	return *s.FillValue, true
}

// ParseFamily returns the family with the given name. The empty name is
// CF.
func ParseFamily(name string) (Family, error) {
	if name == "" {
		return CF, nil
	}
	f := Family(strings.ToLower(name))
	if _, ok := families[f]; !ok {
		return "", fmt.Errorf("data: scaling family %q: %w", name, ErrInvalidDataType)
	}
	return f, nil
}

// ParseDottedRange parses a range of the form "a...b".
func ParseDottedRange(s string) ([]float64, error) {
	parts := strings.Split(s, "...")
	if len(parts) != 2 {
		return nil, fmt.Errorf("data: invalid range %q", s)
	}
	r := make([]float64, 2)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("data: invalid range %q: %v", s, err)
		}
		r[i] = v
	}
	return r, nil
}

// missingPredicate returns the predicate described by a CloudSat
// (missop, missing) pair.
func missingPredicate(op string, missing float64) (func(float64) bool, error) {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "ge", ">=":
		return func(v float64) bool { return v >= missing }, nil
	case "gt", ">":
		return func(v float64) bool { return v > missing }, nil
	case "le", "<=":
		return func(v float64) bool { return v <= missing }, nil
	case "lt", "<":
		return func(v float64) bool { return v < missing }, nil
	case "eq", "==", "=":
		return func(v float64) bool { return v == missing }, nil
	case "ne", "!=":
		return func(v float64) bool { return v != missing }, nil
	}
	return nil, fmt.Errorf("data: unknown missing value operator %q: %w", op, ErrInvalidDataType)
}

// ApplyScaling masks fill and out-of-range values of a and unpacks the
// rest in place following the conventions of family f. NaN values are
// always masked.
func ApplyScaling(f Family, a *MaskedArray, s Scaling) error {
	fam, ok := families[f]
	if !ok {
		return fmt.Errorf("data: scaling family %q: %w", f, ErrInvalidDataType)
	}
	if fill, ok := fam.fill(s); ok {
		a.MaskWhere(func(v float64) bool { return v == fill })
	}
	vr := s.ValidRange
	if len(vr) != 2 && s.ValidRangeString != "" {
		r, err := ParseDottedRange(s.ValidRangeString)
		if err == nil {
			vr = r
		}
	}
	if len(vr) == 2 {
		lo, hi := math.Min(vr[0], vr[1]), math.Max(vr[0], vr[1])
		a.MaskWhere(func(v float64) bool { return v < lo || v > hi })
	}
	if s.Missing != nil && s.MissOp != "" {
		p, err := missingPredicate(s.MissOp, *s.Missing)
		if err != nil {
			return err
		}
		a.MaskWhere(p)
	}
	a.MaskNaN()
	if s.ScaleFactor == nil && s.AddOffset == nil {
		return nil
	}
	scale, offset := 1., 0.
	if s.ScaleFactor != nil {
		scale = *s.ScaleFactor
	}
	if s.AddOffset != nil {
		offset = *s.AddOffset
	}
	for i, v := range a.Elements {
		if !a.IsMasked(i) {
			a.Elements[i] = fam.unpack(v, scale, offset)
		}
	}
	return nil
}
