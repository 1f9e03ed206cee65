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
	"strings"
	"time"

	"github.com/brunoga/deep"
	"github.com/iancoleman/orderedmap"
)

// Metadata describes a variable or coordinate. It is immutable by
// convention: methods that change it are used while a dataset is being
// built, and Copy is used before handing a modified version on.
type Metadata struct {
	// Name identifies the variable within the toolkit.
	Name string

	// VarName is the name of the variable in the file it was read from.
	VarName string

	// StandardName is a CF standard name; set it with SetStandardName so
	// it is checked against the vocabulary.
	StandardName string

	LongName string

	// Units are stored tidied; see TidyUnits.
	Units string

	Shape []int

	// Range holds the minimum and maximum of the valid values, if known.
	Range []float64

	ScaleFactor  *float64
	AddOffset    *float64
	MissingValue *float64

	// History is an append-only list of timestamped processing entries.
	History []string

	// Misc holds any remaining attributes in the order they were read.
	Misc *orderedmap.OrderedMap
}

// NewMetadata returns metadata with the given names and units. An error
// wrapping ErrInvalidStandardName is returned if standardName is not empty
// and not in the vocabulary.
func NewMetadata(name, standardName, longName, units string) (*Metadata, error) {
	m := &Metadata{Name: name, LongName: longName}
	m.SetUnits(units)
	if err := m.SetStandardName(standardName); err != nil {
		return nil, err
	}
	return m, nil
}

// SetStandardName validates and sets the standard name. An empty name
// clears it.
func (m *Metadata) SetStandardName(name string) error {
	if name != "" && !IsStandardName(name) {
		return fmt.Errorf("data: %q: %w", name, ErrInvalidStandardName)
	}
	m.StandardName = name
	return nil
}

// SetUnits tidies and sets the units.
func (m *Metadata) SetUnits(units string) {
	m.Units = TidyUnits(units)
}

// Identifier returns the first non-empty of Name, VarName, StandardName
// and LongName.
func (m *Metadata) Identifier() string {
	for _, s := range []string{m.Name, m.VarName, m.StandardName, m.LongName} {
		if s != "" {
			return s
		}
	}
	return ""
}

// AddHistory appends a UTC-timestamped entry to the history.
func (m *Metadata) AddHistory(entry string) {
	m.History = append(m.History,
		fmt.Sprintf("%s: %s", time.Now().UTC().Format(time.RFC3339), entry))
}

// HistoryString returns the history entries joined by newlines.
func (m *Metadata) HistoryString() string {
	return strings.Join(m.History, "\n")
}

// SetMisc stores a free-form attribute.
func (m *Metadata) SetMisc(key string, value interface{}) {
	if m.Misc == nil {
		m.Misc = orderedmap.New()
	}
	m.Misc.Set(key, value)
}

// GetMisc returns a free-form attribute.
func (m *Metadata) GetMisc(key string) (interface{}, bool) {
	if m.Misc == nil {
		return nil, false
	}
	return m.Misc.Get(key)
}

// UpdateRange sets Range from the non-masked values of a.
func (m *Metadata) UpdateRange(a *MaskedArray) {
	min, max := a.MinMax()
	if math.IsNaN(min) {
		m.Range = nil
		return
	}
	m.Range = []float64{min, max}
}

// Copy returns a deep copy of m.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	misc := m.Misc
	tmp := *m
	tmp.Misc = nil
	o := deep.MustCopy(&tmp)
	if misc != nil {
		o.Misc = orderedmap.New()
		for _, k := range misc.Keys() {
			v, _ := misc.Get(k)
			o.Misc.Set(k, v)
		}
	}
	return o
}

func floatPtr(v float64) *float64 { return &v }
