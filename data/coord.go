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

	"github.com/ctessum/sparse"
)

// NoAxis marks a coordinate that does not lie along any of the five axes.
const NoAxis Axis = -1

// Coord is a named array of coordinate values. Dimension coordinates are
// one-dimensional and monotonic; auxiliary coordinates may have any shape.
type Coord struct {
	*Metadata

	Points *MaskedArray

	// Bounds, if not nil, has the shape of Points with a trailing
	// dimension of length 2 holding the lower and upper bound of each
	// point.
	Bounds *sparse.DenseArray

	Axis Axis

	// Dims are the data dimensions the coordinate spans, in the order of
	// the dimensions of Points. They are only meaningful within
	// GriddedData.
	Dims []int

	// Circular is true for a longitude coordinate that wraps around the
	// globe.
	Circular bool
}

// NewCoord returns a coordinate holding points. If axis is NoAxis the axis
// is guessed from the metadata.
func NewCoord(points *MaskedArray, md *Metadata, axis Axis) *Coord {
	if md == nil {
		md = &Metadata{}
	}
	if axis == NoAxis {
		axis = GuessAxis(md)
	}
	md.Shape = append([]int{}, points.Shape...)
	return &Coord{Metadata: md, Points: points, Axis: axis}
}

// NewAxisCoord returns a one-dimensional coordinate along axis a named
// after the axis, with the standard name and the default units of a.
func NewAxisCoord(a Axis, vals []float64) *Coord {
	md := &Metadata{Name: a.String(), StandardName: a.String()}
	switch a {
	case Lat:
		md.Units = "degrees_north"
	case Lon:
		md.Units = "degrees_east"
	case Alt:
		md.Units = "m"
	case Pres:
		md.Units = "Pa"
	case Time:
		md.Units = StandardTimeUnits
	}
	return NewCoord(FromSlice(vals), md, a)
}

// GuessAxis infers the axis of a coordinate from its standard name, units
// and name, in that order of preference.
func GuessAxis(md *Metadata) Axis {
	if a, ok := AxisOfStandardName(md.StandardName); ok {
		return a
	}
	switch md.Units {
	case "degrees_north", "degree_north", "degrees_N":
		return Lat
	case "degrees_east", "degree_east", "degrees_E":
		return Lon
	}
	if IsTimeUnits(md.Units) {
		return Time
	}
	if IsPressureUnits(md.Units) {
		return Pres
	}
	for _, n := range []string{md.Name, md.VarName} {
		switch strings.ToLower(n) {
		case "lat", "latitude":
			return Lat
		case "lon", "long", "longitude":
			return Lon
		case "alt", "altitude", "height":
			return Alt
		case "pres", "pressure", "air_pressure":
			return Pres
		case "time":
			return Time
		}
	}
	return NoAxis
}

// Len returns the number of points in c.
func (c *Coord) Len() int {
	return c.Points.Size()
}

// Value returns the point at flat index i.
func (c *Coord) Value(i int) float64 {
	return c.Points.Elements[i]
}

// Lower returns the lower bound of the point at flat index i.
func (c *Coord) Lower(i int) float64 { return c.Bounds.Elements[2*i] }

// Upper returns the upper bound of the point at flat index i.
func (c *Coord) Upper(i int) float64 { return c.Bounds.Elements[2*i+1] }

// Monotonic reports whether a one-dimensional coordinate is strictly
// monotonic, and if so whether it is ascending.
func (c *Coord) Monotonic() (monotonic, ascending bool) {
	p := c.Points.Elements
	if len(p) < 2 {
		return true, true
	}
	ascending = p[1] > p[0]
	for i := 1; i < len(p); i++ {
		if ascending && !(p[i] > p[i-1]) || !ascending && !(p[i] < p[i-1]) {
			return false, false
		}
	}
	return true, ascending
}

// Validate checks that bounds, if present, are contiguous along a
// one-dimensional coordinate and contain the points.
func (c *Coord) Validate() error {
	if c.Bounds == nil {
		return nil
	}
	n := c.Len()
	if len(c.Bounds.Elements) != 2*n {
		return fmt.Errorf("data: coordinate %s has %d bounds for %d points: %w",
			c.Identifier(), len(c.Bounds.Elements)/2, n, ErrShape)
	}
	for i := 0; i < n; i++ {
		lo, hi := math.Min(c.Lower(i), c.Upper(i)), math.Max(c.Lower(i), c.Upper(i))
		if v := c.Value(i); v < lo || v > hi {
			return fmt.Errorf("data: coordinate %s point %g lies outside its bounds [%g, %g]",
				c.Identifier(), v, lo, hi)
		}
		if len(c.Points.Shape) == 1 && i > 0 && c.Lower(i) != c.Upper(i-1) {
			return fmt.Errorf("data: coordinate %s bounds are not contiguous at %d", c.Identifier(), i)
		}
	}
	return nil
}

// GuessBounds sets contiguous bounds on a one-dimensional coordinate half
// way between neighbouring points, extrapolating half a step at each end.
// Latitude bounds are clipped to [-90, 90].
func (c *Coord) GuessBounds() {
	p := c.Points.Elements
	n := len(p)
	b := sparse.ZerosDense(n, 2)
	if n == 1 {
		b.Elements[0], b.Elements[1] = p[0], p[0]
		c.Bounds = b
		return
	}
	for i := 0; i < n; i++ {
		var lo, hi float64
		if i == 0 {
			lo = p[0] - (p[1]-p[0])/2
		} else {
			lo = (p[i-1] + p[i]) / 2
		}
		if i == n-1 {
			hi = p[n-1] + (p[n-1]-p[n-2])/2
		} else {
			hi = (p[i] + p[i+1]) / 2
		}
		if c.Axis == Lat {
			lo, hi = clip(lo, -90, 90), clip(hi, -90, 90)
		}
		b.Elements[2*i], b.Elements[2*i+1] = lo, hi
	}
	c.Bounds = b
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// BoundsExtent returns the smallest and largest bound, or the smallest
// and largest point if there are no bounds.
func (c *Coord) BoundsExtent() (min, max float64) {
	if c.Bounds == nil {
		return c.Points.MinMax()
	}
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range c.Bounds.Elements {
		min, max = math.Min(min, v), math.Max(max, v)
	}
	return
}

// ConvertUnits converts the points and bounds of c to new units.
func (c *Coord) ConvertUnits(to string) error {
	if c.Axis == Time && IsTimeUnits(c.Units) && TidyUnits(to) == StandardTimeUnits {
		return c.ToStandardTime()
	}
	f, err := ConversionFactor(c.Units, to)
	if err != nil {
		return err
	}
	for i := range c.Points.Elements {
		c.Points.Elements[i] *= f
	}
	if c.Bounds != nil {
		for i := range c.Bounds.Elements {
			c.Bounds.Elements[i] *= f
		}
	}
	c.SetUnits(to)
	return nil
}

// ToStandardTime converts a time coordinate to standard time, honouring
// its CF calendar attribute.
func (c *Coord) ToStandardTime() error {
	cal := c.Calendar()
	model, err := lookupCalendar(cal)
	if err != nil {
		return fmt.Errorf("data: coordinate %s: %w", c.Identifier(), err)
	}
	if c.Units == StandardTimeUnits && model == nil {
		return nil
	}
	if err := ConvertCalendarToStandardTime(c.Points.Elements, c.Units, cal); err != nil {
		return fmt.Errorf("data: coordinate %s: %w", c.Identifier(), err)
	}
	if c.Bounds != nil {
		if err := ConvertCalendarToStandardTime(c.Bounds.Elements, c.Units, cal); err != nil {
			return fmt.Errorf("data: coordinate %s bounds: %w", c.Identifier(), err)
		}
	}
	c.Units = StandardTimeUnits
	if cal != "" {
		c.SetMisc("calendar", StandardCalendar)
	}
	return nil
}

// Calendar returns the CF calendar attribute of c, or "".
func (c *Coord) Calendar() string {
	v, ok := c.GetMisc("calendar")
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Copy returns a deep copy of c.
func (c *Coord) Copy() *Coord {
	o := &Coord{
		Metadata: c.Metadata.Copy(),
		Points:   c.Points.Copy(),
		Axis:     c.Axis,
		Dims:     append([]int(nil), c.Dims...),
		Circular: c.Circular,
	}
	if c.Bounds != nil {
		o.Bounds = c.Bounds.Copy()
	}
	return o
}

// take returns a one-dimensional coordinate holding the points at the
// given flat indices.
func (c *Coord) take(idx []int) *Coord {
	o := &Coord{
		Metadata: c.Metadata.Copy(),
		Points:   c.Points.Take(idx),
		Axis:     c.Axis,
		Circular: c.Circular,
	}
	o.Shape = []int{len(idx)}
	if c.Bounds != nil {
		o.Bounds = sparse.ZerosDense(len(idx), 2)
		for j, i := range idx {
			o.Bounds.Elements[2*j] = c.Lower(i)
			o.Bounds.Elements[2*j+1] = c.Upper(i)
		}
	}
	return o
}

// At returns the value of a gridded coordinate at the data multi-index
// idx, using Dims to select the dimensions the coordinate spans.
func (c *Coord) At(idx []int) float64 {
	i := 0
	for d, n := range c.Points.Shape {
		i = i*n + idx[c.Dims[d]]
	}
	return c.Points.Elements[i]
}

// Criteria select coordinates from a CoordList. Every non-empty field
// must match.
type Criteria struct {
	// Any matches the name, variable name, standard name or long name.
	Any          string
	Name         string
	StandardName string
	LongName     string
	VarName      string

	// Axis matches the axis tag when HasAxis is true.
	Axis    Axis
	HasAxis bool
}

// ByAxis returns criteria selecting the coordinate along a.
func ByAxis(a Axis) Criteria {
	return Criteria{Axis: a, HasAxis: true}
}

// ByName returns criteria selecting a coordinate by any of its names.
func ByName(name string) Criteria {
	return Criteria{Any: name}
}

func (cr Criteria) matches(c *Coord) bool {
	if cr.Any != "" && cr.Any != c.Name && cr.Any != c.VarName &&
		cr.Any != c.StandardName && cr.Any != c.LongName {
		return false
	}
	if cr.Name != "" && cr.Name != c.Name {
		return false
	}
	if cr.StandardName != "" && cr.StandardName != c.StandardName {
		return false
	}
	if cr.LongName != "" && cr.LongName != c.LongName {
		return false
	}
	if cr.VarName != "" && cr.VarName != c.VarName {
		return false
	}
	if cr.HasAxis && cr.Axis != c.Axis {
		return false
	}
	return true
}

func (cr Criteria) String() string {
	var s []string
	for _, f := range []struct{ k, v string }{
		{"any", cr.Any}, {"name", cr.Name}, {"standard_name", cr.StandardName},
		{"long_name", cr.LongName}, {"var_name", cr.VarName},
	} {
		if f.v != "" {
			s = append(s, f.k+"="+f.v)
		}
	}
	if cr.HasAxis {
		s = append(s, "axis="+cr.Axis.String())
	}
	return strings.Join(s, ",")
}

// CoordList is an ordered collection of coordinates that is unique on the
// pair (standard name, axis). Coordinates without a standard name are
// keyed by their name instead.
type CoordList []*Coord

func coordKey(c *Coord) string {
	n := c.StandardName
	if n == "" {
		n = c.Name
	}
	return fmt.Sprintf("%s|%d", n, c.Axis)
}

// NewCoordList returns a list holding coords, or an error wrapping
// ErrDuplicateCoordinate.
func NewCoordList(coords ...*Coord) (CoordList, error) {
	var l CoordList
	for _, c := range coords {
		if err := l.Add(c); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add appends c to the list.
func (l *CoordList) Add(c *Coord) error {
	k := coordKey(c)
	for _, o := range *l {
		if coordKey(o) == k {
			return fmt.Errorf("data: adding coordinate %s: %w", c.Identifier(), ErrDuplicateCoordinate)
		}
	}
	*l = append(*l, c)
	return nil
}

// Find returns every coordinate matching cr.
func (l CoordList) Find(cr Criteria) CoordList {
	var o CoordList
	for _, c := range l {
		if cr.matches(c) {
			o = append(o, c)
		}
	}
	return o
}

// Get returns the single coordinate matching cr. Zero or multiple matches
// return an error wrapping ErrCoordinateNotFound.
func (l CoordList) Get(cr Criteria) (*Coord, error) {
	m := l.Find(cr)
	switch len(m) {
	case 1:
		return m[0], nil
	case 0:
		return nil, fmt.Errorf("data: no coordinate matching %s: %w", cr, ErrCoordinateNotFound)
	default:
		return nil, fmt.Errorf("data: %d coordinates match %s: %w", len(m), cr, ErrCoordinateNotFound)
	}
}

// Axis returns the coordinate along a, or nil if there is none or more
// than one.
func (l CoordList) Axis(a Axis) *Coord {
	c, err := l.Get(ByAxis(a))
	if err != nil {
		return nil
	}
	return c
}

// Has reports whether exactly one coordinate lies along a.
func (l CoordList) Has(a Axis) bool {
	return l.Axis(a) != nil
}

// Copy returns a deep copy of l.
func (l CoordList) Copy() CoordList {
	o := make(CoordList, len(l))
	for i, c := range l {
		o[i] = c.Copy()
	}
	return o
}
