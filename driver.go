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

package colocate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/colocate/constraint"
	"github.com/spatialmodel/colocate/data"
	"github.com/spatialmodel/colocate/kernel"
)

// DefaultProgressInterval is the number of sample points between progress
// messages.
const DefaultProgressInterval = 100000

// Common holds the settings shared by every driver.
type Common struct {
	// Sep bounds the separation between sample and source points. It is
	// only used by drivers that search for candidate points.
	Sep constraint.Separation

	// FillValue, if not nil, is stored at masked output points and
	// recorded as the missing value of the outputs. Otherwise masked
	// points hold NaN.
	FillValue *float64

	// MissingDataForMissingSample leaves the output masked wherever the
	// sample value is masked.
	MissingDataForMissingSample bool

	// Extrapolate allows interpolation outside of the source grid.
	Extrapolate bool

	// VarName, VarLongName and VarUnits override the name, long name and
	// units of the output variables.
	VarName, VarLongName, VarUnits string

	// ProgressInterval is the number of sample points between progress
	// messages. If zero, DefaultProgressInterval is used.
	ProgressInterval int

	// LeafSize is the leaf size of kd-trees. If zero, a default is used.
	LeafSize int

	// RunID identifies the run in the log and in the history of the
	// outputs.
	RunID string

	Log logrus.FieldLogger
}

// Collocator is implemented by every driver.
type Collocator interface {
	// Colocate returns the values of each source variable, reduced by k,
	// at the positions of sample. Kernels returning several values yield
	// several output variables for each source variable.
	Colocate(sample data.CommonData, sources data.CommonDataList, k kernel.Kernel) (data.CommonDataList, error)
}

func (c *Common) log() logrus.FieldLogger {
	l := c.Log
	if l == nil {
		l = logrus.StandardLogger()
	}
	if c.RunID != "" {
		return l.WithField("run", c.RunID)
	}
	return l
}

// progress returns a function to be called once for each processed sample
// point, which logs the progress every interval points.
func (c *Common) progress(total int) func() {
	interval := c.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	log := c.log()
	startTime := time.Now()
	stepTime := time.Now()
	n := 0
	return func() {
		n++
		if n%interval != 0 {
			return
		}
		log.WithFields(logrus.Fields{
			"processed": n,
			"total":     total,
			"walltime":  time.Since(startTime).Round(time.Millisecond).String(),
			"Δwalltime": time.Since(stepTime).Round(time.Millisecond).String(),
		}).Info("colocate: progress")
		stepTime = time.Now()
	}
}

// outputs collects the values computed for each source variable and each
// kernel output, and turns them into CommonData with the geometry of the
// sample.
type outputs struct {
	c       *Common
	sample  data.CommonData
	sources data.CommonDataList
	k       kernel.Kernel

	arrays [][]*data.MaskedArray // [source][kernel output]
	sv     *data.PointView

	failures map[string]int
	start    time.Time
}

func (c *Common) newOutputs(sample data.CommonData, sources data.CommonDataList, k kernel.Kernel) (*outputs, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("colocate: no source variables: %w", data.ErrInvalidVariable)
	}
	if c.VarName != "" && len(sources) > 1 {
		return nil, fmt.Errorf("colocate: a variable name can only be given for a single source variable, not %d: %w",
			len(sources), ErrInvalidOption)
	}
	sv, err := sample.View()
	if err != nil {
		return nil, fmt.Errorf("colocate: reading sample %s: %w", sample.Name(), err)
	}
	o := &outputs{
		c:        c,
		sample:   sample,
		sources:  sources,
		k:        k,
		sv:       sv,
		failures: make(map[string]int),
		start:    time.Now(),
	}
	shape := sample.Shape()
	fill := math.NaN()
	if c.FillValue != nil {
		fill = *c.FillValue
	}
	o.arrays = make([][]*data.MaskedArray, len(sources))
	for v := range sources {
		o.arrays[v] = make([]*data.MaskedArray, k.ReturnSize())
		for r := range o.arrays[v] {
			a := data.NewMaskedArray(shape...)
			a.Mask = make([]bool, a.Size())
			for i := range a.Elements {
				a.Elements[i] = fill
				a.Mask[i] = true
			}
			o.arrays[v][r] = a
		}
	}
	return o, nil
}

// skip reports whether sample point i is to be left masked because the
// sample value is missing there.
func (o *outputs) skip(i int) bool {
	return o.c.MissingDataForMissingSample && !o.sv.Valid(i, 0)
}

// set stores the kernel results for source v at sample point i. NaN
// results stay masked.
func (o *outputs) set(v, i int, vals []float64) {
	for r, x := range vals {
		if math.IsNaN(x) {
			continue
		}
		a := o.arrays[v][r]
		a.Elements[i] = x
		a.Mask[i] = false
	}
}

// fail records a single-point kernel failure.
func (o *outputs) fail(err error) {
	o.failures[err.Error()]++
}

// pointError reports whether err is a failure confined to one sample
// point.
func pointError(err error) bool {
	return errors.Is(err, kernel.ErrNoCandidates) || errors.Is(err, kernel.ErrOutOfBounds)
}

// eval evaluates f at sample point i for source v, storing its results.
// Errors that are not confined to the point are returned.
func (o *outputs) eval(v, i int, f func() ([]float64, error)) error {
	if o.skip(i) {
		return nil
	}
	vals, err := f()
	if err != nil {
		if pointError(err) {
			o.fail(err)
			return nil
		}
		return err
	}
	o.set(v, i, vals)
	return nil
}

// finish wraps the output arrays with the sample geometry.
func (o *outputs) finish() (data.CommonDataList, error) {
	var out data.CommonDataList
	masked := 0
	for v, src := range o.sources {
		smd := src.Metadata()
		name, long, units := src.Name(), smd.LongName, smd.Units
		if o.c.VarName != "" {
			name = o.c.VarName
		}
		if o.c.VarLongName != "" {
			long = o.c.VarLongName
		}
		if o.c.VarUnits != "" {
			units = o.c.VarUnits
		}
		details := o.k.VariableDetails(name, long, smd.StandardName, units)
		for r, d := range details {
			a := o.arrays[v][r]
			md := &data.Metadata{
				Name:         d.Name,
				LongName:     d.LongName,
				StandardName: d.StandardName,
				Units:        d.Units,
				History:      append([]string(nil), smd.History...),
			}
			// A standard name outside the vocabulary stays a free-form
			// attribute of the primary output.
			if sn, ok := smd.GetMisc("standard_name"); ok && r == 0 && smd.StandardName == "" {
				md.SetMisc("standard_name", sn)
			}
			if o.c.FillValue != nil {
				fv := *o.c.FillValue
				md.MissingValue = &fv
			}
			md.UpdateRange(a)
			md.AddHistory(fmt.Sprintf("collocated %s onto the sampling of %s using kernel %s, %s (run %s)",
				src.Name(), o.sample.Name(), o.k.Name(), o.c.Sep, o.c.RunID))
			cd, err := data.Like(o.sample, a, md)
			if err != nil {
				return nil, err
			}
			masked += a.Size() - a.Count()
			out = append(out, cd)
		}
	}

	log := o.c.log().WithFields(logrus.Fields{
		"outputs":  len(out),
		"points":   o.sv.Len(),
		"masked":   masked,
		"kernel":   o.k.Name(),
		"walltime": time.Since(o.start).Round(time.Millisecond).String(),
	})
	log.Info("colocate: finished")
	if len(o.failures) > 0 {
		reasons := make([]string, 0, len(o.failures))
		total := 0
		for r, n := range o.failures {
			reasons = append(reasons, r)
			total += n
		}
		sort.Strings(reasons)
		f := logrus.Fields{"failed": total}
		for _, r := range reasons {
			f[r] = o.failures[r]
		}
		log.WithFields(f).Warn("colocate: some points could not be computed and were masked")
	}
	return out, nil
}

// sourceView returns the points of a source variable with longitudes
// placed in [start, start+360) and the validity of each value.
func sourceView(src data.CommonData, start float64) (*data.PointView, []bool, error) {
	v, err := src.View()
	if err != nil {
		return nil, nil, fmt.Errorf("colocate: reading source %s: %w", src.Name(), err)
	}
	if col := v.Column(data.Lon); col != nil {
		w := make([]float64, len(col))
		for i, x := range col {
			w[i] = data.WrapLongitude(x, start)
		}
		v.SetAxis(data.Lon, w)
	}
	valid := make([]bool, v.Len())
	for i := range valid {
		valid[i] = v.Valid(i, 0)
	}
	return v, valid, nil
}

// longitudeStart returns the start of the longitude range of a view: -180
// if any longitude is negative, 0 otherwise.
func longitudeStart(v *data.PointView) float64 {
	for _, x := range v.Column(data.Lon) {
		if x < 0 {
			return -180
		}
	}
	return 0
}

// axisCoord returns the coordinate of d along a, or nil.
func axisCoord(d data.CommonData, a data.Axis) *data.Coord {
	if g, ok := d.(*data.GriddedData); ok {
		c, err := g.AxisCoord(a)
		if err != nil {
			return nil
		}
		return c
	}
	return d.Coords().Axis(a)
}

// alignVertical returns the sample view with its altitude and pressure
// columns converted into the units of the source's coordinates.
func alignVertical(sv *data.PointView, sample, source data.CommonData) (*data.PointView, error) {
	o := sv
	for _, a := range []data.Axis{data.Alt, data.Pres} {
		if !sv.Has(a) {
			continue
		}
		sc, oc := axisCoord(sample, a), axisCoord(source, a)
		if sc == nil || oc == nil || sc.Units == "" || oc.Units == "" || sc.Units == oc.Units {
			continue
		}
		f, err := data.ConversionFactor(sc.Units, oc.Units)
		if err != nil {
			return nil, fmt.Errorf("colocate: sample %s and source %s: %w", sc.Identifier(), oc.Identifier(), err)
		}
		col := sv.Column(a)
		w := make([]float64, len(col))
		for i, x := range col {
			w[i] = x * f
		}
		if o == sv {
			o = sv.Clone()
		}
		o.SetAxis(a, w)
	}
	return o, nil
}

// checkAxes returns an error if a nearest-neighbour kernel needs an axis
// the sample or the source lacks.
func checkAxes(k kernel.Kernel, sample, source *data.PointView) error {
	nk, ok := k.(*kernel.NearestKernel)
	if !ok {
		return nil
	}
	for _, a := range nk.Axes() {
		if !sample.Has(a) || !source.Has(a) {
			return fmt.Errorf("colocate: kernel %s needs %s coordinates on the sample and the source: %w",
				k.Name(), a, ErrDimensionMismatch)
		}
	}
	return nil
}
