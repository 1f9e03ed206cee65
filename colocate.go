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
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/colocate/constraint"
	"github.com/spatialmodel/colocate/data"
	"github.com/spatialmodel/colocate/kernel"
)

// Ways of collocating.
const (
	// Lin interpolates a gridded source linearly.
	Lin = "lin"

	// NN takes the nearest source point.
	NN = "nn"

	// Box reduces every source point within a box or cell around each
	// sample position.
	Box = "box"
)

// Options configure Colocate.
type Options struct {
	// How is one of Lin, NN and Box. Lin is the default for gridded
	// sources and Box for ungridded sources.
	How string `validate:"omitempty,oneof=lin nn box"`

	// Kernel is the name of the kernel. It defaults to linear, nn_gridded
	// or moments for gridded sources and to nn_horizontal or moments for
	// ungridded sources.
	Kernel string

	// HSep, ASep, PSep and TSep are the separations as accepted by
	// constraint.ParseSeparation. They are only allowed with How = Box,
	// or with nearest-neighbour kernels on ungridded sources.
	HSep, ASep, PSep, TSep string

	FillValue *float64

	MissingDataForMissingSample bool

	Extrapolate bool

	VarName     string
	VarLongName string
	VarUnits    string

	// StdDevSuffix and NumPointsSuffix rename the extra outputs of the
	// moments kernel.
	StdDevSuffix    string `validate:"omitempty,printascii"`
	NumPointsSuffix string `validate:"omitempty,printascii"`

	ProgressInterval int `validate:"gte=0"`
	LeafSize         int `validate:"gte=0"`

	Log logrus.FieldLogger `validate:"-"`
}

var validate = validator.New()

func (o *Options) hasSeparation() bool {
	return o.HSep != "" || o.ASep != "" || o.PSep != "" || o.TSep != ""
}

// plan resolves how and the kernel for sources that are gridded or not.
func (o *Options) plan(griddedSource bool) (string, kernel.Kernel, error) {
	how := strings.ToLower(o.How)
	if how == "" {
		how = Box
		if griddedSource {
			how = Lin
		}
	}
	name := o.Kernel
	if name == "" {
		switch {
		case how == Lin:
			name = "linear"
		case how == NN && griddedSource:
			name = "nn_gridded"
		case how == NN:
			name = "nn_horizontal"
		default:
			name = "moments"
		}
	}
	k, err := kernel.New(name)
	if err != nil {
		return "", nil, err
	}
	if name == "moments" {
		k = kernel.NewMoments(o.StdDevSuffix, o.NumPointsSuffix)
	}

	ik, interp := k.(kernel.Interpolation)
	_, nearest := k.(*kernel.NearestKernel)
	switch {
	case how == Lin && !griddedSource:
		return "", nil, fmt.Errorf("colocate: linear interpolation needs a gridded source: %w", ErrInvalidOption)
	case how == Lin && !(interp && ik.Method == kernel.Linear):
		return "", nil, fmt.Errorf("colocate: kernel %s cannot be used with how=lin: %w", k.Name(), ErrInvalidOption)
	case how == NN && griddedSource && !(interp && ik.Method == kernel.Nearest):
		return "", nil, fmt.Errorf("colocate: kernel %s cannot be used with how=nn on a gridded source: %w", k.Name(), ErrInvalidOption)
	case how == NN && !griddedSource && !nearest:
		return "", nil, fmt.Errorf("colocate: kernel %s cannot be used with how=nn: %w", k.Name(), ErrInvalidOption)
	case how == Box && interp:
		return "", nil, fmt.Errorf("colocate: kernel %s cannot be used with how=box: %w", k.Name(), ErrInvalidOption)
	case interp && o.hasSeparation():
		return "", nil, fmt.Errorf("colocate: separations cannot be used with kernel %s: %w", k.Name(), ErrInvalidOption)
	}
	return how, k, nil
}

// Colocate returns the values of each source variable at the positions of
// sample. The sources must all be gridded or all be ungridded.
func Colocate(sample data.CommonData, sources data.CommonDataList, opts Options) (data.CommonDataList, error) {
	if err := validate.Struct(&opts); err != nil {
		return nil, fmt.Errorf("colocate: %v: %w", err, ErrInvalidOption)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("colocate: no source variables: %w", data.ErrInvalidVariable)
	}
	if sample == nil {
		return nil, fmt.Errorf("colocate: no sample: %w", data.ErrInvalidVariable)
	}
	griddedSource := sources[0].IsGridded()
	for _, s := range sources[1:] {
		if s.IsGridded() != griddedSource {
			return nil, fmt.Errorf("colocate: sources %s and %s are not both gridded or both ungridded: %w",
				sources[0].Name(), s.Name(), ErrInvalidOption)
		}
	}
	how, k, err := opts.plan(griddedSource)
	if err != nil {
		return nil, err
	}
	sep, err := constraint.ParseSeparation(opts.HSep, opts.ASep, opts.PSep, opts.TSep)
	if err != nil {
		return nil, err
	}

	common := Common{
		Sep:                         sep,
		FillValue:                   opts.FillValue,
		MissingDataForMissingSample: opts.MissingDataForMissingSample,
		Extrapolate:                 opts.Extrapolate,
		VarName:                     opts.VarName,
		VarLongName:                 opts.VarLongName,
		VarUnits:                    opts.VarUnits,
		ProgressInterval:            opts.ProgressInterval,
		LeafSize:                    opts.LeafSize,
		RunID:                       uuid.New().String(),
		Log:                         opts.Log,
	}

	// Gridded sources reduced by point kernels are treated as points.
	var col Collocator
	switch {
	case !sample.IsGridded() && (!griddedSource || how != Lin && how != NN):
		col = &UngriddedUngridded{Common: common}
	case !sample.IsGridded():
		col = &UngriddedGridded{Common: common}
	case !griddedSource:
		col = &GriddedUngridded{Common: common}
	default:
		col = &GriddedGridded{Common: common}
	}
	common.log().WithFields(logrus.Fields{
		"sample":  sample.Name(),
		"sources": strings.Join(sources.Names(), ","),
		"how":     how,
		"kernel":  k.Name(),
		"sep":     sep.String(),
		"driver":  fmt.Sprintf("%T", col),
	}).Info("colocate: starting")
	return col.Colocate(sample, sources, k)
}

// Aggregate reduces each source variable onto the cells of grid, for
// example one built with data.NewRegularGrid. How defaults to Box; the
// sample values of grid are not used.
func Aggregate(sources data.CommonDataList, grid *data.GriddedData, opts Options) (data.CommonDataList, error) {
	if opts.How == "" {
		opts.How = Box
	}
	opts.MissingDataForMissingSample = false
	return Colocate(grid, sources, opts)
}
