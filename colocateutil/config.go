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

package colocateutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/colocate"
	"github.com/spatialmodel/colocate/constraint"
	"github.com/spatialmodel/colocate/data"
	"github.com/spf13/cast"
)

// colocateOptions gathers the collocation options held in cfg.
func colocateOptions(cfg *viper.Viper) (colocate.Options, error) {
	o := colocate.Options{
		How:                         strings.ToLower(os.ExpandEnv(cfg.GetString("how"))),
		Kernel:                      os.ExpandEnv(cfg.GetString("kernel")),
		HSep:                        os.ExpandEnv(cfg.GetString("h_sep")),
		ASep:                        os.ExpandEnv(cfg.GetString("a_sep")),
		PSep:                        os.ExpandEnv(cfg.GetString("p_sep")),
		TSep:                        os.ExpandEnv(cfg.GetString("t_sep")),
		MissingDataForMissingSample: cfg.GetBool("missing_data_for_missing_sample"),
		Extrapolate:                 cfg.GetBool("extrapolate"),
		VarName:                     os.ExpandEnv(cfg.GetString("var_name")),
		VarLongName:                 os.ExpandEnv(cfg.GetString("var_long_name")),
		VarUnits:                    os.ExpandEnv(cfg.GetString("var_units")),
	}
	var err error
	if o.ProgressInterval, err = cast.ToIntE(cfg.Get("ProgressInterval")); err != nil {
		return o, fmt.Errorf("colocate: ProgressInterval: %v: %w", err, data.ErrInvalidOption)
	}
	if o.LeafSize, err = cast.ToIntE(cfg.Get("LeafSize")); err != nil {
		return o, fmt.Errorf("colocate: LeafSize: %v: %w", err, data.ErrInvalidOption)
	}
	if o.FillValue, err = fillValue(cfg.Get("fill_value")); err != nil {
		return o, err
	}
	return o, nil
}

// fillValue interprets v as an optional fill value: nil or an empty string
// give no fill value.
func fillValue(v interface{}) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(os.ExpandEnv(s))
		if s == "" {
			return nil, nil
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, fmt.Errorf("colocate: fill_value: %v: %w", err, data.ErrInvalidOption)
	}
	return &f, nil
}

// gridStep parses the step of a grid specification. Numbers are taken
// as they are, and anything else as an ISO 8601 duration in days.
func gridStep(s string) (float64, error) {
	if v, err := cast.ToFloat64E(strings.TrimSpace(s)); err == nil {
		return v, nil
	}
	return constraint.ParseTSep(s)
}

// parseGrid creates the regular grid described by specs.
func parseGrid(specs []string) (*data.GriddedData, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("colocate: Grid must be set: %w", data.ErrInvalidOption)
	}
	gs := make([]data.GridSpec, len(specs))
	for i, s := range specs {
		var err error
		if gs[i], err = data.ParseGridSpec(s, gridStep); err != nil {
			return nil, err
		}
	}
	return data.NewRegularGrid(gs...)
}

// parseLimits parses "axis=[min,max]" limits.
func parseLimits(specs []string) ([]data.Limit, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("colocate: Limits must be set: %w", data.ErrInvalidOption)
	}
	limits := make([]data.Limit, len(specs))
	for i, s := range specs {
		var err error
		if limits[i], err = data.ParseLimit(s); err != nil {
			return nil, err
		}
	}
	return limits, nil
}

// checkOutputFile checks to make sure that the output directory exists,
// creating it if necessary. Blob storage locations are not checked.
func checkOutputFile(ctx context.Context, f string) (string, error) {
	f = os.ExpandEnv(f)
	if f == "" {
		return "", fmt.Errorf("colocate: OutputFile must be set: %w", data.ErrInvalidOption)
	}
	if IsBlob(f) {
		return f, nil
	}
	outdir := filepath.Dir(f)
	if err := os.MkdirAll(outdir, os.ModePerm); err != nil {
		return "", fmt.Errorf("colocate: problem creating output directory: %v", err)
	}
	return f, nil
}

// expandStringSlice replaces environment variables in the elements of s,
// dropping elements that become empty.
func expandStringSlice(s []string) []string {
	o := make([]string, 0, len(s))
	for _, v := range s {
		v = strings.TrimSpace(os.ExpandEnv(v))
		if v != "" {
			o = append(o, v)
		}
	}
	return o
}
