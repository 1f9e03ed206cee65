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

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/colocate"
	"github.com/spatialmodel/colocate/data"
	"github.com/spatialmodel/colocate/eval"
	"github.com/spatialmodel/colocate/reader"
	"github.com/spatialmodel/colocate/writer"
)

// newReader returns a NetCDF reader for the named scaling family.
func newReader(family string, log logrus.FieldLogger) (*reader.NetCDF, error) {
	f, err := data.ParseFamily(family)
	if err != nil {
		return nil, err
	}
	return &reader.NetCDF{Family: f, Log: log}, nil
}

// readVariables downloads files if necessary and reads the named
// variables from them, or every variable if names is empty.
func readVariables(ctx context.Context, r *reader.NetCDF, files, names []string, log logrus.FieldLogger) (data.CommonDataList, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("colocate: no input files: %w", data.ErrInvalidOption)
	}
	files, err := maybeDownloadAll(ctx, files, log)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		if names, err = r.Variables(files); err != nil {
			return nil, err
		}
	}
	vars := make(data.CommonDataList, len(names))
	for i, n := range names {
		if vars[i], err = r.Read(files, n); err != nil {
			return nil, err
		}
	}
	return vars, nil
}

// writeOutput writes vars to outputFile, as a shapefile if it ends in
// .shp and as NetCDF otherwise, uploading it if it is a blob storage
// location.
func writeOutput(ctx context.Context, outputFile string, vars data.CommonDataList, log logrus.FieldLogger) error {
	var u uploader
	local := u.maybeUpload(outputFile)
	if u.err != nil {
		return fmt.Errorf("colocate: preparing upload: %v", u.err)
	}
	if strings.ToLower(filepath.Ext(local)) == ".shp" {
		if _, err := writer.Shapefile(local, vars); err != nil {
			return err
		}
	} else {
		f, err := os.Create(local)
		if err != nil {
			return fmt.Errorf("colocate: creating output file: %v", err)
		}
		if err := writer.NetCDF(f, vars); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("colocate: closing output file: %v", err)
		}
	}
	if err := u.uploadOutput(ctx); err != nil {
		return err
	}
	log.WithField("variables", vars.Names()).Infof("wrote %s", outputFile)
	return nil
}

// Col collocates the sourceVariables held in sourceFiles onto the points of
// sampleVariable in sampleFiles and writes the results to outputFile.
// If sampleVariable is empty the first variable of sampleFiles is used,
// and if sourceVariables is empty every variable of sourceFiles is
// collocated.
func Col(ctx context.Context, log logrus.FieldLogger, sampleFiles []string, sampleVariable string, sourceFiles, sourceVariables []string, family string, opts colocate.Options, outputFile string) error {
	r, err := newReader(family, log)
	if err != nil {
		return err
	}
	var sampleNames []string
	if sampleVariable != "" {
		sampleNames = []string{sampleVariable}
	}
	samples, err := readVariables(ctx, r, sampleFiles, sampleNames, log)
	if err != nil {
		return err
	}
	sources, err := readVariables(ctx, r, sourceFiles, sourceVariables, log)
	if err != nil {
		return err
	}
	log.Infof("collocating %v onto %s", sources.Names(), samples[0].Name())
	out, err := colocate.Colocate(samples[0], sources, opts)
	if err != nil {
		return err
	}
	return writeOutput(ctx, outputFile, out, log)
}

// Aggregate reduces the sourceVariables held in sourceFiles onto the cells
// of grid and writes the results to outputFile.
func Aggregate(ctx context.Context, log logrus.FieldLogger, sourceFiles, sourceVariables []string, family string, grid *data.GriddedData, opts colocate.Options, outputFile string) error {
	r, err := newReader(family, log)
	if err != nil {
		return err
	}
	sources, err := readVariables(ctx, r, sourceFiles, sourceVariables, log)
	if err != nil {
		return err
	}
	log.Infof("aggregating %v onto a %v grid", sources.Names(), grid.Shape())
	out, err := colocate.Aggregate(sources, grid, opts)
	if err != nil {
		return err
	}
	return writeOutput(ctx, outputFile, out, log)
}

// Subset keeps the parts of the sourceVariables held in sourceFiles that
// lie within limits and writes them to outputFile.
func Subset(ctx context.Context, log logrus.FieldLogger, sourceFiles, sourceVariables []string, family string, limits []data.Limit, outputFile string) error {
	r, err := newReader(family, log)
	if err != nil {
		return err
	}
	sources, err := readVariables(ctx, r, sourceFiles, sourceVariables, log)
	if err != nil {
		return err
	}
	out := make(data.CommonDataList, 0, len(sources))
	for _, s := range sources {
		sub, err := s.Subset(limits...)
		if err != nil {
			return err
		}
		if sub == nil {
			return fmt.Errorf("colocate: no points of %s are within the limits: %w", s.Name(), data.ErrShape)
		}
		out = append(out, sub)
	}
	return writeOutput(ctx, outputFile, out, log)
}

// Eval evaluates expr over the variables held in sourceFiles and writes the
// result, with the given name and units, to outputFile. Each of variables
// is either a variable name or "name:alias".
func Eval(ctx context.Context, log logrus.FieldLogger, sourceFiles, variables []string, family, expr, name, units string, outputFile string) error {
	r, err := newReader(family, log)
	if err != nil {
		return err
	}
	names := make([]string, len(variables))
	aliases := make([]string, len(variables))
	for i, v := range variables {
		names[i], aliases[i] = eval.ParseVariable(v)
	}
	if len(names) == 0 {
		return fmt.Errorf("colocate: eval needs SourceVariables: %w", data.ErrInvalidOption)
	}
	sources, err := readVariables(ctx, r, sourceFiles, names, log)
	if err != nil {
		return err
	}
	vars := make([]eval.Variable, len(sources))
	for i, s := range sources {
		vars[i] = eval.Variable{Alias: aliases[i], Data: s}
	}
	out, err := eval.Evaluate(expr, vars, name, units)
	if err != nil {
		return err
	}
	return writeOutput(ctx, outputFile, data.CommonDataList{out}, log)
}
