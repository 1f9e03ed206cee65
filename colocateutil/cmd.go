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

	"github.com/joho/godotenv"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/colocate"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	colFlags := []*pflag.FlagSet{colCmd.Flags(), aggregateCmd.Flags()}
	readFlags := []*pflag.FlagSet{colCmd.Flags(), aggregateCmd.Flags(), subsetCmd.Flags(), evalCmd.Flags()}

	// Options are the configuration options available to colocate.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "EnvFile",
			usage: `
              EnvFile is a file of KEY=value lines that are loaded into the
              environment, if it exists, before configuration variables are read
              from the environment.`,
			defaultVal: ".env",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to a file that log messages are written to in
              addition to standard error. The file is rotated when it grows
              large. If empty, messages are only written to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the lowest level of messages that are logged: one of
              debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "SourceFiles",
			usage: `
              SourceFiles are the files holding the source variables. Several files
              are joined along their first dimension. Files may be local paths,
              http(s) URLs or blob storage locations (gs://, s3:// or file://).`,
			defaultVal: []string{},
			flagsets:   readFlags,
		},
		{
			name: "SourceVariables",
			usage: `
              SourceVariables are the names of the variables to read from
              SourceFiles. If empty, every data variable in the first file is read.`,
			defaultVal: []string{},
			flagsets:   readFlags,
		},
		{
			name: "Family",
			usage: `
              Family sets the conventions used to unpack packed values: one of CF,
              MODIS, CALIPSO or CloudSat.`,
			defaultVal: "CF",
			flagsets:   readFlags,
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path the results are written to. Files ending in
              .shp are written as point shapefiles, and any other file as NetCDF.
              Blob storage locations are uploaded after they are written.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   readFlags,
		},
		{
			name: "SampleFiles",
			usage: `
              SampleFiles are the files holding the sample, onto whose points the
              source variables are collocated.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{colCmd.Flags()},
		},
		{
			name: "SampleVariable",
			usage: `
              SampleVariable is the variable of SampleFiles that gives the sampling.
              If empty, the first data variable is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{colCmd.Flags()},
		},
		{
			name: "Grid",
			usage: `
              Grid gives the cells to aggregate onto, one 'axis=[start,end,step]'
              entry per axis, for example 'x=[-180,180,10]'. Time axes take dates
              for start and end and an ISO 8601 duration or a number of days
              for step.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "Limits",
			usage: `
              Limits are the inclusive ranges to keep, one 'axis=[min,max]'
              entry per axis, for example 'y=[-10,10]'.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{subsetCmd.Flags()},
		},
		{
			name: "Expr",
			usage: `
              Expr is the arithmetic expression to evaluate, for example
              '(a - b) / b'. The variables are named by SourceVariables, where
              'name:alias' makes the variable name available as alias.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{evalCmd.Flags()},
		},
		{
			name: "how",
			usage: `
              how is the collocation method: lin, nn or box. It defaults to lin
              for gridded sources and to box for ungridded sources.`,
			defaultVal: "",
			flagsets:   colFlags,
		},
		{
			name: "kernel",
			usage: `
              kernel is the name of the kernel used to reduce the source points
              found for each sample point.`,
			defaultVal: "",
			flagsets:   colFlags,
		},
		{
			name: "h_sep",
			usage: `
              h_sep is the largest horizontal separation, in km unless units are
              given, for example '500km' or '10000m'.`,
			defaultVal: "",
			flagsets:   colFlags,
		},
		{
			name: "a_sep",
			usage: `
              a_sep is the largest altitude separation, in m unless units are given.`,
			defaultVal: "",
			flagsets:   colFlags,
		},
		{
			name: "p_sep",
			usage: `
              p_sep is the largest ratio between sample and source pressures.`,
			defaultVal: "",
			flagsets:   colFlags,
		},
		{
			name: "t_sep",
			usage: `
              t_sep is the largest time separation as an ISO 8601 duration, for
              example 'P1DT12H'.`,
			defaultVal: "",
			flagsets:   colFlags,
		},
		{
			name: "fill_value",
			usage: `
              fill_value is written in place of masked results. If empty, masked
              results are written as NaN.`,
			defaultVal: "",
			flagsets:   colFlags,
		},
		{
			name: "missing_data_for_missing_sample",
			usage: `
              missing_data_for_missing_sample specifies whether sample points
              whose value is masked give masked results.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{colCmd.Flags()},
		},
		{
			name: "extrapolate",
			usage: `
              extrapolate specifies whether gridded sources are extrapolated
              beyond their outermost points.`,
			defaultVal: false,
			flagsets:   colFlags,
		},
		{
			name: "var_name",
			usage: `
              var_name renames the result, which is otherwise named after the
              source variable.`,
			defaultVal: "",
			flagsets:   readFlags,
		},
		{
			name: "var_long_name",
			usage: `
              var_long_name sets the long name of the result.`,
			defaultVal: "",
			flagsets:   colFlags,
		},
		{
			name: "var_units",
			usage: `
              var_units sets the units of the result.`,
			defaultVal: "",
			flagsets:   readFlags,
		},
		{
			name: "ProgressInterval",
			usage: `
              ProgressInterval is the number of sample points between progress
              messages.`,
			defaultVal: colocate.DefaultProgressInterval,
			flagsets:   colFlags,
		},
		{
			name: "LeafSize",
			usage: `
              LeafSize is the number of points in the leaves of the search tree.`,
			defaultVal: 10,
			flagsets:   colFlags,
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("COLOCATE")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(colCmd)
	Root.AddCommand(aggregateCmd)
	Root.AddCommand(subsetCmd)
	Root.AddCommand(evalCmd)
}

// setConfig loads the environment file and finds and reads in the
// configuration file, if there are any.
func setConfig() error {
	if env := Cfg.GetString("EnvFile"); env != "" {
		if _, err := os.Stat(env); err == nil {
			if err := godotenv.Load(env); err != nil {
				return fmt.Errorf("colocate: problem reading environment file: %v", err)
			}
		}
	}
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("colocate: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "colocate",
	Short: "Collocate Earth-observation datasets.",
	Long: `colocate reads gridded and ungridded atmospheric datasets, such as
satellite swaths, station time series and model output, and collocates them:
it finds the values of source variables at the points of a sample dataset.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'COLOCATE_var' where 'var' is the
name of the variable to be set. Environment variables can also be set in a
.env file. Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of colocate.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("colocate v%s\n", colocate.Version)
	},
	DisableAutoGenTag: true,
}

// colCmd collocates source variables onto a sample.
var colCmd = &cobra.Command{
	Use:   "col",
	Short: "Collocate variables onto a sample.",
	Long: `col finds the values of the variables in SourceFiles at the points of
the sample in SampleFiles and writes them to OutputFile. Gridded sources are
interpolated (how=lin or how=nn); ungridded sources, and gridded sources with
how=box, are reduced with a kernel over the source points within the
separations h_sep, a_sep, p_sep and t_sep of each sample point, or within each
sample grid cell.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.TODO()
		log, err := newLogger(Cfg.GetString("LogFile"), Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		opts, err := colocateOptions(Cfg)
		if err != nil {
			return err
		}
		opts.Log = log
		outputFile, err := checkOutputFile(ctx, Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		return Col(ctx, log,
			expandStringSlice(Cfg.GetStringSlice("SampleFiles")),
			os.ExpandEnv(Cfg.GetString("SampleVariable")),
			expandStringSlice(Cfg.GetStringSlice("SourceFiles")),
			expandStringSlice(Cfg.GetStringSlice("SourceVariables")),
			Cfg.GetString("Family"),
			opts, outputFile)
	},
	DisableAutoGenTag: true,
}

// aggregateCmd aggregates source variables onto a regular grid.
var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate variables onto a regular grid.",
	Long: `aggregate reduces the variables in SourceFiles onto the cells of the
regular grid given by Grid and writes them to OutputFile. By default every
source point within a cell is averaged; use kernel to choose another
reduction.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.TODO()
		log, err := newLogger(Cfg.GetString("LogFile"), Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		opts, err := colocateOptions(Cfg)
		if err != nil {
			return err
		}
		opts.Log = log
		outputFile, err := checkOutputFile(ctx, Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		grid, err := parseGrid(expandStringSlice(Cfg.GetStringSlice("Grid")))
		if err != nil {
			return err
		}
		return Aggregate(ctx, log,
			expandStringSlice(Cfg.GetStringSlice("SourceFiles")),
			expandStringSlice(Cfg.GetStringSlice("SourceVariables")),
			Cfg.GetString("Family"),
			grid, opts, outputFile)
	},
	DisableAutoGenTag: true,
}

// subsetCmd keeps the parts of variables that lie within limits.
var subsetCmd = &cobra.Command{
	Use:   "subset",
	Short: "Subset variables.",
	Long: `subset keeps the points (for ungridded variables) or the slabs (for
gridded variables) of the variables in SourceFiles that lie within every one
of Limits, and writes them to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.TODO()
		log, err := newLogger(Cfg.GetString("LogFile"), Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(ctx, Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		limits, err := parseLimits(expandStringSlice(Cfg.GetStringSlice("Limits")))
		if err != nil {
			return err
		}
		return Subset(ctx, log,
			expandStringSlice(Cfg.GetStringSlice("SourceFiles")),
			expandStringSlice(Cfg.GetStringSlice("SourceVariables")),
			Cfg.GetString("Family"),
			limits, outputFile)
	},
	DisableAutoGenTag: true,
}

// evalCmd evaluates an expression over variables.
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate an expression over variables.",
	Long: `eval evaluates the arithmetic expression Expr at every point of the
variables in SourceFiles, which must all have the same shape, and writes the
result, named var_name with units var_units, to OutputFile. Points where any
variable is masked are masked in the result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.TODO()
		log, err := newLogger(Cfg.GetString("LogFile"), Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(ctx, Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		name := os.ExpandEnv(Cfg.GetString("var_name"))
		if name == "" {
			name = "result"
		}
		return Eval(ctx, log,
			expandStringSlice(Cfg.GetStringSlice("SourceFiles")),
			expandStringSlice(Cfg.GetStringSlice("SourceVariables")),
			Cfg.GetString("Family"),
			os.ExpandEnv(Cfg.GetString("Expr")),
			name, os.ExpandEnv(Cfg.GetString("var_units")),
			outputFile)
	},
	DisableAutoGenTag: true,
}
