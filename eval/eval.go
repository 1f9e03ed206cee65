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

package eval

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/spatialmodel/colocate/data"
	"gonum.org/v1/gonum/floats"
)

// Functions returns the functions that can be called from an expression:
//
// 'exp(x)', 'log(x)', 'log10(x)', 'sqrt(x)' and 'abs(x)' apply the
// function of the same name in package math.
//
// 'pow(x, y)' raises x to the power y.
//
// 'min(x, ...)' and 'max(x, ...)' return the smallest and largest of their
// arguments.
func Functions() map[string]govaluate.ExpressionFunction {
	unary := func(name string, f func(float64) float64) govaluate.ExpressionFunction {
		return func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("eval: got %d arguments for function '%s', but needs 1", len(arg), name)
			}
			x, err := toFloat(arg[0])
			if err != nil {
				return nil, err
			}
			return f(x), nil
		}
	}
	variadic := func(name string, f func([]float64) float64) govaluate.ExpressionFunction {
		return func(arg ...interface{}) (interface{}, error) {
			if len(arg) == 0 {
				return nil, fmt.Errorf("eval: function '%s' needs at least 1 argument", name)
			}
			v := make([]float64, len(arg))
			for i, a := range arg {
				x, err := toFloat(a)
				if err != nil {
					return nil, err
				}
				v[i] = x
			}
			return f(v), nil
		}
	}
	return map[string]govaluate.ExpressionFunction{
		"exp":   unary("exp", math.Exp),
		"log":   unary("log", math.Log),
		"log10": unary("log10", math.Log10),
		"sqrt":  unary("sqrt", math.Sqrt),
		"abs":   unary("abs", math.Abs),
		"pow": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("eval: got %d arguments for function 'pow', but needs 2", len(arg))
			}
			x, err := toFloat(arg[0])
			if err != nil {
				return nil, err
			}
			y, err := toFloat(arg[1])
			if err != nil {
				return nil, err
			}
			return math.Pow(x, y), nil
		},
		"min": variadic("min", floats.Min),
		"max": variadic("max", floats.Max),
	}
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	}
	return math.NaN(), fmt.Errorf("eval: %v (%T) is not a number", v, v)
}

// Expression is a parsed arithmetic expression.
type Expression struct {
	src  string
	expr *govaluate.EvaluableExpression
}

// Parse parses expr. The functions in funcs are available in addition to
// those returned by Functions.
func Parse(expr string, funcs map[string]govaluate.ExpressionFunction) (*Expression, error) {
	fs := Functions()
	for k, f := range funcs {
		fs[k] = f
	}
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, fs)
	if err != nil {
		return nil, fmt.Errorf("eval: parsing %q: %v: %w", expr, err, data.ErrInvalidOption)
	}
	return &Expression{src: expr, expr: e}, nil
}

// Vars returns the sorted, unique variable names used in e.
func (e *Expression) Vars() []string {
	seen := make(map[string]bool)
	var o []string
	for _, v := range e.expr.Vars() {
		if !seen[v] {
			seen[v] = true
			o = append(o, v)
		}
	}
	sort.Strings(o)
	return o
}

func (e *Expression) String() string { return e.src }

// Variable is an input to an expression.
type Variable struct {
	// Alias is the name the expression uses for the variable. If empty,
	// the name of Data is used.
	Alias string
	Data  data.CommonData
}

func (v Variable) name() string {
	if v.Alias != "" {
		return v.Alias
	}
	return v.Data.Name()
}

// ParseVariable splits "name:alias" into its parts. Without a colon the
// alias is empty.
func ParseVariable(s string) (name, alias string) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(s), ""
}

// Evaluate evaluates e at every point of vars, which must all have the same
// shape, and returns the result as a variable with the given name and
// units and the geometry of vars[0]. Points where any input is masked, or
// where the result is not a finite number, are masked.
func (e *Expression) Evaluate(vars []Variable, name, units string) (data.CommonData, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("eval: no variables for %q: %w", e.src, data.ErrInvalidVariable)
	}
	byName := make(map[string]*data.MaskedArray, len(vars))
	shape := vars[0].Data.Shape()
	for _, v := range vars {
		if _, ok := byName[v.name()]; ok {
			return nil, fmt.Errorf("eval: variable %s is given twice: %w", v.name(), data.ErrInvalidOption)
		}
		if v.Data.IsGridded() != vars[0].Data.IsGridded() || !sameShape(v.Data.Shape(), shape) {
			return nil, fmt.Errorf("eval: %s of shape %v does not match %s of shape %v: %w",
				v.name(), v.Data.Shape(), vars[0].name(), shape, data.ErrShape)
		}
		a, err := v.Data.Data()
		if err != nil {
			return nil, err
		}
		byName[v.name()] = a
	}
	for _, n := range e.Vars() {
		if _, ok := byName[n]; !ok {
			return nil, fmt.Errorf("eval: %q uses %s, which is not given: %w", e.src, n, data.ErrInvalidVariable)
		}
	}

	out := data.NewMaskedArray(shape...)
	out.Mask = make([]bool, out.Size())
	params := make(map[string]interface{}, len(byName))
	for i := range out.Elements {
		masked := false
		for n, a := range byName {
			if a.IsMasked(i) {
				masked = true
				break
			}
			params[n] = a.Elements[i]
		}
		if masked {
			out.Elements[i], out.Mask[i] = math.NaN(), true
			continue
		}
		r, err := e.expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("eval: evaluating %q at point %d: %v", e.src, i, err)
		}
		x, err := toFloat(r)
		if err != nil {
			return nil, err
		}
		out.Elements[i] = x
		out.Mask[i] = math.IsNaN(x) || math.IsInf(x, 0)
	}

	md := &data.Metadata{Name: name, LongName: e.src, Units: units}
	md.UpdateRange(out)
	md.AddHistory(fmt.Sprintf("evaluated %q with %s", e.src, strings.Join(names(vars), ", ")))
	return data.Like(vars[0].Data, out, md)
}

// Evaluate parses and evaluates expr. See Expression.Evaluate.
func Evaluate(expr string, vars []Variable, name, units string) (data.CommonData, error) {
	e, err := Parse(expr, nil)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(vars, name, units)
}

func names(vars []Variable) []string {
	o := make([]string, len(vars))
	for i, v := range vars {
		o[i] = v.Data.Name()
		if v.Alias != "" {
			o[i] += " as " + v.Alias
		}
	}
	return o
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
