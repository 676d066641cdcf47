/*
Copyright © 2019 the adm1char authors.
This file is part of adm1char.

adm1char is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

adm1char is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with adm1char.  If not, see <http://www.gnu.org/licenses/>.
*/

package adm1char

import (
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"
)

// Variables returns every value in r that can be used in an output
// expression, keyed by name. These are the ADM1 state names, the
// intermediate pool and gas values, and the inputs on a molar basis.
func (r *Result) Variables() map[string]float64 {
	v := r.State.Map()
	for i, name := range []string{"VFA", "PRO", "LIP", "CHO"} {
		v["frac_"+name] = r.Fractions.Slice()[i]
		v["conc_"+name] = r.Concentrations.Slice()[i]
	}
	for i, name := range []string{"CH4", "IC", "Alk", "CO2", "pCO2", "vGas", "S_H_ion"} {
		v[name] = r.Gas.Slice()[i]
	}
	v["COD_mol"] = r.Molar.COD
	v["TOC_mol"] = r.Molar.TOC
	v["Norg_mol"] = r.Molar.NOrg
	v["AlkIC_mol"] = r.Molar.AlkIC
	v["AlkVFA_mol"] = r.Molar.AlkVFA
	return v
}

// outputVariableNames lists the names returned by Result.Variables.
func outputVariableNames() map[string]bool {
	o := make(map[string]bool)
	for k := range new(Result).Variables() {
		o[k] = true
	}
	return o
}

// Outputter calculates user-defined output variables from a Result.
// Each output variable is an expression that can use the names
// returned by Result.Variables, the names of other output variables,
// and functions.
type Outputter struct {
	expressions map[string]*govaluate.EvaluableExpression
	order       []string
}

// NewOutputter parses outputVariables, which maps output names to
// expressions. The default functions are:
//
// 'exp(x)', which applies the exponential function e^x,
//
// 'log10(x)', which returns the base-10 logarithm of x, and
//
// 'abs(x)', which returns the absolute value of x.
//
// Additional functions can be given in outputFunctions.
func NewOutputter(outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp":   unaryFunc("exp", math.Exp),
		"log10": unaryFunc("log10", math.Log10),
		"abs":   unaryFunc("abs", math.Abs),
	}
	for k, f := range outputFunctions {
		funcs[k] = f
	}

	builtin := outputVariableNames()
	o := &Outputter{expressions: make(map[string]*govaluate.EvaluableExpression)}
	for name, expr := range outputVariables {
		if builtin[name] {
			return nil, fmt.Errorf("adm1char: output variable '%s' shadows a built-in variable", name)
		}
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, funcs)
		if err != nil {
			return nil, fmt.Errorf("adm1char: output variable '%s': %v", name, err)
		}
		o.expressions[name] = e
	}
	for name, e := range o.expressions {
		for _, v := range e.Vars() {
			if _, ok := o.expressions[v]; !ok && !builtin[v] {
				return nil, fmt.Errorf("adm1char: output variable '%s': undefined variable name '%s'", name, v)
			}
		}
	}
	order, err := o.sortDependencies()
	if err != nil {
		return nil, err
	}
	o.order = order
	return o, nil
}

// unaryFunc wraps f as a one-argument expression function.
func unaryFunc(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("adm1char: got %d arguments for function '%s', but needs 1", len(args), name)
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("adm1char: function '%s' needs a number, got %T", name, args[0])
		}
		return f(x), nil
	}
}

// sortDependencies orders the output variables so that each one comes
// after the output variables it refers to.
func (o *Outputter) sortDependencies() ([]string, error) {
	names := o.Names()
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(names))
	var order []string
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("adm1char: output variable '%s' refers to itself", name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, v := range o.expressions[name].Vars() {
			if _, ok := o.expressions[v]; ok {
				if err := visit(v); err != nil {
					return err
				}
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Names returns the names of the output variables in sorted order.
func (o *Outputter) Names() []string {
	names := make([]string, 0, len(o.expressions))
	for k := range o.expressions {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Evaluate calculates the output variables for r.
func (o *Outputter) Evaluate(r *Result) (map[string]float64, error) {
	params := make(map[string]interface{})
	for k, v := range r.Variables() {
		params[k] = v
	}
	out := make(map[string]float64, len(o.order))
	for _, name := range o.order {
		v, err := o.expressions[name].Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("adm1char: evaluating output variable '%s': %v", name, err)
		}
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("adm1char: output variable '%s' evaluated to %T, not a number", name, v)
		}
		out[name] = f
		params[name] = f
	}
	return out, nil
}
