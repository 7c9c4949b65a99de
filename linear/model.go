// Copyright 2010-2025 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package linear offers a user-friendly API to build mixed-integer linear programs.
//
// The `Builder` struct accumulates variables, rows and an objective into a plain
// `ModelData` value that solver adapters consume.
// The `Var` and `Constraint` structs are references to specific elements of that model
// and provide helpful methods for naming and inspecting them.
// The `LinearExpr` struct provides helper methods for creating constraints and the
// objective from expressions with many variables and coefficients.
package linear

import (
	"errors"
	"fmt"
	"math"
	"sort"

	log "github.com/golang/glog"
)

var (
	// ErrMixedModels holds the error when elements added to a model are different.
	ErrMixedModels = errors.New("elements are not part of the same model")
	// ErrDuplicateName holds the error when a variable or constraint name is reused.
	ErrDuplicateName = errors.New("name already exists")
)

type (
	// VarIndex is the index of a variable in the model.
	VarIndex int32
	// ConstrIndex is the index of a constraint in the model.
	ConstrIndex int32
)

// VarType is the domain of a variable.
type VarType int

const (
	// Continuous variables take any real value within their bounds.
	Continuous VarType = iota
	// Integer variables take integral values within their bounds.
	Integer
	// Binary variables are integer variables restricted to {0, 1}.
	Binary
)

func (t VarType) String() string {
	switch t {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	}
	return fmt.Sprintf("VarType(%d)", int(t))
}

// Relation is the comparison operator of a constraint.
type Relation int

const (
	// LessOrEqual is `expr <= rhs`.
	LessOrEqual Relation = iota
	// Equal is `expr == rhs`.
	Equal
	// GreaterOrEqual is `expr >= rhs`.
	GreaterOrEqual
)

func (r Relation) String() string {
	switch r {
	case LessOrEqual:
		return "<="
	case Equal:
		return "=="
	case GreaterOrEqual:
		return ">="
	}
	return fmt.Sprintf("Relation(%d)", int(r))
}

// Sense is the optimization direction of the objective.
type Sense int

const (
	// Minimize the objective.
	Minimize Sense = iota
	// Maximize the objective.
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// LinearArgument provides an interface for Var and LinearExpr.
type LinearArgument interface {
	addToLinearExpr(e *LinearExpr, c float64)
	evaluate(values []float64) float64
}

// LinearExpr is a container for a linear expression.
type LinearExpr struct {
	varCoeffs []varCoeff
	offset    float64
	// owner is the builder of the first variable added; mixed is set once a
	// variable of another builder joins.
	owner *Builder
	mixed bool
}

type varCoeff struct {
	ind   VarIndex
	coeff float64
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates and returns a LinearExpr containing the constant `c`.
func NewConstant(c float64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add adds the linear argument term to the LinearExpr and returns itself.
func (l *LinearExpr) Add(la LinearArgument) *LinearExpr {
	l.AddTerm(la, 1)
	return l
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c float64) *LinearExpr {
	l.offset += c
	return l
}

// AddTerm adds the linear argument term with the given coefficient to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(la LinearArgument, coeff float64) *LinearExpr {
	la.addToLinearExpr(l, coeff)
	return l
}

// AddSum adds the sum of the linear arguments to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(las ...LinearArgument) *LinearExpr {
	for _, la := range las {
		l.Add(la)
	}
	return l
}

// AddWeightedSum adds the linear arguments with the corresponding coefficients to the LinearExpr
// and returns itself.
func (l *LinearExpr) AddWeightedSum(las []LinearArgument, coeffs []float64) *LinearExpr {
	if len(coeffs) != len(las) {
		log.Fatalf("las and coeffs must be the same length: %v != %v", len(las), len(coeffs))
	}
	for i, la := range las {
		l.AddTerm(la, coeffs[i])
	}
	return l
}

// Offset returns the constant term of the expression.
func (l *LinearExpr) Offset() float64 {
	return l.offset
}

// Len returns the number of variable terms in the expression, duplicates included.
func (l *LinearExpr) Len() int {
	return len(l.varCoeffs)
}

func (l *LinearExpr) addToLinearExpr(e *LinearExpr, c float64) {
	for _, vc := range l.varCoeffs {
		e.varCoeffs = append(e.varCoeffs, varCoeff{ind: vc.ind, coeff: vc.coeff * c})
	}
	e.offset += l.offset * c
	if l.owner != nil {
		e.noteOwner(l.owner)
	}
	e.mixed = e.mixed || l.mixed
}

func (l *LinearExpr) noteOwner(b *Builder) {
	switch {
	case l.owner == nil:
		l.owner = b
	case l.owner != b:
		l.mixed = true
	}
}

func (l *LinearExpr) evaluate(values []float64) float64 {
	result := l.offset
	for _, vc := range l.varCoeffs {
		result += valueAt(values, vc.ind) * vc.coeff
	}
	return result
}

// merged returns the terms with duplicate variables summed, in order of first
// appearance. Terms whose coefficients cancel out are dropped.
func (l *LinearExpr) merged() ([]VarIndex, []float64) {
	pos := make(map[VarIndex]int, len(l.varCoeffs))
	var inds []VarIndex
	var coeffs []float64
	for _, vc := range l.varCoeffs {
		if p, ok := pos[vc.ind]; ok {
			coeffs[p] += vc.coeff
			continue
		}
		pos[vc.ind] = len(inds)
		inds = append(inds, vc.ind)
		coeffs = append(coeffs, vc.coeff)
	}
	n := 0
	for i := range inds {
		if coeffs[i] == 0 {
			continue
		}
		inds[n], coeffs[n] = inds[i], coeffs[i]
		n++
	}
	return inds[:n], coeffs[:n]
}

// valueAt returns values[ind], treating indices past the end as zero.
func valueAt(values []float64, ind VarIndex) float64 {
	if int(ind) >= len(values) {
		return 0
	}
	return values[ind]
}

// Evaluate returns the value of `la` under the given variable values. Missing values
// are treated as zero.
func Evaluate(la LinearArgument, values []float64) float64 {
	return la.evaluate(values)
}

// Var is a reference to a variable in the model.
type Var struct {
	ind VarIndex
	b   *Builder
}

// Name returns the name of the variable.
func (v Var) Name() string {
	return v.b.data.Variables[v.ind].Name
}

// Index returns the index of the variable.
func (v Var) Index() VarIndex {
	return v.ind
}

// Bounds returns the bounds of the variable.
func (v Var) Bounds() Interval {
	vd := v.b.data.Variables[v.ind]
	return Interval{vd.Lower, vd.Upper}
}

// Type returns the domain type of the variable.
func (v Var) Type() VarType {
	return v.b.data.Variables[v.ind].Type
}

// WithName sets the name of the variable. Reusing the name of another variable
// records an error that is reported by Builder.Model.
func (v Var) WithName(s string) Var {
	v.b.renameVar(v.ind, s)
	return v
}

func (v Var) addToLinearExpr(e *LinearExpr, c float64) {
	e.varCoeffs = append(e.varCoeffs, varCoeff{ind: v.ind, coeff: c})
	e.noteOwner(v.b)
}

func (v Var) evaluate(values []float64) float64 {
	return valueAt(values, v.ind)
}

// Constraint is a reference to a constraint in the model.
type Constraint struct {
	ind ConstrIndex
	b   *Builder
}

// WithName sets the name of the constraint. Reusing the name of another constraint
// records an error that is reported by Builder.Model.
func (c Constraint) WithName(s string) Constraint {
	c.b.renameConstraint(c.ind, s)
	return c
}

// Name returns the name of the constraint.
func (c Constraint) Name() string {
	return c.b.data.Constraints[c.ind].Name
}

// Index returns the index of the constraint.
func (c Constraint) Index() ConstrIndex {
	return c.ind
}

// Bounds returns the interval the row activity is constrained to.
func (c Constraint) Bounds() Interval {
	row := c.b.data.Constraints[c.ind]
	return Interval{row.Lower, row.Upper}
}

// VariableData describes one column of the model.
type VariableData struct {
	Name  string
	Lower float64
	Upper float64
	Type  VarType
}

// RowData describes one constraint `Lower <= sum(Coeffs[i] * x[Vars[i]]) <= Upper`.
type RowData struct {
	Name   string
	Vars   []VarIndex
	Coeffs []float64
	Lower  float64
	Upper  float64
}

// ObjectiveData is the linear objective of the model.
type ObjectiveData struct {
	Vars   []VarIndex
	Coeffs []float64
	Offset float64
	Sense  Sense
}

// PartialAssignment is a solution hint for a subset of the variables, sorted by index.
type PartialAssignment struct {
	Vars   []VarIndex
	Values []float64
}

// ModelData is the complete model handed to a Solver.
type ModelData struct {
	Name        string
	Variables   []*VariableData
	Constraints []*RowData
	Objective   ObjectiveData
	Hint        *PartialAssignment
}

// checkSameModelAndSetErrorf returns true if `b` and `b2` point to the same Builder.
// If false, an error with the error message `errString` is set on `b` if `b.err`
// is nil.
func (b *Builder) checkSameModelAndSetErrorf(b2 *Builder, format string, a ...any) bool {
	if b == b2 {
		return true
	}
	var args = make([]any, len(a)+1)
	copy(args, a)
	args[len(a)] = ErrMixedModels
	b.setErr(fmt.Errorf(format+": %w", args...))
	return false
}

func (b *Builder) setErr(err error) {
	log.Errorf("%v; use `-log_backtrace_at` flag to get the error stack", err)
	if b.err == nil {
		b.err = err
	}
}

// Builder provides a wrapper for building a ModelData.
type Builder struct {
	data     *ModelData
	varNames map[string]VarIndex
	ctNames  map[string]ConstrIndex
	// The first and only the first error is reported in Model.
	err error
}

// NewBuilder creates and returns a new model Builder.
func NewBuilder(name string) *Builder {
	return &Builder{
		data:     &ModelData{Name: name},
		varNames: make(map[string]VarIndex),
		ctNames:  make(map[string]ConstrIndex),
	}
}

// NumVariables returns the number of variables created so far.
func (b *Builder) NumVariables() int {
	return len(b.data.Variables)
}

// NumConstraints returns the number of constraints created so far.
func (b *Builder) NumConstraints() int {
	return len(b.data.Constraints)
}

// NewVar creates a new variable with bounds `[lb, ub]` and the given type. Binary
// variables have their bounds intersected with [0, 1].
func (b *Builder) NewVar(lb, ub float64, t VarType) Var {
	if t == Binary {
		lb, ub = math.Max(lb, 0), math.Min(ub, 1)
	}
	v := Var{b: b, ind: VarIndex(len(b.data.Variables))}
	b.data.Variables = append(b.data.Variables, &VariableData{Lower: lb, Upper: ub, Type: t})
	return v
}

// NewBinaryVar creates a new {0, 1} variable.
func (b *Builder) NewBinaryVar() Var {
	return b.NewVar(0, 1, Binary)
}

// NewContinuousVar creates a new continuous variable with bounds `[lb, ub]`.
func (b *Builder) NewContinuousVar(lb, ub float64) Var {
	return b.NewVar(lb, ub, Continuous)
}

// NewIntegerVar creates a new integer variable with bounds `[lb, ub]`.
func (b *Builder) NewIntegerVar(lb, ub float64) Var {
	return b.NewVar(lb, ub, Integer)
}

// LookupVar returns the variable with the given name.
func (b *Builder) LookupVar(name string) (Var, bool) {
	ind, ok := b.varNames[name]
	return Var{b: b, ind: ind}, ok
}

// LookupConstraint returns the constraint with the given name.
func (b *Builder) LookupConstraint(name string) (Constraint, bool) {
	ind, ok := b.ctNames[name]
	return Constraint{b: b, ind: ind}, ok
}

func (b *Builder) renameVar(ind VarIndex, name string) {
	vd := b.data.Variables[ind]
	if name != "" {
		if other, ok := b.varNames[name]; ok && other != ind {
			b.setErr(fmt.Errorf("variable %q: %w", name, ErrDuplicateName))
			return
		}
	}
	if vd.Name != "" {
		delete(b.varNames, vd.Name)
	}
	vd.Name = name
	if name != "" {
		b.varNames[name] = ind
	}
}

func (b *Builder) renameConstraint(ind ConstrIndex, name string) {
	row := b.data.Constraints[ind]
	if name != "" {
		if other, ok := b.ctNames[name]; ok && other != ind {
			b.setErr(fmt.Errorf("constraint %q: %w", name, ErrDuplicateName))
			return
		}
	}
	if row.Name != "" {
		delete(b.ctNames, row.Name)
	}
	row.Name = name
	if name != "" {
		b.ctNames[name] = ind
	}
}

func (b *Builder) checkArgument(la LinearArgument) {
	switch a := la.(type) {
	case Var:
		b.checkSameModelAndSetErrorf(a.b, "invalid variable %v added to constraint %v", a.Index(), len(b.data.Constraints))
	case *LinearExpr:
		if a.mixed {
			b.setErr(fmt.Errorf("expression added to constraint %v holds variables of several models: %w", len(b.data.Constraints), ErrMixedModels))
			return
		}
		if a.owner != nil {
			b.checkSameModelAndSetErrorf(a.owner, "invalid expression added to constraint %v", len(b.data.Constraints))
		}
	}
}

// addLinearConstraint adds a row enforcing `lb <= le <= ub`. The constant offset of `le` is
// moved to the bounds.
func (b *Builder) addLinearConstraint(le *LinearExpr, iv Interval) Constraint {
	inds, coeffs := le.merged()
	iv = iv.Offset(-le.offset)
	i := ConstrIndex(len(b.data.Constraints))
	b.data.Constraints = append(b.data.Constraints, &RowData{
		Vars: inds, Coeffs: coeffs, Lower: iv.Lower, Upper: iv.Upper,
	})
	return Constraint{b: b, ind: i}
}

// AddLinearConstraint adds the linear constraint `lb <= expr <= ub`.
func (b *Builder) AddLinearConstraint(expr LinearArgument, lb, ub float64) Constraint {
	b.checkArgument(expr)
	return b.addLinearConstraint(NewLinearExpr().Add(expr), Interval{lb, ub})
}

// AddConstraint adds the linear constraint `expr rel rhs`.
func (b *Builder) AddConstraint(expr LinearArgument, rel Relation, rhs float64) Constraint {
	switch rel {
	case LessOrEqual:
		return b.AddLinearConstraint(expr, math.Inf(-1), rhs)
	case GreaterOrEqual:
		return b.AddLinearConstraint(expr, rhs, math.Inf(1))
	case Equal:
		return b.AddLinearConstraint(expr, rhs, rhs)
	}
	log.Fatalf("unknown relation %v", rel)
	return Constraint{}
}

// AddEquality adds the linear constraint `lhs == rhs`.
func (b *Builder) AddEquality(lhs, rhs LinearArgument) Constraint {
	b.checkArgument(lhs)
	b.checkArgument(rhs)
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)
	return b.addLinearConstraint(diff, Interval{0, 0})
}

// AddLessOrEqual adds the linear constraint `lhs <= rhs`.
func (b *Builder) AddLessOrEqual(lhs, rhs LinearArgument) Constraint {
	b.checkArgument(lhs)
	b.checkArgument(rhs)
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)
	return b.addLinearConstraint(diff, Interval{math.Inf(-1), 0})
}

// AddGreaterOrEqual adds the linear constraint `lhs >= rhs`.
func (b *Builder) AddGreaterOrEqual(lhs, rhs LinearArgument) Constraint {
	b.checkArgument(lhs)
	b.checkArgument(rhs)
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)
	return b.addLinearConstraint(diff, Interval{0, math.Inf(1)})
}

// SetObjective replaces the objective of the model.
func (b *Builder) SetObjective(obj LinearArgument, s Sense) {
	b.checkArgument(obj)
	o := NewLinearExpr().Add(obj)
	inds, coeffs := o.merged()
	b.data.Objective = ObjectiveData{Vars: inds, Coeffs: coeffs, Offset: o.offset, Sense: s}
}

// Minimize sets a linear minimization objective.
func (b *Builder) Minimize(obj LinearArgument) {
	b.SetObjective(obj, Minimize)
}

// Maximize sets a linear maximization objective.
func (b *Builder) Maximize(obj LinearArgument) {
	b.SetObjective(obj, Maximize)
}

// Hint is a container for variable hints to the model.
type Hint struct {
	Values map[Var]float64
}

type indexValueSlices struct {
	indices []VarIndex
	values  []float64
}

func (ivs indexValueSlices) Len() int {
	return len(ivs.indices)
}

func (ivs indexValueSlices) Less(i, j int) bool {
	return ivs.indices[i] < ivs.indices[j]
}

func (ivs indexValueSlices) Swap(i, j int) {
	ivs.indices[i], ivs.indices[j] = ivs.indices[j], ivs.indices[i]
	ivs.values[i], ivs.values[j] = ivs.values[j], ivs.values[i]
}

// SetHint sets the hint on the model.
func (b *Builder) SetHint(hint *Hint) {
	if hint == nil {
		b.data.Hint = nil
		return
	}
	var vars []VarIndex
	var values []float64
	for v, val := range hint.Values {
		if !b.checkSameModelAndSetErrorf(v.b, "Var %v added as a hint", v.Index()) {
			return
		}
		vars = append(vars, v.ind)
		values = append(values, val)
	}
	sort.Sort(indexValueSlices{vars, values})
	b.data.Hint = &PartialAssignment{Vars: vars, Values: values}
}

// ClearHint clears any hints on the model.
func (b *Builder) ClearHint() {
	b.data.Hint = nil
}

// Model returns the built model. The value returned is a pointer to the data held by the
// Builder, and if modified, future calls to the Builder API can fail or produce an invalid model.
//
// Model returns an error when invalid parameters have been used during model building (e.g.
// passing variables from other builders or reusing names).
func (b *Builder) Model() (*ModelData, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.data, nil
}
