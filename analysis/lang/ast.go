// Copyright (c) the Argus Tools authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lang defines the surface syntax tree of the analyzed language and
// the tree manipulation passes used by the analyses: visitors, consistent
// renaming and a deterministic printer. Trees are treated as immutable values;
// every rewriting pass returns fresh nodes and carries its renaming context as
// an argument.
package lang

// An Expr is an expression node.
type Expr interface {
	isExpr()
}

// A Stmt is a statement node.
type Stmt interface {
	isStmt()
}

// A Name is an identifier reference.
type Name struct {
	Id string
}

// A Constant is a literal; Value holds its source text (e.g. `42`, `"hello"`).
type Constant struct {
	Value string
}

// An Attribute is a field access base.attr.
type Attribute struct {
	Value Expr
	Attr  string
}

// A Subscript is an index access base[index].
type Subscript struct {
	Value Expr
	Index Expr
}

// A Starred is an iterable unpacking *value, legal in call arguments and tuples.
type Starred struct {
	Value Expr
}

// A Keyword is a keyword argument name=value. An empty Name denotes a
// mapping unpacking **value.
type Keyword struct {
	Name  string
	Value Expr
}

// A Call is a call expression with positional and keyword arguments.
type Call struct {
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

// A Tuple is a tuple display (a, b, ...).
type Tuple struct {
	Elts []Expr
}

// A Dict is a mapping display; Keys and Values are parallel slices.
type Dict struct {
	Keys   []Expr
	Values []Expr
}

// A BinOp is a binary operation; Op holds the operator source text.
type BinOp struct {
	Left  Expr
	Op    string
	Right Expr
}

// An Await wraps an awaited expression.
type Await struct {
	Value Expr
}

func (*Name) isExpr()      {}
func (*Constant) isExpr()  {}
func (*Attribute) isExpr() {}
func (*Subscript) isExpr() {}
func (*Starred) isExpr()   {}
func (*Call) isExpr()      {}
func (*Tuple) isExpr()     {}
func (*Dict) isExpr()      {}
func (*BinOp) isExpr()     {}
func (*Await) isExpr()     {}

// An Assign is a single-target assignment target = value.
type Assign struct {
	Target Expr
	Value  Expr
}

// An ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	Value Expr
}

// A Return returns Value, which may be nil for a bare return.
type Return struct {
	Value Expr
}

// An If is a conditional with an optional else branch.
type If struct {
	Cond Expr
	Body []Stmt
	Else []Stmt
}

// A While is a condition-driven loop.
type While struct {
	Cond Expr
	Body []Stmt
}

// A For is an iteration loop over Iter binding Target.
type For struct {
	Target Expr
	Iter   Expr
	Body   []Stmt
}

// A Handler is one except clause; an empty Exc catches everything.
type Handler struct {
	Exc  string
	Body []Stmt
}

// A Try is a try statement with handlers and an optional finally block.
type Try struct {
	Body     []Stmt
	Handlers []Handler
	Final    []Stmt
}

// A Pass is the no-op statement.
type Pass struct{}

// ParamKind distinguishes concrete parameters from the catch-all forms.
type ParamKind int

const (
	// PosParam is a plain positional-or-keyword parameter.
	PosParam ParamKind = iota

	// StarParam is the sequence catch-all *args.
	StarParam

	// DoubleStarParam is the mapping catch-all **kwargs.
	DoubleStarParam
)

// A Param is one formal parameter of a function definition.
type Param struct {
	Name       string
	Kind       ParamKind
	Annotation string
	Default    Expr
}

// A FunctionDef is a function definition, possibly decorated and possibly
// asynchronous. Returns holds the return annotation source text.
type FunctionDef struct {
	Name       string
	Params     []Param
	Body       []Stmt
	Decorators []Expr
	Async      bool
	Returns    string
}

func (*Assign) isStmt()      {}
func (*ExprStmt) isStmt()    {}
func (*Return) isStmt()      {}
func (*If) isStmt()          {}
func (*While) isStmt()       {}
func (*For) isStmt()         {}
func (*Try) isStmt()         {}
func (*Pass) isStmt()        {}
func (*FunctionDef) isStmt() {}

// IsCatchAll returns true for *args and **kwargs parameters.
func (p Param) IsCatchAll() bool {
	return p.Kind == StarParam || p.Kind == DoubleStarParam
}

// ConcreteParams returns the non-catch-all parameters of the definition, in order.
func (fd *FunctionDef) ConcreteParams() []Param {
	var out []Param
	for _, p := range fd.Params {
		if !p.IsCatchAll() {
			out = append(out, p)
		}
	}
	return out
}

// FindNestedDef returns the nested function definition with the given name
// declared directly in the body, or nil.
func FindNestedDef(body []Stmt, name string) *FunctionDef {
	for _, s := range body {
		if fd, ok := s.(*FunctionDef); ok && fd.Name == name {
			return fd
		}
	}
	return nil
}
