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

package lang

import "fmt"

// CloneExpr returns a deep copy of the expression.
func CloneExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *Name:
		return &Name{Id: n.Id}
	case *Constant:
		return &Constant{Value: n.Value}
	case *Attribute:
		return &Attribute{Value: CloneExpr(n.Value), Attr: n.Attr}
	case *Subscript:
		return &Subscript{Value: CloneExpr(n.Value), Index: CloneExpr(n.Index)}
	case *Starred:
		return &Starred{Value: CloneExpr(n.Value)}
	case *Call:
		c := &Call{Func: CloneExpr(n.Func)}
		for _, a := range n.Args {
			c.Args = append(c.Args, CloneExpr(a))
		}
		for _, k := range n.Keywords {
			c.Keywords = append(c.Keywords, Keyword{Name: k.Name, Value: CloneExpr(k.Value)})
		}
		return c
	case *Tuple:
		t := &Tuple{}
		for _, el := range n.Elts {
			t.Elts = append(t.Elts, CloneExpr(el))
		}
		return t
	case *Dict:
		d := &Dict{}
		for i := range n.Keys {
			d.Keys = append(d.Keys, CloneExpr(n.Keys[i]))
			d.Values = append(d.Values, CloneExpr(n.Values[i]))
		}
		return d
	case *BinOp:
		return &BinOp{Left: CloneExpr(n.Left), Op: n.Op, Right: CloneExpr(n.Right)}
	case *Await:
		return &Await{Value: CloneExpr(n.Value)}
	default:
		panic(fmt.Sprintf("CloneExpr: unexpected expression %T", e))
	}
}

// CloneStmt returns a deep copy of the statement.
func CloneStmt(s Stmt) Stmt {
	switch n := s.(type) {
	case *Assign:
		return &Assign{Target: CloneExpr(n.Target), Value: CloneExpr(n.Value)}
	case *ExprStmt:
		return &ExprStmt{Value: CloneExpr(n.Value)}
	case *Return:
		return &Return{Value: CloneExpr(n.Value)}
	case *If:
		return &If{Cond: CloneExpr(n.Cond), Body: CloneBody(n.Body), Else: CloneBody(n.Else)}
	case *While:
		return &While{Cond: CloneExpr(n.Cond), Body: CloneBody(n.Body)}
	case *For:
		return &For{Target: CloneExpr(n.Target), Iter: CloneExpr(n.Iter), Body: CloneBody(n.Body)}
	case *Try:
		t := &Try{Body: CloneBody(n.Body), Final: CloneBody(n.Final)}
		for _, h := range n.Handlers {
			t.Handlers = append(t.Handlers, Handler{Exc: h.Exc, Body: CloneBody(h.Body)})
		}
		return t
	case *Pass:
		return &Pass{}
	case *FunctionDef:
		return CloneDef(n)
	default:
		panic(fmt.Sprintf("CloneStmt: unexpected statement %T", s))
	}
}

// CloneBody returns a deep copy of a statement list.
func CloneBody(body []Stmt) []Stmt {
	var out []Stmt
	for _, s := range body {
		out = append(out, CloneStmt(s))
	}
	return out
}

// CloneDef returns a deep copy of a function definition.
func CloneDef(fd *FunctionDef) *FunctionDef {
	out := &FunctionDef{
		Name:    fd.Name,
		Body:    CloneBody(fd.Body),
		Async:   fd.Async,
		Returns: fd.Returns,
	}
	for _, p := range fd.Params {
		out.Params = append(out.Params, Param{Name: p.Name, Kind: p.Kind, Annotation: p.Annotation, Default: CloneExpr(p.Default)})
	}
	for _, d := range fd.Decorators {
		out.Decorators = append(out.Decorators, CloneExpr(d))
	}
	return out
}

// WalkExpr calls f on e and all its sub-expressions, pre-order.
func WalkExpr(e Expr, f func(Expr)) {
	if e == nil {
		return
	}
	f(e)
	switch n := e.(type) {
	case *Name, *Constant:
	case *Attribute:
		WalkExpr(n.Value, f)
	case *Subscript:
		WalkExpr(n.Value, f)
		WalkExpr(n.Index, f)
	case *Starred:
		WalkExpr(n.Value, f)
	case *Call:
		WalkExpr(n.Func, f)
		for _, a := range n.Args {
			WalkExpr(a, f)
		}
		for _, k := range n.Keywords {
			WalkExpr(k.Value, f)
		}
	case *Tuple:
		for _, el := range n.Elts {
			WalkExpr(el, f)
		}
	case *Dict:
		for i := range n.Keys {
			WalkExpr(n.Keys[i], f)
			WalkExpr(n.Values[i], f)
		}
	case *BinOp:
		WalkExpr(n.Left, f)
		WalkExpr(n.Right, f)
	case *Await:
		WalkExpr(n.Value, f)
	}
}

// WalkStmts calls f on every statement, recursing into control-flow bodies.
// It does not recurse into nested function definitions unless nested is true.
func WalkStmts(body []Stmt, nested bool, f func(Stmt)) {
	for _, s := range body {
		f(s)
		switch n := s.(type) {
		case *If:
			WalkStmts(n.Body, nested, f)
			WalkStmts(n.Else, nested, f)
		case *While:
			WalkStmts(n.Body, nested, f)
		case *For:
			WalkStmts(n.Body, nested, f)
		case *Try:
			WalkStmts(n.Body, nested, f)
			for _, h := range n.Handlers {
				WalkStmts(h.Body, nested, f)
			}
			WalkStmts(n.Final, nested, f)
		case *FunctionDef:
			if nested {
				WalkStmts(n.Body, nested, f)
			}
		}
	}
}

// WalkExprs calls f on every expression appearing in the statements,
// recursing into control-flow bodies but not nested definitions.
func WalkExprs(body []Stmt, f func(Expr)) {
	WalkStmts(body, false, func(s Stmt) {
		switch n := s.(type) {
		case *Assign:
			WalkExpr(n.Target, f)
			WalkExpr(n.Value, f)
		case *ExprStmt:
			WalkExpr(n.Value, f)
		case *Return:
			WalkExpr(n.Value, f)
		case *If:
			WalkExpr(n.Cond, f)
		case *While:
			WalkExpr(n.Cond, f)
		case *For:
			WalkExpr(n.Target, f)
			WalkExpr(n.Iter, f)
		}
	})
}

// BoundNames returns the set of names bound locally by the definition:
// parameters, simple assignment targets, for-loop targets and nested
// definition names. Names bound only in nested definitions are not included.
func BoundNames(fd *FunctionDef) map[string]bool {
	bound := map[string]bool{}
	for _, p := range fd.Params {
		bound[p.Name] = true
	}
	WalkStmts(fd.Body, false, func(s Stmt) {
		switch n := s.(type) {
		case *Assign:
			if name, ok := n.Target.(*Name); ok {
				bound[name.Id] = true
			}
		case *For:
			if name, ok := n.Target.(*Name); ok {
				bound[name.Id] = true
			}
		case *FunctionDef:
			bound[n.Name] = true
		}
	})
	return bound
}

// FreeVariables returns the names referenced by the definition body that are
// not bound locally. References inside nested definitions count, minus the
// nested definition's own bindings.
func FreeVariables(fd *FunctionDef) map[string]bool {
	free := map[string]bool{}
	bound := BoundNames(fd)
	collectFree(fd.Body, bound, free)
	return free
}

func collectFree(body []Stmt, bound map[string]bool, free map[string]bool) {
	record := func(e Expr) {
		if name, ok := e.(*Name); ok && !bound[name.Id] {
			free[name.Id] = true
		}
	}
	WalkExprs(body, record)
	WalkStmts(body, false, func(s Stmt) {
		if nested, ok := s.(*FunctionDef); ok {
			inner := map[string]bool{}
			for k := range bound {
				inner[k] = true
			}
			for k := range BoundNames(nested) {
				inner[k] = true
			}
			collectFree(nested.Body, inner, free)
		}
	})
}
