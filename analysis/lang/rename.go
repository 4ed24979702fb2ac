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

// A Renaming maps source names to replacement names. Build one with
// NewRenaming so that ambiguous pairs are discarded.
type Renaming map[string]string

// NewRenaming builds a renaming from (source, target) pairs. If the same
// source name appears with two different targets, the rename for that name is
// skipped entirely: an ambiguous mapping must not pick a winner. Duplicate
// identical pairs are allowed.
func NewRenaming(pairs [][2]string) Renaming {
	r := Renaming{}
	ambiguous := map[string]bool{}
	for _, p := range pairs {
		src, dst := p[0], p[1]
		if prev, ok := r[src]; ok && prev != dst {
			ambiguous[src] = true
			continue
		}
		r[src] = dst
	}
	for src := range ambiguous {
		delete(r, src)
	}
	return r
}

// Substitute returns a fresh copy of body where every occurrence of a renamed
// name, both references and simple binding occurrences, is replaced. The
// substitution respects scope: inside a nested function definition, names
// rebound by that definition are not replaced. The nested definition's own
// name is replaced when it is in the renaming.
func Substitute(body []Stmt, r Renaming) []Stmt {
	if len(r) == 0 {
		return CloneBody(body)
	}
	var out []Stmt
	for _, s := range body {
		out = append(out, substStmt(s, r))
	}
	return out
}

// SubstituteExpr returns a fresh copy of e with the renaming applied.
func SubstituteExpr(e Expr, r Renaming) Expr {
	return substExpr(e, r)
}

func substStmt(s Stmt, r Renaming) Stmt {
	switch n := s.(type) {
	case *Assign:
		return &Assign{Target: substExpr(n.Target, r), Value: substExpr(n.Value, r)}
	case *ExprStmt:
		return &ExprStmt{Value: substExpr(n.Value, r)}
	case *Return:
		return &Return{Value: substExpr(n.Value, r)}
	case *If:
		return &If{Cond: substExpr(n.Cond, r), Body: Substitute(n.Body, r), Else: Substitute(n.Else, r)}
	case *While:
		return &While{Cond: substExpr(n.Cond, r), Body: Substitute(n.Body, r)}
	case *For:
		return &For{Target: substExpr(n.Target, r), Iter: substExpr(n.Iter, r), Body: Substitute(n.Body, r)}
	case *Try:
		t := &Try{Body: Substitute(n.Body, r), Final: Substitute(n.Final, r)}
		for _, h := range n.Handlers {
			t.Handlers = append(t.Handlers, Handler{Exc: h.Exc, Body: Substitute(h.Body, r)})
		}
		return t
	case *Pass:
		return &Pass{}
	case *FunctionDef:
		nested := CloneDef(n)
		if to, ok := r[nested.Name]; ok {
			nested.Name = to
		}
		// Names rebound inside the nested definition shadow the renaming.
		inner := Renaming{}
		shadowed := BoundNames(n)
		for from, to := range r {
			if !shadowed[from] {
				inner[from] = to
			}
		}
		nested.Body = Substitute(n.Body, inner)
		for i, d := range n.Decorators {
			nested.Decorators[i] = substExpr(d, r)
		}
		return nested
	default:
		return CloneStmt(s)
	}
}

func substExpr(e Expr, r Renaming) Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *Name:
		if to, ok := r[n.Id]; ok {
			return &Name{Id: to}
		}
		return &Name{Id: n.Id}
	case *Attribute:
		return &Attribute{Value: substExpr(n.Value, r), Attr: n.Attr}
	case *Subscript:
		return &Subscript{Value: substExpr(n.Value, r), Index: substExpr(n.Index, r)}
	case *Starred:
		return &Starred{Value: substExpr(n.Value, r)}
	case *Call:
		c := &Call{Func: substExpr(n.Func, r)}
		for _, a := range n.Args {
			c.Args = append(c.Args, substExpr(a, r))
		}
		for _, k := range n.Keywords {
			c.Keywords = append(c.Keywords, Keyword{Name: k.Name, Value: substExpr(k.Value, r)})
		}
		return c
	case *Tuple:
		t := &Tuple{}
		for _, el := range n.Elts {
			t.Elts = append(t.Elts, substExpr(el, r))
		}
		return t
	case *Dict:
		d := &Dict{}
		for i := range n.Keys {
			d.Keys = append(d.Keys, substExpr(n.Keys[i], r))
			d.Values = append(d.Values, substExpr(n.Values[i], r))
		}
		return d
	case *BinOp:
		return &BinOp{Left: substExpr(n.Left, r), Op: n.Op, Right: substExpr(n.Right, r)}
	case *Await:
		return &Await{Value: substExpr(n.Value, r)}
	default:
		return CloneExpr(e)
	}
}
