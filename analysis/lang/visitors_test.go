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

import "testing"

func TestBoundNames(t *testing.T) {
	fd := &FunctionDef{
		Name:   "f",
		Params: NewParams("a", "b"),
		Body: []Stmt{
			NewAssign("x", NewName("a")),
			&For{Target: NewName("item"), Iter: NewName("b"), Body: []Stmt{&Pass{}}},
			&FunctionDef{Name: "helper", Params: NewParams("inner_only"), Body: []Stmt{
				NewAssign("nested_local", NewString("v")),
			}},
		},
	}
	bound := BoundNames(fd)
	for _, name := range []string{"a", "b", "x", "item", "helper"} {
		if !bound[name] {
			t.Errorf("expected %s bound", name)
		}
	}
	for _, name := range []string{"inner_only", "nested_local"} {
		if bound[name] {
			t.Errorf("%s is bound only in the nested definition", name)
		}
	}
}

func TestFreeVariables(t *testing.T) {
	fd := &FunctionDef{
		Name:   "f",
		Params: NewParams("a"),
		Body: []Stmt{
			NewAssign("x", NewCall(NewName("g"), NewName("a"))),
			&FunctionDef{Name: "helper", Params: NewParams("h"), Body: []Stmt{
				&Return{Value: NewCall(NewName("h"), NewName("outer_ref"))},
			}},
			&Return{Value: NewName("x")},
		},
	}
	free := FreeVariables(fd)
	for _, name := range []string{"g", "outer_ref"} {
		if !free[name] {
			t.Errorf("expected %s free", name)
		}
	}
	for _, name := range []string{"a", "x", "h", "helper"} {
		if free[name] {
			t.Errorf("%s must not be free", name)
		}
	}
}

func TestCloneDefIsDeep(t *testing.T) {
	fd := &FunctionDef{
		Name:       "f",
		Params:     []Param{{Name: "x", Kind: PosParam, Default: NewString("d")}},
		Decorators: []Expr{NewName("dec")},
		Body:       []Stmt{NewAssign("y", NewName("x"))},
	}
	clone := CloneDef(fd)

	clone.Name = "g"
	clone.Params[0].Name = "renamed"
	clone.Decorators[0] = NewName("other")
	clone.Body[0].(*Assign).Target.(*Name).Id = "z"

	if fd.Name != "f" || fd.Params[0].Name != "x" {
		t.Errorf("clone mutation reached the original header: %s", PrintDef(fd))
	}
	if PrintDef(fd) != "@dec\ndef f(x=\"d\"):\n    y = x\n" {
		t.Errorf("clone mutation reached the original: %s", PrintDef(fd))
	}
}

func TestWalkStmtsNestedControl(t *testing.T) {
	returns := 0
	body := []Stmt{
		&If{Cond: NewName("c"), Body: []Stmt{&Return{Value: NewName("a")}}},
		&Try{
			Body:     []Stmt{&Return{Value: NewName("b")}},
			Handlers: []Handler{{Exc: "Error", Body: []Stmt{&Return{}}}},
		},
		&FunctionDef{Name: "nested", Body: []Stmt{&Return{}}},
	}

	WalkStmts(body, false, func(s Stmt) {
		if _, ok := s.(*Return); ok {
			returns++
		}
	})
	if returns != 3 {
		t.Errorf("expected 3 returns outside nested defs, got %d", returns)
	}

	returns = 0
	WalkStmts(body, true, func(s Stmt) {
		if _, ok := s.(*Return); ok {
			returns++
		}
	})
	if returns != 4 {
		t.Errorf("expected 4 returns including nested defs, got %d", returns)
	}
}
