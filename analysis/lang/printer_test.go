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

func TestPrintExpr(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"name", NewName("x"), "x"},
		{"string", NewString("v"), `"v"`},
		{"attribute", &Attribute{Value: NewName("obj"), Attr: "field"}, "obj.field"},
		{"subscript", &Subscript{Value: NewName("d"), Index: NewString("k")}, `d["k"]`},
		{"starred", &Starred{Value: NewName("args")}, "*args"},
		{"call positional", NewCall(NewName("f"), NewName("a"), NewName("b")), "f(a, b)"},
		{
			"call keywords and unpacking",
			&Call{Func: NewName("f"), Args: []Expr{&Starred{Value: NewName("args")}},
				Keywords: []Keyword{{Name: "k", Value: NewName("v")}, {Name: "", Value: NewName("kwargs")}}},
			"f(*args, k=v, **kwargs)",
		},
		{"single element tuple", NewTuple(NewName("x")), "(x,)"},
		{"tuple", NewTuple(NewName("x"), NewName("y")), "(x, y)"},
		{"dict", NewDict([]Expr{NewString("k")}, []Expr{NewName("v")}), `{"k": v}`},
		{"binop", &BinOp{Left: NewName("a"), Op: "+", Right: NewName("b")}, "a + b"},
		{"await", &Await{Value: NewCall(NewName("f"))}, "await f()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrintExpr(tt.expr); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintParamForms(t *testing.T) {
	tests := []struct {
		name  string
		param Param
		want  string
	}{
		{"plain", Param{Name: "x", Kind: PosParam}, "x"},
		{"star", Param{Name: "args", Kind: StarParam}, "*args"},
		{"double star", Param{Name: "kwargs", Kind: DoubleStarParam}, "**kwargs"},
		{"annotated", Param{Name: "x", Kind: PosParam, Annotation: "int"}, "x: int"},
		{"default", Param{Name: "x", Kind: PosParam, Default: NewString("d")}, `x="d"`},
		{"annotated default", Param{Name: "x", Kind: PosParam, Annotation: "str", Default: NewString("d")}, `x: str = "d"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrintParam(tt.param); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintDefNested(t *testing.T) {
	fd := &FunctionDef{
		Name:       "outer",
		Params:     NewParams("x"),
		Decorators: []Expr{NewName("cached")},
		Body: []Stmt{
			&FunctionDef{
				Name:   "inner",
				Params: []Param{{Name: "args", Kind: StarParam}},
				Body:   []Stmt{&Return{Value: NewName("args")}},
			},
			&If{
				Cond: NewName("x"),
				Body: []Stmt{&Return{Value: NewCall(NewName("inner"), NewName("x"))}},
				Else: []Stmt{&Return{Value: nil}},
			},
		},
	}
	want := `@cached
def outer(x):
    def inner(*args):
        return args
    if x:
        return inner(x)
    else:
        return
`
	if got := PrintDef(fd); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintDefAsyncAndReturns(t *testing.T) {
	fd := &FunctionDef{Name: "fetch", Async: true, Returns: "str", Body: []Stmt{&Pass{}}}
	want := "async def fetch() -> str:\n    pass\n"
	if got := PrintDef(fd); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrintEmptyBodyEmitsPass(t *testing.T) {
	if got := PrintBody(nil); got != "pass\n" {
		t.Errorf("got %q", got)
	}
}
