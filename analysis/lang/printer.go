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

import (
	"fmt"
	"strings"
)

const indentUnit = "    "

// PrintExpr renders an expression as deterministic source text.
func PrintExpr(e Expr) string {
	if e == nil {
		return ""
	}
	switch n := e.(type) {
	case *Name:
		return n.Id
	case *Constant:
		return n.Value
	case *Attribute:
		return PrintExpr(n.Value) + "." + n.Attr
	case *Subscript:
		return PrintExpr(n.Value) + "[" + PrintExpr(n.Index) + "]"
	case *Starred:
		return "*" + PrintExpr(n.Value)
	case *Call:
		var parts []string
		for _, a := range n.Args {
			parts = append(parts, PrintExpr(a))
		}
		for _, k := range n.Keywords {
			if k.Name == "" {
				parts = append(parts, "**"+PrintExpr(k.Value))
			} else {
				parts = append(parts, k.Name+"="+PrintExpr(k.Value))
			}
		}
		return PrintExpr(n.Func) + "(" + strings.Join(parts, ", ") + ")"
	case *Tuple:
		if len(n.Elts) == 1 {
			return "(" + PrintExpr(n.Elts[0]) + ",)"
		}
		var parts []string
		for _, el := range n.Elts {
			parts = append(parts, PrintExpr(el))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *Dict:
		var parts []string
		for i := range n.Keys {
			parts = append(parts, PrintExpr(n.Keys[i])+": "+PrintExpr(n.Values[i]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *BinOp:
		return PrintExpr(n.Left) + " " + n.Op + " " + PrintExpr(n.Right)
	case *Await:
		return "await " + PrintExpr(n.Value)
	default:
		panic(fmt.Sprintf("PrintExpr: unexpected expression %T", e))
	}
}

// PrintParam renders one formal parameter.
func PrintParam(p Param) string {
	var b strings.Builder
	switch p.Kind {
	case StarParam:
		b.WriteString("*")
	case DoubleStarParam:
		b.WriteString("**")
	}
	b.WriteString(p.Name)
	if p.Annotation != "" {
		b.WriteString(": " + p.Annotation)
	}
	if p.Default != nil {
		if p.Annotation != "" {
			b.WriteString(" = " + PrintExpr(p.Default))
		} else {
			b.WriteString("=" + PrintExpr(p.Default))
		}
	}
	return b.String()
}

// PrintDef renders a function definition, decorators included, as source text
// terminated by a newline.
func PrintDef(fd *FunctionDef) string {
	var b strings.Builder
	printDef(&b, fd, 0)
	return b.String()
}

// PrintBody renders a statement list at the top indentation level.
func PrintBody(body []Stmt) string {
	var b strings.Builder
	printBody(&b, body, 0)
	return b.String()
}

func printBody(b *strings.Builder, body []Stmt, depth int) {
	if len(body) == 0 {
		fmt.Fprintf(b, "%spass\n", strings.Repeat(indentUnit, depth))
		return
	}
	for _, s := range body {
		printStmt(b, s, depth)
	}
}

func printStmt(b *strings.Builder, s Stmt, depth int) {
	ind := strings.Repeat(indentUnit, depth)
	switch n := s.(type) {
	case *Assign:
		fmt.Fprintf(b, "%s%s = %s\n", ind, PrintExpr(n.Target), PrintExpr(n.Value))
	case *ExprStmt:
		fmt.Fprintf(b, "%s%s\n", ind, PrintExpr(n.Value))
	case *Return:
		if n.Value == nil {
			fmt.Fprintf(b, "%sreturn\n", ind)
		} else {
			fmt.Fprintf(b, "%sreturn %s\n", ind, PrintExpr(n.Value))
		}
	case *If:
		fmt.Fprintf(b, "%sif %s:\n", ind, PrintExpr(n.Cond))
		printBody(b, n.Body, depth+1)
		if len(n.Else) > 0 {
			fmt.Fprintf(b, "%selse:\n", ind)
			printBody(b, n.Else, depth+1)
		}
	case *While:
		fmt.Fprintf(b, "%swhile %s:\n", ind, PrintExpr(n.Cond))
		printBody(b, n.Body, depth+1)
	case *For:
		fmt.Fprintf(b, "%sfor %s in %s:\n", ind, PrintExpr(n.Target), PrintExpr(n.Iter))
		printBody(b, n.Body, depth+1)
	case *Try:
		fmt.Fprintf(b, "%stry:\n", ind)
		printBody(b, n.Body, depth+1)
		for _, h := range n.Handlers {
			if h.Exc == "" {
				fmt.Fprintf(b, "%sexcept:\n", ind)
			} else {
				fmt.Fprintf(b, "%sexcept %s:\n", ind, h.Exc)
			}
			printBody(b, h.Body, depth+1)
		}
		if len(n.Final) > 0 {
			fmt.Fprintf(b, "%sfinally:\n", ind)
			printBody(b, n.Final, depth+1)
		}
	case *Pass:
		fmt.Fprintf(b, "%spass\n", ind)
	case *FunctionDef:
		printDef(b, n, depth)
	default:
		panic(fmt.Sprintf("printStmt: unexpected statement %T", s))
	}
}

func printDef(b *strings.Builder, fd *FunctionDef, depth int) {
	ind := strings.Repeat(indentUnit, depth)
	for _, d := range fd.Decorators {
		fmt.Fprintf(b, "%s@%s\n", ind, PrintExpr(d))
	}
	var params []string
	for _, p := range fd.Params {
		params = append(params, PrintParam(p))
	}
	kw := "def"
	if fd.Async {
		kw = "async def"
	}
	if fd.Returns != "" {
		fmt.Fprintf(b, "%s%s %s(%s) -> %s:\n", ind, kw, fd.Name, strings.Join(params, ", "), fd.Returns)
	} else {
		fmt.Fprintf(b, "%s%s %s(%s):\n", ind, kw, fd.Name, strings.Join(params, ", "))
	}
	printBody(b, fd.Body, depth+1)
}
