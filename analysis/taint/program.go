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

package taint

import (
	"sort"
	"strings"

	"github.com/argus-tools/argus/analysis/config"
	"github.com/argus-tools/argus/analysis/dataflow"
	"github.com/argus-tools/argus/analysis/inline"
	"github.com/argus-tools/argus/analysis/lang"
	"github.com/argus-tools/argus/internal/funcutil"
)

// A Program is the analyzed callable universe: definitions with bodies,
// declared stubs, and the name bindings used to resolve call sites. It
// implements both the resolver and the call graph surface the analysis
// consumes.
type Program struct {
	defs    map[dataflow.Callable]*lang.FunctionDef
	stubs   map[dataflow.Callable]dataflow.Signature
	parents map[dataflow.Callable]string

	// byLeaf resolves an unqualified call-site name to its callables.
	byLeaf map[string][]dataflow.Callable
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{
		defs:    map[dataflow.Callable]*lang.FunctionDef{},
		stubs:   map[dataflow.Callable]dataflow.Signature{},
		parents: map[dataflow.Callable]string{},
		byLeaf:  map[string][]dataflow.Callable{},
	}
}

// Add registers a definition under its qualified name.
func (p *Program) Add(name string, fd *lang.FunctionDef) {
	c := dataflow.NewCallable(name)
	p.defs[c] = fd
	p.indexLeaf(c)
}

// AddStub declares a callable whose body is unavailable, with the given
// parameter names.
func (p *Program) AddStub(name string, params ...string) {
	c := dataflow.NewCallable(name)
	p.stubs[c] = dataflow.Signature{Params: lang.NewParams(params...)}
	p.indexLeaf(c)
}

// SetParent records the enclosing class of a method.
func (p *Program) SetParent(name, class string) {
	p.parents[dataflow.NewCallable(name)] = class
}

func (p *Program) indexLeaf(c dataflow.Callable) {
	leaf := c.Name
	if i := strings.LastIndexByte(leaf, '.'); i >= 0 {
		leaf = leaf[i+1:]
	}
	for _, existing := range p.byLeaf[leaf] {
		if existing == c {
			return
		}
	}
	p.byLeaf[leaf] = append(p.byLeaf[leaf], c)
}

// Defs returns the definitions keyed by callable.
func (p *Program) Defs() map[dataflow.Callable]*lang.FunctionDef {
	return p.defs
}

// Stubs returns the declared stubs in name order.
func (p *Program) Stubs() []dataflow.Callable {
	var out []dataflow.Callable
	for c := range p.stubs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Callables returns every known callable, definitions and stubs, in name
// order.
func (p *Program) Callables() []dataflow.Callable {
	var out []dataflow.Callable
	for c := range p.defs {
		out = append(out, c)
	}
	out = append(out, p.Stubs()...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Signature implements the resolver surface from the known definitions and
// stub declarations.
func (p *Program) Signature(c dataflow.Callable) (dataflow.Signature, bool) {
	if fd, ok := p.defs[c]; ok {
		return dataflow.Signature{Params: fd.Params, Returns: fd.Returns}, true
	}
	if sig, ok := p.stubs[c]; ok {
		return sig, true
	}
	return dataflow.Signature{}, false
}

// Decorators returns the decorator expressions of the callable as printed
// names, outermost first.
func (p *Program) Decorators(c dataflow.Callable) []string {
	fd, ok := p.defs[c]
	if !ok {
		return nil
	}
	return funcutil.Map(fd.Decorators, lang.PrintExpr)
}

// Parent returns the recorded enclosing class of a method.
func (p *Program) Parent(c dataflow.Callable) (string, bool) {
	parent, ok := p.parents[c]
	return parent, ok
}

// IsStub returns true for declared-only callables.
func (p *Program) IsStub(c dataflow.Callable) bool {
	_, ok := p.stubs[c]
	return ok
}

// CalleesOf resolves a call site inside the caller's body. Plain names and
// dotted accesses resolve against qualified names first and unqualified leaf
// names second. Targets come back in name order.
func (p *Program) CalleesOf(caller dataflow.Callable, site *lang.Call) []dataflow.Callable {
	name := ""
	switch fn := site.Func.(type) {
	case *lang.Name:
		name = fn.Id
	case *lang.Attribute:
		name = lang.PrintExpr(fn)
	default:
		return nil
	}

	c := dataflow.NewCallable(name)
	if _, ok := p.defs[c]; ok {
		return []dataflow.Callable{c}
	}
	if _, ok := p.stubs[c]; ok {
		return []dataflow.Callable{c}
	}
	targets := append([]dataflow.Callable(nil), p.byLeaf[name]...)
	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })
	return targets
}

// BuildCallGraph walks every definition body and records an edge per
// resolvable call site.
func (p *Program) BuildCallGraph() *dataflow.CallableGraph {
	g := dataflow.NewCallableGraph()
	for c, fd := range p.defs {
		g.AddCallable(c)
		lang.WalkExprs(fd.Body, func(e lang.Expr) {
			call, ok := e.(*lang.Call)
			if !ok {
				return
			}
			for _, callee := range p.CalleesOf(c, call) {
				g.AddCall(c, callee)
			}
		})
	}
	return g
}

// InlineDecorators rewrites every decorated definition in place through the
// decorator inliner, resolving decorator bodies against the program itself.
func (p *Program) InlineDecorators(logger *config.LogGroup) {
	in := inline.NewInliner(logger, func(name string) (*lang.FunctionDef, bool) {
		for _, c := range p.byLeaf[leafOf(name)] {
			if fd, ok := p.defs[c]; ok && (c.Name == name || leafOf(c.Name) == name) {
				return fd, true
			}
		}
		return nil, false
	})
	for c, fd := range p.defs {
		if len(fd.Decorators) == 0 {
			continue
		}
		p.defs[c] = in.Inline(fd)
	}
}

func leafOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
