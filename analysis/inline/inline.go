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

// Package inline rewrites decorated function definitions into single
// undecorated functions so that the per-callable analysis sees through the
// decorator's wrapper. A decorator that cannot be proven to return a wrapper
// closing over the decorated callable is left in place: partial precision
// loss is preferred over an incorrect transformation.
package inline

import (
	"fmt"
	"strings"

	"github.com/argus-tools/argus/analysis/config"
	"github.com/argus-tools/argus/analysis/lang"
	"github.com/argus-tools/argus/internal/funcutil"
)

// An Inliner rewrites decorator applications. Each inlining instance gets a
// fresh qualifier so that independently inlined decorators never collide on
// wrapper-local names.
type Inliner struct {
	logger *config.LogGroup

	// lookup resolves a decorator name to its definition; false when the
	// decorator's body is not available.
	lookup func(name string) (*lang.FunctionDef, bool)

	instances int
}

// NewInliner returns an inliner resolving decorator bodies through lookup.
func NewInliner(logger *config.LogGroup, lookup func(name string) (*lang.FunctionDef, bool)) *Inliner {
	return &Inliner{logger: logger, lookup: lookup}
}

// Inline applies the decorators of fd innermost-first, folding each
// successful inlining into a new single function that is the input to the
// next decorator outward. The first decorator that fails the applicability
// test stops the pipeline for the whole chain: the partial result keeps the
// remaining decorators applied as-is. The input definition is never mutated.
func (in *Inliner) Inline(fd *lang.FunctionDef) *lang.FunctionDef {
	out := lang.CloneDef(fd)
	decorators := out.Decorators
	out.Decorators = nil
	for i := len(decorators) - 1; i >= 0; i-- {
		inlined, ok := in.inlineOne(out, decorators[i])
		if !ok {
			in.logger.Debugf("leaving %s partially decorated: %s is not inlinable",
				fd.Name, lang.PrintExpr(decorators[i]))
			out.Decorators = decorators[:i+1]
			return out
		}
		out = inlined
	}
	return out
}

// inlineOne folds a single decorator application into f. It returns false
// when the decorator cannot be resolved, has no inlinable wrapper, or fails
// signature reconciliation.
func (in *Inliner) inlineOne(f *lang.FunctionDef, decorator lang.Expr) (*lang.FunctionDef, bool) {
	dd, ok := in.resolveDecorator(decorator)
	if !ok {
		return nil, false
	}
	wrapper, callableParam, ok := findWrapper(dd)
	if !ok {
		in.logger.Debugf("decorator %s returns no wrapper closing over its callable", dd.Name)
		return nil, false
	}

	rec, ok := reconcile(wrapper, callableParam, f)
	if !ok {
		return nil, false
	}

	in.instances++
	leaf := leafName(f.Name)
	originalName := "__original_" + leaf
	wrapperName := "__wrapper_" + leaf

	// The embedded copy of the decorated function keeps its own parameters
	// and body untouched.
	original := lang.CloneDef(f)
	original.Name = originalName
	original.Decorators = nil

	renaming := in.buildRenaming(wrapper, callableParam, originalName, rec)
	body := lang.Substitute(wrapper.Body, renaming)
	if rec.reconciled {
		body = append(synthesizeCaptures(rec, f), body...)
	}

	// Wrapper parameter defaults were written in the decorator's scope, so
	// the renaming applies to them too: a default referencing the callable
	// parameter must point at the embedded original.
	innerParams := cloneParams(rec.params)
	for i := range innerParams {
		if innerParams[i].Default != nil {
			innerParams[i].Default = lang.SubstituteExpr(innerParams[i].Default, renaming)
		}
	}

	inner := &lang.FunctionDef{
		Name:    wrapperName,
		Params:  innerParams,
		Body:    body,
		Async:   wrapper.Async,
		Returns: wrapper.Returns,
	}

	result := &lang.FunctionDef{
		Name:    f.Name,
		Params:  cloneParams(rec.params),
		Body:    []lang.Stmt{original, inner, dispatch(wrapperName, rec.params, wrapper.Async)},
		Async:   wrapper.Async,
		Returns: wrapper.Returns,
	}
	return result, true
}

// resolveDecorator returns the decorator's definition. A call form
// (@factory(...)) is unwrapped one level: the factory's returned nested
// definition is the decorator actually applied.
func (in *Inliner) resolveDecorator(decorator lang.Expr) (*lang.FunctionDef, bool) {
	switch d := decorator.(type) {
	case *lang.Name:
		return in.lookup(d.Id)
	case *lang.Call:
		name, ok := d.Func.(*lang.Name)
		if !ok {
			return nil, false
		}
		factory, ok := in.lookup(name.Id)
		if !ok {
			return nil, false
		}
		return returnedDef(factory)
	default:
		return nil, false
	}
}

// buildRenaming combines the three renamings applied to the wrapper body:
// references to the decorator's callable parameter point at the embedded
// original, wrapper parameter names align with the decorated function's
// names, and wrapper locals gain an instance-scoped qualifier. All pairs go
// through one ambiguity guard: a source name with two conflicting targets is
// not renamed at all.
func (in *Inliner) buildRenaming(wrapper *lang.FunctionDef, callableParam, originalName string, rec reconciliation) lang.Renaming {
	pairs := [][2]string{{callableParam, originalName}}
	pairs = append(pairs, rec.renames...)

	params := map[string]bool{}
	for _, p := range wrapper.Params {
		params[p.Name] = true
	}
	for _, name := range funcutil.SortedKeys(lang.BoundNames(wrapper)) {
		if params[name] {
			continue
		}
		pairs = append(pairs, [2]string{name, fmt.Sprintf("__q%d_%s", in.instances, name)})
	}
	return lang.NewRenaming(pairs)
}

// dispatch builds the final statement handing the combined parameters to the
// renamed wrapper, preserving the asynchronous qualifier.
func dispatch(wrapperName string, params []lang.Param, async bool) lang.Stmt {
	call := &lang.Call{Func: lang.NewName(wrapperName)}
	for _, p := range params {
		switch p.Kind {
		case lang.StarParam:
			call.Args = append(call.Args, &lang.Starred{Value: lang.NewName(p.Name)})
		case lang.DoubleStarParam:
			call.Keywords = append(call.Keywords, lang.Keyword{Name: "", Value: lang.NewName(p.Name)})
		default:
			call.Args = append(call.Args, lang.NewName(p.Name))
		}
	}
	if async {
		return &lang.Return{Value: &lang.Await{Value: call}}
	}
	return &lang.Return{Value: call}
}

func cloneParams(params []lang.Param) []lang.Param {
	out := make([]lang.Param, len(params))
	for i, p := range params {
		out[i] = p
		if p.Default != nil {
			out[i].Default = lang.CloneExpr(p.Default)
		}
	}
	return out
}

func leafName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
