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
	"strings"

	"github.com/argus-tools/argus/analysis/config"
	"github.com/argus-tools/argus/analysis/dataflow"
	"github.com/argus-tools/argus/analysis/lang"
)

// markPrefix tags the synthetic kinds that stand in for "data derived from
// parameter p" during the forward sweep. Marks never leak into models or
// findings; the backward step translates them into parameter access paths.
const markPrefix = "@param:"

func paramMark(name string) dataflow.Kind {
	return dataflow.Kind(markPrefix + name)
}

func isParamMark(k dataflow.Kind) bool {
	return strings.HasPrefix(string(k), markPrefix)
}

func markedParam(k dataflow.Kind) string {
	return strings.TrimPrefix(string(k), markPrefix)
}

// splitMarks partitions a kind set into real taint kinds and the parameter
// names recovered from marks.
func splitMarks(kinds dataflow.KindSet) (real dataflow.KindSet, params []string) {
	real = dataflow.NewKindSet()
	for _, k := range kinds.Sorted() {
		if isParamMark(k) {
			params = append(params, markedParam(k))
		} else {
			real[k] = true
		}
	}
	return real, params
}

// A triggeredSink is a sink match discovered mid-forward-pass: tainted data
// reached a callee position the callee's model declares as a sink. The
// backward step still has to confirm which of the flowing kinds are parameter
// marks (contributing to this callable's own sink summary) and which are real
// sources (contributing findings).
type triggeredSink struct {
	// callee is one resolved target declaring the sink.
	callee dataflow.Callable

	// site is the printed call expression, for reporting.
	site string

	// flowing is what reached the sink position, marks included.
	flowing dataflow.KindSet

	// sinks is the callee's sink kinds at that position.
	sinks dataflow.KindSet
}

// A forwardResult is everything one forward sweep produces.
type forwardResult struct {
	// returned is the taint reaching return statements, marks included.
	returned dataflow.KindSet

	// triggered are the sink matches to confirm backward.
	triggered []triggeredSink
}

// flowTracker is the forward sweep state over one callable body. The
// environment is a taint tree over local access paths; updates only join and
// paths are capped at the configured length, so the leaf space is finite and
// iteration to a fixpoint is monotone and terminates.
type flowTracker struct {
	state   *dataflow.AnalyzerState
	caller  dataflow.Callable
	env     dataflow.TaintTree
	maxPath int
	result  *forwardResult
	changed bool
}

// runForward sweeps the body of the callable. Parameters are seeded with the
// model's declared source kinds, rebased onto the local environment, plus
// their synthetic mark; the sweep then iterates the statement list until the
// environment stabilizes so that loops and use-before-later-def patterns
// converge.
func runForward(state *dataflow.AnalyzerState, c dataflow.Callable, fd *lang.FunctionDef, own dataflow.Model) *forwardResult {
	maxPath := state.Config.MaxAccessPathLength
	if maxPath <= 0 {
		maxPath = config.DefaultMaxAccessPathLength
	}
	t := &flowTracker{
		state:   state,
		caller:  c,
		env:     seedEnv(fd, own),
		maxPath: maxPath,
		result:  &forwardResult{returned: dataflow.NewKindSet()},
	}

	for {
		t.changed = false
		t.result.triggered = nil
		t.execBody(fd.Body)
		if !t.changed {
			break
		}
	}
	return t.result
}

// seedEnv builds the initial environment: the declared source leaves at
// parameter roots move onto the matching locals, and every parameter gets its
// mark. Leaves at other roots survive the rebase but sit at roots no local
// path reaches, so they stay inert.
func seedEnv(fd *lang.FunctionDef, own dataflow.Model) dataflow.TaintTree {
	env := own.Sources.Rebase(func(r dataflow.Root) dataflow.Root {
		if r.Kind == dataflow.ParameterRoot {
			return dataflow.Root{Kind: dataflow.LocalRoot, Name: r.Name}
		}
		return r
	})
	for _, p := range fd.Params {
		env.AddLeaf(dataflow.NewLocalPath(p.Name, ""), paramMark(p.Name))
	}
	return env
}

// lookup collects every kind flowing at the access path: leaves covering it
// plus the whole subtree below it, so reading a base picks up taint written
// to any of its fields.
func (t *flowTracker) lookup(ap dataflow.AccessPath) dataflow.KindSet {
	out := t.env.CoveringTaints(ap)
	for _, leaf := range t.env.Paths() {
		if ap.PathCovers(leaf) {
			out = out.Union(t.env.TaintsAt(leaf))
		}
	}
	return out
}

// bind joins kinds into the leaf at the access path, truncated to the
// configured length, tracking whether anything new arrived.
func (t *flowTracker) bind(ap dataflow.AccessPath, kinds dataflow.KindSet) {
	if kinds.IsEmpty() {
		return
	}
	ap.Path = dataflow.TruncatePath(ap.Path, t.maxPath)
	before := t.env.TaintsAt(ap)
	merged := before.Union(kinds)
	if merged.Equal(before) {
		return
	}
	t.changed = true
	t.env.AddLeafSet(ap, kinds)
}

func (t *flowTracker) execBody(body []lang.Stmt) {
	for _, s := range body {
		t.execStmt(s)
	}
}

func (t *flowTracker) execStmt(s lang.Stmt) {
	switch n := s.(type) {
	case *lang.Assign:
		t.assign(n.Target, t.eval(n.Value))
	case *lang.ExprStmt:
		t.eval(n.Value)
	case *lang.Return:
		if n.Value != nil {
			merged := t.result.returned.Union(t.eval(n.Value))
			if !merged.Equal(t.result.returned) {
				t.changed = true
			}
			t.result.returned = merged
		}
	case *lang.If:
		t.eval(n.Cond)
		t.execBody(n.Body)
		t.execBody(n.Else)
	case *lang.While:
		t.eval(n.Cond)
		t.execBody(n.Body)
	case *lang.For:
		t.assign(n.Target, t.eval(n.Iter))
		t.execBody(n.Body)
	case *lang.Try:
		t.execBody(n.Body)
		for _, h := range n.Handlers {
			t.execBody(h.Body)
		}
		t.execBody(n.Final)
	case *lang.Pass:
	case *lang.FunctionDef:
		// Nested definitions get their own analysis via the call graph.
	}
}

// assign propagates kinds into an assignment target. A tuple target spreads
// the joined kinds over every element; name, attribute and subscript targets
// bind at their access path. A target with an unresolvable base binds
// nothing.
func (t *flowTracker) assign(target lang.Expr, kinds dataflow.KindSet) {
	switch n := target.(type) {
	case *lang.Tuple:
		for _, el := range n.Elts {
			t.assign(el, kinds)
		}
	case *lang.Starred:
		t.assign(n.Value, kinds)
	default:
		if ap, ok := pathOf(target); ok {
			t.bind(ap, kinds)
		}
	}
}

// pathOf resolves a name, attribute or subscript chain to a local access
// path. Chains hanging off anything else, a call result say, have no stable
// location.
func pathOf(e lang.Expr) (dataflow.AccessPath, bool) {
	switch n := e.(type) {
	case *lang.Name:
		return dataflow.NewLocalPath(n.Id, ""), true
	case *lang.Attribute:
		if base, ok := pathOf(n.Value); ok {
			return base.WithField(n.Attr), true
		}
	case *lang.Subscript:
		if base, ok := pathOf(n.Value); ok {
			return base.WithIndex(), true
		}
	}
	return dataflow.AccessPath{}, false
}

func (t *flowTracker) eval(e lang.Expr) dataflow.KindSet {
	out := dataflow.NewKindSet()
	if e == nil {
		return out
	}
	switch n := e.(type) {
	case *lang.Name:
		return t.lookup(dataflow.NewLocalPath(n.Id, ""))
	case *lang.Constant:
	case *lang.Attribute:
		if ap, ok := pathOf(n); ok {
			return t.lookup(ap)
		}
		out = out.Union(t.eval(n.Value))
	case *lang.Subscript:
		if ap, ok := pathOf(n); ok {
			out = out.Union(t.lookup(ap))
		} else {
			out = out.Union(t.eval(n.Value))
		}
		out = out.Union(t.eval(n.Index))
	case *lang.Starred:
		out = out.Union(t.eval(n.Value))
	case *lang.Tuple:
		for _, el := range n.Elts {
			out = out.Union(t.eval(el))
		}
	case *lang.Dict:
		for i := range n.Keys {
			out = out.Union(t.eval(n.Keys[i]))
			out = out.Union(t.eval(n.Values[i]))
		}
	case *lang.BinOp:
		out = out.Union(t.eval(n.Left))
		out = out.Union(t.eval(n.Right))
	case *lang.Await:
		out = out.Union(t.eval(n.Value))
	case *lang.Call:
		return t.evalCall(n)
	}
	return out
}

// evalCall handles the interprocedural boundary: the joined frozen model of
// the resolved targets stands in for the callee's effect. Arguments flowing
// into declared sink positions trigger sinks, tito positions pass their
// argument taint to the call result, and the callee's return sources flow
// out. A call with no resolved target conservatively passes every argument's
// taint through to its result.
func (t *flowTracker) evalCall(call *lang.Call) dataflow.KindSet {
	out := dataflow.NewKindSet()
	targets := t.state.CallGraph.CalleesOf(t.caller, call)
	if len(targets) == 0 {
		for _, pair := range t.argumentKinds(call, dataflow.Signature{}) {
			out = out.Union(pair.kinds)
		}
		return out
	}

	callee := t.state.CalleeModel(targets)
	sig, _ := t.signatureOf(targets)
	site := lang.PrintExpr(call)

	// An obscure marker on the call-target position sinks every argument.
	targetSinks := callee.Sinks.TaintsAt(dataflow.NewCallTargetPath())

	for _, pair := range t.argumentKinds(call, sig) {
		sinks := targetSinks
		if pair.param != "" {
			sinks = sinks.Union(callee.Sinks.CoveringTaints(dataflow.NewParameterPath(pair.param, "")))
		}
		if !sinks.IsEmpty() && !pair.kinds.IsEmpty() {
			t.result.triggered = append(t.result.triggered, triggeredSink{
				callee:  targets[0],
				site:    site,
				flowing: pair.kinds.Copy(),
				sinks:   sinks.Copy(),
			})
		}
		passesThrough := pair.param == ""
		if pair.param != "" {
			passesThrough = !callee.Tito.CoveringTaints(dataflow.NewParameterPath(pair.param, "")).IsEmpty()
		}
		if passesThrough {
			out = out.Union(pair.kinds)
		}
	}

	return out.Union(returnKinds(callee.Sources))
}

// argumentKind pairs one evaluated argument with the callee parameter name it
// binds, empty when the position cannot be resolved.
type argumentKind struct {
	param string
	kinds dataflow.KindSet
}

func (t *flowTracker) argumentKinds(call *lang.Call, sig dataflow.Signature) []argumentKind {
	var out []argumentKind
	for i, a := range call.Args {
		param := ""
		if i < len(sig.Params) {
			param = sig.Params[i].Name
		}
		out = append(out, argumentKind{param: param, kinds: t.eval(a)})
	}
	for _, kw := range call.Keywords {
		param := ""
		if kw.Name != "" && sig.HasParam(kw.Name) {
			param = kw.Name
		}
		out = append(out, argumentKind{param: param, kinds: t.eval(kw.Value)})
	}
	return out
}

func (t *flowTracker) signatureOf(targets []dataflow.Callable) (dataflow.Signature, bool) {
	if t.state.Resolver == nil {
		return dataflow.Signature{}, false
	}
	for _, c := range targets {
		if sig, ok := t.state.Resolver.Signature(c); ok {
			return sig, true
		}
	}
	return dataflow.Signature{}, false
}

// returnKinds collects every kind the tree attaches under the return root.
func returnKinds(tree dataflow.TaintTree) dataflow.KindSet {
	out := dataflow.NewKindSet()
	for _, ap := range tree.Paths() {
		if ap.Root.Kind == dataflow.ReturnRoot {
			out = out.Union(tree.TaintsAt(ap))
		}
	}
	return out
}
