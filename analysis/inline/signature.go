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

package inline

import (
	"github.com/argus-tools/argus/analysis/lang"
)

// A reconciliation is the outcome of aligning the wrapper's signature with
// the decorated function's.
type reconciliation struct {
	// reconciled is true when the wrapper's exact (*args, **kwargs) list was
	// replaced by the decorated function's own parameters.
	reconciled bool

	// params is the parameter list of the combined function.
	params []lang.Param

	// renames are (wrapper name, replacement) pairs applied to the wrapper
	// body, subject to the ambiguity guard.
	renames [][2]string

	// argsBind and kwargsBind are the binding names of the synthetic
	// captures, prefixed when the decorated function's own catch-all
	// parameters would collide with them. Only set when reconciled.
	argsBind   string
	kwargsBind string
}

// wrapperPrefix reserves a namespace for synthetic capture bindings that
// would otherwise collide with the decorated function's catch-all parameters.
const wrapperPrefix = "__wrapper_"

// reconcile aligns the wrapper signature with f's. When the wrapper declares
// exactly (*args, **kwargs) and forwards them verbatim to the decorated
// callable, the combined function adopts f's own parameter list; any
// deviation in the forwarding makes the whole decorator uninlinable. A
// wrapper with concrete parameters keeps its own list as the visible
// signature. The wrapper's return type always survives unchanged.
func reconcile(wrapper *lang.FunctionDef, callableParam string, f *lang.FunctionDef) (reconciliation, bool) {
	if argsName, kwargsName, ok := catchAllOnly(wrapper.Params); ok {
		if !forwardsVerbatim(wrapper.Body, callableParam, argsName, kwargsName) {
			return reconciliation{}, false
		}
		rec := reconciliation{
			reconciled: true,
			params:     cloneParams(f.Params),
			argsBind:   argsName,
			kwargsBind: kwargsName,
		}
		for _, p := range f.Params {
			if !p.IsCatchAll() {
				continue
			}
			if p.Name == rec.argsBind {
				rec.argsBind = wrapperPrefix + argsName
				rec.renames = append(rec.renames, [2]string{argsName, rec.argsBind})
			}
			if p.Name == rec.kwargsBind {
				rec.kwargsBind = wrapperPrefix + kwargsName
				rec.renames = append(rec.renames, [2]string{kwargsName, rec.kwargsBind})
			}
		}
		return rec, true
	}

	// Concrete wrapper signature: the wrapper's parameter names win. The
	// combined function exposes them, the dispatch passes them through, and
	// the embedded original keeps its own names untouched.
	return reconciliation{params: cloneParams(wrapper.Params)}, true
}

// catchAllOnly reports whether params is exactly (*args, **kwargs), names
// arbitrary, annotations allowed, nothing else.
func catchAllOnly(params []lang.Param) (argsName, kwargsName string, ok bool) {
	if len(params) != 2 {
		return "", "", false
	}
	if params[0].Kind != lang.StarParam || params[1].Kind != lang.DoubleStarParam {
		return "", "", false
	}
	if params[0].Default != nil || params[1].Default != nil {
		return "", "", false
	}
	return params[0].Name, params[1].Name, true
}

// forwardsVerbatim confirms syntactically that the wrapper forwards its
// catch-all parameters unmodified to the decorated callable: every call to
// the callable passes exactly (*args, **kwargs) in that shape with no extra,
// missing or reordered arguments, and at least one such call exists. Other
// reads of args/kwargs in the body are fine: after reconciliation the
// synthetic captures give them precise per-parameter meaning.
func forwardsVerbatim(body []lang.Stmt, callableParam, argsName, kwargsName string) bool {
	forwarding := 0
	exact := true
	lang.WalkExprs(body, func(e lang.Expr) {
		call, ok := e.(*lang.Call)
		if !ok {
			return
		}
		fn, ok := call.Func.(*lang.Name)
		if !ok || fn.Id != callableParam {
			return
		}
		if isExactForwarding(call, argsName, kwargsName) {
			forwarding++
		} else {
			exact = false
		}
	})
	return exact && forwarding > 0
}

func isExactForwarding(call *lang.Call, argsName, kwargsName string) bool {
	if len(call.Args) != 1 || len(call.Keywords) != 1 {
		return false
	}
	star, ok := call.Args[0].(*lang.Starred)
	if !ok {
		return false
	}
	a, ok := star.Value.(*lang.Name)
	if !ok || a.Id != argsName {
		return false
	}
	kw := call.Keywords[0]
	if kw.Name != "" {
		return false
	}
	k, ok := kw.Value.(*lang.Name)
	return ok && k.Id == kwargsName
}
