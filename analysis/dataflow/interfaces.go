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

package dataflow

import (
	"github.com/argus-tools/argus/analysis/lang"
)

// A Signature is the resolved formal parameter list and return annotation of
// a callable.
type Signature struct {
	Params  []lang.Param
	Returns string
}

// ParamNames returns the parameter names in declaration order.
func (s Signature) ParamNames() []string {
	var names []string
	for _, p := range s.Params {
		names = append(names, p.Name)
	}
	return names
}

// HasParam returns true when the signature declares a parameter with the name.
func (s Signature) HasParam(name string) bool {
	for _, p := range s.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// A Resolver supplies resolved names and types. It is an external
// collaborator: the underlying type checker and name resolver are out of
// scope, only this surface is relied upon.
type Resolver interface {
	// Signature returns the resolved signature of the callable, false when
	// the callable is unknown.
	Signature(c Callable) (Signature, bool)

	// Decorators returns the decorator names applied to the callable, outermost first.
	Decorators(c Callable) []string

	// Parent returns the enclosing class of a method, false for plain functions.
	Parent(c Callable) (string, bool)

	// IsStub returns true when the callable is declared but its body is not
	// available (e.g. external library code).
	IsStub(c Callable) bool
}

// A CallGraph supplies, per call site, the set of resolved call targets. It
// is an external collaborator and may be memoized by the caller.
type CallGraph interface {
	// CalleesOf returns the resolved callee identities for a call expression
	// inside the caller's body. Unresolvable sites return an empty slice.
	CalleesOf(caller Callable, site *lang.Call) []Callable
}
