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
	"sort"

	"github.com/argus-tools/argus/analysis/config"
)

// A Callable identifies a function or method target by qualified name.
// Callables are pure values, never mutated, and used as map keys. A callable
// may be a real target (a body is available) or a stub (declared but opaque);
// stub-ness is a property the resolver reports, not part of the identity.
type Callable struct {
	Name string
}

// NewCallable returns the callable with the given qualified name.
func NewCallable(name string) Callable {
	return Callable{Name: name}
}

func (c Callable) String() string {
	return c.Name
}

// A ModelMapping associates callables to their models. Treat mappings as
// immutable: combining or post-processing a mapping always produces a fresh
// one, never mutates in place, so snapshots handed to workers stay valid.
type ModelMapping map[Callable]Model

// Resolve returns the model of the callable, or the empty model when the
// mapping does not define it.
func (mm ModelMapping) Resolve(c Callable) Model {
	if m, ok := mm[c]; ok {
		return m
	}
	return EmptyModel()
}

// Defines returns true when the mapping holds a model for the callable.
func (mm ModelMapping) Defines(c Callable) bool {
	_, ok := mm[c]
	return ok
}

// Copy returns a fresh mapping with the same associations.
func (mm ModelMapping) Copy() ModelMapping {
	out := make(ModelMapping, len(mm))
	for c, m := range mm {
		out[c] = m
	}
	return out
}

// Callables returns the mapped callables in name order.
func (mm ModelMapping) Callables() []Callable {
	out := make([]Callable, 0, len(mm))
	for c := range mm {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// JoinMappings returns a fresh mapping combining both sides. A callable
// defined on only one side keeps that side's model verbatim; a callable
// defined on both sides gets the merge of the two models. Because MergeModels
// is commutative and associative, reduction order never matters.
func JoinMappings(a, b ModelMapping) ModelMapping {
	out := a.Copy()
	for c, m := range b {
		if existing, ok := out[c]; ok {
			out[c] = MergeModels(existing, m)
		} else {
			out[c] = m
		}
	}
	return out
}

// WithModel returns a fresh mapping where the callable's model is merged in.
func (mm ModelMapping) WithModel(c Callable, m Model) ModelMapping {
	return JoinMappings(mm, ModelMapping{c: m})
}

// PrepareMissingFlows returns the mapping transformed for missing-flow
// analysis: declared sinks are stripped from every model so that all call
// edges look unexplored, and under MissingFlowsObscure every stub callable
// without an explicit model gains the conservative obscure sink marker on its
// call-target position. Under MissingFlowsType only the stripping happens.
// MissingFlowsNone returns the mapping unchanged.
func PrepareMissingFlows(mm ModelMapping, stubs []Callable, mode config.MissingFlowsMode) ModelMapping {
	if mode == config.MissingFlowsNone {
		return mm
	}
	out := make(ModelMapping, len(mm))
	for c, m := range mm {
		out[c] = m.RemoveSinks()
	}
	if mode == config.MissingFlowsObscure {
		for _, stub := range stubs {
			if !mm.Defines(stub) {
				out[stub] = EmptyModel().AddObscureSink()
			}
		}
	}
	return out
}
