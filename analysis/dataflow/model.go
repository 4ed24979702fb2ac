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
	"fmt"
	"strings"
)

// A Model is the reusable summary of one callable: the sources it generates
// (forward state), the sinks its parameters reach (backward state), the
// parameter-to-output pass-through (taint-in-taint-out), and the mode
// governing its analysis. Models are immutable values; every combination goes
// through MergeModels, which returns a fresh model.
type Model struct {
	// Mode governs the analysis of the callable this model summarizes.
	Mode Mode

	// Sources is the forward source taint: positions where the callable
	// introduces tainted data, keyed on return/parameter access paths.
	Sources TaintTree

	// Sinks is the backward sink taint: parameter positions whose data
	// reaches a sink inside the callable.
	Sinks TaintTree

	// Tito is the backward taint-in-taint-out state: parameter positions
	// whose taint reappears on the output.
	Tito TaintTree
}

// EmptyModel returns the identity of MergeModels: normal mode and bottom
// everywhere.
func EmptyModel() Model {
	return Model{
		Mode:    NormalMode(),
		Sources: NewTaintTree(),
		Sinks:   NewTaintTree(),
		Tito:    NewTaintTree(),
	}
}

// IsEmpty returns true when the model carries no information: normal mode and
// all three states at bottom.
func (m Model) IsEmpty() bool {
	return m.Mode.Equal(NormalMode()) && m.Sources.IsBottom() && m.Sinks.IsBottom() && m.Tito.IsBottom()
}

// Copy returns a structurally equal fresh model.
func (m Model) Copy() Model {
	return Model{
		Mode:    m.Mode,
		Sources: m.Sources.Copy(),
		Sinks:   m.Sinks.Copy(),
		Tito:    m.Tito.Copy(),
	}
}

// Equal returns true when both models are structurally equal.
func (m Model) Equal(o Model) bool {
	return m.Mode.Equal(o.Mode) &&
		m.Sources.Equal(o.Sources) &&
		m.Sinks.Equal(o.Sinks) &&
		m.Tito.Equal(o.Tito)
}

// MergeModels combines two models of the same callable: the three states join
// field-by-field and the mode joins under the pinned precedence of Mode.Join.
// EmptyModel is the identity, and the merge is commutative and associative,
// so multi-file model redefinition is order-independent.
func MergeModels(a, b Model) Model {
	return Model{
		Mode:    a.Mode.Join(b.Mode),
		Sources: a.Sources.Join(b.Sources),
		Sinks:   a.Sinks.Join(b.Sinks),
		Tito:    a.Tito.Join(b.Tito),
	}
}

// RemoveSinks returns the model with its sink taint replaced by bottom. Run
// before missing-flow analysis so that every call edge looks unexplored.
func (m Model) RemoveSinks() Model {
	out := m.Copy()
	out.Sinks = NewTaintTree()
	return out
}

// AddObscureSink returns the model with the conservative obscure marker on
// its call-target position. Attached to stub callables that have no explicit
// model, so that flows through unknown code surface as possible leaks.
func (m Model) AddObscureSink() Model {
	out := m.Copy()
	out.Sinks = out.Sinks.Join(TreeOf(NewCallTargetPath(), ObscureKind))
	return out
}

func (m Model) String() string {
	var parts []string
	parts = append(parts, "mode="+m.Mode.String())
	if !m.Sources.IsBottom() {
		parts = append(parts, "sources{"+m.Sources.String()+"}")
	}
	if !m.Sinks.IsBottom() {
		parts = append(parts, "sinks{"+m.Sinks.String()+"}")
	}
	if !m.Tito.IsBottom() {
		parts = append(parts, "tito{"+m.Tito.String()+"}")
	}
	return fmt.Sprintf("model(%s)", strings.Join(parts, " "))
}
