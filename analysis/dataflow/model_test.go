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
	"testing"

	"github.com/argus-tools/argus/analysis/config"
)

func testModels() (Model, Model, Model) {
	m1 := EmptyModel()
	m1.Sources = TreeOf(NewReturnPath(""), "UserControlled")

	m2 := EmptyModel()
	m2.Sinks = TreeOf(NewParameterPath("q", ""), "SQL")
	m2.Mode = SanitizeMode(SpecificScope("Cookies"), NoScope(), NoScope())

	m3 := EmptyModel()
	m3.Tito = TreeOf(NewParameterPath("x", ""), "UserControlled")
	return m1, m2, m3
}

func TestMergeModelsIdentity(t *testing.T) {
	m1, m2, m3 := testModels()
	for _, m := range []Model{m1, m2, m3, EmptyModel()} {
		if !MergeModels(m, EmptyModel()).Equal(m) {
			t.Errorf("EmptyModel is not a merge identity for %s", m)
		}
		if !MergeModels(EmptyModel(), m).Equal(m) {
			t.Errorf("EmptyModel is not a left merge identity for %s", m)
		}
	}
}

func TestMergeMappingsOrderIndependent(t *testing.T) {
	m1, m2, m3 := testModels()
	c := NewCallable("app.views.handler")
	mappings := []ModelMapping{
		{c: m1},
		{c: m2},
		{c: m3},
	}
	// All 6 permutations of the three mappings must agree.
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	var results []ModelMapping
	for _, p := range perms {
		acc := ModelMapping{}
		for _, i := range p {
			acc = JoinMappings(acc, mappings[i])
		}
		results = append(results, acc)
	}
	for i := 1; i < len(results); i++ {
		if !results[0].Resolve(c).Equal(results[i].Resolve(c)) {
			t.Errorf("merge order %v differs from order %v:\n%s\nvs\n%s",
				perms[0], perms[i], results[0].Resolve(c), results[i].Resolve(c))
		}
	}
}

func TestModeJoinPrecedence(t *testing.T) {
	sanitize := SanitizeMode(AllScope(), NoScope(), NoScope())
	tests := []struct {
		name string
		a, b Mode
		want Mode
	}{
		{"skip wins over normal", SkipAnalysisMode(), NormalMode(), SkipAnalysisMode()},
		{"skip wins over sanitize", sanitize, SkipAnalysisMode(), SkipAnalysisMode()},
		{"sanitize wins over normal", NormalMode(), sanitize, sanitize},
		{"normal join normal", NormalMode(), NormalMode(), NormalMode()},
		{
			"sanitize scopes union",
			SanitizeMode(SpecificScope("A"), NoScope(), NoScope()),
			SanitizeMode(SpecificScope("B"), AllScope(), NoScope()),
			SanitizeMode(SpecificScope("A", "B"), AllScope(), NoScope()),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Join(tt.b)
			if !got.Equal(tt.want) {
				t.Errorf("Join = %s, want %s", got, tt.want)
			}
			// The join must also be commutative.
			if !tt.b.Join(tt.a).Equal(got) {
				t.Errorf("mode join is not commutative for %s and %s", tt.a, tt.b)
			}
		})
	}
}

// A SkipAnalysis declaration in one model file must survive a later Normal
// declaration for the same callable: the pinned precedence is
// SkipAnalysis > Sanitize > Normal.
func TestSkipAnalysisNotOverriddenByNormal(t *testing.T) {
	c := NewCallable("noisy.thing")
	skipped := EmptyModel()
	skipped.Mode = SkipAnalysisMode()

	fromSecondFile := EmptyModel()
	fromSecondFile.Sources = TreeOf(NewReturnPath(""), "UserControlled")

	merged := JoinMappings(ModelMapping{c: skipped}, ModelMapping{c: fromSecondFile})
	if merged.Resolve(c).Mode.Kind != SkipAnalysis {
		t.Errorf("SkipAnalysis was overridden by a Normal model: %s", merged.Resolve(c))
	}
}

func TestRemoveSinks(t *testing.T) {
	_, m2, _ := testModels()
	got := m2.RemoveSinks()
	if !got.Sinks.IsBottom() {
		t.Errorf("RemoveSinks left sinks %s", got.Sinks)
	}
	if !got.Sources.Equal(m2.Sources) || !got.Tito.Equal(m2.Tito) {
		t.Errorf("RemoveSinks touched sources or tito")
	}
	// The input model is unchanged.
	if m2.Sinks.IsBottom() {
		t.Errorf("RemoveSinks mutated its input")
	}
}

func TestPrepareMissingFlows(t *testing.T) {
	modeled := NewCallable("lib.modeled")
	unmodeled := NewCallable("lib.opaque")
	mm := ModelMapping{
		modeled: Model{
			Mode:    NormalMode(),
			Sources: NewTaintTree(),
			Sinks:   TreeOf(NewParameterPath("q", ""), "SQL"),
			Tito:    NewTaintTree(),
		},
	}
	stubs := []Callable{modeled, unmodeled}

	t.Run("obscure mode", func(t *testing.T) {
		out := PrepareMissingFlows(mm, stubs, config.MissingFlowsObscure)
		if !out.Resolve(modeled).Sinks.IsBottom() {
			t.Errorf("declared sinks were not stripped")
		}
		marker := out.Resolve(unmodeled).Sinks.TaintsAt(NewCallTargetPath())
		if !marker.Has(ObscureKind) {
			t.Errorf("stub without explicit model did not gain an obscure sink, got %s", out.Resolve(unmodeled))
		}
		// Stub with an explicit model is not augmented.
		if !out.Resolve(modeled).Sinks.IsBottom() {
			t.Errorf("modeled stub gained a marker")
		}
	})

	t.Run("type mode strips only", func(t *testing.T) {
		out := PrepareMissingFlows(mm, stubs, config.MissingFlowsType)
		if !out.Resolve(modeled).Sinks.IsBottom() {
			t.Errorf("declared sinks were not stripped")
		}
		if !out.Resolve(unmodeled).Sinks.IsBottom() {
			t.Errorf("type mode must not add obscure markers, got %s", out.Resolve(unmodeled))
		}
	})

	t.Run("none mode is identity", func(t *testing.T) {
		out := PrepareMissingFlows(mm, stubs, config.MissingFlowsNone)
		if !out.Resolve(modeled).Equal(mm.Resolve(modeled)) {
			t.Errorf("none mode altered the mapping")
		}
	})
}

func TestSanitizeScopeApply(t *testing.T) {
	tree := NewTaintTree()
	tree.AddLeaf(NewParameterPath("x", ""), "UserControlled", "Cookies")
	tree.AddLeaf(NewReturnPath(""), "Cookies")

	t.Run("all zeroes the tree", func(t *testing.T) {
		if !AllScope().Apply(tree).IsBottom() {
			t.Errorf("AllScope did not zero the tree")
		}
	})
	t.Run("specific removes listed kinds only", func(t *testing.T) {
		got := SpecificScope("Cookies").Apply(tree)
		want := TreeOf(NewParameterPath("x", ""), "UserControlled")
		if !got.Equal(want) {
			t.Errorf("SpecificScope = %s, want %s", got, want)
		}
	})
	t.Run("none is identity", func(t *testing.T) {
		if !NoScope().Apply(tree).Equal(tree) {
			t.Errorf("NoScope changed the tree")
		}
	})
}
