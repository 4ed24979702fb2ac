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
)

func testTrees() (TaintTree, TaintTree, TaintTree) {
	a := NewTaintTree()
	a.AddLeaf(NewParameterPath("x", ""), "UserControlled")
	a.AddLeaf(NewParameterPath("x", ".field"), "Cookies")

	b := NewTaintTree()
	b.AddLeaf(NewParameterPath("x", ""), "Cookies")
	b.AddLeaf(NewReturnPath(""), "UserControlled")

	c := NewTaintTree()
	c.AddLeaf(NewReturnPath("[*]"), "Secrets")
	return a, b, c
}

func TestJoinCommutative(t *testing.T) {
	a, b, _ := testTrees()
	if !a.Join(b).Equal(b.Join(a)) {
		t.Errorf("join is not commutative: %s != %s", a.Join(b), b.Join(a))
	}
}

func TestJoinAssociative(t *testing.T) {
	a, b, c := testTrees()
	left := a.Join(b.Join(c))
	right := a.Join(b).Join(c)
	if !left.Equal(right) {
		t.Errorf("join is not associative: %s != %s", left, right)
	}
}

func TestJoinIdempotent(t *testing.T) {
	a, b, c := testTrees()
	for _, tree := range []TaintTree{a, b, c} {
		if !tree.Join(tree).Equal(tree) {
			t.Errorf("join is not idempotent on %s", tree)
		}
	}
}

func TestJoinBottomIdentity(t *testing.T) {
	a, b, c := testTrees()
	bottom := NewTaintTree()
	for _, tree := range []TaintTree{a, b, c, bottom} {
		if !tree.Join(bottom).Equal(tree) {
			t.Errorf("bottom is not a join identity on %s", tree)
		}
	}
}

func TestJoinDoesNotMutateInputs(t *testing.T) {
	a, b, _ := testTrees()
	aCopy := a.Copy()
	bCopy := b.Copy()
	_ = a.Join(b)
	if !a.Equal(aCopy) || !b.Equal(bCopy) {
		t.Errorf("join mutated an input tree")
	}
}

func TestPartition(t *testing.T) {
	a, _, _ := testTrees()
	matching, rest := a.Partition(func(k Kind) bool { return k == "Cookies" })

	want := TreeOf(NewParameterPath("x", ".field"), "Cookies")
	if !matching.Equal(want) {
		t.Errorf("matching = %s, want %s", matching, want)
	}
	wantRest := TreeOf(NewParameterPath("x", ""), "UserControlled")
	if !rest.Equal(wantRest) {
		t.Errorf("rest = %s, want %s", rest, wantRest)
	}
	// Re-joining the halves restores the original tree.
	if !matching.Join(rest).Equal(a) {
		t.Errorf("partition halves do not re-join to the original tree")
	}
}

func TestCoveringTaints(t *testing.T) {
	tree := NewTaintTree()
	tree.AddLeaf(NewParameterPath("x", ""), "UserControlled")
	tree.AddLeaf(NewParameterPath("x", ".f.g"), "Cookies")

	tests := []struct {
		name string
		ap   AccessPath
		want KindSet
	}{
		{"whole value covers field", NewParameterPath("x", ".f"), NewKindSet("UserControlled")},
		{"exact and prefix", NewParameterPath("x", ".f.g"), NewKindSet("UserControlled", "Cookies")},
		{"other root", NewParameterPath("y", ""), NewKindSet()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tree.CoveringTaints(tt.ap)
			if !got.Equal(tt.want) {
				t.Errorf("CoveringTaints(%s) = %s, want %s", tt.ap, got, tt.want)
			}
		})
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		maxLen int
		want   string
	}{
		{"short path untouched", ".a.b", 3, ".a.b"},
		{"long path truncated", ".a.b.c.d", 3, ".a.b.c"},
		{"index elements", "[*].a[*].b", 2, "[*].a"},
		{"empty", "", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncatePath(tt.path, tt.maxLen); got != tt.want {
				t.Errorf("TruncatePath(%q, %d) = %q, want %q", tt.path, tt.maxLen, got, tt.want)
			}
		})
	}
}
