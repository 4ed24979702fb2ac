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
	"strings"
)

// A TaintTree maps access paths to leaf sets of kinds. It is the join
// semi-lattice underlying the whole analysis: bottom is the empty tree, and
// Join is the point-wise union of leaf sets. Join is the only way taint
// accumulates across control-flow branches, call-graph merges and multi-file
// model redefinition.
//
// The algebra operations (Join, Partition) always return fresh trees and
// never mutate their inputs. AddLeaf mutates and is reserved for building a
// tree before sharing it.
type TaintTree struct {
	leaves map[AccessPath]KindSet
}

// NewTaintTree returns bottom: the empty tree.
func NewTaintTree() TaintTree {
	return TaintTree{leaves: map[AccessPath]KindSet{}}
}

// TreeOf builds a tree with a single leaf.
func TreeOf(ap AccessPath, kinds ...Kind) TaintTree {
	t := NewTaintTree()
	t.AddLeaf(ap, kinds...)
	return t
}

// AddLeaf adds kinds to the leaf set at the access path. Reserved for the
// construction phase of a tree; do not call on shared trees.
func (t TaintTree) AddLeaf(ap AccessPath, kinds ...Kind) {
	if len(kinds) == 0 {
		return
	}
	leaf, ok := t.leaves[ap]
	if !ok {
		leaf = KindSet{}
		t.leaves[ap] = leaf
	}
	for _, k := range kinds {
		leaf[k] = true
	}
}

// AddLeafSet adds a whole kind set at the access path; empty sets are ignored
// so that no empty leaves exist.
func (t TaintTree) AddLeafSet(ap AccessPath, kinds KindSet) {
	if kinds.IsEmpty() {
		return
	}
	t.AddLeaf(ap, kinds.Sorted()...)
}

// IsBottom returns true when the tree has no leaves.
func (t TaintTree) IsBottom() bool {
	return len(t.leaves) == 0
}

// TaintsAt returns the leaf set at exactly the access path; a fresh copy.
func (t TaintTree) TaintsAt(ap AccessPath) KindSet {
	if leaf, ok := t.leaves[ap]; ok {
		return leaf.Copy()
	}
	return KindSet{}
}

// CoveringTaints returns all kinds whose leaf covers the given access path:
// leaves at the same root whose path is a prefix of the queried path.
func (t TaintTree) CoveringTaints(ap AccessPath) KindSet {
	out := KindSet{}
	for leafPath, kinds := range t.leaves {
		if leafPath.PathCovers(ap) {
			for k := range kinds {
				out[k] = true
			}
		}
	}
	return out
}

// Join returns the point-wise union of the two trees: paths absent on one
// side are treated as bottom. Join is commutative, associative and
// idempotent, and never removes information.
func (t TaintTree) Join(o TaintTree) TaintTree {
	joined := NewTaintTree()
	for ap, kinds := range t.leaves {
		joined.AddLeafSet(ap, kinds)
	}
	for ap, kinds := range o.leaves {
		joined.AddLeafSet(ap, kinds)
	}
	return joined
}

// Partition splits the tree into the leaves satisfying pred and the rest,
// per access path. Sanitization decomposes a tree with Partition and drops
// one half; nothing happens to the other half.
func (t TaintTree) Partition(pred func(Kind) bool) (TaintTree, TaintTree) {
	matching, rest := NewTaintTree(), NewTaintTree()
	for ap, kinds := range t.leaves {
		m, r := kinds.Partition(pred)
		matching.AddLeafSet(ap, m)
		rest.AddLeafSet(ap, r)
	}
	return matching, rest
}

// Copy returns a structurally equal fresh tree.
func (t TaintTree) Copy() TaintTree {
	c := NewTaintTree()
	for ap, kinds := range t.leaves {
		c.AddLeafSet(ap, kinds)
	}
	return c
}

// Equal returns true when both trees have the same leaves.
func (t TaintTree) Equal(o TaintTree) bool {
	if len(t.leaves) != len(o.leaves) {
		return false
	}
	for ap, kinds := range t.leaves {
		other, ok := o.leaves[ap]
		if !ok || !kinds.Equal(other) {
			return false
		}
	}
	return true
}

// Paths returns the access paths of the tree, ordered by their string form.
func (t TaintTree) Paths() []AccessPath {
	paths := make([]AccessPath, 0, len(t.leaves))
	for ap := range t.leaves {
		paths = append(paths, ap)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].String() < paths[j].String() })
	return paths
}

// Size returns the number of leaves.
func (t TaintTree) Size() int {
	return len(t.leaves)
}

// Kinds returns the union of all leaf sets.
func (t TaintTree) Kinds() KindSet {
	out := KindSet{}
	for _, kinds := range t.leaves {
		for k := range kinds {
			out[k] = true
		}
	}
	return out
}

// Rebase returns a fresh tree with every root rewritten by f, joining leaves
// that collide. Used to turn local analysis states into model positions.
func (t TaintTree) Rebase(f func(Root) Root) TaintTree {
	out := NewTaintTree()
	for ap, kinds := range t.leaves {
		out.AddLeafSet(AccessPath{Root: f(ap.Root), Path: ap.Path}, kinds)
	}
	return out
}

func (t TaintTree) String() string {
	if t.IsBottom() {
		return "⊥"
	}
	var parts []string
	for _, ap := range t.Paths() {
		parts = append(parts, ap.String()+" -> "+t.leaves[ap].String())
	}
	return strings.Join(parts, "; ")
}
