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
	"strings"

	"github.com/argus-tools/argus/internal/funcutil"
	"golang.org/x/exp/slices"
)

// A Kind tags a source or sink category (e.g. "UserControlled", "SQL").
// Kinds compare and order by name.
type Kind string

// ObscureKind is the conservative sink marker attached to unmodeled stub
// callables so that flows through unknown code are flagged rather than
// silently dropped.
const ObscureKind Kind = "Obscure"

// PassThroughKind is the default taint-in-taint-out kind when a declaration
// names none: whatever enters the position reaches the return unchanged.
const PassThroughKind Kind = "PassThrough"

// A KindSet is a set of kinds. The zero value is not usable; construct sets
// with NewKindSet.
type KindSet map[Kind]bool

// NewKindSet returns a set holding the given kinds.
func NewKindSet(kinds ...Kind) KindSet {
	s := KindSet{}
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// Has returns true when k is in the set.
func (s KindSet) Has(k Kind) bool {
	return s[k]
}

// IsEmpty returns true when the set holds no kind.
func (s KindSet) IsEmpty() bool {
	return len(s) == 0
}

// Copy returns a fresh set with the same elements.
func (s KindSet) Copy() KindSet {
	c := make(KindSet, len(s))
	for k := range s {
		c[k] = true
	}
	return c
}

// Union returns a fresh set holding the elements of both sets.
func (s KindSet) Union(o KindSet) KindSet {
	c := s.Copy()
	funcutil.Union(c, o)
	return c
}

// Equal returns true when both sets hold exactly the same kinds.
func (s KindSet) Equal(o KindSet) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if !o[k] {
			return false
		}
	}
	return true
}

// Partition splits the set into the kinds satisfying pred and the rest.
func (s KindSet) Partition(pred func(Kind) bool) (KindSet, KindSet) {
	matching, rest := KindSet{}, KindSet{}
	for k := range s {
		if pred(k) {
			matching[k] = true
		} else {
			rest[k] = true
		}
	}
	return matching, rest
}

// Sorted returns the kinds in name order.
func (s KindSet) Sorted() []Kind {
	kinds := make([]Kind, 0, len(s))
	for k := range s {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func (s KindSet) String() string {
	var names []string
	for _, k := range s.Sorted() {
		names = append(names, string(k))
	}
	return "{" + strings.Join(names, ", ") + "}"
}
