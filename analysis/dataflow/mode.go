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

// ModeKind is the analysis mode of a callable's model.
type ModeKind int

const (
	// Normal runs the full forward/backward analysis.
	Normal ModeKind = iota

	// Sanitize runs the analysis and strips the configured scopes from the
	// results.
	Sanitize

	// SkipAnalysis freezes the model as-is: the callable is never analyzed.
	SkipAnalysis
)

func (k ModeKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Sanitize:
		return "sanitize"
	case SkipAnalysis:
		return "skip-analysis"
	default:
		return fmt.Sprintf("ModeKind(%d)", int(k))
	}
}

// ScopeKind is the shape of one sanitize override.
type ScopeKind int

const (
	// ScopeNone leaves the corresponding tree untouched.
	ScopeNone ScopeKind = iota

	// ScopeAll zeroes the whole corresponding tree to bottom.
	ScopeAll

	// ScopeSpecific removes only the listed kinds from every leaf.
	ScopeSpecific
)

// A SanitizeScope is one of the three per-category overrides of a Sanitize
// mode: None, All, or a specific set of kinds.
type SanitizeScope struct {
	Kind  ScopeKind
	Kinds KindSet
}

// NoScope returns the override that touches nothing.
func NoScope() SanitizeScope {
	return SanitizeScope{Kind: ScopeNone}
}

// AllScope returns the override that zeroes the whole tree.
func AllScope() SanitizeScope {
	return SanitizeScope{Kind: ScopeAll}
}

// SpecificScope returns the override removing exactly the given kinds.
func SpecificScope(kinds ...Kind) SanitizeScope {
	return SanitizeScope{Kind: ScopeSpecific, Kinds: NewKindSet(kinds...)}
}

// Join combines two overrides: All absorbs everything, two specific sets
// union, None is the identity. Total and associative.
func (s SanitizeScope) Join(o SanitizeScope) SanitizeScope {
	switch {
	case s.Kind == ScopeAll || o.Kind == ScopeAll:
		return AllScope()
	case s.Kind == ScopeNone:
		return o
	case o.Kind == ScopeNone:
		return s
	default:
		return SanitizeScope{Kind: ScopeSpecific, Kinds: s.Kinds.Union(o.Kinds)}
	}
}

// Apply transforms a tree according to the override: None keeps the tree
// verbatim, All yields bottom, Specific drops exactly the listed kinds from
// every access path and keeps all others via the non-matching half of a
// partition.
func (s SanitizeScope) Apply(t TaintTree) TaintTree {
	switch s.Kind {
	case ScopeNone:
		return t.Copy()
	case ScopeAll:
		return NewTaintTree()
	case ScopeSpecific:
		_, kept := t.Partition(func(k Kind) bool { return s.Kinds.Has(k) })
		return kept
	default:
		panic(fmt.Sprintf("unexpected sanitize scope %d", int(s.Kind)))
	}
}

// Equal returns true when both overrides are the same.
func (s SanitizeScope) Equal(o SanitizeScope) bool {
	if s.Kind != o.Kind {
		return false
	}
	if s.Kind == ScopeSpecific {
		return s.Kinds.Equal(o.Kinds)
	}
	return true
}

func (s SanitizeScope) String() string {
	switch s.Kind {
	case ScopeNone:
		return "none"
	case ScopeAll:
		return "all"
	case ScopeSpecific:
		return s.Kinds.String()
	default:
		return fmt.Sprintf("SanitizeScope(%d)", int(s.Kind))
	}
}

// A Mode is the closed variant governing how a callable is analyzed. The
// Sources/Sinks/Tito overrides are meaningful only when Kind is Sanitize.
type Mode struct {
	Kind    ModeKind
	Sources SanitizeScope
	Sinks   SanitizeScope
	Tito    SanitizeScope
}

// NormalMode returns the default full-analysis mode.
func NormalMode() Mode {
	return Mode{Kind: Normal, Sources: NoScope(), Sinks: NoScope(), Tito: NoScope()}
}

// SkipAnalysisMode returns the frozen-model mode.
func SkipAnalysisMode() Mode {
	return Mode{Kind: SkipAnalysis, Sources: NoScope(), Sinks: NoScope(), Tito: NoScope()}
}

// SanitizeMode returns a sanitize mode with the three per-category overrides.
func SanitizeMode(sources, sinks, tito SanitizeScope) Mode {
	return Mode{Kind: Sanitize, Sources: sources, Sinks: sinks, Tito: tito}
}

// Join combines the modes of two models for the same callable. The precedence
// is total and pinned: SkipAnalysis > Sanitize > Normal, so a SkipAnalysis
// declaration is never silently overridden by a weaker Normal model from a
// second file. Joining two Sanitize modes joins the three overrides
// point-wise, which keeps Join associative and commutative.
func (m Mode) Join(o Mode) Mode {
	switch {
	case m.Kind == SkipAnalysis || o.Kind == SkipAnalysis:
		return SkipAnalysisMode()
	case m.Kind == Sanitize && o.Kind == Sanitize:
		return SanitizeMode(m.Sources.Join(o.Sources), m.Sinks.Join(o.Sinks), m.Tito.Join(o.Tito))
	case m.Kind == Sanitize:
		return m
	case o.Kind == Sanitize:
		return o
	default:
		return NormalMode()
	}
}

// Equal returns true when both modes are structurally the same.
func (m Mode) Equal(o Mode) bool {
	return m.Kind == o.Kind &&
		m.Sources.Equal(o.Sources) &&
		m.Sinks.Equal(o.Sinks) &&
		m.Tito.Equal(o.Tito)
}

func (m Mode) String() string {
	if m.Kind != Sanitize {
		return m.Kind.String()
	}
	var parts []string
	if m.Sources.Kind != ScopeNone {
		parts = append(parts, "sources="+m.Sources.String())
	}
	if m.Sinks.Kind != ScopeNone {
		parts = append(parts, "sinks="+m.Sinks.String())
	}
	if m.Tito.Kind != ScopeNone {
		parts = append(parts, "tito="+m.Tito.String())
	}
	return "sanitize(" + strings.Join(parts, ", ") + ")"
}
