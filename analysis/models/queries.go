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

package models

import (
	"regexp"
	"sort"
	"strings"

	"github.com/argus-tools/argus/analysis/dataflow"
)

// Find targets of a model query.
const (
	FindFunctions = "functions"
	FindMethods   = "methods"
)

// A Condition filters candidate callables of a model query.
type Condition interface {
	Matches(c dataflow.Callable, r dataflow.Resolver) bool
}

// NameMatches matches callables whose qualified name matches the pattern.
type NameMatches struct {
	Pattern *regexp.Regexp
}

func (n NameMatches) Matches(c dataflow.Callable, _ dataflow.Resolver) bool {
	return n.Pattern.MatchString(c.Name)
}

// DecoratorMatches matches callables carrying a decorator whose name matches
// the pattern.
type DecoratorMatches struct {
	Pattern *regexp.Regexp
}

func (d DecoratorMatches) Matches(c dataflow.Callable, r dataflow.Resolver) bool {
	if r == nil {
		return false
	}
	for _, dec := range r.Decorators(c) {
		if d.Pattern.MatchString(dec) {
			return true
		}
	}
	return false
}

// ParentEquals matches methods whose enclosing class has exactly this name.
type ParentEquals struct {
	Name string
}

func (p ParentEquals) Matches(c dataflow.Callable, r dataflow.Resolver) bool {
	if r == nil {
		return false
	}
	parent, ok := r.Parent(c)
	return ok && parent == p.Name
}

// ParentMatches matches methods whose enclosing class name matches the
// pattern.
type ParentMatches struct {
	Pattern *regexp.Regexp
}

func (p ParentMatches) Matches(c dataflow.Callable, r dataflow.Resolver) bool {
	if r == nil {
		return false
	}
	parent, ok := r.Parent(c)
	return ok && p.Pattern.MatchString(parent)
}

// A taintSpec is a parsed, kind-checked annotation carried by a template.
type taintSpec struct {
	family string
	kinds  []dataflow.Kind
}

// attach adds the spec's kinds to the right tree of the model at the path.
func (ts taintSpec) attach(m *dataflow.Model, at dataflow.AccessPath) {
	switch ts.family {
	case "TaintSource":
		m.Sources.AddLeaf(at, ts.kinds...)
	case "TaintSink":
		m.Sinks.AddLeaf(at, ts.kinds...)
	case "TaintInTaintOut":
		kinds := ts.kinds
		if len(kinds) == 0 {
			kinds = []dataflow.Kind{dataflow.PassThroughKind}
		}
		m.Tito.AddLeaf(at, kinds...)
	}
}

// A Template synthesizes taint onto the model of a matched callable.
type Template interface {
	Apply(c dataflow.Callable, r dataflow.Resolver, m *dataflow.Model)
}

// ReturnsTemplate attaches taint at the return position.
type ReturnsTemplate struct {
	spec taintSpec
}

func (t ReturnsTemplate) Apply(_ dataflow.Callable, _ dataflow.Resolver, m *dataflow.Model) {
	t.spec.attach(m, dataflow.NewReturnPath(""))
}

// AllParametersTemplate attaches taint at every declared parameter. Without a
// resolved signature there is nothing to attach to and the template is a
// no-op for that callable.
type AllParametersTemplate struct {
	spec taintSpec
}

func (t AllParametersTemplate) Apply(c dataflow.Callable, r dataflow.Resolver, m *dataflow.Model) {
	if r == nil {
		return
	}
	sig, ok := r.Signature(c)
	if !ok {
		return
	}
	for _, name := range sig.ParamNames() {
		t.spec.attach(m, dataflow.NewParameterPath(name, ""))
	}
}

// NamedParameterTemplate attaches taint at one parameter by name, skipping
// callables that do not declare it.
type NamedParameterTemplate struct {
	name string
	spec taintSpec
}

func (t NamedParameterTemplate) Apply(c dataflow.Callable, r dataflow.Resolver, m *dataflow.Model) {
	if r != nil {
		if sig, ok := r.Signature(c); ok && !sig.HasParam(t.name) {
			return
		}
	}
	t.spec.attach(m, dataflow.NewParameterPath(t.name, ""))
}

// A Query is one model query rule: a target space, filter conditions and the
// model templates synthesized for every match.
type Query struct {
	Name  string
	Find  string
	Where []Condition
	Model []Template
}

// Matches returns true when the callable is in the query's target space and
// satisfies every condition.
func (q Query) Matches(c dataflow.Callable, r dataflow.Resolver) bool {
	if q.Find == FindMethods {
		if r == nil {
			return false
		}
		if _, ok := r.Parent(c); !ok {
			return false
		}
	}
	for _, cond := range q.Where {
		if !cond.Matches(c, r) {
			return false
		}
	}
	return true
}

// SortQueries orders queries by name for deterministic application and
// reporting.
func SortQueries(qs []Query) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].Name < qs[j].Name })
}

// ApplyQueries synthesizes models for every candidate matched by a query and
// returns the input mapping joined with the synthesized ones. Explicit models
// and query-derived models for the same callable merge through the model
// algebra, so declaration order does not matter.
func ApplyQueries(mm dataflow.ModelMapping, queries []Query, candidates []dataflow.Callable, r dataflow.Resolver) dataflow.ModelMapping {
	synth := dataflow.ModelMapping{}
	for _, q := range queries {
		for _, c := range candidates {
			if !q.Matches(c, r) {
				continue
			}
			m := dataflow.EmptyModel()
			for _, tmpl := range q.Model {
				tmpl.Apply(c, r, &m)
			}
			if !m.IsEmpty() {
				synth = synth.WithModel(c, m)
			}
		}
	}
	return dataflow.JoinMappings(mm, synth)
}

// parseQuery parses a single-line model query rule:
//
//	ModelQuery(name = "q1", find = "functions", where = name.matches("^a"), model = Returns(TaintSource[X]))
//
// where and model accept a bracketed list for multiple entries.
func (p *parser) parseQuery(path string, lineNo int, line string) (Query, []VerificationError) {
	inner := strings.TrimSuffix(strings.TrimPrefix(line, "ModelQuery("), ")")
	q := Query{}
	var errs []VerificationError
	seen := map[string]bool{}
	for _, field := range splitTop(inner, ',') {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		eq := indexTop(field, '=')
		if eq < 0 {
			errs = append(errs, syntaxError(path, lineNo, "model query field %q is not key = value", field))
			continue
		}
		key := strings.TrimSpace(field[:eq])
		value := strings.TrimSpace(field[eq+1:])
		if seen[key] {
			errs = append(errs, syntaxError(path, lineNo, "duplicate model query field %q", key))
			continue
		}
		seen[key] = true
		switch key {
		case "name":
			name, ok := unquote(value)
			if !ok {
				errs = append(errs, syntaxError(path, lineNo, "model query name must be a quoted string"))
				continue
			}
			q.Name = name
		case "find":
			find, ok := unquote(value)
			if !ok || (find != FindFunctions && find != FindMethods) {
				errs = append(errs, syntaxError(path, lineNo, "model query find must be %q or %q", FindFunctions, FindMethods))
				continue
			}
			q.Find = find
		case "where":
			for _, item := range listItems(value) {
				cond, err := parseCondition(path, lineNo, item)
				if err != nil {
					errs = append(errs, *err)
					continue
				}
				q.Where = append(q.Where, cond)
			}
		case "model":
			for _, item := range listItems(value) {
				tmpl, terrs := p.parseTemplate(path, lineNo, item)
				if len(terrs) > 0 {
					errs = append(errs, terrs...)
					continue
				}
				q.Model = append(q.Model, tmpl)
			}
		default:
			errs = append(errs, syntaxError(path, lineNo, "unknown model query field %q", key))
		}
	}
	if q.Name == "" {
		errs = append(errs, semanticError(path, lineNo, "model query requires a name"))
	}
	if q.Find == "" {
		errs = append(errs, semanticError(path, lineNo, "model query requires a find target"))
	}
	if len(q.Model) == 0 && len(errs) == 0 {
		errs = append(errs, semanticError(path, lineNo, "model query %q synthesizes nothing", q.Name))
	}
	return q, errs
}

func parseCondition(path string, lineNo int, item string) (Condition, *VerificationError) {
	item = strings.TrimSpace(item)
	compile := func(arg string) (*regexp.Regexp, *VerificationError) {
		pat, ok := unquote(arg)
		if !ok {
			e := syntaxError(path, lineNo, "condition pattern must be a quoted string in %q", item)
			return nil, &e
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			e := semanticError(path, lineNo, "invalid condition pattern %q: %v", pat, err)
			return nil, &e
		}
		return re, nil
	}
	switch {
	case strings.HasPrefix(item, "name.matches(") && strings.HasSuffix(item, ")"):
		re, err := compile(item[len("name.matches(") : len(item)-1])
		if err != nil {
			return nil, err
		}
		return NameMatches{Pattern: re}, nil
	case strings.HasPrefix(item, "decorator.matches(") && strings.HasSuffix(item, ")"):
		re, err := compile(item[len("decorator.matches(") : len(item)-1])
		if err != nil {
			return nil, err
		}
		return DecoratorMatches{Pattern: re}, nil
	case strings.HasPrefix(item, "parent.equals(") && strings.HasSuffix(item, ")"):
		name, ok := unquote(item[len("parent.equals(") : len(item)-1])
		if !ok {
			e := syntaxError(path, lineNo, "parent.equals requires a quoted class name in %q", item)
			return nil, &e
		}
		return ParentEquals{Name: name}, nil
	case strings.HasPrefix(item, "parent.matches(") && strings.HasSuffix(item, ")"):
		re, err := compile(item[len("parent.matches(") : len(item)-1])
		if err != nil {
			return nil, err
		}
		return ParentMatches{Pattern: re}, nil
	default:
		e := syntaxError(path, lineNo, "unknown condition %q", item)
		return nil, &e
	}
}

func (p *parser) parseTemplate(path string, lineNo int, item string) (Template, []VerificationError) {
	item = strings.TrimSpace(item)
	switch {
	case strings.HasPrefix(item, "Returns(") && strings.HasSuffix(item, ")"):
		spec, errs := p.parseTaintSpec(path, lineNo, item[len("Returns("):len(item)-1])
		if len(errs) > 0 {
			return nil, errs
		}
		return ReturnsTemplate{spec: spec}, nil
	case strings.HasPrefix(item, "AllParameters(") && strings.HasSuffix(item, ")"):
		spec, errs := p.parseTaintSpec(path, lineNo, item[len("AllParameters("):len(item)-1])
		if len(errs) > 0 {
			return nil, errs
		}
		return AllParametersTemplate{spec: spec}, nil
	case strings.HasPrefix(item, "NamedParameter(") && strings.HasSuffix(item, ")"):
		args := splitTop(item[len("NamedParameter("):len(item)-1], ',')
		if len(args) != 2 {
			return nil, []VerificationError{syntaxError(path, lineNo, "NamedParameter requires (name, annotation) in %q", item)}
		}
		name, ok := unquote(strings.TrimSpace(args[0]))
		if !ok {
			return nil, []VerificationError{syntaxError(path, lineNo, "NamedParameter name must be a quoted string in %q", item)}
		}
		spec, errs := p.parseTaintSpec(path, lineNo, strings.TrimSpace(args[1]))
		if len(errs) > 0 {
			return nil, errs
		}
		return NamedParameterTemplate{name: name, spec: spec}, nil
	default:
		return nil, []VerificationError{syntaxError(path, lineNo, "unknown model template %q", item)}
	}
}

// parseTaintSpec parses and kind-checks one annotation used inside a
// template.
func (p *parser) parseTaintSpec(path string, lineNo int, s string) (taintSpec, []VerificationError) {
	family, kinds, ok := parseAnnotation(s)
	if !ok {
		return taintSpec{}, []VerificationError{syntaxError(path, lineNo, "malformed annotation %q", s)}
	}
	var errs []VerificationError
	switch family {
	case "TaintSource":
		if len(kinds) == 0 {
			errs = append(errs, syntaxError(path, lineNo, "TaintSource requires at least one kind"))
		}
		for _, k := range kinds {
			if p.cfg != nil && !p.cfg.IsSourceKind(string(k)) {
				errs = append(errs, semanticError(path, lineNo, "unknown source kind %q", k))
			}
		}
	case "TaintSink":
		if len(kinds) == 0 {
			errs = append(errs, syntaxError(path, lineNo, "TaintSink requires at least one kind"))
		}
		for _, k := range kinds {
			if p.cfg != nil && !p.cfg.IsSinkKind(string(k)) {
				errs = append(errs, semanticError(path, lineNo, "unknown sink kind %q", k))
			}
		}
	case "TaintInTaintOut":
		// Bare TaintInTaintOut defaults to the pass-through kind.
	default:
		errs = append(errs, syntaxError(path, lineNo, "unknown annotation family %q", family))
	}
	if len(errs) > 0 {
		return taintSpec{}, errs
	}
	return taintSpec{family: family, kinds: kinds}, nil
}

// listItems unwraps "[a, b, c]" into its elements; a bare value is a
// single-element list.
func listItems(s string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var items []string
		for _, it := range splitTop(s[1:len(s)-1], ',') {
			if it = strings.TrimSpace(it); it != "" {
				items = append(items, it)
			}
		}
		return items
	}
	return []string{s}
}

// unquote strips one layer of matching single or double quotes.
func unquote(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return "", false
	}
	if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1], true
	}
	return "", false
}
