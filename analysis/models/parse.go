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

// Package models parses model source documents into taint models. Documents
// are parsed independently and reduced with the model algebra, so the result
// does not depend on document order. Malformed clauses accumulate as
// verification errors without discarding the rest of the document.
package models

import (
	"context"
	"strings"

	"github.com/argus-tools/argus/analysis/config"
	"github.com/argus-tools/argus/analysis/dataflow"
	"github.com/argus-tools/argus/internal/funcutil"
	"github.com/argus-tools/argus/internal/scheduler"
)

// A Document is one model source file.
type Document struct {
	Path string
	Text string
}

// A ParseResult collects everything a set of model documents declares.
type ParseResult struct {
	// Models maps each annotated callable to its merged model.
	Models dataflow.ModelMapping

	// Errors lists every verification failure found. A non-empty list does
	// not invalidate Models; escalation is the caller's policy.
	Errors []VerificationError

	// SkipOverrides names callables whose mode is forced to SkipAnalysis
	// regardless of other declarations.
	SkipOverrides map[dataflow.Callable]bool

	// Queries lists the model query rules declared across all documents,
	// sorted by name.
	Queries []Query
}

// NewParseResult returns an empty result.
func NewParseResult() *ParseResult {
	return &ParseResult{
		Models:        dataflow.ModelMapping{},
		SkipOverrides: map[dataflow.Callable]bool{},
	}
}

// merge folds another result into r. Model collisions go through the model
// join, so the fold is order-independent.
func (r *ParseResult) merge(other *ParseResult) *ParseResult {
	r.Models = dataflow.JoinMappings(r.Models, other.Models)
	r.Errors = append(r.Errors, other.Errors...)
	funcutil.Merge(r.SkipOverrides, other.SkipOverrides, func(a, b bool) bool { return a || b })
	r.Queries = append(r.Queries, other.Queries...)
	return r
}

// ApplySkipOverrides forces every callable named in SkipOverrides to the
// SkipAnalysis mode, preserving its declared taint.
func (r *ParseResult) ApplySkipOverrides() {
	for c := range r.SkipOverrides {
		m := r.Models.Resolve(c)
		m.Mode = dataflow.SkipAnalysisMode()
		r.Models = r.Models.WithModel(c, m)
	}
}

// ParseDocuments parses all documents in parallel and reduces their partial
// results. The resolver may be nil, in which case parameter names are not
// checked against signatures. The returned error is only non-nil when the
// context is cancelled; verification failures are reported in the result.
func ParseDocuments(ctx context.Context, cfg *config.Config, resolver dataflow.Resolver, docs []Document) (*ParseResult, error) {
	p := &parser{cfg: cfg, resolver: resolver}
	result, err := scheduler.MapReduce(ctx, docs,
		func(_ context.Context, doc Document) (*ParseResult, error) {
			return p.parseDocument(doc), nil
		},
		func(acc *ParseResult, one *ParseResult) *ParseResult { return acc.merge(one) },
		NewParseResult())
	if err != nil {
		return nil, err
	}
	result.ApplySkipOverrides()
	SortErrors(result.Errors)
	SortQueries(result.Queries)
	return result, nil
}

type parser struct {
	cfg      *config.Config
	resolver dataflow.Resolver
}

// sanitizeScopes carries the three per-category overrides of a pending
// @Sanitize decorator before they are folded into a mode.
type sanitizeScopes struct {
	Sources dataflow.SanitizeScope
	Sinks   dataflow.SanitizeScope
	Tito    dataflow.SanitizeScope
}

// pending holds decorator lines seen before the def they apply to.
type pending struct {
	skip     bool
	sanitize *sanitizeScopes
	line     int
}

func (p *parser) parseDocument(doc Document) *ParseResult {
	result := NewParseResult()
	var pend pending
	for i, raw := range strings.Split(doc.Text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "@"):
			p.parseDirective(doc.Path, lineNo, line, &pend, result)
		case strings.HasPrefix(line, "def "):
			p.parseDef(doc.Path, lineNo, line, pend, result)
			pend = pending{}
		case strings.HasPrefix(line, "ModelQuery("):
			if q, errs := p.parseQuery(doc.Path, lineNo, line); len(errs) > 0 {
				result.Errors = append(result.Errors, errs...)
			} else {
				result.Queries = append(result.Queries, q)
			}
		default:
			result.Errors = append(result.Errors,
				syntaxError(doc.Path, lineNo, "unrecognized clause %q", line))
		}
	}
	if pend.skip || pend.sanitize != nil {
		result.Errors = append(result.Errors,
			syntaxError(doc.Path, pend.line, "dangling decorator with no following def"))
	}
	return result
}

func (p *parser) parseDirective(path string, lineNo int, line string, pend *pending, result *ParseResult) {
	switch {
	case line == "@SkipAnalysis":
		pend.skip = true
		pend.line = lineNo
	case line == "@Sanitize":
		pend.sanitize = &sanitizeScopes{
			Sources: dataflow.AllScope(),
			Sinks:   dataflow.AllScope(),
			Tito:    dataflow.AllScope(),
		}
		pend.line = lineNo
	case strings.HasPrefix(line, "@Sanitize(") && strings.HasSuffix(line, ")"):
		scopes, errs := parseSanitizeArgs(path, lineNo, line[len("@Sanitize("):len(line)-1])
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			return
		}
		if pend.sanitize == nil {
			pend.sanitize = &sanitizeScopes{
				Sources: dataflow.NoScope(),
				Sinks:   dataflow.NoScope(),
				Tito:    dataflow.NoScope(),
			}
		}
		pend.sanitize.Sources = pend.sanitize.Sources.Join(scopes.Sources)
		pend.sanitize.Sinks = pend.sanitize.Sinks.Join(scopes.Sinks)
		pend.sanitize.Tito = pend.sanitize.Tito.Join(scopes.Tito)
		pend.line = lineNo
	default:
		result.Errors = append(result.Errors,
			syntaxError(path, lineNo, "unknown decorator %q", line))
	}
}

// parseSanitizeArgs parses the comma-separated argument list of @Sanitize(...).
// Each argument is TaintSource, TaintSink or TaintInTaintOut, optionally with
// a bracketed kind list restricting the scope.
func parseSanitizeArgs(path string, lineNo int, args string) (sanitizeScopes, []VerificationError) {
	scopes := sanitizeScopes{
		Sources: dataflow.NoScope(),
		Sinks:   dataflow.NoScope(),
		Tito:    dataflow.NoScope(),
	}
	var errs []VerificationError
	for _, arg := range splitTop(args, ',') {
		arg = strings.TrimSpace(arg)
		family, kinds, ok := parseAnnotation(arg)
		if !ok {
			errs = append(errs, syntaxError(path, lineNo, "malformed sanitize argument %q", arg))
			continue
		}
		scope := dataflow.AllScope()
		if len(kinds) > 0 {
			scope = dataflow.SpecificScope(kinds...)
		}
		switch family {
		case "TaintSource":
			scopes.Sources = scopes.Sources.Join(scope)
		case "TaintSink":
			scopes.Sinks = scopes.Sinks.Join(scope)
		case "TaintInTaintOut":
			scopes.Tito = scopes.Tito.Join(scope)
		default:
			errs = append(errs, syntaxError(path, lineNo, "unknown sanitize family %q", family))
		}
	}
	return scopes, errs
}

// parseDef parses one signature-shaped model declaration:
//
//	def qualified.name(p: TaintSource[UserControlled], q: TaintSink[Sql]) -> TaintSource[X]: ...
//
// Untagged parameters are allowed and contribute nothing. The trailing
// ": ..." is optional.
func (p *parser) parseDef(path string, lineNo int, line string, pend pending, result *ParseResult) {
	body := strings.TrimPrefix(line, "def ")
	body = strings.TrimSuffix(strings.TrimSpace(body), ": ...")
	body = strings.TrimSuffix(body, ":")

	open := strings.IndexByte(body, '(')
	if open < 0 {
		result.Errors = append(result.Errors, syntaxError(path, lineNo, "def missing parameter list"))
		return
	}
	name := strings.TrimSpace(body[:open])
	if name == "" {
		result.Errors = append(result.Errors, syntaxError(path, lineNo, "def missing callable name"))
		return
	}
	end := matchingParen(body, open)
	if end < 0 {
		result.Errors = append(result.Errors, syntaxError(path, lineNo, "unbalanced parameter list"))
		return
	}
	params := body[open+1 : end]
	returns := ""
	if rest := strings.TrimSpace(body[end+1:]); rest != "" {
		if !strings.HasPrefix(rest, "->") {
			result.Errors = append(result.Errors,
				syntaxError(path, lineNo, "unexpected text %q after parameter list", rest))
			return
		}
		returns = strings.TrimSpace(strings.TrimPrefix(rest, "->"))
	}

	callable := dataflow.NewCallable(name)
	model := dataflow.EmptyModel()
	var sig dataflow.Signature
	haveSig := false
	if p.resolver != nil {
		sig, haveSig = p.resolver.Signature(callable)
	}

	for _, field := range splitTop(params, ',') {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		colon := indexTop(field, ':')
		if colon < 0 {
			// Untagged parameter, declaration only.
			continue
		}
		pname := strings.TrimSpace(field[:colon])
		ann := strings.TrimSpace(field[colon+1:])
		if haveSig && !sig.HasParam(strings.TrimLeft(pname, "*")) {
			result.Errors = append(result.Errors,
				semanticError(path, lineNo, "callable %s has no parameter %q", name, pname))
			continue
		}
		p.applyAnnotation(path, lineNo, &model, dataflow.NewParameterPath(strings.TrimLeft(pname, "*"), ""), ann, result)
	}
	if returns != "" {
		p.applyAnnotation(path, lineNo, &model, dataflow.NewReturnPath(""), returns, result)
	}

	if pend.skip {
		result.SkipOverrides[callable] = true
	}
	if pend.sanitize != nil {
		model.Mode = model.Mode.Join(dataflow.SanitizeMode(
			pend.sanitize.Sources, pend.sanitize.Sinks, pend.sanitize.Tito))
	}
	result.Models = result.Models.WithModel(callable, model)
}

// applyAnnotation attaches one taint annotation at the access path. Unknown
// kinds are reported and skipped; the rest of the declaration still counts.
func (p *parser) applyAnnotation(path string, lineNo int, model *dataflow.Model, at dataflow.AccessPath, ann string, result *ParseResult) {
	family, kinds, ok := parseAnnotation(ann)
	if !ok {
		result.Errors = append(result.Errors, syntaxError(path, lineNo, "malformed annotation %q", ann))
		return
	}
	switch family {
	case "TaintSource":
		if len(kinds) == 0 {
			result.Errors = append(result.Errors, syntaxError(path, lineNo, "TaintSource requires at least one kind"))
			return
		}
		for _, k := range kinds {
			if p.cfg != nil && !p.cfg.IsSourceKind(string(k)) {
				result.Errors = append(result.Errors,
					semanticError(path, lineNo, "unknown source kind %q", k))
				continue
			}
			model.Sources.AddLeaf(at, k)
		}
	case "TaintSink":
		if len(kinds) == 0 {
			result.Errors = append(result.Errors, syntaxError(path, lineNo, "TaintSink requires at least one kind"))
			return
		}
		for _, k := range kinds {
			if p.cfg != nil && !p.cfg.IsSinkKind(string(k)) {
				result.Errors = append(result.Errors,
					semanticError(path, lineNo, "unknown sink kind %q", k))
				continue
			}
			model.Sinks.AddLeaf(at, k)
		}
	case "TaintInTaintOut":
		if len(kinds) == 0 {
			kinds = []dataflow.Kind{dataflow.PassThroughKind}
		}
		for _, k := range kinds {
			model.Tito.AddLeaf(at, k)
		}
	default:
		result.Errors = append(result.Errors, syntaxError(path, lineNo, "unknown annotation family %q", family))
	}
}

// parseAnnotation splits "Family[K1, K2]" into its family and kind list.
// Bare "Family" is valid with an empty kind list.
func parseAnnotation(s string) (family string, kinds []dataflow.Kind, ok bool) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '[')
	if open < 0 {
		if s == "" || strings.ContainsAny(s, "]() ") {
			return "", nil, false
		}
		return s, nil, true
	}
	if !strings.HasSuffix(s, "]") {
		return "", nil, false
	}
	family = strings.TrimSpace(s[:open])
	if family == "" {
		return "", nil, false
	}
	for _, k := range strings.Split(s[open+1:len(s)-1], ",") {
		k = strings.TrimSpace(k)
		if k == "" {
			return "", nil, false
		}
		kinds = append(kinds, dataflow.Kind(k))
	}
	return family, kinds, true
}

// splitTop splits s at sep occurrences that are not nested inside brackets,
// parentheses or string quotes.
func splitTop(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// indexTop returns the index of the first sep occurrence at bracket depth
// zero, or -1.
func indexTop(s string, sep byte) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			return i
		}
	}
	return -1
}

// matchingParen returns the index of the parenthesis closing the one at open,
// or -1 if unbalanced.
func matchingParen(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
