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
	"context"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/argus-tools/argus/analysis/config"
	"github.com/argus-tools/argus/analysis/dataflow"
	"github.com/argus-tools/argus/analysis/lang"
)

// fakeResolver serves signatures and class parents from fixed tables.
type fakeResolver struct {
	sigs    map[string][]string
	parents map[string]string
}

func (f *fakeResolver) Signature(c dataflow.Callable) (dataflow.Signature, bool) {
	names, ok := f.sigs[c.Name]
	if !ok {
		return dataflow.Signature{}, false
	}
	var params []lang.Param
	for _, n := range names {
		params = append(params, lang.Param{Name: n, Kind: lang.PosParam})
	}
	return dataflow.Signature{Params: params}, true
}

func (f *fakeResolver) Decorators(c dataflow.Callable) []string { return nil }

func (f *fakeResolver) Parent(c dataflow.Callable) (string, bool) {
	p, ok := f.parents[c.Name]
	return p, ok
}

func (f *fakeResolver) IsStub(c dataflow.Callable) bool { return false }

func newTestResolver() *fakeResolver {
	return &fakeResolver{
		sigs: map[string][]string{
			"app.get_input":   {},
			"db.execute":      {"query"},
			"strings.concat":  {"a", "b"},
			"legacy.noisy":    {"x"},
			"http.scrub":      {"v"},
			"crypto.hash":     {"v"},
			"views.render":    {"request"},
			"repo.Repository.save": {"entity", "tags"},
		},
		parents: map[string]string{
			"repo.Repository.save": "Repository",
		},
	}
}

func newTestConfig() *config.Config {
	cfg := config.NewDefault()
	cfg.Sources = []string{"UserControlled"}
	cfg.Sinks = []string{"Sql"}
	return cfg
}

func loadFixture(t *testing.T) []Document {
	t.Helper()
	archive, err := txtar.ParseFile(filepath.Join("testdata", "parse.txtar"))
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	var docs []Document
	for _, f := range archive.Files {
		docs = append(docs, Document{Path: f.Name, Text: string(f.Data)})
	}
	return docs
}

func fixtureDoc(t *testing.T, name string) Document {
	t.Helper()
	for _, d := range loadFixture(t) {
		if d.Path == name {
			return d
		}
	}
	t.Fatalf("fixture %s not found", name)
	return Document{}
}

func parseAll(t *testing.T, docs []Document) *ParseResult {
	t.Helper()
	result, err := ParseDocuments(context.Background(), newTestConfig(), newTestResolver(), docs)
	if err != nil {
		t.Fatalf("ParseDocuments: %v", err)
	}
	return result
}

func TestParseExplicitModels(t *testing.T) {
	result := parseAll(t, []Document{fixtureDoc(t, "base.pysm")})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	src := result.Models.Resolve(dataflow.NewCallable("app.get_input"))
	if !src.Sources.TaintsAt(dataflow.NewReturnPath("")).Has("UserControlled") {
		t.Errorf("app.get_input should source UserControlled at return, got %v", src.Sources)
	}

	sink := result.Models.Resolve(dataflow.NewCallable("db.execute"))
	if !sink.Sinks.TaintsAt(dataflow.NewParameterPath("query", "")).Has("Sql") {
		t.Errorf("db.execute should sink Sql at query, got %v", sink.Sinks)
	}

	tito := result.Models.Resolve(dataflow.NewCallable("strings.concat"))
	for _, p := range []string{"a", "b"} {
		if !tito.Tito.TaintsAt(dataflow.NewParameterPath(p, "")).Has(dataflow.PassThroughKind) {
			t.Errorf("strings.concat should pass taint through %s, got %v", p, tito.Tito)
		}
	}
}

func TestParseModeDirectives(t *testing.T) {
	result := parseAll(t, []Document{fixtureDoc(t, "overrides.pysm")})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	noisy := result.Models.Resolve(dataflow.NewCallable("legacy.noisy"))
	if noisy.Mode.Kind != dataflow.SkipAnalysis {
		t.Errorf("legacy.noisy mode = %v, want skip-analysis", noisy.Mode)
	}
	if !noisy.Sinks.TaintsAt(dataflow.NewParameterPath("x", "")).Has("Sql") {
		t.Errorf("skip override must not discard declared taint, got %v", noisy.Sinks)
	}

	scrub := result.Models.Resolve(dataflow.NewCallable("http.scrub"))
	want := dataflow.SanitizeMode(
		dataflow.SpecificScope("UserControlled"), dataflow.NoScope(), dataflow.NoScope())
	if !scrub.Mode.Equal(want) {
		t.Errorf("http.scrub mode = %v, want %v", scrub.Mode, want)
	}

	hash := result.Models.Resolve(dataflow.NewCallable("crypto.hash"))
	all := dataflow.SanitizeMode(dataflow.AllScope(), dataflow.AllScope(), dataflow.AllScope())
	if !hash.Mode.Equal(all) {
		t.Errorf("crypto.hash mode = %v, want %v", hash.Mode, all)
	}
}

func TestParseErrorsArePartial(t *testing.T) {
	result := parseAll(t, []Document{fixtureDoc(t, "broken.pysm")})

	byCategory := map[string]int{}
	for _, e := range result.Errors {
		byCategory[e.Category]++
	}
	// Unknown kind and unknown parameter are semantic; the stray text is syntax.
	if byCategory[CategorySemantic] != 2 {
		t.Errorf("semantic errors = %d, want 2: %v", byCategory[CategorySemantic], result.Errors)
	}
	if byCategory[CategorySyntax] != 1 {
		t.Errorf("syntax errors = %d, want 1: %v", byCategory[CategorySyntax], result.Errors)
	}

	// Failed declarations must not suppress the document's valid models: both
	// callables are still defined, just with the bad leaves dropped.
	if !result.Models.Defines(dataflow.NewCallable("app.get_input")) {
		t.Errorf("app.get_input dropped from mapping")
	}
	bad := result.Models.Resolve(dataflow.NewCallable("app.get_input"))
	if !bad.Sources.IsBottom() {
		t.Errorf("unknown kind must not produce taint, got %v", bad.Sources)
	}
}

func TestParseOrderIndependence(t *testing.T) {
	docs := loadFixture(t)
	forward := parseAll(t, docs)

	reversed := make([]Document, len(docs))
	for i, d := range docs {
		reversed[len(docs)-1-i] = d
	}
	backward := parseAll(t, reversed)

	fc, bc := forward.Models.Callables(), backward.Models.Callables()
	if len(fc) != len(bc) {
		t.Fatalf("callable counts differ: %d vs %d", len(fc), len(bc))
	}
	for _, c := range fc {
		if !forward.Models.Resolve(c).Equal(backward.Models.Resolve(c)) {
			t.Errorf("model of %s differs across parse orders", c)
		}
	}
	if len(forward.Errors) != len(backward.Errors) {
		t.Errorf("error counts differ: %d vs %d", len(forward.Errors), len(backward.Errors))
	}
}

func TestSkipOverrideWinsAcrossDocuments(t *testing.T) {
	docs := []Document{
		{Path: "a.pysm", Text: "def pkg.f(x: TaintSink[Sql]): ...\n"},
		{Path: "b.pysm", Text: "@SkipAnalysis\ndef pkg.f(x): ...\n"},
	}
	result, err := ParseDocuments(context.Background(), newTestConfig(), nil, docs)
	if err != nil {
		t.Fatalf("ParseDocuments: %v", err)
	}
	m := result.Models.Resolve(dataflow.NewCallable("pkg.f"))
	if m.Mode.Kind != dataflow.SkipAnalysis {
		t.Errorf("mode = %v, want skip-analysis regardless of document order", m.Mode)
	}
	if !m.Sinks.TaintsAt(dataflow.NewParameterPath("x", "")).Has("Sql") {
		t.Errorf("sink from the other document lost: %v", m.Sinks)
	}
}

func TestDanglingDecorator(t *testing.T) {
	docs := []Document{{Path: "a.pysm", Text: "@SkipAnalysis\n# nothing follows\n"}}
	result, err := ParseDocuments(context.Background(), newTestConfig(), nil, docs)
	if err != nil {
		t.Fatalf("ParseDocuments: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Category != CategorySyntax {
		t.Fatalf("want one syntax error for dangling decorator, got %v", result.Errors)
	}
}

func TestSanitizeDirectiveForms(t *testing.T) {
	tests := []struct {
		name      string
		directive string
		want      dataflow.Mode
	}{
		{
			name:      "all categories",
			directive: "@Sanitize",
			want:      dataflow.SanitizeMode(dataflow.AllScope(), dataflow.AllScope(), dataflow.AllScope()),
		},
		{
			name:      "whole category",
			directive: "@Sanitize(TaintSink)",
			want:      dataflow.SanitizeMode(dataflow.NoScope(), dataflow.AllScope(), dataflow.NoScope()),
		},
		{
			name:      "specific kinds",
			directive: "@Sanitize(TaintSource[UserControlled])",
			want:      dataflow.SanitizeMode(dataflow.SpecificScope("UserControlled"), dataflow.NoScope(), dataflow.NoScope()),
		},
		{
			name:      "two categories",
			directive: "@Sanitize(TaintSource[UserControlled], TaintInTaintOut)",
			want:      dataflow.SanitizeMode(dataflow.SpecificScope("UserControlled"), dataflow.NoScope(), dataflow.AllScope()),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := []Document{{Path: "a.pysm", Text: tt.directive + "\ndef pkg.f(x): ...\n"}}
			result, err := ParseDocuments(context.Background(), newTestConfig(), nil, docs)
			if err != nil {
				t.Fatalf("ParseDocuments: %v", err)
			}
			if len(result.Errors) != 0 {
				t.Fatalf("unexpected errors: %v", result.Errors)
			}
			got := result.Models.Resolve(dataflow.NewCallable("pkg.f")).Mode
			if !got.Equal(tt.want) {
				t.Errorf("mode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModelQueries(t *testing.T) {
	result := parseAll(t, []Document{fixtureDoc(t, "queries.pysm")})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Queries) != 2 {
		t.Fatalf("queries = %d, want 2", len(result.Queries))
	}
	// Sorted by name.
	if result.Queries[0].Name != "q_save" || result.Queries[1].Name != "q_views" {
		t.Fatalf("query order = %s, %s", result.Queries[0].Name, result.Queries[1].Name)
	}

	resolver := newTestResolver()
	candidates := []dataflow.Callable{
		dataflow.NewCallable("views.render"),
		dataflow.NewCallable("app.get_input"),
		dataflow.NewCallable("repo.Repository.save"),
	}
	mm := ApplyQueries(dataflow.ModelMapping{}, result.Queries, candidates, resolver)

	render := mm.Resolve(dataflow.NewCallable("views.render"))
	if !render.Sources.TaintsAt(dataflow.NewReturnPath("")).Has("UserControlled") {
		t.Errorf("views.render should gain a return source, got %v", render.Sources)
	}
	if mm.Defines(dataflow.NewCallable("app.get_input")) {
		t.Errorf("app.get_input does not match ^views\\. and must gain nothing")
	}

	save := mm.Resolve(dataflow.NewCallable("repo.Repository.save"))
	for _, p := range []string{"entity", "tags"} {
		if !save.Sinks.TaintsAt(dataflow.NewParameterPath(p, "")).Has("Sql") {
			t.Errorf("Repository.save should sink Sql at %s, got %v", p, save.Sinks)
		}
	}
}

func TestQuerySynthesisMergesWithExplicitModels(t *testing.T) {
	explicit := dataflow.ModelMapping{}
	m := dataflow.EmptyModel()
	m.Sinks.AddLeaf(dataflow.NewParameterPath("request", ""), "Sql")
	explicit = explicit.WithModel(dataflow.NewCallable("views.render"), m)

	q := Query{
		Name:  "q",
		Find:  FindFunctions,
		Model: []Template{ReturnsTemplate{spec: taintSpec{family: "TaintSource", kinds: []dataflow.Kind{"UserControlled"}}}},
	}
	mm := ApplyQueries(explicit, []Query{q}, []dataflow.Callable{dataflow.NewCallable("views.render")}, newTestResolver())

	got := mm.Resolve(dataflow.NewCallable("views.render"))
	if !got.Sinks.TaintsAt(dataflow.NewParameterPath("request", "")).Has("Sql") {
		t.Errorf("explicit sink lost in query merge: %v", got.Sinks)
	}
	if !got.Sources.TaintsAt(dataflow.NewReturnPath("")).Has("UserControlled") {
		t.Errorf("synthesized source missing: %v", got.Sources)
	}
}

func TestQueryFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"missing name", `ModelQuery(find = "functions", model = Returns(TaintSource[UserControlled]))`},
		{"bad find", `ModelQuery(name = "q", find = "classes", model = Returns(TaintSource[UserControlled]))`},
		{"unknown condition", `ModelQuery(name = "q", find = "functions", where = size.matches("x"), model = Returns(TaintSource[UserControlled]))`},
		{"bad pattern", `ModelQuery(name = "q", find = "functions", where = name.matches("["), model = Returns(TaintSource[UserControlled]))`},
		{"empty model", `ModelQuery(name = "q", find = "functions")`},
		{"unknown kind", `ModelQuery(name = "q", find = "functions", model = Returns(TaintSource[Nope]))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := []Document{{Path: "q.pysm", Text: tt.line + "\n"}}
			result, err := ParseDocuments(context.Background(), newTestConfig(), nil, docs)
			if err != nil {
				t.Fatalf("ParseDocuments: %v", err)
			}
			if len(result.Errors) == 0 {
				t.Fatalf("want at least one verification error")
			}
			if len(result.Queries) != 0 {
				t.Fatalf("malformed query must not be kept: %v", result.Queries)
			}
		})
	}
}
